package geo

import (
	"encoding/base64"
	"fmt"

	"github.com/pinmark/pinmark/internal/domain"
)

// markerStyle defines the pin color and badge initials for a location type.
type markerStyle struct {
	color    string
	initials string
}

// markerStyles keys location types to their rendered pin style. Unknown
// types fall through to defaultStyle.
var markerStyles = map[domain.LocationType]markerStyle{
	domain.LocationTypeBroll:        {color: "#9C27B0", initials: "BR"},
	domain.LocationTypeInterview:    {color: "#2196F3", initials: "IN"},
	domain.LocationTypeStage:        {color: "#FF9800", initials: "ST"},
	domain.LocationTypeHeadquarters: {color: "#F44336", initials: "HQ"},
	domain.LocationTypeOffice:       {color: "#4CAF50", initials: "OF"},
	domain.LocationTypeLiveAnchor:   {color: "#E91E63", initials: "LA"},
	domain.LocationTypeLiveReporter: {color: "#00BCD4", initials: "LR"},
}

var defaultStyle = markerStyle{color: "#757575", initials: "PM"}

// LocationIcon returns an SVG data URL for a single-location pin, colored and
// badged by location type.
func LocationIcon(t domain.LocationType) string {
	style, ok := markerStyles[t]
	if !ok {
		style = defaultStyle
	}

	svg := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" width="32" height="44" viewBox="0 0 32 44">`+
		`<path d="M16 0C7.2 0 0 7.2 0 16c0 11 16 28 16 28s16-17 16-28C32 7.2 24.8 0 16 0z" fill="%s"/>`+
		`<circle cx="16" cy="16" r="11" fill="white"/>`+
		`<text x="16" y="21" font-family="Arial, sans-serif" font-size="11" font-weight="bold" text-anchor="middle" fill="%s">%s</text>`+
		`</svg>`,
		style.color, style.color, style.initials)

	return svgDataURL(svg)
}

// ClusterIcon returns an SVG data URL for a cluster badge showing the member
// count. The badge grows with the count so large clusters read at a glance.
func ClusterIcon(count int) string {
	radius := 18
	switch {
	case count >= 100:
		radius = 26
	case count >= 10:
		radius = 22
	}
	size := radius * 2

	svg := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">`+
		`<circle cx="%d" cy="%d" r="%d" fill="#1976D2" fill-opacity="0.85"/>`+
		`<circle cx="%d" cy="%d" r="%d" fill="none" stroke="white" stroke-width="2"/>`+
		`<text x="%d" y="%d" font-family="Arial, sans-serif" font-size="13" font-weight="bold" text-anchor="middle" fill="white">%d</text>`+
		`</svg>`,
		size, size, size, size,
		radius, radius, radius,
		radius, radius, radius-3,
		radius, radius+5, count)

	return svgDataURL(svg)
}

func svgDataURL(svg string) string {
	return "data:image/svg+xml;base64," + base64.StdEncoding.EncodeToString([]byte(svg))
}
