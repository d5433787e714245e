package geo

import (
	"html/template"
	"strings"

	"github.com/pinmark/pinmark/internal/domain"
)

// Info-window markup is produced through html/template so every
// user-supplied value is entity-escaped. A location named
// `<img src=x onerror=...>` renders as text, never as markup.
var infoWindowTmpl = template.Must(template.New("infowindow").Parse(strings.TrimSpace(`
<div class="info-window">
  <h3 class="info-title">{{.Name}}</h3>
  {{- if .Address}}
  <p class="info-address">{{.Address}}</p>
  {{- end}}
  {{- if .Type}}
  <span class="info-type">{{.Type}}</span>
  {{- end}}
  {{- if .Description}}
  <p class="info-description">{{.Description}}</p>
  {{- end}}
</div>
`)))

type infoWindowData struct {
	Name        string
	Address     string
	Type        string
	Description string
}

// InfoWindowHTML renders the escaped info-window fragment for a location.
// Returns an empty string if rendering fails; a missing info window is a
// cosmetic defect, not an error the marker pipeline should stop for.
func InfoWindowHTML(l *domain.Location) string {
	var b strings.Builder
	err := infoWindowTmpl.Execute(&b, infoWindowData{
		Name:        l.Name,
		Address:     l.Address,
		Type:        string(l.Type),
		Description: l.Description,
	})
	if err != nil {
		return ""
	}
	return b.String()
}
