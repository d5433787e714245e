// Package geo implements marker clustering and marker rendering for the map view.
//
// Clustering runs in web-mercator pixel space so the grouping the client sees
// matches what a pixel-radius clusterer would produce at the same zoom level.
// A spatial hash grid keeps neighbor lookup O(k) instead of O(n) per point.
package geo

import (
	"math"

	"github.com/google/uuid"

	"github.com/pinmark/pinmark/internal/domain"
)

// Clustering parameters. These mirror the client map's clusterer settings so
// server-computed clusters render identically.
const (
	// ClusterRadiusPx is the grouping radius in screen pixels.
	ClusterRadiusPx = 60.0

	// MaxClusterZoom is the deepest zoom level at which clustering applies;
	// beyond it every location renders as its own marker.
	MaxClusterZoom = 15

	// MinClusterPoints is the minimum number of locations to form a cluster.
	MinClusterPoints = 2

	tileSize = 256.0
)

// Marker is one renderable map element: either a single location or a
// cluster of locations.
type Marker struct {
	Lat        float64     `json:"lat"`
	Lng        float64     `json:"lng"`
	Count      int         `json:"count"`
	LocationID uuid.UUID   `json:"location_id,omitempty"` // Set for single-location markers
	PlaceID    string      `json:"place_id,omitempty"`
	Icon       string      `json:"icon"` // SVG data URL
	InfoHTML   string      `json:"info_html,omitempty"`
	Members    []uuid.UUID `json:"members,omitempty"` // Location IDs inside a cluster
}

// IsCluster reports whether the marker aggregates multiple locations.
func (m *Marker) IsCluster() bool {
	return m.Count > 1
}

// Cluster groups locations into markers for the given zoom level.
//
// At zoom levels above MaxClusterZoom, or with fewer than MinClusterPoints
// neighbors, locations become individual markers. Cluster positions are the
// mean of their members' projected coordinates.
func Cluster(locations []domain.Location, zoom int) []Marker {
	if zoom > MaxClusterZoom {
		return singles(locations)
	}

	// Project every location once.
	pts := make([]point, len(locations))
	for i, l := range locations {
		x, y := project(l.Lat, l.Lng, zoom)
		pts[i] = point{x: x, y: y, loc: &locations[i]}
	}

	// Bucket points into radius-sized grid cells so candidate neighbors are
	// limited to the 3x3 cell block around each point.
	grid := make(map[cellKey][]int, len(pts))
	for i, p := range pts {
		k := keyFor(p.x, p.y)
		grid[k] = append(grid[k], i)
	}

	clustered := make([]bool, len(pts))
	var markers []Marker

	for i := range pts {
		if clustered[i] {
			continue
		}

		neighbors := nearby(pts, grid, i, clustered)

		if len(neighbors) < MinClusterPoints {
			clustered[i] = true
			markers = append(markers, singleMarker(pts[i].loc))
			continue
		}

		// Form a cluster at the centroid of the member points.
		var sumX, sumY float64
		members := make([]uuid.UUID, 0, len(neighbors))
		for _, j := range neighbors {
			clustered[j] = true
			sumX += pts[j].x
			sumY += pts[j].y
			members = append(members, pts[j].loc.ID)
		}
		lat, lng := unproject(sumX/float64(len(neighbors)), sumY/float64(len(neighbors)), zoom)

		markers = append(markers, Marker{
			Lat:     lat,
			Lng:     lng,
			Count:   len(neighbors),
			Icon:    ClusterIcon(len(neighbors)),
			Members: members,
		})
	}

	return markers
}

type point struct {
	x, y float64
	loc  *domain.Location
}

type cellKey struct {
	x, y int
}

func keyFor(x, y float64) cellKey {
	return cellKey{
		x: int(math.Floor(x / ClusterRadiusPx)),
		y: int(math.Floor(y / ClusterRadiusPx)),
	}
}

// nearby returns the indices of all unclustered points within the cluster
// radius of point i, including i itself.
func nearby(pts []point, grid map[cellKey][]int, i int, clustered []bool) []int {
	center := keyFor(pts[i].x, pts[i].y)
	var out []int
	for dx := -1; dx <= 1; dx++ {
		for dy := -1; dy <= 1; dy++ {
			for _, j := range grid[cellKey{x: center.x + dx, y: center.y + dy}] {
				if clustered[j] {
					continue
				}
				ddx := pts[j].x - pts[i].x
				ddy := pts[j].y - pts[i].y
				if ddx*ddx+ddy*ddy <= ClusterRadiusPx*ClusterRadiusPx {
					out = append(out, j)
				}
			}
		}
	}
	return out
}

func singles(locations []domain.Location) []Marker {
	markers := make([]Marker, 0, len(locations))
	for i := range locations {
		markers = append(markers, singleMarker(&locations[i]))
	}
	return markers
}

func singleMarker(l *domain.Location) Marker {
	return Marker{
		Lat:        l.Lat,
		Lng:        l.Lng,
		Count:      1,
		LocationID: l.ID,
		PlaceID:    l.PlaceID,
		Icon:       LocationIcon(l.Type),
		InfoHTML:   InfoWindowHTML(l),
	}
}

// =============================================================================
// Projection helpers
// =============================================================================

// project converts lat/lng to world pixel coordinates at a zoom level
// (standard web-mercator).
func project(lat, lng float64, zoom int) (x, y float64) {
	world := tileSize * math.Exp2(float64(zoom))
	x = (lng + 180) / 360 * world

	sin := math.Sin(lat * math.Pi / 180)
	// Clamp to avoid infinities at the poles.
	if sin > 0.9999 {
		sin = 0.9999
	}
	if sin < -0.9999 {
		sin = -0.9999
	}
	y = (0.5 - math.Log((1+sin)/(1-sin))/(4*math.Pi)) * world
	return x, y
}

// unproject converts world pixel coordinates back to lat/lng.
func unproject(x, y float64, zoom int) (lat, lng float64) {
	world := tileSize * math.Exp2(float64(zoom))
	lng = x/world*360 - 180

	n := math.Pi - 2*math.Pi*y/world
	lat = 180 / math.Pi * math.Atan(0.5*(math.Exp(n)-math.Exp(-n)))
	return lat, lng
}

// HaversineKm returns the great-circle distance between two points in km.
func HaversineKm(lat1, lng1, lat2, lng2 float64) float64 {
	const earthRadiusKm = 6371.0

	lat1Rad := lat1 * math.Pi / 180
	lat2Rad := lat2 * math.Pi / 180
	deltaLat := (lat2 - lat1) * math.Pi / 180
	deltaLng := (lng2 - lng1) * math.Pi / 180

	a := math.Sin(deltaLat/2)*math.Sin(deltaLat/2) +
		math.Cos(lat1Rad)*math.Cos(lat2Rad)*
			math.Sin(deltaLng/2)*math.Sin(deltaLng/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusKm * c
}
