package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// LocationType categorizes a saved location for marker rendering.
//
// Types map to marker colors and initials in the geo package; unknown types
// fall back to a neutral marker.
type LocationType string

const (
	LocationTypeBroll        LocationType = "broll"
	LocationTypeInterview    LocationType = "interview"
	LocationTypeStage        LocationType = "stage"
	LocationTypeHeadquarters LocationType = "headquarters"
	LocationTypeOffice       LocationType = "office"
	LocationTypeLiveAnchor   LocationType = "live anchor"
	LocationTypeLiveReporter LocationType = "live reporter"
)

// Location is a persisted bookmark derived from a maps-provider Place plus
// user-entered production metadata.
type Location struct {
	ID              uuid.UUID
	UserID          uuid.UUID
	PlaceID         string // Upstream place identifier, unique per user
	Name            string
	Description     string
	Address         string // Full formatted address
	Street          string
	Number          string
	City            string
	State           string
	Zipcode         string
	Lat             float64
	Lng             float64
	Type            LocationType
	ProductionNotes string
	EntryPoint      string
	Parking         string
	Access          string
	Photos          []LocationPhoto
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// CityStateZip returns a single-line location summary.
func (l *Location) CityStateZip() string {
	return fmt.Sprintf("%s, %s %s", l.City, l.State, l.Zipcode)
}

// StreetAddress returns "number street" trimmed of extra whitespace.
func (l *Location) StreetAddress() string {
	return strings.TrimSpace(fmt.Sprintf("%s %s", l.Number, l.Street))
}

// LocationPhoto is an uploaded photo attached to a location.
type LocationPhoto struct {
	ID           uuid.UUID
	LocationID   uuid.UUID
	StorageKey   string
	ThumbnailKey string
	ContentType  string
	SizeBytes    int64
	CreatedAt    time.Time
}

// CreateLocationParams contains parameters for saving a location.
type CreateLocationParams struct {
	UserID          uuid.UUID
	PlaceID         string
	Name            string
	Description     string
	Address         string
	Street          string
	Number          string
	City            string
	State           string
	Zipcode         string
	Lat             float64
	Lng             float64
	Type            LocationType
	ProductionNotes string
	EntryPoint      string
	Parking         string
	Access          string
}

// UpdateLocationParams contains parameters for updating a location.
type UpdateLocationParams struct {
	ID              uuid.UUID
	UserID          uuid.UUID // For authorization
	Name            string
	Description     string
	Type            LocationType
	ProductionNotes string
	EntryPoint      string
	Parking         string
	Access          string
}

// ValidCoordinates reports whether lat/lng fall in the WGS84 range.
func ValidCoordinates(lat, lng float64) bool {
	return lat >= -90 && lat <= 90 && lng >= -180 && lng <= 180
}
