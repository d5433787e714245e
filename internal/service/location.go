package service

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"strings"
	"unicode"

	"github.com/google/uuid"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/pinmark/pinmark/internal/domain"
	"github.com/pinmark/pinmark/internal/geo"
	"github.com/pinmark/pinmark/internal/metrics"
)

// Bounds is a lat/lng bounding box for viewport queries.
type Bounds struct {
	South float64
	West  float64
	North float64
	East  float64
}

// Valid reports whether the box corners are in range and ordered.
func (b Bounds) Valid() bool {
	return domain.ValidCoordinates(b.South, b.West) &&
		domain.ValidCoordinates(b.North, b.East) &&
		b.South <= b.North
}

// locationQueries is the slice of the repository the location service
// depends on.
type locationQueries interface {
	CreateLocation(ctx context.Context, p domain.CreateLocationParams) (domain.Location, error)
	GetLocationByID(ctx context.Context, id uuid.UUID) (domain.Location, error)
	GetLocationByIDAndUserID(ctx context.Context, id, userID uuid.UUID) (domain.Location, error)
	GetLocationByPlaceID(ctx context.Context, userID uuid.UUID, placeID string) (domain.Location, error)
	ListLocationsByUserID(ctx context.Context, userID uuid.UUID) ([]domain.Location, error)
	ListLocationsInBounds(ctx context.Context, userID uuid.UUID, south, west, north, east float64) ([]domain.Location, error)
	UpdateLocation(ctx context.Context, p domain.UpdateLocationParams) error
	DeleteLocation(ctx context.Context, id uuid.UUID) error
	ListLocationPhotos(ctx context.Context, locationID uuid.UUID) ([]domain.LocationPhoto, error)
}

// LocationService defines the interface for saved-location operations.
//
// Every operation is scoped to the owning user; a location belonging to
// someone else reads as not found, never as forbidden, so IDs cannot be
// probed.
type LocationService interface {
	// Create saves a new location for the user.
	// Returns domain.ECONFLICT if the user already saved this place.
	// Returns domain.EINVALID for validation errors.
	Create(ctx context.Context, params domain.CreateLocationParams) (*domain.Location, error)

	// List returns the user's saved locations, optionally filtered by a
	// case- and accent-insensitive substring match on name, address, city,
	// and type.
	List(ctx context.Context, userID uuid.UUID, search string) ([]domain.Location, error)

	// Get returns one of the user's locations with its photos attached.
	// Returns domain.ENOTFOUND if it does not exist or is not theirs.
	Get(ctx context.Context, id, userID uuid.UUID) (*domain.Location, error)

	// Update modifies the editable metadata of one of the user's locations.
	Update(ctx context.Context, params domain.UpdateLocationParams) (*domain.Location, error)

	// Delete removes one of the user's locations and its photos.
	Delete(ctx context.Context, id, userID uuid.UUID) error

	// IsSaved reports whether the user already saved the given place, and
	// returns the saved location when they have.
	IsSaved(ctx context.Context, userID uuid.UUID, placeID string) (*domain.Location, error)

	// Markers returns the rendered markers (clustered below the zoom
	// cutoff) for the user's locations inside the viewport.
	Markers(ctx context.Context, userID uuid.UUID, bounds Bounds, zoom int) ([]geo.Marker, error)
}

type locationService struct {
	queries locationQueries
	logger  *slog.Logger
}

// NewLocationService creates a new LocationService instance.
func NewLocationService(queries locationQueries, logger *slog.Logger) LocationService {
	return &locationService{
		queries: queries,
		logger:  logger,
	}
}

func (s *locationService) Create(ctx context.Context, params domain.CreateLocationParams) (*domain.Location, error) {
	const op = "LocationService.Create"

	params.PlaceID = strings.TrimSpace(params.PlaceID)
	params.Name = strings.TrimSpace(params.Name)

	if params.PlaceID == "" {
		return nil, domain.Invalid(op, "Place ID is required")
	}
	if params.Name == "" {
		return nil, domain.Invalid(op, "Name is required")
	}
	if !domain.ValidCoordinates(params.Lat, params.Lng) {
		return nil, domain.Invalid(op, "Coordinates out of range")
	}

	// One bookmark per place per user. Checked up front for a clean
	// conflict message; the unique index still backstops races.
	_, err := s.queries.GetLocationByPlaceID(ctx, params.UserID, params.PlaceID)
	if err == nil {
		return nil, domain.Conflict(op, "Location already saved")
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, domain.Internal(err, op, "Failed to check for existing location")
	}

	location, err := s.queries.CreateLocation(ctx, params)
	if err != nil {
		if strings.Contains(err.Error(), "unique") || strings.Contains(err.Error(), "duplicate") {
			return nil, domain.Conflict(op, "Location already saved")
		}
		return nil, domain.Internal(err, op, "Failed to save location")
	}

	metrics.LocationsSaved.Inc()
	s.logger.Info("location saved",
		"user_id", params.UserID,
		"location_id", location.ID,
		"place_id", location.PlaceID)

	return &location, nil
}

func (s *locationService) List(ctx context.Context, userID uuid.UUID, search string) ([]domain.Location, error) {
	const op = "LocationService.List"

	locations, err := s.queries.ListLocationsByUserID(ctx, userID)
	if err != nil {
		return nil, domain.Internal(err, op, "Failed to list locations")
	}

	search = strings.TrimSpace(search)
	if search == "" {
		return locations, nil
	}

	needle := foldSearch(search)
	filtered := locations[:0]
	for _, l := range locations {
		if locationMatches(&l, needle) {
			filtered = append(filtered, l)
		}
	}
	return filtered, nil
}

func (s *locationService) Get(ctx context.Context, id, userID uuid.UUID) (*domain.Location, error) {
	const op = "LocationService.Get"

	location, err := s.queries.GetLocationByIDAndUserID(ctx, id, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NotFound(op, "location", id.String())
		}
		return nil, domain.Internal(err, op, "Failed to retrieve location")
	}

	photos, err := s.queries.ListLocationPhotos(ctx, location.ID)
	if err != nil {
		return nil, domain.Internal(err, op, "Failed to list location photos")
	}
	location.Photos = photos

	return &location, nil
}

func (s *locationService) Update(ctx context.Context, params domain.UpdateLocationParams) (*domain.Location, error) {
	const op = "LocationService.Update"

	params.Name = strings.TrimSpace(params.Name)
	if params.Name == "" {
		return nil, domain.Invalid(op, "Name is required")
	}

	// Ownership check before the write.
	if _, err := s.queries.GetLocationByIDAndUserID(ctx, params.ID, params.UserID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NotFound(op, "location", params.ID.String())
		}
		return nil, domain.Internal(err, op, "Failed to retrieve location")
	}

	if err := s.queries.UpdateLocation(ctx, params); err != nil {
		return nil, domain.Internal(err, op, "Failed to update location")
	}

	location, err := s.queries.GetLocationByIDAndUserID(ctx, params.ID, params.UserID)
	if err != nil {
		return nil, domain.Internal(err, op, "Failed to reload location")
	}

	s.logger.Info("location updated", "user_id", params.UserID, "location_id", params.ID)
	return &location, nil
}

func (s *locationService) Delete(ctx context.Context, id, userID uuid.UUID) error {
	const op = "LocationService.Delete"

	if _, err := s.queries.GetLocationByIDAndUserID(ctx, id, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.NotFound(op, "location", id.String())
		}
		return domain.Internal(err, op, "Failed to retrieve location")
	}

	if err := s.queries.DeleteLocation(ctx, id); err != nil {
		return domain.Internal(err, op, "Failed to delete location")
	}

	s.logger.Info("location deleted", "user_id", userID, "location_id", id)
	return nil
}

func (s *locationService) IsSaved(ctx context.Context, userID uuid.UUID, placeID string) (*domain.Location, error) {
	const op = "LocationService.IsSaved"

	placeID = strings.TrimSpace(placeID)
	if placeID == "" {
		return nil, domain.Invalid(op, "Place ID is required")
	}

	location, err := s.queries.GetLocationByPlaceID(ctx, userID, placeID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, domain.Internal(err, op, "Failed to check saved place")
	}
	return &location, nil
}

func (s *locationService) Markers(ctx context.Context, userID uuid.UUID, bounds Bounds, zoom int) ([]geo.Marker, error) {
	const op = "LocationService.Markers"

	if !bounds.Valid() {
		return nil, domain.Invalid(op, "Invalid viewport bounds")
	}
	if zoom < 0 || zoom > 22 {
		return nil, domain.Invalid(op, "Zoom out of range")
	}

	locations, err := s.queries.ListLocationsInBounds(ctx, userID,
		bounds.South, bounds.West, bounds.North, bounds.East)
	if err != nil {
		return nil, domain.Internal(err, op, "Failed to list locations in bounds")
	}

	return geo.Cluster(locations, zoom), nil
}

// =============================================================================
// Search folding
// =============================================================================

// searchFolder strips diacritics so "café" matches "cafe".
var searchFolder = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// foldSearch lowercases and de-accents a string for comparison.
func foldSearch(s string) string {
	folded, _, err := transform.String(searchFolder, s)
	if err != nil {
		folded = s
	}
	return strings.ToLower(folded)
}

func locationMatches(l *domain.Location, needle string) bool {
	for _, field := range []string{l.Name, l.Address, l.City, string(l.Type), l.Description} {
		if strings.Contains(foldSearch(field), needle) {
			return true
		}
	}
	return false
}
