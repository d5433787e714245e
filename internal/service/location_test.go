package service

import (
	"context"
	"database/sql"
	"log/slog"
	"testing"

	"github.com/google/uuid"

	"github.com/pinmark/pinmark/internal/domain"
)

// fakeLocationQueries is an in-memory locationQueries implementation.
type fakeLocationQueries struct {
	locations map[uuid.UUID]domain.Location
	photos    map[uuid.UUID][]domain.LocationPhoto
}

func newFakeLocationQueries() *fakeLocationQueries {
	return &fakeLocationQueries{
		locations: map[uuid.UUID]domain.Location{},
		photos:    map[uuid.UUID][]domain.LocationPhoto{},
	}
}

func (f *fakeLocationQueries) CreateLocation(ctx context.Context, p domain.CreateLocationParams) (domain.Location, error) {
	l := domain.Location{
		ID:          uuid.New(),
		UserID:      p.UserID,
		PlaceID:     p.PlaceID,
		Name:        p.Name,
		Description: p.Description,
		Address:     p.Address,
		City:        p.City,
		State:       p.State,
		Zipcode:     p.Zipcode,
		Lat:         p.Lat,
		Lng:         p.Lng,
		Type:        p.Type,
	}
	f.locations[l.ID] = l
	return l, nil
}

func (f *fakeLocationQueries) GetLocationByID(ctx context.Context, id uuid.UUID) (domain.Location, error) {
	l, ok := f.locations[id]
	if !ok {
		return domain.Location{}, sql.ErrNoRows
	}
	return l, nil
}

func (f *fakeLocationQueries) GetLocationByIDAndUserID(ctx context.Context, id, userID uuid.UUID) (domain.Location, error) {
	l, ok := f.locations[id]
	if !ok || l.UserID != userID {
		return domain.Location{}, sql.ErrNoRows
	}
	return l, nil
}

func (f *fakeLocationQueries) GetLocationByPlaceID(ctx context.Context, userID uuid.UUID, placeID string) (domain.Location, error) {
	for _, l := range f.locations {
		if l.UserID == userID && l.PlaceID == placeID {
			return l, nil
		}
	}
	return domain.Location{}, sql.ErrNoRows
}

func (f *fakeLocationQueries) ListLocationsByUserID(ctx context.Context, userID uuid.UUID) ([]domain.Location, error) {
	var out []domain.Location
	for _, l := range f.locations {
		if l.UserID == userID {
			out = append(out, l)
		}
	}
	return out, nil
}

func (f *fakeLocationQueries) ListLocationsInBounds(ctx context.Context, userID uuid.UUID, south, west, north, east float64) ([]domain.Location, error) {
	var out []domain.Location
	for _, l := range f.locations {
		if l.UserID == userID && l.Lat >= south && l.Lat <= north && l.Lng >= west && l.Lng <= east {
			out = append(out, l)
		}
	}
	return out, nil
}

func (f *fakeLocationQueries) UpdateLocation(ctx context.Context, p domain.UpdateLocationParams) error {
	l, ok := f.locations[p.ID]
	if !ok || l.UserID != p.UserID {
		return sql.ErrNoRows
	}
	l.Name = p.Name
	l.Description = p.Description
	l.Type = p.Type
	l.ProductionNotes = p.ProductionNotes
	l.EntryPoint = p.EntryPoint
	l.Parking = p.Parking
	l.Access = p.Access
	f.locations[p.ID] = l
	return nil
}

func (f *fakeLocationQueries) DeleteLocation(ctx context.Context, id uuid.UUID) error {
	delete(f.locations, id)
	return nil
}

func (f *fakeLocationQueries) ListLocationPhotos(ctx context.Context, locationID uuid.UUID) ([]domain.LocationPhoto, error) {
	return f.photos[locationID], nil
}

func newTestLocationService(t *testing.T) LocationService {
	t.Helper()
	return NewLocationService(newFakeLocationQueries(), slog.Default())
}

func saveLocation(t *testing.T, svc LocationService, userID uuid.UUID, placeID, name string) *domain.Location {
	t.Helper()
	l, err := svc.Create(context.Background(), domain.CreateLocationParams{
		UserID:  userID,
		PlaceID: placeID,
		Name:    name,
		Lat:     43.05,
		Lng:     -76.15,
		Type:    domain.LocationTypeInterview,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	return l
}

// =============================================================================
// Create / IsSaved Tests
// =============================================================================

func TestCreateValidation(t *testing.T) {
	svc := newTestLocationService(t)
	userID := uuid.New()

	testCases := []struct {
		name   string
		params domain.CreateLocationParams
	}{
		{"missing place id", domain.CreateLocationParams{UserID: userID, Name: "A", Lat: 1, Lng: 1}},
		{"missing name", domain.CreateLocationParams{UserID: userID, PlaceID: "p1", Lat: 1, Lng: 1}},
		{"latitude out of range", domain.CreateLocationParams{UserID: userID, PlaceID: "p1", Name: "A", Lat: 91, Lng: 0}},
		{"longitude out of range", domain.CreateLocationParams{UserID: userID, PlaceID: "p1", Name: "A", Lat: 0, Lng: 181}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), tc.params)
			if domain.ErrorCode(err) != domain.EINVALID {
				t.Errorf("error code = %v, want EINVALID", domain.ErrorCode(err))
			}
		})
	}
}

func TestSavingSamePlaceTwiceConflicts(t *testing.T) {
	svc := newTestLocationService(t)
	userID := uuid.New()

	saveLocation(t, svc, userID, "place-1", "City Hall")

	_, err := svc.Create(context.Background(), domain.CreateLocationParams{
		UserID:  userID,
		PlaceID: "place-1",
		Name:    "City Hall Again",
		Lat:     43.05,
		Lng:     -76.15,
		Type:    domain.LocationTypeBroll,
	})
	if domain.ErrorCode(err) != domain.ECONFLICT {
		t.Errorf("error code = %v, want ECONFLICT", domain.ErrorCode(err))
	}

	// A different user can save the same place.
	otherUser := uuid.New()
	if _, err := svc.Create(context.Background(), domain.CreateLocationParams{
		UserID:  otherUser,
		PlaceID: "place-1",
		Name:    "City Hall",
		Lat:     43.05,
		Lng:     -76.15,
		Type:    domain.LocationTypeInterview,
	}); err != nil {
		t.Errorf("another user saving the same place should succeed: %v", err)
	}
}

func TestIsSavedReflectsSaveAndDelete(t *testing.T) {
	svc := newTestLocationService(t)
	userID := uuid.New()

	if saved, err := svc.IsSaved(context.Background(), userID, "place-1"); err != nil || saved != nil {
		t.Fatalf("unsaved place: saved=%v err=%v, want nil/nil", saved, err)
	}

	l := saveLocation(t, svc, userID, "place-1", "City Hall")

	saved, err := svc.IsSaved(context.Background(), userID, "place-1")
	if err != nil || saved == nil {
		t.Fatalf("saved place: saved=%v err=%v", saved, err)
	}
	if saved.ID != l.ID {
		t.Errorf("IsSaved returned location %s, want %s", saved.ID, l.ID)
	}

	if err := svc.Delete(context.Background(), l.ID, userID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if saved, err := svc.IsSaved(context.Background(), userID, "place-1"); err != nil || saved != nil {
		t.Errorf("after delete: saved=%v err=%v, want nil/nil", saved, err)
	}
}

// =============================================================================
// Ownership Tests
// =============================================================================

func TestOtherUsersLocationReadsAsNotFound(t *testing.T) {
	svc := newTestLocationService(t)
	owner := uuid.New()
	stranger := uuid.New()

	l := saveLocation(t, svc, owner, "place-1", "City Hall")

	if _, err := svc.Get(context.Background(), l.ID, stranger); domain.ErrorCode(err) != domain.ENOTFOUND {
		t.Errorf("Get error code = %v, want ENOTFOUND", domain.ErrorCode(err))
	}
	if err := svc.Delete(context.Background(), l.ID, stranger); domain.ErrorCode(err) != domain.ENOTFOUND {
		t.Errorf("Delete error code = %v, want ENOTFOUND", domain.ErrorCode(err))
	}
	if _, err := svc.Update(context.Background(), domain.UpdateLocationParams{
		ID: l.ID, UserID: stranger, Name: "Hijacked",
	}); domain.ErrorCode(err) != domain.ENOTFOUND {
		t.Errorf("Update error code = %v, want ENOTFOUND", domain.ErrorCode(err))
	}
}

// =============================================================================
// Search Tests
// =============================================================================

func TestListSearchIsCaseAndAccentInsensitive(t *testing.T) {
	q := newFakeLocationQueries()
	svc := NewLocationService(q, slog.Default())
	userID := uuid.New()

	for _, l := range []domain.CreateLocationParams{
		{UserID: userID, PlaceID: "p1", Name: "Café Kubal", Lat: 43, Lng: -76, Type: domain.LocationTypeBroll},
		{UserID: userID, PlaceID: "p2", Name: "City Hall", City: "Syracuse", Lat: 43, Lng: -76, Type: domain.LocationTypeInterview},
		{UserID: userID, PlaceID: "p3", Name: "Channel 9 Studio", Lat: 43, Lng: -76, Type: domain.LocationTypeStage},
	} {
		if _, err := svc.Create(context.Background(), l); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}

	testCases := []struct {
		query string
		want  int
	}{
		{"cafe", 1},      // accent-folded
		{"CAFÉ", 1},      // case-folded
		{"syracuse", 1},  // matches city
		{"stage", 1},     // matches type
		{"studio", 1},    // matches name
		{"", 3},          // no filter
		{"nowhere", 0},
	}

	for _, tc := range testCases {
		got, err := svc.List(context.Background(), userID, tc.query)
		if err != nil {
			t.Fatalf("List(%q): %v", tc.query, err)
		}
		if len(got) != tc.want {
			t.Errorf("List(%q) returned %d locations, want %d", tc.query, len(got), tc.want)
		}
	}
}

// =============================================================================
// Marker Tests
// =============================================================================

func TestMarkersClustersWithinViewport(t *testing.T) {
	q := newFakeLocationQueries()
	svc := NewLocationService(q, slog.Default())
	userID := uuid.New()

	// Two near-identical points inside the viewport, one outside it.
	for i, coords := range [][2]float64{{43.0481, -76.1474}, {43.0483, -76.1476}, {34.05, -118.24}} {
		_, err := svc.Create(context.Background(), domain.CreateLocationParams{
			UserID:  userID,
			PlaceID: string(rune('a' + i)),
			Name:    "spot",
			Lat:     coords[0],
			Lng:     coords[1],
			Type:    domain.LocationTypeBroll,
		})
		if err != nil {
			t.Fatalf("Create: %v", err)
		}
	}

	markers, err := svc.Markers(context.Background(), userID, Bounds{South: 42, West: -78, North: 44, East: -75}, 10)
	if err != nil {
		t.Fatalf("Markers: %v", err)
	}
	if len(markers) != 1 || !markers[0].IsCluster() {
		t.Fatalf("got %+v, want one cluster of the two in-viewport points", markers)
	}
	if markers[0].Count != 2 {
		t.Errorf("cluster count = %d, want 2", markers[0].Count)
	}
}

func TestMarkersRejectsBadInput(t *testing.T) {
	svc := newTestLocationService(t)
	userID := uuid.New()

	if _, err := svc.Markers(context.Background(), userID, Bounds{South: 91, West: 0, North: 92, East: 1}, 10); domain.ErrorCode(err) != domain.EINVALID {
		t.Errorf("bad bounds error code = %v, want EINVALID", domain.ErrorCode(err))
	}
	if _, err := svc.Markers(context.Background(), userID, Bounds{South: 0, West: 0, North: 1, East: 1}, 40); domain.ErrorCode(err) != domain.EINVALID {
		t.Errorf("bad zoom error code = %v, want EINVALID", domain.ErrorCode(err))
	}
}
