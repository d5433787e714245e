package repository

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/pinmark/pinmark/internal/domain"
)

const locationColumns = `id, user_id, place_id, name, description, address, street, number,
	city, state, zipcode, lat, lng, type, production_notes, entry_point, parking, access,
	created_at, updated_at`

func scanLocation(row interface{ Scan(...interface{}) error }) (domain.Location, error) {
	var (
		l                                            domain.Location
		description, address, street, number         sql.NullString
		city, state, zipcode, typ                    sql.NullString
		productionNotes, entryPoint, parking, access sql.NullString
	)
	err := row.Scan(&l.ID, &l.UserID, &l.PlaceID, &l.Name, &description, &address, &street, &number,
		&city, &state, &zipcode, &l.Lat, &l.Lng, &typ, &productionNotes, &entryPoint, &parking, &access,
		&l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		return domain.Location{}, err
	}
	l.Description = domain.NullStringValue(description)
	l.Address = domain.NullStringValue(address)
	l.Street = domain.NullStringValue(street)
	l.Number = domain.NullStringValue(number)
	l.City = domain.NullStringValue(city)
	l.State = domain.NullStringValue(state)
	l.Zipcode = domain.NullStringValue(zipcode)
	l.Type = domain.LocationType(domain.NullStringValue(typ))
	l.ProductionNotes = domain.NullStringValue(productionNotes)
	l.EntryPoint = domain.NullStringValue(entryPoint)
	l.Parking = domain.NullStringValue(parking)
	l.Access = domain.NullStringValue(access)
	return l, nil
}

func (q *Queries) CreateLocation(ctx context.Context, p domain.CreateLocationParams) (domain.Location, error) {
	row := q.db.QueryRowContext(ctx, `
		INSERT INTO locations (user_id, place_id, name, description, address, street, number,
			city, state, zipcode, lat, lng, type, production_notes, entry_point, parking, access)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
		RETURNING `+locationColumns,
		p.UserID, p.PlaceID, p.Name,
		domain.ToNullString(p.Description), domain.ToNullString(p.Address),
		domain.ToNullString(p.Street), domain.ToNullString(p.Number),
		domain.ToNullString(p.City), domain.ToNullString(p.State), domain.ToNullString(p.Zipcode),
		p.Lat, p.Lng,
		domain.ToNullString(string(p.Type)),
		domain.ToNullString(p.ProductionNotes), domain.ToNullString(p.EntryPoint),
		domain.ToNullString(p.Parking), domain.ToNullString(p.Access))
	return scanLocation(row)
}

func (q *Queries) GetLocationByID(ctx context.Context, id uuid.UUID) (domain.Location, error) {
	row := q.db.QueryRowContext(ctx, `SELECT `+locationColumns+` FROM locations WHERE id = $1`, id)
	return scanLocation(row)
}

func (q *Queries) GetLocationByIDAndUserID(ctx context.Context, id, userID uuid.UUID) (domain.Location, error) {
	row := q.db.QueryRowContext(ctx, `
		SELECT `+locationColumns+` FROM locations WHERE id = $1 AND user_id = $2`, id, userID)
	return scanLocation(row)
}

func (q *Queries) GetLocationByPlaceID(ctx context.Context, userID uuid.UUID, placeID string) (domain.Location, error) {
	row := q.db.QueryRowContext(ctx, `
		SELECT `+locationColumns+` FROM locations WHERE user_id = $1 AND place_id = $2`, userID, placeID)
	return scanLocation(row)
}

func (q *Queries) ListLocationsByUserID(ctx context.Context, userID uuid.UUID) ([]domain.Location, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT `+locationColumns+` FROM locations WHERE user_id = $1 ORDER BY name`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectLocations(rows)
}

func (q *Queries) ListAllLocations(ctx context.Context) ([]domain.Location, error) {
	rows, err := q.db.QueryContext(ctx, `SELECT `+locationColumns+` FROM locations ORDER BY created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectLocations(rows)
}

// ListLocationsInBounds returns a user's locations inside a lat/lng bounding box.
// Used by the marker clustering endpoint.
func (q *Queries) ListLocationsInBounds(ctx context.Context, userID uuid.UUID, south, west, north, east float64) ([]domain.Location, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT `+locationColumns+` FROM locations
		WHERE user_id = $1 AND lat BETWEEN $2 AND $4 AND lng BETWEEN $3 AND $5`,
		userID, south, west, north, east)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectLocations(rows)
}

func (q *Queries) UpdateLocation(ctx context.Context, p domain.UpdateLocationParams) error {
	_, err := q.db.ExecContext(ctx, `
		UPDATE locations
		SET name = $3, description = $4, type = $5, production_notes = $6,
			entry_point = $7, parking = $8, access = $9, updated_at = now()
		WHERE id = $1 AND user_id = $2`,
		p.ID, p.UserID, p.Name,
		domain.ToNullString(p.Description), domain.ToNullString(string(p.Type)),
		domain.ToNullString(p.ProductionNotes), domain.ToNullString(p.EntryPoint),
		domain.ToNullString(p.Parking), domain.ToNullString(p.Access))
	return err
}

func (q *Queries) DeleteLocation(ctx context.Context, id uuid.UUID) error {
	_, err := q.db.ExecContext(ctx, `DELETE FROM locations WHERE id = $1`, id)
	return err
}

func collectLocations(rows *sql.Rows) ([]domain.Location, error) {
	var locations []domain.Location
	for rows.Next() {
		l, err := scanLocation(rows)
		if err != nil {
			return nil, err
		}
		locations = append(locations, l)
	}
	return locations, rows.Err()
}

// =============================================================================
// Location photos
// =============================================================================

// CreatePhotoParams contains the fields required to insert a location photo.
type CreatePhotoParams struct {
	LocationID  uuid.UUID
	StorageKey  string
	ContentType string
	SizeBytes   int64
}

func (q *Queries) CreateLocationPhoto(ctx context.Context, p CreatePhotoParams) (domain.LocationPhoto, error) {
	var photo domain.LocationPhoto
	var thumb sql.NullString
	row := q.db.QueryRowContext(ctx, `
		INSERT INTO location_photos (location_id, storage_key, content_type, size_bytes)
		VALUES ($1, $2, $3, $4)
		RETURNING id, location_id, storage_key, thumbnail_key, content_type, size_bytes, created_at`,
		p.LocationID, p.StorageKey, p.ContentType, p.SizeBytes)
	err := row.Scan(&photo.ID, &photo.LocationID, &photo.StorageKey, &thumb, &photo.ContentType, &photo.SizeBytes, &photo.CreatedAt)
	photo.ThumbnailKey = domain.NullStringValue(thumb)
	return photo, err
}

func (q *Queries) GetLocationPhoto(ctx context.Context, id uuid.UUID) (domain.LocationPhoto, error) {
	var photo domain.LocationPhoto
	var thumb sql.NullString
	row := q.db.QueryRowContext(ctx, `
		SELECT id, location_id, storage_key, thumbnail_key, content_type, size_bytes, created_at
		FROM location_photos WHERE id = $1`, id)
	err := row.Scan(&photo.ID, &photo.LocationID, &photo.StorageKey, &thumb, &photo.ContentType, &photo.SizeBytes, &photo.CreatedAt)
	photo.ThumbnailKey = domain.NullStringValue(thumb)
	return photo, err
}

func (q *Queries) ListLocationPhotos(ctx context.Context, locationID uuid.UUID) ([]domain.LocationPhoto, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT id, location_id, storage_key, thumbnail_key, content_type, size_bytes, created_at
		FROM location_photos WHERE location_id = $1 ORDER BY created_at`, locationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var photos []domain.LocationPhoto
	for rows.Next() {
		var photo domain.LocationPhoto
		var thumb sql.NullString
		if err := rows.Scan(&photo.ID, &photo.LocationID, &photo.StorageKey, &thumb, &photo.ContentType, &photo.SizeBytes, &photo.CreatedAt); err != nil {
			return nil, err
		}
		photo.ThumbnailKey = domain.NullStringValue(thumb)
		photos = append(photos, photo)
	}
	return photos, rows.Err()
}

func (q *Queries) SetLocationPhotoThumbnail(ctx context.Context, id uuid.UUID, thumbnailKey string) error {
	_, err := q.db.ExecContext(ctx, `
		UPDATE location_photos SET thumbnail_key = $2 WHERE id = $1`, id, thumbnailKey)
	return err
}

func (q *Queries) DeleteLocationPhoto(ctx context.Context, id uuid.UUID) error {
	_, err := q.db.ExecContext(ctx, `DELETE FROM location_photos WHERE id = $1`, id)
	return err
}
