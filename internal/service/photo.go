package service

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"io"
	"log/slog"
	"mime/multipart"
	"time"

	"github.com/google/uuid"

	"github.com/pinmark/pinmark/internal/domain"
	"github.com/pinmark/pinmark/internal/metrics"
	"github.com/pinmark/pinmark/internal/repository"
	"github.com/pinmark/pinmark/internal/storage"
	"github.com/pinmark/pinmark/internal/worker"
)

const (
	// MaxPhotoSize is the upload limit for a single photo.
	MaxPhotoSize = 10 << 20 // 10 MB

	// PhotoURLExpiry bounds presigned photo URLs.
	PhotoURLExpiry = time.Hour
)

// PhotoService defines the interface for location photo operations.
type PhotoService interface {
	// Upload stores a photo for one of the user's locations and schedules
	// thumbnail generation.
	// Returns domain.ENOTFOUND if the location isn't theirs.
	// Returns domain.EINVALID for unsupported or oversized files.
	Upload(ctx context.Context, file multipart.File, header *multipart.FileHeader, locationID, userID uuid.UUID) (*domain.LocationPhoto, error)

	// Delete removes a photo and its stored objects.
	Delete(ctx context.Context, photoID, userID uuid.UUID) error

	// URL returns a browser-accessible URL for the photo; thumbnail selects
	// the generated thumbnail when one exists.
	URL(ctx context.Context, photoID, userID uuid.UUID, thumbnail bool) (string, error)
}

type photoService struct {
	queries *repository.Queries
	store   storage.Storage
	logger  *slog.Logger
}

// NewPhotoService creates a PhotoService.
func NewPhotoService(queries *repository.Queries, store storage.Storage, logger *slog.Logger) PhotoService {
	return &photoService{
		queries: queries,
		store:   store,
		logger:  logger,
	}
}

func (s *photoService) Upload(ctx context.Context, file multipart.File, header *multipart.FileHeader, locationID, userID uuid.UUID) (*domain.LocationPhoto, error) {
	const op = "PhotoService.Upload"

	if _, err := s.queries.GetLocationByIDAndUserID(ctx, locationID, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NotFound(op, "location", locationID.String())
		}
		return nil, domain.Internal(err, op, "Failed to retrieve location")
	}

	if header.Size > MaxPhotoSize {
		return nil, domain.Invalid(op, "Photo exceeds the 10 MB size limit")
	}

	// Sniff the content type from the first bytes rather than trusting the
	// client-supplied header.
	head := make([]byte, 512)
	n, err := io.ReadFull(file, head)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return nil, domain.Internal(err, op, "Failed to read photo")
	}
	contentType := storage.DetectContentType("", header.Filename, nil)
	if contentType == "application/octet-stream" || !storage.IsAllowedImageType(contentType) {
		contentType = storage.DetectContentType("", "", bytes.NewReader(head[:n]))
	}
	if !storage.IsAllowedImageType(contentType) {
		return nil, domain.Invalid(op, "Photo must be a JPEG, PNG, WebP, or HEIC image")
	}
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return nil, domain.Internal(err, op, "Failed to rewind photo")
	}

	key := storage.PhotoKey(locationID, header.Filename)
	err = s.store.Put(ctx, key, file, storage.PutOptions{
		ContentType: contentType,
		MaxSize:     MaxPhotoSize,
	})
	if err != nil {
		if storage.IsTooLarge(err) {
			return nil, domain.Invalid(op, "Photo exceeds the 10 MB size limit")
		}
		return nil, domain.Internal(err, op, "Failed to store photo")
	}

	photo, err := s.queries.CreateLocationPhoto(ctx, repository.CreatePhotoParams{
		LocationID:  locationID,
		StorageKey:  key,
		ContentType: contentType,
		SizeBytes:   header.Size,
	})
	if err != nil {
		// Roll back the orphaned object; the record is the source of truth.
		if delErr := s.store.Delete(ctx, key); delErr != nil {
			s.logger.Warn("failed to clean up orphaned photo", "key", key, "error", delErr)
		}
		return nil, domain.Internal(err, op, "Failed to record photo")
	}

	if _, err := worker.EnqueueThumbnail(ctx, s.queries, worker.ThumbnailPayload{
		PhotoID:    photo.ID,
		LocationID: locationID,
		StorageKey: key,
	}); err != nil {
		// The photo itself is fine; the thumbnail can be regenerated later.
		s.logger.Warn("failed to enqueue thumbnail job", "photo_id", photo.ID, "error", err)
	}

	metrics.PhotosUploaded.Inc()
	s.logger.Info("photo uploaded",
		"user_id", userID,
		"location_id", locationID,
		"photo_id", photo.ID,
		"size", header.Size)

	return &photo, nil
}

func (s *photoService) Delete(ctx context.Context, photoID, userID uuid.UUID) error {
	const op = "PhotoService.Delete"

	photo, err := s.ownedPhoto(ctx, op, photoID, userID)
	if err != nil {
		return err
	}

	if err := s.queries.DeleteLocationPhoto(ctx, photoID); err != nil {
		return domain.Internal(err, op, "Failed to delete photo record")
	}

	// Storage cleanup is best effort once the record is gone.
	if err := s.store.Delete(ctx, photo.StorageKey); err != nil {
		s.logger.Warn("failed to delete photo object", "key", photo.StorageKey, "error", err)
	}
	if photo.ThumbnailKey != "" {
		if err := s.store.Delete(ctx, photo.ThumbnailKey); err != nil {
			s.logger.Warn("failed to delete thumbnail object", "key", photo.ThumbnailKey, "error", err)
		}
	}

	s.logger.Info("photo deleted", "user_id", userID, "photo_id", photoID)
	return nil
}

func (s *photoService) URL(ctx context.Context, photoID, userID uuid.UUID, thumbnail bool) (string, error) {
	const op = "PhotoService.URL"

	photo, err := s.ownedPhoto(ctx, op, photoID, userID)
	if err != nil {
		return "", err
	}

	key := photo.StorageKey
	if thumbnail && photo.ThumbnailKey != "" {
		key = photo.ThumbnailKey
	}

	url, err := s.store.URL(ctx, key, PhotoURLExpiry)
	if err != nil {
		return "", domain.Internal(err, op, "Failed to generate photo URL")
	}
	return url, nil
}

// ownedPhoto loads a photo and verifies the owning location belongs to the
// user. Someone else's photo reads as not found.
func (s *photoService) ownedPhoto(ctx context.Context, op string, photoID, userID uuid.UUID) (domain.LocationPhoto, error) {
	photo, err := s.queries.GetLocationPhoto(ctx, photoID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.LocationPhoto{}, domain.NotFound(op, "photo", photoID.String())
		}
		return domain.LocationPhoto{}, domain.Internal(err, op, "Failed to retrieve photo")
	}

	if _, err := s.queries.GetLocationByIDAndUserID(ctx, photo.LocationID, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.LocationPhoto{}, domain.NotFound(op, "photo", photoID.String())
		}
		return domain.LocationPhoto{}, domain.Internal(err, op, "Failed to retrieve location")
	}

	return photo, nil
}
