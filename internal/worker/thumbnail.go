package worker

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"log/slog"

	"github.com/disintegration/imaging"

	"github.com/pinmark/pinmark/internal/repository"
	"github.com/pinmark/pinmark/internal/storage"
)

// Thumbnail rendering parameters.
const (
	ThumbnailMaxWidth    = 400
	ThumbnailMaxHeight   = 400
	ThumbnailJPEGQuality = 85
)

// ThumbnailHandler generates thumbnails for uploaded location photos.
type ThumbnailHandler struct {
	queries *repository.Queries
	store   storage.Storage
	logger  *slog.Logger
}

// NewThumbnailHandler creates a ThumbnailHandler.
func NewThumbnailHandler(queries *repository.Queries, store storage.Storage, logger *slog.Logger) *ThumbnailHandler {
	return &ThumbnailHandler{
		queries: queries,
		store:   store,
		logger:  logger,
	}
}

// Type implements JobHandler.
func (h *ThumbnailHandler) Type() string {
	return JobTypeGenerateThumbnail
}

// Handle downloads the original photo, renders a JPEG thumbnail that fits
// within ThumbnailMaxWidth x ThumbnailMaxHeight, uploads it, and records the
// thumbnail key on the photo row.
func (h *ThumbnailHandler) Handle(ctx context.Context, payload []byte) error {
	var p ThumbnailPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return NewPermanentError(fmt.Errorf("unmarshal payload: %w", err))
	}

	// The photo row may be gone if the location was deleted before the job
	// ran. Nothing to do then.
	photo, err := h.queries.GetLocationPhoto(ctx, p.PhotoID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			h.logger.Debug("photo deleted before thumbnail generation", "photo_id", p.PhotoID)
			return nil
		}
		return fmt.Errorf("load photo record: %w", err)
	}
	if photo.ThumbnailKey != "" {
		return nil // already generated
	}

	original, _, err := h.store.Get(ctx, p.StorageKey)
	if err != nil {
		if storage.IsNotFound(err) {
			return NewPermanentError(fmt.Errorf("original photo missing: %w", err))
		}
		return fmt.Errorf("fetch original: %w", err)
	}
	defer original.Close()

	img, _, err := image.Decode(original)
	if err != nil {
		// Not an image we can decode; retrying will not help.
		return NewPermanentError(fmt.Errorf("decode image: %w", err))
	}

	thumbnail := imaging.Fit(img, ThumbnailMaxWidth, ThumbnailMaxHeight, imaging.Lanczos)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, thumbnail, imaging.JPEG, imaging.JPEGQuality(ThumbnailJPEGQuality)); err != nil {
		return fmt.Errorf("encode thumbnail: %w", err)
	}

	thumbKey := storage.ThumbnailKey(p.LocationID, ".jpg")
	err = h.store.Put(ctx, thumbKey, &buf, storage.PutOptions{
		ContentType: "image/jpeg",
		Overwrite:   true,
	})
	if err != nil {
		return fmt.Errorf("store thumbnail: %w", err)
	}

	if err := h.queries.SetLocationPhotoThumbnail(ctx, p.PhotoID, thumbKey); err != nil {
		return fmt.Errorf("record thumbnail key: %w", err)
	}

	h.logger.Info("thumbnail generated", "photo_id", p.PhotoID, "key", thumbKey)
	return nil
}
