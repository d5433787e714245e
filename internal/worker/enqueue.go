package worker

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/pinmark/pinmark/internal/repository"
)

// Job type constants - these must match the JobHandler.Type() values.
const (
	JobTypeGenerateThumbnail = "generate_thumbnail"
)

// DefaultMaxAttempts is how many times a job is tried before it is failed.
const DefaultMaxAttempts = 3

// ThumbnailPayload is the payload for thumbnail generation jobs.
type ThumbnailPayload struct {
	PhotoID    uuid.UUID `json:"photo_id"`
	LocationID uuid.UUID `json:"location_id"`
	StorageKey string    `json:"storage_key"`
}

// EnqueueThumbnail schedules thumbnail generation for an uploaded photo.
func EnqueueThumbnail(ctx context.Context, queries *repository.Queries, payload ThumbnailPayload) (uuid.UUID, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return uuid.Nil, fmt.Errorf("marshal thumbnail payload: %w", err)
	}
	return queries.EnqueueJob(ctx, JobTypeGenerateThumbnail, data, DefaultMaxAttempts)
}
