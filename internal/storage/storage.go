// Package storage provides file storage for uploaded location photos.
//
// Two implementations back the Storage interface: LocalStorage writes to the
// filesystem for development, R2Storage writes to Cloudflare R2
// (S3-compatible) for production.
package storage

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// Storage defines the interface for file storage operations.
// All methods are context-aware for timeout and cancellation support.
type Storage interface {
	// Put stores data at the specified key. Returns ErrKeyExists if the key
	// is taken and opts.Overwrite is false, ErrTooLarge if data exceeds
	// opts.MaxSize.
	Put(ctx context.Context, key string, data io.Reader, opts PutOptions) error

	// Get retrieves the data at the specified key. The caller must close
	// the reader. Returns ErrNotFound if the key doesn't exist.
	Get(ctx context.Context, key string) (io.ReadCloser, ObjectInfo, error)

	// Delete removes the object at the specified key. Idempotent.
	Delete(ctx context.Context, key string) error

	// URL returns a URL for accessing the object: a permanent URL for
	// public objects, otherwise a presigned URL valid for expires.
	URL(ctx context.Context, key string, expires time.Duration) (string, error)

	// Exists checks if an object exists at the specified key.
	Exists(ctx context.Context, key string) (bool, error)
}

// PutOptions configures how an object is stored.
type PutOptions struct {
	// ContentType is the MIME type. Auto-detected when empty.
	ContentType string

	// MaxSize is the maximum allowed size in bytes. 0 means no limit.
	MaxSize int64

	// Overwrite allows replacing an existing object at the same key.
	Overwrite bool
}

// ObjectInfo contains metadata about a stored object.
type ObjectInfo struct {
	Key          string
	Size         int64
	ContentType  string
	LastModified time.Time
	ETag         string
}

// LocalConfig holds configuration for local filesystem storage.
type LocalConfig struct {
	// BasePath is the root directory where files are stored.
	BasePath string

	// BaseURL is the public URL prefix for accessing files,
	// e.g. "http://localhost:8080/files".
	BaseURL string
}

// R2Config holds configuration for Cloudflare R2 storage.
type R2Config struct {
	AccountID       string
	AccessKeyID     string
	SecretAccessKey string
	BucketName      string

	// PublicURL is the bucket's custom-domain URL. When empty, presigned
	// URLs are used for all access.
	PublicURL string

	// Region defaults to "auto"; R2 is globally distributed.
	Region string
}

const (
	ProviderLocal = "local"
	ProviderR2    = "r2"
)

// PhotoKey generates a storage key for an uploaded location photo.
// Format: locations/{locationID}/photos/{uuid}.{ext}
func PhotoKey(locationID uuid.UUID, filename string) string {
	return fmt.Sprintf("locations/%s/photos/%s%s", locationID, uuid.New(), filepath.Ext(filename))
}

// ThumbnailKey generates the thumbnail key paired with a photo key.
// Format: locations/{locationID}/thumbnails/{uuid}.{ext}
func ThumbnailKey(locationID uuid.UUID, photoKey string) string {
	return fmt.Sprintf("locations/%s/thumbnails/%s%s", locationID, uuid.New(), filepath.Ext(photoKey))
}
