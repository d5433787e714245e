package storage

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLocalStorage(t *testing.T) *LocalStorage {
	t.Helper()
	store, err := NewLocalStorage(LocalConfig{
		BasePath: t.TempDir(),
		BaseURL:  "http://localhost:8080/files",
	}, slog.Default())
	require.NoError(t, err)
	return store
}

func TestLocalStoragePutGetRoundTrip(t *testing.T) {
	store := newTestLocalStorage(t)
	ctx := context.Background()

	const key = "locations/abc/photos/pic.jpg"
	err := store.Put(ctx, key, strings.NewReader("jpeg bytes"), PutOptions{ContentType: "image/jpeg"})
	require.NoError(t, err)

	rc, info, err := store.Get(ctx, key)
	require.NoError(t, err)
	defer rc.Close()

	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "jpeg bytes", string(data))
	assert.Equal(t, int64(len("jpeg bytes")), info.Size)
	assert.Equal(t, "image/jpeg", info.ContentType)
}

func TestLocalStoragePutRespectsMaxSize(t *testing.T) {
	store := newTestLocalStorage(t)
	ctx := context.Background()

	err := store.Put(ctx, "big.bin", strings.NewReader(strings.Repeat("x", 100)), PutOptions{MaxSize: 10})
	require.Error(t, err)
	assert.True(t, IsTooLarge(err))

	// The partial write must not be left behind.
	exists, err := store.Exists(ctx, "big.bin")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestLocalStoragePutWithoutOverwriteRejectsExistingKey(t *testing.T) {
	store := newTestLocalStorage(t)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "a.txt", strings.NewReader("one"), PutOptions{}))

	err := store.Put(ctx, "a.txt", strings.NewReader("two"), PutOptions{})
	assert.ErrorIs(t, err, ErrKeyExists)

	require.NoError(t, store.Put(ctx, "a.txt", strings.NewReader("two"), PutOptions{Overwrite: true}))
}

func TestLocalStorageRejectsPathTraversal(t *testing.T) {
	store := newTestLocalStorage(t)
	ctx := context.Background()

	for _, key := range []string{"../escape.txt", "a/../../etc/passwd", ""} {
		err := store.Put(ctx, key, strings.NewReader("x"), PutOptions{})
		assert.ErrorIs(t, err, ErrInvalidKey, "key %q", key)
	}
}

func TestLocalStorageDeleteIsIdempotent(t *testing.T) {
	store := newTestLocalStorage(t)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "a.txt", strings.NewReader("one"), PutOptions{}))
	require.NoError(t, store.Delete(ctx, "a.txt"))
	require.NoError(t, store.Delete(ctx, "a.txt"))

	_, _, err := store.Get(ctx, "a.txt")
	assert.True(t, IsNotFound(err))
}

func TestLocalStorageURL(t *testing.T) {
	store := newTestLocalStorage(t)

	url, err := store.URL(context.Background(), "locations/abc/photos/pic.jpg", time.Hour)
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080/files/locations/abc/photos/pic.jpg", url)
}

func TestPhotoKeyLayout(t *testing.T) {
	locationID := uuid.New()

	key := PhotoKey(locationID, "vacation.jpg")
	assert.True(t, strings.HasPrefix(key, "locations/"+locationID.String()+"/photos/"), "key = %s", key)
	assert.True(t, strings.HasSuffix(key, ".jpg"), "key = %s", key)

	thumb := ThumbnailKey(locationID, key)
	assert.True(t, strings.HasPrefix(thumb, "locations/"+locationID.String()+"/thumbnails/"), "thumb = %s", thumb)
	assert.True(t, strings.HasSuffix(thumb, ".jpg"), "thumb = %s", thumb)
	assert.NotEqual(t, key, thumb)
}
