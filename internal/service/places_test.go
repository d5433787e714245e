package service

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pinmark/pinmark/internal/cache"
	"github.com/pinmark/pinmark/internal/domain"
)

// fakeMapsClient counts upstream calls and returns canned data.
type fakeMapsClient struct {
	autocompleteCalls atomic.Int32
	detailsCalls      atomic.Int32
	autocompleteErr   error
}

func (f *fakeMapsClient) Autocomplete(ctx context.Context, query, sessionToken string) ([]domain.Prediction, error) {
	f.autocompleteCalls.Add(1)
	if f.autocompleteErr != nil {
		return nil, f.autocompleteErr
	}
	return []domain.Prediction{{PlaceID: "p1", Description: query + " result"}}, nil
}

func (f *fakeMapsClient) Details(ctx context.Context, placeID string) (*domain.Place, error) {
	f.detailsCalls.Add(1)
	return &domain.Place{PlaceID: placeID, Name: "Somewhere", Lat: 43, Lng: -76}, nil
}

func (f *fakeMapsClient) ReverseGeocode(ctx context.Context, lat, lng float64) (*domain.Place, error) {
	return &domain.Place{PlaceID: "rev", Lat: lat, Lng: lng}, nil
}

// memCache is a minimal in-memory cache.Cache.
type memCache struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newMemCache() *memCache { return &memCache{data: map[string][]byte{}} }

func (m *memCache) Get(ctx context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.data[key], nil
}

func (m *memCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

func (m *memCache) Delete(ctx context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.data[key]
	delete(m.data, key)
	return ok, nil
}

func (m *memCache) Health(ctx context.Context) error { return nil }

func TestAutocompleteShortQueryStaysLocal(t *testing.T) {
	client := &fakeMapsClient{}
	svc := NewPlacesService(client, cache.Noop{}, time.Millisecond, time.Minute, slog.Default())

	preds, err := svc.Autocomplete(context.Background(), "session-1", "S")
	if err != nil {
		t.Fatalf("Autocomplete: %v", err)
	}
	if preds != nil {
		t.Errorf("single-character query should return no predictions, got %v", preds)
	}
	if client.autocompleteCalls.Load() != 0 {
		t.Error("single-character query should not reach the provider")
	}
}

func TestAutocompleteCachesResults(t *testing.T) {
	client := &fakeMapsClient{}
	svc := NewPlacesService(client, newMemCache(), time.Millisecond, time.Minute, slog.Default())

	for i := 0; i < 3; i++ {
		preds, err := svc.Autocomplete(context.Background(), "session-1", "Syracuse")
		if err != nil {
			t.Fatalf("Autocomplete #%d: %v", i, err)
		}
		if len(preds) != 1 {
			t.Fatalf("got %d predictions, want 1", len(preds))
		}
	}

	if got := client.autocompleteCalls.Load(); got != 1 {
		t.Errorf("upstream calls = %d, want 1 (cache should absorb repeats)", got)
	}
}

func TestAutocompleteCacheKeyFoldsCaseAndAccents(t *testing.T) {
	client := &fakeMapsClient{}
	svc := NewPlacesService(client, newMemCache(), time.Millisecond, time.Minute, slog.Default())

	if _, err := svc.Autocomplete(context.Background(), "s1", "café"); err != nil {
		t.Fatalf("Autocomplete: %v", err)
	}
	if _, err := svc.Autocomplete(context.Background(), "s1", "CAFE"); err != nil {
		t.Fatalf("Autocomplete: %v", err)
	}

	if got := client.autocompleteCalls.Load(); got != 1 {
		t.Errorf("upstream calls = %d, want 1 (folded queries share a cache entry)", got)
	}
}

func TestAutocompleteSupersededKeystrokeIsNoOp(t *testing.T) {
	client := &fakeMapsClient{}
	svc := NewPlacesService(client, cache.Noop{}, 50*time.Millisecond, time.Minute, slog.Default())

	var wg sync.WaitGroup
	var firstPreds []domain.Prediction
	var firstErr error
	wg.Add(1)
	go func() {
		defer wg.Done()
		firstPreds, firstErr = svc.Autocomplete(context.Background(), "session-1", "Sy")
	}()
	time.Sleep(10 * time.Millisecond)

	preds, err := svc.Autocomplete(context.Background(), "session-1", "Syr")
	if err != nil {
		t.Fatalf("final keystroke: %v", err)
	}
	if len(preds) != 1 {
		t.Fatalf("final keystroke got %d predictions, want 1", len(preds))
	}
	wg.Wait()

	// The replaced keystroke quietly yields nothing; it is not an error.
	if firstErr != nil {
		t.Errorf("superseded keystroke err = %v, want nil", firstErr)
	}
	if firstPreds == nil || len(firstPreds) != 0 {
		t.Errorf("superseded keystroke predictions = %v, want empty slice", firstPreds)
	}

	if got := client.autocompleteCalls.Load(); got != 1 {
		t.Errorf("upstream calls = %d, want 1", got)
	}
}

func TestAutocompleteAbortedSharedFetchIsNoOp(t *testing.T) {
	// A coalesced fetch cancelled by someone else's supersession surfaces
	// context.Canceled to every waiter whose own context is still live.
	client := &fakeMapsClient{autocompleteErr: context.Canceled}
	svc := NewPlacesService(client, cache.Noop{}, time.Millisecond, time.Minute, slog.Default())

	preds, err := svc.Autocomplete(context.Background(), "session-1", "Syracuse")
	if err != nil {
		t.Fatalf("err = %v, want nil", err)
	}
	if preds == nil || len(preds) != 0 {
		t.Errorf("predictions = %v, want empty slice", preds)
	}
}

func TestAutocompleteCallerCancellationPropagates(t *testing.T) {
	client := &fakeMapsClient{}
	svc := NewPlacesService(client, cache.Noop{}, 30*time.Millisecond, time.Minute, slog.Default())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := svc.Autocomplete(ctx, "session-1", "Syracuse"); err == nil {
		t.Error("expected an error when the caller's context is cancelled")
	}
}

func TestDetailsCachesByPlaceID(t *testing.T) {
	client := &fakeMapsClient{}
	svc := NewPlacesService(client, newMemCache(), time.Millisecond, time.Minute, slog.Default())

	for i := 0; i < 2; i++ {
		place, err := svc.Details(context.Background(), "place-1")
		if err != nil {
			t.Fatalf("Details: %v", err)
		}
		if place.PlaceID != "place-1" {
			t.Errorf("place id = %q", place.PlaceID)
		}
	}

	if got := client.detailsCalls.Load(); got != 1 {
		t.Errorf("upstream calls = %d, want 1", got)
	}
}
