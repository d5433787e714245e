package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/pinmark/pinmark/internal/cache"
	"github.com/pinmark/pinmark/internal/domain"
	"github.com/pinmark/pinmark/internal/maps"
	"github.com/pinmark/pinmark/internal/metrics"
)

// MinAutocompleteChars is the shortest query worth sending upstream.
// Single-character queries return too much noise to be useful.
const MinAutocompleteChars = 2

// PlacesService fronts the maps provider with debouncing, request
// coalescing, and a Redis cache.
type PlacesService interface {
	// Autocomplete returns predictions for a partial query. Rapid calls
	// sharing a session key are debounced: earlier calls in a burst are
	// superseded and return an empty result with no error; only the final
	// query reaches the provider.
	Autocomplete(ctx context.Context, sessionKey, query string) ([]domain.Prediction, error)

	// Details resolves a place ID to a full place record.
	Details(ctx context.Context, placeID string) (*domain.Place, error)

	// ReverseGeocode resolves a map click to the nearest place.
	ReverseGeocode(ctx context.Context, lat, lng float64) (*domain.Place, error)
}

type placesService struct {
	client     maps.Client
	cache      cache.Cache
	cacheTTL   time.Duration
	debouncers *maps.DebouncerPool
	group      singleflight.Group
	logger     *slog.Logger
}

// NewPlacesService creates a PlacesService.
//
// debounceWindow is the quiet period applied per autocomplete session;
// cacheTTL bounds how long provider responses are reused.
func NewPlacesService(client maps.Client, c cache.Cache, debounceWindow, cacheTTL time.Duration, logger *slog.Logger) PlacesService {
	return &placesService{
		client:     client,
		cache:      c,
		cacheTTL:   cacheTTL,
		debouncers: maps.NewDebouncerPool(debounceWindow),
		logger:     logger,
	}
}

func (s *placesService) Autocomplete(ctx context.Context, sessionKey, query string) ([]domain.Prediction, error) {
	query = strings.TrimSpace(query)
	if len(query) < MinAutocompleteChars {
		return nil, nil
	}

	cacheKey := "places:ac:" + foldSearch(query)

	// Cache hits skip the debounce entirely; there is nothing to coalesce.
	if cached, ok := s.cachedPredictions(ctx, cacheKey); ok {
		metrics.PlaceCacheHits.Inc()
		return cached, nil
	}
	metrics.PlaceCacheMisses.Inc()

	var predictions []domain.Prediction
	err := s.debouncers.Get(sessionKey).Do(ctx, func(ctx context.Context) error {
		result, err, _ := s.group.Do(cacheKey, func() (interface{}, error) {
			preds, err := s.client.Autocomplete(ctx, query, sessionKey)
			if err != nil {
				metrics.PlaceLookups.WithLabelValues("autocomplete", "error").Inc()
				return nil, err
			}
			metrics.PlaceLookups.WithLabelValues("autocomplete", "ok").Inc()
			s.storePredictions(ctx, cacheKey, preds)
			return preds, nil
		})
		if err != nil {
			return err
		}
		predictions = result.([]domain.Prediction)
		return nil
	})
	if err != nil {
		// A newer keystroke replaced this call, or aborted the shared
		// fetch it had joined. Either way there is nothing to show and
		// nothing went wrong.
		if errors.Is(err, maps.ErrSuperseded) ||
			(errors.Is(err, context.Canceled) && ctx.Err() == nil) {
			return []domain.Prediction{}, nil
		}
		return nil, err
	}

	return predictions, nil
}

func (s *placesService) Details(ctx context.Context, placeID string) (*domain.Place, error) {
	const op = "PlacesService.Details"

	placeID = strings.TrimSpace(placeID)
	if placeID == "" {
		return nil, domain.Invalid(op, "Place ID is required")
	}

	cacheKey := "places:detail:" + placeID

	if data, err := s.cache.Get(ctx, cacheKey); err == nil && data != nil {
		var place domain.Place
		if json.Unmarshal(data, &place) == nil {
			metrics.PlaceCacheHits.Inc()
			return &place, nil
		}
	}
	metrics.PlaceCacheMisses.Inc()

	result, err, _ := s.group.Do(cacheKey, func() (interface{}, error) {
		place, err := s.client.Details(ctx, placeID)
		if err != nil {
			metrics.PlaceLookups.WithLabelValues("details", "error").Inc()
			return nil, err
		}
		metrics.PlaceLookups.WithLabelValues("details", "ok").Inc()
		s.storePlace(ctx, cacheKey, place)
		return place, nil
	})
	if err != nil {
		return nil, err
	}
	return result.(*domain.Place), nil
}

func (s *placesService) ReverseGeocode(ctx context.Context, lat, lng float64) (*domain.Place, error) {
	// Round to ~11cm so nearby clicks share a cache entry.
	cacheKey := fmt.Sprintf("places:rev:%.6f,%.6f", lat, lng)

	if data, err := s.cache.Get(ctx, cacheKey); err == nil && data != nil {
		var place domain.Place
		if json.Unmarshal(data, &place) == nil {
			metrics.PlaceCacheHits.Inc()
			return &place, nil
		}
	}
	metrics.PlaceCacheMisses.Inc()

	result, err, _ := s.group.Do(cacheKey, func() (interface{}, error) {
		place, err := s.client.ReverseGeocode(ctx, lat, lng)
		if err != nil {
			metrics.PlaceLookups.WithLabelValues("reverse_geocode", "error").Inc()
			return nil, err
		}
		metrics.PlaceLookups.WithLabelValues("reverse_geocode", "ok").Inc()
		s.storePlace(ctx, cacheKey, place)
		return place, nil
	})
	if err != nil {
		return nil, err
	}
	return result.(*domain.Place), nil
}

func (s *placesService) cachedPredictions(ctx context.Context, key string) ([]domain.Prediction, bool) {
	data, err := s.cache.Get(ctx, key)
	if err != nil {
		s.logger.Warn("place cache read failed", "error", err)
		return nil, false
	}
	if data == nil {
		return nil, false
	}
	var preds []domain.Prediction
	if err := json.Unmarshal(data, &preds); err != nil {
		return nil, false
	}
	return preds, true
}

func (s *placesService) storePredictions(ctx context.Context, key string, preds []domain.Prediction) {
	data, err := json.Marshal(preds)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, key, data, s.cacheTTL); err != nil {
		s.logger.Warn("place cache write failed", "error", err)
	}
}

func (s *placesService) storePlace(ctx context.Context, key string, place *domain.Place) {
	data, err := json.Marshal(place)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, key, data, s.cacheTTL); err != nil {
		s.logger.Warn("place cache write failed", "error", err)
	}
}
