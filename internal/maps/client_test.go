package maps

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/pinmark/pinmark/internal/domain"
)

func testClient(t *testing.T, handler http.HandlerFunc) *HTTPClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewHTTPClient("test-key", 2*time.Second, slog.Default()).WithBaseURL(srv.URL)
}

func TestAutocompleteParsesPredictions(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("input"); got != "syracuse" {
			t.Errorf("input = %q, want syracuse", got)
		}
		if got := r.URL.Query().Get("sessiontoken"); got != "tok-1" {
			t.Errorf("sessiontoken = %q, want tok-1", got)
		}
		w.Write([]byte(`{
			"status": "OK",
			"predictions": [
				{
					"place_id": "ChIJDZqXv5vz2YkRRZWt1-IM1QA",
					"description": "Syracuse, NY, USA",
					"structured_formatting": {"main_text": "Syracuse", "secondary_text": "NY, USA"}
				}
			]
		}`))
	})

	preds, err := c.Autocomplete(context.Background(), "syracuse", "tok-1")
	if err != nil {
		t.Fatalf("Autocomplete: %v", err)
	}
	if len(preds) != 1 {
		t.Fatalf("got %d predictions, want 1", len(preds))
	}
	if preds[0].PlaceID != "ChIJDZqXv5vz2YkRRZWt1-IM1QA" || preds[0].MainText != "Syracuse" {
		t.Errorf("unexpected prediction: %+v", preds[0])
	}
}

func TestAutocompleteZeroResultsIsEmptyNotError(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status": "ZERO_RESULTS", "predictions": []}`))
	})

	preds, err := c.Autocomplete(context.Background(), "zzzzzz", "")
	if err != nil {
		t.Fatalf("ZERO_RESULTS should not be an error, got %v", err)
	}
	if len(preds) != 0 {
		t.Errorf("got %d predictions, want 0", len(preds))
	}
}

func TestAutocompleteHardFailureIsUpstreamError(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status": "OVER_QUERY_LIMIT"}`))
	})

	_, err := c.Autocomplete(context.Background(), "syracuse", "")
	if domain.ErrorCode(err) != domain.EUPSTREAM {
		t.Errorf("error code = %v, want EUPSTREAM (err: %v)", domain.ErrorCode(err), err)
	}
}

func TestDetailsParsesAddressComponents(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{
			"status": "OK",
			"result": {
				"place_id": "place-1",
				"name": "City Hall",
				"formatted_address": "233 E Washington St, Syracuse, NY 13202, USA",
				"address_components": [
					{"long_name": "233", "short_name": "233", "types": ["street_number"]},
					{"long_name": "East Washington Street", "short_name": "E Washington St", "types": ["route"]},
					{"long_name": "Syracuse", "short_name": "Syracuse", "types": ["locality", "political"]},
					{"long_name": "New York", "short_name": "NY", "types": ["administrative_area_level_1", "political"]},
					{"long_name": "13202", "short_name": "13202", "types": ["postal_code"]}
				],
				"geometry": {"location": {"lat": 43.0512, "lng": -76.1483}}
			}
		}`))
	})

	place, err := c.Details(context.Background(), "place-1")
	if err != nil {
		t.Fatalf("Details: %v", err)
	}

	want := domain.AddressComponents{
		Number:  "233",
		Street:  "East Washington Street",
		City:    "Syracuse",
		State:   "NY",
		Zipcode: "13202",
	}
	if place.Components != want {
		t.Errorf("components = %+v, want %+v", place.Components, want)
	}
	if place.Lat != 43.0512 || place.Lng != -76.1483 {
		t.Errorf("coordinates = %v,%v", place.Lat, place.Lng)
	}
}

func TestReverseGeocodeRejectsBadCoordinates(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("request should not reach the provider")
	})

	_, err := c.ReverseGeocode(context.Background(), 91, 0)
	if domain.ErrorCode(err) != domain.EINVALID {
		t.Errorf("error code = %v, want EINVALID", domain.ErrorCode(err))
	}
}

func TestReverseGeocodeNamesFallBackToAddress(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{
			"status": "OK",
			"results": [
				{
					"place_id": "geocode-1",
					"formatted_address": "100 Main St, Anytown, NY 10001, USA",
					"geometry": {"location": {"lat": 40.71, "lng": -74.0}}
				}
			]
		}`))
	})

	place, err := c.ReverseGeocode(context.Background(), 40.71, -74.0)
	if err != nil {
		t.Fatalf("ReverseGeocode: %v", err)
	}
	if place.Name != place.FormattedAddress {
		t.Errorf("name = %q, want the formatted address", place.Name)
	}
}
