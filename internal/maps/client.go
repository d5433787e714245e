// Package maps provides the client for the upstream maps provider's
// Places and Geocoding web services.
//
// Status handling follows the provider contract: ZERO_RESULTS resolves to an
// empty result, OK resolves to data, and every other status is surfaced as an
// upstream domain error for the caller to translate into a user notification.
package maps

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/pinmark/pinmark/internal/domain"
)

// Client is the interface services use to reach the maps provider.
type Client interface {
	// Autocomplete returns place predictions for a partial query.
	// A session token groups keystrokes of one search for upstream billing.
	Autocomplete(ctx context.Context, query, sessionToken string) ([]domain.Prediction, error)

	// Details resolves a place ID to a full place record.
	Details(ctx context.Context, placeID string) (*domain.Place, error)

	// ReverseGeocode resolves a coordinate to the nearest place
	// (click-to-save).
	ReverseGeocode(ctx context.Context, lat, lng float64) (*domain.Place, error)
}

const defaultBaseURL = "https://maps.googleapis.com"

// HTTPClient is the production Client backed by the provider's HTTP API.
type HTTPClient struct {
	apiKey  string
	baseURL string
	http    *http.Client
	logger  *slog.Logger
}

// NewHTTPClient creates a provider client. timeout bounds each request.
func NewHTTPClient(apiKey string, timeout time.Duration, logger *slog.Logger) *HTTPClient {
	return &HTTPClient{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		http:    &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

// WithBaseURL overrides the API origin. Used by tests.
func (c *HTTPClient) WithBaseURL(base string) *HTTPClient {
	c.baseURL = base
	return c
}

// Provider status codes we branch on.
const (
	statusOK          = "OK"
	statusZeroResults = "ZERO_RESULTS"
)

// Autocomplete returns place predictions for a partial query.
func (c *HTTPClient) Autocomplete(ctx context.Context, query, sessionToken string) ([]domain.Prediction, error) {
	const op = "maps.Autocomplete"

	params := url.Values{
		"input": {query},
		"key":   {c.apiKey},
	}
	if sessionToken != "" {
		params.Set("sessiontoken", sessionToken)
	}

	var resp struct {
		Status      string `json:"status"`
		Predictions []struct {
			PlaceID     string `json:"place_id"`
			Description string `json:"description"`
			Structured  struct {
				MainText   string `json:"main_text"`
				SecondText string `json:"secondary_text"`
			} `json:"structured_formatting"`
		} `json:"predictions"`
	}
	if err := c.get(ctx, "/maps/api/place/autocomplete/json", params, &resp); err != nil {
		return nil, domain.Upstream(err, op, "Place search is unavailable")
	}

	switch resp.Status {
	case statusZeroResults:
		return nil, nil
	case statusOK:
	default:
		return nil, domain.Upstream(fmt.Errorf("status %s", resp.Status), op, "Place search failed")
	}

	predictions := make([]domain.Prediction, 0, len(resp.Predictions))
	for _, p := range resp.Predictions {
		predictions = append(predictions, domain.Prediction{
			PlaceID:     p.PlaceID,
			Description: p.Description,
			MainText:    p.Structured.MainText,
			SecondText:  p.Structured.SecondText,
		})
	}
	return predictions, nil
}

// Details resolves a place ID to a full place record.
func (c *HTTPClient) Details(ctx context.Context, placeID string) (*domain.Place, error) {
	const op = "maps.Details"

	params := url.Values{
		"place_id": {placeID},
		"fields":   {"place_id,name,formatted_address,address_component,geometry"},
		"key":      {c.apiKey},
	}

	var resp struct {
		Status string      `json:"status"`
		Result placeResult `json:"result"`
	}
	if err := c.get(ctx, "/maps/api/place/details/json", params, &resp); err != nil {
		return nil, domain.Upstream(err, op, "Place lookup is unavailable")
	}

	switch resp.Status {
	case statusZeroResults:
		return nil, domain.NotFound(op, "place", placeID)
	case statusOK:
	default:
		return nil, domain.Upstream(fmt.Errorf("status %s", resp.Status), op, "Place lookup failed")
	}

	place := resp.Result.toDomain()
	return &place, nil
}

// ReverseGeocode resolves a coordinate to the nearest place.
func (c *HTTPClient) ReverseGeocode(ctx context.Context, lat, lng float64) (*domain.Place, error) {
	const op = "maps.ReverseGeocode"

	if !domain.ValidCoordinates(lat, lng) {
		return nil, domain.Invalid(op, "Coordinates out of range")
	}

	params := url.Values{
		"latlng": {strconv.FormatFloat(lat, 'f', -1, 64) + "," + strconv.FormatFloat(lng, 'f', -1, 64)},
		"key":    {c.apiKey},
	}

	var resp struct {
		Status  string        `json:"status"`
		Results []placeResult `json:"results"`
	}
	if err := c.get(ctx, "/maps/api/geocode/json", params, &resp); err != nil {
		return nil, domain.Upstream(err, op, "Reverse geocoding is unavailable")
	}

	switch resp.Status {
	case statusZeroResults:
		return nil, domain.NotFound(op, "place", fmt.Sprintf("%v,%v", lat, lng))
	case statusOK:
	default:
		return nil, domain.Upstream(fmt.Errorf("status %s", resp.Status), op, "Reverse geocoding failed")
	}
	if len(resp.Results) == 0 {
		return nil, domain.NotFound(op, "place", fmt.Sprintf("%v,%v", lat, lng))
	}

	place := resp.Results[0].toDomain()
	// Geocoding results carry no place name; fall back to the address.
	if place.Name == "" {
		place.Name = place.FormattedAddress
	}
	return &place, nil
}

func (c *HTTPClient) get(ctx context.Context, path string, params url.Values, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return err
	}

	res, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected HTTP status %d", res.StatusCode)
	}

	return json.NewDecoder(res.Body).Decode(out)
}

// =============================================================================
// Response parsing
// =============================================================================

type placeResult struct {
	PlaceID          string `json:"place_id"`
	Name             string `json:"name"`
	FormattedAddress string `json:"formatted_address"`
	Components       []struct {
		LongName  string   `json:"long_name"`
		ShortName string   `json:"short_name"`
		Types     []string `json:"types"`
	} `json:"address_components"`
	Geometry struct {
		Location struct {
			Lat float64 `json:"lat"`
			Lng float64 `json:"lng"`
		} `json:"location"`
	} `json:"geometry"`
}

func (r placeResult) toDomain() domain.Place {
	place := domain.Place{
		PlaceID:          r.PlaceID,
		Name:             r.Name,
		FormattedAddress: r.FormattedAddress,
		Lat:              r.Geometry.Location.Lat,
		Lng:              r.Geometry.Location.Lng,
	}

	for _, c := range r.Components {
		for _, t := range c.Types {
			switch t {
			case "street_number":
				place.Components.Number = c.LongName
			case "route":
				place.Components.Street = c.LongName
			case "locality", "postal_town":
				place.Components.City = c.LongName
			case "administrative_area_level_1":
				place.Components.State = c.ShortName
			case "postal_code":
				place.Components.Zipcode = c.LongName
			}
		}
	}
	return place
}
