package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/pinmark/pinmark/internal/domain"
	"github.com/pinmark/pinmark/internal/service"
)

// PlacesHandler handles place search endpoints backed by the maps provider.
type PlacesHandler struct {
	placesService service.PlacesService
	logger        *slog.Logger
}

// NewPlacesHandler creates a new PlacesHandler.
func NewPlacesHandler(placesService service.PlacesService, logger *slog.Logger) *PlacesHandler {
	return &PlacesHandler{
		placesService: placesService,
		logger:        logger,
	}
}

// Autocomplete handles GET /api/places/autocomplete?q=...&session=...
//
// The session parameter groups keystrokes from one search box instance so
// bursts are debounced together. Queries under the minimum length return an
// empty list without touching the provider.
func (h *PlacesHandler) Autocomplete(w http.ResponseWriter, r *http.Request) {
	user := currentUser(w, r, h.logger)
	if user == nil {
		return
	}

	query := r.URL.Query().Get("q")
	session := r.URL.Query().Get("session")
	if session == "" {
		// Fall back to per-user debouncing when the client sends no session.
		session = user.ID.String()
	}

	predictions, err := h.placesService.Autocomplete(r.Context(), session, query)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}
	if predictions == nil {
		predictions = []domain.Prediction{}
	}

	JSON(w, http.StatusOK, map[string][]domain.Prediction{"predictions": predictions})
}

// Details handles GET /api/places/{place_id}.
func (h *PlacesHandler) Details(w http.ResponseWriter, r *http.Request) {
	if user := currentUser(w, r, h.logger); user == nil {
		return
	}

	placeID := r.PathValue("place_id")
	if placeID == "" {
		ErrorResponse(w, r, h.logger, domain.Invalid("PlacesHandler.Details", "Place ID is required"))
		return
	}

	place, err := h.placesService.Details(r.Context(), placeID)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	JSON(w, http.StatusOK, map[string]*domain.Place{"place": place})
}

// ReverseGeocode handles GET /api/geocode/reverse?lat=...&lng=...
// Resolves a dropped pin or GPS fix into an addressable place.
func (h *PlacesHandler) ReverseGeocode(w http.ResponseWriter, r *http.Request) {
	const op = "PlacesHandler.ReverseGeocode"

	if user := currentUser(w, r, h.logger); user == nil {
		return
	}

	lat, latErr := strconv.ParseFloat(r.URL.Query().Get("lat"), 64)
	lng, lngErr := strconv.ParseFloat(r.URL.Query().Get("lng"), 64)
	if latErr != nil || lngErr != nil {
		ErrorResponse(w, r, h.logger, domain.Invalid(op, "lat and lng must be numbers"))
		return
	}

	place, err := h.placesService.ReverseGeocode(r.Context(), lat, lng)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	JSON(w, http.StatusOK, map[string]*domain.Place{"place": place})
}
