package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/pinmark/pinmark/internal/domain"
	"github.com/pinmark/pinmark/internal/service"
)

// LocationHandler handles saved-location CRUD and the marker endpoint.
type LocationHandler struct {
	locationService service.LocationService
	logger          *slog.Logger
}

// NewLocationHandler creates a new LocationHandler.
func NewLocationHandler(locationService service.LocationService, logger *slog.Logger) *LocationHandler {
	return &LocationHandler{
		locationService: locationService,
		logger:          logger,
	}
}

type createLocationRequest struct {
	PlaceID         string  `json:"place_id"`
	Name            string  `json:"name"`
	Description     string  `json:"description"`
	Address         string  `json:"address"`
	Street          string  `json:"street"`
	Number          string  `json:"number"`
	City            string  `json:"city"`
	State           string  `json:"state"`
	Zipcode         string  `json:"zipcode"`
	Lat             float64 `json:"lat"`
	Lng             float64 `json:"lng"`
	Type            string  `json:"type"`
	ProductionNotes string  `json:"production_notes"`
	EntryPoint      string  `json:"entry_point"`
	Parking         string  `json:"parking"`
	Access          string  `json:"access"`
}

// Create handles POST /api/locations.
func (h *LocationHandler) Create(w http.ResponseWriter, r *http.Request) {
	user := currentUser(w, r, h.logger)
	if user == nil {
		return
	}

	var req createLocationRequest
	if err := DecodeJSON(r, &req); err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	location, err := h.locationService.Create(r.Context(), domain.CreateLocationParams{
		UserID:          user.ID,
		PlaceID:         req.PlaceID,
		Name:            req.Name,
		Description:     req.Description,
		Address:         req.Address,
		Street:          req.Street,
		Number:          req.Number,
		City:            req.City,
		State:           req.State,
		Zipcode:         req.Zipcode,
		Lat:             req.Lat,
		Lng:             req.Lng,
		Type:            domain.LocationType(req.Type),
		ProductionNotes: req.ProductionNotes,
		EntryPoint:      req.EntryPoint,
		Parking:         req.Parking,
		Access:          req.Access,
	})
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	JSON(w, http.StatusCreated, map[string]locationResponse{"location": newLocationResponse(location)})
}

// List handles GET /api/locations?q=search.
func (h *LocationHandler) List(w http.ResponseWriter, r *http.Request) {
	user := currentUser(w, r, h.logger)
	if user == nil {
		return
	}

	locations, err := h.locationService.List(r.Context(), user.ID, r.URL.Query().Get("q"))
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	JSON(w, http.StatusOK, map[string][]locationResponse{"locations": newLocationListResponse(locations)})
}

// Get handles GET /api/locations/{id}.
func (h *LocationHandler) Get(w http.ResponseWriter, r *http.Request) {
	user := currentUser(w, r, h.logger)
	if user == nil {
		return
	}

	id, err := pathUUID(r, "id")
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	location, err := h.locationService.Get(r.Context(), id, user.ID)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	JSON(w, http.StatusOK, map[string]locationResponse{"location": newLocationResponse(location)})
}

type updateLocationRequest struct {
	Name            string `json:"name"`
	Description     string `json:"description"`
	Type            string `json:"type"`
	ProductionNotes string `json:"production_notes"`
	EntryPoint      string `json:"entry_point"`
	Parking         string `json:"parking"`
	Access          string `json:"access"`
}

// Update handles PUT /api/locations/{id}.
func (h *LocationHandler) Update(w http.ResponseWriter, r *http.Request) {
	user := currentUser(w, r, h.logger)
	if user == nil {
		return
	}

	id, err := pathUUID(r, "id")
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	var req updateLocationRequest
	if err := DecodeJSON(r, &req); err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	location, err := h.locationService.Update(r.Context(), domain.UpdateLocationParams{
		ID:              id,
		UserID:          user.ID,
		Name:            req.Name,
		Description:     req.Description,
		Type:            domain.LocationType(req.Type),
		ProductionNotes: req.ProductionNotes,
		EntryPoint:      req.EntryPoint,
		Parking:         req.Parking,
		Access:          req.Access,
	})
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	JSON(w, http.StatusOK, map[string]locationResponse{"location": newLocationResponse(location)})
}

// Delete handles DELETE /api/locations/{id}.
func (h *LocationHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user := currentUser(w, r, h.logger)
	if user == nil {
		return
	}

	id, err := pathUUID(r, "id")
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	if err := h.locationService.Delete(r.Context(), id, user.ID); err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

type savedResponse struct {
	Saved    bool              `json:"saved"`
	Location *locationResponse `json:"location,omitempty"`
}

// IsSaved handles GET /api/locations/saved/{place_id}. Lets the place panel
// show "saved" state before the user clicks.
func (h *LocationHandler) IsSaved(w http.ResponseWriter, r *http.Request) {
	user := currentUser(w, r, h.logger)
	if user == nil {
		return
	}

	placeID := r.PathValue("place_id")
	if placeID == "" {
		ErrorResponse(w, r, h.logger, domain.Invalid("LocationHandler.IsSaved", "Place ID is required"))
		return
	}

	location, err := h.locationService.IsSaved(r.Context(), user.ID, placeID)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	resp := savedResponse{Saved: location != nil}
	if location != nil {
		lr := newLocationResponse(location)
		resp.Location = &lr
	}
	JSON(w, http.StatusOK, resp)
}

// Markers handles GET /api/markers?zoom=&south=&west=&north=&east=.
// Returns clustered markers for the viewport.
func (h *LocationHandler) Markers(w http.ResponseWriter, r *http.Request) {
	const op = "LocationHandler.Markers"
	user := currentUser(w, r, h.logger)
	if user == nil {
		return
	}

	q := r.URL.Query()
	zoom, err := strconv.Atoi(q.Get("zoom"))
	if err != nil {
		ErrorResponse(w, r, h.logger, domain.Invalid(op, "Zoom must be an integer"))
		return
	}

	var bounds service.Bounds
	for _, f := range []struct {
		name string
		dst  *float64
	}{
		{"south", &bounds.South},
		{"west", &bounds.West},
		{"north", &bounds.North},
		{"east", &bounds.East},
	} {
		v, err := strconv.ParseFloat(q.Get(f.name), 64)
		if err != nil {
			ErrorResponse(w, r, h.logger, domain.Invalid(op, "Viewport bounds must be numbers"))
			return
		}
		*f.dst = v
	}

	markers, err := h.locationService.Markers(r.Context(), user.ID, bounds, zoom)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	JSON(w, http.StatusOK, map[string]interface{}{"markers": markers})
}

// pathUUID parses a UUID path parameter.
func pathUUID(r *http.Request, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(r.PathValue(name))
	if err != nil {
		return uuid.Nil, domain.Invalid("", "Invalid "+name)
	}
	return id, nil
}
