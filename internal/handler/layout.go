package handler

import (
	"log/slog"
	"net/http"

	"github.com/pinmark/pinmark/internal/service"
)

// LayoutHandler handles the persisted sidebar/map layout endpoints.
type LayoutHandler struct {
	layoutService service.LayoutService
	logger        *slog.Logger
}

// NewLayoutHandler creates a new LayoutHandler.
func NewLayoutHandler(layoutService service.LayoutService, logger *slog.Logger) *LayoutHandler {
	return &LayoutHandler{
		layoutService: layoutService,
		logger:        logger,
	}
}

// Get handles GET /api/layout.
func (h *LayoutHandler) Get(w http.ResponseWriter, r *http.Request) {
	user := currentUser(w, r, h.logger)
	if user == nil {
		return
	}

	state, err := h.layoutService.Get(r.Context(), user.ID)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	JSON(w, http.StatusOK, map[string]*service.LayoutState{"layout": state})
}

type layoutOpRequest struct {
	Op           string  `json:"op"`
	SidebarWidth float64 `json:"sidebar_width"`
}

// Apply handles PUT /api/layout. Accepts one transition (collapse, expand,
// expand_wide, reset, or drag with a sidebar_width sample) and returns the
// resulting layout.
func (h *LayoutHandler) Apply(w http.ResponseWriter, r *http.Request) {
	user := currentUser(w, r, h.logger)
	if user == nil {
		return
	}

	var req layoutOpRequest
	if err := DecodeJSON(r, &req); err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	state, err := h.layoutService.Apply(r.Context(), user.ID, service.LayoutOp{
		Op:           req.Op,
		SidebarWidth: req.SidebarWidth,
	})
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	JSON(w, http.StatusOK, map[string]*service.LayoutState{"layout": state})
}
