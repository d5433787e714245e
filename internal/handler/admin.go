package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/pinmark/pinmark/internal/domain"
	"github.com/pinmark/pinmark/internal/service"
)

// AdminHandler handles the admin panel endpoints. Routes using it must be
// wrapped with the RequireAdmin middleware.
type AdminHandler struct {
	adminService service.AdminService
	logger       *slog.Logger
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(adminService service.AdminService, logger *slog.Logger) *AdminHandler {
	return &AdminHandler{
		adminService: adminService,
		logger:       logger,
	}
}

// adminUserResponse carries the active flag under both names. The original
// admin panel read camelCase; newer clients use snake_case. Drop the legacy
// key once no deployed panel build reads it.
type adminUserResponse struct {
	ID             uuid.UUID            `json:"id"`
	Email          string               `json:"email"`
	Name           string               `json:"name"`
	IsAdmin        bool                 `json:"is_admin"`
	IsActive       bool                 `json:"is_active"`
	IsActiveLegacy bool                 `json:"isActive"`
	GPSPermission  domain.GPSPermission `json:"gps_permission"`
	CreatedAt      time.Time            `json:"created_at"`
}

// ListUsers handles GET /api/admin/users.
func (h *AdminHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.adminService.ListUsers(r.Context())
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	out := make([]adminUserResponse, 0, len(users))
	for i := range users {
		u := &users[i]
		out = append(out, adminUserResponse{
			ID:             u.ID,
			Email:          u.Email,
			Name:           u.Name,
			IsAdmin:        u.IsAdmin,
			IsActive:       u.IsActive,
			IsActiveLegacy: u.IsActive,
			GPSPermission:  u.GPSPermission,
			CreatedAt:      u.CreatedAt,
		})
	}

	JSON(w, http.StatusOK, map[string][]adminUserResponse{"users": out})
}

type setUserActiveRequest struct {
	Active bool `json:"active"`
}

// SetUserActive handles PUT /api/admin/users/{id}/active.
func (h *AdminHandler) SetUserActive(w http.ResponseWriter, r *http.Request) {
	admin := currentUser(w, r, h.logger)
	if admin == nil {
		return
	}

	userID, err := pathUUID(r, "id")
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	var req setUserActiveRequest
	if err := DecodeJSON(r, &req); err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	if err := h.adminService.SetUserActive(r.Context(), admin.ID, userID, req.Active); err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	JSON(w, http.StatusOK, map[string]bool{"active": req.Active})
}

// ListLocations handles GET /api/admin/locations.
func (h *AdminHandler) ListLocations(w http.ResponseWriter, r *http.Request) {
	locations, err := h.adminService.ListAllLocations(r.Context())
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	JSON(w, http.StatusOK, map[string][]locationResponse{"locations": newLocationListResponse(locations)})
}

// DeleteLocation handles DELETE /api/admin/locations/{id}.
func (h *AdminHandler) DeleteLocation(w http.ResponseWriter, r *http.Request) {
	locationID, err := pathUUID(r, "id")
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	if err := h.adminService.DeleteAnyLocation(r.Context(), locationID); err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
