package handler

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/pinmark/pinmark/internal/auth"
	"github.com/pinmark/pinmark/internal/domain"
	"github.com/pinmark/pinmark/internal/service"
)

// AuthHandler handles registration, login, and session endpoints.
type AuthHandler struct {
	userService service.UserService
	logger      *slog.Logger
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(userService service.UserService, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		userService: userService,
		logger:      logger,
	}
}

type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

// Register handles POST /api/auth/register.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := DecodeJSON(r, &req); err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	user, err := h.userService.Register(r.Context(), domain.RegisterParams{
		Email:    req.Email,
		Password: req.Password,
		Name:     req.Name,
	})
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	JSON(w, http.StatusCreated, map[string]userResponse{"user": newUserResponse(user)})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string       `json:"token"`
	User  userResponse `json:"user"`
}

// Login handles POST /api/auth/login. The raw session token is returned exactly
// once; clients send it back as a bearer token.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := DecodeJSON(r, &req); err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	result, err := h.userService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	JSON(w, http.StatusOK, loginResponse{
		Token: result.Token,
		User:  newUserResponse(result.User),
	})
}

// Logout handles POST /api/auth/logout. Logout is idempotent: an unknown or
// already-revoked token still succeeds.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	token := bearerToken(r)
	if token != "" {
		if err := h.userService.Logout(r.Context(), token); err != nil {
			ErrorResponse(w, r, h.logger, err)
			return
		}
	}
	w.WriteHeader(http.StatusNoContent)
}

// Profile handles GET /api/auth/profile.
func (h *AuthHandler) Profile(w http.ResponseWriter, r *http.Request) {
	user := currentUser(w, r, h.logger)
	if user == nil {
		return
	}
	JSON(w, http.StatusOK, map[string]userResponse{"user": newUserResponse(user)})
}

type verifyUserResponse struct {
	userResponse

	// The map frontend's session check reads camelCase. Remove once it
	// switches to the snake_case key the rest of the API uses.
	IsAdminLegacy bool `json:"isAdmin"`
}

// Verify handles GET /api/auth/verify. Confirms the bearer token is still
// valid and returns the user it belongs to.
func (h *AuthHandler) Verify(w http.ResponseWriter, r *http.Request) {
	user := currentUser(w, r, h.logger)
	if user == nil {
		return
	}
	JSON(w, http.StatusOK, map[string]verifyUserResponse{"user": {
		userResponse:  newUserResponse(user),
		IsAdminLegacy: user.IsAdmin,
	}})
}

type gpsPermissionResponse struct {
	Success       bool                 `json:"success"`
	GPSPermission domain.GPSPermission `json:"gps_permission"`
}

// GetGPSPermission handles GET /api/auth/gps-permission.
func (h *AuthHandler) GetGPSPermission(w http.ResponseWriter, r *http.Request) {
	user := currentUser(w, r, h.logger)
	if user == nil {
		return
	}

	permission, err := h.userService.GPSPermission(r.Context(), user.ID)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}
	JSON(w, http.StatusOK, gpsPermissionResponse{Success: true, GPSPermission: permission})
}

type updateGPSPermissionRequest struct {
	Permission string `json:"permission"`
}

// UpdateGPSPermission handles PUT /api/auth/gps-permission. The client
// reports the browser geolocation decision so later visits skip the prompt.
func (h *AuthHandler) UpdateGPSPermission(w http.ResponseWriter, r *http.Request) {
	user := currentUser(w, r, h.logger)
	if user == nil {
		return
	}

	var req updateGPSPermissionRequest
	if err := DecodeJSON(r, &req); err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	permission := domain.GPSPermission(req.Permission)
	if err := h.userService.UpdateGPSPermission(r.Context(), user.ID, permission); err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}
	JSON(w, http.StatusOK, gpsPermissionResponse{Success: true, GPSPermission: permission})
}

// currentUser returns the authenticated user from the context, writing a
// 401 response when there is none. Callers must return when nil comes back.
func currentUser(w http.ResponseWriter, r *http.Request, logger *slog.Logger) *domain.User {
	user := auth.GetUser(r.Context())
	if user == nil {
		UnauthorizedResponse(w, r, logger)
	}
	return user
}

// bearerToken extracts the token from an "Authorization: Bearer ..." header.
func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}
