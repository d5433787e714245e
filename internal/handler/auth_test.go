package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/pinmark/pinmark/internal/auth"
	"github.com/pinmark/pinmark/internal/domain"
)

// stubUserService backs the auth handler tests.
type stubUserService struct {
	registered *domain.RegisterParams
	permission domain.GPSPermission
}

func (s *stubUserService) Register(ctx context.Context, params domain.RegisterParams) (*domain.User, error) {
	if params.Email == "" {
		return nil, domain.Invalid("UserService.Register", "Email is required")
	}
	s.registered = &params
	return &domain.User{ID: uuid.New(), Email: params.Email, Name: params.Name, IsActive: true}, nil
}

func (s *stubUserService) Login(ctx context.Context, email, password string) (*domain.LoginResult, error) {
	if password != "correct-horse" {
		return nil, domain.Unauthorized("UserService.Login", "Invalid email or password")
	}
	return &domain.LoginResult{
		User:  &domain.User{ID: uuid.New(), Email: email, IsActive: true},
		Token: strings.Repeat("ab", 32),
	}, nil
}

func (s *stubUserService) Logout(ctx context.Context, token string) error { return nil }

func (s *stubUserService) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	return nil, domain.NotFound("", "user", id.String())
}

func (s *stubUserService) GetBySessionToken(ctx context.Context, token string) (*domain.User, error) {
	return nil, domain.Unauthorized("", "Invalid or expired session")
}

func (s *stubUserService) GPSPermission(ctx context.Context, userID uuid.UUID) (domain.GPSPermission, error) {
	if s.permission == "" {
		return domain.GPSNotAsked, nil
	}
	return s.permission, nil
}

func (s *stubUserService) UpdateGPSPermission(ctx context.Context, userID uuid.UUID, permission domain.GPSPermission) error {
	if !permission.Valid() {
		return domain.Invalid("UserService.UpdateGPSPermission", "Unknown GPS permission value")
	}
	s.permission = permission
	return nil
}

func (s *stubUserService) DeleteExpiredSessions(ctx context.Context) error { return nil }

func withUser(req *http.Request) *http.Request {
	user := &domain.User{ID: uuid.New(), Email: "reporter@example.com", IsActive: true}
	return req.WithContext(auth.SetUser(req.Context(), user))
}

func TestRegisterHandler(t *testing.T) {
	svc := &stubUserService{}
	h := NewAuthHandler(svc, slog.Default())

	body := `{"email":"reporter@example.com","password":"correct-horse","name":"Field Reporter"}`
	rec := httptest.NewRecorder()
	h.Register(rec, httptest.NewRequest(http.MethodPost, "/api/auth/register", strings.NewReader(body)))

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201: %s", rec.Code, rec.Body.String())
	}
	if svc.registered == nil || svc.registered.Email != "reporter@example.com" {
		t.Errorf("service received %+v", svc.registered)
	}
	if strings.Contains(rec.Body.String(), "password") {
		t.Error("response mentions password")
	}
}

func TestRegisterHandlerRejectsBadJSON(t *testing.T) {
	h := NewAuthHandler(&stubUserService{}, slog.Default())

	rec := httptest.NewRecorder()
	h.Register(rec, httptest.NewRequest(http.MethodPost, "/api/auth/register", strings.NewReader("{not json")))

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestLoginHandlerReturnsToken(t *testing.T) {
	h := NewAuthHandler(&stubUserService{}, slog.Default())

	body := `{"email":"reporter@example.com","password":"correct-horse"}`
	rec := httptest.NewRecorder()
	h.Login(rec, httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(body)))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var resp struct {
		Token string       `json:"token"`
		User  userResponse `json:"user"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal body: %v", err)
	}
	if len(resp.Token) != 64 {
		t.Errorf("token length = %d, want 64", len(resp.Token))
	}
	if resp.User.Email != "reporter@example.com" {
		t.Errorf("user email = %q", resp.User.Email)
	}
}

func TestLoginHandlerWrongPassword(t *testing.T) {
	h := NewAuthHandler(&stubUserService{}, slog.Default())

	body := `{"email":"reporter@example.com","password":"nope"}`
	rec := httptest.NewRecorder()
	h.Login(rec, httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(body)))

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestLogoutHandlerIsIdempotent(t *testing.T) {
	h := NewAuthHandler(&stubUserService{}, slog.Default())

	// Even without a token the endpoint succeeds.
	rec := httptest.NewRecorder()
	h.Logout(rec, httptest.NewRequest(http.MethodPost, "/api/auth/logout", nil))
	if rec.Code != http.StatusNoContent {
		t.Errorf("status = %d, want 204", rec.Code)
	}
}

func TestGPSPermissionHandlers(t *testing.T) {
	svc := &stubUserService{}
	h := NewAuthHandler(svc, slog.Default())

	rec := httptest.NewRecorder()
	h.GetGPSPermission(rec, withUser(httptest.NewRequest(http.MethodGet, "/api/auth/gps-permission", nil)))
	if rec.Code != http.StatusOK {
		t.Fatalf("get status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "not_asked") {
		t.Errorf("initial permission body = %s, want not_asked", rec.Body.String())
	}

	rec = httptest.NewRecorder()
	req := withUser(httptest.NewRequest(http.MethodPut, "/api/auth/gps-permission",
		strings.NewReader(`{"permission":"granted"}`)))
	h.UpdateGPSPermission(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("update status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	if svc.permission != domain.GPSGranted {
		t.Errorf("stored permission = %q, want granted", svc.permission)
	}
	if !strings.Contains(rec.Body.String(), `"success":true`) {
		t.Errorf("update body = %s, want success flag", rec.Body.String())
	}

	rec = httptest.NewRecorder()
	req = withUser(httptest.NewRequest(http.MethodPut, "/api/auth/gps-permission",
		strings.NewReader(`{"permission":"maybe"}`)))
	h.UpdateGPSPermission(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("invalid permission status = %d, want 400", rec.Code)
	}
}

func TestVerifyHandlerEmitsLegacyAdminKey(t *testing.T) {
	h := NewAuthHandler(&stubUserService{}, slog.Default())

	user := &domain.User{ID: uuid.New(), Email: "admin@example.com", IsAdmin: true, IsActive: true}
	req := httptest.NewRequest(http.MethodGet, "/api/auth/verify", nil)
	req = req.WithContext(auth.SetUser(req.Context(), user))

	rec := httptest.NewRecorder()
	h.Verify(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var body struct {
		User map[string]json.RawMessage `json:"user"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal body: %v", err)
	}
	for _, key := range []string{"is_admin", "isAdmin"} {
		if string(body.User[key]) != "true" {
			t.Errorf("user[%q] = %s, want true", key, body.User[key])
		}
	}
}
