package service

import (
	"context"
	"database/sql"
	"log/slog"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/pinmark/pinmark/internal/domain"
	"github.com/pinmark/pinmark/internal/repository"
)

// fakeUserQueries is an in-memory userQueries implementation.
type fakeUserQueries struct {
	users    map[uuid.UUID]domain.User
	sessions map[string]domain.Session
}

func newFakeUserQueries() *fakeUserQueries {
	return &fakeUserQueries{
		users:    map[uuid.UUID]domain.User{},
		sessions: map[string]domain.Session{},
	}
}

func (f *fakeUserQueries) CreateUser(ctx context.Context, p repository.CreateUserParams) (domain.User, error) {
	u := domain.User{
		ID:            uuid.New(),
		Email:         p.Email,
		PasswordHash:  p.PasswordHash,
		Name:          p.Name,
		IsAdmin:       p.IsAdmin,
		IsActive:      true,
		GPSPermission: domain.GPSNotAsked,
	}
	f.users[u.ID] = u
	return u, nil
}

func (f *fakeUserQueries) GetUserByID(ctx context.Context, id uuid.UUID) (domain.User, error) {
	u, ok := f.users[id]
	if !ok {
		return domain.User{}, sql.ErrNoRows
	}
	return u, nil
}

func (f *fakeUserQueries) GetUserByEmail(ctx context.Context, email string) (domain.User, error) {
	for _, u := range f.users {
		if u.Email == email {
			return u, nil
		}
	}
	return domain.User{}, sql.ErrNoRows
}

func (f *fakeUserQueries) UpdateUserGPSPermission(ctx context.Context, id uuid.UUID, permission domain.GPSPermission) error {
	u, ok := f.users[id]
	if !ok {
		return sql.ErrNoRows
	}
	u.GPSPermission = permission
	f.users[id] = u
	return nil
}

func (f *fakeUserQueries) CreateSession(ctx context.Context, p repository.CreateSessionParams) (domain.Session, error) {
	s := domain.Session{
		ID:        uuid.New(),
		UserID:    p.UserID,
		TokenHash: p.TokenHash,
		ExpiresAt: p.ExpiresAt,
	}
	f.sessions[p.TokenHash] = s
	return s, nil
}

func (f *fakeUserQueries) GetSessionByTokenHash(ctx context.Context, tokenHash string) (domain.Session, error) {
	s, ok := f.sessions[tokenHash]
	if !ok || s.IsExpired() {
		return domain.Session{}, sql.ErrNoRows
	}
	return s, nil
}

func (f *fakeUserQueries) DeleteSession(ctx context.Context, tokenHash string) error {
	delete(f.sessions, tokenHash)
	return nil
}

func (f *fakeUserQueries) DeleteUserSessions(ctx context.Context, userID uuid.UUID) error {
	for hash, s := range f.sessions {
		if s.UserID == userID {
			delete(f.sessions, hash)
		}
	}
	return nil
}

func (f *fakeUserQueries) DeleteExpiredSessions(ctx context.Context) (int64, error) {
	var n int64
	for hash, s := range f.sessions {
		if s.IsExpired() {
			delete(f.sessions, hash)
			n++
		}
	}
	return n, nil
}

func newTestUserService(t *testing.T) (UserService, *fakeUserQueries) {
	t.Helper()
	q := newFakeUserQueries()
	return NewUserService(q, slog.Default()), q
}

func registerTestUser(t *testing.T, svc UserService) *domain.User {
	t.Helper()
	user, err := svc.Register(context.Background(), domain.RegisterParams{
		Email:    "reporter@example.com",
		Password: "correct-horse",
		Name:     "Field Reporter",
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	return user
}

// =============================================================================
// Registration Tests
// =============================================================================

func TestRegisterValidation(t *testing.T) {
	svc, _ := newTestUserService(t)

	testCases := []struct {
		name   string
		params domain.RegisterParams
	}{
		{"missing email", domain.RegisterParams{Password: "password123", Name: "A"}},
		{"malformed email", domain.RegisterParams{Email: "not-an-email", Password: "password123", Name: "A"}},
		{"missing name", domain.RegisterParams{Email: "a@example.com", Password: "password123"}},
		{"short password", domain.RegisterParams{Email: "a@example.com", Password: "short", Name: "A"}},
		{"oversized password", domain.RegisterParams{Email: "a@example.com", Password: strings.Repeat("x", 80), Name: "A"}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Register(context.Background(), tc.params)
			if domain.ErrorCode(err) != domain.EINVALID {
				t.Errorf("error code = %v, want EINVALID", domain.ErrorCode(err))
			}
		})
	}
}

func TestRegisterDuplicateEmailConflicts(t *testing.T) {
	svc, _ := newTestUserService(t)
	registerTestUser(t, svc)

	_, err := svc.Register(context.Background(), domain.RegisterParams{
		Email:    "Reporter@Example.com", // same address, different case
		Password: "another-password",
		Name:     "Other",
	})
	if domain.ErrorCode(err) != domain.ECONFLICT {
		t.Errorf("error code = %v, want ECONFLICT", domain.ErrorCode(err))
	}
}

// =============================================================================
// Login / Session Tests
// =============================================================================

func TestLoginAndSessionRoundTrip(t *testing.T) {
	svc, _ := newTestUserService(t)
	user := registerTestUser(t, svc)

	result, err := svc.Login(context.Background(), "reporter@example.com", "correct-horse")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if len(result.Token) != 64 {
		t.Errorf("token length = %d, want 64 hex chars", len(result.Token))
	}
	if result.User.PasswordHash != "" {
		t.Error("login result leaked the password hash")
	}

	got, err := svc.GetBySessionToken(context.Background(), result.Token)
	if err != nil {
		t.Fatalf("GetBySessionToken: %v", err)
	}
	if got.ID != user.ID {
		t.Errorf("session resolved to user %s, want %s", got.ID, user.ID)
	}

	if err := svc.Logout(context.Background(), result.Token); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	if _, err := svc.GetBySessionToken(context.Background(), result.Token); domain.ErrorCode(err) != domain.EUNAUTHORIZED {
		t.Errorf("after logout error code = %v, want EUNAUTHORIZED", domain.ErrorCode(err))
	}
}

func TestLoginWrongPassword(t *testing.T) {
	svc, _ := newTestUserService(t)
	registerTestUser(t, svc)

	_, err := svc.Login(context.Background(), "reporter@example.com", "wrong-password")
	if domain.ErrorCode(err) != domain.EUNAUTHORIZED {
		t.Errorf("error code = %v, want EUNAUTHORIZED", domain.ErrorCode(err))
	}
}

func TestLoginUnknownEmailMatchesWrongPasswordError(t *testing.T) {
	svc, _ := newTestUserService(t)
	registerTestUser(t, svc)

	_, unknownErr := svc.Login(context.Background(), "nobody@example.com", "whatever-pass")
	_, wrongErr := svc.Login(context.Background(), "reporter@example.com", "wrong-password")

	// Same code and message, so responses cannot be used for enumeration.
	if domain.ErrorCode(unknownErr) != domain.ErrorCode(wrongErr) {
		t.Error("unknown email and wrong password should share an error code")
	}
	if domain.ErrorMessage(unknownErr) != domain.ErrorMessage(wrongErr) {
		t.Error("unknown email and wrong password should share an error message")
	}
}

func TestDeactivatedUserCannotAuthenticate(t *testing.T) {
	svc, q := newTestUserService(t)
	user := registerTestUser(t, svc)

	result, err := svc.Login(context.Background(), "reporter@example.com", "correct-horse")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	u := q.users[user.ID]
	u.IsActive = false
	q.users[user.ID] = u

	if _, err := svc.GetBySessionToken(context.Background(), result.Token); domain.ErrorCode(err) != domain.EUNAUTHORIZED {
		t.Errorf("deactivated session error code = %v, want EUNAUTHORIZED", domain.ErrorCode(err))
	}
	if _, err := svc.Login(context.Background(), "reporter@example.com", "correct-horse"); domain.ErrorCode(err) != domain.EFORBIDDEN {
		t.Errorf("deactivated login error code = %v, want EFORBIDDEN", domain.ErrorCode(err))
	}
}

// =============================================================================
// GPS Permission Tests
// =============================================================================

func TestGPSPermissionRoundTrip(t *testing.T) {
	svc, _ := newTestUserService(t)
	user := registerTestUser(t, svc)

	// Never-asked users read as not_asked.
	perm, err := svc.GPSPermission(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("GPSPermission: %v", err)
	}
	if perm != domain.GPSNotAsked {
		t.Errorf("initial permission = %q, want not_asked", perm)
	}

	for _, want := range []domain.GPSPermission{domain.GPSGranted, domain.GPSDenied, domain.GPSNotAsked} {
		if err := svc.UpdateGPSPermission(context.Background(), user.ID, want); err != nil {
			t.Fatalf("UpdateGPSPermission(%q): %v", want, err)
		}
		got, err := svc.GPSPermission(context.Background(), user.ID)
		if err != nil {
			t.Fatalf("GPSPermission: %v", err)
		}
		if got != want {
			t.Errorf("stored permission = %q, want %q", got, want)
		}
	}
}

func TestUpdateGPSPermissionRejectsUnknownValues(t *testing.T) {
	svc, _ := newTestUserService(t)
	user := registerTestUser(t, svc)

	err := svc.UpdateGPSPermission(context.Background(), user.ID, domain.GPSPermission("maybe"))
	if domain.ErrorCode(err) != domain.EINVALID {
		t.Errorf("error code = %v, want EINVALID", domain.ErrorCode(err))
	}
}

func TestNormalizeGPSPermission(t *testing.T) {
	testCases := []struct {
		stored string
		want   domain.GPSPermission
	}{
		{"granted", domain.GPSGranted},
		{"denied", domain.GPSDenied},
		{"not_asked", domain.GPSNotAsked},
		{"", domain.GPSNotAsked},
		{"garbage", domain.GPSNotAsked},
	}
	for _, tc := range testCases {
		if got := domain.NormalizeGPSPermission(tc.stored); got != tc.want {
			t.Errorf("NormalizeGPSPermission(%q) = %q, want %q", tc.stored, got, tc.want)
		}
	}
}
