package service

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"

	"github.com/google/uuid"

	"github.com/pinmark/pinmark/internal/domain"
	"github.com/pinmark/pinmark/internal/repository"
)

// AdminService defines the operations behind the admin panel. All callers
// must already be authenticated as admins; the middleware enforces that, and
// this layer enforces the rules that remain (an admin cannot deactivate
// their own account).
type AdminService interface {
	// ListUsers returns every registered user.
	ListUsers(ctx context.Context) ([]domain.User, error)

	// SetUserActive activates or deactivates an account. Deactivation also
	// revokes the user's sessions so access ends immediately.
	// Returns domain.EINVALID if an admin targets their own account.
	SetUserActive(ctx context.Context, adminID, userID uuid.UUID, active bool) error

	// ListAllLocations returns every saved location across all users.
	ListAllLocations(ctx context.Context) ([]domain.Location, error)

	// DeleteAnyLocation removes any user's location.
	DeleteAnyLocation(ctx context.Context, locationID uuid.UUID) error
}

type adminService struct {
	queries *repository.Queries
	logger  *slog.Logger
}

// NewAdminService creates an AdminService.
func NewAdminService(queries *repository.Queries, logger *slog.Logger) AdminService {
	return &adminService{
		queries: queries,
		logger:  logger,
	}
}

func (s *adminService) ListUsers(ctx context.Context) ([]domain.User, error) {
	const op = "AdminService.ListUsers"

	users, err := s.queries.ListUsers(ctx)
	if err != nil {
		return nil, domain.Internal(err, op, "Failed to list users")
	}
	for i := range users {
		users[i].PasswordHash = ""
	}
	return users, nil
}

func (s *adminService) SetUserActive(ctx context.Context, adminID, userID uuid.UUID, active bool) error {
	const op = "AdminService.SetUserActive"

	if adminID == userID && !active {
		return domain.Invalid(op, "You cannot deactivate your own account")
	}

	if _, err := s.queries.GetUserByID(ctx, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.NotFound(op, "user", userID.String())
		}
		return domain.Internal(err, op, "Failed to retrieve user")
	}

	if err := s.queries.UpdateUserActive(ctx, userID, active); err != nil {
		return domain.Internal(err, op, "Failed to update user")
	}

	if !active {
		if err := s.queries.DeleteUserSessions(ctx, userID); err != nil {
			return domain.Internal(err, op, "Failed to revoke sessions")
		}
	}

	s.logger.Info("user active state changed",
		"admin_id", adminID,
		"user_id", userID,
		"active", active)

	return nil
}

func (s *adminService) ListAllLocations(ctx context.Context) ([]domain.Location, error) {
	const op = "AdminService.ListAllLocations"

	locations, err := s.queries.ListAllLocations(ctx)
	if err != nil {
		return nil, domain.Internal(err, op, "Failed to list locations")
	}
	return locations, nil
}

func (s *adminService) DeleteAnyLocation(ctx context.Context, locationID uuid.UUID) error {
	const op = "AdminService.DeleteAnyLocation"

	if _, err := s.queries.GetLocationByID(ctx, locationID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.NotFound(op, "location", locationID.String())
		}
		return domain.Internal(err, op, "Failed to retrieve location")
	}

	if err := s.queries.DeleteLocation(ctx, locationID); err != nil {
		return domain.Internal(err, op, "Failed to delete location")
	}

	s.logger.Info("location deleted by admin", "location_id", locationID)
	return nil
}
