package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/pinmark/pinmark/internal/domain"
)

const userColumns = `id, email, password_hash, name, is_admin, is_active, gps_permission, created_at, updated_at`

func scanUser(row interface{ Scan(...interface{}) error }) (domain.User, error) {
	var (
		u    domain.User
		perm string
	)
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Name, &u.IsAdmin, &u.IsActive, &perm, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return domain.User{}, err
	}
	u.GPSPermission = domain.NormalizeGPSPermission(perm)
	return u, nil
}

// CreateUserParams contains the fields required to insert a user.
type CreateUserParams struct {
	Email        string
	PasswordHash string
	Name         string
	IsAdmin      bool
}

func (q *Queries) CreateUser(ctx context.Context, p CreateUserParams) (domain.User, error) {
	row := q.db.QueryRowContext(ctx, `
		INSERT INTO users (email, password_hash, name, is_admin)
		VALUES ($1, $2, $3, $4)
		RETURNING `+userColumns,
		p.Email, p.PasswordHash, p.Name, p.IsAdmin)
	return scanUser(row)
}

func (q *Queries) GetUserByID(ctx context.Context, id uuid.UUID) (domain.User, error) {
	row := q.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	return scanUser(row)
}

func (q *Queries) GetUserByEmail(ctx context.Context, email string) (domain.User, error) {
	row := q.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
	return scanUser(row)
}

func (q *Queries) ListUsers(ctx context.Context) ([]domain.User, error) {
	rows, err := q.db.QueryContext(ctx, `SELECT `+userColumns+` FROM users ORDER BY created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []domain.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (q *Queries) UpdateUserGPSPermission(ctx context.Context, id uuid.UUID, permission domain.GPSPermission) error {
	_, err := q.db.ExecContext(ctx, `
		UPDATE users SET gps_permission = $2, updated_at = now() WHERE id = $1`,
		id, string(permission))
	return err
}

func (q *Queries) UpdateUserActive(ctx context.Context, id uuid.UUID, active bool) error {
	_, err := q.db.ExecContext(ctx, `
		UPDATE users SET is_active = $2, updated_at = now() WHERE id = $1`,
		id, active)
	return err
}

// =============================================================================
// Sessions
// =============================================================================

// CreateSessionParams contains the fields required to insert a session.
type CreateSessionParams struct {
	UserID    uuid.UUID
	TokenHash string
	ExpiresAt time.Time
}

func (q *Queries) CreateSession(ctx context.Context, p CreateSessionParams) (domain.Session, error) {
	var s domain.Session
	row := q.db.QueryRowContext(ctx, `
		INSERT INTO sessions (user_id, token_hash, expires_at)
		VALUES ($1, $2, $3)
		RETURNING id, user_id, token_hash, expires_at, created_at`,
		p.UserID, p.TokenHash, p.ExpiresAt)
	err := row.Scan(&s.ID, &s.UserID, &s.TokenHash, &s.ExpiresAt, &s.CreatedAt)
	return s, err
}

// GetSessionByTokenHash returns a live (non-expired) session.
func (q *Queries) GetSessionByTokenHash(ctx context.Context, tokenHash string) (domain.Session, error) {
	var s domain.Session
	row := q.db.QueryRowContext(ctx, `
		SELECT id, user_id, token_hash, expires_at, created_at
		FROM sessions
		WHERE token_hash = $1 AND expires_at > now()`,
		tokenHash)
	err := row.Scan(&s.ID, &s.UserID, &s.TokenHash, &s.ExpiresAt, &s.CreatedAt)
	return s, err
}

func (q *Queries) DeleteSession(ctx context.Context, tokenHash string) error {
	_, err := q.db.ExecContext(ctx, `DELETE FROM sessions WHERE token_hash = $1`, tokenHash)
	return err
}

func (q *Queries) DeleteUserSessions(ctx context.Context, userID uuid.UUID) error {
	_, err := q.db.ExecContext(ctx, `DELETE FROM sessions WHERE user_id = $1`, userID)
	return err
}

func (q *Queries) DeleteExpiredSessions(ctx context.Context) (int64, error) {
	res, err := q.db.ExecContext(ctx, `DELETE FROM sessions WHERE expires_at <= now()`)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
