package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// LayoutRow is the persisted per-user layout state.
type LayoutRow struct {
	UserID           uuid.UUID
	Mode             string
	SidebarWidth     float64
	LastSidebarWidth float64
	UpdatedAt        time.Time
}

// GetUserLayout returns the stored layout for a user.
func (q *Queries) GetUserLayout(ctx context.Context, userID uuid.UUID) (LayoutRow, error) {
	var row LayoutRow
	err := q.db.QueryRowContext(ctx, `
		SELECT user_id, mode, sidebar_width, last_sidebar_width, updated_at
		FROM user_layouts WHERE user_id = $1`, userID).
		Scan(&row.UserID, &row.Mode, &row.SidebarWidth, &row.LastSidebarWidth, &row.UpdatedAt)
	return row, err
}

// UpsertUserLayout stores the layout state for a user, replacing any prior row.
func (q *Queries) UpsertUserLayout(ctx context.Context, row LayoutRow) error {
	_, err := q.db.ExecContext(ctx, `
		INSERT INTO user_layouts (user_id, mode, sidebar_width, last_sidebar_width, updated_at)
		VALUES ($1, $2, $3, $4, now())
		ON CONFLICT (user_id) DO UPDATE
		SET mode = EXCLUDED.mode,
			sidebar_width = EXCLUDED.sidebar_width,
			last_sidebar_width = EXCLUDED.last_sidebar_width,
			updated_at = now()`,
		row.UserID, row.Mode, row.SidebarWidth, row.LastSidebarWidth)
	return err
}
