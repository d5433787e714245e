package service

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"

	"github.com/google/uuid"

	"github.com/pinmark/pinmark/internal/domain"
	"github.com/pinmark/pinmark/internal/layout"
	"github.com/pinmark/pinmark/internal/repository"
)

// Layout operations accepted by Apply.
const (
	LayoutOpCollapse   = "collapse"
	LayoutOpExpand     = "expand"
	LayoutOpExpandWide = "expand_wide"
	LayoutOpReset      = "reset"
	LayoutOpDrag       = "drag"
)

// LayoutOp is one layout transition request.
type LayoutOp struct {
	Op string

	// SidebarWidth is the drag sample, used only when Op is "drag".
	SidebarWidth float64
}

// LayoutState is the layout machine state plus the values derived from it
// that the client renders directly.
type LayoutState struct {
	*layout.Machine

	// MapWidthPct is 100 minus the sidebar width.
	MapWidthPct float64 `json:"map_width"`

	// FloatingButtonLeftPct is the clamped left offset for the floating
	// map buttons.
	FloatingButtonLeftPct float64 `json:"floating_button_left"`
}

// LayoutService persists and transitions the per-user sidebar/map layout.
type LayoutService interface {
	// Get returns the user's layout, or the initial layout if they have
	// never changed it.
	Get(ctx context.Context, userID uuid.UUID) (*LayoutState, error)

	// Apply runs one transition against the user's layout and persists the
	// result. Returns domain.EINVALID for unknown operations.
	Apply(ctx context.Context, userID uuid.UUID, op LayoutOp) (*LayoutState, error)
}

type layoutService struct {
	queries *repository.Queries
	logger  *slog.Logger
}

// NewLayoutService creates a LayoutService.
func NewLayoutService(queries *repository.Queries, logger *slog.Logger) LayoutService {
	return &layoutService{
		queries: queries,
		logger:  logger,
	}
}

func (s *layoutService) Get(ctx context.Context, userID uuid.UUID) (*LayoutState, error) {
	const op = "LayoutService.Get"

	m, err := s.load(ctx, userID)
	if err != nil {
		return nil, domain.Internal(err, op, "Failed to load layout")
	}
	return stateOf(m), nil
}

func (s *layoutService) Apply(ctx context.Context, userID uuid.UUID, req LayoutOp) (*LayoutState, error) {
	const op = "LayoutService.Apply"

	m, err := s.load(ctx, userID)
	if err != nil {
		return nil, domain.Internal(err, op, "Failed to load layout")
	}

	switch req.Op {
	case LayoutOpCollapse:
		m.Collapse()
	case LayoutOpExpand:
		m.Expand()
	case LayoutOpExpandWide:
		m.ExpandWide()
	case LayoutOpReset:
		m.Reset()
	case LayoutOpDrag:
		if req.SidebarWidth < 0 || req.SidebarWidth > 100 {
			return nil, domain.Invalid(op, "Sidebar width must be a percentage")
		}
		m.Drag(req.SidebarWidth)
	default:
		return nil, domain.Invalid(op, "Unknown layout operation")
	}

	err = s.queries.UpsertUserLayout(ctx, repository.LayoutRow{
		UserID:           userID,
		Mode:             string(m.Mode),
		SidebarWidth:     m.SidebarWidth,
		LastSidebarWidth: m.LastSidebarWidth,
	})
	if err != nil {
		return nil, domain.Internal(err, op, "Failed to persist layout")
	}

	s.logger.Debug("layout updated", "user_id", userID, "op", req.Op, "mode", m.Mode)
	return stateOf(m), nil
}

// load rebuilds a layout machine from the stored row, falling back to the
// initial layout for users without one. Stored values that no longer make
// sense (unknown mode, out-of-range width) also fall back rather than error.
func (s *layoutService) load(ctx context.Context, userID uuid.UUID) (*layout.Machine, error) {
	m := layout.New()

	row, err := s.queries.GetUserLayout(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return m, nil
		}
		return nil, err
	}

	switch layout.Mode(row.Mode) {
	case layout.ModeExpanded, layout.ModeCollapsed, layout.ModeWide:
		m.Mode = layout.Mode(row.Mode)
	default:
		return m, nil
	}

	if row.SidebarWidth >= 0 && row.SidebarWidth <= 100 {
		m.SidebarWidth = row.SidebarWidth
	}
	if row.LastSidebarWidth > 0 && row.LastSidebarWidth <= layout.MaxSidebarWidth {
		m.LastSidebarWidth = row.LastSidebarWidth
	}

	return m, nil
}

func stateOf(m *layout.Machine) *LayoutState {
	return &LayoutState{
		Machine:               m,
		MapWidthPct:           m.MapWidth(),
		FloatingButtonLeftPct: layout.FloatingButtonOffsetFor(m),
	}
}
