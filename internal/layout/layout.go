// Package layout implements the sidebar/map layout state machine.
//
// The layout is a split between a map pane and a sidebar pane whose widths
// are percentages summing to 100. The machine has three modes:
//
//	EXPANDED  - sidebar at a user-chosen width (default 25%)
//	COLLAPSED - sidebar at 0%, map at 100%
//	WIDE      - sidebar at 96%, used by detail panels that need the room
//
// Drag-resize is a continuous sub-transition: each drag sample sets the
// sidebar width directly, and crossing below the collapse threshold
// triggers an implicit Collapse. State is plain data so it can be persisted
// per user through the repository.
package layout

import (
	"github.com/pinmark/pinmark/internal/domain"
)

// Mode identifies the discrete layout state.
type Mode string

const (
	ModeExpanded  Mode = "expanded"
	ModeCollapsed Mode = "collapsed"
	ModeWide      Mode = "wide"
)

const (
	// DefaultSidebarWidth is the initial sidebar width percentage.
	DefaultSidebarWidth = 25.0

	// WideSidebarWidth is the sidebar width in WIDE mode.
	WideSidebarWidth = 96.0

	// CollapseThreshold: dragging the sidebar below this width collapses it.
	CollapseThreshold = 15.0

	// MaxSidebarWidth caps drag-resize so the map never fully disappears
	// outside of WIDE mode.
	MaxSidebarWidth = 90.0
)

// USACenter is the coordinate the map recenters to on reset.
var USACenter = Coordinate{Lat: 39.8283, Lng: -98.5795}

// Coordinate is a WGS84 point.
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Machine holds the layout state for one user.
type Machine struct {
	Mode             Mode              `json:"mode"`
	SidebarWidth     float64           `json:"sidebar_width"`
	LastSidebarWidth float64           `json:"last_sidebar_width"`
	Panels           map[string]string `json:"panels,omitempty"`
	ActiveButtons    map[string]bool   `json:"active_buttons,omitempty"`
	MapCenter        Coordinate        `json:"map_center"`
}

// New returns a machine in the initial layout: EXPANDED at the default width,
// map centered on the USA.
func New() *Machine {
	return &Machine{
		Mode:             ModeExpanded,
		SidebarWidth:     DefaultSidebarWidth,
		LastSidebarWidth: DefaultSidebarWidth,
		Panels:           map[string]string{},
		ActiveButtons:    map[string]bool{},
		MapCenter:        USACenter,
	}
}

// MapWidth returns the map pane width. MapWidth + SidebarWidth == 100 at rest.
func (m *Machine) MapWidth() float64 {
	return 100 - m.SidebarWidth
}

// Collapse hides the sidebar. An EXPANDED width is remembered so Expand can
// restore it; collapsing from WIDE keeps the pre-wide width instead, since
// the wide width exceeds the drag cap and could never be restored.
// Collapsing an already-collapsed layout is a no-op.
func (m *Machine) Collapse() {
	if m.Mode == ModeCollapsed {
		return
	}
	if m.Mode == ModeExpanded && m.SidebarWidth > 0 {
		m.LastSidebarWidth = m.SidebarWidth
	}
	m.Mode = ModeCollapsed
	m.SidebarWidth = 0
}

// Expand restores the sidebar to its last width, or the default when no
// width was remembered. Only meaningful from COLLAPSED; expanding an
// expanded layout leaves it unchanged.
func (m *Machine) Expand() {
	if m.Mode == ModeExpanded {
		return
	}
	width := m.LastSidebarWidth
	if width <= 0 || width > MaxSidebarWidth {
		width = DefaultSidebarWidth
	}
	m.Mode = ModeExpanded
	m.SidebarWidth = width
}

// ExpandWide switches to WIDE mode from any state. The pre-wide width is
// remembered so leaving WIDE restores it.
func (m *Machine) ExpandWide() {
	if m.Mode == ModeExpanded && m.SidebarWidth > 0 {
		m.LastSidebarWidth = m.SidebarWidth
	}
	m.Mode = ModeWide
	m.SidebarWidth = WideSidebarWidth
}

// Drag applies a continuous resize sample. Widths below the collapse
// threshold trigger an implicit Collapse; repeated samples below the
// threshold stay collapsed. Widths above the cap are clamped.
func (m *Machine) Drag(sidebarWidth float64) {
	if sidebarWidth < CollapseThreshold {
		m.Collapse()
		return
	}
	if sidebarWidth > MaxSidebarWidth {
		sidebarWidth = MaxSidebarWidth
	}
	m.Mode = ModeExpanded
	m.SidebarWidth = sidebarWidth
	m.LastSidebarWidth = sidebarWidth
}

// Reset forces the initial layout regardless of prior state: EXPANDED at the
// default width, all panels emptied, all button active-states cleared, and
// the map recentered on the USA.
func (m *Machine) Reset() {
	m.Mode = ModeExpanded
	m.SidebarWidth = DefaultSidebarWidth
	m.LastSidebarWidth = DefaultSidebarWidth
	m.Panels = map[string]string{}
	m.ActiveButtons = map[string]bool{}
	m.MapCenter = USACenter
}

// SetPanel records content for a named sidebar panel.
func (m *Machine) SetPanel(name, content string) {
	if m.Panels == nil {
		m.Panels = map[string]string{}
	}
	m.Panels[name] = content
}

// SetButtonActive toggles the active-state of a named floating button.
func (m *Machine) SetButtonActive(name string, active bool) {
	if m.ActiveButtons == nil {
		m.ActiveButtons = map[string]bool{}
	}
	if active {
		m.ActiveButtons[name] = true
	} else {
		delete(m.ActiveButtons, name)
	}
}

// Recenter moves the map center, rejecting out-of-range coordinates.
func (m *Machine) Recenter(lat, lng float64) error {
	if !domain.ValidCoordinates(lat, lng) {
		return domain.Invalid("layout.Recenter", "Coordinates out of range")
	}
	m.MapCenter = Coordinate{Lat: lat, Lng: lng}
	return nil
}
