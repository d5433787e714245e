package layout

import (
	"testing"
)

func TestWidthsSumToHundred(t *testing.T) {
	m := New()

	widths := []float64{25, 30, 50, 75, 89.5, 16, 15}
	for _, w := range widths {
		m.Drag(w)
		if got := m.MapWidth() + m.SidebarWidth; got != 100 {
			t.Errorf("after Drag(%v): map+sidebar = %v, want 100", w, got)
		}
	}

	m.Collapse()
	if got := m.MapWidth() + m.SidebarWidth; got != 100 {
		t.Errorf("after Collapse: map+sidebar = %v, want 100", got)
	}

	m.ExpandWide()
	if got := m.MapWidth() + m.SidebarWidth; got != 100 {
		t.Errorf("after ExpandWide: map+sidebar = %v, want 100", got)
	}
}

func TestDragBelowThresholdCollapses(t *testing.T) {
	m := New()

	m.Drag(14.9)
	if m.Mode != ModeCollapsed {
		t.Fatalf("mode = %v, want collapsed", m.Mode)
	}
	if m.SidebarWidth != 0 {
		t.Errorf("sidebar width = %v, want 0", m.SidebarWidth)
	}

	// Repeated drags below the threshold stay collapsed (idempotent).
	m.Drag(5)
	m.Drag(0)
	if m.Mode != ModeCollapsed || m.SidebarWidth != 0 {
		t.Errorf("after repeated drags: mode=%v width=%v, want collapsed/0", m.Mode, m.SidebarWidth)
	}
}

func TestDragAtThresholdStaysExpanded(t *testing.T) {
	m := New()
	m.Drag(15)
	if m.Mode != ModeExpanded {
		t.Errorf("mode = %v, want expanded at exactly the threshold", m.Mode)
	}
	if m.SidebarWidth != 15 {
		t.Errorf("sidebar width = %v, want 15", m.SidebarWidth)
	}
}

func TestCollapseRemembersWidth(t *testing.T) {
	m := New()
	m.Drag(40)
	m.Collapse()

	if m.SidebarWidth != 0 {
		t.Fatalf("collapsed width = %v, want 0", m.SidebarWidth)
	}

	m.Expand()
	if m.Mode != ModeExpanded {
		t.Fatalf("mode = %v, want expanded", m.Mode)
	}
	if m.SidebarWidth != 40 {
		t.Errorf("restored width = %v, want 40", m.SidebarWidth)
	}
}

func TestExpandWithoutHistoryUsesDefault(t *testing.T) {
	m := New()
	m.LastSidebarWidth = 0 // simulate a stale persisted row
	m.Collapse()
	m.Expand()

	if m.SidebarWidth != DefaultSidebarWidth {
		t.Errorf("width = %v, want default %v", m.SidebarWidth, DefaultSidebarWidth)
	}
}

func TestExpandWideFromAnyState(t *testing.T) {
	cases := []struct {
		name string
		prep func(*Machine)
	}{
		{"from expanded", func(m *Machine) {}},
		{"from collapsed", func(m *Machine) { m.Collapse() }},
		{"from wide", func(m *Machine) { m.ExpandWide() }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			m := New()
			tc.prep(m)
			m.ExpandWide()
			if m.Mode != ModeWide {
				t.Errorf("mode = %v, want wide", m.Mode)
			}
			if m.SidebarWidth != WideSidebarWidth {
				t.Errorf("width = %v, want %v", m.SidebarWidth, WideSidebarWidth)
			}
		})
	}
}

func TestWideRestoresPreviousWidth(t *testing.T) {
	m := New()
	m.Drag(35)
	m.ExpandWide()
	m.Collapse()
	m.Expand()

	if m.SidebarWidth != 35 {
		t.Errorf("width = %v, want 35 (pre-wide width)", m.SidebarWidth)
	}
}

func TestCollapseFromWideKeepsPreWideWidth(t *testing.T) {
	m := New()
	m.Drag(42)
	m.Collapse()
	m.ExpandWide()
	m.Collapse()

	if m.LastSidebarWidth != 42 {
		t.Errorf("remembered width = %v, want 42 (wide width must not be recorded)", m.LastSidebarWidth)
	}

	m.Expand()
	if m.SidebarWidth != 42 {
		t.Errorf("width = %v, want 42", m.SidebarWidth)
	}
}

func TestResetFromAnyState(t *testing.T) {
	states := []func(*Machine){
		func(m *Machine) {},
		func(m *Machine) { m.Collapse() },
		func(m *Machine) { m.ExpandWide() },
		func(m *Machine) { m.Drag(60) },
	}

	for i, prep := range states {
		m := New()
		prep(m)
		m.SetPanel("details", "<ul>...</ul>")
		m.SetButtonActive("save", true)
		if err := m.Recenter(43.05, -76.15); err != nil {
			t.Fatalf("recenter: %v", err)
		}

		m.Reset()

		if m.Mode != ModeExpanded {
			t.Errorf("case %d: mode = %v, want expanded", i, m.Mode)
		}
		if m.SidebarWidth != 25 {
			t.Errorf("case %d: sidebar = %v, want 25", i, m.SidebarWidth)
		}
		if m.MapWidth() != 75 {
			t.Errorf("case %d: map = %v, want 75", i, m.MapWidth())
		}
		if len(m.Panels) != 0 {
			t.Errorf("case %d: panels not cleared: %v", i, m.Panels)
		}
		if len(m.ActiveButtons) != 0 {
			t.Errorf("case %d: buttons not cleared: %v", i, m.ActiveButtons)
		}
		if m.MapCenter != USACenter {
			t.Errorf("case %d: center = %v, want USA center", i, m.MapCenter)
		}
	}
}

func TestRecenterRejectsOutOfRange(t *testing.T) {
	m := New()
	if err := m.Recenter(91, 0); err == nil {
		t.Error("expected error for lat=91")
	}
	if err := m.Recenter(0, -181); err == nil {
		t.Error("expected error for lng=-181")
	}
	if m.MapCenter != USACenter {
		t.Errorf("center moved on invalid input: %v", m.MapCenter)
	}
}

func TestFloatingButtonOffsetClamped(t *testing.T) {
	cases := []struct {
		resizerRight, leftEdge, want float64
	}{
		{25, 0, 25},   // tracks the resizer
		{1, 0, 2},     // clamped to left edge + margin
		{98, 0, 95},   // clamped to the right cap
		{10, 20, 22},  // left edge pushes the minimum up
		{95, 0, 95},   // exactly at the cap
	}
	for _, tc := range cases {
		if got := FloatingButtonOffset(tc.resizerRight, tc.leftEdge); got != tc.want {
			t.Errorf("FloatingButtonOffset(%v, %v) = %v, want %v", tc.resizerRight, tc.leftEdge, got, tc.want)
		}
	}
}
