package layout

// Floating button positioning.
//
// The floating button cluster sits just left of the resizer handle. Its
// horizontal offset (a right-anchored percentage of the viewport) is a pure
// function of the resizer's current offset, clamped so the buttons never
// leave the visible area.

const (
	// buttonEdgeMargin keeps the buttons off the far left edge.
	buttonEdgeMargin = 2.0

	// buttonMaxRight is the right-offset cap, in viewport percent.
	buttonMaxRight = 95.0
)

// FloatingButtonOffset computes the right-anchored offset percentage for the
// floating button cluster given the resizer's right offset (percent) and the
// sidebar's left edge (percent from the right side of the viewport).
//
// The result tracks the resizer but is clamped to [leftEdge+2, 95] so the
// worst failure mode is a visually misplaced button, never an invisible one.
func FloatingButtonOffset(resizerRight, sidebarLeftEdge float64) float64 {
	offset := resizerRight

	min := sidebarLeftEdge + buttonEdgeMargin
	if offset < min {
		offset = min
	}
	if offset > buttonMaxRight {
		offset = buttonMaxRight
	}
	return offset
}

// FloatingButtonOffsetFor computes the button offset for the current machine
// state: the resizer sits at the sidebar boundary, so the offset follows the
// sidebar width directly.
func FloatingButtonOffsetFor(m *Machine) float64 {
	return FloatingButtonOffset(m.SidebarWidth, 0)
}
