// Package compare implements the before/after comparison surface: a single
// reveal position driven by pointer events, and the clip rectangle that
// shows the foreground image up to that position.
package compare

import "fmt"

// DefaultPosition is the reveal position of a fresh surface (half/half).
const DefaultPosition = 50.0

// State is the drag state of the surface.
type State int

const (
	Idle State = iota
	Dragging
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Dragging:
		return "dragging"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Geometry is the container box in page coordinates.
type Geometry struct {
	Left  float64 `json:"left"`
	Width float64 `json:"width"`
}

// Clip describes how to draw the foreground: an outer overflow-hidden box of
// OuterWidthPercent (or OuterWidthPx) and an inner image that is always
// InnerWidthPx wide, so only the crop changes as the handle moves.
type Clip struct {
	OuterWidthPercent float64 `json:"outerWidthPercent"`
	OuterWidthPx      float64 `json:"outerWidthPx"`
	InnerWidthPx      float64 `json:"innerWidthPx"`
}

// Surface is the interaction state for one comparison view. The zero value is
// not ready for use; call NewSurface.
type Surface struct {
	geometry Geometry
	position float64
	state    State
}

// NewSurface returns an idle surface at DefaultPosition.
func NewSurface(g Geometry) Surface {
	return Surface{geometry: g, position: DefaultPosition}
}

// Position returns the reveal position in [0,100].
func (s *Surface) Position() float64 { return s.position }

// State returns the current drag state.
func (s *Surface) State() State { return s.state }

// Geometry returns the container box.
func (s *Surface) Geometry() Geometry { return s.geometry }

// Press starts a drag. Pressing while already dragging changes nothing.
func (s *Surface) Press() {
	s.state = Dragging
}

// Move updates the position from an absolute pointer X. Moves outside a drag
// are ignored, as are moves on a container with no width yet.
func (s *Surface) Move(pointerX float64) {
	if s.state != Dragging {
		return
	}
	if p, ok := PositionAt(pointerX, s.geometry); ok {
		s.position = p
	}
}

// Release ends a drag. The position stays where the drag left it.
func (s *Surface) Release() {
	s.state = Idle
}

// Leave is a release caused by the pointer leaving the tracked surface.
func (s *Surface) Leave() {
	s.Release()
}

// Resize records a new container box without moving the handle.
func (s *Surface) Resize(g Geometry) {
	s.geometry = g
}

// Layout returns the clip rectangle for the current position.
func (s *Surface) Layout() Clip {
	return ClipAt(s.position, s.geometry.Width)
}

// PositionAt converts a pointer X into a reveal position for the container.
// It returns false when the container has no width.
func PositionAt(pointerX float64, g Geometry) (float64, bool) {
	if g.Width <= 0 {
		return 0, false
	}
	offset := clamp(pointerX-g.Left, 0, g.Width)
	return offset / g.Width * 100, true
}

// ClipAt computes the clip rectangle for position p inside a container of
// width px. The inner width never depends on p.
func ClipAt(p, width float64) Clip {
	p = clamp(p, 0, 100)
	if width < 0 {
		width = 0
	}
	return Clip{
		OuterWidthPercent: p,
		OuterWidthPx:      width * p / 100,
		InnerWidthPx:      width,
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
