package compare

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownEvent is returned by ParseEventType for unrecognised event names.
var ErrUnknownEvent = errors.New("unknown pointer event")

// EventType is a pointer or touch event kind. Mouse and touch events map to
// the same transitions.
type EventType int

const (
	EventPress EventType = iota
	EventMove
	EventRelease
	EventLeave
)

func (t EventType) String() string {
	switch t {
	case EventPress:
		return "press"
	case EventMove:
		return "move"
	case EventRelease:
		return "release"
	case EventLeave:
		return "leave"
	default:
		return fmt.Sprintf("EventType(%d)", int(t))
	}
}

// ParseEventType accepts both the generic names and the DOM event names the
// browser reports (mousedown, touchmove, ...).
func ParseEventType(s string) (EventType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "press", "mousedown", "touchstart", "pointerdown":
		return EventPress, nil
	case "move", "mousemove", "touchmove", "pointermove":
		return EventMove, nil
	case "release", "mouseup", "touchend", "touchcancel", "pointerup":
		return EventRelease, nil
	case "leave", "mouseleave", "pointerleave":
		return EventLeave, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownEvent, s)
	}
}

// PointerEvent is one event from the pointer stream. HasX is false for events
// that carry no coordinate (a release reported without position).
type PointerEvent struct {
	Type EventType
	X    float64
	HasX bool
}

// Apply feeds one event through the state machine. Only moves carry a
// coordinate that matters; a press never jumps the handle.
func (s *Surface) Apply(ev PointerEvent) {
	switch ev.Type {
	case EventPress:
		s.Press()
	case EventMove:
		if ev.HasX {
			s.Move(ev.X)
		}
	case EventRelease:
		s.Release()
	case EventLeave:
		s.Leave()
	}
}
