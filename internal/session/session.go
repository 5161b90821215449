// Package session holds the per-user design session: the uploaded photo, the
// current redesign, the chosen style, the chat transcript and the in-flight
// flags. Every change goes through a transition method that runs under the
// session mutex, so a completion arriving from a pipeline goroutine never
// interleaves with a user action.
package session

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/fpang/aura-design/internal/catalog"
	"github.com/fpang/aura-design/internal/compare"
	"github.com/fpang/aura-design/internal/imaging"
)

var (
	// ErrNoOriginal is returned when a style is chosen before any photo was uploaded.
	ErrNoOriginal = errors.New("no photo uploaded")
	// ErrBusy is returned when a request of the same kind is already in flight.
	ErrBusy = errors.New("request already in progress")
	// ErrStale is returned when a completion belongs to a reset generation.
	ErrStale = errors.New("stale completion")
	// ErrEmptyMessage is returned for a whitespace-only chat message.
	ErrEmptyMessage = errors.New("empty message")
	// ErrEmptyImage is returned when an upload carries no bytes.
	ErrEmptyImage = errors.New("empty image")
)

// GeneratingStatus is the processing indicator shown while a redesign runs.
// The verb receives the style's display name.
const GeneratingStatus = "Dreaming up your %s room..."

// Speaker identifies who wrote a transcript entry.
type Speaker string

const (
	User      Speaker = "user"
	Assistant Speaker = "assistant"
)

// Entry is one transcript message. Entries are never modified after append.
type Entry struct {
	Speaker             Speaker `json:"speaker"`
	Body                string  `json:"body"`
	ImpliesVisualChange bool    `json:"impliesVisualChange,omitempty"`
}

// Busy reports the in-flight requests.
type Busy struct {
	Generating bool `json:"generating"`
	Chatting   bool `json:"chatting"`
}

// Ticket is handed out when a pipeline request starts. It carries everything
// the background task needs, so the task never reads the session directly,
// and the generation that the completion is checked against.
type Ticket struct {
	Generation uint64
	// Style is set for generate tickets.
	Style catalog.Style
	// Source is the image the pipeline works on: the original for generate
	// tickets, the current design (possibly absent) for chat tickets.
	Source imaging.Image
	// Utterance is the user's message for chat tickets.
	Utterance string
	// History is the transcript before Utterance was appended.
	History []Entry
}

// HasGeneratedImage reports whether a chat ticket was issued while a
// redesign existed.
func (t Ticket) HasGeneratedImage() bool {
	return !t.Source.IsZero()
}

// Snapshot is a copy of the session for rendering. Nothing in it aliases
// session memory.
type Snapshot struct {
	ID          string
	Generation  uint64
	Original    imaging.Image
	Current     imaging.Image
	ActiveStyle *catalog.Style
	Transcript  []Entry
	Busy        Busy
	// Status is the processing indicator text while a redesign is running.
	Status   string
	Position float64
	Drag     compare.State
	Clip     compare.Clip
	Updated  time.Time
}

// HasOriginal reports whether a photo has been uploaded.
func (s Snapshot) HasOriginal() bool { return !s.Original.IsZero() }

// HasCurrent reports whether a redesign exists.
func (s Snapshot) HasCurrent() bool { return !s.Current.IsZero() }

// Session is the state of one design session. Use New or Store.Create.
type Session struct {
	id string

	mu          sync.Mutex
	original    imaging.Image
	current     imaging.Image
	activeStyle *catalog.Style
	transcript  []Entry
	busy        Busy
	generation  uint64
	surface     compare.Surface
	updated     time.Time
}

// New returns an empty session.
func New(id string) *Session {
	return &Session{
		id:      id,
		surface: compare.NewSurface(compare.Geometry{}),
		updated: time.Now(),
	}
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// Upload installs a new original photo. Everything derived from the previous
// photo is dropped and in-flight completions become stale.
func (s *Session) Upload(img imaging.Image) error {
	if img.IsZero() {
		return ErrEmptyImage
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.clearLocked()
	s.original = img.Clone()
	return nil
}

// Reset returns the session to its empty state ("change photo").
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clearLocked()
}

func (s *Session) clearLocked() {
	s.generation++
	s.original = imaging.Image{}
	s.current = imaging.Image{}
	s.activeStyle = nil
	s.transcript = nil
	s.busy = Busy{}
	s.surface = compare.NewSurface(s.surface.Geometry())
	s.updated = time.Now()
}

// BeginGenerate starts a redesign in the given style. Without a photo it is a
// no-op returning ErrNoOriginal; while another redesign runs it returns ErrBusy.
func (s *Session) BeginGenerate(style catalog.Style) (Ticket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.original.IsZero() {
		return Ticket{}, ErrNoOriginal
	}
	if s.busy.Generating {
		return Ticket{}, ErrBusy
	}
	s.busy.Generating = true
	st := style
	s.activeStyle = &st
	s.updated = time.Now()

	return Ticket{
		Generation: s.generation,
		Style:      style,
		Source:     s.original,
	}, nil
}

// CompleteGenerate finishes a redesign. When ok is false current is left as
// it was.
func (s *Session) CompleteGenerate(t Ticket, img imaging.Image, ok bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if t.Generation != s.generation || !s.busy.Generating {
		return ErrStale
	}
	s.busy.Generating = false
	if ok && !img.IsZero() {
		s.current = img
	}
	s.updated = time.Now()
	return nil
}

// BeginChat appends the user's message and marks a chat request in flight.
func (s *Session) BeginChat(text string) (Ticket, error) {
	if strings.TrimSpace(text) == "" {
		return Ticket{}, ErrEmptyMessage
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.busy.Chatting {
		return Ticket{}, ErrBusy
	}

	history := make([]Entry, len(s.transcript))
	copy(history, s.transcript)

	s.transcript = append(s.transcript, Entry{Speaker: User, Body: text})
	s.busy.Chatting = true
	s.updated = time.Now()

	return Ticket{
		Generation: s.generation,
		Source:     s.current,
		Utterance:  text,
		History:    history,
	}, nil
}

// Acknowledge appends an interim assistant message for a running chat request.
func (s *Session) Acknowledge(t Ticket, body string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkChatLocked(t); err != nil {
		return err
	}
	s.appendLocked(Entry{Speaker: Assistant, Body: body})
	return nil
}

// CompleteEdit finishes a visual edit. On success the new image and
// successBody are applied together; otherwise failureBody is appended and
// current is untouched.
func (s *Session) CompleteEdit(t Ticket, img imaging.Image, ok bool, successBody, failureBody string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkChatLocked(t); err != nil {
		return err
	}
	if ok && !img.IsZero() && !s.original.IsZero() {
		s.current = img
		s.appendLocked(Entry{Speaker: Assistant, Body: successBody, ImpliesVisualChange: true})
	} else {
		s.appendLocked(Entry{Speaker: Assistant, Body: failureBody})
	}
	s.busy.Chatting = false
	return nil
}

// CompleteReply finishes an informational chat request.
func (s *Session) CompleteReply(t Ticket, body string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkChatLocked(t); err != nil {
		return err
	}
	s.appendLocked(Entry{Speaker: Assistant, Body: body})
	s.busy.Chatting = false
	return nil
}

func (s *Session) checkChatLocked(t Ticket) error {
	if t.Generation != s.generation || !s.busy.Chatting {
		return ErrStale
	}
	return nil
}

func (s *Session) appendLocked(e Entry) {
	s.transcript = append(s.transcript, e)
	s.updated = time.Now()
}

// Pointer feeds a pointer event to the comparison surface and returns the
// resulting reveal position.
func (s *Session) Pointer(ev compare.PointerEvent) float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.surface.Apply(ev)
	return s.surface.Position()
}

// Resize updates the comparison container box.
func (s *Session) Resize(g compare.Geometry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.surface.Resize(g)
}

// Geometry returns the comparison container box.
func (s *Session) Geometry() compare.Geometry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.surface.Geometry()
}

// Busy returns the in-flight flags.
func (s *Session) Busy() Busy {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.busy
}

// Snapshot returns a deep copy of the session.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{
		ID:         s.id,
		Generation: s.generation,
		Original:   s.original.Clone(),
		Current:    s.current.Clone(),
		Busy:       s.busy,
		Position:   s.surface.Position(),
		Drag:       s.surface.State(),
		Clip:       s.surface.Layout(),
		Updated:    s.updated,
	}
	if s.activeStyle != nil {
		st := *s.activeStyle
		snap.ActiveStyle = &st
	}
	if len(s.transcript) > 0 {
		snap.Transcript = make([]Entry, len(s.transcript))
		copy(snap.Transcript, s.transcript)
	}
	if s.busy.Generating && s.activeStyle != nil {
		snap.Status = fmt.Sprintf(GeneratingStatus, s.activeStyle.DisplayName)
	}
	return snap
}
