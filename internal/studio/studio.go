// Package studio wires user actions to session transitions and runs the
// pipeline calls they trigger on background goroutines. Each background task
// finishes with a generation-guarded transition, so results for a photo that
// has since been replaced are dropped.
package studio

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/fpang/aura-design/internal/catalog"
	"github.com/fpang/aura-design/internal/compare"
	"github.com/fpang/aura-design/internal/imaging"
	"github.com/fpang/aura-design/internal/router"
	"github.com/fpang/aura-design/internal/session"
)

// DefaultTaskTimeout bounds one background pipeline call.
const DefaultTaskTimeout = 3 * time.Minute

// DefaultCompareWidth is used when neither the caller nor the surface
// geometry gives a width.
const DefaultCompareWidth = 1024

var (
	// ErrSessionNotFound is returned for unknown or evicted session IDs.
	ErrSessionNotFound = errors.New("session not found")
	// ErrNothingToCompare is returned when no redesign exists yet.
	ErrNothingToCompare = errors.New("no redesign to compare")
)

// Generator produces a redesign of the original photo.
type Generator interface {
	GenerateFromStyle(ctx context.Context, original imaging.Image, styleInstruction string) (imaging.Image, bool)
}

// Dispatcher completes a chat request.
type Dispatcher interface {
	Dispatch(ctx context.Context, sess *session.Session, t session.Ticket) router.Intent
}

// Studio is the application core shared by the HTTP API and the CLI.
type Studio struct {
	store     *session.Store
	catalog   *catalog.Catalog
	generator Generator
	router    Dispatcher

	baseCtx     context.Context
	taskTimeout time.Duration
	wg          sync.WaitGroup
}

// Option customizes a Studio.
type Option func(*Studio)

// WithTaskTimeout sets the deadline of each background pipeline call.
func WithTaskTimeout(d time.Duration) Option {
	return func(s *Studio) {
		if d > 0 {
			s.taskTimeout = d
		}
	}
}

// WithBaseContext sets the parent context of background tasks.
func WithBaseContext(ctx context.Context) Option {
	return func(s *Studio) {
		s.baseCtx = ctx
	}
}

// New creates a studio.
func New(store *session.Store, cat *catalog.Catalog, generator Generator, rt Dispatcher, opts ...Option) *Studio {
	s := &Studio{
		store:       store,
		catalog:     cat,
		generator:   generator,
		router:      rt,
		baseCtx:     context.Background(),
		taskTimeout: DefaultTaskTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Catalog returns the style catalog.
func (s *Studio) Catalog() *catalog.Catalog { return s.catalog }

// SessionCount returns the number of live sessions.
func (s *Studio) SessionCount() int { return s.store.Len() }

// CreateSession starts an empty session.
func (s *Studio) CreateSession() *session.Session {
	return s.store.Create()
}

// Session looks up a live session.
func (s *Studio) Session(id string) (*session.Session, error) {
	sess, ok := s.store.Get(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	return sess, nil
}

// EndSession drops a session. Background tasks still running for it finish
// against the detached session and are never observed.
func (s *Studio) EndSession(id string) error {
	if _, err := s.Session(id); err != nil {
		return err
	}
	s.store.Delete(id)
	log.Info().Str("sessionId", id).Msg("Session ended")
	return nil
}

// Upload installs a new photo and resets everything derived from the old one.
func (s *Studio) Upload(id string, img imaging.Image) error {
	sess, err := s.Session(id)
	if err != nil {
		return err
	}
	if err := sess.Upload(img); err != nil {
		return err
	}
	log.Info().
		Str("sessionId", id).
		Int("bytes", len(img.Data)).
		Str("mime", img.MIMEType).
		Msg("Photo uploaded")
	return nil
}

// ChangePhoto clears the session back to the upload prompt.
func (s *Studio) ChangePhoto(id string) error {
	sess, err := s.Session(id)
	if err != nil {
		return err
	}
	sess.Reset()
	log.Info().Str("sessionId", id).Msg("Session reset")
	return nil
}

// SelectStyle starts a redesign in the background. It returns once the
// request is accepted; the result lands in the session.
func (s *Studio) SelectStyle(id, styleID string) (catalog.Style, error) {
	sess, err := s.Session(id)
	if err != nil {
		return catalog.Style{}, err
	}
	style, err := s.catalog.Lookup(styleID)
	if err != nil {
		return catalog.Style{}, err
	}
	t, err := sess.BeginGenerate(style)
	if err != nil {
		return catalog.Style{}, err
	}

	log.Info().
		Str("sessionId", id).
		Str("style", style.ID).
		Uint64("generation", t.Generation).
		Msg("Redesign started")

	s.spawn(func(ctx context.Context) {
		start := time.Now()
		img, ok := s.generator.GenerateFromStyle(ctx, t.Source, style.InstructionText)
		err := sess.CompleteGenerate(t, img, ok)
		switch {
		case errors.Is(err, session.ErrStale):
			log.Debug().Str("sessionId", id).Msg("Discarding stale redesign")
		case err != nil:
			log.Error().Err(err).Str("sessionId", id).Msg("Redesign completion rejected")
		default:
			log.Info().
				Str("sessionId", id).
				Str("style", style.ID).
				Bool("generated", ok).
				Dur("duration", time.Since(start)).
				Msg("Redesign finished")
		}
	})
	return style, nil
}

// SendMessage appends the user's message and routes it in the background.
func (s *Studio) SendMessage(id, text string) error {
	sess, err := s.Session(id)
	if err != nil {
		return err
	}
	t, err := sess.BeginChat(text)
	if err != nil {
		return err
	}
	s.spawn(func(ctx context.Context) {
		s.router.Dispatch(ctx, sess, t)
	})
	return nil
}

// Pointer applies a pointer event and returns the reveal position. A
// non-nil geometry is applied first.
func (s *Studio) Pointer(id string, ev compare.PointerEvent, g *compare.Geometry) (float64, error) {
	sess, err := s.Session(id)
	if err != nil {
		return 0, err
	}
	if g != nil {
		sess.Resize(*g)
	}
	return sess.Pointer(ev), nil
}

// Compare renders the before/after preview at the session's reveal
// position: the original on the revealed side, the redesign behind it. A
// zero width falls back to the surface width, a zero height keeps the
// redesign's aspect ratio.
func (s *Studio) Compare(id string, width, height int) (imaging.Image, error) {
	sess, err := s.Session(id)
	if err != nil {
		return imaging.Image{}, err
	}
	snap := sess.Snapshot()
	if !snap.HasOriginal() || !snap.HasCurrent() {
		return imaging.Image{}, ErrNothingToCompare
	}
	if width <= 0 {
		width = int(snap.Clip.InnerWidthPx)
	}
	if width <= 0 {
		width = DefaultCompareWidth
	}
	return compare.Composite(snap.Original, snap.Current, width, height, snap.Position)
}

// Wait blocks until every background task has finished.
func (s *Studio) Wait() {
	s.wg.Wait()
}

func (s *Studio) spawn(task func(ctx context.Context)) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ctx, cancel := context.WithTimeout(s.baseCtx, s.taskTimeout)
		defer cancel()
		task(ctx)
	}()
}
