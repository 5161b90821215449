package studio

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/fpang/aura-design/internal/catalog"
	"github.com/fpang/aura-design/internal/imaging"
)

// DefaultBatchInterval spaces batch requests to the image model.
const DefaultBatchInterval = 2 * time.Second

// Rendering is the outcome of one style in a batch. OK is false when the
// pipeline produced no image.
type Rendering struct {
	Style    catalog.Style
	Image    imaging.Image
	OK       bool
	Duration time.Duration
}

// RenderStyles redesigns original in every given style concurrently. Requests
// start at most once per interval, two at a time at first. Results keep the
// order of styles. A per-style failure is reported in its Rendering; the
// returned error is only set when ctx ends early.
func RenderStyles(ctx context.Context, gen Generator, original imaging.Image, styles []catalog.Style, interval time.Duration) ([]Rendering, error) {
	if original.IsZero() {
		return nil, ErrNothingToCompare
	}
	if interval <= 0 {
		interval = DefaultBatchInterval
	}

	results := make([]Rendering, len(styles))
	eg, egCtx := errgroup.WithContext(ctx)
	limiter := rate.NewLimiter(rate.Every(interval), 2)
	log.Info().Int("count", len(styles)).Dur("interval", interval).Msg("Starting batch redesign")

	for i, style := range styles {
		eg.Go(func() error {
			if err := limiter.Wait(egCtx); err != nil {
				return err
			}
			start := time.Now()
			img, ok := gen.GenerateFromStyle(egCtx, original, style.InstructionText)
			results[i] = Rendering{Style: style, Image: img, OK: ok, Duration: time.Since(start)}
			log.Info().
				Str("style", style.ID).
				Bool("generated", ok).
				Dur("duration", results[i].Duration).
				Msg("Batch redesign finished")
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
