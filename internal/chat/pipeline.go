package chat

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/fpang/aura-design/internal/assets"
	"github.com/fpang/aura-design/internal/imaging"
	"github.com/fpang/aura-design/internal/metrics"
)

// ImageEditor produces a new image from an input image and a directive.
// ImageClient is the production implementation.
type ImageEditor interface {
	EditImage(ctx context.Context, img imaging.Image, directive string) (*ImageResult, error)
}

// Pipeline turns image model calls into the two operations the studio needs.
// Failures are logged and reported as absence; the caller never sees an error.
type Pipeline struct {
	editor ImageEditor
}

// NewPipeline wraps an ImageEditor.
func NewPipeline(editor ImageEditor) *Pipeline {
	return &Pipeline{editor: editor}
}

// GenerateFromStyle restyles the original photo. ok is false when the model
// call failed or returned no image.
func (p *Pipeline) GenerateFromStyle(ctx context.Context, original imaging.Image, styleInstruction string) (imaging.Image, bool) {
	return p.run(ctx, "generate_from_style", original, assets.RenderReimaginePrompt(styleInstruction))
}

// ApplyEdit applies a free-text change to the current design.
func (p *Pipeline) ApplyEdit(ctx context.Context, current imaging.Image, instruction string) (imaging.Image, bool) {
	return p.run(ctx, "apply_edit", current, assets.RenderEditPrompt(instruction))
}

func (p *Pipeline) run(ctx context.Context, operation string, img imaging.Image, prompt string) (imaging.Image, bool) {
	start := time.Now()
	res, err := p.editor.EditImage(ctx, img, prompt)
	metrics.ModelCall(operation, p.model(), err, start)
	if err != nil {
		log.Error().Err(err).
			Str("operation", operation).
			Str("model", p.model()).
			Dur("duration", time.Since(start)).
			Msg("Image pipeline call failed")
		return imaging.Image{}, false
	}
	return res.Image, true
}

// model names the image model for metrics when the editor exposes it.
func (p *Pipeline) model() string {
	if m, ok := p.editor.(interface{ Model() string }); ok {
		return m.Model()
	}
	return "unknown"
}
