package studio

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fpang/aura-design/internal/catalog"
	"github.com/fpang/aura-design/internal/imaging"
	"github.com/fpang/aura-design/internal/imaging/imagingtest"
)

// promptGenerator echoes the instruction as the image and fails for the
// industrial style.
type promptGenerator struct {
	mu    sync.Mutex
	calls int
}

func (g *promptGenerator) GenerateFromStyle(_ context.Context, _ imaging.Image, instruction string) (imaging.Image, bool) {
	g.mu.Lock()
	g.calls++
	g.mu.Unlock()
	if strings.Contains(instruction, "industrial style") {
		return imaging.Image{}, false
	}
	return imagingtest.Tagged(instruction), true
}

func TestRenderStyles(t *testing.T) {
	styles := catalog.Default().Styles()
	gen := &promptGenerator{}

	results, err := RenderStyles(context.Background(), gen, imagingtest.Tagged("A"), styles, time.Millisecond)
	require.NoError(t, err)
	require.Len(t, results, len(styles))
	assert.Equal(t, len(styles), gen.calls)

	for i, r := range results {
		assert.Equal(t, styles[i].ID, r.Style.ID, "results keep catalog order")
		if r.Style.ID == "industrial" {
			assert.False(t, r.OK)
			assert.True(t, r.Image.IsZero())
			continue
		}
		assert.True(t, r.OK, r.Style.ID)
		assert.Equal(t, styles[i].InstructionText, string(r.Image.Data))
	}
}

func TestRenderStyles_NoPhoto(t *testing.T) {
	_, err := RenderStyles(context.Background(), &promptGenerator{}, imaging.Image{}, catalog.Default().Styles(), 0)
	assert.ErrorIs(t, err, ErrNothingToCompare)
}

func TestRenderStyles_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := RenderStyles(ctx, &promptGenerator{}, imagingtest.Tagged("A"), catalog.Default().Styles(), time.Hour)
	assert.ErrorIs(t, err, context.Canceled)
}
