package compare

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"

	"golang.org/x/image/draw"

	"github.com/fpang/aura-design/internal/imaging"
)

// MaxRenderWidth bounds composite previews.
const MaxRenderWidth = 4096

// ErrBadSize is returned for non-positive or oversized render dimensions.
var ErrBadSize = errors.New("invalid render size")

var dividerColor = color.RGBA{255, 255, 255, 255}

// Render draws background across the whole width×height canvas and the
// foreground over the revealed rectangle [0, p%) of it. Both images are
// scaled once to the full canvas, so moving p only changes the crop.
func Render(foreground, background image.Image, width, height int, p float64) (*image.RGBA, error) {
	if width <= 0 || height <= 0 || width > MaxRenderWidth || height > MaxRenderWidth {
		return nil, fmt.Errorf("%w: %dx%d", ErrBadSize, width, height)
	}
	canvas := image.Rect(0, 0, width, height)

	dst := image.NewRGBA(canvas)
	draw.ApproxBiLinear.Scale(dst, canvas, background, background.Bounds(), draw.Src, nil)

	front := image.NewRGBA(canvas)
	draw.ApproxBiLinear.Scale(front, canvas, foreground, foreground.Bounds(), draw.Src, nil)

	clip := ClipAt(p, float64(width))
	reveal := image.Rect(0, 0, int(clip.OuterWidthPx+0.5), height)
	draw.Draw(dst, reveal, front, image.Point{}, draw.Src)

	// 2px handle line at the boundary, kept inside the canvas.
	x := reveal.Max.X
	line := image.Rect(x-1, 0, x+1, height).Intersect(canvas)
	draw.Draw(dst, line, image.NewUniform(dividerColor), image.Point{}, draw.Src)

	return dst, nil
}

// Composite decodes both encoded images, renders them at reveal position p
// and returns a PNG. A zero height keeps the background's aspect ratio.
func Composite(foreground, background imaging.Image, width, height int, p float64) (imaging.Image, error) {
	fg, err := decode(foreground)
	if err != nil {
		return imaging.Image{}, fmt.Errorf("decode foreground: %w", err)
	}
	bg, err := decode(background)
	if err != nil {
		return imaging.Image{}, fmt.Errorf("decode background: %w", err)
	}

	if height <= 0 {
		b := bg.Bounds()
		if b.Dx() == 0 {
			return imaging.Image{}, fmt.Errorf("%w: empty background", ErrBadSize)
		}
		height = width * b.Dy() / b.Dx()
	}

	out, err := Render(fg, bg, width, height, p)
	if err != nil {
		return imaging.Image{}, err
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, out); err != nil {
		return imaging.Image{}, fmt.Errorf("encode composite: %w", err)
	}
	return imaging.Image{Data: buf.Bytes(), MIMEType: "image/png"}, nil
}

// decode checks the declared dimensions before allocating any pixels.
func decode(img imaging.Image) (image.Image, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(img.Data))
	if err != nil {
		return nil, err
	}
	if err := imaging.CheckPixels(cfg); err != nil {
		return nil, err
	}
	m, _, err := image.Decode(bytes.NewReader(img.Data))
	return m, err
}
