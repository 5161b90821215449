// Package imagingtest builds small in-memory images for tests.
package imagingtest

import (
	"bytes"
	"encoding/binary"
	"hash/crc32"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/fpang/aura-design/internal/imaging"
)

// PNG encodes a solid w×h PNG of the given colour.
func PNG(t testing.TB, w, h int, c color.Color) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

// PNGHeader returns a PNG that declares w×h RGBA pixels but carries no image
// data. It is enough for image.DecodeConfig and costs a few dozen bytes
// however large the declared dimensions are.
func PNGHeader(w, h int) []byte {
	var buf bytes.Buffer
	buf.WriteString("\x89PNG\r\n\x1a\n")

	ihdr := make([]byte, 13)
	binary.BigEndian.PutUint32(ihdr[0:4], uint32(w))
	binary.BigEndian.PutUint32(ihdr[4:8], uint32(h))
	ihdr[8] = 8 // bit depth
	ihdr[9] = 6 // truecolour with alpha
	writeChunk(&buf, "IHDR", ihdr)
	writeChunk(&buf, "IEND", nil)
	return buf.Bytes()
}

func writeChunk(buf *bytes.Buffer, typ string, data []byte) {
	var n [4]byte
	binary.BigEndian.PutUint32(n[:], uint32(len(data)))
	buf.Write(n[:])
	crc := crc32.NewIEEE()
	crc.Write([]byte(typ))
	crc.Write(data)
	buf.WriteString(typ)
	buf.Write(data)
	binary.BigEndian.PutUint32(n[:], crc.Sum32())
	buf.Write(n[:])
}

// Image wraps PNG as an imaging.Image.
func Image(t testing.TB, c color.Color) imaging.Image {
	t.Helper()
	return imaging.Image{Data: PNG(t, 8, 6, c), MIMEType: "image/png"}
}

// Tagged returns a tiny distinguishable image without encoding anything. The
// session layer never decodes images, so a tag is enough to tell them apart.
func Tagged(tag string) imaging.Image {
	return imaging.Image{Data: []byte(tag), MIMEType: "image/png"}
}
