// Package imaging holds the encoded image handle shared by the session, the
// Gemini pipeline and the HTTP layer, plus the upload intake that turns user
// uploads into that handle.
package imaging

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidDataURI is returned when a data URI cannot be parsed.
var ErrInvalidDataURI = errors.New("invalid data URI")

// Image is an opaque encoded bitmap (JPEG, PNG, WebP...). It is never decoded
// by the session layer; only the comparison renderer and the intake look
// inside it.
type Image struct {
	Data     []byte
	MIMEType string
}

// IsZero reports whether the image carries no data.
func (img Image) IsZero() bool {
	return len(img.Data) == 0
}

// Clone returns a copy that does not share the backing byte slice.
func (img Image) Clone() Image {
	if img.IsZero() {
		return Image{}
	}
	data := make([]byte, len(img.Data))
	copy(data, img.Data)
	return Image{Data: data, MIMEType: img.MIMEType}
}

// DataURI encodes the image as a base64 data URI.
func (img Image) DataURI() string {
	return "data:" + img.MIMEType + ";base64," + base64.StdEncoding.EncodeToString(img.Data)
}

// ParseDataURI decodes a "data:<mime>;base64,<payload>" string.
func ParseDataURI(uri string) (Image, error) {
	rest, ok := strings.CutPrefix(uri, "data:")
	if !ok {
		return Image{}, ErrInvalidDataURI
	}
	header, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return Image{}, ErrInvalidDataURI
	}
	mime, ok := strings.CutSuffix(header, ";base64")
	if !ok {
		return Image{}, fmt.Errorf("%w: only base64 payloads are supported", ErrInvalidDataURI)
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return Image{}, fmt.Errorf("%w: %v", ErrInvalidDataURI, err)
	}
	return Image{Data: data, MIMEType: mime}, nil
}
