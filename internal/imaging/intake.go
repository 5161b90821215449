package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"  // register GIF decoder for image.DecodeConfig
	_ "image/jpeg" // register JPEG decoder for image.DecodeConfig
	_ "image/png"  // register PNG decoder for image.DecodeConfig
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/evanoberholster/imagemeta"
	"github.com/rs/zerolog/log"
	_ "golang.org/x/image/webp" // register WebP decoder for image.DecodeConfig
)

// MaxUploadSize caps a single room photo.
const MaxUploadSize int64 = 20 * 1024 * 1024

// MaxPixels caps the decoded size of a photo. Compressed formats can declare
// far more pixels than their byte size suggests.
const MaxPixels = 50_000_000

var (
	// ErrTooLarge is returned when an upload exceeds MaxUploadSize or MaxPixels.
	ErrTooLarge = errors.New("image exceeds maximum upload size")
	// ErrUnsupportedType is returned when the upload is not a supported image.
	ErrUnsupportedType = errors.New("unsupported image type")
	// ErrEmpty is returned for zero-byte uploads.
	ErrEmpty = errors.New("empty upload")
)

// allowedTypes are the sniffed content types accepted as room photos. These
// are also the inline types the Gemini image model accepts.
var allowedTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
}

// Info describes an accepted upload. Camera fields come from EXIF and are
// empty for images that carry none (screenshots, PNG exports).
type Info struct {
	Width       int
	Height      int
	Format      string
	Bytes       int
	CameraMake  string
	CameraModel string
	DateTaken   time.Time
}

// Intake reads a single uploaded photo, validates it and returns the encoded
// handle. The bytes are kept exactly as uploaded.
func Intake(r io.Reader) (Image, Info, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxUploadSize+1))
	if err != nil {
		return Image{}, Info{}, fmt.Errorf("failed to read upload: %w", err)
	}
	return IntakeBytes(data)
}

// IntakeBytes validates an in-memory upload (data URI payloads, S3 objects).
func IntakeBytes(data []byte) (Image, Info, error) {
	if len(data) == 0 {
		return Image{}, Info{}, ErrEmpty
	}
	if int64(len(data)) > MaxUploadSize {
		return Image{}, Info{}, ErrTooLarge
	}

	mimeType := http.DetectContentType(data)
	if i := strings.IndexByte(mimeType, ';'); i >= 0 {
		mimeType = mimeType[:i]
	}
	if !allowedTypes[mimeType] {
		return Image{}, Info{}, fmt.Errorf("%w: %s", ErrUnsupportedType, mimeType)
	}

	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return Image{}, Info{}, fmt.Errorf("%w: %v", ErrUnsupportedType, err)
	}
	if err := CheckPixels(cfg); err != nil {
		return Image{}, Info{}, err
	}

	info := Info{
		Width:  cfg.Width,
		Height: cfg.Height,
		Format: format,
		Bytes:  len(data),
	}
	readExif(data, &info)

	log.Debug().
		Str("mime", mimeType).
		Int("width", info.Width).
		Int("height", info.Height).
		Int("bytes", info.Bytes).
		Str("camera_make", info.CameraMake).
		Str("camera_model", info.CameraModel).
		Msg("Photo accepted")

	return Image{Data: data, MIMEType: mimeType}, info, nil
}

// CheckPixels rejects configs whose decoded pixel count exceeds MaxPixels.
func CheckPixels(cfg image.Config) error {
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil
	}
	if int64(cfg.Width)*int64(cfg.Height) > MaxPixels {
		return fmt.Errorf("%w: %dx%d pixels", ErrTooLarge, cfg.Width, cfg.Height)
	}
	return nil
}

// readExif fills camera fields from EXIF. Missing or unparsable EXIF is
// normal for room photos exported from editors, so failures only log.
func readExif(data []byte, info *Info) {
	exifData, err := imagemeta.Decode(bytes.NewReader(data))
	if err != nil {
		log.Debug().Err(err).Msg("No EXIF metadata in upload")
		return
	}
	info.CameraMake = strings.TrimSpace(exifData.Make)
	info.CameraModel = strings.TrimSpace(exifData.Model)

	// DateTimeOriginal > CreateDate > ModifyDate
	switch {
	case !exifData.DateTimeOriginal().IsZero():
		info.DateTaken = exifData.DateTimeOriginal()
	case !exifData.CreateDate().IsZero():
		info.DateTaken = exifData.CreateDate()
	case !exifData.ModifyDate().IsZero():
		info.DateTaken = exifData.ModifyDate()
	}
}
