package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"

	"github.com/fpang/aura-design/internal/auth"
	"github.com/fpang/aura-design/internal/imaging"
)

// LoadPhoto reads and validates a room photo from disk.
func LoadPhoto(path string) (imaging.Image, imaging.Info, error) {
	f, err := os.Open(path)
	if err != nil {
		return imaging.Image{}, imaging.Info{}, fmt.Errorf("open photo: %w", err)
	}
	defer f.Close()

	img, info, err := imaging.Intake(f)
	if err != nil {
		return imaging.Image{}, imaging.Info{}, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return img, info, nil
}

// EnsureOutputDir creates dir if needed and returns its absolute path.
// Exits fatally on failure.
func EnsureOutputDir(dir string) string {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		log.Fatal().Err(err).Str("path", dir).Msg("Failed to create output directory")
	}
	absPath, err := filepath.Abs(dir)
	if err == nil {
		dir = absPath
	}
	return dir
}

// HandleValidationError explains a failed model check and exits.
func HandleValidationError(err error) {
	var modelErr *auth.ModelError
	if !errors.As(err, &modelErr) {
		log.Fatal().Err(err).Msg("unexpected error during API key validation")
	}
	evt := log.Fatal().Err(modelErr.Err).Str("model", modelErr.Model)
	switch modelErr.Failure {
	case auth.FailureInvalidKey:
		evt.Msg("Invalid API key. Check GEMINI_API_KEY or the SSM parameter and try again")
	case auth.FailureModelUnavailable:
		evt.Msg("Model not available for this API key. Check GEMINI_MODEL and GEMINI_IMAGE_MODEL")
	case auth.FailureNetwork:
		evt.Msg("Network error. Please check your internet connection")
	case auth.FailureQuota:
		evt.Msg("API quota exceeded. Please try again later or check your usage limits")
	default:
		evt.Msg("API key validation failed")
	}
	os.Exit(1)
}
