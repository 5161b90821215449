package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/ncruces/zenity"
	"github.com/rs/zerolog/log"
)

// ErrCanceled is returned when the user dismisses the photo picker.
var ErrCanceled = errors.New("photo selection canceled")

// photoPatterns are the extensions offered by the native picker.
var photoPatterns = []string{"*.jpg", "*.jpeg", "*.png", "*.gif", "*.webp"}

// PickPhoto opens the native file dialog. When no dialog is available (SSH,
// headless CI) it falls back to reading a path from in.
func PickPhoto(in *bufio.Reader) (string, error) {
	selected, err := zenity.SelectFile(
		zenity.Title("Select a room photo"),
		zenity.FileFilters{
			{Name: "Room photos", Patterns: photoPatterns},
		},
	)
	if err == nil {
		return selected, nil
	}
	if errors.Is(err, zenity.ErrCanceled) {
		return "", ErrCanceled
	}
	log.Debug().Err(err).Msg("File picker unavailable, prompting for a path")

	path := PromptLine(in, "Photo path", "")
	if path == "" {
		return "", ErrCanceled
	}
	return path, nil
}

// PromptLine prints label (with the default in brackets) and reads one
// line. An empty answer or a read error returns def.
func PromptLine(in *bufio.Reader, label, def string) string {
	if def != "" {
		fmt.Printf("%s [%s]: ", label, def)
	} else {
		fmt.Printf("%s: ", label)
	}

	input, err := in.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		log.Warn().Err(err).Msg("Failed to read input")
		return def
	}

	input = strings.TrimSpace(input)
	if input == "" {
		return def
	}
	return input
}
