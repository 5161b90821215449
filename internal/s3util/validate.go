package s3util

import (
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

var (
	// ErrInvalidKey is returned for object keys outside "<sessionId>/<filename>".
	ErrInvalidKey = errors.New("invalid object key")
	// ErrUnsupportedContentType is returned for content types outside the allowlist.
	ErrUnsupportedContentType = errors.New("unsupported content type")
)

// safeFilenameRegex allows alphanumeric, dots, hyphens, underscores, spaces, and parentheses.
var safeFilenameRegex = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9._ ()-]{0,254}$`)

// allowedContentTypes matches the formats the intake can decode.
var allowedContentTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
}

// AllowedContentType reports whether a browser may upload this type.
func AllowedContentType(ct string) bool {
	return allowedContentTypes[ct]
}

// ValidateSessionID requires a canonical UUID.
func ValidateSessionID(id string) error {
	parsed, err := uuid.Parse(id)
	if err != nil || parsed.String() != id {
		return fmt.Errorf("invalid sessionId: must be a UUID (e.g., a1b2c3d4-e5f6-7890-abcd-ef1234567890)")
	}
	return nil
}

// ValidateFilename rejects path components and unusual characters.
func ValidateFilename(name string) error {
	if name == "" {
		return fmt.Errorf("filename is required")
	}
	if strings.Contains(name, "..") || strings.Contains(name, "/") || strings.Contains(name, "\\") {
		return fmt.Errorf("filename contains invalid characters")
	}
	if !safeFilenameRegex.MatchString(name) {
		return fmt.Errorf("filename contains invalid characters; only alphanumeric, dots, hyphens, underscores, spaces, and parentheses allowed")
	}
	return nil
}

// ObjectKey builds "<sessionId>/<filename>" after validating both parts.
// Directory components of filename are dropped first.
func ObjectKey(sessionID, filename string) (string, error) {
	if err := ValidateSessionID(sessionID); err != nil {
		return "", err
	}
	filename = filepath.Base(filename)
	if err := ValidateFilename(filename); err != nil {
		return "", err
	}
	return sessionID + "/" + filename, nil
}

// ValidateKey checks a key the browser sends back after uploading.
func ValidateKey(key string) error {
	if strings.Contains(key, "..") || strings.HasPrefix(key, "/") || strings.Contains(key, "\\") {
		return ErrInvalidKey
	}
	sessionID, filename, ok := strings.Cut(key, "/")
	if !ok || ValidateSessionID(sessionID) != nil || ValidateFilename(filename) != nil {
		return fmt.Errorf("%w: expected <uuid>/<filename>", ErrInvalidKey)
	}
	return nil
}

// SessionOfKey returns the session ID prefix of a valid key.
func SessionOfKey(key string) string {
	sessionID, _, _ := strings.Cut(key, "/")
	return sessionID
}
