// Package assets provides embedded static assets for the application.
package assets

import (
	_ "embed"
)

// StylesJSON is the built-in design style catalog.
//
//go:embed styles.json
var StylesJSON []byte
