// Package catalog holds the fixed set of design styles a user can pick.
package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/fpang/aura-design/internal/assets"
)

var (
	// ErrUnknownStyle is returned by Lookup for IDs outside the catalog.
	ErrUnknownStyle = errors.New("unknown style")
	// ErrInvalidCatalog is returned when a catalog document breaks an invariant.
	ErrInvalidCatalog = errors.New("invalid style catalog")
)

// Style is an immutable design style descriptor.
type Style struct {
	ID              string `json:"id"`
	DisplayName     string `json:"name"`
	InstructionText string `json:"prompt"`
	PreviewURL      string `json:"thumbnail"`
}

// Catalog is an ordered, read-only style list indexed by ID.
type Catalog struct {
	styles []Style
	byID   map[string]Style
}

// Parse builds a catalog from its JSON form. IDs must be unique and every
// field non-empty, so an ID always maps to exactly one instruction text.
func Parse(data []byte) (*Catalog, error) {
	var styles []Style
	if err := json.Unmarshal(data, &styles); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCatalog, err)
	}
	if len(styles) == 0 {
		return nil, fmt.Errorf("%w: no styles", ErrInvalidCatalog)
	}

	c := &Catalog{
		styles: make([]Style, 0, len(styles)),
		byID:   make(map[string]Style, len(styles)),
	}
	for i, s := range styles {
		s.ID = strings.TrimSpace(s.ID)
		switch {
		case s.ID == "":
			return nil, fmt.Errorf("%w: style %d has no id", ErrInvalidCatalog, i)
		case strings.TrimSpace(s.DisplayName) == "":
			return nil, fmt.Errorf("%w: style %q has no name", ErrInvalidCatalog, s.ID)
		case strings.TrimSpace(s.InstructionText) == "":
			return nil, fmt.Errorf("%w: style %q has no prompt", ErrInvalidCatalog, s.ID)
		}
		if _, dup := c.byID[s.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate style id %q", ErrInvalidCatalog, s.ID)
		}
		c.byID[s.ID] = s
		c.styles = append(c.styles, s)
	}
	return c, nil
}

// Default returns the built-in catalog. It panics if the embedded document is
// broken, which only a bad build can cause.
func Default() *Catalog {
	c, err := Parse(assets.StylesJSON)
	if err != nil {
		panic(err)
	}
	return c
}

// Styles returns the styles in display order.
func (c *Catalog) Styles() []Style {
	out := make([]Style, len(c.styles))
	copy(out, c.styles)
	return out
}

// Lookup returns the style with the given ID.
func (c *Catalog) Lookup(id string) (Style, error) {
	s, ok := c.byID[strings.TrimSpace(id)]
	if !ok {
		return Style{}, fmt.Errorf("%w: %q", ErrUnknownStyle, id)
	}
	return s, nil
}

// IDs returns the style IDs in display order.
func (c *Catalog) IDs() []string {
	ids := make([]string, len(c.styles))
	for i, s := range c.styles {
		ids[i] = s.ID
	}
	return ids
}
