package main

import (
	"errors"
	"testing"
	"time"

	"github.com/fpang/aura-design/internal/catalog"
)

func TestSelectStyles(t *testing.T) {
	cat := catalog.Default()

	all, err := selectStyles(cat, nil)
	if err != nil || len(all) != 6 {
		t.Fatalf("selectStyles(nil) = %d styles, %v", len(all), err)
	}

	got, err := selectStyles(cat, []string{"japandi", " bohemian", "japandi", ""})
	if err != nil {
		t.Fatalf("selectStyles: %v", err)
	}
	if len(got) != 2 || got[0].ID != "japandi" || got[1].ID != "bohemian" {
		t.Errorf("got %+v, want japandi then bohemian", got)
	}

	if _, err := selectStyles(cat, []string{"gothic"}); !errors.Is(err, catalog.ErrUnknownStyle) {
		t.Errorf("unknown style error = %v", err)
	}
}

func TestExtensionFor(t *testing.T) {
	tests := map[string]string{
		"image/jpeg": ".jpg",
		"image/png":  ".png",
		"image/webp": ".webp",
		"image/gif":  ".gif",
		"":           ".png",
	}
	for mime, want := range tests {
		if got := extensionFor(mime); got != want {
			t.Errorf("extensionFor(%q) = %q, want %q", mime, got, want)
		}
	}
}

func TestFormatElapsed(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{0, "0.0s"},
		{840 * time.Millisecond, "0.8s"},
		{42*time.Second + 260*time.Millisecond, "42.3s"},
		{3*time.Minute + 5400*time.Millisecond, "3m5s"},
		{2*time.Hour + 1*time.Minute + 9*time.Second, "2h1m9s"},
	}
	for _, tt := range tests {
		if got := formatElapsed(tt.d); got != tt.want {
			t.Errorf("formatElapsed(%v) = %q, want %q", tt.d, got, tt.want)
		}
	}
}
