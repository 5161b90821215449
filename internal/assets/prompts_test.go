package assets

import (
	"strings"
	"testing"
)

func TestRenderReimaginePrompt(t *testing.T) {
	got := RenderReimaginePrompt("A serene Japandi room")
	if !strings.HasPrefix(got, "Reimagine this exact room layout in a A serene Japandi room style.") {
		t.Errorf("unexpected prompt: %q", got)
	}
	if !strings.Contains(got, "windows and doors") {
		t.Error("prompt must ask to keep architectural openings")
	}
	if strings.HasSuffix(got, "\n") {
		t.Error("prompt should be trimmed")
	}
}

func TestRenderEditPrompt(t *testing.T) {
	got := RenderEditPrompt("change the rug to red")
	want := `Modify this room design based on this request: "change the rug to red". Retain the overall composition while applying the specific change.`
	if got != want {
		t.Errorf("RenderEditPrompt() = %q, want %q", got, want)
	}
}

func TestConsultantSystemPrompt(t *testing.T) {
	if !strings.Contains(ConsultantSystemPrompt, "Interior Design Consultant") {
		t.Error("consultant system prompt not embedded")
	}
	if len(StylesJSON) == 0 {
		t.Error("styles catalog not embedded")
	}
}
