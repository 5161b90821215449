// Package assets provides embedded static assets for the application.
//
// Prompt templates are stored as text files under prompts/ and embedded at compile time.

package assets

import (
	"bytes"
	_ "embed"
	"strings"
	"text/template"
)

// --- Static prompts (no dynamic data) ---

// ConsultantSystemPrompt is the system instruction for the design consultant chat.
//
//go:embed prompts/consultant-system.txt
var ConsultantSystemPrompt string

// --- Dynamic prompt templates ---

//go:embed prompts/reimagine.txt
var reimagineTemplate string

//go:embed prompts/edit.txt
var editTemplate string

// Pre-parsed templates for efficiency. template.Must panics on malformed templates,
// catching errors at program startup rather than at call time.
var (
	reimaginePromptTmpl = template.Must(template.New("reimagine").Parse(reimagineTemplate))
	editPromptTmpl      = template.Must(template.New("edit").Parse(editTemplate))
)

// PromptData holds the dynamic data injected into prompt templates.
type PromptData struct {
	// Directive is the style instruction text or the user's edit request.
	Directive string
}

// RenderReimaginePrompt renders the full-redesign prompt for a style instruction.
func RenderReimaginePrompt(styleInstruction string) string {
	return renderTemplate(reimaginePromptTmpl, styleInstruction)
}

// RenderEditPrompt renders the incremental-edit prompt for a user request.
func RenderEditPrompt(instruction string) string {
	return renderTemplate(editPromptTmpl, instruction)
}

// renderTemplate executes a pre-parsed template with the given directive.
func renderTemplate(tmpl *template.Template, directive string) string {
	var buf bytes.Buffer
	// Template execution errors are not expected with our simple templates,
	// but we handle them gracefully by returning whatever was rendered.
	_ = tmpl.Execute(&buf, PromptData{Directive: directive})
	return strings.TrimSpace(buf.String())
}
