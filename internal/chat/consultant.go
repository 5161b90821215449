package chat

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"google.golang.org/genai"

	"github.com/fpang/aura-design/internal/assets"
	"github.com/fpang/aura-design/internal/metrics"
)

// Speaker identifies who produced a conversation turn.
type Speaker string

const (
	SpeakerUser      Speaker = "user"
	SpeakerAssistant Speaker = "assistant"
)

// Turn is one prior message sent to the consultant as history.
type Turn struct {
	Speaker Speaker
	Text    string
}

// Reference is a web source the model grounded its answer on.
type Reference struct {
	Title string `json:"title"`
	URI   string `json:"uri"`
}

// Reply is the consultant's answer.
type Reply struct {
	Text       string
	References []Reference
}

// contentGenerator is the subset of *genai.Models the consultant needs.
type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// Consultant answers design questions with the conversational model, grounded
// on Google Search.
type Consultant struct {
	models contentGenerator
	model  string
}

// NewConsultant creates a consultant on a genai client. An empty model uses
// GetModelName().
func NewConsultant(client *genai.Client, model string) *Consultant {
	return newConsultant(client.Models, model)
}

func newConsultant(models contentGenerator, model string) *Consultant {
	if model == "" {
		model = GetModelName()
	}
	return &Consultant{models: models, model: model}
}

// Reply sends the message with the prior conversation and returns the answer
// text and any grounding references, in the order the model returned them.
func (c *Consultant) Reply(ctx context.Context, message string, history []Turn) (Reply, error) {
	config := &genai.GenerateContentConfig{
		SystemInstruction: &genai.Content{
			Parts: []*genai.Part{{Text: assets.ConsultantSystemPrompt}},
		},
		Tools: []*genai.Tool{{GoogleSearch: &genai.GoogleSearch{}}},
	}

	contents := make([]*genai.Content, 0, len(history)+1)
	for _, turn := range history {
		role := "user"
		if turn.Speaker == SpeakerAssistant {
			role = "model"
		}
		contents = append(contents, &genai.Content{
			Role:  role,
			Parts: []*genai.Part{{Text: turn.Text}},
		})
	}
	contents = append(contents, &genai.Content{
		Role:  "user",
		Parts: []*genai.Part{{Text: message}},
	})

	log.Debug().
		Str("model", c.model).
		Int("conversation_turns", len(contents)).
		Msg("Starting Gemini API call for design consultation")

	callStart := time.Now()
	resp, err := c.models.GenerateContent(ctx, c.model, contents, config)
	duration := time.Since(callStart)

	metrics.ModelCall("consult", c.model, err, callStart)
	if err != nil {
		log.Error().Err(err).Dur("duration", duration).Msg("Design consultation failed")
		return Reply{}, fmt.Errorf("failed to generate content: %w", err)
	}

	reply := Reply{
		Text:       strings.TrimSpace(resp.Text()),
		References: referencesFromResponse(resp),
	}

	log.Info().
		Int("response_length", len(reply.Text)).
		Int("references", len(reply.References)).
		Dur("duration", duration).
		Msg("Design consultation complete")

	return reply, nil
}

// referencesFromResponse collects web grounding chunks from the first
// candidate. Chunks without web data or a URI are skipped.
func referencesFromResponse(resp *genai.GenerateContentResponse) []Reference {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0] == nil {
		return nil
	}
	gm := resp.Candidates[0].GroundingMetadata
	if gm == nil {
		return nil
	}
	var refs []Reference
	for _, chunk := range gm.GroundingChunks {
		if chunk == nil || chunk.Web == nil || chunk.Web.URI == "" {
			continue
		}
		title := chunk.Web.Title
		if title == "" {
			title = chunk.Web.URI
		}
		refs = append(refs, Reference{Title: title, URI: chunk.Web.URI})
	}
	return refs
}
