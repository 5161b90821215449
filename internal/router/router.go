package router

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/fpang/aura-design/internal/chat"
	"github.com/fpang/aura-design/internal/imaging"
	"github.com/fpang/aura-design/internal/session"
)

// Assistant messages.
const (
	AcknowledgeText  = "Analyzing your request... I'll apply those visual changes for you now."
	EditSuccessText  = "I've updated the design! How does it look?"
	EditFailureText  = "I had some trouble editing the image, but I can still talk about it! What else would you like to know?"
	ReplyErrorText   = "Error connecting to AI. Please try again."
	ReplyEmptyText   = "I'm sorry, I couldn't process that request."
	referencesHeader = "\n\n**Helpful Links:**\n"
)

// Editor applies a free-text change to an image. Absence is reported as
// ok == false.
type Editor interface {
	ApplyEdit(ctx context.Context, current imaging.Image, instruction string) (imaging.Image, bool)
}

// Consultant answers informational messages.
type Consultant interface {
	Reply(ctx context.Context, message string, history []chat.Turn) (chat.Reply, error)
}

// Router runs one chat request to completion against a session.
type Router struct {
	classifier Classifier
	editor     Editor
	consultant Consultant
}

// New creates a router. A nil classifier uses the default keywords.
func New(classifier Classifier, editor Editor, consultant Consultant) *Router {
	if classifier == nil {
		classifier = NewKeywordClassifier()
	}
	return &Router{classifier: classifier, editor: editor, consultant: consultant}
}

// Dispatch handles the chat request described by t, which came from
// sess.BeginChat. It blocks until the pipeline call returns and reports the
// intent it took. Completions for a session that was reset in the meantime
// are dropped.
func (r *Router) Dispatch(ctx context.Context, sess *session.Session, t session.Ticket) Intent {
	intent := r.classifier.Classify(t.Utterance, t.HasGeneratedImage())
	logger := log.With().
		Str("sessionId", sess.ID()).
		Uint64("generation", t.Generation).
		Str("intent", intent.String()).
		Logger()
	logger.Debug().Int("utterance_length", len(t.Utterance)).Msg("Dispatching chat message")

	var err error
	switch intent {
	case VisualEdit:
		if err = sess.Acknowledge(t, AcknowledgeText); err != nil {
			break
		}
		img, ok := r.editor.ApplyEdit(ctx, t.Source, t.Utterance)
		err = sess.CompleteEdit(t, img, ok, EditSuccessText, EditFailureText)
		logger.Info().Bool("applied", ok).Msg("Visual edit finished")
	default:
		err = sess.CompleteReply(t, r.reply(ctx, t))
	}

	if errors.Is(err, session.ErrStale) {
		logger.Debug().Msg("Discarding stale chat completion")
	} else if err != nil {
		logger.Error().Err(err).Msg("Chat completion rejected")
	}
	return intent
}

func (r *Router) reply(ctx context.Context, t session.Ticket) string {
	history := make([]chat.Turn, 0, len(t.History))
	for _, e := range t.History {
		speaker := chat.SpeakerUser
		if e.Speaker == session.Assistant {
			speaker = chat.SpeakerAssistant
		}
		history = append(history, chat.Turn{Speaker: speaker, Text: e.Body})
	}

	reply, err := r.consultant.Reply(ctx, t.Utterance, history)
	if err != nil {
		return ReplyErrorText
	}
	text := reply.Text
	if strings.TrimSpace(text) == "" {
		text = ReplyEmptyText
	}
	return FormatReferences(text, reply.References)
}

// FormatReferences appends a "Helpful Links" list to text, one bullet per
// reference in the given order. References without a URI are skipped; with
// none left the text is returned unchanged.
func FormatReferences(text string, refs []chat.Reference) string {
	var b strings.Builder
	for _, ref := range refs {
		if ref.URI == "" {
			continue
		}
		b.WriteString("\n• [")
		b.WriteString(ref.Title)
		b.WriteString("](")
		b.WriteString(ref.URI)
		b.WriteString(")")
	}
	if b.Len() == 0 {
		return text
	}
	return text + referencesHeader + b.String()
}
