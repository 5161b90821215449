// Package router decides whether a chat message asks for a visual change to
// the current design or for information, and drives the matching pipeline.
package router

import "strings"

// Intent is the classification of a chat message.
type Intent int

const (
	Informational Intent = iota
	VisualEdit
)

func (i Intent) String() string {
	if i == VisualEdit {
		return "visual_edit"
	}
	return "informational"
}

// Classifier maps a message to an Intent. Implementations must be pure: the
// same inputs always give the same Intent.
type Classifier interface {
	Classify(utterance string, hasGeneratedImage bool) Intent
}

// DefaultKeywords trigger a visual edit when a redesign exists.
var DefaultKeywords = []string{
	"change", "make", "add", "remove", "color",
	"blue", "red", "green", "style", "furniture", "rug", "curtain",
}

// KeywordClassifier matches lowercase substrings. "redesign" contains "red"
// and counts as a hit; there is no word-boundary check.
type KeywordClassifier struct {
	keywords []string
}

// NewKeywordClassifier builds a classifier. With no keywords it uses
// DefaultKeywords.
func NewKeywordClassifier(keywords ...string) *KeywordClassifier {
	var kws []string
	for _, kw := range keywords {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw != "" {
			kws = append(kws, kw)
		}
	}
	if len(kws) == 0 {
		kws = append(kws, DefaultKeywords...)
	}
	return &KeywordClassifier{keywords: kws}
}

// ParseKeywords splits a comma separated keyword list.
func ParseKeywords(list string) []string {
	if strings.TrimSpace(list) == "" {
		return nil
	}
	return strings.Split(list, ",")
}

// Keywords returns the active keyword list.
func (c *KeywordClassifier) Keywords() []string {
	out := make([]string, len(c.keywords))
	copy(out, c.keywords)
	return out
}

// Classify reports VisualEdit only when a redesign exists and a keyword occurs.
func (c *KeywordClassifier) Classify(utterance string, hasGeneratedImage bool) Intent {
	if !hasGeneratedImage {
		return Informational
	}
	lower := strings.ToLower(utterance)
	for _, kw := range c.keywords {
		if strings.Contains(lower, kw) {
			return VisualEdit
		}
	}
	return Informational
}
