package auth

import (
	"context"
	"errors"
	"fmt"
	"net"
	"slices"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
	"google.golang.org/genai"

	"github.com/fpang/aura-design/internal/metrics"
)

// generateAction is the model action both the consultant and the image
// pipeline call.
const generateAction = "generateContent"

// ModelGetter is the subset of *genai.Models used to look a model up.
type ModelGetter interface {
	Get(ctx context.Context, model string, config *genai.GetModelConfig) (*genai.Model, error)
}

// Failure classifies why the key cannot use a configured model.
type Failure int

const (
	FailureUnknown Failure = iota
	// FailureInvalidKey means the key is malformed, revoked or lacks access.
	FailureInvalidKey
	// FailureModelUnavailable means the model does not exist for this key or
	// cannot generate content.
	FailureModelUnavailable
	FailureQuota
	// FailureNetwork covers transport errors and Gemini 5xx responses.
	FailureNetwork
)

// String returns the metric label for f.
func (f Failure) String() string {
	switch f {
	case FailureInvalidKey:
		return "invalid_key"
	case FailureModelUnavailable:
		return "model_unavailable"
	case FailureQuota:
		return "quota"
	case FailureNetwork:
		return "network"
	default:
		return "unknown"
	}
}

// ModelError reports a configured model the key cannot use.
type ModelError struct {
	Model   string
	Failure Failure
	Err     error
}

func (e *ModelError) Error() string {
	return fmt.Sprintf("model %s: %s: %v", e.Model, e.Failure, e.Err)
}

func (e *ModelError) Unwrap() error { return e.Err }

var errCannotGenerate = errors.New("model does not support " + generateAction)

// ValidateAPIKey checks that the key can reach every configured model (the
// consultant's chat model and the image model). Each check is a metadata
// lookup, so validation spends no generation quota. The first failure is
// returned as a *ModelError.
func ValidateAPIKey(ctx context.Context, client *genai.Client, models ...string) error {
	return checkModels(ctx, client.Models, models)
}

func checkModels(ctx context.Context, getter ModelGetter, models []string) error {
	var names []string
	for _, m := range models {
		if m = strings.TrimSpace(m); m != "" && !slices.Contains(names, m) {
			names = append(names, m)
		}
	}
	log.Debug().Strs("models", names).Msg("Checking Gemini models for API key")

	g, gctx := errgroup.WithContext(ctx)
	for _, name := range names {
		g.Go(func() error {
			return checkModel(gctx, getter, name)
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	log.Info().Strs("models", names).Msg("API key validated for configured models")
	return nil
}

func checkModel(ctx context.Context, getter ModelGetter, name string) error {
	start := time.Now()
	m, err := getter.Get(ctx, name, nil)
	if err == nil && len(m.SupportedActions) > 0 && !slices.Contains(m.SupportedActions, generateAction) {
		err = errCannotGenerate
	}
	if err == nil {
		metrics.ModelCheck(name, "ok", start)
		log.Debug().Str("model", name).Dur("duration", time.Since(start)).Msg("Model available")
		return nil
	}

	f := classify(err)
	metrics.ModelCheck(name, f.String(), start)
	log.Error().Err(err).
		Str("model", name).
		Stringer("failure", f).
		Dur("duration", time.Since(start)).
		Msg("Model check failed")
	return &ModelError{Model: name, Failure: f, Err: err}
}

func classify(err error) Failure {
	if errors.Is(err, errCannotGenerate) {
		return FailureModelUnavailable
	}
	var apiErr *genai.APIError
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.Code == 400, apiErr.Code == 401, apiErr.Code == 403:
			return FailureInvalidKey
		case apiErr.Code == 404:
			return FailureModelUnavailable
		case apiErr.Code == 429:
			return FailureQuota
		case apiErr.Code >= 500:
			return FailureNetwork
		}
		return FailureUnknown
	}
	var netErr net.Error
	if errors.As(err, &netErr) || errors.Is(err, context.DeadlineExceeded) {
		return FailureNetwork
	}
	return FailureUnknown
}
