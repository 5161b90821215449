package cli

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/fpang/aura-design/internal/auth"
	"github.com/fpang/aura-design/internal/config"
	"github.com/fpang/aura-design/internal/lambdaboot"
	"github.com/fpang/aura-design/internal/studio"
)

// InitStudio resolves the API key, builds the studio core and checks that
// the key can use the configured chat and image models. Exits fatally on
// failure.
func InitStudio(ctx context.Context, cfg *config.Config) *studio.Studio {
	clients := lambdaboot.InitAWS(ctx, false)
	apiKey := lambdaboot.LoadGeminiKey(ctx, clients, cfg.AWS.SSMAPIKeyParam)

	st, client, err := lambdaboot.NewStudio(ctx, cfg, apiKey)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create Gemini client")
	}
	log.Info().Msg("connection successful - Gemini client initialized")

	if err := auth.ValidateAPIKey(ctx, client, cfg.Gemini.Model, cfg.Gemini.ImageModel); err != nil {
		HandleValidationError(err)
	}
	log.Info().Msg("API key validation complete - ready for operations")

	return st
}
