// Package main runs the design studio API behind API Gateway.
//
// Sessions live in the execution environment's memory, so a deployment
// should route a session's requests to one warm instance (reserved
// concurrency of 1 for small installs).
//
// Security:
//   - Origin-verify middleware blocks direct API Gateway access (CloudFront-only)
//   - Per-client rate limiting keyed on X-Forwarded-For
//   - Presigned uploads are scoped to <sessionId>/<filename> keys
//
// Endpoints are listed in internal/api.
package main

import (
	"context"
	"os"
	"time"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/awslabs/aws-lambda-go-api-proxy/httpadapter"
	"github.com/rs/zerolog/log"

	"github.com/fpang/aura-design/internal/api"
	"github.com/fpang/aura-design/internal/config"
	"github.com/fpang/aura-design/internal/lambdaboot"
	"github.com/fpang/aura-design/internal/logging"
)

func main() {
	initStart := time.Now()
	logging.Init()
	log.Logger = logging.NewLogger(os.Stderr, logging.EnvOrDefault("AURA_LOG_FORMAT", "json"))

	cfg := config.FromEnv()
	ctx := context.Background()

	clients := lambdaboot.InitAWS(ctx, true)
	apiKey := lambdaboot.LoadGeminiKey(ctx, clients, cfg.AWS.SSMAPIKeyParam)

	st, _, err := lambdaboot.NewStudio(ctx, cfg, apiKey)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create Gemini client")
	}

	server := api.New(st, lambdaboot.InitMedia(clients, cfg.AWS.MediaBucket), api.Options{
		AllowedOrigins:     cfg.HTTP.AllowedOrigins,
		OriginVerifySecret: cfg.HTTP.OriginVerifySecret,
		RateLimit:          cfg.HTTP.RateLimit,
		RateBurst:          cfg.HTTP.RateBurst,
		TrustedProxyHops:   cfg.HTTP.TrustedProxyHops,
	})

	startup := lambdaboot.StartupLog("aura-lambda", initStart, cfg)
	startup.CommitHash, startup.BuildTime = commitHash, buildTime
	startup.Log()

	adapter := httpadapter.NewV2(server.Handler())
	lambda.Start(adapter.ProxyWithContext)
}
