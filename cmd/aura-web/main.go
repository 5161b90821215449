package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/fpang/aura-design/internal/api"
	"github.com/fpang/aura-design/internal/auth"
	"github.com/fpang/aura-design/internal/config"
	"github.com/fpang/aura-design/internal/lambdaboot"
	"github.com/fpang/aura-design/internal/logging"
	"github.com/fpang/aura-design/internal/studio"
)

// CLI flags
var (
	portFlag       int
	modelFlag      string
	imageModelFlag string
	skipValidate   bool
)

var rootCmd = &cobra.Command{
	Use:   "aura-web",
	Short: "HTTP API for the AI interior design studio",
	Long: `Aura Web starts a local server exposing the design studio API: upload a
room photo, pick a style, chat with the consultant and compare before/after.

Examples:
  aura-web
  aura-web --port 9090
  aura-web --model gemini-3-flash-preview --image-model gemini-3-pro-image-preview`,
	Run: runMain,
}

func init() {
	rootCmd.Flags().IntVar(&portFlag, "port", 0, "Port to listen on (default $PORT or 8080)")
	rootCmd.Flags().StringVarP(&modelFlag, "model", "m", "", "Gemini chat model (default $GEMINI_MODEL)")
	rootCmd.Flags().StringVar(&imageModelFlag, "image-model", "", "Gemini image model (default $GEMINI_IMAGE_MODEL)")
	rootCmd.Flags().BoolVar(&skipValidate, "skip-validate", false, "Skip checking the API key against the configured models at startup")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runMain(cmd *cobra.Command, args []string) {
	initStart := time.Now()
	logging.Init()
	cfg := config.Load()
	if portFlag > 0 {
		cfg.HTTP.Port = portFlag
	}
	if modelFlag != "" {
		cfg.Gemini.Model = modelFlag
	}
	if imageModelFlag != "" {
		cfg.Gemini.ImageModel = imageModelFlag
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	clients := lambdaboot.InitAWS(ctx, false)
	apiKey := lambdaboot.LoadGeminiKey(ctx, clients, cfg.AWS.SSMAPIKeyParam)

	st, client, err := lambdaboot.NewStudio(ctx, cfg, apiKey, studio.WithBaseContext(ctx))
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create Gemini client")
	}
	if !skipValidate {
		if err := auth.ValidateAPIKey(ctx, client, cfg.Gemini.Model, cfg.Gemini.ImageModel); err != nil {
			log.Fatal().Err(err).Msg("Invalid API key")
		}
		log.Info().Msg("API key validated")
	}

	server := api.New(st, lambdaboot.InitMedia(clients, cfg.AWS.MediaBucket), api.Options{
		AllowedOrigins:     cfg.HTTP.AllowedOrigins,
		OriginVerifySecret: cfg.HTTP.OriginVerifySecret,
		RateLimit:          cfg.HTTP.RateLimit,
		RateBurst:          cfg.HTTP.RateBurst,
		TrustedProxyHops:   cfg.HTTP.TrustedProxyHops,
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler:      server.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	startup := lambdaboot.StartupLog("aura-web", initStart, cfg)
	startup.CommitHash, startup.BuildTime = commitHash, buildTime
	startup.Port = cfg.HTTP.Port
	startup.Log()
	fmt.Printf("\n  Aura Design API: http://localhost:%d/api/health\n\n", cfg.HTTP.Port)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("Shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Fatal().Err(err).Msg("Server failed")
	}
	// Background redesigns observe the cancelled base context; wait for
	// them to unwind before exiting.
	st.Wait()
	log.Info().Msg("Server stopped")
}
