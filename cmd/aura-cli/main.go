package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/fpang/aura-design/internal/config"
	"github.com/fpang/aura-design/internal/logging"
)

// Global flags
var (
	modelFlag      string
	imageModelFlag string
)

var rootCmd = &cobra.Command{
	Use:   "aura-cli",
	Short: "AI interior design from the terminal",
	Long: `Aura CLI reimagines room photos in curated interior design styles with
Gemini, renders before/after comparisons and runs an interactive design
session with the consultant.

Examples:
  aura-cli styles
  aura-cli render -p living-room.jpg -s japandi,bohemian -o renders/
  aura-cli compare --before living-room.jpg --after renders/japandi.png --position 40
  aura-cli studio`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logging.Init()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&modelFlag, "model", "m", "", "Gemini chat model (default $GEMINI_MODEL)")
	rootCmd.PersistentFlags().StringVar(&imageModelFlag, "image-model", "", "Gemini image model (default $GEMINI_IMAGE_MODEL)")

	rootCmd.AddCommand(stylesCmd, renderCmd, compareCmd, studioCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

// loadConfig reads the environment and applies the model flags.
func loadConfig() *config.Config {
	cfg := config.Load()
	if modelFlag != "" {
		cfg.Gemini.Model = modelFlag
	}
	if imageModelFlag != "" {
		cfg.Gemini.ImageModel = imageModelFlag
	}
	return cfg
}
