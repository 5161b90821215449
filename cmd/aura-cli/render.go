package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/fpang/aura-design/internal/catalog"
	"github.com/fpang/aura-design/internal/chat"
	"github.com/fpang/aura-design/internal/cli"
	"github.com/fpang/aura-design/internal/compare"
	"github.com/fpang/aura-design/internal/config"
	"github.com/fpang/aura-design/internal/lambdaboot"
	"github.com/fpang/aura-design/internal/studio"
)

var (
	renderPhoto    string
	renderStyles   []string
	renderOut      string
	renderInterval time.Duration
	renderCompare  bool
)

var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Redesign a photo in one or more styles",
	Long: `Render sends the photo to the image model once per style, in parallel,
and writes <style>.<ext> into the output directory. With --compare a
half-revealed before/after PNG is written next to each result.`,
	Run: runRender,
}

func init() {
	renderCmd.Flags().StringVarP(&renderPhoto, "photo", "p", "", "Room photo to redesign (prompted when empty)")
	renderCmd.Flags().StringSliceVarP(&renderStyles, "styles", "s", nil, "Style IDs to render (default all)")
	renderCmd.Flags().StringVarP(&renderOut, "out", "o", "renders", "Output directory")
	renderCmd.Flags().DurationVar(&renderInterval, "interval", studio.DefaultBatchInterval, "Minimum spacing between image requests")
	renderCmd.Flags().BoolVar(&renderCompare, "compare", false, "Also write a before/after composite per style")
}

func runRender(cmd *cobra.Command, args []string) {
	cfg := loadConfig()
	ctx := cmd.Context()

	styles, err := selectStyles(catalog.Default(), renderStyles)
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid style selection")
	}

	path := renderPhoto
	if path == "" {
		if path, err = cli.PickPhoto(stdin()); err != nil {
			log.Fatal().Err(err).Msg("No photo selected")
		}
	}
	original, info, err := cli.LoadPhoto(path)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load photo")
	}
	log.Info().Str("photo", path).Int("width", info.Width).Int("height", info.Height).Msg("Photo loaded")

	outDir := cli.EnsureOutputDir(renderOut)
	pipeline := newPipeline(ctx, cfg)

	start := time.Now()
	results, err := studio.RenderStyles(ctx, pipeline, original, styles, renderInterval)
	if err != nil {
		log.Fatal().Err(err).Msg("Render aborted")
	}

	failed := 0
	for _, r := range results {
		if !r.OK {
			failed++
			fmt.Printf("  ✗ %-20s no image returned\n", r.Style.DisplayName)
			continue
		}
		out := filepath.Join(outDir, r.Style.ID+extensionFor(r.Image.MIMEType))
		if err := os.WriteFile(out, r.Image.Data, 0o644); err != nil {
			log.Fatal().Err(err).Str("path", out).Msg("Failed to write render")
		}
		fmt.Printf("  ✓ %-20s %s (%s)\n", r.Style.DisplayName, out, formatElapsed(r.Duration))

		if renderCompare {
			composite, err := compare.Composite(original, r.Image, studio.DefaultCompareWidth, 0, compare.DefaultPosition)
			if err != nil {
				log.Warn().Err(err).Str("style", r.Style.ID).Msg("Failed to render comparison")
				continue
			}
			cmpPath := filepath.Join(outDir, r.Style.ID+"-compare.png")
			if err := os.WriteFile(cmpPath, composite.Data, 0o644); err != nil {
				log.Fatal().Err(err).Str("path", cmpPath).Msg("Failed to write comparison")
			}
		}
	}

	fmt.Printf("\n%d of %d styles rendered in %s\n", len(results)-failed, len(results), formatElapsed(time.Since(start)))
	if failed == len(results) {
		os.Exit(1)
	}
}

// formatElapsed prints render timings: tenths of a second for a single
// style, whole seconds once a batch runs past a minute.
func formatElapsed(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	return d.Round(time.Second).String()
}

// newPipeline builds the image pipeline only; render needs no chat model.
func newPipeline(ctx context.Context, cfg *config.Config) *chat.Pipeline {
	clients := lambdaboot.InitAWS(ctx, false)
	apiKey := lambdaboot.LoadGeminiKey(ctx, clients, cfg.AWS.SSMAPIKeyParam)
	return chat.NewPipeline(chat.NewImageClient(apiKey, chat.WithImageModel(cfg.Gemini.ImageModel)))
}

// selectStyles resolves IDs against the catalog, keeping the order given.
// No IDs selects the whole catalog.
func selectStyles(cat *catalog.Catalog, ids []string) ([]catalog.Style, error) {
	if len(ids) == 0 {
		return cat.Styles(), nil
	}
	seen := make(map[string]bool, len(ids))
	var styles []catalog.Style
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" || seen[id] {
			continue
		}
		s, err := cat.Lookup(id)
		if err != nil {
			return nil, err
		}
		seen[id] = true
		styles = append(styles, s)
	}
	return styles, nil
}

func extensionFor(mimeType string) string {
	switch mimeType {
	case "image/jpeg":
		return ".jpg"
	case "image/webp":
		return ".webp"
	case "image/gif":
		return ".gif"
	default:
		return ".png"
	}
}
