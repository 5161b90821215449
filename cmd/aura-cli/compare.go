package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/fpang/aura-design/internal/cli"
	"github.com/fpang/aura-design/internal/compare"
	"github.com/fpang/aura-design/internal/studio"
)

var (
	compareBefore   string
	compareAfter    string
	compareOut      string
	comparePosition float64
	compareWidth    int
	compareHeight   int
)

var compareCmd = &cobra.Command{
	Use:   "compare",
	Short: "Render a before/after composite PNG",
	Long: `Compare draws the redesign across the whole canvas and reveals the
original photo over the left --position percent of it, with a divider at
the boundary.`,
	Run: runCompare,
}

func init() {
	compareCmd.Flags().StringVar(&compareBefore, "before", "", "Original photo (revealed side)")
	compareCmd.Flags().StringVar(&compareAfter, "after", "", "Redesigned photo")
	compareCmd.Flags().StringVarP(&compareOut, "out", "o", "compare.png", "Output PNG")
	compareCmd.Flags().Float64Var(&comparePosition, "position", compare.DefaultPosition, "Reveal position, 0-100")
	compareCmd.Flags().IntVar(&compareWidth, "width", studio.DefaultCompareWidth, "Output width in pixels")
	compareCmd.Flags().IntVar(&compareHeight, "height", 0, "Output height in pixels (0 keeps the redesign's aspect ratio)")
	compareCmd.MarkFlagRequired("before")
	compareCmd.MarkFlagRequired("after")
}

func runCompare(cmd *cobra.Command, args []string) {
	before, _, err := cli.LoadPhoto(compareBefore)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load original")
	}
	after, _, err := cli.LoadPhoto(compareAfter)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load redesign")
	}

	out, err := compare.Composite(before, after, compareWidth, compareHeight, comparePosition)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to render comparison")
	}
	if err := os.WriteFile(compareOut, out.Data, 0o644); err != nil {
		log.Fatal().Err(err).Str("path", compareOut).Msg("Failed to write comparison")
	}
	fmt.Printf("Wrote %s at %.0f%%\n", compareOut, compare.ClipAt(comparePosition, 100).OuterWidthPercent)
}
