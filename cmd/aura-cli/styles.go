package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/fpang/aura-design/internal/catalog"
)

var stylesVerbose bool

var stylesCmd = &cobra.Command{
	Use:   "styles",
	Short: "List the available design styles",
	Run: func(cmd *cobra.Command, args []string) {
		tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tNAME")
		for _, s := range catalog.Default().Styles() {
			fmt.Fprintf(tw, "%s\t%s\n", s.ID, s.DisplayName)
			if stylesVerbose {
				fmt.Fprintf(tw, "\t  %s\n", s.InstructionText)
			}
		}
		tw.Flush()
	},
}

func init() {
	stylesCmd.Flags().BoolVarP(&stylesVerbose, "verbose", "v", false, "Show each style's prompt")
}
