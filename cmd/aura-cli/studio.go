package main

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/fpang/aura-design/internal/catalog"
	"github.com/fpang/aura-design/internal/cli"
	"github.com/fpang/aura-design/internal/compare"
	"github.com/fpang/aura-design/internal/session"
	"github.com/fpang/aura-design/internal/studio"
)

var studioPhoto string

var studioCmd = &cobra.Command{
	Use:   "studio",
	Short: "Interactive design session",
	Long: `Studio runs a design session in the terminal. Plain text goes to the
design consultant; messages asking for changes edit the current redesign.

Commands:
  /photo [path]         upload a room photo (opens a picker without a path)
  /styles               list styles
  /style <id>           redesign the photo in a style
  /compare <pos> [file] write a before/after PNG revealed at pos percent
  /save <file>          write the current redesign
  /reset                change photo (clears the session)
  /quit                 exit`,
	Run: runStudio,
}

func init() {
	studioCmd.Flags().StringVarP(&studioPhoto, "photo", "p", "", "Room photo to start with")
}

var stdinReader *bufio.Reader

func stdin() *bufio.Reader {
	if stdinReader == nil {
		stdinReader = bufio.NewReader(os.Stdin)
	}
	return stdinReader
}

// repl drives one session and prints transcript entries as they appear.
type repl struct {
	st      *studio.Studio
	id      string
	printed int
}

func runStudio(cmd *cobra.Command, args []string) {
	cfg := loadConfig()
	st := cli.InitStudio(cmd.Context(), cfg)
	r := &repl{st: st, id: st.CreateSession().ID()}

	fmt.Println("\nAura Design Studio. Type /photo to begin, /quit to exit.")
	if studioPhoto != "" {
		r.upload(studioPhoto)
	}

	for {
		select {
		case <-cmd.Context().Done():
			st.Wait()
			return
		default:
		}
		line := cli.PromptLine(stdin(), "you", "")
		if line == "" {
			if _, err := stdin().Peek(1); err != nil {
				st.Wait()
				return
			}
			continue
		}
		if !r.handle(line) {
			st.Wait()
			return
		}
	}
}

// handle runs one input line and reports whether to keep going.
func (r *repl) handle(line string) bool {
	if !strings.HasPrefix(line, "/") {
		r.send(line)
		return true
	}

	fields := strings.Fields(line)
	arg := func(i int) string {
		if i < len(fields) {
			return fields[i]
		}
		return ""
	}

	switch fields[0] {
	case "/quit", "/exit":
		return false
	case "/photo":
		r.upload(arg(1))
	case "/styles":
		for _, s := range r.st.Catalog().Styles() {
			fmt.Printf("  %-14s %s\n", s.ID, s.DisplayName)
		}
	case "/style":
		r.style(arg(1))
	case "/compare":
		r.compare(arg(1), arg(2))
	case "/save":
		r.save(arg(1))
	case "/reset":
		if err := r.st.ChangePhoto(r.id); err != nil {
			report(err)
		}
		r.printed = 0
		fmt.Println("Session cleared.")
	default:
		fmt.Printf("Unknown command %s\n", fields[0])
	}
	return true
}

func (r *repl) upload(path string) {
	if path == "" {
		var err error
		if path, err = cli.PickPhoto(stdin()); err != nil {
			report(err)
			return
		}
	}
	img, info, err := cli.LoadPhoto(path)
	if err != nil {
		report(err)
		return
	}
	if err := r.st.Upload(r.id, img); err != nil {
		report(err)
		return
	}
	r.printed = 0
	fmt.Printf("Loaded %s (%dx%d). Pick a style with /style <id>.\n", path, info.Width, info.Height)
}

func (r *repl) style(id string) {
	if id == "" {
		fmt.Println("Usage: /style <id>")
		return
	}
	style, err := r.st.SelectStyle(r.id, id)
	if err != nil {
		report(err)
		return
	}
	fmt.Printf(session.GeneratingStatus+"\n", style.DisplayName)
	r.st.Wait()

	snap := r.snapshot()
	if snap.HasCurrent() && snap.ActiveStyle != nil {
		fmt.Printf("Your %s redesign is ready. Save it with /save <file>.\n", snap.ActiveStyle.DisplayName)
	}
}

func (r *repl) send(text string) {
	if err := r.st.SendMessage(r.id, text); err != nil {
		report(err)
		return
	}
	r.st.Wait()
	r.flush()
}

func (r *repl) compare(pos, out string) {
	p, err := strconv.ParseFloat(pos, 64)
	if err != nil {
		fmt.Println("Usage: /compare <0-100> [file]")
		return
	}
	if out == "" {
		out = "compare.png"
	}
	// Drag the handle on a 100-unit surface so pointer X equals the percentage.
	geom := &compare.Geometry{Width: 100}
	for _, ev := range []compare.PointerEvent{
		{Type: compare.EventPress},
		{Type: compare.EventMove, X: p, HasX: true},
		{Type: compare.EventRelease},
	} {
		if _, err := r.st.Pointer(r.id, ev, geom); err != nil {
			report(err)
			return
		}
	}
	img, err := r.st.Compare(r.id, studio.DefaultCompareWidth, 0)
	if err != nil {
		report(err)
		return
	}
	if err := os.WriteFile(out, img.Data, 0o644); err != nil {
		report(err)
		return
	}
	fmt.Printf("Wrote %s at %.0f%%\n", out, r.snapshot().Position)
}

func (r *repl) save(out string) {
	if out == "" {
		fmt.Println("Usage: /save <file>")
		return
	}
	snap := r.snapshot()
	if !snap.HasCurrent() {
		report(studio.ErrNothingToCompare)
		return
	}
	if err := os.WriteFile(out, snap.Current.Data, 0o644); err != nil {
		report(err)
		return
	}
	fmt.Printf("Saved %s\n", out)
}

// flush prints transcript entries not shown yet.
func (r *repl) flush() {
	snap := r.snapshot()
	if r.printed > len(snap.Transcript) {
		r.printed = 0
	}
	for _, e := range snap.Transcript[r.printed:] {
		if e.Speaker == session.Assistant {
			fmt.Printf("\nAura: %s\n", e.Body)
		}
	}
	r.printed = len(snap.Transcript)
}

func (r *repl) snapshot() session.Snapshot {
	sess, err := r.st.Session(r.id)
	if err != nil {
		log.Fatal().Err(err).Msg("Session expired")
	}
	return sess.Snapshot()
}

func report(err error) {
	switch {
	case errors.Is(err, cli.ErrCanceled):
		fmt.Println("Canceled.")
	case errors.Is(err, session.ErrNoOriginal):
		fmt.Println("Upload a photo first with /photo.")
	case errors.Is(err, session.ErrBusy):
		fmt.Println("Still working on the previous request.")
	case errors.Is(err, catalog.ErrUnknownStyle):
		fmt.Println("Unknown style. See /styles.")
	case errors.Is(err, studio.ErrNothingToCompare):
		fmt.Println("Pick a style first; there is no redesign yet.")
	default:
		fmt.Printf("Error: %v\n", err)
	}
}
