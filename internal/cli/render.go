// Package cli implements the cask command-line interface.
package cli

import (
	"fmt"
	"os"

	"github.com/mattn/go-isatty"

	"github.com/caskhq/cask/internal/archive"
)

// stageRenderer draws pipeline progress on stderr. On a terminal the stage
// line is rewritten in place; in pipes each stage gets its own line.
type stageRenderer struct {
	tty bool
}

func newStageRenderer() *stageRenderer {
	return &stageRenderer{tty: isatty.IsTerminal(os.Stderr.Fd())}
}

func (r *stageRenderer) update(stage archive.Stage, detail string) {
	if quiet || jsonOut {
		return
	}
	if r.tty {
		fmt.Fprintf(os.Stderr, "\r\033[K%-18s %s", stage, detail)
		return
	}
	fmt.Fprintf(os.Stderr, "%-18s %s\n", stage, detail)
}

// done ends the in-place line so later output starts fresh.
func (r *stageRenderer) done() {
	if quiet || jsonOut || !r.tty {
		return
	}
	fmt.Fprintln(os.Stderr)
}

func exportDetail(p archive.ExportProgress) string {
	var files int
	for _, tp := range p.PerType {
		files += len(tp.Completed)
	}
	return fmt.Sprintf("%d file(s) staged", files)
}

func importDetail(p archive.ImportProgress) string {
	var pending, applied int
	for _, tp := range p.PerType {
		pending += len(tp.Pending)
		applied += len(tp.Applied)
	}
	if applied > 0 {
		return fmt.Sprintf("%d item(s) applied", applied)
	}
	return fmt.Sprintf("%d item(s) pending", pending)
}
