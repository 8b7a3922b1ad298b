// Package output provides consistent CLI output formatting. When stdout is
// a terminal, results get aligned columns and human-readable sizes; when
// piped, each match prints as a bare path so the output composes with
// xargs and grep.
package output

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/mattn/go-isatty"

	"github.com/pathdex/pathdex/internal/query"
)

// Writer provides formatted output for the CLI.
type Writer struct {
	out io.Writer
	tty bool
}

// New creates a Writer, detecting whether out is a terminal.
func New(out io.Writer) *Writer {
	return &Writer{out: out, tty: IsTTY(out)}
}

// NewPlain creates a Writer that always uses pipe-friendly output.
func NewPlain(out io.Writer) *Writer {
	return &Writer{out: out}
}

// IsTTY checks if the writer is a terminal.
func IsTTY(w io.Writer) bool {
	if w == nil {
		return false
	}
	if f, ok := w.(*os.File); ok {
		return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	}
	return false
}

// Matches prints one result page.
// Errors from writing are intentionally ignored for console output.
func (w *Writer) Matches(res *query.Result) {
	if !w.tty {
		for _, m := range res.Matches {
			_, _ = fmt.Fprintln(w.out, m.Path)
		}
		return
	}

	tw := tabwriter.NewWriter(w.out, 0, 4, 2, ' ', 0)
	for _, m := range res.Matches {
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\n", m.Kind, humanSize(m.Size), m.Path)
	}
	_ = tw.Flush()

	if res.Total > len(res.Matches) {
		_, _ = fmt.Fprintf(w.out, "\n%d of %d matches shown (use --offset to page)\n",
			len(res.Matches), res.Total)
	}
}

// Status prints a status line, only when attached to a terminal.
func (w *Writer) Status(msg string) {
	if !w.tty {
		return
	}
	_, _ = fmt.Fprintln(w.out, msg)
}

// Statusf prints a formatted status line, only when attached to a terminal.
func (w *Writer) Statusf(format string, args ...any) {
	w.Status(fmt.Sprintf(format, args...))
}

// Errorf prints an error message regardless of terminal state.
func (w *Writer) Errorf(format string, args ...any) {
	_, _ = fmt.Fprintf(w.out, "error: "+format+"\n", args...)
}

// humanSize renders a byte count with a binary unit suffix.
func humanSize(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%dB", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f%ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
