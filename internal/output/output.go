// Package output formats CLI results: status lines, ranked passages,
// answers and collection summaries. Color is used only when the target is
// a terminal.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"

	"github.com/Aman-CERP/openmc-assist/internal/retrieve"
	"github.com/Aman-CERP/openmc-assist/internal/store"
)

// Writer provides formatted output for the CLI.
type Writer struct {
	out      io.Writer
	useColor bool
	heading  lipgloss.Style
	label    lipgloss.Style
	dim      lipgloss.Style
	score    lipgloss.Style
}

// New creates a Writer. Color is enabled when out is a terminal and
// NO_COLOR is unset.
func New(out io.Writer) *Writer {
	return newWriter(out, isTerminal(out) && os.Getenv("NO_COLOR") == "")
}

// NewPlain creates a Writer that never emits color.
func NewPlain(out io.Writer) *Writer {
	return newWriter(out, false)
}

func newWriter(out io.Writer, color bool) *Writer {
	w := &Writer{out: out, useColor: color}
	if color {
		w.heading = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
		w.label = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
		w.dim = lipgloss.NewStyle().Foreground(lipgloss.Color("238"))
		w.score = lipgloss.NewStyle().Foreground(lipgloss.Color("220"))
	} else {
		plain := lipgloss.NewStyle()
		w.heading, w.label, w.dim, w.score = plain, plain, plain, plain
	}
	return w
}

func isTerminal(out io.Writer) bool {
	f, ok := out.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// Status prints a message with an icon. Write errors are ignored for
// console output.
func (w *Writer) Status(icon, msg string) {
	if icon != "" {
		_, _ = fmt.Fprintf(w.out, "%s %s\n", icon, msg)
	} else {
		_, _ = fmt.Fprintf(w.out, "   %s\n", msg)
	}
}

// Statusf prints a formatted status message.
func (w *Writer) Statusf(icon, format string, args ...any) {
	w.Status(icon, fmt.Sprintf(format, args...))
}

// Success prints a success message.
func (w *Writer) Success(msg string) {
	w.Status("✅", msg)
}

// Successf prints a formatted success message.
func (w *Writer) Successf(format string, args ...any) {
	w.Success(fmt.Sprintf(format, args...))
}

// Warning prints a warning message.
func (w *Writer) Warning(msg string) {
	w.Status("⚠️ ", msg)
}

// Warningf prints a formatted warning message.
func (w *Writer) Warningf(format string, args ...any) {
	w.Warning(fmt.Sprintf(format, args...))
}

// Error prints an error message.
func (w *Writer) Error(msg string) {
	w.Status("❌", msg)
}

// Errorf prints a formatted error message.
func (w *Writer) Errorf(format string, args ...any) {
	w.Error(fmt.Sprintf(format, args...))
}

// Newline prints an empty line.
func (w *Writer) Newline() {
	_, _ = fmt.Fprintln(w.out)
}

// Code prints content indented by two spaces, framed by blank lines.
func (w *Writer) Code(content string) {
	_, _ = fmt.Fprintln(w.out)
	for _, line := range strings.Split(content, "\n") {
		_, _ = fmt.Fprintf(w.out, "  %s\n", line)
	}
	_, _ = fmt.Fprintln(w.out)
}

// JSON prints v as indented JSON.
func (w *Writer) JSON(v any) error {
	enc := json.NewEncoder(w.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// Results prints ranked passages, most similar first.
func (w *Writer) Results(results []retrieve.Result) {
	if len(results) == 0 {
		w.Warning("No passages found. Has the collection been ingested?")
		return
	}
	for i, r := range results {
		_, _ = fmt.Fprintf(w.out, "%s %s\n",
			w.heading.Render(fmt.Sprintf("%d. %s › %s", i+1, r.Document, r.Section)),
			w.score.Render(fmt.Sprintf("(%.4f)", r.Similarity)))
		_, _ = fmt.Fprintln(w.out, w.dim.Render(r.Path))
		w.Code(r.Chunk)
	}
}

// Answer prints a generated answer followed by its sources.
func (w *Writer) Answer(text string, sources []retrieve.Result) {
	_, _ = fmt.Fprintln(w.out, strings.TrimSpace(text))
	if len(sources) == 0 {
		return
	}
	w.Newline()
	_, _ = fmt.Fprintln(w.out, w.label.Render("Sources:"))
	seen := make(map[string]bool, len(sources))
	for _, s := range sources {
		key := s.Document + "\x00" + s.Section
		if seen[key] {
			continue
		}
		seen[key] = true
		_, _ = fmt.Fprintf(w.out, "  - %s › %s %s\n", s.Document, s.Section, w.dim.Render("("+s.Path+")"))
	}
}

// Collections prints a table of collections and record counts.
func (w *Writer) Collections(storePath string, infos []store.CollectionInfo) {
	_, _ = fmt.Fprintf(w.out, "%s %s\n", w.label.Render("Store:"), storePath)
	if len(infos) == 0 {
		w.Warning("No collections. Run 'openmc-assist ingest' first.")
		return
	}

	width := len("COLLECTION")
	for _, info := range infos {
		width = max(width, len(info.Name))
	}
	_, _ = fmt.Fprintln(w.out, w.heading.Render(fmt.Sprintf("%-*s  %8s  %10s", width, "COLLECTION", "RECORDS", "DIMENSIONS")))
	for _, info := range infos {
		_, _ = fmt.Fprintf(w.out, "%-*s  %8d  %10d\n", width, info.Name, info.Count, info.Dimensions)
	}
}
