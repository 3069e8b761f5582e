// Package diag implements the diagnostic/error-reporting conventions shared
// by every compilation stage: located warnings that don't abort the pipeline,
// and fatal errors that do, both rendered in a single user-facing format.
package diag

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

type Level string

const (
	LevelWarn  Level = "warning"
	LevelError Level = "error"
	LevelFatal Level = "fatal"
)

// Diagnostic is a located message produced by a pipeline stage. It satisfies
// the 'error' interface so it can also be returned and %w-wrapped like any
// other error in the codebase.
type Diagnostic struct {
	Level  Level
	Module string // e.g. "parser", "contextualizer", "hv2asm"
	Msg    string
	Line   int
	Col    int
}

func (d *Diagnostic) Error() string {
	return fmt.Sprintf("%s: in %s: %s (at L%d, C%d)", d.Level, d.Module, d.Msg, d.Line, d.Col)
}

// New builds a Diagnostic. col/line default to 0 when positional info isn't
// available (e.g. an assembler symbol-table error with no live cursor).
func New(level Level, module, msg string, line, col int) *Diagnostic {
	return &Diagnostic{Level: level, Module: module, Msg: msg, Line: line, Col: col}
}

// Warn prints (does not abort) a warning in the canonical format.
func Warn(module, msg string, line, col int) {
	fmt.Fprintln(os.Stderr, New(LevelWarn, module, msg, line, col).Error())
}

// Snippet renders the canonical two-line source excerpt with a caret
// pointing at (line, col), used when printing syntax/encoding errors against
// the original source text.
func Snippet(source string, line, col int) string {
	lines := strings.Split(source, "\n")
	if line < 1 || line > len(lines) {
		return ""
	}

	var b strings.Builder
	w := bufio.NewWriter(&b)
	fmt.Fprintf(w, "%5d | %s\n", line, lines[line-1])
	fmt.Fprintf(w, "      | %s^\n", strings.Repeat(" ", max(0, col-1)))
	w.Flush()
	return b.String()
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
