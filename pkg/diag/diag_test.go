package diag_test

import (
	"strings"
	"testing"

	"its-hmny.dev/hsc/pkg/diag"
)

func TestDiagnosticFormat(t *testing.T) {
	d := diag.New(diag.LevelError, "parser", "unexpected token ';'", 12, 4)

	got := d.Error()
	for _, want := range []string{"error:", "in parser:", "unexpected token ';'", "L12", "C4"} {
		if !strings.Contains(got, want) {
			t.Errorf("expected diagnostic %q to contain %q", got, want)
		}
	}
}

func TestSnippet(t *testing.T) {
	source := "fn main -> u32:\n  0\n;"

	out := diag.Snippet(source, 2, 3)
	if !strings.Contains(out, "0") {
		t.Errorf("expected snippet to include the offending line, got %q", out)
	}
	if !strings.Contains(out, "^") {
		t.Errorf("expected snippet to include a caret, got %q", out)
	}
}
