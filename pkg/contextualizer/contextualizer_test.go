package contextualizer

import (
	"strings"
	"testing"

	"its-hmny.dev/hsc/pkg/ast"
	"its-hmny.dev/hsc/pkg/hstype"
	"its-hmny.dev/hsc/pkg/lexer"
	"its-hmny.dev/hsc/pkg/parser"
)

func parseAndContextualize(t *testing.T, src string) []ast.Expr {
	t.Helper()
	toks, err := lexer.NewLexer(strings.NewReader(src)).Tokenize()
	if err != nil {
		t.Fatalf("lex error: %v", err)
	}
	reg := hstype.NewRegistry()
	program, err := parser.NewParser(toks, reg).ParseProgram()
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	if err := New().Run(program); err != nil {
		t.Fatalf("contextualize error: %v", err)
	}
	return program
}

func TestFunctionNameQualified(t *testing.T) {
	program := parseAndContextualize(t, `fn id(u32 x) -> u32: x;`)
	fn := program[0].(*ast.FunctionDef)
	if fn.Name != "<global>.id" {
		t.Errorf("got %q, want <global>.id", fn.Name)
	}
}

func TestArgumentResolvesToFunctionScope(t *testing.T) {
	program := parseAndContextualize(t, `fn id(u32 x) -> u32: x;`)
	fn := program[0].(*ast.FunctionDef)
	ref := fn.Body.(*ast.NameRef)
	if ref.Name != "<global>.id.x" {
		t.Errorf("got %q, want <global>.id.x", ref.Name)
	}
}

func TestGlobalVariableResolves(t *testing.T) {
	program := parseAndContextualize(t, "u32 counter;\nfn bump: counter = counter + 1;")
	fn := program[1].(*ast.FunctionDef)
	asg := fn.Body.(*ast.Assignment)
	ref := asg.Assignee.(*ast.NameRef)
	if ref.Name != "<global>.counter" {
		t.Errorf("got %q, want <global>.counter", ref.Name)
	}
}

func TestSequentialFunctionsDoNotLeakScope(t *testing.T) {
	program := parseAndContextualize(t, "fn a(u32 x) -> u32: x;\nfn b(u32 y) -> u32: y;")
	a := program[0].(*ast.FunctionDef)
	b := program[1].(*ast.FunctionDef)

	aRef := a.Body.(*ast.NameRef)
	bRef := b.Body.(*ast.NameRef)

	if aRef.Name != "<global>.a.x" {
		t.Errorf("got %q, want <global>.a.x", aRef.Name)
	}
	if bRef.Name != "<global>.b.y" {
		t.Errorf("got %q, want <global>.b.y", bRef.Name)
	}
}

func TestUnknownNameIsPrefixed(t *testing.T) {
	program := parseAndContextualize(t, `fn f: ghost;`)
	fn := program[0].(*ast.FunctionDef)
	ref := fn.Body.(*ast.NameRef)
	if ref.Name != "<unknown>.ghost" {
		t.Errorf("got %q, want <unknown>.ghost", ref.Name)
	}
}
