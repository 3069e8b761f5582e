package parser

import (
	"strings"
	"testing"

	"its-hmny.dev/hsc/pkg/ast"
	"its-hmny.dev/hsc/pkg/hstype"
	"its-hmny.dev/hsc/pkg/lexer"
)

func parseSource(t *testing.T, src string) ([]ast.Expr, *hstype.Registry) {
	t.Helper()
	toks, err := lexer.NewLexer(strings.NewReader(src)).Tokenize()
	if err != nil {
		t.Fatalf("lex error: %v", err)
	}
	reg := hstype.NewRegistry()
	program, err := NewParser(toks, reg).ParseProgram()
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	return program, reg
}

func TestParseIdentityFunction(t *testing.T) {
	program, _ := parseSource(t, `fn id(u32 x) -> u32: x;`)
	if len(program) != 1 {
		t.Fatalf("got %d top-level exprs, want 1", len(program))
	}
	fn, ok := program[0].(*ast.FunctionDef)
	if !ok {
		t.Fatalf("got %T, want *ast.FunctionDef", program[0])
	}
	if fn.Name != "id" {
		t.Errorf("got name %q, want id", fn.Name)
	}
	if len(fn.Args) != 1 || fn.Args[0].Name != "x" {
		t.Fatalf("got args %+v, want one arg named x", fn.Args)
	}
	if _, ok := fn.Body.(*ast.NameRef); !ok {
		t.Fatalf("got body %T, want *ast.NameRef", fn.Body)
	}
}

func TestParseAnonymousFunction(t *testing.T) {
	program, _ := parseSource(t, `fn: 1;`)
	fn := program[0].(*ast.FunctionDef)
	if fn.Name != "<anonymous_1>" {
		t.Errorf("got name %q, want <anonymous_1>", fn.Name)
	}
}

func TestParseVariableDef(t *testing.T) {
	program, _ := parseSource(t, `u32 counter;`)
	vd, ok := program[0].(*ast.VariableDef)
	if !ok {
		t.Fatalf("got %T, want *ast.VariableDef", program[0])
	}
	if vd.Name != "counter" {
		t.Errorf("got name %q, want counter", vd.Name)
	}
	if vd.HsType().Tag != hstype.Pointer {
		t.Errorf("expected variable-def's type to be a pointer (storage address), got tag %v", vd.HsType().Tag)
	}
}

func TestParseWhileLoop(t *testing.T) {
	program, _ := parseSource(t, `while x { x = x - 1; };`)
	wl, ok := program[0].(*ast.WhileLoop)
	if !ok {
		t.Fatalf("got %T, want *ast.WhileLoop", program[0])
	}
	if _, ok := wl.Cond.(*ast.NameRef); !ok {
		t.Errorf("got cond %T, want *ast.NameRef", wl.Cond)
	}
	block, ok := wl.Body.(*ast.ExpressionBlock)
	if !ok {
		t.Fatalf("got body %T, want *ast.ExpressionBlock", wl.Body)
	}
	if len(block.Body) != 1 {
		t.Fatalf("got %d statements, want 1", len(block.Body))
	}
}

func TestParseIfElse(t *testing.T) {
	program, _ := parseSource(t, `if x return 1; else return 2;`)
	ie, ok := program[0].(*ast.IfElse)
	if !ok {
		t.Fatalf("got %T, want *ast.IfElse", program[0])
	}
	if ie.Else == nil {
		t.Fatal("expected non-nil else branch")
	}
}

func TestParseFunctionCall(t *testing.T) {
	program, _ := parseSource(t, `add(1, 2);`)
	call, ok := program[0].(*ast.FunctionCall)
	if !ok {
		t.Fatalf("got %T, want *ast.FunctionCall", program[0])
	}
	if len(call.Args) != 2 {
		t.Fatalf("got %d args, want 2", len(call.Args))
	}
}

func TestParseBinaryOpPrecedenceIsRightAssociative(t *testing.T) {
	program, _ := parseSource(t, `1 + 2 + 3;`)
	top, ok := program[0].(*ast.BinaryOp)
	if !ok {
		t.Fatalf("got %T, want *ast.BinaryOp", program[0])
	}
	if _, ok := top.Rhs.(*ast.BinaryOp); !ok {
		t.Errorf("expected right-associative nesting, got rhs %T", top.Rhs)
	}
}

func TestParsePointerType(t *testing.T) {
	program, _ := parseSource(t, `u32* p;`)
	vd := program[0].(*ast.VariableDef)
	// VariableDef's type is always a pointer to the declared type (storage
	// address); the declared type itself (u32*) is one level further in.
	if vd.HsType().Target.Tag != hstype.Pointer {
		t.Errorf("expected declared type to itself be a pointer, got tag %v", vd.HsType().Target.Tag)
	}
}

func TestParseStringLiteral(t *testing.T) {
	program, _ := parseSource(t, `"hello";`)
	sl, ok := program[0].(*ast.StringLiteral)
	if !ok {
		t.Fatalf("got %T, want *ast.StringLiteral", program[0])
	}
	if sl.Value != "hello" {
		t.Errorf("got %q, want hello", sl.Value)
	}
}

func TestParseAssignment(t *testing.T) {
	program, _ := parseSource(t, `x = 5;`)
	asg, ok := program[0].(*ast.Assignment)
	if !ok {
		t.Fatalf("got %T, want *ast.Assignment", program[0])
	}
	if asg.Op != "=" {
		t.Errorf("got op %q, want =", asg.Op)
	}
}
