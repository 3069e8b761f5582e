package irgen_test

import (
	"testing"

	"its-hmny.dev/hsc/pkg/ast"
	"its-hmny.dev/hsc/pkg/hstype"
	"its-hmny.dev/hsc/pkg/ir"
	"its-hmny.dev/hsc/pkg/irgen"
)

func TestIdentityFunction(t *testing.T) {
	reg := hstype.NewRegistry()
	u32 := reg.Get("u32")

	body := ast.NewNameRef(ast.Position{}, u32, "x")
	fd := ast.NewFunctionDef(ast.Position{}, reg.Function(nil, u32), "global.id",
		[]ast.Arg{{Type: u32, Name: "x"}}, u32, body)

	gen := irgen.NewGenerator(reg)
	prog, err := gen.Generate([]ast.Expr{fd})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var fn *ir.Function
	for i := range prog.Functions {
		if prog.Functions[i].Name == "global.id" {
			fn = &prog.Functions[i]
		}
	}
	if fn == nil {
		t.Fatal("expected a 'global.id' function in the generated program")
	}

	want := []ir.Instruction{
		ir.Inst(ir.LABEL, "global.id"),
		ir.Inst(ir.DEFINE, "arg_x", "[fp-4]"),
		ir.Inst(ir.LOADF, "R0", "4", "4"),
		ir.Inst(ir.MOV, "A0", "R0"),
		ir.Inst(ir.UNDEF, "arg_x"),
		ir.Inst(ir.RET),
	}

	if len(fn.Instructions) != len(want) {
		t.Fatalf("expected %d instructions, got %d: %+v", len(want), len(fn.Instructions), fn.Instructions)
	}
	for i, w := range want {
		if fn.Instructions[i] != w {
			t.Errorf("instruction %d: expected %+v, got %+v", i, w, fn.Instructions[i])
		}
	}
}

func TestWhileLoopLabels(t *testing.T) {
	reg := hstype.NewRegistry()
	u32 := reg.Get("u32")

	cond := ast.NewCompOp(ast.Position{}, u32, "<", ast.NewNameRef(ast.Position{}, u32, "i"), ast.NewNumericLiteral(ast.Position{}, u32, 10))
	body := ast.NewAssignment(ast.Position{}, u32, "=", ast.NewNameRef(ast.Position{}, u32, "i"),
		ast.NewBinaryOp(ast.Position{}, u32, "+", ast.NewNameRef(ast.Position{}, u32, "i"), ast.NewNumericLiteral(ast.Position{}, u32, 1)))
	loop := ast.NewWhileLoop(ast.Position{}, u32, cond, body)

	fd := ast.NewFunctionDef(ast.Position{}, reg.Function(nil, u32), "global.f", nil, u32, loop)

	gen := irgen.NewGenerator(reg)
	prog, err := gen.Generate([]ast.Expr{fd})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var fn *ir.Function
	for i := range prog.Functions {
		if prog.Functions[i].Name == "global.f" {
			fn = &prog.Functions[i]
		}
	}
	if fn == nil {
		t.Fatal("expected a 'global.f' function")
	}

	var sawHead, sawCmpz, sawBranch, sawEnd bool
	for _, inst := range fn.Instructions {
		switch inst.Op {
		case ir.LABEL:
			if inst.Args[0] == ".L0" {
				sawHead = true
			}
			if inst.Args[0] == ".E0" {
				sawEnd = true
			}
		case ir.CMPZB:
			if inst.Args[0] == "EQ" && inst.Args[2] == ".E0" {
				sawCmpz = true
			}
		case ir.BRANCH:
			if inst.Args[0] == "AL" && inst.Args[1] == ".L0" {
				sawBranch = true
			}
		}
	}

	if !sawHead || !sawCmpz || !sawBranch || !sawEnd {
		t.Errorf("expected loop-head/end labels and CMPZB/BRANCH around them, got %+v", fn.Instructions)
	}
}
