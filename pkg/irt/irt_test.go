package irt_test

import (
	"strings"
	"testing"

	"its-hmny.dev/hsc/pkg/ir"
	"its-hmny.dev/hsc/pkg/irt"
)

func TestTranslateBasicOpcodes(t *testing.T) {
	prog := ir.Program{Functions: []ir.Function{{
		Name: "global.id",
		Instructions: []ir.Instruction{
			ir.Inst(ir.LABEL, "global.id"),
			ir.Inst(ir.DEFINE, "arg_x", "[fp-4]"),
			ir.Inst(ir.LOADF, "R0", "4", "4"),
			ir.Inst(ir.MOV, "A0", "R0"),
			ir.Inst(ir.UNDEF, "arg_x"),
			ir.Inst(ir.RET),
		},
	}}}

	out, err := irt.NewTranslator().Translate(prog)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, want := range []string{"global_id:", "load.l x0, [fp-4]", "move a0, x0", "ret r0"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected translated output to contain %q, got:\n%s", want, out)
		}
	}
}

func TestTranslateALUAndBranch(t *testing.T) {
	prog := ir.Program{Functions: []ir.Function{{Instructions: []ir.Instruction{
		ir.Inst(ir.ALU, "+", "R1", "R0"),
		ir.Inst(ir.BRANCH, "AL", ".L0"),
		ir.Inst(ir.CMPZB, "EQ", "R0", ".E0"),
	}}}}

	out, err := irt.NewTranslator().Translate(prog)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, want := range []string{"add.u x1, x1, x0", "b _L0", "beq x0, zero, _E0"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in output:\n%s", want, out)
		}
	}
}

func TestTranslateStringPool(t *testing.T) {
	prog := ir.Program{Functions: []ir.Function{{Instructions: []ir.Instruction{
		ir.Inst(ir.LABEL, "DS0"),
		ir.Inst(ir.DEFSTR, "hello"),
	}}}}

	out, err := irt.NewTranslator().Translate(prog)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !strings.Contains(out, "DS0:") || !strings.Contains(out, `.asciiz "hello"`) {
		t.Errorf("expected string pool emission, got:\n%s", out)
	}
}
