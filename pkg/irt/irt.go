// Package irt translates the ir.Program representation into hv2 assembly
// text. The translator is stateless over instructions: each opcode maps to a
// fixed text template (or a small resolver table for the few opcodes with
// textual variants, e.g. ALU/BRANCH/CMPR), mirroring the teacher's
// LocationResolver/IntrinsicResolver map-of-closures pattern generalized
// from VM-segment operations to hv2 mnemonic tables.
package irt

import (
	"fmt"
	"strings"

	"its-hmny.dev/hsc/pkg/ir"
)

// aluMnemonic maps an hs binary/unary operator spelling to its hv2 ALU
// mnemonic suffix.
var aluMnemonic = map[string]string{
	"+": "add.u", "-": "sub.u", "*": "mul.u", "/": "div.u",
	"&": "and.u", "|": "or.u", "^": "xor.u", "<<": "lsl.u", ">>": "lsr.u",
}

// branchMnemonic maps an IR condition code to its hv2 branch mnemonic.
var branchMnemonic = map[string]string{
	"EQ": "beq", "NE": "bne", "AL": "b",
}

// cmpMnemonic maps an hs comparison operator to its hv2 set-cond mnemonic.
var cmpMnemonic = map[string]string{
	"==": "seq", "!=": "sne", ">": "sgt", ">=": "sge", "<": "slt", "<=": "sle",
}

// regRename maps a symbolic IR register to its hv2 assembly spelling.
func regRename(r string) string {
	switch r {
	case ir.RegPC:
		return "pc"
	case ir.RegSP:
		return "sp"
	case ir.RegLR:
		return "lr"
	case ir.RegFP:
		return "fp"
	case ir.RegTR:
		return "tr"
	}
	if strings.HasPrefix(r, "A") && len(r) > 1 {
		return "a" + r[1:]
	}
	if strings.HasPrefix(r, "R") && len(r) > 1 {
		return "x" + r[1:]
	}
	return r
}

// mangleLabel applies the hv2 label-mangling rules: '<' -> '_', '>' deleted,
// '.' -> '_', '!' -> '.'.
func mangleLabel(l string) string {
	var b strings.Builder
	for _, c := range l {
		switch c {
		case '<':
			b.WriteByte('_')
		case '>':
			// deleted
		case '.':
			b.WriteByte('_')
		case '!':
			b.WriteByte('.')
		default:
			b.WriteRune(c)
		}
	}
	return b.String()
}

// Translator renders an ir.Program into hv2 assembly text.
type Translator struct{}

func NewTranslator() Translator { return Translator{} }

// Translate renders every function in order, followed by the literal pools
// already embedded as LABEL/DEFSTR/DEFV/DEFBLOB instructions in the last
// function (the generator places them there, see package irgen).
func (t Translator) Translate(prog ir.Program) (string, error) {
	var out strings.Builder
	for _, fn := range prog.Functions {
		for _, inst := range fn.Instructions {
			line, err := t.translateOne(inst)
			if err != nil {
				return "", fmt.Errorf("translating %s in %s: %w", inst.Op, fn.Name, err)
			}
			if line != "" {
				out.WriteString(line)
				out.WriteByte('\n')
			}
		}
	}
	return out.String(), nil
}

func (t Translator) translateOne(i ir.Instruction) (string, error) {
	a := i.Args
	switch i.Op {
	case ir.LABEL:
		return fmt.Sprintf("\n%s:", mangleLabel(a[0])), nil
	case ir.MOV:
		return fmt.Sprintf("\tmove %s, %s", regRename(a[0]), regRename(a[1])), nil
	case ir.MOVI:
		return fmt.Sprintf("\tli.w %s, !%s", regRename(a[0]), mangleLabel(a[1])), nil
	case ir.LOADR:
		return fmt.Sprintf("\tload.l %s, [%s]", regRename(a[0]), regRename(a[1])), nil
	case ir.LOADF:
		return fmt.Sprintf("\tload.l %s, [fp-%s]", regRename(a[0]), a[1]), nil
	case ir.STORE:
		return fmt.Sprintf("\tstore.l [%s], %s", regRename(a[0]), regRename(a[1])), nil
	case ir.LEAF:
		return fmt.Sprintf("\tlea.l %s, [fp-%s]", regRename(a[0]), a[1]), nil
	case ir.ADDSP:
		return fmt.Sprintf("\tadd.u sp, %s", a[0]), nil
	case ir.SUBSP:
		return fmt.Sprintf("\tsub.u sp, %s", a[0]), nil
	case ir.ADDFP:
		return fmt.Sprintf("\tadd.u fp, %s", a[0]), nil
	case ir.DECSP:
		return "\tsub.u sp, 4", nil
	case ir.CALLR:
		return fmt.Sprintf("\tcall.r %s", regRename(a[0])), nil
	case ir.PUSHR:
		return fmt.Sprintf("\tpush %s", regRename(a[0])), nil
	case ir.POPR:
		return fmt.Sprintf("\tpop %s", regRename(a[0])), nil
	case ir.RET:
		return "\tret r0", nil
	case ir.ALU:
		mnem, ok := aluMnemonic[a[0]]
		if !ok {
			return "", fmt.Errorf("unknown ALU operator %q", a[0])
		}
		return fmt.Sprintf("\t%s %s, %s, %s", mnem, regRename(a[1]), regRename(a[1]), regRename(a[2])), nil
	case ir.BRANCH:
		mnem, ok := branchMnemonic[a[0]]
		if !ok {
			return "", fmt.Errorf("unknown branch condition %q", a[0])
		}
		return fmt.Sprintf("\t%s %s", mnem, mangleLabel(a[1])), nil
	case ir.CMPZB:
		mnem, ok := branchMnemonic[a[0]]
		if !ok {
			return "", fmt.Errorf("unknown branch condition %q", a[0])
		}
		return fmt.Sprintf("\t%s %s, zero, %s", mnem, regRename(a[1]), mangleLabel(a[2])), nil
	case ir.CMPR:
		mnem, ok := cmpMnemonic[a[0]]
		if !ok {
			return "", fmt.Errorf("unknown comparison operator %q", a[0])
		}
		return fmt.Sprintf("\t%s %s, %s, %s", mnem, regRename(a[1]), regRename(a[1]), regRename(a[2])), nil
	case ir.NOP:
		return "\tnop r0", nil
	case ir.DEFSTR:
		return fmt.Sprintf("\t.asciiz \"%s\"", a[0]), nil
	case ir.DEFV:
		return fmt.Sprintf("\t.long %s", a[1]), nil
	case ir.DEFBLOB:
		return fmt.Sprintf("\t.blob %s", a[0]), nil
	case ir.SECTION:
		return fmt.Sprintf(".section %s", a[0]), nil
	case ir.ORG:
		return fmt.Sprintf(".org %s", a[0]), nil
	case ir.ENTRY:
		return fmt.Sprintf(".entry !%s", mangleLabel(a[0])), nil
	case ir.DEBUG:
		return fmt.Sprintf("\tdebug %s", a[0]), nil
	case ir.ALIGN:
		return fmt.Sprintf(".align %s", a[0]), nil
	case ir.PASSTHROUGH:
		return a[0], nil
	case ir.DEFINE, ir.UNDEF:
		// Compile-time bookkeeping only, no textual emission.
		return "", nil
	default:
		return "", fmt.Errorf("irt: unhandled opcode %q", i.Op)
	}
}
