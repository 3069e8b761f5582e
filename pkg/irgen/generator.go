// Package irgen lowers a contextualized hs AST into the linear ir.Program
// representation, following the per-construct rules of the IR generation
// stage: one ir.Function per hs function definition, a final ir.Function
// holding only the trailing literal pool, and a synthetic entry function
// wrapping top-level code.
package irgen

import (
	"fmt"

	"its-hmny.dev/hsc/pkg/ast"
	"its-hmny.dev/hsc/pkg/diag"
	"its-hmny.dev/hsc/pkg/hstype"
	"its-hmny.dev/hsc/pkg/ir"
)

const entryLabel = "<ENTRY>"

type local struct {
	offset int
	typ    *hstype.Type
}

// Generator threads per-function scope state (locals, label counters)
// through a DFS over the AST, emitting into the current function's
// instruction list as it goes — mirrors the Lowerer struct's traversal in
// structure, generalized to hs's three-address IR rather than a segment/VM
// opcode pair.
type Generator struct {
	reg *hstype.Registry

	prog ir.Program
	cur  *ir.Function

	locals    map[string]local
	numLocals int
	numArgs   int

	labelCounter int

	strCounter   int
	arrCounter   int
	blobCounter  int
	pendingArr   []pendingArray
	pendingStr   []ir.Literal
	pendingBlob  []ir.Literal
}

type pendingArray struct {
	label    string
	elemType *hstype.Type
	elems    []ast.Expr
}

func NewGenerator(reg *hstype.Registry) *Generator {
	return &Generator{reg: reg}
}

// Generate lowers the full set of top-level expressions (the parser's
// output) into an ir.Program.
func (g *Generator) Generate(topLevel []ast.Expr) (ir.Program, error) {
	entry := &ir.Function{Name: entryLabel}
	g.prog.Functions = append(g.prog.Functions, ir.Function{})
	entryIdx := len(g.prog.Functions) - 1

	g.emitEntryPreamble(entry)

	var mainName string
	for _, e := range topLevel {
		g.cur = entry
		if fd, ok := e.(*ast.FunctionDef); ok && isMain(fd.Name) {
			mainName = fd.Name
		}
		if _, err := g.generateImpl(e, 0, false, false); err != nil {
			return ir.Program{}, err
		}
	}

	if mainName != "" {
		g.emitMainCall(entry, mainName)
	}
	entry.Instructions = append(entry.Instructions, ir.Inst(ir.DEBUG, "0xdeadc0de"))

	g.prog.Functions[entryIdx] = *entry
	g.emitTrailingPools()

	return g.prog, nil
}

func (g *Generator) emitEntryPreamble(entry *ir.Function) {
	entry.Instructions = append(entry.Instructions,
		ir.Inst(ir.ENTRY, entryLabel),
		ir.Inst(ir.ORG, "0x40000"),
		ir.Inst(ir.SECTION, ".text"),
		ir.Inst(ir.LABEL, entryLabel),
	)
}

// emitMainCall emits a call to mainName, the qualified name isMain matched
// during the generation pass (not a guessed literal: the contextualizer
// rewrites the top-level "main" to "<global>.main", and isMain also accepts
// "global.main", so the call always names the definition actually seen).
func (g *Generator) emitMainCall(entry *ir.Function, mainName string) {
	entry.Instructions = append(entry.Instructions,
		ir.Inst(ir.MOVI, "R0", mainName),
		ir.Inst(ir.PUSHR, ir.RegFP),
		ir.Inst(ir.MOV, ir.RegFP, ir.RegSP),
		ir.Inst(ir.ADDFP, "0"),
		ir.Inst(ir.CALLR, "R0"),
		ir.Inst(ir.MOV, "R0", ir.RegA0),
		ir.Inst(ir.MOV, ir.RegSP, ir.RegFP),
		ir.Inst(ir.POPR, ir.RegFP),
	)
}

func (g *Generator) emitTrailingPools() {
	g.prog.Functions = append(g.prog.Functions, ir.Function{Name: "<literal-pool>"})
	last := &g.prog.Functions[len(g.prog.Functions)-1]
	last.Instructions = append(last.Instructions, ir.Inst(ir.NOP), ir.Inst(ir.NOP), ir.Inst(ir.ALIGN, "4"))

	if len(g.pendingArr) > 0 || len(g.pendingStr) > 0 || len(g.pendingBlob) > 0 {
		last.Instructions = append(last.Instructions, ir.Inst(ir.SECTION, ".rodata"))
	}

	for _, pa := range g.pendingArr {
		last.Instructions = append(last.Instructions, ir.Inst(ir.LABEL, pa.label))
		for _, el := range pa.elems {
			val, err := compileTimeValue(el)
			if err != nil {
				// IR-generator errors on non-compile-time array elements print and
				// proceed, emitting a placeholder, per the error-handling policy.
				diag.Warn("irgen", err.Error(), el.Pos().Line, el.Pos().Column)
				val = "0"
			}
			last.Instructions = append(last.Instructions, ir.Inst(ir.DEFV, "l", val))
		}
		g.prog.Arrays = append(g.prog.Arrays, ir.Literal{Label: pa.label})
	}

	for _, s := range g.pendingStr {
		last.Instructions = append(last.Instructions, ir.Inst(ir.LABEL, s.Label), ir.Inst(ir.DEFSTR, s.String))
		g.prog.Strings = append(g.prog.Strings, s)
	}

	for _, b := range g.pendingBlob {
		last.Instructions = append(last.Instructions, ir.Inst(ir.LABEL, b.Label), ir.Inst(ir.DEFBLOB, b.Filename))
		g.prog.Blobs = append(g.prog.Blobs, b)
	}

	last.Instructions = append(last.Instructions, ir.Inst(ir.ALIGN, "4"))
}

// compileTimeValue accepts only the four expression kinds the generator
// considers compile-time evaluable for array-literal elements.
func compileTimeValue(e ast.Expr) (string, error) {
	switch v := e.(type) {
	case *ast.NumericLiteral:
		return fmt.Sprint(v.Value), nil
	case *ast.StringLiteral:
		return v.Value, nil
	case *ast.NameRef:
		return v.Name, nil
	case *ast.FunctionDef:
		return v.Name, nil
	default:
		return "", fmt.Errorf("array element is not a compile-time expression")
	}
}

func isMain(name string) bool {
	return name == "global.main" || name == "<global>.main"
}

func (g *Generator) nextLabel(prefix string) string {
	l := fmt.Sprintf(".%s%d", prefix, g.labelCounter)
	g.labelCounter++
	return l
}
