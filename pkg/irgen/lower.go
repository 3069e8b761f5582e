package irgen

import (
	"fmt"

	"its-hmny.dev/hsc/pkg/ast"
	"its-hmny.dev/hsc/pkg/hstype"
	"its-hmny.dev/hsc/pkg/ir"
)

func regName(n int) string { return fmt.Sprintf("R%d", n) }

// generateImpl lowers a single expression into g.cur's instruction list.
// baseReg names the virtual register the value (or, if pointerFlag, the
// lvalue/address) must land in. It returns the number of registers consumed
// (always 1 for value-producing expressions, 0 for bare statements).
func (g *Generator) generateImpl(e ast.Expr, baseReg int, pointerFlag bool, insideFn bool) (int, error) {
	switch n := e.(type) {

	case *ast.FunctionDef:
		if err := g.lowerFunctionDef(n); err != nil {
			return 0, err
		}
		g.emit(ir.Inst(ir.MOVI, regName(baseReg), n.Name))
		return 1, nil

	case *ast.NumericLiteral:
		g.emit(ir.Inst(ir.MOVI, regName(baseReg), fmt.Sprint(n.Value)))
		return 1, nil

	case *ast.StringLiteral:
		label := g.internString(n.Value)
		g.emit(ir.Inst(ir.MOVI, regName(baseReg), label))
		return 1, nil

	case *ast.ArrayLiteral:
		label := g.internArray(n.ElemType, n.Elements)
		g.emit(ir.Inst(ir.MOVI, regName(baseReg), label))
		return 1, nil

	case *ast.Blob:
		label := g.internBlob(n.Filename)
		g.emit(ir.Inst(ir.MOVI, regName(baseReg), label))
		return 1, nil

	case *ast.NameRef:
		return g.lowerNameRef(n, baseReg, pointerFlag)

	case *ast.VariableDef:
		return g.lowerVariableDef(n, baseReg, insideFn)

	case *ast.IfElse:
		return 0, g.lowerIfElse(n, baseReg, insideFn)

	case *ast.WhileLoop:
		return 0, g.lowerWhileLoop(n, baseReg, insideFn)

	case *ast.Return:
		if n.Value != nil {
			if _, err := g.generateImpl(n.Value, baseReg, false, insideFn); err != nil {
				return 0, err
			}
		}
		return 0, nil

	case *ast.ExpressionBlock:
		if len(n.Body) == 0 {
			g.emit(ir.Inst(ir.NOP))
			return 0, nil
		}
		for _, child := range n.Body {
			if _, err := g.generateImpl(child, baseReg, false, insideFn); err != nil {
				return 0, err
			}
		}
		return 0, nil

	case *ast.FunctionCall:
		return g.lowerFunctionCall(n, baseReg, insideFn)

	case *ast.BinaryOp:
		return g.lowerBinaryOp(n, baseReg, insideFn)

	case *ast.CompOp:
		return g.lowerCompOp(n, baseReg, insideFn)

	case *ast.UnaryOp:
		return g.lowerUnaryOp(n, baseReg, pointerFlag, insideFn)

	case *ast.Assignment:
		return g.lowerAssignment(n, baseReg, insideFn)

	case *ast.ArrayAccess:
		return g.lowerArrayAccess(n, baseReg, pointerFlag, insideFn)

	case *ast.AsmBlock:
		g.emit(ir.Inst(ir.PASSTHROUGH, n.Text))
		return 0, nil

	case *ast.Invoke:
		if _, err := g.generateImpl(n.Pointer, baseReg, false, insideFn); err != nil {
			return 0, err
		}
		g.emit(ir.Inst(ir.CALLR, regName(baseReg)))
		return 1, nil

	case *ast.TypeExpr:
		return 0, nil

	default:
		return 0, fmt.Errorf("irgen: unhandled expression kind %T", e)
	}
}

func (g *Generator) emit(i ir.Instruction) {
	g.cur.Instructions = append(g.cur.Instructions, i)
}

func (g *Generator) lowerFunctionDef(fd *ast.FunctionDef) error {
	savedCur, savedLocals, savedNumLocals, savedNumArgs, savedLabels := g.cur, g.locals, g.numLocals, g.numArgs, g.labelCounter

	fn := &ir.Function{Name: fd.Name}
	g.cur = fn
	g.locals = map[string]local{}
	g.numArgs = len(fd.Args)
	g.numLocals = 0
	g.labelCounter = 0

	g.emit(ir.Inst(ir.LABEL, fd.Name))
	for k, arg := range fd.Args {
		pos := (k + 1) * 4
		g.emit(ir.Inst(ir.DEFINE, "arg_"+arg.Name, fmt.Sprintf("[fp-%d]", pos)))
		g.locals[arg.Name] = local{offset: pos, typ: arg.Type}
	}
	g.locals["<return_address>"] = local{offset: (g.numArgs + 1) * 4}

	if fd.Body != nil {
		if _, err := g.generateImpl(fd.Body, 0, false, true); err != nil {
			g.cur = savedCur
			return err
		}
	}

	g.emit(ir.Inst(ir.MOV, ir.RegA0, "R0"))
	if g.numLocals > 0 {
		g.emit(ir.Inst(ir.ADDSP, fmt.Sprint(g.numLocals*4)))
	}
	for _, arg := range fd.Args {
		g.emit(ir.Inst(ir.UNDEF, "arg_"+arg.Name))
	}
	g.emit(ir.Inst(ir.RET))

	g.prog.Functions = append(g.prog.Functions, *fn)

	g.cur, g.locals, g.numLocals, g.numArgs, g.labelCounter = savedCur, savedLocals, savedNumLocals, savedNumArgs, savedLabels
	return nil
}

func (g *Generator) lowerNameRef(n *ast.NameRef, baseReg int, pointerFlag bool) (int, error) {
	if loc, ok := g.locals[n.Name]; ok {
		if pointerFlag {
			g.emit(ir.Inst(ir.LEAF, regName(baseReg), fmt.Sprint(loc.offset), "4"))
		} else {
			g.emit(ir.Inst(ir.LOADF, regName(baseReg), fmt.Sprint(loc.offset), "4"))
		}
		return 1, nil
	}

	g.emit(ir.Inst(ir.MOVI, regName(baseReg), n.Name))
	if !pointerFlag {
		g.emit(ir.Inst(ir.LOADR, regName(baseReg), regName(baseReg), "4"))
	}
	return 1, nil
}

func (g *Generator) lowerVariableDef(n *ast.VariableDef, baseReg int, insideFn bool) (int, error) {
	if !insideFn {
		// Global variable-defs don't participate in the stack frame; they are
		// addressed purely by their mangled name (handled like a NameRef by
		// later stages once the symbol is defined at link time).
		return 0, nil
	}

	g.emit(ir.Inst(ir.DECSP))
	g.emit(ir.Inst(ir.MOV, regName(baseReg), ir.RegSP))
	offset := (g.numLocals + g.numArgs) * 4
	g.locals[n.Name] = local{offset: offset, typ: n.HsType()}
	g.numLocals++
	return 1, nil
}

func (g *Generator) lowerIfElse(n *ast.IfElse, baseReg int, insideFn bool) error {
	skip := g.nextLabel("E")

	if _, err := g.generateImpl(n.Cond, baseReg, false, insideFn); err != nil {
		return err
	}
	g.emit(ir.Inst(ir.CMPZB, "EQ", regName(baseReg), skip))

	if _, err := g.generateImpl(n.Then, baseReg, false, insideFn); err != nil {
		return err
	}

	if n.Else != nil {
		end := g.nextLabel("E")
		g.emit(ir.Inst(ir.BRANCH, "AL", end))
		g.emit(ir.Inst(ir.LABEL, skip))
		if _, err := g.generateImpl(n.Else, baseReg, false, insideFn); err != nil {
			return err
		}
		g.emit(ir.Inst(ir.LABEL, end))
		return nil
	}

	g.emit(ir.Inst(ir.LABEL, skip))
	return nil
}

func (g *Generator) lowerWhileLoop(n *ast.WhileLoop, baseReg int, insideFn bool) error {
	idx := g.labelCounter
	g.labelCounter++
	head := fmt.Sprintf(".L%d", idx)
	end := fmt.Sprintf(".E%d", idx)

	g.emit(ir.Inst(ir.LABEL, head))
	if _, err := g.generateImpl(n.Cond, baseReg, false, insideFn); err != nil {
		return err
	}
	g.emit(ir.Inst(ir.CMPZB, "EQ", regName(baseReg), end))

	if _, err := g.generateImpl(n.Body, baseReg, false, insideFn); err != nil {
		return err
	}
	g.emit(ir.Inst(ir.BRANCH, "AL", head))
	g.emit(ir.Inst(ir.LABEL, end))
	return nil
}

func (g *Generator) lowerFunctionCall(n *ast.FunctionCall, baseReg int, insideFn bool) (int, error) {
	if _, err := g.generateImpl(n.Callee, baseReg, true, insideFn); err != nil {
		return 0, err
	}
	g.emit(ir.Inst(ir.PUSHR, ir.RegFP))

	for i, arg := range n.Args {
		argReg := baseReg + 1 + i
		if _, err := g.generateImpl(arg, argReg, false, insideFn); err != nil {
			return 0, err
		}
		g.emit(ir.Inst(ir.PUSHR, regName(argReg)))
	}

	g.emit(ir.Inst(ir.MOV, ir.RegFP, ir.RegSP))
	g.emit(ir.Inst(ir.ADDFP, fmt.Sprint(len(n.Args)*4)))
	g.emit(ir.Inst(ir.CALLR, regName(baseReg)))
	g.emit(ir.Inst(ir.MOV, regName(baseReg), ir.RegA0))
	g.emit(ir.Inst(ir.MOV, ir.RegSP, ir.RegFP))
	g.emit(ir.Inst(ir.POPR, ir.RegFP))
	return 1, nil
}

func (g *Generator) lowerBinaryOp(n *ast.BinaryOp, baseReg int, insideFn bool) (int, error) {
	if _, err := g.generateImpl(n.Rhs, baseReg, false, insideFn); err != nil {
		return 0, err
	}
	if _, err := g.generateImpl(n.Lhs, baseReg+1, false, insideFn); err != nil {
		return 0, err
	}
	g.emit(ir.Inst(ir.ALU, n.Op, regName(baseReg+1), regName(baseReg)))
	g.emit(ir.Inst(ir.MOV, regName(baseReg), regName(baseReg+1)))
	return 1, nil
}

func (g *Generator) lowerCompOp(n *ast.CompOp, baseReg int, insideFn bool) (int, error) {
	if _, err := g.generateImpl(n.Lhs, baseReg, false, insideFn); err != nil {
		return 0, err
	}
	if _, err := g.generateImpl(n.Rhs, baseReg+1, false, insideFn); err != nil {
		return 0, err
	}
	g.emit(ir.Inst(ir.CMPR, n.Op, regName(baseReg), regName(baseReg+1)))
	return 1, nil
}

func (g *Generator) lowerUnaryOp(n *ast.UnaryOp, baseReg int, pointerFlag bool, insideFn bool) (int, error) {
	if _, err := g.generateImpl(n.Operand, baseReg, pointerFlag, insideFn); err != nil {
		return 0, err
	}
	g.emit(ir.Inst(ir.ALU, n.Op, regName(baseReg), regName(baseReg)))
	return 1, nil
}

func (g *Generator) lowerAssignment(n *ast.Assignment, baseReg int, insideFn bool) (int, error) {
	if _, err := g.generateImpl(n.Value, baseReg, false, insideFn); err != nil {
		return 0, err
	}
	if _, err := g.generateImpl(n.Assignee, baseReg+1, true, insideFn); err != nil {
		return 0, err
	}
	g.emit(ir.Inst(ir.STORE, regName(baseReg+1), regName(baseReg)))
	return 1, nil
}

func (g *Generator) lowerArrayAccess(n *ast.ArrayAccess, baseReg int, pointerFlag bool, insideFn bool) (int, error) {
	if _, ok := n.Base.(*ast.TypeExpr); ok {
		if _, err := g.generateImpl(n.Index, baseReg, false, insideFn); err != nil {
			return 0, err
		}
		if !pointerFlag {
			g.emit(ir.Inst(ir.LOADR, regName(baseReg), regName(baseReg)))
		}
		return 1, nil
	}

	sum := &ast.BinaryOp{}
	*sum = ast.BinaryOp{Op: "+", Lhs: n.Base, Rhs: n.Index}
	if _, err := g.lowerBinaryOp(sum, baseReg, insideFn); err != nil {
		return 0, err
	}
	if !pointerFlag {
		g.emit(ir.Inst(ir.LOADR, regName(baseReg), regName(baseReg)))
	}
	return 1, nil
}

func (g *Generator) internString(s string) string {
	label := fmt.Sprintf("DS%d", g.strCounter)
	g.strCounter++
	g.pendingStr = append(g.pendingStr, ir.Literal{Label: label, String: s})
	return label
}

func (g *Generator) internArray(elem *hstype.Type, elems []ast.Expr) string {
	label := fmt.Sprintf("DA%d", g.arrCounter)
	g.arrCounter++
	g.pendingArr = append(g.pendingArr, pendingArray{label: label, elemType: elem, elems: elems})
	return label
}

func (g *Generator) internBlob(filename string) string {
	label := fmt.Sprintf("DB%d", g.blobCounter)
	g.blobCounter++
	g.pendingBlob = append(g.pendingBlob, ir.Literal{Label: label, Filename: filename})
	return label
}
