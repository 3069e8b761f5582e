// Package contextualizer implements the scope-resolution pass between
// parsing and IR generation: every definition's name is rewritten to
// "<scope>.<bare-name>", and every name-ref is resolved against the scope
// stack, warning (never erroring) on unknown or clashing names.
//
// Generalized from the teacher's pkg/jack/scopes.go ScopeTable (a
// stack-of-maps keyed by Jack's four fixed segment kinds) down to this
// language's two-tier discipline: a flat global scope plus one "current"
// function scope at a time, since hs has no nested lexical scoping beyond
// function bodies.
package contextualizer

import (
	"fmt"

	"its-hmny.dev/hsc/pkg/ast"
	"its-hmny.dev/hsc/pkg/diag"
	"its-hmny.dev/hsc/pkg/utils"
)

const globalScope = "<global>"

// ScopeTable tracks which bare names are visible in the global scope versus
// the function scope currently being walked. "Current scope" is carried as
// an explicit utils.Stack[string] rather than package-level state: hs only
// ever nests one function body deep (no nested lexical scoping), so the
// stack never holds more than two entries (global, current function), but
// it is still threaded explicitly per-call rather than read as a global.
type ScopeTable struct {
	global map[string]bool
	stack  utils.Stack[string]
	locals map[string]bool
}

func NewScopeTable() *ScopeTable {
	st := &ScopeTable{global: map[string]bool{}, locals: map[string]bool{}}
	st.stack.Push(globalScope)
	return st
}

func (st *ScopeTable) current() string {
	top, err := st.stack.Top()
	if err != nil {
		return globalScope
	}
	return top
}

func (st *ScopeTable) PushFunctionScope(qualifiedName string) {
	st.stack.Push(qualifiedName)
	st.locals = map[string]bool{}
}

func (st *ScopeTable) PopFunctionScope() {
	st.stack.Pop()
	st.locals = map[string]bool{}
}

func (st *ScopeTable) RegisterGlobal(bare string) { st.global[bare] = true }
func (st *ScopeTable) RegisterLocal(bare string)  { st.locals[bare] = true }

// Resolve returns the fully-qualified name for bare per the rule: prefer the
// current scope, fall back to global, else "<unknown>". It also reports
// whether bare is visible in BOTH scopes (a clash).
func (st *ScopeTable) Resolve(bare string) (qualified string, clash bool) {
	_, inLocal := st.locals[bare]
	_, inGlobal := st.global[bare]

	switch {
	case inLocal && inGlobal:
		return fmt.Sprintf("%s.%s", st.current(), bare), true
	case inLocal:
		return fmt.Sprintf("%s.%s", st.current(), bare), false
	case inGlobal:
		return fmt.Sprintf("%s.%s", globalScope, bare), false
	default:
		return fmt.Sprintf("<unknown>.%s", bare), false
	}
}

// Contextualizer walks a parsed program and rewrites names in place.
type Contextualizer struct {
	scopes *ScopeTable
}

func New() *Contextualizer {
	return &Contextualizer{scopes: NewScopeTable()}
}

// Run walks every top-level expression twice: first a registration pass
// collecting every global-scope definition's bare name (so forward
// references resolve), then a rewriting pass.
func (c *Contextualizer) Run(program []ast.Expr) error {
	for _, e := range program {
		c.registerTopLevel(e)
	}
	for _, e := range program {
		if err := c.walk(e, true); err != nil {
			return err
		}
	}
	return nil
}

func (c *Contextualizer) registerTopLevel(e ast.Expr) {
	switch n := e.(type) {
	case *ast.VariableDef:
		c.scopes.RegisterGlobal(n.Name)
	case *ast.FunctionDef:
		c.scopes.RegisterGlobal(n.Name)
	}
}

// walk performs a pre-order traversal, descending into children before
// rewriting the leaves of composite nodes, so a function body sees its own
// arguments rather than a same-named global.
func (c *Contextualizer) walk(e ast.Expr, global bool) error {
	switch n := e.(type) {
	case *ast.FunctionDef:
		qualified := fmt.Sprintf("%s.%s", globalScope, n.Name)
		c.scopes.PushFunctionScope(qualified)
		for _, a := range n.Args {
			c.scopes.RegisterLocal(a.Name)
		}
		if err := c.walk(n.Body, false); err != nil {
			return err
		}
		n.Name = qualified
		c.scopes.PopFunctionScope()
		return nil

	case *ast.VariableDef:
		if err := c.rewriteDef(&n.Name, global); err != nil {
			return err
		}
		return nil

	case *ast.NameRef:
		return c.rewriteRef(n)

	case *ast.BinaryOp:
		if err := c.walk(n.Lhs, global); err != nil {
			return err
		}
		return c.walk(n.Rhs, global)

	case *ast.CompOp:
		if err := c.walk(n.Lhs, global); err != nil {
			return err
		}
		return c.walk(n.Rhs, global)

	case *ast.UnaryOp:
		return c.walk(n.Operand, global)

	case *ast.Assignment:
		if err := c.walk(n.Value, global); err != nil {
			return err
		}
		return c.walk(n.Assignee, global)

	case *ast.ArrayAccess:
		if err := c.walk(n.Base, global); err != nil {
			return err
		}
		return c.walk(n.Index, global)

	case *ast.FunctionCall:
		if err := c.walk(n.Callee, global); err != nil {
			return err
		}
		for _, a := range n.Args {
			if err := c.walk(a, global); err != nil {
				return err
			}
		}
		return nil

	case *ast.Invoke:
		return c.walk(n.Pointer, global)

	case *ast.ExpressionBlock:
		for _, child := range n.Body {
			if err := c.walk(child, global); err != nil {
				return err
			}
		}
		return nil

	case *ast.IfElse:
		if err := c.walk(n.Cond, global); err != nil {
			return err
		}
		if err := c.walk(n.Then, global); err != nil {
			return err
		}
		if n.Else != nil {
			return c.walk(n.Else, global)
		}
		return nil

	case *ast.WhileLoop:
		if err := c.walk(n.Cond, global); err != nil {
			return err
		}
		return c.walk(n.Body, global)

	case *ast.Return:
		if n.Value != nil {
			return c.walk(n.Value, global)
		}
		return nil

	case *ast.ArrayLiteral:
		for _, elem := range n.Elements {
			if err := c.walk(elem, global); err != nil {
				return err
			}
		}
		return nil

	default:
		// Literals, type-exprs, blobs and asm-blocks carry no names to resolve.
		return nil
	}
}

func (c *Contextualizer) rewriteDef(name *string, global bool) error {
	bare := *name
	if global {
		c.scopes.RegisterGlobal(bare)
		*name = fmt.Sprintf("%s.%s", globalScope, bare)
		return nil
	}
	c.scopes.RegisterLocal(bare)
	*name = fmt.Sprintf("%s.%s", c.scopes.current(), bare)
	return nil
}

func (c *Contextualizer) rewriteRef(n *ast.NameRef) error {
	qualified, clash := c.scopes.Resolve(n.Name)
	pos := n.Pos()
	if clash {
		diag.Warn("contextualizer", fmt.Sprintf("clashing name %q visible in both current and global scope", n.Name), pos.Line, pos.Column)
	}
	if fmt.Sprintf("<unknown>.%s", n.Name) == qualified {
		diag.Warn("contextualizer", fmt.Sprintf("using undefined name %q", n.Name), pos.Line, pos.Column)
	}
	n.Name = qualified
	return nil
}
