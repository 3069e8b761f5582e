// Package ast defines the polymorphic expression tree produced by the parser:
// every hs construct, from a numeric literal to a whole function definition,
// is an expression and carries a source position.
package ast

import "its-hmny.dev/hsc/pkg/hstype"

// Position locates the first token that produced a node, for diagnostics.
type Position struct {
	Line, Column, Length int
}

// Expr is implemented by every node kind listed below. HsType is the type
// the expression produces when evaluated; for a VariableDef this is a
// pointer to the declared type (the storage address), matching the
// 'definition evaluates to its own lvalue' invariant.
type Expr interface {
	Pos() Position
	HsType() *hstype.Type
}

type base struct {
	Position
	Type *hstype.Type
}

func (b base) Pos() Position        { return b.Position }
func (b base) HsType() *hstype.Type { return b.Type }

// ----------------------------------------------------------------------------
// Literals

type NumericLiteral struct {
	base
	Value uint64
}

type StringLiteral struct {
	base
	Value string
}

type ArrayLiteral struct {
	base
	ElemType *hstype.Type
	Size     int
	Elements []Expr
}

type Blob struct {
	base
	Filename string
}

// ----------------------------------------------------------------------------
// Names and types

type NameRef struct {
	base
	Name string // rewritten in place by the contextualizer to <scope>.<bare>
}

type TypeExpr struct {
	base
}

// ----------------------------------------------------------------------------
// Definitions

type VariableDef struct {
	base
	Name string
}

type Arg struct {
	Type *hstype.Type
	Name string
}

type FunctionDef struct {
	base
	Name       string
	Args       []Arg
	ReturnType *hstype.Type
	Body       Expr
}

// ----------------------------------------------------------------------------
// Operators

type UnaryOp struct {
	base
	Op      string
	Operand Expr
	Post    bool
}

type BinaryOp struct {
	base
	Op       string
	Lhs, Rhs Expr
}

type CompOp struct {
	base
	Op       string // ==, !=, <, <=, >, >=
	Lhs, Rhs Expr
}

type Assignment struct {
	base
	Op       string // =, +=, -=, ...
	Assignee Expr
	Value    Expr
}

type ArrayAccess struct {
	base
	Base  Expr // either a value-producing expression or a TypeExpr
	Index Expr
}

// ----------------------------------------------------------------------------
// Calls

type FunctionCall struct {
	base
	Callee Expr
	Args   []Expr
}

type Invoke struct {
	base
	Pointer Expr
}

// ----------------------------------------------------------------------------
// Control flow and blocks

type ExpressionBlock struct {
	base
	Body []Expr
}

type IfElse struct {
	base
	Cond Expr
	Then Expr
	Else Expr // nil if absent
}

type WhileLoop struct {
	base
	Cond Expr
	Body Expr
}

type Return struct {
	base
	Value Expr // nil for a bare 'return;'
}

type AsmBlock struct {
	base
	Text string
}

// ----------------------------------------------------------------------------
// Constructors (set position + type in one place, matching the parser's
// invariant that HsType() is always populated before the parser returns)

func NewNumericLiteral(p Position, t *hstype.Type, v uint64) *NumericLiteral {
	return &NumericLiteral{base{p, t}, v}
}

func NewStringLiteral(p Position, t *hstype.Type, v string) *StringLiteral {
	return &StringLiteral{base{p, t}, v}
}

func NewNameRef(p Position, t *hstype.Type, name string) *NameRef {
	return &NameRef{base{p, t}, name}
}

func NewTypeExpr(p Position, t *hstype.Type) *TypeExpr {
	return &TypeExpr{base{p, t}}
}

func NewVariableDef(p Position, t *hstype.Type, name string) *VariableDef {
	return &VariableDef{base{p, t}, name}
}

func NewFunctionDef(p Position, t *hstype.Type, name string, args []Arg, ret *hstype.Type, body Expr) *FunctionDef {
	return &FunctionDef{base{p, t}, name, args, ret, body}
}

func NewUnaryOp(p Position, t *hstype.Type, op string, operand Expr, post bool) *UnaryOp {
	return &UnaryOp{base{p, t}, op, operand, post}
}

func NewBinaryOp(p Position, t *hstype.Type, op string, lhs, rhs Expr) *BinaryOp {
	return &BinaryOp{base{p, t}, op, lhs, rhs}
}

func NewCompOp(p Position, t *hstype.Type, op string, lhs, rhs Expr) *CompOp {
	return &CompOp{base{p, t}, op, lhs, rhs}
}

func NewAssignment(p Position, t *hstype.Type, op string, assignee, value Expr) *Assignment {
	return &Assignment{base{p, t}, op, assignee, value}
}

func NewArrayAccess(p Position, t *hstype.Type, base_ Expr, index Expr) *ArrayAccess {
	return &ArrayAccess{base{p, t}, base_, index}
}

func NewFunctionCall(p Position, t *hstype.Type, callee Expr, args []Expr) *FunctionCall {
	return &FunctionCall{base{p, t}, callee, args}
}

func NewInvoke(p Position, t *hstype.Type, ptr Expr) *Invoke {
	return &Invoke{base{p, t}, ptr}
}

func NewExpressionBlock(p Position, t *hstype.Type, body []Expr) *ExpressionBlock {
	return &ExpressionBlock{base{p, t}, body}
}

func NewIfElse(p Position, t *hstype.Type, cond, then, els Expr) *IfElse {
	return &IfElse{base{p, t}, cond, then, els}
}

func NewWhileLoop(p Position, t *hstype.Type, cond, body Expr) *WhileLoop {
	return &WhileLoop{base{p, t}, cond, body}
}

func NewReturn(p Position, t *hstype.Type, value Expr) *Return {
	return &Return{base{p, t}, value}
}

func NewArrayLiteral(p Position, t *hstype.Type, elem *hstype.Type, size int, elems []Expr) *ArrayLiteral {
	return &ArrayLiteral{base{p, t}, elem, size, elems}
}

func NewBlob(p Position, t *hstype.Type, filename string) *Blob {
	return &Blob{base{p, t}, filename}
}

func NewAsmBlock(p Position, t *hstype.Type, text string) *AsmBlock {
	return &AsmBlock{base{p, t}, text}
}
