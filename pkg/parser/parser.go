// Package parser implements the Pratt-style recursive-descent parser
// described by the hs grammar: it consumes a token stream (pkg/token, as
// produced by pkg/lexer) and returns an ordered list of top-level
// pkg/ast.Expr nodes plus the populated pkg/hstype.Registry.
package parser

import (
	"fmt"

	"its-hmny.dev/hsc/pkg/ast"
	"its-hmny.dev/hsc/pkg/hstype"
	"its-hmny.dev/hsc/pkg/token"
)

// Parser walks a flat token slice with a single cursor, in the same spirit
// as the teacher's scope-stack-as-explicit-parameter style: no global
// mutable state beyond what's carried on the struct.
type Parser struct {
	toks []token.Token
	pos  int
	reg  *hstype.Registry
	anon int
}

func NewParser(toks []token.Token, reg *hstype.Registry) *Parser {
	return &Parser{toks: toks, reg: reg}
}

// ParseProgram parses every top-level expression until EOF.
func (p *Parser) ParseProgram() ([]ast.Expr, error) {
	var program []ast.Expr
	for !p.at(token.EOF) {
		e, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		if p.at(token.Semi) {
			p.advance()
		}
		program = append(program, e)
	}
	return program, nil
}

// ----------------------------------------------------------------------------
// Cursor helpers

func (p *Parser) cur() token.Token {
	if p.pos >= len(p.toks) {
		return token.Token{Kind: token.EOF}
	}
	return p.toks[p.pos]
}

func (p *Parser) at(k token.Kind) bool { return p.cur().Kind == k }

func (p *Parser) advance() token.Token {
	t := p.cur()
	if p.pos < len(p.toks) {
		p.pos++
	}
	return t
}

func (p *Parser) expect(k token.Kind) (token.Token, error) {
	if !p.at(k) {
		return token.Token{}, fmt.Errorf("line %d, col %d: expected token kind %d, found %q",
			p.cur().Line, p.cur().Column, k, p.cur().Text)
	}
	return p.advance(), nil
}

func (p *Parser) here() ast.Position {
	t := p.cur()
	return ast.Position{Line: t.Line, Column: t.Column, Length: len(t.Text)}
}

func (p *Parser) nextAnon() string {
	p.anon++
	return fmt.Sprintf("<anonymous_%d>", p.anon)
}

func (p *Parser) none() *hstype.Type { return p.reg.Get("none") }

// ----------------------------------------------------------------------------
// Top-level expression grammar

// parseExpression implements the §4.3 entry contract: parenthesized
// grouping, pre-unary operators, then the dispatch + right-side
// continuation loop.
func (p *Parser) parseExpression() (ast.Expr, error) {
	if p.at(token.LParen) {
		p.advance()
		inner, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(token.RParen); err != nil {
			return nil, err
		}
		return p.parseRhsLoop(inner)
	}

	if p.isPreUnary() {
		pos := p.here()
		op := p.advance().Text
		operand, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		return ast.NewUnaryOp(pos, operand.HsType(), op, operand, false), nil
	}

	lhs, err := p.parseExpressionImpl()
	if err != nil {
		return nil, err
	}
	return p.parseRhsLoop(lhs)
}

func (p *Parser) isPreUnary() bool {
	switch {
	case p.at(token.Bang), p.at(token.Tilde), p.at(token.Incr), p.at(token.Decr):
		return true
	case p.at(token.BinOp) && p.cur().Text == "-":
		return true
	}
	return false
}

func (p *Parser) parseRhsLoop(lhs ast.Expr) (ast.Expr, error) {
	for {
		next, continued, err := p.parseRhs(lhs)
		if err != nil {
			return nil, err
		}
		if !continued {
			return lhs, nil
		}
		lhs = next
	}
}

// parseRhs tests, in priority order, every right-side continuation that
// might apply to lhs, applying at most one per call.
func (p *Parser) parseRhs(lhs ast.Expr) (ast.Expr, bool, error) {
	pos := p.here()

	switch {
	case p.at(token.Incr) || p.at(token.Decr):
		op := p.advance().Text
		return ast.NewUnaryOp(pos, lhs.HsType(), op, lhs, true), true, nil

	case p.at(token.BinOp) || p.at(token.Star) || p.at(token.Amp):
		op := p.advance().Text
		rhs, err := p.parseExpression()
		if err != nil {
			return nil, false, err
		}
		return ast.NewBinaryOp(pos, lhs.HsType(), op, lhs, rhs), true, nil

	case p.at(token.CompOp):
		op := p.advance().Text
		rhs, err := p.parseExpression()
		if err != nil {
			return nil, false, err
		}
		return ast.NewCompOp(pos, p.reg.Get("i32"), op, lhs, rhs), true, nil

	case p.at(token.Assign):
		op := p.advance().Text
		rhs, err := p.parseExpression()
		if err != nil {
			return nil, false, err
		}
		return ast.NewAssignment(pos, rhs.HsType(), op, lhs, rhs), true, nil

	case p.at(token.LParen):
		p.advance()
		var args []ast.Expr
		for !p.at(token.RParen) {
			a, err := p.parseExpression()
			if err != nil {
				return nil, false, err
			}
			args = append(args, a)
			if p.at(token.Comma) {
				p.advance()
			}
		}
		if _, err := p.expect(token.RParen); err != nil {
			return nil, false, err
		}
		return ast.NewFunctionCall(pos, p.callReturnType(lhs), lhs, args), true, nil

	case p.at(token.LBracket):
		p.advance()
		idx, err := p.parseExpression()
		if err != nil {
			return nil, false, err
		}
		if _, err := p.expect(token.RBracket); err != nil {
			return nil, false, err
		}
		return ast.NewArrayAccess(pos, p.elementType(lhs), lhs, idx), true, nil
	}

	return lhs, false, nil
}

func (p *Parser) callReturnType(callee ast.Expr) *hstype.Type {
	if t := callee.HsType(); t != nil && t.Tag == hstype.Function {
		return t.Return
	}
	return p.none()
}

func (p *Parser) elementType(base ast.Expr) *hstype.Type {
	if t := base.HsType(); t != nil && t.Tag == hstype.Pointer {
		return t.Target
	}
	return p.none()
}
