package parser

import (
	"fmt"
	"strconv"
	"strings"

	"its-hmny.dev/hsc/pkg/ast"
	"its-hmny.dev/hsc/pkg/diag"
	"its-hmny.dev/hsc/pkg/hstype"
	"its-hmny.dev/hsc/pkg/token"
)

// parseExpressionImpl switches on the leading token kind, covering every
// top-level production named in §4.3.
func (p *Parser) parseExpressionImpl() (ast.Expr, error) {
	switch {
	case p.at(token.Fn):
		return p.parseFunctionDef()
	case p.at(token.Int):
		return p.parseNumericLiteral()
	case p.at(token.Char):
		return p.parseCharLiteral()
	case p.at(token.Float):
		return p.parseFloatLiteral()
	case p.at(token.String):
		return p.parseStringLiteral()
	case p.at(token.Invoke):
		return p.parseInvoke()
	case p.at(token.LBracket):
		return p.parseRawArrayAccess()
	case p.at(token.LBrace):
		return p.parseBlock()
	case p.at(token.Asm):
		return p.parseAsmBlock()
	case p.at(token.If):
		return p.parseIfElse()
	case p.at(token.While):
		return p.parseWhileLoop()
	case p.at(token.Return):
		return p.parseReturn()
	case p.at(token.Array):
		return p.parseArrayLiteral()
	case p.at(token.Blob):
		return p.parseBlob()
	case p.at(token.Mut), p.at(token.Static), p.at(token.Const), p.at(token.Struct), p.at(token.Typedef):
		return p.parseVariableOrType()
	case p.at(token.Ident):
		return p.parseIdentLead()
	default:
		return nil, fmt.Errorf("line %d, col %d: unexpected token %q", p.cur().Line, p.cur().Column, p.cur().Text)
	}
}

// parseIdentLead disambiguates 'variable-def' from 'name-ref': if the
// leading identifier names a registered type, it's the start of a
// variable-def (or a bare type-expr if no name follows); otherwise it's a
// value reference.
func (p *Parser) parseIdentLead() (ast.Expr, error) {
	pos := p.here()
	if p.reg.Exists(p.cur().Text) {
		return p.parseVariableOrType()
	}
	name := p.advance().Text
	return ast.NewNameRef(pos, p.none(), name), nil
}

func (p *Parser) parseVariableOrType() (ast.Expr, error) {
	pos := p.here()
	t, err := p.parseType()
	if err != nil {
		return nil, err
	}
	if p.at(token.Ident) {
		name := p.advance().Text
		return ast.NewVariableDef(pos, p.reg.Pointer(t), name), nil
	}
	return ast.NewTypeExpr(pos, t), nil
}

// parseType collects modifiers, a base type, and trailing pointer stars,
// per §4.3's type-parsing rule.
func (p *Parser) parseType() (*hstype.Type, error) {
	mut, static := false, false

	for {
		switch {
		case p.at(token.Mut):
			p.advance()
			mut = true
		case p.at(token.Static):
			p.advance()
			static = true
		case p.at(token.Const):
			p.advance() // tracked as an ordinary (non-mut) type, matching the registry's 2-modifier model
		default:
			goto modifiersDone
		}
	}
modifiersDone:

	var base *hstype.Type
	switch {
	case p.at(token.Fn):
		p.advance()
		base = p.reg.Function(nil, p.reg.Get("none"))
	case p.at(token.Typedef):
		p.advance()
		target, err := p.parseType()
		if err != nil {
			return nil, err
		}
		aliasTok, err := p.expect(token.Ident)
		if err != nil {
			return nil, err
		}
		p.reg.TypeDef(aliasTok.Text, target.Signature())
		base = target
	case p.at(token.Struct):
		p.advance()
		nameTok, err := p.expect(token.Ident)
		if err != nil {
			return nil, err
		}
		base = p.reg.Get(nameTok.Text)
	case p.at(token.Ident):
		nameTok := p.advance()
		base = p.reg.Get(nameTok.Text)
	default:
		return nil, fmt.Errorf("line %d, col %d: expected a type, found %q", p.cur().Line, p.cur().Column, p.cur().Text)
	}

	if mut || static {
		base = p.reg.Modified(base, mut, static)
	}
	for p.at(token.Star) {
		p.advance()
		base = p.reg.Pointer(base)
	}
	return base, nil
}

// parseFunctionDef implements the 'fn [name]? [(arg-list)]? [-> type]? : body' grammar.
func (p *Parser) parseFunctionDef() (ast.Expr, error) {
	pos := p.here()
	p.advance() // 'fn'

	name := ""
	if p.at(token.Ident) {
		name = p.advance().Text
	}

	var args []ast.Arg
	if p.at(token.LParen) {
		p.advance()
		for !p.at(token.RParen) {
			argType, err := p.parseType()
			if err != nil {
				return nil, err
			}
			argNameTok, err := p.expect(token.Ident)
			if err != nil {
				return nil, err
			}
			args = append(args, ast.Arg{Type: argType, Name: argNameTok.Text})
			if p.at(token.Comma) {
				p.advance()
			}
		}
		if _, err := p.expect(token.RParen); err != nil {
			return nil, err
		}
	}

	var declaredReturn *hstype.Type
	if p.at(token.Arrow) {
		p.advance()
		t, err := p.parseType()
		if err != nil {
			return nil, err
		}
		declaredReturn = t
	}

	if _, err := p.expect(token.Colon); err != nil {
		return nil, err
	}

	body, err := p.parseExpression()
	if err != nil {
		return nil, err
	}

	if name == "" {
		name = p.nextAnon()
	}

	inferred := body.HsType()
	returnType := declaredReturn
	if returnType == nil {
		returnType = inferred
	}
	// A declared return type that disagrees with the body's inferred type is
	// a warning, never an error (§4.3).
	if declaredReturn != nil && !hstype.Eq(declaredReturn, inferred) {
		diag.Warn("parser", fmt.Sprintf("function %q declares return type %q but body infers %q",
			name, declaredReturn.Signature(), inferred.Signature()), pos.Line, pos.Column)
	}

	fields := make([]hstype.Field, len(args))
	for i, a := range args {
		fields[i] = hstype.Field{Name: a.Name, Type: a.Type}
	}
	fnType := p.reg.Function(fields, returnType)

	return ast.NewFunctionDef(pos, fnType, name, args, returnType, body), nil
}

func (p *Parser) parseNumericLiteral() (ast.Expr, error) {
	pos := p.here()
	tok := p.advance()
	v, err := parseUintLiteral(tok.Text)
	if err != nil {
		return nil, fmt.Errorf("line %d, col %d: %w", tok.Line, tok.Column, err)
	}
	return ast.NewNumericLiteral(pos, p.reg.Get("i32"), v), nil
}

func (p *Parser) parseFloatLiteral() (ast.Expr, error) {
	// hs's AST has no dedicated float-literal kind; the integral part is
	// kept as a numeric-literal (documented limitation, see design notes).
	pos := p.here()
	tok := p.advance()
	whole := strings.SplitN(tok.Text, ".", 2)[0]
	v, err := strconv.ParseUint(whole, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("line %d, col %d: malformed float literal %q", tok.Line, tok.Column, tok.Text)
	}
	return ast.NewNumericLiteral(pos, p.reg.Get("i32"), v), nil
}

func (p *Parser) parseCharLiteral() (ast.Expr, error) {
	pos := p.here()
	tok := p.advance()
	inner := strings.Trim(tok.Text, "'")
	v, err := decodeCharEscape(inner)
	if err != nil {
		return nil, fmt.Errorf("line %d, col %d: %w", tok.Line, tok.Column, err)
	}
	return ast.NewNumericLiteral(pos, p.reg.Get("char"), uint64(v)), nil
}

func (p *Parser) parseStringLiteral() (ast.Expr, error) {
	pos := p.here()
	tok := p.advance()
	text := unescapeString(strings.Trim(tok.Text, "\""))
	return ast.NewStringLiteral(pos, p.reg.Pointer(p.reg.Get("u8")), text), nil
}

func (p *Parser) parseInvoke() (ast.Expr, error) {
	pos := p.here()
	p.advance() // 'invoke'
	ptr, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	retType := p.none()
	if t := ptr.HsType(); t != nil && t.Tag == hstype.Function {
		retType = t.Return
	}
	return ast.NewInvoke(pos, retType, ptr), nil
}

// parseRawArrayAccess handles a leading '[' as raw memory access with base
// type 'none'.
func (p *Parser) parseRawArrayAccess() (ast.Expr, error) {
	pos := p.here()
	p.advance() // '['
	idx, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.RBracket); err != nil {
		return nil, err
	}
	base := ast.NewTypeExpr(pos, p.none())
	return ast.NewArrayAccess(pos, p.none(), base, idx), nil
}

func (p *Parser) parseBlock() (ast.Expr, error) {
	pos := p.here()
	p.advance() // '{'

	var body []ast.Expr
	for !p.at(token.RBrace) {
		e, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(token.Semi); err != nil {
			return nil, err
		}
		body = append(body, e)
	}
	if _, err := p.expect(token.RBrace); err != nil {
		return nil, err
	}

	t := p.none()
	if len(body) > 0 {
		t = body[len(body)-1].HsType()
	}
	return ast.NewExpressionBlock(pos, t, body), nil
}

func (p *Parser) parseIfElse() (ast.Expr, error) {
	pos := p.here()
	p.advance() // 'if'
	cond, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	then, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if p.at(token.Semi) {
		p.advance() // optional separator before a following 'else', e.g. 'if x return 1; else ...'
	}
	var els ast.Expr
	if p.at(token.Else) {
		p.advance()
		els, err = p.parseExpression()
		if err != nil {
			return nil, err
		}
	}
	return ast.NewIfElse(pos, then.HsType(), cond, then, els), nil
}

func (p *Parser) parseWhileLoop() (ast.Expr, error) {
	pos := p.here()
	p.advance() // 'while'
	cond, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	body, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	return ast.NewWhileLoop(pos, body.HsType(), cond, body), nil
}

func (p *Parser) parseReturn() (ast.Expr, error) {
	pos := p.here()
	p.advance() // 'return'
	if p.at(token.Semi) {
		return ast.NewReturn(pos, p.none(), nil), nil
	}
	val, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	return ast.NewReturn(pos, val.HsType(), val), nil
}

// parseArrayLiteral implements 'array TYPE [SIZE] { e1, e2, ... }'.
func (p *Parser) parseArrayLiteral() (ast.Expr, error) {
	pos := p.here()
	p.advance() // 'array'

	elemType, err := p.parseType()
	if err != nil {
		return nil, err
	}

	if _, err := p.expect(token.LBracket); err != nil {
		return nil, err
	}
	sizeTok, err := p.expect(token.Int)
	if err != nil {
		return nil, err
	}
	size, err := parseUintLiteral(sizeTok.Text)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.RBracket); err != nil {
		return nil, err
	}

	if _, err := p.expect(token.LBrace); err != nil {
		return nil, err
	}
	var elems []ast.Expr
	for !p.at(token.RBrace) {
		e, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		elems = append(elems, e)
		if p.at(token.Comma) {
			p.advance()
		}
	}
	if _, err := p.expect(token.RBrace); err != nil {
		return nil, err
	}

	return ast.NewArrayLiteral(pos, p.reg.Pointer(elemType), elemType, int(size), elems), nil
}

func (p *Parser) parseBlob() (ast.Expr, error) {
	pos := p.here()
	p.advance() // 'blob'
	tok, err := p.expect(token.String)
	if err != nil {
		return nil, err
	}
	filename := strings.Trim(tok.Text, "\"")
	return ast.NewBlob(pos, p.reg.Pointer(p.reg.Get("u8")), filename), nil
}

func (p *Parser) parseAsmBlock() (ast.Expr, error) {
	pos := p.here()
	p.advance() // 'asm'
	if _, err := p.expect(token.LBrace); err != nil {
		return nil, err
	}

	var parts []string
	depth := 1
	for depth > 0 {
		if p.at(token.EOF) {
			return nil, fmt.Errorf("line %d, col %d: unterminated asm block", pos.Line, pos.Column)
		}
		if p.at(token.LBrace) {
			depth++
		}
		if p.at(token.RBrace) {
			depth--
			if depth == 0 {
				p.advance()
				break
			}
		}
		parts = append(parts, p.advance().Text)
	}

	return ast.NewAsmBlock(pos, p.none(), strings.Join(parts, " ")), nil
}

// ----------------------------------------------------------------------------
// Literal decoding helpers

func parseUintLiteral(s string) (uint64, error) {
	switch {
	case strings.HasPrefix(s, "0x"):
		return strconv.ParseUint(s[2:], 16, 64)
	case strings.HasPrefix(s, "0b"):
		return strconv.ParseUint(s[2:], 2, 64)
	default:
		return strconv.ParseUint(s, 10, 64)
	}
}

func decodeCharEscape(s string) (byte, error) {
	if len(s) == 1 {
		return s[0], nil
	}
	if len(s) == 2 && s[0] == '\\' {
		switch s[1] {
		case 'n':
			return '\n', nil
		case 't':
			return '\t', nil
		case 'r':
			return '\r', nil
		case '0':
			return 0, nil
		case '\\':
			return '\\', nil
		case '\'':
			return '\'', nil
		}
	}
	return 0, fmt.Errorf("malformed char literal %q", s)
}

func unescapeString(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' && i+1 < len(s) {
			i++
			switch s[i] {
			case 'n':
				b.WriteByte('\n')
			case 't':
				b.WriteByte('\t')
			case 'r':
				b.WriteByte('\r')
			case '"':
				b.WriteByte('"')
			case '\\':
				b.WriteByte('\\')
			default:
				b.WriteByte(s[i])
			}
			continue
		}
		b.WriteByte(s[i])
	}
	return b.String()
}
