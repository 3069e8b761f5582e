// Package lexer tokenizes hs source text using goparsec combinators, in the
// same style as the teacher's pkg/jack, pkg/vm and pkg/asm lexers: a
// package-level pc.NewAST, a set of token-level parser combinators, and a
// wrapper type honoring the PARSEC_DEBUG/EXPORT_AST/PRINT_AST env flags.
package lexer

import (
	"fmt"
	"io"
	"os"

	pc "github.com/prataprc/goparsec"

	"its-hmny.dev/hsc/pkg/token"
)

var ast = pc.NewAST("hs_program", 0)

var (
	pProgram = ast.ManyUntil("program", nil, ast.OrdChoice("item", nil, pComment, pToken), pc.End())

	pComment = ast.OrdChoice("comment", nil,
		ast.And("sl_comment", nil, pc.Atom("//", "//"), pc.Token(`(?m).*$`, "COMMENT")),
		ast.And("ml_comment", nil, pc.Token(`/\*[^*]*\*+(?:[^/*][^*]*\*+)*/`, "COMMENT")),
	)

	pToken = ast.OrdChoice("token", nil,
		pKeyword, pIdent, pFloat, pChar, pString, pInt, pPunct,
	)
)

var pKeyword = ast.OrdChoice("keyword", nil,
	pc.Atom("fn", "KW"), pc.Atom("return", "KW"), pc.Atom("if", "KW"), pc.Atom("else", "KW"),
	pc.Atom("while", "KW"), pc.Atom("mut", "KW"), pc.Atom("static", "KW"), pc.Atom("const", "KW"),
	pc.Atom("typedef", "KW"), pc.Atom("struct", "KW"), pc.Atom("type", "KW"), pc.Atom("invoke", "KW"),
	pc.Atom("array", "KW"), pc.Atom("blob", "KW"), pc.Atom("asm", "KW"),
)

var (
	pIdent  = pc.Token(`[A-Za-z_][0-9A-Za-z_]*`, "IDENT")
	pInt    = pc.Token(`0x[0-9a-fA-F]+|0b[01]+|[0-9]+`, "INT")
	pFloat  = pc.Token(`[0-9]+\.[0-9]+`, "FLOAT")
	pChar   = pc.Token(`'(\\.|[^'\\])'`, "CHAR")
	pString = pc.Token(`"(?:\\.|[^"\\])*"`, "STRING")
)

// pPunct covers every punctuation/operator atom, longest-match-first so that
// e.g. "==" is not picked up as two "=" tokens.
var pPunct = ast.OrdChoice("punct", nil,
	pc.Atom("++", "INCR"), pc.Atom("--", "DECR"), pc.Atom("->", "ARROW"),
	pc.Atom("==", "CMP"), pc.Atom("!=", "CMP"), pc.Atom("<=", "CMP"), pc.Atom(">=", "CMP"),
	pc.Atom("<<", "BINOP"), pc.Atom(">>", "BINOP"),
	pc.Atom("+=", "ASSIGN"), pc.Atom("-=", "ASSIGN"), pc.Atom("*=", "ASSIGN"), pc.Atom("/=", "ASSIGN"),
	pc.Atom("(", "LPAREN"), pc.Atom(")", "RPAREN"),
	pc.Atom("{", "LBRACE"), pc.Atom("}", "RBRACE"),
	pc.Atom("[", "LBRACKET"), pc.Atom("]", "RBRACKET"),
	pc.Atom(",", "COMMA"), pc.Atom(";", "SEMI"), pc.Atom(":", "COLON"), pc.Atom(".", "DOT"),
	pc.Atom("<", "CMP"), pc.Atom(">", "CMP"),
	pc.Atom("*", "STAR"), pc.Atom("&", "AMP"),
	pc.Atom("=", "ASSIGN"), pc.Atom("!", "BANG"), pc.Atom("~", "TILDE"),
	pc.Atom("+", "BINOP"), pc.Atom("-", "BINOP"), pc.Atom("/", "BINOP"),
	pc.Atom("%", "BINOP"), pc.Atom("|", "BINOP"), pc.Atom("^", "BINOP"),
)

// Lexer reads hs source text from reader and turns it into a flat token
// stream. Like the teacher's jack/vm/asm lexers, it goes through an
// intermediate goparsec AST (Text --> AST) before flattening it to the
// domain-level representation (AST --> []token.Token).
type Lexer struct{ reader io.Reader }

func NewLexer(r io.Reader) Lexer { return Lexer{reader: r} }

// Tokenize reads the full stream and returns its token sequence.
func (l Lexer) Tokenize() ([]token.Token, error) {
	content, err := io.ReadAll(l.reader)
	if err != nil {
		return nil, fmt.Errorf("cannot read from 'io.Reader': %s", err)
	}

	root, ok := l.fromSource(content)
	if !ok {
		return nil, fmt.Errorf("failed to tokenize input content")
	}

	return l.fromAST(root, content)
}

func (l Lexer) fromSource(source []byte) (pc.Queryable, bool) {
	if os.Getenv("PARSEC_DEBUG") != "" {
		ast.SetDebug()
	}

	root, _ := ast.Parsewith(pProgram, pc.NewScanner(source))

	if os.Getenv("EXPORT_AST") != "" {
		file, _ := os.Create(fmt.Sprintf("%s/debug.ast.dot", os.Getenv("DEBUG_FOLDER")))
		defer file.Close()
		file.Write([]byte(ast.Dotstring("\"hs AST\"")))
	}

	if os.Getenv("PRINT_AST") != "" {
		ast.Prettyprint()
	}

	return root, root != nil
}

// fromAST walks the "program" node's children (each either a "comment" or a
// "token" subtree) and flattens them into a []token.Token, re-deriving
// line/column by re-scanning source for each lexeme in sequence.
func (l Lexer) fromAST(root pc.Queryable, source []byte) ([]token.Token, error) {
	if root.GetName() != "program" {
		return nil, fmt.Errorf("expected node 'program', found %s", root.GetName())
	}

	tracker := newPosTracker(source)
	var tokens []token.Token

	for _, child := range root.GetChildren() {
		if child.GetName() == "comment" {
			tracker.advancePast(child.GetValue())
			continue
		}

		leaf := child
		for len(leaf.GetChildren()) > 0 {
			leaf = leaf.GetChildren()[0]
		}

		text := leaf.GetValue()
		line, col := tracker.advancePast(text)

		kind, err := classify(leaf.GetName(), text)
		if err != nil {
			return nil, err
		}
		tokens = append(tokens, token.Token{Kind: kind, Text: text, Line: line, Column: col})
	}

	tokens = append(tokens, token.Token{Kind: token.EOF, Line: tracker.line, Column: tracker.col})
	return tokens, nil
}

func classify(nodeName, text string) (token.Kind, error) {
	switch nodeName {
	case "KW":
		k, ok := token.Lookup(text)
		if !ok {
			return 0, fmt.Errorf("unrecognized keyword %q", text)
		}
		return k, nil
	case "IDENT":
		return token.Ident, nil
	case "INT":
		return token.Int, nil
	case "FLOAT":
		return token.Float, nil
	case "CHAR":
		return token.Char, nil
	case "STRING":
		return token.String, nil
	case "INCR":
		return token.Incr, nil
	case "DECR":
		return token.Decr, nil
	case "ARROW":
		return token.Arrow, nil
	case "CMP":
		return token.CompOp, nil
	case "BINOP":
		return token.BinOp, nil
	case "ASSIGN":
		return token.Assign, nil
	case "LPAREN":
		return token.LParen, nil
	case "RPAREN":
		return token.RParen, nil
	case "LBRACE":
		return token.LBrace, nil
	case "RBRACE":
		return token.RBrace, nil
	case "LBRACKET":
		return token.LBracket, nil
	case "RBRACKET":
		return token.RBracket, nil
	case "COMMA":
		return token.Comma, nil
	case "SEMI":
		return token.Semi, nil
	case "COLON":
		return token.Colon, nil
	case "DOT":
		return token.Dot, nil
	case "STAR":
		return token.Star, nil
	case "AMP":
		return token.Amp, nil
	case "BANG":
		return token.Bang, nil
	case "TILDE":
		return token.Tilde, nil
	default:
		return 0, fmt.Errorf("unrecognized token node %q (text %q)", nodeName, text)
	}
}
