// Package token defines the lexical categories produced by pkg/lexer and
// consumed by pkg/parser.
package token

type Kind int

const (
	EOF Kind = iota
	Ident
	Int
	Float
	Char
	String

	// Keywords
	Fn
	Return
	If
	Else
	While
	Mut
	Static
	Const
	Struct
	Type
	Typedef
	Invoke
	Array
	Blob
	Asm

	// Punctuation / operators
	LParen
	RParen
	LBrace
	RBrace
	LBracket
	RBracket
	Comma
	Semi
	Colon
	Dot
	Arrow
	Star
	Amp

	BinOp  // + - / % | ^ << >>
	CompOp // == != < > <= >=
	Assign // = += -= *= /= etc
	Incr   // ++
	Decr   // --
	Bang   // !
	Tilde  // ~
)

var keywords = map[string]Kind{
	"fn": Fn, "return": Return, "if": If, "else": Else, "while": While,
	"mut": Mut, "static": Static, "const": Const, "struct": Struct,
	"type": Type, "typedef": Typedef, "invoke": Invoke, "array": Array,
	"blob": Blob, "asm": Asm,
}

// Lookup returns the keyword Kind for text, or (Ident, false) if text is a
// plain identifier.
func Lookup(text string) (Kind, bool) {
	k, ok := keywords[text]
	if !ok {
		return Ident, false
	}
	return k, true
}

// Token is one lexical unit: category, literal text, and source position.
type Token struct {
	Kind   Kind
	Text   string
	Line   int
	Column int
}

func (t Token) String() string { return t.Text }
