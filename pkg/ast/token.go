package ast

import "fmt"

// TokenType identifies the type of a lexer token.
type TokenType int

const (
	// Punctuation
	LeftParen TokenType = iota
	RightParen
	LeftBrace
	RightBrace
	Comma
	Dot
	Semicolon

	// Operators
	Minus
	Plus
	Slash
	Star
	Bang
	BangEqual
	Equal
	EqualEqual
	Greater
	GreaterEqual
	Less
	LessEqual

	// Literals
	Identifier
	String
	Number

	// Keywords
	And
	Else
	False
	If
	Nil
	Or
	Print
	True
	Var

	// Reserved words the grammar does not support.
	Class
	Fun
	For
	Return
	Super
	This
	While

	EOF
)

var tokenNames = map[TokenType]string{
	LeftParen:    "LEFT_PAREN",
	RightParen:   "RIGHT_PAREN",
	LeftBrace:    "LEFT_BRACE",
	RightBrace:   "RIGHT_BRACE",
	Comma:        "COMMA",
	Dot:          "DOT",
	Semicolon:    "SEMICOLON",
	Minus:        "MINUS",
	Plus:         "PLUS",
	Slash:        "SLASH",
	Star:         "STAR",
	Bang:         "BANG",
	BangEqual:    "BANG_EQUAL",
	Equal:        "EQUAL",
	EqualEqual:   "EQUAL_EQUAL",
	Greater:      "GREATER",
	GreaterEqual: "GREATER_EQUAL",
	Less:         "LESS",
	LessEqual:    "LESS_EQUAL",
	Identifier:   "IDENTIFIER",
	String:       "STRING",
	Number:       "NUMBER",
	And:          "AND",
	Else:         "ELSE",
	False:        "FALSE",
	If:           "IF",
	Nil:          "NIL",
	Or:           "OR",
	Print:        "PRINT",
	True:         "TRUE",
	Var:          "VAR",
	Class:        "CLASS",
	Fun:          "FUN",
	For:          "FOR",
	Return:       "RETURN",
	Super:        "SUPER",
	This:         "THIS",
	While:        "WHILE",
	EOF:          "EOF",
}

func (t TokenType) String() string {
	if name, ok := tokenNames[t]; ok {
		return name
	}
	return fmt.Sprintf("TokenType(%d)", int(t))
}

// IsReserved reports whether t is a keyword of the full language that this
// grammar rejects.
func (t TokenType) IsReserved() bool {
	return t >= Class && t <= While
}

// Token is a single lexeme with its source location.
type Token struct {
	Type   TokenType
	Lexeme string
	Span   Span
}

// Line returns the line the token starts on.
func (t Token) Line() int {
	return t.Span.StartLine
}

func (t Token) String() string {
	return fmt.Sprintf("%s %q", t.Type, t.Lexeme)
}

// Ident builds an identifier token, mostly for constructing trees by hand.
func Ident(name string, line int) Token {
	return Token{Type: Identifier, Lexeme: name, Span: Span{StartLine: line, EndLine: line}}
}

// Op builds an operator token of the given type with its canonical lexeme.
func Op(typ TokenType, line int) Token {
	return Token{Type: typ, Lexeme: Lexeme(typ), Span: Span{StartLine: line, EndLine: line}}
}

var lexemes = map[TokenType]string{
	LeftParen:    "(",
	RightParen:   ")",
	LeftBrace:    "{",
	RightBrace:   "}",
	Comma:        ",",
	Dot:          ".",
	Semicolon:    ";",
	Minus:        "-",
	Plus:         "+",
	Slash:        "/",
	Star:         "*",
	Bang:         "!",
	BangEqual:    "!=",
	Equal:        "=",
	EqualEqual:   "==",
	Greater:      ">",
	GreaterEqual: ">=",
	Less:         "<",
	LessEqual:    "<=",
	And:          "and",
	Else:         "else",
	False:        "false",
	If:           "if",
	Nil:          "nil",
	Or:           "or",
	Print:        "print",
	True:         "true",
	Var:          "var",
	Class:        "class",
	Fun:          "fun",
	For:          "for",
	Return:       "return",
	Super:        "super",
	This:         "this",
	While:        "while",
}

// Lexeme returns the fixed source text of a punctuation, operator or keyword
// token type, or "" for types whose text varies.
func Lexeme(t TokenType) string {
	return lexemes[t]
}
