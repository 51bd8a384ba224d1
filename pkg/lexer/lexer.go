// Package lexer implements the Lox tokenizer.
package lexer

import (
	"fmt"

	"github.com/thomasrohde/treelox/pkg/ast"
	"github.com/thomasrohde/treelox/pkg/diagnostics"
)

// Messages for the two lexical errors. The parser compares against
// MsgUnterminatedString to tell an unfinished REPL entry from a broken one.
const (
	MsgUnexpectedChar     = "Unexpected character."
	MsgUnterminatedString = "Unterminated string."
)

var keywords = map[string]ast.TokenType{
	"and":    ast.And,
	"class":  ast.Class,
	"else":   ast.Else,
	"false":  ast.False,
	"for":    ast.For,
	"fun":    ast.Fun,
	"if":     ast.If,
	"nil":    ast.Nil,
	"or":     ast.Or,
	"print":  ast.Print,
	"return": ast.Return,
	"super":  ast.Super,
	"this":   ast.This,
	"true":   ast.True,
	"var":    ast.Var,
	"while":  ast.While,
}

type scanner struct {
	source   string
	filename string
	pos      int
	line     int
	col      int
}

func newScanner(source, filename string) *scanner {
	return &scanner{
		source:   source,
		filename: filename,
		line:     1,
		col:      1,
	}
}

func (s *scanner) atEnd() bool {
	return s.pos >= len(s.source)
}

func (s *scanner) peek() byte {
	if s.atEnd() {
		return 0
	}
	return s.source[s.pos]
}

func (s *scanner) peekAt(offset int) byte {
	p := s.pos + offset
	if p >= len(s.source) {
		return 0
	}
	return s.source[p]
}

func (s *scanner) advance() byte {
	ch := s.source[s.pos]
	s.pos++
	if ch == '\n' {
		s.line++
		s.col = 1
	} else {
		s.col++
	}
	return ch
}

// match consumes the next byte if it is want.
func (s *scanner) match(want byte) bool {
	if s.atEnd() || s.peek() != want {
		return false
	}
	s.advance()
	return true
}

func (s *scanner) span(startLine, startCol int) ast.Span {
	return ast.Span{
		File:      s.filename,
		StartLine: startLine,
		StartCol:  startCol,
		EndLine:   s.line,
		EndCol:    s.col,
	}
}

func (s *scanner) token(typ ast.TokenType, startPos, startLine, startCol int) ast.Token {
	return ast.Token{
		Type:   typ,
		Lexeme: s.source[startPos:s.pos],
		Span:   s.span(startLine, startCol),
	}
}

func (s *scanner) skipWhitespaceAndComments() {
	for !s.atEnd() {
		ch := s.peek()
		switch {
		case ch == ' ' || ch == '\t' || ch == '\r' || ch == '\n':
			s.advance()
		case ch == '/' && s.peekAt(1) == '/':
			for !s.atEnd() && s.peek() != '\n' {
				s.advance()
			}
		default:
			return
		}
	}
}

func isAlpha(ch byte) bool {
	return (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') || ch == '_'
}

func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}

func isAlphaNumeric(ch byte) bool {
	return isAlpha(ch) || isDigit(ch)
}

// scanString reads a double-quoted literal. Strings have no escapes and may
// span lines; the lexeme keeps the quotes.
func (s *scanner) scanString() (ast.Token, error) {
	startPos, startLine, startCol := s.pos, s.line, s.col
	s.advance() // opening "

	for !s.atEnd() && s.peek() != '"' {
		s.advance()
	}
	if s.atEnd() {
		return ast.Token{}, s.lexError(startLine, startCol, MsgUnterminatedString)
	}
	s.advance() // closing "
	return s.token(ast.String, startPos, startLine, startCol), nil
}

// scanNumber reads digits with an optional fraction. A trailing '.' with no
// digit after it is left for the next token.
func (s *scanner) scanNumber() ast.Token {
	startPos, startLine, startCol := s.pos, s.line, s.col

	for isDigit(s.peek()) {
		s.advance()
	}
	if s.peek() == '.' && isDigit(s.peekAt(1)) {
		s.advance()
		for isDigit(s.peek()) {
			s.advance()
		}
	}
	return s.token(ast.Number, startPos, startLine, startCol)
}

func (s *scanner) scanIdentOrKeyword() ast.Token {
	startPos, startLine, startCol := s.pos, s.line, s.col

	for isAlphaNumeric(s.peek()) {
		s.advance()
	}

	text := s.source[startPos:s.pos]
	if typ, ok := keywords[text]; ok {
		return s.token(typ, startPos, startLine, startCol)
	}
	return s.token(ast.Identifier, startPos, startLine, startCol)
}

func (s *scanner) lexError(line, col int, msg string) error {
	diag := diagnostics.MakeDiag(
		diagnostics.ELex,
		msg,
		&ast.Span{File: s.filename, StartLine: line, StartCol: col, EndLine: line, EndCol: col + 1},
		"",
	)
	return &LexError{Diag: diag}
}

// LexError wraps a diagnostic for lex errors.
type LexError struct {
	Diag diagnostics.Diagnostic
}

func (e *LexError) Error() string {
	return fmt.Sprintf("[line %d] Error: %s", e.Diag.Line(), e.Diag.Message)
}

var single = map[byte]ast.TokenType{
	'(': ast.LeftParen,
	')': ast.RightParen,
	'{': ast.LeftBrace,
	'}': ast.RightBrace,
	',': ast.Comma,
	'.': ast.Dot,
	'-': ast.Minus,
	'+': ast.Plus,
	';': ast.Semicolon,
	'*': ast.Star,
	'/': ast.Slash,
}

// twoChar maps a lead byte to its one- and two-byte forms, the second form
// taken when the lead is followed by '='.
var twoChar = map[byte][2]ast.TokenType{
	'!': {ast.Bang, ast.BangEqual},
	'=': {ast.Equal, ast.EqualEqual},
	'<': {ast.Less, ast.LessEqual},
	'>': {ast.Greater, ast.GreaterEqual},
}

func (s *scanner) nextToken() (ast.Token, error) {
	s.skipWhitespaceAndComments()

	if s.atEnd() {
		return ast.Token{Type: ast.EOF, Span: s.span(s.line, s.col)}, nil
	}

	ch := s.peek()
	startPos, startLine, startCol := s.pos, s.line, s.col

	if typ, ok := single[ch]; ok {
		s.advance()
		return s.token(typ, startPos, startLine, startCol), nil
	}

	if forms, ok := twoChar[ch]; ok {
		s.advance()
		if s.match('=') {
			return s.token(forms[1], startPos, startLine, startCol), nil
		}
		return s.token(forms[0], startPos, startLine, startCol), nil
	}

	switch {
	case isDigit(ch):
		return s.scanNumber(), nil
	case ch == '"':
		return s.scanString()
	case isAlpha(ch):
		return s.scanIdentOrKeyword(), nil
	}

	return ast.Token{}, s.lexError(startLine, startCol, MsgUnexpectedChar)
}

// Tokenize breaks source code into a slice of tokens ending with EOF. It stops
// at the first lexical error.
func Tokenize(source, filename string) ([]ast.Token, error) {
	s := newScanner(source, filename)
	var tokens []ast.Token

	for {
		tok, err := s.nextToken()
		if err != nil {
			return nil, err
		}
		tokens = append(tokens, tok)
		if tok.Type == ast.EOF {
			break
		}
	}

	return tokens, nil
}
