// Package parser implements the Lox recursive-descent parser.
package parser

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/thomasrohde/treelox/pkg/ast"
	"github.com/thomasrohde/treelox/pkg/diagnostics"
	"github.com/thomasrohde/treelox/pkg/lexer"
	"github.com/thomasrohde/treelox/pkg/value"
)

// errSyntax unwinds to the nearest statement boundary once a diagnostic has
// been recorded.
var errSyntax = errors.New("syntax error")

const atEndPrefix = "at end: "

type parser struct {
	tokens []ast.Token
	pos    int
	diags  []diagnostics.Diagnostic
}

// Parse tokenizes source and parses it into a program. Syntax errors do not
// stop the parse: every statement is tried and all diagnostics are returned,
// in which case the program is nil.
func Parse(source, filename string) (*ast.Program, []diagnostics.Diagnostic) {
	p, diags := newParser(source, filename)
	if diags != nil {
		return nil, diags
	}
	prog := p.parseProgram()
	if len(p.diags) > 0 {
		return nil, p.diags
	}
	return prog, nil
}

// ParseExpression parses source as a single expression with nothing after it.
func ParseExpression(source, filename string) (ast.Expr, []diagnostics.Diagnostic) {
	p, diags := newParser(source, filename)
	if diags != nil {
		return nil, diags
	}
	expr, err := p.expression()
	if err == nil && !p.check(ast.EOF) {
		p.errorAt(p.current(), "Expect end of expression.")
	}
	if len(p.diags) > 0 {
		return nil, p.diags
	}
	return expr, nil
}

// IsIncomplete reports whether diags describe source that stopped in the middle
// of a construct, such as an open block or string, rather than source that is
// wrong. The REPL uses it to ask for another line.
func IsIncomplete(diags []diagnostics.Diagnostic) bool {
	for _, d := range diags {
		switch d.Code {
		case diagnostics.ELex:
			if d.Message == lexer.MsgUnterminatedString {
				return true
			}
		case diagnostics.EParse:
			if strings.HasPrefix(d.Message, atEndPrefix) {
				return true
			}
		}
	}
	return false
}

func newParser(source, filename string) (*parser, []diagnostics.Diagnostic) {
	tokens, err := lexer.Tokenize(source, filename)
	if err != nil {
		var le *lexer.LexError
		if errors.As(err, &le) {
			return nil, []diagnostics.Diagnostic{le.Diag}
		}
		return nil, []diagnostics.Diagnostic{diagnostics.MakeDiag(diagnostics.ELex, err.Error(), nil, "")}
	}
	return &parser{tokens: tokens}, nil
}

func (p *parser) current() ast.Token {
	if p.pos >= len(p.tokens) {
		return p.tokens[len(p.tokens)-1] // EOF
	}
	return p.tokens[p.pos]
}

func (p *parser) previous() ast.Token {
	if p.pos == 0 {
		return p.tokens[0]
	}
	return p.tokens[p.pos-1]
}

func (p *parser) check(typ ast.TokenType) bool {
	return p.current().Type == typ
}

func (p *parser) advance() ast.Token {
	tok := p.current()
	if p.pos < len(p.tokens)-1 {
		p.pos++
	}
	return tok
}

// match consumes the current token if it has one of the given types.
func (p *parser) match(types ...ast.TokenType) bool {
	for _, typ := range types {
		if p.check(typ) {
			p.advance()
			return true
		}
	}
	return false
}

func (p *parser) expect(typ ast.TokenType, msg string) (ast.Token, error) {
	if p.check(typ) {
		return p.advance(), nil
	}
	return ast.Token{}, p.errorAt(p.current(), msg)
}

// errorAt records a diagnostic located at tok and returns errSyntax.
func (p *parser) errorAt(tok ast.Token, msg string) error {
	where := fmt.Sprintf("at '%s': ", tok.Lexeme)
	if tok.Type == ast.EOF {
		where = atEndPrefix
	}
	span := tok.Span
	p.diags = append(p.diags, diagnostics.MakeDiag(diagnostics.EParse, where+msg, &span, ""))
	return errSyntax
}

func (p *parser) spanFromTo(start, end ast.Span) ast.Span {
	return ast.Span{
		File:      start.File,
		StartLine: start.StartLine,
		StartCol:  start.StartCol,
		EndLine:   end.EndLine,
		EndCol:    end.EndCol,
	}
}

// synchronize discards tokens until the start of the next statement.
func (p *parser) synchronize() {
	p.advance()
	for !p.check(ast.EOF) {
		if p.previous().Type == ast.Semicolon {
			return
		}
		switch p.current().Type {
		case ast.Class, ast.Fun, ast.Var, ast.For, ast.If, ast.While, ast.Print, ast.Return:
			return
		}
		p.advance()
	}
}

// --- Program ---

func (p *parser) parseProgram() *ast.Program {
	start := p.current().Span
	var stmts []ast.Stmt

	for !p.check(ast.EOF) {
		if stmt := p.declaration(); stmt != nil {
			stmts = append(stmts, stmt)
		}
	}

	return &ast.Program{
		Span:       p.spanFromTo(start, p.current().Span),
		Statements: stmts,
	}
}

// declaration parses one declaration, synchronizing and returning nil on error.
func (p *parser) declaration() ast.Stmt {
	var (
		stmt ast.Stmt
		err  error
	)
	if p.match(ast.Var) {
		stmt, err = p.varDeclaration()
	} else {
		stmt, err = p.statement()
	}
	if err != nil {
		p.synchronize()
		return nil
	}
	return stmt
}

func (p *parser) varDeclaration() (ast.Stmt, error) {
	start := p.previous().Span
	name, err := p.expect(ast.Identifier, "Expect variable name.")
	if err != nil {
		return nil, err
	}

	stmt := ast.NewVarStmt(name, nil)
	if p.match(ast.Equal) {
		init, err := p.expression()
		if err != nil {
			return nil, err
		}
		stmt = ast.NewVarStmt(name, init)
	}

	semi, err := p.expect(ast.Semicolon, "Expect ';' after variable declaration.")
	if err != nil {
		return nil, err
	}
	stmt.Span = p.spanFromTo(start, semi.Span)
	return stmt, nil
}

// --- Statements ---

func (p *parser) statement() (ast.Stmt, error) {
	tok := p.current()
	switch {
	case p.match(ast.Print):
		return p.printStatement()
	case p.match(ast.LeftBrace):
		return p.block()
	case p.match(ast.If):
		return p.ifStatement()
	case tok.Type.IsReserved():
		return nil, p.errorAt(tok, fmt.Sprintf("'%s' is not supported.", tok.Lexeme))
	}
	return p.expressionStatement()
}

func (p *parser) printStatement() (ast.Stmt, error) {
	start := p.previous().Span
	val, err := p.expression()
	if err != nil {
		return nil, err
	}
	semi, err := p.expect(ast.Semicolon, "Expect ';' after value.")
	if err != nil {
		return nil, err
	}
	stmt := ast.NewPrintStmt(val)
	stmt.Span = p.spanFromTo(start, semi.Span)
	return stmt, nil
}

func (p *parser) expressionStatement() (ast.Stmt, error) {
	start := p.current().Span
	expr, err := p.expression()
	if err != nil {
		return nil, err
	}
	semi, err := p.expect(ast.Semicolon, "Expect ';' after expression.")
	if err != nil {
		return nil, err
	}
	stmt := ast.NewExpressionStmt(expr)
	stmt.Span = p.spanFromTo(start, semi.Span)
	return stmt, nil
}

// block parses the statements of a block whose '{' was just consumed. Errors
// inside the block are recovered per statement; only a missing '}' fails it.
func (p *parser) block() (ast.Stmt, error) {
	start := p.previous().Span
	var stmts []ast.Stmt

	for !p.check(ast.RightBrace) && !p.check(ast.EOF) {
		if stmt := p.declaration(); stmt != nil {
			stmts = append(stmts, stmt)
		}
	}

	brace, err := p.expect(ast.RightBrace, "Expect '}' after block.")
	if err != nil {
		return nil, err
	}
	stmt := ast.NewBlockStmt(stmts...)
	stmt.Span = p.spanFromTo(start, brace.Span)
	return stmt, nil
}

func (p *parser) ifStatement() (ast.Stmt, error) {
	start := p.previous().Span
	if _, err := p.expect(ast.LeftParen, "Expect '(' after 'if'."); err != nil {
		return nil, err
	}
	cond, err := p.expression()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(ast.RightParen, "Expect ')' after if condition."); err != nil {
		return nil, err
	}

	thenBranch, err := p.statement()
	if err != nil {
		return nil, err
	}
	var elseBranch ast.Stmt
	if p.match(ast.Else) {
		elseBranch, err = p.statement()
		if err != nil {
			return nil, err
		}
	}

	stmt := ast.NewIfStmt(cond, thenBranch, elseBranch)
	stmt.Span = p.spanFromTo(start, p.previous().Span)
	return stmt, nil
}

// --- Expressions ---

func (p *parser) expression() (ast.Expr, error) {
	return p.assignment()
}

func (p *parser) assignment() (ast.Expr, error) {
	expr, err := p.or()
	if err != nil {
		return nil, err
	}

	if p.match(ast.Equal) {
		equals := p.previous()
		val, err := p.assignment()
		if err != nil {
			return nil, err
		}
		if v, ok := expr.(*ast.Variable); ok {
			return ast.NewAssign(v.Name, val), nil
		}
		// Reported without unwinding; the parse carries on from here.
		p.errorAt(equals, "Invalid assignment target.")
	}
	return expr, nil
}

func (p *parser) or() (ast.Expr, error) {
	expr, err := p.and()
	if err != nil {
		return nil, err
	}
	for p.match(ast.Or) {
		op := p.previous()
		right, err := p.and()
		if err != nil {
			return nil, err
		}
		expr = ast.NewLogical(expr, op, right)
	}
	return expr, nil
}

func (p *parser) and() (ast.Expr, error) {
	expr, err := p.equality()
	if err != nil {
		return nil, err
	}
	for p.match(ast.And) {
		op := p.previous()
		right, err := p.equality()
		if err != nil {
			return nil, err
		}
		expr = ast.NewLogical(expr, op, right)
	}
	return expr, nil
}

// binaryLevel parses a left-associative chain of next separated by ops.
func (p *parser) binaryLevel(next func() (ast.Expr, error), ops ...ast.TokenType) (ast.Expr, error) {
	expr, err := next()
	if err != nil {
		return nil, err
	}
	for p.match(ops...) {
		op := p.previous()
		right, err := next()
		if err != nil {
			return nil, err
		}
		expr = ast.NewBinary(expr, op, right)
	}
	return expr, nil
}

func (p *parser) equality() (ast.Expr, error) {
	return p.binaryLevel(p.comparison, ast.BangEqual, ast.EqualEqual)
}

func (p *parser) comparison() (ast.Expr, error) {
	return p.binaryLevel(p.term, ast.Greater, ast.GreaterEqual, ast.Less, ast.LessEqual)
}

func (p *parser) term() (ast.Expr, error) {
	return p.binaryLevel(p.factor, ast.Minus, ast.Plus)
}

func (p *parser) factor() (ast.Expr, error) {
	return p.binaryLevel(p.unary, ast.Slash, ast.Star)
}

func (p *parser) unary() (ast.Expr, error) {
	if p.match(ast.Bang, ast.Minus) {
		op := p.previous()
		right, err := p.unary()
		if err != nil {
			return nil, err
		}
		return ast.NewUnary(op, right), nil
	}
	return p.primary()
}

func (p *parser) primary() (ast.Expr, error) {
	tok := p.current()
	switch tok.Type {
	case ast.False:
		p.advance()
		return literal(tok, value.NewBool(false)), nil
	case ast.True:
		p.advance()
		return literal(tok, value.NewBool(true)), nil
	case ast.Nil:
		p.advance()
		return literal(tok, value.NewNil()), nil

	case ast.Number:
		p.advance()
		n, err := strconv.ParseFloat(tok.Lexeme, 64)
		if err != nil {
			return nil, p.errorAt(tok, "Invalid number literal.")
		}
		return literal(tok, value.NewNumber(n)), nil

	case ast.String:
		p.advance()
		text := strings.TrimSuffix(strings.TrimPrefix(tok.Lexeme, `"`), `"`)
		return literal(tok, value.NewString(text)), nil

	case ast.Identifier:
		p.advance()
		return ast.NewVariable(tok), nil

	case ast.LeftParen:
		p.advance()
		inner, err := p.expression()
		if err != nil {
			return nil, err
		}
		closing, err := p.expect(ast.RightParen, "Expect ')' after expression.")
		if err != nil {
			return nil, err
		}
		g := ast.NewGrouping(inner)
		g.Span = p.spanFromTo(tok.Span, closing.Span)
		return g, nil
	}

	if tok.Type.IsReserved() {
		return nil, p.errorAt(tok, fmt.Sprintf("'%s' is not supported.", tok.Lexeme))
	}
	return nil, p.errorAt(tok, "Expect expression.")
}

func literal(tok ast.Token, v value.Value) *ast.Literal {
	lit := ast.NewLiteral(v)
	lit.Span = tok.Span
	return lit
}
