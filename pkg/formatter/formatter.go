// Package formatter implements the Lox source code formatter.
package formatter

import (
	"strings"

	"github.com/samber/lo"

	"github.com/thomasrohde/treelox/pkg/ast"
	"github.com/thomasrohde/treelox/pkg/value"
)

const indent = "  "

// Binding strength of each expression form (higher = tighter binding).
const (
	precAssign = iota + 1
	precOr
	precAnd
	precEquality
	precComparison
	precTerm
	precFactor
	precUnary
	precPrimary
)

var binaryPrecedence = map[ast.TokenType]int{
	ast.EqualEqual: precEquality, ast.BangEqual: precEquality,
	ast.Greater: precComparison, ast.GreaterEqual: precComparison,
	ast.Less: precComparison, ast.LessEqual: precComparison,
	ast.Plus: precTerm, ast.Minus: precTerm,
	ast.Star: precFactor, ast.Slash: precFactor,
}

func precedence(e ast.Expr) int {
	switch expr := e.(type) {
	case *ast.Assign:
		return precAssign
	case *ast.Logical:
		if expr.Operator.Type == ast.Or {
			return precOr
		}
		return precAnd
	case *ast.Binary:
		return binaryPrecedence[expr.Operator.Type]
	case *ast.Unary:
		return precUnary
	}
	return precPrimary
}

// operand formats child, parenthesized when it binds looser than parent allows.
// Binary operators are left-associative, so a right operand of equal strength
// is parenthesized too.
func operand(child ast.Expr, parentPrec int, isRight bool) string {
	out := formatExpr(child)
	childPrec := precedence(child)
	if childPrec < parentPrec || (isRight && childPrec == parentPrec && parentPrec != precAssign) {
		return "(" + out + ")"
	}
	return out
}

// Format pretty-prints a Lox program back to source code. Comments are not
// part of the tree and are lost; see HasComments.
func Format(program *ast.Program) string {
	if program == nil || len(program.Statements) == 0 {
		return ""
	}
	lines := lo.Map(program.Statements, func(s ast.Stmt, _ int) string {
		return formatStmt(s, 0)
	})
	return strings.Join(lines, "\n") + "\n"
}

// HasComments checks if a source string contains Lox comments ("//" outside a
// string literal).
func HasComments(source string) bool {
	inString := false
	for i := 0; i < len(source); i++ {
		switch {
		case source[i] == '"':
			inString = !inString
		case !inString && source[i] == '/' && i+1 < len(source) && source[i+1] == '/':
			return true
		}
	}
	return false
}

func formatStmt(s ast.Stmt, depth int) string {
	return strings.Repeat(indent, depth) + formatBody(s, depth)
}

// formatBody formats s without its leading indentation. Multi-line forms close
// at depth.
func formatBody(s ast.Stmt, depth int) string {
	switch stmt := s.(type) {
	case *ast.ExpressionStmt:
		return formatExpr(stmt.Expr) + ";"
	case *ast.PrintStmt:
		return "print " + formatExpr(stmt.Expr) + ";"
	case *ast.VarStmt:
		if init, ok := stmt.Initializer.Get(); ok {
			return "var " + stmt.Name.Lexeme + " = " + formatExpr(init) + ";"
		}
		return "var " + stmt.Name.Lexeme + ";"
	case *ast.BlockStmt:
		return formatBlock(stmt.Statements, depth)
	case *ast.IfStmt:
		out := "if (" + formatExpr(stmt.Condition) + ") "
		elseBranch, hasElse := stmt.Else.Get()
		then := stmt.Then
		// An else-less inner if would capture our else when reparsed.
		if inner, ok := then.(*ast.IfStmt); ok && hasElse && inner.Else.IsAbsent() {
			then = ast.NewBlockStmt(inner)
		}
		out += formatBody(then, depth)
		if hasElse {
			out += " else " + formatBody(elseBranch, depth)
		}
		return out
	}
	return ""
}

func formatBlock(stmts []ast.Stmt, depth int) string {
	if len(stmts) == 0 {
		return "{}"
	}
	lines := lo.Map(stmts, func(s ast.Stmt, _ int) string {
		return formatStmt(s, depth+1)
	})
	return "{\n" + strings.Join(lines, "\n") + "\n" + strings.Repeat(indent, depth) + "}"
}

func formatExpr(e ast.Expr) string {
	switch expr := e.(type) {
	case *ast.Literal:
		return formatLiteral(expr.Value)
	case *ast.Grouping:
		return "(" + formatExpr(expr.Expr) + ")"
	case *ast.Variable:
		return expr.Name.Lexeme
	case *ast.Assign:
		return expr.Name.Lexeme + " = " + operand(expr.Value, precAssign, true)
	case *ast.Unary:
		return expr.Operator.Lexeme + operand(expr.Right, precUnary, false)
	case *ast.Logical:
		p := precedence(expr)
		return operand(expr.Left, p, false) + " " + expr.Operator.Lexeme + " " + operand(expr.Right, p, true)
	case *ast.Binary:
		p := precedence(expr)
		return operand(expr.Left, p, false) + " " + expr.Operator.Lexeme + " " + operand(expr.Right, p, true)
	}
	return ""
}

func formatLiteral(v value.Value) string {
	switch lit := v.(type) {
	case nil, value.Nil:
		return "nil"
	case value.String:
		return `"` + lit.Value + `"`
	}
	return value.Stringify(v)
}
