// Package astprinter renders syntax trees as parenthesized prefix text for
// debugging and tests.
package astprinter

import (
	"fmt"
	"strings"

	"github.com/samber/lo"

	"github.com/thomasrohde/treelox/pkg/ast"
	"github.com/thomasrohde/treelox/pkg/value"
)

// Print renders an expression, e.g. "(* (- 123) (group 45.67))".
func Print(expr ast.Expr) string {
	switch e := expr.(type) {
	case *ast.Literal:
		if e.Value == nil {
			return "nil"
		}
		return value.Stringify(e.Value)
	case *ast.Grouping:
		return parenthesize("group", e.Expr)
	case *ast.Unary:
		return parenthesize(e.Operator.Lexeme, e.Right)
	case *ast.Binary:
		return parenthesize(e.Operator.Lexeme, e.Left, e.Right)
	case *ast.Logical:
		return parenthesize(e.Operator.Lexeme, e.Left, e.Right)
	case *ast.Variable:
		return e.Name.Lexeme
	case *ast.Assign:
		return fmt.Sprintf("(= %s %s)", e.Name.Lexeme, Print(e.Value))
	case nil:
		return "<nil>"
	}
	return fmt.Sprintf("<%T>", expr)
}

// PrintStmt renders a statement in the same prefix style.
func PrintStmt(stmt ast.Stmt) string {
	switch s := stmt.(type) {
	case *ast.ExpressionStmt:
		return parenthesize(";", s.Expr)
	case *ast.PrintStmt:
		return parenthesize("print", s.Expr)
	case *ast.VarStmt:
		if init, ok := s.Initializer.Get(); ok {
			return fmt.Sprintf("(var %s %s)", s.Name.Lexeme, Print(init))
		}
		return fmt.Sprintf("(var %s)", s.Name.Lexeme)
	case *ast.BlockStmt:
		parts := append([]string{"block"}, lo.Map(s.Statements, func(st ast.Stmt, _ int) string {
			return PrintStmt(st)
		})...)
		return "(" + strings.Join(parts, " ") + ")"
	case *ast.IfStmt:
		out := fmt.Sprintf("(if %s %s", Print(s.Condition), PrintStmt(s.Then))
		if elseBranch, ok := s.Else.Get(); ok {
			out += " " + PrintStmt(elseBranch)
		}
		return out + ")"
	case nil:
		return "<nil>"
	}
	return fmt.Sprintf("<%T>", stmt)
}

// PrintProgram renders each top-level statement on its own line.
func PrintProgram(prog *ast.Program) string {
	if prog == nil {
		return ""
	}
	lines := lo.Map(prog.Statements, func(st ast.Stmt, _ int) string { return PrintStmt(st) })
	return strings.Join(lines, "\n")
}

func parenthesize(name string, exprs ...ast.Expr) string {
	var b strings.Builder
	b.WriteString("(")
	b.WriteString(name)
	for _, e := range exprs {
		b.WriteString(" ")
		b.WriteString(Print(e))
	}
	b.WriteString(")")
	return b.String()
}
