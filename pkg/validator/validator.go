// Package validator implements static checks of Lox programs. It only ever
// produces warnings; the evaluator remains the authority on what faults.
package validator

import (
	"fmt"

	"github.com/thomasrohde/treelox/pkg/ast"
	"github.com/thomasrohde/treelox/pkg/diagnostics"
)

type scope struct {
	bindings map[string]bool
	parent   *scope
}

func newScope(parent *scope) *scope {
	return &scope{bindings: make(map[string]bool), parent: parent}
}

func (s *scope) has(name string) bool {
	if s.bindings[name] {
		return true
	}
	if s.parent != nil {
		return s.parent.has(name)
	}
	return false
}

func (s *scope) add(name string) {
	s.bindings[name] = true
}

type validator struct {
	diags []diagnostics.Diagnostic
}

// Validate walks program in execution order and returns warnings for names
// used before any enclosing scope declares them (W_UNDECLARED) and for block
// declarations that hide an outer binding (W_SHADOW). Names listed in
// predeclared count as top-level bindings, as in a REPL session.
func Validate(program *ast.Program, predeclared ...string) []diagnostics.Diagnostic {
	v := &validator{}
	if program == nil {
		return nil
	}
	global := newScope(nil)
	for _, name := range predeclared {
		global.add(name)
	}
	v.validateStatements(program.Statements, global)
	return v.diags
}

func (v *validator) addDiag(code, msg string, span ast.Span, hint string) {
	v.diags = append(v.diags, diagnostics.MakeDiag(code, msg, &span, hint))
}

func (v *validator) validateStatements(stmts []ast.Stmt, sc *scope) {
	for _, s := range stmts {
		v.validateStmt(s, sc)
	}
}

func (v *validator) validateStmt(s ast.Stmt, sc *scope) {
	switch stmt := s.(type) {
	case *ast.ExpressionStmt:
		v.validateExpr(stmt.Expr, sc)
	case *ast.PrintStmt:
		v.validateExpr(stmt.Expr, sc)
	case *ast.VarStmt:
		// The initializer runs before the name is bound.
		if init, ok := stmt.Initializer.Get(); ok {
			v.validateExpr(init, sc)
		}
		name := stmt.Name.Lexeme
		if sc.parent != nil && !sc.bindings[name] && sc.parent.has(name) {
			v.addDiag(diagnostics.WShadow,
				fmt.Sprintf("'%s' shadows a variable in an enclosing scope", name),
				stmt.Name.Span, "")
		}
		sc.add(name)
	case *ast.BlockStmt:
		v.validateStatements(stmt.Statements, newScope(sc))
	case *ast.IfStmt:
		v.validateExpr(stmt.Condition, sc)
		v.validateStmt(stmt.Then, sc)
		if elseBranch, ok := stmt.Else.Get(); ok {
			v.validateStmt(elseBranch, sc)
		}
	}
}

func (v *validator) validateExpr(e ast.Expr, sc *scope) {
	switch expr := e.(type) {
	case *ast.Variable:
		v.checkDeclared(expr.Name, sc)
	case *ast.Assign:
		v.validateExpr(expr.Value, sc)
		v.checkDeclared(expr.Name, sc)
	case *ast.Grouping:
		v.validateExpr(expr.Expr, sc)
	case *ast.Unary:
		v.validateExpr(expr.Right, sc)
	case *ast.Binary:
		v.validateExpr(expr.Left, sc)
		v.validateExpr(expr.Right, sc)
	case *ast.Logical:
		v.validateExpr(expr.Left, sc)
		v.validateExpr(expr.Right, sc)
	}
}

func (v *validator) checkDeclared(name ast.Token, sc *scope) {
	if sc.has(name.Lexeme) {
		return
	}
	v.addDiag(diagnostics.WUndeclared,
		fmt.Sprintf("'%s' is not declared in any enclosing scope", name.Lexeme),
		name.Span,
		fmt.Sprintf("declare it first with 'var %s;'", name.Lexeme))
}
