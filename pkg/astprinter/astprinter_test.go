package astprinter_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/thomasrohde/treelox/pkg/ast"
	"github.com/thomasrohde/treelox/pkg/astprinter"
	"github.com/thomasrohde/treelox/pkg/value"
)

func TestPrintClassicExample(t *testing.T) {
	expr := ast.NewBinary(
		ast.NewUnary(ast.Op(ast.Minus, 1), ast.NewNumber(123)),
		ast.Op(ast.Star, 1),
		ast.NewGrouping(ast.NewNumber(45.67)),
	)
	assert.Equal(t, "(* (- 123) (group 45.67))", astprinter.Print(expr))
}

func TestPrintLiterals(t *testing.T) {
	assert.Equal(t, "nil", astprinter.Print(ast.NewNil()))
	assert.Equal(t, "nil", astprinter.Print(ast.NewLiteral(nil)))
	assert.Equal(t, "true", astprinter.Print(ast.NewBool(true)))
	assert.Equal(t, "hello", astprinter.Print(ast.NewString("hello")))
	assert.Equal(t, "2.5", astprinter.Print(ast.NewLiteral(value.NewNumber(2.5))))
}

func TestPrintVariablesAndLogic(t *testing.T) {
	x := ast.Ident("x", 1)
	expr := ast.NewAssign(x, ast.NewLogical(ast.NewVariable(ast.Ident("a", 1)), ast.Op(ast.Or, 1), ast.NewNil()))
	assert.Equal(t, "(= x (or a nil))", astprinter.Print(expr))
	assert.Equal(t, "(! x)", astprinter.Print(ast.NewUnary(ast.Op(ast.Bang, 1), ast.NewVariable(x))))
}

func TestPrintStmt(t *testing.T) {
	x := ast.Ident("x", 1)
	stmt := ast.NewBlockStmt(
		ast.NewVarStmt(x, nil),
		ast.NewVarStmt(x, ast.NewNumber(1)),
		ast.NewIfStmt(ast.NewVariable(x),
			ast.NewPrintStmt(ast.NewVariable(x)),
			ast.NewExpressionStmt(ast.NewAssign(x, ast.NewNumber(2)))),
		ast.NewIfStmt(ast.NewBool(false), ast.NewBlockStmt(), nil),
	)
	assert.Equal(t,
		"(block (var x) (var x 1) (if x (print x) (; (= x 2))) (if false (block)))",
		astprinter.PrintStmt(stmt))
}

func TestPrintProgram(t *testing.T) {
	prog := &ast.Program{Statements: []ast.Stmt{
		ast.NewPrintStmt(ast.NewNumber(1)),
		ast.NewPrintStmt(ast.NewString("two")),
	}}
	assert.Equal(t, "(print 1)\n(print two)", astprinter.PrintProgram(prog))
	assert.Equal(t, "", astprinter.PrintProgram(nil))
}
