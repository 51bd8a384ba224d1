package ast

import (
	"github.com/samber/mo"

	"github.com/thomasrohde/treelox/pkg/value"
)

// Constructors for building trees without a parser. Tests and embedders use
// these; the parser fills in full spans itself.

func NewLiteral(v value.Value) *Literal {
	return &Literal{Value: v}
}

func NewNumber(n float64) *Literal {
	return &Literal{Value: value.NewNumber(n)}
}

func NewString(s string) *Literal {
	return &Literal{Value: value.NewString(s)}
}

func NewNil() *Literal {
	return &Literal{Value: value.NewNil()}
}

func NewBool(b bool) *Literal {
	return &Literal{Value: value.NewBool(b)}
}

func NewGrouping(e Expr) *Grouping {
	return &Grouping{Span: e.NodeSpan(), Expr: e}
}

func NewUnary(op Token, right Expr) *Unary {
	return &Unary{Span: op.Span, Operator: op, Right: right}
}

func NewBinary(left Expr, op Token, right Expr) *Binary {
	return &Binary{Span: op.Span, Left: left, Operator: op, Right: right}
}

func NewLogical(left Expr, op Token, right Expr) *Logical {
	return &Logical{Span: op.Span, Left: left, Operator: op, Right: right}
}

func NewVariable(name Token) *Variable {
	return &Variable{Span: name.Span, Name: name}
}

func NewAssign(name Token, v Expr) *Assign {
	return &Assign{Span: name.Span, Name: name, Value: v}
}

func NewExpressionStmt(e Expr) *ExpressionStmt {
	return &ExpressionStmt{Span: e.NodeSpan(), Expr: e}
}

func NewPrintStmt(e Expr) *PrintStmt {
	return &PrintStmt{Span: e.NodeSpan(), Expr: e}
}

// NewVarStmt declares name; a nil initializer binds nil at run time.
func NewVarStmt(name Token, init Expr) *VarStmt {
	s := &VarStmt{Span: name.Span, Name: name, Initializer: mo.None[Expr]()}
	if init != nil {
		s.Initializer = mo.Some(init)
	}
	return s
}

func NewBlockStmt(stmts ...Stmt) *BlockStmt {
	return &BlockStmt{Statements: stmts}
}

// NewIfStmt builds a conditional; elseBranch may be nil.
func NewIfStmt(cond Expr, thenBranch, elseBranch Stmt) *IfStmt {
	s := &IfStmt{Span: cond.NodeSpan(), Condition: cond, Then: thenBranch, Else: mo.None[Stmt]()}
	if elseBranch != nil {
		s.Else = mo.Some(elseBranch)
	}
	return s
}
