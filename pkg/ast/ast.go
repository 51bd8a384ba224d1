// Package ast defines the Lox syntax tree consumed by the evaluator.
package ast

import (
	"github.com/samber/mo"

	"github.com/thomasrohde/treelox/pkg/value"
)

// Span represents a source location range.
type Span struct {
	File      string `json:"file,omitempty"`
	StartLine int    `json:"startLine"`
	StartCol  int    `json:"startCol"`
	EndLine   int    `json:"endLine"`
	EndCol    int    `json:"endCol"`
}

// Node is the interface implemented by all AST nodes.
type Node interface {
	Kind() string
	NodeSpan() Span
}

// --- Expr is the interface for all expression nodes ---

type Expr interface {
	Node
	exprNode() // sealed marker
}

// --- Stmt is the interface for all statement nodes ---

type Stmt interface {
	Node
	stmtNode() // sealed marker
}

// --- Expressions ---

type Literal struct {
	Span  Span
	Value value.Value
}

func (n *Literal) Kind() string   { return "Literal" }
func (n *Literal) NodeSpan() Span { return n.Span }
func (n *Literal) exprNode()      {}

type Grouping struct {
	Span Span
	Expr Expr
}

func (n *Grouping) Kind() string   { return "Grouping" }
func (n *Grouping) NodeSpan() Span { return n.Span }
func (n *Grouping) exprNode()      {}

type Unary struct {
	Span     Span
	Operator Token
	Right    Expr
}

func (n *Unary) Kind() string   { return "Unary" }
func (n *Unary) NodeSpan() Span { return n.Span }
func (n *Unary) exprNode()      {}

type Binary struct {
	Span     Span
	Left     Expr
	Operator Token
	Right    Expr
}

func (n *Binary) Kind() string   { return "Binary" }
func (n *Binary) NodeSpan() Span { return n.Span }
func (n *Binary) exprNode()      {}

// Logical is a short-circuiting "and" / "or".
type Logical struct {
	Span     Span
	Left     Expr
	Operator Token
	Right    Expr
}

func (n *Logical) Kind() string   { return "Logical" }
func (n *Logical) NodeSpan() Span { return n.Span }
func (n *Logical) exprNode()      {}

type Variable struct {
	Span Span
	Name Token
}

func (n *Variable) Kind() string   { return "Variable" }
func (n *Variable) NodeSpan() Span { return n.Span }
func (n *Variable) exprNode()      {}

type Assign struct {
	Span  Span
	Name  Token
	Value Expr
}

func (n *Assign) Kind() string   { return "Assign" }
func (n *Assign) NodeSpan() Span { return n.Span }
func (n *Assign) exprNode()      {}

// --- Statements ---

type ExpressionStmt struct {
	Span Span
	Expr Expr
}

func (n *ExpressionStmt) Kind() string   { return "ExpressionStmt" }
func (n *ExpressionStmt) NodeSpan() Span { return n.Span }
func (n *ExpressionStmt) stmtNode()      {}

type PrintStmt struct {
	Span Span
	Expr Expr
}

func (n *PrintStmt) Kind() string   { return "PrintStmt" }
func (n *PrintStmt) NodeSpan() Span { return n.Span }
func (n *PrintStmt) stmtNode()      {}

type VarStmt struct {
	Span        Span
	Name        Token
	Initializer mo.Option[Expr]
}

func (n *VarStmt) Kind() string   { return "VarStmt" }
func (n *VarStmt) NodeSpan() Span { return n.Span }
func (n *VarStmt) stmtNode()      {}

type BlockStmt struct {
	Span       Span
	Statements []Stmt
}

func (n *BlockStmt) Kind() string   { return "BlockStmt" }
func (n *BlockStmt) NodeSpan() Span { return n.Span }
func (n *BlockStmt) stmtNode()      {}

type IfStmt struct {
	Span      Span
	Condition Expr
	Then      Stmt
	Else      mo.Option[Stmt]
}

func (n *IfStmt) Kind() string   { return "IfStmt" }
func (n *IfStmt) NodeSpan() Span { return n.Span }
func (n *IfStmt) stmtNode()      {}

// --- Program ---

type Program struct {
	Span       Span
	Statements []Stmt
}

func (n *Program) Kind() string   { return "Program" }
func (n *Program) NodeSpan() Span { return n.Span }
