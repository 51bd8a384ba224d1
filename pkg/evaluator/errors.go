package evaluator

import (
	"errors"
	"fmt"

	"github.com/thomasrohde/treelox/pkg/ast"
	"github.com/thomasrohde/treelox/pkg/diagnostics"
	"github.com/thomasrohde/treelox/pkg/value"
)

// FaultKind classifies a runtime fault.
type FaultKind int

const (
	TypeMismatch FaultKind = iota + 1
	DivisionByZero
	UndefinedVariable
)

func (k FaultKind) String() string {
	switch k {
	case TypeMismatch:
		return "TypeMismatch"
	case DivisionByZero:
		return "DivisionByZero"
	case UndefinedVariable:
		return "UndefinedVariable"
	}
	return fmt.Sprintf("FaultKind(%d)", int(k))
}

// Code returns the diagnostic code for the fault kind.
func (k FaultKind) Code() string {
	switch k {
	case TypeMismatch:
		return diagnostics.ETypeMismatch
	case DivisionByZero:
		return diagnostics.EDivisionByZero
	case UndefinedVariable:
		return diagnostics.EUndefinedVariable
	}
	return ""
}

// Sentinels matched by errors.Is against a *RuntimeError of the same kind.
var (
	ErrTypeMismatch      = errors.New("type mismatch")
	ErrDivisionByZero    = errors.New("division by zero")
	ErrUndefinedVariable = errors.New("undefined variable")
)

// RuntimeError is a fault raised while evaluating a program. Token is the
// operator or variable token the fault is attributed to.
type RuntimeError struct {
	Kind    FaultKind
	Token   ast.Token
	Message string
	Hint    string
}

func (e *RuntimeError) Error() string {
	return fmt.Sprintf("%s\n[line %d]", e.Message, e.Token.Line())
}

// Is lets errors.Is match the kind sentinels.
func (e *RuntimeError) Is(target error) bool {
	switch target {
	case ErrTypeMismatch:
		return e.Kind == TypeMismatch
	case ErrDivisionByZero:
		return e.Kind == DivisionByZero
	case ErrUndefinedVariable:
		return e.Kind == UndefinedVariable
	}
	return false
}

// Line returns the source line of the offending token.
func (e *RuntimeError) Line() int {
	return e.Token.Line()
}

// Diagnostic converts the fault into the form handed to a Reporter.
func (e *RuntimeError) Diagnostic() diagnostics.Diagnostic {
	span := e.Token.Span
	return diagnostics.MakeDiag(e.Kind.Code(), e.Message, &span, e.Hint)
}

func operandMismatch(op ast.Token, operand value.Value) *RuntimeError {
	return &RuntimeError{
		Kind:    TypeMismatch,
		Token:   op,
		Message: "Operand must be a number.",
		Hint:    fmt.Sprintf("'%s' got %s", op.Lexeme, value.TypeName(operand)),
	}
}

func operandsMismatch(op ast.Token, msg string, left, right value.Value) *RuntimeError {
	return &RuntimeError{
		Kind:    TypeMismatch,
		Token:   op,
		Message: msg,
		Hint:    fmt.Sprintf("'%s' got %s and %s", op.Lexeme, value.TypeName(left), value.TypeName(right)),
	}
}

func divisionByZero(op ast.Token) *RuntimeError {
	return &RuntimeError{
		Kind:    DivisionByZero,
		Token:   op,
		Message: "Cannot perform division by zero.",
	}
}

func undefinedVariable(name ast.Token) *RuntimeError {
	return &RuntimeError{
		Kind:    UndefinedVariable,
		Token:   name,
		Message: fmt.Sprintf("Undefined variable '%s'.", name.Lexeme),
		Hint:    fmt.Sprintf("declare it first with 'var %s;'", name.Lexeme),
	}
}
