// Package evaluator implements the Lox tree-walking evaluator and its scope chain.
package evaluator

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"

	"go.uber.org/zap"

	"github.com/thomasrohde/treelox/pkg/ast"
	"github.com/thomasrohde/treelox/pkg/diagnostics"
	"github.com/thomasrohde/treelox/pkg/value"
)

// Reporter receives the runtime fault that stopped a program.
type Reporter interface {
	Report(d diagnostics.Diagnostic)
}

// Option is a functional option for configuring an Interpreter.
type Option func(*Interpreter)

// WithStdout sets the stream print statements write to.
func WithStdout(w io.Writer) Option {
	return func(in *Interpreter) {
		in.stdout = w
	}
}

// WithReporter sets the sink for runtime faults.
func WithReporter(r Reporter) Option {
	return func(in *Interpreter) {
		in.reporter = r
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(in *Interpreter) {
		in.logger = l
	}
}

// WithTrace sets the trace callback.
func WithTrace(fn func(event TraceEvent)) Option {
	return func(in *Interpreter) {
		in.trace = fn
	}
}

// WithRunID sets the run ID for trace events.
func WithRunID(id string) Option {
	return func(in *Interpreter) {
		in.runID = id
	}
}

// Interpreter executes statements against one long-lived top-level scope.
// Bindings made by one Interpret call are visible to the next, which is what
// a REPL session needs. An Interpreter is not safe for concurrent use.
type Interpreter struct {
	env      *Env
	stdout   io.Writer
	reporter Reporter
	logger   *zap.Logger
	trace    func(event TraceEvent)
	runID    string
}

// New creates an Interpreter writing to os.Stdout with no reporter.
func New(opts ...Option) *Interpreter {
	in := &Interpreter{
		env:    NewEnv(),
		stdout: os.Stdout,
		logger: zap.NewNop(),
		runID:  "main",
	}
	for _, opt := range opts {
		opt(in)
	}
	return in
}

// Env returns the interpreter's scope chain.
func (in *Interpreter) Env() *Env {
	return in.env
}

// Reset drops every top-level binding.
func (in *Interpreter) Reset() {
	in.env = NewEnv()
}

// Interpret executes stmts in order. The first runtime fault stops execution,
// is forwarded to the reporter, and is returned; output already written stays.
func (in *Interpreter) Interpret(stmts []ast.Stmt) error {
	in.logger.Debug("interpret", zap.Int("statements", len(stmts)), zap.String("runId", in.runID))
	in.emit(TraceRunStart, nil, in.env.Depth())
	defer in.emit(TraceRunEnd, nil, in.env.Depth())

	for _, stmt := range stmts {
		if err := in.execute(stmt, in.env); err != nil {
			return in.fault(err)
		}
	}
	return nil
}

// Evaluate evaluates a single expression against the top-level scope. Faults
// are reported the same way Interpret reports them.
func (in *Interpreter) Evaluate(expr ast.Expr) (value.Value, error) {
	val, err := in.evalExpr(expr, in.env)
	if err != nil {
		return nil, in.fault(err)
	}
	return val, nil
}

func (in *Interpreter) fault(err error) error {
	var rtErr *RuntimeError
	if !errors.As(err, &rtErr) {
		in.logger.Error("execution failed", zap.Error(err))
		return err
	}
	in.logger.Debug("runtime fault",
		zap.String("kind", rtErr.Kind.String()),
		zap.Int("line", rtErr.Line()),
		zap.String("message", rtErr.Message))
	span := rtErr.Token.Span
	in.emitWithData(TraceFault, &span, in.env.Depth(), map[string]string{
		"code":    rtErr.Kind.Code(),
		"message": rtErr.Message,
	})
	if in.reporter != nil {
		in.reporter.Report(rtErr.Diagnostic())
	}
	return rtErr
}

// --- Statements ---

func (in *Interpreter) execute(stmt ast.Stmt, env *Env) error {
	if in.trace == nil {
		return in.execStmt(stmt, env)
	}
	span := stmt.NodeSpan()
	in.emit(TraceStmtStart, &span, env.Depth())
	err := in.execStmt(stmt, env)
	in.emit(TraceStmtEnd, &span, env.Depth())
	return err
}

func (in *Interpreter) execStmt(stmt ast.Stmt, env *Env) error {
	switch s := stmt.(type) {
	case *ast.ExpressionStmt:
		_, err := in.evalExpr(s.Expr, env)
		return err

	case *ast.PrintStmt:
		val, err := in.evalExpr(s.Expr, env)
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintln(in.stdout, value.Stringify(val)); err != nil {
			return fmt.Errorf("print: %w", err)
		}
		return nil

	case *ast.VarStmt:
		var val value.Value = value.NewNil()
		if init, ok := s.Initializer.Get(); ok {
			v, err := in.evalExpr(init, env)
			if err != nil {
				return err
			}
			val = v
		}
		env.Define(s.Name.Lexeme, val)
		return nil

	case *ast.BlockStmt:
		return in.execBlock(s, env)

	case *ast.IfStmt:
		cond, err := in.evalExpr(s.Condition, env)
		if err != nil {
			return err
		}
		if value.Truthy(cond) {
			return in.execute(s.Then, env)
		}
		if elseBranch, ok := s.Else.Get(); ok {
			return in.execute(elseBranch, env)
		}
		return nil

	default:
		return fmt.Errorf("unsupported statement type: %T", stmt)
	}
}

// execBlock runs the block in a fresh innermost scope. The scope is dropped on
// every return path, so a fault leaves env exactly as it was before the block.
func (in *Interpreter) execBlock(b *ast.BlockStmt, env *Env) error {
	saved := env.Push()
	defer env.Restore(saved)

	span := b.Span
	in.emit(TraceBlockEnter, &span, env.Depth())
	defer in.emit(TraceBlockExit, &span, env.Depth())

	for _, stmt := range b.Statements {
		if err := in.execute(stmt, env); err != nil {
			return err
		}
	}
	return nil
}

// --- Expressions ---

func (in *Interpreter) evalExpr(expr ast.Expr, env *Env) (value.Value, error) {
	switch e := expr.(type) {
	case *ast.Literal:
		if e.Value == nil {
			return value.NewNil(), nil
		}
		return e.Value, nil

	case *ast.Grouping:
		return in.evalExpr(e.Expr, env)

	case *ast.Variable:
		return env.Get(e.Name)

	case *ast.Assign:
		val, err := in.evalExpr(e.Value, env)
		if err != nil {
			return nil, err
		}
		if err := env.Assign(e.Name, val); err != nil {
			return nil, err
		}
		return val, nil

	case *ast.Unary:
		return in.evalUnary(e, env)

	case *ast.Logical:
		return in.evalLogical(e, env)

	case *ast.Binary:
		return in.evalBinary(e, env)

	default:
		return nil, fmt.Errorf("unsupported expression type: %T", expr)
	}
}

func (in *Interpreter) evalUnary(e *ast.Unary, env *Env) (value.Value, error) {
	right, err := in.evalExpr(e.Right, env)
	if err != nil {
		return nil, err
	}

	switch e.Operator.Type {
	case ast.Minus:
		num, ok := right.(value.Number)
		if !ok {
			return nil, operandMismatch(e.Operator, right)
		}
		return value.NewNumber(-num.Value), nil
	case ast.Bang:
		return value.NewBool(!value.Truthy(right)), nil
	}
	return nil, fmt.Errorf("unsupported unary operator %q", e.Operator.Lexeme)
}

// evalLogical returns the deciding operand itself, not a coerced boolean, and
// never evaluates the right side once the left decides the result.
func (in *Interpreter) evalLogical(e *ast.Logical, env *Env) (value.Value, error) {
	left, err := in.evalExpr(e.Left, env)
	if err != nil {
		return nil, err
	}

	switch e.Operator.Type {
	case ast.Or:
		if value.Truthy(left) {
			return left, nil
		}
	case ast.And:
		if !value.Truthy(left) {
			return left, nil
		}
	default:
		return nil, fmt.Errorf("unsupported logical operator %q", e.Operator.Lexeme)
	}
	return in.evalExpr(e.Right, env)
}

func (in *Interpreter) evalBinary(e *ast.Binary, env *Env) (value.Value, error) {
	left, err := in.evalExpr(e.Left, env)
	if err != nil {
		return nil, err
	}
	right, err := in.evalExpr(e.Right, env)
	if err != nil {
		return nil, err
	}

	op := e.Operator
	switch op.Type {
	case ast.EqualEqual:
		return value.NewBool(value.Equal(left, right)), nil

	case ast.BangEqual:
		return value.NewBool(!value.Equal(left, right)), nil

	case ast.Plus:
		// Number + Number or String + String; nothing is coerced.
		if l, ok := left.(value.Number); ok {
			if r, ok := right.(value.Number); ok {
				return value.NewNumber(l.Value + r.Value), nil
			}
		}
		if l, ok := left.(value.String); ok {
			if r, ok := right.(value.String); ok {
				return value.NewString(l.Value + r.Value), nil
			}
		}
		return nil, operandsMismatch(op, "Operands must be two numbers or two strings.", left, right)
	}

	l, lOk := left.(value.Number)
	r, rOk := right.(value.Number)
	if !lOk || !rOk {
		switch op.Type {
		case ast.Greater, ast.GreaterEqual, ast.Less, ast.LessEqual,
			ast.Minus, ast.Star, ast.Slash:
			return nil, operandsMismatch(op, "Operands must be numbers.", left, right)
		}
		return nil, fmt.Errorf("unsupported binary operator %q", op.Lexeme)
	}

	switch op.Type {
	case ast.Greater:
		return value.NewBool(l.Value > r.Value), nil
	case ast.GreaterEqual:
		return value.NewBool(l.Value >= r.Value), nil
	case ast.Less:
		return value.NewBool(l.Value < r.Value), nil
	case ast.LessEqual:
		return value.NewBool(l.Value <= r.Value), nil
	case ast.Minus:
		return value.NewNumber(l.Value - r.Value), nil
	case ast.Star:
		return value.NewNumber(l.Value * r.Value), nil
	case ast.Slash:
		if convertsToZero(r.Value) {
			return nil, divisionByZero(op)
		}
		return value.NewNumber(l.Value / r.Value), nil
	}
	return nil, fmt.Errorf("unsupported binary operator %q", op.Lexeme)
}

// convertsToZero reports whether the divisor converts to the integer 0.
// The conversion rounds half away from zero, so 0.5 and -0.5 become ±1 and
// are accepted while 0.4 is not. NaN converts to 0.
func convertsToZero(divisor float64) bool {
	return math.IsNaN(divisor) || math.Round(divisor) == 0
}
