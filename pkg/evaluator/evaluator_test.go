package evaluator_test

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thomasrohde/treelox/pkg/ast"
	"github.com/thomasrohde/treelox/pkg/diagnostics"
	"github.com/thomasrohde/treelox/pkg/evaluator"
	"github.com/thomasrohde/treelox/pkg/value"
)

// --- helpers ---

type recordingReporter struct {
	diags []diagnostics.Diagnostic
}

func (r *recordingReporter) Report(d diagnostics.Diagnostic) {
	r.diags = append(r.diags, d)
}

func newInterp() (*evaluator.Interpreter, *bytes.Buffer, *recordingReporter) {
	var out bytes.Buffer
	rep := &recordingReporter{}
	in := evaluator.New(evaluator.WithStdout(&out), evaluator.WithReporter(rep))
	return in, &out, rep
}

func lines(out *bytes.Buffer) []string {
	s := strings.TrimRight(out.String(), "\n")
	if s == "" {
		return nil
	}
	return strings.Split(s, "\n")
}

func bin(left ast.Expr, op ast.TokenType, right ast.Expr) *ast.Binary {
	return ast.NewBinary(left, ast.Op(op, 1), right)
}

func eval(t *testing.T, e ast.Expr) value.Value {
	t.Helper()
	in, _, _ := newInterp()
	v, err := in.Evaluate(e)
	require.NoError(t, err)
	return v
}

func evalErr(t *testing.T, e ast.Expr) error {
	t.Helper()
	in, _, _ := newInterp()
	_, err := in.Evaluate(e)
	require.Error(t, err)
	return err
}

// faulting is an expression that raises DivisionByZero when evaluated.
func faulting() ast.Expr {
	return bin(ast.NewNumber(1), ast.Slash, ast.NewNumber(0))
}

// --- Arithmetic ---

func TestArithmetic(t *testing.T) {
	cases := []struct {
		a, b float64
	}{
		{1, 2},
		{-3.5, 7.25},
		{0, 0},
		{1e10, -1e-3},
	}
	for _, c := range cases {
		assert.Equal(t, value.NewNumber(c.a+c.b), eval(t, bin(ast.NewNumber(c.a), ast.Plus, ast.NewNumber(c.b))))
		assert.Equal(t, value.NewNumber(c.a-c.b), eval(t, bin(ast.NewNumber(c.a), ast.Minus, ast.NewNumber(c.b))))
		assert.Equal(t, value.NewNumber(c.a*c.b), eval(t, bin(ast.NewNumber(c.a), ast.Star, ast.NewNumber(c.b))))
	}
}

func TestDivision(t *testing.T) {
	assert.Equal(t, value.NewNumber(2.5), eval(t, bin(ast.NewNumber(5), ast.Slash, ast.NewNumber(2))))
	assert.Equal(t, value.NewNumber(8), eval(t, bin(ast.NewNumber(4), ast.Slash, ast.NewNumber(0.5))))
	assert.Equal(t, value.NewNumber(-8), eval(t, bin(ast.NewNumber(4), ast.Slash, ast.NewNumber(-0.5))))
}

func TestDivisionByZero(t *testing.T) {
	for _, divisor := range []float64{0, 0.0, -0.0, 0.4, -0.3} {
		err := evalErr(t, bin(ast.NewNumber(7), ast.Slash, ast.NewNumber(divisor)))
		assert.ErrorIs(t, err, evaluator.ErrDivisionByZero, "divisor %v", divisor)
	}
}

func TestDivisionTypeCheckedFirst(t *testing.T) {
	err := evalErr(t, bin(ast.NewString("a"), ast.Slash, ast.NewNumber(0)))
	assert.ErrorIs(t, err, evaluator.ErrTypeMismatch)
}

func TestUnaryMinus(t *testing.T) {
	assert.Equal(t, value.NewNumber(-4), eval(t, ast.NewUnary(ast.Op(ast.Minus, 1), ast.NewNumber(4))))

	err := evalErr(t, ast.NewUnary(ast.Op(ast.Minus, 1), ast.NewString("x")))
	var rtErr *evaluator.RuntimeError
	require.True(t, errors.As(err, &rtErr))
	assert.Equal(t, evaluator.TypeMismatch, rtErr.Kind)
	assert.Equal(t, "Operand must be a number.", rtErr.Message)
}

func TestUnaryBang(t *testing.T) {
	assert.Equal(t, value.NewBool(true), eval(t, ast.NewUnary(ast.Op(ast.Bang, 1), ast.NewNil())))
	assert.Equal(t, value.NewBool(false), eval(t, ast.NewUnary(ast.Op(ast.Bang, 1), ast.NewNumber(0))))
	assert.Equal(t, value.NewBool(false), eval(t, ast.NewUnary(ast.Op(ast.Bang, 1), ast.NewString(""))))
	assert.Equal(t, value.NewBool(true), eval(t, ast.NewUnary(ast.Op(ast.Bang, 1), ast.NewBool(false))))
}

// --- Strings ---

func TestStringConcat(t *testing.T) {
	assert.Equal(t, value.NewString("foobar"), eval(t, bin(ast.NewString("foo"), ast.Plus, ast.NewString("bar"))))
	assert.Equal(t, value.NewString(""), eval(t, bin(ast.NewString(""), ast.Plus, ast.NewString(""))))
}

func TestPlusMixedOperands(t *testing.T) {
	for _, e := range []ast.Expr{
		bin(ast.NewNumber(1), ast.Plus, ast.NewString("a")),
		bin(ast.NewString("a"), ast.Plus, ast.NewNumber(1)),
		bin(ast.NewNil(), ast.Plus, ast.NewNil()),
		bin(ast.NewBool(true), ast.Plus, ast.NewNumber(1)),
	} {
		err := evalErr(t, e)
		assert.ErrorIs(t, err, evaluator.ErrTypeMismatch)
		var rtErr *evaluator.RuntimeError
		require.True(t, errors.As(err, &rtErr))
		assert.Equal(t, "Operands must be two numbers or two strings.", rtErr.Message)
	}
}

func TestNumericOperatorsRejectNonNumbers(t *testing.T) {
	for _, op := range []ast.TokenType{ast.Minus, ast.Star, ast.Greater, ast.GreaterEqual, ast.Less, ast.LessEqual} {
		err := evalErr(t, bin(ast.NewNumber(1), op, ast.NewString("2")))
		assert.ErrorIs(t, err, evaluator.ErrTypeMismatch, "operator %s", op)

		err = evalErr(t, bin(ast.NewString("1"), op, ast.NewNumber(2)))
		assert.ErrorIs(t, err, evaluator.ErrTypeMismatch, "operator %s", op)
	}
}

func TestComparison(t *testing.T) {
	assert.Equal(t, value.NewBool(true), eval(t, bin(ast.NewNumber(2), ast.Greater, ast.NewNumber(1))))
	assert.Equal(t, value.NewBool(true), eval(t, bin(ast.NewNumber(2), ast.GreaterEqual, ast.NewNumber(2))))
	assert.Equal(t, value.NewBool(false), eval(t, bin(ast.NewNumber(2), ast.Less, ast.NewNumber(1))))
	assert.Equal(t, value.NewBool(true), eval(t, bin(ast.NewNumber(1), ast.LessEqual, ast.NewNumber(1))))
}

// --- Equality ---

func TestEquality(t *testing.T) {
	cases := []struct {
		name  string
		left  ast.Expr
		right ast.Expr
		want  bool
	}{
		{"nil==nil", ast.NewNil(), ast.NewNil(), true},
		{"nil==0", ast.NewNil(), ast.NewNumber(0), false},
		{"1==1.0", ast.NewNumber(1), ast.NewNumber(1.0), true},
		{"a==a", ast.NewString("a"), ast.NewString("a"), true},
		{"a==b", ast.NewString("a"), ast.NewString("b"), false},
		{"1=='1'", ast.NewNumber(1), ast.NewString("1"), false},
		{"true==true", ast.NewBool(true), ast.NewBool(true), true},
		{"false==nil", ast.NewBool(false), ast.NewNil(), false},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			assert.Equal(t, value.NewBool(c.want), eval(t, bin(c.left, ast.EqualEqual, c.right)))
			assert.Equal(t, value.NewBool(!c.want), eval(t, bin(c.left, ast.BangEqual, c.right)))
		})
	}
}

// --- Logical ---

func TestLogicalReturnsOperand(t *testing.T) {
	or := ast.Op(ast.Or, 1)
	and := ast.Op(ast.And, 1)

	assert.Equal(t, value.NewString("hi"), eval(t, ast.NewLogical(ast.NewString("hi"), or, ast.NewNumber(2))))
	assert.Equal(t, value.NewNumber(2), eval(t, ast.NewLogical(ast.NewNil(), or, ast.NewNumber(2))))
	assert.Equal(t, value.NewNil(), eval(t, ast.NewLogical(ast.NewNil(), and, ast.NewNumber(2))))
	assert.Equal(t, value.NewNumber(2), eval(t, ast.NewLogical(ast.NewNumber(0), and, ast.NewNumber(2))))
}

func TestLogicalShortCircuit(t *testing.T) {
	v := eval(t, ast.NewLogical(ast.NewBool(true), ast.Op(ast.Or, 1), faulting()))
	assert.Equal(t, value.NewBool(true), v)

	v = eval(t, ast.NewLogical(ast.NewBool(false), ast.Op(ast.And, 1), faulting()))
	assert.Equal(t, value.NewBool(false), v)

	// The right side does run when the left does not decide.
	err := evalErr(t, ast.NewLogical(ast.NewBool(false), ast.Op(ast.Or, 1), faulting()))
	assert.ErrorIs(t, err, evaluator.ErrDivisionByZero)
}

// --- Statements and scoping ---

func TestScoping(t *testing.T) {
	in, out, rep := newInterp()
	x := ast.Ident("x", 1)

	err := in.Interpret([]ast.Stmt{
		ast.NewVarStmt(x, ast.NewNumber(1)),
		ast.NewBlockStmt(
			ast.NewVarStmt(x, ast.NewNumber(2)),
			ast.NewPrintStmt(ast.NewVariable(x)),
		),
		ast.NewPrintStmt(ast.NewVariable(x)),
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"2", "1"}, lines(out))
	assert.Empty(t, rep.diags)
	assert.Equal(t, 1, in.Env().Depth())
}

func TestScopingUnderFault(t *testing.T) {
	in, out, rep := newInterp()
	x := ast.Ident("x", 1)

	err := in.Interpret([]ast.Stmt{
		ast.NewVarStmt(x, ast.NewNumber(1)),
		ast.NewBlockStmt(
			ast.NewVarStmt(x, ast.NewNumber(2)),
			ast.NewBlockStmt(
				ast.NewExpressionStmt(faulting()),
			),
			ast.NewPrintStmt(ast.NewString("unreachable")),
		),
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, evaluator.ErrDivisionByZero)
	assert.Empty(t, lines(out))
	require.Len(t, rep.diags, 1)
	assert.Equal(t, 1, in.Env().Depth())

	// The outer binding is visible and unmodified.
	require.NoError(t, in.Interpret([]ast.Stmt{ast.NewPrintStmt(ast.NewVariable(x))}))
	assert.Equal(t, []string{"1"}, lines(out))
}

func TestAssignmentReachesOuterScope(t *testing.T) {
	in, out, _ := newInterp()
	x := ast.Ident("x", 1)

	err := in.Interpret([]ast.Stmt{
		ast.NewVarStmt(x, ast.NewNumber(1)),
		ast.NewBlockStmt(
			ast.NewExpressionStmt(ast.NewAssign(x, ast.NewNumber(5))),
		),
		ast.NewPrintStmt(ast.NewVariable(x)),
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"5"}, lines(out))
}

func TestAssignmentIsExpression(t *testing.T) {
	in, out, _ := newInterp()
	a := ast.Ident("a", 1)
	b := ast.Ident("b", 1)

	err := in.Interpret([]ast.Stmt{
		ast.NewVarStmt(a, nil),
		ast.NewVarStmt(b, nil),
		ast.NewExpressionStmt(ast.NewAssign(a, ast.NewAssign(b, ast.NewString("v")))),
		ast.NewPrintStmt(ast.NewVariable(a)),
		ast.NewPrintStmt(ast.NewVariable(b)),
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"v", "v"}, lines(out))
}

func TestVarWithoutInitializerIsNil(t *testing.T) {
	in, out, _ := newInterp()
	x := ast.Ident("x", 1)

	require.NoError(t, in.Interpret([]ast.Stmt{
		ast.NewVarStmt(x, nil),
		ast.NewPrintStmt(ast.NewVariable(x)),
	}))
	assert.Equal(t, []string{"nil"}, lines(out))
}

func TestRedeclareOverwrites(t *testing.T) {
	in, out, _ := newInterp()
	x := ast.Ident("x", 1)

	require.NoError(t, in.Interpret([]ast.Stmt{
		ast.NewVarStmt(x, ast.NewNumber(1)),
		ast.NewVarStmt(x, ast.NewString("two")),
		ast.NewPrintStmt(ast.NewVariable(x)),
	}))
	assert.Equal(t, []string{"two"}, lines(out))
}

func TestUndefinedVariable(t *testing.T) {
	in, _, rep := newInterp()
	y := ast.Ident("y", 4)

	err := in.Interpret([]ast.Stmt{ast.NewPrintStmt(ast.NewVariable(y))})
	assert.ErrorIs(t, err, evaluator.ErrUndefinedVariable)
	require.Len(t, rep.diags, 1)
	assert.Equal(t, diagnostics.EUndefinedVariable, rep.diags[0].Code)
	assert.Equal(t, "Undefined variable 'y'.", rep.diags[0].Message)
	assert.Equal(t, 4, rep.diags[0].Line())
}

func TestAssignUndeclaredDoesNotCreateGlobal(t *testing.T) {
	in, _, _ := newInterp()
	y := ast.Ident("y", 2)

	err := in.Interpret([]ast.Stmt{ast.NewExpressionStmt(ast.NewAssign(y, ast.NewNumber(1)))})
	assert.ErrorIs(t, err, evaluator.ErrUndefinedVariable)
	assert.False(t, in.Env().Has("y"))
}

func TestIf(t *testing.T) {
	in, out, _ := newInterp()

	require.NoError(t, in.Interpret([]ast.Stmt{
		ast.NewIfStmt(ast.NewNumber(0), ast.NewPrintStmt(ast.NewString("then")), ast.NewPrintStmt(ast.NewString("else"))),
		ast.NewIfStmt(ast.NewNil(), ast.NewPrintStmt(ast.NewString("then")), ast.NewPrintStmt(ast.NewString("else"))),
		ast.NewIfStmt(ast.NewBool(false), ast.NewPrintStmt(ast.NewString("skipped")), nil),
	}))
	assert.Equal(t, []string{"then", "else"}, lines(out))
}

func TestPrintStringification(t *testing.T) {
	in, out, _ := newInterp()

	require.NoError(t, in.Interpret([]ast.Stmt{
		ast.NewPrintStmt(ast.NewNumber(3.0)),
		ast.NewPrintStmt(ast.NewNumber(3.5)),
		ast.NewPrintStmt(ast.NewNil()),
		ast.NewPrintStmt(ast.NewBool(true)),
		ast.NewPrintStmt(ast.NewString("raw text")),
	}))
	assert.Equal(t, []string{"3", "3.5", "nil", "true", "raw text"}, lines(out))
}

// --- End-to-end programs ---

func TestProgramOnePlusTwo(t *testing.T) {
	in, out, _ := newInterp()
	require.NoError(t, in.Interpret([]ast.Stmt{
		ast.NewPrintStmt(bin(ast.NewNumber(1), ast.Plus, ast.NewNumber(2))),
	}))
	assert.Equal(t, "3\n", out.String())
}

func TestProgramNilEqualsNil(t *testing.T) {
	in, out, _ := newInterp()
	require.NoError(t, in.Interpret([]ast.Stmt{
		ast.NewPrintStmt(bin(ast.NewNil(), ast.EqualEqual, ast.NewNil())),
	}))
	assert.Equal(t, "true\n", out.String())
}

func TestProgramAssign(t *testing.T) {
	in, out, _ := newInterp()
	x := ast.Ident("x", 1)
	require.NoError(t, in.Interpret([]ast.Stmt{
		ast.NewVarStmt(x, ast.NewNumber(1)),
		ast.NewExpressionStmt(ast.NewAssign(x, ast.NewNumber(2))),
		ast.NewPrintStmt(ast.NewVariable(x)),
	}))
	assert.Equal(t, "2\n", out.String())
}

func TestProgramDivisionByZero(t *testing.T) {
	in, out, rep := newInterp()
	slash := ast.Op(ast.Slash, 7)

	err := in.Interpret([]ast.Stmt{
		ast.NewPrintStmt(ast.NewBinary(ast.NewNumber(1), slash, ast.NewNumber(0))),
	})
	require.Error(t, err)
	assert.Empty(t, out.String())

	var rtErr *evaluator.RuntimeError
	require.True(t, errors.As(err, &rtErr))
	assert.Equal(t, evaluator.DivisionByZero, rtErr.Kind)
	assert.Equal(t, 7, rtErr.Line())
	assert.Equal(t, "Cannot perform division by zero.\n[line 7]", rtErr.Error())

	require.Len(t, rep.diags, 1)
	assert.Equal(t, diagnostics.EDivisionByZero, rep.diags[0].Code)
	assert.Equal(t, 7, rep.diags[0].Line())
}

func TestFaultStopsRemainingStatements(t *testing.T) {
	in, out, rep := newInterp()

	err := in.Interpret([]ast.Stmt{
		ast.NewPrintStmt(ast.NewString("before")),
		ast.NewExpressionStmt(bin(ast.NewString("a"), ast.Minus, ast.NewNumber(1))),
		ast.NewPrintStmt(ast.NewString("after")),
	})
	assert.ErrorIs(t, err, evaluator.ErrTypeMismatch)
	assert.Equal(t, []string{"before"}, lines(out))
	require.Len(t, rep.diags, 1)
	assert.Equal(t, diagnostics.ETypeMismatch, rep.diags[0].Code)
	assert.Equal(t, "'-' got string and number", rep.diags[0].Hint)
}

// --- Session behavior ---

func TestBindingsPersistAcrossRuns(t *testing.T) {
	in, out, _ := newInterp()
	x := ast.Ident("x", 1)

	require.NoError(t, in.Interpret([]ast.Stmt{ast.NewVarStmt(x, ast.NewNumber(41))}))
	require.NoError(t, in.Interpret([]ast.Stmt{
		ast.NewPrintStmt(bin(ast.NewVariable(x), ast.Plus, ast.NewNumber(1))),
	}))
	assert.Equal(t, []string{"42"}, lines(out))
	assert.Equal(t, []string{"x"}, in.Env().Names())

	in.Reset()
	assert.Empty(t, in.Env().Names())
}

func TestTraceEvents(t *testing.T) {
	var events []evaluator.TraceEvent
	var out bytes.Buffer
	in := evaluator.New(
		evaluator.WithStdout(&out),
		evaluator.WithRunID("run-1"),
		evaluator.WithTrace(func(ev evaluator.TraceEvent) { events = append(events, ev) }),
	)

	err := in.Interpret([]ast.Stmt{
		ast.NewBlockStmt(ast.NewExpressionStmt(faulting())),
	})
	require.Error(t, err)

	kinds := make([]evaluator.TraceEventType, 0, len(events))
	for _, ev := range events {
		assert.Equal(t, "run-1", ev.RunID)
		kinds = append(kinds, ev.Event)
	}
	assert.Equal(t, []evaluator.TraceEventType{
		evaluator.TraceRunStart,
		evaluator.TraceStmtStart,
		evaluator.TraceBlockEnter,
		evaluator.TraceStmtStart,
		evaluator.TraceStmtEnd,
		evaluator.TraceBlockExit,
		evaluator.TraceStmtEnd,
		evaluator.TraceFault,
		evaluator.TraceRunEnd,
	}, kinds)

	fault := events[7]
	assert.Equal(t, diagnostics.EDivisionByZero, fault.Data["code"])
	assert.Equal(t, 1, fault.Depth)
	assert.Equal(t, 2, events[2].Depth)
}
