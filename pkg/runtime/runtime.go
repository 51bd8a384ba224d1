// Package runtime provides the top-level Lox runtime orchestrator.
package runtime

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/thomasrohde/treelox/pkg/astprinter"
	"github.com/thomasrohde/treelox/pkg/diagnostics"
	"github.com/thomasrohde/treelox/pkg/evaluator"
	"github.com/thomasrohde/treelox/pkg/formatter"
	"github.com/thomasrohde/treelox/pkg/parser"
	"github.com/thomasrohde/treelox/pkg/validator"
	"github.com/thomasrohde/treelox/pkg/value"
)

// Process exit codes, following sysexits(3).
const (
	ExitOK       = 0
	ExitUsage    = 64
	ExitDataErr  = 65
	ExitNoInput  = 66
	ExitSoftware = 70
	ExitConfig   = 78
)

// Runtime wires the parser, checker and evaluator together around one
// interpreter, so globals persist across Run and Eval calls.
type Runtime struct {
	interp   *evaluator.Interpreter
	reporter *diagnostics.StreamReporter
	stdout   io.Writer
	stderr   io.Writer
	logger   *zap.Logger
	trace    func(event evaluator.TraceEvent)
	runID    string
	pretty   bool
}

// Option is a functional option for configuring the Runtime.
type Option func(*Runtime)

// WithStdout sets where print statements and REPL echoes go.
func WithStdout(w io.Writer) Option {
	return func(rt *Runtime) {
		rt.stdout = w
	}
}

// WithStderr sets where runtime faults are reported.
func WithStderr(w io.Writer) Option {
	return func(rt *Runtime) {
		rt.stderr = w
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(rt *Runtime) {
		rt.logger = l
	}
}

// WithRunID sets the run ID for trace events.
func WithRunID(id string) Option {
	return func(rt *Runtime) {
		rt.runID = id
	}
}

// WithTrace sets the trace callback.
func WithTrace(fn func(event evaluator.TraceEvent)) Option {
	return func(rt *Runtime) {
		rt.trace = fn
	}
}

// WithPretty selects human-readable diagnostics over JSON.
func WithPretty(pretty bool) Option {
	return func(rt *Runtime) {
		rt.pretty = pretty
	}
}

// New creates a new Runtime with the given options.
// By default output goes to the process streams and diagnostics are JSON.
func New(opts ...Option) *Runtime {
	rt := &Runtime{
		stdout: os.Stdout,
		stderr: os.Stderr,
		logger: zap.NewNop(),
		runID:  "cli",
	}
	for _, opt := range opts {
		opt(rt)
	}

	rt.reporter = diagnostics.NewStreamReporter(rt.stderr, rt.pretty)
	rt.interp = evaluator.New(
		evaluator.WithStdout(rt.stdout),
		evaluator.WithReporter(rt.reporter),
		evaluator.WithLogger(rt.logger),
		evaluator.WithTrace(rt.trace),
		evaluator.WithRunID(rt.runID),
	)
	return rt
}

// Run parses and executes a Lox program. Syntax errors come back as a
// *DiagnosticError and nothing runs. A runtime fault has already been written
// to stderr when Run returns it.
func (rt *Runtime) Run(source, filename string) error {
	program, diags := parser.Parse(source, filename)
	if len(diags) > 0 {
		rt.logger.Debug("parse failed", zap.String("file", filename), zap.Int("diagnostics", len(diags)))
		return &DiagnosticError{Diagnostics: diags}
	}
	rt.logger.Debug("parsed", zap.String("file", filename), zap.Int("statements", len(program.Statements)))
	return rt.interp.Interpret(program.Statements)
}

// Eval runs one REPL entry. A lone expression without a trailing ';' is
// evaluated and its value echoed; anything else runs as statements.
func (rt *Runtime) Eval(line string) error {
	rt.reporter.Reset()

	program, diags := parser.Parse(line, "<repl>")
	if len(diags) == 0 {
		return rt.interp.Interpret(program.Statements)
	}

	expr, exprDiags := parser.ParseExpression(line, "<repl>")
	if len(exprDiags) > 0 {
		return &DiagnosticError{Diagnostics: diags}
	}
	val, err := rt.interp.Evaluate(expr)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(rt.stdout, value.Stringify(val))
	return err
}

// NeedsMore reports whether a REPL entry stops in the middle of a construct
// and should be continued on the next line. A complete expression without its
// ';' counts as finished, since Eval echoes it.
func NeedsMore(source string) bool {
	_, diags := parser.Parse(source, "<repl>")
	if len(diags) == 0 {
		return false
	}
	if _, exprDiags := parser.ParseExpression(source, "<repl>"); len(exprDiags) == 0 {
		return false
	}
	return parser.IsIncomplete(diags)
}

// Check parses a program and runs the static checker over it without
// executing anything. Names already bound in this runtime count as declared.
func (rt *Runtime) Check(source, filename string) []diagnostics.Diagnostic {
	program, diags := parser.Parse(source, filename)
	if len(diags) > 0 {
		return diags
	}
	return validator.Validate(program, rt.interp.Env().Names()...)
}

// Format parses and formats a Lox program.
func (rt *Runtime) Format(source, filename string) (string, error) {
	program, diags := parser.Parse(source, filename)
	if len(diags) > 0 {
		return "", &DiagnosticError{Diagnostics: diags}
	}
	return formatter.Format(program), nil
}

// PrintAST parses a program and renders its tree, one statement per line.
func (rt *Runtime) PrintAST(source, filename string) (string, error) {
	program, diags := parser.Parse(source, filename)
	if len(diags) > 0 {
		return "", &DiagnosticError{Diagnostics: diags}
	}
	return astprinter.PrintProgram(program), nil
}

// Globals returns a copy of the top-level bindings.
func (rt *Runtime) Globals() map[string]value.Value {
	return rt.interp.Env().Snapshot()
}

// GlobalNames returns the names bound at top level, sorted.
func (rt *Runtime) GlobalNames() []string {
	return rt.interp.Env().Names()
}

// Reset drops every global binding.
func (rt *Runtime) Reset() {
	rt.interp.Reset()
	rt.reporter.Reset()
}

// HadRuntimeError reports whether a runtime fault was reported since the last
// Eval or Reset.
func (rt *Runtime) HadRuntimeError() bool {
	return rt.reporter.HadRuntimeError()
}

// ExitCode maps the error returned by Run to a process exit code.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	var diagErr *DiagnosticError
	if errors.As(err, &diagErr) {
		for _, d := range diagErr.Diagnostics {
			switch d.Code {
			case diagnostics.EIO:
				return ExitNoInput
			case diagnostics.EConfig:
				return ExitConfig
			}
		}
		return ExitDataErr
	}
	return ExitSoftware
}

// DiagnosticError wraps diagnostics as an error.
type DiagnosticError struct {
	Diagnostics []diagnostics.Diagnostic
}

func (e *DiagnosticError) Error() string {
	msgs := make([]string, len(e.Diagnostics))
	for i, d := range e.Diagnostics {
		msgs[i] = fmt.Sprintf("%s: %s", d.Code, d.Message)
	}
	return strings.Join(msgs, "; ")
}
