// Package diagnostics defines Lox diagnostic types for lex, parse, check and
// runtime errors, and the reporters that write them out.
package diagnostics

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/thomasrohde/treelox/pkg/ast"
)

// Diagnostic code constants.
const (
	ELex               = "E_LEX"
	EParse             = "E_PARSE"
	ETypeMismatch      = "E_TYPE_MISMATCH"
	EDivisionByZero    = "E_DIVISION_BY_ZERO"
	EUndefinedVariable = "E_UNDEFINED_VARIABLE"
	EIO                = "E_IO"
	EConfig            = "E_CONFIG"
	WUndeclared        = "W_UNDECLARED"
	WShadow            = "W_SHADOW"
)

// IsRuntime reports whether code identifies a runtime fault.
func IsRuntime(code string) bool {
	switch code {
	case ETypeMismatch, EDivisionByZero, EUndefinedVariable:
		return true
	}
	return false
}

// IsWarning reports whether code identifies a non-fatal check warning.
func IsWarning(code string) bool {
	return strings.HasPrefix(code, "W_")
}

// Diagnostic represents a lex, parse, check, or runtime diagnostic.
type Diagnostic struct {
	Code    string    `json:"code"`
	Message string    `json:"message"`
	Span    *ast.Span `json:"span,omitempty"`
	Hint    string    `json:"hint,omitempty"`
}

// MakeDiag creates a new Diagnostic.
func MakeDiag(code, message string, span *ast.Span, hint string) Diagnostic {
	return Diagnostic{
		Code:    code,
		Message: message,
		Span:    span,
		Hint:    hint,
	}
}

// Line returns the starting line of the diagnostic, or 0 when it has no span.
func (d Diagnostic) Line() int {
	if d.Span == nil {
		return 0
	}
	return d.Span.StartLine
}

// FormatDiagnostic formats a single diagnostic for display.
func FormatDiagnostic(d Diagnostic, pretty bool) string {
	if !pretty {
		b, _ := json.Marshal(d)
		return string(b)
	}
	severity := "error"
	if IsWarning(d.Code) {
		severity = "warning"
	}
	out := fmt.Sprintf("%s[%s]: %s\n  --> %s", severity, d.Code, d.Message, location(d.Span))
	if d.Hint != "" {
		out += fmt.Sprintf("\n  hint: %s", d.Hint)
	}
	return out
}

func location(span *ast.Span) string {
	if span == nil {
		return "<unknown>"
	}
	file := span.File
	if file == "" {
		file = "<script>"
	}
	if span.StartCol == 0 {
		return fmt.Sprintf("%s:%d", file, span.StartLine)
	}
	return fmt.Sprintf("%s:%d:%d", file, span.StartLine, span.StartCol)
}

// FormatDiagnostics formats a slice of diagnostics for display.
func FormatDiagnostics(diags []Diagnostic, pretty bool) string {
	if !pretty {
		b, _ := json.Marshal(diags)
		return string(b)
	}
	parts := make([]string, len(diags))
	for i, d := range diags {
		parts[i] = FormatDiagnostic(d, true)
	}
	return strings.Join(parts, "\n\n")
}

// StreamReporter writes each reported diagnostic to an output stream as one
// formatted entry, and remembers whether a runtime fault went through it.
type StreamReporter struct {
	w               io.Writer
	pretty          bool
	hadRuntimeError bool
	hadError        bool
}

// NewStreamReporter creates a reporter writing to w.
func NewStreamReporter(w io.Writer, pretty bool) *StreamReporter {
	return &StreamReporter{w: w, pretty: pretty}
}

// Report writes d to the stream.
func (r *StreamReporter) Report(d Diagnostic) {
	if IsRuntime(d.Code) {
		r.hadRuntimeError = true
	} else if !IsWarning(d.Code) {
		r.hadError = true
	}
	fmt.Fprintln(r.w, FormatDiagnostic(d, r.pretty))
}

// ReportAll writes every diagnostic in order.
func (r *StreamReporter) ReportAll(diags []Diagnostic) {
	for _, d := range diags {
		r.Report(d)
	}
}

// HadRuntimeError reports whether a runtime fault was reported since the last Reset.
func (r *StreamReporter) HadRuntimeError() bool {
	return r.hadRuntimeError
}

// HadError reports whether a lex, parse or I/O error was reported since the last Reset.
func (r *StreamReporter) HadError() bool {
	return r.hadError
}

// Reset clears the error flags, e.g. between REPL turns.
func (r *StreamReporter) Reset() {
	r.hadRuntimeError = false
	r.hadError = false
}
