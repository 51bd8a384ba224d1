package diagnostics_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thomasrohde/treelox/pkg/ast"
	"github.com/thomasrohde/treelox/pkg/diagnostics"
)

func TestMakeDiag(t *testing.T) {
	span := &ast.Span{File: "test.lox", StartLine: 1, StartCol: 1, EndLine: 1, EndCol: 5}
	d := diagnostics.MakeDiag(diagnostics.EParse, "Expect expression.", span, "check syntax")

	assert.Equal(t, diagnostics.EParse, d.Code)
	assert.Equal(t, "Expect expression.", d.Message)
	assert.Equal(t, 1, d.Line())
}

func TestFormatDiagnosticPretty(t *testing.T) {
	span := &ast.Span{File: "test.lox", StartLine: 3, StartCol: 5, EndLine: 3, EndCol: 6}
	d := diagnostics.MakeDiag(diagnostics.EUndefinedVariable, "Undefined variable 'x'.", span, "declare it with 'var x;'")

	out := diagnostics.FormatDiagnostic(d, true)
	assert.Contains(t, out, "error[E_UNDEFINED_VARIABLE]")
	assert.Contains(t, out, "test.lox:3:5")
	assert.Contains(t, out, "hint:")
}

func TestFormatDiagnosticLineOnly(t *testing.T) {
	span := &ast.Span{StartLine: 9, EndLine: 9}
	d := diagnostics.MakeDiag(diagnostics.EDivisionByZero, "Cannot perform division by zero.", span, "")

	out := diagnostics.FormatDiagnostic(d, true)
	assert.Contains(t, out, "<script>:9")
	assert.NotContains(t, out, "hint:")
}

func TestFormatWarning(t *testing.T) {
	d := diagnostics.MakeDiag(diagnostics.WShadow, "'x' shadows an outer variable", nil, "")
	out := diagnostics.FormatDiagnostic(d, true)
	assert.True(t, strings.HasPrefix(out, "warning[W_SHADOW]"), out)
	assert.Contains(t, out, "<unknown>")
}

func TestFormatDiagnosticJSON(t *testing.T) {
	d := diagnostics.MakeDiag(diagnostics.ELex, "Unexpected character.", nil, "")
	out := diagnostics.FormatDiagnostic(d, false)
	assert.Contains(t, out, `"code":"E_LEX"`)
	assert.NotContains(t, out, `"span"`)
}

func TestFormatDiagnosticsJSONArray(t *testing.T) {
	diags := []diagnostics.Diagnostic{
		diagnostics.MakeDiag(diagnostics.EParse, "a", nil, ""),
		diagnostics.MakeDiag(diagnostics.EParse, "b", nil, ""),
	}
	out := diagnostics.FormatDiagnostics(diags, false)
	assert.True(t, strings.HasPrefix(out, "["))
	assert.Equal(t, 2, strings.Count(out, `"code"`))
}

func TestIsRuntime(t *testing.T) {
	assert.True(t, diagnostics.IsRuntime(diagnostics.ETypeMismatch))
	assert.True(t, diagnostics.IsRuntime(diagnostics.EDivisionByZero))
	assert.True(t, diagnostics.IsRuntime(diagnostics.EUndefinedVariable))
	assert.False(t, diagnostics.IsRuntime(diagnostics.EParse))
	assert.False(t, diagnostics.IsRuntime(diagnostics.WShadow))
}

func TestStreamReporter(t *testing.T) {
	var buf bytes.Buffer
	r := diagnostics.NewStreamReporter(&buf, true)

	r.Report(diagnostics.MakeDiag(diagnostics.WUndeclared, "w", nil, ""))
	assert.False(t, r.HadError())
	assert.False(t, r.HadRuntimeError())

	r.Report(diagnostics.MakeDiag(diagnostics.ETypeMismatch, "Operands must be numbers.", &ast.Span{StartLine: 2}, ""))
	assert.True(t, r.HadRuntimeError())
	assert.False(t, r.HadError())

	r.Report(diagnostics.MakeDiag(diagnostics.EParse, "Expect ';' after value.", nil, ""))
	assert.True(t, r.HadError())

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.GreaterOrEqual(t, len(lines), 3)
	assert.Contains(t, buf.String(), "Operands must be numbers.")

	r.Reset()
	assert.False(t, r.HadError())
	assert.False(t, r.HadRuntimeError())
}
