// Command lox is the Lox interpreter CLI.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/alexflint/go-arg"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/thomasrohde/treelox/pkg/config"
	"github.com/thomasrohde/treelox/pkg/diagnostics"
	"github.com/thomasrohde/treelox/pkg/evaluator"
	"github.com/thomasrohde/treelox/pkg/formatter"
	"github.com/thomasrohde/treelox/pkg/help"
	"github.com/thomasrohde/treelox/pkg/runtime"
)

const version = "0.3.0"

type runCmd struct {
	File  string `arg:"positional,required" help:"script to run, or - for stdin"`
	Trace string `arg:"--trace" placeholder:"FILE" help:"write NDJSON trace events to FILE"`
	RunID string `arg:"--run-id" help:"run id recorded in trace events (default cli)"`
}

type checkCmd struct {
	File string `arg:"positional,required" help:"script to check"`
}

type fmtCmd struct {
	File  string `arg:"positional,required" help:"script to format"`
	Write bool   `arg:"-w,--write" help:"rewrite the file instead of printing"`
}

type astCmd struct {
	File string `arg:"positional,required" help:"script to print, or - for stdin"`
}

type replCmd struct{}

type traceCmd struct {
	File string `arg:"positional,required" help:"NDJSON trace file written by run --trace"`
	Text bool   `arg:"--text" help:"print a text summary instead of JSON"`
}

type helpCmd struct {
	Topic string `arg:"positional" help:"topic name or prefix"`
}

type args struct {
	Run   *runCmd   `arg:"subcommand:run" help:"execute a script"`
	Check *checkCmd `arg:"subcommand:check" help:"report syntax errors and warnings without running"`
	Fmt   *fmtCmd   `arg:"subcommand:fmt" help:"print a script in canonical form"`
	AST   *astCmd   `arg:"subcommand:ast" help:"print the syntax tree of a script"`
	Repl  *replCmd  `arg:"subcommand:repl" help:"start an interactive session"`
	Trace *traceCmd `arg:"subcommand:trace" help:"summarize a trace file"`
	Help  *helpCmd  `arg:"subcommand:help" help:"show the language reference"`

	Config   string `arg:"--config,env:LOX_CONFIG" help:"config file (default .lox.yaml, then ~/.config/lox/config.yaml)"`
	LogLevel string `arg:"--log-level,env:LOX_LOG_LEVEL" help:"debug, info, warn or error"`
	Pretty   bool   `arg:"--pretty" help:"human-readable diagnostics"`
	JSON     bool   `arg:"--json" help:"JSON diagnostics"`
}

func (args) Description() string {
	return "lox runs programs written in a small Lox subset: expressions, variables, blocks, if and print."
}

func (args) Version() string {
	return "lox " + version
}

// app carries the streams and settings shared by every subcommand.
type app struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
	cfg    *config.Config
	logger *zap.Logger
	pretty bool
}

func main() {
	os.Exit(realMain(os.Args[1:]))
}

func realMain(argv []string) int {
	var a args
	p, err := arg.NewParser(arg.Config{Program: "lox"}, &a)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return runtime.ExitSoftware
	}
	switch err := p.Parse(argv); {
	case err == arg.ErrHelp:
		p.WriteHelp(os.Stdout)
		return runtime.ExitOK
	case err == arg.ErrVersion:
		fmt.Println(a.Version())
		return runtime.ExitOK
	case err != nil:
		p.WriteUsage(os.Stderr)
		fmt.Fprintf(os.Stderr, "error: %s\n", err)
		return runtime.ExitUsage
	}
	if p.Subcommand() == nil {
		p.WriteHelp(os.Stderr)
		return runtime.ExitUsage
	}

	ap := &app{stdin: os.Stdin, stdout: os.Stdout, stderr: os.Stderr}
	if code := ap.configure(a); code != runtime.ExitOK {
		return code
	}
	defer func() { _ = ap.logger.Sync() }()
	return ap.dispatch(a)
}

// dispatch runs the selected subcommand and returns its exit code.
func (ap *app) dispatch(a args) int {
	switch {
	case a.Run != nil:
		return ap.cmdRun(a.Run)
	case a.Check != nil:
		return ap.cmdCheck(a.Check)
	case a.Fmt != nil:
		return ap.cmdFmt(a.Fmt)
	case a.AST != nil:
		return ap.cmdAST(a.AST)
	case a.Repl != nil:
		return ap.cmdRepl()
	case a.Trace != nil:
		return ap.cmdTrace(a.Trace)
	case a.Help != nil:
		return ap.cmdHelp(a.Help.Topic)
	}
	return runtime.ExitUsage
}

// configure loads settings, applies flag overrides, and builds the logger.
func (ap *app) configure(a args) int {
	var (
		cfg *config.Config
		err error
	)
	if a.Config != "" {
		cfg, err = config.LoadFile(a.Config)
	} else {
		cwd, _ := os.Getwd()
		cfg, err = config.Load(cwd)
	}
	if err == nil && a.LogLevel != "" {
		cfg.LogLevel = a.LogLevel
		err = cfg.Validate()
	}
	if err != nil {
		ap.printDiags(cfgPretty(a), diagnostics.MakeDiag(diagnostics.EConfig, err.Error(), nil, ""))
		return runtime.ExitConfig
	}

	logger, err := config.Logger(cfg)
	if err != nil {
		ap.printDiags(cfgPretty(a), diagnostics.MakeDiag(diagnostics.EConfig, err.Error(), nil, ""))
		return runtime.ExitConfig
	}

	ap.cfg = cfg
	ap.logger = logger
	ap.pretty = cfg.PrettyDiagnostics
	if a.Pretty {
		ap.pretty = true
	}
	if a.JSON {
		ap.pretty = false
	}
	logger.Debug("config loaded", zap.String("source", cfg.Source), zap.String("logLevel", cfg.LogLevel))
	return runtime.ExitOK
}

// cfgPretty picks the diagnostic style before a config is available.
func cfgPretty(a args) bool {
	return !a.JSON
}

func (ap *app) printDiags(pretty bool, diags ...diagnostics.Diagnostic) {
	fmt.Fprintln(ap.stderr, diagnostics.FormatDiagnostics(diags, pretty))
}

func (ap *app) newRuntime(opts ...runtime.Option) *runtime.Runtime {
	base := []runtime.Option{
		runtime.WithStdout(ap.stdout),
		runtime.WithStderr(ap.stderr),
		runtime.WithLogger(ap.logger),
		runtime.WithPretty(ap.pretty),
	}
	return runtime.New(append(base, opts...)...)
}

// readSource returns the script text and the name to report it under.
func (ap *app) readSource(file string) (string, string, error) {
	if file == "-" {
		data, err := io.ReadAll(ap.stdin)
		if err != nil {
			return "", "", errors.Wrap(err, "read stdin")
		}
		return string(data), "<stdin>", nil
	}
	data, err := os.ReadFile(file)
	if err != nil {
		return "", "", errors.Wrapf(err, "cannot read file %s", file)
	}
	return string(data), file, nil
}

// loadSource reads file, reporting an E_IO diagnostic on failure.
func (ap *app) loadSource(file string) (string, string, int) {
	source, filename, err := ap.readSource(file)
	if err != nil {
		ap.printDiags(ap.pretty, diagnostics.MakeDiag(diagnostics.EIO, err.Error(), nil, ""))
		return "", "", runtime.ExitNoInput
	}
	return source, filename, runtime.ExitOK
}

func (ap *app) cmdRun(c *runCmd) int {
	source, filename, code := ap.loadSource(c.File)
	if code != runtime.ExitOK {
		return code
	}

	var opts []runtime.Option
	if c.RunID != "" {
		opts = append(opts, runtime.WithRunID(c.RunID))
	}
	traceOut, closeTrace, err := ap.traceSink(c.Trace)
	if err != nil {
		ap.printDiags(ap.pretty, diagnostics.MakeDiag(diagnostics.EIO, err.Error(), nil, ""))
		return runtime.ExitNoInput
	}
	defer closeTrace()
	if traceOut != nil {
		enc := json.NewEncoder(traceOut)
		opts = append(opts, runtime.WithTrace(func(ev evaluator.TraceEvent) {
			_ = enc.Encode(ev)
		}))
	}

	rt := ap.newRuntime(opts...)
	err = rt.Run(source, filename)

	var diagErr *runtime.DiagnosticError
	if errors.As(err, &diagErr) {
		ap.printDiags(ap.pretty, diagErr.Diagnostics...)
	} else if err != nil && !rt.HadRuntimeError() {
		// Faults were already reported; anything else is an I/O failure.
		fmt.Fprintln(ap.stderr, err)
	}
	return runtime.ExitCode(err)
}

// traceSink opens the trace destination: the named file, stderr when tracing
// is switched on in config, or nothing.
func (ap *app) traceSink(path string) (io.Writer, func(), error) {
	switch {
	case path != "":
		f, err := os.Create(path)
		if err != nil {
			return nil, func() {}, errors.Wrapf(err, "cannot create trace file %s", path)
		}
		return f, func() { _ = f.Close() }, nil
	case ap.cfg != nil && ap.cfg.Trace:
		return ap.stderr, func() {}, nil
	}
	return nil, func() {}, nil
}

func (ap *app) cmdCheck(c *checkCmd) int {
	source, filename, code := ap.loadSource(c.File)
	if code != runtime.ExitOK {
		return code
	}

	diags := ap.newRuntime().Check(source, filename)
	if len(diags) > 0 {
		ap.printDiags(ap.pretty, diags...)
	}
	for _, d := range diags {
		if !diagnostics.IsWarning(d.Code) {
			return runtime.ExitDataErr
		}
	}

	if len(diags) == 0 {
		if ap.pretty {
			fmt.Fprintln(ap.stdout, "No errors found.")
		} else {
			fmt.Fprintln(ap.stdout, "[]")
		}
	}
	return runtime.ExitOK
}

func (ap *app) cmdFmt(c *fmtCmd) int {
	source, filename, code := ap.loadSource(c.File)
	if code != runtime.ExitOK {
		return code
	}

	formatted, err := ap.newRuntime().Format(source, filename)
	if err != nil {
		var diagErr *runtime.DiagnosticError
		if errors.As(err, &diagErr) {
			ap.printDiags(ap.pretty, diagErr.Diagnostics...)
		}
		return runtime.ExitCode(err)
	}

	if formatter.HasComments(source) {
		fmt.Fprintln(ap.stderr, "warning: comments are not preserved by the formatter")
	}

	if c.Write && c.File != "-" {
		if err := os.WriteFile(c.File, []byte(formatted), 0o644); err != nil {
			fmt.Fprintf(ap.stderr, "error writing file: %s\n", err)
			return runtime.ExitNoInput
		}
		return runtime.ExitOK
	}
	fmt.Fprint(ap.stdout, formatted)
	return runtime.ExitOK
}

func (ap *app) cmdAST(c *astCmd) int {
	source, filename, code := ap.loadSource(c.File)
	if code != runtime.ExitOK {
		return code
	}

	tree, err := ap.newRuntime().PrintAST(source, filename)
	if err != nil {
		var diagErr *runtime.DiagnosticError
		if errors.As(err, &diagErr) {
			ap.printDiags(ap.pretty, diagErr.Diagnostics...)
		}
		return runtime.ExitCode(err)
	}
	if tree != "" {
		fmt.Fprintln(ap.stdout, tree)
	}
	return runtime.ExitOK
}

func (ap *app) cmdHelp(topic string) int {
	if topic == "" {
		fmt.Fprint(ap.stdout, help.QUICKREF)
		return runtime.ExitOK
	}
	name, content, err := help.MatchTopic(topic)
	if err != nil {
		fmt.Fprintln(ap.stderr, err)
		return runtime.ExitUsage
	}
	fmt.Fprintf(ap.stdout, "%s\n\n%s\n", strings.ToUpper(name), content)
	return runtime.ExitOK
}
