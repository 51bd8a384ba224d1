package main

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/peterh/liner"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/thomasrohde/treelox/pkg/runtime"
	"github.com/thomasrohde/treelox/pkg/value"
)

const replHelp = `Enter statements or a bare expression to see its value.
  :env     list global variables
  :reset   drop all globals
  :help    show this message (:help <topic> for the language reference)
  :quit    leave the session`

// prompter is the part of a line editor the REPL loop needs.
type prompter interface {
	Prompt(prompt string) (string, error)
	AppendHistory(item string)
}

func (ap *app) cmdRepl() int {
	fmt.Fprintf(ap.stdout, "lox %s. Type :help for commands.\n", version)

	histPath := ap.cfg.HistoryPath()

	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)

	if f, err := os.Open(histPath); err == nil {
		_, _ = ln.ReadHistory(f)
		_ = f.Close()
	}
	defer func() {
		f, err := os.Create(histPath)
		if err != nil {
			ap.logger.Warn("cannot save history", zap.String("path", histPath), zap.Error(err))
			return
		}
		_, _ = ln.WriteHistory(f)
		_ = f.Close()
	}()

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGTERM, syscall.SIGHUP)
	defer signal.Stop(sigc)
	go func() {
		<-sigc
		ln.Close()
		os.Exit(130)
	}()

	return ap.replLoop(ln, ap.newRuntime())
}

// replLoop reads entries until EOF or :quit, running each against rt so
// globals carry over from one entry to the next.
func (ap *app) replLoop(ln prompter, rt *runtime.Runtime) int {
	for {
		code, ok := readByParseProbe(ln, ap.cfg.Prompt, ap.cfg.ContinuationPrompt)
		if !ok {
			fmt.Fprintln(ap.stdout)
			return runtime.ExitOK
		}

		trimmed := strings.TrimSpace(code)
		if trimmed == "" {
			continue
		}
		ln.AppendHistory(strings.ReplaceAll(code, "\n", " "))

		if strings.HasPrefix(trimmed, ":") {
			if ap.replCommand(strings.ToLower(trimmed), rt) {
				return runtime.ExitOK
			}
			continue
		}

		err := rt.Eval(code)
		var diagErr *runtime.DiagnosticError
		switch {
		case errors.As(err, &diagErr):
			ap.printDiags(ap.pretty, diagErr.Diagnostics...)
		case err != nil && !rt.HadRuntimeError():
			fmt.Fprintln(ap.stderr, err)
		}
	}
}

// replCommand handles a ':' command and reports whether the session should end.
func (ap *app) replCommand(cmd string, rt *runtime.Runtime) bool {
	if topic, ok := strings.CutPrefix(cmd, ":help "); ok {
		ap.cmdHelp(topic)
		return false
	}
	switch cmd {
	case ":quit", ":q", ":exit":
		return true
	case ":help":
		fmt.Fprintln(ap.stdout, replHelp)
	case ":reset":
		rt.Reset()
		fmt.Fprintln(ap.stdout, "globals cleared")
	case ":env":
		globals := rt.Globals()
		for _, name := range rt.GlobalNames() {
			fmt.Fprintf(ap.stdout, "%s = %s\n", name, value.Stringify(globals[name]))
		}
	default:
		fmt.Fprintf(ap.stdout, "unknown command %s. Type :help for commands.\n", cmd)
	}
	return false
}

// readByParseProbe collects lines until they form a complete entry. An entry
// that cannot be finished by more input is returned as is so its errors get
// reported. The boolean is false at end of input.
func readByParseProbe(ln prompter, prompt, cont string) (string, bool) {
	var b strings.Builder

	for {
		p := prompt
		if b.Len() > 0 {
			p = cont
		}
		line, err := ln.Prompt(p)
		if errors.Is(err, io.EOF) {
			if b.Len() > 0 {
				return b.String(), true
			}
			return "", false
		}
		if errors.Is(err, liner.ErrPromptAborted) {
			// Ctrl-C drops the pending entry.
			b.Reset()
			continue
		}
		if err != nil {
			return "", false
		}

		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(line)

		src := b.String()
		if strings.HasPrefix(strings.TrimSpace(src), ":") || !runtime.NeedsMore(src) {
			return src, true
		}
	}
}
