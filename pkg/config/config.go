// Package config loads CLI settings for the lox tool.
package config

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

// File names searched by Load.
const (
	ProjectFile = ".lox.yaml"
	UserFile    = "config.yaml"
)

// Config holds the settings that shape the CLI and REPL. None of them change
// what a program evaluates to.
type Config struct {
	Prompt             string `yaml:"prompt"`
	ContinuationPrompt string `yaml:"continuationPrompt"`
	HistoryFile        string `yaml:"historyFile"`
	LogLevel           string `yaml:"logLevel"`
	PrettyDiagnostics  bool   `yaml:"prettyDiagnostics"`
	Trace              bool   `yaml:"trace"`

	// Source is the file the settings came from, or "" for defaults.
	Source string `yaml:"-"`
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		Prompt:             "> ",
		ContinuationPrompt: ". ",
		LogLevel:           "warn",
		PrettyDiagnostics:  true,
	}
}

// Load reads settings from the project file in projectDir, then the user file
// under ~/.config/lox, then falls back to defaults. A file that exists but
// cannot be parsed is an error rather than a silent fallback.
func Load(projectDir string) (*Config, error) {
	candidates := []string{filepath.Join(projectDir, ProjectFile)}
	if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(home, ".config", "lox", UserFile))
	}

	for _, path := range candidates {
		cfg, err := LoadFile(path)
		if err == nil {
			return cfg, nil
		}
		if !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
	}
	return Default(), nil
}

// LoadFile reads settings from path. Fields the file leaves out keep their
// default values; unknown fields are rejected.
func LoadFile(path string) (*Config, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, errors.Wrapf(err, "config: resolve %s", path)
	}
	file, err := os.Open(abs)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	cfg := Default()
	decoder := yaml.NewDecoder(file)
	decoder.KnownFields(true)
	if err := decoder.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, errors.Wrapf(err, "config: parse %s", abs)
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrapf(err, "config: %s", abs)
	}
	cfg.Source = abs
	return cfg, nil
}

// Validate checks field values that YAML typing alone cannot.
func (c *Config) Validate() error {
	if _, err := parseLevel(c.LogLevel); err != nil {
		return err
	}
	if c.Prompt == "" {
		return errors.New("prompt must not be empty")
	}
	return nil
}

// HistoryPath resolves the REPL history file, expanding a leading "~/".
// An empty setting means ~/.lox_history.
func (c *Config) HistoryPath() string {
	home, err := os.UserHomeDir()
	switch {
	case c.HistoryFile == "":
		if err != nil {
			return ""
		}
		return filepath.Join(home, ".lox_history")
	case strings.HasPrefix(c.HistoryFile, "~/") && err == nil:
		return filepath.Join(home, c.HistoryFile[2:])
	}
	return c.HistoryFile
}

func parseLevel(s string) (zapcore.Level, error) {
	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(strings.ToLower(strings.TrimSpace(s)))); err != nil {
		return lvl, errors.Errorf("unknown log level %q", s)
	}
	return lvl, nil
}

// Logger builds a console logger writing to stderr at the configured level.
func Logger(c *Config) (*zap.Logger, error) {
	lvl, err := parseLevel(c.LogLevel)
	if err != nil {
		return nil, err
	}
	zc := zap.NewDevelopmentConfig()
	zc.Level = zap.NewAtomicLevelAt(lvl)
	zc.OutputPaths = []string{"stderr"}
	zc.ErrorOutputPaths = []string{"stderr"}
	zc.DisableStacktrace = true
	logger, err := zc.Build()
	if err != nil {
		return nil, errors.Wrap(err, "config: build logger")
	}
	return logger, nil
}
