// Package testutil provides shared test helpers for the lox CLI tests.
package testutil

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// ScenariosDir is the scenario root, relative to the cmd/lox package.
const ScenariosDir = "testdata/scenarios"

// Scenario is one end-to-end CLI case loaded from a scenario.yaml file.
type Scenario struct {
	Cmd   []string      `yaml:"cmd"`
	Stdin string        `yaml:"stdin,omitempty"`
	Meta  *ScenarioMeta `yaml:"meta,omitempty"`
	// Expect describes the outcome the command must produce.
	Expect ExpectedResult `yaml:"expect"`
}

// ScenarioMeta holds optional scenario metadata.
type ScenarioMeta struct {
	Description string   `yaml:"description,omitempty"`
	Tags        []string `yaml:"tags,omitempty"`
}

// ExpectedResult describes the expected outcome of running a scenario.
// Empty text fields are not checked.
type ExpectedResult struct {
	ExitCode       int      `yaml:"exitCode"`
	Stdout         *string  `yaml:"stdout,omitempty"`
	StdoutContains []string `yaml:"stdoutContains,omitempty"`
	Stderr         *string  `yaml:"stderr,omitempty"`
	StderrContains []string `yaml:"stderrContains,omitempty"`
	// DiagnosticCodes lists the codes of the JSON diagnostics on stderr, in order.
	DiagnosticCodes []string `yaml:"diagnosticCodes,omitempty"`
}

// LoadScenario loads a scenario from a directory containing scenario.yaml.
func LoadScenario(dir string) (*Scenario, error) {
	f, err := os.Open(filepath.Join(dir, "scenario.yaml"))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var s Scenario
	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(&s); err != nil {
		return nil, errors.Wrapf(err, "decode scenario %s", dir)
	}
	if len(s.Cmd) == 0 {
		return nil, errors.Errorf("scenario %s has no cmd", dir)
	}
	return &s, nil
}

// ListScenarios returns all scenario directories under the given root, sorted.
func ListScenarios(root string) ([]string, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, err
	}
	var dirs []string
	for _, e := range entries {
		if e.IsDir() {
			scenarioPath := filepath.Join(root, e.Name(), "scenario.yaml")
			if _, err := os.Stat(scenarioPath); err == nil {
				dirs = append(dirs, filepath.Join(root, e.Name()))
			}
		}
	}
	sort.Strings(dirs)
	return dirs, nil
}

// ResolveArgs rewrites the .lox and .ndjson arguments of cmd to paths inside
// scenarioDir.
func ResolveArgs(scenarioDir string, cmd []string) []string {
	out := make([]string, len(cmd))
	for i, arg := range cmd {
		if strings.HasSuffix(arg, ".lox") || strings.HasSuffix(arg, ".ndjson") {
			arg = filepath.Join(scenarioDir, arg)
		}
		out[i] = arg
	}
	return out
}
