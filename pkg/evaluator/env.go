package evaluator

import (
	"sort"

	"github.com/samber/lo"

	"github.com/thomasrohde/treelox/pkg/ast"
	"github.com/thomasrohde/treelox/pkg/value"
)

type frame map[string]value.Value

// Env is the lexical scope chain, kept as a stack of frames indexed by depth.
// Frame 0 is the top-level scope and lives as long as the Env; every other
// frame belongs to the block that pushed it.
type Env struct {
	frames []frame
}

// NewEnv creates a scope chain holding only the top-level scope.
func NewEnv() *Env {
	return &Env{frames: []frame{make(frame)}}
}

// Depth returns the number of live frames. A fresh Env has depth 1.
func (e *Env) Depth() int {
	return len(e.frames)
}

// Push enters a new innermost scope and returns the depth to hand to Restore
// when the scope ends.
func (e *Env) Push() int {
	depth := len(e.frames)
	e.frames = append(e.frames, make(frame))
	return depth
}

// Restore discards every frame above depth. The top-level frame always survives.
func (e *Env) Restore(depth int) {
	if depth < 1 {
		depth = 1
	}
	for i := depth; i < len(e.frames); i++ {
		e.frames[i] = nil
	}
	if depth < len(e.frames) {
		e.frames = e.frames[:depth]
	}
}

// Define binds name in the innermost scope, replacing any binding it had there.
func (e *Env) Define(name string, val value.Value) {
	e.frames[len(e.frames)-1][name] = val
}

// resolve returns the index of the innermost frame defining name, or -1.
func (e *Env) resolve(name string) int {
	for i := len(e.frames) - 1; i >= 0; i-- {
		if _, ok := e.frames[i][name]; ok {
			return i
		}
	}
	return -1
}

// Get looks up a variable, searching from the innermost scope outward.
func (e *Env) Get(name ast.Token) (value.Value, error) {
	i := e.resolve(name.Lexeme)
	if i < 0 {
		return nil, undefinedVariable(name)
	}
	return e.frames[i][name.Lexeme], nil
}

// Assign overwrites the binding in the nearest scope that defines name.
// It never creates a new binding.
func (e *Env) Assign(name ast.Token, val value.Value) error {
	i := e.resolve(name.Lexeme)
	if i < 0 {
		return undefinedVariable(name)
	}
	e.frames[i][name.Lexeme] = val
	return nil
}

// Names returns the names bound in the top-level scope, sorted.
func (e *Env) Names() []string {
	names := lo.Keys(map[string]value.Value(e.frames[0]))
	sort.Strings(names)
	return names
}

// Has checks whether a variable is defined in any live scope.
func (e *Env) Has(name string) bool {
	return e.resolve(name) >= 0
}

// Snapshot copies the top-level bindings.
func (e *Env) Snapshot() map[string]value.Value {
	out := make(map[string]value.Value, len(e.frames[0]))
	for name, val := range e.frames[0] {
		out[name] = val
	}
	return out
}
