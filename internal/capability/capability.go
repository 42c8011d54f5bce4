// Package capability implements the leaf operations a task can invoke:
// builtin file operations (clean, copy) and external tools declared in the
// manifest's tools section.
package capability

import (
	"context"
	"fmt"
	"io"

	"assetpipe/internal/config"
)

// Invocation carries everything a capability needs for one leaf execution.
type Invocation struct {
	TaskName  string
	Task      config.Task
	SourceDir string
	DestDir   string
	Banner    string    // banner expanded at invocation time
	Log       io.Writer // run log sink, may be nil
}

// Result is the outcome of a single capability invocation.
type Result struct {
	Output string   // combined tool output, empty for builtins
	Files  []string // files produced or removed
}

// Capability executes one kind of leaf operation.
type Capability interface {
	Name() string
	Run(ctx context.Context, inv Invocation) (*Result, error)
}

// Set holds the capabilities available to a pipeline.
type Set struct {
	caps map[string]Capability
}

// NewSet creates an empty capability set.
func NewSet() *Set {
	return &Set{caps: make(map[string]Capability)}
}

// Register adds a capability. Registering the same name twice is an error.
func (s *Set) Register(c Capability) error {
	if _, exists := s.caps[c.Name()]; exists {
		return fmt.Errorf("capability '%s' is already registered", c.Name())
	}
	s.caps[c.Name()] = c
	return nil
}

// Get returns the capability registered under name.
func (s *Set) Get(name string) (Capability, error) {
	c, ok := s.caps[name]
	if !ok {
		return nil, fmt.Errorf("capability '%s' is not registered", name)
	}
	return c, nil
}

// FromManifest builds a set with the builtin file operations plus one exec
// capability per enabled tool declaration.
func FromManifest(manifest *config.Manifest) (*Set, error) {
	set := NewSet()

	if err := set.Register(Clean{}); err != nil {
		return nil, err
	}
	if err := set.Register(Copy{}); err != nil {
		return nil, err
	}

	for name, tool := range manifest.Tools {
		if tool.Disabled {
			continue
		}
		if err := set.Register(NewExec(name, tool)); err != nil {
			return nil, err
		}
	}

	return set, nil
}

// Func adapts a plain function into a Capability. Used for capabilities that
// need wiring the set cannot provide itself, such as the watch builtin.
type Func struct {
	name string
	fn   func(ctx context.Context, inv Invocation) (*Result, error)
}

// NewFunc creates a function-backed capability.
func NewFunc(name string, fn func(ctx context.Context, inv Invocation) (*Result, error)) *Func {
	return &Func{name: name, fn: fn}
}

// Name returns the capability name.
func (f *Func) Name() string { return f.name }

// Run invokes the wrapped function.
func (f *Func) Run(ctx context.Context, inv Invocation) (*Result, error) {
	return f.fn(ctx, inv)
}
