// Package registry holds named task definitions and flattens composite
// pipelines into ordered sequences of leaf invocations.
package registry

import "sort"

// Kind distinguishes leaf tasks from composite pipelines.
type Kind string

const (
	// KindLeaf is a task that invokes exactly one capability.
	KindLeaf Kind = "leaf"
	// KindPipeline is an ordered list of other task references.
	KindPipeline Kind = "pipeline"
)

// Definition describes a registered task.
type Definition struct {
	Kind       Kind
	Capability string   // leaf only
	Steps      []string // pipeline only
}

// LeafInvocation is one entry in a resolved pipeline: the leaf task name
// plus the capability it invokes. Options are looked up by task name in the
// configuration store at execution time, never copied here.
type LeafInvocation struct {
	TaskName   string
	Capability string
}

// Registry maps task names to definitions.
type Registry struct {
	tasks map[string]Definition
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{tasks: make(map[string]Definition)}
}

// Register adds a task definition under a name. Registering the same name
// twice fails with ErrDuplicateTask.
func (r *Registry) Register(name string, def Definition) error {
	if _, exists := r.tasks[name]; exists {
		return duplicatef(name)
	}
	r.tasks[name] = def
	return nil
}

// Lookup returns the definition registered under name.
func (r *Registry) Lookup(name string) (Definition, bool) {
	def, ok := r.tasks[name]
	return def, ok
}

// Names returns all registered task names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.tasks))
	for name := range r.tasks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Resolve expands a task depth-first into a flat ordered sequence of leaf
// invocations, in the literal order steps were declared. Unregistered
// references fail with ErrUnknownTask; revisiting a task that is currently
// being expanded fails with ErrCyclicTask. The in-progress marker for a
// pipeline is cleared once its expansion completes, so diamond-shaped
// references (the same leaf reached twice through different pipelines) are
// legal and produce repeated invocations.
func (r *Registry) Resolve(name string) ([]LeafInvocation, error) {
	var out []LeafInvocation
	inProgress := make(map[string]bool)

	var expand func(name string, path []string) error
	expand = func(name string, path []string) error {
		def, ok := r.Lookup(name)
		if !ok {
			return unknownf(name)
		}
		if inProgress[name] {
			return cycleError(append(append([]string{}, path...), name))
		}

		if def.Kind == KindLeaf {
			out = append(out, LeafInvocation{TaskName: name, Capability: def.Capability})
			return nil
		}

		inProgress[name] = true
		next := append(append([]string{}, path...), name)
		for _, step := range def.Steps {
			if err := expand(step, next); err != nil {
				return err
			}
		}
		delete(inProgress, name)
		return nil
	}

	if err := expand(name, nil); err != nil {
		return nil, err
	}
	return out, nil
}
