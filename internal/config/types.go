package config

import (
	"errors"
	"fmt"
)

// Builtin capability names. Anything else a task names must be declared
// under the manifest's tools section.
const (
	CapabilityClean = "clean"
	CapabilityCopy  = "copy"
	CapabilityWatch = "watch"
)

// BuiltinCapabilities lists the capabilities provided by the runner itself.
var BuiltinCapabilities = []string{CapabilityClean, CapabilityCopy, CapabilityWatch}

// ErrMissingConfig is returned when a task has no configuration entry.
var ErrMissingConfig = errors.New("missing task configuration")

// Manifest represents the complete pipeline configuration.
type Manifest struct {
	Version    string              `yaml:"version"`
	Imports    []string            `yaml:"imports,omitempty"`
	Project    Project             `yaml:"project"`
	Banner     string              `yaml:"banner"`
	Paths      Paths               `yaml:"paths"`
	LiveReload LiveReload          `yaml:"livereload"`
	Tools      map[string]Tool     `yaml:"tools"`
	Tasks      map[string]Task     `yaml:"tasks"`
	Pipelines  map[string]Pipeline `yaml:"pipelines"`
	Watch      map[string]Rule     `yaml:"watch"`
	Defaults   Defaults            `yaml:"defaults"`
}

// Project holds the metadata the banner template is expanded against.
type Project struct {
	Name     string `yaml:"name"`
	Version  string `yaml:"version"`
	Author   string `yaml:"author"`
	Homepage string `yaml:"homepage"`
}

// Paths locates the source and generated asset trees. Both are resolved
// relative to the working directory the runner is invoked from.
type Paths struct {
	Source string `yaml:"source"`
	Dest   string `yaml:"dest"`
}

// LiveReload configures the reload notification side channel.
type LiveReload struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
}

// Tool declares an external capability: a command template expanded against
// the invoking task's sources, destination, options and banner.
type Tool struct {
	Description string            `yaml:"description"`
	Command     string            `yaml:"command"`
	Shell       string            `yaml:"shell"`
	Timeout     int               `yaml:"timeout"`
	Env         map[string]string `yaml:"env"`
	Disabled    bool              `yaml:"disabled,omitempty"`
}

// Task represents a single leaf task: one capability invocation with its
// configuration. Source globs resolve against the source tree unless from
// says otherwise; clean globs and destinations always resolve against the
// dest tree.
type Task struct {
	Description string                 `yaml:"description"`
	Capability  string                 `yaml:"capability"`
	Src         []string               `yaml:"src"`
	From        string                 `yaml:"from,omitempty"` // "source" (default) or "dest"
	Dest        string                 `yaml:"dest"`
	Options     map[string]interface{} `yaml:"options"`
	Timeout     int                    `yaml:"timeout"`
	Env         map[string]string      `yaml:"env"`
}

// Pipeline represents a composite task: an ordered list of task or pipeline
// references executed sequentially.
type Pipeline struct {
	Description string   `yaml:"description"`
	Steps       []string `yaml:"steps"`
}

// Rule binds filesystem path globs to the tasks to re-run on change.
type Rule struct {
	Description string   `yaml:"description"`
	Globs       []string `yaml:"globs"`
	Tasks       []string `yaml:"tasks"`
	LiveReload  bool     `yaml:"livereload"`
	Disabled    bool     `yaml:"disabled,omitempty"`
}

// Defaults represents default values applied to tools and tasks.
type Defaults struct {
	Shell   string            `yaml:"shell"`
	Timeout int               `yaml:"timeout"`
	Env     map[string]string `yaml:"env"`
}

// TaskConfig returns the configuration entry for a task name. It fails with
// ErrMissingConfig when no entry exists.
func (m *Manifest) TaskConfig(name string) (Task, error) {
	task, ok := m.Tasks[name]
	if !ok {
		return Task{}, fmt.Errorf("%w: task '%s'", ErrMissingConfig, name)
	}
	return task, nil
}

// IsBuiltinCapability reports whether name is provided by the runner itself.
func IsBuiltinCapability(name string) bool {
	for _, b := range BuiltinCapabilities {
		if name == b {
			return true
		}
	}
	return false
}
