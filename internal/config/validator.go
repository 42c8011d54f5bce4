package config

import (
	"fmt"
	"strings"
)

// Validate performs validation on a parsed manifest
func Validate(manifest *Manifest) error {
	var errors []string

	// Validate version
	if manifest.Version == "" {
		errors = append(errors, "version is required")
	}

	// Validate project metadata
	if manifest.Project.Name == "" {
		errors = append(errors, "project.name is required")
	}

	// Validate imports
	for i, importPath := range manifest.Imports {
		if importPath == "" {
			errors = append(errors, fmt.Sprintf("import at index %d cannot be empty", i))
		}
	}

	// Validate tools
	for toolName, tool := range manifest.Tools {
		if err := validateTool(toolName, tool); err != nil {
			errors = append(errors, err.Error())
		}
	}

	// Validate tasks - allow empty task map (for fresh init), but not nil
	if manifest.Tasks == nil {
		errors = append(errors, "tasks map must be initialized")
	}

	for taskName, task := range manifest.Tasks {
		if err := validateTask(taskName, task, manifest.Tools); err != nil {
			errors = append(errors, err.Error())
		}
	}

	// A name may refer to a task or a pipeline, never both
	for name := range manifest.Pipelines {
		if _, exists := manifest.Tasks[name]; exists {
			errors = append(errors, fmt.Sprintf("'%s' is defined as both a task and a pipeline", name))
		}
	}

	// Validate pipelines
	for pipelineName, pipeline := range manifest.Pipelines {
		if err := validatePipeline(pipelineName, pipeline, manifest); err != nil {
			errors = append(errors, err.Error())
		}
	}

	// Validate watch rules
	for ruleName, rule := range manifest.Watch {
		if err := validateRule(ruleName, rule, manifest); err != nil {
			errors = append(errors, err.Error())
		}
	}

	if len(errors) > 0 {
		return fmt.Errorf("validation errors:\n  - %s", strings.Join(errors, "\n  - "))
	}

	return nil
}

func validateTool(name string, tool Tool) error {
	var errors []string

	if tool.Command == "" {
		errors = append(errors, fmt.Sprintf("tool '%s': command is required", name))
	}

	if IsBuiltinCapability(name) {
		errors = append(errors, fmt.Sprintf("tool '%s': name shadows a builtin capability", name))
	}

	if len(errors) > 0 {
		return fmt.Errorf("%s", strings.Join(errors, "; "))
	}

	return nil
}

func validateTask(name string, task Task, tools map[string]Tool) error {
	var errors []string

	// Required fields
	if task.Capability == "" {
		errors = append(errors, fmt.Sprintf("task '%s': capability is required", name))
	}

	// The capability must be a builtin or a declared tool
	if task.Capability != "" && !IsBuiltinCapability(task.Capability) {
		if _, exists := tools[task.Capability]; !exists {
			errors = append(errors, fmt.Sprintf("task '%s': capability '%s' is neither a builtin nor a declared tool", name, task.Capability))
		}
	}

	// Builtin file operations need source globs to act on
	if (task.Capability == CapabilityClean || task.Capability == CapabilityCopy) && len(task.Src) == 0 {
		errors = append(errors, fmt.Sprintf("task '%s': capability '%s' requires src globs", name, task.Capability))
	}

	if task.From != "" && task.From != "source" && task.From != "dest" {
		errors = append(errors, fmt.Sprintf("task '%s': invalid from '%s' (must be 'source' or 'dest')", name, task.From))
	}

	if len(errors) > 0 {
		return fmt.Errorf("%s", strings.Join(errors, "; "))
	}

	return nil
}

func validatePipeline(name string, pipeline Pipeline, manifest *Manifest) error {
	var errors []string

	if len(pipeline.Steps) == 0 {
		errors = append(errors, fmt.Sprintf("pipeline '%s': must contain at least one step", name))
	}

	// Steps may reference tasks or other pipelines; cycles are detected at
	// resolution time, existence is checked here
	for i, step := range pipeline.Steps {
		if step == "" {
			errors = append(errors, fmt.Sprintf("pipeline '%s': step %d must reference a task", name, i))
			continue
		}
		_, isTask := manifest.Tasks[step]
		_, isPipeline := manifest.Pipelines[step]
		if !isTask && !isPipeline {
			errors = append(errors, fmt.Sprintf("pipeline '%s': step %d references non-existent task '%s'", name, i, step))
		}
	}

	if len(errors) > 0 {
		return fmt.Errorf("%s", strings.Join(errors, "; "))
	}

	return nil
}

func validateRule(name string, rule Rule, manifest *Manifest) error {
	var errors []string

	if len(rule.Globs) == 0 {
		errors = append(errors, fmt.Sprintf("watch rule '%s': must declare at least one glob", name))
	}

	if len(rule.Tasks) == 0 {
		errors = append(errors, fmt.Sprintf("watch rule '%s': must declare at least one task", name))
	}

	for i, taskName := range rule.Tasks {
		if taskName == "" {
			errors = append(errors, fmt.Sprintf("watch rule '%s': task at index %d cannot be empty", name, i))
			continue
		}
		_, isTask := manifest.Tasks[taskName]
		_, isPipeline := manifest.Pipelines[taskName]
		if !isTask && !isPipeline {
			errors = append(errors, fmt.Sprintf("watch rule '%s': task '%s' does not exist", name, taskName))
		}
	}

	if len(errors) > 0 {
		return fmt.Errorf("%s", strings.Join(errors, "; "))
	}

	return nil
}
