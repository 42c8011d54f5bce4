package config

import (
	"fmt"
)

// mergeManifests combines a base manifest with imported manifests
// The base manifest provides the version, project metadata, paths, banner,
// livereload settings and defaults
// Imported manifests contribute tools, tasks, pipelines and watch rules
// Returns an error if duplicate keys are found
func mergeManifests(base *Manifest, imports []*Manifest) (*Manifest, error) {
	result := &Manifest{
		Version:    base.Version,
		Project:    base.Project,
		Banner:     base.Banner,
		Paths:      base.Paths,
		LiveReload: base.LiveReload,
		Defaults:   base.Defaults,
		Tools:      make(map[string]Tool),
		Tasks:      make(map[string]Task),
		Pipelines:  make(map[string]Pipeline),
		Watch:      make(map[string]Rule),
	}

	// Start with base manifest tools, tasks, pipelines and watch rules
	if err := mergeTools(result.Tools, base.Tools); err != nil {
		return nil, err
	}
	if err := mergeTasks(result.Tasks, base.Tasks); err != nil {
		return nil, err
	}
	if err := mergePipelines(result.Pipelines, base.Pipelines); err != nil {
		return nil, err
	}
	if err := mergeWatchRules(result.Watch, base.Watch); err != nil {
		return nil, err
	}

	// Merge each imported manifest
	for _, imported := range imports {
		if err := mergeTools(result.Tools, imported.Tools); err != nil {
			return nil, err
		}
		if err := mergeTasks(result.Tasks, imported.Tasks); err != nil {
			return nil, err
		}
		if err := mergePipelines(result.Pipelines, imported.Pipelines); err != nil {
			return nil, err
		}
		if err := mergeWatchRules(result.Watch, imported.Watch); err != nil {
			return nil, err
		}
	}

	return result, nil
}

// mergeTools merges source tools into destination
// Returns error if duplicate tool names are found
func mergeTools(dst, src map[string]Tool) error {
	for name, tool := range src {
		if _, exists := dst[name]; exists {
			return fmt.Errorf("duplicate tool name '%s' found during merge", name)
		}
		dst[name] = tool
	}
	return nil
}

// mergeTasks merges source tasks into destination
// Returns error if duplicate task names are found
func mergeTasks(dst, src map[string]Task) error {
	for name, task := range src {
		if _, exists := dst[name]; exists {
			return fmt.Errorf("duplicate task name '%s' found during merge", name)
		}
		dst[name] = task
	}
	return nil
}

// mergePipelines merges source pipelines into destination
// Returns error if duplicate pipeline names are found
func mergePipelines(dst, src map[string]Pipeline) error {
	for name, pipeline := range src {
		if _, exists := dst[name]; exists {
			return fmt.Errorf("duplicate pipeline name '%s' found during merge", name)
		}
		dst[name] = pipeline
	}
	return nil
}

// mergeWatchRules merges source watch rules into destination
// Returns error if duplicate rule names are found
func mergeWatchRules(dst, src map[string]Rule) error {
	for name, rule := range src {
		if _, exists := dst[name]; exists {
			return fmt.Errorf("duplicate watch rule name '%s' found during merge", name)
		}
		dst[name] = rule
	}
	return nil
}
