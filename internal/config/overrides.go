package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Overrides holds local, per-checkout adjustments that are not meant to be
// committed with the manifest: rewritten tool commands (e.g. pointing a
// compiler at a different binary) and disabled watch rules.
type Overrides struct {
	Tools map[string]ToolOverride `yaml:"tools"`
	Watch map[string]RuleOverride `yaml:"watch"`
}

// ToolOverride adjusts a declared tool.
type ToolOverride struct {
	Command  string `yaml:"command"`
	Disabled bool   `yaml:"disabled"`
}

// RuleOverride adjusts a watch rule.
type RuleOverride struct {
	Disabled bool `yaml:"disabled"`
}

// LoadOverrides reads and parses the overrides YAML file at path.
// Returns nil if the file does not exist.
// Returns an error if the file exists but cannot be read or parsed.
func LoadOverrides(path string) (*Overrides, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read overrides file %s: %w", path, err)
	}

	var overrides Overrides
	if err := yaml.Unmarshal(data, &overrides); err != nil {
		return nil, fmt.Errorf("failed to parse overrides file %s: %w", path, err)
	}

	return &overrides, nil
}

// ApplyOverrides applies local overrides to the manifest in place.
// Glob patterns (e.g. "minify-*") are supported for all sections.
// Disabled flags are additive: once set to true, they stay true.
func ApplyOverrides(manifest *Manifest, overrides *Overrides) {
	// Tools
	for pattern, override := range overrides.Tools {
		for name, tool := range manifest.Tools {
			if matchesPattern(pattern, name) {
				if override.Command != "" {
					tool.Command = override.Command
				}
				if override.Disabled {
					tool.Disabled = true
				}
				manifest.Tools[name] = tool
			}
		}
	}

	// Watch rules
	for pattern, override := range overrides.Watch {
		for name, rule := range manifest.Watch {
			if matchesPattern(pattern, name) {
				if override.Disabled {
					rule.Disabled = true
				}
				manifest.Watch[name] = rule
			}
		}
	}
}

// matchesPattern checks whether name matches pattern using filepath.Match glob syntax.
// An exact match is also accepted (filepath.Match handles that).
func matchesPattern(pattern, name string) bool {
	matched, err := filepath.Match(pattern, name)
	return err == nil && matched
}
