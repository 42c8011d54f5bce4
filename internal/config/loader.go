package config

import (
	"fmt"
	"os"
	"path/filepath"

	"assetpipe/internal/dirs"
)

// LoadManifest loads and validates a pipeline manifest from a file
// It searches for the manifest in the following priority order:
// 1. Custom path (if provided)
// 2. ./assetpipe.yaml (project root)
// 3. ./.assetpipe/assetpipe.yaml (hidden directory)
func LoadManifest(customPath string) (*Manifest, error) {
	searchPaths := []string{
		customPath, // CLI flag (if provided)
		"./assetpipe.yaml",
		filepath.Join(dirs.ConfigDir, "assetpipe.yaml"),
	}

	var lastError error
	for _, path := range searchPaths {
		if path == "" {
			continue
		}

		// Check if file exists
		if _, err := os.Stat(path); err != nil {
			lastError = err
			continue
		}

		// Parse the manifest
		manifest, err := ParseManifest(path)
		if err != nil {
			return nil, fmt.Errorf("failed to parse manifest at %s: %w", path, err)
		}

		// Apply local overrides before validation so a disabled tool or
		// rewritten command is what gets checked
		overrides, err := LoadOverrides(dirs.OverridesFile)
		if err != nil {
			return nil, err
		}
		if overrides != nil {
			ApplyOverrides(manifest, overrides)
		}

		// Validate the manifest
		if err := Validate(manifest); err != nil {
			return nil, fmt.Errorf("invalid manifest at %s: %w", path, err)
		}

		return manifest, nil
	}

	// No manifest found in any location
	validPaths := []string{}
	for _, path := range searchPaths {
		if path != "" {
			validPaths = append(validPaths, path)
		}
	}

	return nil, fmt.Errorf("no pipeline manifest found in: %v (last error: %v)", validPaths, lastError)
}
