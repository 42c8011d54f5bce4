package capability

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"assetpipe/internal/config"
)

// Clean deletes generated artifacts under the dest tree. Task src globs are
// resolved relative to the dest tree regardless of the task's from field:
// clean only ever touches generated output.
type Clean struct{}

// Name returns the builtin capability name.
func (Clean) Name() string { return config.CapabilityClean }

// Run removes all files under the dest tree matching the task's globs, then
// prunes directories left empty by the removal.
func (Clean) Run(ctx context.Context, inv Invocation) (*Result, error) {
	files, err := Expand(inv.DestDir, inv.Task.Src)
	if err != nil {
		return nil, fmt.Errorf("expand clean globs: %w", err)
	}

	removed := make([]string, 0, len(files))
	dirs := make(map[string]bool)
	for _, rel := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		target := filepath.Join(inv.DestDir, filepath.FromSlash(rel))
		if err := os.Remove(target); err != nil {
			return nil, fmt.Errorf("remove %s: %w", target, err)
		}
		removed = append(removed, rel)
		dirs[filepath.Dir(target)] = true
	}

	// Prune empty parents, stopping at the dest tree root.
	for dir := range dirs {
		for dir != inv.DestDir && dir != "." && dir != string(filepath.Separator) {
			entries, err := os.ReadDir(dir)
			if err != nil || len(entries) > 0 {
				break
			}
			if err := os.Remove(dir); err != nil {
				break
			}
			dir = filepath.Dir(dir)
		}
	}

	return &Result{Files: removed}, nil
}
