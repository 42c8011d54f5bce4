package capability

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"assetpipe/internal/config"
)

// PathTransform rewrites a matched source path before it is joined to the
// copy destination.
type PathTransform func(rel string) string

// TransformFromOptions builds the path transform a copy task configures.
// The strip_segment option removes every path segment equal to its value,
// so "views/src/header.tmpl" with strip_segment "src" lands at
// "views/header.tmpl". With no options the path is kept as-is.
func TransformFromOptions(options map[string]interface{}) PathTransform {
	segment, _ := options["strip_segment"].(string)
	if segment == "" {
		return func(rel string) string { return rel }
	}
	return func(rel string) string {
		parts := strings.Split(rel, "/")
		kept := parts[:0]
		for _, part := range parts {
			if part != segment {
				kept = append(kept, part)
			}
		}
		if len(kept) == 0 {
			return rel
		}
		return path.Join(kept...)
	}
}

// Copy copies matched source files into the dest tree, applying the task's
// path transform.
type Copy struct{}

// Name returns the builtin capability name.
func (Copy) Name() string { return config.CapabilityCopy }

// Run copies every file matching the task's src globs from the source tree
// into dest (relative to the dest tree), creating directories as needed.
func (Copy) Run(ctx context.Context, inv Invocation) (*Result, error) {
	files, err := Expand(treeDir(inv), inv.Task.Src)
	if err != nil {
		return nil, fmt.Errorf("expand copy globs: %w", err)
	}

	transform := TransformFromOptions(inv.Task.Options)
	destRoot := filepath.Join(inv.DestDir, filepath.FromSlash(inv.Task.Dest))

	copied := make([]string, 0, len(files))
	for _, rel := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		src := filepath.Join(treeDir(inv), filepath.FromSlash(rel))
		target := filepath.Join(destRoot, filepath.FromSlash(transform(rel)))
		if err := copyFile(src, target); err != nil {
			return nil, err
		}
		copied = append(copied, transform(rel))
	}

	return &Result{Files: copied}, nil
}

// treeDir resolves which tree a task's src globs are matched against.
func treeDir(inv Invocation) string {
	if inv.Task.From == "dest" {
		return inv.DestDir
	}
	return inv.SourceDir
}

// copyFile copies src to target, creating target's directory if needed.
func copyFile(src, target string) error {
	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return fmt.Errorf("create directory for %s: %w", target, err)
	}

	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("open %s: %w", src, err)
	}
	defer in.Close()

	out, err := os.Create(target)
	if err != nil {
		return fmt.Errorf("create %s: %w", target, err)
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("copy %s to %s: %w", src, target, err)
	}

	return out.Close()
}
