package capability

import (
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
)

// Match reports whether a slash-separated relative path matches pattern.
// Segments use filepath.Match syntax; a bare "**" segment matches any number
// of path segments, including none.
func Match(pattern, name string) (bool, error) {
	pat := strings.Split(path.Clean(filepath.ToSlash(pattern)), "/")
	parts := strings.Split(path.Clean(filepath.ToSlash(name)), "/")
	return matchSegments(pat, parts)
}

func matchSegments(pat, name []string) (bool, error) {
	for len(pat) > 0 {
		if pat[0] == "**" {
			// Try consuming zero or more leading segments of name.
			for i := 0; i <= len(name); i++ {
				ok, err := matchSegments(pat[1:], name[i:])
				if err != nil || ok {
					return ok, err
				}
			}
			return false, nil
		}
		if len(name) == 0 {
			return false, nil
		}
		ok, err := path.Match(pat[0], name[0])
		if err != nil || !ok {
			return ok, err
		}
		pat = pat[1:]
		name = name[1:]
	}
	return len(name) == 0, nil
}

// MatchAny reports whether name matches any of the patterns.
func MatchAny(patterns []string, name string) (bool, error) {
	for _, pattern := range patterns {
		ok, err := Match(pattern, name)
		if err != nil {
			return false, fmt.Errorf("invalid glob pattern '%s': %w", pattern, err)
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}

// Expand walks baseDir and returns the relative slash-separated paths of all
// regular files matching any pattern, sorted. A missing baseDir yields an
// empty result rather than an error: a tree that does not exist yet simply
// has nothing to match.
func Expand(baseDir string, patterns []string) ([]string, error) {
	if _, err := os.Stat(baseDir); os.IsNotExist(err) {
		return nil, nil
	}

	var out []string
	err := filepath.WalkDir(baseDir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(baseDir, p)
		if err != nil {
			return err
		}
		ok, err := MatchAny(patterns, filepath.ToSlash(rel))
		if err != nil {
			return err
		}
		if ok {
			out = append(out, filepath.ToSlash(rel))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Strings(out)
	return out, nil
}

// BaseDir returns the longest static directory prefix of a glob pattern:
// the part before the first segment containing a meta character. Used to
// decide which directories to register with the filesystem watcher.
func BaseDir(pattern string) string {
	segments := strings.Split(path.Clean(filepath.ToSlash(pattern)), "/")
	var static []string
	for _, seg := range segments {
		if strings.ContainsAny(seg, "*?[") {
			break
		}
		static = append(static, seg)
	}
	if len(static) == 0 {
		return "."
	}
	// A fully static pattern names a file; its directory is the base.
	if len(static) == len(segments) {
		static = static[:len(static)-1]
		if len(static) == 0 {
			return "."
		}
	}
	return path.Join(static...)
}
