package capability

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"assetpipe/internal/config"
)

func TestCleanRemovesGeneratedArtifacts(t *testing.T) {
	dest := t.TempDir()
	writeFiles(t, dest, []string{
		"css/main.css",
		"css/main.css.map",
		"js/app.js",
		"views/index.html",
		"style.css", // theme stylesheet header, not generated
	})

	inv := Invocation{
		TaskName: "clean",
		Task: config.Task{
			Capability: config.CapabilityClean,
			Src:        []string{"css/**", "js/**", "views/**/*.html"},
		},
		DestDir: dest,
	}

	result, err := Clean{}.Run(context.Background(), inv)
	if err != nil {
		t.Fatalf("clean failed: %v", err)
	}
	if len(result.Files) != 4 {
		t.Errorf("expected 4 removed files, got %d: %v", len(result.Files), result.Files)
	}

	// Generated trees are gone, including the now-empty directories
	for _, gone := range []string{"css", "js", filepath.Join("views", "index.html")} {
		if _, err := os.Stat(filepath.Join(dest, gone)); !os.IsNotExist(err) {
			t.Errorf("expected %s to be removed", gone)
		}
	}

	// Unmatched files survive
	if _, err := os.Stat(filepath.Join(dest, "style.css")); err != nil {
		t.Errorf("expected style.css to survive: %v", err)
	}
}

func TestCleanMissingDestTree(t *testing.T) {
	inv := Invocation{
		Task:    config.Task{Src: []string{"css/**"}},
		DestDir: filepath.Join(t.TempDir(), "missing"),
	}

	result, err := Clean{}.Run(context.Background(), inv)
	if err != nil {
		t.Fatalf("clean on missing tree failed: %v", err)
	}
	if len(result.Files) != 0 {
		t.Errorf("expected nothing removed, got %v", result.Files)
	}
}

func TestCopyWithStripSegment(t *testing.T) {
	source := t.TempDir()
	dest := t.TempDir()
	writeFiles(t, source, []string{
		"views/src/header.tmpl",
		"views/src/partials/nav.tmpl",
		"views/readme.txt",
	})

	inv := Invocation{
		TaskName: "copy-templates",
		Task: config.Task{
			Capability: config.CapabilityCopy,
			Src:        []string{"views/**/*.tmpl"},
			Options:    map[string]interface{}{"strip_segment": "src"},
		},
		SourceDir: source,
		DestDir:   dest,
	}

	result, err := Copy{}.Run(context.Background(), inv)
	if err != nil {
		t.Fatalf("copy failed: %v", err)
	}
	if len(result.Files) != 2 {
		t.Fatalf("expected 2 copied files, got %v", result.Files)
	}

	// The src segment is stripped from the copied paths
	for _, want := range []string{
		filepath.Join("views", "header.tmpl"),
		filepath.Join("views", "partials", "nav.tmpl"),
	} {
		if _, err := os.Stat(filepath.Join(dest, want)); err != nil {
			t.Errorf("expected %s to exist: %v", want, err)
		}
	}
	if _, err := os.Stat(filepath.Join(dest, "views", "src")); !os.IsNotExist(err) {
		t.Error("expected no views/src directory in dest")
	}
}

func TestCopyWithoutTransformKeepsPaths(t *testing.T) {
	source := t.TempDir()
	dest := t.TempDir()
	writeFiles(t, source, []string{"fonts/icons.woff"})

	inv := Invocation{
		Task: config.Task{
			Src:  []string{"fonts/*"},
			Dest: "assets",
		},
		SourceDir: source,
		DestDir:   dest,
	}

	if _, err := (Copy{}).Run(context.Background(), inv); err != nil {
		t.Fatalf("copy failed: %v", err)
	}

	target := filepath.Join(dest, "assets", "fonts", "icons.woff")
	data, err := os.ReadFile(target)
	if err != nil {
		t.Fatalf("expected copied file: %v", err)
	}
	if string(data) != "fonts/icons.woff\n" {
		t.Errorf("unexpected copied content: %s", data)
	}
}

func TestTransformFromOptions(t *testing.T) {
	tests := []struct {
		name    string
		options map[string]interface{}
		in      string
		want    string
	}{
		{"no options", nil, "views/src/a.tmpl", "views/src/a.tmpl"},
		{"strip middle", map[string]interface{}{"strip_segment": "src"}, "views/src/a.tmpl", "views/a.tmpl"},
		{"strip leading", map[string]interface{}{"strip_segment": "views"}, "views/a.tmpl", "a.tmpl"},
		{"segment absent", map[string]interface{}{"strip_segment": "lib"}, "views/a.tmpl", "views/a.tmpl"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TransformFromOptions(tt.options)(tt.in); got != tt.want {
				t.Errorf("transform(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
