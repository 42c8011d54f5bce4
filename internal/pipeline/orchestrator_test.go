package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"testing"

	"assetpipe/internal/capability"
	"assetpipe/internal/config"
	"assetpipe/internal/logs"
	"assetpipe/internal/registry"
)

func setupRunTest(t *testing.T) {
	t.Helper()
	tmpDir := t.TempDir()
	oldWd, err := os.Getwd()
	if err != nil {
		t.Fatalf("failed to get working directory: %v", err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(oldWd); err != nil {
			t.Errorf("failed to restore working directory: %v", err)
		}
	})
	if err := os.Chdir(tmpDir); err != nil {
		t.Fatalf("failed to change directory: %v", err)
	}
	if err := logs.Setup(); err != nil {
		t.Fatalf("failed to setup logs: %v", err)
	}
}

func testLogger() *logs.Logger {
	return logs.NewLogger(io.Discard, logs.LevelError)
}

// recordingSet builds a capability set whose capabilities append the invoking
// task name to order and remember the last invocation they saw.
func recordingSet(t *testing.T, order *[]string, last *capability.Invocation, names ...string) *capability.Set {
	t.Helper()
	set := capability.NewSet()
	for _, name := range names {
		err := set.Register(capability.NewFunc(name, func(ctx context.Context, inv capability.Invocation) (*capability.Result, error) {
			*order = append(*order, inv.TaskName)
			if last != nil {
				*last = inv
			}
			return &capability.Result{Output: "ok"}, nil
		}))
		if err != nil {
			t.Fatalf("failed to register capability: %v", err)
		}
	}
	return set
}

func buildManifest() *config.Manifest {
	return &config.Manifest{
		Version: "1",
		Project: config.Project{Name: "theme-juice", Version: "1.0.0", Author: "dev"},
		Banner:  "/* {{.Name}} v{{.Version}} */",
		Paths:   config.Paths{Source: "assets", Dest: "public"},
		Tasks: map[string]config.Task{
			"clean":          {Capability: "wipe", Src: []string{"**/*"}},
			"compile-styles": {Capability: "sass", Src: []string{"scss/*.scss"}, Dest: "css/main.css"},
			"minify-styles":  {Capability: "cssmin", Src: []string{"css/*.css"}, From: "dest", Dest: "css/"},
		},
		Pipelines: map[string]config.Pipeline{
			"styles": {Steps: []string{"compile-styles", "minify-styles"}},
			"build":  {Steps: []string{"clean", "styles"}},
		},
	}
}

func TestRunExecutesStepsInOrder(t *testing.T) {
	setupRunTest(t)

	var order []string
	var last capability.Invocation
	set := recordingSet(t, &order, &last, "wipe", "sass", "cssmin")

	orch, err := New(buildManifest(), set, testLogger())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	report, err := orch.Run(context.Background(), "build", "cli")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !report.Success {
		t.Fatalf("expected success, got failure: %s", report.Error)
	}
	want := []string{"clean", "compile-styles", "minify-styles"}
	if len(order) != len(want) {
		t.Fatalf("expected %d steps, got %d: %v", len(want), len(order), order)
	}
	for i, name := range want {
		if order[i] != name {
			t.Errorf("step %d: expected %q, got %q", i, name, order[i])
		}
	}
	if report.StepsRun != 3 {
		t.Errorf("expected 3 steps run, got %d", report.StepsRun)
	}
	if report.StepsFailed != 0 {
		t.Errorf("expected 0 steps failed, got %d", report.StepsFailed)
	}
	if report.Task != "build" {
		t.Errorf("expected task 'build', got %q", report.Task)
	}

	// banner reaches the invocation fully expanded
	if last.Banner != "/* theme-juice v1.0.0 */" {
		t.Errorf("unexpected banner: %q", last.Banner)
	}
	if last.SourceDir != "assets" || last.DestDir != "public" {
		t.Errorf("unexpected tree paths: %q %q", last.SourceDir, last.DestDir)
	}

	// run metadata is persisted
	metadata, err := logs.ReadRunMetadata(report.RunID)
	if err != nil {
		t.Fatalf("failed to read run metadata: %v", err)
	}
	if metadata.Success == nil || !*metadata.Success {
		t.Error("expected metadata to record success")
	}
	if metadata.TriggeredBy != "cli" {
		t.Errorf("expected triggered_by 'cli', got %q", metadata.TriggeredBy)
	}
}

func TestRunStopsOnFirstFailure(t *testing.T) {
	setupRunTest(t)

	var order []string
	set := capability.NewSet()
	register := func(name string, fail bool) {
		err := set.Register(capability.NewFunc(name, func(ctx context.Context, inv capability.Invocation) (*capability.Result, error) {
			order = append(order, inv.TaskName)
			if fail {
				return nil, fmt.Errorf("sass exited with code 1")
			}
			return &capability.Result{}, nil
		}))
		if err != nil {
			t.Fatalf("failed to register capability: %v", err)
		}
	}
	register("wipe", false)
	register("sass", true)
	register("cssmin", false)

	orch, err := New(buildManifest(), set, testLogger())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	report, err := orch.Run(context.Background(), "build", "cli")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if report.Success {
		t.Fatal("expected failure")
	}
	if len(order) != 2 {
		t.Fatalf("expected 2 steps executed, got %d: %v", len(order), order)
	}
	if !report.Steps[0].Success {
		t.Error("expected step 0 to succeed")
	}
	if report.Steps[1].Success || report.Steps[1].Skipped {
		t.Error("expected step 1 to fail")
	}
	if !report.Steps[2].Skipped {
		t.Error("expected step 2 to be skipped")
	}
	if report.StepsRun != 2 {
		t.Errorf("expected 2 steps run, got %d", report.StepsRun)
	}
	if report.StepsFailed != 1 {
		t.Errorf("expected 1 step failed, got %d", report.StepsFailed)
	}
	if !strings.Contains(report.Error, "compile-styles") {
		t.Errorf("expected error to name the failing step, got %q", report.Error)
	}
}

func TestRunUnknownTask(t *testing.T) {
	setupRunTest(t)

	var order []string
	set := recordingSet(t, &order, nil, "wipe", "sass", "cssmin")
	orch, err := New(buildManifest(), set, testLogger())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	report, err := orch.Run(context.Background(), "deploy", "cli")
	if report != nil {
		t.Error("expected no report for resolution failure")
	}
	if !errors.Is(err, registry.ErrUnknownTask) {
		t.Errorf("expected ErrUnknownTask, got %v", err)
	}
}

func TestRunUnregisteredCapability(t *testing.T) {
	setupRunTest(t)

	var order []string
	set := recordingSet(t, &order, nil, "wipe", "sass") // no cssmin
	orch, err := New(buildManifest(), set, testLogger())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	report, err := orch.Run(context.Background(), "styles", "cli")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.Success {
		t.Fatal("expected failure")
	}
	if !strings.Contains(report.Error, "cssmin") {
		t.Errorf("expected error to name the missing capability, got %q", report.Error)
	}
}

func TestRunMissingTaskConfig(t *testing.T) {
	setupRunTest(t)

	manifest := buildManifest()
	var order []string
	set := recordingSet(t, &order, nil, "wipe", "sass", "cssmin")
	orch, err := New(manifest, set, testLogger())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Simulate a task whose definition was registered but whose
	// configuration entry has gone missing.
	delete(manifest.Tasks, "minify-styles")

	report, err := orch.Run(context.Background(), "styles", "cli")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.Success {
		t.Fatal("expected failure")
	}
	if !strings.Contains(report.Steps[1].Error, "minify-styles") {
		t.Errorf("expected step error to name the task, got %q", report.Steps[1].Error)
	}
	if !strings.Contains(report.Steps[1].Error, config.ErrMissingConfig.Error()) {
		t.Errorf("expected missing config error, got %q", report.Steps[1].Error)
	}
}

func TestRunCanceledContext(t *testing.T) {
	setupRunTest(t)

	var order []string
	set := recordingSet(t, &order, nil, "wipe", "sass", "cssmin")
	orch, err := New(buildManifest(), set, testLogger())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report, err := orch.Run(ctx, "build", "cli")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.Success {
		t.Fatal("expected failure")
	}
	if len(order) != 0 {
		t.Errorf("expected no steps executed, got %v", order)
	}
	for i, step := range report.Steps {
		if !step.Skipped {
			t.Errorf("expected step %d to be skipped", i)
		}
	}
}

func TestNewRejectsNameCollision(t *testing.T) {
	manifest := buildManifest()
	manifest.Pipelines["clean"] = config.Pipeline{Steps: []string{"compile-styles"}}

	_, err := New(manifest, capability.NewSet(), testLogger())
	if !errors.Is(err, registry.ErrDuplicateTask) {
		t.Errorf("expected ErrDuplicateTask, got %v", err)
	}
}

func TestResolveWithoutRunning(t *testing.T) {
	var order []string
	set := recordingSet(t, &order, nil, "wipe", "sass", "cssmin")
	orch, err := New(buildManifest(), set, testLogger())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	leaves, err := orch.Resolve("build")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"clean", "compile-styles", "minify-styles"}
	if len(leaves) != len(want) {
		t.Fatalf("expected %d leaves, got %d", len(want), len(leaves))
	}
	for i, name := range want {
		if leaves[i].TaskName != name {
			t.Errorf("leaf %d: expected %q, got %q", i, name, leaves[i].TaskName)
		}
	}
	if len(order) != 0 {
		t.Errorf("resolve must not execute, ran %v", order)
	}
}
