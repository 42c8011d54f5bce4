package registry

import (
	"errors"
	"testing"
	"time"
)

func mustRegister(t *testing.T, r *Registry, name string, def Definition) {
	t.Helper()
	if err := r.Register(name, def); err != nil {
		t.Fatalf("register '%s': %v", name, err)
	}
}

func leaf(capability string) Definition {
	return Definition{Kind: KindLeaf, Capability: capability}
}

func pipeline(steps ...string) Definition {
	return Definition{Kind: KindPipeline, Steps: steps}
}

func TestRegisterDuplicate(t *testing.T) {
	r := New()
	mustRegister(t, r, "clean", leaf("clean"))

	err := r.Register("clean", leaf("clean"))
	if err == nil {
		t.Fatal("expected error registering duplicate name")
	}
	if !errors.Is(err, ErrDuplicateTask) {
		t.Errorf("expected ErrDuplicateTask, got %v", err)
	}
}

func TestResolveFlattensDepthFirst(t *testing.T) {
	r := New()
	mustRegister(t, r, "clean", leaf("clean"))
	mustRegister(t, r, "compile-styles", leaf("sass"))
	mustRegister(t, r, "minify-styles", leaf("cssmin"))
	mustRegister(t, r, "bundle-scripts", leaf("bundler"))
	mustRegister(t, r, "minify-scripts", leaf("jsmin"))
	mustRegister(t, r, "styles", pipeline("compile-styles", "minify-styles"))
	mustRegister(t, r, "scripts", pipeline("bundle-scripts", "minify-scripts"))
	mustRegister(t, r, "default", pipeline("clean", "styles", "scripts"))

	leaves, err := r.Resolve("default")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}

	want := []string{"clean", "compile-styles", "minify-styles", "bundle-scripts", "minify-scripts"}
	if len(leaves) != len(want) {
		t.Fatalf("expected %d leaves, got %d", len(want), len(leaves))
	}
	for i, name := range want {
		if leaves[i].TaskName != name {
			t.Errorf("leaf %d: expected '%s', got '%s'", i, name, leaves[i].TaskName)
		}
	}
}

func TestNamesSorted(t *testing.T) {
	r := New()
	mustRegister(t, r, "styles", pipeline("compile-styles"))
	mustRegister(t, r, "clean", leaf("clean"))
	mustRegister(t, r, "compile-styles", leaf("sass"))

	want := []string{"clean", "compile-styles", "styles"}
	got := r.Names()
	if len(got) != len(want) {
		t.Fatalf("expected %d names, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("name %d: expected '%s', got '%s'", i, want[i], got[i])
		}
	}
}

func TestResolveLeafDirectly(t *testing.T) {
	r := New()
	mustRegister(t, r, "clean", leaf("clean"))

	leaves, err := r.Resolve("clean")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if len(leaves) != 1 || leaves[0].TaskName != "clean" || leaves[0].Capability != "clean" {
		t.Errorf("unexpected resolution: %+v", leaves)
	}
}

func TestResolveDiamondRepeatsLeaves(t *testing.T) {
	// The same leaf reached through two pipelines is not a cycle.
	r := New()
	mustRegister(t, r, "compile-styles", leaf("sass"))
	mustRegister(t, r, "a", pipeline("compile-styles"))
	mustRegister(t, r, "b", pipeline("compile-styles"))
	mustRegister(t, r, "both", pipeline("a", "b"))

	leaves, err := r.Resolve("both")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if len(leaves) != 2 {
		t.Fatalf("expected 2 invocations, got %d", len(leaves))
	}
}

func TestResolveUnknown(t *testing.T) {
	r := New()
	mustRegister(t, r, "styles", pipeline("compile-styles"))

	tests := []struct {
		name   string
		target string
	}{
		{"unknown root", "nope"},
		{"unknown step", "styles"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := r.Resolve(tt.target)
			if err == nil {
				t.Fatal("expected error")
			}
			if !errors.Is(err, ErrUnknownTask) {
				t.Errorf("expected ErrUnknownTask, got %v", err)
			}
		})
	}
}

func TestResolveSelfCycle(t *testing.T) {
	r := New()
	mustRegister(t, r, "loop", pipeline("loop"))

	_, err := r.Resolve("loop")
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, ErrCyclicTask) {
		t.Errorf("expected ErrCyclicTask, got %v", err)
	}
}

func TestResolveMutualCycle(t *testing.T) {
	r := New()
	mustRegister(t, r, "a", pipeline("b"))
	mustRegister(t, r, "b", pipeline("a"))

	done := make(chan error, 1)
	go func() {
		_, err := r.Resolve("a")
		done <- err
	}()

	// Resolution must terminate, not hang.
	select {
	case err := <-done:
		if !errors.Is(err, ErrCyclicTask) {
			t.Errorf("expected ErrCyclicTask, got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("resolve did not terminate")
	}
}
