package capability

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"assetpipe/internal/config"
	"assetpipe/internal/template"
)

// Exec invokes one external tool declared in the manifest. The tool's
// command template is expanded against the invoking task's sources,
// destination, options and banner, then run through the shell.
type Exec struct {
	name string
	tool config.Tool
}

// NewExec creates an exec capability for a declared tool.
func NewExec(name string, tool config.Tool) *Exec {
	return &Exec{name: name, tool: tool}
}

// Name returns the tool name.
func (e *Exec) Name() string { return e.name }

// Run expands the tool's command template and executes it. A non-zero exit
// code, a timeout or a failure to start all surface as errors carrying the
// tool's output.
func (e *Exec) Run(ctx context.Context, inv Invocation) (*Result, error) {
	files, err := Expand(treeDir(inv), inv.Task.Src)
	if err != nil {
		return nil, fmt.Errorf("expand src globs: %w", err)
	}

	// Tool commands receive paths relative to the working directory.
	prefixed := make([]string, len(files))
	for i, rel := range files {
		prefixed[i] = filepath.Join(treeDir(inv), filepath.FromSlash(rel))
	}

	dest := ""
	if inv.Task.Dest != "" {
		dest = filepath.Join(inv.DestDir, filepath.FromSlash(inv.Task.Dest))
		if err := os.MkdirAll(destParent(dest), 0755); err != nil {
			return nil, fmt.Errorf("create destination directory: %w", err)
		}
	}

	options := inv.Task.Options
	if options == nil {
		options = map[string]interface{}{}
	}

	command, err := template.SubstituteCommand(e.tool.Command, template.CommandData{
		Src:     strings.Join(prefixed, " "),
		Files:   prefixed,
		Dest:    dest,
		Banner:  inv.Banner,
		Options: options,
	})
	if err != nil {
		return nil, fmt.Errorf("substitute command for tool '%s': %w", e.name, err)
	}

	// Determine shell
	shell := e.tool.Shell
	if shell == "" {
		shell = "/bin/bash"
	}

	// Task-level timeout wins over the tool's
	timeout := inv.Task.Timeout
	if timeout == 0 {
		timeout = e.tool.Timeout
	}

	var cancel context.CancelFunc
	if timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, time.Duration(timeout)*time.Second)
		defer cancel()
	}

	cmd := exec.Command(shell, "-c", command)

	// Set environment variables (task-level overrides tool-level)
	cmd.Env = os.Environ()
	for key, value := range e.tool.Env {
		cmd.Env = append(cmd.Env, fmt.Sprintf("%s=%s", key, value))
	}
	for key, value := range inv.Task.Env {
		cmd.Env = append(cmd.Env, fmt.Sprintf("%s=%s", key, value))
	}

	var stdoutBuf, stderrBuf bytes.Buffer
	cmd.Stdout = &stdoutBuf
	cmd.Stderr = &stderrBuf
	if inv.Log != nil {
		// stdout and stderr are copied on separate goroutines, so the
		// shared log sink needs serialized writes
		log := &syncWriter{w: inv.Log}
		cmd.Stdout = io.MultiWriter(&stdoutBuf, log)
		cmd.Stderr = io.MultiWriter(&stderrBuf, log)
	}

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start command: %w", err)
	}

	// Wait for command to complete or the context to end
	done := make(chan error, 1)
	go func() {
		done <- cmd.Wait()
	}()

	interrupted := false
	select {
	case <-ctx.Done():
		if cmd.Process != nil {
			if killErr := cmd.Process.Kill(); killErr != nil {
				fmt.Fprintf(os.Stderr, "Warning: failed to kill process: %v\n", killErr)
			}
		}
		interrupted = true
		// Wait for Wait() to complete after kill
		<-done
	case <-done:
		// Command completed (error is captured in ProcessState)
	}

	output := stdoutBuf.String()
	if stderrBuf.Len() > 0 {
		output += stderrBuf.String()
	}

	if interrupted {
		if ctx.Err() == context.DeadlineExceeded {
			return nil, fmt.Errorf("tool '%s' timed out after %d seconds", e.name, timeout)
		}
		return nil, ctx.Err()
	}

	if cmd.ProcessState != nil {
		if code := cmd.ProcessState.ExitCode(); code != 0 {
			return nil, fmt.Errorf("tool '%s' exited with code %d: %s", e.name, code, strings.TrimSpace(stderrBuf.String()))
		}
	}

	result := &Result{Output: output}
	if inv.Task.Dest != "" {
		result.Files = []string{inv.Task.Dest}
	}
	return result, nil
}

// destParent returns the directory a destination file or tree lives in.
// A dest ending in a separator (or with no extension) is treated as a
// directory target and is created directly.
func destParent(dest string) string {
	if strings.HasSuffix(dest, string(filepath.Separator)) || filepath.Ext(dest) == "" {
		return dest
	}
	return filepath.Dir(dest)
}

type syncWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (s *syncWriter) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.w.Write(p)
}
