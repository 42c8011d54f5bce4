// Package watch re-runs pipeline tasks when files matching a rule's globs
// change on disk. Each rule serializes its runs: one in flight, at most one
// pending, so event bursts coalesce into a single follow-up run.
package watch

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/fsnotify/fsnotify"

	"assetpipe/internal/capability"
	"assetpipe/internal/config"
	"assetpipe/internal/logs"
	"assetpipe/internal/pipeline"
)

// Runner executes a named task and reports the outcome.
type Runner interface {
	Run(ctx context.Context, task string, triggeredBy string) (*pipeline.Report, error)
}

// Notifier receives a reload broadcast after a rule's tasks re-ran
// successfully.
type Notifier interface {
	Broadcast(rule string)
}

// Watcher binds manifest watch rules to a filesystem notification loop.
type Watcher struct {
	rules    []*ruleState
	runner   Runner
	notifier Notifier // nil disables reload broadcasts
	logger   *logs.Logger
}

type ruleState struct {
	name    string
	rule    config.Rule
	trigger chan struct{} // single-slot pending queue
}

// New builds a watcher from the manifest's enabled rules.
func New(manifest *config.Manifest, runner Runner, notifier Notifier, logger *logs.Logger) *Watcher {
	var rules []*ruleState
	names := make([]string, 0, len(manifest.Watch))
	for name := range manifest.Watch {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		rule := manifest.Watch[name]
		if rule.Disabled {
			continue
		}
		rules = append(rules, &ruleState{
			name:    name,
			rule:    rule,
			trigger: make(chan struct{}, 1),
		})
	}

	return &Watcher{
		rules:    rules,
		runner:   runner,
		notifier: notifier,
		logger:   logger,
	}
}

// Rules returns the names of the enabled rules, sorted.
func (w *Watcher) Rules() []string {
	names := make([]string, len(w.rules))
	for i, rs := range w.rules {
		names[i] = rs.name
	}
	return names
}

// Start watches the directories under every rule's globs and dispatches
// matching events until ctx is canceled. It blocks; the in-flight run of
// each rule is allowed to finish before Start returns.
func (w *Watcher) Start(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create filesystem watcher: %w", err)
	}
	defer fsw.Close()

	watched := make(map[string]bool)
	for _, rs := range w.rules {
		for _, glob := range rs.rule.Globs {
			if err := w.addTree(fsw, watched, capability.BaseDir(glob)); err != nil {
				return err
			}
		}
	}
	if len(watched) == 0 {
		return fmt.Errorf("no watchable directories: every rule glob base is missing")
	}

	var wg sync.WaitGroup
	for _, rs := range w.rules {
		wg.Add(1)
		go func(rs *ruleState) {
			defer wg.Done()
			w.ruleLoop(ctx, rs)
		}(rs)
	}

	for {
		select {
		case <-ctx.Done():
			wg.Wait()
			return nil

		case event, ok := <-fsw.Events:
			if !ok {
				wg.Wait()
				return nil
			}
			w.handleEvent(fsw, watched, event)

		case err, ok := <-fsw.Errors:
			if !ok {
				wg.Wait()
				return nil
			}
			w.logger.Warnf("watch error: %v", err)
		}
	}
}

// addTree registers dir and every directory below it. A missing base is
// logged and skipped so one stale rule does not stop the loop.
func (w *Watcher) addTree(fsw *fsnotify.Watcher, watched map[string]bool, dir string) error {
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		w.logger.Warnf("watch: directory '%s' does not exist, skipping", dir)
		return nil
	}

	return filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() || watched[p] {
			return nil
		}
		if err := fsw.Add(p); err != nil {
			w.logger.Warnf("watch: failed to add '%s': %v", p, err)
			return nil
		}
		watched[p] = true
		w.logger.Debugf("watch: added directory '%s'", p)
		return nil
	})
}

func (w *Watcher) handleEvent(fsw *fsnotify.Watcher, watched map[string]bool, event fsnotify.Event) {
	if event.Op.Has(fsnotify.Chmod) && event.Op&^fsnotify.Chmod == 0 {
		return
	}

	// New directories under a watched tree get registered so files created
	// inside them keep triggering rules.
	if event.Op.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if err := w.addTree(fsw, watched, event.Name); err != nil {
				w.logger.Warnf("watch: failed to add '%s': %v", event.Name, err)
			}
		}
	}

	rel := filepath.ToSlash(filepath.Clean(event.Name))
	for _, rs := range w.rules {
		ok, err := capability.MatchAny(rs.rule.Globs, rel)
		if err != nil {
			w.logger.Warnf("watch: rule '%s': %v", rs.name, err)
			continue
		}
		if !ok {
			continue
		}
		w.logger.Debugf("watch: '%s' matched rule '%s'", rel, rs.name)
		select {
		case rs.trigger <- struct{}{}:
		default:
			// A run is already pending, the change rides along with it.
		}
	}
}

// ruleLoop serializes a rule's runs. The trigger channel holds at most one
// pending run, so any burst of events during an in-flight run produces
// exactly one follow-up.
func (w *Watcher) ruleLoop(ctx context.Context, rs *ruleState) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-rs.trigger:
			w.execute(ctx, rs)
		}
	}
}

// execute runs the rule's tasks in declared order, stopping at the first
// failure. Failures are logged and leave the watch loop alive.
func (w *Watcher) execute(ctx context.Context, rs *ruleState) {
	triggeredBy := "watch:" + rs.name

	for _, task := range rs.rule.Tasks {
		report, err := w.runner.Run(ctx, task, triggeredBy)
		if err != nil {
			w.logger.Errorf("watch: rule '%s': task '%s': %v", rs.name, task, err)
			return
		}
		if !report.Success {
			w.logger.Errorf("watch: rule '%s': task '%s' failed: %s", rs.name, task, report.Error)
			return
		}
		w.logger.Infof("watch: rule '%s': task '%s' done in %s", rs.name, task, report.Duration)
	}

	if rs.rule.LiveReload && w.notifier != nil {
		w.notifier.Broadcast(rs.name)
	}
}
