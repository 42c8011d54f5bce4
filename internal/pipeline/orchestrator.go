// Package pipeline resolves a named task into its flat leaf sequence and
// executes the leaves in order, recording each run under the state
// directory.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"assetpipe/internal/capability"
	"assetpipe/internal/config"
	"assetpipe/internal/logs"
	"assetpipe/internal/registry"
	"assetpipe/internal/template"
)

// Orchestrator executes resolved pipelines against a manifest.
type Orchestrator struct {
	manifest *config.Manifest
	caps     *capability.Set
	reg      *registry.Registry
	logger   *logs.Logger
}

// New builds an orchestrator. Every manifest task registers as a leaf and
// every manifest pipeline as a composite; a name claimed twice fails with
// ErrDuplicateTask.
func New(manifest *config.Manifest, caps *capability.Set, logger *logs.Logger) (*Orchestrator, error) {
	reg := registry.New()

	for name, task := range manifest.Tasks {
		if err := reg.Register(name, registry.Definition{
			Kind:       registry.KindLeaf,
			Capability: task.Capability,
		}); err != nil {
			return nil, err
		}
	}

	for name, p := range manifest.Pipelines {
		if err := reg.Register(name, registry.Definition{
			Kind:  registry.KindPipeline,
			Steps: p.Steps,
		}); err != nil {
			return nil, err
		}
	}

	return &Orchestrator{
		manifest: manifest,
		caps:     caps,
		reg:      reg,
		logger:   logger,
	}, nil
}

// Resolve returns the flat leaf sequence a task would execute.
func (o *Orchestrator) Resolve(task string) ([]registry.LeafInvocation, error) {
	return o.reg.Resolve(task)
}

// Run resolves and executes a task. Resolution failures (unknown name,
// cycle) return an error and no report. Once execution starts, step
// failures are captured in the report: the first failing step aborts the
// run and the remaining steps are marked skipped.
func (o *Orchestrator) Run(ctx context.Context, task string, triggeredBy string) (*Report, error) {
	invocations, err := o.reg.Resolve(task)
	if err != nil {
		return nil, err
	}

	runID := logs.GenerateRunID()
	startTime := time.Now()

	banner, err := template.ExpandBanner(o.manifest.Banner, template.NewBannerData(
		o.manifest.Project.Name,
		o.manifest.Project.Version,
		o.manifest.Project.Author,
		o.manifest.Project.Homepage,
		startTime,
	))
	if err != nil {
		return nil, fmt.Errorf("banner expansion failed: %w", err)
	}

	report := &Report{
		Task:  task,
		RunID: runID,
		Steps: make([]StepResult, len(invocations)),
	}

	writer, err := logs.NewWriter(runID, &logs.RunMetadata{
		RunID:       runID,
		Task:        task,
		StartTime:   startTime,
		TriggeredBy: triggeredBy,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create run log: %w", err)
	}
	defer writer.Close()
	report.LogPath = writer.GetLogPath()

	o.logger.Infof("run %s: task '%s' resolved to %d steps", runID, task, len(invocations))

	allSuccess := true

	for i, inv := range invocations {
		select {
		case <-ctx.Done():
			for j := i; j < len(invocations); j++ {
				report.Steps[j] = StepResult{
					StepIndex:  j,
					TaskName:   invocations[j].TaskName,
					Capability: invocations[j].Capability,
					Skipped:    true,
				}
			}
			report.Success = false
			report.Error = fmt.Sprintf("run canceled at step %d (%s): %v", i, inv.TaskName, ctx.Err())
			return o.finalize(report, writer, startTime, i), nil
		default:
		}

		fmt.Fprintf(writer, "==> step %d/%d: %s (%s)\n", i+1, len(invocations), inv.TaskName, inv.Capability)

		stepStart := time.Now()
		result, err := o.runStep(ctx, inv, banner, writer)
		step := StepResult{
			StepIndex:  i,
			TaskName:   inv.TaskName,
			Capability: inv.Capability,
			Duration:   time.Since(stepStart),
		}

		if err != nil {
			step.Error = err.Error()
			allSuccess = false
			report.Steps[i] = step
			fmt.Fprintf(writer, "step %s failed: %v\n", inv.TaskName, err)
			o.logger.Errorf("run %s: step %d (%s) failed: %v", runID, i, inv.TaskName, err)

			for j := i + 1; j < len(invocations); j++ {
				report.Steps[j] = StepResult{
					StepIndex:  j,
					TaskName:   invocations[j].TaskName,
					Capability: invocations[j].Capability,
					Skipped:    true,
				}
			}
			report.Success = false
			report.Error = fmt.Sprintf("step %d (%s) failed: %s", i, inv.TaskName, err.Error())
			return o.finalize(report, writer, startTime, i+1), nil
		}

		step.Success = true
		step.Output = result.Output
		step.Files = result.Files
		report.Steps[i] = step
		o.logger.Debugf("run %s: step %d (%s) done in %s", runID, i, inv.TaskName, step.Duration)
	}

	report.Success = allSuccess
	return o.finalize(report, writer, startTime, len(invocations)), nil
}

// runStep looks up the step's configuration and capability and invokes it.
func (o *Orchestrator) runStep(ctx context.Context, inv registry.LeafInvocation, banner string, writer *logs.Writer) (*capability.Result, error) {
	taskCfg, err := o.manifest.TaskConfig(inv.TaskName)
	if err != nil {
		return nil, err
	}

	c, err := o.caps.Get(inv.Capability)
	if err != nil {
		return nil, err
	}

	return c.Run(ctx, capability.Invocation{
		TaskName:  inv.TaskName,
		Task:      taskCfg,
		SourceDir: o.manifest.Paths.Source,
		DestDir:   o.manifest.Paths.Dest,
		Banner:    banner,
		Log:       writer,
	})
}

func (o *Orchestrator) finalize(report *Report, writer *logs.Writer, startTime time.Time, stepsRun int) *Report {
	report.Duration = time.Since(startTime)
	report.StepsRun = stepsRun
	report.StepsFailed = countFailed(report.Steps[:stepsRun])

	writer.UpdateMetadata(map[string]interface{}{
		"end_time":     time.Now(),
		"duration":     report.Duration,
		"success":      report.Success,
		"steps_run":    report.StepsRun,
		"steps_failed": report.StepsFailed,
	})

	return report
}
