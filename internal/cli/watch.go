package cli

import (
	"sort"

	"github.com/spf13/cobra"

	"assetpipe/internal/config"
	"assetpipe/internal/pipeline"
)

func newWatchCmd() *cobra.Command {
	var buildFirst bool
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Re-run tasks when source files change",
		Long: `Watch monitors the directories under every enabled rule's globs and
re-runs the rule's tasks on change. When the manifest enables live reload,
a reload event is broadcast after each successful re-run. Blocks until
interrupted.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			manifest, logger, err := bootstrap()
			if err != nil {
				return err
			}

			orch, err := buildOrchestrator(manifest, logger)
			if err != nil {
				return err
			}

			if buildFirst {
				if err := runWatchedTasks(cmd, manifest, orch); err != nil {
					return err
				}
			}

			return startWatch(cmd.Context(), manifest, orch, logger)
		},
	}
	cmd.Flags().BoolVar(&buildFirst, "build", false, "run every enabled rule's tasks once before watching")
	return cmd
}

// runWatchedTasks runs each enabled rule's tasks once, in rule name order,
// skipping tasks already run for an earlier rule.
func runWatchedTasks(cmd *cobra.Command, manifest *config.Manifest, orch *pipeline.Orchestrator) error {
	names := make([]string, 0, len(manifest.Watch))
	for name, rule := range manifest.Watch {
		if !rule.Disabled {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	ran := make(map[string]bool)
	for _, name := range names {
		for _, task := range manifest.Watch[name].Tasks {
			if ran[task] {
				continue
			}
			ran[task] = true

			report, err := orch.Run(cmd.Context(), task, "cli")
			if err != nil {
				return err
			}
			printReport(report)
			if !report.Success {
				return &exitError{code: 1}
			}
		}
	}
	return nil
}
