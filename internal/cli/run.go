package cli

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func newRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run [task]",
		Short: "Run a task or pipeline",
		Long: `Run resolves the named task into its flat leaf sequence and executes
the leaves in order, stopping at the first failure. With no argument the
'default' pipeline runs.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			task := "default"
			if len(args) > 0 {
				task = args[0]
			}

			manifest, logger, err := bootstrap()
			if err != nil {
				return err
			}

			orch, err := buildOrchestrator(manifest, logger)
			if err != nil {
				return err
			}

			report, err := orch.Run(cmd.Context(), task, "cli")
			if err != nil {
				return err
			}

			if viper.GetBool("json") {
				if err := printJSON(report); err != nil {
					return err
				}
			} else {
				printReport(report)
			}

			if !report.Success {
				return &exitError{code: 1}
			}
			return nil
		},
	}
}
