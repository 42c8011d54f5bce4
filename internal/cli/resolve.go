package cli

import (
	"fmt"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func newResolveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "resolve <task>",
		Short: "Show the flat leaf sequence a task would execute",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			manifest, logger, err := bootstrap()
			if err != nil {
				return err
			}

			orch, err := buildOrchestrator(manifest, logger)
			if err != nil {
				return err
			}

			leaves, err := orch.Resolve(args[0])
			if err != nil {
				return err
			}

			if viper.GetBool("json") {
				return printJSON(leaves)
			}

			tw := table.NewWriter()
			tw.SetOutputMirror(os.Stdout)
			tw.SetTitle(fmt.Sprintf("Resolution of '%s'", args[0]))
			tw.AppendHeader(table.Row{"#", "Task", "Capability"})
			for i, leaf := range leaves {
				tw.AppendRow(table.Row{i + 1, leaf.TaskName, leaf.Capability})
			}
			tw.Render()
			return nil
		},
	}
}
