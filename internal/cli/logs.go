package cli

import (
	"fmt"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"assetpipe/internal/logs"
)

func newLogsCmd() *cobra.Command {
	var (
		lines  int
		filter string
		runID  string
		list   bool
		limit  int
	)
	cmd := &cobra.Command{
		Use:   "logs <task>",
		Short: "Show recorded run logs for a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			task := args[0]

			if list {
				runs, err := logs.ListRuns(task, limit)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(runs)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"Run ID", "Started", "Log"})
				for _, run := range runs {
					tw.AppendRow(table.Row{run.RunID, run.StartTime.Format("2006-01-02 15:04:05"), run.LogPath})
				}
				tw.Render()
				return nil
			}

			out, err := logs.ReadLog(task, logs.ReadOptions{
				Lines:  lines,
				Filter: filter,
				RunID:  runID,
			})
			if err != nil {
				return err
			}
			for _, line := range out {
				fmt.Println(line)
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&lines, "lines", "n", 0, "tail the last N lines")
	cmd.Flags().StringVar(&filter, "filter", "", "only show lines matching a regex")
	cmd.Flags().StringVar(&runID, "run", "", "read a specific run instead of the latest")
	cmd.Flags().BoolVar(&list, "list", false, "list recorded runs instead of printing a log")
	cmd.Flags().IntVar(&limit, "limit", 20, "maximum runs to list")
	return cmd
}
