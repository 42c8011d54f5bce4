package cli

import (
	"os"
	"sort"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"assetpipe/internal/config"
)

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List tasks, pipelines and watch rules",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			manifest, _, err := bootstrap()
			if err != nil {
				return err
			}

			if viper.GetBool("json") {
				return printJSON(map[string]interface{}{
					"tasks":     manifest.Tasks,
					"pipelines": manifest.Pipelines,
					"tools":     manifest.Tools,
					"watch":     manifest.Watch,
				})
			}

			printTasksTable(manifest)
			printPipelinesTable(manifest)
			printToolsTable(manifest)
			printWatchTable(manifest)
			return nil
		},
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func printTasksTable(manifest *config.Manifest) {
	if len(manifest.Tasks) == 0 {
		return
	}
	tw := table.NewWriter()
	tw.SetOutputMirror(os.Stdout)
	tw.SetTitle("Tasks")
	tw.AppendHeader(table.Row{"Name", "Capability", "Sources", "Dest", "Description"})
	for _, name := range sortedKeys(manifest.Tasks) {
		t := manifest.Tasks[name]
		tw.AppendRow(table.Row{name, t.Capability, strings.Join(t.Src, ", "), t.Dest, t.Description})
	}
	tw.Render()
}

func printPipelinesTable(manifest *config.Manifest) {
	if len(manifest.Pipelines) == 0 {
		return
	}
	tw := table.NewWriter()
	tw.SetOutputMirror(os.Stdout)
	tw.SetTitle("Pipelines")
	tw.AppendHeader(table.Row{"Name", "Steps", "Description"})
	for _, name := range sortedKeys(manifest.Pipelines) {
		p := manifest.Pipelines[name]
		tw.AppendRow(table.Row{name, strings.Join(p.Steps, " -> "), p.Description})
	}
	tw.Render()
}

func printToolsTable(manifest *config.Manifest) {
	if len(manifest.Tools) == 0 {
		return
	}
	tw := table.NewWriter()
	tw.SetOutputMirror(os.Stdout)
	tw.SetTitle("Tools")
	tw.AppendHeader(table.Row{"Name", "Command", "Enabled"})
	for _, name := range sortedKeys(manifest.Tools) {
		t := manifest.Tools[name]
		tw.AppendRow(table.Row{name, t.Command, !t.Disabled})
	}
	tw.Render()
}

func printWatchTable(manifest *config.Manifest) {
	if len(manifest.Watch) == 0 {
		return
	}
	tw := table.NewWriter()
	tw.SetOutputMirror(os.Stdout)
	tw.SetTitle("Watch Rules")
	tw.AppendHeader(table.Row{"Name", "Globs", "Tasks", "Live Reload", "Enabled"})
	for _, name := range sortedKeys(manifest.Watch) {
		r := manifest.Watch[name]
		tw.AppendRow(table.Row{name, strings.Join(r.Globs, ", "), strings.Join(r.Tasks, ", "), r.LiveReload, !r.Disabled})
	}
	tw.Render()
}
