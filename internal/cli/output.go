package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"assetpipe/internal/pipeline"
)

// ANSI color codes
const (
	colorReset = "\033[0m"
	colorRed   = "\033[31m"
	colorGreen = "\033[32m"
	colorBold  = "\033[1m"
	colorDim   = "\033[2m"
)

// isTerminal returns true if the given file is a terminal.
func isTerminal(f *os.File) bool {
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice != 0
}

// color wraps text in ANSI color if stderr is a terminal.
func color(code, text string) string {
	if !isTerminal(os.Stderr) {
		return text
	}
	return code + text + colorReset
}

// printReport prints a run report with human-friendly formatting. Step
// output goes to stdout (pipeable), metadata goes to stderr.
func printReport(r *pipeline.Report) {
	fmt.Fprintln(os.Stderr)
	for _, step := range r.Steps {
		if step.Skipped {
			fmt.Fprintf(os.Stderr, "  %s %s\n",
				color(colorDim, "[SKIP]"),
				step.TaskName)
			continue
		}
		if step.Output != "" {
			fmt.Print(step.Output)
		}
		if step.Success {
			fmt.Fprintf(os.Stderr, "  %s %s  %s\n",
				color(colorGreen, "[OK]"),
				step.TaskName,
				color(colorDim, formatDuration(step.Duration)))
		} else {
			fmt.Fprintf(os.Stderr, "  %s %s  %s\n",
				color(colorRed, "[FAIL]"),
				step.TaskName,
				color(colorDim, formatDuration(step.Duration)))
			if step.Error != "" {
				fmt.Fprintf(os.Stderr, "         %s\n", step.Error)
			}
		}
	}

	fmt.Fprintln(os.Stderr)
	if r.Success {
		fmt.Fprintf(os.Stderr, "%s  %d steps  %s\n",
			color(colorGreen+colorBold, "[OK]"),
			r.StepsRun,
			color(colorDim, formatDuration(r.Duration)))
	} else {
		fmt.Fprintf(os.Stderr, "%s  %d/%d steps failed  %s\n",
			color(colorRed+colorBold, "[FAIL]"),
			r.StepsFailed, r.StepsRun,
			color(colorDim, formatDuration(r.Duration)))
	}
	if r.Error != "" {
		fmt.Fprintf(os.Stderr, "%s %s\n", color(colorRed, "Error:"), r.Error)
	}
	if r.LogPath != "" {
		fmt.Fprintf(os.Stderr, "%s %s\n", color(colorDim, "Log:"), r.LogPath)
	}
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// formatDuration formats a duration for human display.
func formatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	return fmt.Sprintf("%dm%ds", int(d.Minutes()), int(d.Seconds())%60)
}
