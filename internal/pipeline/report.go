package pipeline

import (
	"time"
)

// StepResult represents the outcome of a single leaf step in a run
type StepResult struct {
	StepIndex  int           `json:"step_index"`
	TaskName   string        `json:"task_name"`
	Capability string        `json:"capability"`
	Success    bool          `json:"success"`
	Skipped    bool          `json:"skipped"`
	Duration   time.Duration `json:"duration"`
	Output     string        `json:"output,omitempty"`
	Files      []string      `json:"files,omitempty"`
	Error      string        `json:"error,omitempty"`
}

// Report represents the aggregated result of one pipeline run
type Report struct {
	Success     bool          `json:"success"`
	Task        string        `json:"task"`
	RunID       string        `json:"run_id"`
	Steps       []StepResult  `json:"steps"`
	Duration    time.Duration `json:"duration"`
	Error       string        `json:"error,omitempty"`
	StepsRun    int           `json:"steps_run"`
	StepsFailed int           `json:"steps_failed"`
	LogPath     string        `json:"log_path,omitempty"`
}

// countFailed counts the number of failed (non-skipped) steps
func countFailed(steps []StepResult) int {
	count := 0
	for _, step := range steps {
		if !step.Skipped && !step.Success {
			count++
		}
	}
	return count
}
