package logs

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"
)

// RunRetention defines retention policies for run log cleanup
type RunRetention struct {
	MaxRuns int           // Maximum number of runs to keep per task (0 = unlimited)
	MaxAge  time.Duration // Maximum age of runs to keep (0 = unlimited)
}

// DefaultRetention provides the default retention policy
var DefaultRetention = RunRetention{
	MaxRuns: 100,
	MaxAge:  7 * 24 * time.Hour, // 7 days
}

// CleanupOldRuns removes old runs for a task according to the retention policy
// Returns the number of runs deleted and any error
func CleanupOldRuns(task string, retention RunRetention) (int, error) {
	// Get all runs for the task
	runs, err := ListRuns(task, 0)
	if err != nil {
		return 0, fmt.Errorf("failed to list runs: %w", err)
	}

	if len(runs) == 0 {
		return 0, nil
	}

	// Sort runs by start time (oldest first)
	sort.Slice(runs, func(i, j int) bool {
		return runs[i].StartTime.Before(runs[j].StartTime)
	})

	var toDelete []string
	now := time.Now()

	// Apply age-based retention
	if retention.MaxAge > 0 {
		for _, run := range runs {
			if now.Sub(run.StartTime) > retention.MaxAge {
				toDelete = append(toDelete, run.RunID)
			}
		}
	}

	// Apply count-based retention
	if retention.MaxRuns > 0 && len(runs) > retention.MaxRuns {
		// Keep the most recent MaxRuns, delete the rest
		numToDelete := len(runs) - retention.MaxRuns
		for i := 0; i < numToDelete; i++ {
			runID := runs[i].RunID
			// Only add if not already in toDelete list
			found := false
			for _, id := range toDelete {
				if id == runID {
					found = true
					break
				}
			}
			if !found {
				toDelete = append(toDelete, runID)
			}
		}
	}

	// Delete runs
	deleted := 0
	for _, runID := range toDelete {
		if err := deleteRun(runID); err != nil {
			// Log error but continue with other runs
			fmt.Fprintf(os.Stderr, "Warning: failed to delete run %s: %v\n", runID, err)
		} else {
			deleted++
		}
	}

	return deleted, nil
}

// CleanupAllRuns cleans up runs for all tasks according to the retention policy
func CleanupAllRuns(retention RunRetention) (int, error) {
	runsDir := filepath.Join(LogDir, "runs")

	// Read all run directories
	entries, err := os.ReadDir(runsDir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to read runs directory: %w", err)
	}

	// Collect all unique task names
	tasks := make(map[string]bool)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		metadata, err := ReadRunMetadata(entry.Name())
		if err != nil {
			// Skip runs with missing or invalid metadata
			continue
		}

		tasks[metadata.Task] = true
	}

	// Clean up runs for each task
	totalDeleted := 0
	for task := range tasks {
		deleted, err := CleanupOldRuns(task, retention)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to cleanup runs for task %s: %v\n", task, err)
		}
		totalDeleted += deleted
	}

	return totalDeleted, nil
}

// deleteRun deletes a run directory and all its contents
func deleteRun(runID string) error {
	return os.RemoveAll(GetRunDirectory(runID))
}
