package logs

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"
)

// RunMetadata holds metadata about one pipeline run
type RunMetadata struct {
	RunID       string         `json:"run_id"`
	Task        string         `json:"task"`
	StartTime   time.Time      `json:"start_time"`
	EndTime     *time.Time     `json:"end_time,omitempty"`
	Duration    *time.Duration `json:"duration,omitempty"`
	Success     *bool          `json:"success,omitempty"`
	StepsRun    int            `json:"steps_run"`
	StepsFailed int            `json:"steps_failed"`
	TriggeredBy string         `json:"triggered_by,omitempty"` // "cli" or "watch:<rule>"
}

// RunInfo holds basic information about a recorded run
type RunInfo struct {
	RunID     string    `json:"run_id"`
	Task      string    `json:"task"`
	StartTime time.Time `json:"start_time"`
	LogPath   string    `json:"log_path"`
}

// GenerateRunID generates a new UUID for a pipeline run
func GenerateRunID() string {
	return uuid.New().String()
}

// GetRunDirectory returns the directory path for a run
func GetRunDirectory(runID string) string {
	return filepath.Join(LogDir, "runs", runID)
}

// GetRunLogPath returns the path to the log file for a run
func GetRunLogPath(runID string) string {
	return filepath.Join(GetRunDirectory(runID), "run.log")
}

// GetRunMetadataPath returns the path to the metadata file for a run
func GetRunMetadataPath(runID string) string {
	return filepath.Join(GetRunDirectory(runID), "metadata.json")
}

// GetLatestSymlinkPath returns the path to the latest symlink for a task
func GetLatestSymlinkPath(task string) string {
	return filepath.Join(LogDir, "latest", task)
}

// CreateRunDirectory creates the directory structure for a run
func CreateRunDirectory(runID string) error {
	dir := GetRunDirectory(runID)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create run directory: %w", err)
	}
	return nil
}

// WriteRunMetadata writes run metadata to a JSON file
func WriteRunMetadata(runID string, metadata *RunMetadata) error {
	path := GetRunMetadataPath(runID)

	data, err := json.MarshalIndent(metadata, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal metadata: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write metadata file: %w", err)
	}

	return nil
}

// ReadRunMetadata reads run metadata from a JSON file
func ReadRunMetadata(runID string) (*RunMetadata, error) {
	path := GetRunMetadataPath(runID)

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read metadata file: %w", err)
	}

	var metadata RunMetadata
	if err := json.Unmarshal(data, &metadata); err != nil {
		return nil, fmt.Errorf("failed to unmarshal metadata: %w", err)
	}

	return &metadata, nil
}

// UpdateRunMetadata updates specific fields in run metadata
func UpdateRunMetadata(runID string, updates map[string]interface{}) error {
	// Read existing metadata
	metadata, err := ReadRunMetadata(runID)
	if err != nil {
		return fmt.Errorf("failed to read metadata: %w", err)
	}

	// Apply updates
	if endTime, ok := updates["end_time"].(time.Time); ok {
		metadata.EndTime = &endTime
	}
	if duration, ok := updates["duration"].(time.Duration); ok {
		metadata.Duration = &duration
	}
	if success, ok := updates["success"].(bool); ok {
		metadata.Success = &success
	}
	if stepsRun, ok := updates["steps_run"].(int); ok {
		metadata.StepsRun = stepsRun
	}
	if stepsFailed, ok := updates["steps_failed"].(int); ok {
		metadata.StepsFailed = stepsFailed
	}

	// Write updated metadata
	return WriteRunMetadata(runID, metadata)
}

// GetLatestRunID resolves the latest run ID for a task by reading the symlink
func GetLatestRunID(task string) (string, error) {
	symlinkPath := GetLatestSymlinkPath(task)

	// Read the symlink
	target, err := os.Readlink(symlinkPath)
	if err != nil {
		return "", fmt.Errorf("failed to read latest symlink: %w", err)
	}

	// Extract run ID from the target path
	// Target format: ../../runs/<uuid>
	runID := filepath.Base(target)
	return runID, nil
}

// CreateLatestLink creates or updates the latest symlink for a task
func CreateLatestLink(task, runID string) error {
	symlinkPath := GetLatestSymlinkPath(task)
	targetPath := filepath.Join("..", "runs", runID)

	// Ensure the latest directory exists
	latestDir := filepath.Join(LogDir, "latest")
	if err := os.MkdirAll(latestDir, 0755); err != nil {
		return fmt.Errorf("failed to create latest directory: %w", err)
	}

	// Remove existing symlink if it exists
	if _, err := os.Lstat(symlinkPath); err == nil {
		if err := os.Remove(symlinkPath); err != nil {
			return fmt.Errorf("failed to remove old symlink: %w", err)
		}
	}

	// Create new symlink
	if err := os.Symlink(targetPath, symlinkPath); err != nil {
		return fmt.Errorf("failed to create symlink: %w", err)
	}

	return nil
}

// ListRuns lists recent runs for a task, sorted by start time (newest first)
func ListRuns(task string, limit int) ([]RunInfo, error) {
	runsDir := filepath.Join(LogDir, "runs")

	// Read all run directories
	entries, err := os.ReadDir(runsDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunInfo{}, nil
		}
		return nil, fmt.Errorf("failed to read runs directory: %w", err)
	}

	var runs []RunInfo

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		runID := entry.Name()

		// Read metadata
		metadata, err := ReadRunMetadata(runID)
		if err != nil {
			// Skip runs with missing or invalid metadata
			continue
		}

		// Filter by task name
		if metadata.Task != task {
			continue
		}

		runs = append(runs, RunInfo{
			RunID:     runID,
			Task:      metadata.Task,
			StartTime: metadata.StartTime,
			LogPath:   GetRunLogPath(runID),
		})
	}

	// Sort by start time (newest first)
	sort.Slice(runs, func(i, j int) bool {
		return runs[i].StartTime.After(runs[j].StartTime)
	})

	// Apply limit
	if limit > 0 && len(runs) > limit {
		runs = runs[:limit]
	}

	return runs, nil
}
