package logs

import (
	"fmt"
	"os"
)

// Writer handles writing the log of a single pipeline run
type Writer struct {
	runID   string
	file    *os.File
	logPath string
}

// NewWriter creates a log writer for a run
// It creates the run directory, records the initial metadata and opens the
// run log file, updating the latest symlink for the requested task
func NewWriter(runID string, metadata *RunMetadata) (*Writer, error) {
	if err := CreateRunDirectory(runID); err != nil {
		return nil, err
	}

	if err := WriteRunMetadata(runID, metadata); err != nil {
		return nil, err
	}

	logPath := GetRunLogPath(runID)
	file, err := os.OpenFile(logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}

	if err := CreateLatestLink(metadata.Task, runID); err != nil {
		// The symlink is a convenience; a failure should not abort the run
		fmt.Fprintf(os.Stderr, "Warning: failed to update latest link: %v\n", err)
	}

	return &Writer{
		runID:   runID,
		file:    file,
		logPath: logPath,
	}, nil
}

// Write appends data to the run log file
func (w *Writer) Write(p []byte) (n int, err error) {
	return w.file.Write(p)
}

// UpdateMetadata updates fields in the run's metadata file
func (w *Writer) UpdateMetadata(updates map[string]interface{}) {
	if err := UpdateRunMetadata(w.runID, updates); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to update run metadata: %v\n", err)
	}
}

// GetLogPath returns the path of the run log file
func (w *Writer) GetLogPath() string {
	return w.logPath
}

// Close closes the log file
func (w *Writer) Close() error {
	if w.file != nil {
		return w.file.Close()
	}
	return nil
}
