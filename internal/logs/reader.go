package logs

import (
	"bufio"
	"fmt"
	"os"
	"regexp"
)

// ReadOptions contains options for reading run logs
type ReadOptions struct {
	Lines  int    // Number of lines to tail (0 means all)
	Filter string // Regex pattern to filter lines (empty means no filter)
	RunID  string // Optional run ID to read from (empty means latest)
}

// ReadLog reads the run log for a task with optional tailing and filtering
// If RunID is specified in opts, reads from that specific run
// Otherwise, reads from the latest run recorded for the task
func ReadLog(task string, opts ReadOptions) ([]string, error) {
	var logPath string

	if opts.RunID != "" {
		logPath = GetRunLogPath(opts.RunID)
	} else {
		runID, err := GetLatestRunID(task)
		if err != nil {
			return nil, fmt.Errorf("no recorded runs for task '%s': %w", task, err)
		}
		logPath = GetRunLogPath(runID)
	}

	// Check if log file exists
	if _, err := os.Stat(logPath); os.IsNotExist(err) {
		return []string{}, nil // No log file yet
	}

	// Open log file
	file, err := os.Open(logPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	defer file.Close()

	// Read all lines
	var lines []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read log file: %w", err)
	}

	// Apply filter if specified
	if opts.Filter != "" {
		lines, err = filterLines(lines, opts.Filter)
		if err != nil {
			return nil, fmt.Errorf("failed to filter lines: %w", err)
		}
	}

	// Apply tail if specified
	if opts.Lines > 0 && len(lines) > opts.Lines {
		lines = lines[len(lines)-opts.Lines:]
	}

	return lines, nil
}

// filterLines filters lines using a regex pattern
func filterLines(lines []string, pattern string) ([]string, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid regex pattern: %w", err)
	}

	var filtered []string
	for _, line := range lines {
		if re.MatchString(line) {
			filtered = append(filtered, line)
		}
	}

	return filtered, nil
}
