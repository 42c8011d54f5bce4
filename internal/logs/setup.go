package logs

import (
	"fmt"
	"os"
	"path/filepath"

	"assetpipe/internal/dirs"
)

var (
	// LogDir is the directory where all build logs are stored
	LogDir = filepath.Join(dirs.StateDir, "logs")
	// MaxLogSize is the maximum size of a log file before rotation (10MB)
	MaxLogSize = 10 * 1024 * 1024
)

// Setup initializes the log directory structure
// Creates the log directory and a .gitignore file to ignore runtime state
func Setup() error {
	// Create the log directory
	if err := os.MkdirAll(LogDir, 0755); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}

	// Create parent directory for gitignore
	stateDir := filepath.Dir(LogDir)
	gitignorePath := filepath.Join(stateDir, ".gitignore")

	// Check if .gitignore already exists
	if _, err := os.Stat(gitignorePath); os.IsNotExist(err) {
		// Create .gitignore to ignore logs directory
		content := "logs/\n"
		if err := os.WriteFile(gitignorePath, []byte(content), 0644); err != nil {
			return fmt.Errorf("failed to create .gitignore: %w", err)
		}
	}

	return nil
}
