package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// LogFilePath returns <logsDir>/<name>.<start>.log.
func LogFilePath(logsDir, name string, start time.Time) string {
	return filepath.Join(logsDir, fmt.Sprintf("%s.%s.log", name, start.Format("20060102_150405")))
}

// OpenLogFile creates logsDir and opens the session log file for appending.
// A file left by an earlier run in the same second is moved to <path>.old.
func OpenLogFile(logsDir, name string, start time.Time) (*os.File, string, error) {
	if err := os.MkdirAll(logsDir, 0o755); err != nil {
		return nil, "", fmt.Errorf("creating logs directory: %w", err)
	}

	path := LogFilePath(logsDir, name, start)
	if _, err := os.Stat(path); err == nil {
		if err := os.Rename(path, path+".old"); err != nil {
			return nil, path, fmt.Errorf("rotating %s: %w", path, err)
		}
	}

	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0o644)
	if err != nil {
		return nil, path, fmt.Errorf("opening log file: %w", err)
	}
	return f, path, nil
}
