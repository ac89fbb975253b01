package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pfrederiksen/seatwatch/internal/history"
)

// ExpandPath expands a leading ~/ to the user's home directory
func ExpandPath(path string) (string, error) {
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("getting home directory: %w", err)
		}
		return filepath.Join(home, strings.TrimPrefix(path[1:], "/")), nil
	}
	return path, nil
}

// LogFile persists the history as a JSON array at a fixed path
type LogFile struct {
	path string
}

// NewLogFile creates a LogFile at path, creating its directory if needed
func NewLogFile(path string) (*LogFile, error) {
	if path == "" {
		return nil, fmt.Errorf("log file path is required")
	}

	path, err := ExpandPath(path)
	if err != nil {
		return nil, err
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating log directory: %w", err)
		}
	}

	return &LogFile{path: path}, nil
}

// Path returns the expanded path of the log file
func (l *LogFile) Path() string {
	return l.path
}

// Save rewrites the log file with all records
func (l *LogFile) Save(records []history.Record) error {
	if records == nil {
		records = []history.Record{}
	}

	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding history: %w", err)
	}

	if err := os.WriteFile(l.path, data, 0644); err != nil {
		return fmt.Errorf("writing history: %w", err)
	}

	return nil
}

// Load reads the records from the log file.
// A missing file yields an empty history.
func (l *LogFile) Load() ([]history.Record, error) {
	data, err := os.ReadFile(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			return []history.Record{}, nil
		}
		return nil, fmt.Errorf("reading history: %w", err)
	}

	var records []history.Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("parsing history: %w", err)
	}

	return records, nil
}
