// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package runs manages timestamped run directories. Every pipeline
// invocation owns one directory under the base dir, named by its local
// creation time so lexical order equals chronological order.
package runs

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"time"
)

const (
	// TimestampLayout names run directories: YYYY-MM-DD_HH-MM-SS.
	TimestampLayout = "2006-01-02_15-04-05"

	// PDFDir and TempDir are the subdirectories every run contains.
	PDFDir  = "pdfs"
	TempDir = "temp"
)

// runDirPattern matches directory names produced by TimestampLayout.
var runDirPattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}_\d{2}-\d{2}-\d{2}$`)

// Manager creates and locates run directories under a base directory.
type Manager struct {
	baseDir string
}

// NewManager returns a manager rooted at baseDir, creating it if needed.
func NewManager(baseDir string) (*Manager, error) {
	if baseDir == "" {
		baseDir = "runs"
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating base directory %s: %w", baseDir, err)
	}
	return &Manager{baseDir: baseDir}, nil
}

// BaseDir returns the managed base directory.
func (m *Manager) BaseDir() string { return m.baseDir }

// Create makes a run directory for the given timestamp (current local
// time when empty) along with its pdfs/ and temp/ subdirectories.
// Re-creating an existing timestamp is idempotent.
func (m *Manager) Create(timestamp string) (string, error) {
	if timestamp == "" {
		timestamp = time.Now().Format(TimestampLayout)
	}
	if !runDirPattern.MatchString(timestamp) {
		return "", fmt.Errorf("invalid run timestamp %q (want %s)", timestamp, TimestampLayout)
	}

	dir := filepath.Join(m.baseDir, timestamp)
	for _, d := range []string{dir, filepath.Join(dir, PDFDir), filepath.Join(dir, TempDir)} {
		if err := os.MkdirAll(d, 0o755); err != nil {
			return "", fmt.Errorf("creating %s: %w", d, err)
		}
	}
	return dir, nil
}

// List returns all run directories, newest first.
func (m *Manager) List() ([]string, error) {
	entries, err := os.ReadDir(m.baseDir)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", m.baseDir, err)
	}

	var dirs []string
	for _, e := range entries {
		if e.IsDir() && runDirPattern.MatchString(e.Name()) {
			dirs = append(dirs, filepath.Join(m.baseDir, e.Name()))
		}
	}
	sort.Sort(sort.Reverse(sort.StringSlice(dirs)))
	return dirs, nil
}

// Latest returns the lexically greatest run directory, or "" when none
// exist.
func (m *Manager) Latest() (string, error) {
	dirs, err := m.List()
	if err != nil {
		return "", err
	}
	if len(dirs) == 0 {
		return "", nil
	}
	return dirs[0], nil
}
