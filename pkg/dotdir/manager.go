// Package dotdir manages the .liner/ and ~/.liner directories.
//
// The dotdir holds the config.toml, credentials, local stores, and the
// consolidation state that lets watch-mode reruns pick up where the
// previous pass left off.
package dotdir

import (
	"fmt"
	"os"
	"path/filepath"
)

const (
	// dirName is the name of the liner directory.
	dirName = ".liner"
)

type Manager struct{}

func NewManager() *Manager {
	return &Manager{}
}

// Target returns the target absolute path to a .liner/ directory.
// Order of precedence is as follows:
//  1. Provided override (created if missing)
//  2. Local ./.liner/ dir
//  3. Home ~/.liner/ dir
//
// Returns an empty string when no override is given and neither the local
// nor the home directory exists. Target never creates the home directory;
// use Ensure for write paths that need one.
func (m *Manager) Target(overrideDir string) (string, error) {
	if overrideDir != "" {
		if err := os.MkdirAll(overrideDir, 0o755); err != nil {
			return "", fmt.Errorf("creating liner directory %s: %w", overrideDir, err)
		}
		return filepath.Abs(overrideDir)
	}

	if m.localDirExists() {
		cwd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("getting current directory: %w", err)
		}
		return filepath.Abs(filepath.Join(cwd, dirName))
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}

	dir := filepath.Join(home, dirName)
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return "", nil
	}

	return filepath.Abs(dir)
}

// Ensure resolves the .liner/ directory like Target but creates the home
// ~/.liner/ directory when nothing else resolves, so the returned path is
// always usable for writes.
func (m *Manager) Ensure(overrideDir string) (string, error) {
	dir, err := m.Target(overrideDir)
	if err != nil {
		return "", err
	}
	if dir != "" {
		return dir, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}

	dir = filepath.Join(home, dirName)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating liner directory %s: %w", dir, err)
	}

	return filepath.Abs(dir)
}

// localDirExists checks whether a .liner/ directory exists in the current
// working directory.
func (m *Manager) localDirExists() bool {
	cwd, err := os.Getwd()
	if err != nil {
		return false
	}

	info, err := os.Stat(filepath.Join(cwd, dirName))
	return err == nil && info.IsDir()
}
