// Package gamelog persists games as append-only action logs in BadgerDB,
// keyed by (gameID, ply), next to the snapshot each log replays from. The
// rules core stays pure; this package is the authority-side collaborator
// that owns durability. Callers serialize appends per game: action n+1 is
// stored only after action n committed.
package gamelog

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
)

const appName = "tribunplay"

// GetDataDir returns the platform-specific data directory for the application.
// - macOS: ~/Library/Application Support/tribunplay/
// - Linux: ~/.local/share/tribunplay/
// - Windows: %APPDATA%/tribunplay/
func GetDataDir() (string, error) {
	var baseDir string

	switch runtime.GOOS {
	case "darwin":
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		baseDir = filepath.Join(homeDir, "Library", "Application Support")

	case "windows":
		baseDir = os.Getenv("APPDATA")
		if baseDir == "" {
			homeDir, err := os.UserHomeDir()
			if err != nil {
				return "", err
			}
			baseDir = filepath.Join(homeDir, "AppData", "Roaming")
		}

	default:
		// Linux and friends: XDG data home.
		baseDir = os.Getenv("XDG_DATA_HOME")
		if baseDir == "" {
			homeDir, err := os.UserHomeDir()
			if err != nil {
				return "", err
			}
			baseDir = filepath.Join(homeDir, ".local", "share")
		}
	}

	dir := filepath.Join(baseDir, appName)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create data dir: %w", err)
	}
	return dir, nil
}

// GetDatabaseDir returns the directory holding the badger database.
func GetDatabaseDir() (string, error) {
	dataDir, err := GetDataDir()
	if err != nil {
		return "", err
	}
	dbDir := filepath.Join(dataDir, "db")
	if err := os.MkdirAll(dbDir, 0o755); err != nil {
		return "", fmt.Errorf("create database dir: %w", err)
	}
	return dbDir, nil
}
