// Package locate finds the IDE's local data directories for the current
// operating system.
package locate

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
)

// DBFileName is the per-workspace state database file.
const DBFileName = "state.vscdb"

// Paths holds the storage locations the extractors read from.
type Paths struct {
	LogsDir          string
	DBDir            string
	WorkspaceStorage string
}

// DefaultPaths returns the storage locations for the current OS.
func DefaultPaths() (Paths, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return Paths{}, fmt.Errorf("home directory: %w", err)
	}
	return pathsFor(runtime.GOOS, home)
}

func pathsFor(goos, home string) (Paths, error) {
	var base string
	switch goos {
	case "darwin":
		base = filepath.Join(home, "Library", "Application Support", "Cursor")
	case "linux":
		base = filepath.Join(home, ".config", "Cursor")
	case "windows":
		appData := os.Getenv("APPDATA")
		if appData == "" {
			appData = home
		}
		base = filepath.Join(appData, "Cursor")
	default:
		return Paths{}, fmt.Errorf("unsupported operating system: %s", goos)
	}

	userDir := filepath.Join(base, "User")
	return Paths{
		LogsDir:          filepath.Join(base, "logs"),
		DBDir:            userDir,
		WorkspaceStorage: filepath.Join(userDir, "workspaceStorage"),
	}, nil
}

// FindWorkspaceDB scans the workspace storage directory for the first
// workspace that has a state database.
func FindWorkspaceDB(workspaceStorage string) (string, bool) {
	entries, err := os.ReadDir(workspaceStorage)
	if err != nil {
		return "", false
	}
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		dbPath := filepath.Join(workspaceStorage, e.Name(), DBFileName)
		if _, err := os.Stat(dbPath); err == nil {
			return dbPath, true
		}
	}
	return "", false
}

// Validate reports which of the paths exist as directories.
func Validate(p Paths) map[string]bool {
	return map[string]bool{
		"logs_dir":          isDir(p.LogsDir),
		"db_dir":            isDir(p.DBDir),
		"workspace_storage": isDir(p.WorkspaceStorage),
	}
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
