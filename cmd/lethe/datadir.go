// ABOUTME: XDG-based data and workspace directory resolution for the lethe CLI.
// ABOUTME: Checks XDG_DATA_HOME, falls back to ~/.local/share/lethe.
package main

import (
	"fmt"
	"os"
	"path/filepath"
)

// defaultDataDir returns the default data directory for lethe persistent
// state. It checks XDG_DATA_HOME first, then falls back to
// ~/.local/share/lethe.
func defaultDataDir() (string, error) {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, "lethe"), nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}

	return filepath.Join(home, ".local", "share", "lethe"), nil
}

// resolveWorkspaceDir returns the workspace directory to use, preferring an
// explicit override, then WORKSPACE_DIR, then the XDG-based default.
func resolveWorkspaceDir(override string) (string, error) {
	if override != "" {
		return override, nil
	}
	if env := os.Getenv("WORKSPACE_DIR"); env != "" {
		return env, nil
	}
	return defaultDataDir()
}
