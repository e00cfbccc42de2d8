// ABOUTME: XDG-based data and config directory resolution for the syncview CLI.
// ABOUTME: Checks XDG_DATA_HOME / XDG_CONFIG_HOME, falls back to ~/.local/share/syncview and ~/.config/syncview.
package main

import (
	"fmt"
	"os"
	"path/filepath"
)

// defaultDataDir returns the default data directory, home of the TUI log file.
// It checks XDG_DATA_HOME first, then falls back to ~/.local/share/syncview.
func defaultDataDir() (string, error) {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, "syncview"), nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}

	return filepath.Join(home, ".local", "share", "syncview"), nil
}

// defaultConfigDir returns the directory searched for config.yaml.
// It checks XDG_CONFIG_HOME first, then falls back to ~/.config/syncview.
func defaultConfigDir() (string, error) {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "syncview"), nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}

	return filepath.Join(home, ".config", "syncview"), nil
}

// resolveDataDir returns override when set, the default data directory otherwise.
func resolveDataDir(override string) (string, error) {
	if override != "" {
		return override, nil
	}
	return defaultDataDir()
}

// resolveConfigPath returns override when set, or config.yaml in the
// default config directory when that file exists. Empty means defaults only.
func resolveConfigPath(override string) string {
	if override != "" {
		return override
	}
	dir, err := defaultConfigDir()
	if err != nil {
		return ""
	}
	p := filepath.Join(dir, "config.yaml")
	if _, err := os.Stat(p); err != nil {
		return ""
	}
	return p
}
