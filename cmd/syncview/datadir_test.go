// ABOUTME: Tests for XDG-based data and config directory resolution used by the syncview CLI.
package main

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultDataDirUsesXDGDataHome(t *testing.T) {
	customDir := t.TempDir()
	t.Setenv("XDG_DATA_HOME", customDir)

	got, err := defaultDataDir()
	if err != nil {
		t.Fatalf("defaultDataDir failed: %v", err)
	}
	if want := filepath.Join(customDir, "syncview"); got != want {
		t.Errorf("defaultDataDir() = %q, want %q", got, want)
	}
}

func TestDefaultDataDirFallsBackToHome(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", "")

	got, err := defaultDataDir()
	if err != nil {
		t.Fatalf("defaultDataDir failed: %v", err)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		t.Fatalf("UserHomeDir failed: %v", err)
	}
	if want := filepath.Join(home, ".local", "share", "syncview"); got != want {
		t.Errorf("defaultDataDir() = %q, want %q", got, want)
	}
}

func TestDefaultConfigDirUsesXDGConfigHome(t *testing.T) {
	customDir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", customDir)

	got, err := defaultConfigDir()
	if err != nil {
		t.Fatalf("defaultConfigDir failed: %v", err)
	}
	if want := filepath.Join(customDir, "syncview"); got != want {
		t.Errorf("defaultConfigDir() = %q, want %q", got, want)
	}
}

func TestResolveDataDirWithOverride(t *testing.T) {
	got, err := resolveDataDir("/custom/data")
	if err != nil {
		t.Fatal(err)
	}
	if got != "/custom/data" {
		t.Errorf("resolveDataDir = %q", got)
	}
}

func TestResolveConfigPath(t *testing.T) {
	xdg := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", xdg)

	if got := resolveConfigPath("explicit.yaml"); got != "explicit.yaml" {
		t.Errorf("override = %q", got)
	}
	if got := resolveConfigPath(""); got != "" {
		t.Errorf("missing default file should give empty path, got %q", got)
	}

	dir := filepath.Join(xdg, "syncview")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	want := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(want, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	if got := resolveConfigPath(""); got != want {
		t.Errorf("resolveConfigPath = %q, want %q", got, want)
	}
}
