// ABOUTME: Tests for the syncview CLI: flag parsing, settings overrides, payload loading, and server-mode lifecycle.
package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/2389-research/syncview/config"
	"github.com/2389-research/syncview/dashboard"
	"github.com/2389-research/syncview/metrics"
)

const testPayload = `{
  "myData": [[
    {"data": [[0, 1], [1000, 2], [2000, 3]], "labels": ["Conflicts", "restarts"],
     "stacked": 0, "colnum": 0, "blockDivID": "graphBlock0AT0", "title": "Restarts"}
  ]],
  "clDistrib": [[
    {"data": [{"conflEnd": 2000, "darkness": [5, 0, 2]}], "blockDivID": "distBlock0-0", "lookAt": "size"}
  ]],
  "simplificationPoints": [[1000]],
  "maxConflRestart": [2000]
}`

func writePayload(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "run.json")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

// --- parseFlags tests ---

func TestParseFlagsDefaults(t *testing.T) {
	origArgs := os.Args
	defer func() { os.Args = origArgs }()

	os.Args = []string{"syncview", "run.json"}
	cfg := parseFlags()

	if cfg.serverMode || cfg.tuiMode || cfg.watch || cfg.verbose || cfg.showVersion {
		t.Errorf("expected all modes off by default, got %+v", cfg)
	}
	if cfg.port != 0 {
		t.Errorf("expected port=0, got %d", cfg.port)
	}
	if cfg.configFile != "" || cfg.dataDir != "" || cfg.logFile != "" {
		t.Errorf("expected empty paths, got %+v", cfg)
	}
	if cfg.payloadFile != "run.json" {
		t.Errorf("expected payloadFile=run.json, got %q", cfg.payloadFile)
	}
}

func TestParseFlagsAll(t *testing.T) {
	origArgs := os.Args
	defer func() { os.Args = origArgs }()

	os.Args = []string{"syncview",
		"-config", "c.yaml", "-server", "-port", "8080", "-tui", "-watch",
		"-data-dir", "/tmp/d", "-log-file", "/tmp/l.log", "-verbose", "run.json"}
	cfg := parseFlags()

	want := cliConfig{
		configFile:  "c.yaml",
		serverMode:  true,
		port:        8080,
		tuiMode:     true,
		watch:       true,
		dataDir:     "/tmp/d",
		logFile:     "/tmp/l.log",
		verbose:     true,
		payloadFile: "run.json",
	}
	if cfg != want {
		t.Errorf("parseFlags = %+v, want %+v", cfg, want)
	}
}

// --- settings tests ---

func TestLoadSettingsOverrides(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv(config.EnvAddr, "")
	t.Setenv(config.EnvLogLevel, "")

	settings, err := loadSettings(cliConfig{port: 9000, logFile: "x.log", verbose: true})
	if err != nil {
		t.Fatal(err)
	}
	if settings.Addr != "127.0.0.1:9000" {
		t.Errorf("Addr = %q", settings.Addr)
	}
	if settings.LogFile != "x.log" {
		t.Errorf("LogFile = %q", settings.LogFile)
	}
	if settings.LogLevel != "debug" {
		t.Errorf("LogLevel = %q", settings.LogLevel)
	}
}

func TestLoadSettingsFindsDefaultConfigFile(t *testing.T) {
	xdg := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", xdg)
	t.Setenv(config.EnvAddr, "")
	t.Setenv(config.EnvLogLevel, "")
	dir := filepath.Join(xdg, "syncview")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("roll_period: 4\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	settings, err := loadSettings(cliConfig{})
	if err != nil {
		t.Fatal(err)
	}
	if settings.RollPeriod != 4 {
		t.Errorf("RollPeriod = %d, want 4", settings.RollPeriod)
	}
}

func TestLoadSettingsRejectsBadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("roll_period: 0\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := loadSettings(cliConfig{configFile: path}); err == nil {
		t.Fatal("expected an error for roll_period 0")
	}
}

// --- run tests ---

func TestRunWithoutPayloadPrintsHelp(t *testing.T) {
	if code := run(cliConfig{}); code != 0 {
		t.Errorf("expected exit 0, got %d", code)
	}
}

func TestRunNonexistentPayload(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	if code := run(cliConfig{payloadFile: "/nonexistent/run.json"}); code != 1 {
		t.Errorf("expected exit 1, got %d", code)
	}
}

func TestRunInvalidPayload(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	path := writePayload(t, `{"myData": "nope"}`)
	if code := run(cliConfig{payloadFile: path}); code != 1 {
		t.Errorf("expected exit 1, got %d", code)
	}
}

func TestLoadCatalog(t *testing.T) {
	cat, err := loadCatalog(writePayload(t, testPayload))
	if err != nil {
		t.Fatal(err)
	}
	if len(cat.Series) != 1 || len(cat.Heatmaps) != 1 {
		t.Errorf("unexpected catalog: %d series, %d heatmaps", len(cat.Series), len(cat.Heatmaps))
	}
}

func TestServeServerModeStopsOnCancel(t *testing.T) {
	cat, err := loadCatalog(writePayload(t, testPayload))
	if err != nil {
		t.Fatal(err)
	}
	settings := config.Default()
	settings.Addr = "127.0.0.1:0"
	m := metrics.New()
	opts, err := dashboard.FromConfig(settings, nil, m)
	if err != nil {
		t.Fatal(err)
	}
	d, err := dashboard.New(cat, opts)
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- serve(ctx, cliConfig{serverMode: true}, settings, d, m, newLogger(settings.SlogLevel(), nil, nil, os.Stderr), nil)
	}()
	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("serve returned %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("serve did not stop after cancel")
	}
}
