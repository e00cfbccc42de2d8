// ABOUTME: Tests for the .env loader that reads KEY=VALUE pairs into the process environment.
// ABOUTME: Covers plain and quoted values, comments, export prefixes, and no-clobber behavior.
package main

import (
	"os"
	"path/filepath"
	"testing"
)

func writeTempEnv(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func unset(t *testing.T, keys ...string) {
	t.Helper()
	for _, k := range keys {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
}

func TestLoadDotEnvSetsVariables(t *testing.T) {
	path := writeTempEnv(t, "# comment\n\nTEST_DOTENV_A=hello\nexport TEST_DOTENV_B=\"quoted value\"\nTEST_DOTENV_C='single'\n")
	unset(t, "TEST_DOTENV_A", "TEST_DOTENV_B", "TEST_DOTENV_C")

	loadDotEnv(path)

	for key, want := range map[string]string{
		"TEST_DOTENV_A": "hello",
		"TEST_DOTENV_B": "quoted value",
		"TEST_DOTENV_C": "single",
	} {
		if got := os.Getenv(key); got != want {
			t.Errorf("%s = %q, want %q", key, got, want)
		}
	}
}

func TestLoadDotEnvDoesNotClobber(t *testing.T) {
	path := writeTempEnv(t, "TEST_DOTENV_KEEP=from-file\n")
	t.Setenv("TEST_DOTENV_KEEP", "from-env")

	loadDotEnv(path)

	if got := os.Getenv("TEST_DOTENV_KEEP"); got != "from-env" {
		t.Errorf("expected existing value to win, got %q", got)
	}
}

func TestLoadDotEnvMissingFile(t *testing.T) {
	loadDotEnv(filepath.Join(t.TempDir(), "missing.env"))
}

func TestLoadDotEnvAutoWalksParents(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, ".env"), []byte("TEST_DOTENV_PARENT=yes\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	child := filepath.Join(root, "a", "b")
	if err := os.MkdirAll(child, 0o755); err != nil {
		t.Fatal(err)
	}
	unset(t, "TEST_DOTENV_PARENT")
	t.Chdir(child)

	loadDotEnvAuto()

	if got := os.Getenv("TEST_DOTENV_PARENT"); got != "yes" {
		t.Errorf("expected parent .env to load, got %q", got)
	}
}

func TestDotEnvCandidatesNearestFirst(t *testing.T) {
	root := t.TempDir()
	child := filepath.Join(root, "a")
	if err := os.MkdirAll(child, 0o755); err != nil {
		t.Fatal(err)
	}
	t.Chdir(child)

	got := dotEnvCandidates()
	if len(got) < 2 {
		t.Fatalf("expected at least two candidates, got %v", got)
	}
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if got[0] != filepath.Join(wd, ".env") || got[1] != filepath.Join(filepath.Dir(wd), ".env") {
		t.Errorf("candidates start %v", got[:2])
	}
}
