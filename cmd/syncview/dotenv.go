// ABOUTME: Loads environment variables from .env files at startup through godotenv.
// ABOUTME: Sets variables only when not already present in the environment (no clobber).
package main

import (
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
)

// loadDotEnv reads a .env file and sets any variables not already in the
// environment. Missing or unreadable files are ignored.
func loadDotEnv(path string) {
	_ = godotenv.Load(path)
}

// loadDotEnvAuto loads every candidate from dotEnvCandidates. Earlier files
// win since nothing is ever overwritten.
func loadDotEnvAuto() {
	for _, p := range dotEnvCandidates() {
		loadDotEnv(p)
	}
}

// dotEnvCandidates lists .env paths nearest first: the working directory
// and each of its parents, then the directory of the executable.
func dotEnvCandidates() []string {
	var out []string
	seen := make(map[string]bool)
	add := func(dir string) {
		p := filepath.Join(dir, ".env")
		if !seen[p] {
			seen[p] = true
			out = append(out, p)
		}
	}

	if wd, err := os.Getwd(); err == nil {
		for dir := wd; ; dir = filepath.Dir(dir) {
			add(dir)
			if filepath.Dir(dir) == dir {
				break
			}
		}
	}
	if exe, err := os.Executable(); err == nil {
		add(filepath.Dir(exe))
	}
	return out
}
