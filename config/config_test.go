package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// clearEnv blanks every variable Load reads, restoring originals afterwards.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{envGridSize, envMergeThreshold, envLogLevel, envLogJSON} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	want := Config{GridSize: 20, MergeThreshold: 30, LogLevel: "info", LogJSON: false}
	if cfg != want {
		t.Errorf("Expected %+v, got %+v", want, cfg)
	}
}

func TestLoadFromEnvironment(t *testing.T) {
	clearEnv(t)
	t.Setenv(envGridSize, "24")
	t.Setenv(envMergeThreshold, "35")
	t.Setenv(envLogLevel, "debug")
	t.Setenv(envLogJSON, "true")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	want := Config{GridSize: 24, MergeThreshold: 35, LogLevel: "debug", LogJSON: true}
	if cfg != want {
		t.Errorf("Expected %+v, got %+v", want, cfg)
	}
}

func TestLoadMalformedValues(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"grid size", envGridSize, "twenty"},
		{"merge threshold", envMergeThreshold, "30.5"},
		{"log json", envLogJSON, "yep"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tt.key, tt.value)

			_, err := Load()
			if err == nil {
				t.Fatalf("Expected error for %s=%q", tt.key, tt.value)
			}
			if !strings.Contains(err.Error(), tt.key) {
				t.Errorf("Expected error to name %s, got %q", tt.key, err)
			}
		})
	}
}

func TestLoadReadsDotEnvFile(t *testing.T) {
	clearEnv(t)
	// The variable must be absent, not blank, for the file value to apply.
	os.Unsetenv(envGridSize)

	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	if err := os.WriteFile(envFile, []byte(envGridSize+"=42\n"), 0o644); err != nil {
		t.Fatalf("writing .env: %v", err)
	}

	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("getting working dir: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("changing dir: %v", err)
	}
	defer os.Chdir(wd)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.GridSize != 42 {
		t.Errorf("Expected grid size 42 from .env, got %d", cfg.GridSize)
	}
}

func TestLoadEnvironmentWinsOverDotEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv(envGridSize, "11")

	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte(envGridSize+"=42\n"), 0o644); err != nil {
		t.Fatalf("writing .env: %v", err)
	}

	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("getting working dir: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("changing dir: %v", err)
	}
	defer os.Chdir(wd)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.GridSize != 11 {
		t.Errorf("Expected environment value 11 to win, got %d", cfg.GridSize)
	}
}

func TestLoadMissingDotEnvIsQuiet(t *testing.T) {
	clearEnv(t)

	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("getting working dir: %v", err)
	}
	if err := os.Chdir(t.TempDir()); err != nil {
		t.Fatalf("changing dir: %v", err)
	}
	defer os.Chdir(wd)

	if _, err := Load(); err != nil {
		t.Errorf("Expected no error without a .env file, got %v", err)
	}
}
