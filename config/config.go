// Package config reads the CLI defaults from the environment, with a local
// .env file honored when present.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/tsawler/accessify"
)

// Environment variables read by Load.
const (
	envGridSize       = "ACCESSIFY_GRID_SIZE"
	envMergeThreshold = "ACCESSIFY_MERGE_THRESHOLD"
	envLogLevel       = "ACCESSIFY_LOG_LEVEL"
	envLogJSON        = "ACCESSIFY_LOG_JSON"
)

// Config carries the tunables and logging settings the CLI starts from.
// Flags override these values per invocation.
type Config struct {
	GridSize       int
	MergeThreshold int
	LogLevel       string
	LogJSON        bool
}

// Load builds a Config from the environment. A .env file in the working
// directory is loaded first when one exists; values already present in the
// environment win over the file. Malformed numeric or boolean values are an
// error rather than silently falling back.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return Config{}, fmt.Errorf("loading .env: %w", err)
	}

	cfg := Config{
		GridSize:       accessify.DefaultGridSize,
		MergeThreshold: accessify.DefaultMergeThreshold,
		LogLevel:       getEnvOrDefault(envLogLevel, "info"),
	}

	var err error
	if cfg.GridSize, err = intFromEnv(envGridSize, cfg.GridSize); err != nil {
		return Config{}, err
	}
	if cfg.MergeThreshold, err = intFromEnv(envMergeThreshold, cfg.MergeThreshold); err != nil {
		return Config{}, err
	}
	if cfg.LogJSON, err = boolFromEnv(envLogJSON, false); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func intFromEnv(key string, defaultValue int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: %q is not a number", key, raw)
	}
	return value, nil
}

func boolFromEnv(key string, defaultValue bool) (bool, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue, nil
	}
	value, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("%s: %q is not a boolean", key, raw)
	}
	return value, nil
}
