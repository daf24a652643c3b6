package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"cogc/internal/config"
	"cogc/internal/pipeline"
)

// resolveWorkspace returns the --workspace flag value, defaulting to
// the current working directory.
func resolveWorkspace() (string, error) {
	if workspace == "" {
		return os.Getwd()
	}
	return filepath.Abs(workspace)
}

// loadConfig honors --config when set, otherwise falls back to
// config.DefaultConfig, matching internal/config.Load's own
// default-then-override layering.
func loadConfig() (*config.Config, error) {
	if configPath == "" {
		return config.DefaultConfig(), nil
	}
	return config.Load(configPath)
}

// appIDFor derives the --app-id flag value, defaulting to the spec
// file's base name with its extension stripped.
func appIDFor(specPath string) string {
	if appID != "" {
		return appID
	}
	base := filepath.Base(specPath)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func buildPipeline() (*pipeline.Pipeline, string, error) {
	ws, err := resolveWorkspace()
	if err != nil {
		return nil, "", fmt.Errorf("resolve workspace: %w", err)
	}
	cfg, err := loadConfig()
	if err != nil {
		return nil, "", fmt.Errorf("load config: %w", err)
	}
	p, err := pipeline.New(cfg, ws)
	if err != nil {
		return nil, "", fmt.Errorf("build pipeline: %w", err)
	}
	return p, ws, nil
}
