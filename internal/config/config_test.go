package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"cogc/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigValidates(t *testing.T) {
	cfg := config.DefaultConfig()
	assert.NoError(t, cfg.Validate())
	assert.Equal(t, config.ModeHybrid, cfg.Execution.Mode)
	assert.Equal(t, 3, cfg.Repair.MaxIterations)
}

func TestValidateRejectsUnknownExecutionMode(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Execution.Mode = "BOGUS"
	assert.Error(t, cfg.Validate())
}

func TestValidateRejectsOutOfRangeTargetPassRate(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Repair.TargetPassRate = 1.5
	assert.Error(t, cfg.Validate())
}

func TestLoadAppliesFileOverridesOnTopOfDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cogc.yaml")
	contents := `
execution:
  strict_mode: true
  qa_level: HEAVY
repair:
  max_repair_iterations: 5
`
	require.NoError(t, os.WriteFile(path, []byte(contents), 0644))

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.True(t, cfg.Execution.StrictMode)
	assert.Equal(t, config.QAHeavy, cfg.Execution.QALevel)
	assert.Equal(t, 5, cfg.Repair.MaxIterations)
	// Unset fields keep the default.
	assert.Equal(t, config.ModeHybrid, cfg.Execution.Mode)
	assert.Equal(t, 0.8, cfg.Repair.TargetPassRate)
}

func TestLoadRejectsInvalidFile(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}
