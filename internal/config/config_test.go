package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/turtacn/MolVal-Engine/internal/config"
)

func TestApplyDefaults(t *testing.T) {
	cfg := &config.Config{}
	config.ApplyDefaults(cfg)

	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, 100000.0, cfg.Limits.MaxLinearSpringConstant)
	assert.Equal(t, 10000.0, cfg.Limits.MaxTorsionSpringConstant)
	assert.Equal(t, 1.0, cfg.Limits.MinDistanceTarget)

	general, ok := cfg.Validation.Cutoffs["general"]
	require.True(t, ok)
	assert.Equal(t, 0.02, general.Allowed)
	assert.Equal(t, 0.0005, general.Outlier)

	glycine := cfg.Validation.Cutoffs["glycine"]
	assert.Equal(t, 0.002, glycine.Outlier)

	assert.Equal(t, []uint8{0, 255, 0, 255}, cfg.Validation.Colors.Favored)
	assert.Len(t, cfg.Validation.Colors.NotApplicable, 4)
}

func TestApplyDefaultsKeepsExplicitValues(t *testing.T) {
	cfg := &config.Config{}
	cfg.Log.Level = "debug"
	cfg.Limits.MinDistanceTarget = 0.5
	cfg.Validation.Cutoffs = map[string]config.CutoffConfig{
		"general": {Allowed: 0.05, Outlier: 0.001},
	}
	config.ApplyDefaults(cfg)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, 0.5, cfg.Limits.MinDistanceTarget)
	assert.Equal(t, 0.05, cfg.Validation.Cutoffs["general"].Allowed)
	assert.Equal(t, 0.002, cfg.Validation.Cutoffs["prepro"].Outlier, "missing cases still default")
}

func TestValidate(t *testing.T) {
	valid := func() *config.Config {
		cfg := &config.Config{}
		config.ApplyDefaults(cfg)
		return cfg
	}

	require.NoError(t, valid().Validate())

	cfg := valid()
	cfg.Limits.MaxLinearSpringConstant = -1
	assert.Error(t, cfg.Validate())

	cfg = valid()
	cfg.Validation.Cutoffs["general"] = config.CutoffConfig{Allowed: 0.001, Outlier: 0.01}
	assert.Error(t, cfg.Validate())

	cfg = valid()
	cfg.Validation.Cutoffs["bogus"] = config.CutoffConfig{Allowed: 0.02, Outlier: 0.002}
	assert.Error(t, cfg.Validate())

	cfg = valid()
	cfg.Validation.Colors.Outlier = []uint8{1, 2, 3}
	assert.Error(t, cfg.Validate())
}

func TestLoadYAMLFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "molval.yaml")
	body := []byte(`
log:
  level: warn
  format: console
limits:
  min_distance_target: 1.2
validation:
  cutoffs:
    general:
      allowed: 0.03
      outlier: 0.001
`)
	require.NoError(t, os.WriteFile(path, body, 0o600))

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, 1.2, cfg.Limits.MinDistanceTarget)
	assert.Equal(t, 0.03, cfg.Validation.Cutoffs["general"].Allowed)
	// Unset sections still receive defaults.
	assert.Equal(t, 100000.0, cfg.Limits.MaxLinearSpringConstant)
	assert.Equal(t, 0.002, cfg.Validation.Cutoffs["ileval"].Outlier)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}

func TestLoadInvalidConfigFails(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "molval.yaml")
	body := []byte(`
validation:
  cutoffs:
    general:
      allowed: 0.001
      outlier: 0.01
`)
	require.NoError(t, os.WriteFile(path, body, 0o600))

	_, err := config.Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "validation failed")
}

func TestLoadFromEnv(t *testing.T) {
	cfg, err := config.LoadFromEnv()
	require.NoError(t, err)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, 1.0, cfg.Limits.MinDistanceTarget)
}
