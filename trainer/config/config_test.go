package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadFillsDefaults(t *testing.T) {
	path := writeConfig(t, `approach:
  margin: 0.5
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.InDelta(t, 0.5, cfg.Approach.Margin, 1e-9)
	// Everything else falls back to defaults
	assert.Equal(t, 11, cfg.FeatureExtraction.Coefficients)
	assert.Equal(t, 3, cfg.Approach.PerLabel)
	assert.Equal(t, 20, cfg.Approach.PerFold)
	assert.Equal(t, 14, cfg.Scheduler.EpochsPerCycle)
	assert.InDelta(t, 60.0, cfg.Data.LabelMinDuration, 1e-9)
}

func TestLoadFullExperiment(t *testing.T) {
	path := writeConfig(t, `feature_extraction:
  sample_rate: 16000
  coefficients: 11
  e: false
  De: true
  DDe: true
  D: true
  DD: true
data:
  min_duration: 0.5
  max_duration: 1.5
  label_min_duration: 60
  snr_min: 10
  snr_max: 20
  parallel: 4
approach:
  metric: cosine
  margin: 0.2
  clamp: sigmoid
  sampling: all
  per_label: 3
  per_fold: 20
scheduler:
  epochs_per_cycle: 14
  base_lr: 0.01
  curve: triangular
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.False(t, cfg.FeatureExtraction.Energy)
	assert.True(t, cfg.FeatureExtraction.DeltaDeltaEnergy)
	assert.Equal(t, "sigmoid", cfg.Approach.Clamp)
	assert.InDelta(t, 10.0, cfg.Data.SNRMin, 1e-9)
	assert.Equal(t, "triangular", cfg.Scheduler.Curve)
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := map[string]func(*ExperimentConfig){
		"per_label below 2":         func(c *ExperimentConfig) { c.Approach.PerLabel = 1 },
		"per_fold below 2":          func(c *ExperimentConfig) { c.Approach.PerFold = 1 },
		"negative margin":           func(c *ExperimentConfig) { c.Approach.Margin = -0.1 },
		"inverted durations":        func(c *ExperimentConfig) { c.Data.MinDuration = 2.0; c.Data.MaxDuration = 1.0 },
		"inverted snr range":        func(c *ExperimentConfig) { c.Data.SNRMin = 20; c.Data.SNRMax = 5 },
		"zero cycle length":         func(c *ExperimentConfig) { c.Scheduler.EpochsPerCycle = 0 },
		"zero base learning rate":   func(c *ExperimentConfig) { c.Scheduler.BaseLR = 0 },
		"zero sample rate":          func(c *ExperimentConfig) { c.FeatureExtraction.SampleRate = 0 },
		"zero coefficients":         func(c *ExperimentConfig) { c.FeatureExtraction.Coefficients = 0 },
	}

	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := DefaultConfig()
			mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yml"))
	assert.Error(t, err)
}
