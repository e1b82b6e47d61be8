package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ExperimentConfig describes one training experiment: the acoustic
// front-end, the data filtering and augmentation policy, the metric
// learning approach and the learning-rate schedule. It is read from a
// config.yml at the experiment root.
type ExperimentConfig struct {
	FeatureExtraction FeatureExtractionConfig `yaml:"feature_extraction"`
	Data              DataConfig              `yaml:"data"`
	Approach          ApproachConfig          `yaml:"approach"`
	Scheduler         SchedulerConfig         `yaml:"scheduler"`
}

// FeatureExtractionConfig configures the acoustic front-end
type FeatureExtractionConfig struct {
	SampleRate       int  `yaml:"sample_rate"`
	Coefficients     int  `yaml:"coefficients"`       // Cepstral coefficients per frame
	Energy           bool `yaml:"e"`                  // Raw log energy
	DeltaEnergy      bool `yaml:"De"`                 // First derivative of energy
	DeltaDeltaEnergy bool `yaml:"DDe"`                // Second derivative of energy
	Deltas           bool `yaml:"D"`                  // First derivatives of coefficients
	DeltaDeltas      bool `yaml:"DD"`                 // Second derivatives of coefficients
}

// DataConfig filters segments and configures augmentation and batch
// preparation
type DataConfig struct {
	MinDuration      float64 `yaml:"min_duration"`       // Seconds (default: 0.5)
	MaxDuration      float64 `yaml:"max_duration"`       // Seconds (default: 1.5)
	LabelMinDuration float64 `yaml:"label_min_duration"` // Seconds (default: 60)
	SNRMin           float64 `yaml:"snr_min"`            // dB
	SNRMax           float64 `yaml:"snr_max"`            // dB
	Parallel         int     `yaml:"parallel"`           // Batch-preparation workers (default: 4)
	Seed             int64   `yaml:"seed"`
}

// ApproachConfig configures the metric-learning objective
type ApproachConfig struct {
	Metric   string  `yaml:"metric"`    // "cosine", "euclidean" or "angular"
	Margin   float64 `yaml:"margin"`    // Triplet margin (default: 0.2)
	Clamp    string  `yaml:"clamp"`     // "sigmoid" or "hinge"
	Sampling string  `yaml:"sampling"`  // "all" or "random"
	PerLabel int     `yaml:"per_label"` // Segments per label (default: 3)
	PerFold  int     `yaml:"per_fold"`  // Labels per batch (default: 20)
}

// SchedulerConfig configures the cyclic learning-rate schedule
type SchedulerConfig struct {
	EpochsPerCycle int     `yaml:"epochs_per_cycle"` // Cycle length (default: 14)
	BaseLR         float64 `yaml:"base_lr"`          // Peak learning rate (default: 0.01)
	Curve          string  `yaml:"curve"`            // "triangular" or "cosine"
}

// DefaultConfig returns the standard speaker-embedding experiment
func DefaultConfig() *ExperimentConfig {
	return &ExperimentConfig{
		FeatureExtraction: FeatureExtractionConfig{
			SampleRate:       16000,
			Coefficients:     11,
			Energy:           false,
			DeltaEnergy:      true,
			DeltaDeltaEnergy: true,
			Deltas:           true,
			DeltaDeltas:      true,
		},
		Data: DataConfig{
			MinDuration:      0.5,
			MaxDuration:      1.5,
			LabelMinDuration: 60.0,
			SNRMin:           5.0,
			SNRMax:           20.0,
			Parallel:         4,
			Seed:             42,
		},
		Approach: ApproachConfig{
			Metric:   "cosine",
			Margin:   0.2,
			Clamp:    "sigmoid",
			Sampling: "all",
			PerLabel: 3,
			PerFold:  20,
		},
		Scheduler: SchedulerConfig{
			EpochsPerCycle: 14,
			BaseLR:         0.01,
			Curve:          "triangular",
		},
	}
}

// Load reads an experiment configuration file, filling omitted fields with
// defaults
func Load(path string) (*ExperimentConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks cross-field consistency
func (c *ExperimentConfig) Validate() error {
	if c.FeatureExtraction.SampleRate <= 0 {
		return fmt.Errorf("feature_extraction.sample_rate must be positive")
	}
	if c.FeatureExtraction.Coefficients <= 0 {
		return fmt.Errorf("feature_extraction.coefficients must be positive")
	}
	if c.Data.MinDuration > 0 && c.Data.MaxDuration > 0 && c.Data.MaxDuration < c.Data.MinDuration {
		return fmt.Errorf("data.max_duration (%.2f) is below data.min_duration (%.2f)", c.Data.MaxDuration, c.Data.MinDuration)
	}
	if c.Data.SNRMax < c.Data.SNRMin {
		return fmt.Errorf("data.snr_max (%.1f) is below data.snr_min (%.1f)", c.Data.SNRMax, c.Data.SNRMin)
	}
	if c.Approach.PerLabel < 2 {
		return fmt.Errorf("approach.per_label must be at least 2 to supply positive pairs")
	}
	if c.Approach.PerFold < 2 {
		return fmt.Errorf("approach.per_fold must be at least 2 to supply negatives")
	}
	if c.Approach.Margin < 0 {
		return fmt.Errorf("approach.margin must be non-negative")
	}
	if c.Scheduler.EpochsPerCycle <= 0 {
		return fmt.Errorf("scheduler.epochs_per_cycle must be positive")
	}
	if c.Scheduler.BaseLR <= 0 {
		return fmt.Errorf("scheduler.base_lr must be positive")
	}
	return nil
}
