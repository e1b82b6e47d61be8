package trainer

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// SaveSchedulerState writes the scheduler state to a small YAML record
func SaveSchedulerState(path string, state SchedulerState) error {
	data, err := yaml.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to encode scheduler state: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write scheduler state: %w", err)
	}
	return nil
}

// LoadSchedulerState restores a scheduler state previously written by
// SaveSchedulerState
func LoadSchedulerState(path string) (SchedulerState, error) {
	var state SchedulerState

	data, err := os.ReadFile(path)
	if err != nil {
		return state, fmt.Errorf("failed to read scheduler state: %w", err)
	}
	if err := yaml.Unmarshal(data, &state); err != nil {
		return state, fmt.Errorf("failed to parse scheduler state: %w", err)
	}
	if state.EpochsPerCycle <= 0 {
		return state, fmt.Errorf("invalid scheduler state: epochs_per_cycle must be positive")
	}

	return state, nil
}
