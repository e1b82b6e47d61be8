package trainer

import (
	"math"

	"github.com/RyanBlaney/vocembed/logging"
)

// SchedulerState is the persistable state of the cyclic learning-rate
// scheduler. It is owned by the outer training loop and mutated only at
// epoch-complete transitions. Restoring a saved state reproduces the exact
// learning-rate sequence that would have occurred without interruption.
type SchedulerState struct {
	CurrentEpoch   int     `yaml:"current_epoch" json:"current_epoch"`
	EpochsPerCycle int     `yaml:"epochs_per_cycle" json:"epochs_per_cycle"`
	CyclePosition  int     `yaml:"cycle_position" json:"cycle_position"`
	BaseLR         float64 `yaml:"base_lr" json:"base_lr"`
}

// CurvePolicy maps a cycle-relative position to a learning rate. The curve
// shape is pluggable; the scheduler only mandates the reset at cycle
// boundaries.
type CurvePolicy interface {
	Rate(position, epochsPerCycle int, baseLR float64) float64
}

// TriangularCurve starts each cycle at BaseLR and decays linearly to
// BaseLR * MinFactor at the last epoch of the cycle
type TriangularCurve struct {
	MinFactor float64 // Fraction of BaseLR at the cycle trough (default: 0.1)
}

func (c TriangularCurve) Rate(position, epochsPerCycle int, baseLR float64) float64 {
	minFactor := c.MinFactor
	if minFactor <= 0 {
		minFactor = 0.1
	}
	if epochsPerCycle <= 1 {
		return baseLR
	}
	fraction := float64(position) / float64(epochsPerCycle-1)
	return baseLR * (1.0 - (1.0-minFactor)*fraction)
}

// CosineCurve anneals from BaseLR to BaseLR * MinFactor along a half cosine
// within each cycle
type CosineCurve struct {
	MinFactor float64
}

func (c CosineCurve) Rate(position, epochsPerCycle int, baseLR float64) float64 {
	minFactor := c.MinFactor
	if minFactor <= 0 {
		minFactor = 0.1
	}
	if epochsPerCycle <= 1 {
		return baseLR
	}
	fraction := float64(position) / float64(epochsPerCycle-1)
	return baseLR * (minFactor + (1.0-minFactor)*0.5*(1.0+math.Cos(math.Pi*fraction)))
}

// CurveForName maps a configuration string to a curve policy
func CurveForName(name string) CurvePolicy {
	switch name {
	case "cosine":
		return CosineCurve{}
	default:
		return TriangularCurve{}
	}
}

// CyclicScheduler modulates the learning rate in repeating cycles aligned
// to epoch boundaries. The rate is a pure function of the cycle position
// and base rate; the scheduler has no terminal state and runs until the
// training loop stops it.
type CyclicScheduler struct {
	state  SchedulerState
	curve  CurvePolicy
	logger logging.Logger
}

// NewCyclicScheduler creates a scheduler at epoch 0
func NewCyclicScheduler(baseLR float64, epochsPerCycle int, curve CurvePolicy) *CyclicScheduler {
	return ResumeCyclicScheduler(SchedulerState{
		EpochsPerCycle: epochsPerCycle,
		BaseLR:         baseLR,
	}, curve)
}

// ResumeCyclicScheduler restores a scheduler from persisted state,
// continuing the learning-rate trajectory exactly where it left off
func ResumeCyclicScheduler(state SchedulerState, curve CurvePolicy) *CyclicScheduler {
	if state.EpochsPerCycle <= 0 {
		state.EpochsPerCycle = 1
	}
	if curve == nil {
		curve = TriangularCurve{}
	}
	state.CyclePosition = state.CurrentEpoch % state.EpochsPerCycle

	return &CyclicScheduler{
		state:  state,
		curve:  curve,
		logger: logging.WithFields(logging.Fields{"component": "cyclic_scheduler"}),
	}
}

// LearningRate returns the rate for the current cycle position
func (s *CyclicScheduler) LearningRate() float64 {
	return s.curve.Rate(s.state.CyclePosition, s.state.EpochsPerCycle, s.state.BaseLR)
}

// EpochComplete advances the scheduler one epoch and returns the new rate.
// At position 0 the cycle-relative curve restarts.
func (s *CyclicScheduler) EpochComplete() float64 {
	s.state.CurrentEpoch++
	s.state.CyclePosition = s.state.CurrentEpoch % s.state.EpochsPerCycle

	rate := s.LearningRate()
	if s.state.CyclePosition == 0 {
		s.logger.Info("cycle boundary reached, restarting learning-rate curve", logging.Fields{
			"epoch": s.state.CurrentEpoch,
			"rate":  rate,
		})
	}
	return rate
}

// State returns a copy of the current scheduler state for checkpointing
func (s *CyclicScheduler) State() SchedulerState {
	return s.state
}
