package trainer

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResumeMatchesUninterruptedRun(t *testing.T) {
	// Running 14 epochs from scratch and resuming at epoch 13 must agree
	// on the cycle boundary and on every subsequent rate.
	fresh := NewCyclicScheduler(0.01, 14, TriangularCurve{})
	for it := 0; it < 14; it++ {
		fresh.EpochComplete()
	}

	resumed := ResumeCyclicScheduler(SchedulerState{
		CurrentEpoch:   13,
		EpochsPerCycle: 14,
		BaseLR:         0.01,
	}, TriangularCurve{})
	resumed.EpochComplete()

	assert.Equal(t, 0, resumed.State().CyclePosition, "epoch 14 must land on a cycle boundary")
	assert.Equal(t, fresh.State().CyclePosition, resumed.State().CyclePosition)
	assert.InDelta(t, fresh.LearningRate(), resumed.LearningRate(), 1e-12)

	for it := 0; it < 5; it++ {
		assert.InDelta(t, fresh.EpochComplete(), resumed.EpochComplete(), 1e-12)
	}
}

func TestRateSequenceRepeatsEveryCycle(t *testing.T) {
	s := NewCyclicScheduler(0.1, 4, TriangularCurve{})

	var rates []float64
	for it := 0; it < 12; it++ {
		rates = append(rates, s.LearningRate())
		s.EpochComplete()
	}

	for i := 0; i < 8; i++ {
		assert.InDelta(t, rates[i], rates[i+4], 1e-12, "rate at epoch %d differs from one cycle later", i)
	}
}

func TestTriangularCurveShape(t *testing.T) {
	curve := TriangularCurve{MinFactor: 0.1}

	assert.InDelta(t, 0.01, curve.Rate(0, 10, 0.01), 1e-12, "cycle starts at the base rate")
	assert.InDelta(t, 0.001, curve.Rate(9, 10, 0.01), 1e-12, "cycle ends at the trough")

	for pos := 1; pos < 10; pos++ {
		assert.Less(t, curve.Rate(pos, 10, 0.01), curve.Rate(pos-1, 10, 0.01))
	}
}

func TestCosineCurveEndpoints(t *testing.T) {
	curve := CosineCurve{MinFactor: 0.1}

	assert.InDelta(t, 0.01, curve.Rate(0, 10, 0.01), 1e-12)
	assert.InDelta(t, 0.001, curve.Rate(9, 10, 0.01), 1e-12)
}

func TestSingleEpochCycleIsConstant(t *testing.T) {
	s := NewCyclicScheduler(0.05, 1, TriangularCurve{})
	for it := 0; it < 3; it++ {
		assert.InDelta(t, 0.05, s.LearningRate(), 1e-12)
		s.EpochComplete()
	}
}

func TestSchedulerStateRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scheduler.yml")
	state := SchedulerState{
		CurrentEpoch:   27,
		EpochsPerCycle: 14,
		CyclePosition:  13,
		BaseLR:         0.01,
	}

	require.NoError(t, SaveSchedulerState(path, state))

	loaded, err := LoadSchedulerState(path)
	require.NoError(t, err)
	assert.Equal(t, state, loaded)
}

func TestLoadSchedulerStateRejectsInvalidCycle(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scheduler.yml")
	require.NoError(t, SaveSchedulerState(path, SchedulerState{CurrentEpoch: 3}))

	_, err := LoadSchedulerState(path)
	assert.Error(t, err)
}
