package augment

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testFrames() [][]float64 {
	return [][]float64{
		{1.0, -0.5, 0.3},
		{0.8, 0.2, -0.9},
		{-0.4, 0.6, 0.1},
	}
}

func TestApplyPreservesShape(t *testing.T) {
	aug := NewNoiseAugmenter(5, 20, 1)
	frames := testFrames()

	out := aug.Apply(frames)

	require.Len(t, out, len(frames))
	for i := range out {
		assert.Len(t, out[i], len(frames[i]))
	}
}

func TestApplyDoesNotMutateInput(t *testing.T) {
	aug := NewNoiseAugmenter(5, 20, 1)
	frames := testFrames()

	aug.Apply(frames)

	assert.Equal(t, testFrames(), frames)
}

func TestApplyAddsNoise(t *testing.T) {
	aug := NewNoiseAugmenter(0, 0, 1) // 0 dB SNR, noise as loud as signal
	frames := testFrames()

	out := aug.Apply(frames)

	changed := false
	for i := range out {
		for j := range out[i] {
			if out[i][j] != frames[i][j] {
				changed = true
			}
		}
	}
	assert.True(t, changed)
}

func TestApplyDeterministicForSeed(t *testing.T) {
	first := NewNoiseAugmenter(5, 20, 7).Apply(testFrames())
	second := NewNoiseAugmenter(5, 20, 7).Apply(testFrames())

	assert.Equal(t, first, second)
}

func TestSwappedSNRBoundsAreReordered(t *testing.T) {
	aug := NewNoiseAugmenter(20, 5, 1)
	assert.Equal(t, 5.0, aug.snrMin)
	assert.Equal(t, 20.0, aug.snrMax)
}

func TestEmptyInput(t *testing.T) {
	aug := NewNoiseAugmenter(5, 20, 1)
	assert.Empty(t, aug.Apply(nil))
}
