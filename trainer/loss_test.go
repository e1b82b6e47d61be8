package trainer

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// distanceMatrixFor builds a symmetric matrix where same-label pairs are
// `pos` apart and different-label pairs are `neg` apart
func distanceMatrixFor(labels []string, pos, neg float64) [][]float64 {
	n := len(labels)
	matrix := make([][]float64, n)
	for i := 0; i < n; i++ {
		matrix[i] = make([]float64, n)
		for j := 0; j < n; j++ {
			if i == j {
				continue
			}
			if labels[i] == labels[j] {
				matrix[i][j] = pos
			} else {
				matrix[i][j] = neg
			}
		}
	}
	return matrix
}

func TestSigmoidLossWellSeparatedBeatsOverlapping(t *testing.T) {
	labels := []string{"a", "a", "b", "b"}
	loss := NewTripletLoss(LossParams{Margin: 0.2, Clamp: SigmoidClamp})

	// Negatives much farther than positives, beyond the margin
	separated, _, err := loss.Compute(distanceMatrixFor(labels, 0.1, 1.8), labels)
	require.NoError(t, err)

	// Negatives roughly as close as positives
	overlapping, _, err := loss.Compute(distanceMatrixFor(labels, 0.5, 0.5), labels)
	require.NoError(t, err)

	assert.Less(t, separated, overlapping)
}

func TestSigmoidLossIsBounded(t *testing.T) {
	labels := []string{"a", "a", "b", "b", "c", "c"}
	loss := NewTripletLoss(LossParams{Margin: 0.2, Clamp: SigmoidClamp})

	value, stats, err := loss.Compute(distanceMatrixFor(labels, 0.4, 0.6), labels)
	require.NoError(t, err)

	assert.Greater(t, value, 0.0)
	assert.Less(t, value, 1.0)
	assert.Positive(t, stats.Triples)
}

func TestHingeLossZeroWhenSatisfied(t *testing.T) {
	labels := []string{"a", "a", "b", "b"}
	loss := NewTripletLoss(LossParams{Margin: 0.2, Clamp: HingeClamp})

	value, _, err := loss.Compute(distanceMatrixFor(labels, 0.1, 1.8), labels)
	require.NoError(t, err)

	assert.Zero(t, value)
}

func TestExhaustiveMiningCountsAllTriples(t *testing.T) {
	// 2 labels x 2 segments: per anchor 1 positive and 2 negatives,
	// 4 anchors -> 8 triples.
	labels := []string{"a", "a", "b", "b"}
	loss := NewTripletLoss(LossParams{Margin: 0.0, Clamp: SigmoidClamp})

	_, stats, err := loss.Compute(distanceMatrixFor(labels, 0.2, 0.8), labels)
	require.NoError(t, err)

	assert.Equal(t, 8, stats.Triples)
	assert.InDelta(t, 0.2, stats.MeanPositive, 1e-9)
	assert.InDelta(t, 0.8, stats.MeanNegative, 1e-9)
}

func TestSingleLabelBatchIsFatal(t *testing.T) {
	labels := []string{"a", "a", "a"}
	loss := NewTripletLoss(LossParams{Margin: 0.2})

	_, _, err := loss.Compute(distanceMatrixFor(labels, 0.1, 0.9), labels)

	var noTriplets *NoValidTripletsError
	require.Error(t, err)
	assert.True(t, errors.As(err, &noTriplets))
}

func TestLabelWithoutPositivePairIsFatal(t *testing.T) {
	labels := []string{"a", "a", "b"}
	loss := NewTripletLoss(LossParams{Margin: 0.2})

	_, _, err := loss.Compute(distanceMatrixFor(labels, 0.1, 0.9), labels)

	var noTriplets *NoValidTripletsError
	require.Error(t, err)
	assert.True(t, errors.As(err, &noTriplets))
}

func TestMatrixLabelSizeMismatch(t *testing.T) {
	loss := NewTripletLoss(LossParams{})
	_, _, err := loss.Compute(make([][]float64, 2), []string{"a", "a", "b"})
	assert.Error(t, err)
}
