package stats

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCosineDistanceRange(t *testing.T) {
	a := []float64{1, 0, 0}
	b := []float64{-1, 0, 0}
	c := []float64{0, 1, 0}

	assert.InDelta(t, 0.0, CosineDistanceFunc(a, a), 1e-12)
	assert.InDelta(t, 2.0, CosineDistanceFunc(a, b), 1e-12)
	assert.InDelta(t, 1.0, CosineDistanceFunc(a, c), 1e-12)
}

func TestCosineDistanceIgnoresScale(t *testing.T) {
	a := []float64{0.3, -1.2, 0.7}
	scaled := []float64{3.0, -12.0, 7.0}

	// Defensive re-normalization makes the metric scale invariant
	assert.InDelta(t, 0.0, CosineDistanceFunc(a, scaled), 1e-12)
}

func TestCosineDistanceZeroVector(t *testing.T) {
	assert.Equal(t, 1.0, CosineDistanceFunc([]float64{0, 0}, []float64{1, 2}))
}

func TestPairwiseDistancesSymmetricZeroDiagonal(t *testing.T) {
	rows := [][]float64{
		{1.0, 0.2, -0.5},
		{0.1, 0.9, 0.3},
		{-0.7, 0.4, 0.8},
		{0.2, 0.2, 0.2},
	}

	for _, metric := range []DistanceMetric{CosineDistance, EuclideanDistance} {
		matrix := PairwiseDistances(rows, metric)
		require.Len(t, matrix, len(rows))

		for i := range matrix {
			assert.InDelta(t, 0.0, matrix[i][i], 1e-12)
			for j := range matrix {
				assert.InDelta(t, matrix[i][j], matrix[j][i], 1e-12)
				if metric == CosineDistance {
					assert.GreaterOrEqual(t, matrix[i][j], 0.0)
					assert.LessOrEqual(t, matrix[i][j], 2.0)
				}
			}
		}
	}
}

func TestPairwiseDistancesDoesNotMutateInput(t *testing.T) {
	rows := [][]float64{{3.0, 4.0}, {1.0, 0.0}}
	PairwiseDistances(rows, CosineDistance)

	assert.Equal(t, [][]float64{{3.0, 4.0}, {1.0, 0.0}}, rows)
}

func TestL2Normalize(t *testing.T) {
	v := L2Normalize([]float64{3.0, 4.0})
	assert.InDelta(t, 0.6, v[0], 1e-12)
	assert.InDelta(t, 0.8, v[1], 1e-12)

	zero := L2Normalize([]float64{0, 0})
	assert.Equal(t, []float64{0, 0}, zero)
}

func TestIsFiniteMatrix(t *testing.T) {
	assert.True(t, IsFiniteMatrix([][]float64{{0, 1}, {1, 0}}))
	assert.False(t, IsFiniteMatrix([][]float64{{0, math.NaN()}}))
	assert.False(t, IsFiniteMatrix([][]float64{{math.Inf(1)}}))
}

func TestParseDistanceMetric(t *testing.T) {
	m, ok := ParseDistanceMetric("cosine")
	assert.True(t, ok)
	assert.Equal(t, CosineDistance, m)

	_, ok = ParseDistanceMetric("mahalanobis")
	assert.False(t, ok)
}
