package trainer

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RyanBlaney/vocembed/algorithms/stats"
)

func TestPairwiseDistancesContract(t *testing.T) {
	embeddings := [][]float64{
		{1.0, 0.0},
		{0.0, 1.0},
		{-1.0, 0.0},
	}

	distances, err := PairwiseDistances(embeddings, stats.CosineDistance)
	require.NoError(t, err)

	for i := range distances {
		assert.InDelta(t, 0.0, distances[i][i], 1e-12)
		for j := range distances {
			assert.InDelta(t, distances[i][j], distances[j][i], 1e-12)
		}
	}
	assert.InDelta(t, 2.0, distances[0][2], 1e-12)
}

func TestPairwiseDistancesRejectsRaggedMatrix(t *testing.T) {
	_, err := PairwiseDistances([][]float64{{1, 2}, {1}}, stats.CosineDistance)
	assert.Error(t, err)
}

func TestPairwiseDistancesRejectsEmptyMatrix(t *testing.T) {
	_, err := PairwiseDistances(nil, stats.CosineDistance)
	assert.Error(t, err)
}

func TestPairwiseDistancesReportsNonFinite(t *testing.T) {
	_, err := PairwiseDistances([][]float64{{math.NaN(), 1}, {1, 0}}, stats.EuclideanDistance)

	var numeric *NumericInstabilityError
	require.Error(t, err)
	assert.True(t, errors.As(err, &numeric))
}
