package trainer

import (
	"fmt"

	"github.com/RyanBlaney/vocembed/algorithms/stats"
)

// PairwiseDistances computes the pairwise distance matrix over the rows of
// an embedding matrix. The matrix is symmetric with a zero diagonal; cosine
// distances fall in [0, 2] because rows are re-normalized inside the metric
// even when an instance-normalization stage already ran upstream. Inputs are
// never mutated.
func PairwiseDistances(embeddings [][]float64, metric stats.DistanceMetric) ([][]float64, error) {
	if len(embeddings) == 0 {
		return nil, fmt.Errorf("empty embedding matrix")
	}

	dim := len(embeddings[0])
	for i, row := range embeddings {
		if len(row) != dim {
			return nil, fmt.Errorf("ragged embedding matrix: row %d has %d columns, expected %d", i, len(row), dim)
		}
	}

	distances := stats.PairwiseDistances(embeddings, metric)
	if !stats.IsFiniteMatrix(distances) {
		return nil, &NumericInstabilityError{Stage: "pairwise distances"}
	}

	return distances, nil
}
