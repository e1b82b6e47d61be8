package stats

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// DistanceMetric represents different distance measures between embeddings
type DistanceMetric int

const (
	CosineDistance DistanceMetric = iota
	EuclideanDistance
	AngularDistance
)

// GetDistanceMetricName returns human-readable name for distance metric
func GetDistanceMetricName(metric DistanceMetric) string {
	switch metric {
	case CosineDistance:
		return "Cosine"
	case EuclideanDistance:
		return "Euclidean"
	case AngularDistance:
		return "Angular"
	default:
		return "Unknown"
	}
}

// ParseDistanceMetric maps a configuration string to a DistanceMetric
func ParseDistanceMetric(name string) (DistanceMetric, bool) {
	switch name {
	case "cosine", "":
		return CosineDistance, true
	case "euclidean":
		return EuclideanDistance, true
	case "angular":
		return AngularDistance, true
	default:
		return CosineDistance, false
	}
}

// DistanceFunction is a function type for computing distance between two vectors
type DistanceFunction func(a, b []float64) float64

// GetDistanceFunction returns the appropriate distance function for the given metric
func GetDistanceFunction(metric DistanceMetric) DistanceFunction {
	switch metric {
	case CosineDistance:
		return CosineDistanceFunc
	case EuclideanDistance:
		return EuclideanDistanceFunc
	case AngularDistance:
		return AngularDistanceFunc
	default:
		return CosineDistanceFunc
	}
}

// L2Normalize returns a unit-norm copy of the input vector.
// Zero vectors are returned as a zero copy rather than dividing by zero.
func L2Normalize(v []float64) []float64 {
	out := make([]float64, len(v))
	norm := floats.Norm(v, 2)
	if norm == 0 {
		return out
	}
	for i, x := range v {
		out[i] = x / norm
	}
	return out
}

// CosineDistanceFunc calculates cosine distance (1 - cosine similarity).
// Inputs are re-normalized here even when an earlier normalization stage
// already ran, so the result stays in [0, 2] regardless of embedding scale.
func CosineDistanceFunc(a, b []float64) float64 {
	normA := floats.Norm(a, 2)
	normB := floats.Norm(b, 2)
	if normA == 0 || normB == 0 {
		return 1.0
	}

	similarity := floats.Dot(a, b) / (normA * normB)

	// Clip rounding drift outside [-1, 1]
	if similarity > 1.0 {
		similarity = 1.0
	} else if similarity < -1.0 {
		similarity = -1.0
	}

	return 1.0 - similarity
}

// CosineSimilarityFunc calculates cosine similarity between two vectors
func CosineSimilarityFunc(a, b []float64) float64 {
	return 1.0 - CosineDistanceFunc(a, b)
}

// EuclideanDistanceFunc calculates Euclidean distance between two points
func EuclideanDistanceFunc(a, b []float64) float64 {
	sum := 0.0
	for i := range a {
		diff := a[i] - b[i]
		sum += diff * diff
	}
	return math.Sqrt(sum)
}

// AngularDistanceFunc calculates the angle between two vectors in radians
func AngularDistanceFunc(a, b []float64) float64 {
	return math.Acos(1.0 - CosineDistanceFunc(a, b))
}

// PairwiseDistances computes the full pairwise distance matrix between rows.
// The result is symmetric with a zero diagonal; inputs are not mutated.
func PairwiseDistances(rows [][]float64, metric DistanceMetric) [][]float64 {
	n := len(rows)
	matrix := make([][]float64, n)
	distFunc := GetDistanceFunction(metric)

	for i := 0; i < n; i++ {
		matrix[i] = make([]float64, n)
	}
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			d := distFunc(rows[i], rows[j])
			matrix[i][j] = d
			matrix[j][i] = d
		}
	}

	return matrix
}

// IsFiniteMatrix reports whether every entry of the matrix is finite
func IsFiniteMatrix(matrix [][]float64) bool {
	for _, row := range matrix {
		for _, v := range row {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return false
			}
		}
	}
	return true
}
