package trainer

import (
	"fmt"
	"math"
)

// ClampKind converts a raw margin violation into a bounded loss contribution
type ClampKind int

const (
	// SigmoidClamp maps the margin term through a sigmoid. Unlike the hinge
	// there is no dead zone: already-satisfied triples keep a small nonzero
	// gradient, trading exact zero loss for smoother optimization. This is
	// the non-default choice relative to most triplet-loss setups and is
	// used deliberately here.
	SigmoidClamp ClampKind = iota
	// HingeClamp is the conventional max(0, margin term)
	HingeClamp
)

func (c ClampKind) String() string {
	switch c {
	case SigmoidClamp:
		return "sigmoid"
	case HingeClamp:
		return "hinge"
	default:
		return "unknown"
	}
}

// ParseClampKind maps a configuration string to a ClampKind
func ParseClampKind(name string) (ClampKind, bool) {
	switch name {
	case "sigmoid", "":
		return SigmoidClamp, true
	case "hinge":
		return HingeClamp, true
	default:
		return SigmoidClamp, false
	}
}

// LossParams contains triplet loss parameters
type LossParams struct {
	Margin float64   `yaml:"margin" json:"margin"` // Added to d(a,p) - d(a,n) per triple (default: 0.2)
	Clamp  ClampKind `yaml:"-" json:"-"`
}

// LossStats reports mining statistics for one batch, for observability
type LossStats struct {
	Triples      int     `json:"triples"`
	MeanDistance float64 `json:"mean_distance"`
	MeanPositive float64 `json:"mean_positive"`
	MeanNegative float64 `json:"mean_negative"`
}

// TripletLoss turns a distance matrix and label vector into a scalar loss.
// Mining is exhaustive: every valid (anchor, positive, negative) triple in
// the batch contributes, rather than only hardest or random singles. With a
// small number of labels per fold this trades compute for gradient
// stability.
type TripletLoss struct {
	params LossParams
}

// NewTripletLoss creates a loss engine with the given parameters
func NewTripletLoss(params LossParams) *TripletLoss {
	return &TripletLoss{params: params}
}

// Compute mines all valid triples from the batch's distance matrix and
// returns the mean clamped margin term. The result is finite and
// non-negative: each sigmoid contribution is bounded in (0, 1) and the mean
// preserves the bound.
func (l *TripletLoss) Compute(distances [][]float64, labels []string) (float64, *LossStats, error) {
	n := len(labels)
	if n == 0 || len(distances) != n {
		return 0, nil, fmt.Errorf("distance matrix size %d does not match %d labels", len(distances), n)
	}

	counts := make(map[string]int, n)
	for _, label := range labels {
		counts[label]++
	}
	if len(counts) < 2 {
		return 0, nil, &NoValidTripletsError{
			Reason: fmt.Sprintf("batch has %d distinct label(s), need at least 2", len(counts)),
		}
	}
	for label, count := range counts {
		if count < 2 {
			return 0, nil, &NoValidTripletsError{
				Reason: fmt.Sprintf("label %q has no positive pair", label),
			}
		}
	}

	stats := &LossStats{}
	total := 0.0
	posSum, posCount := 0.0, 0
	negSum, negCount := 0.0, 0

	for a := 0; a < n; a++ {
		for p := 0; p < n; p++ {
			if p == a || labels[p] != labels[a] {
				continue
			}
			posSum += distances[a][p]
			posCount++
			for neg := 0; neg < n; neg++ {
				if labels[neg] == labels[a] {
					continue
				}
				raw := distances[a][p] - distances[a][neg] + l.params.Margin
				total += l.clamp(raw)
				stats.Triples++
			}
		}
		for neg := 0; neg < n; neg++ {
			if labels[neg] != labels[a] {
				negSum += distances[a][neg]
				negCount++
			}
		}
	}

	loss := total / float64(stats.Triples)
	if math.IsNaN(loss) || math.IsInf(loss, 0) {
		return 0, nil, &NumericInstabilityError{Stage: "triplet loss"}
	}

	stats.MeanPositive = posSum / float64(posCount)
	stats.MeanNegative = negSum / float64(negCount)
	stats.MeanDistance = (posSum + negSum) / float64(posCount+negCount)

	return loss, stats, nil
}

func (l *TripletLoss) clamp(raw float64) float64 {
	switch l.params.Clamp {
	case HingeClamp:
		return math.Max(0, raw)
	default:
		return 1.0 / (1.0 + math.Exp(-raw))
	}
}
