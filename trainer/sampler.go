package trainer

import (
	"fmt"
	"math/rand"

	"github.com/RyanBlaney/vocembed/logging"
)

// SamplingMode selects how labels are drawn for each batch
type SamplingMode string

const (
	// SamplingAll cycles through every eligible label exactly once per epoch
	SamplingAll SamplingMode = "all"
	// SamplingRandom draws a random label subset for every batch
	SamplingRandom SamplingMode = "random"
)

// SamplerParams contains the label-balanced sampling policy
type SamplerParams struct {
	PerLabel int          `yaml:"per_label" json:"per_label"` // Segments drawn per selected label (default: 3)
	PerFold  int          `yaml:"per_fold" json:"per_fold"`   // Labels sampled per batch (default: 20)
	Mode     SamplingMode `yaml:"sampling" json:"sampling"`   // "all" or "random" (default: all)
	Seed     int64        `yaml:"seed" json:"seed"`
}

// DefaultSamplerParams returns the standard sampling policy
func DefaultSamplerParams() SamplerParams {
	return SamplerParams{
		PerLabel: 3,
		PerFold:  20,
		Mode:     SamplingAll,
		Seed:     42,
	}
}

// Batch is an ordered sequence of segments with an associated label vector.
// Segments are grouped by label contiguously so downstream mining can rely
// on label adjacency. Every label present has at least 2 segments.
type Batch struct {
	Segments []Segment
	Labels   []string
}

// Size returns the number of segments in the batch
func (b *Batch) Size() int {
	return len(b.Segments)
}

// BatchSampler draws label-balanced mini-batches for metric learning.
// Under SamplingAll the eligible labels are partitioned into folds of
// PerFold labels covering the whole set once per epoch, reshuffled between
// epochs. NextBatch reports when an epoch's folds are exhausted so the
// outer loop can drive the learning-rate schedule.
type BatchSampler struct {
	index  *SegmentIndex
	params SamplerParams
	rng    *rand.Rand
	logger logging.Logger

	folds  [][]string
	cursor int
}

// NewBatchSampler validates the index against the sampling policy and plans
// the first epoch
func NewBatchSampler(index *SegmentIndex, params SamplerParams) (*BatchSampler, error) {
	if params.PerLabel <= 0 {
		params.PerLabel = 3
	}
	if params.PerFold <= 0 {
		params.PerFold = 20
	}
	if params.Mode == "" {
		params.Mode = SamplingAll
	}
	if params.Mode != SamplingAll && params.Mode != SamplingRandom {
		return nil, fmt.Errorf("unsupported sampling mode: %s", params.Mode)
	}

	eligible := index.EligibleLabels()
	if len(eligible) == 0 {
		return nil, &InsufficientDataError{
			Reason: fmt.Sprintf("no label meets the %.0fs cumulative duration requirement", index.Params().LabelMinDuration),
		}
	}
	if len(eligible) < 2 {
		return nil, &InsufficientDataError{
			Reason: fmt.Sprintf("need at least 2 eligible labels for triplet mining, have %d", len(eligible)),
		}
	}

	s := &BatchSampler{
		index:  index,
		params: params,
		rng:    rand.New(rand.NewSource(params.Seed)),
		logger: logging.WithFields(logging.Fields{"component": "batch_sampler"}),
	}
	s.planEpoch()

	return s, nil
}

// planEpoch shuffles eligible labels and partitions them into folds.
// A remainder fold smaller than PerFold is padded with other labels from
// the same shuffle so every batch keeps at least 2 distinct labels.
func (s *BatchSampler) planEpoch() {
	labels := s.index.EligibleLabels()
	s.rng.Shuffle(len(labels), func(i, j int) {
		labels[i], labels[j] = labels[j], labels[i]
	})

	perFold := min(s.params.PerFold, len(labels))

	s.folds = s.folds[:0]
	for start := 0; start < len(labels); start += perFold {
		end := min(start+perFold, len(labels))
		fold := make([]string, end-start)
		copy(fold, labels[start:end])

		for i := 0; len(fold) < perFold; i++ {
			candidate := labels[i%start]
			fold = append(fold, candidate)
		}
		s.folds = append(s.folds, fold)
	}
	s.cursor = 0
}

// NextBatch returns the next mini-batch. The second return value is true
// when this batch is the last one of the current epoch; the sampler then
// reshuffles and starts the next epoch on the following call.
func (s *BatchSampler) NextBatch() (*Batch, bool, error) {
	var fold []string
	switch s.params.Mode {
	case SamplingRandom:
		fold = s.randomFold()
	default:
		fold = s.folds[s.cursor]
	}

	batch := &Batch{
		Segments: make([]Segment, 0, len(fold)*s.params.PerLabel),
		Labels:   make([]string, 0, len(fold)*s.params.PerLabel),
	}
	for _, label := range fold {
		for _, seg := range s.drawSegments(label) {
			batch.Segments = append(batch.Segments, seg)
			batch.Labels = append(batch.Labels, label)
		}
	}

	s.cursor++
	epochComplete := s.cursor >= len(s.folds)
	if epochComplete {
		s.planEpoch()
	}

	return batch, epochComplete, nil
}

// FoldsPerEpoch returns how many batches make up one epoch
func (s *BatchSampler) FoldsPerEpoch() int {
	return len(s.folds)
}

// randomFold draws PerFold distinct labels uniformly
func (s *BatchSampler) randomFold() []string {
	labels := s.index.EligibleLabels()
	perFold := min(s.params.PerFold, len(labels))

	perm := s.rng.Perm(len(labels))
	fold := make([]string, perFold)
	for i := 0; i < perFold; i++ {
		fold[i] = labels[perm[i]]
	}
	return fold
}

// drawSegments samples PerLabel segments for one label, without replacement
// when enough segments exist. Labels with fewer than PerLabel segments fall
// back to sampling with replacement; that is the documented policy for
// sparse labels, not a failure.
func (s *BatchSampler) drawSegments(label string) []Segment {
	pool := s.index.Segments(label)
	drawn := make([]Segment, s.params.PerLabel)

	if len(pool) >= s.params.PerLabel {
		perm := s.rng.Perm(len(pool))
		for i := 0; i < s.params.PerLabel; i++ {
			drawn[i] = pool[perm[i]]
		}
		return drawn
	}

	s.logger.Debug("label has fewer segments than per_label, sampling with replacement", logging.Fields{
		"label":     label,
		"segments":  len(pool),
		"per_label": s.params.PerLabel,
	})
	for i := 0; i < s.params.PerLabel; i++ {
		drawn[i] = pool[s.rng.Intn(len(pool))]
	}
	return drawn
}
