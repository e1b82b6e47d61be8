package trainer

import (
	"context"
	"sync"
)

// FeatureExtractor turns a segment into a fixed-shape feature tensor
// (frames x coefficients). Implementations must be deterministic for a
// given segment and safe for concurrent use by multiple workers.
type FeatureExtractor interface {
	Extract(seg Segment) ([][]float64, error)
}

// Augmenter applies augmentation to a feature tensor without changing its
// shape or label semantics. Must be safe for concurrent use.
type Augmenter interface {
	Apply(frames [][]float64) [][]float64
}

// Prepared is a fully prepared training step: the batch plus one feature
// tensor per segment. EpochComplete marks the last batch of an epoch.
type Prepared struct {
	Batch         *Batch
	Features      [][][]float64
	EpochComplete bool
	Err           error
}

// BatchSource produces batches in step order, reporting epoch boundaries
type BatchSource func() (*Batch, bool, error)

// Pipeline prepares batches concurrently while keeping delivery in step
// order. Workers may finish out of order, but results are re-serialized
// through a bounded queue of per-step channels: the producer blocks once
// the queue is full, so a fast worker pool cannot outrun the training step
// without bound.
type Pipeline struct {
	extractor FeatureExtractor
	augmenter Augmenter
	workers   int
	depth     int
}

// NewPipeline creates a batch-preparation pipeline with the given worker
// count and queue depth
func NewPipeline(extractor FeatureExtractor, augmenter Augmenter, workers, depth int) *Pipeline {
	if workers <= 0 {
		workers = 1
	}
	if depth <= 0 {
		depth = 2 * workers
	}
	return &Pipeline{
		extractor: extractor,
		augmenter: augmenter,
		workers:   workers,
		depth:     depth,
	}
}

type prepJob struct {
	batch         *Batch
	epochComplete bool
	out           chan Prepared
}

// Run starts the workers and returns the ordered stream of prepared
// batches. The stream ends when ctx is canceled or the source fails; a
// source failure is delivered as the final Prepared with Err set.
func (p *Pipeline) Run(ctx context.Context, source BatchSource) <-chan Prepared {
	ordered := make(chan chan Prepared, p.depth)
	jobs := make(chan prepJob)
	out := make(chan Prepared)

	// Producer: draws batches in step order and reserves an output slot
	// for each before handing it to the pool.
	go func() {
		defer close(ordered)
		defer close(jobs)
		for {
			batch, epochComplete, err := source()
			slot := make(chan Prepared, 1)
			if err != nil {
				slot <- Prepared{Err: err}
				select {
				case ordered <- slot:
				case <-ctx.Done():
				}
				return
			}

			select {
			case ordered <- slot:
			case <-ctx.Done():
				return
			}
			select {
			case jobs <- prepJob{batch: batch, epochComplete: epochComplete, out: slot}:
			case <-ctx.Done():
				slot <- Prepared{Err: ctx.Err()}
				return
			}
		}
	}()

	var wg sync.WaitGroup
	for w := 0; w < p.workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range jobs {
				job.out <- p.prepare(job)
			}
		}()
	}

	// Consumer side: drain slots in reservation order.
	go func() {
		defer close(out)
		for slot := range ordered {
			prepared := <-slot
			select {
			case out <- prepared:
			case <-ctx.Done():
				// Keep draining so the producer and workers can exit.
			}
		}
		wg.Wait()
	}()

	return out
}

// prepare extracts and augments features for every segment of a batch
func (p *Pipeline) prepare(job prepJob) Prepared {
	features := make([][][]float64, len(job.batch.Segments))
	for i, seg := range job.batch.Segments {
		frames, err := p.extractor.Extract(seg)
		if err != nil {
			return Prepared{Batch: job.batch, EpochComplete: job.epochComplete, Err: err}
		}
		if p.augmenter != nil {
			frames = p.augmenter.Apply(frames)
		}
		features[i] = frames
	}
	return Prepared{Batch: job.batch, Features: features, EpochComplete: job.epochComplete}
}
