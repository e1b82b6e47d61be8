package trainer

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/RyanBlaney/vocembed/algorithms/stats"
	"github.com/RyanBlaney/vocembed/logging"
)

// Embedder maps a batch of feature tensors to one embedding row per input,
// with a fixed embedding dimensionality across calls
type Embedder interface {
	Embed(features [][][]float64) ([][]float64, error)
}

// Optimizer is the parameter-update collaborator. SetLearningRate is called
// once per epoch boundary, Step once per training step.
type Optimizer interface {
	SetLearningRate(rate float64)
	Step(loss float64) error
}

// Params configures the outer training loop
type Params struct {
	Epochs        int                  // Epoch budget (default: 1000)
	Parallel      int                  // Batch-preparation workers (default: 4)
	QueueDepth    int                  // Bounded prepared-batch queue (default: 2 * Parallel)
	Metric        stats.DistanceMetric // Distance metric over embeddings
	Loss          LossParams
	CheckpointDir string // When set, scheduler state is persisted per epoch
}

// Trainer drives the metric-learning loop: label-balanced sampling,
// concurrent batch preparation, embedding, exhaustive triplet mining and
// the cyclic learning-rate schedule. Gradient steps are strictly
// sequential; only batch preparation runs concurrently.
type Trainer struct {
	sampler   *BatchSampler
	pipeline  *Pipeline
	embedder  Embedder
	optimizer Optimizer
	scheduler *CyclicScheduler
	loss      *TripletLoss
	params    Params
	logger    logging.Logger
	runID     string
}

// NewTrainer wires the training loop. The sampler, embedder, optimizer and
// scheduler are required; the augmenter may be nil to train on clean
// features.
func NewTrainer(
	sampler *BatchSampler,
	extractor FeatureExtractor,
	augmenter Augmenter,
	embedder Embedder,
	optimizer Optimizer,
	scheduler *CyclicScheduler,
	params Params,
) (*Trainer, error) {
	if sampler == nil || extractor == nil || embedder == nil || optimizer == nil || scheduler == nil {
		return nil, fmt.Errorf("sampler, extractor, embedder, optimizer and scheduler are required")
	}
	if params.Epochs <= 0 {
		params.Epochs = 1000
	}
	if params.Parallel <= 0 {
		params.Parallel = 4
	}

	runID := uuid.NewString()
	return &Trainer{
		sampler:   sampler,
		pipeline:  NewPipeline(extractor, augmenter, params.Parallel, params.QueueDepth),
		embedder:  embedder,
		optimizer: optimizer,
		scheduler: scheduler,
		loss:      NewTripletLoss(params.Loss),
		params:    params,
		logger:    logging.WithFields(logging.Fields{"component": "trainer", "run_id": runID}),
		runID:     runID,
	}, nil
}

// RunID returns the identifier attached to this training run's log lines
// and checkpoints
func (t *Trainer) RunID() string {
	return t.runID
}

// Run executes the training loop for the configured epoch budget.
// Cancellation is honored between steps only: once a batch's loss has been
// computed, the optimizer update completes before the loop observes the
// stop signal, so parameters are never left half-updated.
func (t *Trainer) Run(ctx context.Context) error {
	t.optimizer.SetLearningRate(t.scheduler.LearningRate())
	t.logger.Info("training started", logging.Fields{
		"epochs":          t.params.Epochs,
		"folds_per_epoch": t.sampler.FoldsPerEpoch(),
		"metric":          stats.GetDistanceMetricName(t.params.Metric),
		"clamp":           t.params.Loss.Clamp.String(),
	})

	prepCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	prepared := t.pipeline.Run(prepCtx, t.sampler.NextBatch)

	epochsDone := 0
	step := 0
	var runErr error

	for p := range prepared {
		if err := t.step(p, step); err != nil {
			runErr = err
			break
		}

		if p.EpochComplete {
			rate := t.scheduler.EpochComplete()
			t.optimizer.SetLearningRate(rate)
			epochsDone++

			state := t.scheduler.State()
			t.logger.Info("epoch complete", logging.Fields{
				"epoch":          state.CurrentEpoch,
				"cycle_position": state.CyclePosition,
				"learning_rate":  rate,
			})
			if t.params.CheckpointDir != "" {
				path := filepath.Join(t.params.CheckpointDir, "scheduler.yml")
				if err := SaveSchedulerState(path, state); err != nil {
					t.logger.Warn("failed to checkpoint scheduler state", logging.Fields{"error": err.Error()})
				}
			}
			if epochsDone >= t.params.Epochs {
				break
			}
		}

		select {
		case <-ctx.Done():
			runErr = ctx.Err()
		default:
		}
		if runErr != nil {
			break
		}
		step++
	}

	// Let the producer and workers unwind before returning.
	cancel()
	for range prepared {
	}

	if runErr == nil && epochsDone < t.params.Epochs && ctx.Err() != nil {
		runErr = ctx.Err()
	}

	if runErr != nil {
		t.logger.Error(runErr, "training stopped", logging.Fields{"step": step, "epochs_done": epochsDone})
		return runErr
	}
	t.logger.Info("training finished", logging.Fields{"epochs_done": epochsDone})
	return nil
}

// step runs one training step. Numeric instability is reported and the
// step skipped; sampler invariant violations and data errors are fatal.
func (t *Trainer) step(p Prepared, step int) error {
	if p.Err != nil {
		var insufficient *InsufficientDataError
		if errors.As(p.Err, &insufficient) {
			return fmt.Errorf("sampling failed at step %d: %w", step, p.Err)
		}
		return fmt.Errorf("batch preparation failed at step %d: %w", step, p.Err)
	}

	embeddings, err := t.embedder.Embed(p.Features)
	if err != nil {
		return fmt.Errorf("embedding failed at step %d: %w", step, err)
	}

	distances, err := PairwiseDistances(embeddings, t.params.Metric)
	if err != nil {
		return t.classifyNumeric(err, step)
	}

	loss, lossStats, err := t.loss.Compute(distances, p.Batch.Labels)
	if err != nil {
		return t.classifyNumeric(err, step)
	}

	if err := t.optimizer.Step(loss); err != nil {
		return fmt.Errorf("optimizer step %d failed: %w", step, err)
	}

	t.logger.Debug("step", logging.Fields{
		"step":          step,
		"loss":          loss,
		"triples":       lossStats.Triples,
		"mean_positive": lossStats.MeanPositive,
		"mean_negative": lossStats.MeanNegative,
	})
	return nil
}

// classifyNumeric downgrades numeric instability to a skipped step and
// passes every other error through as fatal
func (t *Trainer) classifyNumeric(err error, step int) error {
	var numeric *NumericInstabilityError
	if errors.As(err, &numeric) {
		t.logger.Warn("skipping step due to numeric instability", logging.Fields{
			"step":  step,
			"epoch": t.scheduler.State().CurrentEpoch,
			"stage": numeric.Stage,
		})
		return nil
	}
	return fmt.Errorf("step %d failed: %w", step, err)
}
