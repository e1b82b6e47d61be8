package main

import (
	"fmt"

	"github.com/RyanBlaney/vocembed/algorithms/stats"
	"github.com/RyanBlaney/vocembed/logging"
)

// meanPoolEmbedder is the reference embedding backend: it mean-pools each
// feature tensor over time and L2-normalizes the result. It exists so the
// full sampling/loss/schedule loop can run end to end without a network.
// TODO: wire a recurrent embedding backend behind the trainer.Embedder
// interface.
type meanPoolEmbedder struct{}

func newMeanPoolEmbedder() *meanPoolEmbedder {
	return &meanPoolEmbedder{}
}

func (e *meanPoolEmbedder) Embed(features [][][]float64) ([][]float64, error) {
	embeddings := make([][]float64, len(features))
	for i, frames := range features {
		if len(frames) == 0 {
			return nil, fmt.Errorf("empty feature tensor at batch position %d", i)
		}
		dim := len(frames[0])
		pooled := make([]float64, dim)
		for _, frame := range frames {
			for d, v := range frame {
				pooled[d] += v
			}
		}
		for d := range pooled {
			pooled[d] /= float64(len(frames))
		}
		embeddings[i] = stats.L2Normalize(pooled)
	}
	return embeddings, nil
}

// loggingOptimizer tracks the learning rate and a smoothed loss. Parameter
// updates belong to the embedding backend; until one is wired this keeps
// the training loop observable.
type loggingOptimizer struct {
	rate     float64
	smoothed float64
	steps    int
	logger   logging.Logger
}

func newLoggingOptimizer() *loggingOptimizer {
	return &loggingOptimizer{
		logger: logging.WithFields(logging.Fields{"component": "optimizer"}),
	}
}

func (o *loggingOptimizer) SetLearningRate(rate float64) {
	o.rate = rate
}

func (o *loggingOptimizer) Step(loss float64) error {
	if o.steps == 0 {
		o.smoothed = loss
	} else {
		o.smoothed = 0.99*o.smoothed + 0.01*loss
	}
	o.steps++

	if o.steps%50 == 0 {
		o.logger.Info("optimizer progress", logging.Fields{
			"steps":         o.steps,
			"smoothed_loss": o.smoothed,
			"learning_rate": o.rate,
		})
	}
	return nil
}
