package augment

import (
	"math"
	"math/rand"
	"sync"

	"gonum.org/v1/gonum/stat"
)

// NoiseAugmenter mixes additive white Gaussian noise into feature frames at
// a signal-to-noise ratio drawn uniformly from [SNRMin, SNRMax] dB per call.
// The output always has the same shape as the input and label semantics are
// untouched. Safe for concurrent use by batch-preparation workers.
type NoiseAugmenter struct {
	snrMin float64
	snrMax float64

	mu  sync.Mutex // guards rng
	rng *rand.Rand
}

// NewNoiseAugmenter creates a seeded noise augmenter for the given SNR range
func NewNoiseAugmenter(snrMin, snrMax float64, seed int64) *NoiseAugmenter {
	if snrMax < snrMin {
		snrMin, snrMax = snrMax, snrMin
	}
	return &NoiseAugmenter{
		snrMin: snrMin,
		snrMax: snrMax,
		rng:    rand.New(rand.NewSource(seed)),
	}
}

// Apply returns an augmented copy of the input frames
func (n *NoiseAugmenter) Apply(frames [][]float64) [][]float64 {
	out := make([][]float64, len(frames))
	if len(frames) == 0 {
		return out
	}

	power := signalPower(frames)

	n.mu.Lock()
	defer n.mu.Unlock()

	snr := n.snrMin + n.rng.Float64()*(n.snrMax-n.snrMin)
	noiseStd := math.Sqrt(power / math.Pow(10.0, snr/10.0))

	for i, frame := range frames {
		out[i] = make([]float64, len(frame))
		for j, v := range frame {
			out[i][j] = v + n.rng.NormFloat64()*noiseStd
		}
	}
	return out
}

// signalPower estimates mean-square power across all frames
func signalPower(frames [][]float64) float64 {
	squares := make([]float64, 0, len(frames)*len(frames[0]))
	for _, frame := range frames {
		for _, v := range frame {
			squares = append(squares, v*v)
		}
	}
	if len(squares) == 0 {
		return 0
	}
	power := stat.Mean(squares, nil)
	if power <= 0 {
		// Silent input still gets a small amount of noise
		return 1e-10
	}
	return power
}
