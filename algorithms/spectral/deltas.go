package spectral

// Deltas computes first-order regression deltas over time for a sequence of
// feature vectors, using the standard HTK regression formula with the given
// half-window width. Edge frames reuse the boundary frame.
func Deltas(frames [][]float64, width int) [][]float64 {
	numFrames := len(frames)
	if numFrames == 0 {
		return nil
	}
	dim := len(frames[0])

	denom := 0.0
	for w := 1; w <= width; w++ {
		denom += float64(w * w)
	}
	denom *= 2.0

	deltas := make([][]float64, numFrames)
	for t := 0; t < numFrames; t++ {
		deltas[t] = make([]float64, dim)
		for d := 0; d < dim; d++ {
			sum := 0.0
			for w := 1; w <= width; w++ {
				sum += float64(w) * (frames[clampIndex(t+w, numFrames)][d] - frames[clampIndex(t-w, numFrames)][d])
			}
			deltas[t][d] = sum / denom
		}
	}
	return deltas
}

// Deltas1D computes regression deltas for a scalar track (e.g. log energy)
func Deltas1D(track []float64, width int) []float64 {
	numFrames := len(track)
	if numFrames == 0 {
		return nil
	}

	denom := 0.0
	for w := 1; w <= width; w++ {
		denom += float64(w * w)
	}
	denom *= 2.0

	deltas := make([]float64, numFrames)
	for t := 0; t < numFrames; t++ {
		sum := 0.0
		for w := 1; w <= width; w++ {
			sum += float64(w) * (track[clampIndex(t+w, numFrames)] - track[clampIndex(t-w, numFrames)])
		}
		deltas[t] = sum / denom
	}
	return deltas
}

func clampIndex(i, n int) int {
	if i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}
