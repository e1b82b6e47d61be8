package spectral

import (
	"math"
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
)

// MagnitudeSpectrum computes the one-sided magnitude spectrum of a real frame
// using mjibson/go-dsp. Handles non-power-of-2 sizes.
func MagnitudeSpectrum(frame []float64) []float64 {
	if len(frame) == 0 {
		return []float64{}
	}

	spectrum := fft.FFTReal(frame)
	half := len(frame)/2 + 1

	magnitudes := make([]float64, half)
	for i := 0; i < half; i++ {
		magnitudes[i] = cmplx.Abs(spectrum[i])
	}
	return magnitudes
}

// HammingWindow returns periodic Hamming window coefficients of the given size
func HammingWindow(size int) []float64 {
	coefficients := make([]float64, size)
	for i := 0; i < size; i++ {
		coefficients[i] = 0.54 - 0.46*math.Cos(2*math.Pi*float64(i)/float64(size))
	}
	return coefficients
}
