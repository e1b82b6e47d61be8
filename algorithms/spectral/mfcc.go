package spectral

import (
	"fmt"
	"math"
)

// MFCC computes Mel-Frequency Cepstral Coefficient features for fixed-length
// audio frames, with optional energy and derivative streams. The flag set
// mirrors common speech front-ends: raw log energy (E), energy derivatives
// (DE, DDE) and coefficient derivatives (D, DD) can be toggled independently.
type MFCC struct {
	sampleRate int
	params     MFCCParams

	frameSize int
	frameStep int
	window    []float64

	filterBank [][]float64
	dctMatrix  [][]float64
}

// MFCCParams contains parameters for MFCC feature extraction
type MFCCParams struct {
	NumCoefficients int     `json:"num_coefficients"` // Cepstral coefficients per frame (default: 11)
	NumMelFilters   int     `json:"num_mel_filters"`  // Mel filter bank size (default: 26)
	FrameLength     float64 `json:"frame_length"`     // Analysis frame length in seconds (default: 0.025)
	FrameStep       float64 `json:"frame_step"`       // Frame step in seconds (default: 0.010)
	LowFreq         float64 `json:"low_freq"`         // Low frequency bound (default: 0)
	HighFreq        float64 `json:"high_freq"`        // High frequency bound (default: sampleRate/2)

	Energy           bool `json:"energy"`             // Append raw log energy
	DeltaEnergy      bool `json:"delta_energy"`       // Append first derivative of log energy
	DeltaDeltaEnergy bool `json:"delta_delta_energy"` // Append second derivative of log energy
	Deltas           bool `json:"deltas"`             // Append first derivatives of coefficients
	DeltaDeltas      bool `json:"delta_deltas"`       // Append second derivatives of coefficients
}

// NewMFCC creates an MFCC extractor with speaker-embedding defaults:
// 11 coefficients with first and second derivatives, energy derivatives
// but no raw energy term.
func NewMFCC(sampleRate int) *MFCC {
	return NewMFCCWithParams(sampleRate, MFCCParams{
		Energy:           false,
		DeltaEnergy:      true,
		DeltaDeltaEnergy: true,
		Deltas:           true,
		DeltaDeltas:      true,
	})
}

// NewMFCCWithParams creates an MFCC extractor with custom parameters
func NewMFCCWithParams(sampleRate int, params MFCCParams) *MFCC {
	if params.NumCoefficients <= 0 {
		params.NumCoefficients = 11
	}
	if params.NumMelFilters <= 0 {
		params.NumMelFilters = 26
	}
	if params.FrameLength <= 0 {
		params.FrameLength = 0.025
	}
	if params.FrameStep <= 0 {
		params.FrameStep = 0.010
	}
	if params.HighFreq <= 0 {
		params.HighFreq = float64(sampleRate) / 2.0
	}

	m := &MFCC{
		sampleRate: sampleRate,
		params:     params,
		frameSize:  int(params.FrameLength * float64(sampleRate)),
		frameStep:  int(params.FrameStep * float64(sampleRate)),
	}
	m.window = HammingWindow(m.frameSize)
	m.filterBank = CreateMelFilterBank(
		params.NumMelFilters, m.frameSize, sampleRate,
		params.LowFreq, params.HighFreq)
	m.createDCTMatrix()

	return m
}

// Dimension returns the per-frame feature dimension implied by the flag set
func (m *MFCC) Dimension() int {
	n := m.params.NumCoefficients
	dim := n
	if m.params.Deltas {
		dim += n
	}
	if m.params.DeltaDeltas {
		dim += n
	}
	if m.params.Energy {
		dim++
	}
	if m.params.DeltaEnergy {
		dim++
	}
	if m.params.DeltaDeltaEnergy {
		dim++
	}
	return dim
}

// Extract computes per-frame features from raw samples. The result has one
// row per analysis frame with Dimension() columns.
func (m *MFCC) Extract(samples []float64) ([][]float64, error) {
	if len(samples) < m.frameSize {
		return nil, fmt.Errorf("signal too short: %d samples, need at least %d", len(samples), m.frameSize)
	}

	numFrames := 1 + (len(samples)-m.frameSize)/m.frameStep
	coeffs := make([][]float64, numFrames)
	energies := make([]float64, numFrames)

	for t := 0; t < numFrames; t++ {
		frame := samples[t*m.frameStep : t*m.frameStep+m.frameSize]
		coeffs[t], energies[t] = m.computeFrame(frame)
	}

	var dCoeffs, ddCoeffs [][]float64
	if m.params.Deltas || m.params.DeltaDeltas {
		dCoeffs = Deltas(coeffs, 2)
	}
	if m.params.DeltaDeltas {
		ddCoeffs = Deltas(dCoeffs, 2)
	}

	var dEnergy, ddEnergy []float64
	if m.params.DeltaEnergy || m.params.DeltaDeltaEnergy {
		dEnergy = Deltas1D(energies, 2)
	}
	if m.params.DeltaDeltaEnergy {
		ddEnergy = Deltas1D(dEnergy, 2)
	}

	features := make([][]float64, numFrames)
	for t := 0; t < numFrames; t++ {
		row := make([]float64, 0, m.Dimension())
		row = append(row, coeffs[t]...)
		if m.params.Energy {
			row = append(row, energies[t])
		}
		if m.params.Deltas {
			row = append(row, dCoeffs[t]...)
		}
		if m.params.DeltaEnergy {
			row = append(row, dEnergy[t])
		}
		if m.params.DeltaDeltas {
			row = append(row, ddCoeffs[t]...)
		}
		if m.params.DeltaDeltaEnergy {
			row = append(row, ddEnergy[t])
		}
		features[t] = row
	}

	return features, nil
}

// computeFrame returns cepstral coefficients and log energy for one frame
func (m *MFCC) computeFrame(frame []float64) ([]float64, float64) {
	windowed := make([]float64, len(frame))
	energy := 0.0
	for i, s := range frame {
		windowed[i] = s * m.window[i]
		energy += s * s
	}
	logEnergy := math.Log(math.Max(energy, 1e-10))

	magnitudes := MagnitudeSpectrum(windowed)
	powerSpectrum := make([]float64, len(magnitudes))
	for i, mag := range magnitudes {
		powerSpectrum[i] = mag * mag
	}

	melSpectrum := ApplyFilterBank(powerSpectrum, m.filterBank)
	logMel := make([]float64, len(melSpectrum))
	for i, mel := range melSpectrum {
		logMel[i] = math.Log(math.Max(mel, 1e-10))
	}

	coeffs := make([]float64, m.params.NumCoefficients)
	for i := range coeffs {
		sum := 0.0
		for j, v := range logMel {
			sum += v * m.dctMatrix[i][j]
		}
		coeffs[i] = sum
	}

	return coeffs, logEnergy
}

// createDCTMatrix builds the type-II DCT basis, skipping the DC row so the
// first coefficient is c1 (log energy carries the frame level instead).
func (m *MFCC) createDCTMatrix() {
	numFilters := m.params.NumMelFilters
	m.dctMatrix = make([][]float64, m.params.NumCoefficients)
	scale := math.Sqrt(2.0 / float64(numFilters))

	for i := range m.dctMatrix {
		m.dctMatrix[i] = make([]float64, numFilters)
		for j := 0; j < numFilters; j++ {
			m.dctMatrix[i][j] = scale * math.Cos(math.Pi*float64(i+1)*(float64(j)+0.5)/float64(numFilters))
		}
	}
}
