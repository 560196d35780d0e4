package filters

import (
	"math"
)

// DCRemoval is a one-pole DC blocking filter:
//
//	y[n] = x[n] - x[n-1] + R·y[n-1]
//
// It removes microphone offset before frame energy is compared against the
// silence floor. The periodicity of the signal is not affected.
//
// References:
//   - Julius O. Smith III, "Introduction to Digital Filters with Audio Applications"
//     https://ccrma.stanford.edu/~jos/filters/DC_Blocker.html
type DCRemoval struct {
	poleLocation float64 // R parameter (0 < R < 1)

	// State variables
	x1 float64 // Previous input sample x[n-1]
	y1 float64 // Previous output sample y[n-1]

	primed bool
}

// NewDCRemoval creates a DC removal filter with pole 0.995 (about 35 Hz at 44.1 kHz)
func NewDCRemoval() *DCRemoval {
	return &DCRemoval{poleLocation: 0.995}
}

// NewDCRemovalWithCutoff creates a filter whose -3 dB point is near cutoffFreq,
// using R = 1 - 2π·fc/fs
func NewDCRemovalWithCutoff(sampleRate int, cutoffFreq float64) *DCRemoval {
	dc := NewDCRemoval()
	if sampleRate > 0 && cutoffFreq > 0 {
		dc.poleLocation = 1.0 - (2.0 * math.Pi * cutoffFreq / float64(sampleRate))
	}

	// Clamp to valid range
	dc.poleLocation = math.Min(math.Max(dc.poleLocation, 0.001), 0.9999)
	return dc
}

// Process filters a single sample
func (dc *DCRemoval) Process(input float64) float64 {
	if !dc.primed {
		// Start from the first sample so a constant offset produces no step
		dc.x1 = input
		dc.primed = true
	}

	output := input - dc.x1 + dc.poleLocation*dc.y1

	dc.x1 = input
	dc.y1 = output

	return output
}

// ProcessBuffer filters input into a new slice, leaving input untouched
func (dc *DCRemoval) ProcessBuffer(input []float64) []float64 {
	output := make([]float64, len(input))
	for i, sample := range input {
		output[i] = dc.Process(sample)
	}
	return output
}

// Reset clears the filter state
func (dc *DCRemoval) Reset() {
	dc.x1 = 0.0
	dc.y1 = 0.0
	dc.primed = false
}

// GetPoleLocation returns R
func (dc *DCRemoval) GetPoleLocation() float64 {
	return dc.poleLocation
}

// GetCutoffFrequency returns the approximate -3 dB frequency for a sample rate
func (dc *DCRemoval) GetCutoffFrequency(sampleRate int) float64 {
	return (1.0 - dc.poleLocation) * float64(sampleRate) / (2.0 * math.Pi)
}

// GetFrequencyResponse returns the magnitude response at frequency
func (dc *DCRemoval) GetFrequencyResponse(frequency float64, sampleRate int) float64 {
	omega := 2.0 * math.Pi * frequency / float64(sampleRate)

	// H(z) = (1 - z^-1) / (1 - R·z^-1)
	numReal := 1.0 - math.Cos(omega)
	numImag := math.Sin(omega)
	denReal := 1.0 - dc.poleLocation*math.Cos(omega)
	denImag := dc.poleLocation * math.Sin(omega)

	return math.Hypot(numReal, numImag) / math.Hypot(denReal, denImag)
}
