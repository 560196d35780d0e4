package spectral

import (
	"github.com/mjibson/go-dsp/fft"
)

// FFT provides Fast Fourier Transform functionality backed by mjibson/go-dsp.
// It holds no state and is safe for concurrent use.
type FFT struct{}

// NewFFT creates a new FFT calculator
func NewFFT() *FFT {
	return &FFT{}
}

// Compute computes the FFT of a real signal
func (f *FFT) Compute(x []float64) []complex128 {
	if len(x) == 0 {
		return []complex128{}
	}

	// go-dsp handles all sizes, including non-power-of-2
	return fft.FFTReal(x)
}

// ComputeInverseReal computes the inverse FFT and returns the real part only
func (f *FFT) ComputeInverseReal(x []complex128) []float64 {
	if len(x) == 0 {
		return []float64{}
	}

	result := fft.IFFT(x)
	realResult := make([]float64, len(result))

	for i, val := range result {
		realResult[i] = real(val)
	}

	return realResult
}

// CrossCorrelate returns r[τ] = Σ_i a[i]·b[i+τ] for τ in [0, maxLag].
// Both inputs are zero padded to a common transform size large enough that
// the circular correlation has no wrap-around for non-negative lags.
func (f *FFT) CrossCorrelate(a, b []float64, maxLag int) []float64 {
	if len(a) == 0 || len(b) == 0 || maxLag < 0 {
		return []float64{}
	}

	size := 1
	for size < len(a)+len(b) {
		size <<= 1
	}

	paddedA := make([]float64, size)
	paddedB := make([]float64, size)
	copy(paddedA, a)
	copy(paddedB, b)

	specA := f.Compute(paddedA)
	specB := f.Compute(paddedB)

	product := make([]complex128, size)
	for i := range product {
		ca := specA[i]
		product[i] = complex(real(ca), -imag(ca)) * specB[i]
	}

	corr := f.ComputeInverseReal(product)

	lags := min(maxLag+1, size)
	out := make([]float64, lags)
	copy(out, corr[:lags])
	return out
}
