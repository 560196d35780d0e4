package tonal

import (
	"fmt"
	"math"
	"sort"

	"github.com/RyanBlaney/pitchrange/algorithms/common"
	"github.com/RyanBlaney/pitchrange/algorithms/spectral"
)

// PitchCandidate is one possible fundamental for a single frame
type PitchCandidate struct {
	Frequency  float64 `json:"frequency"`  // Frequency in Hz
	Confidence float64 `json:"confidence"` // Local confidence (0-1)
	Period     float64 `json:"period"`     // Refined period in samples
}

// FrameCandidates holds the candidates estimated for one frame. The primary
// candidate, when present, comes first. An empty list is unvoiced input.
type FrameCandidates struct {
	Index        int              `json:"index"`
	Candidates   []PitchCandidate `json:"candidates"`
	Fallback     bool             `json:"fallback"`     // Primary came from the global minimum
	Aperiodicity float64          `json:"aperiodicity"` // Normalized difference at the primary lag
}

// Voiced reports whether the frame produced any candidate
func (fc FrameCandidates) Voiced() bool {
	return len(fc.Candidates) > 0
}

// EstimatorParams contains parameters for per-frame pitch estimation
type EstimatorParams struct {
	SampleRate  int `json:"sample_rate"`
	FrameLength int `json:"frame_length"`

	// Detection range
	MinFreq float64 `json:"min_freq"` // Minimum frequency (Hz)
	MaxFreq float64 `json:"max_freq"` // Maximum frequency (Hz)

	// Threshold on the normalized difference for the first-dip search
	Threshold float64 `json:"threshold"`

	// Confidence multipliers for the global-minimum fallback and alternate dips
	FallbackWeight  float64 `json:"fallback_weight"`
	AlternateWeight float64 `json:"alternate_weight"`

	// Alternates must dip below this normalized difference
	CandidateCeiling float64 `json:"candidate_ceiling"`
	MaxCandidates    int     `json:"max_candidates"`

	// Frames with RMS below this are silent
	SilenceFloor float64 `json:"silence_floor"`

	// Compute the difference function through FFT cross-correlation
	UseFFT bool `json:"use_fft"`
}

// DefaultEstimatorParams returns estimator defaults for a sample rate and range
func DefaultEstimatorParams(sampleRate int, minFreq, maxFreq float64) EstimatorParams {
	return EstimatorParams{
		SampleRate:       sampleRate,
		FrameLength:      common.FrameLengthFor(sampleRate, minFreq),
		MinFreq:          minFreq,
		MaxFreq:          maxFreq,
		Threshold:        0.1,
		FallbackWeight:   0.5,
		AlternateWeight:  0.5,
		CandidateCeiling: 0.5,
		MaxCandidates:    4,
		SilenceFloor:     1e-5,
		UseFFT:           true,
	}
}

// PitchEstimator estimates fundamental-frequency candidates frame by frame using
// the cumulative mean normalized difference function.
//
// References:
// - de Cheveigné, A., Kawahara, H. (2002). "YIN, a fundamental frequency estimator for speech and music"
// - Mauch, M., Dixon, S. (2014). "pYIN: A fundamental frequency estimator using probabilistic threshold distributions"
//
// The estimator holds no per-frame state: Estimate may be called from many
// goroutines at once.
type PitchEstimator struct {
	params EstimatorParams
	fft    *spectral.FFT

	halfFrame int // Integration window and largest lag
	minLag    int // Smallest lag inside the detection range
	maxLag    int // Largest lag inside the detection range
}

// NewPitchEstimator validates params and creates an estimator
func NewPitchEstimator(params EstimatorParams) (*PitchEstimator, error) {
	if params.SampleRate <= 0 {
		return nil, fmt.Errorf("sample rate must be positive: %d", params.SampleRate)
	}
	if params.FrameLength < 8 {
		return nil, fmt.Errorf("frame length too small: %d", params.FrameLength)
	}
	if params.MinFreq <= 0 || params.MaxFreq <= params.MinFreq {
		return nil, fmt.Errorf("invalid frequency range [%.2f, %.2f]", params.MinFreq, params.MaxFreq)
	}
	if params.Threshold <= 0 || params.Threshold >= 1 {
		return nil, fmt.Errorf("threshold must be in (0, 1): %v", params.Threshold)
	}
	if params.MaxCandidates < 1 {
		return nil, fmt.Errorf("max candidates must be at least 1: %d", params.MaxCandidates)
	}

	halfFrame := params.FrameLength / 2
	sr := float64(params.SampleRate)

	minLag := max(int(math.Floor(sr/params.MaxFreq)), 2)
	maxLag := min(int(math.Ceil(sr/params.MinFreq)), halfFrame-1)
	if minLag > maxLag {
		return nil, fmt.Errorf("frame length %d cannot resolve %.2f Hz at %d Hz",
			params.FrameLength, params.MinFreq, params.SampleRate)
	}

	return &PitchEstimator{
		params:    params,
		fft:       spectral.NewFFT(),
		halfFrame: halfFrame,
		minLag:    minLag,
		maxLag:    maxLag,
	}, nil
}

// Estimate computes the pitch candidates for one frame
func (pe *PitchEstimator) Estimate(frame common.Frame) (FrameCandidates, error) {
	result := FrameCandidates{Index: frame.Index, Aperiodicity: 1}

	if len(frame.Samples) != pe.params.FrameLength {
		return result, fmt.Errorf("frame %d size (%d) doesn't match frame length (%d)",
			frame.Index, len(frame.Samples), pe.params.FrameLength)
	}

	if common.RMS(frame.Samples) < pe.params.SilenceFloor {
		return result, nil
	}

	var diff []float64
	if pe.params.UseFFT {
		diff = pe.differenceFFT(frame.Samples)
	} else {
		diff = pe.differenceDirect(frame.Samples)
	}
	cmndf := CumulativeMeanNormalized(diff)

	tau, fallback := pe.absoluteThreshold(cmndf)
	result.Fallback = fallback
	result.Aperiodicity = cmndf[tau]

	weight := 1.0
	if fallback {
		weight = pe.params.FallbackWeight
	}

	primary, ok := pe.candidateAt(cmndf, tau, weight)
	if !ok {
		// Out-of-range or zero-confidence primary: the frame is unvoiced
		return result, nil
	}
	result.Candidates = append(result.Candidates, primary)

	for _, alt := range pe.alternateLags(cmndf, tau) {
		if len(result.Candidates) >= pe.params.MaxCandidates {
			break
		}
		if c, ok := pe.candidateAt(cmndf, alt, pe.params.AlternateWeight); ok {
			result.Candidates = append(result.Candidates, c)
		}
	}

	return result, nil
}

// differenceDirect computes d(τ) = Σ_{i<W} (x[i]-x[i+τ])² for τ in [0, W]
func (pe *PitchEstimator) differenceDirect(x []float64) []float64 {
	w := pe.halfFrame
	diff := make([]float64, w+1)

	for tau := 1; tau <= w; tau++ {
		sum := 0.0
		for i := range w {
			delta := x[i] - x[i+tau]
			sum += delta * delta
		}
		diff[tau] = sum
	}

	return diff
}

// differenceFFT computes the same function as differenceDirect through
// d(τ) = e(0) + e(τ) - 2·r(τ), with r the cross-correlation of the first
// window against the frame and e(τ) the window energy at lag τ.
func (pe *PitchEstimator) differenceFFT(x []float64) []float64 {
	w := pe.halfFrame

	// prefix[k] = Σ_{j<k} x[j]²
	prefix := make([]float64, 2*w+1)
	for j := range 2 * w {
		prefix[j+1] = prefix[j] + x[j]*x[j]
	}

	corr := pe.fft.CrossCorrelate(x[:w], x[:2*w], w)

	diff := make([]float64, w+1)
	e0 := prefix[w]
	for tau := 1; tau <= w; tau++ {
		eTau := prefix[tau+w] - prefix[tau]
		d := e0 + eTau - 2*corr[tau]
		// Round-off can push exact zeros slightly negative
		diff[tau] = math.Max(d, 0)
	}

	return diff
}

// CumulativeMeanNormalized returns d'(τ) = d(τ)·τ / Σ_{j=1..τ} d(j) with d'(0) = 1.
// Lags whose running sum is zero map to 1.
func CumulativeMeanNormalized(diff []float64) []float64 {
	cmndf := make([]float64, len(diff))
	if len(diff) == 0 {
		return cmndf
	}
	cmndf[0] = 1.0

	runningSum := 0.0
	for tau := 1; tau < len(diff); tau++ {
		runningSum += diff[tau]
		if runningSum <= 0 {
			cmndf[tau] = 1.0
			continue
		}
		cmndf[tau] = diff[tau] * float64(tau) / runningSum
	}

	return cmndf
}

// absoluteThreshold returns the first lag whose normalized difference drops below
// the threshold, walked down to its local minimum. When no lag qualifies it
// returns the global minimum and reports the fallback. Lag 1 is skipped since
// d'(1) is 1 by construction and cannot be interpolated.
func (pe *PitchEstimator) absoluteThreshold(cmndf []float64) (int, bool) {
	last := pe.halfFrame - 1

	for tau := 2; tau <= last; tau++ {
		if cmndf[tau] < pe.params.Threshold {
			for tau+1 <= last && cmndf[tau+1] < cmndf[tau] {
				tau++
			}
			return tau, false
		}
	}

	best := 2
	for tau := 3; tau <= last; tau++ {
		if cmndf[tau] < cmndf[best] {
			best = tau
		}
	}
	return best, true
}

// alternateLags returns the other local minima inside the detection range whose
// normalized difference is below the candidate ceiling, best first
func (pe *PitchEstimator) alternateLags(cmndf []float64, primary int) []int {
	var lags []int
	for tau := pe.minLag; tau <= pe.maxLag; tau++ {
		if tau == primary || cmndf[tau] >= pe.params.CandidateCeiling {
			continue
		}
		if cmndf[tau] <= cmndf[tau-1] && cmndf[tau] < cmndf[tau+1] {
			lags = append(lags, tau)
		}
	}

	sort.SliceStable(lags, func(i, j int) bool {
		return cmndf[lags[i]] < cmndf[lags[j]]
	})

	return lags
}

// candidateAt refines lag tau and converts it to a candidate. It rejects
// frequencies outside the detection range and zero confidence.
func (pe *PitchEstimator) candidateAt(cmndf []float64, tau int, weight float64) (PitchCandidate, bool) {
	period, value := common.ParabolicMinimum(cmndf, tau)
	if period <= 0 {
		return PitchCandidate{}, false
	}

	frequency := float64(pe.params.SampleRate) / period
	if frequency < pe.params.MinFreq || frequency > pe.params.MaxFreq {
		return PitchCandidate{}, false
	}

	confidence := common.Clamp(1.0-value, 0, 1) * weight
	if confidence <= 0 {
		return PitchCandidate{}, false
	}

	return PitchCandidate{
		Frequency:  frequency,
		Confidence: confidence,
		Period:     period,
	}, true
}

// GetParameters returns the estimator parameters
func (pe *PitchEstimator) GetParameters() EstimatorParams {
	return pe.params
}

// LagRange returns the lag window that maps into the detection range
func (pe *PitchEstimator) LagRange() (minLag, maxLag int) {
	return pe.minLag, pe.maxLag
}
