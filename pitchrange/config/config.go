package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"runtime"

	"github.com/RyanBlaney/pitchrange/algorithms/common"
	"github.com/RyanBlaney/pitchrange/algorithms/tonal"
)

// ErrInvalidConfig is wrapped by every validation failure
var ErrInvalidConfig = errors.New("invalid analysis config")

// SourceType describes what kind of recording is analyzed
type SourceType string

const (
	SourceGeneral    SourceType = "general"
	SourceSinging    SourceType = "singing"
	SourceSpeech     SourceType = "speech"
	SourceInstrument SourceType = "instrument"
)

// ParseSourceType maps a name to a SourceType
func ParseSourceType(name string) (SourceType, error) {
	switch st := SourceType(name); st {
	case SourceGeneral, SourceSinging, SourceSpeech, SourceInstrument:
		return st, nil
	case "":
		return SourceGeneral, nil
	default:
		return SourceGeneral, fmt.Errorf("%w: unknown source type %q", ErrInvalidConfig, name)
	}
}

// EstimatorConfig tunes the per-frame frequency estimator
type EstimatorConfig struct {
	Threshold        float64 `json:"threshold"`
	FallbackWeight   float64 `json:"fallback_weight"`
	AlternateWeight  float64 `json:"alternate_weight"`
	CandidateCeiling float64 `json:"candidate_ceiling"`
	MaxCandidates    int     `json:"max_candidates"`
	SilenceFloor     float64 `json:"silence_floor"`
	UseFFT           bool    `json:"use_fft"`
}

// TrackerConfig tunes the continuity smoother
type TrackerConfig struct {
	Mode             string  `json:"mode"` // "viterbi", "local_best"
	VoicingThreshold float64 `json:"voicing_threshold"`
	JumpCost         float64 `json:"jump_cost"`
	SwitchCost       float64 `json:"switch_cost"`
}

// PreprocessConfig controls filtering applied to a copy of the input
type PreprocessConfig struct {
	RemoveDC bool    `json:"remove_dc"`
	DCCutoff float64 `json:"dc_cutoff"` // Hz, must stay below MinFrequency
}

// AnalysisConfig configures one analysis run. Frame and hop lengths are derived
// from the sample rate and MinFrequency and are not configurable.
type AnalysisConfig struct {
	// Detection range in Hz
	MinFrequency float64 `json:"min_frequency"`
	MaxFrequency float64 `json:"max_frequency"`

	// Parallel estimation. Workers 0 uses every CPU.
	Workers   int `json:"workers"`
	BatchSize int `json:"batch_size"`

	// Include the per-frame track in the report
	KeepTrack bool `json:"keep_track"`

	Preprocess PreprocessConfig `json:"preprocess"`
	Estimator  EstimatorConfig  `json:"estimator"`
	Tracker    TrackerConfig    `json:"tracker"`
}

// DefaultAnalysisConfig returns the default configuration: C2 through C7
func DefaultAnalysisConfig() *AnalysisConfig {
	return &AnalysisConfig{
		MinFrequency: 65.4,
		MaxFrequency: 2093.0,
		Workers:      0,
		BatchSize:    256,
		KeepTrack:    false,
		Preprocess: PreprocessConfig{
			RemoveDC: false,
			DCCutoff: 20.0,
		},
		Estimator: EstimatorConfig{
			Threshold:        0.1,
			FallbackWeight:   0.5,
			AlternateWeight:  0.5,
			CandidateCeiling: 0.5,
			MaxCandidates:    4,
			SilenceFloor:     1e-5,
			UseFFT:           true,
		},
		Tracker: TrackerConfig{
			Mode:             tonal.TrackingViterbi.String(),
			VoicingThreshold: 0.35,
			JumpCost:         0.6,
			SwitchCost:       0.2,
		},
	}
}

// AnalysisConfigForSource returns the defaults adjusted for a kind of recording
func AnalysisConfigForSource(source SourceType) *AnalysisConfig {
	config := DefaultAnalysisConfig()

	switch source {
	case SourceSinging:
		config.MinFrequency = 73.4   // D2
		config.MaxFrequency = 1396.9 // F6

	case SourceSpeech:
		config.MinFrequency = 60.0
		config.MaxFrequency = 500.0
		config.Tracker.JumpCost = 0.4 // speech glides between registers
		config.Tracker.VoicingThreshold = 0.4

	case SourceInstrument:
		config.MinFrequency = 27.5   // A0
		config.MaxFrequency = 4186.0 // C8
		config.Tracker.JumpCost = 0.8
	}

	return config
}

// Validate checks ranges and returns an error wrapping ErrInvalidConfig
func (c *AnalysisConfig) Validate() error {
	if !finitePositive(c.MinFrequency) || !finitePositive(c.MaxFrequency) {
		return fmt.Errorf("%w: frequencies must be positive and finite: [%v, %v]",
			ErrInvalidConfig, c.MinFrequency, c.MaxFrequency)
	}
	if c.MinFrequency >= c.MaxFrequency {
		return fmt.Errorf("%w: min frequency %.2f must be below max frequency %.2f",
			ErrInvalidConfig, c.MinFrequency, c.MaxFrequency)
	}
	if c.Workers < 0 {
		return fmt.Errorf("%w: workers must be non-negative: %d", ErrInvalidConfig, c.Workers)
	}
	if c.BatchSize < 1 {
		return fmt.Errorf("%w: batch size must be at least 1: %d", ErrInvalidConfig, c.BatchSize)
	}

	if p := c.Preprocess; p.RemoveDC && (!finitePositive(p.DCCutoff) || p.DCCutoff >= c.MinFrequency) {
		return fmt.Errorf("%w: dc cutoff must be in (0, %.2f): %v", ErrInvalidConfig, c.MinFrequency, p.DCCutoff)
	}

	e := c.Estimator
	if e.Threshold <= 0 || e.Threshold >= 1 {
		return fmt.Errorf("%w: estimator threshold must be in (0, 1): %v", ErrInvalidConfig, e.Threshold)
	}
	for name, w := range map[string]float64{
		"fallback_weight":   e.FallbackWeight,
		"alternate_weight":  e.AlternateWeight,
		"candidate_ceiling": e.CandidateCeiling,
	} {
		if w < 0 || w > 1 {
			return fmt.Errorf("%w: estimator %s must be in [0, 1]: %v", ErrInvalidConfig, name, w)
		}
	}
	if e.MaxCandidates < 1 {
		return fmt.Errorf("%w: estimator max_candidates must be at least 1: %d", ErrInvalidConfig, e.MaxCandidates)
	}
	if e.SilenceFloor < 0 {
		return fmt.Errorf("%w: estimator silence_floor must be non-negative: %v", ErrInvalidConfig, e.SilenceFloor)
	}

	if _, err := c.TrackerParams(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	return nil
}

// EstimatorParams builds estimator parameters for a sample rate
func (c *AnalysisConfig) EstimatorParams(sampleRate int) tonal.EstimatorParams {
	return tonal.EstimatorParams{
		SampleRate:       sampleRate,
		FrameLength:      common.FrameLengthFor(sampleRate, c.MinFrequency),
		MinFreq:          c.MinFrequency,
		MaxFreq:          c.MaxFrequency,
		Threshold:        c.Estimator.Threshold,
		FallbackWeight:   c.Estimator.FallbackWeight,
		AlternateWeight:  c.Estimator.AlternateWeight,
		CandidateCeiling: c.Estimator.CandidateCeiling,
		MaxCandidates:    c.Estimator.MaxCandidates,
		SilenceFloor:     c.Estimator.SilenceFloor,
		UseFFT:           c.Estimator.UseFFT,
	}
}

// TrackerParams builds tracker parameters and validates them
func (c *AnalysisConfig) TrackerParams() (tonal.TrackerParams, error) {
	mode, err := tonal.ParseTrackingMode(c.Tracker.Mode)
	if err != nil {
		return tonal.TrackerParams{}, err
	}

	params := tonal.TrackerParams{
		Mode:             mode,
		VoicingThreshold: c.Tracker.VoicingThreshold,
		JumpCost:         c.Tracker.JumpCost,
		SwitchCost:       c.Tracker.SwitchCost,
	}
	if _, err := tonal.NewPitchTracker(params); err != nil {
		return tonal.TrackerParams{}, err
	}

	return params, nil
}

// EffectiveWorkers resolves Workers 0 to the CPU count
func (c *AnalysisConfig) EffectiveWorkers() int {
	if c.Workers > 0 {
		return c.Workers
	}
	return runtime.NumCPU()
}

// Clone returns a deep copy
func (c *AnalysisConfig) Clone() *AnalysisConfig {
	clone := *c
	return &clone
}

// Load decodes a JSON config on top of the defaults. Unknown fields are rejected.
func Load(r io.Reader) (*AnalysisConfig, error) {
	config := DefaultAnalysisConfig()

	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(config); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// LoadFile reads a JSON config file
func LoadFile(path string) (*AnalysisConfig, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config: %w", err)
	}
	defer f.Close()

	config, err := Load(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return config, nil
}

func finitePositive(v float64) bool {
	return v > 0 && !math.IsInf(v, 0) && !math.IsNaN(v)
}
