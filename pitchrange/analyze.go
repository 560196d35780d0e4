package pitchrange

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/RyanBlaney/pitchrange/algorithms/common"
	"github.com/RyanBlaney/pitchrange/algorithms/filters"
	"github.com/RyanBlaney/pitchrange/algorithms/tonal"
	"github.com/RyanBlaney/pitchrange/logging"
	"github.com/RyanBlaney/pitchrange/pitchrange/config"
	"golang.org/x/sync/errgroup"
)

// Option customizes a single Analyze or Submit call
type Option func(*options)

type options struct {
	logger     logging.Logger
	progress   func(done, total int)
	completion func(*Report, error)
}

func buildOptions(opts []Option) *options {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	if o.logger == nil {
		o.logger = logging.GetGlobalLogger()
	}
	return o
}

// WithLogger sets the logger used for the run instead of the global logger
func WithLogger(logger logging.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithProgress registers a callback invoked after every batch of frames with
// the number of frames estimated so far and the total
func WithProgress(fn func(done, total int)) Option {
	return func(o *options) {
		o.progress = fn
	}
}

// WithCompletion registers a callback invoked once a submitted job finishes.
// Analyze ignores it.
func WithCompletion(fn func(*Report, error)) Option {
	return func(o *options) {
		o.completion = fn
	}
}

// Analyze extracts the pitch track of a mono buffer and summarizes its range.
// A nil cfg uses config.DefaultAnalysisConfig. The buffer is only read.
//
// Frames are estimated in parallel, one batch at a time. ctx is checked between
// batches; a cancelled run returns the context error and no report.
func Analyze(ctx context.Context, samples []float64, sampleRate int, cfg *config.AnalysisConfig, opts ...Option) (*Report, error) {
	o := buildOptions(opts)

	if cfg == nil {
		cfg = config.DefaultAnalysisConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	switch {
	case sampleRate <= 0:
		return nil, fmt.Errorf("%w: %d", ErrInvalidSampleRate, sampleRate)
	case len(samples) == 0:
		return nil, ErrEmptyBuffer
	case !common.AllFinite(samples):
		return nil, ErrInvalidSamples
	}

	logger := o.logger.WithContext(ctx).WithFields(logging.Fields{
		"component": "pitch_analyzer",
		"function":  "Analyze",
	})

	estimator, err := tonal.NewPitchEstimator(cfg.EstimatorParams(sampleRate))
	if err != nil {
		return nil, fmt.Errorf("failed to create pitch estimator: %w", err)
	}

	trackerParams, err := cfg.TrackerParams()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", config.ErrInvalidConfig, err)
	}
	tracker, err := tonal.NewPitchTracker(trackerParams)
	if err != nil {
		return nil, fmt.Errorf("failed to create pitch tracker: %w", err)
	}

	frameLength := estimator.GetParameters().FrameLength
	hopLength := common.HopLengthFor(frameLength)

	input := samples
	if cfg.Preprocess.RemoveDC {
		input = filters.NewDCRemovalWithCutoff(sampleRate, cfg.Preprocess.DCCutoff).ProcessBuffer(samples)
	}

	segmenter, err := common.NewFrameSegmenter(input, frameLength, hopLength)
	if err != nil {
		return nil, fmt.Errorf("failed to segment samples: %w", err)
	}

	logger.Debug("Starting pitch analysis", logging.Fields{
		"samples":       len(samples),
		"sample_rate":   sampleRate,
		"frame_length":  frameLength,
		"hop_length":    hopLength,
		"frames":        segmenter.Count(),
		"min_frequency": cfg.MinFrequency,
		"max_frequency": cfg.MaxFrequency,
		"tracking_mode": trackerParams.Mode.String(),
		"remove_dc":     cfg.Preprocess.RemoveDC,
	})

	startTime := time.Now()

	candidates, err := estimateFrames(ctx, estimator, segmenter, cfg.BatchSize, cfg.EffectiveWorkers(), o.progress)
	if err != nil {
		logger.Debug("Frame estimation stopped", logging.Fields{"reason": err.Error()})
		return nil, err
	}

	fallbacks, unvoiced := 0, 0
	for _, fc := range candidates {
		if fc.Fallback {
			fallbacks++
		}
		if !fc.Voiced() {
			unvoiced++
		}
	}
	logger.Debug("Frame estimation completed", logging.Fields{
		"frames":          len(candidates),
		"fallback_frames": fallbacks,
		"unvoiced_frames": unvoiced,
	})

	track := tracker.Track(candidates, float64(hopLength)/float64(sampleRate))

	report, err := Summarize(track, len(samples), sampleRate)
	if err != nil {
		if errors.Is(err, ErrNoVoicedFrames) {
			logger.Info("No voiced frames in detection range", logging.Fields{
				"frames": len(track),
			})
		}
		return nil, err
	}

	report.FrameLength = frameLength
	report.HopLength = hopLength
	if cfg.KeepTrack {
		report.Track = track
	}

	logger.Info("Pitch analysis completed", logging.Fields{
		"voiced_frames": report.VoicedFrames,
		"total_frames":  report.TotalFrames,
		"range":         report.NoteRange(),
		"confidence":    report.Confidence,
		"elapsed":       time.Since(startTime).Seconds(),
	})

	return report, nil
}

// AnalyzeRange runs Analyze with the default configuration over [minHz, maxHz]
func AnalyzeRange(ctx context.Context, samples []float64, sampleRate int, minHz, maxHz float64) (*Report, error) {
	cfg := config.DefaultAnalysisConfig()
	cfg.MinFrequency = minHz
	cfg.MaxFrequency = maxHz
	return Analyze(ctx, samples, sampleRate, cfg)
}

// estimateFrames runs the estimator over every frame. Each batch fans out over at
// most workers goroutines and results land at their frame index.
func estimateFrames(ctx context.Context, estimator *tonal.PitchEstimator, segmenter *common.FrameSegmenter,
	batchSize, workers int, progress func(done, total int)) ([]tonal.FrameCandidates, error) {

	total := segmenter.Count()
	results := make([]tonal.FrameCandidates, total)

	for start := 0; start < total; start += batchSize {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("analysis cancelled after %d of %d frames: %w", start, total, err)
		}

		end := min(start+batchSize, total)

		var g errgroup.Group
		g.SetLimit(workers)
		for i := start; i < end; i++ {
			g.Go(func() error {
				fc, err := estimator.Estimate(segmenter.Frame(i))
				if err != nil {
					return err
				}
				results[i] = fc
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, fmt.Errorf("frame estimation failed: %w", err)
		}

		if progress != nil {
			progress(end, total)
		}
	}

	return results, nil
}
