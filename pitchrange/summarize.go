package pitchrange

import (
	"fmt"

	"github.com/RyanBlaney/pitchrange/algorithms/chroma"
	"github.com/RyanBlaney/pitchrange/algorithms/common"
	"github.com/RyanBlaney/pitchrange/algorithms/tonal"
)

// Summarize builds a report from the voiced estimates of a track. sampleCount
// and sampleRate give the duration of the analyzed buffer. The median of an
// even number of frequencies is the lower of the two middle values.
func Summarize(estimates []tonal.PitchEstimate, sampleCount, sampleRate int) (*Report, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidSampleRate, sampleRate)
	}

	frequencies := make([]float64, 0, len(estimates))
	confidences := make([]float64, 0, len(estimates))
	for _, est := range estimates {
		if !est.Voiced {
			continue
		}
		frequencies = append(frequencies, est.Frequency)
		confidences = append(confidences, est.Confidence)
	}

	if len(frequencies) == 0 {
		return nil, ErrNoVoicedFrames
	}

	report := &Report{
		MinFrequency:    common.Min(frequencies),
		MaxFrequency:    common.Max(frequencies),
		MedianFrequency: common.LowerMedian(frequencies),
		Confidence:      common.Mean(confidences) * 100,
		VoicedFrames:    len(frequencies),
		TotalFrames:     len(estimates),
		Duration:        float64(sampleCount) / float64(sampleRate),
		SampleRate:      sampleRate,
	}

	var err error
	if report.MinNote, err = chroma.NoteFromFrequency(report.MinFrequency); err != nil {
		return nil, fmt.Errorf("min frequency: %w", err)
	}
	if report.MaxNote, err = chroma.NoteFromFrequency(report.MaxFrequency); err != nil {
		return nil, fmt.Errorf("max frequency: %w", err)
	}
	if report.MedianNote, err = chroma.NoteFromFrequency(report.MedianFrequency); err != nil {
		return nil, fmt.Errorf("median frequency: %w", err)
	}

	report.VoiceTypes = ClassifyRange(report.MinNote, report.MaxNote)

	return report, nil
}
