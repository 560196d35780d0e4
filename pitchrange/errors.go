package pitchrange

import (
	"errors"

	"github.com/RyanBlaney/pitchrange/algorithms/chroma"
)

var (
	// ErrNoVoicedFrames is returned when the audio is valid but no frame carries
	// a pitch inside the detection range
	ErrNoVoicedFrames = errors.New("no voiced frames detected")

	// ErrInvalidSampleRate is returned for sample rates that are not positive
	ErrInvalidSampleRate = errors.New("invalid sample rate")

	// ErrEmptyBuffer is returned for a buffer with no samples
	ErrEmptyBuffer = errors.New("empty sample buffer")

	// ErrInvalidSamples is returned when the buffer holds NaN or infinite values
	ErrInvalidSamples = errors.New("sample buffer contains non-finite values")

	// ErrInvalidFrequency is returned by the note mapper for frequencies that
	// are not positive and finite. Reaching it from Analyze is a bug.
	ErrInvalidFrequency = chroma.ErrInvalidFrequency
)
