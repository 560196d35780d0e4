package pitchrange

import (
	"fmt"
	"strings"

	"github.com/RyanBlaney/pitchrange/algorithms/chroma"
	"github.com/RyanBlaney/pitchrange/algorithms/tonal"
)

// Report summarizes the voiced part of one analysis run. It is never modified
// after Analyze returns it.
type Report struct {
	MinFrequency    float64 `json:"min_frequency"`
	MaxFrequency    float64 `json:"max_frequency"`
	MedianFrequency float64 `json:"median_frequency"`

	MinNote    chroma.Note `json:"min_note"`
	MaxNote    chroma.Note `json:"max_note"`
	MedianNote chroma.Note `json:"median_note"`

	// Mean confidence of the voiced frames on a 0-100 scale
	Confidence float64 `json:"confidence"`

	VoicedFrames int     `json:"voiced_frames"`
	TotalFrames  int     `json:"total_frames"`
	Duration     float64 `json:"duration"` // Seconds
	SampleRate   int     `json:"sample_rate"`
	FrameLength  int     `json:"frame_length"`
	HopLength    int     `json:"hop_length"`

	VoiceTypes []VoiceType `json:"voice_types"`

	// Per-frame track, only populated when the config asks for it
	Track []tonal.PitchEstimate `json:"track,omitempty"`
}

// NoteRange renders the detected range, e.g. "C3 – G5"
func (r *Report) NoteRange() string {
	return fmt.Sprintf("%s – %s", r.MinNote, r.MaxNote)
}

// SemitoneSpan returns the number of semitones between the lowest and highest note
func (r *Report) SemitoneSpan() int {
	return chroma.SemitoneDistance(r.MinNote, r.MaxNote)
}

// VoicedRatio returns the share of frames that carried a pitch
func (r *Report) VoicedRatio() float64 {
	if r.TotalFrames == 0 {
		return 0
	}
	return float64(r.VoicedFrames) / float64(r.TotalFrames)
}

// VoiceTypeNames returns the matching voice types as "tenor, alto", or "" when none match
func (r *Report) VoiceTypeNames() string {
	names := make([]string, len(r.VoiceTypes))
	for i, v := range r.VoiceTypes {
		names[i] = v.Name
	}
	return strings.Join(names, ", ")
}
