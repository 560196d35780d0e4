package pitchrange

import (
	"errors"
	"testing"

	"github.com/RyanBlaney/pitchrange/algorithms/chroma"
	"github.com/RyanBlaney/pitchrange/algorithms/tonal"
	"github.com/matryer/is"
)

func voiced(index int, hz, conf float64) tonal.PitchEstimate {
	return tonal.PitchEstimate{Index: index, Voiced: true, Frequency: hz, Confidence: conf}
}

func TestSummarize_LowerMedian(t *testing.T) {
	is := is.New(t)

	track := []tonal.PitchEstimate{
		voiced(0, 300, 0.9),
		{Index: 1},
		voiced(2, 100, 0.8),
		voiced(3, 400, 0.7),
		{Index: 4},
		voiced(5, 200, 0.6),
	}

	report, err := Summarize(track, 88200, 44100)
	is.NoErr(err)
	is.Equal(report.MedianFrequency, 200.0)
	is.Equal(report.MinFrequency, 100.0)
	is.Equal(report.MaxFrequency, 400.0)
	is.Equal(report.VoicedFrames, 4)
	is.Equal(report.TotalFrames, 6)
	is.Equal(report.Duration, 2.0)
	is.True(report.Confidence > 74.99 && report.Confidence < 75.01)
	is.Equal(report.VoicedRatio(), 4.0/6.0)

	is.Equal(report.MinNote, chroma.Note{Name: "G", Octave: 2})
	is.Equal(report.MedianNote, chroma.Note{Name: "G", Octave: 3})
	is.Equal(report.MaxNote, chroma.Note{Name: "G", Octave: 4})
}

func TestSummarize_OddCount(t *testing.T) {
	is := is.New(t)

	report, err := Summarize([]tonal.PitchEstimate{
		voiced(0, 250, 1), voiced(1, 110, 1), voiced(2, 440, 1),
	}, 100, 100)
	is.NoErr(err)
	is.Equal(report.MedianFrequency, 250.0)
	is.Equal(report.Confidence, 100.0)
}

func TestSummarize_NoVoicedFrames(t *testing.T) {
	is := is.New(t)

	_, err := Summarize([]tonal.PitchEstimate{{Index: 0}, {Index: 1}}, 1000, 44100)
	is.True(errors.Is(err, ErrNoVoicedFrames))

	_, err = Summarize(nil, 0, 44100)
	is.True(errors.Is(err, ErrNoVoicedFrames))
}

func TestSummarize_InvalidFrequency(t *testing.T) {
	is := is.New(t)

	_, err := Summarize([]tonal.PitchEstimate{voiced(0, 0, 0.9)}, 10, 44100)
	is.True(errors.Is(err, ErrInvalidFrequency))

	_, err = Summarize([]tonal.PitchEstimate{voiced(0, 220, 0.9)}, 10, 0)
	is.True(errors.Is(err, ErrInvalidSampleRate))
}

func TestClassifyRange(t *testing.T) {
	is := is.New(t)

	note := func(name string, octave int) chroma.Note { return chroma.Note{Name: name, Octave: octave} }
	names := func(types []VoiceType) []string {
		out := []string{}
		for _, v := range types {
			out = append(out, v.Name)
		}
		return out
	}

	is.Equal(names(ClassifyRange(note("C", 3), note("G", 4))), []string{"baritone", "tenor"})
	is.Equal(names(ClassifyRange(note("E", 4), note("A", 5))), []string{"soprano"})
	is.Equal(names(ClassifyRange(note("G", 3), note("C", 5))), []string{"tenor", "alto"})
	is.Equal(names(ClassifyRange(note("C", 2), note("C", 7))), []string{})
}
