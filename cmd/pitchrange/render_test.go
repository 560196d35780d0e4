package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/RyanBlaney/pitchrange/algorithms/chroma"
	"github.com/RyanBlaney/pitchrange/pitchrange"
	"github.com/matryer/is"
)

func sampleReport() *pitchrange.Report {
	return &pitchrange.Report{
		MinFrequency:    130.8128,
		MaxFrequency:    783.9909,
		MedianFrequency: 329.6276,
		MinNote:         chroma.Note{Name: "C", Octave: 3},
		MaxNote:         chroma.Note{Name: "G", Octave: 5},
		MedianNote:      chroma.Note{Name: "E", Octave: 4},
		Confidence:      87.654,
		VoicedFrames:    120,
		TotalFrames:     150,
		Duration:        3.5,
		SampleRate:      44100,
		VoiceTypes:      pitchrange.ClassifyRange(chroma.Note{Name: "C", Octave: 3}, chroma.Note{Name: "G", Octave: 5}),
	}
}

func TestRenderText(t *testing.T) {
	is := is.New(t)

	var out bytes.Buffer
	renderText(&out, "take1.wav", sampleReport(), nil)
	text := out.String()

	is.True(strings.HasPrefix(text, "take1.wav\n"))
	is.True(strings.Contains(text, "Minimum frequency: 130.81 Hz (C3)"))
	is.True(strings.Contains(text, "Maximum frequency: 783.99 Hz (G5)"))
	is.True(strings.Contains(text, "Median frequency:  329.63 Hz (E4)"))
	is.True(strings.Contains(text, "Note range:        C3 – G5 (31 semitones)"))
	is.True(strings.Contains(text, "Confidence:        87.7%"))
	is.True(strings.Contains(text, "Voiced frames:     120 / 150 (3.50 s)"))
	is.True(strings.Contains(text, "Voice types:       none"))
}

func TestRenderText_Errors(t *testing.T) {
	is := is.New(t)

	var out bytes.Buffer
	renderText(&out, "quiet.wav", nil, fmt.Errorf("analyze: %w", pitchrange.ErrNoVoicedFrames))
	is.True(strings.Contains(out.String(), "No pitch detected"))

	out.Reset()
	renderText(&out, "broken.mp3", nil, errors.New("probe broken.mp3: ffprobe failed"))
	is.True(strings.Contains(out.String(), "Error: probe broken.mp3: ffprobe failed"))
}

func TestRenderJSON(t *testing.T) {
	is := is.New(t)

	var out bytes.Buffer
	is.NoErr(renderJSON(&out, "take1.wav", sampleReport(), nil))

	var decoded struct {
		File   string `json:"file"`
		Report struct {
			MinNote    string  `json:"min_note"`
			MaxNote    string  `json:"max_note"`
			Confidence float64 `json:"confidence"`
		} `json:"report"`
		Error string `json:"error"`
	}
	is.NoErr(json.Unmarshal(out.Bytes(), &decoded))
	is.Equal(decoded.File, "take1.wav")
	is.Equal(decoded.Report.MinNote, "C3") // notes encode as text
	is.Equal(decoded.Report.MaxNote, "G5")
	is.Equal(decoded.Report.Confidence, 87.654)
	is.Equal(decoded.Error, "")

	out.Reset()
	is.NoErr(renderJSON(&out, "quiet.wav", nil, pitchrange.ErrNoVoicedFrames))
	is.True(strings.Contains(out.String(), `"error":"no voiced frames detected"`))
	is.True(!strings.Contains(out.String(), `"report"`))
}

func TestDescribeNote(t *testing.T) {
	is := is.New(t)

	line, err := describeNote("440")
	is.NoErr(err)
	is.Equal(line, "440.00 Hz = A4 (+0.0 cents)")

	line, err = describeNote("A3")
	is.NoErr(err)
	is.Equal(line, "A3 = 220.00 Hz (MIDI 57)")

	_, err = describeNote("-5")
	is.True(errors.Is(err, chroma.ErrInvalidFrequency))

	_, err = describeNote("H9")
	is.True(errors.Is(err, chroma.ErrInvalidNote))
}

func TestNoteCommand(t *testing.T) {
	is := is.New(t)

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"note", "261.63", "C#4"})
	is.NoErr(rootCmd.Execute())

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	is.Equal(len(lines), 2)
	is.True(strings.HasPrefix(lines[0], "261.63 Hz = C4"))
	is.True(strings.HasPrefix(lines[1], "C#4 = 277.18 Hz"))
}
