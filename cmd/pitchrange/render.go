package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/RyanBlaney/pitchrange/algorithms/chroma"
	"github.com/RyanBlaney/pitchrange/pitchrange"
)

// renderText prints a report, or the reason there is none
func renderText(w io.Writer, path string, report *pitchrange.Report, err error) {
	fmt.Fprintf(w, "%s\n", path)

	if err != nil {
		if errors.Is(err, pitchrange.ErrNoVoicedFrames) {
			fmt.Fprintf(w, "  No pitch detected in the analyzed range\n\n")
			return
		}
		fmt.Fprintf(w, "  Error: %v\n\n", err)
		return
	}

	fmt.Fprintf(w, "  Minimum frequency: %s\n", formatPitch(report.MinFrequency, report.MinNote))
	fmt.Fprintf(w, "  Maximum frequency: %s\n", formatPitch(report.MaxFrequency, report.MaxNote))
	fmt.Fprintf(w, "  Median frequency:  %s\n", formatPitch(report.MedianFrequency, report.MedianNote))
	fmt.Fprintf(w, "  Note range:        %s (%d semitones)\n", report.NoteRange(), report.SemitoneSpan())
	fmt.Fprintf(w, "  Confidence:        %.1f%%\n", report.Confidence)
	fmt.Fprintf(w, "  Voiced frames:     %d / %d (%.2f s)\n", report.VoicedFrames, report.TotalFrames, report.Duration)

	voiceTypes := report.VoiceTypeNames()
	if voiceTypes == "" {
		voiceTypes = "none"
	}
	fmt.Fprintf(w, "  Voice types:       %s\n\n", voiceTypes)
}

func formatPitch(hz float64, note chroma.Note) string {
	return fmt.Sprintf("%.2f Hz (%s)", hz, note)
}

type fileResult struct {
	File   string             `json:"file"`
	Report *pitchrange.Report `json:"report,omitempty"`
	Error  string             `json:"error,omitempty"`
}

// renderJSON writes one JSON object per file
func renderJSON(w io.Writer, path string, report *pitchrange.Report, err error) error {
	result := fileResult{File: path, Report: report}
	if err != nil {
		result.Error = err.Error()
	}
	return json.NewEncoder(w).Encode(result)
}

// describeNote converts "440" to its note and "A4" to its frequency
func describeNote(arg string) (string, error) {
	if hz, err := strconv.ParseFloat(arg, 64); err == nil {
		note, err := chroma.NoteFromFrequency(hz)
		if err != nil {
			return "", err
		}
		cents, _ := chroma.CentsOffset(hz)
		return fmt.Sprintf("%.2f Hz = %s (%+.1f cents)", hz, note, cents), nil
	}

	note, err := chroma.ParseNote(arg)
	if err != nil {
		return "", fmt.Errorf("%q is neither a frequency nor a note: %w", strings.TrimSpace(arg), err)
	}
	return fmt.Sprintf("%s = %.2f Hz (MIDI %d)", note, note.Frequency(), note.MIDI()), nil
}
