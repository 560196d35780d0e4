package chroma

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

const (
	// ReferenceFrequency is the tuning reference (A4)
	ReferenceFrequency = 440.0

	// ReferenceMIDI is the MIDI note number of A4
	ReferenceMIDI = 69
)

// ErrInvalidFrequency is returned for frequencies that are not positive and finite
var ErrInvalidFrequency = errors.New("invalid frequency")

// ErrInvalidNote is returned when a note name cannot be parsed
var ErrInvalidNote = errors.New("invalid note name")

// PitchClassNames is the 12-entry equal-tempered pitch-class table starting at C
var PitchClassNames = [12]string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}

// flatAliases maps flat spellings accepted by ParseNote to their sharp equivalents
var flatAliases = map[string]string{
	"DB": "C#",
	"EB": "D#",
	"GB": "F#",
	"AB": "G#",
	"BB": "A#",
}

// Note is an equal-tempered pitch: a pitch class name and an octave in
// scientific pitch notation (C4 is middle C, A4 = 440 Hz).
type Note struct {
	Name   string `json:"name"`
	Octave int    `json:"octave"`
}

// String renders the note as "{name}{octave}", e.g. "C#4"
func (n Note) String() string {
	return fmt.Sprintf("%s%d", n.Name, n.Octave)
}

// MarshalText renders the note for JSON map keys and text encoders
func (n Note) MarshalText() ([]byte, error) {
	return []byte(n.String()), nil
}

// UnmarshalText parses a note written by MarshalText
func (n *Note) UnmarshalText(text []byte) error {
	parsed, err := ParseNote(string(text))
	if err != nil {
		return err
	}
	*n = parsed
	return nil
}

// PitchClass returns the index of the note name in PitchClassNames, or -1
func (n Note) PitchClass() int {
	for i, name := range PitchClassNames {
		if name == n.Name {
			return i
		}
	}
	return -1
}

// MIDI returns the MIDI note number
func (n Note) MIDI() int {
	return (n.Octave+1)*12 + n.PitchClass()
}

// Frequency returns the equal-tempered reference frequency of the note in Hz
func (n Note) Frequency() float64 {
	return MIDIToFrequency(n.MIDI())
}

// NoteFromFrequency maps a frequency to the nearest equal-tempered note
func NoteFromFrequency(hz float64) (Note, error) {
	midi, err := FrequencyToMIDI(hz)
	if err != nil {
		return Note{}, err
	}
	return NoteFromMIDI(midi), nil
}

// NoteFromMIDI maps a MIDI note number to a note. Octaves use floor division so
// numbers below 0 keep the C-based octave boundaries.
func NoteFromMIDI(midi int) Note {
	octave := floorDiv(midi, 12) - 1
	index := midi - floorDiv(midi, 12)*12

	return Note{
		Name:   PitchClassNames[index],
		Octave: octave,
	}
}

// FrequencyToMIDI returns the nearest MIDI note number for a frequency
func FrequencyToMIDI(hz float64) (int, error) {
	if hz <= 0 || math.IsNaN(hz) || math.IsInf(hz, 0) {
		return 0, fmt.Errorf("%w: %v Hz", ErrInvalidFrequency, hz)
	}

	semitones := math.Round(12 * math.Log2(hz/ReferenceFrequency))
	return ReferenceMIDI + int(semitones), nil
}

// MIDIToFrequency returns the equal-tempered frequency of a MIDI note number
func MIDIToFrequency(midi int) float64 {
	return ReferenceFrequency * math.Pow(2, float64(midi-ReferenceMIDI)/12)
}

// CentsOffset returns how far hz sits from its nearest note, in cents (-50..+50)
func CentsOffset(hz float64) (float64, error) {
	midi, err := FrequencyToMIDI(hz)
	if err != nil {
		return 0, err
	}
	return 1200 * math.Log2(hz/MIDIToFrequency(midi)), nil
}

// SemitoneDistance returns the number of semitones from a to b
func SemitoneDistance(a, b Note) int {
	return b.MIDI() - a.MIDI()
}

// ParseNote parses names such as "A4", "C#3", "Bb2" or "c-1"
func ParseNote(s string) (Note, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Note{}, fmt.Errorf("%w: empty", ErrInvalidNote)
	}

	// Split at the first character that starts the octave number
	split := len(s)
	for i := 1; i < len(s); i++ {
		if s[i] == '-' || (s[i] >= '0' && s[i] <= '9') {
			split = i
			break
		}
	}
	if split == len(s) {
		return Note{}, fmt.Errorf("%w: %q has no octave", ErrInvalidNote, s)
	}

	name := strings.ToUpper(s[:split])
	if alias, ok := flatAliases[name]; ok {
		name = alias
	}

	octave, err := strconv.Atoi(s[split:])
	if err != nil {
		return Note{}, fmt.Errorf("%w: %q has a bad octave", ErrInvalidNote, s)
	}

	note := Note{Name: name, Octave: octave}
	if note.PitchClass() < 0 {
		return Note{}, fmt.Errorf("%w: unknown pitch class %q", ErrInvalidNote, s[:split])
	}

	return note, nil
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}
