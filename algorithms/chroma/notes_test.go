package chroma

import (
	"errors"
	"math"
	"testing"

	"github.com/matryer/is"
)

func TestNoteFromFrequency_KnownPitches(t *testing.T) {
	cases := []struct {
		hz   float64
		want string
	}{
		{440.0, "A4"},
		{261.63, "C4"},
		{220.0, "A3"},
		{65.41, "C2"},
		{2093.0, "C7"},
		{27.5, "A0"},
		{466.16, "A#4"},
		{16.35, "C0"},
	}

	for _, tc := range cases {
		is := is.New(t)

		note, err := NoteFromFrequency(tc.hz)
		is.NoErr(err)
		is.Equal(note.String(), tc.want)
	}
}

func TestNoteFromFrequency_Invalid(t *testing.T) {
	for _, hz := range []float64{0, -1, -440, math.NaN(), math.Inf(1)} {
		is := is.New(t)

		_, err := NoteFromFrequency(hz)
		is.True(errors.Is(err, ErrInvalidFrequency))
	}
}

func TestNoteFromMIDI_NegativeOctaves(t *testing.T) {
	is := is.New(t)

	is.Equal(NoteFromMIDI(0), Note{Name: "C", Octave: -1})
	is.Equal(NoteFromMIDI(-1), Note{Name: "B", Octave: -2})
	is.Equal(NoteFromMIDI(60), Note{Name: "C", Octave: 4})
	is.Equal(NoteFromMIDI(69).MIDI(), 69)
}

func TestNoteRoundTrip(t *testing.T) {
	// frequency -> note -> reference frequency -> note is stable and the
	// reference lies on the note within a cent
	for hz := 30.0; hz < 4200; hz *= 1.013 {
		is := is.New(t)

		note, err := NoteFromFrequency(hz)
		is.NoErr(err)

		ref := note.Frequency()
		again, err := NoteFromFrequency(ref)
		is.NoErr(err)
		is.Equal(again, note)

		cents, err := CentsOffset(ref)
		is.NoErr(err)
		is.True(math.Abs(cents) < 1)

		offset, err := CentsOffset(hz)
		is.NoErr(err)
		is.True(math.Abs(offset) <= 50+1e-9)
	}
}

func TestParseNote(t *testing.T) {
	is := is.New(t)

	n, err := ParseNote("C#4")
	is.NoErr(err)
	is.Equal(n, Note{Name: "C#", Octave: 4})

	n, err = ParseNote("bb2")
	is.NoErr(err)
	is.Equal(n.String(), "A#2")

	n, err = ParseNote("C-1")
	is.NoErr(err)
	is.Equal(n.MIDI(), 0)

	is.True(math.Abs(mustParse(t, "A3").Frequency()-220) < 1e-9)

	for _, bad := range []string{"", "H2", "C", "A#x", "#4"} {
		_, err := ParseNote(bad)
		is.True(errors.Is(err, ErrInvalidNote))
	}
}

func TestNoteTextMarshalling(t *testing.T) {
	is := is.New(t)

	text, err := Note{Name: "G", Octave: 5}.MarshalText()
	is.NoErr(err)
	is.Equal(string(text), "G5")

	var n Note
	is.NoErr(n.UnmarshalText([]byte("D#3")))
	is.Equal(n, Note{Name: "D#", Octave: 3})
}

func TestSemitoneDistance(t *testing.T) {
	is := is.New(t)

	is.Equal(SemitoneDistance(mustParse(t, "C3"), mustParse(t, "G5")), 31)
	is.Equal(SemitoneDistance(mustParse(t, "A4"), mustParse(t, "A3")), -12)
}

func mustParse(t *testing.T, s string) Note {
	t.Helper()
	n, err := ParseNote(s)
	if err != nil {
		t.Fatalf("parse %q: %v", s, err)
	}
	return n
}
