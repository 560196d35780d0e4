package pitchrange

import "github.com/RyanBlaney/pitchrange/algorithms/chroma"

// VoiceType is a named vocal range
type VoiceType struct {
	Name string      `json:"name"`
	Low  chroma.Note `json:"low"`
	High chroma.Note `json:"high"`
}

// Contains reports whether both notes sit inside the range
func (v VoiceType) Contains(low, high chroma.Note) bool {
	return low.MIDI() >= v.Low.MIDI() && high.MIDI() <= v.High.MIDI()
}

// VoiceTypes lists the classical vocal ranges, lowest first
var VoiceTypes = []VoiceType{
	{Name: "bass", Low: chroma.Note{Name: "E", Octave: 2}, High: chroma.Note{Name: "E", Octave: 4}},
	{Name: "baritone", Low: chroma.Note{Name: "G", Octave: 2}, High: chroma.Note{Name: "G", Octave: 4}},
	{Name: "tenor", Low: chroma.Note{Name: "C", Octave: 3}, High: chroma.Note{Name: "C", Octave: 5}},
	{Name: "alto", Low: chroma.Note{Name: "F", Octave: 3}, High: chroma.Note{Name: "F", Octave: 5}},
	{Name: "soprano", Low: chroma.Note{Name: "C", Octave: 4}, High: chroma.Note{Name: "C", Octave: 6}},
}

// ClassifyRange returns the voice types whose range covers [low, high], ordered
// low to high. The result is empty when no single voice type fits.
func ClassifyRange(low, high chroma.Note) []VoiceType {
	matches := []VoiceType{}
	for _, v := range VoiceTypes {
		if v.Contains(low, high) {
			matches = append(matches, v)
		}
	}
	return matches
}
