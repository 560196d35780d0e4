package common

import (
	"math"
	"testing"

	"github.com/matryer/is"
)

func TestFrameSegmenter_Count(t *testing.T) {
	cases := []struct {
		name           string
		length, frame  int
		hop, wantCount int
	}{
		{"shorter than frame", 100, 128, 32, 0},
		{"exactly one frame", 128, 128, 32, 1},
		{"trailing partial dropped", 200, 128, 32, 3},
		{"hop equals frame", 1000, 100, 100, 10},
		{"hop larger than frame", 1000, 100, 300, 4},
		{"empty buffer", 0, 128, 32, 0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			is := is.New(t)

			fs, err := NewFrameSegmenter(make([]float64, tc.length), tc.frame, tc.hop)
			is.NoErr(err)
			is.Equal(fs.Count(), tc.wantCount)

			if tc.length >= tc.frame {
				is.Equal(fs.Count(), (tc.length-tc.frame)/tc.hop+1)
			}
		})
	}
}

func TestFrameSegmenter_FramesAreViewsAndRestartable(t *testing.T) {
	is := is.New(t)

	samples := make([]float64, 20)
	for i := range samples {
		samples[i] = float64(i)
	}

	fs, err := NewFrameSegmenter(samples, 8, 4)
	is.NoErr(err)

	var offsets []int
	for frame := range fs.Frames() {
		is.Equal(len(frame.Samples), 8)
		is.Equal(frame.Samples[0], float64(frame.Offset)) // frame starts at its offset
		offsets = append(offsets, frame.Offset)
	}
	is.Equal(offsets, []int{0, 4, 8, 12})

	// A second pass yields the same frames
	second := 0
	for range fs.Frames() {
		second++
	}
	is.Equal(second, len(offsets))

	// Early break stops the sequence
	seen := 0
	for range fs.Frames() {
		seen++
		break
	}
	is.Equal(seen, 1)
}

func TestFrameSegmenter_InvalidLengths(t *testing.T) {
	is := is.New(t)

	_, err := NewFrameSegmenter(nil, 0, 1)
	is.True(err != nil)

	_, err = NewFrameSegmenter(nil, 16, 0)
	is.True(err != nil)
}

func TestFrameLengthFor(t *testing.T) {
	is := is.New(t)

	is.Equal(FrameLengthFor(44100, 65.4), 2048)
	is.Equal(FrameLengthFor(48000, 65.4), 2048)
	is.Equal(FrameLengthFor(96000, 65.4), 4096)
	is.Equal(FrameLengthFor(8000, 65.4), 2048)
	is.Equal(HopLengthFor(2048), 512)

	// The half frame always holds the longest period
	for _, rate := range []int{8000, 22050, 44100, 96000, 192000} {
		n := FrameLengthFor(rate, 65.4)
		is.True(n/2 > int(float64(rate)/65.4))
	}
}

func TestLowerMedian(t *testing.T) {
	is := is.New(t)

	is.Equal(LowerMedian([]float64{400, 100, 300, 200}), 200.0)
	is.Equal(LowerMedian([]float64{3, 1, 2}), 2.0)
	is.Equal(LowerMedian([]float64{7}), 7.0)
	is.Equal(LowerMedian(nil), 0.0)

	input := []float64{3, 1, 2}
	LowerMedian(input)
	is.Equal(input, []float64{3, 1, 2}) // input left untouched
}

func TestStatsHelpers(t *testing.T) {
	is := is.New(t)

	data := []float64{1, -2, 3, 4}
	is.Equal(Min(data), -2.0)
	is.Equal(Max(data), 4.0)
	is.Equal(Mean(data), 1.5)
	is.True(math.Abs(RMS([]float64{1, -1, 1, -1})-1) < 1e-12)
	is.Equal(Clamp(1.5, 0, 1), 1.0)
	is.Equal(Clamp(-0.5, 0, 1), 0.0)
	is.True(AllFinite(data))
	is.True(!AllFinite([]float64{1, math.NaN()}))
	is.True(!AllFinite([]float64{math.Inf(-1)}))
	is.True(IsPowerOfTwo(2048))
	is.True(!IsPowerOfTwo(2047))
	is.Equal(NextPowerOfTwo(3000), 4096)
}

func TestParabolicMinimum(t *testing.T) {
	is := is.New(t)

	// Samples of (x-2.3)^2 + 0.5 at x = 0..4
	data := make([]float64, 5)
	for i := range data {
		d := float64(i) - 2.3
		data[i] = d*d + 0.5
	}

	pos, val := ParabolicMinimum(data, 2)
	is.True(math.Abs(pos-2.3) < 1e-9)
	is.True(math.Abs(val-0.5) < 1e-9)

	// Edges fall back to the integer position
	pos, val = ParabolicMinimum(data, 0)
	is.Equal(pos, 0.0)
	is.Equal(val, data[0])

	// Flat neighbourhood
	pos, _ = ParabolicMinimum([]float64{1, 1, 1}, 1)
	is.Equal(pos, 1.0)
}
