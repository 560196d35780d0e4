package common

import (
	"fmt"
	"iter"
	"math"
)

const (
	// BaseFrameLength is the smallest analysis frame the engine uses
	BaseFrameLength = 2048

	// HopDivisor sets the hop to a quarter frame
	HopDivisor = 4
)

// Frame is a fixed-length view into a sample buffer
type Frame struct {
	Index   int       `json:"index"`
	Offset  int       `json:"offset"` // Start offset in samples
	Samples []float64 `json:"-"`      // Read-only view, never copied
}

// FrameSegmenter slices a sample buffer into overlapping full-length frames.
// The trailing partial frame is dropped.
type FrameSegmenter struct {
	samples     []float64
	frameLength int
	hopLength   int
	count       int
}

// NewFrameSegmenter creates a segmenter over samples. The buffer is not copied and
// must not be modified while frames are in use.
func NewFrameSegmenter(samples []float64, frameLength, hopLength int) (*FrameSegmenter, error) {
	if frameLength <= 0 {
		return nil, fmt.Errorf("frame length must be positive: %d", frameLength)
	}
	if hopLength <= 0 {
		return nil, fmt.Errorf("hop length must be positive: %d", hopLength)
	}

	count := 0
	if len(samples) >= frameLength {
		count = (len(samples)-frameLength)/hopLength + 1
	}

	return &FrameSegmenter{
		samples:     samples,
		frameLength: frameLength,
		hopLength:   hopLength,
		count:       count,
	}, nil
}

// Count returns the number of full frames
func (fs *FrameSegmenter) Count() int {
	return fs.count
}

// Frame returns frame i. It panics if i is out of range.
func (fs *FrameSegmenter) Frame(i int) Frame {
	if i < 0 || i >= fs.count {
		panic(fmt.Sprintf("frame index %d out of range [0, %d)", i, fs.count))
	}
	offset := i * fs.hopLength
	return Frame{
		Index:   i,
		Offset:  offset,
		Samples: fs.samples[offset : offset+fs.frameLength : offset+fs.frameLength],
	}
}

// Frames yields every full frame in order. The sequence can be ranged over any
// number of times.
func (fs *FrameSegmenter) Frames() iter.Seq[Frame] {
	return func(yield func(Frame) bool) {
		for i := range fs.count {
			if !yield(fs.Frame(i)) {
				return
			}
		}
	}
}

// FrameLength returns the frame length in samples
func (fs *FrameSegmenter) FrameLength() int {
	return fs.frameLength
}

// HopLength returns the hop length in samples
func (fs *FrameSegmenter) HopLength() int {
	return fs.hopLength
}

// FrameLengthFor returns the analysis frame length for a sample rate and the lowest
// pitch to resolve. Starting at BaseFrameLength it doubles until the half-frame lag
// range holds one full period of minHz plus room for interpolation.
func FrameLengthFor(sampleRate int, minHz float64) int {
	frameLength := BaseFrameLength
	if sampleRate <= 0 || minHz <= 0 {
		return frameLength
	}

	maxPeriod := int(math.Ceil(float64(sampleRate)/minHz)) + 2
	for frameLength/2 < maxPeriod {
		frameLength *= 2
	}
	return frameLength
}

// HopLengthFor returns the hop used with a frame length
func HopLengthFor(frameLength int) int {
	return max(frameLength/HopDivisor, 1)
}
