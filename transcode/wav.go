package transcode

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/go-audio/wav"
)

// wavFormatPCM is the WAVE_FORMAT_PCM audio format tag
const wavFormatPCM = 1

// decodeWAV reads an integer PCM WAV file and averages its channels to mono
func (d *Decoder) decodeWAV(path string) (*AudioData, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, &DecodeError{Path: path, Op: "open", Err: err}
	}
	defer file.Close()

	decoder := wav.NewDecoder(file)
	if !decoder.IsValidFile() {
		return nil, &DecodeError{Path: path, Op: "decode", Err: errors.New("invalid WAV file")}
	}
	if decoder.WavAudioFormat != wavFormatPCM {
		return nil, &DecodeError{Path: path, Op: "decode",
			Err: fmt.Errorf("unsupported WAV audio format %d", decoder.WavAudioFormat)}
	}

	buf, err := decoder.FullPCMBuffer()
	if err != nil {
		return nil, &DecodeError{Path: path, Op: "decode", Err: fmt.Errorf("could not read PCM buffer: %w", err)}
	}

	channels := int(decoder.NumChans)
	bitDepth := int(decoder.BitDepth)
	sampleRate := int(decoder.SampleRate)
	if channels < 1 || bitDepth < 8 || sampleRate <= 0 {
		return nil, &DecodeError{Path: path, Op: "decode",
			Err: fmt.Errorf("bad WAV header: channels=%d bit_depth=%d sample_rate=%d", channels, bitDepth, sampleRate)}
	}

	pcm := downmix(buf.Data, channels, bitDepth)
	if len(pcm) == 0 {
		return nil, &DecodeError{Path: path, Op: "decode", Err: ErrNoSamples}
	}

	if d.config.MaxDuration > 0 {
		limit := int(d.config.MaxDuration.Seconds() * float64(sampleRate))
		if limit < len(pcm) {
			pcm = pcm[:limit]
		}
	}

	return &AudioData{
		PCM:        pcm,
		SampleRate: sampleRate,
		Channels:   channels,
		Duration:   time.Duration(len(pcm)) * time.Second / time.Duration(sampleRate),
		Metadata: &AudioMetadata{
			SampleRate: sampleRate,
			Channels:   channels,
			BitDepth:   bitDepth,
			Codec:      "pcm",
			Duration:   float64(len(pcm)) / float64(sampleRate),
			Format:     "wav",
		},
	}, nil
}

// downmix averages interleaved integer samples into mono floats in [-1, 1].
// 8-bit WAV data is unsigned and centered on 128.
func downmix(data []int, channels, bitDepth int) []float64 {
	frames := len(data) / channels
	if frames == 0 {
		return nil
	}

	scale := float64(int(1) << (bitDepth - 1))
	offset := 0.0
	if bitDepth == 8 {
		offset = 128
	}

	pcm := make([]float64, frames)
	for i := range frames {
		sum := 0.0
		for ch := range channels {
			sum += float64(data[i*channels+ch]) - offset
		}
		pcm[i] = sum / float64(channels) / scale
	}

	return pcm
}
