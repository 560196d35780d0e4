package transcode

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/RyanBlaney/pitchrange/logging"
)

// ErrNoSamples is wrapped when a file decodes to zero samples
var ErrNoSamples = errors.New("no audio samples decoded")

// DecodeError reports a failure to turn a file into samples
type DecodeError struct {
	Path string
	Op   string // "open", "probe", "decode"
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// AudioData is a decoded mono buffer at the file's own sample rate
type AudioData struct {
	PCM        []float64      `json:"-"`
	SampleRate int            `json:"sample_rate"`
	Channels   int            `json:"channels"` // Channel count of the source before downmixing
	Duration   time.Duration  `json:"duration"`
	Metadata   *AudioMetadata `json:"metadata,omitempty"`
}

// AudioMetadata holds the source properties detected while decoding
type AudioMetadata struct {
	SampleRate int     `json:"sample_rate"`
	Channels   int     `json:"channels"`
	BitDepth   int     `json:"bit_depth,omitempty"`
	Codec      string  `json:"codec"`
	Duration   float64 `json:"duration"`
	Bitrate    int     `json:"bitrate,omitempty"`
	Format     string  `json:"format,omitempty"`
}

// DecoderConfig holds decoder configuration
type DecoderConfig struct {
	FFmpegPath  string        `json:"ffmpeg_path"`  // Path to ffmpeg binary
	FFprobePath string        `json:"ffprobe_path"` // Path to ffprobe binary
	Timeout     time.Duration `json:"timeout"`      // Timeout for each ffmpeg/ffprobe run
	MaxDuration time.Duration `json:"max_duration"` // 0 decodes the whole file

	// Decode .wav files without ffmpeg
	NativeWAV bool `json:"native_wav"`

	// Loudness normalization applied by ffmpeg: "", "loudnorm", "dynaudnorm"
	NormalizationMethod string  `json:"normalization_method"`
	TargetLUFS          float64 `json:"target_lufs"`
	TargetPeak          float64 `json:"target_peak"`
}

// DefaultDecoderConfig returns default decoder configuration
func DefaultDecoderConfig() *DecoderConfig {
	return &DecoderConfig{
		FFmpegPath:          "ffmpeg",  // Assume in PATH
		FFprobePath:         "ffprobe", // Assume in PATH
		Timeout:             60 * time.Second,
		MaxDuration:         0,
		NativeWAV:           true,
		NormalizationMethod: "",
		TargetLUFS:          -16.0,
		TargetPeak:          -1.0,
	}
}

// Decoder turns audio files into mono sample buffers. It keeps no state
// between calls.
type Decoder struct {
	config *DecoderConfig
}

// NewDecoder creates a new audio decoder
func NewDecoder(config *DecoderConfig) *Decoder {
	if config == nil {
		config = DefaultDecoderConfig()
	}
	return &Decoder{config: config}
}

// DecodeFile decodes path to mono samples, preserving the sample rate.
// WAV files are read natively; everything else goes through ffmpeg.
// Every failure is a *DecodeError.
func (d *Decoder) DecodeFile(ctx context.Context, path string) (*AudioData, error) {
	logger := logging.WithContext(ctx).WithFields(logging.Fields{
		"component": "audio_decoder",
		"function":  "DecodeFile",
		"filename":  path,
	})

	logger.Debug("Starting audio file decode")

	if d.config.NativeWAV && strings.EqualFold(filepath.Ext(path), ".wav") {
		data, err := d.decodeWAV(path)
		if err == nil {
			logger.Debug("Decoded WAV natively", logging.Fields{
				"sample_rate": data.SampleRate,
				"channels":    data.Channels,
				"samples":     len(data.PCM),
			})
			return data, nil
		}

		var decodeErr *DecodeError
		if errors.As(err, &decodeErr) && decodeErr.Op == "open" {
			return nil, err
		}

		// Float and compressed WAV payloads are left to ffmpeg
		logger.Debug("Native WAV decode failed, falling back to ffmpeg", logging.Fields{
			"reason": err.Error(),
		})
	}

	metadata, err := d.probeAudioFile(ctx, path)
	if err != nil {
		logger.Error(err, "Failed to probe audio file")
		return nil, &DecodeError{Path: path, Op: "probe", Err: err}
	}

	logger.Debug("Audio metadata detected", logging.Fields{
		"input_sample_rate": metadata.SampleRate,
		"input_channels":    metadata.Channels,
		"input_codec":       metadata.Codec,
		"input_duration":    metadata.Duration,
		"input_bitrate":     metadata.Bitrate,
	})

	data, err := d.decodeFileWithFFmpeg(ctx, path, metadata, logger)
	if err != nil {
		return nil, &DecodeError{Path: path, Op: "decode", Err: err}
	}

	return data, nil
}

// GetConfig returns the decoder configuration
func (d *Decoder) GetConfig() DecoderConfig {
	return *d.config
}

// GetSupportedFormats returns the file extensions this decoder is expected to handle
func (d *Decoder) GetSupportedFormats() []string {
	return []string{
		"wav", "mp3", "flac", "ogg", "opus", "m4a", "aac", "wma", "aiff",
		"webm", "mp4", "mov", "mkv",
		// FFmpeg supports many more formats
	}
}
