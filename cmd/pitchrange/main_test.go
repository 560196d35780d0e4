package main

import (
	"bytes"
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/matryer/is"
)

func writeToneWAV(t *testing.T, path string, freq float64) {
	t.Helper()

	const sampleRate = 44100
	data := make([]int, sampleRate)
	for i := range data {
		data[i] = int(12000 * math.Sin(2*math.Pi*freq*float64(i)/sampleRate))
	}

	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	defer f.Close()

	enc := wav.NewEncoder(f, sampleRate, 16, 1, 1)
	if err := enc.Write(&audio.IntBuffer{
		Format:         &audio.Format{NumChannels: 1, SampleRate: sampleRate},
		Data:           data,
		SourceBitDepth: 16,
	}); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := enc.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
}

func TestAnalyzeCommand_JSON(t *testing.T) {
	is := is.New(t)

	path := filepath.Join(t.TempDir(), "a3.wav")
	writeToneWAV(t, path, 220)

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"analyze", "--json", "--no-progress", "--log-level", "error", path})
	is.NoErr(rootCmd.Execute())

	var result struct {
		File   string `json:"file"`
		Report struct {
			MedianNote string  `json:"median_note"`
			Confidence float64 `json:"confidence"`
		} `json:"report"`
	}
	is.NoErr(json.Unmarshal(out.Bytes(), &result))
	is.Equal(result.File, path)
	is.Equal(result.Report.MedianNote, "A3")
	is.True(result.Report.Confidence > 90)
}

func TestAnalyzeCommand_RejectsBadRange(t *testing.T) {
	is := is.New(t)

	path := filepath.Join(t.TempDir(), "a3.wav")
	writeToneWAV(t, path, 220)

	rootCmd.SetOut(&bytes.Buffer{})
	rootCmd.SetErr(&bytes.Buffer{})
	rootCmd.SetArgs([]string{"analyze", "--min-hz", "900", "--max-hz", "100", path})
	is.True(rootCmd.Execute() != nil)

	// flag values persist on the shared command tree
	is.NoErr(analyzeCmd.Flags().Set("min-hz", "65.4"))
	is.NoErr(analyzeCmd.Flags().Set("max-hz", "2093"))
}
