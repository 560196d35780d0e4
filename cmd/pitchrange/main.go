package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"

	"github.com/RyanBlaney/pitchrange/logging"
	"github.com/RyanBlaney/pitchrange/pitchrange"
	"github.com/RyanBlaney/pitchrange/pitchrange/config"
	"github.com/RyanBlaney/pitchrange/transcode"
	"github.com/spf13/cobra"
)

var (
	Version   = "dev"
	GitCommit = "unknown"
)

var rootCmd = &cobra.Command{
	Use:   "pitchrange",
	Short: "Detect the pitch range of monophonic recordings",
	Long: `pitchrange tracks the fundamental frequency of a voice or instrument
recording and reports its lowest, highest and median notes.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		name, _ := cmd.Flags().GetString("log-level")
		level, err := logging.ParseLevel(name)
		if err != nil {
			return err
		}
		logging.SetGlobalLogger(logging.NewDefaultLogger())
		logging.SetLevel(level)
		return nil
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "pitchrange version %s (commit: %s, go: %s)\n",
			Version, GitCommit, runtime.Version())
	},
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze <file>...",
	Short: "Analyze the pitch range of one or more audio files",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runAnalyze,
}

var noteCmd = &cobra.Command{
	Use:   "note <hz|note>...",
	Short: "Convert frequencies to notes and notes to frequencies",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		for _, arg := range args {
			line, err := describeNote(arg)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), line)
		}
		return nil
	},
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	cfg, err := loadAnalysisConfig(cmd)
	if err != nil {
		return err
	}

	decoderConfig := transcode.DefaultDecoderConfig()
	decoderConfig.NormalizationMethod, _ = cmd.Flags().GetString("normalize")
	decoderConfig.MaxDuration, _ = cmd.Flags().GetDuration("max-duration")
	decoder := transcode.NewDecoder(decoderConfig)

	asJSON, _ := cmd.Flags().GetBool("json")
	noProgress, _ := cmd.Flags().GetBool("no-progress")

	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	progress := newProgress(!noProgress && !asJSON, cmd.ErrOrStderr())
	out := cmd.OutOrStdout()
	failed := 0

	for _, path := range args {
		name := filepath.Base(path)
		fileCtx := logging.ContextWithFields(ctx, logging.Fields{"file": name})

		report, err := analyzeFile(fileCtx, decoder, path, cfg, progress)
		if errors.Is(err, context.Canceled) {
			progress.Wait()
			return err
		}
		if err != nil {
			failed++
		}

		if asJSON {
			if err := renderJSON(out, path, report, err); err != nil {
				return err
			}
			continue
		}
		progress.Wait()
		renderText(out, path, report, err)
	}

	progress.Wait()

	if failed > 0 {
		return fmt.Errorf("%d of %d files could not be analyzed", failed, len(args))
	}
	return nil
}

// analyzeFile decodes path and runs the analysis as a background job
func analyzeFile(ctx context.Context, decoder *transcode.Decoder, path string, cfg *config.AnalysisConfig, progress *progress) (*pitchrange.Report, error) {
	logger := logging.WithContext(ctx).WithFields(logging.Fields{
		"component": "cli",
		"function":  "analyzeFile",
	})

	data, err := decoder.DecodeFile(ctx, path)
	if err != nil {
		return nil, err
	}

	logger.Debug("Decoded audio", logging.Fields{
		"sample_rate": data.SampleRate,
		"channels":    data.Channels,
		"duration":    data.Duration.Seconds(),
	})

	bar := progress.AddBar(filepath.Base(path))
	job := pitchrange.Submit(ctx, data.PCM, data.SampleRate, cfg,
		pitchrange.WithProgress(bar.Update),
		pitchrange.WithCompletion(bar.Finish))

	return job.Wait()
}

// loadAnalysisConfig builds the config from --config or --source, then applies
// explicitly set flags on top
func loadAnalysisConfig(cmd *cobra.Command) (*config.AnalysisConfig, error) {
	flags := cmd.Flags()

	var cfg *config.AnalysisConfig
	if path, _ := flags.GetString("config"); path != "" {
		loaded, err := config.LoadFile(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	} else {
		name, _ := flags.GetString("source")
		source, err := config.ParseSourceType(name)
		if err != nil {
			return nil, err
		}
		cfg = config.AnalysisConfigForSource(source)
	}

	if flags.Changed("min-hz") {
		cfg.MinFrequency, _ = flags.GetFloat64("min-hz")
	}
	if flags.Changed("max-hz") {
		cfg.MaxFrequency, _ = flags.GetFloat64("max-hz")
	}
	if flags.Changed("workers") {
		cfg.Workers, _ = flags.GetInt("workers")
	}
	if flags.Changed("tracking") {
		cfg.Tracker.Mode, _ = flags.GetString("tracking")
	}
	if flags.Changed("remove-dc") {
		cfg.Preprocess.RemoveDC, _ = flags.GetBool("remove-dc")
	}
	if flags.Changed("track") {
		cfg.KeepTrack, _ = flags.GetBool("track")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func init() {
	rootCmd.PersistentFlags().String("log-level", "warn", "Log level (debug, info, warn, error)")

	analyzeCmd.Flags().String("config", "", "JSON analysis config file")
	analyzeCmd.Flags().String("source", "general", "Recording type (general, singing, speech, instrument)")
	analyzeCmd.Flags().Float64("min-hz", 65.4, "Lowest detectable frequency in Hz")
	analyzeCmd.Flags().Float64("max-hz", 2093.0, "Highest detectable frequency in Hz")
	analyzeCmd.Flags().Int("workers", 0, "Parallel estimation workers (0 = all CPUs)")
	analyzeCmd.Flags().String("tracking", "viterbi", "Pitch tracking mode (viterbi, local_best)")
	analyzeCmd.Flags().Bool("remove-dc", false, "Remove DC offset before analysis")
	analyzeCmd.Flags().Bool("track", false, "Include the per-frame pitch track in JSON output")
	analyzeCmd.Flags().Bool("json", false, "Emit one JSON object per file")
	analyzeCmd.Flags().Bool("no-progress", false, "Disable the progress bar")
	analyzeCmd.Flags().String("normalize", "", "Loudness normalization for ffmpeg decodes (loudnorm, dynaudnorm)")
	analyzeCmd.Flags().Duration("max-duration", 0, "Analyze at most this much audio per file")

	rootCmd.AddCommand(versionCmd, analyzeCmd, noteCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
