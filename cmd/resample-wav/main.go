// Command resample-wav resamples 16-bit PCM WAV files to a target sample rate.
//
// Usage:
//
//	resample-wav --rate 48 input.wav output.wav
//	resample-wav --rate 16 --quality high input.wav output.wav
//	resample-wav --config defaults.yaml input.wav output.wav
//
// A defaults file is YAML with any of the keys rate (kHz), quality and
// chunk (frames per call). Flags given on the command line win over it.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"runtime/pprof"

	"github.com/spf13/cobra"

	resampler "github.com/tphakala/go-frame-resampler"
)

const (
	defaultRateKHz     = 48.0
	defaultQuality     = "best"
	defaultChunkFrames = 4096
	kHzToHz            = 1000

	progressInterval = 10 // Log progress every N%
	percentScale     = 100
)

// options are the resolved settings for one run.
type options struct {
	RateKHz float64 `yaml:"rate"`
	Quality string  `yaml:"quality"`
	Chunk   int     `yaml:"chunk"`
}

func defaultOptions() options {
	return options{
		RateKHz: defaultRateKHz,
		Quality: defaultQuality,
		Chunk:   defaultChunkFrames,
	}
}

// cliFlags holds the raw flag values of one command instance.
type cliFlags struct {
	opts       options
	configPath string
	cpuProfile string
	verbose    bool
}

func newRootCmd() *cobra.Command {
	f := &cliFlags{opts: defaultOptions()}

	cmd := &cobra.Command{
		Use:   "resample-wav [flags] <input.wav> <output.wav>",
		Short: "Resample 16-bit PCM WAV files",
		Long: `resample-wav converts a 16-bit PCM WAV file to another sample rate.

The file is streamed through one converter in chunks of --chunk frames,
so memory use does not depend on the file length.

Examples:
  resample-wav --rate 48 input.wav output.wav
  resample-wav --rate 16 --quality medium speech.wav speech16k.wav`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			initLogging(f.verbose)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, f, args[0], args[1])
		},
	}

	cmd.Flags().StringVar(&f.configPath, "config", "", "YAML file with default rate, quality and chunk")
	cmd.Flags().Float64VarP(&f.opts.RateKHz, "rate", "r", defaultRateKHz, "target sample rate in kHz")
	cmd.Flags().StringVarP(&f.opts.Quality, "quality", "q", defaultQuality, "quality: fastest, low, medium, high, best")
	cmd.Flags().IntVar(&f.opts.Chunk, "chunk", defaultChunkFrames, "frames per conversion call")
	cmd.Flags().StringVar(&f.cpuProfile, "cpuprofile", "", "write CPU profile to file")
	cmd.Flags().BoolVarP(&f.verbose, "verbose", "v", false, "verbose output")

	return cmd
}

func initLogging(verbose bool) {
	logLevel := slog.LevelInfo
	if verbose {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel})))
}

func run(cmd *cobra.Command, f *cliFlags, inputPath, outputPath string) error {
	opts, quality, err := resolveOptions(cmd, f)
	if err != nil {
		return err
	}

	if f.cpuProfile != "" {
		pf, err := os.Create(f.cpuProfile)
		if err != nil {
			return fmt.Errorf("failed to create CPU profile: %w", err)
		}
		defer func() { _ = pf.Close() }()

		if err := pprof.StartCPUProfile(pf); err != nil {
			return fmt.Errorf("failed to start CPU profile: %w", err)
		}
		defer pprof.StopCPUProfile()
		slog.Debug("CPU profiling enabled", "file", f.cpuProfile)
	}

	targetRate := int(opts.RateKHz * kHzToHz)
	return resampleFile(inputPath, outputPath, targetRate, quality, opts.Chunk)
}

// resolveOptions merges the defaults file with the flags the user set
// explicitly and validates the result.
func resolveOptions(cmd *cobra.Command, f *cliFlags) (options, resampler.Quality, error) {
	opts := defaultOptions()

	if f.configPath != "" {
		fileOpts, err := loadDefaults(f.configPath)
		if err != nil {
			return options{}, 0, err
		}
		if fileOpts.RateKHz != 0 {
			opts.RateKHz = fileOpts.RateKHz
		}
		if fileOpts.Quality != "" {
			opts.Quality = fileOpts.Quality
		}
		if fileOpts.Chunk != 0 {
			opts.Chunk = fileOpts.Chunk
		}
	}

	flags := cmd.Flags()
	if flags.Changed("rate") {
		opts.RateKHz = f.opts.RateKHz
	}
	if flags.Changed("quality") {
		opts.Quality = f.opts.Quality
	}
	if flags.Changed("chunk") {
		opts.Chunk = f.opts.Chunk
	}

	if opts.RateKHz <= 0 {
		return options{}, 0, fmt.Errorf("invalid target rate: %g kHz", opts.RateKHz)
	}
	if opts.Chunk <= 0 {
		return options{}, 0, fmt.Errorf("invalid chunk size: %d", opts.Chunk)
	}
	quality, err := resampler.ParseQuality(opts.Quality)
	if err != nil {
		return options{}, 0, err
	}

	return opts, quality, nil
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
