package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/goccy/go-yaml"

	resampler "github.com/tphakala/go-frame-resampler"
	"github.com/tphakala/go-frame-resampler/internal/pcm"
)

const (
	supportedBitDepth = 16
	wavFormatPCM      = 1
)

// wavInput holds an open, validated input file.
type wavInput struct {
	file        *os.File
	decoder     *wav.Decoder
	format      *audio.Format
	rate        int
	channels    int
	totalFrames int64
}

// openWAVInput opens a WAV file and checks that it carries 16-bit PCM.
func openWAVInput(path string) (*wavInput, error) {
	inputFile, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open input file: %w", err)
	}

	decoder := wav.NewDecoder(inputFile)
	if !decoder.IsValidFile() {
		_ = inputFile.Close()
		return nil, fmt.Errorf("invalid WAV file: %s", path)
	}

	format := decoder.Format()
	bitDepth := int(decoder.BitDepth)
	if bitDepth != supportedBitDepth {
		_ = inputFile.Close()
		return nil, fmt.Errorf("unsupported bit depth: %d (only %d-bit PCM)", bitDepth, supportedBitDepth)
	}
	if format.NumChannels < 1 {
		_ = inputFile.Close()
		return nil, fmt.Errorf("invalid channel count: %d", format.NumChannels)
	}

	slog.Debug("input format",
		"rate", format.SampleRate,
		"channels", format.NumChannels,
		"bits", bitDepth)

	// Duration only feeds progress reporting.
	duration, err := decoder.Duration()
	if err != nil {
		duration = 0
	}

	return &wavInput{
		file:        inputFile,
		decoder:     decoder,
		format:      format,
		rate:        format.SampleRate,
		channels:    format.NumChannels,
		totalFrames: int64(duration.Seconds() * float64(format.SampleRate)),
	}, nil
}

// Close closes the input file.
func (w *wavInput) Close() error {
	return w.file.Close()
}

// wavOutput is a 16-bit PCM WAV file being written.
type wavOutput struct {
	file    *os.File
	encoder *wav.Encoder
	buf     *audio.IntBuffer
}

// createWAVOutput creates the output file and its encoder.
func createWAVOutput(path string, rate, channels int) (*wavOutput, error) {
	outputFile, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create output file: %w", err)
	}

	return &wavOutput{
		file:    outputFile,
		encoder: wav.NewEncoder(outputFile, rate, supportedBitDepth, channels, wavFormatPCM),
		buf: &audio.IntBuffer{
			Format:         &audio.Format{NumChannels: channels, SampleRate: rate},
			SourceBitDepth: supportedBitDepth,
		},
	}, nil
}

// Write appends interleaved samples.
func (w *wavOutput) Write(samples []int) error {
	if len(samples) == 0 {
		return nil
	}
	w.buf.Data = samples
	if err := w.encoder.Write(w.buf); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

// Close finalizes the WAV header and closes the file.
func (w *wavOutput) Close() error {
	encErr := w.encoder.Close()
	fileErr := w.file.Close()
	if encErr != nil {
		return fmt.Errorf("failed to finalize output: %w", encErr)
	}
	return fileErr
}

// streamStats summarizes one conversion.
type streamStats struct {
	inputFrames  int64
	outputFrames int64
	calls        int
}

// resampleStream reads the input in chunks of chunkFrames frames, converts
// each chunk and writes the result.
func resampleStream(
	in *wavInput,
	out *wavOutput,
	conv *resampler.Converter,
	chunkFrames int,
	progress *progressTracker,
) (streamStats, error) {
	var stats streamStats
	channels := in.channels

	inBuf := &audio.IntBuffer{
		Format:         in.format,
		Data:           make([]int, chunkFrames*channels),
		SourceBitDepth: supportedBitDepth,
	}
	samples := make([]int16, chunkFrames*channels)
	resampled := make([]int16, conv.MaxOutputSamples(len(samples)))
	outInts := make([]int, len(resampled))

	for {
		n, err := in.decoder.PCMBuffer(inBuf)
		if err != nil && !errors.Is(err, io.EOF) {
			return stats, fmt.Errorf("failed to read audio: %w", err)
		}
		if n == 0 {
			break
		}

		m := pcm.FromInts(samples, inBuf.Data[:n])
		written, err := conv.Resample(channels, samples[:m], resampled)
		if err != nil {
			return stats, fmt.Errorf("resampling failed: %w", err)
		}

		k := pcm.ToInts(outInts, resampled[:written])
		if err := out.Write(outInts[:k]); err != nil {
			return stats, err
		}

		stats.inputFrames += int64(m / channels)
		stats.outputFrames += int64(written / channels)
		stats.calls++
		progress.reportIfNeeded(stats.inputFrames)
	}

	return stats, nil
}

// resampleFile converts inputPath to targetRate and writes outputPath.
func resampleFile(inputPath, outputPath string, targetRate int, quality resampler.Quality, chunkFrames int) error {
	start := time.Now()

	in, err := openWAVInput(inputPath)
	if err != nil {
		return err
	}
	defer func() { _ = in.Close() }()

	conv, err := resampler.New(&resampler.Config{
		InputRate:  in.rate,
		OutputRate: targetRate,
		Channels:   in.channels,
		Quality:    quality,
	})
	if err != nil {
		return fmt.Errorf("failed to create converter: %w", err)
	}
	defer func() { _ = conv.Close() }()

	info := conv.Info()
	slog.Info("resampling",
		"input", inputPath,
		"from", in.rate,
		"to", targetRate,
		"channels", in.channels,
		"quality", quality.String())
	slog.Debug("converter",
		"algorithm", info.Algorithm,
		"taps", info.FilterLength,
		"phases", info.Phases,
		"latency", info.Latency,
		"memory", info.MemoryUsage,
		"simd", info.SIMDType)

	out, err := createWAVOutput(outputPath, targetRate, in.channels)
	if err != nil {
		return err
	}

	stats, err := resampleStream(in, out, conv, chunkFrames, newProgressTracker(in.totalFrames))
	if closeErr := out.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return err
	}

	elapsed := time.Since(start)
	slog.Info("done",
		"output", outputPath,
		"inputFrames", stats.inputFrames,
		"outputFrames", stats.outputFrames,
		"calls", stats.calls,
		"elapsed", elapsed.Round(time.Millisecond))
	if elapsed > 0 && in.rate > 0 {
		audioSeconds := float64(stats.inputFrames) / float64(in.rate)
		slog.Debug("speed", "realtime", fmt.Sprintf("%.1fx", audioSeconds/elapsed.Seconds()))
	}

	return nil
}

// loadDefaults reads a YAML defaults file. Missing keys stay zero.
func loadDefaults(path string) (options, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return options{}, fmt.Errorf("failed to read config: %w", err)
	}

	var opts options
	if err := yaml.Unmarshal(data, &opts); err != nil {
		return options{}, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return opts, nil
}

// progressTracker logs progress at debug level every progressInterval percent.
type progressTracker struct {
	totalFrames  int64
	lastProgress int
}

// newProgressTracker creates a tracker for totalFrames input frames.
func newProgressTracker(totalFrames int64) *progressTracker {
	return &progressTracker{totalFrames: totalFrames}
}

// reportIfNeeded logs progress if a threshold was crossed.
func (p *progressTracker) reportIfNeeded(currentFrames int64) {
	if p == nil || p.totalFrames <= 0 {
		return
	}

	progress := int(float64(currentFrames) / float64(p.totalFrames) * percentScale)
	if progress >= p.lastProgress+progressInterval {
		slog.Debug("progress", "percent", progress)
		p.lastProgress = progress
	}
}
