package resampler

import (
	"errors"
	"fmt"
	"strings"

	"github.com/tphakala/go-frame-resampler/internal/engine"
	"github.com/tphakala/go-frame-resampler/internal/pcm"
	"github.com/tphakala/go-frame-resampler/internal/pump"
	"github.com/tphakala/simd/cpu"
)

// Config holds resampling configuration.
type Config struct {
	// InputRate is the sample rate of input audio in Hz.
	InputRate int

	// OutputRate is the desired output sample rate in Hz.
	OutputRate int

	// Channels is the number of interleaved channels per frame.
	Channels int

	// Quality selects the converter kernel. The zero value is
	// QualityFastest, not DefaultQuality; set it explicitly.
	Quality Quality
}

// Quality enumerates the converter kernels. Tap counts below are for
// upsampling; downsampling by a factor r widens the kernel by ceil(r), up to
// 256 taps.
type Quality int

const (
	// QualityFastest interpolates linearly. Lowest CPU, audible aliasing.
	QualityFastest Quality = iota

	// QualityLow uses a 4-tap windowed sinc.
	QualityLow

	// QualityMedium uses an 8-tap windowed sinc.
	QualityMedium

	// QualityHigh uses a 16-tap windowed sinc.
	QualityHigh

	// QualityBest uses a 32-tap windowed sinc.
	QualityBest
)

var qualityNames = [...]string{
	QualityFastest: "fastest",
	QualityLow:     "low",
	QualityMedium:  "medium",
	QualityHigh:    "high",
	QualityBest:    "best",
}

// String returns the lower-case tier name.
func (q Quality) String() string {
	if q < QualityFastest || q > QualityBest {
		return fmt.Sprintf("Quality(%d)", int(q))
	}
	return qualityNames[q]
}

// ParseQuality parses a tier name as returned by [Quality.String].
func ParseQuality(s string) (Quality, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for q, n := range qualityNames {
		if n == name {
			return Quality(q), nil
		}
	}
	return 0, fmt.Errorf("%w: unknown quality %q", ErrInvalidConfig, s)
}

// Common errors returned by the resampler.
var (
	// ErrInvalidConfig indicates invalid configuration parameters.
	ErrInvalidConfig = errors.New("invalid resampler configuration")

	// ErrBufferTooSmall indicates the output buffer is too small.
	ErrBufferTooSmall = errors.New("output buffer too small")

	// ErrChannelCountMismatch indicates a call used a different channel
	// count than the converter was created with.
	ErrChannelCountMismatch = errors.New("channel count mismatch")

	// ErrInvalidHandle indicates use of a nil or closed converter.
	ErrInvalidHandle = errors.New("invalid converter handle")
)

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.InputRate <= 0 || c.OutputRate <= 0 {
		return fmt.Errorf("%w: sample rates must be positive", ErrInvalidConfig)
	}

	if c.Channels < 1 {
		return fmt.Errorf("%w: channels must be at least 1", ErrInvalidConfig)
	}

	if c.Channels > maxChannels {
		return fmt.Errorf("%w: too many channels (max %d)", ErrInvalidConfig, maxChannels)
	}

	ratio := float64(c.OutputRate) / float64(c.InputRate)
	if ratio < minRatioFactor || ratio > maxRatioFactor {
		return fmt.Errorf("%w: resampling ratio out of range (%v to %v)", ErrInvalidConfig, minRatioFactor, maxRatioFactor)
	}

	if c.Quality < QualityFastest || c.Quality > QualityBest {
		return fmt.Errorf("%w: unknown quality %d", ErrInvalidConfig, int(c.Quality))
	}

	return nil
}

// toEngineQuality converts a Quality to engine.Quality.
func toEngineQuality(q Quality) engine.Quality {
	switch q {
	case QualityLow:
		return engine.QualityLow
	case QualityMedium:
		return engine.QualityMedium
	case QualityHigh:
		return engine.QualityHigh
	case QualityBest:
		return engine.QualityBest
	default:
		return engine.QualityFastest
	}
}

// Converter resamples interleaved audio for one stream.
//
// The zero value is not usable; create converters with [New].
type Converter struct {
	cfg  Config
	conv *engine.Converter[float32]

	// Scratch buffers for the fixed-point path, grown on demand.
	scratchIn  []float32
	scratchOut []float32

	// Scratch buffers for the byte path.
	pcmIn  []int16
	pcmOut []int16
}

// New creates a converter with the specified configuration.
func New(config *Config) (*Converter, error) {
	if config == nil {
		return nil, fmt.Errorf("%w: config is nil", ErrInvalidConfig)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	conv, err := engine.NewConverter[float32](engine.Config{
		Channels:   config.Channels,
		InputRate:  config.InputRate,
		OutputRate: config.OutputRate,
		Quality:    toEngineQuality(config.Quality),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	return &Converter{cfg: *config, conv: conv}, nil
}

// Close releases the converter. Using or closing it again returns
// ErrInvalidHandle.
func (c *Converter) Close() error {
	if c == nil || c.conv == nil {
		return ErrInvalidHandle
	}
	err := c.conv.Close()
	c.conv = nil
	c.scratchIn = nil
	c.scratchOut = nil
	c.pcmIn = nil
	c.pcmOut = nil
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidHandle, err)
	}
	return nil
}

// check validates the handle, the channel count and the output capacity
// for an input of inSamples samples. It returns the whole-frame input length.
func (c *Converter) check(channels, inSamples, outCapacity int) (int, error) {
	if c == nil || c.conv == nil {
		return 0, ErrInvalidHandle
	}
	if channels != c.cfg.Channels {
		return 0, fmt.Errorf("%w: converter has %d channels, call has %d",
			ErrChannelCountMismatch, c.cfg.Channels, channels)
	}
	if need := c.MaxOutputSamples(inSamples); outCapacity < need {
		return 0, fmt.Errorf("%w: need %d samples, have %d", ErrBufferTooSmall, need, outCapacity)
	}
	return inSamples / channels * channels, nil
}

// Resample converts the whole frames of in and writes the result to out.
// It returns the number of samples written, always a multiple of channels.
//
// out must hold at least MaxOutputSamples(len(in)) samples. A trailing
// partial frame in in is ignored. Samples are rounded half away from zero
// and saturated to the int16 range.
func (c *Converter) Resample(channels int, in, out []int16) (int, error) {
	n, err := c.check(channels, len(in), len(out))
	if err != nil {
		return 0, err
	}

	c.scratchIn = grow(c.scratchIn, n)
	if _, err := pcm.Widen(c.scratchIn, in[:n]); err != nil {
		return 0, fmt.Errorf("%w: %w", ErrBufferTooSmall, err)
	}

	c.scratchOut = grow(c.scratchOut, c.MaxOutputSamples(n))
	res, err := pump.Run[float32](c.conv, channels, c.scratchIn, c.scratchOut)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrBufferTooSmall, err)
	}

	written, err := pcm.Narrow(out, c.scratchOut, res.OutputSamples)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrBufferTooSmall, err)
	}
	return written, nil
}

// ResampleFloat32 is like Resample for float32 samples. Values pass through
// unscaled and unclamped.
func (c *Converter) ResampleFloat32(channels int, in, out []float32) (int, error) {
	n, err := c.check(channels, len(in), len(out))
	if err != nil {
		return 0, err
	}

	res, err := pump.Run[float32](c.conv, channels, in[:n], out)
	if err != nil {
		return res.OutputSamples, fmt.Errorf("%w: %w", ErrBufferTooSmall, err)
	}
	return res.OutputSamples, nil
}

// ResampleBytes is like Resample for 16-bit little-endian PCM byte streams.
// It returns the number of bytes written. out must hold at least
// MaxOutputSamples(len(in)/2) samples.
func (c *Converter) ResampleBytes(channels int, in, out []byte) (int, error) {
	n, err := c.check(channels, len(in)/pcm.BytesPerSample, len(out)/pcm.BytesPerSample)
	if err != nil {
		return 0, err
	}

	c.pcmIn = grow(c.pcmIn, n)
	pcm.DecodeLE(c.pcmIn, in)

	c.pcmOut = grow(c.pcmOut, c.MaxOutputSamples(n))
	written, err := c.Resample(channels, c.pcmIn, c.pcmOut)
	if err != nil {
		return 0, err
	}
	return pcm.EncodeLE(out, c.pcmOut[:written]) * pcm.BytesPerSample, nil
}

// MaxOutputSamples returns the output capacity a call with inputSamples
// input samples requires.
func (c *Converter) MaxOutputSamples(inputSamples int) int {
	if c == nil || c.conv == nil || inputSamples <= 0 {
		return 0
	}
	return c.conv.MaxOutputFrames(inputSamples/c.cfg.Channels) * c.cfg.Channels
}

// Reset clears the filter history so the next call starts a new stream.
func (c *Converter) Reset() {
	if c != nil && c.conv != nil {
		c.conv.Reset()
	}
}

// Channels returns the configured channel count.
func (c *Converter) Channels() int {
	return c.cfg.Channels
}

// Ratio returns the resampling ratio (output_rate / input_rate).
func (c *Converter) Ratio() float64 {
	return float64(c.cfg.OutputRate) / float64(c.cfg.InputRate)
}

// Latency returns the converter delay in input frames.
func (c *Converter) Latency() int {
	if c == nil || c.conv == nil {
		return 0
	}
	return c.conv.Latency()
}

// Info returns information about the converter implementation.
type Info struct {
	// Algorithm names the kernel in use: linear, polyphase or sinc.
	Algorithm string

	// FilterLength is the number of filter taps.
	FilterLength int

	// Phases is the number of coefficient rows the kernel holds.
	Phases int

	// Latency is the processing latency in input frames.
	Latency int

	// MemoryUsage is the approximate memory usage in bytes.
	MemoryUsage int64

	// SIMDType describes the SIMD instruction set in use.
	SIMDType string
}

// Info returns information about the converter.
func (c *Converter) Info() Info {
	if c == nil || c.conv == nil {
		return Info{Algorithm: "closed", SIMDType: cpu.Info()}
	}
	return Info{
		Algorithm:    c.conv.Kernel().String(),
		FilterLength: c.conv.NumTaps(),
		Phases:       c.conv.Phases(),
		Latency:      c.conv.Latency(),
		MemoryUsage:  c.conv.GetMemoryUsage(),
		SIMDType:     cpu.Info(),
	}
}

// Statistics returns the frames pushed and pulled since creation or Reset.
func (c *Converter) Statistics() map[string]int64 {
	if c == nil || c.conv == nil {
		return map[string]int64{}
	}
	return c.conv.GetStatistics()
}

func grow[T float32 | int16](buf []T, n int) []T {
	if cap(buf) < n {
		return make([]T, n)
	}
	return buf[:n]
}
