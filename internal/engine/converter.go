// Package engine implements a frame-at-a-time multi-channel sample rate
// converter with a push/pull interface.
//
// The converter keeps an integer phase in units of 1/denominator input
// frames, where the input and output rates reduced by their GCD give
// numerator = in/g and denominator = out/g. Pulling a frame advances the
// phase by numerator; pushing a frame retreats it by denominator. Input is
// needed whenever the phase has reached a whole input frame.
//
// Type parameter F must be float32 or float64 and controls the precision of
// the history and the dot products.
package engine

import (
	"errors"
	"fmt"

	"github.com/tphakala/go-frame-resampler/internal/filter"
	"github.com/tphakala/go-frame-resampler/internal/mathutil"
	"github.com/tphakala/go-frame-resampler/internal/pump"
	"github.com/tphakala/go-frame-resampler/internal/simdops"
)

// ErrClosed is returned when a closed converter is closed again.
var ErrClosed = errors.New("engine: converter already closed")

// Config describes a converter.
type Config struct {
	Channels   int
	InputRate  int
	OutputRate int
	Quality    Quality
}

// Validate checks if the configuration is valid.
func (c Config) Validate() error {
	if c.Channels < 1 {
		return fmt.Errorf("channels must be at least 1: %d", c.Channels)
	}
	if c.InputRate <= 0 || c.OutputRate <= 0 {
		return fmt.Errorf("sample rates must be positive: input=%d, output=%d", c.InputRate, c.OutputRate)
	}
	if !c.Quality.Valid() {
		return fmt.Errorf("unknown quality: %s", c.Quality)
	}
	return nil
}

// Converter is a push/pull sample rate converter.
//
// A Converter is not safe for concurrent use.
type Converter[F simdops.Float] struct {
	cfg Config

	numerator   int
	denominator int
	phase       int

	// Per-channel history of 2*numTaps samples. Every frame is written at
	// cursor and cursor+numTaps, so history[ch][cursor:cursor+numTaps] is
	// always the newest numTaps samples, newest first.
	numTaps int
	cursor  int
	history [][]F

	kind KernelKind

	// KernelPolyphase: rows[phase] holds the exact coefficients.
	rows [][]F

	// KernelSinc: cubic planes a, b, c, d with numRows rows each.
	planes  [4][]F
	numRows int

	ops *simdops.Ops[F]

	// Statistics
	framesIn  int64
	framesOut int64

	closed bool
}

// NewConverter creates a converter for the given configuration.
func NewConverter[F simdops.Float](cfg Config) (*Converter[F], error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	g := gcd(cfg.InputRate, cfg.OutputRate)
	c := &Converter[F]{
		cfg:         cfg,
		numerator:   cfg.InputRate / g,
		denominator: cfg.OutputRate / g,
		ops:         simdops.For[F](),
	}
	c.numTaps, _, _ = KernelParams(cfg)

	if err := c.designKernel(); err != nil {
		return nil, fmt.Errorf("failed to design kernel: %w", err)
	}

	c.history = make([][]F, cfg.Channels)
	for ch := range c.history {
		c.history[ch] = make([]F, 2*c.numTaps)
	}
	c.Reset()

	return c, nil
}

// designKernel picks the kernel for the quality tier and rate ratio and
// precomputes its coefficients.
func (c *Converter[F]) designKernel() error {
	if c.cfg.Quality == QualityFastest {
		c.kind = KernelLinear
		return nil
	}

	kernel, err := filter.NewSincKernel(KernelParams(c.cfg))
	if err != nil {
		return err
	}

	if c.denominator*c.numTaps <= maxPolyphaseCoefficients {
		table, err := filter.DesignExactTable(kernel, c.denominator)
		if err != nil {
			return err
		}
		c.kind = KernelPolyphase
		c.rows = make([][]F, c.denominator)
		for r := range c.rows {
			c.rows[r] = toFloat[F](table.Row(0, r))
		}
		return nil
	}

	numRows := maxPolyphaseCoefficients / c.numTaps
	table, err := filter.DesignInterpolatedTable(kernel, numRows)
	if err != nil {
		return err
	}
	c.kind = KernelSinc
	c.numRows = numRows
	for k := range c.planes {
		c.planes[k] = toFloat[F](table.Planes[k])
	}
	return nil
}

// KernelParams returns the tap count, normalized cutoff and stopband
// attenuation in dB of the windowed-sinc kernel for cfg. When downsampling
// the cutoff scales with the rate ratio and the kernel grows by
// ceil(in/out), up to maxTaps, so the transition band keeps its width in
// output frequency.
func KernelParams(cfg Config) (numTaps int, cutoff, attenuation float64) {
	numTaps = cfg.Quality.NumTaps()
	cutoff = defaultCutoff
	if cfg.OutputRate < cfg.InputRate && cfg.Quality != QualityFastest {
		cutoff *= float64(cfg.OutputRate) / float64(cfg.InputRate)
		factor := (cfg.InputRate + cfg.OutputRate - 1) / cfg.OutputRate
		numTaps = min(numTaps*factor, maxTaps)
		numTaps += numTaps % 2
	}
	return numTaps, cutoff, mathutil.AttenuationForBits(cfg.Quality.Bits())
}

// NeedsInput reports whether the next operation must be PushFrame.
func (c *Converter[F]) NeedsInput() bool {
	return c.phase >= c.denominator
}

// PushFrame writes one interleaved frame into the history.
// Only valid when NeedsInput returns true.
func (c *Converter[F]) PushFrame(frame []F) {
	c.cursor--
	if c.cursor < 0 {
		c.cursor = c.numTaps - 1
	}
	for ch, h := range c.history {
		v := frame[ch]
		h[c.cursor] = v
		h[c.cursor+c.numTaps] = v
	}
	c.phase -= c.denominator
	c.framesIn++
}

// PullFrame computes one interleaved output frame.
// Only valid when NeedsInput returns false.
func (c *Converter[F]) PullFrame(frame []F) {
	switch c.kind {
	case KernelPolyphase:
		coeffs := c.rows[c.phase]
		for ch, h := range c.history {
			frame[ch] = c.ops.DotProductUnsafe(h[c.cursor:c.cursor+c.numTaps], coeffs)
		}

	case KernelSinc:
		pos := float64(c.phase) * float64(c.numRows) / float64(c.denominator)
		row := int(pos)
		frac := F(pos - float64(row))
		start := row * c.numTaps
		end := start + c.numTaps
		a := c.planes[0][start:end]
		b := c.planes[1][start:end]
		cc := c.planes[2][start:end]
		d := c.planes[3][start:end]
		for ch, h := range c.history {
			frame[ch] = c.ops.CubicInterpDot(h[c.cursor:c.cursor+c.numTaps], a, b, cc, d, frac)
		}

	default:
		// Newest frame at cursor, previous one right after it.
		frac := F(c.phase) / F(c.denominator)
		for ch, h := range c.history {
			cur := h[c.cursor]
			prev := h[c.cursor+1]
			frame[ch] = prev + frac*(cur-prev)
		}
	}

	c.phase += c.numerator
	c.framesOut++
}

// Close releases the converter's buffers. Closing twice returns ErrClosed.
func (c *Converter[F]) Close() error {
	if c.closed {
		return ErrClosed
	}
	c.closed = true
	c.history = nil
	c.rows = nil
	c.planes = [4][]F{}
	return nil
}

// Closed reports whether Close has been called.
func (c *Converter[F]) Closed() bool {
	return c.closed
}

// Reset clears the history and returns the phase to its initial state.
func (c *Converter[F]) Reset() {
	for _, h := range c.history {
		clear(h)
	}
	c.cursor = 0
	c.phase = c.denominator
	c.framesIn = 0
	c.framesOut = 0
}

// Channels returns the configured channel count.
func (c *Converter[F]) Channels() int {
	return c.cfg.Channels
}

// Config returns the configuration the converter was created with.
func (c *Converter[F]) Config() Config {
	return c.cfg
}

// Ratio returns outputRate / inputRate.
func (c *Converter[F]) Ratio() float64 {
	return float64(c.cfg.OutputRate) / float64(c.cfg.InputRate)
}

// Fraction returns the reduced rate ratio as (input, output) step sizes.
func (c *Converter[F]) Fraction() (numerator, denominator int) {
	return c.numerator, c.denominator
}

// Latency returns the group delay in input frames.
func (c *Converter[F]) Latency() int {
	return c.numTaps / latencyDivisor
}

// NumTaps returns the kernel span in input frames.
func (c *Converter[F]) NumTaps() int {
	return c.numTaps
}

// Kernel returns the kernel the converter selected.
func (c *Converter[F]) Kernel() KernelKind {
	return c.kind
}

// Phases returns the number of coefficient rows the kernel holds:
// one per phase for KernelPolyphase, the table size for KernelSinc and
// zero for KernelLinear.
func (c *Converter[F]) Phases() int {
	switch c.kind {
	case KernelPolyphase:
		return len(c.rows)
	case KernelSinc:
		return c.numRows
	default:
		return 0
	}
}

// MaxOutputFrames returns the most frames one pump pass over inputFrames
// input frames can produce.
func (c *Converter[F]) MaxOutputFrames(inputFrames int) int {
	return pump.MaxOutputFrames(inputFrames, c.numerator, c.denominator)
}

// GetMemoryUsage returns approximate memory usage in bytes.
func (c *Converter[F]) GetMemoryUsage() int64 {
	var zero F
	bytesPerElement := int64(bytesPerFloat32)
	if _, ok := any(zero).(float64); ok {
		bytesPerElement = bytesPerFloat64
	}

	var n int64
	for _, h := range c.history {
		n += int64(len(h))
	}
	for _, r := range c.rows {
		n += int64(len(r))
	}
	for _, p := range c.planes {
		n += int64(len(p))
	}
	return n * bytesPerElement
}

// GetStatistics returns processing statistics.
func (c *Converter[F]) GetStatistics() map[string]int64 {
	return map[string]int64{
		"framesIn":  c.framesIn,
		"framesOut": c.framesOut,
	}
}

func gcd(a, b int) int {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}

func toFloat[F simdops.Float](src []float64) []F {
	dst := make([]F, len(src))
	for i, v := range src {
		dst[i] = F(v)
	}
	return dst
}
