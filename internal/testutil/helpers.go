// Package testutil provides reusable test helpers for converter and pump tests.
package testutil

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

// Default tolerances for various test scenarios.
const (
	DefaultTolerance = 1e-10
	DCGainTolerance  = 1e-9
)

// Sine returns n samples of a sine tone at freq Hz, sampled at sampleRate,
// scaled to amplitude.
func Sine(n int, freq, sampleRate, amplitude float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = amplitude * math.Sin(2*math.Pi*freq*float64(i)/sampleRate)
	}
	return out
}

// SineInterleaved returns frames of a sine tone copied into every channel
// of an interleaved float32 buffer.
func SineInterleaved(frames, channels int, freq, sampleRate, amplitude float64) []float32 {
	mono := Sine(frames, freq, sampleRate, amplitude)
	out := make([]float32, frames*channels)
	for i, v := range mono {
		for ch := range channels {
			out[i*channels+ch] = float32(v)
		}
	}
	return out
}

// SineInt16 returns an interleaved 16-bit sine tone.
func SineInt16(frames, channels int, freq, sampleRate, amplitude float64) []int16 {
	mono := Sine(frames, freq, sampleRate, amplitude)
	out := make([]int16, frames*channels)
	for i, v := range mono {
		for ch := range channels {
			out[i*channels+ch] = int16(math.Round(v))
		}
	}
	return out
}

// Channel extracts one channel of an interleaved buffer as float64.
func Channel[F int16 | float32 | float64](interleaved []F, channels, ch int) []float64 {
	frames := len(interleaved) / channels
	out := make([]float64, frames)
	for i := range frames {
		out[i] = float64(interleaved[i*channels+ch])
	}
	return out
}

// AssertSymmetric verifies that a slice is symmetric (s[i] == s[n-1-i]).
func AssertSymmetric(t *testing.T, s []float64, tolerance float64) bool {
	t.Helper()
	n := len(s)
	for i := 0; i < n/2; i++ {
		j := n - 1 - i
		if !assert.InDelta(t, s[i], s[j], tolerance,
			"slice not symmetric at i=%d: s[%d]=%f != s[%d]=%f", i, i, s[i], j, s[j]) {
			return false
		}
	}
	return true
}

// AssertNoNaNOrInf verifies that no elements in the slice are NaN or Inf.
func AssertNoNaNOrInf(t *testing.T, s []float64) bool {
	t.Helper()
	for i, v := range s {
		if math.IsNaN(v) {
			return assert.Fail(t, "found NaN", "s[%d] is NaN", i)
		}
		if math.IsInf(v, 0) {
			return assert.Fail(t, "found Inf", "s[%d] is Inf", i)
		}
	}
	return true
}

// AssertDCGain verifies that the sum of coefficients equals the expected DC gain.
func AssertDCGain(t *testing.T, coeffs []float64, expectedGain, tolerance float64) bool {
	t.Helper()
	var sum float64
	for _, c := range coeffs {
		sum += c
	}
	return assert.InDelta(t, expectedGain, sum, tolerance,
		"DC gain = %f, want %f", sum, expectedGain)
}

// AssertRelativeError verifies that the relative error between actual and expected is within tolerance.
func AssertRelativeError(t *testing.T, expected, actual, tolerance float64, msgAndArgs ...any) bool {
	t.Helper()
	if expected == 0 {
		return assert.InDelta(t, expected, actual, tolerance, msgAndArgs...)
	}
	relError := math.Abs(actual-expected) / math.Abs(expected)
	return assert.LessOrEqual(t, relError, tolerance,
		"relative error %e exceeds tolerance %e (expected=%f, actual=%f)",
		relError, tolerance, expected, actual)
}

// AssertInRange verifies that a value is within [min, max].
func AssertInRange(t *testing.T, value, minVal, maxVal float64) bool {
	t.Helper()
	if value < minVal || value > maxVal {
		return assert.Fail(t, "value out of range",
			"value %f is outside range [%f, %f]", value, minVal, maxVal)
	}
	return true
}
