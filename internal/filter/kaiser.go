// Package filter designs the windowed-sinc kernels used by the frame converter.
package filter

import (
	"fmt"
	"math"

	"github.com/tphakala/go-frame-resampler/internal/mathutil"
	"github.com/tphakala/simd/f64"
)

const (
	// Kernel size bounds
	minKernelTaps = 2
	maxKernelTaps = 256

	// Window normalization
	windowNormalizationFactor = 2.0

	// Sinc function constants
	sincCenterTap     = 1.0
	sincZeroThreshold = 1e-10

	// Row normalization target (unity DC gain)
	filterGainTarget = 1.0
)

// KaiserWindow generates a Kaiser window of the specified length and β parameter.
//
// The window is symmetric: w[i] = w[length-1-i], with its peak of 1.0 at the center.
func KaiserWindow(length int, beta float64) []float64 {
	if length < 1 {
		return []float64{}
	}

	window := make([]float64, length)

	if length == 1 {
		window[0] = sincCenterTap
		return window
	}

	// w[n] = I₀(β * sqrt(1 - ((n - α)/α)²)) / I₀(β), α = (N-1)/2
	alpha := float64(length-1) / windowNormalizationFactor
	i0Beta := mathutil.BesselI0(beta)

	for n := range length {
		x := (float64(n) - alpha) / alpha
		window[n] = kaiserAt(x, beta, i0Beta)
	}

	return window
}

// kaiserAt evaluates the continuous Kaiser window at u ∈ [-1, 1].
// Outside that interval the window is zero.
func kaiserAt(u, beta, i0Beta float64) float64 {
	if u < -1 || u > 1 {
		return 0
	}
	return mathutil.BesselI0(beta*math.Sqrt(1.0-u*u)) / i0Beta
}

// sinc returns sin(πx)/(πx) with sinc(0) = 1.
func sinc(x float64) float64 {
	if math.Abs(x) < sincZeroThreshold {
		return sincCenterTap
	}
	return math.Sin(math.Pi*x) / (math.Pi * x)
}

// SincKernel describes a Kaiser-windowed sinc interpolation kernel spanning
// NumTaps input frames.
//
// Tap i weights the frame i positions back from the newest one. For a
// fractional phase p in [0, 1) the kernel is evaluated at
// x = i - NumTaps/2 + p, so p = 0 sits exactly on a stored frame and
// increasing p moves the interpolation point toward newer frames.
type SincKernel struct {
	// NumTaps is the number of input frames contributing to one output frame.
	NumTaps int

	// Cutoff is the lowpass corner as a fraction of the input Nyquist (0, 1].
	Cutoff float64

	// Beta is the Kaiser window shape parameter.
	Beta float64

	i0Beta float64
}

// NewSincKernel creates a kernel with a Kaiser β derived from attenuation (dB).
func NewSincKernel(numTaps int, cutoff, attenuation float64) (*SincKernel, error) {
	k := &SincKernel{
		NumTaps: numTaps,
		Cutoff:  cutoff,
		Beta:    mathutil.KaiserBeta(attenuation),
	}
	if err := k.Validate(); err != nil {
		return nil, err
	}
	k.i0Beta = mathutil.BesselI0(k.Beta)
	return k, nil
}

// Validate checks if kernel parameters are valid.
func (k *SincKernel) Validate() error {
	if k.NumTaps < minKernelTaps || k.NumTaps > maxKernelTaps {
		return fmt.Errorf("kernel taps %d out of range [%d, %d]", k.NumTaps, minKernelTaps, maxKernelTaps)
	}
	if k.NumTaps%2 != 0 {
		return fmt.Errorf("kernel taps must be even: %d", k.NumTaps)
	}
	if k.Cutoff <= 0 || k.Cutoff > 1 {
		return fmt.Errorf("invalid cutoff: %f (must be in (0, 1])", k.Cutoff)
	}
	if k.Beta < 0 {
		return fmt.Errorf("invalid beta: %f", k.Beta)
	}
	return nil
}

// Row fills dst (length NumTaps) with the kernel coefficients for phase p,
// normalized to unity DC gain.
func (k *SincKernel) Row(dst []float64, phase float64) {
	half := float64(k.NumTaps / 2)
	for i := range k.NumTaps {
		x := float64(i) - half + phase
		dst[i] = sinc(k.Cutoff*x) * kaiserAt(x/half, k.Beta, k.i0Beta)
	}

	sum := f64.Sum(dst[:k.NumTaps])
	if math.Abs(sum) > sincZeroThreshold {
		f64.Scale(dst[:k.NumTaps], dst[:k.NumTaps], filterGainTarget/sum)
	}
}

// FilterResponse holds the frequency response of a filter.
type FilterResponse struct {
	// Frequencies at which response was calculated (normalized, 0 to 0.5)
	Frequencies []float64

	// Magnitude response at each frequency (linear scale)
	Magnitude []float64

	// Phase response at each frequency (radians)
	Phase []float64
}

// ComputeFrequencyResponse calculates the frequency response of a FIR filter
// by evaluating its DTFT at numPoints frequencies from 0 to Nyquist.
func ComputeFrequencyResponse(coeffs []float64, numPoints int) FilterResponse {
	if numPoints <= 0 {
		numPoints = 512
	}

	response := FilterResponse{
		Frequencies: make([]float64, numPoints),
		Magnitude:   make([]float64, numPoints),
		Phase:       make([]float64, numPoints),
	}

	for k := range numPoints {
		freq := float64(k) / float64(windowNormalizationFactor*numPoints)
		response.Frequencies[k] = freq

		// H(e^jω) = Σ h[n]·e^(-jωn)
		var realPart, imagPart float64
		omega := windowNormalizationFactor * math.Pi * freq

		for n, h := range coeffs {
			angle := omega * float64(n)
			realPart += h * math.Cos(angle)
			imagPart -= h * math.Sin(angle)
		}

		response.Magnitude[k] = math.Sqrt(realPart*realPart + imagPart*imagPart)
		response.Phase[k] = math.Atan2(imagPart, realPart)
	}

	return response
}

// MagnitudeDB converts linear magnitude to decibels.
func MagnitudeDB(magnitude float64) float64 {
	const (
		minMagnitude = 1e-10 // Avoid log(0)
		dbMultiplier = 20.0  // 20*log10 for magnitude
	)

	if magnitude < minMagnitude {
		magnitude = minMagnitude
	}
	return dbMultiplier * math.Log10(magnitude)
}
