// Package analysis measures tones in converted audio.
//
// All measurements window the signal with a Blackman-Harris window before
// the FFT, so tones that fall between bins leak less than -90 dB outside a
// few bins around the peak.
package analysis

import (
	"math"
	"math/cmplx"

	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/dsp/window"
	"gonum.org/v1/gonum/floats"
)

const (
	// Bins on each side of a tone that belong to it.
	toneHalfWidth = 6

	// Bins at the bottom of the spectrum treated as DC.
	dcBins = 5

	// SNR reported when no noise energy is found.
	maxSNR = 300.0
)

// Spectrum holds the one-sided power spectrum of a windowed signal.
type Spectrum struct {
	// Power is |X[k]|² for k in [0, N/2].
	Power []float64

	// BinWidth is the frequency spacing of the bins in Hz.
	BinWidth float64

	// norm converts summed bin power to squared amplitude.
	norm float64
}

// NewSpectrum windows signal and computes its power spectrum.
func NewSpectrum(signal []float64, sampleRate float64) *Spectrum {
	n := len(signal)
	if n == 0 {
		return &Spectrum{}
	}

	w := make([]float64, n)
	for i := range w {
		w[i] = 1
	}
	window.BlackmanHarris(w)

	seq := make([]float64, n)
	floats.MulTo(seq, signal, w)

	coeffs := fourier.NewFFT(n).Coefficients(nil, seq)
	power := make([]float64, len(coeffs))
	for i, c := range coeffs {
		a := cmplx.Abs(c)
		power[i] = a * a
	}

	return &Spectrum{
		Power:    power,
		BinWidth: sampleRate / float64(n),
		norm:     4 / (float64(n) * floats.Dot(w, w)),
	}
}

// Bin returns the index of the bin closest to freq.
func (s *Spectrum) Bin(freq float64) int {
	if s.BinWidth == 0 {
		return 0
	}
	k := int(math.Round(freq / s.BinWidth))
	return max(0, min(k, len(s.Power)-1))
}

// band returns the bin range [lo, hi) belonging to a tone at freq.
func (s *Spectrum) band(freq float64) (lo, hi int) {
	k := s.Bin(freq)
	return max(0, k-toneHalfWidth), min(len(s.Power), k+toneHalfWidth+1)
}

// ToneLevel returns the peak amplitude of the sinusoid at freq.
func ToneLevel(signal []float64, sampleRate, freq float64) float64 {
	s := NewSpectrum(signal, sampleRate)
	if len(s.Power) == 0 {
		return 0
	}
	lo, hi := s.band(freq)
	return math.Sqrt(floats.Sum(s.Power[lo:hi]) * s.norm)
}

// DominantFrequency returns the frequency of the strongest non-DC component,
// refined by parabolic interpolation between neighbouring bins.
func DominantFrequency(signal []float64, sampleRate float64) float64 {
	s := NewSpectrum(signal, sampleRate)
	if len(s.Power) <= dcBins {
		return 0
	}

	k := dcBins + floats.MaxIdx(s.Power[dcBins:])
	if k == 0 || k >= len(s.Power)-1 {
		return float64(k) * s.BinWidth
	}

	// Interpolate on log magnitude around the peak.
	a := math.Log(s.Power[k-1] + math.SmallestNonzeroFloat64)
	b := math.Log(s.Power[k] + math.SmallestNonzeroFloat64)
	c := math.Log(s.Power[k+1] + math.SmallestNonzeroFloat64)
	offset := 0.0
	if d := a - 2*b + c; d != 0 {
		offset = 0.5 * (a - c) / d
	}
	return (float64(k) + offset) * s.BinWidth
}

// SNR returns the ratio in dB between the energy of the tone at freq and
// everything else above DC.
func SNR(signal []float64, sampleRate, freq float64) float64 {
	s := NewSpectrum(signal, sampleRate)
	if len(s.Power) <= dcBins {
		return 0
	}

	lo, hi := s.band(freq)
	tone := floats.Sum(s.Power[lo:hi])
	noise := floats.Sum(s.Power[dcBins:]) - floats.Sum(s.Power[max(lo, dcBins):max(hi, dcBins)])
	if noise <= 0 {
		return maxSNR
	}
	return math.Min(maxSNR, 10*math.Log10(tone/noise))
}

// RMS returns the root mean square of signal.
func RMS(signal []float64) float64 {
	if len(signal) == 0 {
		return 0
	}
	return math.Sqrt(floats.Dot(signal, signal) / float64(len(signal)))
}
