package main

import (
	"fmt"
	"io"
	"math"

	"github.com/spf13/cobra"

	resampler "github.com/tphakala/go-frame-resampler"
	"github.com/tphakala/go-frame-resampler/internal/engine"
	"github.com/tphakala/go-frame-resampler/internal/filter"
)

const (
	responsePoints  = 512
	maxPhasesToShow = 8
)

// kernelReport describes the kernel rows one conversion uses.
type kernelReport struct {
	NumTaps     int
	Cutoff      float64
	Attenuation float64
	Beta        float64

	// Phases visited by the converter, in units of 1/denominator.
	UsedPhases  int
	Denominator int
	PhaseGains  map[int]float64
	MinDCGain   float64
	MaxDCGain   float64

	// Response of the phase-zero row.
	PassbandDB float64 // at half the cutoff
	StopbandDB float64 // worst case above 1.5x the cutoff
}

func newKernelCmd() *cobra.Command {
	var (
		from, to int
		quality  string
	)

	cmd := &cobra.Command{
		Use:   "kernel",
		Short: "Inspect the windowed-sinc kernel for a conversion",
		RunE: func(cmd *cobra.Command, args []string) error {
			q, err := resampler.ParseQuality(quality)
			if err != nil {
				return err
			}
			if q == resampler.QualityFastest {
				_, err := fmt.Fprintln(cmd.OutOrStdout(), "fastest interpolates linearly; no kernel to analyze")
				return err
			}

			r, err := analyzeKernel(from, to, q)
			if err != nil {
				return err
			}
			return printKernelReport(cmd.OutOrStdout(), r)
		},
	}

	cmd.Flags().IntVar(&from, "from", 44100, "input sample rate in Hz")
	cmd.Flags().IntVar(&to, "to", 48000, "output sample rate in Hz")
	cmd.Flags().StringVarP(&quality, "quality", "q", "best", "quality tier")

	return cmd
}

// analyzeKernel designs the kernel the converter would use and measures the
// DC gain of every phase the conversion visits.
func analyzeKernel(from, to int, q resampler.Quality) (kernelReport, error) {
	cfg := engine.Config{Channels: 1, InputRate: from, OutputRate: to}
	switch q {
	case resampler.QualityLow:
		cfg.Quality = engine.QualityLow
	case resampler.QualityMedium:
		cfg.Quality = engine.QualityMedium
	case resampler.QualityHigh:
		cfg.Quality = engine.QualityHigh
	default:
		cfg.Quality = engine.QualityBest
	}
	if err := cfg.Validate(); err != nil {
		return kernelReport{}, err
	}

	numTaps, cutoff, attenuation := engine.KernelParams(cfg)
	k, err := filter.NewSincKernel(numTaps, cutoff, attenuation)
	if err != nil {
		return kernelReport{}, err
	}

	g := gcd(from, to)
	num, den := from/g, to/g

	r := kernelReport{
		NumTaps:     numTaps,
		Cutoff:      cutoff,
		Attenuation: attenuation,
		Beta:        k.Beta,
		Denominator: den,
		PhaseGains:  make(map[int]float64),
		MinDCGain:   math.Inf(1),
		MaxDCGain:   math.Inf(-1),
	}

	// Output frame j lands at phase (j*num) mod den; the sequence repeats
	// after den outputs.
	row := make([]float64, numTaps)
	for j := range den {
		phase := j * num % den
		if _, seen := r.PhaseGains[phase]; seen {
			continue
		}
		k.Row(row, float64(phase)/float64(den))
		var dc float64
		for _, c := range row {
			dc += c
		}
		r.PhaseGains[phase] = dc
		r.MinDCGain = min(r.MinDCGain, dc)
		r.MaxDCGain = max(r.MaxDCGain, dc)
	}
	r.UsedPhases = len(r.PhaseGains)

	k.Row(row, 0)
	resp := filter.ComputeFrequencyResponse(row, responsePoints)
	r.StopbandDB = math.Inf(-1)
	passband := false
	for i, f := range resp.Frequencies {
		// Frequencies are normalized to the input rate; cutoff 1.0 is Nyquist.
		rel := f * 2 / cutoff
		switch {
		case !passband && rel >= 0.5:
			r.PassbandDB = filter.MagnitudeDB(resp.Magnitude[i])
			passband = true
		case rel >= 1.5:
			r.StopbandDB = max(r.StopbandDB, filter.MagnitudeDB(resp.Magnitude[i]))
		}
	}

	return r, nil
}

func printKernelReport(w io.Writer, r kernelReport) error {
	lines := []string{
		"=== Kernel ===",
		fmt.Sprintf("  Taps:        %d", r.NumTaps),
		fmt.Sprintf("  Cutoff:      %.4f (of input Nyquist)", r.Cutoff),
		fmt.Sprintf("  Attenuation: %.1f dB (beta %.3f)", r.Attenuation, r.Beta),
		fmt.Sprintf("  Phases used: %d of %d", r.UsedPhases, r.Denominator),
		fmt.Sprintf("  DC gain:     min %.10f, max %.10f", r.MinDCGain, r.MaxDCGain),
		fmt.Sprintf("  Passband:    %.3f dB at half cutoff", r.PassbandDB),
		"",
		"DC gain per phase:",
	}
	if math.IsInf(r.StopbandDB, -1) {
		lines[7] = "  Stopband:    above input Nyquist"
	} else {
		lines[7] = fmt.Sprintf("  Stopband:    %.1f dB worst above 1.5x cutoff", r.StopbandDB)
	}
	for _, l := range lines {
		if _, err := fmt.Fprintln(w, l); err != nil {
			return err
		}
	}

	shown := 0
	for phase := 0; phase < r.Denominator && shown < maxPhasesToShow; phase++ {
		gain, ok := r.PhaseGains[phase]
		if !ok {
			continue
		}
		if _, err := fmt.Fprintf(w, "  Phase %4d: %.10f\n", phase, gain); err != nil {
			return err
		}
		shown++
	}
	if r.UsedPhases > shown {
		if _, err := fmt.Fprintf(w, "  ... (%d more phases)\n", r.UsedPhases-shown); err != nil {
			return err
		}
	}
	return nil
}

func gcd(a, b int) int {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}
