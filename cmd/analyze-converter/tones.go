package main

import (
	"fmt"
	"io"
	"log/slog"
	"math"
	"text/tabwriter"

	"github.com/spf13/cobra"

	resampler "github.com/tphakala/go-frame-resampler"
	"github.com/tphakala/go-frame-resampler/internal/analysis"
)

const (
	toneAmplitude = 16384.0
	callsPerSec   = 100 // 10 ms per conversion call
	dbScale       = 20.0
	allQualities  = "all"
)

// toneReport is the measurement of one tone through one converter.
type toneReport struct {
	Quality   resampler.Quality
	Freq      float64
	LevelDB   float64 // relative to the input amplitude
	SNR       float64
	Dominant  float64
	Rejected  bool // tone is above the output Nyquist frequency
	OutFrames int
}

func newTonesCmd() *cobra.Command {
	var (
		from, to int
		quality  string
		freqs    []float64
		seconds  float64
	)

	cmd := &cobra.Command{
		Use:   "tones",
		Short: "Convert sine tones and measure them",
		RunE: func(cmd *cobra.Command, args []string) error {
			qualities, err := parseQualities(quality)
			if err != nil {
				return err
			}

			var reports []toneReport
			for _, q := range qualities {
				for _, f := range freqs {
					r, err := measureTone(from, to, q, f, seconds)
					if err != nil {
						return err
					}
					slog.Debug("measured", "quality", q.String(), "freq", f, "level", r.LevelDB)
					reports = append(reports, r)
				}
			}
			return printToneReports(cmd.OutOrStdout(), from, to, reports)
		},
	}

	cmd.Flags().IntVar(&from, "from", 44100, "input sample rate in Hz")
	cmd.Flags().IntVar(&to, "to", 48000, "output sample rate in Hz")
	cmd.Flags().StringVarP(&quality, "quality", "q", allQualities, "quality tier or \"all\"")
	cmd.Flags().Float64SliceVar(&freqs, "freq", []float64{100, 1000, 5000, 10000}, "tone frequencies in Hz")
	cmd.Flags().Float64Var(&seconds, "seconds", 1, "length of each tone")

	return cmd
}

func parseQualities(s string) ([]resampler.Quality, error) {
	if s == allQualities {
		return []resampler.Quality{
			resampler.QualityFastest,
			resampler.QualityLow,
			resampler.QualityMedium,
			resampler.QualityHigh,
			resampler.QualityBest,
		}, nil
	}
	q, err := resampler.ParseQuality(s)
	if err != nil {
		return nil, err
	}
	return []resampler.Quality{q}, nil
}

// measureTone converts seconds of a mono sine at freq Hz from one rate to
// another in 10 ms calls and analyzes the output.
func measureTone(from, to int, q resampler.Quality, freq, seconds float64) (toneReport, error) {
	if seconds <= 0 {
		return toneReport{}, fmt.Errorf("invalid tone length: %g s", seconds)
	}

	conv, err := resampler.New(&resampler.Config{
		InputRate:  from,
		OutputRate: to,
		Channels:   1,
		Quality:    q,
	})
	if err != nil {
		return toneReport{}, err
	}
	defer func() { _ = conv.Close() }()

	input := make([]int16, int(seconds*float64(from)))
	for i := range input {
		input[i] = int16(math.Round(toneAmplitude * math.Sin(2*math.Pi*freq*float64(i)/float64(from))))
	}

	chunk := max(from/callsPerSec, 1)
	out := make([]int16, conv.MaxOutputSamples(chunk))
	signal := make([]float64, 0, conv.MaxOutputSamples(len(input)))
	for start := 0; start < len(input); start += chunk {
		end := min(start+chunk, len(input))
		n, err := conv.Resample(1, input[start:end], out)
		if err != nil {
			return toneReport{}, err
		}
		for _, v := range out[:n] {
			signal = append(signal, float64(v))
		}
	}

	r := toneReport{
		Quality:   q,
		Freq:      freq,
		Rejected:  freq >= float64(to)/2,
		OutFrames: len(signal),
	}
	if len(signal) == 0 {
		return r, nil
	}

	if r.Rejected {
		// The tone has no place in the output; report what is left of it.
		r.LevelDB = dbScale * math.Log10(max(analysis.RMS(signal)*math.Sqrt2, 1e-10)/toneAmplitude)
		r.Dominant = analysis.DominantFrequency(signal, float64(to))
		return r, nil
	}

	level := analysis.ToneLevel(signal, float64(to), freq)
	r.LevelDB = dbScale * math.Log10(max(level, 1e-10)/toneAmplitude)
	r.SNR = analysis.SNR(signal, float64(to), freq)
	r.Dominant = analysis.DominantFrequency(signal, float64(to))
	return r, nil
}

func printToneReports(w io.Writer, from, to int, reports []toneReport) error {
	if _, err := fmt.Fprintf(w, "=== %d Hz -> %d Hz ===\n", from, to); err != nil {
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "QUALITY\tFREQ\tLEVEL dB\tSNR dB\tPEAK Hz\tFRAMES")
	for _, r := range reports {
		snr := fmt.Sprintf("%.1f", r.SNR)
		if r.Rejected {
			snr = "rejected"
		}
		fmt.Fprintf(tw, "%s\t%.0f\t%.2f\t%s\t%.1f\t%d\n",
			r.Quality, r.Freq, r.LevelDB, snr, r.Dominant, r.OutFrames)
	}
	return tw.Flush()
}
