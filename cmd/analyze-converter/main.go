// Command analyze-converter reports how the converter treats test tones and
// inspects the kernels it designs.
//
// Usage:
//
//	analyze-converter tones --from 44100 --to 48000
//	analyze-converter tones --from 48000 --to 16000 --quality high --freq 1000,7000,9000
//	analyze-converter kernel --from 44100 --to 48000 --quality best
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

var verbose bool

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze-converter",
		Short: "Measure converter quality",
		Long: `analyze-converter measures the sample rate converter.

Commands:
  tones   convert sine tones and report level, SNR and frequency error
  kernel  print DC gain and frequency response of the designed kernel`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logLevel := slog.LevelInfo
			if verbose {
				logLevel = slog.LevelDebug
			}
			slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel})))
		},
	}

	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	cmd.AddCommand(newTonesCmd(), newKernelCmd())
	return cmd
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
