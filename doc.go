// Package resampler converts interleaved multi-channel PCM audio between
// sample rates, one buffer at a time, in pure Go.
//
// A [Converter] wraps a push/pull frame converter. Each call to
// [Converter.Resample] offers every whole input frame to it and collects
// whatever output frames the rate ratio and the converter's phase yield.
// Filter history carries over between calls, so one Converter must be reused
// for consecutive buffers of the same stream.
//
// # Quick Start
//
//	conv, err := resampler.New(&resampler.Config{
//	    InputRate:  44100,
//	    OutputRate: 48000,
//	    Channels:   2,
//	    Quality:    resampler.QualityBest,
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer conv.Close()
//
//	out := make([]int16, conv.MaxOutputSamples(len(in)))
//	n, err := conv.Resample(2, in, out)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	play(out[:n])
//
// # Sample Format
//
// [Converter.Resample] takes 16-bit samples. They are widened to float32
// without scaling, converted, then rounded half away from zero and saturated
// back to 16 bits, so converter overshoot clamps instead of wrapping.
// [Converter.ResampleFloat32] skips both steps and works on float32 directly.
// [Converter.ResampleBytes] accepts the same samples as little-endian bytes,
// as read from a socket or a raw PCM file.
//
// # Quality
//
//   - [QualityFastest]: linear interpolation between two frames.
//   - [QualityLow]: 4-tap windowed sinc, 8-bit stopband.
//   - [QualityMedium]: 8-tap windowed sinc, 12-bit stopband.
//   - [QualityHigh]: 16-tap windowed sinc, 16-bit stopband.
//   - [QualityBest]: 32-tap windowed sinc, 20-bit stopband.
//
// Downsampling by a factor r widens the kernel by ceil(r), up to 256 taps.
// Latency is half the tap count, in input frames.
//
// # Buffer Sizing
//
// The output slice must hold [Converter.MaxOutputSamples] of the input
// length. The check happens before any work is done, so a short buffer
// leaves the converter untouched.
//
// # Thread Safety
//
// A Converter is not safe for concurrent use; keep one per stream and call
// it from that stream's goroutine. [Router] guards its own cache but not the
// converters it hands out.
package resampler
