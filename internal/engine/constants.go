package engine

// Quality tier taps. Each tier doubles the kernel span of the previous one.
const (
	tapsFastest = 2
	tapsLow     = 4
	tapsMedium  = 8
	tapsHigh    = 16
	tapsBest    = 32

	// Upper bound once the kernel is widened for downsampling.
	maxTaps = 256
)

// Quality tier precision in bits, mapped to stopband attenuation
// as (bits + 1) * 6.02 dB.
const (
	bitsLow    = 8
	bitsMedium = 12
	bitsHigh   = 16
	bitsBest   = 20
)

// Kernel design constants.
const (
	// Lowpass corner as a fraction of the lower of the two Nyquist frequencies.
	defaultCutoff = 0.70

	// Largest exact phase table, in coefficients, before switching to a
	// cubic-interpolated table.
	maxPolyphaseCoefficients = 8192

	// Latency of a symmetric kernel, in input frames, is taps / latencyDivisor.
	latencyDivisor = 2

	// Byte sizes for float types.
	bytesPerFloat32 = 4
	bytesPerFloat64 = 8
)
