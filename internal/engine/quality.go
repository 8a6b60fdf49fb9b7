package engine

import "fmt"

// Quality selects the converter kernel.
type Quality int

const (
	// QualityFastest interpolates linearly between two frames.
	QualityFastest Quality = iota
	// QualityLow uses a 4-tap windowed sinc (8-bit stopband).
	QualityLow
	// QualityMedium uses an 8-tap windowed sinc (12-bit stopband).
	QualityMedium
	// QualityHigh uses a 16-tap windowed sinc (16-bit stopband).
	QualityHigh
	// QualityBest uses a 32-tap windowed sinc (20-bit stopband).
	QualityBest
)

// String returns the tier name.
func (q Quality) String() string {
	switch q {
	case QualityFastest:
		return "fastest"
	case QualityLow:
		return "low"
	case QualityMedium:
		return "medium"
	case QualityHigh:
		return "high"
	case QualityBest:
		return "best"
	default:
		return fmt.Sprintf("Quality(%d)", int(q))
	}
}

// Valid reports whether q is one of the defined tiers.
func (q Quality) Valid() bool {
	return q >= QualityFastest && q <= QualityBest
}

// NumTaps returns the number of input frames one output frame depends on.
func (q Quality) NumTaps() int {
	switch q {
	case QualityLow:
		return tapsLow
	case QualityMedium:
		return tapsMedium
	case QualityHigh:
		return tapsHigh
	case QualityBest:
		return tapsBest
	default:
		return tapsFastest
	}
}

// Bits returns the nominal precision of the tier's stopband.
// Zero for QualityFastest, which has no designed stopband.
func (q Quality) Bits() int {
	switch q {
	case QualityLow:
		return bitsLow
	case QualityMedium:
		return bitsMedium
	case QualityHigh:
		return bitsHigh
	case QualityBest:
		return bitsBest
	default:
		return 0
	}
}

// KernelKind identifies how a converter computes output frames.
type KernelKind int

const (
	// KernelLinear interpolates between the two newest frames.
	KernelLinear KernelKind = iota
	// KernelPolyphase uses one precomputed coefficient row per phase.
	KernelPolyphase
	// KernelSinc interpolates coefficients from a fixed-size table.
	KernelSinc
)

// String returns the kernel name.
func (k KernelKind) String() string {
	switch k {
	case KernelLinear:
		return "linear"
	case KernelPolyphase:
		return "polyphase"
	case KernelSinc:
		return "sinc"
	default:
		return fmt.Sprintf("KernelKind(%d)", int(k))
	}
}
