package resampler

// Channel constants
const (
	monoChannels   = 1
	stereoChannels = 2
	maxChannels    = 256 // Maximum supported channel count
)

// Resampling ratio limits
const (
	minRatioFactor = 1.0 / 256.0 // Minimum resampling ratio (1/256)
	maxRatioFactor = 256.0       // Maximum resampling ratio (256x)
)

// DefaultQuality is the tier used by the shorthand constructors and [Router].
const DefaultQuality = QualityBest
