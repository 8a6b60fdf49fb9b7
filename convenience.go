package resampler

// Common sample rates for convenience functions.
const (
	// RateCD is the CD quality sample rate (Red Book standard).
	RateCD = 44100

	// RateDAT is the DAT/DVD sample rate.
	RateDAT = 48000

	// RateHiRes88 is the high-resolution 2x CD sample rate.
	RateHiRes88 = 88200

	// RateHiRes96 is the high-resolution 2x DAT sample rate.
	RateHiRes96 = 96000

	// RateTelephony is the telephony (PSTN narrowband) sample rate.
	RateTelephony = 8000

	// RateVoIP is the VoIP wideband sample rate.
	RateVoIP = 16000

	// RateSpeech is the speech recognition common sample rate.
	RateSpeech = 22050
)

// NewStereo creates a stereo converter with the specified quality.
func NewStereo(inputRate, outputRate int, quality Quality) (*Converter, error) {
	return New(&Config{
		InputRate:  inputRate,
		OutputRate: outputRate,
		Channels:   stereoChannels,
		Quality:    quality,
	})
}

// NewMono creates a mono converter with the specified quality.
func NewMono(inputRate, outputRate int, quality Quality) (*Converter, error) {
	return New(&Config{
		InputRate:  inputRate,
		OutputRate: outputRate,
		Channels:   monoChannels,
		Quality:    quality,
	})
}

// NewCDtoDAT creates a stereo converter for CD (44.1kHz) to DAT (48kHz).
func NewCDtoDAT(quality Quality) (*Converter, error) {
	return NewStereo(RateCD, RateDAT, quality)
}

// NewDATtoCD creates a stereo converter for DAT (48kHz) to CD (44.1kHz).
func NewDATtoCD(quality Quality) (*Converter, error) {
	return NewStereo(RateDAT, RateCD, quality)
}

// InterleaveToStereo converts two mono channels to interleaved stereo.
// Output format: [L0, R0, L1, R1, L2, R2, ...]
// The shorter channel determines the frame count.
func InterleaveToStereo(left, right []int16) []int16 {
	n := min(len(left), len(right))
	out := make([]int16, n*stereoChannels)
	for i := range n {
		out[i*stereoChannels] = left[i]
		out[i*stereoChannels+1] = right[i]
	}
	return out
}

// DeinterleaveFromStereo converts interleaved stereo to two mono channels.
// Input format: [L0, R0, L1, R1, L2, R2, ...]
func DeinterleaveFromStereo(interleaved []int16) (left, right []int16) {
	n := len(interleaved) / stereoChannels
	left = make([]int16, n)
	right = make([]int16, n)
	for i := range n {
		left[i] = interleaved[i*stereoChannels]
		right[i] = interleaved[i*stereoChannels+1]
	}
	return left, right
}
