// Package pcm converts between 16-bit fixed-point samples and the float
// domain the converter works in.
//
// The float domain carries the integer range verbatim: int16 value 1000
// widens to 1000.0, not to 1000/32768. Narrowing rounds half away from zero
// and saturates at the int16 limits.
package pcm

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"github.com/tphakala/go-frame-resampler/internal/simdops"
)

// ErrBufferTooSmall is returned when a destination cannot hold the result.
// Nothing is written in that case.
var ErrBufferTooSmall = errors.New("pcm: buffer too small")

const (
	// BytesPerSample is the size of one little-endian 16-bit sample.
	BytesPerSample = 2

	minSample = math.MinInt16
	maxSample = math.MaxInt16
)

// Widen converts every sample of src into dst and returns len(src).
func Widen[F simdops.Float](dst []F, src []int16) (int, error) {
	if len(dst) < len(src) {
		return 0, fmt.Errorf("%w: need %d samples, have %d", ErrBufferTooSmall, len(src), len(dst))
	}
	for i, s := range src {
		dst[i] = F(s)
	}
	return len(src), nil
}

// Narrow converts the first n samples of src into dst and returns n.
// NaN narrows to zero.
func Narrow[F simdops.Float](dst []int16, src []F, n int) (int, error) {
	if n < 0 {
		return 0, fmt.Errorf("%w: negative length %d", ErrBufferTooSmall, n)
	}
	if len(dst) < n {
		return 0, fmt.Errorf("%w: need %d samples, have %d", ErrBufferTooSmall, n, len(dst))
	}
	if len(src) < n {
		return 0, fmt.Errorf("%w: source holds %d samples, %d requested", ErrBufferTooSmall, len(src), n)
	}
	for i, v := range src[:n] {
		dst[i] = Saturate(float64(v))
	}
	return n, nil
}

// Saturate rounds v half away from zero and clamps it to the int16 range.
func Saturate(v float64) int16 {
	switch {
	case math.IsNaN(v):
		return 0
	case v >= maxSample:
		return maxSample
	case v <= minSample:
		return minSample
	}
	return int16(math.Round(v))
}

// DecodeLE reads little-endian 16-bit samples from src into dst and returns
// the number of samples decoded. A trailing odd byte is ignored.
func DecodeLE(dst []int16, src []byte) int {
	n := min(len(dst), len(src)/BytesPerSample)
	for i := range n {
		dst[i] = int16(binary.LittleEndian.Uint16(src[i*BytesPerSample:]))
	}
	return n
}

// EncodeLE writes src as little-endian 16-bit samples into dst and returns
// the number of samples encoded.
func EncodeLE(dst []byte, src []int16) int {
	n := min(len(src), len(dst)/BytesPerSample)
	for i := range n {
		binary.LittleEndian.PutUint16(dst[i*BytesPerSample:], uint16(src[i]))
	}
	return n
}

// FromInts copies int samples, as found in an audio.IntBuffer, into dst with
// saturation and returns the number of samples copied.
func FromInts(dst []int16, src []int) int {
	n := min(len(dst), len(src))
	for i, v := range src[:n] {
		switch {
		case v > maxSample:
			dst[i] = maxSample
		case v < minSample:
			dst[i] = minSample
		default:
			dst[i] = int16(v)
		}
	}
	return n
}

// ToInts copies samples into an int slice for an audio.IntBuffer and returns
// the number of samples copied.
func ToInts(dst []int, src []int16) int {
	n := min(len(dst), len(src))
	for i, v := range src[:n] {
		dst[i] = int(v)
	}
	return n
}
