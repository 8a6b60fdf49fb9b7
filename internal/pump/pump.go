// Package pump drives a push/pull frame converter over one block of
// interleaved audio.
//
// The converter decides, one step at a time, whether it wants another input
// frame or has an output frame ready. Run services those requests until every
// input frame has been offered and one extra input request has been observed,
// which lets the converter flush whatever its filter history still owes.
package pump

import (
	"errors"
	"fmt"

	"github.com/tphakala/go-frame-resampler/internal/simdops"
)

var (
	// ErrInvalidChannels is returned when the channel count is below one.
	ErrInvalidChannels = errors.New("pump: channel count must be at least 1")

	// ErrOutputOverflow is returned when the converter produces more frames
	// than the output slice can hold.
	ErrOutputOverflow = errors.New("pump: output buffer overflow")
)

// FrameConverter is the push/pull capability the pump drives.
//
// Exactly one of PushFrame or PullFrame is legal after each NeedsInput query:
// PushFrame when it returned true, PullFrame otherwise. Both transfer one whole
// frame of channel-interleaved samples.
type FrameConverter[F simdops.Float] interface {
	NeedsInput() bool
	PushFrame(frame []F)
	PullFrame(frame []F)
}

// Result describes one pump invocation.
type Result struct {
	// OutputSamples is the number of samples written to the output slice.
	// Always a multiple of the channel count.
	OutputSamples int

	// InputFrames is the number of frames offered to the converter.
	InputFrames int

	// OutputFrames is the number of frames pulled from the converter.
	OutputFrames int

	// InputDecisions counts how often the converter asked for input,
	// including the final drain step that is answered without a frame.
	InputDecisions int
}

// Run pushes floor(len(input)/channels) frames into c and writes every frame c
// produces in between to output.
//
// A trailing partial frame in input is never read. Output beyond
// Result.OutputSamples is left untouched. If the converter produces more
// frames than output can hold, Run stops and returns ErrOutputOverflow with
// the partial result; the converter state has then advanced past the frames
// already pushed.
func Run[F simdops.Float](c FrameConverter[F], channels int, input, output []F) (Result, error) {
	if channels < 1 {
		return Result{}, fmt.Errorf("%w: got %d", ErrInvalidChannels, channels)
	}

	inputFrames := len(input) / channels
	res := Result{}

	inPos := 0
	outPos := 0

	// The countdown runs one past zero: the last input request is the drain
	// step and is answered without pushing a frame.
	for countdown := inputFrames; countdown > -1; {
		if c.NeedsInput() {
			res.InputDecisions++
			if countdown > 0 {
				c.PushFrame(input[inPos : inPos+channels])
				inPos += channels
				res.InputFrames++
			}
			countdown--
			continue
		}

		if outPos+channels > len(output) {
			res.OutputSamples = outPos
			return res, fmt.Errorf("%w: %d frames written, capacity %d frames",
				ErrOutputOverflow, res.OutputFrames, len(output)/channels)
		}
		c.PullFrame(output[outPos : outPos+channels])
		outPos += channels
		res.OutputFrames++
	}

	res.OutputSamples = outPos
	return res, nil
}

// MaxOutputFrames returns the largest number of frames one Run call can
// produce from inputFrames input frames, for a converter whose integer phase
// advances by numerator per pulled frame and retreats by denominator per
// pushed frame (input rate numerator, output rate denominator, both reduced).
//
// Between calls such a converter always rests with its phase in
// [denominator, denominator+numerator), which bounds the output of a call to
// ceil(inputFrames*denominator/numerator).
func MaxOutputFrames(inputFrames, numerator, denominator int) int {
	if inputFrames <= 0 || numerator <= 0 || denominator <= 0 {
		return 0
	}
	n := int64(inputFrames) * int64(denominator)
	d := int64(numerator)
	return int((n + d - 1) / d)
}
