package engine

import (
	"math"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/go-frame-resampler/internal/mathutil"
	"github.com/tphakala/go-frame-resampler/internal/pump"
	"github.com/tphakala/go-frame-resampler/internal/testutil"
)

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"valid_stereo", Config{Channels: 2, InputRate: 44100, OutputRate: 48000, Quality: QualityHigh}, false},
		{"valid_fastest", Config{Channels: 1, InputRate: 8000, OutputRate: 8000, Quality: QualityFastest}, false},
		{"zero_channels", Config{Channels: 0, InputRate: 44100, OutputRate: 48000}, true},
		{"zero_input_rate", Config{Channels: 1, InputRate: 0, OutputRate: 48000}, true},
		{"negative_output_rate", Config{Channels: 1, InputRate: 44100, OutputRate: -1}, true},
		{"unknown_quality", Config{Channels: 1, InputRate: 44100, OutputRate: 48000, Quality: Quality(9)}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
				_, newErr := NewConverter[float32](tt.cfg)
				assert.Error(t, newErr)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestNewConverter_KernelSelection(t *testing.T) {
	tests := []struct {
		name    string
		in, out int
		quality Quality
		want    KernelKind
		num     int
		den     int
		taps    int
	}{
		{"fastest_is_linear", 44100, 48000, QualityFastest, KernelLinear, 147, 160, 2},
		{"fastest_down_stays_linear", 48000, 16000, QualityFastest, KernelLinear, 3, 1, 2},
		{"low_cd_to_dat", 44100, 48000, QualityLow, KernelPolyphase, 147, 160, 4},
		{"high_dat_to_cd", 48000, 44100, QualityHigh, KernelPolyphase, 160, 147, 32},
		{"best_dat_to_cd", 48000, 44100, QualityBest, KernelSinc, 160, 147, 64},
		{"best_down_3x", 48000, 16000, QualityBest, KernelPolyphase, 3, 1, 96},
		{"best_96k_to_8k_capped", 96000, 8000, QualityBest, KernelPolyphase, 12, 1, 256},
		{"high_8k_to_44k1", 8000, 44100, QualityHigh, KernelPolyphase, 80, 441, 16},
		{"best_8k_to_44k1", 8000, 44100, QualityBest, KernelSinc, 80, 441, 32},
		{"best_44k1_to_96k", 44100, 96000, QualityBest, KernelSinc, 147, 320, 32},
		{"medium_up_2x", 8000, 16000, QualityMedium, KernelPolyphase, 1, 2, 8},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := NewConverter[float64](Config{Channels: 1, InputRate: tt.in, OutputRate: tt.out, Quality: tt.quality})
			require.NoError(t, err)

			assert.Equal(t, tt.want, c.Kernel())
			num, den := c.Fraction()
			assert.Equal(t, tt.num, num)
			assert.Equal(t, tt.den, den)
			assert.Equal(t, tt.taps, c.NumTaps())
			assert.Equal(t, tt.taps/2, c.Latency())
			assert.InDelta(t, float64(tt.out)/float64(tt.in), c.Ratio(), 1e-12)
		})
	}
}

func TestConverter_InitiallyNeedsInput(t *testing.T) {
	for q := QualityFastest; q <= QualityBest; q++ {
		c, err := NewConverter[float32](Config{Channels: 2, InputRate: 48000, OutputRate: 44100, Quality: q})
		require.NoError(t, err)
		assert.True(t, c.NeedsInput(), q.String())
	}
}

func TestConverter_LinearRamp(t *testing.T) {
	c, err := NewConverter[float64](Config{Channels: 1, InputRate: 8000, OutputRate: 16000, Quality: QualityFastest})
	require.NoError(t, err)

	output := make([]float64, c.MaxOutputFrames(4))
	res, err := pump.Run[float64](c, 1, []float64{0, 1, 2, 3}, output)
	require.NoError(t, err)

	// One input frame of delay, then halfway points between neighbours.
	assert.Equal(t, 8, res.OutputFrames)
	assert.InDeltaSlice(t, []float64{0, 0, 0, 0.5, 1, 1.5, 2, 2.5}, output, 1e-12)
}

func TestConverter_FrameCounts(t *testing.T) {
	tests := []struct {
		name     string
		channels int
		frames   int
		in, out  int
		want     int
	}{
		{"upsample_four_frames", 1, 4, 8000, 16000, 8},
		{"downsample_ten_stereo_frames", 2, 10, 48000, 44100, 10},
		{"identity", 2, 33, 44100, 44100, 33},
		{"down_3x", 1, 30, 48000, 16000, 10},
	}

	for _, tt := range tests {
		for q := QualityFastest; q <= QualityBest; q++ {
			t.Run(tt.name+"/"+q.String(), func(t *testing.T) {
				c, err := NewConverter[float32](Config{Channels: tt.channels, InputRate: tt.in, OutputRate: tt.out, Quality: q})
				require.NoError(t, err)

				input := testutil.SineInterleaved(tt.frames, tt.channels, 440, float64(tt.in), 1000)
				output := make([]float32, c.MaxOutputFrames(tt.frames)*tt.channels)

				res, err := pump.Run[float32](c, tt.channels, input, output)
				require.NoError(t, err)
				assert.Equal(t, tt.want, res.OutputFrames)
				assert.Equal(t, tt.frames, res.InputFrames)

				stats := c.GetStatistics()
				assert.Equal(t, int64(tt.frames), stats["framesIn"])
				assert.Equal(t, int64(tt.want), stats["framesOut"])
			})
		}
	}
}

// TestConverter_TracksSine drives the converter by hand and compares every
// output frame against the analytic sine at the time the phase says it
// represents: newest frame index, minus the kernel delay, plus the fraction.
func TestConverter_TracksSine(t *testing.T) {
	tests := []struct {
		in, out int
		quality Quality
		maxErr  float64
	}{
		{44100, 48000, QualityFastest, 50},
		{48000, 44100, QualityFastest, 50},
		{44100, 48000, QualityLow, 60},
		{48000, 44100, QualityLow, 60},
		{44100, 48000, QualityMedium, 10},
		{48000, 44100, QualityMedium, 10},
		{44100, 48000, QualityHigh, 0.5},
		{48000, 44100, QualityHigh, 0.5},
		{8000, 16000, QualityHigh, 0.5},
		{44100, 48000, QualityBest, 0.05},
		{48000, 44100, QualityBest, 0.05},
		{16000, 48000, QualityBest, 0.05},
		// Cubic-interpolated tables.
		{8000, 44100, QualityBest, 0.1},
		{44100, 96000, QualityBest, 0.1},
	}

	const (
		freq      = 1000.0
		amplitude = 10000.0
		frames    = 2000
	)

	for _, tt := range tests {
		name := tt.quality.String() + "/" + strconv.Itoa(tt.in) + "_" + strconv.Itoa(tt.out)
		t.Run(name, func(t *testing.T) {
			c, err := NewConverter[float64](Config{Channels: 2, InputRate: tt.in, OutputRate: tt.out, Quality: tt.quality})
			require.NoError(t, err)

			half := c.NumTaps() / 2
			frame := make([]float64, 2)
			n := 0
			var maxErr float64
			for n < frames {
				if c.NeedsInput() {
					v := amplitude * math.Sin(2*math.Pi*freq*float64(n)/float64(tt.in))
					c.PushFrame([]float64{v, -v})
					n++
					continue
				}

				pos := float64(n-1-half) + float64(c.phase)/float64(c.denominator)
				want := amplitude * math.Sin(2*math.Pi*freq*pos/float64(tt.in))
				c.PullFrame(frame)
				if n > c.NumTaps()+2 {
					maxErr = math.Max(maxErr, math.Abs(frame[0]-want))
					assert.InDelta(t, -frame[0], frame[1], 1e-9, "channels must be independent")
				}
			}
			assert.Less(t, maxErr, tt.maxErr)
		})
	}
}

func TestConverter_DCGain(t *testing.T) {
	ratios := [][2]int{{44100, 48000}, {48000, 44100}, {8000, 44100}, {96000, 8000}, {22050, 22050}}

	for _, r := range ratios {
		for q := QualityLow; q <= QualityBest; q++ {
			c, err := NewConverter[float64](Config{Channels: 1, InputRate: r[0], OutputRate: r[1], Quality: q})
			require.NoError(t, err)

			input := make([]float64, 400)
			for i := range input {
				input[i] = 1000
			}
			output := make([]float64, c.MaxOutputFrames(len(input)))
			res, err := pump.Run[float64](c, 1, input, output)
			require.NoError(t, err)

			// Skip the frames that still see the zero-initialized history.
			warm := c.MaxOutputFrames(c.NumTaps() + 1)
			for i := warm; i < res.OutputFrames; i++ {
				assert.InDelta(t, 1000, output[i], 0.01, "ratio %v quality %s frame %d", r, q, i)
			}
		}
	}
}

func TestConverter_ChunkingIsTransparent(t *testing.T) {
	input := testutil.SineInterleaved(1000, 2, 997, 44100, 8000)

	whole, err := NewConverter[float32](Config{Channels: 2, InputRate: 44100, OutputRate: 48000, Quality: QualityHigh})
	require.NoError(t, err)
	wantBuf := make([]float32, whole.MaxOutputFrames(1000)*2)
	wantRes, err := pump.Run[float32](whole, 2, input, wantBuf)
	require.NoError(t, err)

	chunked, err := NewConverter[float32](Config{Channels: 2, InputRate: 44100, OutputRate: 48000, Quality: QualityHigh})
	require.NoError(t, err)

	var got []float32
	for start := 0; start < 1000; {
		n := min(37, 1000-start)
		buf := make([]float32, chunked.MaxOutputFrames(n)*2)
		res, err := pump.Run[float32](chunked, 2, input[start*2:(start+n)*2], buf)
		require.NoError(t, err)
		got = append(got, buf[:res.OutputSamples]...)
		start += n
	}

	assert.Equal(t, wantBuf[:wantRes.OutputSamples], got)
}

func TestConverter_ResetRestoresInitialState(t *testing.T) {
	c, err := NewConverter[float64](Config{Channels: 1, InputRate: 48000, OutputRate: 44100, Quality: QualityMedium})
	require.NoError(t, err)

	input := testutil.Sine(64, 1000, 48000, 1)
	first := make([]float64, c.MaxOutputFrames(64))
	res1, err := pump.Run[float64](c, 1, input, first)
	require.NoError(t, err)

	c.Reset()
	assert.True(t, c.NeedsInput())
	assert.Equal(t, int64(0), c.GetStatistics()["framesIn"])

	second := make([]float64, len(first))
	res2, err := pump.Run[float64](c, 1, input, second)
	require.NoError(t, err)

	assert.Equal(t, res1, res2)
	assert.Equal(t, first, second)
}

func TestConverter_Close(t *testing.T) {
	c, err := NewConverter[float32](Config{Channels: 2, InputRate: 44100, OutputRate: 48000, Quality: QualityBest})
	require.NoError(t, err)
	assert.Positive(t, c.GetMemoryUsage())

	require.NoError(t, c.Close())
	assert.True(t, c.Closed())
	assert.ErrorIs(t, c.Close(), ErrClosed)
}

func TestConverter_Float32MatchesFloat64(t *testing.T) {
	cfg := Config{Channels: 1, InputRate: 44100, OutputRate: 48000, Quality: QualityBest}
	c32, err := NewConverter[float32](cfg)
	require.NoError(t, err)
	c64, err := NewConverter[float64](cfg)
	require.NoError(t, err)

	in64 := testutil.Sine(500, 1000, 44100, 10000)
	in32 := make([]float32, len(in64))
	for i, v := range in64 {
		in32[i] = float32(v)
	}

	out32 := make([]float32, c32.MaxOutputFrames(500))
	out64 := make([]float64, c64.MaxOutputFrames(500))
	r32, err := pump.Run[float32](c32, 1, in32, out32)
	require.NoError(t, err)
	r64, err := pump.Run[float64](c64, 1, in64, out64)
	require.NoError(t, err)

	require.Equal(t, r64.OutputFrames, r32.OutputFrames)
	for i := range r64.OutputFrames {
		assert.InDelta(t, out64[i], float64(out32[i]), 0.5, "frame %d", i)
	}
}

func TestQuality_String(t *testing.T) {
	assert.Equal(t, "fastest", QualityFastest.String())
	assert.Equal(t, "best", QualityBest.String())
	assert.Equal(t, "Quality(7)", Quality(7).String())
	assert.Equal(t, "sinc", KernelSinc.String())
	assert.False(t, Quality(-1).Valid())
	assert.Equal(t, 0, QualityFastest.Bits())
	assert.Equal(t, 20, QualityBest.Bits())
}

func BenchmarkConverter_Stereo(b *testing.B) {
	for _, q := range []Quality{QualityFastest, QualityMedium, QualityBest} {
		b.Run(q.String(), func(b *testing.B) {
			c, err := NewConverter[float32](Config{Channels: 2, InputRate: 44100, OutputRate: 48000, Quality: q})
			require.NoError(b, err)
			input := testutil.SineInterleaved(1024, 2, 1000, 44100, 0.5)
			output := make([]float32, c.MaxOutputFrames(1024)*2)

			b.ReportAllocs()
			for b.Loop() {
				_, _ = pump.Run[float32](c, 2, input, output)
			}
		})
	}
}

func TestKernelParams(t *testing.T) {
	taps, cutoff, att := KernelParams(Config{Channels: 1, InputRate: 44100, OutputRate: 48000, Quality: QualityHigh})
	assert.Equal(t, 16, taps)
	assert.InDelta(t, 0.70, cutoff, 1e-12)
	assert.InDelta(t, 17*6.0206, att, 1e-9)

	// Downsampling narrows the cutoff and widens the kernel with the ratio.
	taps, cutoff, _ = KernelParams(Config{Channels: 1, InputRate: 48000, OutputRate: 16000, Quality: QualityBest})
	assert.Equal(t, 96, taps)
	assert.InDelta(t, 0.70/3, cutoff, 1e-12)

	// ceil(44100/16000) = 3
	taps, _, _ = KernelParams(Config{Channels: 1, InputRate: 44100, OutputRate: 16000, Quality: QualityLow})
	assert.Equal(t, 12, taps)

	taps, _, _ = KernelParams(Config{Channels: 1, InputRate: 192000, OutputRate: 8000, Quality: QualityMedium})
	assert.Equal(t, 192, taps)

	taps, _, _ = KernelParams(Config{Channels: 1, InputRate: 192000, OutputRate: 8000, Quality: QualityBest})
	assert.Equal(t, maxTaps, taps)
}

// A tone between the output Nyquist frequency and the input Nyquist
// frequency must not fold back into the output above the tier's noise floor.
func TestConverter_AliasRejection(t *testing.T) {
	tests := []struct {
		in, out int
		freq    float64
	}{
		{48000, 16000, 13600},
		{48000, 8000, 9000},
		{44100, 22050, 19294},
	}

	const (
		amplitude = 10000.0
		frames    = 6000
	)

	for _, tt := range tests {
		for q := QualityLow; q <= QualityBest; q++ {
			name := q.String() + "/" + strconv.Itoa(tt.in) + "_" + strconv.Itoa(tt.out)
			t.Run(name, func(t *testing.T) {
				c, err := NewConverter[float64](Config{Channels: 1, InputRate: tt.in, OutputRate: tt.out, Quality: q})
				require.NoError(t, err)

				input := testutil.Sine(frames, tt.freq, float64(tt.in), amplitude)
				output := make([]float64, c.MaxOutputFrames(frames))
				res, err := pump.Run[float64](c, 1, input, output)
				require.NoError(t, err)

				warm := c.MaxOutputFrames(c.NumTaps() + 1)
				require.Greater(t, res.OutputFrames, warm+100)

				var peak float64
				for _, v := range output[warm:res.OutputFrames] {
					peak = math.Max(peak, math.Abs(v))
				}
				levelDB := 20 * math.Log10(math.Max(peak, 1e-12)/amplitude)
				bound := -(mathutil.AttenuationForBits(q.Bits()) - 10)
				assert.Less(t, levelDB, bound, "%.0f Hz leaks at %.1f dB", tt.freq, levelDB)
			})
		}
	}
}
