package pcm

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWiden(t *testing.T) {
	src := []int16{0, 1, -1, 1000, math.MaxInt16, math.MinInt16}
	dst := make([]float32, len(src)+2)
	dst[len(dst)-1] = 42

	n, err := Widen(dst, src)
	require.NoError(t, err)
	assert.Equal(t, len(src), n)
	assert.Equal(t, []float32{0, 1, -1, 1000, 32767, -32768, 0, 42}, dst)
}

func TestWiden_BufferTooSmall(t *testing.T) {
	dst := []float64{7, 7}
	n, err := Widen(dst, []int16{1, 2, 3})
	assert.ErrorIs(t, err, ErrBufferTooSmall)
	assert.Zero(t, n)
	assert.Equal(t, []float64{7, 7}, dst, "nothing written on failure")
}

func TestWiden_Empty(t *testing.T) {
	n, err := Widen[float32](nil, nil)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestNarrow_Rounding(t *testing.T) {
	tests := []struct {
		name string
		in   float64
		want int16
	}{
		{"zero", 0, 0},
		{"exact", 1234, 1234},
		{"below_half", 2.49, 2},
		{"half_up", 2.5, 3},
		{"negative_half", -2.5, -3},
		{"negative_below_half", -0.4, 0},
		{"max", 32767, 32767},
		{"min", -32768, -32768},
		{"just_above_max", 32767.4, 32767},
		{"overshoot", 40000, 32767},
		{"undershoot", -1e9, -32768},
		{"rounds_to_min", -32768.4, -32768},
		{"pos_inf", math.Inf(1), 32767},
		{"neg_inf", math.Inf(-1), -32768},
		{"nan", math.NaN(), 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dst := make([]int16, 1)
			n, err := Narrow(dst, []float64{tt.in}, 1)
			require.NoError(t, err)
			assert.Equal(t, 1, n)
			assert.Equal(t, tt.want, dst[0])
		})
	}
}

func TestNarrow_OnlyFirstN(t *testing.T) {
	src := []float32{1.2, 2.7, 99, 99}
	dst := []int16{-5, -5, -5, -5}

	n, err := Narrow(dst, src, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, []int16{1, 3, -5, -5}, dst)
}

func TestNarrow_Errors(t *testing.T) {
	dst := []int16{9, 9}

	_, err := Narrow(dst, []float32{1, 2, 3}, 3)
	assert.ErrorIs(t, err, ErrBufferTooSmall)

	_, err = Narrow(dst, []float32{1}, 2)
	assert.ErrorIs(t, err, ErrBufferTooSmall)

	_, err = Narrow(dst, []float32{1}, -1)
	assert.ErrorIs(t, err, ErrBufferTooSmall)

	assert.Equal(t, []int16{9, 9}, dst, "nothing written on failure")
}

func TestWidenNarrow_RoundTrip(t *testing.T) {
	src := make([]int16, 0, 1<<16)
	for v := math.MinInt16; v <= math.MaxInt16; v++ {
		src = append(src, int16(v))
	}

	f32 := make([]float32, len(src))
	_, err := Widen(f32, src)
	require.NoError(t, err)

	back := make([]int16, len(src))
	_, err = Narrow(back, f32, len(f32))
	require.NoError(t, err)
	assert.Equal(t, src, back)
}

func TestDecodeEncodeLE(t *testing.T) {
	raw := []byte{0x01, 0x00, 0xff, 0xff, 0x00, 0x80, 0xff, 0x7f, 0xaa}

	samples := make([]int16, 8)
	n := DecodeLE(samples, raw)
	require.Equal(t, 4, n)
	assert.Equal(t, []int16{1, -1, math.MinInt16, math.MaxInt16}, samples[:n])

	out := make([]byte, 8)
	assert.Equal(t, 4, EncodeLE(out, samples[:n]))
	assert.Equal(t, raw[:8], out)
}

func TestDecodeLE_ShortDestination(t *testing.T) {
	samples := make([]int16, 1)
	assert.Equal(t, 1, DecodeLE(samples, []byte{0x02, 0x00, 0x03, 0x00}))
	assert.Equal(t, int16(2), samples[0])
}

func TestFromIntsToInts(t *testing.T) {
	src := []int{0, 100, -100, 40000, -40000}
	dst := make([]int16, len(src))

	assert.Equal(t, len(src), FromInts(dst, src))
	assert.Equal(t, []int16{0, 100, -100, 32767, -32768}, dst)

	ints := make([]int, 3)
	assert.Equal(t, 3, ToInts(ints, dst))
	assert.Equal(t, []int{0, 100, -100}, ints)
}

func BenchmarkNarrow(b *testing.B) {
	src := make([]float32, 4096)
	for i := range src {
		src[i] = float32(i) * 7.3
	}
	dst := make([]int16, len(src))

	b.ReportAllocs()
	for b.Loop() {
		_, _ = Narrow(dst, src, len(src))
	}
}
