package filter

import (
	"fmt"
)

const (
	// Table size bounds
	minTableRows = 1
	maxTableRows = 1 << 16

	// Neighbour offsets for cubic coefficient interpolation
	prevRowLookback   = 1
	nextRowOffset     = 1
	secondNextOffset  = 2
	cubicCenterCoeff  = 0.5
	cubicDCoeff       = 1.0 / 6.0
	cubicCMultiplier  = 4.0
	cubicPolynomTerms = 4
)

// InterpOrder represents the coefficient interpolation order between table rows.
type InterpOrder int

const (
	// InterpNone means rows are used as-is (one row per exact phase).
	InterpNone InterpOrder = 0
	// InterpCubic means a cubic polynomial interpolates between adjacent rows.
	InterpCubic InterpOrder = 3
)

// PhaseTable is a kernel sampled at a fixed set of fractional phases.
//
// Coefficients are stored as polynomial planes so that each row of each plane
// is contiguous and can be handed straight to a SIMD dot product:
//   - InterpNone:  Planes[0] = coef
//   - InterpCubic: Planes[0..3] = a, b, c, d where coef(x) = a + (b + (c + d*x)*x)*x
//
// Plane layout is row-major: Planes[k][row*NumTaps + tap].
type PhaseTable struct {
	Planes      [][]float64
	NumRows     int
	NumTaps     int
	InterpOrder InterpOrder
}

// DesignExactTable samples the kernel at phases r/numPhases for r in [0, numPhases).
// Used when the reduced rate ratio has few enough phases to precompute them all.
func DesignExactTable(k *SincKernel, numPhases int) (*PhaseTable, error) {
	if numPhases < minTableRows || numPhases > maxTableRows {
		return nil, fmt.Errorf("number of phases %d out of range [%d, %d]", numPhases, minTableRows, maxTableRows)
	}

	pt := &PhaseTable{
		Planes:      [][]float64{make([]float64, numPhases*k.NumTaps)},
		NumRows:     numPhases,
		NumTaps:     k.NumTaps,
		InterpOrder: InterpNone,
	}

	for row := range numPhases {
		k.Row(pt.Row(0, row), float64(row)/float64(numPhases))
	}

	return pt, nil
}

// DesignInterpolatedTable samples the kernel at numRows evenly spaced phases and
// derives cubic interpolation coefficients so any phase in [0, 1) can be evaluated.
func DesignInterpolatedTable(k *SincKernel, numRows int) (*PhaseTable, error) {
	if numRows < minTableRows || numRows > maxTableRows {
		return nil, fmt.Errorf("number of rows %d out of range [%d, %d]", numRows, minTableRows, maxTableRows)
	}

	taps := k.NumTaps
	pt := &PhaseTable{
		Planes:      make([][]float64, cubicPolynomTerms),
		NumRows:     numRows,
		NumTaps:     taps,
		InterpOrder: InterpCubic,
	}
	for i := range pt.Planes {
		pt.Planes[i] = make([]float64, numRows*taps)
	}

	// Sample rows -1 .. numRows+1 so every row has both neighbours.
	samples := make([][]float64, numRows+3)
	for i := range samples {
		samples[i] = make([]float64, taps)
		k.Row(samples[i], float64(i-prevRowLookback)/float64(numRows))
	}

	for row := range numRows {
		fm1 := samples[row]
		f0 := samples[row+prevRowLookback]
		f1 := samples[row+prevRowLookback+nextRowOffset]
		f2 := samples[row+prevRowLookback+secondNextOffset]

		a, b, c, d := pt.Row(0, row), pt.Row(1, row), pt.Row(2, row), pt.Row(3, row)
		for tap := range taps {
			// Centered finite differences, matching Catmull-Rom style smoothing
			cc := cubicCenterCoeff*(f1[tap]+fm1[tap]) - f0[tap]
			dd := cubicDCoeff * (f2[tap] - f1[tap] + fm1[tap] - f0[tap] - cubicCMultiplier*cc)
			a[tap] = f0[tap]
			b[tap] = f1[tap] - f0[tap] - dd - cc
			c[tap] = cc
			d[tap] = dd
		}
	}

	return pt, nil
}

// Row returns the coefficients of one plane row.
func (pt *PhaseTable) Row(plane, row int) []float64 {
	start := row * pt.NumTaps
	return pt.Planes[plane][start : start+pt.NumTaps]
}

// Coefficient returns the coefficient for a tap at a row and fractional
// position frac in [0, 1) toward the next row.
func (pt *PhaseTable) Coefficient(tap, row int, frac float64) float64 {
	idx := row*pt.NumTaps + tap

	switch pt.InterpOrder {
	case InterpCubic:
		a := pt.Planes[0][idx]
		b := pt.Planes[1][idx]
		c := pt.Planes[2][idx]
		d := pt.Planes[3][idx]
		return a + (b+(c+d*frac)*frac)*frac
	default:
		return pt.Planes[0][idx]
	}
}

// GetMemoryUsage returns the approximate memory usage in bytes.
func (pt *PhaseTable) GetMemoryUsage() int64 {
	const bytesPerFloat64 = 8
	var n int64
	for _, p := range pt.Planes {
		n += int64(len(p))
	}
	return n * bytesPerFloat64
}
