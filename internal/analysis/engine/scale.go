package engine

import (
	"math"
)

// normalize copies the samples rescaled by one common power of two so the largest
// magnitude lies in [0.5, 1). Squares and differences of the copies cannot
// overflow. Scaling by a power of two is exact for normal numbers, so sums and
// their rounding match the unscaled arithmetic. exp undoes the scaling.
func normalize(samples ...[]float64) (scaled [][]float64, exp int) {
	var peak float64
	for _, xs := range samples {
		for _, x := range xs {
			peak = math.Max(peak, math.Abs(x))
		}
	}
	if peak > 0 {
		_, exp = math.Frexp(peak)
	}

	scaled = make([][]float64, len(samples))
	for i, xs := range samples {
		ys := make([]float64, len(xs))
		for j, x := range xs {
			ys[j] = math.Ldexp(x, -exp)
		}
		scaled[i] = ys
	}
	return scaled, exp
}

// denormalize maps a value in scaled units back, saturating instead of overflowing.
func denormalize(v float64, exp int) float64 {
	return saturate(math.Ldexp(v, exp))
}

// saturate replaces ±Inf with ±SaturatedStatistic.
func saturate(v float64) float64 {
	if math.IsInf(v, 0) {
		return math.Copysign(SaturatedStatistic, v)
	}
	return v
}
