// Package engine computes descriptive and inferential statistics over sample sets.
// Every function is pure: inputs are never modified and identical inputs give
// bit-identical outputs.
package engine

import (
	"fmt"
	"math"

	"artbench/domain/core"
	"artbench/domain/stats"

	mstats "github.com/montanaflynn/stats"
)

// DefaultConfidenceLevel is the level used by ConfidenceInterval95 and Describe.
const DefaultConfidenceLevel = 0.95

// Mean returns the arithmetic mean.
func Mean(xs []float64) (float64, error) {
	if err := validateSample(xs); err != nil {
		return 0, err
	}
	return mean(xs), nil
}

// StandardDeviation returns the population standard deviation (divides by n).
// A single observation has a standard deviation of 0.
func StandardDeviation(xs []float64) (float64, error) {
	if err := validateSample(xs); err != nil {
		return 0, err
	}
	lo, hi := bounds(xs)
	if lo == hi {
		return 0, nil
	}
	ys, exp := normalize(xs)
	sd, err := mstats.StandardDeviationPopulation(ys[0])
	if err != nil {
		return 0, fmt.Errorf("population standard deviation: %w", err)
	}
	return denormalize(sd, exp), nil
}

// SampleStandardDeviation returns the standard deviation with the n-1 denominator.
func SampleStandardDeviation(xs []float64) (float64, error) {
	if err := validateSample(xs); err != nil {
		return 0, err
	}
	if len(xs) < 2 {
		return 0, fmt.Errorf("%w: sample standard deviation needs n >= 2, got %d", core.ErrInsufficientData, len(xs))
	}
	ys, exp := normalize(xs)
	return denormalize(math.Sqrt(sampleVariance(ys[0])), exp), nil
}

// Median returns the middle value, or the mean of the two middle values for even n.
func Median(xs []float64) (float64, error) {
	if err := validateSample(xs); err != nil {
		return 0, err
	}
	ys, exp := normalize(xs)
	m, err := mstats.Median(ys[0])
	if err != nil {
		return 0, fmt.Errorf("median: %w", err)
	}
	return within(denormalize(m, exp), xs), nil
}

// Quartiles splits the sorted sample at the median. Q1 is the median of the values
// below the median position and Q3 the median of those above; for odd n the middle
// value belongs to neither half. [1..9] gives 2.5, 5, 7.5.
// A single observation is its own three quartiles.
func Quartiles(xs []float64) (stats.Quartiles, error) {
	if err := validateSample(xs); err != nil {
		return stats.Quartiles{}, err
	}
	if len(xs) == 1 {
		return stats.Quartiles{Q1: xs[0], Q2: xs[0], Q3: xs[0]}, nil
	}
	ys, exp := normalize(xs)
	q, err := mstats.Quartile(ys[0])
	if err != nil {
		return stats.Quartiles{}, fmt.Errorf("quartiles: %w", err)
	}
	return stats.Quartiles{
		Q1: within(denormalize(q.Q1, exp), xs),
		Q2: within(denormalize(q.Q2, exp), xs),
		Q3: within(denormalize(q.Q3, exp), xs),
	}, nil
}

// ConfidenceInterval95 returns mean ± t(0.975, n-1) · s/√n using the sample standard deviation.
func ConfidenceInterval95(xs []float64) (stats.ConfidenceInterval, error) {
	return ConfidenceInterval(xs, DefaultConfidenceLevel)
}

// ConfidenceInterval returns a two-sided t interval for the mean at the given level.
// At least two observations are required; there is no spread to estimate from one.
func ConfidenceInterval(xs []float64, level float64) (stats.ConfidenceInterval, error) {
	if err := validateSample(xs); err != nil {
		return stats.ConfidenceInterval{}, err
	}
	if !(level > 0 && level < 1) {
		return stats.ConfidenceInterval{}, fmt.Errorf("%w: confidence level %v outside (0, 1)", core.ErrInvalidArgument, level)
	}
	n := len(xs)
	if n < 2 {
		return stats.ConfidenceInterval{}, fmt.Errorf("%w: confidence interval needs n >= 2, got %d", core.ErrInsufficientData, n)
	}

	ys, exp := normalize(xs)
	m := mean(xs)
	se := math.Sqrt(sampleVariance(ys[0]) / float64(n))
	half := denormalize(TCritical(level, float64(n-1))*se, exp)

	// bounds beyond the float64 range saturate
	return stats.ConfidenceInterval{
		Level: level,
		Lower: saturate(m - half),
		Upper: saturate(m + half),
	}, nil
}

// Describe computes the full descriptive record for one sample set.
// With a single observation the interval collapses onto the mean and is flagged
// CIDegenerate rather than reported as an estimate.
func Describe(xs []float64) (stats.DescriptiveStats, error) {
	if err := validateSample(xs); err != nil {
		return stats.DescriptiveStats{}, err
	}

	sd, err := StandardDeviation(xs)
	if err != nil {
		return stats.DescriptiveStats{}, err
	}
	q, err := Quartiles(xs)
	if err != nil {
		return stats.DescriptiveStats{}, err
	}
	lo, hi := bounds(xs)
	m := mean(xs)

	d := stats.DescriptiveStats{
		N:      len(xs),
		Mean:   m,
		StdDev: sd,
		Median: q.Q2,
		Q1:     q.Q1,
		Q3:     q.Q3,
		Min:    lo,
		Max:    hi,
	}

	if len(xs) == 1 {
		d.CI95Lower, d.CI95Upper, d.CIDegenerate = m, m, true
		return d, nil
	}
	ci, err := ConfidenceInterval95(xs)
	if err != nil {
		return stats.DescriptiveStats{}, err
	}
	d.CI95Lower, d.CI95Upper = ci.Lower, ci.Upper
	return d, nil
}

// mean assumes validated input. The sum runs in normalized units so large
// magnitudes cannot overflow it. Rounding in sum/n can land just outside the sample
// range (three copies of 0.1 average to 0.10000000000000002), so the result is
// clamped to [min, max]; constant samples then have exactly their value as mean.
func mean(xs []float64) float64 {
	ys, exp := normalize(xs)
	m, _ := mstats.Mean(ys[0])
	return within(denormalize(m, exp), xs)
}

// within clamps v to [min(xs), max(xs)].
func within(v float64, xs []float64) float64 {
	lo, hi := bounds(xs)
	return math.Min(math.Max(v, lo), hi)
}

// sampleVariance assumes validated input with n >= 2, already normalized; the
// result is in the squared normalized unit. Constant samples are exactly 0.
func sampleVariance(xs []float64) float64 {
	lo, hi := bounds(xs)
	if lo == hi {
		return 0
	}
	m := mean(xs)
	var ss float64
	for _, x := range xs {
		d := x - m
		ss += d * d
	}
	return ss / float64(len(xs)-1)
}

func bounds(xs []float64) (lo, hi float64) {
	lo, _ = mstats.Min(xs)
	hi, _ = mstats.Max(xs)
	return lo, hi
}
