package engine

import (
	"fmt"
	"math"

	"artbench/domain/core"
	"artbench/domain/stats"
)

// TTest runs Student's independent two-sample t-test with a pooled variance.
// t is negative when mean(a) < mean(b). A group of one contributes no spread
// but still counts toward df = n1+n2-2, which must be at least 1.
//
// The statistic is scale-invariant, so both samples are rescaled together before
// squaring and observations near the float64 limit stay finite.
func TTest(a, b []float64) (stats.TTestResult, error) {
	if err := validatePair(a, b); err != nil {
		return stats.TTestResult{}, err
	}
	n1, n2 := float64(len(a)), float64(len(b))
	df := n1 + n2 - 2
	if df < 1 {
		return stats.TTestResult{}, fmt.Errorf("%w: t-test needs n1+n2 >= 3, got %d and %d", core.ErrInsufficientData, len(a), len(b))
	}

	s, _ := normalize(a, b)
	m1, v1 := meanVariance(s[0])
	m2, v2 := meanVariance(s[1])

	pooled := ((n1-1)*v1 + (n2-1)*v2) / df
	se := math.Sqrt(pooled * (1/n1 + 1/n2))
	t := ratio(m1-m2, se)
	p, err := StudentTTwoTailed(t, df)
	if err != nil {
		return stats.TTestResult{}, fmt.Errorf("t-test: %w", err)
	}

	return stats.TTestResult{
		TStatistic:       t,
		PValue:           p,
		DegreesOfFreedom: df,
	}, nil
}

// WelchTTest runs Welch's unequal-variance t-test with Welch–Satterthwaite degrees
// of freedom. Both groups need two observations. When both variances are zero the
// df formula is 0/0 and the pooled df n1+n2-2 is used instead; otherwise df is kept
// within [min(n1,n2)-1, n1+n2-2], the range the formula spans analytically.
func WelchTTest(a, b []float64) (stats.TTestResult, error) {
	if err := validatePair(a, b); err != nil {
		return stats.TTestResult{}, err
	}
	if len(a) < 2 || len(b) < 2 {
		return stats.TTestResult{}, fmt.Errorf("%w: welch t-test needs n >= 2 per group, got %d and %d", core.ErrInsufficientData, len(a), len(b))
	}
	n1, n2 := float64(len(a)), float64(len(b))

	s, _ := normalize(a, b)
	m1, v1 := meanVariance(s[0])
	m2, v2 := meanVariance(s[1])

	q1, q2 := v1/n1, v2/n2
	t := ratio(m1-m2, math.Sqrt(q1+q2))
	df := welchDF(q1, q2, n1, n2)
	p, err := StudentTTwoTailed(t, df)
	if err != nil {
		return stats.TTestResult{}, fmt.Errorf("welch t-test: %w", err)
	}

	return stats.TTestResult{
		TStatistic:       t,
		PValue:           p,
		DegreesOfFreedom: df,
	}, nil
}

func welchDF(q1, q2, n1, n2 float64) float64 {
	lo := math.Min(n1, n2) - 1
	hi := n1 + n2 - 2
	se2 := q1 + q2
	if se2 == 0 {
		return hi
	}
	df := se2 * se2 / (q1*q1/(n1-1) + q2*q2/(n2-1))
	if math.IsNaN(df) || math.IsInf(df, 0) {
		return hi
	}
	return math.Min(math.Max(df, lo), hi)
}

// CohensD returns (mean(a)-mean(b)) / pooled standard deviation.
// Zero pooled spread with differing means saturates like the t statistic.
func CohensD(a, b []float64) (float64, error) {
	if err := validatePair(a, b); err != nil {
		return 0, err
	}
	n1, n2 := float64(len(a)), float64(len(b))
	if n1+n2 <= 2 {
		return 0, fmt.Errorf("%w: cohen's d needs n1+n2 > 2, got %d and %d", core.ErrInsufficientData, len(a), len(b))
	}
	s, _ := normalize(a, b)
	m1, v1 := meanVariance(s[0])
	m2, v2 := meanVariance(s[1])
	pooled := math.Sqrt(((n1-1)*v1 + (n2-1)*v2) / (n1 + n2 - 2))
	return ratio(m1-m2, pooled), nil
}

// Compare builds the pairwise record for two artists on one metric.
// The record is unflagged; significance is assigned by family-wise correction.
func Compare(metric core.MetricName, artist1 core.ArtistID, a []float64, artist2 core.ArtistID, b []float64) (stats.PairwiseComparison, error) {
	w, err := WelchTTest(a, b)
	if err != nil {
		return stats.PairwiseComparison{}, fmt.Errorf("compare %s vs %s on %s: %w", artist1, artist2, metric, err)
	}
	d, err := CohensD(a, b)
	if err != nil {
		return stats.PairwiseComparison{}, fmt.Errorf("compare %s vs %s on %s: %w", artist1, artist2, metric, err)
	}
	m1, m2 := mean(a), mean(b)

	return stats.PairwiseComparison{
		Metric:           metric,
		Artist1:          artist1,
		Artist2:          artist2,
		N1:               len(a),
		N2:               len(b),
		Mean1:            m1,
		Mean2:            m2,
		MeanDiff:         MeanDifference(m1, m2),
		TStatistic:       w.TStatistic,
		PValue:           w.PValue,
		DegreesOfFreedom: w.DegreesOfFreedom,
		CohensD:          d,
		AdjustedPValue:   w.PValue,
	}, nil
}

// MeanDifference returns m1-m2, saturated when the difference of two finite
// means exceeds the float64 range.
func MeanDifference(m1, m2 float64) float64 {
	return saturate(m1 - m2)
}

// meanVariance expects normalized input and returns the clamped mean and the n-1 variance; a single
// observation has variance 0.
func meanVariance(xs []float64) (float64, float64) {
	if len(xs) < 2 {
		return xs[0], 0
	}
	return mean(xs), sampleVariance(xs)
}
