package engine

import (
	"fmt"
	"math"

	"artbench/domain/core"
	"artbench/domain/stats"

	"gonum.org/v1/gonum/mathext"
	"gonum.org/v1/gonum/stat/distuv"
)

// SaturatedStatistic is the magnitude reported for a statistic whose true value is infinite.
const SaturatedStatistic = stats.SaturatedStatistic

// StudentTTwoTailed returns P(|T| >= |t|) for T ~ Student-t with df degrees of freedom.
//
// The upper tail is taken directly from the regularized incomplete beta function,
// I_{df/(df+t^2)}(df/2, 1/2), instead of 2*(1-CDF) which loses precision for small p.
// A non-positive df or a NaN statistic is an ErrInvalidArgument.
func StudentTTwoTailed(t, df float64) (float64, error) {
	if !(df > 0) || math.IsInf(df, 0) {
		return 0, fmt.Errorf("%w: degrees of freedom %v", core.ErrInvalidArgument, df)
	}
	if math.IsNaN(t) {
		return 0, fmt.Errorf("%w: t statistic is NaN", core.ErrInvalidArgument)
	}
	if t == 0 {
		return 1, nil
	}
	if math.Abs(t) >= SaturatedStatistic {
		return 0, nil
	}
	x := df / (df + t*t)
	if x <= 0 {
		return 0, nil
	}
	return clampProbability(mathext.RegIncBeta(df/2, 0.5, x)), nil
}

// FUpperTail returns P(F >= f) for F ~ F(d1, d2). A non-positive f has p = 1.
// Non-positive degrees of freedom or a NaN statistic is an ErrInvalidArgument.
func FUpperTail(f, d1, d2 float64) (float64, error) {
	if !(d1 > 0) || !(d2 > 0) || math.IsInf(d1, 0) || math.IsInf(d2, 0) {
		return 0, fmt.Errorf("%w: degrees of freedom (%v, %v)", core.ErrInvalidArgument, d1, d2)
	}
	if math.IsNaN(f) {
		return 0, fmt.Errorf("%w: F statistic is NaN", core.ErrInvalidArgument)
	}
	if f <= 0 {
		return 1, nil
	}
	if f >= SaturatedStatistic {
		return 0, nil
	}
	x := d2 / (d2 + d1*f)
	if x <= 0 {
		return 0, nil
	}
	return clampProbability(mathext.RegIncBeta(d2/2, d1/2, x)), nil
}

// TCritical returns the two-sided critical value of Student's t for a confidence level.
func TCritical(level, df float64) float64 {
	dist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: df}
	return dist.Quantile(1 - (1-level)/2)
}

func clampProbability(p float64) float64 {
	switch {
	case p < 0:
		return 0
	case p > 1:
		return 1
	}
	return p
}
