package engine

import (
	"fmt"

	"artbench/domain/core"
	"artbench/domain/stats"
)

// OneWayANOVA compares k >= 2 groups on one metric. Each group must be non-empty
// and the pooled within-group df N-k must be at least 1. Significant is p < alpha.
//
// Identical groups give F = 0 and p = 1. Zero within-group spread with differing
// group means saturates F and yields p = 0 and η² = 1.
func OneWayANOVA(groups [][]float64, alpha float64) (stats.ANOVAResult, error) {
	if err := validateAlpha(alpha); err != nil {
		return stats.ANOVAResult{}, err
	}
	k := len(groups)
	if k < 2 {
		return stats.ANOVAResult{}, fmt.Errorf("%w: anova needs at least 2 groups, got %d", core.ErrInsufficientGroups, k)
	}

	total := 0
	for i, g := range groups {
		if err := validateSample(g); err != nil {
			return stats.ANOVAResult{}, fmt.Errorf("group %d: %w", i, err)
		}
		total += len(g)
	}
	dfBetween, dfWithin := k-1, total-k
	if dfWithin < 1 {
		return stats.ANOVAResult{}, fmt.Errorf("%w: anova needs more observations than groups, got %d for %d groups", core.ErrInsufficientData, total, k)
	}

	// F and η² are scale-invariant; sums of squares run on one common rescaling
	scaled, _ := normalize(groups...)
	means := make([]float64, k)
	var sum, lo, hi float64
	for i, g := range scaled {
		glo, ghi := bounds(g)
		if i == 0 || glo < lo {
			lo = glo
		}
		if i == 0 || ghi > hi {
			hi = ghi
		}
		means[i] = mean(g)
		for _, x := range g {
			sum += x
		}
	}
	grand := sum / float64(total)
	if grand < lo {
		grand = lo
	} else if grand > hi {
		grand = hi
	}
	if lo == hi {
		// every observation identical
		return stats.ANOVAResult{
			PValue:    1,
			DFBetween: dfBetween,
			DFWithin:  dfWithin,
		}, nil
	}

	var ssb, ssw float64
	for i, g := range scaled {
		d := means[i] - grand
		ssb += float64(len(g)) * d * d
		if len(g) > 1 {
			ssw += sampleVariance(g) * float64(len(g)-1)
		}
	}

	f := ratio(ssb/float64(dfBetween), ssw/float64(dfWithin))
	p, err := FUpperTail(f, float64(dfBetween), float64(dfWithin))
	if err != nil {
		return stats.ANOVAResult{}, fmt.Errorf("anova: %w", err)
	}

	var eta float64
	if ss := ssb + ssw; ss > 0 {
		eta = ssb / ss
	}

	return stats.ANOVAResult{
		FStatistic:  f,
		PValue:      p,
		DFBetween:   dfBetween,
		DFWithin:    dfWithin,
		EtaSquared:  eta,
		Significant: p < alpha,
	}, nil
}
