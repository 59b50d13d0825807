package engine

import (
	"fmt"
	"math"
	"sort"

	"artbench/domain/core"
	"artbench/domain/stats"
)

// BonferroniCorrection rejects hypothesis i iff pValues[i] <= alpha/m.
// Output is aligned with the input.
func BonferroniCorrection(pValues []float64, alpha float64) ([]bool, error) {
	if err := validateCorrection(pValues, alpha); err != nil {
		return nil, err
	}
	m := len(pValues)
	rejected := make([]bool, m)
	if m == 0 {
		return rejected, nil
	}
	threshold := alpha / float64(m)
	for i, p := range pValues {
		rejected[i] = p <= threshold
	}
	return rejected, nil
}

// BenjaminiHochberg applies the step-up false discovery rate procedure.
// P-values are ranked ascending (ties keep input order), the largest rank r with
// p_(r) <= r·alpha/m is found, and every hypothesis ranked at or below r is rejected.
// Rejections always include Bonferroni's at the same alpha.
func BenjaminiHochberg(pValues []float64, alpha float64) ([]bool, error) {
	if err := validateCorrection(pValues, alpha); err != nil {
		return nil, err
	}
	m := len(pValues)
	rejected := make([]bool, m)
	if m == 0 {
		return rejected, nil
	}

	order := rankAscending(pValues)
	cutoff := 0
	for r := m; r >= 1; r-- {
		if pValues[order[r-1]] <= float64(r)*alpha/float64(m) {
			cutoff = r
			break
		}
	}
	for r := 0; r < cutoff; r++ {
		rejected[order[r]] = true
	}
	return rejected, nil
}

// BonferroniAdjusted returns min(1, m·p) for every p-value.
func BonferroniAdjusted(pValues []float64) ([]float64, error) {
	if err := validatePValues(pValues); err != nil {
		return nil, err
	}
	m := float64(len(pValues))
	adjusted := make([]float64, len(pValues))
	for i, p := range pValues {
		adjusted[i] = math.Min(1, p*m)
	}
	return adjusted, nil
}

// BenjaminiHochbergAdjusted returns step-up adjusted p-values (q-values):
// q_(r) = min over s >= r of p_(s)·m/s, capped at 1.
func BenjaminiHochbergAdjusted(pValues []float64) ([]float64, error) {
	if err := validatePValues(pValues); err != nil {
		return nil, err
	}
	m := len(pValues)
	adjusted := make([]float64, m)
	if m == 0 {
		return adjusted, nil
	}

	order := rankAscending(pValues)
	running := 1.0
	for r := m; r >= 1; r-- {
		i := order[r-1]
		q := pValues[i] * float64(m) / float64(r)
		if q < running {
			running = q
		}
		// p·m/m can round one ulp below p
		adjusted[i] = math.Max(running, pValues[i])
	}
	return adjusted, nil
}

// Correct applies the named procedure and returns both the rejection flags and
// the adjusted p-values.
func Correct(method stats.CorrectionMethod, pValues []float64, alpha float64) (stats.CorrectionResult, error) {
	var (
		rejected []bool
		adjusted []float64
		err      error
	)
	switch method {
	case stats.CorrectionBonferroni:
		if rejected, err = BonferroniCorrection(pValues, alpha); err == nil {
			adjusted, err = BonferroniAdjusted(pValues)
		}
	case stats.CorrectionBenjaminiHochberg:
		if rejected, err = BenjaminiHochberg(pValues, alpha); err == nil {
			adjusted, err = BenjaminiHochbergAdjusted(pValues)
		}
	default:
		return stats.CorrectionResult{}, fmt.Errorf("%w: %q", core.ErrUnknownMethod, method)
	}
	if err != nil {
		return stats.CorrectionResult{}, err
	}
	return stats.CorrectionResult{
		Method:   method,
		Alpha:    alpha,
		Rejected: rejected,
		Adjusted: adjusted,
	}, nil
}

func validateCorrection(pValues []float64, alpha float64) error {
	if err := validateAlpha(alpha); err != nil {
		return err
	}
	return validatePValues(pValues)
}

// rankAscending returns input indices ordered by p-value; ties keep input order.
func rankAscending(pValues []float64) []int {
	order := make([]int, len(pValues))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return pValues[order[a]] < pValues[order[b]]
	})
	return order
}
