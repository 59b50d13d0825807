package engine

import (
	"fmt"
	"math"

	"artbench/domain/core"
)

// ValidateSample reports whether xs is usable by every function in this package
// that accepts a single sample: non-empty and finite.
func ValidateSample(xs []float64) error {
	return validateSample(xs)
}

// validateSample rejects empty input and any NaN or infinite observation.
func validateSample(xs []float64) error {
	if len(xs) == 0 {
		return core.ErrEmptySample
	}
	for i, x := range xs {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return core.NewSampleError(core.ErrNonFinite, i, x)
		}
	}
	return nil
}

func validatePair(a, b []float64) error {
	if err := validateSample(a); err != nil {
		return fmt.Errorf("first sample: %w", err)
	}
	if err := validateSample(b); err != nil {
		return fmt.Errorf("second sample: %w", err)
	}
	return nil
}

func validateAlpha(alpha float64) error {
	if !(alpha > 0 && alpha < 1) {
		return fmt.Errorf("%w: %v", core.ErrInvalidAlpha, alpha)
	}
	return nil
}

func validatePValues(pValues []float64) error {
	for i, p := range pValues {
		if !(p >= 0 && p <= 1) {
			return core.NewSampleError(core.ErrInvalidPValue, i, p)
		}
	}
	return nil
}

// ratio divides without producing Inf: 0/0 is 0, x/0 saturates with the sign of x
// and infinite operands are saturated first, so Inf/Inf is ±1 rather than NaN.
// Only a NaN operand yields NaN.
func ratio(num, den float64) float64 {
	num, den = saturate(num), saturate(den)
	if den == 0 {
		if num == 0 {
			return 0
		}
		return math.Copysign(SaturatedStatistic, num)
	}
	return saturate(num / den)
}
