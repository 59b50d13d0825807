package engine

import (
	"errors"
	"math"
	"testing"

	"artbench/domain/core"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMean(t *testing.T) {
	m, err := Mean([]float64{1, 2, 3, 4, 5})
	require.NoError(t, err)
	assert.Equal(t, 3.0, m)

	m, err = Mean([]float64{42})
	require.NoError(t, err)
	assert.Equal(t, 42.0, m)
}

func TestMean_ConstantSampleStaysInRange(t *testing.T) {
	m, err := Mean([]float64{0.1, 0.1, 0.1})
	require.NoError(t, err)
	assert.Equal(t, 0.1, m)
}

func TestStandardDeviation_Population(t *testing.T) {
	sd, err := StandardDeviation([]float64{2, 4, 4, 4, 5, 5, 7, 9})
	require.NoError(t, err)
	assert.InDelta(t, 2.0, sd, 1e-12)

	sd, err = StandardDeviation([]float64{7})
	require.NoError(t, err)
	assert.Equal(t, 0.0, sd)

	sd, err = StandardDeviation([]float64{3.3, 3.3, 3.3, 3.3})
	require.NoError(t, err)
	assert.Equal(t, 0.0, sd)
}

func TestSampleStandardDeviation(t *testing.T) {
	sd, err := SampleStandardDeviation([]float64{10, 12, 14, 16, 18, 20})
	require.NoError(t, err)
	assert.InDelta(t, math.Sqrt(14), sd, 1e-12)

	_, err = SampleStandardDeviation([]float64{1})
	assert.ErrorIs(t, err, core.ErrInsufficientData)
	assert.ErrorIs(t, err, core.ErrInvalidArgument)
}

func TestMedian(t *testing.T) {
	tests := []struct {
		name string
		xs   []float64
		want float64
	}{
		{"odd", []float64{1, 2, 3, 4, 5}, 3},
		{"even", []float64{1, 2, 3, 4}, 2.5},
		{"unsorted", []float64{9, 1, 5}, 5},
		{"single", []float64{-4}, -4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Median(tt.xs)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestQuartiles(t *testing.T) {
	q, err := Quartiles([]float64{1, 2, 3, 4, 5, 6, 7, 8, 9})
	require.NoError(t, err)
	assert.Equal(t, 2.5, q.Q1)
	assert.Equal(t, 5.0, q.Q2)
	assert.Equal(t, 7.5, q.Q3)

	q, err = Quartiles([]float64{1, 2, 3, 4, 5, 6, 7, 8})
	require.NoError(t, err)
	assert.Equal(t, 2.5, q.Q1)
	assert.Equal(t, 4.5, q.Q2)
	assert.Equal(t, 6.5, q.Q3)

	q, err = Quartiles([]float64{6})
	require.NoError(t, err)
	assert.Equal(t, 6.0, q.Q1)
	assert.Equal(t, 6.0, q.Q2)
	assert.Equal(t, 6.0, q.Q3)
}

func TestConfidenceInterval95(t *testing.T) {
	ci, err := ConfidenceInterval95([]float64{10, 12, 14, 16, 18, 20})
	require.NoError(t, err)
	assert.Equal(t, 0.95, ci.Level)
	// t(0.975, 5) = 2.570582, s = sqrt(14), n = 6
	half := 2.570582 * math.Sqrt(14) / math.Sqrt(6)
	assert.InDelta(t, 15-half, ci.Lower, 1e-4)
	assert.InDelta(t, 15+half, ci.Upper, 1e-4)
	assert.True(t, ci.Contains(15))
}

func TestConfidenceInterval_ZeroVariance(t *testing.T) {
	ci, err := ConfidenceInterval95([]float64{4, 4, 4})
	require.NoError(t, err)
	assert.Equal(t, 4.0, ci.Lower)
	assert.Equal(t, 4.0, ci.Upper)
	assert.False(t, ci.Degenerate)
}

func TestConfidenceInterval_Errors(t *testing.T) {
	_, err := ConfidenceInterval95([]float64{1})
	assert.ErrorIs(t, err, core.ErrInsufficientData)

	_, err = ConfidenceInterval([]float64{1, 2, 3}, 1.5)
	assert.ErrorIs(t, err, core.ErrInvalidArgument)

	_, err = ConfidenceInterval([]float64{1, 2, 3}, 0)
	assert.ErrorIs(t, err, core.ErrInvalidArgument)
}

func TestConfidenceInterval_WiderAtHigherLevel(t *testing.T) {
	xs := []float64{3, 5, 4, 6, 8, 7}
	ci90, err := ConfidenceInterval(xs, 0.90)
	require.NoError(t, err)
	ci99, err := ConfidenceInterval(xs, 0.99)
	require.NoError(t, err)
	assert.Greater(t, ci99.Width(), ci90.Width())
}

func TestDescribe(t *testing.T) {
	d, err := Describe([]float64{1, 2, 3, 4, 5, 6, 7, 8, 9})
	require.NoError(t, err)
	assert.Equal(t, 9, d.N)
	assert.Equal(t, 5.0, d.Mean)
	assert.Equal(t, 5.0, d.Median)
	assert.Equal(t, 2.5, d.Q1)
	assert.Equal(t, 7.5, d.Q3)
	assert.Equal(t, 5.0, d.IQR())
	assert.Equal(t, 1.0, d.Min)
	assert.Equal(t, 9.0, d.Max)
	assert.InDelta(t, math.Sqrt(60.0/9), d.StdDev, 1e-12)
	assert.Less(t, d.CI95Lower, d.Mean)
	assert.Greater(t, d.CI95Upper, d.Mean)
	assert.False(t, d.CIDegenerate)
}

func TestDescribe_SingleObservation(t *testing.T) {
	d, err := Describe([]float64{0.42})
	require.NoError(t, err)
	assert.Equal(t, 1, d.N)
	assert.Equal(t, 0.42, d.Mean)
	assert.Equal(t, 0.0, d.StdDev)
	assert.Equal(t, 0.42, d.CI95Lower)
	assert.Equal(t, 0.42, d.CI95Upper)
	assert.True(t, d.CIDegenerate)
}

func TestDescriptive_InvalidInput(t *testing.T) {
	funcs := map[string]func([]float64) error{
		"mean":     func(xs []float64) error { _, err := Mean(xs); return err },
		"sd":       func(xs []float64) error { _, err := StandardDeviation(xs); return err },
		"sampleSD": func(xs []float64) error { _, err := SampleStandardDeviation(xs); return err },
		"median":   func(xs []float64) error { _, err := Median(xs); return err },
		"quartile": func(xs []float64) error { _, err := Quartiles(xs); return err },
		"ci":       func(xs []float64) error { _, err := ConfidenceInterval95(xs); return err },
		"describe": func(xs []float64) error { _, err := Describe(xs); return err },
	}

	for name, fn := range funcs {
		t.Run(name, func(t *testing.T) {
			err := fn(nil)
			assert.ErrorIs(t, err, core.ErrEmptySample)
			assert.True(t, core.IsInvalidArgument(err))

			err = fn([]float64{1, math.NaN(), 3})
			assert.ErrorIs(t, err, core.ErrNonFinite)
			assert.Contains(t, err.Error(), "index 1")

			err = fn([]float64{1, 2, math.Inf(-1)})
			assert.True(t, errors.Is(err, core.ErrNonFinite))
		})
	}
}

func TestDescribe_DoesNotMutateInput(t *testing.T) {
	xs := []float64{5, 3, 9, 1, 7}
	want := append([]float64(nil), xs...)
	_, err := Describe(xs)
	require.NoError(t, err)
	assert.Equal(t, want, xs)
}

func TestDescribe_NearFloat64Limit(t *testing.T) {
	xs := []float64{1e308, 1.5e308, 1.7e308}
	d, err := Describe(xs)
	require.NoError(t, err)

	want, err := Describe([]float64{1, 1.5, 1.7})
	require.NoError(t, err)

	for name, v := range map[string]float64{
		"mean": d.Mean, "sd": d.StdDev, "median": d.Median,
		"q1": d.Q1, "q3": d.Q3, "ci lower": d.CI95Lower, "ci upper": d.CI95Upper,
	} {
		assert.False(t, math.IsNaN(v) || math.IsInf(v, 0), "%s=%v", name, v)
	}
	assert.InEpsilon(t, want.Mean*1e308, d.Mean, 1e-12)
	assert.InEpsilon(t, want.StdDev*1e308, d.StdDev, 1e-12)
	assert.InEpsilon(t, want.Median*1e308, d.Median, 1e-12)
	assert.Less(t, d.CI95Lower, d.Mean)
	// the upper bound lies past MaxFloat64
	assert.Equal(t, SaturatedStatistic, d.CI95Upper)

	s, err := SampleStandardDeviation(xs)
	require.NoError(t, err)
	assert.False(t, math.IsInf(s, 0))
	assert.Greater(t, s, d.StdDev)
}
