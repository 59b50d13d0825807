package engine

import (
	"math"
	"testing"

	"artbench/domain/core"
	"artbench/domain/stats"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBonferroniCorrection(t *testing.T) {
	got, err := BonferroniCorrection([]float64{0.01, 0.02, 0.03, 0.04, 0.05}, 0.05)
	require.NoError(t, err)
	assert.Equal(t, []bool{true, false, false, false, false}, got)
}

func TestBonferroniCorrection_PreservesOrder(t *testing.T) {
	got, err := BonferroniCorrection([]float64{0.5, 0.001, 0.2, 0.004}, 0.05)
	require.NoError(t, err)
	assert.Equal(t, []bool{false, true, false, true}, got)
}

func TestBenjaminiHochberg(t *testing.T) {
	p := []float64{0.001, 0.008, 0.02, 0.04, 0.1}
	bh, err := BenjaminiHochberg(p, 0.05)
	require.NoError(t, err)
	bonf, err := BonferroniCorrection(p, 0.05)
	require.NoError(t, err)

	assert.True(t, bh[0])
	assert.True(t, bh[1])
	// thresholds 0.01, 0.02, 0.03, 0.04, 0.05: ranks 1..4 pass
	assert.Equal(t, []bool{true, true, true, true, false}, bh)
	assert.GreaterOrEqual(t, countTrue(bh), countTrue(bonf))
}

func TestBenjaminiHochberg_StepUp(t *testing.T) {
	// rank 2 fails its own threshold (0.03 > 0.025) but rank 3 passes,
	// so everything ranked at or below 3 is rejected
	got, err := BenjaminiHochberg([]float64{0.03, 0.001, 0.035, 0.9}, 0.05)
	require.NoError(t, err)
	assert.Equal(t, []bool{true, true, true, false}, got)
}

func TestBenjaminiHochberg_Ties(t *testing.T) {
	got, err := BenjaminiHochberg([]float64{0.02, 0.02, 0.02}, 0.05)
	require.NoError(t, err)
	assert.Equal(t, []bool{true, true, true}, got)
}

func TestCorrection_EmptyInput(t *testing.T) {
	bonf, err := BonferroniCorrection(nil, 0.05)
	require.NoError(t, err)
	assert.Empty(t, bonf)

	bh, err := BenjaminiHochberg([]float64{}, 0.05)
	require.NoError(t, err)
	assert.Empty(t, bh)

	res, err := Correct(stats.CorrectionBenjaminiHochberg, nil, 0.05)
	require.NoError(t, err)
	assert.Empty(t, res.Rejected)
	assert.Empty(t, res.Adjusted)
}

func TestCorrection_InvalidInput(t *testing.T) {
	_, err := BonferroniCorrection([]float64{0.1, 1.2}, 0.05)
	assert.ErrorIs(t, err, core.ErrInvalidPValue)
	assert.Contains(t, err.Error(), "index 1")

	_, err = BenjaminiHochberg([]float64{math.NaN()}, 0.05)
	assert.ErrorIs(t, err, core.ErrInvalidPValue)

	_, err = BenjaminiHochberg([]float64{0.1}, 0)
	assert.ErrorIs(t, err, core.ErrInvalidAlpha)

	_, err = BonferroniCorrection([]float64{0.1}, math.NaN())
	assert.ErrorIs(t, err, core.ErrInvalidAlpha)

	_, err = BonferroniAdjusted([]float64{-0.1})
	assert.ErrorIs(t, err, core.ErrInvalidArgument)

	_, err = Correct("holm", []float64{0.1}, 0.05)
	assert.ErrorIs(t, err, core.ErrUnknownMethod)
}

func TestBonferroniAdjusted(t *testing.T) {
	got, err := BonferroniAdjusted([]float64{0.01, 0.3, 0.002})
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{0.03, 0.9, 0.006}, got, 1e-12)

	got, err = BonferroniAdjusted([]float64{0.6, 0.5})
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 1}, got)
}

func TestBenjaminiHochbergAdjusted(t *testing.T) {
	got, err := BenjaminiHochbergAdjusted([]float64{0.01, 0.04, 0.03, 0.005})
	require.NoError(t, err)
	// sorted: 0.005, 0.01, 0.03, 0.04 -> 0.02, 0.02, 0.04, 0.04
	assert.InDeltaSlice(t, []float64{0.02, 0.04, 0.04, 0.02}, got, 1e-12)
}

func TestBenjaminiHochbergAdjusted_AgreesWithRejections(t *testing.T) {
	p := []float64{0.001, 0.008, 0.02, 0.04, 0.1, 0.049, 0.3}
	rejected, err := BenjaminiHochberg(p, 0.05)
	require.NoError(t, err)
	adjusted, err := BenjaminiHochbergAdjusted(p)
	require.NoError(t, err)

	for i := range p {
		assert.Equal(t, rejected[i], adjusted[i] <= 0.05, "index %d", i)
	}
}

func TestCorrect(t *testing.T) {
	p := []float64{0.001, 0.008, 0.02, 0.04, 0.1}

	bonf, err := Correct(stats.CorrectionBonferroni, p, 0.05)
	require.NoError(t, err)
	assert.Equal(t, stats.CorrectionBonferroni, bonf.Method)
	assert.Equal(t, 0.05, bonf.Alpha)
	assert.Equal(t, 2, bonf.RejectedCount())
	assert.Len(t, bonf.Adjusted, len(p))

	bh, err := Correct(stats.CorrectionBenjaminiHochberg, p, 0.05)
	require.NoError(t, err)
	assert.Equal(t, 4, bh.RejectedCount())
}

func countTrue(flags []bool) int {
	n := 0
	for _, f := range flags {
		if f {
			n++
		}
	}
	return n
}
