package engine

import (
	"math"
	"sort"
	"testing"

	"artbench/domain/stats"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

// finiteSample mixes ordinary magnitudes with values up to the float64 limit.
func finiteSample(minLen int) *rapid.Generator[[]float64] {
	return rapid.SliceOfN(rapid.OneOf(
		rapid.Float64Range(-1e6, 1e6),
		rapid.Float64Range(-math.MaxFloat64, math.MaxFloat64),
	), minLen, 60)
}

func clone(xs []float64) []float64 {
	return append([]float64(nil), xs...)
}

func pValueSet() *rapid.Generator[[]float64] {
	return rapid.SliceOfN(rapid.Float64Range(0, 1), 0, 40)
}

func TestProperty_CentralTendencyWithinRange(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		xs := finiteSample(1).Draw(t, "xs")
		d, err := Describe(xs)
		require.NoError(t, err)

		require.LessOrEqual(t, d.Min, d.Mean)
		require.LessOrEqual(t, d.Mean, d.Max)
		require.LessOrEqual(t, d.Min, d.Median)
		require.LessOrEqual(t, d.Median, d.Max)
		require.LessOrEqual(t, d.Q1, d.Median)
		require.LessOrEqual(t, d.Median, d.Q3)
		require.GreaterOrEqual(t, d.StdDev, 0.0)
		require.LessOrEqual(t, d.CI95Lower, d.CI95Upper)
	})
}

func TestProperty_DescribeIsDeterministicAndPure(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		xs := finiteSample(1).Draw(t, "xs")
		snapshot := clone(xs)

		first, err := Describe(xs)
		require.NoError(t, err)
		second, err := Describe(xs)
		require.NoError(t, err)

		require.Equal(t, first, second)
		require.Equal(t, snapshot, xs)
	})
}

func TestProperty_TwoSampleTestsAreDeterministicAndPure(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		a := finiteSample(2).Draw(t, "a")
		b := finiteSample(2).Draw(t, "b")
		snapA, snapB := clone(a), clone(b)

		for _, fn := range []func([]float64, []float64) (stats.TTestResult, error){TTest, WelchTTest} {
			first, err := fn(a, b)
			require.NoError(t, err)
			second, err := fn(a, b)
			require.NoError(t, err)
			require.Equal(t, first, second)
		}

		first, err := CohensD(a, b)
		require.NoError(t, err)
		second, err := CohensD(a, b)
		require.NoError(t, err)
		require.Equal(t, first, second)

		require.Equal(t, snapA, a)
		require.Equal(t, snapB, b)
	})
}

func TestProperty_ANOVAIsDeterministicAndPure(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		k := rapid.IntRange(2, 5).Draw(t, "k")
		groups := make([][]float64, k)
		snapshot := make([][]float64, k)
		for i := range groups {
			groups[i] = finiteSample(2).Draw(t, "group")
			snapshot[i] = clone(groups[i])
		}

		first, err := OneWayANOVA(groups, 0.05)
		require.NoError(t, err)
		second, err := OneWayANOVA(groups, 0.05)
		require.NoError(t, err)

		require.Equal(t, first, second)
		require.Equal(t, snapshot, groups)
	})
}

func TestProperty_CorrectionsAreDeterministicAndPure(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		p := pValueSet().Draw(t, "p")
		alpha := rapid.Float64Range(0.001, 0.2).Draw(t, "alpha")
		snapshot := clone(p)

		for _, fn := range []func([]float64, float64) ([]bool, error){BonferroniCorrection, BenjaminiHochberg} {
			first, err := fn(p, alpha)
			require.NoError(t, err)
			second, err := fn(p, alpha)
			require.NoError(t, err)
			require.Equal(t, first, second)
		}
		for _, fn := range []func([]float64) ([]float64, error){BonferroniAdjusted, BenjaminiHochbergAdjusted} {
			first, err := fn(p)
			require.NoError(t, err)
			second, err := fn(p)
			require.NoError(t, err)
			require.Equal(t, first, second)
		}

		require.Equal(t, snapshot, p)
	})
}

func TestProperty_TestsNeverReturnNaN(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		a := finiteSample(2).Draw(t, "a")
		b := finiteSample(2).Draw(t, "b")

		for _, run := range []func([]float64, []float64) (float64, float64, float64, error){
			func(a, b []float64) (float64, float64, float64, error) {
				r, err := TTest(a, b)
				return r.TStatistic, r.PValue, r.DegreesOfFreedom, err
			},
			func(a, b []float64) (float64, float64, float64, error) {
				r, err := WelchTTest(a, b)
				return r.TStatistic, r.PValue, r.DegreesOfFreedom, err
			},
		} {
			tv, p, df, err := run(a, b)
			require.NoError(t, err)
			require.False(t, math.IsNaN(tv) || math.IsInf(tv, 0), "t=%v", tv)
			require.True(t, p >= 0 && p <= 1, "p=%v", p)
			require.GreaterOrEqual(t, df, 1.0)
			require.LessOrEqual(t, df, float64(len(a)+len(b)-2))
		}

		d, err := CohensD(a, b)
		require.NoError(t, err)
		require.False(t, math.IsNaN(d))
	})
}

func TestProperty_ANOVABounds(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		k := rapid.IntRange(2, 6).Draw(t, "k")
		groups := make([][]float64, k)
		for i := range groups {
			groups[i] = finiteSample(2).Draw(t, "group")
		}

		r, err := OneWayANOVA(groups, 0.05)
		require.NoError(t, err)
		require.GreaterOrEqual(t, r.FStatistic, 0.0)
		require.True(t, r.PValue >= 0 && r.PValue <= 1, "p=%v", r.PValue)
		require.True(t, r.EtaSquared >= 0 && r.EtaSquared <= 1, "eta=%v", r.EtaSquared)
		require.Equal(t, k-1, r.DFBetween)
		require.Equal(t, r.PValue < 0.05, r.Significant)
	})
}

func TestProperty_BHRejectsAtLeastBonferroni(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		p := pValueSet().Draw(t, "p")
		alpha := rapid.Float64Range(0.001, 0.2).Draw(t, "alpha")

		bonf, err := BonferroniCorrection(p, alpha)
		require.NoError(t, err)
		bh, err := BenjaminiHochberg(p, alpha)
		require.NoError(t, err)

		require.Len(t, bh, len(p))
		for i := range p {
			if bonf[i] {
				require.True(t, bh[i], "index %d rejected by bonferroni only", i)
			}
		}
		require.GreaterOrEqual(t, countTrue(bh), countTrue(bonf))
	})
}

func TestProperty_CorrectionPermutesWithInput(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		p := pValueSet().Draw(t, "p")
		perm := rapid.Permutation(indices(len(p))).Draw(t, "perm")

		shuffled := make([]float64, len(p))
		for i, j := range perm {
			shuffled[i] = p[j]
		}

		for _, fn := range []func([]float64, float64) ([]bool, error){BonferroniCorrection, BenjaminiHochberg} {
			orig, err := fn(p, 0.05)
			require.NoError(t, err)
			got, err := fn(shuffled, 0.05)
			require.NoError(t, err)
			for i, j := range perm {
				require.Equal(t, orig[j], got[i])
			}
		}
	})
}

func TestProperty_BHRejectionsAreAPrefixOfSortedPValues(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		p := pValueSet().Draw(t, "p")
		bh, err := BenjaminiHochberg(p, 0.05)
		require.NoError(t, err)

		maxRejected, minKept := -1.0, 2.0
		for i, rej := range bh {
			if rej {
				maxRejected = math.Max(maxRejected, p[i])
			} else {
				minKept = math.Min(minKept, p[i])
			}
		}
		require.LessOrEqual(t, maxRejected, minKept)
	})
}

func TestProperty_AdjustedPValuesAreMonotone(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		p := pValueSet().Draw(t, "p")
		for _, fn := range []func([]float64) ([]float64, error){BonferroniAdjusted, BenjaminiHochbergAdjusted} {
			adj, err := fn(p)
			require.NoError(t, err)

			order := indices(len(p))
			sort.SliceStable(order, func(a, b int) bool { return p[order[a]] < p[order[b]] })
			for r := 1; r < len(order); r++ {
				require.LessOrEqual(t, adj[order[r-1]], adj[order[r]])
			}
			for i := range p {
				require.GreaterOrEqual(t, adj[i]+1e-12, p[i])
				require.LessOrEqual(t, adj[i], 1.0)
			}
		}
	})
}

func indices(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}
