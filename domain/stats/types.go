package stats

import (
	"fmt"
	"math"
	"strings"
	"time"

	"artbench/domain/core"
)

// ============================================================================
// SAMPLES
// ============================================================================

// SampleKey identifies one (artist, metric) observation series, optionally scoped to a batch.
type SampleKey struct {
	Artist  core.ArtistID   `json:"artist"`
	Metric  core.MetricName `json:"metric"`
	BatchID core.BatchID    `json:"batch_id,omitempty"`
}

func (k SampleKey) String() string {
	if k.BatchID.IsEmpty() {
		return fmt.Sprintf("%s/%s", k.Artist, k.Metric)
	}
	return fmt.Sprintf("%s/%s@%s", k.Artist, k.Metric, k.BatchID)
}

// SampleSet is an ordered sequence of observations for one key.
type SampleSet struct {
	Key    SampleKey `json:"key"`
	Values []float64 `json:"values"`
}

// Len returns the number of observations
func (s SampleSet) Len() int {
	return len(s.Values)
}

// ============================================================================
// DESCRIPTIVE RECORDS
// ============================================================================

// Quartiles holds the three quartile points
type Quartiles struct {
	Q1 float64 `json:"q1"`
	Q2 float64 `json:"q2"`
	Q3 float64 `json:"q3"`
}

// ConfidenceInterval is a two-sided interval around a sample mean.
// Degenerate marks a zero-width interval that was not estimated from spread
// (a single observation).
type ConfidenceInterval struct {
	Level      float64 `json:"level"`
	Lower      float64 `json:"lower"`
	Upper      float64 `json:"upper"`
	Degenerate bool    `json:"degenerate,omitempty"`
}

// Width returns Upper - Lower
func (ci ConfidenceInterval) Width() float64 {
	return ci.Upper - ci.Lower
}

// Contains reports whether x lies inside the closed interval
func (ci ConfidenceInterval) Contains(x float64) bool {
	return x >= ci.Lower && x <= ci.Upper
}

// DescriptiveStats summarizes exactly one sample set.
// StdDev is the population standard deviation; the interval uses the sample one.
type DescriptiveStats struct {
	N            int     `json:"n"`
	Mean         float64 `json:"mean"`
	StdDev       float64 `json:"std_dev"`
	Median       float64 `json:"median"`
	Q1           float64 `json:"q1"`
	Q3           float64 `json:"q3"`
	Min          float64 `json:"min"`
	Max          float64 `json:"max"`
	CI95Lower    float64 `json:"ci95_lower"`
	CI95Upper    float64 `json:"ci95_upper"`
	CIDegenerate bool    `json:"ci_degenerate,omitempty"`
}

// IQR returns the interquartile range
func (d DescriptiveStats) IQR() float64 {
	return d.Q3 - d.Q1
}

// DescriptiveRecord is what the descriptive job hands to a result sink.
type DescriptiveRecord struct {
	Key         SampleKey        `json:"key"`
	Stats       DescriptiveStats `json:"stats"`
	Fingerprint core.Hash        `json:"fingerprint"`
	ComputedAt  time.Time        `json:"computed_at"`
}

// ============================================================================
// INFERENTIAL RECORDS
// ============================================================================

// SaturatedStatistic replaces an infinite test statistic (zero variance with
// differing means) so records stay encodable.
const SaturatedStatistic = math.MaxFloat64

// TTestResult is the outcome of a two-sample t-test.
type TTestResult struct {
	TStatistic       float64 `json:"t_statistic"`
	PValue           float64 `json:"p_value"`
	DegreesOfFreedom float64 `json:"degrees_of_freedom"`
}

// PairwiseComparison contrasts two artists on one metric using Welch's t-test.
// Significant is only meaningful after family-wise correction has been applied
// to every comparison for the metric; it is never the raw p < alpha flag.
type PairwiseComparison struct {
	Metric           core.MetricName  `json:"metric"`
	BatchID          core.BatchID     `json:"batch_id,omitempty"`
	Artist1          core.ArtistID    `json:"artist1"`
	Artist2          core.ArtistID    `json:"artist2"`
	N1               int              `json:"n1"`
	N2               int              `json:"n2"`
	Mean1            float64          `json:"mean1"`
	Mean2            float64          `json:"mean2"`
	MeanDiff         float64          `json:"mean_diff"`
	TStatistic       float64          `json:"t_statistic"`
	PValue           float64          `json:"p_value"`
	DegreesOfFreedom float64          `json:"degrees_of_freedom"`
	CohensD          float64          `json:"cohens_d"`
	Significant      bool             `json:"significant"`
	AdjustedPValue   float64          `json:"adjusted_p_value"`
	Method           CorrectionMethod `json:"correction_method,omitempty"`
}

// EffectLabel returns the conventional label for CohensD
func (p PairwiseComparison) EffectLabel() string {
	return EffectSizeLabel(p.CohensD)
}

// ANOVAResult is the outcome of a one-way ANOVA across artists for one metric.
type ANOVAResult struct {
	FStatistic  float64 `json:"f_statistic"`
	PValue      float64 `json:"p_value"`
	DFBetween   int     `json:"df_between"`
	DFWithin    int     `json:"df_within"`
	EtaSquared  float64 `json:"eta_squared"`
	Significant bool    `json:"significant"`
}

// ANOVARecord keys an ANOVA result for persistence.
type ANOVARecord struct {
	Metric  core.MetricName `json:"metric"`
	BatchID core.BatchID    `json:"batch_id,omitempty"`
	Artists []core.ArtistID `json:"artists"`
	Result  ANOVAResult     `json:"result"`
}

// ============================================================================
// MULTIPLE-COMPARISON CORRECTION
// ============================================================================

// CorrectionMethod selects the family-wise procedure
type CorrectionMethod string

const (
	CorrectionBonferroni        CorrectionMethod = "bonferroni"
	CorrectionBenjaminiHochberg CorrectionMethod = "benjamini_hochberg"
)

// ParseCorrectionMethod accepts canonical names and the usual short forms.
func ParseCorrectionMethod(s string) (CorrectionMethod, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "bonferroni", "bonf":
		return CorrectionBonferroni, nil
	case "benjamini_hochberg", "benjamini-hochberg", "bh", "fdr":
		return CorrectionBenjaminiHochberg, nil
	}
	return "", fmt.Errorf("%w: %q", core.ErrUnknownMethod, s)
}

// CorrectionResult is positionally aligned with the p-values it was computed from.
type CorrectionResult struct {
	Method   CorrectionMethod `json:"method"`
	Alpha    float64          `json:"alpha"`
	Rejected []bool           `json:"rejected"`
	Adjusted []float64        `json:"adjusted"`
}

// RejectedCount returns how many null hypotheses were rejected
func (r CorrectionResult) RejectedCount() int {
	n := 0
	for _, rej := range r.Rejected {
		if rej {
			n++
		}
	}
	return n
}

// EffectSizeLabel classifies |d| with Cohen's conventional cut points.
func EffectSizeLabel(d float64) string {
	abs := math.Abs(d)
	switch {
	case abs < 0.2:
		return "negligible"
	case abs < 0.5:
		return "small"
	case abs < 0.8:
		return "medium"
	default:
		return "large"
	}
}
