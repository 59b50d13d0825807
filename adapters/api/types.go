package api

import (
	"artbench/domain/stats"
)

// DescribeRequest carries one sample set.
type DescribeRequest struct {
	Values []float64 `json:"values"`
}

// TTestRequest compares two samples. Welch selects the unequal-variance test.
type TTestRequest struct {
	A     []float64 `json:"a"`
	B     []float64 `json:"b"`
	Welch bool      `json:"welch"`
}

// TTestResponse is the test result plus the effect size for the same pair.
type TTestResponse struct {
	stats.TTestResult
	Welch       bool    `json:"welch"`
	MeanDiff    float64 `json:"mean_diff"`
	CohensD     float64 `json:"cohens_d"`
	EffectLabel string  `json:"effect_label"`
}

// ANOVARequest holds two or more groups. Alpha defaults to the configured level.
type ANOVARequest struct {
	Groups [][]float64 `json:"groups"`
	Alpha  *float64    `json:"alpha,omitempty"`
}

// CorrectRequest holds a p-value family.
type CorrectRequest struct {
	PValues []float64 `json:"p_values"`
	Alpha   *float64  `json:"alpha,omitempty"`
	Method  string    `json:"method,omitempty"`
}

// AnalyzeRequest triggers a pipeline run over a stored batch. Unset options
// fall back to the server defaults.
type AnalyzeRequest struct {
	Kind        string   `json:"kind"`
	Alpha       *float64 `json:"alpha,omitempty"`
	Method      string   `json:"method,omitempty"`
	GateOnANOVA *bool    `json:"gate_on_anova,omitempty"`
	MinSamples  *int     `json:"min_samples,omitempty"`
}

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}
