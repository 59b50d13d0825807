package api

import (
	"context"
	"net/http"

	"artbench/app"
	"artbench/domain/analysis"
	"artbench/domain/core"
	"artbench/domain/stats"
	"artbench/internal"
	"artbench/internal/analysis/engine"
	"artbench/internal/errors"

	"github.com/gin-gonic/gin"
)

// BatchRunner runs one pipeline request. *app.Pipeline satisfies it.
type BatchRunner interface {
	Run(ctx context.Context, req app.PipelineRequest) (*app.PipelineReport, error)
}

// Handler serves the compute endpoints and the batch trigger.
type Handler struct {
	runner   BatchRunner
	artists  analysis.ArtistTable
	defaults app.TestOptions
	logger   *internal.Logger
}

// NewHandler creates a handler. runner may be nil when no sample source is
// configured; the batch endpoint then answers 503.
func NewHandler(runner BatchRunner, artists analysis.ArtistTable, defaults app.TestOptions, logger *internal.Logger) *Handler {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &Handler{
		runner:   runner,
		artists:  artists,
		defaults: defaults,
		logger:   logger.With("api"),
	}
}

// Health reports liveness
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":        "ok",
		"batch_enabled": h.runner != nil,
	})
}

// Describe returns descriptive statistics for one sample.
func (h *Handler) Describe(c *gin.Context) {
	var req DescribeRequest
	if !h.bind(c, &req) {
		return
	}

	result, err := engine.Describe(req.Values)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// TTest runs Student's or Welch's test and reports Cohen's d alongside.
func (h *Handler) TTest(c *gin.Context) {
	var req TTestRequest
	if !h.bind(c, &req) {
		return
	}

	test := engine.TTest
	if req.Welch {
		test = engine.WelchTTest
	}
	result, err := test(req.A, req.B)
	if err != nil {
		h.fail(c, err)
		return
	}
	d, err := engine.CohensD(req.A, req.B)
	if err != nil {
		h.fail(c, err)
		return
	}
	meanA, _ := engine.Mean(req.A)
	meanB, _ := engine.Mean(req.B)

	c.JSON(http.StatusOK, TTestResponse{
		TTestResult: result,
		Welch:       req.Welch,
		MeanDiff:    engine.MeanDifference(meanA, meanB),
		CohensD:     d,
		EffectLabel: stats.EffectSizeLabel(d),
	})
}

// ANOVA runs a one-way ANOVA across the request's groups.
func (h *Handler) ANOVA(c *gin.Context) {
	var req ANOVARequest
	if !h.bind(c, &req) {
		return
	}

	alpha := h.defaults.Alpha
	if req.Alpha != nil {
		alpha = *req.Alpha
	}
	result, err := engine.OneWayANOVA(req.Groups, alpha)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// Correct applies a multiple-comparison correction to a p-value family.
func (h *Handler) Correct(c *gin.Context) {
	var req CorrectRequest
	if !h.bind(c, &req) {
		return
	}

	method := h.defaults.Method
	if req.Method != "" {
		parsed, err := stats.ParseCorrectionMethod(req.Method)
		if err != nil {
			h.fail(c, err)
			return
		}
		method = parsed
	}
	alpha := h.defaults.Alpha
	if req.Alpha != nil {
		alpha = *req.Alpha
	}

	result, err := engine.Correct(method, req.PValues, alpha)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// AnalyzeBatch runs the pipeline for the batch named in the path.
func (h *Handler) AnalyzeBatch(c *gin.Context) {
	if h.runner == nil {
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{
			Error: "no sample source configured",
			Code:  errors.CodeInternalError,
		})
		return
	}

	batchID, err := core.ParseBatchID(c.Param("batchID"))
	if err != nil {
		h.fail(c, err)
		return
	}
	var req AnalyzeRequest
	if !h.bind(c, &req) {
		return
	}
	kind, err := analysis.ParseKind(req.Kind)
	if err != nil {
		h.fail(c, err)
		return
	}
	opts, err := h.options(req)
	if err != nil {
		h.fail(c, err)
		return
	}

	report, err := h.runner.Run(c.Request.Context(), app.PipelineRequest{
		BatchID: batchID,
		Kind:    kind,
		Artists: h.artists,
		Options: opts,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

func (h *Handler) options(req AnalyzeRequest) (app.TestOptions, error) {
	opts := h.defaults
	if req.Alpha != nil {
		opts.Alpha = *req.Alpha
	}
	if req.Method != "" {
		method, err := stats.ParseCorrectionMethod(req.Method)
		if err != nil {
			return opts, err
		}
		opts.Method = method
	}
	if req.GateOnANOVA != nil {
		opts.GateOnANOVA = *req.GateOnANOVA
	}
	if req.MinSamples != nil {
		opts.MinSamples = *req.MinSamples
	}
	return opts, opts.Validate()
}

func (h *Handler) bind(c *gin.Context, dst interface{}) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: "invalid request body: " + err.Error(),
			Code:  errors.CodeInvalidInput,
		})
		return false
	}
	return true
}

func (h *Handler) fail(c *gin.Context, err error) {
	code := errors.GetCode(err)
	status := errors.HTTPStatus(code)
	if status >= http.StatusInternalServerError {
		h.logger.Error("%s %s: %v", c.Request.Method, c.FullPath(), err)
	} else {
		h.logger.Debug("%s %s rejected: %v", c.Request.Method, c.FullPath(), err)
	}
	c.JSON(status, ErrorResponse{Error: err.Error(), Code: code})
}
