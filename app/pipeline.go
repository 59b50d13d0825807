package app

import (
	"context"
	"fmt"
	"time"

	"artbench/domain/analysis"
	"artbench/domain/core"
	"artbench/internal"
	"artbench/ports"
)

// PipelineRequest asks for one analysis kind over one batch.
type PipelineRequest struct {
	BatchID core.BatchID         `json:"batch_id"`
	Kind    analysis.Kind        `json:"kind"`
	Artists analysis.ArtistTable `json:"artists"`
	Options TestOptions          `json:"options"`
}

// PipelineReport is everything one pipeline run produced.
type PipelineReport struct {
	RunID       core.RunID         `json:"run_id"`
	BatchID     core.BatchID       `json:"batch_id"`
	Kind        analysis.Kind      `json:"kind"`
	Artists     []core.ArtistID    `json:"artists"`
	Metrics     []core.MetricName  `json:"metrics"`
	Descriptive *DescriptiveResult `json:"descriptive"`
	Tests       *TestingResult     `json:"tests"`
	Skipped     []SkippedSample    `json:"skipped,omitempty"`
	StartedAt   time.Time          `json:"started_at"`
	Duration    time.Duration      `json:"duration"`
}

// Pipeline runs the descriptive job and then the testing job for an analysis kind.
type Pipeline struct {
	descriptive *DescriptiveService
	testing     *TestingService
	logger      *internal.Logger
}

// NewPipeline wires both jobs to the same source and sink.
func NewPipeline(source ports.SampleSource, sink ports.ResultSink, logger *internal.Logger, workerLimit int) *Pipeline {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	logger = logger.With("pipeline")
	return &Pipeline{
		descriptive: NewDescriptiveService(source, sink, logger, workerLimit),
		testing:     NewTestingService(source, sink, logger, workerLimit),
		logger:      logger,
	}
}

// Run validates the request, resolves the kind's metrics and runs both jobs.
func (p *Pipeline) Run(ctx context.Context, req PipelineRequest) (*PipelineReport, error) {
	if req.BatchID.IsEmpty() {
		return nil, fmt.Errorf("%w: batch id is required", core.ErrInvalidArgument)
	}
	metrics, err := analysis.Metrics(req.Kind)
	if err != nil {
		return nil, err
	}
	if err := req.Artists.Validate(); err != nil {
		return nil, err
	}
	artists := req.Artists.Enabled()
	if len(artists) == 0 {
		return nil, fmt.Errorf("%w: no enabled artists", core.ErrInvalidArgument)
	}
	if err := req.Options.Validate(); err != nil {
		return nil, err
	}

	start := time.Now()
	report := &PipelineReport{
		RunID:     core.NewRunID(),
		BatchID:   req.BatchID,
		Kind:      req.Kind,
		Artists:   artists,
		Metrics:   metrics,
		StartedAt: start.UTC(),
	}
	p.logger.Info("run %s: %s analysis of batch %s over %d artists", report.RunID, req.Kind, req.BatchID, len(artists))

	report.Descriptive, err = p.descriptive.Compute(ctx, req.BatchID, metrics, artists)
	if err != nil {
		return nil, fmt.Errorf("descriptive job: %w", err)
	}
	report.Tests, err = p.testing.Run(ctx, req.BatchID, metrics, artists, req.Options)
	if err != nil {
		return nil, fmt.Errorf("testing job: %w", err)
	}

	report.Skipped = append(report.Skipped, report.Descriptive.Skipped...)
	report.Skipped = append(report.Skipped, report.Tests.Skipped...)
	report.Duration = time.Since(start)

	p.logger.Info("run %s finished in %s", report.RunID, report.Duration.Round(time.Millisecond))
	return report, nil
}
