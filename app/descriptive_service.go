package app

import (
	"context"
	"fmt"
	"time"

	"artbench/domain/core"
	"artbench/domain/stats"
	"artbench/internal"
	"artbench/internal/analysis/engine"
	"artbench/ports"

	"golang.org/x/sync/errgroup"
)

// SkippedSample records a sample set (or metric) that produced no record and why.
type SkippedSample struct {
	Key    stats.SampleKey `json:"key"`
	Reason string          `json:"reason"`
}

// DescriptiveResult is the output of one descriptive job.
type DescriptiveResult struct {
	Records []stats.DescriptiveRecord `json:"records"`
	Skipped []SkippedSample           `json:"skipped,omitempty"`
}

// DescriptiveService computes per-artist, per-metric descriptive statistics.
type DescriptiveService struct {
	source ports.SampleSource
	sink   ports.ResultSink
	logger *internal.Logger
	limit  int
	now    func() time.Time
}

// NewDescriptiveService creates a descriptive job. limit bounds concurrent computations.
func NewDescriptiveService(source ports.SampleSource, sink ports.ResultSink, logger *internal.Logger, limit int) *DescriptiveService {
	if limit < 1 {
		limit = 1
	}
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &DescriptiveService{
		source: source,
		sink:   sink,
		logger: logger.With("descriptive"),
		limit:  limit,
		now:    time.Now,
	}
}

// Compute loads every (artist, metric) sample set for the batch and describes it.
// Sets the engine rejects as invalid input are reported in Skipped; any other
// failure aborts the job before anything reaches the sink.
func (s *DescriptiveService) Compute(ctx context.Context, batchID core.BatchID, metrics []core.MetricName, artists []core.ArtistID) (*DescriptiveResult, error) {
	start := time.Now()

	var sets []stats.SampleSet
	for _, metric := range metrics {
		loaded, err := s.source.LoadSamples(ctx, batchID, metric, artists)
		if err != nil {
			return nil, fmt.Errorf("load samples for %s: %w", metric, err)
		}
		for _, set := range loaded {
			if set.Key.BatchID.IsEmpty() {
				set.Key.BatchID = batchID
			}
			sets = append(sets, set)
		}
	}

	records := make([]*stats.DescriptiveRecord, len(sets))
	reasons := make([]string, len(sets))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.limit)
	for i, set := range sets {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			d, err := engine.Describe(set.Values)
			if core.IsInvalidArgument(err) {
				reasons[i] = err.Error()
				return nil
			}
			if err != nil {
				return fmt.Errorf("describe %s: %w", set.Key, err)
			}
			records[i] = &stats.DescriptiveRecord{
				Key:         set.Key,
				Stats:       d,
				Fingerprint: core.FingerprintSamples(set.Values),
				ComputedAt:  s.now().UTC(),
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	result := &DescriptiveResult{}
	for i := range sets {
		if records[i] != nil {
			result.Records = append(result.Records, *records[i])
			continue
		}
		s.logger.Warn("skipping %s: %s", sets[i].Key, reasons[i])
		result.Skipped = append(result.Skipped, SkippedSample{Key: sets[i].Key, Reason: reasons[i]})
	}

	if len(result.Records) > 0 {
		if err := s.sink.SaveDescriptive(ctx, result.Records); err != nil {
			return nil, fmt.Errorf("save descriptive records: %w", err)
		}
	}

	s.logger.Info("batch %s: %d descriptive records, %d skipped in %s",
		batchID, len(result.Records), len(result.Skipped), time.Since(start).Round(time.Millisecond))
	return result, nil
}
