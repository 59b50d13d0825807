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

// TestOptions controls the statistical testing job.
type TestOptions struct {
	Alpha  float64                `json:"alpha"`
	Method stats.CorrectionMethod `json:"method"`
	// GateOnANOVA skips pairwise tests for a metric whose ANOVA is not significant.
	GateOnANOVA bool `json:"gate_on_anova"`
	// MinSamples is the smallest sample set admitted into the tests.
	// Pairwise comparisons additionally need two observations per artist.
	MinSamples int `json:"min_samples"`
}

// DefaultTestOptions returns alpha 0.05, Benjamini-Hochberg, ANOVA gating and n >= 2.
func DefaultTestOptions() TestOptions {
	return TestOptions{
		Alpha:       0.05,
		Method:      stats.CorrectionBenjaminiHochberg,
		GateOnANOVA: true,
		MinSamples:  2,
	}
}

// Validate rejects options the engine could not honor.
func (o TestOptions) Validate() error {
	if !(o.Alpha > 0 && o.Alpha < 1) {
		return fmt.Errorf("%w: %v", core.ErrInvalidAlpha, o.Alpha)
	}
	if _, err := stats.ParseCorrectionMethod(string(o.Method)); err != nil {
		return err
	}
	if o.MinSamples < 1 {
		return fmt.Errorf("%w: min samples must be at least 1, got %d", core.ErrInvalidArgument, o.MinSamples)
	}
	return nil
}

// TestingResult is the output of one testing job.
type TestingResult struct {
	ANOVA    []stats.ANOVARecord        `json:"anova"`
	Pairwise []stats.PairwiseComparison `json:"pairwise"`
	// Gated lists metrics whose pairwise tests were withheld by a non-significant ANOVA.
	Gated   []core.MetricName `json:"gated,omitempty"`
	Skipped []SkippedSample   `json:"skipped,omitempty"`
}

// TestingService runs ANOVA and corrected pairwise Welch tests per metric.
type TestingService struct {
	source ports.SampleSource
	sink   ports.ResultSink
	logger *internal.Logger
	limit  int
}

// NewTestingService creates a testing job. limit bounds concurrent pairwise tests.
func NewTestingService(source ports.SampleSource, sink ports.ResultSink, logger *internal.Logger, limit int) *TestingService {
	if limit < 1 {
		limit = 1
	}
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &TestingService{
		source: source,
		sink:   sink,
		logger: logger.With("testing"),
		limit:  limit,
	}
}

// Run tests every metric independently. Each metric's pairwise p-values form
// one correction family.
func (s *TestingService) Run(ctx context.Context, batchID core.BatchID, metrics []core.MetricName, artists []core.ArtistID, opts TestOptions) (*TestingResult, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	start := time.Now()

	result := &TestingResult{}
	for _, metric := range metrics {
		if err := s.runMetric(ctx, batchID, metric, artists, opts, result); err != nil {
			return nil, err
		}
	}

	s.logger.Info("batch %s: %d anova, %d pairwise, %d gated, %d skipped in %s",
		batchID, len(result.ANOVA), len(result.Pairwise), len(result.Gated), len(result.Skipped),
		time.Since(start).Round(time.Millisecond))
	return result, nil
}

func (s *TestingService) runMetric(ctx context.Context, batchID core.BatchID, metric core.MetricName, artists []core.ArtistID, opts TestOptions, result *TestingResult) error {
	sets, err := s.source.LoadSamples(ctx, batchID, metric, artists)
	if err != nil {
		return fmt.Errorf("load samples for %s: %w", metric, err)
	}

	var eligible []stats.SampleSet
	for _, set := range sets {
		if set.Key.BatchID.IsEmpty() {
			set.Key.BatchID = batchID
		}
		if err := engine.ValidateSample(set.Values); err != nil {
			result.Skipped = append(result.Skipped, SkippedSample{Key: set.Key, Reason: err.Error()})
			continue
		}
		if set.Len() < opts.MinSamples {
			result.Skipped = append(result.Skipped, SkippedSample{
				Key:    set.Key,
				Reason: fmt.Sprintf("%d observations, need %d", set.Len(), opts.MinSamples),
			})
			continue
		}
		eligible = append(eligible, set)
	}

	metricKey := stats.SampleKey{Metric: metric, BatchID: batchID}
	if len(eligible) < 2 {
		s.logger.Warn("metric %s: %d artists with data, need 2", metric, len(eligible))
		result.Skipped = append(result.Skipped, SkippedSample{Key: metricKey, Reason: "fewer than two artists with data"})
		return nil
	}

	groups := make([][]float64, len(eligible))
	ids := make([]core.ArtistID, len(eligible))
	for i, set := range eligible {
		groups[i] = set.Values
		ids[i] = set.Key.Artist
	}

	anova, err := engine.OneWayANOVA(groups, opts.Alpha)
	if core.IsInvalidArgument(err) {
		result.Skipped = append(result.Skipped, SkippedSample{Key: metricKey, Reason: err.Error()})
		return nil
	}
	if err != nil {
		return fmt.Errorf("anova for %s: %w", metric, err)
	}
	record := stats.ANOVARecord{Metric: metric, BatchID: batchID, Artists: ids, Result: anova}
	if err := s.sink.SaveANOVA(ctx, record); err != nil {
		return fmt.Errorf("save anova for %s: %w", metric, err)
	}
	result.ANOVA = append(result.ANOVA, record)

	if opts.GateOnANOVA && !anova.Significant {
		s.logger.Info("metric %s: anova not significant (F=%.4g, p=%.4g), pairwise tests skipped", metric, anova.FStatistic, anova.PValue)
		result.Gated = append(result.Gated, metric)
		return nil
	}

	comparisons, err := s.comparePairs(ctx, metric, eligible, result)
	if err != nil {
		return err
	}
	if len(comparisons) == 0 {
		return nil
	}

	pValues := make([]float64, len(comparisons))
	for i, c := range comparisons {
		pValues[i] = c.PValue
	}
	corrected, err := engine.Correct(opts.Method, pValues, opts.Alpha)
	if err != nil {
		return fmt.Errorf("correct %s: %w", metric, err)
	}
	for i := range comparisons {
		comparisons[i].BatchID = batchID
		comparisons[i].Significant = corrected.Rejected[i]
		comparisons[i].AdjustedPValue = corrected.Adjusted[i]
		comparisons[i].Method = opts.Method
	}
	s.logger.Debug("metric %s: %d of %d comparisons significant after %s", metric, corrected.RejectedCount(), len(comparisons), opts.Method)

	if err := s.sink.SavePairwise(ctx, comparisons); err != nil {
		return fmt.Errorf("save pairwise for %s: %w", metric, err)
	}
	result.Pairwise = append(result.Pairwise, comparisons...)
	return nil
}

// comparePairs runs Welch's test on every unordered pair in table order.
func (s *TestingService) comparePairs(ctx context.Context, metric core.MetricName, sets []stats.SampleSet, result *TestingResult) ([]stats.PairwiseComparison, error) {
	type pair struct{ i, j int }
	var pairs []pair
	for i := 0; i < len(sets); i++ {
		if sets[i].Len() < 2 {
			continue
		}
		for j := i + 1; j < len(sets); j++ {
			if sets[j].Len() < 2 {
				continue
			}
			pairs = append(pairs, pair{i, j})
		}
	}
	for _, set := range sets {
		if set.Len() < 2 {
			result.Skipped = append(result.Skipped, SkippedSample{Key: set.Key, Reason: "pairwise comparison needs 2 observations"})
		}
	}

	out := make([]stats.PairwiseComparison, len(pairs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.limit)
	for n, p := range pairs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			a, b := sets[p.i], sets[p.j]
			c, err := engine.Compare(metric, a.Key.Artist, a.Values, b.Key.Artist, b.Values)
			if err != nil {
				return err
			}
			out[n] = c
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
