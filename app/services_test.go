package app

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"artbench/domain/analysis"
	"artbench/domain/core"
	"artbench/domain/stats"
	"artbench/internal"
	"artbench/internal/testkit"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockSampleSource implements ports.SampleSource
type MockSampleSource struct {
	mock.Mock
}

func (m *MockSampleSource) LoadSamples(ctx context.Context, batchID core.BatchID, metric core.MetricName, artists []core.ArtistID) ([]stats.SampleSet, error) {
	args := m.Called(ctx, batchID, metric, artists)
	sets, _ := args.Get(0).([]stats.SampleSet)
	return sets, args.Error(1)
}

// MockResultSink implements ports.ResultSink
type MockResultSink struct {
	mock.Mock
}

func (m *MockResultSink) SaveDescriptive(ctx context.Context, records []stats.DescriptiveRecord) error {
	return m.Called(ctx, records).Error(0)
}

func (m *MockResultSink) SaveANOVA(ctx context.Context, record stats.ANOVARecord) error {
	return m.Called(ctx, record).Error(0)
}

func (m *MockResultSink) SavePairwise(ctx context.Context, comparisons []stats.PairwiseComparison) error {
	return m.Called(ctx, comparisons).Error(0)
}

func quietLogger() *internal.Logger {
	return internal.NewLoggerTo(&bytes.Buffer{}, internal.LogLevelError)
}

var threeArtists = []core.ArtistID{"o3", "claude-opus", "gemini-pro"}

func separatedSource(batch core.BatchID, metric core.MetricName) *testkit.MemorySource {
	src := testkit.NewMemorySource()
	src.Put(batch, metric, "o3", 0.10, 0.12, 0.11, 0.13, 0.09)
	src.Put(batch, metric, "claude-opus", 0.50, 0.52, 0.49, 0.51, 0.48)
	src.Put(batch, metric, "gemini-pro", 0.90, 0.88, 0.91, 0.89, 0.92)
	return src
}

func TestDescriptiveService_Compute(t *testing.T) {
	ctx := context.Background()
	src := separatedSource("b1", analysis.MetricValence)
	src.Put("b1", analysis.MetricValence, "empty-artist")
	sink := testkit.NewMemorySink()

	svc := NewDescriptiveService(src, sink, quietLogger(), 2)
	res, err := svc.Compute(ctx, "b1", []core.MetricName{analysis.MetricValence}, append(threeArtists, "empty-artist"))
	require.NoError(t, err)

	require.Len(t, res.Records, 3)
	assert.Equal(t, core.ArtistID("o3"), res.Records[0].Key.Artist)
	assert.Equal(t, core.ArtistID("gemini-pro"), res.Records[2].Key.Artist)
	assert.InDelta(t, 0.11, res.Records[0].Stats.Mean, 1e-12)
	assert.False(t, res.Records[0].Fingerprint.IsEmpty())
	assert.False(t, res.Records[0].ComputedAt.IsZero())

	require.Len(t, res.Skipped, 1)
	assert.Equal(t, core.ArtistID("empty-artist"), res.Skipped[0].Key.Artist)
	assert.Contains(t, res.Skipped[0].Reason, "empty sample")

	stored, ok := sink.Descriptive(stats.SampleKey{Artist: "claude-opus", Metric: analysis.MetricValence, BatchID: "b1"})
	require.True(t, ok)
	assert.Equal(t, 5, stored.Stats.N)
}

func TestDescriptiveService_SourceErrorAborts(t *testing.T) {
	src := &MockSampleSource{}
	sink := &MockResultSink{}
	boom := errors.New("connection reset")
	src.On("LoadSamples", mock.Anything, core.BatchID("b1"), analysis.MetricArousal, threeArtists).Return(nil, boom)

	svc := NewDescriptiveService(src, sink, quietLogger(), 4)
	_, err := svc.Compute(context.Background(), "b1", []core.MetricName{analysis.MetricArousal}, threeArtists)
	assert.ErrorIs(t, err, boom)
	sink.AssertNotCalled(t, "SaveDescriptive", mock.Anything, mock.Anything)
	src.AssertExpectations(t)
}

func TestDescriptiveService_SinkErrorSurfaces(t *testing.T) {
	src := separatedSource("b1", analysis.MetricValence)
	sink := testkit.NewMemorySink()
	sink.Err = errors.New("disk full")

	svc := NewDescriptiveService(src, sink, quietLogger(), 1)
	_, err := svc.Compute(context.Background(), "b1", []core.MetricName{analysis.MetricValence}, threeArtists)
	assert.ErrorContains(t, err, "disk full")
}

func TestTestingService_SeparatedArtistsAreSignificant(t *testing.T) {
	ctx := context.Background()
	src := separatedSource("b1", analysis.MetricValence)
	sink := testkit.NewMemorySink()

	svc := NewTestingService(src, sink, quietLogger(), 3)
	res, err := svc.Run(ctx, "b1", []core.MetricName{analysis.MetricValence}, threeArtists, DefaultTestOptions())
	require.NoError(t, err)

	require.Len(t, res.ANOVA, 1)
	assert.True(t, res.ANOVA[0].Result.Significant)
	assert.Equal(t, threeArtists, res.ANOVA[0].Artists)
	assert.Empty(t, res.Gated)

	require.Len(t, res.Pairwise, 3)
	wantPairs := [][2]core.ArtistID{{"o3", "claude-opus"}, {"o3", "gemini-pro"}, {"claude-opus", "gemini-pro"}}
	for i, c := range res.Pairwise {
		assert.Equal(t, wantPairs[i][0], c.Artist1)
		assert.Equal(t, wantPairs[i][1], c.Artist2)
		assert.True(t, c.Significant)
		assert.GreaterOrEqual(t, c.AdjustedPValue, c.PValue)
		assert.Equal(t, stats.CorrectionBenjaminiHochberg, c.Method)
		assert.Equal(t, core.BatchID("b1"), c.BatchID)
	}

	_, ok := sink.ANOVA("b1", analysis.MetricValence)
	assert.True(t, ok)
	assert.Len(t, sink.Pairwise("b1", analysis.MetricValence), 3)
}

func TestTestingService_GatesOnNonSignificantANOVA(t *testing.T) {
	ctx := context.Background()
	src := testkit.NewMemorySource()
	src.Put("b1", analysis.MetricSaturation, "o3", 0.4, 0.6, 0.5, 0.45)
	src.Put("b1", analysis.MetricSaturation, "claude-opus", 0.5, 0.55, 0.45, 0.6)
	sink := testkit.NewMemorySink()
	ids := []core.ArtistID{"o3", "claude-opus"}

	svc := NewTestingService(src, sink, quietLogger(), 1)
	res, err := svc.Run(ctx, "b1", []core.MetricName{analysis.MetricSaturation}, ids, DefaultTestOptions())
	require.NoError(t, err)
	assert.Equal(t, []core.MetricName{analysis.MetricSaturation}, res.Gated)
	assert.Empty(t, res.Pairwise)

	opts := DefaultTestOptions()
	opts.GateOnANOVA = false
	res, err = svc.Run(ctx, "b1", []core.MetricName{analysis.MetricSaturation}, ids, opts)
	require.NoError(t, err)
	assert.Empty(t, res.Gated)
	require.Len(t, res.Pairwise, 1)
	assert.False(t, res.Pairwise[0].Significant)
}

func TestTestingService_SkipsSmallAndInvalidSamples(t *testing.T) {
	ctx := context.Background()
	src := &MockSampleSource{}
	sets := []stats.SampleSet{
		{Key: stats.SampleKey{Artist: "o3", Metric: "valence"}, Values: []float64{0.1, 0.2, 0.15}},
		{Key: stats.SampleKey{Artist: "claude-opus", Metric: "valence"}, Values: []float64{0.3}},
		{Key: stats.SampleKey{Artist: "gemini-pro", Metric: "valence"}, Values: nil},
	}
	src.On("LoadSamples", mock.Anything, core.BatchID("b2"), core.MetricName("valence"), threeArtists).Return(sets, nil)
	sink := &MockResultSink{}

	svc := NewTestingService(src, sink, quietLogger(), 2)
	res, err := svc.Run(ctx, "b2", []core.MetricName{"valence"}, threeArtists, DefaultTestOptions())
	require.NoError(t, err)

	assert.Empty(t, res.ANOVA)
	assert.Empty(t, res.Pairwise)
	require.Len(t, res.Skipped, 3)
	assert.Equal(t, core.ArtistID("claude-opus"), res.Skipped[0].Key.Artist)
	assert.Equal(t, core.ArtistID("gemini-pro"), res.Skipped[1].Key.Artist)
	assert.Equal(t, "fewer than two artists with data", res.Skipped[2].Reason)
	sink.AssertNotCalled(t, "SaveANOVA", mock.Anything, mock.Anything)
}

func TestTestingService_SingleObservationArtistsSkipPairwise(t *testing.T) {
	ctx := context.Background()
	src := separatedSource("b1", analysis.MetricArousal)
	src.Put("b1", analysis.MetricArousal, "deepseek-r1", 0.7)
	sink := testkit.NewMemorySink()
	artists := append(append([]core.ArtistID(nil), threeArtists...), "deepseek-r1")

	opts := DefaultTestOptions()
	opts.MinSamples = 1
	svc := NewTestingService(src, sink, quietLogger(), 2)
	res, err := svc.Run(ctx, "b1", []core.MetricName{analysis.MetricArousal}, artists, opts)
	require.NoError(t, err)

	require.Len(t, res.ANOVA, 1)
	assert.Len(t, res.ANOVA[0].Artists, 4)
	assert.Len(t, res.Pairwise, 3)
	require.Len(t, res.Skipped, 1)
	assert.Equal(t, core.ArtistID("deepseek-r1"), res.Skipped[0].Key.Artist)
}

func TestTestingService_RejectsBadOptions(t *testing.T) {
	svc := NewTestingService(testkit.NewMemorySource(), testkit.NewMemorySink(), quietLogger(), 1)

	opts := DefaultTestOptions()
	opts.Alpha = 0
	_, err := svc.Run(context.Background(), "b1", nil, nil, opts)
	assert.ErrorIs(t, err, core.ErrInvalidAlpha)

	opts = DefaultTestOptions()
	opts.Method = "holm"
	_, err = svc.Run(context.Background(), "b1", nil, nil, opts)
	assert.ErrorIs(t, err, core.ErrUnknownMethod)
}

func TestTestingService_BonferroniNeverRejectsMoreThanBH(t *testing.T) {
	ctx := context.Background()
	gen := testkit.NewGenerator(testkit.DefaultGeneratorConfig())
	obs, err := gen.Generate(ctx)
	require.NoError(t, err)
	src := testkit.NewMemorySource()
	require.NoError(t, src.WriteObservations(ctx, obs))
	cfg := testkit.DefaultGeneratorConfig()

	count := func(method stats.CorrectionMethod) int {
		opts := DefaultTestOptions()
		opts.Method = method
		opts.GateOnANOVA = false
		svc := NewTestingService(src, testkit.NewMemorySink(), quietLogger(), 4)
		res, err := svc.Run(ctx, cfg.BatchID, cfg.Metrics, cfg.Artists, opts)
		require.NoError(t, err)
		n := 0
		for _, c := range res.Pairwise {
			if c.Significant {
				n++
			}
		}
		return n
	}

	assert.GreaterOrEqual(t, count(stats.CorrectionBenjaminiHochberg), count(stats.CorrectionBonferroni))
}
