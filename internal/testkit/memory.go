package testkit

import (
	"context"
	"sort"
	"sync"

	"artbench/domain/core"
	"artbench/domain/stats"
	"artbench/ports"
)

type observationKey struct {
	batch  core.BatchID
	metric core.MetricName
	artist core.ArtistID
}

// MemorySource is an in-memory ports.SampleSource and ports.SampleWriter.
type MemorySource struct {
	mu   sync.RWMutex
	runs map[observationKey]map[int]float64
}

// NewMemorySource creates an empty source
func NewMemorySource() *MemorySource {
	return &MemorySource{runs: make(map[observationKey]map[int]float64)}
}

// WriteObservations stores observations; a repeated run index replaces the earlier value.
func (m *MemorySource) WriteObservations(ctx context.Context, observations []ports.Observation) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, o := range observations {
		k := observationKey{o.BatchID, o.Metric, o.Artist}
		if m.runs[k] == nil {
			m.runs[k] = make(map[int]float64)
		}
		m.runs[k][o.RunIndex] = o.Value
	}
	return nil
}

// Put appends values for one artist and metric after any existing runs.
func (m *MemorySource) Put(batchID core.BatchID, metric core.MetricName, artist core.ArtistID, values ...float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := observationKey{batchID, metric, artist}
	if m.runs[k] == nil {
		m.runs[k] = make(map[int]float64)
	}
	next := len(m.runs[k])
	for i, v := range values {
		m.runs[k][next+i] = v
	}
}

// LoadSamples returns values ordered by run index.
func (m *MemorySource) LoadSamples(ctx context.Context, batchID core.BatchID, metric core.MetricName, artists []core.ArtistID) ([]stats.SampleSet, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	sets := make([]stats.SampleSet, 0, len(artists))
	for _, artist := range artists {
		runs := m.runs[observationKey{batchID, metric, artist}]
		idx := make([]int, 0, len(runs))
		for i := range runs {
			idx = append(idx, i)
		}
		sort.Ints(idx)
		values := make([]float64, 0, len(idx))
		for _, i := range idx {
			values = append(values, runs[i])
		}
		sets = append(sets, stats.SampleSet{
			Key:    stats.SampleKey{Artist: artist, Metric: metric, BatchID: batchID},
			Values: values,
		})
	}
	return sets, nil
}

type pairKey struct {
	artist1, artist2 core.ArtistID
	metric           core.MetricName
	batch            core.BatchID
}

type metricKey struct {
	metric core.MetricName
	batch  core.BatchID
}

// MemorySink is an in-memory ports.ResultSink keyed the same way the
// Postgres repository keys its rows.
type MemorySink struct {
	mu          sync.Mutex
	descriptive map[stats.SampleKey]stats.DescriptiveRecord
	anova       map[metricKey]stats.ANOVARecord
	pairwise    map[pairKey]stats.PairwiseComparison
	saves       int
	// Err, when set, is returned from every save.
	Err error
}

// NewMemorySink creates an empty sink
func NewMemorySink() *MemorySink {
	return &MemorySink{
		descriptive: make(map[stats.SampleKey]stats.DescriptiveRecord),
		anova:       make(map[metricKey]stats.ANOVARecord),
		pairwise:    make(map[pairKey]stats.PairwiseComparison),
	}
}

func (s *MemorySink) SaveDescriptive(ctx context.Context, records []stats.DescriptiveRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	s.saves++
	for _, r := range records {
		s.descriptive[r.Key] = r
	}
	return nil
}

func (s *MemorySink) SaveANOVA(ctx context.Context, record stats.ANOVARecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	s.saves++
	s.anova[metricKey{record.Metric, record.BatchID}] = record
	return nil
}

func (s *MemorySink) SavePairwise(ctx context.Context, comparisons []stats.PairwiseComparison) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	s.saves++
	for _, c := range comparisons {
		s.pairwise[pairKey{c.Artist1, c.Artist2, c.Metric, c.BatchID}] = c
	}
	return nil
}

// Descriptive returns the stored record for a key.
func (s *MemorySink) Descriptive(key stats.SampleKey) (stats.DescriptiveRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.descriptive[key]
	return r, ok
}

// ANOVA returns the stored record for a metric in a batch.
func (s *MemorySink) ANOVA(batchID core.BatchID, metric core.MetricName) (stats.ANOVARecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.anova[metricKey{metric, batchID}]
	return r, ok
}

// Pairwise returns every stored comparison for a metric in a batch, ordered by artist pair.
func (s *MemorySink) Pairwise(batchID core.BatchID, metric core.MetricName) []stats.PairwiseComparison {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []stats.PairwiseComparison
	for k, c := range s.pairwise {
		if k.batch == batchID && k.metric == metric {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Artist1 != out[j].Artist1 {
			return out[i].Artist1 < out[j].Artist1
		}
		return out[i].Artist2 < out[j].Artist2
	})
	return out
}

// Counts returns how many descriptive, anova and pairwise records are stored.
func (s *MemorySink) Counts() (descriptive, anova, pairwise int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.descriptive), len(s.anova), len(s.pairwise)
}

// Saves returns how many successful save calls were made.
func (s *MemorySink) Saves() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saves
}

var (
	_ ports.SampleSource = (*MemorySource)(nil)
	_ ports.SampleWriter = (*MemorySource)(nil)
	_ ports.ResultSink   = (*MemorySink)(nil)
)
