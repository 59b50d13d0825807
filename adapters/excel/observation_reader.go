package excel

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strconv"
	"sync"

	"artbench/domain/core"
	"artbench/domain/stats"
	"artbench/ports"
)

// ObservationReader is a ports.SampleSource over a long-format workbook or CSV
// with columns artist, metric, value and optionally batch_id and run_index.
// Without a batch_id column every row belongs to whichever batch is requested.
// Without run_index, file order is run order.
type ObservationReader struct {
	reader *DataReader

	once     sync.Once
	obs      []ports.Observation
	hasBatch bool
	err      error
}

// NewObservationReader creates a reader for the configured file; the file is
// parsed on first use.
func NewObservationReader(config ExcelConfig) *ObservationReader {
	return &ObservationReader{reader: NewDataReader(config.FilePath).WithSheet(config.Sheet)}
}

// Observations returns every parsed observation in file order.
func (r *ObservationReader) Observations() ([]ports.Observation, error) {
	r.once.Do(r.load)
	return r.obs, r.err
}

// LoadSamples implements ports.SampleSource
func (r *ObservationReader) LoadSamples(ctx context.Context, batchID core.BatchID, metric core.MetricName, artists []core.ArtistID) ([]stats.SampleSet, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	all, err := r.Observations()
	if err != nil {
		return nil, err
	}

	byArtist := make(map[core.ArtistID][]ports.Observation, len(artists))
	for _, o := range all {
		if o.Metric != metric {
			continue
		}
		if r.hasBatch && o.BatchID != batchID {
			continue
		}
		byArtist[o.Artist] = append(byArtist[o.Artist], o)
	}

	sets := make([]stats.SampleSet, len(artists))
	for i, a := range artists {
		runs := byArtist[a]
		sort.SliceStable(runs, func(x, y int) bool { return runs[x].RunIndex < runs[y].RunIndex })
		values := make([]float64, len(runs))
		for j, o := range runs {
			values[j] = o.Value
		}
		sets[i] = stats.SampleSet{
			Key:    stats.SampleKey{Artist: a, Metric: metric, BatchID: batchID},
			Values: values,
		}
	}
	return sets, nil
}

func (r *ObservationReader) load() {
	data, err := r.reader.ReadData()
	if err != nil {
		r.err = err
		return
	}
	r.obs, r.hasBatch, r.err = parseObservations(data)
}

// parseObservations converts rows to observations. Row numbers in errors are
// 1-based file rows, the header being row 1.
func parseObservations(data *ExcelData) ([]ports.Observation, bool, error) {
	has := make(map[string]bool, len(data.Headers))
	for _, h := range data.Headers {
		has[h] = true
	}
	for _, required := range []string{ColumnArtist, ColumnMetric, ColumnValue} {
		if !has[required] {
			return nil, false, fmt.Errorf("%w: missing column %q", core.ErrInvalidArgument, required)
		}
	}

	next := make(map[string]int)
	out := make([]ports.Observation, 0, len(data.Rows))
	for i, row := range data.Rows {
		if len(row) == 0 {
			continue
		}
		line := i + 2

		artist, err := core.ParseArtistID(row[ColumnArtist])
		if err != nil {
			return nil, false, fmt.Errorf("row %d: %w", line, err)
		}
		metric, err := core.ParseMetricName(row[ColumnMetric])
		if err != nil {
			return nil, false, fmt.Errorf("row %d: %w", line, err)
		}
		value, err := strconv.ParseFloat(row[ColumnValue], 64)
		if err != nil || math.IsNaN(value) || math.IsInf(value, 0) {
			return nil, false, fmt.Errorf("%w: row %d: value %q is not a finite number", core.ErrInvalidArgument, line, row[ColumnValue])
		}
		batch := core.BatchID(row[ColumnBatchID])

		seriesKey := string(batch) + "\x00" + string(metric) + "\x00" + string(artist)
		run := next[seriesKey]
		if raw := row[ColumnRunIndex]; raw != "" {
			run, err = strconv.Atoi(raw)
			if err != nil || run < 0 {
				return nil, false, fmt.Errorf("%w: row %d: run_index %q is not a non-negative integer", core.ErrInvalidArgument, line, raw)
			}
		}
		next[seriesKey] = run + 1

		out = append(out, ports.Observation{
			BatchID:  batch,
			Artist:   artist,
			Metric:   metric,
			RunIndex: run,
			Value:    value,
		})
	}
	return out, has[ColumnBatchID], nil
}

var _ ports.SampleSource = (*ObservationReader)(nil)
