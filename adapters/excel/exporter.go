package excel

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"artbench/domain/stats"
	"artbench/ports"

	"github.com/xuri/excelize/v2"
)

// ErrNothingToExport is returned by Flush when every buffer is empty.
var ErrNothingToExport = errors.New("nothing to export")

// WorkbookExporter buffers results and observations and writes them as one
// .xlsx workbook on Flush. Records saved under an existing key replace it.
type WorkbookExporter struct {
	path string

	mu           sync.Mutex
	observations []ports.Observation
	descriptive  map[string]stats.DescriptiveRecord
	anova        map[string]stats.ANOVARecord
	pairwise     map[string]stats.PairwiseComparison
}

// NewWorkbookExporter creates an exporter writing to path
func NewWorkbookExporter(path string) *WorkbookExporter {
	return &WorkbookExporter{
		path:        path,
		descriptive: make(map[string]stats.DescriptiveRecord),
		anova:       make(map[string]stats.ANOVARecord),
		pairwise:    make(map[string]stats.PairwiseComparison),
	}
}

func (e *WorkbookExporter) WriteObservations(ctx context.Context, observations []ports.Observation) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.observations = append(e.observations, observations...)
	return nil
}

func (e *WorkbookExporter) SaveDescriptive(ctx context.Context, records []stats.DescriptiveRecord) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, r := range records {
		e.descriptive[r.Key.String()] = r
	}
	return nil
}

func (e *WorkbookExporter) SaveANOVA(ctx context.Context, record stats.ANOVARecord) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.anova[string(record.BatchID)+"/"+string(record.Metric)] = record
	return nil
}

func (e *WorkbookExporter) SavePairwise(ctx context.Context, comparisons []stats.PairwiseComparison) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, c := range comparisons {
		e.pairwise[fmt.Sprintf("%s/%s/%s/%s", c.BatchID, c.Metric, c.Artist1, c.Artist2)] = c
	}
	return nil
}

// Flush writes every non-empty buffer to its own sheet and saves the workbook.
func (e *WorkbookExporter) Flush() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	f := excelize.NewFile()
	defer f.Close()

	var written []string
	if len(e.observations) > 0 {
		rows := make([][]interface{}, 0, len(e.observations))
		for _, o := range e.observations {
			rows = append(rows, []interface{}{string(o.BatchID), string(o.Artist), string(o.Metric), o.RunIndex, o.Value})
		}
		if err := writeSheet(f, SheetObservations, []string{ColumnBatchID, ColumnArtist, ColumnMetric, ColumnRunIndex, ColumnValue}, rows); err != nil {
			return err
		}
		written = append(written, SheetObservations)
	}

	if len(e.descriptive) > 0 {
		var rows [][]interface{}
		for _, k := range sortedKeys(e.descriptive) {
			r := e.descriptive[k]
			s := r.Stats
			rows = append(rows, []interface{}{
				string(r.Key.BatchID), string(r.Key.Artist), string(r.Key.Metric),
				s.N, s.Mean, s.StdDev, s.Median, s.Q1, s.Q3, s.Min, s.Max,
				s.CI95Lower, s.CI95Upper, s.CIDegenerate, r.Fingerprint.String(), r.ComputedAt.Format(time.RFC3339),
			})
		}
		headers := []string{"batch_id", "artist", "metric", "n", "mean", "std_dev", "median", "q1", "q3", "min", "max",
			"ci95_lower", "ci95_upper", "ci_degenerate", "fingerprint", "computed_at"}
		if err := writeSheet(f, SheetDescriptive, headers, rows); err != nil {
			return err
		}
		written = append(written, SheetDescriptive)
	}

	if len(e.anova) > 0 {
		var rows [][]interface{}
		for _, k := range sortedKeys(e.anova) {
			r := e.anova[k]
			artists := make([]string, len(r.Artists))
			for i, a := range r.Artists {
				artists[i] = string(a)
			}
			rows = append(rows, []interface{}{
				string(r.BatchID), string(r.Metric), strings.Join(artists, ","),
				r.Result.FStatistic, r.Result.PValue, r.Result.DFBetween, r.Result.DFWithin,
				r.Result.EtaSquared, r.Result.Significant,
			})
		}
		headers := []string{"batch_id", "metric", "artists", "f_statistic", "p_value", "df_between", "df_within", "eta_squared", "significant"}
		if err := writeSheet(f, SheetANOVA, headers, rows); err != nil {
			return err
		}
		written = append(written, SheetANOVA)
	}

	if len(e.pairwise) > 0 {
		var rows [][]interface{}
		for _, k := range sortedKeys(e.pairwise) {
			c := e.pairwise[k]
			rows = append(rows, []interface{}{
				string(c.BatchID), string(c.Metric), string(c.Artist1), string(c.Artist2),
				c.N1, c.N2, c.Mean1, c.Mean2, c.MeanDiff, c.TStatistic, c.PValue, c.DegreesOfFreedom,
				c.CohensD, c.EffectLabel(), c.AdjustedPValue, string(c.Method), c.Significant,
			})
		}
		headers := []string{"batch_id", "metric", "artist1", "artist2", "n1", "n2", "mean1", "mean2", "mean_diff",
			"t_statistic", "p_value", "degrees_of_freedom", "cohens_d", "effect", "adjusted_p_value", "correction_method", "significant"}
		if err := writeSheet(f, SheetPairwise, headers, rows); err != nil {
			return err
		}
		written = append(written, SheetPairwise)
	}

	if len(written) == 0 {
		return fmt.Errorf("%w to %s", ErrNothingToExport, e.path)
	}
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("failed to drop default sheet: %w", err)
	}
	f.SetActiveSheet(0)
	if err := f.SaveAs(e.path); err != nil {
		return fmt.Errorf("failed to save workbook %s: %w", e.path, err)
	}
	return nil
}

func writeSheet(f *excelize.File, name string, headers []string, rows [][]interface{}) error {
	if _, err := f.NewSheet(name); err != nil {
		return fmt.Errorf("failed to create sheet %s: %w", name, err)
	}
	header := make([]interface{}, len(headers))
	for i, h := range headers {
		header[i] = h
	}
	if err := f.SetSheetRow(name, "A1", &header); err != nil {
		return fmt.Errorf("failed to write %s header: %w", name, err)
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(name, cell, &row); err != nil {
			return fmt.Errorf("failed to write %s row %d: %w", name, i+2, err)
		}
	}
	return nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

var (
	_ ports.ResultSink   = (*WorkbookExporter)(nil)
	_ ports.SampleWriter = (*WorkbookExporter)(nil)
)
