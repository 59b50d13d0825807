package postgres

import (
	"context"
	"time"

	"artbench/domain/stats"
	"artbench/internal/errors"
	"artbench/ports"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// ResultRepository persists descriptive, ANOVA and pairwise records. Saving a
// key that already exists replaces the row.
type ResultRepository struct {
	db      *sqlx.DB
	timeout time.Duration
}

// NewResultRepository creates a new result repository
func NewResultRepository(db *sqlx.DB, timeout time.Duration) *ResultRepository {
	return &ResultRepository{db: db, timeout: timeout}
}

type descriptiveRow struct {
	BatchID      string    `db:"batch_id"`
	Artist       string    `db:"artist"`
	Metric       string    `db:"metric"`
	N            int       `db:"n"`
	Mean         float64   `db:"mean"`
	StdDev       float64   `db:"std_dev"`
	Median       float64   `db:"median"`
	Q1           float64   `db:"q1"`
	Q3           float64   `db:"q3"`
	Min          float64   `db:"min"`
	Max          float64   `db:"max"`
	CI95Lower    float64   `db:"ci95_lower"`
	CI95Upper    float64   `db:"ci95_upper"`
	CIDegenerate bool      `db:"ci_degenerate"`
	Fingerprint  string    `db:"fingerprint"`
	ComputedAt   time.Time `db:"computed_at"`
}

func toDescriptiveRow(r stats.DescriptiveRecord) descriptiveRow {
	s := r.Stats
	return descriptiveRow{
		BatchID:      r.Key.BatchID.String(),
		Artist:       r.Key.Artist.String(),
		Metric:       r.Key.Metric.String(),
		N:            s.N,
		Mean:         s.Mean,
		StdDev:       s.StdDev,
		Median:       s.Median,
		Q1:           s.Q1,
		Q3:           s.Q3,
		Min:          s.Min,
		Max:          s.Max,
		CI95Lower:    s.CI95Lower,
		CI95Upper:    s.CI95Upper,
		CIDegenerate: s.CIDegenerate,
		Fingerprint:  r.Fingerprint.String(),
		ComputedAt:   r.ComputedAt,
	}
}

type anovaRow struct {
	BatchID     string         `db:"batch_id"`
	Metric      string         `db:"metric"`
	Artists     pq.StringArray `db:"artists"`
	FStatistic  float64        `db:"f_statistic"`
	PValue      float64        `db:"p_value"`
	DFBetween   int            `db:"df_between"`
	DFWithin    int            `db:"df_within"`
	EtaSquared  float64        `db:"eta_squared"`
	Significant bool           `db:"significant"`
}

func toANOVARow(r stats.ANOVARecord) anovaRow {
	artists := make(pq.StringArray, len(r.Artists))
	for i, a := range r.Artists {
		artists[i] = a.String()
	}
	return anovaRow{
		BatchID:     r.BatchID.String(),
		Metric:      r.Metric.String(),
		Artists:     artists,
		FStatistic:  r.Result.FStatistic,
		PValue:      r.Result.PValue,
		DFBetween:   r.Result.DFBetween,
		DFWithin:    r.Result.DFWithin,
		EtaSquared:  r.Result.EtaSquared,
		Significant: r.Result.Significant,
	}
}

type pairwiseRow struct {
	BatchID          string  `db:"batch_id"`
	Artist1          string  `db:"artist1"`
	Artist2          string  `db:"artist2"`
	Metric           string  `db:"metric"`
	N1               int     `db:"n1"`
	N2               int     `db:"n2"`
	Mean1            float64 `db:"mean1"`
	Mean2            float64 `db:"mean2"`
	MeanDiff         float64 `db:"mean_diff"`
	TStatistic       float64 `db:"t_statistic"`
	PValue           float64 `db:"p_value"`
	DegreesOfFreedom float64 `db:"degrees_of_freedom"`
	CohensD          float64 `db:"cohens_d"`
	Significant      bool    `db:"significant"`
	AdjustedPValue   float64 `db:"adjusted_p_value"`
	CorrectionMethod string  `db:"correction_method"`
}

func toPairwiseRow(c stats.PairwiseComparison) pairwiseRow {
	return pairwiseRow{
		BatchID:          c.BatchID.String(),
		Artist1:          c.Artist1.String(),
		Artist2:          c.Artist2.String(),
		Metric:           c.Metric.String(),
		N1:               c.N1,
		N2:               c.N2,
		Mean1:            c.Mean1,
		Mean2:            c.Mean2,
		MeanDiff:         c.MeanDiff,
		TStatistic:       c.TStatistic,
		PValue:           c.PValue,
		DegreesOfFreedom: c.DegreesOfFreedom,
		CohensD:          c.CohensD,
		Significant:      c.Significant,
		AdjustedPValue:   c.AdjustedPValue,
		CorrectionMethod: string(c.Method),
	}
}

const upsertDescriptive = `
	INSERT INTO descriptive_stats (
		batch_id, artist, metric, n, mean, std_dev, median, q1, q3, min, max,
		ci95_lower, ci95_upper, ci_degenerate, fingerprint, computed_at
	) VALUES (
		:batch_id, :artist, :metric, :n, :mean, :std_dev, :median, :q1, :q3, :min, :max,
		:ci95_lower, :ci95_upper, :ci_degenerate, :fingerprint, :computed_at
	)
	ON CONFLICT (artist, metric, batch_id) DO UPDATE SET
		n = EXCLUDED.n, mean = EXCLUDED.mean, std_dev = EXCLUDED.std_dev,
		median = EXCLUDED.median, q1 = EXCLUDED.q1, q3 = EXCLUDED.q3,
		min = EXCLUDED.min, max = EXCLUDED.max,
		ci95_lower = EXCLUDED.ci95_lower, ci95_upper = EXCLUDED.ci95_upper,
		ci_degenerate = EXCLUDED.ci_degenerate, fingerprint = EXCLUDED.fingerprint,
		computed_at = EXCLUDED.computed_at`

const upsertANOVA = `
	INSERT INTO anova_results (
		batch_id, metric, artists, f_statistic, p_value, df_between, df_within, eta_squared, significant
	) VALUES (
		:batch_id, :metric, :artists, :f_statistic, :p_value, :df_between, :df_within, :eta_squared, :significant
	)
	ON CONFLICT (metric, batch_id) DO UPDATE SET
		artists = EXCLUDED.artists, f_statistic = EXCLUDED.f_statistic, p_value = EXCLUDED.p_value,
		df_between = EXCLUDED.df_between, df_within = EXCLUDED.df_within,
		eta_squared = EXCLUDED.eta_squared, significant = EXCLUDED.significant,
		updated_at = NOW()`

const upsertPairwise = `
	INSERT INTO pairwise_comparisons (
		batch_id, artist1, artist2, metric, n1, n2, mean1, mean2, mean_diff,
		t_statistic, p_value, degrees_of_freedom, cohens_d, significant,
		adjusted_p_value, correction_method
	) VALUES (
		:batch_id, :artist1, :artist2, :metric, :n1, :n2, :mean1, :mean2, :mean_diff,
		:t_statistic, :p_value, :degrees_of_freedom, :cohens_d, :significant,
		:adjusted_p_value, :correction_method
	)
	ON CONFLICT (artist1, artist2, metric, batch_id) DO UPDATE SET
		n1 = EXCLUDED.n1, n2 = EXCLUDED.n2, mean1 = EXCLUDED.mean1, mean2 = EXCLUDED.mean2,
		mean_diff = EXCLUDED.mean_diff, t_statistic = EXCLUDED.t_statistic,
		p_value = EXCLUDED.p_value, degrees_of_freedom = EXCLUDED.degrees_of_freedom,
		cohens_d = EXCLUDED.cohens_d, significant = EXCLUDED.significant,
		adjusted_p_value = EXCLUDED.adjusted_p_value,
		correction_method = EXCLUDED.correction_method, updated_at = NOW()`

// SaveDescriptive upserts all records in one transaction.
func (r *ResultRepository) SaveDescriptive(ctx context.Context, records []stats.DescriptiveRecord) error {
	rows := make([]interface{}, len(records))
	for i, rec := range records {
		rows[i] = toDescriptiveRow(rec)
	}
	if err := r.upsertAll(ctx, upsertDescriptive, rows); err != nil {
		return errors.DatabaseError("failed to save descriptive stats", err)
	}
	return nil
}

// SaveANOVA upserts one ANOVA result.
func (r *ResultRepository) SaveANOVA(ctx context.Context, record stats.ANOVARecord) error {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	if _, err := r.db.NamedExecContext(ctx, upsertANOVA, toANOVARow(record)); err != nil {
		return errors.DatabaseError("failed to save anova result", err)
	}
	return nil
}

// SavePairwise upserts all comparisons in one transaction.
func (r *ResultRepository) SavePairwise(ctx context.Context, comparisons []stats.PairwiseComparison) error {
	rows := make([]interface{}, len(comparisons))
	for i, c := range comparisons {
		rows[i] = toPairwiseRow(c)
	}
	if err := r.upsertAll(ctx, upsertPairwise, rows); err != nil {
		return errors.DatabaseError("failed to save pairwise comparisons", err)
	}
	return nil
}

func (r *ResultRepository) upsertAll(ctx context.Context, query string, rows []interface{}) error {
	if len(rows) == 0 {
		return nil
	}
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	return inTx(ctx, r.db, func(tx *sqlx.Tx) error {
		stmt, err := tx.PrepareNamedContext(ctx, query)
		if err != nil {
			return err
		}
		defer stmt.Close()
		for _, row := range rows {
			if _, err := stmt.ExecContext(ctx, row); err != nil {
				return err
			}
		}
		return nil
	})
}

var _ ports.ResultSink = (*ResultRepository)(nil)
