package postgres

import (
	"context"
	"time"

	"artbench/domain/core"
	"artbench/domain/stats"
	"artbench/internal/errors"
	"artbench/ports"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// ObservationRepository reads and writes metric_observations.
type ObservationRepository struct {
	db      *sqlx.DB
	timeout time.Duration
}

// NewObservationRepository creates a new observation repository
func NewObservationRepository(db *sqlx.DB, timeout time.Duration) *ObservationRepository {
	return &ObservationRepository{db: db, timeout: timeout}
}

type observationRow struct {
	Artist   string  `db:"artist"`
	RunIndex int     `db:"run_index"`
	Value    float64 `db:"value"`
}

// LoadSamples fetches every requested artist in one query and returns sets in
// the requested order, values ordered by run_index.
func (r *ObservationRepository) LoadSamples(ctx context.Context, batchID core.BatchID, metric core.MetricName, artists []core.ArtistID) ([]stats.SampleSet, error) {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	names := make([]string, len(artists))
	for i, a := range artists {
		names[i] = a.String()
	}

	query := `
		SELECT artist, run_index, value
		FROM metric_observations
		WHERE batch_id = $1 AND metric = $2 AND artist = ANY($3)
		ORDER BY artist, run_index`

	var rows []observationRow
	if err := r.db.SelectContext(ctx, &rows, query, batchID.String(), metric.String(), pq.Array(names)); err != nil {
		return nil, errors.DatabaseError("failed to load observations", err)
	}
	return groupObservations(batchID, metric, artists, rows), nil
}

func groupObservations(batchID core.BatchID, metric core.MetricName, artists []core.ArtistID, rows []observationRow) []stats.SampleSet {
	byArtist := make(map[core.ArtistID][]float64, len(artists))
	for _, row := range rows {
		id := core.ArtistID(row.Artist)
		byArtist[id] = append(byArtist[id], row.Value)
	}
	sets := make([]stats.SampleSet, len(artists))
	for i, a := range artists {
		sets[i] = stats.SampleSet{
			Key:    stats.SampleKey{Artist: a, Metric: metric, BatchID: batchID},
			Values: byArtist[a],
		}
	}
	return sets
}

// WriteObservations upserts observations in one transaction.
func (r *ObservationRepository) WriteObservations(ctx context.Context, observations []ports.Observation) error {
	if len(observations) == 0 {
		return nil
	}
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	query := `
		INSERT INTO metric_observations (batch_id, artist, metric, run_index, value)
		VALUES (:batch_id, :artist, :metric, :run_index, :value)
		ON CONFLICT (batch_id, metric, artist, run_index) DO UPDATE SET value = EXCLUDED.value`

	err := inTx(ctx, r.db, func(tx *sqlx.Tx) error {
		stmt, err := tx.PrepareNamedContext(ctx, query)
		if err != nil {
			return err
		}
		defer stmt.Close()
		for _, o := range observations {
			if _, err := stmt.ExecContext(ctx, o); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return errors.DatabaseError("failed to write observations", err)
	}
	return nil
}

var (
	_ ports.SampleSource = (*ObservationRepository)(nil)
	_ ports.SampleWriter = (*ObservationRepository)(nil)
)
