package migration

import (
	"context"
	"database/sql"

	"artbench/internal/errors"
)

// Execer is the part of *sqlx.DB the migrations need.
type Execer interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

// Migrator defines the interface for database migration operations
type Migrator interface {
	Run(ctx context.Context, db Execer) error
	Version() string
}

// MigrationRunner creates the observation and result tables. Every step is
// idempotent so Run can be applied on every deploy.
type MigrationRunner struct {
	version string
}

// NewRunner creates a new migration runner
func NewRunner() *MigrationRunner {
	return &MigrationRunner{
		version: "1.0.0",
	}
}

// Version returns the migration version
func (r *MigrationRunner) Version() string {
	return r.version
}

type step struct {
	name string
	sql  string
}

// Run executes all database migrations in the correct order
func (r *MigrationRunner) Run(ctx context.Context, db Execer) error {
	for _, s := range steps {
		if _, err := db.ExecContext(ctx, s.sql); err != nil {
			return errors.Wrap(errors.DatabaseError(s.name, err), "failed to "+s.name)
		}
	}
	return nil
}

var steps = []step{
	{"create metric_observations table", `
		CREATE TABLE IF NOT EXISTS metric_observations (
			batch_id TEXT NOT NULL,
			artist TEXT NOT NULL,
			metric TEXT NOT NULL,
			run_index INTEGER NOT NULL,
			value DOUBLE PRECISION NOT NULL,
			created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
			PRIMARY KEY (batch_id, metric, artist, run_index)
		)
	`},
	{"create descriptive_stats table", `
		CREATE TABLE IF NOT EXISTS descriptive_stats (
			batch_id TEXT NOT NULL DEFAULT '',
			artist TEXT NOT NULL,
			metric TEXT NOT NULL,
			n INTEGER NOT NULL,
			mean DOUBLE PRECISION NOT NULL,
			std_dev DOUBLE PRECISION NOT NULL,
			median DOUBLE PRECISION NOT NULL,
			q1 DOUBLE PRECISION NOT NULL,
			q3 DOUBLE PRECISION NOT NULL,
			min DOUBLE PRECISION NOT NULL,
			max DOUBLE PRECISION NOT NULL,
			ci95_lower DOUBLE PRECISION NOT NULL,
			ci95_upper DOUBLE PRECISION NOT NULL,
			ci_degenerate BOOLEAN NOT NULL DEFAULT false,
			fingerprint TEXT NOT NULL,
			computed_at TIMESTAMP WITH TIME ZONE NOT NULL,
			PRIMARY KEY (artist, metric, batch_id)
		)
	`},
	{"create anova_results table", `
		CREATE TABLE IF NOT EXISTS anova_results (
			batch_id TEXT NOT NULL DEFAULT '',
			metric TEXT NOT NULL,
			artists TEXT[] NOT NULL,
			f_statistic DOUBLE PRECISION NOT NULL,
			p_value DOUBLE PRECISION NOT NULL,
			df_between INTEGER NOT NULL,
			df_within INTEGER NOT NULL,
			eta_squared DOUBLE PRECISION NOT NULL,
			significant BOOLEAN NOT NULL,
			updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
			PRIMARY KEY (metric, batch_id)
		)
	`},
	{"create pairwise_comparisons table", `
		CREATE TABLE IF NOT EXISTS pairwise_comparisons (
			batch_id TEXT NOT NULL DEFAULT '',
			artist1 TEXT NOT NULL,
			artist2 TEXT NOT NULL,
			metric TEXT NOT NULL,
			n1 INTEGER NOT NULL,
			n2 INTEGER NOT NULL,
			mean1 DOUBLE PRECISION NOT NULL,
			mean2 DOUBLE PRECISION NOT NULL,
			mean_diff DOUBLE PRECISION NOT NULL,
			t_statistic DOUBLE PRECISION NOT NULL,
			p_value DOUBLE PRECISION NOT NULL,
			degrees_of_freedom DOUBLE PRECISION NOT NULL,
			cohens_d DOUBLE PRECISION NOT NULL,
			significant BOOLEAN NOT NULL,
			adjusted_p_value DOUBLE PRECISION NOT NULL,
			correction_method TEXT NOT NULL DEFAULT '',
			updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
			PRIMARY KEY (artist1, artist2, metric, batch_id)
		)
	`},
	{"create indexes", `
		CREATE INDEX IF NOT EXISTS idx_descriptive_stats_batch ON descriptive_stats(batch_id, metric);
		CREATE INDEX IF NOT EXISTS idx_pairwise_comparisons_batch ON pairwise_comparisons(batch_id, metric);
	`},
}
