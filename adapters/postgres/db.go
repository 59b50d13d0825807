package postgres

import (
	"context"
	"time"

	"artbench/internal/errors"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

// Open connects to Postgres and verifies the connection.
func Open(ctx context.Context, url string, maxOpenConns int) (*sqlx.DB, error) {
	if url == "" {
		return nil, errors.ConfigInvalid("DATABASE_URL is required")
	}
	db, err := sqlx.ConnectContext(ctx, "postgres", url)
	if err != nil {
		return nil, errors.DatabaseError("failed to connect to database", err)
	}
	db.SetMaxOpenConns(maxOpenConns)
	db.SetMaxIdleConns(maxOpenConns)
	db.SetConnMaxLifetime(30 * time.Minute)
	return db, nil
}

// withTimeout bounds a repository call when a timeout is configured.
func withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}

// inTx runs fn in a transaction, rolling back on any error.
func inTx(ctx context.Context, db *sqlx.DB, fn func(tx *sqlx.Tx) error) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}
