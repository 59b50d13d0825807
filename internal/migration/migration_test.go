package migration

import (
	"context"
	"database/sql"
	stderrors "errors"
	"strings"
	"testing"

	"artbench/internal/errors"
)

type recordingExecer struct {
	queries []string
	failOn  string
}

func (r *recordingExecer) ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	r.queries = append(r.queries, query)
	if r.failOn != "" && strings.Contains(query, r.failOn) {
		return nil, stderrors.New("relation locked")
	}
	return nil, nil
}

func TestRun_CreatesAllTables(t *testing.T) {
	db := &recordingExecer{}
	if err := NewRunner().Run(context.Background(), db); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	all := strings.Join(db.queries, "\n")
	for _, table := range []string{"metric_observations", "descriptive_stats", "anova_results", "pairwise_comparisons"} {
		if !strings.Contains(all, "CREATE TABLE IF NOT EXISTS "+table) {
			t.Errorf("missing table %s", table)
		}
	}
	if len(db.queries) != len(steps) {
		t.Errorf("expected %d statements, got %d", len(steps), len(db.queries))
	}
}

func TestRun_StopsOnFirstFailure(t *testing.T) {
	db := &recordingExecer{failOn: "anova_results"}
	err := NewRunner().Run(context.Background(), db)
	if err == nil {
		t.Fatal("expected error")
	}
	if got := errors.GetCode(err); got != errors.CodeDatabaseError {
		t.Errorf("expected %s, got %s", errors.CodeDatabaseError, got)
	}
	if !strings.Contains(err.Error(), "create anova_results table") {
		t.Errorf("error should name the step: %v", err)
	}
	if len(db.queries) != 3 {
		t.Errorf("expected to stop after 3 statements, got %d", len(db.queries))
	}
}

func TestVersion(t *testing.T) {
	if NewRunner().Version() == "" {
		t.Error("version should not be empty")
	}
}
