// Package postgres stores fetch runs and their rows in PostgreSQL.
package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/vietddude/biofetch/internal/fetch/metrics"
	"github.com/vietddude/biofetch/internal/infra/storage"
)

const insertRunQuery = `
	INSERT INTO fetch_runs (
		run_id, backend, table_name, columns, batch_size, total_batches,
		successful_batches, failed_batches, total_rows, duration_ms,
		failure_classes, failed_ids
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
`

const insertRowQuery = `INSERT INTO fetch_rows (run_id, row_index, cells) VALUES ($1, $2, $3)`

// Sink implements storage.Sink using PostgreSQL.
type Sink struct {
	db *DB
}

// NewSink creates a sink on an already migrated database.
func NewSink(db *DB) *Sink {
	return &Sink{db: db}
}

// Write stores the run and its rows in one transaction.
func (s *Sink) Write(ctx context.Context, t storage.Table) error {
	if t.Run.RunID == "" {
		return fmt.Errorf("table %s has no run id", t.Name)
	}

	classes, err := json.Marshal(t.Run.FailureClasses)
	if err != nil {
		return fmt.Errorf("failed to marshal failure classes: %w", err)
	}
	failedIDs := t.Run.FailedIDs
	if failedIDs == nil {
		failedIDs = []string{}
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	_, err = tx.ExecContext(ctx, insertRunQuery,
		t.Run.RunID,
		t.Run.Backend,
		t.Name,
		pq.Array(t.Columns),
		t.Run.BatchSize,
		t.Run.TotalBatches,
		t.Run.SuccessfulBatches,
		t.Run.FailedBatches,
		t.Run.TotalRows,
		t.Run.Duration.Milliseconds(),
		classes,
		pq.Array(failedIDs),
	)
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}

	stmt, err := tx.PreparexContext(ctx, insertRowQuery)
	if err != nil {
		return fmt.Errorf("failed to prepare row insert: %w", err)
	}
	defer stmt.Close()

	for i, row := range t.Rows {
		if _, err := stmt.ExecContext(ctx, t.Run.RunID, i, pq.Array(row)); err != nil {
			return fmt.Errorf("failed to insert row %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}

	metrics.SinkRowsWritten.WithLabelValues("postgres", t.Name).Add(float64(len(t.Rows)))
	return nil
}

// Close is a no-op. The caller that opened the DB closes it.
func (s *Sink) Close() error { return nil }

// RunRecord is one stored run.
type RunRecord struct {
	RunID             string         `db:"run_id"`
	Backend           string         `db:"backend"`
	Table             string         `db:"table_name"`
	BatchSize         int            `db:"batch_size"`
	SuccessfulBatches int            `db:"successful_batches"`
	FailedBatches     int            `db:"failed_batches"`
	TotalRows         int            `db:"total_rows"`
	DurationMS        int64          `db:"duration_ms"`
	FailedIDs         pq.StringArray `db:"failed_ids"`
	CreatedAt         time.Time      `db:"created_at"`
}

// RecentRuns returns the latest runs, newest first. An empty backend matches
// every backend.
func (s *Sink) RecentRuns(ctx context.Context, backend string, limit int) ([]RunRecord, error) {
	query := `
		SELECT run_id, backend, table_name, batch_size, successful_batches,
		       failed_batches, total_rows, duration_ms, failed_ids, created_at
		FROM fetch_runs
		WHERE $1 = '' OR backend = $1
		ORDER BY created_at DESC
		LIMIT $2
	`
	var runs []RunRecord
	if err := s.db.SelectContext(ctx, &runs, query, backend, limit); err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	return runs, nil
}

// DeleteRunsOlderThan removes runs created before t. Their rows go with them.
func (s *Sink) DeleteRunsOlderThan(ctx context.Context, t time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, "DELETE FROM fetch_runs WHERE created_at < $1", t)
	if err != nil {
		return 0, fmt.Errorf("failed to delete runs: %w", err)
	}
	return res.RowsAffected()
}
