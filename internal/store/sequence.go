package store

import (
	"context"
	"database/sql"
	"fmt"
)

// sequenceCounter manages the global monotonic sequence number shared across
// all event tables, so evidence, mastery, and LLM events can be ordered
// against each other.
//
// Uses raw SQL because the builder has no atomic counter primitive. The
// RETURNING clause makes the increment atomic at the database level. There is
// no process-level lock: a caller inside a transaction already owns the only
// connection, and taking a mutex here could deadlock against it.
type sequenceCounter struct {
	db *sql.DB
}

// newSequenceCounter creates a counter and ensures the tracking table exists.
func newSequenceCounter(db *sql.DB) (*sequenceCounter, error) {
	_, err := db.Exec(`CREATE TABLE IF NOT EXISTS global_sequence (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		next_val INTEGER NOT NULL DEFAULT 1
	)`)
	if err != nil {
		return nil, fmt.Errorf("create sequence table: %w", err)
	}

	_, err = db.Exec(`INSERT OR IGNORE INTO global_sequence (id, next_val) VALUES (1, 1)`)
	if err != nil {
		return nil, fmt.Errorf("seed sequence: %w", err)
	}

	return &sequenceCounter{db: db}, nil
}

// Next atomically returns the next sequence number and increments the counter.
func (sc *sequenceCounter) Next(ctx context.Context) (int64, error) {
	return sc.NextTx(ctx, sc.db)
}

// NextTx is Next within an open transaction, so the counter commits or rolls
// back together with the event it numbers.
func (sc *sequenceCounter) NextTx(ctx context.Context, db dbtx) (int64, error) {
	var seq int64
	err := db.QueryRowContext(ctx,
		`UPDATE global_sequence SET next_val = next_val + 1 WHERE id = 1 RETURNING next_val - 1`,
	).Scan(&seq)
	if err != nil {
		return 0, fmt.Errorf("next sequence: %w", err)
	}
	return seq, nil
}
