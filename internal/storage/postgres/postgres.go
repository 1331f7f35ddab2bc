// Package postgres is the SQL Storage backend. A commit runs in one
// database transaction that locks the sync cursor row, so concurrent
// processes cannot interleave writes, and readers get snapshot views
// through repeatable-read read-only transactions.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"github.com/chainscanhq/chainscan-backend/internal/indexer"
	"github.com/chainscanhq/chainscan-backend/internal/model"
	"github.com/chainscanhq/chainscan-backend/internal/storage"
)

type (
	// Metrics records outcome and duration of storage operations.
	Metrics interface {
		Observe(operation string, err error, started time.Time)
	}
)

// Store implements storage.Storage on PostgreSQL.
type Store struct {
	db      *sql.DB
	metrics Metrics
}

// Open connects to the database and verifies the connection. The schema is
// managed separately by the migration runner.
func Open(dsn string, metrics Metrics) (*Store, error) {
	if dsn == "" {
		return nil, errors.New("postgres dsn is required")
	}
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres connection: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return &Store{db: db, metrics: metrics}, nil
}

// Commit applies the mutation set inside a single SQL transaction.
func (s *Store) Commit(ctx context.Context, ms indexer.MutationSet) (err error) {
	started := time.Now()
	defer func() {
		s.observe("commit", err, started)
	}()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin commit tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	cursor, err := lockCursor(ctx, tx)
	if err != nil {
		return err
	}
	if !cursor.Equal(ms.Prev) {
		return fmt.Errorf("expected cursor (%d, %s), have (%d, %s): %w",
			ms.Prev.Height, ms.Prev.Hash, cursor.Height, cursor.Hash, storage.ErrCursorConflict)
	}

	if err = applyMutations(ctx, tx, ms); err != nil {
		return err
	}
	if err = writeCursor(ctx, tx, ms.Next); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// Snapshot opens a repeatable-read read-only transaction.
func (s *Store) Snapshot(ctx context.Context) (storage.ReadTx, error) {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{
		Isolation: sql.LevelRepeatableRead,
		ReadOnly:  true,
	})
	if err != nil {
		return nil, fmt.Errorf("begin read tx: %w", err)
	}
	return &readTx{tx: tx, metrics: s.metrics}, nil
}

// ReadCursor returns the committed sync cursor.
func (s *Store) ReadCursor(ctx context.Context) (model.SyncCursor, error) {
	return readCursor(ctx, s.db)
}

// BlockAtHeight returns the committed block at the given height, with its
// transactions in block order.
func (s *Store) BlockAtHeight(ctx context.Context, height uint64) (*model.Block, error) {
	return blockAtHeight(ctx, s.db, height)
}

// Close closes the connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) observe(op string, err error, started time.Time) {
	if s.metrics != nil {
		s.metrics.Observe(op, err, started)
	}
}
