package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/btcsuite/btcd/chaincfg/chainhash"

	"github.com/chainscanhq/chainscan-backend/internal/model"
	"github.com/chainscanhq/chainscan-backend/internal/storage"
)

type readTx struct {
	tx      *sql.Tx
	metrics Metrics
}

func (r *readTx) ReadCursor(ctx context.Context) (model.SyncCursor, error) {
	return readCursor(ctx, r.tx)
}

func (r *readTx) BlockAtHeight(ctx context.Context, height uint64) (b *model.Block, err error) {
	started := time.Now()
	defer func() {
		r.observe("block_at_height", err, started)
	}()
	return blockAtHeight(ctx, r.tx, height)
}

func (r *readTx) BlockByHash(ctx context.Context, hash chainhash.Hash) (b *model.Block, err error) {
	started := time.Now()
	defer func() {
		r.observe("block_by_hash", err, started)
	}()
	return blockByHash(ctx, r.tx, hash)
}

func (r *readTx) Transaction(ctx context.Context, id chainhash.Hash) (tx *model.Transaction, err error) {
	started := time.Now()
	defer func() {
		r.observe("transaction", err, started)
	}()

	const query = `
SELECT tx_id, block_height, block_hash, inputs, outputs
FROM transactions WHERE tx_id = $1`
	return scanTransaction(r.tx.QueryRowContext(ctx, query, id.String()))
}

func (r *readTx) AddressAggregate(ctx context.Context, address string) (agg *model.AddressAggregate, err error) {
	started := time.Now()
	defer func() {
		r.observe("address_aggregate", err, started)
	}()

	const query = `SELECT balance, tx_count FROM address_aggregates WHERE address = $1`
	var balance, txCount int64
	if err = r.tx.QueryRowContext(ctx, query, address).Scan(&balance, &txCount); err != nil {
		if err == sql.ErrNoRows {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("scan aggregate: %w", err)
	}
	return &model.AddressAggregate{Address: address, Balance: balance, TxCount: txCount}, nil
}

func (r *readTx) AddressTransactions(ctx context.Context, address string) (ids []chainhash.Hash, err error) {
	started := time.Now()
	defer func() {
		r.observe("address_transactions", err, started)
	}()

	const query = `
SELECT at.tx_id
FROM address_transactions at
JOIN transactions t ON t.tx_id = at.tx_id
WHERE at.address = $1
ORDER BY t.block_height, t.tx_index`
	rows, err := r.tx.QueryContext(ctx, query, address)
	if err != nil {
		return nil, fmt.Errorf("query address txs: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	for rows.Next() {
		var idStr string
		if err = rows.Scan(&idStr); err != nil {
			return nil, fmt.Errorf("scan address tx id: %w", err)
		}
		id, err := chainhash.NewHashFromStr(idStr)
		if err != nil {
			return nil, fmt.Errorf("decode address tx id: %w", err)
		}
		ids = append(ids, *id)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate address txs: %w", err)
	}
	if len(ids) == 0 {
		return nil, storage.ErrNotFound
	}
	return ids, nil
}

func (r *readTx) Close() error {
	return r.tx.Rollback()
}

func (r *readTx) observe(op string, err error, started time.Time) {
	if r.metrics != nil {
		r.metrics.Observe(op, err, started)
	}
}
