package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/btcsuite/btcd/chaincfg/chainhash"

	"github.com/chainscanhq/chainscan-backend/internal/indexer"
	"github.com/chainscanhq/chainscan-backend/internal/model"
	"github.com/chainscanhq/chainscan-backend/internal/storage"
	"github.com/chainscanhq/chainscan-backend/pkg/safe"
)

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

type transferRow struct {
	Address string `json:"address"`
	Amount  int64  `json:"amount"`
}

func lockCursor(ctx context.Context, tx *sql.Tx) (model.SyncCursor, error) {
	const query = `SELECT height, hash FROM sync_cursor WHERE id = 1 FOR UPDATE`
	return scanCursor(tx.QueryRowContext(ctx, query))
}

func readCursor(ctx context.Context, q querier) (model.SyncCursor, error) {
	const query = `SELECT height, hash FROM sync_cursor WHERE id = 1`
	return scanCursor(q.QueryRowContext(ctx, query))
}

func scanCursor(row *sql.Row) (model.SyncCursor, error) {
	var height int64
	var hashStr string
	if err := row.Scan(&height, &hashStr); err != nil {
		if err == sql.ErrNoRows {
			return model.SyncCursor{}, nil
		}
		return model.SyncCursor{}, fmt.Errorf("scan cursor: %w", err)
	}
	h, err := safe.Uint64(height)
	if err != nil {
		return model.SyncCursor{}, fmt.Errorf("cursor height: %w", err)
	}
	hash, err := chainhash.NewHashFromStr(hashStr)
	if err != nil {
		return model.SyncCursor{}, fmt.Errorf("decode cursor hash: %w", err)
	}
	return model.SyncCursor{Height: h, Hash: *hash}, nil
}

func writeCursor(ctx context.Context, tx *sql.Tx, c model.SyncCursor) error {
	const query = `
INSERT INTO sync_cursor (id, height, hash) VALUES (1, $1, $2)
ON CONFLICT (id) DO UPDATE SET height = EXCLUDED.height, hash = EXCLUDED.hash`
	height, err := safe.Int64(c.Height)
	if err != nil {
		return fmt.Errorf("cursor height: %w", err)
	}
	if _, err := tx.ExecContext(ctx, query, height, c.Hash.String()); err != nil {
		return fmt.Errorf("write cursor: %w", err)
	}
	return nil
}

func applyMutations(ctx context.Context, tx *sql.Tx, ms indexer.MutationSet) error {
	if ms.PutBlock != nil {
		if err := insertBlock(ctx, tx, ms.PutBlock); err != nil {
			return err
		}
	}
	if ms.DeleteBlock != nil {
		if err := deleteBlock(ctx, tx, ms.DeleteBlock); err != nil {
			return err
		}
	}
	for _, ref := range ms.PutAddressTxs {
		const query = `
INSERT INTO address_transactions (address, tx_id) VALUES ($1, $2)
ON CONFLICT (address, tx_id) DO NOTHING`
		if _, err := tx.ExecContext(ctx, query, ref.Address, ref.TxID.String()); err != nil {
			return fmt.Errorf("insert address tx ref: %w", err)
		}
	}
	for _, ref := range ms.DeleteAddressTxs {
		const query = `DELETE FROM address_transactions WHERE address = $1 AND tx_id = $2`
		if _, err := tx.ExecContext(ctx, query, ref.Address, ref.TxID.String()); err != nil {
			return fmt.Errorf("delete address tx ref: %w", err)
		}
	}
	for _, d := range ms.Deltas {
		if err := applyDelta(ctx, tx, d); err != nil {
			return err
		}
	}
	return nil
}

func insertBlock(ctx context.Context, tx *sql.Tx, b *model.Block) error {
	const blockQuery = `
INSERT INTO blocks (height, hash, parent_hash, timestamp) VALUES ($1, $2, $3, $4)`
	height, err := safe.Int64(b.Height)
	if err != nil {
		return fmt.Errorf("block height: %w", err)
	}
	if _, err := tx.ExecContext(ctx, blockQuery,
		height, b.Hash.String(), b.ParentHash.String(), b.Timestamp.UTC()); err != nil {
		return fmt.Errorf("insert block %d: %w", b.Height, err)
	}

	const txQuery = `
INSERT INTO transactions (tx_id, block_height, block_hash, tx_index, inputs, outputs)
VALUES ($1, $2, $3, $4, $5, $6)`
	for i := range b.Txs {
		t := &b.Txs[i]
		inputs, err := json.Marshal(toTransferRows(nil, t.Inputs, nil))
		if err != nil {
			return fmt.Errorf("encode inputs of %s: %w", t.ID, err)
		}
		outputs, err := json.Marshal(toTransferRows(nil, nil, t.Outputs))
		if err != nil {
			return fmt.Errorf("encode outputs of %s: %w", t.ID, err)
		}
		if _, err := tx.ExecContext(ctx, txQuery,
			t.ID.String(), height, b.Hash.String(), i, inputs, outputs); err != nil {
			return fmt.Errorf("insert tx %s: %w", t.ID, err)
		}
	}
	return nil
}

func deleteBlock(ctx context.Context, tx *sql.Tx, b *model.Block) error {
	height, err := safe.Int64(b.Height)
	if err != nil {
		return fmt.Errorf("block height: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM transactions WHERE block_height = $1`, height); err != nil {
		return fmt.Errorf("delete txs of block %d: %w", b.Height, err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM blocks WHERE height = $1`, height); err != nil {
		return fmt.Errorf("delete block %d: %w", b.Height, err)
	}
	return nil
}

func applyDelta(ctx context.Context, tx *sql.Tx, d indexer.AddressDelta) error {
	const upsert = `
INSERT INTO address_aggregates (address, balance, tx_count) VALUES ($1, $2, $3)
ON CONFLICT (address) DO UPDATE SET
	balance = address_aggregates.balance + EXCLUDED.balance,
	tx_count = address_aggregates.tx_count + EXCLUDED.tx_count`
	if _, err := tx.ExecContext(ctx, upsert, d.Address, d.Balance, d.TxCount); err != nil {
		return fmt.Errorf("apply delta for %s: %w", d.Address, err)
	}

	const sweep = `
DELETE FROM address_aggregates WHERE address = $1 AND balance = 0 AND tx_count = 0`
	if _, err := tx.ExecContext(ctx, sweep, d.Address); err != nil {
		return fmt.Errorf("sweep aggregate for %s: %w", d.Address, err)
	}
	return nil
}

func blockAtHeight(ctx context.Context, q querier, height uint64) (*model.Block, error) {
	h, err := safe.Int64(height)
	if err != nil {
		return nil, fmt.Errorf("block height: %w", err)
	}
	const query = `SELECT height, hash, parent_hash, timestamp FROM blocks WHERE height = $1`
	b, err := scanBlockHeader(q.QueryRowContext(ctx, query, h))
	if err != nil {
		return nil, err
	}
	b.Txs, err = blockTransactions(ctx, q, h)
	if err != nil {
		return nil, err
	}
	return b, nil
}

func blockByHash(ctx context.Context, q querier, hash chainhash.Hash) (*model.Block, error) {
	const query = `SELECT height, hash, parent_hash, timestamp FROM blocks WHERE hash = $1`
	b, err := scanBlockHeader(q.QueryRowContext(ctx, query, hash.String()))
	if err != nil {
		return nil, err
	}
	height, err := safe.Int64(b.Height)
	if err != nil {
		return nil, fmt.Errorf("block height: %w", err)
	}
	b.Txs, err = blockTransactions(ctx, q, height)
	if err != nil {
		return nil, err
	}
	return b, nil
}

func scanBlockHeader(row *sql.Row) (*model.Block, error) {
	var height int64
	var hashStr, parentStr string
	var ts time.Time
	if err := row.Scan(&height, &hashStr, &parentStr, &ts); err != nil {
		if err == sql.ErrNoRows {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("scan block: %w", err)
	}
	h, err := safe.Uint64(height)
	if err != nil {
		return nil, fmt.Errorf("block height: %w", err)
	}
	hash, err := chainhash.NewHashFromStr(hashStr)
	if err != nil {
		return nil, fmt.Errorf("decode block hash: %w", err)
	}
	parent, err := chainhash.NewHashFromStr(parentStr)
	if err != nil {
		return nil, fmt.Errorf("decode parent hash: %w", err)
	}
	return &model.Block{Height: h, Hash: *hash, ParentHash: *parent, Timestamp: ts.UTC()}, nil
}

func blockTransactions(ctx context.Context, q querier, height int64) ([]model.Transaction, error) {
	const query = `
SELECT tx_id, block_height, block_hash, inputs, outputs
FROM transactions WHERE block_height = $1 ORDER BY tx_index`
	rows, err := q.QueryContext(ctx, query, height)
	if err != nil {
		return nil, fmt.Errorf("query block txs: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var txs []model.Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		txs = append(txs, *tx)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate block txs: %w", err)
	}
	return txs, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTransaction(row rowScanner) (*model.Transaction, error) {
	var idStr, blockHashStr string
	var blockHeight int64
	var inputsRaw, outputsRaw []byte
	if err := row.Scan(&idStr, &blockHeight, &blockHashStr, &inputsRaw, &outputsRaw); err != nil {
		if err == sql.ErrNoRows {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("scan tx: %w", err)
	}

	id, err := chainhash.NewHashFromStr(idStr)
	if err != nil {
		return nil, fmt.Errorf("decode tx id: %w", err)
	}
	blockHash, err := chainhash.NewHashFromStr(blockHashStr)
	if err != nil {
		return nil, fmt.Errorf("decode tx block hash: %w", err)
	}
	height, err := safe.Uint64(blockHeight)
	if err != nil {
		return nil, fmt.Errorf("tx block height: %w", err)
	}

	var inputs, outputs []transferRow
	if err := json.Unmarshal(inputsRaw, &inputs); err != nil {
		return nil, fmt.Errorf("decode inputs of %s: %w", idStr, err)
	}
	if err := json.Unmarshal(outputsRaw, &outputs); err != nil {
		return nil, fmt.Errorf("decode outputs of %s: %w", idStr, err)
	}

	tx := &model.Transaction{ID: *id, BlockHeight: height, BlockHash: *blockHash}
	for _, in := range inputs {
		tx.Inputs = append(tx.Inputs, model.TxInput{Address: in.Address, Amount: in.Amount})
	}
	for _, out := range outputs {
		tx.Outputs = append(tx.Outputs, model.TxOutput{Address: out.Address, Amount: out.Amount})
	}
	return tx, nil
}

// toTransferRows flattens inputs or outputs into the JSON row shape. Exactly
// one of ins/outs is non-nil per call; rows always encodes as a JSON array,
// never null.
func toTransferRows(rows []transferRow, ins []model.TxInput, outs []model.TxOutput) []transferRow {
	if rows == nil {
		rows = make([]transferRow, 0, len(ins)+len(outs))
	}
	for _, in := range ins {
		rows = append(rows, transferRow{Address: in.Address, Amount: in.Amount})
	}
	for _, out := range outs {
		rows = append(rows, transferRow{Address: out.Address, Amount: out.Amount})
	}
	return rows
}
