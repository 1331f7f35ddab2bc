package leveldbstore

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"time"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/syndtr/goleveldb/leveldb"

	"github.com/chainscanhq/chainscan-backend/internal/model"
	"github.com/chainscanhq/chainscan-backend/internal/storage"
)

type readTx struct {
	snap    *leveldb.Snapshot
	metrics Metrics
}

func (r *readTx) ReadCursor(context.Context) (model.SyncCursor, error) {
	raw, err := r.snap.Get([]byte(keyCursor), nil)
	if err == leveldb.ErrNotFound {
		return model.SyncCursor{}, nil
	}
	if err != nil {
		return model.SyncCursor{}, fmt.Errorf("read cursor: %w", err)
	}
	return decodeCursor(raw)
}

func (r *readTx) BlockAtHeight(_ context.Context, height uint64) (b *model.Block, err error) {
	started := time.Now()
	defer func() {
		r.observe("block_at_height", err, started)
	}()

	raw, err := r.get(blockKey(height))
	if err != nil {
		return nil, err
	}
	return decodeBlock(raw)
}

func (r *readTx) BlockByHash(ctx context.Context, hash chainhash.Hash) (b *model.Block, err error) {
	started := time.Now()
	defer func() {
		r.observe("block_by_hash", err, started)
	}()

	raw, err := r.get(hashIndexKey(hash))
	if err != nil {
		return nil, err
	}
	if len(raw) != 8 {
		return nil, fmt.Errorf("malformed height reference for block %s", hash)
	}
	blockRaw, err := r.get(blockKey(binary.BigEndian.Uint64(raw)))
	if err != nil {
		return nil, err
	}
	return decodeBlock(blockRaw)
}

func (r *readTx) Transaction(_ context.Context, id chainhash.Hash) (tx *model.Transaction, err error) {
	started := time.Now()
	defer func() {
		r.observe("transaction", err, started)
	}()

	raw, err := r.get(txKey(id))
	if err != nil {
		return nil, err
	}
	return decodeTx(raw)
}

func (r *readTx) AddressAggregate(_ context.Context, address string) (agg *model.AddressAggregate, err error) {
	started := time.Now()
	defer func() {
		r.observe("address_aggregate", err, started)
	}()

	raw, err := r.get(aggregateKey(address))
	if err != nil {
		return nil, err
	}
	var row aggregateRow
	if err = json.Unmarshal(raw, &row); err != nil {
		return nil, fmt.Errorf("decode aggregate for %s: %w", address, err)
	}
	return &model.AddressAggregate{Address: address, Balance: row.Balance, TxCount: row.TxCount}, nil
}

func (r *readTx) AddressTransactions(_ context.Context, address string) (ids []chainhash.Hash, err error) {
	started := time.Now()
	defer func() {
		r.observe("address_transactions", err, started)
	}()

	raw, err := r.get(addressTxKey(address))
	if err != nil {
		return nil, err
	}
	return decodeTxIDs(raw)
}

func (r *readTx) Close() error {
	r.snap.Release()
	return nil
}

func (r *readTx) get(key []byte) ([]byte, error) {
	raw, err := r.snap.Get(key, nil)
	if err == leveldb.ErrNotFound {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return raw, nil
}

func (r *readTx) observe(op string, err error, started time.Time) {
	if r.metrics != nil {
		r.metrics.Observe(op, err, started)
	}
}
