// Package leveldbstore is the embedded durable Storage backend. A commit is
// a single LevelDB write batch, so all writes of a mutation set and the
// cursor update hit disk atomically; reads go through LevelDB snapshots.
package leveldbstore

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/opt"

	"github.com/chainscanhq/chainscan-backend/internal/indexer"
	"github.com/chainscanhq/chainscan-backend/internal/model"
	"github.com/chainscanhq/chainscan-backend/internal/storage"
)

const schemaVersion = 1

type (
	// Metrics records outcome and duration of storage operations.
	Metrics interface {
		Observe(operation string, err error, started time.Time)
	}
)

// Store implements storage.Storage on a local LevelDB directory.
type Store struct {
	db      *leveldb.DB
	metrics Metrics

	// Guards the read-modify-write cycle in Commit. The follower is the
	// only writer, so this only matters for misuse, not throughput.
	commitMu sync.Mutex
}

// Open opens or creates the database directory and checks the schema
// version record.
func Open(path string, metrics Metrics) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("leveldb path is required")
	}
	db, err := leveldb.OpenFile(path, nil)
	if err != nil {
		return nil, fmt.Errorf("open leveldb at %s: %w", path, err)
	}

	s := &Store{db: db, metrics: metrics}
	if err := s.checkVersion(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) checkVersion() error {
	raw, err := s.db.Get([]byte(keyVersion), nil)
	if err == leveldb.ErrNotFound {
		buf := make([]byte, 4)
		binary.BigEndian.PutUint32(buf, schemaVersion)
		return s.db.Put([]byte(keyVersion), buf, &opt.WriteOptions{Sync: true})
	}
	if err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if len(raw) != 4 || binary.BigEndian.Uint32(raw) != schemaVersion {
		return fmt.Errorf("unsupported schema version %v, want %d", raw, schemaVersion)
	}
	return nil
}

// Commit applies the mutation set and cursor update as one synced batch.
func (s *Store) Commit(ctx context.Context, ms indexer.MutationSet) (err error) {
	started := time.Now()
	defer func() {
		s.observe("commit", err, started)
	}()

	s.commitMu.Lock()
	defer s.commitMu.Unlock()

	if err = ctx.Err(); err != nil {
		return err
	}

	cursor, err := s.readCursor(nil)
	if err != nil {
		return err
	}
	if !cursor.Equal(ms.Prev) {
		return fmt.Errorf("expected cursor (%d, %s), have (%d, %s): %w",
			ms.Prev.Height, ms.Prev.Hash, cursor.Height, cursor.Hash, storage.ErrCursorConflict)
	}

	batch := new(leveldb.Batch)
	if err = s.stageBlocks(batch, ms); err != nil {
		return err
	}
	if err = s.stageAddressTxs(batch, ms); err != nil {
		return err
	}
	if err = s.stageAggregates(batch, ms); err != nil {
		return err
	}

	rawCursor, err := encodeCursor(ms.Next)
	if err != nil {
		return err
	}
	batch.Put([]byte(keyCursor), rawCursor)

	if err = s.db.Write(batch, &opt.WriteOptions{Sync: true}); err != nil {
		return fmt.Errorf("write commit batch: %w", err)
	}
	return nil
}

func (s *Store) stageBlocks(batch *leveldb.Batch, ms indexer.MutationSet) error {
	if ms.PutBlock != nil {
		raw, err := encodeBlock(ms.PutBlock)
		if err != nil {
			return fmt.Errorf("encode block %d: %w", ms.PutBlock.Height, err)
		}
		batch.Put(blockKey(ms.PutBlock.Height), raw)

		heightRef := make([]byte, 8)
		binary.BigEndian.PutUint64(heightRef, ms.PutBlock.Height)
		batch.Put(hashIndexKey(ms.PutBlock.Hash), heightRef)
	}
	if ms.DeleteBlock != nil {
		batch.Delete(blockKey(ms.DeleteBlock.Height))
		batch.Delete(hashIndexKey(ms.DeleteBlock.Hash))
	}
	for i := range ms.PutTxs {
		raw, err := encodeTx(&ms.PutTxs[i])
		if err != nil {
			return fmt.Errorf("encode tx %s: %w", ms.PutTxs[i].ID, err)
		}
		batch.Put(txKey(ms.PutTxs[i].ID), raw)
	}
	for _, id := range ms.DeleteTxIDs {
		batch.Delete(txKey(id))
	}
	return nil
}

func (s *Store) stageAddressTxs(batch *leveldb.Batch, ms indexer.MutationSet) error {
	touched := make(map[string][]chainhash.Hash)
	load := func(address string) ([]chainhash.Hash, error) {
		if ids, ok := touched[address]; ok {
			return ids, nil
		}
		raw, err := s.db.Get(addressTxKey(address), nil)
		if err == leveldb.ErrNotFound {
			return nil, nil
		}
		if err != nil {
			return nil, fmt.Errorf("read address txs for %s: %w", address, err)
		}
		return decodeTxIDs(raw)
	}

	for _, ref := range ms.PutAddressTxs {
		ids, err := load(ref.Address)
		if err != nil {
			return err
		}
		touched[ref.Address] = appendUnique(ids, ref.TxID)
	}
	for _, ref := range ms.DeleteAddressTxs {
		ids, err := load(ref.Address)
		if err != nil {
			return err
		}
		touched[ref.Address] = removeID(ids, ref.TxID)
	}

	for address, ids := range touched {
		if len(ids) == 0 {
			batch.Delete(addressTxKey(address))
			continue
		}
		raw, err := encodeTxIDs(ids)
		if err != nil {
			return err
		}
		batch.Put(addressTxKey(address), raw)
	}
	return nil
}

func (s *Store) stageAggregates(batch *leveldb.Batch, ms indexer.MutationSet) error {
	for _, d := range ms.Deltas {
		var row aggregateRow
		raw, err := s.db.Get(aggregateKey(d.Address), nil)
		switch err {
		case nil:
			if err := json.Unmarshal(raw, &row); err != nil {
				return fmt.Errorf("decode aggregate for %s: %w", d.Address, err)
			}
		case leveldb.ErrNotFound:
		default:
			return fmt.Errorf("read aggregate for %s: %w", d.Address, err)
		}

		row.Balance += d.Balance
		row.TxCount += d.TxCount
		if row.TxCount < 0 {
			return fmt.Errorf("address %s tx count underflow", d.Address)
		}
		if row.Balance == 0 && row.TxCount == 0 {
			batch.Delete(aggregateKey(d.Address))
			continue
		}
		encoded, err := json.Marshal(row)
		if err != nil {
			return err
		}
		batch.Put(aggregateKey(d.Address), encoded)
	}
	return nil
}

// Snapshot pins a LevelDB snapshot for point-in-time reads.
func (s *Store) Snapshot(_ context.Context) (storage.ReadTx, error) {
	snap, err := s.db.GetSnapshot()
	if err != nil {
		return nil, fmt.Errorf("acquire snapshot: %w", err)
	}
	return &readTx{snap: snap, metrics: s.metrics}, nil
}

// ReadCursor returns the committed sync cursor.
func (s *Store) ReadCursor(_ context.Context) (model.SyncCursor, error) {
	return s.readCursor(nil)
}

// BlockAtHeight returns the committed block at the given height.
func (s *Store) BlockAtHeight(_ context.Context, height uint64) (*model.Block, error) {
	raw, err := s.db.Get(blockKey(height), nil)
	if err == leveldb.ErrNotFound {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read block %d: %w", height, err)
	}
	return decodeBlock(raw)
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) readCursor(snap *leveldb.Snapshot) (model.SyncCursor, error) {
	var raw []byte
	var err error
	if snap != nil {
		raw, err = snap.Get([]byte(keyCursor), nil)
	} else {
		raw, err = s.db.Get([]byte(keyCursor), nil)
	}
	if err == leveldb.ErrNotFound {
		return model.SyncCursor{}, nil
	}
	if err != nil {
		return model.SyncCursor{}, fmt.Errorf("read cursor: %w", err)
	}
	return decodeCursor(raw)
}

func (s *Store) observe(op string, err error, started time.Time) {
	if s.metrics != nil {
		s.metrics.Observe(op, err, started)
	}
}

func appendUnique(ids []chainhash.Hash, id chainhash.Hash) []chainhash.Hash {
	for _, existing := range ids {
		if existing == id {
			return ids
		}
	}
	return append(ids, id)
}

func removeID(ids []chainhash.Hash, id chainhash.Hash) []chainhash.Hash {
	out := ids[:0]
	for _, existing := range ids {
		if existing != id {
			out = append(out, existing)
		}
	}
	return out
}
