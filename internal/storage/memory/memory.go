// Package memory is an in-memory Storage backend with the same transactional
// semantics as the durable ones. It backs unit tests and single-process
// development setups.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/btcsuite/btcd/chaincfg/chainhash"

	"github.com/chainscanhq/chainscan-backend/internal/indexer"
	"github.com/chainscanhq/chainscan-backend/internal/model"
	"github.com/chainscanhq/chainscan-backend/internal/storage"
)

// state is one immutable committed version of the index. Commit builds a new
// state from the previous one and swaps it in, so a snapshot is just a
// reference to whatever state was current when it was taken.
type state struct {
	cursor     model.SyncCursor
	byHeight   map[uint64]*model.Block
	byHash     map[chainhash.Hash]uint64
	txs        map[chainhash.Hash]*model.Transaction
	aggregates map[string]model.AddressAggregate
	addressTxs map[string][]chainhash.Hash
}

func emptyState() *state {
	return &state{
		byHeight:   make(map[uint64]*model.Block),
		byHash:     make(map[chainhash.Hash]uint64),
		txs:        make(map[chainhash.Hash]*model.Transaction),
		aggregates: make(map[string]model.AddressAggregate),
		addressTxs: make(map[string][]chainhash.Hash),
	}
}

// Storage implements storage.Storage on top of in-process maps.
type Storage struct {
	mu      sync.RWMutex
	current *state
}

// New returns an empty in-memory storage.
func New() *Storage {
	return &Storage{current: emptyState()}
}

// Commit applies the mutation set atomically against the current state.
func (s *Storage) Commit(_ context.Context, ms indexer.MutationSet) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.current.cursor.Equal(ms.Prev) {
		return fmt.Errorf("expected cursor (%d, %s), have (%d, %s): %w",
			ms.Prev.Height, ms.Prev.Hash, s.current.cursor.Height, s.current.cursor.Hash,
			storage.ErrCursorConflict)
	}

	next := s.current.clone()
	if err := next.apply(ms); err != nil {
		return err
	}
	next.cursor = ms.Next
	s.current = next
	return nil
}

// Snapshot returns a read view pinned to the current committed state.
func (s *Storage) Snapshot(_ context.Context) (storage.ReadTx, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return &readTx{st: s.current}, nil
}

// ReadCursor returns the committed sync cursor.
func (s *Storage) ReadCursor(_ context.Context) (model.SyncCursor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current.cursor, nil
}

// BlockAtHeight returns the committed block at the given height.
func (s *Storage) BlockAtHeight(_ context.Context, height uint64) (*model.Block, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current.blockAtHeight(height)
}

// Close releases nothing; it exists to satisfy storage.Storage.
func (s *Storage) Close() error { return nil }

func (st *state) clone() *state {
	next := &state{
		cursor:     st.cursor,
		byHeight:   make(map[uint64]*model.Block, len(st.byHeight)+1),
		byHash:     make(map[chainhash.Hash]uint64, len(st.byHash)+1),
		txs:        make(map[chainhash.Hash]*model.Transaction, len(st.txs)),
		aggregates: make(map[string]model.AddressAggregate, len(st.aggregates)),
		addressTxs: make(map[string][]chainhash.Hash, len(st.addressTxs)),
	}
	for k, v := range st.byHeight {
		next.byHeight[k] = v
	}
	for k, v := range st.byHash {
		next.byHash[k] = v
	}
	for k, v := range st.txs {
		next.txs[k] = v
	}
	for k, v := range st.aggregates {
		next.aggregates[k] = v
	}
	for k, v := range st.addressTxs {
		next.addressTxs[k] = v
	}
	return next
}

func (st *state) apply(ms indexer.MutationSet) error {
	if ms.PutBlock != nil {
		b := copyBlock(ms.PutBlock)
		st.byHeight[b.Height] = b
		st.byHash[b.Hash] = b.Height
	}
	if ms.DeleteBlock != nil {
		delete(st.byHeight, ms.DeleteBlock.Height)
		delete(st.byHash, ms.DeleteBlock.Hash)
	}
	for i := range ms.PutTxs {
		tx := ms.PutTxs[i]
		st.txs[tx.ID] = &tx
	}
	for _, id := range ms.DeleteTxIDs {
		delete(st.txs, id)
	}
	for _, ref := range ms.PutAddressTxs {
		st.addressTxs[ref.Address] = appendTxRef(st.addressTxs[ref.Address], ref.TxID)
	}
	for _, ref := range ms.DeleteAddressTxs {
		remaining := removeTxRef(st.addressTxs[ref.Address], ref.TxID)
		if len(remaining) == 0 {
			delete(st.addressTxs, ref.Address)
		} else {
			st.addressTxs[ref.Address] = remaining
		}
	}
	for _, d := range ms.Deltas {
		agg := st.aggregates[d.Address]
		agg.Address = d.Address
		agg.Balance += d.Balance
		agg.TxCount += d.TxCount
		if agg.TxCount < 0 {
			return fmt.Errorf("address %s tx count underflow", d.Address)
		}
		if agg.IsZero() {
			delete(st.aggregates, d.Address)
		} else {
			st.aggregates[d.Address] = agg
		}
	}
	return nil
}

func (st *state) blockAtHeight(height uint64) (*model.Block, error) {
	b, ok := st.byHeight[height]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return copyBlock(b), nil
}

type readTx struct {
	st *state
}

func (r *readTx) ReadCursor(context.Context) (model.SyncCursor, error) {
	return r.st.cursor, nil
}

func (r *readTx) BlockAtHeight(_ context.Context, height uint64) (*model.Block, error) {
	return r.st.blockAtHeight(height)
}

func (r *readTx) BlockByHash(_ context.Context, hash chainhash.Hash) (*model.Block, error) {
	height, ok := r.st.byHash[hash]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return r.st.blockAtHeight(height)
}

func (r *readTx) Transaction(_ context.Context, id chainhash.Hash) (*model.Transaction, error) {
	tx, ok := r.st.txs[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	out := *tx
	return &out, nil
}

func (r *readTx) AddressAggregate(_ context.Context, address string) (*model.AddressAggregate, error) {
	agg, ok := r.st.aggregates[address]
	if !ok {
		return nil, storage.ErrNotFound
	}
	out := agg
	return &out, nil
}

func (r *readTx) AddressTransactions(_ context.Context, address string) ([]chainhash.Hash, error) {
	ids, ok := r.st.addressTxs[address]
	if !ok {
		return nil, storage.ErrNotFound
	}
	out := make([]chainhash.Hash, len(ids))
	copy(out, ids)
	return out, nil
}

func (r *readTx) Close() error { return nil }

func copyBlock(b *model.Block) *model.Block {
	out := *b
	out.Txs = make([]model.Transaction, len(b.Txs))
	copy(out.Txs, b.Txs)
	return &out
}

func appendTxRef(ids []chainhash.Hash, id chainhash.Hash) []chainhash.Hash {
	for _, existing := range ids {
		if existing == id {
			return ids
		}
	}
	out := make([]chainhash.Hash, len(ids), len(ids)+1)
	copy(out, ids)
	return append(out, id)
}

func removeTxRef(ids []chainhash.Hash, id chainhash.Hash) []chainhash.Hash {
	out := make([]chainhash.Hash, 0, len(ids))
	for _, existing := range ids {
		if existing != id {
			out = append(out, existing)
		}
	}
	return out
}
