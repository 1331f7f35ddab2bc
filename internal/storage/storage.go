// Package storage defines the persistence contract shared by every index
// backend. A backend must provide atomic application of a MutationSet
// together with the sync cursor update, and snapshot-isolated reads for
// concurrent queries.
package storage

import (
	"context"

	"github.com/btcsuite/btcd/chaincfg/chainhash"

	"github.com/chainscanhq/chainscan-backend/internal/indexer"
	"github.com/chainscanhq/chainscan-backend/internal/model"
)

// ReadTx is a point-in-time consistent view of the index. It observes only
// fully committed mutation sets; a commit that starts after the snapshot is
// taken is never partially visible through it.
type ReadTx interface {
	ReadCursor(ctx context.Context) (model.SyncCursor, error)
	BlockAtHeight(ctx context.Context, height uint64) (*model.Block, error)
	BlockByHash(ctx context.Context, hash chainhash.Hash) (*model.Block, error)
	Transaction(ctx context.Context, id chainhash.Hash) (*model.Transaction, error)
	AddressAggregate(ctx context.Context, address string) (*model.AddressAggregate, error)
	AddressTransactions(ctx context.Context, address string) ([]chainhash.Hash, error)
	Close() error
}

// Storage owns all persisted index state. The chain follower is its only
// writer; everything else reads through snapshots.
//
// Commit applies all writes of the mutation set and the cursor update as one
// unit: either every write and the new cursor become visible together, or
// none do. Commit verifies that the stored cursor still equals ms.Prev and
// fails with ErrCursorConflict otherwise, which makes re-application of an
// already applied block a rejected no-op.
type Storage interface {
	Snapshot(ctx context.Context) (ReadTx, error)
	ReadCursor(ctx context.Context) (model.SyncCursor, error)
	BlockAtHeight(ctx context.Context, height uint64) (*model.Block, error)
	Commit(ctx context.Context, ms indexer.MutationSet) error
	Close() error
}
