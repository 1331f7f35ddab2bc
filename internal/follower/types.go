package follower

import (
	"context"
	"time"

	"github.com/chainscanhq/chainscan-backend/internal/indexer"
	"github.com/chainscanhq/chainscan-backend/internal/model"
)

//go:generate mockgen -source=$GOFILE -destination=mocks_test.go -package=$GOPACKAGE

type (
	// NodeSource is the follower's view of the trusted node: the best
	// block pointer and block-at-a-time retrieval. Calls are idempotent
	// and side-effect free.
	NodeSource interface {
		BestBlock(ctx context.Context) (model.ChainTip, error)
		BlockAtHeight(ctx context.Context, height uint64) (*model.Block, error)
	}

	// Store is the slice of the storage contract the follower writes
	// through.
	Store interface {
		ReadCursor(ctx context.Context) (model.SyncCursor, error)
		BlockAtHeight(ctx context.Context, height uint64) (*model.Block, error)
		Commit(ctx context.Context, ms indexer.MutationSet) error
	}

	// Metrics observes follower progress.
	Metrics interface {
		ObserveAdvance(err error, started time.Time)
		ObserveApplyBlock(err error, height uint64, started time.Time)
		ObserveRevertBlock(err error, height uint64, started time.Time)
		ObserveReorg(depth uint64)
		SetSyncHeight(height uint64)
	}
)
