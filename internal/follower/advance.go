package follower

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/chainscanhq/chainscan-backend/internal/indexer"
	"github.com/chainscanhq/chainscan-backend/internal/model"
	"github.com/chainscanhq/chainscan-backend/internal/node"
	"github.com/chainscanhq/chainscan-backend/pkg/workerpool"
)

// rollbackToAncestor unwinds indexed blocks in strictly descending height
// order until the node agrees with the block at the cursor. Every revert is
// its own commit, so the linkage invariant holds at each transaction
// boundary and a crash resumes mid-rollback.
func (s *Service) rollbackToAncestor(ctx context.Context, cursor model.SyncCursor) (model.SyncCursor, error) {
	var depth uint64
	for {
		if err := ctx.Err(); err != nil {
			return cursor, err
		}

		nodeBlock, err := s.node.BlockAtHeight(ctx, cursor.Height)
		switch {
		case err == nil && nodeBlock.Hash == cursor.Hash:
			// Common ancestor found.
			if depth > 0 {
				s.metrics.ObserveReorg(depth)
				s.logger.Info("rolled back to common ancestor",
					zap.Uint64("height", cursor.Height), zap.Uint64("depth", depth))
			}
			return cursor, nil
		case err != nil && !errors.Is(err, node.ErrNotFound):
			return cursor, fmt.Errorf("check ancestor at height %d: %w", cursor.Height, err)
		}

		if cursor.Height == 0 {
			return cursor, &indexer.DataIntegrityError{
				Height: 0,
				Hash:   cursor.Hash,
				Reason: "node genesis differs from indexed genesis",
			}
		}
		depth++
		if depth > s.cfg.MaxReorgDepth {
			return cursor, fmt.Errorf("no common ancestor within %d blocks of height %d: %w",
				s.cfg.MaxReorgDepth, cursor.Height+depth-1, ErrReorgDepthExceeded)
		}

		if cursor, err = s.revertTip(ctx, cursor); err != nil {
			return cursor, err
		}
	}
}

func (s *Service) revertTip(ctx context.Context, cursor model.SyncCursor) (model.SyncCursor, error) {
	stored, err := s.store.BlockAtHeight(ctx, cursor.Height)
	if err != nil {
		return cursor, fmt.Errorf("load indexed block %d for rollback: %w", cursor.Height, err)
	}
	ms, err := indexer.Revert(stored)
	if err != nil {
		return cursor, err
	}

	started := time.Now()
	err = s.store.Commit(ctx, ms)
	s.metrics.ObserveRevertBlock(err, stored.Height, started)
	if err != nil {
		return cursor, fmt.Errorf("roll back block %d: %w", stored.Height, err)
	}
	s.metrics.SetSyncHeight(ms.Next.Height)
	s.logger.Info("rolled back block",
		zap.Uint64("height", stored.Height), zap.String("hash", stored.Hash.String()))
	return ms.Next, nil
}

// extend replays node blocks from cursor+1 up to target in ascending order.
// Blocks are prefetched in bounded batches; commits stay strictly
// sequential, one block per storage transaction.
func (s *Service) extend(ctx context.Context, cursor model.SyncCursor, target uint64) error {
	for cursor.Height < target {
		if err := ctx.Err(); err != nil {
			return err
		}

		from := cursor.Height + 1
		to := from + s.cfg.PrefetchBatch - 1
		if to > target {
			to = target
		}

		blocks, err := s.prefetch(ctx, from, to)
		if err != nil {
			return err
		}
		for _, b := range blocks {
			if b.ParentHash != cursor.Hash {
				// The node's chain moved under us; the next advance
				// re-evaluates from the committed cursor.
				return fmt.Errorf("block %d parent %s does not extend cursor %s",
					b.Height, b.ParentHash, cursor.Hash)
			}
			if cursor, err = s.applyBlock(ctx, b); err != nil {
				return err
			}
		}
	}
	return nil
}

func (s *Service) prefetch(ctx context.Context, from, to uint64) ([]*model.Block, error) {
	heights := make([]uint64, 0, to-from+1)
	for h := from; h <= to; h++ {
		heights = append(heights, h)
	}

	// Each worker writes a distinct slot, keyed by height offset.
	blocks := make([]*model.Block, len(heights))
	err := workerpool.Process(ctx, s.cfg.PrefetchWorkers, heights,
		func(ctx context.Context, height uint64) error {
			b, err := s.node.BlockAtHeight(ctx, height)
			if err != nil {
				return fmt.Errorf("fetch block %d: %w", height, err)
			}
			blocks[height-from] = b
			return nil
		})
	if err != nil {
		return nil, err
	}
	return blocks, nil
}

func (s *Service) applyBlock(ctx context.Context, b *model.Block) (model.SyncCursor, error) {
	ms, err := indexer.Apply(b)
	if err != nil {
		return model.SyncCursor{}, err
	}
	if err := s.commitApply(ctx, b, ms); err != nil {
		return model.SyncCursor{}, err
	}
	return ms.Next, nil
}

func (s *Service) commitApply(ctx context.Context, b *model.Block, ms indexer.MutationSet) error {
	started := time.Now()
	err := s.store.Commit(ctx, ms)
	s.metrics.ObserveApplyBlock(err, b.Height, started)
	if err != nil {
		return fmt.Errorf("apply block %d: %w", b.Height, err)
	}
	s.metrics.SetSyncHeight(b.Height)
	s.logger.Debug("applied block",
		zap.Uint64("height", b.Height),
		zap.String("hash", b.Hash.String()),
		zap.Int("txs", len(b.Txs)))
	return nil
}
