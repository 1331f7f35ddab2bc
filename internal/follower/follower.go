// Package follower keeps the stored index consistent with the node's
// canonical chain. It is the sole writer of storage: one loop, one
// in-flight advance, one committed block per storage transaction.
package follower

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/chainscanhq/chainscan-backend/internal/clock"
	"github.com/chainscanhq/chainscan-backend/internal/indexer"
	"github.com/chainscanhq/chainscan-backend/internal/model"
	"github.com/chainscanhq/chainscan-backend/internal/node"
)

// ErrReorgDepthExceeded is returned when the walk back to the common
// ancestor passes the configured depth bound. The index refuses to unwind
// further without operator intervention.
var ErrReorgDepthExceeded = errors.New("follower: reorg exceeds maximum depth")

// Config tunes the follower loop. Zero values select defaults.
type Config struct {
	PollInterval    time.Duration
	InitialBackoff  time.Duration
	MaxBackoff      time.Duration
	MaxReorgDepth   uint64
	PrefetchBatch   uint64
	PrefetchWorkers int
}

func (c *Config) withDefaults() Config {
	out := *c
	if out.PollInterval <= 0 {
		out.PollInterval = defaultPollInterval
	}
	if out.InitialBackoff <= 0 {
		out.InitialBackoff = defaultInitialBackoff
	}
	if out.MaxBackoff <= 0 {
		out.MaxBackoff = defaultMaxBackoff
	}
	if out.MaxReorgDepth == 0 {
		out.MaxReorgDepth = defaultMaxReorgDepth
	}
	if out.PrefetchBatch == 0 {
		out.PrefetchBatch = defaultPrefetchBatch
	}
	if out.PrefetchWorkers <= 0 {
		out.PrefetchWorkers = defaultPrefetchWorkers
	}
	return out
}

// Service drives the chain-following loop.
type Service struct {
	logger      *zap.Logger
	network     model.Network
	metrics     Metrics
	sleep       func(context.Context, time.Duration) error
	cfg         Config
	node        NodeSource
	store       Store
	blockSignal <-chan struct{}
}

// NewService builds a Service with dependencies. blockSignal may be nil; if
// set, a receive on it wakes the loop before the poll interval elapses.
func NewService(
	store Store,
	node NodeSource,
	metrics Metrics,
	network model.Network,
	cfg Config,
	logger *zap.Logger,
	blockSignal <-chan struct{},
) (*Service, error) {
	if store == nil {
		return nil, errors.New("follower store is required")
	}
	if node == nil {
		return nil, errors.New("follower node source is required")
	}
	if metrics == nil {
		return nil, errors.New("follower metrics is required")
	}
	logger = logger.With(zap.String("network", string(network)))

	return &Service{
		logger:      logger,
		network:     network,
		metrics:     metrics,
		sleep:       clock.SleepWithContext,
		cfg:         cfg.withDefaults(),
		node:        node,
		store:       store,
		blockSignal: blockSignal,
	}, nil
}

// Run advances the index until the context is canceled or a fatal
// condition is hit. Transient node and storage failures are retried with
// exponential backoff; the last committed cursor is the resume point, so a
// retry never repeats or skips work.
func (s *Service) Run(ctx context.Context) error {
	backoff := s.cfg.InitialBackoff
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		err := s.Advance(ctx)
		switch {
		case err == nil:
			backoff = s.cfg.InitialBackoff
			if waitErr := s.wait(ctx, s.cfg.PollInterval); waitErr != nil {
				return waitErr
			}
		case isFatal(err):
			s.logger.Error("follower stopped on fatal condition", zap.Error(err))
			return err
		case errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded):
			return err
		default:
			s.logger.Warn("advance failed, backing off",
				zap.Error(err), zap.Duration("backoff", backoff))
			if sleepErr := s.sleep(ctx, backoff); sleepErr != nil {
				return sleepErr
			}
			backoff *= 2
			if backoff > s.cfg.MaxBackoff {
				backoff = s.cfg.MaxBackoff
			}
		}
	}
}

// Advance performs one reconciliation step: detect divergence, roll back to
// the common ancestor if needed, then replay forward to the node's best
// block. Each block is committed on its own, so an interruption loses at
// most the block in flight.
func (s *Service) Advance(ctx context.Context) (err error) {
	started := time.Now()
	defer func() {
		s.metrics.ObserveAdvance(err, started)
	}()

	cursor, err := s.store.ReadCursor(ctx)
	if err != nil {
		return fmt.Errorf("read cursor: %w", err)
	}
	if cursor.IsZero() {
		if cursor, err = s.applyGenesis(ctx); err != nil {
			return err
		}
	}

	tip, err := s.node.BestBlock(ctx)
	if err != nil {
		return fmt.Errorf("get best block: %w", err)
	}
	if tip.Equal(cursor) {
		return nil
	}

	diverged, err := s.divergedBelowTip(ctx, cursor, tip)
	if err != nil {
		return err
	}
	if diverged {
		if cursor, err = s.rollbackToAncestor(ctx, cursor); err != nil {
			return err
		}
	}

	if tip.Height > cursor.Height {
		if err = s.extend(ctx, cursor, tip.Height); err != nil {
			return err
		}
	}
	return nil
}

func (s *Service) applyGenesis(ctx context.Context) (model.SyncCursor, error) {
	genesis, err := s.node.BlockAtHeight(ctx, 0)
	if err != nil {
		return model.SyncCursor{}, fmt.Errorf("fetch genesis: %w", err)
	}
	ms, err := indexer.Apply(genesis)
	if err != nil {
		return model.SyncCursor{}, err
	}
	if err := s.commitApply(ctx, genesis, ms); err != nil {
		return model.SyncCursor{}, err
	}
	s.logger.Info("initialized index at genesis", zap.String("hash", genesis.Hash.String()))
	return ms.Next, nil
}

// divergedBelowTip reports whether the node no longer agrees with the
// indexed block at the cursor height.
func (s *Service) divergedBelowTip(ctx context.Context, cursor model.SyncCursor, tip model.ChainTip) (bool, error) {
	if tip.Height < cursor.Height {
		return true, nil
	}
	nodeBlock, err := s.node.BlockAtHeight(ctx, cursor.Height)
	if errors.Is(err, node.ErrNotFound) {
		return true, nil
	}
	if err != nil {
		return false, fmt.Errorf("check block at cursor height %d: %w", cursor.Height, err)
	}
	return nodeBlock.Hash != cursor.Hash, nil
}

func (s *Service) wait(ctx context.Context, d time.Duration) error {
	if s.blockSignal == nil {
		return s.sleep(ctx, d)
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-s.blockSignal:
		return nil
	case <-timer.C:
		return nil
	}
}

func isFatal(err error) bool {
	var integrity *indexer.DataIntegrityError
	return errors.Is(err, ErrReorgDepthExceeded) || errors.As(err, &integrity)
}
