// Package query exposes the read-only API surface over the index. Every call
// runs against a dedicated storage snapshot, so results are internally
// consistent even while the follower is committing new blocks.
package query

import (
	"context"
	"errors"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"go.uber.org/zap"

	"github.com/chainscanhq/chainscan-backend/internal/model"
	"github.com/chainscanhq/chainscan-backend/internal/storage"
)

// ErrNotFound is returned for entities the index does not hold.
var ErrNotFound = errors.New("query: not found")

// AddressView bundles an address aggregate with its transaction history,
// read from a single snapshot.
type AddressView struct {
	Aggregate model.AddressAggregate
	TxIDs     []chainhash.Hash
}

// Service answers read requests against committed index state.
type Service struct {
	logger *zap.Logger
	store  storage.Storage
}

// NewService constructs the query service.
func NewService(logger *zap.Logger, store storage.Storage) (*Service, error) {
	if logger == nil {
		return nil, errors.New("logger is nil")
	}
	if store == nil {
		return nil, errors.New("store is nil")
	}
	return &Service{
		logger: logger.Named("query"),
		store:  store,
	}, nil
}

// Tip returns the sync cursor, the height and hash of the last block fully
// applied to the index. Callers compare it against the node's best block to
// detect staleness.
func (s *Service) Tip(ctx context.Context) (model.ChainTip, error) {
	tip, err := s.store.ReadCursor(ctx)
	if err != nil {
		return model.ChainTip{}, err
	}
	return tip, nil
}

// BlockAtHeight returns the committed block at the given height.
func (s *Service) BlockAtHeight(ctx context.Context, height uint64) (*model.Block, error) {
	snap, err := s.store.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	defer s.closeSnap(snap)

	b, err := snap.BlockAtHeight(ctx, height)
	return b, mapErr(err)
}

// BlockByHash returns the committed block with the given hash.
func (s *Service) BlockByHash(ctx context.Context, hash chainhash.Hash) (*model.Block, error) {
	snap, err := s.store.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	defer s.closeSnap(snap)

	b, err := snap.BlockByHash(ctx, hash)
	return b, mapErr(err)
}

// Transaction returns the committed transaction with the given id.
func (s *Service) Transaction(ctx context.Context, id chainhash.Hash) (*model.Transaction, error) {
	snap, err := s.store.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	defer s.closeSnap(snap)

	tx, err := snap.Transaction(ctx, id)
	return tx, mapErr(err)
}

// Address returns the aggregate and transaction history for an address. The
// aggregate and the history come from the same snapshot so they always agree.
func (s *Service) Address(ctx context.Context, address string) (*AddressView, error) {
	if address == "" {
		return nil, ErrNotFound
	}

	snap, err := s.store.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	defer s.closeSnap(snap)

	agg, err := snap.AddressAggregate(ctx, address)
	if err != nil {
		return nil, mapErr(err)
	}

	txIDs, err := snap.AddressTransactions(ctx, address)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return nil, err
	}

	return &AddressView{Aggregate: *agg, TxIDs: txIDs}, nil
}

func (s *Service) closeSnap(snap storage.ReadTx) {
	if err := snap.Close(); err != nil {
		s.logger.Warn("closing read snapshot", zap.Error(err))
	}
}

func mapErr(err error) error {
	if errors.Is(err, storage.ErrNotFound) {
		return ErrNotFound
	}
	return err
}
