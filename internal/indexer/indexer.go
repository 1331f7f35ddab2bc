// Package indexer turns blocks into the storage mutations that add or
// remove them from the index. Both transforms are pure: they read nothing
// beyond the block itself, so re-deriving a mutation set after a crash
// always produces the same result.
package indexer

import (
	"fmt"
	"sort"

	"github.com/btcsuite/btcd/chaincfg/chainhash"

	"github.com/chainscanhq/chainscan-backend/internal/model"
)

// DataIntegrityError reports a block whose contents cannot be indexed. The
// node is trusted to serve only valid blocks, so the follower treats this as
// fatal for the current node response and re-fetches.
type DataIntegrityError struct {
	Height uint64
	Hash   chainhash.Hash
	Reason string
}

func (e *DataIntegrityError) Error() string {
	return fmt.Sprintf("block %d (%s) malformed: %s", e.Height, e.Hash, e.Reason)
}

// Apply computes the mutation set that adds the block to the index: the
// block record, each transaction, the per-address transaction references and
// the aggregate deltas for every referenced address.
func Apply(b *model.Block) (MutationSet, error) {
	if err := validate(b); err != nil {
		return MutationSet{}, err
	}

	ms := MutationSet{
		Prev:     prevCursor(b),
		Next:     model.SyncCursor{Height: b.Height, Hash: b.Hash},
		PutBlock: b,
		PutTxs:   make([]model.Transaction, 0, len(b.Txs)),
	}
	for i := range b.Txs {
		tx := b.Txs[i]
		tx.BlockHeight = b.Height
		tx.BlockHash = b.Hash
		ms.PutTxs = append(ms.PutTxs, tx)
		for _, addr := range tx.Addresses() {
			ms.PutAddressTxs = append(ms.PutAddressTxs, AddressTxRef{Address: addr, TxID: tx.ID})
		}
	}
	ms.Deltas = blockDeltas(b, +1)
	return ms, nil
}

// Revert computes the exact inverse of Apply for the same block: it deletes
// the block and its transactions and negates every aggregate delta, so that
// committing Apply(b) then Revert(b) leaves storage unchanged.
func Revert(b *model.Block) (MutationSet, error) {
	if err := validate(b); err != nil {
		return MutationSet{}, err
	}
	if b.Height == 0 {
		return MutationSet{}, &DataIntegrityError{Height: 0, Hash: b.Hash, Reason: "genesis cannot be reverted"}
	}

	ms := MutationSet{
		Prev:        model.SyncCursor{Height: b.Height, Hash: b.Hash},
		Next:        model.SyncCursor{Height: b.Height - 1, Hash: b.ParentHash},
		DeleteBlock: b,
		DeleteTxIDs: b.TxIDs(),
	}
	for i := range b.Txs {
		tx := &b.Txs[i]
		for _, addr := range tx.Addresses() {
			ms.DeleteAddressTxs = append(ms.DeleteAddressTxs, AddressTxRef{Address: addr, TxID: tx.ID})
		}
	}
	ms.Deltas = blockDeltas(b, -1)
	return ms, nil
}

func prevCursor(b *model.Block) model.SyncCursor {
	if b.Height == 0 {
		// Genesis extends the empty index; its parent hash is all zero.
		return model.SyncCursor{}
	}
	return model.SyncCursor{Height: b.Height - 1, Hash: b.ParentHash}
}

// blockDeltas folds the block's value transfers into one delta per address,
// signed by direction. Deltas are sorted by address so a mutation set is
// byte-for-byte deterministic for a given block.
func blockDeltas(b *model.Block, sign int64) []AddressDelta {
	byAddr := make(map[string]*AddressDelta)
	get := func(addr string) *AddressDelta {
		d, ok := byAddr[addr]
		if !ok {
			d = &AddressDelta{Address: addr}
			byAddr[addr] = d
		}
		return d
	}

	for i := range b.Txs {
		tx := &b.Txs[i]
		for _, in := range tx.Inputs {
			get(in.Address).Balance -= sign * in.Amount
		}
		for _, out := range tx.Outputs {
			get(out.Address).Balance += sign * out.Amount
		}
		for _, addr := range tx.Addresses() {
			get(addr).TxCount += sign
		}
	}

	deltas := make([]AddressDelta, 0, len(byAddr))
	for _, d := range byAddr {
		deltas = append(deltas, *d)
	}
	sort.Slice(deltas, func(i, j int) bool { return deltas[i].Address < deltas[j].Address })
	return deltas
}

func validate(b *model.Block) error {
	if b == nil {
		return &DataIntegrityError{Reason: "nil block"}
	}
	if b.Hash == (chainhash.Hash{}) {
		return &DataIntegrityError{Height: b.Height, Reason: "zero block hash"}
	}
	if b.Height == 0 && b.ParentHash != (chainhash.Hash{}) {
		return &DataIntegrityError{Height: 0, Hash: b.Hash, Reason: "genesis declares a parent"}
	}
	if b.Height > 0 && b.ParentHash == (chainhash.Hash{}) {
		return &DataIntegrityError{Height: b.Height, Hash: b.Hash, Reason: "missing parent hash"}
	}
	seen := make(map[chainhash.Hash]struct{}, len(b.Txs))
	for i := range b.Txs {
		tx := &b.Txs[i]
		if tx.ID == (chainhash.Hash{}) {
			return &DataIntegrityError{Height: b.Height, Hash: b.Hash, Reason: fmt.Sprintf("tx %d has zero id", i)}
		}
		if _, ok := seen[tx.ID]; ok {
			return &DataIntegrityError{Height: b.Height, Hash: b.Hash, Reason: fmt.Sprintf("duplicate tx %s", tx.ID)}
		}
		seen[tx.ID] = struct{}{}
		for _, in := range tx.Inputs {
			if in.Address == "" || in.Amount < 0 {
				return &DataIntegrityError{Height: b.Height, Hash: b.Hash, Reason: fmt.Sprintf("tx %s has malformed input", tx.ID)}
			}
		}
		for _, out := range tx.Outputs {
			if out.Address == "" || out.Amount < 0 {
				return &DataIntegrityError{Height: b.Height, Hash: b.Hash, Reason: fmt.Sprintf("tx %s has malformed output", tx.ID)}
			}
		}
	}
	return nil
}
