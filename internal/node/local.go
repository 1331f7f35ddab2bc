package node

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/btcsuite/btcd/chaincfg/chainhash"

	"github.com/chainscanhq/chainscan-backend/internal/model"
)

// Local is an in-process chain backend implementing the same capability
// surface as the RPC client. It backs tests and single-binary development
// setups, and its mutation helpers simulate chain growth and reorgs.
type Local struct {
	mu     sync.RWMutex
	blocks []*model.Block
}

// NewLocal creates a chain holding only a deterministic genesis block.
func NewLocal(network model.Network) *Local {
	genesis := &model.Block{
		Height:    0,
		Hash:      hashOf(fmt.Sprintf("genesis|%s", network)),
		Timestamp: time.Unix(0, 0).UTC(),
	}
	return &Local{blocks: []*model.Block{genesis}}
}

// BestBlock returns the simulated chain tip.
func (l *Local) BestBlock(context.Context) (model.ChainTip, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	tip := l.blocks[len(l.blocks)-1]
	return model.ChainTip{Height: tip.Height, Hash: tip.Hash}, nil
}

// BlockAtHeight returns the block at the given height or ErrNotFound beyond
// the tip.
func (l *Local) BlockAtHeight(_ context.Context, height uint64) (*model.Block, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if height >= uint64(len(l.blocks)) {
		return nil, ErrNotFound
	}
	b := *l.blocks[height]
	b.Txs = append([]model.Transaction(nil), b.Txs...)
	return &b, nil
}

// Genesis returns the chain's genesis block.
func (l *Local) Genesis() *model.Block {
	l.mu.RLock()
	defer l.mu.RUnlock()
	b := *l.blocks[0]
	return &b
}

// Append mines one block on top of the current tip and returns it. The salt
// distinguishes otherwise identical competing blocks.
func (l *Local) Append(salt string, txs ...model.Transaction) *model.Block {
	l.mu.Lock()
	defer l.mu.Unlock()

	parent := l.blocks[len(l.blocks)-1]
	height := parent.Height + 1
	b := &model.Block{
		Height:     height,
		Hash:       hashOf(fmt.Sprintf("block|%d|%s|%s", height, parent.Hash, salt)),
		ParentHash: parent.Hash,
		Timestamp:  time.Unix(int64(1700000000+height*10), 0).UTC(),
	}
	for i := range txs {
		txs[i].BlockHeight = height
		txs[i].BlockHash = b.Hash
	}
	b.Txs = txs
	l.blocks = append(l.blocks, b)
	return b
}

// Truncate discards every block above the given height, simulating the
// first half of a reorg. Appending afterwards grows the replacement branch.
func (l *Local) Truncate(height uint64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if height+1 < uint64(len(l.blocks)) {
		l.blocks = l.blocks[:height+1]
	}
}

// Transfer builds a single-input single-output transaction with a
// deterministic id derived from the label.
func Transfer(label, from, to string, amount int64) model.Transaction {
	return model.Transaction{
		ID:      hashOf("tx|" + label),
		Inputs:  []model.TxInput{{Address: from, Amount: amount}},
		Outputs: []model.TxOutput{{Address: to, Amount: amount}},
	}
}

func hashOf(seed string) chainhash.Hash {
	return chainhash.DoubleHashH([]byte(seed))
}
