package model

import (
	"time"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

// Block represents one block of the canonical chain together with its
// transactions. Blocks are stored whole so that a later rollback can be
// computed from the index alone, without asking the node again.
type Block struct {
	Height     uint64
	Hash       chainhash.Hash
	ParentHash chainhash.Hash
	Timestamp  time.Time
	Txs        []Transaction
}

// TxIDs returns the ids of the block's transactions in block order.
func (b *Block) TxIDs() []chainhash.Hash {
	ids := make([]chainhash.Hash, len(b.Txs))
	for i := range b.Txs {
		ids[i] = b.Txs[i].ID
	}
	return ids
}
