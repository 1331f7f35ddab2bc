package model

import "github.com/btcsuite/btcd/chaincfg/chainhash"

// SyncCursor marks the last block fully applied to the index. The zero
// value means the index is empty and not even the genesis block has been
// applied yet.
type SyncCursor struct {
	Height uint64
	Hash   chainhash.Hash
}

// IsZero reports whether the cursor marks an empty index.
func (c SyncCursor) IsZero() bool {
	return c.Height == 0 && c.Hash == (chainhash.Hash{})
}

// Equal reports whether two cursors point at the same block.
func (c SyncCursor) Equal(other SyncCursor) bool {
	return c.Height == other.Height && c.Hash == other.Hash
}

// ChainTip is the node's current best block pointer. It has the same shape
// as a SyncCursor but names the node's view rather than the index's.
type ChainTip = SyncCursor
