package indexer

import (
	"github.com/btcsuite/btcd/chaincfg/chainhash"

	"github.com/chainscanhq/chainscan-backend/internal/model"
)

// AddressDelta adjusts one address aggregate. Balance and TxCount are signed
// adjustments applied on top of the currently stored aggregate; an aggregate
// that lands on all-zero is removed from storage.
type AddressDelta struct {
	Address string
	Balance int64
	TxCount int64
}

// AddressTxRef links an address to a transaction for the per-address
// transaction history.
type AddressTxRef struct {
	Address string
	TxID    chainhash.Hash
}

// MutationSet is the atomic group of storage writes that applies or reverts
// exactly one block. Prev is the cursor the writer expects to find in
// storage; Next is the cursor after the commit. Exactly one of PutBlock and
// DeleteBlock is set.
type MutationSet struct {
	Prev model.SyncCursor
	Next model.SyncCursor

	PutBlock    *model.Block
	DeleteBlock *model.Block

	PutTxs      []model.Transaction
	DeleteTxIDs []chainhash.Hash

	PutAddressTxs    []AddressTxRef
	DeleteAddressTxs []AddressTxRef

	Deltas []AddressDelta
}
