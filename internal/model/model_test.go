package model

import (
	"testing"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/stretchr/testify/require"
)

func TestSyncCursorIsZero(t *testing.T) {
	require.True(t, SyncCursor{}.IsZero())

	// Genesis at height 0 is not the empty index.
	require.False(t, SyncCursor{Height: 0, Hash: chainhash.Hash{1}}.IsZero())
	require.False(t, SyncCursor{Height: 3}.IsZero())
}

func TestTransactionAddresses(t *testing.T) {
	tx := Transaction{
		Inputs: []TxInput{
			{Address: "alice", Amount: 5},
			{Address: "bob", Amount: 1},
		},
		Outputs: []TxOutput{
			{Address: "bob", Amount: 4},
			{Address: "", Amount: 1},
			{Address: "carol", Amount: 1},
		},
	}
	require.Equal(t, []string{"alice", "bob", "carol"}, tx.Addresses())
}

func TestBlockTxIDs(t *testing.T) {
	b := Block{Txs: []Transaction{
		{ID: chainhash.Hash{1}},
		{ID: chainhash.Hash{2}},
	}}
	require.Equal(t, []chainhash.Hash{{1}, {2}}, b.TxIDs())
}

func TestAggregateIsZero(t *testing.T) {
	require.True(t, AddressAggregate{Address: "alice"}.IsZero())
	require.False(t, AddressAggregate{Address: "alice", Balance: -1}.IsZero())
	require.False(t, AddressAggregate{Address: "alice", TxCount: 2}.IsZero())
}
