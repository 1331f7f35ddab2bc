package indexer

import (
	"testing"
	"time"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/stretchr/testify/require"

	"github.com/chainscanhq/chainscan-backend/internal/model"
)

func testBlock() *model.Block {
	return &model.Block{
		Height:     3,
		Hash:       chainhash.Hash{3},
		ParentHash: chainhash.Hash{2},
		Timestamp:  time.Unix(1700000000, 0).UTC(),
		Txs: []model.Transaction{
			{
				ID:      chainhash.Hash{0xa1},
				Inputs:  []model.TxInput{{Address: "alice", Amount: 10}},
				Outputs: []model.TxOutput{{Address: "bob", Amount: 7}, {Address: "alice", Amount: 3}},
			},
			{
				ID:      chainhash.Hash{0xa2},
				Inputs:  []model.TxInput{{Address: "bob", Amount: 2}},
				Outputs: []model.TxOutput{{Address: "carol", Amount: 2}},
			},
		},
	}
}

func TestApply(t *testing.T) {
	b := testBlock()

	ms, err := Apply(b)
	require.NoError(t, err)

	require.Equal(t, model.SyncCursor{Height: 2, Hash: chainhash.Hash{2}}, ms.Prev)
	require.Equal(t, model.SyncCursor{Height: 3, Hash: chainhash.Hash{3}}, ms.Next)
	require.Same(t, b, ms.PutBlock)
	require.Nil(t, ms.DeleteBlock)

	require.Len(t, ms.PutTxs, 2)
	for _, tx := range ms.PutTxs {
		require.Equal(t, uint64(3), tx.BlockHeight)
		require.Equal(t, chainhash.Hash{3}, tx.BlockHash)
	}

	require.Equal(t, []AddressTxRef{
		{Address: "alice", TxID: chainhash.Hash{0xa1}},
		{Address: "bob", TxID: chainhash.Hash{0xa1}},
		{Address: "bob", TxID: chainhash.Hash{0xa2}},
		{Address: "carol", TxID: chainhash.Hash{0xa2}},
	}, ms.PutAddressTxs)

	require.Equal(t, []AddressDelta{
		{Address: "alice", Balance: -7, TxCount: 1},
		{Address: "bob", Balance: 5, TxCount: 2},
		{Address: "carol", Balance: 2, TxCount: 1},
	}, ms.Deltas)
}

func TestApplyGenesis(t *testing.T) {
	ms, err := Apply(&model.Block{Height: 0, Hash: chainhash.Hash{1}})
	require.NoError(t, err)
	require.True(t, ms.Prev.IsZero())
	require.Equal(t, model.SyncCursor{Height: 0, Hash: chainhash.Hash{1}}, ms.Next)
}

func TestRevertMirrorsApply(t *testing.T) {
	b := testBlock()

	applied, err := Apply(b)
	require.NoError(t, err)
	reverted, err := Revert(b)
	require.NoError(t, err)

	require.Equal(t, applied.Next, reverted.Prev)
	require.Equal(t, applied.Prev, reverted.Next)
	require.Equal(t, b.TxIDs(), reverted.DeleteTxIDs)
	require.ElementsMatch(t, applied.PutAddressTxs, reverted.DeleteAddressTxs)

	require.Len(t, reverted.Deltas, len(applied.Deltas))
	for i, d := range reverted.Deltas {
		require.Equal(t, applied.Deltas[i].Address, d.Address)
		require.Equal(t, -applied.Deltas[i].Balance, d.Balance)
		require.Equal(t, -applied.Deltas[i].TxCount, d.TxCount)
	}
}

func TestRevertGenesisFails(t *testing.T) {
	_, err := Revert(&model.Block{Height: 0, Hash: chainhash.Hash{1}})

	var integrity *DataIntegrityError
	require.ErrorAs(t, err, &integrity)
}

func TestValidate(t *testing.T) {
	testCases := []struct {
		name    string
		mutate  func(b *model.Block)
		wantErr string
	}{
		{
			name:   "valid block",
			mutate: func(*model.Block) {},
		},
		{
			name:    "zero hash",
			mutate:  func(b *model.Block) { b.Hash = chainhash.Hash{} },
			wantErr: "zero block hash",
		},
		{
			name: "genesis with parent",
			mutate: func(b *model.Block) {
				b.Height = 0
				b.ParentHash = chainhash.Hash{9}
			},
			wantErr: "genesis declares a parent",
		},
		{
			name:    "missing parent hash",
			mutate:  func(b *model.Block) { b.ParentHash = chainhash.Hash{} },
			wantErr: "missing parent hash",
		},
		{
			name:    "zero tx id",
			mutate:  func(b *model.Block) { b.Txs[1].ID = chainhash.Hash{} },
			wantErr: "zero id",
		},
		{
			name:    "duplicate tx id",
			mutate:  func(b *model.Block) { b.Txs[1].ID = b.Txs[0].ID },
			wantErr: "duplicate tx",
		},
		{
			name:    "negative input amount",
			mutate:  func(b *model.Block) { b.Txs[0].Inputs[0].Amount = -1 },
			wantErr: "malformed input",
		},
		{
			name:    "empty output address",
			mutate:  func(b *model.Block) { b.Txs[0].Outputs[0].Address = "" },
			wantErr: "malformed output",
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			b := testBlock()
			tc.mutate(b)

			_, err := Apply(b)
			if tc.wantErr == "" {
				require.NoError(t, err)
				return
			}
			var integrity *DataIntegrityError
			require.ErrorAs(t, err, &integrity)
			require.Contains(t, integrity.Error(), tc.wantErr)
		})
	}
}

func TestApplyNilBlock(t *testing.T) {
	_, err := Apply(nil)

	var integrity *DataIntegrityError
	require.ErrorAs(t, err, &integrity)
}
