package node

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/creachadair/jrpc2"
	"github.com/creachadair/jrpc2/handler"
	"github.com/creachadair/jrpc2/jhttp"
	"github.com/stretchr/testify/require"
)

func newRPCServer(t *testing.T, assigner handler.Map) *Client {
	t.Helper()

	bridge := jhttp.NewBridge(assigner, nil)
	srv := httptest.NewServer(bridge)
	t.Cleanup(func() {
		srv.Close()
		_ = bridge.Close()
	})

	c, err := NewClient(srv.URL, nil, ClientOptions{})
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = c.Close()
	})
	return c
}

func TestNewClientRequiresURL(t *testing.T) {
	_, err := NewClient("", nil, ClientOptions{})
	require.Error(t, err)
}

func TestBestBlock(t *testing.T) {
	wantHash := hashOf("best")

	c := newRPCServer(t, handler.Map{
		"chain_bestBlock": handler.New(func(context.Context) (tipResult, error) {
			return tipResult{Height: 12, Hash: wantHash.String()}, nil
		}),
	})

	tip, err := c.BestBlock(context.Background())
	require.NoError(t, err)
	require.Equal(t, uint64(12), tip.Height)
	require.Equal(t, wantHash, tip.Hash)
}

func TestBestBlockMalformedHash(t *testing.T) {
	c := newRPCServer(t, handler.Map{
		"chain_bestBlock": handler.New(func(context.Context) (tipResult, error) {
			return tipResult{Height: 12, Hash: "not-a-hash"}, nil
		}),
	})

	_, err := c.BestBlock(context.Background())
	require.Error(t, err)
}

func TestBlockAtHeight(t *testing.T) {
	blockHash := hashOf("block-3")
	parentHash := hashOf("block-2")
	txID := hashOf("tx-1")

	c := newRPCServer(t, handler.Map{
		"chain_blockAtHeight": handler.New(func(_ context.Context, heights []uint64) (blockResult, error) {
			require.Equal(t, []uint64{3}, heights)
			return blockResult{
				Height:     3,
				Hash:       blockHash.String(),
				ParentHash: parentHash.String(),
				Timestamp:  1700000000,
				Txs: []txResult{{
					ID:      txID.String(),
					Inputs:  []transferResult{{Address: "alice", Amount: 5}},
					Outputs: []transferResult{{Address: "bob", Amount: 5}},
				}},
			}, nil
		}),
	})

	b, err := c.BlockAtHeight(context.Background(), 3)
	require.NoError(t, err)
	require.Equal(t, uint64(3), b.Height)
	require.Equal(t, blockHash, b.Hash)
	require.Equal(t, parentHash, b.ParentHash)
	require.Equal(t, int64(1700000000), b.Timestamp.Unix())
	require.Len(t, b.Txs, 1)
	require.Equal(t, txID, b.Txs[0].ID)
	require.Equal(t, uint64(3), b.Txs[0].BlockHeight)
	require.Equal(t, blockHash, b.Txs[0].BlockHash)
	require.Equal(t, "alice", b.Txs[0].Inputs[0].Address)
}

func TestBlockAtHeightNotFound(t *testing.T) {
	c := newRPCServer(t, handler.Map{
		"chain_blockAtHeight": handler.New(func(context.Context, []uint64) (blockResult, error) {
			return blockResult{}, jrpc2.Errorf(codeBlockNotFound, "block not found")
		}),
	})

	_, err := c.BlockAtHeight(context.Background(), 99)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestBlockAtHeightOtherRPCErrors(t *testing.T) {
	c := newRPCServer(t, handler.Map{
		"chain_blockAtHeight": handler.New(func(context.Context, []uint64) (blockResult, error) {
			return blockResult{}, jrpc2.Errorf(-32000, "node still syncing")
		}),
	})

	_, err := c.BlockAtHeight(context.Background(), 1)
	require.Error(t, err)
	require.NotErrorIs(t, err, ErrNotFound)
}
