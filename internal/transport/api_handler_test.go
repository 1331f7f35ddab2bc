package transport

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/chainscanhq/chainscan-backend/internal/indexer"
	"github.com/chainscanhq/chainscan-backend/internal/metrics"
	"github.com/chainscanhq/chainscan-backend/internal/node"
	"github.com/chainscanhq/chainscan-backend/internal/query"
	"github.com/chainscanhq/chainscan-backend/internal/storage/memory"
)

func newTestHandler(t *testing.T) (*APIHandler, *node.Local) {
	t.Helper()

	chain := node.NewLocal("testnet")
	chain.Append("b1", node.Transfer("t1", "alice", "bob", 10))
	chain.Append("b2", node.Transfer("t2", "bob", "carol", 4))

	store := memory.New()
	ctx := context.Background()
	for h := uint64(0); ; h++ {
		b, err := chain.BlockAtHeight(ctx, h)
		if err != nil {
			break
		}
		ms, err := indexer.Apply(b)
		require.NoError(t, err)
		require.NoError(t, store.Commit(ctx, ms))
	}

	svc, err := query.NewService(zap.NewNop(), store)
	require.NoError(t, err)

	h, err := NewAPIHandler(zap.NewNop(), svc, metrics.NewHTTP())
	require.NoError(t, err)
	return h, chain
}

func doGet(t *testing.T, h http.Handler, path string, out any) int {
	t.Helper()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	if out != nil && rec.Code == http.StatusOK {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), out))
	}
	return rec.Code
}

func TestChainTip(t *testing.T) {
	h, chain := newTestHandler(t)

	var tip tipResponse
	require.Equal(t, http.StatusOK, doGet(t, h, "/v1/chain/tip", &tip))

	best, err := chain.BestBlock(context.Background())
	require.NoError(t, err)
	require.Equal(t, best.Height, tip.Height)
	require.Equal(t, best.Hash.String(), tip.Hash)
}

func TestBlockByHeightAndHash(t *testing.T) {
	h, chain := newTestHandler(t)

	want, err := chain.BlockAtHeight(context.Background(), 1)
	require.NoError(t, err)

	var byHeight blockResponse
	require.Equal(t, http.StatusOK, doGet(t, h, "/v1/blocks/1", &byHeight))
	require.Equal(t, want.Hash.String(), byHeight.Hash)
	require.Len(t, byHeight.TxIDs, 1)

	var byHash blockResponse
	require.Equal(t, http.StatusOK, doGet(t, h, "/v1/blocks/"+want.Hash.String(), &byHash))
	require.Equal(t, uint64(1), byHash.Height)

	require.Equal(t, http.StatusNotFound, doGet(t, h, "/v1/blocks/99", nil))
	require.Equal(t, http.StatusNotFound, doGet(t, h, "/v1/blocks/nonsense", nil))
}

func TestTransactionLookup(t *testing.T) {
	h, chain := newTestHandler(t)

	b, err := chain.BlockAtHeight(context.Background(), 2)
	require.NoError(t, err)
	txID := b.Txs[0].ID

	var tx transactionResponse
	require.Equal(t, http.StatusOK, doGet(t, h, "/v1/transactions/"+txID.String(), &tx))
	require.Equal(t, b.Hash.String(), tx.BlockHash)
	require.Equal(t, "bob", tx.Inputs[0].Address)
	require.Equal(t, int64(4), tx.Outputs[0].Amount)

	require.Equal(t, http.StatusNotFound, doGet(t, h, "/v1/transactions/zzz", nil))
}

func TestAddressLookup(t *testing.T) {
	h, _ := newTestHandler(t)

	var addr addressResponse
	require.Equal(t, http.StatusOK, doGet(t, h, "/v1/addresses/bob", &addr))
	require.Equal(t, int64(6), addr.Balance)
	require.Equal(t, int64(2), addr.TxCount)
	require.Len(t, addr.TxIDs, 2)

	require.Equal(t, http.StatusNotFound, doGet(t, h, "/v1/addresses/nobody", nil))
}

func TestHealth(t *testing.T) {
	h, _ := newTestHandler(t)
	require.Equal(t, http.StatusOK, doGet(t, h, "/healthz", nil))
}
