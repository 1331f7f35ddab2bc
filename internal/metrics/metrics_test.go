package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestFollowerObservers(t *testing.T) {
	m := NewFollower("testnet")

	before := testutil.ToFloat64(followerAdvanceTotal.WithLabelValues("testnet", "success"))
	m.ObserveAdvance(nil, time.Now())
	require.Equal(t, before+1,
		testutil.ToFloat64(followerAdvanceTotal.WithLabelValues("testnet", "success")))

	before = testutil.ToFloat64(followerApplyBlockTotal.WithLabelValues("testnet", "error"))
	m.ObserveApplyBlock(errors.New("boom"), 7, time.Now())
	require.Equal(t, before+1,
		testutil.ToFloat64(followerApplyBlockTotal.WithLabelValues("testnet", "error")))

	before = testutil.ToFloat64(followerRevertBlockTotal.WithLabelValues("testnet", "success"))
	m.ObserveRevertBlock(nil, 7, time.Now())
	require.Equal(t, before+1,
		testutil.ToFloat64(followerRevertBlockTotal.WithLabelValues("testnet", "success")))

	m.SetSyncHeight(42)
	require.Equal(t, float64(42),
		testutil.ToFloat64(followerSyncHeight.WithLabelValues("testnet")))
}

func TestStorageObserve(t *testing.T) {
	m := NewStorage("leveldb")

	before := testutil.ToFloat64(storageOperationTotal.WithLabelValues("leveldb", "commit", "success"))
	m.Observe("commit", nil, time.Now())
	require.Equal(t, before+1,
		testutil.ToFloat64(storageOperationTotal.WithLabelValues("leveldb", "commit", "success")))

	before = testutil.ToFloat64(storageOperationTotal.WithLabelValues("leveldb", "read_cursor", "error"))
	m.Observe("read_cursor", errors.New("boom"), time.Now())
	require.Equal(t, before+1,
		testutil.ToFloat64(storageOperationTotal.WithLabelValues("leveldb", "read_cursor", "error")))
}

func TestRPCClientObserve(t *testing.T) {
	m := NewRPCClient("mainnet")

	before := testutil.ToFloat64(rpcClientCallTotal.WithLabelValues("mainnet", "chain_bestBlock", "success"))
	m.Observe("chain_bestBlock", nil, time.Now())
	require.Equal(t, before+1,
		testutil.ToFloat64(rpcClientCallTotal.WithLabelValues("mainnet", "chain_bestBlock", "success")))
}

func TestDefaultLabels(t *testing.T) {
	require.NotPanics(t, func() {
		NewFollower("").ObserveAdvance(nil, time.Now())
		NewStorage("").Observe("commit", nil, time.Now())
		NewRPCClient("").Observe("chain_bestBlock", nil, time.Now())
		NewHTTP().ObserveRequest("/v1/chain/tip", "200", time.Now())
	})
}
