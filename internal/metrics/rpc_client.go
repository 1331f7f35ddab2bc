package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/chainscanhq/chainscan-backend/internal/model"
)

var (
	rpcClientCallTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "chainscan",
		Subsystem: "rpc_client",
		Name:      "call_total",
		Help:      "Count of JSON-RPC calls to the node.",
	}, []string{"network", "method", "status"})

	rpcClientCallDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "chainscan",
		Subsystem: "rpc_client",
		Name:      "call_duration_seconds",
		Help:      "Duration of JSON-RPC calls to the node.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"network", "method", "status"})
)

// RPCClient tracks metrics for the node JSON-RPC client.
type RPCClient struct {
	network model.Network
}

// NewRPCClient constructs an RPCClient observer.
func NewRPCClient(network model.Network) *RPCClient {
	if network == "" {
		network = "unknown"
	}
	return &RPCClient{network: network}
}

// Observe records the outcome and duration of one JSON-RPC call.
func (m RPCClient) Observe(method string, err error, started time.Time) {
	s := status(err)
	rpcClientCallTotal.WithLabelValues(string(m.network), method, s).Inc()
	rpcClientCallDuration.WithLabelValues(string(m.network), method, s).
		Observe(time.Since(started).Seconds())
}
