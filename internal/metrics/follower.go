// Package metrics holds the Prometheus observers used across services.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/chainscanhq/chainscan-backend/internal/model"
)

var (
	followerAdvanceTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "chainscan",
		Subsystem: "follower",
		Name:      "advance_total",
		Help:      "Count of reconciliation steps against the node's best block.",
	}, []string{"network", "status"})

	followerAdvanceDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "chainscan",
		Subsystem: "follower",
		Name:      "advance_duration_seconds",
		Help:      "Duration of a reconciliation step.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"network", "status"})

	followerApplyBlockTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "chainscan",
		Subsystem: "follower",
		Name:      "apply_block_total",
		Help:      "Count of blocks applied to the index.",
	}, []string{"network", "status"})

	followerApplyBlockDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "chainscan",
		Subsystem: "follower",
		Name:      "apply_block_duration_seconds",
		Help:      "Duration of applying one block.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"network", "status"})

	followerRevertBlockTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "chainscan",
		Subsystem: "follower",
		Name:      "revert_block_total",
		Help:      "Count of blocks rolled back during reorgs.",
	}, []string{"network", "status"})

	followerRevertBlockDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "chainscan",
		Subsystem: "follower",
		Name:      "revert_block_duration_seconds",
		Help:      "Duration of rolling back one block.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"network", "status"})

	followerReorgDepth = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "chainscan",
		Subsystem: "follower",
		Name:      "reorg_depth",
		Help:      "Number of blocks unwound per reorg.",
		Buckets:   prometheus.ExponentialBuckets(1, 2, 10),
	}, []string{"network"})

	followerSyncHeight = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "chainscan",
		Subsystem: "follower",
		Name:      "sync_height",
		Help:      "Height of the last block fully applied to the index.",
	}, []string{"network"})
)

// Follower tracks metrics for the chain follower loop.
type Follower struct {
	network model.Network
}

// NewFollower constructs a Follower observer.
func NewFollower(network model.Network) *Follower {
	if network == "" {
		network = "unknown"
	}
	return &Follower{network: network}
}

// ObserveAdvance records one reconciliation step.
func (m Follower) ObserveAdvance(err error, started time.Time) {
	s := status(err)
	followerAdvanceTotal.WithLabelValues(string(m.network), s).Inc()
	followerAdvanceDuration.WithLabelValues(string(m.network), s).
		Observe(time.Since(started).Seconds())
}

// ObserveApplyBlock records the application of one block.
func (m Follower) ObserveApplyBlock(err error, _ uint64, started time.Time) {
	s := status(err)
	followerApplyBlockTotal.WithLabelValues(string(m.network), s).Inc()
	followerApplyBlockDuration.WithLabelValues(string(m.network), s).
		Observe(time.Since(started).Seconds())
}

// ObserveRevertBlock records the rollback of one block.
func (m Follower) ObserveRevertBlock(err error, _ uint64, started time.Time) {
	followerRevertBlockTotal.WithLabelValues(string(m.network), status(err)).Inc()
	followerRevertBlockDuration.WithLabelValues(string(m.network), status(err)).
		Observe(time.Since(started).Seconds())
}

// ObserveReorg records the depth of a completed rollback.
func (m Follower) ObserveReorg(depth uint64) {
	followerReorgDepth.WithLabelValues(string(m.network)).Observe(float64(depth))
}

// SetSyncHeight publishes the committed sync height.
func (m Follower) SetSyncHeight(height uint64) {
	followerSyncHeight.WithLabelValues(string(m.network)).Set(float64(height))
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}
