package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	storageOperationTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "chainscan",
		Subsystem: "storage",
		Name:      "operation_total",
		Help:      "Count of storage operations by backend and operation.",
	}, []string{"backend", "operation", "status"})

	storageOperationDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "chainscan",
		Subsystem: "storage",
		Name:      "operation_duration_seconds",
		Help:      "Duration of storage operations.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"backend", "operation", "status"})
)

// Storage tracks metrics for a storage backend.
type Storage struct {
	backend string
}

// NewStorage constructs a Storage observer for the named backend.
func NewStorage(backend string) *Storage {
	if backend == "" {
		backend = "unknown"
	}
	return &Storage{backend: backend}
}

// Observe records the outcome and duration of a storage operation.
func (m Storage) Observe(operation string, err error, started time.Time) {
	s := status(err)
	storageOperationTotal.WithLabelValues(m.backend, operation, s).Inc()
	storageOperationDuration.WithLabelValues(m.backend, operation, s).
		Observe(time.Since(started).Seconds())
}
