package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "chainscan",
		Subsystem: "http",
		Name:      "request_total",
		Help:      "Count of HTTP API requests by route and status code.",
	}, []string{"route", "code"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "chainscan",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "Duration of HTTP API requests.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"route", "code"})
)

// HTTP tracks metrics for the HTTP API.
type HTTP struct{}

// NewHTTP constructs an HTTP observer.
func NewHTTP() *HTTP {
	return &HTTP{}
}

// ObserveRequest records one served HTTP request.
func (HTTP) ObserveRequest(route, code string, started time.Time) {
	httpRequestTotal.WithLabelValues(route, code).Inc()
	httpRequestDuration.WithLabelValues(route, code).
		Observe(time.Since(started).Seconds())
}
