// Package metrics holds the Prometheus instruments for the API, the store
// and the live feed.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// API
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "biotime_api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "biotime_api_request_duration_seconds",
			Help:    "Duration of API requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	// Store
	StoreQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "biotime_store_query_duration_seconds",
			Help:    "Duration of store queries in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	StoreQueryErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "biotime_store_query_errors_total",
			Help: "Total number of failed store queries",
		},
		[]string{"operation"},
	)

	StoreRowsReturned = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "biotime_store_rows_returned",
			Help:    "Rows returned per store query",
			Buckets: []float64{0, 1, 10, 20, 50, 100, 200, 500, 1000, 2000},
		},
		[]string{"operation"},
	)

	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "biotime_circuit_breaker_state",
			Help: "Store circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	// Live feed
	LivePollsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "biotime_live_polls_total",
			Help: "Live feed polls by outcome",
		},
		[]string{"result"}, // "applied", "empty", "stale", "error"
	)

	LiveRowsDisplayed = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "biotime_live_rows_displayed",
			Help: "Rows currently held by the live feed",
		},
	)

	WebSocketConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "biotime_websocket_connections",
			Help: "Connected live feed websocket clients",
		},
	)
)

// RecordAPIRequest records an API request metric
func RecordAPIRequest(method, endpoint string, status int, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, strconv.Itoa(status)).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// RecordStoreQuery records one store round trip. rows is ignored on error.
func RecordStoreQuery(operation string, duration time.Duration, rows int, err error) {
	StoreQueryDuration.WithLabelValues(operation).Observe(duration.Seconds())
	if err != nil {
		StoreQueryErrors.WithLabelValues(operation).Inc()
		return
	}
	if rows >= 0 {
		StoreRowsReturned.WithLabelValues(operation).Observe(float64(rows))
	}
}

func RecordLivePoll(result string) {
	LivePollsTotal.WithLabelValues(result).Inc()
}
