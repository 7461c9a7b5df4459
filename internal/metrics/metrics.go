// Package metrics exposes the service's prometheus collectors.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "splitledger"

var (
	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2},
		},
		[]string{"method", "route", "status"},
	)

	expensesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ledger",
			Name:      "expenses_total",
		},
		[]string{"operation", "shared"},
	)

	friendRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "friends",
			Name:      "requests_total",
		},
		[]string{"transition"},
	)

	statsCacheTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "stats",
			Name:      "cache_lookups_total",
		},
		[]string{"result"},
	)
)

func ObserveHTTPRequest(method, route string, status int, elapsed time.Duration) {
	httpRequestDuration.
		WithLabelValues(method, route, strconv.Itoa(status)).
		Observe(elapsed.Seconds())
}

// RecordExpense counts expense mutations. operation is "create" or "delete".
func RecordExpense(operation string, shared bool) {
	expensesTotal.WithLabelValues(operation, strconv.FormatBool(shared)).Inc()
}

// RecordFriendRequest counts friend request transitions: sent, accepted,
// rejected or canceled.
func RecordFriendRequest(transition string) {
	friendRequestsTotal.WithLabelValues(transition).Inc()
}

func RecordStatsCache(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	statsCacheTotal.WithLabelValues(result).Inc()
}

// Handler serves the default registry in the prometheus text format.
func Handler() http.Handler {
	return promhttp.Handler()
}
