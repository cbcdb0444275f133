package metrics

import (
	"database/sql"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "listingboard_api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "route", "status"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "listingboard_api_request_duration_seconds",
			Help:    "API request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "listingboard_db_query_duration_seconds",
			Help:    "Database query latency in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		},
		[]string{"operation"},
	)

	DBQueryErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "listingboard_db_query_errors_total",
			Help: "Total number of failed database queries",
		},
		[]string{"operation"},
	)

	DBOpenConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "listingboard_db_open_connections",
			Help: "Open connections in the database pool",
		},
	)

	DBInUseConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "listingboard_db_in_use_connections",
			Help: "Connections currently checked out of the pool",
		},
	)

	StorageOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "listingboard_storage_operations_total",
			Help: "Object storage calls by operation and result",
		},
		[]string{"operation", "result"},
	)

	AuthFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "listingboard_auth_failures_total",
			Help: "Rejected logins and tokens by reason",
		},
		[]string{"reason"},
	)
)

func RecordAPIRequest(method, route, status string, d time.Duration) {
	APIRequestsTotal.WithLabelValues(method, route, status).Inc()
	APIRequestDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

func RecordDBQuery(operation string, d time.Duration, err error) {
	DBQueryDuration.WithLabelValues(operation).Observe(d.Seconds())
	if err != nil {
		DBQueryErrors.WithLabelValues(operation).Inc()
	}
}

func RecordPoolStats(stats sql.DBStats) {
	DBOpenConnections.Set(float64(stats.OpenConnections))
	DBInUseConnections.Set(float64(stats.InUse))
}

func RecordStorage(operation string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	StorageOperations.WithLabelValues(operation, result).Inc()
}

func RecordAuthFailure(reason string) {
	AuthFailures.WithLabelValues(reason).Inc()
}
