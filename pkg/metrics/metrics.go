package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds Prometheus metrics for the service
type Metrics struct {
	RequestCounter       *prometheus.CounterVec
	RequestDuration      *prometheus.HistogramVec
	RequestsInFlight     *prometheus.GaugeVec
	TransactionCounter   *prometheus.CounterVec
	FraudEvaluations     *prometheus.CounterVec
	ProviderRetryCounter prometheus.Counter
	DBConnPoolStats      *prometheus.GaugeVec
}

// NewMetrics creates a new metrics instance
func NewMetrics(serviceName string) *Metrics {
	return &Metrics{
		RequestCounter: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "routelink",
				Subsystem: serviceName,
				Name:      "requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		RequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "routelink",
				Subsystem: serviceName,
				Name:      "request_duration_seconds",
				Help:      "Request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		RequestsInFlight: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "routelink",
				Subsystem: serviceName,
				Name:      "requests_in_flight",
				Help:      "Number of requests currently being processed",
			},
			[]string{"method"},
		),
		TransactionCounter: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "routelink",
				Subsystem: serviceName,
				Name:      "transactions_total",
				Help:      "Total number of transactions by type and terminal status",
			},
			[]string{"type", "status"},
		),
		FraudEvaluations: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "routelink",
				Subsystem: serviceName,
				Name:      "fraud_evaluations_total",
				Help:      "Total number of fraud evaluations by outcome",
			},
			[]string{"outcome"},
		),
		ProviderRetryCounter: promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: "routelink",
				Subsystem: serviceName,
				Name:      "provider_retries_total",
				Help:      "Total number of retried provider calls",
			},
		),
		DBConnPoolStats: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "routelink",
				Subsystem: serviceName,
				Name:      "db_connection_pool",
				Help:      "Database connection pool statistics",
			},
			[]string{"stat"}, // stat can be: open, in_use, idle, wait_count, etc.
		),
	}
}

// TransactionFinished records a transaction reaching a terminal status.
// Implements the service Observer capability.
func (m *Metrics) TransactionFinished(transactionType, status string) {
	m.TransactionCounter.WithLabelValues(transactionType, status).Inc()
}

// FraudEvaluated records one fraud evaluation outcome.
func (m *Metrics) FraudEvaluated(fraudulent bool) {
	outcome := "clear"
	if fraudulent {
		outcome = "fraudulent"
	}
	m.FraudEvaluations.WithLabelValues(outcome).Inc()
}

// ProviderRetry records a retried provider call.
func (m *Metrics) ProviderRetry() {
	m.ProviderRetryCounter.Inc()
}

// RecordDBPoolStats records database connection pool statistics
func (m *Metrics) RecordDBPoolStats(open, inUse, idle int, waitCount int64, waitDuration time.Duration) {
	m.DBConnPoolStats.WithLabelValues("open").Set(float64(open))
	m.DBConnPoolStats.WithLabelValues("in_use").Set(float64(inUse))
	m.DBConnPoolStats.WithLabelValues("idle").Set(float64(idle))
	m.DBConnPoolStats.WithLabelValues("wait_count").Set(float64(waitCount))
	m.DBConnPoolStats.WithLabelValues("wait_duration_ms").Set(float64(waitDuration.Milliseconds()))
}
