// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Scheduler metrics
	SchedulerFires  *prometheus.CounterVec
	SchedulerSkips  *prometheus.CounterVec
	CallbackErrors  *prometheus.CounterVec
	CallbackLatency *prometheus.HistogramVec

	// Fetch metrics
	FetchErrors   *prometheus.CounterVec
	FetchLatency  *prometheus.HistogramVec
	CandlesServed prometheus.Counter

	// Reconciler metrics
	BatchesDelivered prometheus.Counter
	BatchesTimedOut  prometheus.Counter
	PlaceholdersUsed prometheus.Counter

	// Execution metrics
	OrdersPlaced    prometheus.Counter
	OrdersFilled    prometheus.Counter
	OrdersRejected  *prometheus.CounterVec
	OrdersCancelled prometheus.Counter
	AccountEquity   prometheus.Gauge

	// Database metrics
	DBQueryDuration *prometheus.HistogramVec
	DBQueryErrors   *prometheus.CounterVec

	// Health metrics
	LastBatchDelivered prometheus.Gauge
	LastCheckpointSave prometheus.Gauge
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "algotrade"
	}

	return &Metrics{
		// Scheduler metrics
		SchedulerFires: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scheduler",
			Name:      "fires_total",
			Help:      "Total number of timer fires by interval",
		}, []string{"interval"}),
		SchedulerSkips: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scheduler",
			Name:      "skips_total",
			Help:      "Total number of duplicate boundaries skipped by interval",
		}, []string{"interval"}),
		CallbackErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scheduler",
			Name:      "callback_errors_total",
			Help:      "Total number of fetch callback panics by interval",
		}, []string{"interval"}),
		CallbackLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "scheduler",
			Name:      "callback_latency_seconds",
			Help:      "Fetch callback duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"interval"}),

		// Fetch metrics
		FetchErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "source",
			Name:      "fetch_errors_total",
			Help:      "Total number of upstream fetch errors by kind",
		}, []string{"kind"}),
		FetchLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "source",
			Name:      "fetch_latency_seconds",
			Help:      "Upstream fetch latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
		CandlesServed: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "source",
			Name:      "candles_served_total",
			Help:      "Total number of candles returned by history fetches",
		}),

		// Reconciler metrics
		BatchesDelivered: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "reconcile",
			Name:      "batches_delivered_total",
			Help:      "Total number of consolidated batches delivered",
		}),
		BatchesTimedOut: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "reconcile",
			Name:      "batches_timed_out_total",
			Help:      "Total number of batches flushed by timeout",
		}),
		PlaceholdersUsed: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "reconcile",
			Name:      "placeholders_used_total",
			Help:      "Total number of placeholder candles padded into batches",
		}),

		// Execution metrics
		OrdersPlaced: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "paper",
			Name:      "orders_placed_total",
			Help:      "Total number of orders placed",
		}),
		OrdersFilled: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "paper",
			Name:      "orders_filled_total",
			Help:      "Total number of orders filled",
		}),
		OrdersRejected: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "paper",
			Name:      "orders_rejected_total",
			Help:      "Total number of order rejections by reason",
		}, []string{"reason"}),
		OrdersCancelled: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "paper",
			Name:      "orders_cancelled_total",
			Help:      "Total number of orders cancelled",
		}),
		AccountEquity: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "paper",
			Name:      "account_equity",
			Help:      "Current simulated account equity",
		}),

		// Database metrics
		DBQueryDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_duration_seconds",
			Help:      "Database query duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"database", "operation"}),
		DBQueryErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_errors_total",
			Help:      "Total number of database query errors",
		}, []string{"database", "operation"}),

		// Health metrics
		LastBatchDelivered: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "last_batch_delivered_timestamp",
			Help:      "Unix timestamp of the last delivered batch",
		}),
		LastCheckpointSave: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "last_checkpoint_save_timestamp",
			Help:      "Unix timestamp of the last successful checkpoint save",
		}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// All methods below tolerate a nil receiver so components can run with
// metrics disabled.

// RecordFire increments the scheduler fire counter for an interval.
func (m *Metrics) RecordFire(interval string) {
	if m == nil {
		return
	}
	m.SchedulerFires.WithLabelValues(interval).Inc()
}

// RecordSkip increments the duplicate-boundary skip counter for an interval.
func (m *Metrics) RecordSkip(interval string) {
	if m == nil {
		return
	}
	m.SchedulerSkips.WithLabelValues(interval).Inc()
}

// RecordCallbackError increments the callback panic counter for an interval.
func (m *Metrics) RecordCallbackError(interval string) {
	if m == nil {
		return
	}
	m.CallbackErrors.WithLabelValues(interval).Inc()
}

// ObserveCallback records a fetch callback duration.
func (m *Metrics) ObserveCallback(interval string, seconds float64) {
	if m == nil {
		return
	}
	m.CallbackLatency.WithLabelValues(interval).Observe(seconds)
}

// RecordFetchError increments the fetch error counter for an error kind.
func (m *Metrics) RecordFetchError(kind string) {
	if m == nil {
		return
	}
	m.FetchErrors.WithLabelValues(kind).Inc()
}

// RecordBatch records a delivered batch, noting whether it was flushed by
// timeout and how many placeholders it carries.
func (m *Metrics) RecordBatch(timedOut bool, placeholders int, at int64) {
	if m == nil {
		return
	}
	m.BatchesDelivered.Inc()
	if timedOut {
		m.BatchesTimedOut.Inc()
	}
	m.PlaceholdersUsed.Add(float64(placeholders))
	m.LastBatchDelivered.Set(float64(at))
}

// ObserveFetch records an upstream fetch duration.
func (m *Metrics) ObserveFetch(operation string, seconds float64) {
	if m == nil {
		return
	}
	m.FetchLatency.WithLabelValues(operation).Observe(seconds)
}

// RecordCandlesServed adds to the served-candle counter.
func (m *Metrics) RecordCandlesServed(n int) {
	if m == nil {
		return
	}
	m.CandlesServed.Add(float64(n))
}

// RecordOrderPlaced increments the orders placed counter.
func (m *Metrics) RecordOrderPlaced() {
	if m == nil {
		return
	}
	m.OrdersPlaced.Inc()
}

// RecordOrderFilled increments the orders filled counter and refreshes the
// equity gauge.
func (m *Metrics) RecordOrderFilled(equity float64) {
	if m == nil {
		return
	}
	m.OrdersFilled.Inc()
	m.AccountEquity.Set(equity)
}

// RecordOrderCancelled increments the orders cancelled counter.
func (m *Metrics) RecordOrderCancelled() {
	if m == nil {
		return
	}
	m.OrdersCancelled.Inc()
}

// RecordOrderRejected increments the order rejection counter for a reason.
func (m *Metrics) RecordOrderRejected(reason string) {
	if m == nil {
		return
	}
	m.OrdersRejected.WithLabelValues(reason).Inc()
}

// RecordDBQuery records database query metrics.
func (m *Metrics) RecordDBQuery(database, operation string, seconds float64, err error) {
	if m == nil {
		return
	}
	m.DBQueryDuration.WithLabelValues(database, operation).Observe(seconds)
	if err != nil {
		m.DBQueryErrors.WithLabelValues(database, operation).Inc()
	}
}
