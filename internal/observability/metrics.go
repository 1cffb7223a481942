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
	// Queue metrics
	JobsProcessed *prometheus.CounterVec
	JobDuration   *prometheus.HistogramVec
	JobRetries    *prometheus.CounterVec

	// Beat metrics
	BeatFires    *prometheus.CounterVec
	BeatEnqueues *prometheus.CounterVec

	// Ingestion metrics
	SignaturesExamined    prometheus.Counter
	TransfersPersisted    prometheus.Counter
	DuplicateSignatures   prometheus.Counter
	WalletChecksScheduled prometheus.Counter

	// Pricing metrics
	CurrentUSDRate   prometheus.Gauge
	PriceFetchErrors *prometheus.CounterVec
	LastPriceRefresh prometheus.Gauge
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "escrow_monitor"
	}

	return &Metrics{
		JobsProcessed: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "queue",
			Name:      "jobs_processed_total",
			Help:      "Total number of jobs processed, by type and outcome",
		}, []string{"type", "outcome"}),
		JobDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "queue",
			Name:      "job_duration_seconds",
			Help:      "Job handler duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"type"}),
		JobRetries: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "queue",
			Name:      "job_retries_total",
			Help:      "Total number of job retries scheduled, by type",
		}, []string{"type"}),
		BeatFires: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "beat",
			Name:      "fires_total",
			Help:      "Total number of schedule entry fires, by entry",
		}, []string{"entry"}),
		BeatEnqueues: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "beat",
			Name:      "enqueue_errors_total",
			Help:      "Total number of failed beat enqueues, by entry",
		}, []string{"entry"}),
		SignaturesExamined: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingestion",
			Name:      "signatures_examined_total",
			Help:      "Total number of signatures examined by wallet checks",
		}),
		TransfersPersisted: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingestion",
			Name:      "transfers_persisted_total",
			Help:      "Total number of inbound transfers persisted",
		}),
		DuplicateSignatures: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingestion",
			Name:      "duplicate_signatures_total",
			Help:      "Total number of signatures skipped as already persisted",
		}),
		WalletChecksScheduled: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingestion",
			Name:      "wallet_checks_scheduled_total",
			Help:      "Total number of wallet checks enqueued by fan-outs",
		}),
		CurrentUSDRate: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "pricing",
			Name:      "usd_rate",
			Help:      "Current USD-per-SOL rate in effect",
		}),
		PriceFetchErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pricing",
			Name:      "fetch_errors_total",
			Help:      "Total number of failed price fetches, by provider",
		}, []string{"provider"}),
		LastPriceRefresh: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "pricing",
			Name:      "last_refresh_timestamp_seconds",
			Help:      "Unix time of the last successful price refresh",
		}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("")

// RecordJob records one job invocation.
func RecordJob(jobType, outcome string, durationSeconds float64) {
	DefaultMetrics.JobsProcessed.WithLabelValues(jobType, outcome).Inc()
	DefaultMetrics.JobDuration.WithLabelValues(jobType).Observe(durationSeconds)
	if outcome == "retry" {
		DefaultMetrics.JobRetries.WithLabelValues(jobType).Inc()
	}
}

// RecordBeatFire records one schedule entry fire.
func RecordBeatFire(entry string) {
	DefaultMetrics.BeatFires.WithLabelValues(entry).Inc()
}

// RecordBeatEnqueueError records a failed beat enqueue.
func RecordBeatEnqueueError(entry string) {
	DefaultMetrics.BeatEnqueues.WithLabelValues(entry).Inc()
}

// RecordIngest records the outcome of one wallet check.
func RecordIngest(seen, persisted, duplicates int) {
	DefaultMetrics.SignaturesExamined.Add(float64(seen))
	DefaultMetrics.TransfersPersisted.Add(float64(persisted))
	DefaultMetrics.DuplicateSignatures.Add(float64(duplicates))
}

// RecordFanout records the number of wallet checks scheduled by a fan-out.
func RecordFanout(scheduled int) {
	DefaultMetrics.WalletChecksScheduled.Add(float64(scheduled))
}

// RecordUSDRate records a successful price refresh.
func RecordUSDRate(rate float64, unixSeconds float64) {
	DefaultMetrics.CurrentUSDRate.Set(rate)
	DefaultMetrics.LastPriceRefresh.Set(unixSeconds)
}

// RecordPriceFetchError records a failed provider fetch.
func RecordPriceFetchError(provider string) {
	DefaultMetrics.PriceFetchErrors.WithLabelValues(provider).Inc()
}
