package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestsTotal tracks every attempt sent to a backend
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "biofetch_requests_total",
			Help: "Total number of requests sent to a backend",
		},
		[]string{"backend", "operation"},
	)

	// RequestErrorsTotal tracks failed attempts by error class
	RequestErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "biofetch_request_errors_total",
			Help: "Total number of failed requests by error class",
		},
		[]string{"backend", "error_class"},
	)

	// RequestLatency tracks per-attempt latency
	RequestLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "biofetch_request_latency_seconds",
			Help:    "Request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"backend", "operation"},
	)

	// RetryWaitSeconds tracks time spent sleeping between attempts
	RetryWaitSeconds = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "biofetch_retry_wait_seconds_total",
			Help: "Total time spent waiting between retry attempts",
		},
		[]string{"backend"},
	)

	// BatchesTotal tracks finished batches by outcome (success, failed)
	BatchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "biofetch_batches_total",
			Help: "Total number of batches processed",
		},
		[]string{"backend", "outcome"},
	)

	// RowsTotal tracks normalized rows produced
	RowsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "biofetch_rows_total",
			Help: "Total number of normalized rows produced",
		},
		[]string{"backend"},
	)

	// BatchSize tracks the batch size in use for the current run
	BatchSize = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "biofetch_batch_size",
			Help: "Batch size in use by the current run",
		},
		[]string{"backend"},
	)

	// SinkRowsWritten tracks rows written by each output sink
	SinkRowsWritten = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "biofetch_sink_rows_written_total",
			Help: "Total number of rows written to an output sink",
		},
		[]string{"sink", "table"},
	)

	// FailedIDsQueued tracks ids pushed to the failure queue
	FailedIDsQueued = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "biofetch_failed_ids_queued_total",
			Help: "Total number of ids recorded in the failure queue",
		},
		[]string{"backend"},
	)

	// DBConnectionPoolUsage tracks database connection pool usage
	DBConnectionPoolUsage = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "biofetch_db_connection_pool_usage_percent",
			Help: "Percentage of database connection pool in use",
		},
	)
)
