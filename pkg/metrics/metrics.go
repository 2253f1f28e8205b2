// Package metrics provides Prometheus metrics instrumentation.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestDuration tracks HTTP request duration.
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path", "status"},
	)

	// RequestsTotal tracks total HTTP requests.
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// SummarizerCallsTotal tracks summarization gateway calls by mode and
	// outcome (ok or degraded).
	SummarizerCallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "summarizer_calls_total",
			Help: "Total summarization gateway calls",
		},
		[]string{"mode", "status"},
	)

	// SummarizerDuration tracks summarization call duration.
	SummarizerDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "summarizer_duration_seconds",
			Help:    "Summarization gateway call duration",
			Buckets: []float64{.5, 1, 2, 5, 10, 15, 20, 30, 60},
		},
		[]string{"mode"},
	)

	// CompactionRuns tracks memory plan builds by plan kind.
	CompactionRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "memory_compaction_runs_total",
			Help: "Memory compaction plan builds by kind",
		},
		[]string{"kind"},
	)

	// AssembledMemoryTokens tracks the estimated token size of assembled
	// memory blobs.
	AssembledMemoryTokens = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "assembled_memory_tokens",
			Help:    "Estimated token count of assembled memory blobs",
			Buckets: []float64{0, 500, 1000, 2000, 4000, 8000, 16000, 32000},
		},
	)

	// SummaryWriteBackFailures tracks skipped per-record summary writes.
	SummaryWriteBackFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "summary_writeback_failures_total",
			Help: "Per-record summary write-backs that failed and were skipped",
		},
	)

	// RecordsTotal tracks conversation records created.
	RecordsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "conversation_records_total",
			Help: "Total conversation records created",
		},
		[]string{"owner_id"},
	)
)

// RecordRequest records metrics for an HTTP request.
func RecordRequest(method, path, status string, duration float64) {
	RequestDuration.WithLabelValues(method, path, status).Observe(duration)
	RequestsTotal.WithLabelValues(method, path, status).Inc()
}

// RecordSummarizerCall records metrics for a summarization gateway call.
func RecordSummarizerCall(mode, status string, duration float64) {
	SummarizerCallsTotal.WithLabelValues(mode, status).Inc()
	SummarizerDuration.WithLabelValues(mode).Observe(duration)
}
