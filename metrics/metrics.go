// Package metrics provides Prometheus metrics for the Confluence MCP server.
// It tracks tool calls, Confluence API latencies, write operations and content sizes.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Namespace for all metrics
const (
	Namespace = "confluence_mcp"
)

var (
	// RequestsTotal counts total MCP tool calls by tool name and status
	RequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "requests_total",
		Help:      "Total number of MCP tool calls",
	}, []string{"tool", "status"})

	// RequestDuration measures tool call latency distribution
	RequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: Namespace,
		Name:      "request_duration_seconds",
		Help:      "Request latency distribution by tool",
		Buckets:   []float64{.01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
	}, []string{"tool"})

	// RequestInFlight tracks currently executing tool calls
	RequestInFlight = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: Namespace,
		Name:      "requests_in_flight",
		Help:      "Number of requests currently being processed",
	}, []string{"tool"})

	// APILatency measures Confluence REST call latency by operation
	APILatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: Namespace,
		Name:      "api_latency_seconds",
		Help:      "Confluence API call latency by operation",
		Buckets:   prometheus.DefBuckets,
	}, []string{"operation"})

	// APIRequestsTotal counts Confluence REST calls
	APIRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "api_requests_total",
		Help:      "Total Confluence API requests by operation and status",
	}, []string{"operation", "status"})

	// APIErrors counts failed Confluence REST calls by error code.
	// The code is the HTTP status, or "transport" when no response arrived.
	APIErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "api_errors_total",
		Help:      "Confluence API errors by operation and error code",
	}, []string{"operation", "error_code"})

	// PanicsRecovered counts recovered panics
	PanicsRecovered = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "panics_recovered_total",
		Help:      "Number of panics recovered in tool handlers",
	}, []string{"tool"})

	// EditOperations counts write operations by type
	EditOperations = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "edit_operations_total",
		Help:      "Edit operations by type and status",
	}, []string{"operation", "status"})

	// ContentSize tracks storage-format body sizes sent and received
	ContentSize = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: Namespace,
		Name:      "content_size_bytes",
		Help:      "Content size distribution in bytes",
		Buckets:   []float64{100, 1000, 10000, 50000, 100000, 250000, 500000, 1000000},
	}, []string{"operation"})

	// AttachmentBytes tracks uploaded attachment sizes
	AttachmentBytes = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: Namespace,
		Name:      "attachment_bytes",
		Help:      "Uploaded attachment size distribution in bytes",
		Buckets:   prometheus.ExponentialBuckets(1024, 4, 10),
	})

	// JournalWrites counts entries written to the local write journal
	JournalWrites = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "journal_writes_total",
		Help:      "Write journal entries by outcome",
	}, []string{"status"})
)

// RecordRequest records a completed tool call with its duration and status
func RecordRequest(tool string, duration float64, success bool) {
	RequestsTotal.WithLabelValues(tool, statusLabel(success)).Inc()
	RequestDuration.WithLabelValues(tool).Observe(duration)
}

// RecordAPICall records a Confluence REST call
func RecordAPICall(operation string, duration float64, success bool, errorCode string) {
	APIRequestsTotal.WithLabelValues(operation, statusLabel(success)).Inc()
	APILatency.WithLabelValues(operation).Observe(duration)
	if errorCode != "" {
		APIErrors.WithLabelValues(operation, errorCode).Inc()
	}
}

// RecordEdit records the outcome of a write operation
func RecordEdit(operation string, success bool) {
	EditOperations.WithLabelValues(operation, statusLabel(success)).Inc()
}

// RecordContentSize observes the size of a body handled by operation
func RecordContentSize(operation string, size int) {
	ContentSize.WithLabelValues(operation).Observe(float64(size))
}

func statusLabel(success bool) string {
	if success {
		return "success"
	}
	return "error"
}
