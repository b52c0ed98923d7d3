package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestRecordRequest(t *testing.T) {
	tests := []struct {
		name       string
		tool       string
		duration   float64
		success    bool
		wantStatus string
	}{
		{
			name:       "successful request",
			tool:       "test_tool",
			duration:   0.5,
			success:    true,
			wantStatus: "success",
		},
		{
			name:       "failed request",
			tool:       "test_tool",
			duration:   1.0,
			success:    false,
			wantStatus: "error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := getCounterValue(t, RequestsTotal.WithLabelValues(tt.tool, tt.wantStatus))

			RecordRequest(tt.tool, tt.duration, tt.success)

			if got := getCounterValue(t, RequestsTotal.WithLabelValues(tt.tool, tt.wantStatus)); got != before+1 {
				t.Errorf("requests_total = %v, want %v", got, before+1)
			}
		})
	}
}

func TestRecordAPICall(t *testing.T) {
	tests := []struct {
		name      string
		operation string
		duration  float64
		success   bool
		errorCode string
	}{
		{
			name:      "successful API call",
			operation: "get_page",
			duration:  0.1,
			success:   true,
		},
		{
			name:      "failed API call with status code",
			operation: "update_page",
			duration:  0.5,
			success:   false,
			errorCode: "409",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			RecordAPICall(tt.operation, tt.duration, tt.success, tt.errorCode)

			counter, err := APIRequestsTotal.GetMetricWithLabelValues(tt.operation, statusLabel(tt.success))
			if err != nil {
				t.Fatalf("failed to get metric: %v", err)
			}
			if getCounterValue(t, counter) < 1 {
				t.Error("expected counter to be incremented")
			}

			if tt.errorCode != "" {
				errCounter, err := APIErrors.GetMetricWithLabelValues(tt.operation, tt.errorCode)
				if err != nil {
					t.Fatalf("failed to get error metric: %v", err)
				}
				if getCounterValue(t, errCounter) < 1 {
					t.Error("expected error counter to be incremented")
				}
			}
		})
	}
}

func TestRecordEdit(t *testing.T) {
	before := getCounterValue(t, EditOperations.WithLabelValues("append_content", "error"))
	RecordEdit("append_content", false)
	if got := getCounterValue(t, EditOperations.WithLabelValues("append_content", "error")); got != before+1 {
		t.Errorf("edit_operations_total = %v, want %v", got, before+1)
	}
}

func TestRecordContentSize(t *testing.T) {
	RecordContentSize("update_page", 2048)

	observer, err := ContentSize.GetMetricWithLabelValues("update_page")
	if err != nil {
		t.Fatalf("failed to get metric: %v", err)
	}
	var m dto.Metric
	if err := observer.(prometheus.Histogram).Write(&m); err != nil {
		t.Fatalf("failed to write metric: %v", err)
	}
	if m.Histogram.GetSampleCount() < 1 {
		t.Error("expected at least one observation")
	}
}

func TestMetricsRegistered(t *testing.T) {
	metrics := []prometheus.Collector{
		RequestsTotal,
		RequestDuration,
		RequestInFlight,
		APILatency,
		APIRequestsTotal,
		APIErrors,
		PanicsRecovered,
		EditOperations,
		ContentSize,
		AttachmentBytes,
		JournalWrites,
	}

	for i, m := range metrics {
		if m == nil {
			t.Errorf("metric at index %d is nil", i)
		}
	}
}

func TestNamespace(t *testing.T) {
	if Namespace != "confluence_mcp" {
		t.Errorf("expected namespace 'confluence_mcp', got '%s'", Namespace)
	}
}

// Helper to get counter value
func getCounterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	var m dto.Metric
	if err := c.Write(&m); err != nil {
		t.Fatalf("failed to write metric: %v", err)
	}
	return m.Counter.GetValue()
}
