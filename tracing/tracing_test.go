package tracing

import (
	"bytes"
	"context"
	"errors"
	"os"
	"strings"
	"testing"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

// restoreProvider puts the global tracer provider back after a test that
// installs its own.
func restoreProvider(t *testing.T) {
	t.Helper()
	prev := otel.GetTracerProvider()
	t.Cleanup(func() { otel.SetTracerProvider(prev) })
}

// recordSpans installs an in-memory provider and returns its recorder.
func recordSpans(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()
	restoreProvider(t)
	rec := tracetest.NewSpanRecorder()
	otel.SetTracerProvider(sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec)))
	return rec
}

func attrs(span sdktrace.ReadOnlySpan) map[attribute.Key]attribute.Value {
	m := make(map[attribute.Key]attribute.Value)
	for _, kv := range span.Attributes() {
		m[kv.Key] = kv.Value
	}
	return m
}

func TestDefaultConfig(t *testing.T) {
	tests := []struct {
		name        string
		env         map[string]string
		wantEnv     string
		wantEnabled bool
		wantOTLP    string
	}{
		{
			name:    "nothing set",
			wantEnv: "development",
		},
		{
			name:        "explicitly enabled",
			env:         map[string]string{"OTEL_ENABLED": "true", "OTEL_ENVIRONMENT": "production"},
			wantEnv:     "production",
			wantEnabled: true,
		},
		{
			name:        "endpoint implies enabled",
			env:         map[string]string{"OTEL_EXPORTER_OTLP_ENDPOINT": "localhost:4318"},
			wantEnv:     "development",
			wantEnabled: true,
			wantOTLP:    "localhost:4318",
		},
		{
			name:    "enabled must be exactly true",
			env:     map[string]string{"OTEL_ENABLED": "yes"},
			wantEnv: "development",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, k := range []string{"OTEL_ENVIRONMENT", "OTEL_ENABLED", "OTEL_EXPORTER_OTLP_ENDPOINT"} {
				t.Setenv(k, tt.env[k])
			}

			cfg := DefaultConfig()

			if cfg.ServiceName != TracerName {
				t.Errorf("ServiceName = %q, want %q", cfg.ServiceName, TracerName)
			}
			if cfg.Environment != tt.wantEnv {
				t.Errorf("Environment = %q, want %q", cfg.Environment, tt.wantEnv)
			}
			if cfg.Enabled != tt.wantEnabled {
				t.Errorf("Enabled = %v, want %v", cfg.Enabled, tt.wantEnabled)
			}
			if cfg.OTLPEndpoint != tt.wantOTLP {
				t.Errorf("OTLPEndpoint = %q, want %q", cfg.OTLPEndpoint, tt.wantOTLP)
			}
			if cfg.Writer != nil {
				t.Error("Writer should default to nil so spans go to stderr")
			}
		})
	}
}

func TestSetup_DisabledIsNoop(t *testing.T) {
	restoreProvider(t)
	before := otel.GetTracerProvider()

	shutdown, err := Setup(context.Background(), Config{Enabled: false})
	if err != nil {
		t.Fatalf("Setup failed: %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Errorf("shutdown: %v", err)
	}
	if otel.GetTracerProvider() != before {
		t.Error("a disabled setup should leave the global provider alone")
	}
}

func TestExporterWriter(t *testing.T) {
	if w := exporterWriter(Config{}); w != os.Stderr {
		t.Errorf("default writer = %v, want os.Stderr", w)
	}
	if w := exporterWriter(Config{}); w == os.Stdout {
		t.Error("spans must never go to stdout, it carries the MCP protocol")
	}

	var buf bytes.Buffer
	if w := exporterWriter(Config{Writer: &buf}); w != &buf {
		t.Error("configured writer ignored")
	}
}

func TestSetup_StdoutExporterWritesSpans(t *testing.T) {
	restoreProvider(t)
	var buf bytes.Buffer

	shutdown, err := Setup(context.Background(), Config{
		ServiceName:    "confluence-test",
		ServiceVersion: "0.0.1",
		Environment:    "test",
		Enabled:        true,
		SampleRate:     1.0,
		Writer:         &buf,
	})
	if err != nil {
		t.Fatalf("Setup failed: %v", err)
	}

	_, span := StartSpan(context.Background(), "confluence.get_page")
	AddAPIAttributes(span, "get_page", "GET", "https://example.atlassian.net/wiki/rest/api/content/1")
	span.End()

	// Shutdown flushes the batcher.
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown: %v", err)
	}

	out := buf.String()
	for _, want := range []string{"confluence.get_page", "confluence.api.operation", "get_page", "confluence-test"} {
		if !strings.Contains(out, want) {
			t.Errorf("exported spans missing %q:\n%s", want, out)
		}
	}
}

func TestSetup_SampleRates(t *testing.T) {
	tests := []struct {
		rate        float64
		wantSampled bool
	}{
		{rate: 1.0, wantSampled: true},
		{rate: 1.5, wantSampled: true},
		{rate: 0, wantSampled: false},
		{rate: -0.5, wantSampled: false},
	}

	for _, tt := range tests {
		restoreProvider(t)
		var buf bytes.Buffer
		shutdown, err := Setup(context.Background(), Config{Enabled: true, SampleRate: tt.rate, Writer: &buf})
		if err != nil {
			t.Fatalf("rate %v: Setup failed: %v", tt.rate, err)
		}

		_, span := StartSpan(context.Background(), "sampled")
		sampled := span.SpanContext().IsSampled()
		span.End()
		_ = shutdown(context.Background())

		if sampled != tt.wantSampled {
			t.Errorf("rate %v: sampled = %v, want %v", tt.rate, sampled, tt.wantSampled)
		}
	}
}

func TestAddAPIAttributes(t *testing.T) {
	rec := recordSpans(t)

	_, span := StartSpan(context.Background(), "confluence.update_page")
	AddAPIAttributes(span, "update_page", "PUT", "https://example.atlassian.net/wiki/rest/api/content/42")
	AddResponseAttributes(span, 409, 87)
	span.End()

	ended := rec.Ended()
	if len(ended) != 1 {
		t.Fatalf("ended spans = %d, want 1", len(ended))
	}
	got := attrs(ended[0])

	wantStrings := map[attribute.Key]string{
		"confluence.api.operation": "update_page",
		"http.request.method":      "PUT",
		"url.full":                 "https://example.atlassian.net/wiki/rest/api/content/42",
	}
	for k, want := range wantStrings {
		if v := got[k].AsString(); v != want {
			t.Errorf("%s = %q, want %q", k, v, want)
		}
	}
	if v := got["http.response.status_code"].AsInt64(); v != 409 {
		t.Errorf("http.response.status_code = %d, want 409", v)
	}
	if v := got["http.response.body.size"].AsInt64(); v != 87 {
		t.Errorf("http.response.body.size = %d, want 87", v)
	}
}

func TestAddToolAttributes(t *testing.T) {
	rec := recordSpans(t)

	_, span := StartSpan(context.Background(), "mcp.tool")
	AddToolAttributes(span, "confluence_append_content", "write")
	span.End()

	got := attrs(rec.Ended()[0])
	if v := got["mcp.tool.name"].AsString(); v != "confluence_append_content" {
		t.Errorf("mcp.tool.name = %q", v)
	}
	if v := got["mcp.tool.category"].AsString(); v != "write" {
		t.Errorf("mcp.tool.category = %q", v)
	}
}

func TestRecordError(t *testing.T) {
	rec := recordSpans(t)

	_, span := StartSpan(context.Background(), "errs")
	RecordError(span, nil)
	RecordError(span, errors.New("boom"))
	span.End()

	s := rec.Ended()[0]
	if n := len(s.Events()); n != 1 {
		t.Fatalf("events = %d, want 1; a nil error must not be recorded", n)
	}
	if s.Events()[0].Name != "exception" {
		t.Errorf("event = %q, want exception", s.Events()[0].Name)
	}
	if s.Status().Code != codes.Unset {
		t.Errorf("status = %v; RecordError only adds an event", s.Status().Code)
	}
}

func TestGetEnvOrDefault(t *testing.T) {
	t.Setenv("TRACING_TEST_SET", "custom")
	t.Setenv("TRACING_TEST_EMPTY", "")

	if got := getEnvOrDefault("TRACING_TEST_SET", "d"); got != "custom" {
		t.Errorf("set: got %q", got)
	}
	if got := getEnvOrDefault("TRACING_TEST_EMPTY", "d"); got != "d" {
		t.Errorf("empty: got %q", got)
	}
	if got := getEnvOrDefault("TRACING_TEST_NEVER_SET_XYZ", "d"); got != "d" {
		t.Errorf("unset: got %q", got)
	}
}
