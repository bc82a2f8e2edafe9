package observability

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/bosflow/bosflow/internal/config"
)

// recordSpans installs an always-sampling provider backed by an
// in-memory exporter for the duration of the test.
func recordSpans(t *testing.T) *tracetest.InMemoryExporter {
	t.Helper()
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSyncer(exporter),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
	)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })
	return exporter
}

func TestInitTracing_disabled_is_noop(t *testing.T) {
	shutdown, err := InitTracing(context.Background(), config.TracingConfig{}, "bosflow", "dev")
	if err != nil {
		t.Fatalf("InitTracing: %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Errorf("shutdown of disabled tracing = %v", err)
	}
}

func TestInitTracing_stdout_exporter(t *testing.T) {
	cfg := config.TracingConfig{Enabled: true, Exporter: "stdout", SamplingRate: 1}
	shutdown, err := InitTracing(context.Background(), cfg, "bosflow", "dev")
	if err != nil {
		t.Fatalf("InitTracing: %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Errorf("shutdown: %v", err)
	}
}

func TestInitTracing_rejects_unknown_exporter(t *testing.T) {
	cfg := config.TracingConfig{Enabled: true, Exporter: "zipkin"}
	if _, err := InitTracing(context.Background(), cfg, "bosflow", "dev"); err == nil {
		t.Fatal("expected an error for an unsupported exporter")
	}
}

func TestStartSpan_records_attributes(t *testing.T) {
	exporter := recordSpans(t)

	_, span := StartSpan(context.Background(), "evolution.execute",
		AttrDocumentID.String("doc-1"),
		AttrTargetVersion.String("1.3.0"),
	)
	span.End()

	spans := exporter.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("recorded %d spans, want 1", len(spans))
	}
	got := spans[0]
	if got.Name != "evolution.execute" {
		t.Errorf("span name = %q", got.Name)
	}
	byKey := map[string]string{}
	for _, a := range got.Attributes {
		byKey[string(a.Key)] = a.Value.AsString()
	}
	if byKey["bos.document_id"] != "doc-1" || byKey["bos.target_version"] != "1.3.0" {
		t.Errorf("attributes = %v", byKey)
	}
}

func TestStartSpan_nests_under_parent(t *testing.T) {
	exporter := recordSpans(t)

	ctx, parent := StartSpan(context.Background(), "parent")
	_, child := StartSpan(ctx, "child")
	child.End()
	parent.End()

	spans := exporter.GetSpans()
	if len(spans) != 2 {
		t.Fatalf("recorded %d spans, want 2", len(spans))
	}
	// Syncer exports in end order: child first.
	if spans[0].Parent.SpanID() != spans[1].SpanContext.SpanID() {
		t.Error("child span is not parented to the outer span")
	}
	if spans[0].SpanContext.TraceID() != spans[1].SpanContext.TraceID() {
		t.Error("parent and child landed in different traces")
	}
}

func TestEndSpanWithError(t *testing.T) {
	exporter := recordSpans(t)

	_, span := StartSpan(context.Background(), "failing")
	EndSpanWithError(span, errors.New("boom"))

	_, span = StartSpan(context.Background(), "fine")
	EndSpanWithError(span, nil)

	spans := exporter.GetSpans()
	if len(spans) != 2 {
		t.Fatalf("recorded %d spans, want 2", len(spans))
	}
	if spans[0].Status.Code != codes.Error {
		t.Errorf("failing span status = %v, want error", spans[0].Status.Code)
	}
	if len(spans[0].Events) == 0 {
		t.Error("failing span has no recorded error event")
	}
	if spans[1].Status.Code == codes.Error {
		t.Error("clean span marked as error")
	}
}

func TestTraceIDFromContext(t *testing.T) {
	recordSpans(t)

	if id := TraceIDFromContext(context.Background()); id != "" {
		t.Errorf("trace ID without a span = %q, want empty", id)
	}

	ctx, span := StartSpan(context.Background(), "op")
	defer span.End()
	if id := TraceIDFromContext(ctx); len(id) != 32 {
		t.Errorf("trace ID = %q, want 32 hex chars", id)
	}
}

func TestTracingMiddleware_spans_requests(t *testing.T) {
	exporter := recordSpans(t)

	handler := TracingMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if TraceIDFromContext(r.Context()) == "" {
			t.Error("handler context has no active trace")
		}
		w.WriteHeader(http.StatusCreated)
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest("POST", "/api/v1/validate", nil))

	spans := exporter.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("recorded %d spans, want 1", len(spans))
	}
	got := spans[0]
	if got.Name != "POST /api/v1/validate" {
		t.Errorf("span name = %q", got.Name)
	}
	statusRecorded := false
	for _, a := range got.Attributes {
		if string(a.Key) == "http.response.status_code" && a.Value.AsInt64() == http.StatusCreated {
			statusRecorded = true
		}
	}
	if !statusRecorded {
		t.Errorf("response status not recorded: %v", got.Attributes)
	}
	if w.Header().Get("Traceparent") == "" && w.Header().Get("traceparent") == "" {
		t.Error("trace context not reflected in response headers")
	}
}

func TestTracingMiddleware_marks_5xx_as_error(t *testing.T) {
	exporter := recordSpans(t)

	handler := TracingMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/", nil))

	spans := exporter.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("recorded %d spans, want 1", len(spans))
	}
	if spans[0].Status.Code != codes.Error {
		t.Errorf("status = %v, want error for 502", spans[0].Status.Code)
	}
}

func TestTracingMiddleware_continues_inbound_trace(t *testing.T) {
	exporter := recordSpans(t)

	const inboundTrace = "4bf92f3577b34da6a3ce929d0e0e4736"
	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("traceparent", "00-"+inboundTrace+"-00f067aa0ba902b7-01")

	TracingMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})).ServeHTTP(httptest.NewRecorder(), req)

	spans := exporter.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("recorded %d spans, want 1", len(spans))
	}
	if got := spans[0].SpanContext.TraceID().String(); got != inboundTrace {
		t.Errorf("trace ID = %s, want the inbound traceparent's %s", got, inboundTrace)
	}
}

func TestNewSampler(t *testing.T) {
	cases := []struct {
		name string
		cfg  config.TracingConfig
		want string
	}{
		{"default rate", config.TracingConfig{}, "0.1"},
		{"explicit rate", config.TracingConfig{SamplingRate: 0.5}, "0.5"},
		{"full rate", config.TracingConfig{SamplingRate: 1}, "AlwaysOn"},
		{"clamped above one", config.TracingConfig{SamplingRate: 7}, "AlwaysOn"},
		{"force sample errors", config.TracingConfig{SamplingRate: 0.01, ForceSampleErrors: true}, "AlwaysOn"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			desc := newSampler(tc.cfg).Description()
			if !strings.Contains(desc, tc.want) {
				t.Errorf("sampler = %q, want it to mention %q", desc, tc.want)
			}
		})
	}
}
