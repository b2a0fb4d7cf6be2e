package observability

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/kbukum/shoplist/logger"
)

func TestConfigDefaults(t *testing.T) {
	var cfg Config
	cfg.ApplyDefaults()
	if cfg.Endpoint != "localhost:4318" {
		t.Errorf("unexpected endpoint %q", cfg.Endpoint)
	}
	if cfg.SampleRate != 1.0 {
		t.Errorf("unexpected sample rate %v", cfg.SampleRate)
	}
	if cfg.MetricInterval != 15*time.Second {
		t.Errorf("unexpected interval %v", cfg.MetricInterval)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	cfg.SampleRate = 2
	if err := cfg.Validate(); err == nil {
		t.Error("expected sample rate above 1 to fail")
	}
}

func TestSampler(t *testing.T) {
	if got := sampler(1).Description(); got != sdktrace.AlwaysSample().Description() {
		t.Errorf("rate 1: got %s", got)
	}
	if got := sampler(0).Description(); got != sdktrace.NeverSample().Description() {
		t.Errorf("rate 0: got %s", got)
	}
	if got := sampler(0.5).Description(); got == sdktrace.AlwaysSample().Description() {
		t.Errorf("rate 0.5 should be ratio based, got %s", got)
	}
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	ctx := context.Background()
	m.RecordOperation(ctx, "user", "create", OutcomeOK, time.Millisecond)
	m.RecordAuth(ctx, "basic", "success")
	m.RecordRequest(ctx, "GET", "/health", 200, time.Millisecond)
	m.RecordSwept(ctx, "access_token", 3)
}

func TestNewMetricsOnNoopMeter(t *testing.T) {
	m, err := NewMetrics(noop.NewMeterProvider().Meter("test"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	m.RecordOperation(context.Background(), "user", "create", OutcomeOK, time.Millisecond)
}

func installRecorder(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()
	rec := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() {
		otel.SetTracerProvider(prev)
		_ = tp.Shutdown(context.Background())
	})
	return rec
}

func TestOperationSpan(t *testing.T) {
	rec := installRecorder(t)

	ctx, op := StartOperation(context.Background(), nil, "repository", "client_app", "create")
	op.End(ctx, OutcomeOK, nil)

	_, failed := StartOperation(context.Background(), nil, "repository", "user", "update")
	failed.End(context.Background(), OutcomeOK, errors.New("boom"))

	spans := rec.Ended()
	if len(spans) != 2 {
		t.Fatalf("expected 2 spans, got %d", len(spans))
	}
	if spans[0].Name() != "repository.client_app.create" {
		t.Errorf("unexpected span name %q", spans[0].Name())
	}
	if spans[1].Status().Code != codes.Error {
		t.Errorf("expected error status, got %v", spans[1].Status())
	}
	var outcome string
	for _, kv := range spans[1].Attributes() {
		if string(kv.Key) == AttrOutcome {
			outcome = kv.Value.AsString()
		}
	}
	if outcome != OutcomeError {
		t.Errorf("expected outcome %q, got %q", OutcomeError, outcome)
	}
}

func TestOperationRecordsMetrics(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	defer mp.Shutdown(context.Background())

	m, err := NewMetrics(mp.Meter("test"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ctx, op := StartOperation(context.Background(), m, "repository", "user", "get")
	op.End(ctx, OutcomeNotFound, nil)

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("collect: %v", err)
	}
	found := false
	for _, sm := range rm.ScopeMetrics {
		for _, md := range sm.Metrics {
			if md.Name != "operation.total" {
				continue
			}
			sum, ok := md.Data.(metricdata.Sum[int64])
			if !ok || len(sum.DataPoints) != 1 || sum.DataPoints[0].Value != 1 {
				t.Fatalf("unexpected operation.total data %+v", md.Data)
			}
			found = true
		}
	}
	if !found {
		t.Fatal("operation.total not recorded")
	}
}

func TestSetupDisabled(t *testing.T) {
	m, shutdown, err := Setup(context.Background(), Config{}, Resource{ServiceName: "shoplist"}, logger.NewNop())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m == nil {
		t.Fatal("expected metrics even when export is disabled")
	}
	if err := shutdown(context.Background()); err != nil {
		t.Errorf("unexpected shutdown error: %v", err)
	}
}

func TestNewResource(t *testing.T) {
	r, err := newResource(Resource{ServiceName: "shoplist", ServiceVersion: "1.2.3", Environment: "test"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var name string
	for _, kv := range r.Attributes() {
		if kv.Key == "service.name" {
			name = kv.Value.AsString()
		}
	}
	if name != "shoplist" {
		t.Errorf("expected service.name shoplist, got %q", name)
	}
}
