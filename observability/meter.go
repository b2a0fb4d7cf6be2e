package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

// InitMeter installs a periodic OTLP/HTTP meter provider as the global
// provider. The caller shuts it down on exit.
func InitMeter(ctx context.Context, cfg Config, res Resource) (*sdkmetric.MeterProvider, error) {
	opts := []otlpmetrichttp.Option{otlpmetrichttp.WithEndpoint(cfg.Endpoint)}
	if cfg.Insecure {
		opts = append(opts, otlpmetrichttp.WithInsecure())
	}
	exporter, err := otlpmetrichttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating metric exporter: %w", err)
	}

	r, err := newResource(res)
	if err != nil {
		return nil, fmt.Errorf("creating resource: %w", err)
	}

	var readerOpts []sdkmetric.PeriodicReaderOption
	if cfg.MetricInterval > 0 {
		readerOpts = append(readerOpts, sdkmetric.WithInterval(cfg.MetricInterval))
	}
	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, readerOpts...)),
		sdkmetric.WithResource(r),
	)
	otel.SetMeterProvider(mp)
	return mp, nil
}

// Meter returns the shoplist meter from the global provider.
func Meter() metric.Meter {
	return otel.Meter(instrumentationName)
}

// Metrics holds the service instruments. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	operationTotal    metric.Int64Counter
	operationDuration metric.Float64Histogram
	authTotal         metric.Int64Counter
	requestTotal      metric.Int64Counter
	requestDuration   metric.Float64Histogram
	sweptTotal        metric.Int64Counter
}

// NewMetrics creates the instruments on meter.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	var (
		m   Metrics
		err error
	)
	if m.operationTotal, err = meter.Int64Counter("operation.total",
		metric.WithDescription("Repository operations by resource, operation and outcome")); err != nil {
		return nil, fmt.Errorf("creating operation.total counter: %w", err)
	}
	if m.operationDuration, err = meter.Float64Histogram("operation.duration",
		metric.WithDescription("Repository operation duration"),
		metric.WithUnit("s")); err != nil {
		return nil, fmt.Errorf("creating operation.duration histogram: %w", err)
	}
	if m.authTotal, err = meter.Int64Counter("auth.attempts",
		metric.WithDescription("Authentication attempts by scheme and outcome")); err != nil {
		return nil, fmt.Errorf("creating auth.attempts counter: %w", err)
	}
	if m.requestTotal, err = meter.Int64Counter("request.total",
		metric.WithDescription("HTTP requests by method, route and status")); err != nil {
		return nil, fmt.Errorf("creating request.total counter: %w", err)
	}
	if m.requestDuration, err = meter.Float64Histogram("request.duration",
		metric.WithDescription("HTTP request duration"),
		metric.WithUnit("s")); err != nil {
		return nil, fmt.Errorf("creating request.duration histogram: %w", err)
	}
	if m.sweptTotal, err = meter.Int64Counter("tokens.swept",
		metric.WithDescription("Expired tokens and codes purged by the sweeper")); err != nil {
		return nil, fmt.Errorf("creating tokens.swept counter: %w", err)
	}
	return &m, nil
}

// RecordOperation records one repository operation.
func (m *Metrics) RecordOperation(ctx context.Context, resource, operation, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.operationTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("resource", resource),
		attribute.String("operation", operation),
		attribute.String("outcome", outcome),
	))
	m.operationDuration.Record(ctx, d.Seconds(), metric.WithAttributes(
		attribute.String("resource", resource),
		attribute.String("operation", operation),
	))
}

// RecordAuth records one authentication attempt.
func (m *Metrics) RecordAuth(ctx context.Context, scheme, outcome string) {
	if m == nil {
		return
	}
	m.authTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("scheme", scheme),
		attribute.String("outcome", outcome),
	))
}

// RecordRequest records one completed HTTP request.
func (m *Metrics) RecordRequest(ctx context.Context, method, route string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.requestTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("method", method),
		attribute.String("route", route),
		attribute.Int("status", status),
	))
	m.requestDuration.Record(ctx, d.Seconds(), metric.WithAttributes(
		attribute.String("method", method),
		attribute.String("route", route),
	))
}

// RecordSwept records purged expired entries.
func (m *Metrics) RecordSwept(ctx context.Context, resource string, n int64) {
	if m == nil || n <= 0 {
		return
	}
	m.sweptTotal.Add(ctx, n, metric.WithAttributes(attribute.String("resource", resource)))
}
