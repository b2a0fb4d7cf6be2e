package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Outcomes recorded on spans and metrics.
const (
	OutcomeOK       = "ok"
	OutcomeNotFound = "not_found"
	OutcomeNoop     = "noop"
	OutcomeError    = "error"
)

// Operation tracks one traced and measured unit of work.
type Operation struct {
	span      trace.Span
	metrics   *Metrics
	resource  string
	operation string
	start     time.Time
}

// StartOperation opens a "<prefix>.<resource>.<operation>" span.
func StartOperation(ctx context.Context, metrics *Metrics, prefix, resource, operation string) (context.Context, *Operation) {
	ctx, span := StartSpan(ctx, prefix+"."+resource+"."+operation,
		trace.WithAttributes(
			attribute.String(AttrResource, resource),
			attribute.String(AttrOperation, operation),
		))
	return ctx, &Operation{
		span:      span,
		metrics:   metrics,
		resource:  resource,
		operation: operation,
		start:     time.Now(),
	}
}

// End closes the span and records the outcome. A non-nil err marks the span
// as failed and overrides outcome.
func (o *Operation) End(ctx context.Context, outcome string, err error) {
	if err != nil {
		outcome = OutcomeError
		o.span.RecordError(err)
		o.span.SetStatus(codes.Error, err.Error())
	}
	o.span.SetAttributes(attribute.String(AttrOutcome, outcome))
	o.span.End()
	o.metrics.RecordOperation(ctx, o.resource, o.operation, outcome, time.Since(o.start))
}
