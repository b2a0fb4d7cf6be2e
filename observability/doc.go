// Package observability wires OpenTelemetry tracing and metrics.
//
// Setup installs OTLP/HTTP exporters when enabled. Repositories wrap each
// call in StartOperation/End, producing a span named
// "repository.<resource>.<operation>" and operation.total and
// operation.duration measurements. With export disabled the global no-op
// providers absorb everything.
package observability
