package observability

import (
	"context"
	"errors"

	"github.com/kbukum/shoplist/logger"
)

// ShutdownFunc flushes and stops the installed providers.
type ShutdownFunc func(ctx context.Context) error

// Setup installs tracing and metrics when cfg.Enabled, and always returns
// Metrics bound to the global meter.
func Setup(ctx context.Context, cfg Config, res Resource, log *logger.Logger) (*Metrics, ShutdownFunc, error) {
	noop := func(context.Context) error { return nil }
	if !cfg.Enabled {
		m, err := NewMetrics(Meter())
		return m, noop, err
	}

	tp, err := InitTracer(ctx, cfg, res)
	if err != nil {
		return nil, noop, err
	}
	mp, err := InitMeter(ctx, cfg, res)
	if err != nil {
		_ = tp.Shutdown(ctx)
		return nil, noop, err
	}
	metrics, err := NewMetrics(Meter())
	if err != nil {
		_ = tp.Shutdown(ctx)
		_ = mp.Shutdown(ctx)
		return nil, noop, err
	}

	log.Info("OpenTelemetry export enabled", logger.Fields(
		"endpoint", cfg.Endpoint,
		"sample_rate", cfg.SampleRate,
		"metric_interval", cfg.MetricInterval.String(),
	))
	return metrics, func(ctx context.Context) error {
		return errors.Join(tp.Shutdown(ctx), mp.Shutdown(ctx))
	}, nil
}
