package app

import (
	"time"

	"github.com/kbukum/shoplist/logger"
	"github.com/kbukum/shoplist/repository"
)

// Option configures the App during creation.
type Option func(*appOptions)

type appOptions struct {
	logger          *logger.Logger
	gracefulTimeout *time.Duration
	repoOpts        []repository.Option
}

func resolveOptions(opts []Option) *appOptions {
	o := &appOptions{}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// WithLogger sets the logger. If not set, one is built from the config's
// Logging section.
func WithLogger(l *logger.Logger) Option {
	return func(o *appOptions) { o.logger = l }
}

// WithGracefulTimeout sets the maximum duration for graceful shutdown.
func WithGracefulTimeout(d time.Duration) Option {
	return func(o *appOptions) { o.gracefulTimeout = &d }
}

// WithRepositoryOptions appends repository options after the ones derived
// from the config, e.g. a fixed clock or a cheaper hasher in tests.
func WithRepositoryOptions(opts ...repository.Option) Option {
	return func(o *appOptions) { o.repoOpts = append(o.repoOpts, opts...) }
}
