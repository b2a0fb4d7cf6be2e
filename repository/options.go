package repository

import (
	"time"

	"github.com/kbukum/shoplist/auth/password"
	"github.com/kbukum/shoplist/logger"
	"github.com/kbukum/shoplist/observability"
)

// DefaultTokenTTL is how long access tokens and authorization codes live.
const DefaultTokenTTL = 10 * time.Minute

// Options are shared by all repositories.
type Options struct {
	Hasher  password.Hasher
	Policy  password.Policy
	Now     func() time.Time
	Logger  *logger.Logger
	Metrics *observability.Metrics
	TTL     time.Duration
}

// Option configures Options.
type Option func(*Options)

// WithHasher sets the credential hasher.
func WithHasher(h password.Hasher) Option {
	return func(o *Options) { o.Hasher = h }
}

// WithPasswordPolicy sets the policy for user passwords.
func WithPasswordPolicy(p password.Policy) Option {
	return func(o *Options) { o.Policy = p }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(o *Options) { o.Now = now }
}

// WithLogger sets the logger.
func WithLogger(l *logger.Logger) Option {
	return func(o *Options) { o.Logger = l }
}

// WithMetrics enables metric recording.
func WithMetrics(m *observability.Metrics) Option {
	return func(o *Options) { o.Metrics = m }
}

// WithTTL sets the lifetime of token entries. Ignored by entity repositories.
func WithTTL(d time.Duration) Option {
	return func(o *Options) { o.TTL = d }
}

func buildOptions(opts []Option) Options {
	o := Options{
		Now:    time.Now,
		Logger: logger.NewNop(),
		TTL:    DefaultTokenTTL,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.Hasher == nil {
		o.Hasher = password.NewArgon2Hasher()
	}
	if o.Policy.MinLength <= 0 {
		o.Policy.MinLength = password.DefaultMinLength
	}
	return o
}

// now returns the clock in UTC at microsecond precision, the finest
// resolution every backend round-trips.
func (o Options) now() time.Time {
	return o.Now().UTC().Truncate(time.Microsecond)
}
