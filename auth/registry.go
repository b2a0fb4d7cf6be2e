package auth

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/kbukum/shoplist/logger"
	"github.com/kbukum/shoplist/observability"
)

// DefaultRealm is the realm advertised in challenges.
const DefaultRealm = "shoplist"

// Auth outcomes recorded in metrics.
const (
	OutcomeAnonymous = "anonymous"
	OutcomeSuccess   = "success"
	OutcomeRejected  = "rejected"
	OutcomeError     = "error"
)

// Result is the outcome of dispatching an Authorization header.
type Result struct {
	Principal Principal
	// Rejected is true when credentials of a registered scheme were
	// presented and refused. Unknown schemes are not rejections.
	Rejected bool
	// Challenges holds the WWW-Authenticate values to send on 401.
	Challenges []string
}

// Authenticated reports whether a user was resolved.
func (r Result) Authenticated() bool { return r.Principal.Authenticated() }

// Dispatcher is a thread-safe registry of authenticators keyed by scheme
// name. It selects one by the scheme of an Authorization header.
type Dispatcher struct {
	mu      sync.RWMutex
	byName  map[string]Authenticator
	realm   string
	log     *logger.Logger
	metrics *observability.Metrics
}

// DispatcherOption configures a Dispatcher.
type DispatcherOption func(*Dispatcher)

// WithRealm sets the realm advertised in challenges.
func WithRealm(realm string) DispatcherOption {
	return func(d *Dispatcher) {
		if realm != "" {
			d.realm = realm
		}
	}
}

// WithDispatchLogger sets the logger.
func WithDispatchLogger(l *logger.Logger) DispatcherOption {
	return func(d *Dispatcher) { d.log = l }
}

// WithDispatchMetrics records auth attempts.
func WithDispatchMetrics(m *observability.Metrics) DispatcherOption {
	return func(d *Dispatcher) { d.metrics = m }
}

// NewDispatcher returns a Dispatcher holding authenticators.
func NewDispatcher(authenticators []Authenticator, opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{
		byName: make(map[string]Authenticator),
		realm:  DefaultRealm,
		log:    logger.NewNop(),
	}
	for _, opt := range opts {
		opt(d)
	}
	d.log = d.log.WithComponent("auth")
	for _, a := range authenticators {
		d.Register(a)
	}
	return d
}

// Register adds a, replacing any authenticator for the same scheme.
func (d *Dispatcher) Register(a Authenticator) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.byName[normalize(string(a.Scheme()))] = a
}

// Get returns the authenticator for scheme, matched case-insensitively.
func (d *Dispatcher) Get(scheme string) (Authenticator, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	a, ok := d.byName[normalize(scheme)]
	return a, ok
}

// MustGet is Get panicking on unknown schemes.
func (d *Dispatcher) MustGet(scheme string) Authenticator {
	a, ok := d.Get(scheme)
	if !ok {
		panic(fmt.Sprintf("auth: scheme %q not registered", scheme))
	}
	return a
}

// Schemes returns the registered schemes in sorted order.
func (d *Dispatcher) Schemes() []Scheme {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]Scheme, 0, len(d.byName))
	for _, a := range d.byName {
		out = append(out, a.Scheme())
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Realm is the realm advertised in challenges.
func (d *Dispatcher) Realm() string { return d.realm }

// Challenges returns a fresh challenge for every registered scheme, for
// requests that carried no usable credentials.
func (d *Dispatcher) Challenges() []string {
	schemes := d.Schemes()
	out := make([]string, 0, len(schemes))
	for _, s := range schemes {
		a, _ := d.Get(string(s))
		out = append(out, a.Challenge(d.realm, false))
	}
	return out
}

// ParseAuthorization splits "<scheme> <credentials>". ok is false for a
// blank header or one without credentials.
func ParseAuthorization(header string) (scheme, credentials string, ok bool) {
	header = strings.TrimSpace(header)
	scheme, credentials, ok = strings.Cut(header, " ")
	credentials = strings.TrimSpace(credentials)
	if !ok || scheme == "" || credentials == "" {
		return "", "", false
	}
	return scheme, credentials, true
}

// Dispatch authenticates an Authorization header. A missing header or an
// unknown scheme yields an anonymous, unrejected result. The error is
// non-nil only when storage failed.
func (d *Dispatcher) Dispatch(ctx context.Context, header string) (Result, error) {
	if strings.TrimSpace(header) == "" {
		return Result{Principal: Anonymous(), Challenges: d.Challenges()}, nil
	}
	scheme, credentials, ok := ParseAuthorization(header)
	a, known := d.Get(scheme)
	if !known {
		// A bare scheme name without credentials still names the scheme.
		a, known = d.Get(strings.TrimSpace(header))
	}
	if !known {
		d.metrics.RecordAuth(ctx, "unknown", OutcomeAnonymous)
		return Result{Principal: Anonymous(), Challenges: d.Challenges()}, nil
	}
	name := string(a.Scheme())
	log := d.log.WithContext(ctx).WithFields(logger.Fields(logger.FieldScheme, name))

	if !ok {
		d.metrics.RecordAuth(ctx, name, OutcomeRejected)
		log.Debug("Malformed credentials")
		return d.rejected(a), nil
	}

	ctx, span := observability.StartSpan(ctx, "auth."+normalize(name))
	defer span.End()

	p, found, err := a.Authenticate(ctx, credentials)
	if err != nil {
		d.metrics.RecordAuth(ctx, name, OutcomeError)
		log.WithError(err).Error("Authentication failed on storage error")
		return Result{Principal: Anonymous()}, err
	}
	if !found {
		d.metrics.RecordAuth(ctx, name, OutcomeRejected)
		log.Debug("Credentials rejected")
		return d.rejected(a), nil
	}
	d.metrics.RecordAuth(ctx, name, OutcomeSuccess)
	log.Debug("Authenticated", logger.Fields(logger.FieldUserID, p.UserID().String()))
	return Result{Principal: p}, nil
}

func (d *Dispatcher) rejected(a Authenticator) Result {
	return Result{
		Principal:  Anonymous(),
		Rejected:   true,
		Challenges: []string{a.Challenge(d.realm, true)},
	}
}
