package repository

import (
	"context"
	stderrors "errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kbukum/shoplist/domain"
	"github.com/kbukum/shoplist/logger"
	"github.com/kbukum/shoplist/observability"
)

const (
	accessTokenResource       = "access_token"
	authorizationCodeResource = "authorization_code"
)

// TokenTemplate enforces the shared semantics of expiring entries keyed by
// an opaque string.
type TokenTemplate[T domain.Expiring] struct {
	backend  TokenBackend[T]
	resource string
	opts     Options
	log      *logger.Logger
}

// NewTokenTemplate returns a TokenTemplate storing resource entries in
// backend.
func NewTokenTemplate[T domain.Expiring](resource string, backend TokenBackend[T], opts ...Option) *TokenTemplate[T] {
	o := buildOptions(opts)
	return &TokenTemplate[T]{
		backend:  backend,
		resource: resource,
		opts:     o,
		log:      o.Logger.WithComponent("repository").WithFields(logger.Fields(logger.FieldResource, resource)),
	}
}

// Resource names the stored entries.
func (t *TokenTemplate[T]) Resource() string { return t.resource }

// TTL is the lifetime given to new entries.
func (t *TokenTemplate[T]) TTL() time.Duration { return t.opts.TTL }

// Now is the clock entries are stamped with.
func (t *TokenTemplate[T]) Now() time.Time { return t.opts.now() }

func (t *TokenTemplate[T]) start(ctx context.Context, op string) (context.Context, *observability.Operation) {
	return observability.StartOperation(ctx, t.opts.Metrics, "repository", t.resource, op)
}

// Create stores entry. Entries with a blank key, without an owner or
// already expired are logged and ignored; the result reports whether entry
// was stored.
func (t *TokenTemplate[T]) Create(ctx context.Context, entry T) (stored bool, err error) {
	ctx, op := t.start(ctx, "create")
	outcome := observability.OutcomeOK
	defer func() { op.End(ctx, outcome, err) }()

	if strings.TrimSpace(entry.Key()) == "" || entry.Owner() == uuid.Nil {
		outcome = observability.OutcomeNoop
		t.log.WithContext(ctx).Warn("Create called with blank key or nil owner")
		return false, nil
	}
	now := t.opts.now()
	if !entry.Expiry().After(now) {
		outcome = observability.OutcomeNoop
		t.log.WithContext(ctx).Warn("Create called with an expired entry", logger.Fields("ttl", t.opts.TTL.String()))
		return false, nil
	}
	if err := t.backend.Insert(ctx, entry, now); err != nil {
		if stderrors.Is(err, ErrExpired) {
			outcome = observability.OutcomeNoop
			return false, nil
		}
		return false, translate(t.resource, "create", err)
	}
	return true, nil
}

// GetByKey returns the live entry for key. Blank keys are absent without a
// backend call.
func (t *TokenTemplate[T]) GetByKey(ctx context.Context, key string) (entry T, found bool, err error) {
	ctx, op := t.start(ctx, "get")
	outcome := observability.OutcomeOK
	defer func() { op.End(ctx, outcome, err) }()

	if strings.TrimSpace(key) == "" {
		outcome = observability.OutcomeNoop
		return entry, false, nil
	}
	entry, found, err = t.backend.FindByKey(ctx, key, t.opts.now())
	if err != nil {
		return entry, false, translate(t.resource, "get", err)
	}
	if !found {
		outcome = observability.OutcomeNotFound
	}
	return entry, found, nil
}

// GetUserIDByKey returns the owner of the live entry for key.
func (t *TokenTemplate[T]) GetUserIDByKey(ctx context.Context, key string) (uuid.UUID, bool, error) {
	entry, found, err := t.GetByKey(ctx, key)
	if err != nil || !found {
		return uuid.Nil, false, err
	}
	return entry.Owner(), true, nil
}

// Replace overwrites the live entry with the same key.
func (t *TokenTemplate[T]) Replace(ctx context.Context, entry T) (err error) {
	ctx, op := t.start(ctx, "replace")
	defer func() { op.End(ctx, observability.OutcomeOK, err) }()

	if err := t.backend.Replace(ctx, entry, t.opts.now()); err != nil {
		return translate(t.resource, "replace", err)
	}
	return nil
}

// DeleteByKey removes the entry for key. Blank keys are logged and ignored;
// unknown keys are not an error.
func (t *TokenTemplate[T]) DeleteByKey(ctx context.Context, key string) (err error) {
	ctx, op := t.start(ctx, "delete")
	outcome := observability.OutcomeOK
	defer func() { op.End(ctx, outcome, err) }()

	if strings.TrimSpace(key) == "" {
		outcome = observability.OutcomeNoop
		t.log.WithContext(ctx).Warn("Delete called with blank key")
		return nil
	}
	if err := t.backend.DeleteByKey(ctx, key); err != nil {
		return translate(t.resource, "delete", err)
	}
	return nil
}

// Take atomically returns and removes the live entry for key.
func (t *TokenTemplate[T]) Take(ctx context.Context, key string) (entry T, found bool, err error) {
	ctx, op := t.start(ctx, "take")
	outcome := observability.OutcomeOK
	defer func() { op.End(ctx, outcome, err) }()

	if strings.TrimSpace(key) == "" {
		outcome = observability.OutcomeNoop
		return entry, false, nil
	}
	entry, found, err = t.backend.Take(ctx, key, t.opts.now())
	if err != nil {
		return entry, false, translate(t.resource, "take", err)
	}
	if !found {
		outcome = observability.OutcomeNotFound
	}
	return entry, found, nil
}

// Sweep purges expired entries when the backend lacks native expiry and
// returns how many were removed.
func (t *TokenTemplate[T]) Sweep(ctx context.Context) (n int64, err error) {
	sweeper, ok := t.backend.(Sweeper)
	if !ok {
		return 0, nil
	}
	ctx, op := t.start(ctx, "sweep")
	defer func() { op.End(ctx, observability.OutcomeOK, err) }()

	n, err = sweeper.Sweep(ctx, t.opts.now())
	if err != nil {
		return 0, translate(t.resource, "sweep", err)
	}
	t.opts.Metrics.RecordSwept(ctx, t.resource, n)
	return n, nil
}

// AccessTokenRepository stores access tokens.
type AccessTokenRepository struct {
	tpl *TokenTemplate[domain.AccessToken]
}

// NewAccessTokenRepository returns an AccessTokenRepository over backend.
func NewAccessTokenRepository(backend TokenBackend[domain.AccessToken], opts ...Option) *AccessTokenRepository {
	return &AccessTokenRepository{tpl: NewTokenTemplate(accessTokenResource, backend, opts...)}
}

// Create issues token to userID. Blank tokens and nil users are logged and
// ignored with a nil result.
func (r *AccessTokenRepository) Create(ctx context.Context, token string, userID uuid.UUID) (*domain.AccessToken, error) {
	return r.CreateForClient(ctx, token, userID, uuid.Nil)
}

// CreateForClient issues token to userID on behalf of clientID.
func (r *AccessTokenRepository) CreateForClient(ctx context.Context, token string, userID, clientID uuid.UUID) (*domain.AccessToken, error) {
	at := domain.NewAccessToken(token, userID, clientID, r.tpl.Now(), r.tpl.TTL())
	stored, err := r.tpl.Create(ctx, at)
	if err != nil || !stored {
		return nil, err
	}
	return &at, nil
}

// GetByToken returns the live token, if any.
func (r *AccessTokenRepository) GetByToken(ctx context.Context, token string) (domain.AccessToken, bool, error) {
	return r.tpl.GetByKey(ctx, token)
}

// GetUserIDByToken returns the user a live token was issued to.
func (r *AccessTokenRepository) GetUserIDByToken(ctx context.Context, token string) (uuid.UUID, bool, error) {
	return r.tpl.GetUserIDByKey(ctx, token)
}

// DeleteByToken revokes token. Blank and unknown tokens are ignored.
func (r *AccessTokenRepository) DeleteByToken(ctx context.Context, token string) error {
	return r.tpl.DeleteByKey(ctx, token)
}

// Refresh restarts the lifetime of a live token and bumps its refresh count.
func (r *AccessTokenRepository) Refresh(ctx context.Context, token string) (domain.AccessToken, bool, error) {
	at, found, err := r.tpl.GetByKey(ctx, token)
	if err != nil || !found {
		return at, false, err
	}
	at.RefreshCount++
	at.ExpiresAt = r.tpl.Now().Add(r.tpl.TTL())
	if err := r.tpl.Replace(ctx, at); err != nil {
		return domain.AccessToken{}, false, err
	}
	return at, true, nil
}

// Resource names the stored entries.
func (r *AccessTokenRepository) Resource() string { return r.tpl.Resource() }

// Sweep purges expired tokens.
func (r *AccessTokenRepository) Sweep(ctx context.Context) (int64, error) { return r.tpl.Sweep(ctx) }

// AuthorizationCodeRepository stores single-use authorization codes.
type AuthorizationCodeRepository struct {
	tpl *TokenTemplate[domain.AuthorizationCode]
}

// NewAuthorizationCodeRepository returns an AuthorizationCodeRepository
// over backend.
func NewAuthorizationCodeRepository(backend TokenBackend[domain.AuthorizationCode], opts ...Option) *AuthorizationCodeRepository {
	return &AuthorizationCodeRepository{tpl: NewTokenTemplate(authorizationCodeResource, backend, opts...)}
}

// Create issues code to userID. Blank codes and nil users are logged and
// ignored with a nil result.
func (r *AuthorizationCodeRepository) Create(ctx context.Context, code string, userID uuid.UUID) (*domain.AuthorizationCode, error) {
	return r.CreateForClient(ctx, code, userID, uuid.Nil, "")
}

// CreateForClient issues code to userID for clientID and redirectURI.
func (r *AuthorizationCodeRepository) CreateForClient(ctx context.Context, code string, userID, clientID uuid.UUID, redirectURI string) (*domain.AuthorizationCode, error) {
	ac := domain.NewAuthorizationCode(code, userID, clientID, redirectURI, r.tpl.Now(), r.tpl.TTL())
	stored, err := r.tpl.Create(ctx, ac)
	if err != nil || !stored {
		return nil, err
	}
	return &ac, nil
}

// GetByCode returns the live code, if any.
func (r *AuthorizationCodeRepository) GetByCode(ctx context.Context, code string) (domain.AuthorizationCode, bool, error) {
	return r.tpl.GetByKey(ctx, code)
}

// GetUserIDByCode returns the user a live code was issued to.
func (r *AuthorizationCodeRepository) GetUserIDByCode(ctx context.Context, code string) (uuid.UUID, bool, error) {
	return r.tpl.GetUserIDByKey(ctx, code)
}

// DeleteByCode removes code. Blank and unknown codes are ignored.
func (r *AuthorizationCodeRepository) DeleteByCode(ctx context.Context, code string) error {
	return r.tpl.DeleteByKey(ctx, code)
}

// Consume returns and removes a live code so it can be exchanged only once.
func (r *AuthorizationCodeRepository) Consume(ctx context.Context, code string) (domain.AuthorizationCode, bool, error) {
	return r.tpl.Take(ctx, code)
}

// Resource names the stored entries.
func (r *AuthorizationCodeRepository) Resource() string { return r.tpl.Resource() }

// Sweep purges expired codes.
func (r *AuthorizationCodeRepository) Sweep(ctx context.Context) (int64, error) {
	return r.tpl.Sweep(ctx)
}
