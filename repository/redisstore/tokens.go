package redisstore

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/kbukum/shoplist/domain"
	"github.com/kbukum/shoplist/redis"
	"github.com/kbukum/shoplist/repository"
)

// record is the stored form of an entry. The domain types hide their keys
// from JSON.
type record interface {
	accessTokenRecord | authorizationCodeRecord
}

type accessTokenRecord struct {
	ID           uuid.UUID `json:"id"`
	Token        string    `json:"token"`
	UserID       uuid.UUID `json:"user_id"`
	ClientID     uuid.UUID `json:"client_id"`
	RefreshCount int       `json:"refresh_count"`
	CreatedAt    time.Time `json:"created_at"`
	ExpiresAt    time.Time `json:"expires_at"`
}

type authorizationCodeRecord struct {
	ID          uuid.UUID `json:"id"`
	Code        string    `json:"code"`
	UserID      uuid.UUID `json:"user_id"`
	ClientID    uuid.UUID `json:"client_id"`
	RedirectURI string    `json:"redirect_uri"`
	CreatedAt   time.Time `json:"created_at"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// tokenStore maps T onto its record R in a TypedStore.
type tokenStore[T domain.Expiring, R record] struct {
	store    *redis.TypedStore[R]
	toRecord func(T) R
	fromRec  func(R) T
}

func newTokenStore[T domain.Expiring, R record](client *redis.Client, namespace string, to func(T) R, from func(R) T) *tokenStore[T, R] {
	prefix := namespace
	if p := client.KeyPrefix(); p != "" {
		prefix = p + ":" + namespace
	}
	return &tokenStore[T, R]{
		store:    redis.NewTypedStore[R](client, prefix),
		toRecord: to,
		fromRec:  from,
	}
}

// Insert writes t with SET NX. An entry already dead at now fails with
// ErrExpired since a zero TTL would make it permanent.
func (s *tokenStore[T, R]) Insert(ctx context.Context, t T, now time.Time) error {
	ttl := t.Expiry().Sub(now)
	if ttl <= 0 {
		return repository.ErrExpired
	}
	stored, err := s.store.Create(ctx, t.Key(), s.toRecord(t), ttl)
	if err != nil {
		return err
	}
	if !stored {
		return repository.ErrDuplicate
	}
	return nil
}

// FindByKey also checks the expiry against now, which may run ahead of
// the Redis clock.
func (s *tokenStore[T, R]) FindByKey(ctx context.Context, key string, now time.Time) (T, bool, error) {
	rec, found, err := s.store.Load(ctx, key)
	return s.live(rec, found, err, now)
}

func (s *tokenStore[T, R]) Replace(ctx context.Context, t T, now time.Time) error {
	ttl := t.Expiry().Sub(now)
	if ttl <= 0 {
		return s.store.Delete(ctx, t.Key())
	}
	stored, err := s.store.Replace(ctx, t.Key(), s.toRecord(t), ttl)
	if err != nil {
		return err
	}
	if !stored {
		return repository.ErrNotFound
	}
	return nil
}

func (s *tokenStore[T, R]) DeleteByKey(ctx context.Context, key string) error {
	return s.store.Delete(ctx, key)
}

func (s *tokenStore[T, R]) Take(ctx context.Context, key string, now time.Time) (T, bool, error) {
	rec, found, err := s.store.Take(ctx, key)
	return s.live(rec, found, err, now)
}

func (s *tokenStore[T, R]) live(rec R, found bool, err error, now time.Time) (T, bool, error) {
	var zero T
	if err != nil || !found {
		return zero, false, err
	}
	t := s.fromRec(rec)
	if !now.Before(t.Expiry()) {
		return zero, false, nil
	}
	return t, true, nil
}

// AccessTokens is a Redis repository.TokenBackend for access tokens.
type AccessTokens struct {
	*tokenStore[domain.AccessToken, accessTokenRecord]
}

var _ repository.TokenBackend[domain.AccessToken] = (*AccessTokens)(nil)

// NewAccessTokens stores tokens under "<prefix>:access_token:<token>".
func NewAccessTokens(client *redis.Client) *AccessTokens {
	return &AccessTokens{newTokenStore(client, "access_token",
		func(t domain.AccessToken) accessTokenRecord {
			return accessTokenRecord{
				ID: t.ID, Token: t.Token, UserID: t.UserID, ClientID: t.ClientID,
				RefreshCount: t.RefreshCount, CreatedAt: t.CreatedAt, ExpiresAt: t.ExpiresAt,
			}
		},
		func(r accessTokenRecord) domain.AccessToken {
			return domain.AccessToken{
				ID: r.ID, Token: r.Token, UserID: r.UserID, ClientID: r.ClientID,
				RefreshCount: r.RefreshCount, CreatedAt: r.CreatedAt, ExpiresAt: r.ExpiresAt,
			}
		},
	)}
}

// AuthorizationCodes is a Redis repository.TokenBackend for authorization
// codes.
type AuthorizationCodes struct {
	*tokenStore[domain.AuthorizationCode, authorizationCodeRecord]
}

var _ repository.TokenBackend[domain.AuthorizationCode] = (*AuthorizationCodes)(nil)

// NewAuthorizationCodes stores codes under "<prefix>:authorization_code:<code>".
func NewAuthorizationCodes(client *redis.Client) *AuthorizationCodes {
	return &AuthorizationCodes{newTokenStore(client, "authorization_code",
		func(c domain.AuthorizationCode) authorizationCodeRecord {
			return authorizationCodeRecord{
				ID: c.ID, Code: c.Code, UserID: c.UserID, ClientID: c.ClientID,
				RedirectURI: c.RedirectURI, CreatedAt: c.CreatedAt, ExpiresAt: c.ExpiresAt,
			}
		},
		func(r authorizationCodeRecord) domain.AuthorizationCode {
			return domain.AuthorizationCode{
				ID: r.ID, Code: r.Code, UserID: r.UserID, ClientID: r.ClientID,
				RedirectURI: r.RedirectURI, CreatedAt: r.CreatedAt, ExpiresAt: r.ExpiresAt,
			}
		},
	)}
}
