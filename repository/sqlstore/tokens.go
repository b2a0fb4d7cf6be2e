package sqlstore

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/kbukum/shoplist/database"
	"github.com/kbukum/shoplist/domain"
	"github.com/kbukum/shoplist/repository"
)

// tokenStore maps an expiring domain type T onto the gorm model R whose
// unique key lives in column.
type tokenStore[T domain.Expiring, R any] struct {
	db      *database.DB
	column  string
	toRow   func(T) R
	fromRow func(R) T
	// mutable lists the columns Replace may overwrite.
	mutable func(T) map[string]interface{}
}

func (s *tokenStore[T, R]) live(tx *gorm.DB, key string, now time.Time) *gorm.DB {
	return tx.Where(s.column+" = ? AND expires_at > ?", key, now.UTC())
}

// Insert clears an expired entry holding the key before creating, so only
// a live entry makes the key a duplicate.
func (s *tokenStore[T, R]) Insert(ctx context.Context, t T, now time.Time) error {
	row := s.toRow(t)
	err := s.db.WithTransaction(ctx, func(tx *gorm.DB) error {
		if err := tx.Where(s.column+" = ? AND expires_at <= ?", t.Key(), now.UTC()).Delete(new(R)).Error; err != nil {
			return err
		}
		return tx.Create(&row).Error
	})
	return translateWrite(err)
}

func (s *tokenStore[T, R]) FindByKey(ctx context.Context, key string, now time.Time) (T, bool, error) {
	var row R
	found, err := first(s.live(s.db.WithContext(ctx), key, now), &row)
	if err != nil || !found {
		var zero T
		return zero, false, err
	}
	return s.fromRow(row), true, nil
}

func (s *tokenStore[T, R]) Replace(ctx context.Context, t T, now time.Time) error {
	res := s.live(s.db.WithContext(ctx).Model(new(R)), t.Key(), now).Updates(s.mutable(t))
	return affected(res.RowsAffected, res.Error)
}

func (s *tokenStore[T, R]) DeleteByKey(ctx context.Context, key string) error {
	return s.db.WithContext(ctx).Where(s.column+" = ?", key).Delete(new(R)).Error
}

// Take reads the live entry and deletes it in one transaction. A delete
// that removes nothing means a concurrent Take won.
func (s *tokenStore[T, R]) Take(ctx context.Context, key string, now time.Time) (T, bool, error) {
	var (
		row   R
		found bool
	)
	err := s.db.WithTransaction(ctx, func(tx *gorm.DB) error {
		var err error
		found, err = first(s.live(tx, key, now), &row)
		if err != nil || !found {
			return err
		}
		res := tx.Where(s.column+" = ?", key).Delete(new(R))
		if res.Error != nil {
			return res.Error
		}
		found = res.RowsAffected > 0
		return nil
	})
	if err != nil || !found {
		var zero T
		return zero, false, err
	}
	return s.fromRow(row), true, nil
}

// Sweep deletes entries expired at now.
func (s *tokenStore[T, R]) Sweep(ctx context.Context, now time.Time) (int64, error) {
	res := s.db.WithContext(ctx).Where("expires_at <= ?", now.UTC()).Delete(new(R))
	return res.RowsAffected, res.Error
}

// AccessTokens is a gorm repository.TokenBackend for access tokens.
type AccessTokens struct {
	*tokenStore[domain.AccessToken, accessTokenRow]
}

var (
	_ repository.TokenBackend[domain.AccessToken] = (*AccessTokens)(nil)
	_ repository.Sweeper                          = (*AccessTokens)(nil)
)

// NewAccessTokens returns an access token backend on db.
func NewAccessTokens(db *database.DB) *AccessTokens {
	return &AccessTokens{&tokenStore[domain.AccessToken, accessTokenRow]{
		db:      db,
		column:  "token",
		toRow:   accessTokenToRow,
		fromRow: accessTokenRow.toDomain,
		mutable: func(t domain.AccessToken) map[string]interface{} {
			return map[string]interface{}{
				"refresh_count": t.RefreshCount,
				"expires_at":    t.ExpiresAt.UTC(),
			}
		},
	}}
}

// AuthorizationCodes is a gorm repository.TokenBackend for authorization
// codes.
type AuthorizationCodes struct {
	*tokenStore[domain.AuthorizationCode, authorizationCodeRow]
}

var (
	_ repository.TokenBackend[domain.AuthorizationCode] = (*AuthorizationCodes)(nil)
	_ repository.Sweeper                                = (*AuthorizationCodes)(nil)
)

// NewAuthorizationCodes returns an authorization code backend on db.
func NewAuthorizationCodes(db *database.DB) *AuthorizationCodes {
	return &AuthorizationCodes{&tokenStore[domain.AuthorizationCode, authorizationCodeRow]{
		db:      db,
		column:  "code",
		toRow:   authorizationCodeToRow,
		fromRow: authorizationCodeRow.toDomain,
		mutable: func(c domain.AuthorizationCode) map[string]interface{} {
			return map[string]interface{}{
				"redirect_uri": c.RedirectURI,
				"expires_at":   c.ExpiresAt.UTC(),
			}
		},
	}}
}
