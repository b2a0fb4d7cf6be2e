package domain

import (
	"time"

	"github.com/google/uuid"
)

// Expiring is implemented by entities that stop resolving after a deadline.
type Expiring interface {
	AccessToken | AuthorizationCode
	// Key is the unique lookup string.
	Key() string
	// Owner is the user the entry was issued to.
	Owner() uuid.UUID
	// Expiry is the instant after which lookups must miss.
	Expiry() time.Time
}

// AccessToken is an opaque bearer credential.
type AccessToken struct {
	ID           uuid.UUID `json:"id"`
	Token        string    `json:"-"`
	UserID       uuid.UUID `json:"user_id"`
	ClientID     uuid.UUID `json:"client_id,omitempty"`
	RefreshCount int       `json:"refresh_count"`
	CreatedAt    time.Time `json:"created_at"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// NewAccessToken issues token to userID at now for ttl.
func NewAccessToken(token string, userID, clientID uuid.UUID, now time.Time, ttl time.Duration) AccessToken {
	return AccessToken{
		ID:        uuid.New(),
		Token:     token,
		UserID:    userID,
		ClientID:  clientID,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}
}

func (t AccessToken) Key() string       { return t.Token }
func (t AccessToken) Owner() uuid.UUID  { return t.UserID }
func (t AccessToken) Expiry() time.Time { return t.ExpiresAt }

// Expired reports whether the token no longer resolves at now.
func (t AccessToken) Expired(now time.Time) bool {
	return !now.Before(t.ExpiresAt)
}

// AuthorizationCode is a single-use code exchanged for an access token.
type AuthorizationCode struct {
	ID          uuid.UUID `json:"id"`
	Code        string    `json:"-"`
	UserID      uuid.UUID `json:"user_id"`
	ClientID    uuid.UUID `json:"client_id,omitempty"`
	RedirectURI string    `json:"redirect_uri,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// NewAuthorizationCode issues code to userID for clientID at now for ttl.
func NewAuthorizationCode(code string, userID, clientID uuid.UUID, redirectURI string, now time.Time, ttl time.Duration) AuthorizationCode {
	return AuthorizationCode{
		ID:          uuid.New(),
		Code:        code,
		UserID:      userID,
		ClientID:    clientID,
		RedirectURI: redirectURI,
		CreatedAt:   now,
		ExpiresAt:   now.Add(ttl),
	}
}

func (c AuthorizationCode) Key() string       { return c.Code }
func (c AuthorizationCode) Owner() uuid.UUID  { return c.UserID }
func (c AuthorizationCode) Expiry() time.Time { return c.ExpiresAt }

// Expired reports whether the code no longer resolves at now.
func (c AuthorizationCode) Expired(now time.Time) bool {
	return !now.Before(c.ExpiresAt)
}
