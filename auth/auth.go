package auth

import (
	"context"

	"github.com/google/uuid"

	"github.com/kbukum/shoplist/domain"
)

// Authenticator resolves the credentials of one Authorization scheme to a
// principal. A miss of any kind, whether unknown identity, wrong secret or
// malformed credentials, is (Anonymous, false, nil); an error means storage
// failed.
type Authenticator interface {
	Scheme() Scheme
	Authenticate(ctx context.Context, credentials string) (Principal, bool, error)
	// Challenge is the WWW-Authenticate value for realm. rejected is true
	// when credentials of this scheme were presented and refused.
	Challenge(realm string, rejected bool) string
}

// CredentialStore looks up users by email and checks their passwords.
type CredentialStore interface {
	GetByEmail(ctx context.Context, email string) (domain.SecuredUser, bool, error)
	VerifyPassword(u domain.SecuredUser, password string) bool
}

// TokenStore resolves live access tokens.
type TokenStore interface {
	GetByToken(ctx context.Context, token string) (domain.AccessToken, bool, error)
}

// UserStore resolves users by id.
type UserStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (domain.User, bool, error)
}
