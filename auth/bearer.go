package auth

import (
	"context"
	"fmt"
	"strings"
)

// BearerAuthenticator resolves opaque access tokens.
type BearerAuthenticator struct {
	tokens TokenStore
	users  UserStore
}

var _ Authenticator = (*BearerAuthenticator)(nil)

// NewBearerAuthenticator returns a Bearer authenticator resolving tokens
// through tokens and their owners through users.
func NewBearerAuthenticator(tokens TokenStore, users UserStore) *BearerAuthenticator {
	return &BearerAuthenticator{tokens: tokens, users: users}
}

func (a *BearerAuthenticator) Scheme() Scheme { return SchemeBearer }

// Authenticate resolves token to its owner. Expired tokens and tokens whose
// owner has been deleted are misses.
func (a *BearerAuthenticator) Authenticate(ctx context.Context, token string) (Principal, bool, error) {
	token = strings.TrimSpace(token)
	at, found, err := a.tokens.GetByToken(ctx, token)
	if err != nil || !found {
		return Anonymous(), false, err
	}
	u, found, err := a.users.GetByID(ctx, at.UserID)
	if err != nil || !found {
		return Anonymous(), false, err
	}
	return Principal{Scheme: SchemeBearer, User: u, ClientID: at.ClientID}, true, nil
}

func (a *BearerAuthenticator) Challenge(realm string, rejected bool) string {
	if rejected {
		return fmt.Sprintf(`Bearer realm=%q, error="invalid_token"`, realm)
	}
	return fmt.Sprintf(`Bearer realm=%q`, realm)
}
