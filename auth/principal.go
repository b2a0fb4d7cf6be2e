package auth

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/kbukum/shoplist/auth/authctx"
	"github.com/kbukum/shoplist/domain"
)

// Scheme names an Authorization header scheme.
type Scheme string

const (
	SchemeBasic  Scheme = "Basic"
	SchemeBearer Scheme = "Bearer"
)

// normalize returns the canonical registry key for a scheme name.
func normalize(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

// Principal is the identity a request acts as. The zero value is anonymous.
type Principal struct {
	// Scheme is empty for anonymous principals.
	Scheme Scheme
	User   domain.User
	// ClientID is set for bearer tokens issued to a client app.
	ClientID uuid.UUID
}

// Anonymous returns the principal of unauthenticated requests.
func Anonymous() Principal { return Principal{} }

// Authenticated reports whether p resolved to a user.
func (p Principal) Authenticated() bool { return p.User.ID != uuid.Nil }

// UserID returns the id of the user, or uuid.Nil when anonymous.
func (p Principal) UserID() uuid.UUID { return p.User.ID }

// WithPrincipal binds p to ctx.
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return authctx.Set(ctx, p)
}

// PrincipalFrom returns the principal bound to ctx, or Anonymous.
func PrincipalFrom(ctx context.Context) Principal {
	p, _ := authctx.Get[Principal](ctx)
	return p
}
