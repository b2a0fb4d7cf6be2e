package auth

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/kbukum/shoplist/domain"
)

// BasicAuthenticator resolves email and password credentials.
type BasicAuthenticator struct {
	store CredentialStore
	// decoy is verified on unknown emails so a miss costs one hash as well.
	decoy domain.SecuredUser
}

var _ Authenticator = (*BasicAuthenticator)(nil)

// NewBasicAuthenticator returns a Basic authenticator over store.
func NewBasicAuthenticator(store CredentialStore) *BasicAuthenticator {
	return &BasicAuthenticator{
		store: store,
		decoy: domain.SecuredUser{PasswordHash: "decoy", Salt: make([]byte, 16)},
	}
}

func (a *BasicAuthenticator) Scheme() Scheme { return SchemeBasic }

// Authenticate decodes base64("email:password") and checks it.
func (a *BasicAuthenticator) Authenticate(ctx context.Context, credentials string) (Principal, bool, error) {
	email, password, ok := parseBasic(credentials)
	if !ok {
		return Anonymous(), false, nil
	}
	return a.AuthenticateCredentials(ctx, email, password)
}

// AuthenticateCredentials checks password against the stored credential of
// the user registered with email.
func (a *BasicAuthenticator) AuthenticateCredentials(ctx context.Context, email, password string) (Principal, bool, error) {
	u, found, err := a.store.GetByEmail(ctx, email)
	if err != nil {
		return Anonymous(), false, err
	}
	if !found {
		a.store.VerifyPassword(a.decoy, password)
		return Anonymous(), false, nil
	}
	if !a.store.VerifyPassword(u, password) {
		return Anonymous(), false, nil
	}
	return Principal{Scheme: SchemeBasic, User: u.User}, true, nil
}

func (a *BasicAuthenticator) Challenge(realm string, _ bool) string {
	return fmt.Sprintf(`Basic realm=%q, charset="UTF-8"`, realm)
}

func parseBasic(credentials string) (email, password string, ok bool) {
	raw, err := base64.StdEncoding.DecodeString(strings.TrimSpace(credentials))
	if err != nil {
		return "", "", false
	}
	email, password, ok = strings.Cut(string(raw), ":")
	if !ok || strings.TrimSpace(email) == "" {
		return "", "", false
	}
	return email, password, true
}

// BasicCredentials encodes email and password for an Authorization header.
func BasicCredentials(email, password string) string {
	return base64.StdEncoding.EncodeToString([]byte(email + ":" + password))
}
