// Package auth resolves request credentials to a Principal.
//
// Subpackages:
//
//   - auth/password: credential hashing (argon2id, pbkdf2-sha256) and opaque tokens
//   - auth/jwt: HMAC-signed JWTs for the jwt token format
//   - auth/authctx: principal propagation through a context
//
// The top-level package provides:
//
//   - Authenticator: one scheme's credential check (BasicAuthenticator, BearerAuthenticator)
//   - Dispatcher: selects the authenticator for an Authorization header
//   - Issuer: the authorization code flow and token lifecycle
//   - Config: realm, token format and TTLs, password policy
//
// Wiring:
//
//	d := auth.NewDispatcher([]auth.Authenticator{
//	    auth.NewBasicAuthenticator(securedUsers),
//	    auth.NewBearerAuthenticator(accessTokens, users),
//	})
//	res, err := d.Dispatch(ctx, r.Header.Get("Authorization"))
package auth
