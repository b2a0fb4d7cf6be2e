// Package authctx carries the authenticated principal through a request
// context. It is generic so the principal type stays owned by the caller:
//
//	ctx = authctx.Set(ctx, principal)
//	p, ok := authctx.Get[auth.Principal](ctx)
package authctx

import (
	"context"
	"errors"
)

type contextKey struct{}

var principalKey = contextKey{}

// ErrNoPrincipal is returned when the context holds no principal of the
// requested type.
var ErrNoPrincipal = errors.New("authctx: no principal in context")

// Set binds principal to ctx, replacing any earlier one.
func Set(ctx context.Context, principal any) context.Context {
	return context.WithValue(ctx, principalKey, principal)
}

// Get returns the principal bound to ctx if it has type T.
func Get[T any](ctx context.Context) (T, bool) {
	p, ok := ctx.Value(principalKey).(T)
	return p, ok
}

// GetOrError is Get reporting absence as ErrNoPrincipal.
func GetOrError[T any](ctx context.Context) (T, error) {
	p, ok := Get[T](ctx)
	if !ok {
		return p, ErrNoPrincipal
	}
	return p, nil
}

// MustGet panics when no principal of type T is bound. Only for handlers
// behind middleware that always binds one.
func MustGet[T any](ctx context.Context) T {
	p, ok := Get[T](ctx)
	if !ok {
		panic(ErrNoPrincipal)
	}
	return p
}
