package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Backends report these sentinels; everything else is treated as a
// storage failure.
var (
	// ErrDuplicate: insert hit an existing id or unique field.
	ErrDuplicate = errors.New("repository: duplicate key")
	// ErrNotFound: update or replace targeted an absent entry.
	ErrNotFound = errors.New("repository: not found")
	// ErrExpired: insert of a token entry already dead at now.
	ErrExpired = errors.New("repository: entry already expired")
)

// Backend persists entities of type E keyed by id.
type Backend[E any] interface {
	// Insert fails with ErrDuplicate instead of overwriting.
	Insert(ctx context.Context, e E) error
	FindByID(ctx context.Context, id uuid.UUID) (E, bool, error)
	// UpdateByID fails with ErrNotFound when id is absent.
	UpdateByID(ctx context.Context, id uuid.UUID, e E) error
	// DeleteByID succeeds when id is absent.
	DeleteByID(ctx context.Context, id uuid.UUID) error
}

// TokenBackend persists expiring entries keyed by their unique string.
// Every read treats entries expired at now as absent.
type TokenBackend[T any] interface {
	// Insert fails with ErrDuplicate when the key exists and may fail with
	// ErrExpired for an entry already dead at now.
	Insert(ctx context.Context, t T, now time.Time) error
	FindByKey(ctx context.Context, key string, now time.Time) (T, bool, error)
	// Replace overwrites a live entry, failing with ErrNotFound otherwise.
	Replace(ctx context.Context, t T, now time.Time) error
	DeleteByKey(ctx context.Context, key string) error
	// Take atomically reads and deletes a live entry.
	Take(ctx context.Context, key string, now time.Time) (T, bool, error)
}

// Sweeper is implemented by token backends without native expiry.
type Sweeper interface {
	// Sweep deletes entries expired at now and returns how many.
	Sweep(ctx context.Context, now time.Time) (int64, error)
}
