package memstore

import (
	"context"
	"sync"
	"time"

	"github.com/kbukum/shoplist/domain"
	"github.com/kbukum/shoplist/repository"
)

// Tokens is an in-memory repository.TokenBackend keyed by token or code.
type Tokens[T domain.Expiring] struct {
	mu    sync.RWMutex
	byKey map[string]T
}

var (
	_ repository.TokenBackend[domain.AccessToken]       = (*Tokens[domain.AccessToken])(nil)
	_ repository.TokenBackend[domain.AuthorizationCode] = (*Tokens[domain.AuthorizationCode])(nil)
	_ repository.Sweeper                                = (*Tokens[domain.AccessToken])(nil)
)

// NewTokens returns an empty token store.
func NewTokens[T domain.Expiring]() *Tokens[T] {
	return &Tokens[T]{byKey: map[string]T{}}
}

func live[T domain.Expiring](t T, now time.Time) bool {
	return now.Before(t.Expiry())
}

// Insert fails with ErrDuplicate only when a live entry holds the key; an
// expired one is replaced.
func (s *Tokens[T]) Insert(_ context.Context, t T, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if old, ok := s.byKey[t.Key()]; ok && live(old, now) {
		return repository.ErrDuplicate
	}
	s.byKey[t.Key()] = t
	return nil
}

func (s *Tokens[T]) FindByKey(_ context.Context, key string, now time.Time) (T, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.byKey[key]
	if !ok || !live(t, now) {
		var zero T
		return zero, false, nil
	}
	return t, true, nil
}

func (s *Tokens[T]) Replace(_ context.Context, t T, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	old, ok := s.byKey[t.Key()]
	if !ok || !live(old, now) {
		return repository.ErrNotFound
	}
	s.byKey[t.Key()] = t
	return nil
}

func (s *Tokens[T]) DeleteByKey(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.byKey, key)
	return nil
}

func (s *Tokens[T]) Take(_ context.Context, key string, now time.Time) (T, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.byKey[key]
	delete(s.byKey, key)
	if !ok || !live(t, now) {
		var zero T
		return zero, false, nil
	}
	return t, true, nil
}

// Sweep deletes entries expired at now.
func (s *Tokens[T]) Sweep(_ context.Context, now time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for k, t := range s.byKey {
		if !live(t, now) {
			delete(s.byKey, k)
			n++
		}
	}
	return n, nil
}

// Len returns the number of stored entries, expired ones included.
func (s *Tokens[T]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byKey)
}
