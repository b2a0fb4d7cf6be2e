package repository

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kbukum/shoplist/domain"
)

// calls counts backend invocations by method name.
type calls struct {
	mu sync.Mutex
	n  map[string]int
}

func (c *calls) inc(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.n == nil {
		c.n = map[string]int{}
	}
	c.n[name]++
}

func (c *calls) total() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	sum := 0
	for _, v := range c.n {
		sum += v
	}
	return sum
}

func (c *calls) get(name string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.n[name]
}

type fakeEntities[E any] struct {
	calls
	id   func(*E) uuid.UUID
	rows map[uuid.UUID]E
	// unique reports whether two entities collide on a unique field.
	unique func(a, b *E) bool
	err    error
}

func newFakeEntities[E any](id func(*E) uuid.UUID, unique func(a, b *E) bool) *fakeEntities[E] {
	return &fakeEntities[E]{id: id, unique: unique, rows: map[uuid.UUID]E{}}
}

func (f *fakeEntities[E]) Insert(_ context.Context, e E) error {
	f.inc("Insert")
	if f.err != nil {
		return f.err
	}
	if _, ok := f.rows[f.id(&e)]; ok {
		return ErrDuplicate
	}
	for _, row := range f.rows {
		if f.unique != nil && f.unique(&row, &e) {
			return ErrDuplicate
		}
	}
	f.rows[f.id(&e)] = e
	return nil
}

func (f *fakeEntities[E]) FindByID(_ context.Context, id uuid.UUID) (E, bool, error) {
	f.inc("FindByID")
	if f.err != nil {
		var zero E
		return zero, false, f.err
	}
	e, ok := f.rows[id]
	return e, ok, nil
}

func (f *fakeEntities[E]) UpdateByID(_ context.Context, id uuid.UUID, e E) error {
	f.inc("UpdateByID")
	if f.err != nil {
		return f.err
	}
	if _, ok := f.rows[id]; !ok {
		return ErrNotFound
	}
	f.rows[id] = e
	return nil
}

func (f *fakeEntities[E]) DeleteByID(_ context.Context, id uuid.UUID) error {
	f.inc("DeleteByID")
	if f.err != nil {
		return f.err
	}
	delete(f.rows, id)
	return nil
}

type fakeUsers struct {
	*fakeEntities[domain.SecuredUser]
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{newFakeEntities(
		func(u *domain.SecuredUser) uuid.UUID { return u.ID },
		func(a, b *domain.SecuredUser) bool { return a.Email == b.Email },
	)}
}

func (f *fakeUsers) FindByEmail(_ context.Context, email string) (domain.SecuredUser, bool, error) {
	f.inc("FindByEmail")
	if f.err != nil {
		return domain.SecuredUser{}, false, f.err
	}
	for _, u := range f.rows {
		if u.Email == email {
			return u, true, nil
		}
	}
	return domain.SecuredUser{}, false, nil
}

type fakeClientApps struct {
	*fakeEntities[domain.ClientApp]
}

func newFakeClientApps() *fakeClientApps {
	return &fakeClientApps{newFakeEntities(func(a *domain.ClientApp) uuid.UUID { return a.ID }, nil)}
}

func (f *fakeClientApps) ListByOwner(_ context.Context, ownerID uuid.UUID) ([]domain.ClientApp, error) {
	f.inc("ListByOwner")
	var out []domain.ClientApp
	for _, a := range f.rows {
		if a.OwnerID == ownerID {
			out = append(out, a)
		}
	}
	return out, nil
}

type fakeTokens[T domain.Expiring] struct {
	calls
	rows map[string]T
	err  error
}

func newFakeTokens[T domain.Expiring]() *fakeTokens[T] {
	return &fakeTokens[T]{rows: map[string]T{}}
}

func (f *fakeTokens[T]) live(key string, now time.Time) (T, bool) {
	t, ok := f.rows[key]
	if !ok || !now.Before(t.Expiry()) {
		var zero T
		return zero, false
	}
	return t, true
}

func (f *fakeTokens[T]) Insert(_ context.Context, t T, now time.Time) error {
	f.inc("Insert")
	if f.err != nil {
		return f.err
	}
	if _, ok := f.live(t.Key(), now); ok {
		return ErrDuplicate
	}
	f.rows[t.Key()] = t
	return nil
}

func (f *fakeTokens[T]) FindByKey(_ context.Context, key string, now time.Time) (T, bool, error) {
	f.inc("FindByKey")
	if f.err != nil {
		var zero T
		return zero, false, f.err
	}
	t, ok := f.live(key, now)
	return t, ok, nil
}

func (f *fakeTokens[T]) Replace(_ context.Context, t T, now time.Time) error {
	f.inc("Replace")
	if _, ok := f.live(t.Key(), now); !ok {
		return ErrNotFound
	}
	f.rows[t.Key()] = t
	return nil
}

func (f *fakeTokens[T]) DeleteByKey(_ context.Context, key string) error {
	f.inc("DeleteByKey")
	delete(f.rows, key)
	return nil
}

func (f *fakeTokens[T]) Take(_ context.Context, key string, now time.Time) (T, bool, error) {
	f.inc("Take")
	t, ok := f.live(key, now)
	delete(f.rows, key)
	return t, ok, nil
}

func (f *fakeTokens[T]) Sweep(_ context.Context, now time.Time) (int64, error) {
	f.inc("Sweep")
	var n int64
	for k, t := range f.rows {
		if !now.Before(t.Expiry()) {
			delete(f.rows, k)
			n++
		}
	}
	return n, nil
}

// clock is a settable time source.
type clock struct{ t time.Time }

func newClock() *clock { return &clock{t: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)} }

func (c *clock) Now() time.Time          { return c.t }
func (c *clock) Advance(d time.Duration) { c.t = c.t.Add(d) }
