package memstore

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/kbukum/shoplist/domain"
	"github.com/kbukum/shoplist/repository"
)

// Users is an in-memory repository.UserBackend.
type Users struct {
	mu      sync.RWMutex
	byID    map[uuid.UUID]domain.SecuredUser
	byEmail map[string]uuid.UUID
}

var _ repository.UserBackend = (*Users)(nil)

// NewUsers returns an empty user store.
func NewUsers() *Users {
	return &Users{
		byID:    map[uuid.UUID]domain.SecuredUser{},
		byEmail: map[string]uuid.UUID{},
	}
}

func (s *Users) Insert(_ context.Context, u domain.SecuredUser) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byID[u.ID]; ok {
		return repository.ErrDuplicate
	}
	if _, ok := s.byEmail[u.Email]; ok {
		return repository.ErrDuplicate
	}
	s.byID[u.ID] = cloneUser(u)
	s.byEmail[u.Email] = u.ID
	return nil
}

func (s *Users) FindByID(_ context.Context, id uuid.UUID) (domain.SecuredUser, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.byID[id]
	return cloneUser(u), ok, nil
}

func (s *Users) FindByEmail(_ context.Context, email string) (domain.SecuredUser, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byEmail[email]
	if !ok {
		return domain.SecuredUser{}, false, nil
	}
	return cloneUser(s.byID[id]), true, nil
}

func (s *Users) UpdateByID(_ context.Context, id uuid.UUID, u domain.SecuredUser) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	old, ok := s.byID[id]
	if !ok {
		return repository.ErrNotFound
	}
	if u.Email != old.Email {
		if _, taken := s.byEmail[u.Email]; taken {
			return repository.ErrDuplicate
		}
		delete(s.byEmail, old.Email)
		s.byEmail[u.Email] = id
	}
	u.ID = id
	s.byID[id] = cloneUser(u)
	return nil
}

func (s *Users) DeleteByID(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.byID[id]; ok {
		delete(s.byEmail, u.Email)
		delete(s.byID, id)
	}
	return nil
}

// cloneUser copies the salt so callers cannot mutate stored state.
func cloneUser(u domain.SecuredUser) domain.SecuredUser {
	if u.Salt != nil {
		u.Salt = append([]byte(nil), u.Salt...)
	}
	return u
}

// ClientApps is an in-memory repository.ClientAppBackend.
type ClientApps struct {
	mu   sync.RWMutex
	byID map[uuid.UUID]domain.ClientApp
}

var _ repository.ClientAppBackend = (*ClientApps)(nil)

// NewClientApps returns an empty client app store.
func NewClientApps() *ClientApps {
	return &ClientApps{byID: map[uuid.UUID]domain.ClientApp{}}
}

func (s *ClientApps) Insert(_ context.Context, a domain.ClientApp) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byID[a.ID]; ok {
		return repository.ErrDuplicate
	}
	s.byID[a.ID] = cloneApp(a)
	return nil
}

func (s *ClientApps) FindByID(_ context.Context, id uuid.UUID) (domain.ClientApp, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.byID[id]
	return cloneApp(a), ok, nil
}

func (s *ClientApps) UpdateByID(_ context.Context, id uuid.UUID, a domain.ClientApp) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byID[id]; !ok {
		return repository.ErrNotFound
	}
	a.ID = id
	s.byID[id] = cloneApp(a)
	return nil
}

func (s *ClientApps) DeleteByID(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.byID, id)
	return nil
}

// ListByOwner returns the apps of ownerID ordered by creation time.
func (s *ClientApps) ListByOwner(_ context.Context, ownerID uuid.UUID) ([]domain.ClientApp, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.ClientApp
	for _, a := range s.byID {
		if a.OwnerID == ownerID {
			out = append(out, cloneApp(a))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID.String() < out[j].ID.String()
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func cloneApp(a domain.ClientApp) domain.ClientApp {
	if a.Salt != nil {
		a.Salt = append([]byte(nil), a.Salt...)
	}
	return a
}
