package repository

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kbukum/shoplist/auth/password"
	"github.com/kbukum/shoplist/domain"
	"github.com/kbukum/shoplist/errors"
	"github.com/kbukum/shoplist/logger"
	"github.com/kbukum/shoplist/observability"
)

const userResource = "user"

// UserBackend stores users with their credentials. Email is unique.
type UserBackend interface {
	Backend[domain.SecuredUser]
	FindByEmail(ctx context.Context, email string) (domain.SecuredUser, bool, error)
}

func userTraits(policy password.Policy) Traits[domain.SecuredUser] {
	return Traits[domain.SecuredUser]{
		Resource: userResource,
		ID:       func(u *domain.SecuredUser) uuid.UUID { return u.ID },
		SetID:    func(u *domain.SecuredUser, id uuid.UUID) { u.ID = id },
		Stamp: func(u *domain.SecuredUser, now time.Time) {
			u.CreatedAt, u.UpdatedAt = now, now
		},
		Touch: func(u *domain.SecuredUser, now time.Time) { u.UpdatedAt = now },
		Merge: func(dst, src *domain.SecuredUser) {
			if name := strings.TrimSpace(src.Name); name != "" {
				dst.Name = name
			}
			if src.Visibility != "" {
				dst.Visibility = src.Visibility
			}
		},
		Validate: func(u *domain.SecuredUser) error { return u.Validate() },
		SetSecret: func(u *domain.SecuredUser, hash string, salt []byte) {
			u.PasswordHash, u.Salt = hash, salt
		},
		CheckSecret: func(secret string) error {
			if err := policy.Check(secret); err != nil {
				if stderrors.Is(err, password.ErrBlank) {
					return errors.UnsecurePassword("")
				}
				return errors.UnsecurePassword(fmt.Sprintf(
					"The password must be at least %d characters long.", policy.MinLength))
			}
			return nil
		},
	}
}

// findByEmail is shared by both user repositories.
func findByEmail(ctx context.Context, backend UserBackend, metrics *observability.Metrics, email string) (u domain.SecuredUser, found bool, err error) {
	ctx, op := observability.StartOperation(ctx, metrics, "repository", userResource, "get_by_email")
	outcome := observability.OutcomeOK
	defer func() { op.End(ctx, outcome, err) }()

	email = domain.NormalizeEmail(email)
	if email == "" {
		outcome = observability.OutcomeNoop
		return u, false, nil
	}
	u, found, err = backend.FindByEmail(ctx, email)
	if err != nil {
		return u, false, translate(userResource, "get_by_email", err)
	}
	if !found {
		outcome = observability.OutcomeNotFound
	}
	return u, found, nil
}

// UserRepository exposes users without their credentials.
type UserRepository struct {
	tpl     *Template[domain.SecuredUser]
	backend UserBackend
	opts    Options
}

// NewUserRepository returns a UserRepository over backend.
func NewUserRepository(backend UserBackend, opts ...Option) *UserRepository {
	o := buildOptions(opts)
	return &UserRepository{
		tpl:     NewTemplate(backend, userTraits(o.Policy), opts...),
		backend: backend,
		opts:    o,
	}
}

// GetByID returns the user with id, if any.
func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (domain.User, bool, error) {
	u, found, err := r.tpl.GetByID(ctx, id)
	return u.User, found, err
}

// FindByID returns the user with id or NOT_FOUND.
func (r *UserRepository) FindByID(ctx context.Context, id uuid.UUID) (domain.User, error) {
	u, err := r.tpl.FindByID(ctx, id)
	return u.User, err
}

// GetByEmail returns the user registered with email, if any.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (domain.User, bool, error) {
	u, found, err := findByEmail(ctx, r.backend, r.opts.Metrics, email)
	return u.User, found, err
}

// Update changes the name and visibility of the user with u.ID. The email,
// id, creation date and password never change here.
func (r *UserRepository) Update(ctx context.Context, u *domain.User) (domain.User, error) {
	if u == nil {
		r.tpl.log.WithContext(ctx).Warn("Update called with nil user")
		return domain.User{}, nil
	}
	updated, err := r.tpl.Update(ctx, &domain.SecuredUser{User: *u})
	return updated.User, err
}

// DeleteByID removes the user. Nil ids are ignored.
func (r *UserRepository) DeleteByID(ctx context.Context, id uuid.UUID) error {
	return r.tpl.DeleteByID(ctx, id)
}

// CheckUserExistsByIDOrEmail reports whether a user has id or email. Nil
// and blank inputs are never matched.
func (r *UserRepository) CheckUserExistsByIDOrEmail(ctx context.Context, id uuid.UUID, email string) (bool, error) {
	if id != uuid.Nil {
		_, found, err := r.tpl.GetByID(ctx, id)
		if err != nil || found {
			return found, err
		}
	}
	if strings.TrimSpace(email) == "" {
		return false, nil
	}
	_, found, err := findByEmail(ctx, r.backend, r.opts.Metrics, email)
	return found, err
}

// SecuredUserRepository manages users together with their passwords.
type SecuredUserRepository struct {
	tpl     *Template[domain.SecuredUser]
	users   *UserRepository
	backend UserBackend
	opts    Options
}

// NewSecuredUserRepository returns a SecuredUserRepository over backend.
func NewSecuredUserRepository(backend UserBackend, opts ...Option) *SecuredUserRepository {
	o := buildOptions(opts)
	return &SecuredUserRepository{
		tpl:     NewTemplate(backend, userTraits(o.Policy), opts...),
		users:   NewUserRepository(backend, opts...),
		backend: backend,
		opts:    o,
	}
}

// Create registers u with password. A nil u is logged and ignored. The
// password is checked before storage is touched; an id or email already in
// use fails with ALREADY_EXISTING.
func (r *SecuredUserRepository) Create(ctx context.Context, u *domain.User, pw string) (*domain.SecuredUser, error) {
	if u == nil {
		r.tpl.log.WithContext(ctx).Warn("Create called with nil user")
		return nil, nil
	}
	if err := r.tpl.traits.CheckSecret(pw); err != nil {
		return nil, err
	}

	su := &domain.SecuredUser{User: *u}
	su.Email = domain.NormalizeEmail(su.Email)
	exists, err := r.users.CheckUserExistsByIDOrEmail(ctx, su.ID, su.Email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, errors.AlreadyExisting(userResource).WithDetail(logger.FieldEmail, su.Email)
	}

	if err := r.tpl.CreateWithSecret(ctx, su, pw); err != nil {
		return nil, err
	}
	*u = su.User
	return su, nil
}

// GetByID returns the user and credential with id, if any.
func (r *SecuredUserRepository) GetByID(ctx context.Context, id uuid.UUID) (domain.SecuredUser, bool, error) {
	return r.tpl.GetByID(ctx, id)
}

// GetByEmail returns the user and credential registered with email, if any.
func (r *SecuredUserRepository) GetByEmail(ctx context.Context, email string) (domain.SecuredUser, bool, error) {
	return findByEmail(ctx, r.backend, r.opts.Metrics, email)
}

// ChangePassword replaces the password of the user with id under a new salt.
func (r *SecuredUserRepository) ChangePassword(ctx context.Context, id uuid.UUID, pw string) (domain.User, error) {
	u, err := r.tpl.ChangeSecret(ctx, id, pw)
	return u.User, err
}

// VerifyPassword reports whether pw matches the credential of u.
func (r *SecuredUserRepository) VerifyPassword(u domain.SecuredUser, pw string) bool {
	return r.tpl.Verify(pw, u.Salt, u.PasswordHash)
}
