package repository

import (
	"context"
	stderrors "errors"
	"time"

	"github.com/google/uuid"

	"github.com/kbukum/shoplist/errors"
	"github.com/kbukum/shoplist/logger"
	"github.com/kbukum/shoplist/observability"
)

// Traits describes an entity to Template.
type Traits[E any] struct {
	// Resource names the entity in errors, logs and spans.
	Resource string
	ID       func(*E) uuid.UUID
	SetID    func(*E, uuid.UUID)
	// Stamp sets both creation and last-update timestamps.
	Stamp func(e *E, now time.Time)
	// Touch sets the last-update timestamp.
	Touch func(e *E, now time.Time)
	// Merge copies the mutable fields of src onto dst.
	Merge    func(dst, src *E)
	Validate func(*E) error
	// SetSecret stores a hash and the salt that produced it. Nil for
	// entities without a secret.
	SetSecret func(e *E, hash string, salt []byte)
	// CheckSecret rejects unacceptable secrets with an AppError.
	CheckSecret func(secret string) error
}

// Template enforces create, lookup, update and delete semantics over a
// Backend.
type Template[E any] struct {
	backend Backend[E]
	traits  Traits[E]
	opts    Options
	log     *logger.Logger
}

// NewTemplate returns a Template for the entity described by traits.
func NewTemplate[E any](backend Backend[E], traits Traits[E], opts ...Option) *Template[E] {
	o := buildOptions(opts)
	return &Template[E]{
		backend: backend,
		traits:  traits,
		opts:    o,
		log:     o.Logger.WithComponent("repository").WithFields(logger.Fields(logger.FieldResource, traits.Resource)),
	}
}

func (t *Template[E]) start(ctx context.Context, op string) (context.Context, *observability.Operation) {
	return observability.StartOperation(ctx, t.opts.Metrics, "repository", t.traits.Resource, op)
}

// Create stores e. A nil e is logged and ignored.
func (t *Template[E]) Create(ctx context.Context, e *E) (err error) {
	ctx, op := t.start(ctx, "create")
	outcome := observability.OutcomeOK
	defer func() { op.End(ctx, outcome, err) }()

	if e == nil {
		outcome = observability.OutcomeNoop
		t.log.WithContext(ctx).Warn("Create called with nil entity")
		return nil
	}
	return t.insert(ctx, e)
}

// CreateWithSecret salts and hashes secret onto e, then stores it. A nil e
// is logged and ignored; an unacceptable secret fails before storage.
func (t *Template[E]) CreateWithSecret(ctx context.Context, e *E, secret string) (err error) {
	ctx, op := t.start(ctx, "create")
	outcome := observability.OutcomeOK
	defer func() { op.End(ctx, outcome, err) }()

	if e == nil {
		outcome = observability.OutcomeNoop
		t.log.WithContext(ctx).Warn("Create called with nil entity")
		return nil
	}
	if err := t.traits.CheckSecret(secret); err != nil {
		return err
	}
	if err := t.applySecret(e, secret); err != nil {
		return err
	}
	return t.insert(ctx, e)
}

func (t *Template[E]) insert(ctx context.Context, e *E) error {
	now := t.opts.now()
	t.traits.Stamp(e, now)
	if t.traits.ID(e) == uuid.Nil {
		t.traits.SetID(e, uuid.New())
	}
	if err := t.traits.Validate(e); err != nil {
		return err
	}
	if err := t.backend.Insert(ctx, *e); err != nil {
		return t.backendError("create", err)
	}
	t.log.WithContext(ctx).Debug("Entity created", logger.Fields("id", t.traits.ID(e).String()))
	return nil
}

func (t *Template[E]) applySecret(e *E, secret string) error {
	salt, err := t.opts.Hasher.NewSalt()
	if err != nil {
		return errors.Internal(err)
	}
	t.traits.SetSecret(e, t.opts.Hasher.Hash(secret, salt), salt)
	return nil
}

// GetByID returns the entity with id. A nil id is absent without a backend
// call.
func (t *Template[E]) GetByID(ctx context.Context, id uuid.UUID) (e E, found bool, err error) {
	ctx, op := t.start(ctx, "get")
	outcome := observability.OutcomeOK
	defer func() { op.End(ctx, outcome, err) }()

	if id == uuid.Nil {
		outcome = observability.OutcomeNoop
		return e, false, nil
	}
	e, found, err = t.backend.FindByID(ctx, id)
	if err != nil {
		return e, false, t.backendError("get", err)
	}
	if !found {
		outcome = observability.OutcomeNotFound
	}
	return e, found, nil
}

// FindByID is GetByID failing with NOT_FOUND on absence.
func (t *Template[E]) FindByID(ctx context.Context, id uuid.UUID) (E, error) {
	e, found, err := t.GetByID(ctx, id)
	if err != nil {
		return e, err
	}
	if !found {
		return e, errors.NotFound(t.traits.Resource, idString(id))
	}
	return e, nil
}

// Update merges the mutable fields of e onto the stored entity. It never
// inserts: an unknown id fails with NOT_FOUND before the backend update.
func (t *Template[E]) Update(ctx context.Context, e *E) (updated E, err error) {
	if e == nil {
		t.log.WithContext(ctx).Warn("Update called with nil entity")
		return updated, nil
	}
	id := t.traits.ID(e)
	existing, err := t.FindByID(ctx, id)
	if err != nil {
		return updated, err
	}

	ctx, op := t.start(ctx, "update")
	defer func() { op.End(ctx, observability.OutcomeOK, err) }()

	t.traits.Merge(&existing, e)
	t.traits.Touch(&existing, t.opts.now())
	if err := t.traits.Validate(&existing); err != nil {
		return updated, err
	}
	if err := t.backend.UpdateByID(ctx, id, existing); err != nil {
		return updated, t.backendError("update", err)
	}
	return existing, nil
}

// ChangeSecret re-salts and rehashes the secret of the entity with id.
func (t *Template[E]) ChangeSecret(ctx context.Context, id uuid.UUID, secret string) (updated E, err error) {
	if err := t.traits.CheckSecret(secret); err != nil {
		return updated, err
	}
	existing, err := t.FindByID(ctx, id)
	if err != nil {
		return updated, err
	}

	ctx, op := t.start(ctx, "change_secret")
	defer func() { op.End(ctx, observability.OutcomeOK, err) }()

	if err := t.applySecret(&existing, secret); err != nil {
		return updated, err
	}
	t.traits.Touch(&existing, t.opts.now())
	if err := t.backend.UpdateByID(ctx, id, existing); err != nil {
		return updated, t.backendError("change_secret", err)
	}
	t.log.WithContext(ctx).Info("Secret changed", logger.Fields("id", id.String()))
	return existing, nil
}

// DeleteByID removes the entity with id. A nil id is logged and ignored;
// an unknown id is not an error.
func (t *Template[E]) DeleteByID(ctx context.Context, id uuid.UUID) (err error) {
	ctx, op := t.start(ctx, "delete")
	outcome := observability.OutcomeOK
	defer func() { op.End(ctx, outcome, err) }()

	if id == uuid.Nil {
		outcome = observability.OutcomeNoop
		t.log.WithContext(ctx).Warn("DeleteByID called with nil id")
		return nil
	}
	if err := t.backend.DeleteByID(ctx, id); err != nil {
		return t.backendError("delete", err)
	}
	return nil
}

// Verify reports whether secret matches the stored credential of e.
func (t *Template[E]) Verify(secret string, salt []byte, hash string) bool {
	return t.opts.Hasher.Verify(secret, salt, hash)
}

func (t *Template[E]) backendError(op string, err error) error {
	return translate(t.traits.Resource, op, err)
}

// translate maps backend sentinels onto AppErrors and wraps everything else.
func translate(resource, op string, err error) error {
	switch {
	case stderrors.Is(err, ErrDuplicate):
		return errors.AlreadyExisting(resource).WithCause(err)
	case stderrors.Is(err, ErrNotFound):
		return errors.NotFound(resource, "").WithCause(err)
	default:
		return errors.Application(resource+"."+op, err)
	}
}

func idString(id uuid.UUID) string {
	if id == uuid.Nil {
		return ""
	}
	return id.String()
}
