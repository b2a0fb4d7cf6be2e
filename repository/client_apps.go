package repository

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kbukum/shoplist/domain"
	"github.com/kbukum/shoplist/errors"
	"github.com/kbukum/shoplist/observability"
)

const clientAppResource = "client_app"

// ClientAppBackend stores registered client applications.
type ClientAppBackend interface {
	Backend[domain.ClientApp]
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]domain.ClientApp, error)
}

var clientAppTraits = Traits[domain.ClientApp]{
	Resource: clientAppResource,
	ID:       func(a *domain.ClientApp) uuid.UUID { return a.ID },
	SetID:    func(a *domain.ClientApp, id uuid.UUID) { a.ID = id },
	Stamp: func(a *domain.ClientApp, now time.Time) {
		a.CreatedAt, a.UpdatedAt = now, now
	},
	Touch: func(a *domain.ClientApp, now time.Time) { a.UpdatedAt = now },
	Merge: func(dst, src *domain.ClientApp) {
		if name := strings.TrimSpace(src.Name); name != "" {
			dst.Name = name
		}
		if uri := strings.TrimSpace(src.RedirectURI); uri != "" {
			dst.RedirectURI = uri
		}
	},
	Validate: func(a *domain.ClientApp) error {
		if err := a.Validate(); err != nil {
			return err
		}
		if a.SecretHash == "" || len(a.Salt) == 0 {
			return errors.UnsecureSecret()
		}
		return nil
	},
	SetSecret: func(a *domain.ClientApp, hash string, salt []byte) {
		a.SecretHash, a.Salt = hash, salt
	},
	CheckSecret: func(secret string) error {
		if strings.TrimSpace(secret) == "" {
			return errors.UnsecureSecret()
		}
		return nil
	},
}

// ClientAppRepository manages client applications and their secrets.
type ClientAppRepository struct {
	tpl     *Template[domain.ClientApp]
	backend ClientAppBackend
	opts    Options
}

// NewClientAppRepository returns a ClientAppRepository over backend.
func NewClientAppRepository(backend ClientAppBackend, opts ...Option) *ClientAppRepository {
	return &ClientAppRepository{
		tpl:     NewTemplate(backend, clientAppTraits, opts...),
		backend: backend,
		opts:    buildOptions(opts),
	}
}

// Create registers app with secret. A nil app is logged and ignored; a
// blank secret fails with UNSECURE_SECRET before storage.
func (r *ClientAppRepository) Create(ctx context.Context, app *domain.ClientApp, secret string) error {
	return r.tpl.CreateWithSecret(ctx, app, secret)
}

// GetByID returns the app with id, if any.
func (r *ClientAppRepository) GetByID(ctx context.Context, id uuid.UUID) (domain.ClientApp, bool, error) {
	return r.tpl.GetByID(ctx, id)
}

// FindByID returns the app with id or NOT_FOUND.
func (r *ClientAppRepository) FindByID(ctx context.Context, id uuid.UUID) (domain.ClientApp, error) {
	return r.tpl.FindByID(ctx, id)
}

// Update changes the name and redirect URI of the app with app.ID.
func (r *ClientAppRepository) Update(ctx context.Context, app *domain.ClientApp) (domain.ClientApp, error) {
	return r.tpl.Update(ctx, app)
}

// ChangeSecret replaces the secret of the app with id.
func (r *ClientAppRepository) ChangeSecret(ctx context.Context, id uuid.UUID, secret string) (domain.ClientApp, error) {
	return r.tpl.ChangeSecret(ctx, id, secret)
}

// DeleteByID removes the app. Nil ids are ignored.
func (r *ClientAppRepository) DeleteByID(ctx context.Context, id uuid.UUID) error {
	return r.tpl.DeleteByID(ctx, id)
}

// ListByOwner returns the apps registered by ownerID, oldest first.
func (r *ClientAppRepository) ListByOwner(ctx context.Context, ownerID uuid.UUID) (apps []domain.ClientApp, err error) {
	ctx, op := observability.StartOperation(ctx, r.opts.Metrics, "repository", clientAppResource, "list")
	outcome := observability.OutcomeOK
	defer func() { op.End(ctx, outcome, err) }()

	if ownerID == uuid.Nil {
		outcome = observability.OutcomeNoop
		return nil, nil
	}
	apps, err = r.backend.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, translate(clientAppResource, "list", err)
	}
	return apps, nil
}

// VerifySecret reports whether secret matches the credential of app.
func (r *ClientAppRepository) VerifySecret(app domain.ClientApp, secret string) bool {
	return r.tpl.Verify(secret, app.Salt, app.SecretHash)
}
