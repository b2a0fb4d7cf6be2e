package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kbukum/shoplist/validation"
)

// ClientApp is a third-party application registered by a user to obtain
// OAuth2 access tokens on behalf of users.
type ClientApp struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	OwnerID     uuid.UUID `json:"owner_id"`
	RedirectURI string    `json:"redirect_uri"`
	SecretHash  string    `json:"-"`
	Salt        []byte    `json:"-"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// NewClientApp returns a validated client app with a fresh id. The secret
// is set by the repository.
func NewClientApp(name string, ownerID uuid.UUID, redirectURI string) (*ClientApp, error) {
	app := &ClientApp{
		ID:          uuid.New(),
		Name:        strings.TrimSpace(name),
		OwnerID:     ownerID,
		RedirectURI: strings.TrimSpace(redirectURI),
	}
	if err := app.Validate(); err != nil {
		return nil, err
	}
	return app, nil
}

// Validate checks the field invariants.
func (a *ClientApp) Validate() error {
	v := validation.New().
		NotNilUUID("id", a.ID).
		Required("name", a.Name).
		MaxLength("name", a.Name, maxNameLength).
		NotNilUUID("owner_id", a.OwnerID).
		Required("redirect_uri", a.RedirectURI).
		AbsoluteURL("redirect_uri", a.RedirectURI)
	if !a.CreatedAt.IsZero() {
		v.Custom(!a.UpdatedAt.Before(a.CreatedAt), "updated_at", "must not precede created_at")
	}
	return v.Err()
}

// OwnedBy reports whether userID owns the app.
func (a *ClientApp) OwnedBy(userID uuid.UUID) bool {
	return userID != uuid.Nil && a.OwnerID == userID
}
