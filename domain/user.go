package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kbukum/shoplist/validation"
)

// Visibility controls who may read a user profile.
type Visibility string

const (
	VisibilityPublic  Visibility = "PUBLIC"
	VisibilityPrivate Visibility = "PRIVATE"
)

var visibilities = []string{string(VisibilityPublic), string(VisibilityPrivate)}

const (
	maxNameLength  = 128
	maxEmailLength = 254
)

// User is the root identity.
type User struct {
	ID         uuid.UUID  `json:"id"`
	Name       string     `json:"name"`
	Email      string     `json:"email"`
	Visibility Visibility `json:"visibility"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// NewUser returns a validated user with a fresh id. An empty visibility
// defaults to PRIVATE.
func NewUser(name, email string, visibility Visibility) (*User, error) {
	if visibility == "" {
		visibility = VisibilityPrivate
	}
	u := &User{
		ID:         uuid.New(),
		Name:       strings.TrimSpace(name),
		Email:      NormalizeEmail(email),
		Visibility: visibility,
	}
	if err := u.Validate(); err != nil {
		return nil, err
	}
	return u, nil
}

// Validate checks the field invariants. Timestamps are checked only once set.
func (u *User) Validate() error {
	v := validation.New().
		NotNilUUID("id", u.ID).
		Required("name", u.Name).
		MaxLength("name", u.Name, maxNameLength).
		Required("email", u.Email).
		Email("email", u.Email).
		MaxLength("email", u.Email, maxEmailLength).
		OneOf("visibility", string(u.Visibility), visibilities)
	if !u.CreatedAt.IsZero() {
		v.Custom(!u.UpdatedAt.Before(u.CreatedAt), "updated_at", "must not precede created_at")
	}
	return v.Err()
}

// IsPublic reports whether anyone may read the profile.
func (u *User) IsPublic() bool {
	return u.Visibility == VisibilityPublic
}

// NormalizeEmail trims and lower-cases an address so uniqueness is
// case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// SecuredUser is a User with its password credential.
type SecuredUser struct {
	User
	PasswordHash string `json:"-"`
	Salt         []byte `json:"-"`
}

// Validate checks the user fields and that a credential is present.
func (s *SecuredUser) Validate() error {
	if err := s.User.Validate(); err != nil {
		return err
	}
	return validation.New().
		Required("password_hash", s.PasswordHash).
		Custom(len(s.Salt) > 0, "salt", "is required").
		Err()
}
