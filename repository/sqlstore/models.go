package sqlstore

import (
	"time"

	"github.com/google/uuid"

	"github.com/kbukum/shoplist/domain"
)

// Timestamps are written by the repositories, never by gorm.

type userRow struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey"`
	Name         string    `gorm:"size:128;not null"`
	Email        string    `gorm:"size:254;not null;uniqueIndex"`
	Visibility   string    `gorm:"size:16;not null"`
	PasswordHash string    `gorm:"size:255;not null"`
	Salt         []byte    `gorm:"not null"`
	CreatedAt    time.Time `gorm:"not null;autoCreateTime:false"`
	UpdatedAt    time.Time `gorm:"not null;autoUpdateTime:false"`
}

func (userRow) TableName() string { return "users" }

func userToRow(u domain.SecuredUser) userRow {
	return userRow{
		ID:           u.ID,
		Name:         u.Name,
		Email:        u.Email,
		Visibility:   string(u.Visibility),
		PasswordHash: u.PasswordHash,
		Salt:         u.Salt,
		CreatedAt:    u.CreatedAt.UTC(),
		UpdatedAt:    u.UpdatedAt.UTC(),
	}
}

func (r userRow) toDomain() domain.SecuredUser {
	return domain.SecuredUser{
		User: domain.User{
			ID:         r.ID,
			Name:       r.Name,
			Email:      r.Email,
			Visibility: domain.Visibility(r.Visibility),
			CreatedAt:  r.CreatedAt.UTC(),
			UpdatedAt:  r.UpdatedAt.UTC(),
		},
		PasswordHash: r.PasswordHash,
		Salt:         r.Salt,
	}
}

type clientAppRow struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey"`
	Name        string    `gorm:"size:128;not null"`
	OwnerID     uuid.UUID `gorm:"type:uuid;not null;index"`
	RedirectURI string    `gorm:"size:2048;not null"`
	SecretHash  string    `gorm:"size:255;not null"`
	Salt        []byte    `gorm:"not null"`
	CreatedAt   time.Time `gorm:"not null;autoCreateTime:false"`
	UpdatedAt   time.Time `gorm:"not null;autoUpdateTime:false"`
}

func (clientAppRow) TableName() string { return "client_apps" }

func clientAppToRow(a domain.ClientApp) clientAppRow {
	return clientAppRow{
		ID:          a.ID,
		Name:        a.Name,
		OwnerID:     a.OwnerID,
		RedirectURI: a.RedirectURI,
		SecretHash:  a.SecretHash,
		Salt:        a.Salt,
		CreatedAt:   a.CreatedAt.UTC(),
		UpdatedAt:   a.UpdatedAt.UTC(),
	}
}

func (r clientAppRow) toDomain() domain.ClientApp {
	return domain.ClientApp{
		ID:          r.ID,
		Name:        r.Name,
		OwnerID:     r.OwnerID,
		RedirectURI: r.RedirectURI,
		SecretHash:  r.SecretHash,
		Salt:        r.Salt,
		CreatedAt:   r.CreatedAt.UTC(),
		UpdatedAt:   r.UpdatedAt.UTC(),
	}
}

type accessTokenRow struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey"`
	Token        string    `gorm:"size:512;not null;uniqueIndex"`
	UserID       uuid.UUID `gorm:"type:uuid;not null;index"`
	ClientID     uuid.UUID `gorm:"type:uuid;not null"`
	RefreshCount int       `gorm:"not null;default:0"`
	CreatedAt    time.Time `gorm:"not null;autoCreateTime:false"`
	ExpiresAt    time.Time `gorm:"not null;index"`
}

func (accessTokenRow) TableName() string { return "access_tokens" }

func accessTokenToRow(t domain.AccessToken) accessTokenRow {
	return accessTokenRow{
		ID:           t.ID,
		Token:        t.Token,
		UserID:       t.UserID,
		ClientID:     t.ClientID,
		RefreshCount: t.RefreshCount,
		CreatedAt:    t.CreatedAt.UTC(),
		ExpiresAt:    t.ExpiresAt.UTC(),
	}
}

func (r accessTokenRow) toDomain() domain.AccessToken {
	return domain.AccessToken{
		ID:           r.ID,
		Token:        r.Token,
		UserID:       r.UserID,
		ClientID:     r.ClientID,
		RefreshCount: r.RefreshCount,
		CreatedAt:    r.CreatedAt.UTC(),
		ExpiresAt:    r.ExpiresAt.UTC(),
	}
}

type authorizationCodeRow struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey"`
	Code        string    `gorm:"size:512;not null;uniqueIndex"`
	UserID      uuid.UUID `gorm:"type:uuid;not null;index"`
	ClientID    uuid.UUID `gorm:"type:uuid;not null"`
	RedirectURI string    `gorm:"size:2048"`
	CreatedAt   time.Time `gorm:"not null;autoCreateTime:false"`
	ExpiresAt   time.Time `gorm:"not null;index"`
}

func (authorizationCodeRow) TableName() string { return "authorization_codes" }

func authorizationCodeToRow(c domain.AuthorizationCode) authorizationCodeRow {
	return authorizationCodeRow{
		ID:          c.ID,
		Code:        c.Code,
		UserID:      c.UserID,
		ClientID:    c.ClientID,
		RedirectURI: c.RedirectURI,
		CreatedAt:   c.CreatedAt.UTC(),
		ExpiresAt:   c.ExpiresAt.UTC(),
	}
}

func (r authorizationCodeRow) toDomain() domain.AuthorizationCode {
	return domain.AuthorizationCode{
		ID:          r.ID,
		Code:        r.Code,
		UserID:      r.UserID,
		ClientID:    r.ClientID,
		RedirectURI: r.RedirectURI,
		CreatedAt:   r.CreatedAt.UTC(),
		ExpiresAt:   r.ExpiresAt.UTC(),
	}
}

// Models returns the gorm models to migrate.
func Models() []interface{} {
	return []interface{}{&userRow{}, &clientAppRow{}, &accessTokenRow{}, &authorizationCodeRow{}}
}
