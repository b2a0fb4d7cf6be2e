package sqlstore

import (
	"context"

	"github.com/google/uuid"

	"github.com/kbukum/shoplist/database"
	"github.com/kbukum/shoplist/domain"
	"github.com/kbukum/shoplist/repository"
)

// Users is a gorm repository.UserBackend.
type Users struct {
	db *database.DB
}

var _ repository.UserBackend = (*Users)(nil)

// NewUsers returns a user backend on db.
func NewUsers(db *database.DB) *Users { return &Users{db: db} }

func (s *Users) Insert(ctx context.Context, u domain.SecuredUser) error {
	row := userToRow(u)
	return translateWrite(s.db.WithContext(ctx).Create(&row).Error)
}

func (s *Users) FindByID(ctx context.Context, id uuid.UUID) (domain.SecuredUser, bool, error) {
	var row userRow
	found, err := first(s.db.WithContext(ctx).Where("id = ?", id), &row)
	if err != nil || !found {
		return domain.SecuredUser{}, false, err
	}
	return row.toDomain(), true, nil
}

func (s *Users) FindByEmail(ctx context.Context, email string) (domain.SecuredUser, bool, error) {
	var row userRow
	found, err := first(s.db.WithContext(ctx).Where("email = ?", email), &row)
	if err != nil || !found {
		return domain.SecuredUser{}, false, err
	}
	return row.toDomain(), true, nil
}

func (s *Users) UpdateByID(ctx context.Context, id uuid.UUID, u domain.SecuredUser) error {
	row := userToRow(u)
	res := s.db.WithContext(ctx).Model(&userRow{}).Where("id = ?", id).Updates(map[string]interface{}{
		"name":          row.Name,
		"email":         row.Email,
		"visibility":    row.Visibility,
		"password_hash": row.PasswordHash,
		"salt":          row.Salt,
		"updated_at":    row.UpdatedAt,
	})
	return affected(res.RowsAffected, translateWrite(res.Error))
}

func (s *Users) DeleteByID(ctx context.Context, id uuid.UUID) error {
	return s.db.WithContext(ctx).Where("id = ?", id).Delete(&userRow{}).Error
}

// ClientApps is a gorm repository.ClientAppBackend.
type ClientApps struct {
	db *database.DB
}

var _ repository.ClientAppBackend = (*ClientApps)(nil)

// NewClientApps returns a client app backend on db.
func NewClientApps(db *database.DB) *ClientApps { return &ClientApps{db: db} }

func (s *ClientApps) Insert(ctx context.Context, a domain.ClientApp) error {
	row := clientAppToRow(a)
	return translateWrite(s.db.WithContext(ctx).Create(&row).Error)
}

func (s *ClientApps) FindByID(ctx context.Context, id uuid.UUID) (domain.ClientApp, bool, error) {
	var row clientAppRow
	found, err := first(s.db.WithContext(ctx).Where("id = ?", id), &row)
	if err != nil || !found {
		return domain.ClientApp{}, false, err
	}
	return row.toDomain(), true, nil
}

func (s *ClientApps) UpdateByID(ctx context.Context, id uuid.UUID, a domain.ClientApp) error {
	row := clientAppToRow(a)
	res := s.db.WithContext(ctx).Model(&clientAppRow{}).Where("id = ?", id).Updates(map[string]interface{}{
		"name":         row.Name,
		"redirect_uri": row.RedirectURI,
		"secret_hash":  row.SecretHash,
		"salt":         row.Salt,
		"updated_at":   row.UpdatedAt,
	})
	return affected(res.RowsAffected, translateWrite(res.Error))
}

func (s *ClientApps) DeleteByID(ctx context.Context, id uuid.UUID) error {
	return s.db.WithContext(ctx).Where("id = ?", id).Delete(&clientAppRow{}).Error
}

// ListByOwner returns the apps of ownerID ordered by creation time.
func (s *ClientApps) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]domain.ClientApp, error) {
	var rows []clientAppRow
	err := s.db.WithContext(ctx).Where("owner_id = ?", ownerID).Order("created_at, id").Find(&rows).Error
	if err != nil {
		return nil, err
	}
	apps := make([]domain.ClientApp, 0, len(rows))
	for _, r := range rows {
		apps = append(apps, r.toDomain())
	}
	return apps, nil
}
