package sqlstore

import (
	"gorm.io/gorm"

	"github.com/kbukum/shoplist/database"
	"github.com/kbukum/shoplist/repository"
)

// first loads the first match of q into dst; a miss is not an error.
func first(q *gorm.DB, dst interface{}) (bool, error) {
	err := q.Take(dst).Error
	if database.IsNotFoundError(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func translateWrite(err error) error {
	if err != nil && database.IsDuplicateError(err) {
		return repository.ErrDuplicate
	}
	return err
}

// affected reports ErrNotFound when a write matched no row.
func affected(rows int64, err error) error {
	if err != nil {
		return err
	}
	if rows == 0 {
		return repository.ErrNotFound
	}
	return nil
}
