package database

import (
	"errors"
	"strings"

	"gorm.io/gorm"
)

// IsNotFoundError reports a gorm record-not-found error.
func IsNotFoundError(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

// IsDuplicateError reports a unique or primary key violation. Relies on
// TranslateError, with a message fallback for drivers that do not
// translate constraint errors.
func IsDuplicateError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") || strings.Contains(msg, "duplicate key")
}

// IsConnectionError reports errors that a reconnect may resolve.
func IsConnectionError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, p := range []string{
		"connection refused",
		"connection reset",
		"broken pipe",
		"i/o timeout",
		"driver: bad connection",
		"database is closed",
	} {
		if strings.Contains(msg, p) {
			return true
		}
	}
	return false
}
