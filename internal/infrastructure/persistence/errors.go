package persistence

import (
	"errors"
	"strings"

	"github.com/erp/manufacturing/internal/domain/shared"
	"gorm.io/gorm"
)

// isUniqueViolation reports whether err is a unique constraint violation on
// PostgreSQL or SQLite, with or without gorm's error translation enabled.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLSTATE 23505") ||
		strings.Contains(msg, "duplicate key value") ||
		strings.Contains(msg, "UNIQUE constraint failed")
}

// translateCreateError maps unique violations to shared.ErrAlreadyExists
func translateCreateError(err error) error {
	if isUniqueViolation(err) {
		return shared.ErrAlreadyExists
	}
	return err
}

// translateFindError maps gorm.ErrRecordNotFound to notFound
func translateFindError(err, notFound error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return notFound
	}
	return err
}
