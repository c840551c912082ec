package repository

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// ErrNotFound is returned when a looked up record does not exist.
var ErrNotFound = errors.New("record not found")

// ValidationError is a business rule violation on user input.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func NewValidationError(field, format string, args ...interface{}) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// ReferenceError blocks an operation that would break referential integrity,
// such as deleting a building that still has offices.
type ReferenceError struct {
	Entity  string
	Message string
}

func (e *ReferenceError) Error() string {
	return fmt.Sprintf("cannot modify %s: %s", e.Entity, e.Message)
}

func NewReferenceError(entity, format string, args ...interface{}) *ReferenceError {
	return &ReferenceError{Entity: entity, Message: fmt.Sprintf(format, args...)}
}

func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

func IsReference(err error) bool {
	var r *ReferenceError
	return errors.As(err, &r)
}

// translate maps gorm errors onto the repository error kinds.
func translate(entity string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return fmt.Errorf("%s: %w", entity, ErrNotFound)
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return &ValidationError{Message: fmt.Sprintf("%s already exists", entity)}
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		return &ReferenceError{Entity: entity, Message: "it references a missing record or is still referenced"}
	default:
		return err
	}
}
