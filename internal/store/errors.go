package store

import (
	"errors"
	"fmt"

	"github.com/phrazzld/librarian/internal/domain"
)

// ErrInvalidEntity is returned when a record fails validation before being
// written. Check the wrapped error for the specific violations.
var ErrInvalidEntity = fmt.Errorf("%w: invalid entity", domain.ErrInvalidArgument)

// IsNotFoundError reports whether err is any kind of "not found" error.
func IsNotFoundError(err error) bool {
	return errors.Is(err, domain.ErrNotFound)
}

// IsDuplicateError reports whether err is any kind of "already exists" error.
func IsDuplicateError(err error) bool {
	return errors.Is(err, domain.ErrAlreadyExists)
}

// StoreError is a backend failure with the entity and operation attached.
type StoreError struct {
	Entity    string // e.g. "account"
	Operation string // e.g. "add"
	Message   string
	Err       error
}

func (e *StoreError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s %s failed: %s: %v", e.Operation, e.Entity, e.Message, e.Err)
	}
	return fmt.Sprintf("%s %s failed: %s", e.Operation, e.Entity, e.Message)
}

// Unwrap supports errors.Is and errors.As.
func (e *StoreError) Unwrap() error {
	return e.Err
}

// NewStoreError creates a StoreError.
func NewStoreError(entity, operation, message string, err error) *StoreError {
	return &StoreError{Entity: entity, Operation: operation, Message: message, Err: err}
}
