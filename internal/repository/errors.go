package repository

import "fmt"

// RepositoryError attaches the entity, operation and identifier to a store
// failure. errors.Is still matches the underlying kind.
type RepositoryError struct {
	Entity    string
	Operation string
	ID        string
	Err       error
}

func (e *RepositoryError) Error() string {
	if e.ID == "" {
		return fmt.Sprintf("%s %s: %v", e.Operation, e.Entity, e.Err)
	}
	return fmt.Sprintf("%s %s %s: %v", e.Operation, e.Entity, e.ID, e.Err)
}

func (e *RepositoryError) Unwrap() error {
	return e.Err
}
