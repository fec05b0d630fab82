// Package outcome provides a two-variant result type used as the error
// channel for every fallible operation on records, stores and roles.
package outcome

import (
	"errors"
	"fmt"
)

// ErrEmpty is carried by the zero Outcome, which was never assigned a variant.
var ErrEmpty = errors.New("outcome: empty")

// Outcome holds either a value (success) or an error (failure), never both.
type Outcome[T any] struct {
	value T
	err   error
	ok    bool
}

// Success wraps v in a successful Outcome.
func Success[T any](v T) Outcome[T] {
	return Outcome[T]{value: v, ok: true}
}

// Failure wraps err in a failed Outcome. A nil err is a programming error.
func Failure[T any](err error) Outcome[T] {
	if err == nil {
		panic("outcome: Failure called with nil error")
	}
	return Outcome[T]{err: err}
}

// From adapts a conventional (value, error) pair.
func From[T any](v T, err error) Outcome[T] {
	if err != nil {
		return Failure[T](err)
	}
	return Success(v)
}

// IsSuccess reports whether the Outcome carries a value.
func (o Outcome[T]) IsSuccess() bool {
	return o.ok
}

// IsFailure reports whether the Outcome carries an error.
func (o Outcome[T]) IsFailure() bool {
	return !o.ok
}

// Value returns the success value. It panics on a failure; check
// IsSuccess first or use Get.
func (o Outcome[T]) Value() T {
	if !o.ok {
		panic(fmt.Sprintf("outcome: Value called on failure: %v", o.Err()))
	}
	return o.value
}

// Err returns the failure error, or nil for a success.
func (o Outcome[T]) Err() error {
	if o.ok {
		return nil
	}
	if o.err == nil {
		return ErrEmpty
	}
	return o.err
}

// Get returns the value and error in Go's usual shape.
func (o Outcome[T]) Get() (T, error) {
	if !o.ok {
		var zero T
		return zero, o.Err()
	}
	return o.value, nil
}

// ValueOr returns the success value, or def on failure.
func (o Outcome[T]) ValueOr(def T) T {
	if !o.ok {
		return def
	}
	return o.value
}

// String renders the variant for logs.
func (o Outcome[T]) String() string {
	if o.ok {
		return fmt.Sprintf("Success(%v)", o.value)
	}
	return fmt.Sprintf("Failure(%v)", o.Err())
}

// Map applies fn to a success value. Failures pass through untouched.
func Map[T, U any](o Outcome[T], fn func(T) U) Outcome[U] {
	if !o.ok {
		return Failure[U](o.Err())
	}
	return Success(fn(o.value))
}

// FlatMap chains a fallible step after a success.
func FlatMap[T, U any](o Outcome[T], fn func(T) Outcome[U]) Outcome[U] {
	if !o.ok {
		return Failure[U](o.Err())
	}
	return fn(o.value)
}

// Match folds both variants into a single value.
func Match[T, R any](o Outcome[T], onSuccess func(T) R, onFailure func(error) R) R {
	if o.ok {
		return onSuccess(o.value)
	}
	return onFailure(o.Err())
}

// Recast moves a failure into another value type. It panics on success,
// since there is no value to convert.
func Recast[U, T any](o Outcome[T]) Outcome[U] {
	if o.ok {
		panic("outcome: Recast called on success")
	}
	return Failure[U](o.Err())
}

// MapErr rewrites the error of a failure; successes pass through.
func MapErr[T any](o Outcome[T], fn func(error) error) Outcome[T] {
	if o.ok {
		return o
	}
	return Failure[T](fn(o.Err()))
}
