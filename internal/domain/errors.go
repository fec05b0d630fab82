package domain

import (
	"errors"
	"fmt"
)

// Error kinds shared by records, stores, repositories and roles. Specific
// errors wrap one of these so callers can branch with errors.Is.
var (
	// ErrNotFound is returned when an identifier is absent from a store.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists is returned when adding an identifier that is already stored.
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalidArgument is returned when a business-rule precondition fails.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrTypeMismatch is returned when an identifier's tag does not match
	// the kind expected at a coercion boundary.
	ErrTypeMismatch = errors.New("type mismatch")

	// ErrParse is returned for malformed identifier text or serialized records.
	ErrParse = errors.New("parse error")
)

// Validation and business-rule errors.
var (
	ErrNegativeAmount   = fmt.Errorf("%w: amount must not be negative", ErrInvalidArgument)
	ErrNonPositiveCount = fmt.Errorf("%w: quantity must be greater than zero", ErrInvalidArgument)
	ErrEmptyReason      = fmt.Errorf("%w: reason cannot be empty", ErrInvalidArgument)
	ErrEmptyStaffName   = fmt.Errorf("%w: staff member name cannot be empty", ErrInvalidArgument)
	ErrEmptyName        = fmt.Errorf("%w: name cannot be empty", ErrInvalidArgument)
	ErrEmptyID          = fmt.Errorf("%w: id cannot be empty", ErrInvalidArgument)
	ErrIDMismatch       = fmt.Errorf("%w: id mismatch", ErrInvalidArgument)
	ErrInvalidStatus    = fmt.Errorf("%w: invalid account status", ErrInvalidArgument)
	ErrInvalidEmail     = fmt.Errorf("%w: invalid email format", ErrInvalidArgument)
	ErrTitleTooLong     = fmt.Errorf("%w: title is too long", ErrInvalidArgument)
	ErrAuthorTooLong    = fmt.Errorf("%w: author is too long", ErrInvalidArgument)
	ErrDescTooLong      = fmt.Errorf("%w: description is too long", ErrInvalidArgument)
)

// Library and account rule violations.
var (
	ErrUnknownBook              = fmt.Errorf("%w: book is not known to the library", ErrInvalidArgument)
	ErrUnknownUser              = fmt.Errorf("%w: user is not registered with the library", ErrInvalidArgument)
	ErrUserAlreadyRegistered    = fmt.Errorf("%w: user is already registered", ErrInvalidArgument)
	ErrBookUnavailable          = fmt.Errorf("%w: no copies available", ErrInvalidArgument)
	ErrBookAlreadyOut           = fmt.Errorf("%w: book is already checked out by user", ErrInvalidArgument)
	ErrBookNotCheckedOut        = fmt.Errorf("%w: book is not checked out by user", ErrInvalidArgument)
	ErrBookAlreadyAccepted      = fmt.Errorf("%w: book already accepted", ErrInvalidArgument)
	ErrBookNotAccepted          = fmt.Errorf("%w: book not accepted", ErrInvalidArgument)
	ErrAccountNotInGoodStanding = fmt.Errorf("%w: account is not in good standing", ErrInvalidArgument)
	ErrMaxBooksReached          = fmt.Errorf("%w: maximum accepted books reached", ErrInvalidArgument)
	ErrAccountClosed            = fmt.Errorf("%w: account is closed", ErrInvalidArgument)
	ErrSameLibrary              = fmt.Errorf("%w: source and destination library are the same", ErrInvalidArgument)
	ErrNoSourceLibrary          = fmt.Errorf("%w: book has no source library", ErrInvalidArgument)
	ErrOrphanLibraryBook        = fmt.Errorf("%w: orphan library only holds its own book", ErrInvalidArgument)
)
