package models

import (
	"errors"
	"fmt"
)

type ErrorKind string

const (
	KindValidation        ErrorKind = "validation"
	KindNotFound          ErrorKind = "not_found"
	KindConflict          ErrorKind = "conflict"
	KindInvalidTransition ErrorKind = "invalid_transition"
	KindForbidden         ErrorKind = "forbidden"
	KindInternal          ErrorKind = "internal"
)

// Error is returned by every booking engine operation.
type Error struct {
	Kind      ErrorKind
	Message   string
	Err       error
	Current   BookingStatus
	Allowed   []BookingStatus
	Conflicts []ConflictSummary
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

func NewValidationError(msg string) *Error {
	return &Error{Kind: KindValidation, Message: msg}
}

func NewNotFoundError(msg string) *Error {
	return &Error{Kind: KindNotFound, Message: msg}
}

func NewConflictError(msg string, conflicts ...ConflictSummary) *Error {
	return &Error{Kind: KindConflict, Message: msg, Conflicts: conflicts}
}

func NewForbiddenError(msg string) *Error {
	return &Error{Kind: KindForbidden, Message: msg}
}

func NewInvalidTransitionError(current, requested BookingStatus) *Error {
	return &Error{
		Kind:    KindInvalidTransition,
		Message: fmt.Sprintf("cannot change status from %s to %s", current, requested),
		Current: current,
		Allowed: current.AllowedTransitions(),
	}
}

func NewInternalError(msg string, err error) *Error {
	return &Error{Kind: KindInternal, Message: msg, Err: err}
}

// KindOf reports the kind of err, treating anything unclassified as internal.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// store and lookup sentinels, translated into *Error by the service
var (
	ErrBookingNotFound    = errors.New("booking not found")
	ErrVehicleNotFound    = errors.New("vehicle not found")
	ErrClientNotFound     = errors.New("client not found")
	ErrDriverNotFound     = errors.New("driver not found")
	ErrInvalidID          = errors.New("invalid id")
	ErrOverlap            = errors.New("booking range overlaps an existing booking")
	ErrDuplicateReference = errors.New("booking reference already exists")
	ErrStaleStatus        = errors.New("booking status changed concurrently")
	ErrReviewExists       = errors.New("review already submitted")
)
