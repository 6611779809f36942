package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors shared by every layer. Wrap them with fmt.Errorf("...: %w", ErrX)
// and classify with KindOf.
var (
	ErrInvalidInput     = errors.New("invalid input")
	ErrNotFound         = errors.New("not found")
	ErrConflict         = errors.New("conflict")
	ErrCapacityExceeded = errors.New("event is at full capacity")
	ErrStorage          = errors.New("storage failure")
	ErrTransaction      = errors.New("transaction failure")
	ErrUnauthorized     = errors.New("unauthorized")
)

var (
	// ErrDuplicateParticipant is returned when a user is already registered for the event.
	ErrDuplicateParticipant = fmt.Errorf("%w: user is already registered for this event", ErrConflict)
	// ErrCategoryInUse is returned when deleting a category that events still reference.
	ErrCategoryInUse = fmt.Errorf("%w: category is in use", ErrConflict)
	// ErrWriteConflict is returned by repositories when the store aborts a write because a
	// concurrent transaction touched the same rows (serialization failure, deadlock, lock timeout).
	ErrWriteConflict = fmt.Errorf("%w: concurrent write", ErrConflict)
)

// ErrorKind is the transport-independent classification of an error.
type ErrorKind int

const (
	KindNone ErrorKind = iota
	KindValidation
	KindNotFound
	KindConflict
	KindCapacityExceeded
	KindUnauthorized
	KindStorage
	KindTransaction
	KindInternal
)

func (k ErrorKind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindCapacityExceeded:
		return "capacity_exceeded"
	case KindUnauthorized:
		return "unauthorized"
	case KindStorage:
		return "storage"
	case KindTransaction:
		return "transaction"
	default:
		return "internal"
	}
}

// KindOf classifies err by the first sentinel it wraps. Expected outcomes are checked
// before failures so a validation error raised inside a rolled-back transaction still
// reports as validation.
func KindOf(err error) ErrorKind {
	switch {
	case err == nil:
		return KindNone
	case errors.Is(err, ErrInvalidInput):
		return KindValidation
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrCapacityExceeded):
		return KindCapacityExceeded
	case errors.Is(err, ErrConflict):
		return KindConflict
	case errors.Is(err, ErrUnauthorized):
		return KindUnauthorized
	case errors.Is(err, ErrTransaction):
		return KindTransaction
	case errors.Is(err, ErrStorage):
		return KindStorage
	default:
		return KindInternal
	}
}

// Invalidf returns an ErrInvalidInput with a formatted reason.
func Invalidf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

// NotFoundf returns an ErrNotFound with a formatted reason.
func NotFoundf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrNotFound, fmt.Sprintf(format, args...))
}

// Conflictf returns an ErrConflict with a formatted reason.
func Conflictf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrConflict, fmt.Sprintf(format, args...))
}
