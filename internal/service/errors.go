package service

import (
	"errors"
	"fmt"
)

// Kind classifies a service error. The set is stable across all services.
type Kind string

const (
	// KindUnauthorized means the actor lacks the role the operation requires.
	KindUnauthorized Kind = "unauthorized"

	// KindNotFound means a referenced entity does not exist or does not belong
	// to the stated parent.
	KindNotFound Kind = "notFound"

	// KindValidation means the input violates an invariant. Reason says which.
	KindValidation Kind = "validationFailed"

	// KindRepository means the storage collaborator failed. Cause holds its error.
	KindRepository Kind = "repositoryFailure"
)

// Error is the typed error returned by every service operation.
type Error struct {
	Kind   Kind
	Reason string
	Cause  error
}

// Sentinels for errors.Is. They match any *Error of the same Kind.
var (
	ErrUnauthorized = &Error{Kind: KindUnauthorized}
	ErrNotFound     = &Error{Kind: KindNotFound}
	ErrValidation   = &Error{Kind: KindValidation}
	ErrRepository   = &Error{Kind: KindRepository}
)

func (e *Error) Error() string {
	switch {
	case e.Reason != "" && e.Cause != nil:
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Reason, e.Cause)
	case e.Reason != "":
		return fmt.Sprintf("%s: %s", e.Kind, e.Reason)
	case e.Cause != nil:
		return fmt.Sprintf("%s: %v", e.Kind, e.Cause)
	default:
		return string(e.Kind)
	}
}

// Is reports whether target is an *Error of the same kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// KindOf returns the kind of err, or "" when err is not a service error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

func unauthorized(format string, args ...any) error {
	return &Error{Kind: KindUnauthorized, Reason: fmt.Sprintf(format, args...)}
}

func notFound(format string, args ...any) error {
	return &Error{Kind: KindNotFound, Reason: fmt.Sprintf(format, args...)}
}

func invalid(format string, args ...any) error {
	return &Error{Kind: KindValidation, Reason: fmt.Sprintf(format, args...)}
}

// repoFailure wraps a storage error. Errors that are already service errors
// pass through so a unit of work can return domain failures unchanged.
func repoFailure(op string, err error) error {
	var e *Error
	if errors.As(err, &e) {
		return err
	}
	return &Error{Kind: KindRepository, Reason: op, Cause: err}
}
