// Package apperror carries the domain error taxonomy shared by services and
// handlers. Services return these; handlers translate them to HTTP via
// response.AppError.
package apperror

import (
	"errors"
	"fmt"
)

// Kind classifies a domain failure.
type Kind int

const (
	// KindUnknown is any error not produced through this package.
	KindUnknown Kind = iota
	// KindNotFound means a referenced entity does not exist.
	KindNotFound
	// KindInvalidReference means a reference points at an entity of the wrong
	// role or type, or an unknown section tag was supplied.
	KindInvalidReference
	// KindUnauthorized means the actor is outside the target's authority scope.
	KindUnauthorized
	// KindConflict means a uniqueness or state constraint was violated.
	KindConflict
	// KindNoCapacity means an assignment could not find any eligible target.
	KindNoCapacity
	// KindNotification means a side-channel notification (email) failed after
	// the primary mutation succeeded.
	KindNotification
)

// Error is a classified domain error.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// NotFound reports a missing entity.
func NotFound(format string, args ...any) error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

// InvalidReference reports a reference of the wrong role or type.
func InvalidReference(format string, args ...any) error {
	return &Error{Kind: KindInvalidReference, Message: fmt.Sprintf(format, args...)}
}

// Unauthorized reports an actor outside the target's authority scope.
func Unauthorized(format string, args ...any) error {
	return &Error{Kind: KindUnauthorized, Message: fmt.Sprintf(format, args...)}
}

// Conflict reports a uniqueness or state violation.
func Conflict(format string, args ...any) error {
	return &Error{Kind: KindConflict, Message: fmt.Sprintf(format, args...)}
}

// NoCapacity reports that no assignment target exists.
func NoCapacity(format string, args ...any) error {
	return &Error{Kind: KindNoCapacity, Message: fmt.Sprintf(format, args...)}
}

// Notification reports a failed side-channel notification.
func Notification(msg string, err error) error {
	return &Error{Kind: KindNotification, Message: msg, Err: err}
}

// Wrap attaches a kind and message to an underlying error.
func Wrap(kind Kind, err error, format string, args ...any) error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Err: err}
}

// KindOf extracts the Kind from err, or KindUnknown.
func KindOf(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return KindUnknown
}

// MessageOf extracts the classified message from err, falling back to
// err.Error().
func MessageOf(err error) string {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Message
	}
	return err.Error()
}
