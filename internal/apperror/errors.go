package apperror

import (
	"errors"
	"fmt"
)

// Kind classifies an operation failure for transport mapping.
type Kind string

const (
	KindValidation Kind = "validation"
	KindPermission Kind = "permission"
	KindDuplicate  Kind = "duplicate"
	KindNotFound   Kind = "not_found"
	KindStore      Kind = "store"
)

// Error carries a kind, a user-facing message and an optional wrapped cause.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func NewValidation(msg string) *Error {
	return &Error{Kind: KindValidation, Message: msg}
}

func NewPermission(msg string) *Error {
	return &Error{Kind: KindPermission, Message: msg}
}

// NewDuplicate marks an already-satisfied grant. Callers treat it as
// informational, not fatal.
func NewDuplicate(msg string) *Error {
	return &Error{Kind: KindDuplicate, Message: msg}
}

func NewNotFound(msg string) *Error {
	return &Error{Kind: KindNotFound, Message: msg}
}

// NewStore wraps a transient relational store failure. The step name tells
// the caller which part of a multi-step operation failed so the whole
// operation can be retried (every step is idempotent).
func NewStore(step string, err error) *Error {
	return &Error{Kind: KindStore, Message: step, Err: err}
}

// KindOf extracts the Kind of err, or "" when err is not an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

func IsDuplicate(err error) bool { return KindOf(err) == KindDuplicate }
func IsNotFound(err error) bool  { return KindOf(err) == KindNotFound }
