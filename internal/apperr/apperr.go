package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies an application error so the HTTP layer can map it to a
// status code without inspecting message strings.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindUnauthorized
	KindForbidden
	KindNotFound
	KindConflict
)

// Machine-readable hints attached to forbidden/conflict errors so clients can
// branch on the cause instead of parsing messages.
const (
	HintRequiresJoin  = "requires_join"
	HintRequiresNDA   = "requires_nda"
	HintPendingExists = "pending_request_exists"
	HintDuplicateVote = "duplicate_vote"
	HintOwnerOnly     = "owner_only"
)

// Error is the application error carried from services to the HTTP boundary.
type Error struct {
	Kind    Kind
	Message string
	Hint    string            // optional, machine-readable
	Fields  map[string]string // optional, per-field validation detail
	Err     error             // wrapped cause, logged but never sent to clients
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

func Validation(msg string) *Error {
	return &Error{Kind: KindValidation, Message: msg}
}

// ValidationFields reports a validation failure with per-field detail.
func ValidationFields(msg string, fields map[string]string) *Error {
	return &Error{Kind: KindValidation, Message: msg, Fields: fields}
}

func Unauthorized(msg string) *Error {
	return &Error{Kind: KindUnauthorized, Message: msg}
}

func Forbidden(msg, hint string) *Error {
	return &Error{Kind: KindForbidden, Message: msg, Hint: hint}
}

func NotFound(msg string) *Error {
	return &Error{Kind: KindNotFound, Message: msg}
}

func Conflict(msg, hint string) *Error {
	return &Error{Kind: KindConflict, Message: msg, Hint: hint}
}

func Internal(msg string, err error) *Error {
	return &Error{Kind: KindInternal, Message: msg, Err: err}
}

// As extracts an *Error from err, or nil if err is not one.
func As(err error) *Error {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr
	}
	return nil
}
