// Package apperror defines the domain error taxonomy. Every error surfaced by
// the application layer is one of these kinds; the HTTP layer maps kinds to
// status codes in pkg/response.
package apperror

import (
	"errors"
	"sort"
	"strings"
)

// Detail messages shared with API clients.
const (
	MsgEmailExists        = "Email already exists"
	MsgNicknameExists     = "Nickname already exists"
	MsgBadCredentials     = "Incorrect email or password."
	MsgAccountLocked      = "Account locked due to too many failed login attempts."
	MsgForbidden          = "Operation not permitted"
	MsgUserNotFound       = "User not found"
	MsgInvalidToken       = "Could not validate credentials"
	MsgInvalidVerifyToken = "Invalid or expired verification token"
)

// Kind classifies a domain error.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindConflict
	KindAuthentication
	KindLocked
	KindAuthorization
	KindNotFound
	KindBadRequest
)

// Error is a classified domain error carrying a client-facing detail message.
type Error struct {
	Kind   Kind
	Detail string
	Err    error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Detail + ": " + e.Err.Error()
	}
	return e.Detail
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches two *Error values by kind and detail so sentinels work with errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind && e.Detail == t.Detail
}

func newErr(kind Kind, detail string) *Error { return &Error{Kind: kind, Detail: detail} }

var (
	ErrEmailExists        = Conflict(MsgEmailExists)
	ErrNicknameExists     = Conflict(MsgNicknameExists)
	ErrBadCredentials     = newErr(KindAuthentication, MsgBadCredentials)
	ErrInvalidToken       = newErr(KindAuthentication, MsgInvalidToken)
	ErrAccountLocked      = newErr(KindLocked, MsgAccountLocked)
	ErrForbidden          = newErr(KindAuthorization, MsgForbidden)
	ErrUserNotFound       = newErr(KindNotFound, MsgUserNotFound)
	ErrInvalidVerifyToken = newErr(KindBadRequest, MsgInvalidVerifyToken)
)

// Conflict builds a uniqueness conflict error.
func Conflict(detail string) *Error { return newErr(KindConflict, detail) }

// BadRequest builds a generic 400 error.
func BadRequest(detail string) *Error { return newErr(KindBadRequest, detail) }

// Internal wraps an unexpected failure. The detail is never shown to clients.
func Internal(err error) *Error { return &Error{Kind: KindInternal, Detail: "internal error", Err: err} }

// ValidationError enumerates every violated field constraint.
type ValidationError struct {
	Fields map[string]string
}

// NewValidationError returns a ValidationError for a single field.
func NewValidationError(field, msg string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: msg}}
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// KindOf reports the kind of err, KindInternal when err is not a domain error.
func KindOf(err error) Kind {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return KindValidation
	}
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return KindInternal
}

// DetailOf returns the client-facing detail message for err.
func DetailOf(err error) string {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return "Validation failed"
	}
	var ae *Error
	if errors.As(err, &ae) && ae.Kind != KindInternal {
		return ae.Detail
	}
	return "Internal server error"
}
