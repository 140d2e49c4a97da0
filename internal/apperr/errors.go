// Package apperr defines the error taxonomy shared by the validation layer,
// the services and the access control middleware.  Each error carries a
// Kind that decides the HTTP status, a stable machine readable Code, a
// message that is safe to show to callers and, for validation failures, the
// list of offending fields.
package apperr

import (
	"errors"
	"net/http"
)

// Kind classifies an application error.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindConflict
	KindUnauthenticated
	KindForbidden
	KindNotFound
)

// String returns the code used when a more specific one is not set.
func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation_error"
	case KindConflict:
		return "conflict"
	case KindUnauthenticated:
		return "unauthenticated"
	case KindForbidden:
		return "forbidden"
	case KindNotFound:
		return "not_found"
	}
	return "internal_error"
}

// HTTPStatus maps a kind to its response status.
func (k Kind) HTTPStatus() int {
	switch k {
	case KindValidation:
		return http.StatusBadRequest
	case KindConflict:
		return http.StatusConflict
	case KindUnauthenticated:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}

// Token failure codes.  All of them are KindUnauthenticated.
const (
	CodeTokenExpired   = "token_expired"
	CodeTokenInvalid   = "token_invalid"
	CodeTokenNotActive = "token_not_active"
)

// Error is the concrete application error.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Details []string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Validation reports malformed, missing or out-of-enum input.
func Validation(msg string, details ...string) *Error {
	return &Error{Kind: KindValidation, Code: KindValidation.String(), Message: msg, Details: details}
}

// Conflict reports a duplicate unique key.
func Conflict(msg string) *Error {
	return &Error{Kind: KindConflict, Code: KindConflict.String(), Message: msg}
}

// Unauthenticated reports a missing or rejected credential.
func Unauthenticated(code, msg string) *Error {
	if code == "" {
		code = KindUnauthenticated.String()
	}
	return &Error{Kind: KindUnauthenticated, Code: code, Message: msg}
}

// Forbidden reports a valid credential lacking the required role.
func Forbidden(msg string) *Error {
	return &Error{Kind: KindForbidden, Code: KindForbidden.String(), Message: msg}
}

// NotFound reports a well-formed reference without a matching record.
func NotFound(msg string) *Error {
	return &Error{Kind: KindNotFound, Code: KindNotFound.String(), Message: msg}
}

// Internal wraps an unexpected failure.  The message is logged, never sent.
func Internal(msg string, err error) *Error {
	return &Error{Kind: KindInternal, Code: KindInternal.String(), Message: msg, Err: err}
}

// KindOf returns the kind of err, or KindInternal for foreign errors.
func KindOf(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return KindInternal
}

// Is reports whether err is an application error of kind k.
func Is(err error, k Kind) bool {
	var ae *Error
	return errors.As(err, &ae) && ae.Kind == k
}
