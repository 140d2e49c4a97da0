// Package repository defines the credential and complaint stores and the
// error values shared by every backend (MySQL, MongoDB and memory).  These
// sentinel values allow services to distinguish between failure scenarios
// without knowing which engine produced them.
package repository

import "errors"

// ErrNotFound is returned when no record matches a well-formed identifier
// or lookup key.  Services translate it into a 404 or, for logins, into the
// generic invalid credentials response.
var ErrNotFound = errors.New("not found")

// ErrEmailExists is returned when the unique index on users.email rejects
// an insert.  It is the real duplicate-registration guard; the service-level
// existence check only shortens the common path.
var ErrEmailExists = errors.New("email already exists")

// ErrInvalidID is returned when an identifier does not have the shape the
// backend generates.  Services translate it into a validation error.
var ErrInvalidID = errors.New("invalid id")
