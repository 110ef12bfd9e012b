// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as
// handlers to distinguish between different failure scenarios. For
// example, ErrTokenInvalid indicates that a counsellor presented an
// access token that is unknown or deactivated, while ErrConflict
// signals that an operation cannot proceed because of existing
// state (e.g. provisioning a client with a token that is already
// in use).
package repository

import "errors"

// ErrTokenInvalid is returned when a counsellor access token does not
// resolve to an active client record. Handlers should translate this
// into an HTTP 401 response without revealing whether the token is
// unknown or merely deactivated.
var ErrTokenInvalid = errors.New("token invalid")

// ErrNotFound is returned when a lookup matched no row. Handlers
// should translate this into an HTTP 404 response.
var ErrNotFound = errors.New("not found")

// ErrConflict is returned when an insert or update cannot be
// performed because of conflicting state, such as provisioning a
// client whose token already exists. Handlers should translate
// this into an HTTP 409 response.
var ErrConflict = errors.New("conflict")
