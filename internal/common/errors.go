// Package common defines shared constants and sentinel errors used across
// hashkeeper components. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")

	// Service-level errors.
	ErrInternal   = errors.New("internal error")
	ErrValidation = errors.New("validation error")

	// Authentication errors. ErrInvalidCredentials is the only
	// outcome of a failed login, whatever the cause.
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrUnauthenticated    = errors.New("unauthenticated")
	ErrInvalidToken       = errors.New("invalid token")

	// ErrSessionInvalidated is returned when a session referenced a user that
	// no longer exists; the session has been destroyed.
	ErrSessionInvalidated = errors.New("session invalidated")

	// ErrExternalIO signals that the object store could not be written to.
	ErrExternalIO = errors.New("external storage unavailable")
)
