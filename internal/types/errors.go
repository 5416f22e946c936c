package types

import "errors"

// Sentinel errors shared across services and repositories. Handlers map these
// to HTTP statuses; nothing below the handler layer writes a response.
var (
	ErrNotFound        = errors.New("requested item not found")
	ErrConflict        = errors.New("email or username already exists")
	ErrUnauthenticated = errors.New("invalid email or password")
	ErrForbidden       = errors.New("action forbidden")
	ErrValidation      = errors.New("invalid input")
	ErrUnavailable     = errors.New("service unavailable, try again")
)
