package models

import "errors"

// Domain errors shared by the repository and service layers. Handlers map
// these to HTTP status codes in one place.
var (
	ErrNotFound     = errors.New("not found")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrConflict     = errors.New("conflict")
	ErrInvalid      = errors.New("invalid input")
)
