// Package repository defines error types that are reused across multiple
// stores and services. These sentinel values allow higher layers such as
// handlers to distinguish between different failure scenarios. Services
// wrap them with context using fmt.Errorf("...: %w") and handlers match
// them with errors.Is.
package repository

import "errors"

// ErrNotFound is returned when an id does not resolve on a write path.
// Read paths report absence through an ok flag instead. Handlers should
// translate this into an HTTP 404 response.
var ErrNotFound = errors.New("not found")

// ErrValidation is returned when input is missing or malformed. It is
// always detected before any mutation. Handlers should translate this
// into an HTTP 400 response.
var ErrValidation = errors.New("validation failed")

// ErrCapacityExceeded is returned when a booking asks for more seats than
// remain. Handlers should translate this into an HTTP 409 response.
var ErrCapacityExceeded = errors.New("insufficient capacity")

// ErrNotBookable is returned when an event is past or sold out.
var ErrNotBookable = errors.New("event not bookable")

// ErrAlreadyExists is returned on a duplicate unique key such as an email.
var ErrAlreadyExists = errors.New("already exists")

// ErrForbidden is returned when the caller attempts an operation
// on a resource they do not own. Handlers should translate this
// into an HTTP 403 response.
var ErrForbidden = errors.New("forbidden")

// ErrInvalidCredentials is returned when a sign-in cannot be verified.
var ErrInvalidCredentials = errors.New("invalid credentials")
