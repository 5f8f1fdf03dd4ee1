// internal/services/errors.go
package services

import "errors"

// Sentinel errors shared across services. Handlers map these onto HTTP
// status codes; anything else is treated as an internal error.
var (
	ErrNotFound          = errors.New("not found")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrUnauthorized      = errors.New("unauthorized")
	ErrExternalService   = errors.New("external service failure")
)
