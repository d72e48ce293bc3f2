package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound     = errors.New("resource not found")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrInvalidInput = errors.New("invalid input")
	ErrConflict     = errors.New("resource conflict")
)

// Replication and synchronization errors.
var (
	ErrUserSynchronization         = errors.New("user synchronization failed")
	ErrIdentityConflict            = fmt.Errorf("%w: login owned by another provider", ErrUserSynchronization)
	ErrEmailAlreadyExists          = fmt.Errorf("%w: email already exists", ErrUserSynchronization)
	ErrEmailResolutionFailed       = errors.New("no verified primary email")
	ErrUserNotFound                = fmt.Errorf("%w: user", ErrNotFound)
	ErrIncorrectAuthenticationType = errors.New("incorrect authentication type")
	ErrProviderCommunication       = errors.New("identity provider communication failed")
	ErrAccessDenied                = errors.New("access denied by provider restrictions")
	ErrUnknownProvider             = errors.New("unknown identity provider")
)

// ValidationError represents a field-level validation failure.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Message
}
