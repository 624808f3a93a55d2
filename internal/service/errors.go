// Package service holds the authentication and expense business rules on top of storage.
package service

import (
	"errors"
	"fmt"
)

// Error taxonomy. Handlers map these to HTTP status codes with errors.Is.
var (
	ErrValidation        = errors.New("validation failed")
	ErrInvalidRange      = fmt.Errorf("%w: invalid range", ErrValidation)
	ErrDuplicateUser     = fmt.Errorf("%w: username or email already exists", ErrValidation)
	ErrDuplicateCategory = fmt.Errorf("%w: category already exists", ErrValidation)
	ErrInvalidCategory   = fmt.Errorf("%w: category does not exist", ErrValidation)

	ErrUnauthorized       = errors.New("unauthorized")
	ErrInvalidCredentials = fmt.Errorf("%w: invalid username or password", ErrUnauthorized)

	ErrForbidden     = errors.New("forbidden")
	ErrNotFound      = errors.New("not found")
	ErrConfiguration = errors.New("server configuration error")
)

func validationError(msg string) error {
	return fmt.Errorf("%w: %s", ErrValidation, msg)
}

func rangeError(msg string) error {
	return fmt.Errorf("%w: %s", ErrInvalidRange, msg)
}
