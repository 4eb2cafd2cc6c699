package service

import (
	"errors"
	"fmt"
)

// Service-level sentinel errors. Callers check them with errors.Is; the API
// layer maps each one to a status code.
var (
	// ErrAccessDenied indicates that the acting user may not perform the operation.
	// API layer should map this to HTTP 403 Forbidden.
	ErrAccessDenied = errors.New("access denied")

	// ErrInvalidCredentials indicates an unknown email or a wrong password.
	// API layer should map this to HTTP 401 Unauthorized.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrInvalidResetToken indicates an unknown, expired or already used password reset token.
	// API layer should map this to HTTP 401 Unauthorized.
	ErrInvalidResetToken = errors.New("invalid or expired reset token")

	// ErrStorageFailure indicates that an attachment blob could not be written or read.
	// API layer should map this to HTTP 500.
	ErrStorageFailure = errors.New("file storage failure")
)

// denied returns ErrAccessDenied annotated with the refused action.
func denied(action string) error {
	return fmt.Errorf("%w: %s", ErrAccessDenied, action)
}
