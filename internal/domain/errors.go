// Package domain defines the core business entities and errors.
package domain

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Common domain errors used across the application.
var (
	// ErrValidation is returned when a domain entity fails validation.
	// This is often wrapped with a more specific error message.
	ErrValidation = errors.New("validation failed")

	// ErrInvalidID is returned when an ID is malformed or invalid.
	ErrInvalidID = fmt.Errorf("%w: invalid ID", ErrValidation)

	// ErrInvalidTaskStatus is returned when a task status string is not one of the known values.
	ErrInvalidTaskStatus = fmt.Errorf("%w: invalid task status", ErrValidation)

	// ErrInvalidTaskPriority is returned when a task priority string is not one of the known values.
	ErrInvalidTaskPriority = fmt.Errorf("%w: invalid task priority", ErrValidation)

	// ErrInvalidProjectStatus is returned when a project status string is not one of the known values.
	ErrInvalidProjectStatus = fmt.Errorf("%w: invalid project status", ErrValidation)

	// ErrInvalidRole is returned when a user role is not one of the known values.
	ErrInvalidRole = fmt.Errorf("%w: invalid role", ErrValidation)

	// ErrInvalidUpload is returned when an uploaded file violates the attachment rules.
	ErrInvalidUpload = fmt.Errorf("%w: invalid upload", ErrValidation)
)

// ValidationError describes a single invalid field.
type ValidationError struct {
	Field   string
	Message string
	Err     error
}

// NewValidationError creates a ValidationError for the given field.
// If err is nil, ErrValidation is used so that errors.Is(err, ErrValidation) holds.
func NewValidationError(field, message string, err error) *ValidationError {
	if err == nil {
		err = ErrValidation
	}
	return &ValidationError{
		Field:   field,
		Message: message,
		Err:     err,
	}
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *ValidationError) Unwrap() error {
	return e.Err
}

// ValidationErrors aggregates every field violation found while validating
// one entity or request, so callers can report them together.
type ValidationErrors []*ValidationError

// Add appends a violation for field.
func (v *ValidationErrors) Add(field, message string) {
	*v = append(*v, NewValidationError(field, message, ErrValidation))
}

// Append appends an existing violation.
func (v *ValidationErrors) Append(err *ValidationError) {
	if err != nil {
		*v = append(*v, err)
	}
}

// Err returns nil when no violations were collected.
func (v ValidationErrors) Err() error {
	if len(v) == 0 {
		return nil
	}
	return v
}

// Error implements the error interface.
func (v ValidationErrors) Error() string {
	parts := make([]string, 0, len(v))
	for _, e := range v {
		parts = append(parts, e.Error())
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Unwrap exposes every violation to errors.Is/errors.As.
func (v ValidationErrors) Unwrap() []error {
	errs := make([]error, 0, len(v))
	for _, e := range v {
		errs = append(errs, e)
	}
	return errs
}

// Fields returns a field -> message mapping. When a field has several
// violations, the first one wins.
func (v ValidationErrors) Fields() map[string]string {
	fields := make(map[string]string, len(v))
	for _, e := range v {
		if _, exists := fields[e.Field]; !exists {
			fields[e.Field] = e.Message
		}
	}
	return fields
}

// FieldNames returns the sorted set of invalid field names.
func (v ValidationErrors) FieldNames() []string {
	fields := v.Fields()
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ValidationFields extracts a field -> message mapping from err.
// It returns nil if err carries no field-level validation information.
func ValidationFields(err error) map[string]string {
	var many ValidationErrors
	if errors.As(err, &many) {
		return many.Fields()
	}
	var one *ValidationError
	if errors.As(err, &one) {
		return map[string]string{one.Field: one.Message}
	}
	return nil
}
