package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound indicates the record does not exist or is not visible to the caller.
	ErrNotFound = errors.New("not found")
	// ErrUnauthorized indicates that no authenticated principal is available.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrDuplicate is returned by repositories when a unique constraint is violated.
	ErrDuplicate = errors.New("duplicate record")
)

// ValidationError reports input that was rejected before anything was persisted.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Invalid builds a ValidationError for field.
func Invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// IsValidation reports whether err is or wraps a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
