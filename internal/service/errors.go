package service

import (
	"errors"
	"strings"
)

// --- Error Definitions ---
var (
	ErrFileTooLarge         = errors.New("file exceeds the maximum upload size")
	ErrRecordFailed         = errors.New("failed to record submission")
	ErrAuthenticationFailed = errors.New("authentication failed: invalid password")
	ErrAdminDisabled        = errors.New("admin access is not configured")
	ErrTokenGeneration      = errors.New("failed to generate authentication token")
)

// ValidationError describes one rejected field.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationErrors is returned when input fails validation. Nothing has been written when it is returned.
type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	parts := make([]string, len(v))
	for i, e := range v {
		parts[i] = e.Field + ": " + e.Message
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (v *ValidationErrors) add(field, message string) {
	*v = append(*v, ValidationError{Field: field, Message: message})
}

// orNil keeps a nil ValidationErrors from turning into a non-nil error interface.
func (v ValidationErrors) orNil() error {
	if len(v) == 0 {
		return nil
	}
	return v
}
