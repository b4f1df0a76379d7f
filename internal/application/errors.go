package application

import "errors"

var (
	// ErrNotFound is returned when the requested resource does not exist.
	ErrNotFound = errors.New("application: not found")
	// ErrForbidden is returned when the acting principal is not allowed to perform the operation.
	ErrForbidden = errors.New("application: forbidden")
	// ErrConflict is returned when the operation loses against current state,
	// such as a full session or an invite that is no longer pending.
	ErrConflict = errors.New("application: conflict")
	// ErrExpired is returned when an accept is attempted after the session's scheduled end.
	ErrExpired = errors.New("application: expired")
)

// ValidationError captures field level validation issues that callers can surface to users.
type ValidationError struct {
	FieldErrors map[string]string
}

// Error implements the error interface.
func (v *ValidationError) Error() string {
	if v == nil {
		return ""
	}
	return "validation failed"
}

// HasErrors reports whether any field level issues were recorded.
func (v *ValidationError) HasErrors() bool {
	return v != nil && len(v.FieldErrors) > 0
}

// add records a field level validation error.
func (v *ValidationError) add(field, message string) {
	if v.FieldErrors == nil {
		v.FieldErrors = make(map[string]string)
	}
	v.FieldErrors[field] = message
}
