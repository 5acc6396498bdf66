package auth

import "errors"

// ValidationError is a user-facing authentication failure. Message is shown
// verbatim. Nothing changes when one is returned.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// Failures with fixed messages. Match them with errors.Is.
var (
	ErrPasswordMismatch   = &ValidationError{Message: "Passwords do not match"}
	ErrPasswordTooShort   = &ValidationError{Message: "Password must be at least 6 characters"}
	ErrInvalidEmail       = &ValidationError{Message: "Please enter a valid email address"}
	ErrEmailTaken         = &ValidationError{Message: "Email already registered"}
	ErrInvalidCredentials = &ValidationError{Message: "Invalid email or password"}
)

// IsValidationError reports whether err is or wraps a ValidationError.
func IsValidationError(err error) bool {
	var verr *ValidationError
	return errors.As(err, &verr)
}
