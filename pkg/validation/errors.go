package validation

import "errors"

// ValidationError reports the first required field missing from a request.
// Message is safe to return to the caller verbatim.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// IsValidationError reports whether err wraps a *ValidationError.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

func missing(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}
