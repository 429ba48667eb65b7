package escalation

import (
	"errors"
	"fmt"
)

// ValidationError marks a request rejected for a missing or malformed field.
// The HTTP layer maps it to a 400 response, distinct from not-found errors.
type ValidationError struct {
	msg string
}

func (e *ValidationError) Error() string { return e.msg }

// validationf builds a ValidationError with fmt-style formatting.
func validationf(format string, args ...interface{}) error {
	return &ValidationError{msg: fmt.Sprintf(format, args...)}
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}
