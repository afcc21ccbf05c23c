package common

import (
	"errors"
	"strings"
)

// ValidationError collects every violated-field message for a write, so the
// caller gets the full set rather than only the first failure.
type ValidationError struct {
	Messages []string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + strings.Join(e.Messages, "; ")
}

// Add appends a violation message. A nil-safe helper is deliberately not
// provided; callers build the value and check HasErrors before returning it.
func (e *ValidationError) Add(msg string) {
	e.Messages = append(e.Messages, msg)
}

func (e *ValidationError) HasErrors() bool {
	return len(e.Messages) > 0
}

// AsValidationError unwraps err into a *ValidationError if it is one.
func AsValidationError(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}
