package content

import (
	"errors"
	"fmt"
)

// ValidationError reports a rejected input field. Handlers map it to 400.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// ValidationErrors groups several field failures from one payload.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return "validation failed"
	}
	if len(e) == 1 {
		return e[0].Error()
	}
	return fmt.Sprintf("%s (and %d more)", e[0].Error(), len(e)-1)
}

// Fields returns the failures keyed by field name.
func (e ValidationErrors) Fields() map[string]interface{} {
	out := make(map[string]interface{}, len(e))
	for _, item := range e {
		out[item.Field] = item.Message
	}
	return out
}

// IsValidation reports whether err is, or wraps, a validation failure.
func IsValidation(err error) bool {
	var single ValidationError
	var multi ValidationErrors
	return errors.As(err, &single) || errors.As(err, &multi)
}

func Required(field string) ValidationError {
	return ValidationError{Field: field, Message: "is required"}
}
