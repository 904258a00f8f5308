package content

import (
	"errors"
	"reflect"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report failures under the JSON name clients actually send.
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return field.Name
		}
		return name
	})
	return v
}

// Validate checks the `validate` struct tags of input and converts failures
// into ValidationErrors.
func Validate(input any) error {
	err := validate.Struct(input)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}
	out := make(ValidationErrors, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		out = append(out, ValidationError{Field: fe.Field(), Message: describeTag(fe)})
	}
	return out
}

// ValidateEmail checks a single address with the same rules as the email tag.
func ValidateEmail(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return Required(field)
	}
	if err := validate.Var(value, "email,max=254"); err != nil {
		return ValidationError{Field: field, Message: "must be a valid email address"}
	}
	return nil
}

func describeTag(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "max":
		return "must be at most " + fe.Param() + " characters"
	case "min":
		return "must be at least " + fe.Param()
	case "oneof":
		return "must be one of " + fe.Param()
	case "url", "http_url":
		return "must be a valid URL"
	default:
		return "is invalid"
	}
}

// Limit pairs a field value with the width of the column that stores it.
type Limit struct {
	Field string
	Value string
	Max   int
}

// CheckLengths appends a failure for every value holding more characters than
// its column.
func CheckLengths(errs ValidationErrors, limits ...Limit) ValidationErrors {
	for _, limit := range limits {
		if utf8.RuneCountInString(limit.Value) > limit.Max {
			errs = append(errs, ValidationError{
				Field:   limit.Field,
				Message: "must be at most " + strconv.Itoa(limit.Max) + " characters",
			})
		}
	}
	return errs
}

// Truncate shortens s to at most max runes.
func Truncate(s string, max int) string {
	if max <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	runes := []rune(s)
	return string(runes[:max])
}

// IsHTTPURL reports whether raw is an absolute http or https URL.
func IsHTTPURL(raw string) bool {
	return validate.Var(raw, "http_url") == nil
}
