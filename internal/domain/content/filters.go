package content

import (
	"net/url"
	"strconv"
	"strings"
)

const MaxLimit = 200

// ParseLimit reads the optional limit parameter. Zero means no limit.
func ParseLimit(values url.Values) (int, error) {
	raw := strings.TrimSpace(values.Get("limit"))
	if raw == "" {
		return 0, nil
	}
	parsed, err := strconv.Atoi(raw)
	if err != nil {
		return 0, ValidationError{Field: "limit", Message: "must be a number"}
	}
	if parsed < 1 || parsed > MaxLimit {
		return 0, ValidationError{Field: "limit", Message: "must be between 1 and 200"}
	}
	return parsed, nil
}

// ParseStatusFilter reads the optional status parameter.
func ParseStatusFilter(values url.Values) (*Status, error) {
	raw := strings.TrimSpace(values.Get("status"))
	if raw == "" {
		return nil, nil
	}
	status, err := ParseStatus(raw)
	if err != nil {
		return nil, err
	}
	return &status, nil
}

// ParseBool reads an optional boolean parameter. Besides the strconv forms
// it accepts "yes"/"no" and "on"/"off" as sent by HTML forms.
func ParseBool(values url.Values, key string) (*bool, error) {
	raw := strings.ToLower(strings.TrimSpace(values.Get(key)))
	if raw == "" {
		return nil, nil
	}
	var parsed bool
	switch raw {
	case "yes", "on":
		parsed = true
	case "no", "off":
		parsed = false
	default:
		value, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, ValidationError{Field: key, Message: "must be true or false"}
		}
		parsed = value
	}
	return &parsed, nil
}
