package projects

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"

	"github.com/cvisual/server/internal/domain/content"
	dateparser "github.com/markusmobius/go-dateparser"
)

const dateLayout = "2006-01-02"

// Date is a calendar day serialized as YYYY-MM-DD.
type Date struct {
	time.Time
}

func NewDate(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Time: time.Date(y, m, d, 0, 0, 0, 0, time.UTC)}
}

func (d Date) String() string {
	return d.Format(dateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		return nil
	}
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return content.ValidationError{Field: "project_date", Message: "must be a date string"}
	}
	parsed, err := ParseDate(raw)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// ParseDate accepts ISO dates first and falls back to free-form input such as
// "March 2024" or "12 mars 2023", which older admin forms submitted.
func ParseDate(raw string) (Date, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Date{}, content.ValidationError{Field: "project_date", Message: "is empty"}
	}
	for _, layout := range []string{dateLayout, time.RFC3339, "2006-01-02T15:04:05", "2006-01"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return NewDate(t), nil
		}
	}
	parsed, err := dateparser.Parse(nil, raw)
	if err != nil || parsed.Time.IsZero() {
		return Date{}, content.ValidationError{Field: "project_date", Message: "is not a recognizable date"}
	}
	return NewDate(parsed.Time), nil
}
