package contact

import (
	"context"
	"encoding/json"
	"errors"
	"net/url"
	"strings"
	"time"

	"github.com/cvisual/server/internal/domain/content"
)

var ErrNotFound = errors.New("contact message not found")

// MaxUserAgentLength bounds the stored client string, in characters.
const MaxUserAgentLength = 300

type Status string

const (
	StatusNew      Status = "new"
	StatusRead     Status = "read"
	StatusReplied  Status = "replied"
	StatusArchived Status = "archived"
)

func (s Status) Valid() bool {
	switch s {
	case StatusNew, StatusRead, StatusReplied, StatusArchived:
		return true
	}
	return false
}

func ParseStatus(raw string) (Status, error) {
	status := Status(strings.ToLower(strings.TrimSpace(raw)))
	if !status.Valid() {
		return "", content.ValidationError{Field: "status", Message: "must be one of new, read, replied, archived"}
	}
	return status, nil
}

type Message struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Email         string    `json:"email"`
	Phone         string    `json:"phone"`
	Subject       string    `json:"subject"`
	Company       string    `json:"company"`
	Service       string    `json:"service"`
	Budget        string    `json:"budget"`
	Timeline      string    `json:"timeline"`
	ContactMethod string    `json:"contact_method"`
	Message       string    `json:"message"`
	Status        Status    `json:"status"`
	IPAddress     string    `json:"ip_address,omitempty"`
	UserAgent     string    `json:"user_agent,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Stats counts messages per status.
type Stats struct {
	Total    int `json:"total"`
	New      int `json:"new"`
	Read     int `json:"read"`
	Replied  int `json:"replied"`
	Archived int `json:"archived"`
}

type Filters struct {
	Status *Status
	Limit  int
}

type Repository interface {
	Create(ctx context.Context, message Message) (*Message, error)
	List(ctx context.Context, filters Filters) ([]Message, error)
	GetByID(ctx context.Context, id string) (*Message, error)
	Update(ctx context.Context, id string, mutate func(*Message) error) (*Message, error)
	Delete(ctx context.Context, id string) error
	Stats(ctx context.Context) (Stats, error)
}

// Submission is the public contact form. Both the single name field and the
// first/last name pair of the quote form are accepted. The pair is capped so
// that "first last" fits the name column.
type Submission struct {
	Name          string `json:"name" validate:"required,max=150"`
	FirstName     string `json:"first_name" validate:"max=74"`
	LastName      string `json:"last_name" validate:"max=74"`
	Email         string `json:"email" validate:"required,email,max=150"`
	Phone         string `json:"phone" validate:"max=50"`
	Subject       string `json:"subject" validate:"max=200"`
	Company       string `json:"company" validate:"max=150"`
	Service       string `json:"service" validate:"max=150"`
	Budget        string `json:"budget" validate:"max=100"`
	Timeline      string `json:"timeline" validate:"max=100"`
	ContactMethod string `json:"contact_method" validate:"max=50"`
	Message       string `json:"message" validate:"required,max=5000"`
}

// UnmarshalJSON also accepts the camelCase keys sent by the quote form.
func (s *Submission) UnmarshalJSON(data []byte) error {
	type plain Submission
	var decoded plain
	if err := json.Unmarshal(data, &decoded); err != nil {
		return err
	}
	var camel struct {
		FirstName     string `json:"firstName"`
		LastName      string `json:"lastName"`
		ContactMethod string `json:"contactMethod"`
	}
	if err := json.Unmarshal(data, &camel); err != nil {
		return err
	}
	if decoded.FirstName == "" {
		decoded.FirstName = camel.FirstName
	}
	if decoded.LastName == "" {
		decoded.LastName = camel.LastName
	}
	if decoded.ContactMethod == "" {
		decoded.ContactMethod = camel.ContactMethod
	}
	*s = Submission(decoded)
	return nil
}

// ClientInfo is the request metadata stored with a submission.
type ClientInfo struct {
	IP        string
	UserAgent string
}

type StatusPatch struct {
	Status *string `json:"status"`
}

func ParseFilters(values url.Values) (Filters, error) {
	var filters Filters
	if raw := strings.TrimSpace(values.Get("status")); raw != "" {
		status, err := ParseStatus(raw)
		if err != nil {
			return filters, err
		}
		filters.Status = &status
	}
	limit, err := content.ParseLimit(values)
	if err != nil {
		return filters, err
	}
	filters.Limit = limit
	return filters, nil
}
