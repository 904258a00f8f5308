package newsletter

import (
	"context"
	"strings"
	"time"

	"github.com/cvisual/server/internal/domain/content"
	"github.com/cvisual/server/internal/metrics"
)

type Subscriber struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

type Repository interface {
	// Subscribe inserts the address unless it is already present. created is
	// false when the row existed.
	Subscribe(ctx context.Context, email string) (subscriber *Subscriber, created bool, err error)
	List(ctx context.Context, limit int) ([]Subscriber, error)
	Count(ctx context.Context) (int, error)
}

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Subscribe is idempotent. Addresses are compared case-insensitively.
func (s *Service) Subscribe(ctx context.Context, email string) (*Subscriber, bool, error) {
	email = NormalizeEmail(email)
	if err := content.ValidateEmail("email", email); err != nil {
		metrics.NewsletterSubscriptions.WithLabelValues("invalid").Inc()
		return nil, false, err
	}
	subscriber, created, err := s.repo.Subscribe(ctx, email)
	if err != nil {
		return nil, false, err
	}
	if created {
		metrics.NewsletterSubscriptions.WithLabelValues("created").Inc()
	} else {
		metrics.NewsletterSubscriptions.WithLabelValues("existing").Inc()
	}
	return subscriber, created, nil
}

func (s *Service) List(ctx context.Context, limit int) ([]Subscriber, int, error) {
	subscribers, err := s.repo.List(ctx, limit)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.repo.Count(ctx)
	if err != nil {
		return nil, 0, err
	}
	return subscribers, total, nil
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
