package contact

import (
	"context"
	"strings"

	"github.com/cvisual/server/internal/domain/content"
	"github.com/cvisual/server/internal/metrics"
	"github.com/cvisual/server/internal/sanitize"
	"github.com/rs/zerolog"
)

// Notifier tells the site owner about a new message.
type Notifier interface {
	NotifyContactMessage(ctx context.Context, message Message) error
}

type Service struct {
	repo     Repository
	notifier Notifier
	logger   zerolog.Logger
}

// NewService builds the contact service. notifier may be nil.
func NewService(repo Repository, notifier Notifier, logger zerolog.Logger) *Service {
	return &Service{
		repo:     repo,
		notifier: notifier,
		logger:   logger.With().Str("component", "contact").Logger(),
	}
}

// Submit validates and stores a public submission. The notification is sent
// after the row is committed; its failure is logged only.
func (s *Service) Submit(ctx context.Context, submission Submission, client ClientInfo) (*Message, error) {
	normalizeSubmission(&submission)
	if err := content.Validate(submission); err != nil {
		metrics.ContactSubmissions.WithLabelValues("invalid").Inc()
		return nil, err
	}

	message := Message{
		Name:          submission.Name,
		Email:         submission.Email,
		Phone:         submission.Phone,
		Subject:       submission.Subject,
		Company:       submission.Company,
		Service:       submission.Service,
		Budget:        submission.Budget,
		Timeline:      submission.Timeline,
		ContactMethod: submission.ContactMethod,
		Message:       submission.Message,
		Status:        StatusNew,
		IPAddress:     content.Truncate(strings.TrimSpace(client.IP), 50),
		UserAgent:     content.Truncate(client.UserAgent, MaxUserAgentLength),
	}

	created, err := s.repo.Create(ctx, message)
	if err != nil {
		metrics.ContactSubmissions.WithLabelValues("error").Inc()
		return nil, err
	}
	metrics.ContactSubmissions.WithLabelValues("stored").Inc()

	if s.notifier != nil {
		if err := s.notifier.NotifyContactMessage(ctx, *created); err != nil {
			s.logger.Warn().Err(err).Str("message_id", created.ID).Msg("contact notification failed")
		}
	}
	return created, nil
}

func (s *Service) List(ctx context.Context, filters Filters) ([]Message, error) {
	return s.repo.List(ctx, filters)
}

// Get returns the message and marks it read if it was new.
func (s *Service) Get(ctx context.Context, id string) (*Message, error) {
	message, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if message.Status != StatusNew {
		return message, nil
	}
	return s.repo.Update(ctx, id, func(m *Message) error {
		if m.Status == StatusNew {
			m.Status = StatusRead
		}
		return nil
	})
}

func (s *Service) UpdateStatus(ctx context.Context, id string, patch StatusPatch) (*Message, error) {
	var status Status
	if patch.Status != nil {
		parsed, err := ParseStatus(*patch.Status)
		if err != nil {
			return nil, err
		}
		status = parsed
	}
	updated, err := s.repo.Update(ctx, id, func(m *Message) error {
		if status != "" {
			m.Status = status
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	metrics.ContentMutations.WithLabelValues("contact_message", "update").Inc()
	return updated, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	metrics.ContentMutations.WithLabelValues("contact_message", "delete").Inc()
	return nil
}

func (s *Service) Stats(ctx context.Context) (Stats, error) {
	return s.repo.Stats(ctx)
}

func normalizeSubmission(sub *Submission) {
	sub.Name = sanitize.Text(sub.Name)
	sub.FirstName = sanitize.Text(sub.FirstName)
	sub.LastName = sanitize.Text(sub.LastName)
	if sub.Name == "" {
		sub.Name = strings.TrimSpace(sub.FirstName + " " + sub.LastName)
	}
	sub.Email = strings.ToLower(strings.TrimSpace(sub.Email))
	sub.Phone = sanitize.Text(sub.Phone)
	sub.Subject = sanitize.Text(sub.Subject)
	sub.Company = sanitize.Text(sub.Company)
	sub.Service = sanitize.Text(sub.Service)
	sub.Budget = sanitize.Text(sub.Budget)
	sub.Timeline = sanitize.Text(sub.Timeline)
	sub.ContactMethod = sanitize.Text(sub.ContactMethod)
	sub.Message = sanitize.Text(sub.Message)
}
