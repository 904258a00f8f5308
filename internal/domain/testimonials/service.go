package testimonials

import (
	"context"
	"strings"

	"github.com/cvisual/server/internal/domain/content"
	"github.com/cvisual/server/internal/metrics"
	"github.com/cvisual/server/internal/sanitize"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// List applies the featured filter in both scopes; the active flag is forced
// for public callers.
func (s *Service) List(ctx context.Context, scope content.Scope, filters Filters) ([]Testimonial, error) {
	filters.Active = content.ResolveActive(scope, filters.Active)
	return s.repo.List(ctx, filters)
}

func (s *Service) Get(ctx context.Context, scope content.Scope, id string) (*Testimonial, error) {
	testimonial, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !content.VisibleActive(scope, testimonial.IsActive) {
		return nil, ErrNotFound
	}
	return testimonial, nil
}

func (s *Service) Create(ctx context.Context, input Input) (*Testimonial, error) {
	testimonial := input.testimonial()
	normalize(&testimonial)
	if err := check(testimonial); err != nil {
		return nil, err
	}
	created, err := s.repo.Create(ctx, testimonial)
	if err != nil {
		return nil, err
	}
	metrics.ContentMutations.WithLabelValues("testimonial", "create").Inc()
	return created, nil
}

func (s *Service) Update(ctx context.Context, id string, patch Patch) (*Testimonial, error) {
	updated, err := s.repo.Update(ctx, id, func(testimonial *Testimonial) error {
		patch.Apply(testimonial)
		normalize(testimonial)
		return check(*testimonial)
	})
	if err != nil {
		return nil, err
	}
	metrics.ContentMutations.WithLabelValues("testimonial", "update").Inc()
	return updated, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	metrics.ContentMutations.WithLabelValues("testimonial", "delete").Inc()
	return nil
}

func normalize(t *Testimonial) {
	t.ClientName = sanitize.Text(t.ClientName)
	t.ClientPosition = sanitize.Text(t.ClientPosition)
	t.ClientCompany = sanitize.Text(t.ClientCompany)
	t.ClientAvatar = strings.TrimSpace(t.ClientAvatar)
	t.Text = sanitize.Text(t.Text)
	t.ProjectType = sanitize.Text(t.ProjectType)

	cleaned := make(map[string]string, len(t.Metrics))
	for k, v := range t.Metrics {
		if key := sanitize.Text(k); key != "" {
			cleaned[key] = sanitize.Text(v)
		}
	}
	t.Metrics = cleaned
}

func check(t Testimonial) error {
	var errs content.ValidationErrors
	if t.ClientName == "" {
		errs = append(errs, content.Required("client_name"))
	}
	if t.Text == "" {
		errs = append(errs, content.Required("testimonial_text"))
	}
	errs = content.CheckLengths(errs,
		content.Limit{Field: "client_name", Value: t.ClientName, Max: 150},
		content.Limit{Field: "client_position", Value: t.ClientPosition, Max: 150},
		content.Limit{Field: "client_company", Value: t.ClientCompany, Max: 150},
		content.Limit{Field: "project_type", Value: t.ProjectType, Max: 100},
	)
	if t.Rating < 1 || t.Rating > 5 {
		errs = append(errs, content.ValidationError{Field: "rating", Message: "must be between 1 and 5"})
	}
	if t.OrderPosition < 0 {
		errs = append(errs, content.ValidationError{Field: "order_position", Message: "must not be negative"})
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}
