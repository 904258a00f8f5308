package offerings

import (
	"context"
	"strings"

	"github.com/cvisual/server/internal/domain/content"
	"github.com/cvisual/server/internal/metrics"
	"github.com/cvisual/server/internal/sanitize"
	"github.com/rs/zerolog"
)

type Service struct {
	repo   Repository
	logger zerolog.Logger
}

func NewService(repo Repository, logger zerolog.Logger) *Service {
	return &Service{repo: repo, logger: logger.With().Str("component", "offerings").Logger()}
}

func (s *Service) List(ctx context.Context, scope content.Scope, filters Filters) ([]Offering, error) {
	filters.Active = content.ResolveActive(scope, filters.Active)
	return s.repo.List(ctx, filters)
}

func (s *Service) Get(ctx context.Context, scope content.Scope, id string) (*Offering, error) {
	offering, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !content.VisibleActive(scope, offering.IsActive) {
		return nil, ErrNotFound
	}
	return offering, nil
}

func (s *Service) Create(ctx context.Context, input Input) (*Offering, error) {
	offering := input.offering()
	normalize(&offering)
	if err := check(offering); err != nil {
		return nil, err
	}
	created, err := s.repo.Create(ctx, offering)
	if err != nil {
		return nil, err
	}
	metrics.ContentMutations.WithLabelValues("service", "create").Inc()
	return created, nil
}

func (s *Service) Update(ctx context.Context, id string, patch Patch) (*Offering, error) {
	updated, err := s.repo.Update(ctx, id, func(offering *Offering) error {
		patch.Apply(offering)
		normalize(offering)
		return check(*offering)
	})
	if err != nil {
		return nil, err
	}
	metrics.ContentMutations.WithLabelValues("service", "update").Inc()
	return updated, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	metrics.ContentMutations.WithLabelValues("service", "delete").Inc()
	return nil
}

// SeedDefaults inserts defaults when no service exists yet. It returns the
// number of rows created.
func (s *Service) SeedDefaults(ctx context.Context, defaults []Input) (int, error) {
	count, err := s.repo.Count(ctx)
	if err != nil {
		return 0, err
	}
	if count > 0 {
		s.logger.Info().Int("existing", count).Msg("services already present, skipping seed")
		return 0, nil
	}
	created := 0
	for _, input := range defaults {
		if _, err := s.Create(ctx, input); err != nil {
			return created, err
		}
		created++
	}
	s.logger.Info().Int("created", created).Msg("seeded default services")
	return created, nil
}

func normalize(offering *Offering) {
	offering.Title = sanitize.Text(offering.Title)
	offering.Description = sanitize.Text(offering.Description)
	offering.Icon = sanitize.Text(offering.Icon)
	offering.ImageURL = strings.TrimSpace(offering.ImageURL)
	offering.Features = sanitize.TextSlice(offering.Features)
	if offering.Features == nil {
		offering.Features = []string{}
	}
	offering.Pricing = sanitize.Text(offering.Pricing)
	offering.Delay = sanitize.Text(offering.Delay)
	offering.ROI = sanitize.Text(offering.ROI)
	offering.DetailsAnchor = sanitize.Text(offering.DetailsAnchor)
}

func check(offering Offering) error {
	var errs content.ValidationErrors
	if offering.Title == "" {
		errs = append(errs, content.Required("title"))
	}
	errs = content.CheckLengths(errs,
		content.Limit{Field: "title", Value: offering.Title, Max: 255},
		content.Limit{Field: "icon", Value: offering.Icon, Max: 100},
		content.Limit{Field: "pricing", Value: offering.Pricing, Max: 100},
		content.Limit{Field: "delay", Value: offering.Delay, Max: 100},
		content.Limit{Field: "roi", Value: offering.ROI, Max: 100},
		content.Limit{Field: "details_anchor", Value: offering.DetailsAnchor, Max: 100},
	)
	if offering.OrderPosition < 0 {
		errs = append(errs, content.ValidationError{Field: "order_position", Message: "must not be negative"})
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}
