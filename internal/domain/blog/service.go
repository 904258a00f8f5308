package blog

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cvisual/server/internal/domain/content"
	"github.com/cvisual/server/internal/metrics"
	"github.com/cvisual/server/internal/sanitize"
)

// maxSlugAttempts bounds the base slug plus numeric suffix retries.
const maxSlugAttempts = 5

type Service struct {
	repo Repository
	now  func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

func (s *Service) List(ctx context.Context, scope content.Scope, filters Filters) ([]Post, error) {
	filters.Status = content.ResolveStatus(scope, filters.Status)
	return s.repo.List(ctx, filters)
}

// View returns the post behind slug and counts the read. Public callers only
// reach published posts; anything else is ErrNotFound.
func (s *Service) View(ctx context.Context, scope content.Scope, slug string) (*Post, error) {
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return nil, ErrNotFound
	}
	post, err := s.repo.ViewBySlug(ctx, slug, content.ResolveStatus(scope, nil))
	if err != nil {
		return nil, err
	}
	metrics.BlogViews.Inc()
	return post, nil
}

func (s *Service) Get(ctx context.Context, scope content.Scope, id string) (*Post, error) {
	post, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !content.Visible(scope, post.Status) {
		return nil, ErrNotFound
	}
	return post, nil
}

// Create derives the slug from the title unless one is given. When the slug
// is taken a numeric suffix is appended and the insert retried.
func (s *Service) Create(ctx context.Context, input Input) (*Post, error) {
	post := input.post()
	base := content.Slugify(post.Slug)
	if strings.TrimSpace(post.Slug) == "" {
		base = content.Slugify(post.Title)
	}
	normalize(&post)
	post.Slug = base
	if err := check(post); err != nil {
		return nil, err
	}
	if post.Status == content.StatusPublished {
		now := s.now().UTC()
		post.PublishedAt = &now
	}

	started := s.now()
	for attempt := 0; attempt < maxSlugAttempts; attempt++ {
		candidate := content.SlugCandidate(base, started, attempt)
		exists, err := s.repo.SlugExists(ctx, candidate)
		if err != nil {
			return nil, err
		}
		if exists {
			continue
		}
		post.Slug = candidate
		created, err := s.repo.Create(ctx, post)
		if errors.Is(err, ErrSlugTaken) {
			continue
		}
		if err != nil {
			return nil, err
		}
		metrics.ContentMutations.WithLabelValues("blog_post", "create").Inc()
		return created, nil
	}
	return nil, fmt.Errorf("%w: no free slug for %q after %d attempts", ErrSlugTaken, base, maxSlugAttempts)
}

// Update applies patch. An explicit slug is normalized but never suffixed;
// a collision surfaces as ErrSlugTaken.
func (s *Service) Update(ctx context.Context, id string, patch Patch) (*Post, error) {
	updated, err := s.repo.Update(ctx, id, func(post *Post) error {
		patch.Apply(post)
		if patch.Slug != nil {
			post.Slug = content.Slugify(*patch.Slug)
		}
		normalize(post)
		if err := check(*post); err != nil {
			return err
		}
		if post.Status == content.StatusPublished && post.PublishedAt == nil {
			now := s.now().UTC()
			post.PublishedAt = &now
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	metrics.ContentMutations.WithLabelValues("blog_post", "update").Inc()
	return updated, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	metrics.ContentMutations.WithLabelValues("blog_post", "delete").Inc()
	return nil
}

func normalize(post *Post) {
	post.Title = sanitize.Text(post.Title)
	post.Excerpt = sanitize.Text(post.Excerpt)
	post.Content = sanitize.HTML(post.Content)
	post.FeaturedImage = strings.TrimSpace(post.FeaturedImage)
	post.Author = sanitize.Text(post.Author)
	if post.Author == "" {
		post.Author = DefaultAuthor
	}
	post.Category = sanitize.Text(post.Category)
	post.Tags = sanitize.TextSlice(post.Tags)
	if post.Tags == nil {
		post.Tags = []string{}
	}
}

func check(post Post) error {
	var errs content.ValidationErrors
	if post.Title == "" {
		errs = append(errs, content.Required("title"))
	}
	if post.Slug == "" {
		errs = append(errs, content.ValidationError{Field: "slug", Message: "must contain at least one letter or digit"})
	}
	errs = content.CheckLengths(errs,
		content.Limit{Field: "title", Value: post.Title, Max: 255},
		content.Limit{Field: "slug", Value: post.Slug, Max: content.MaxSlugLength},
		content.Limit{Field: "author", Value: post.Author, Max: 100},
		content.Limit{Field: "category", Value: post.Category, Max: 100},
	)
	if !post.Status.Valid() {
		errs = append(errs, content.ValidationError{Field: "status", Message: "must be one of draft, published, archived"})
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}
