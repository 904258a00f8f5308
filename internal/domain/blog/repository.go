package blog

import (
	"context"
	"errors"
	"time"

	"github.com/cvisual/server/internal/domain/content"
)

var (
	ErrNotFound = errors.New("blog post not found")
	// ErrSlugTaken is returned by the repository when the slug unique
	// constraint rejects a write.
	ErrSlugTaken = errors.New("slug already in use")
)

const DefaultAuthor = "CVisual Team"

type Post struct {
	ID            string         `json:"id"`
	Title         string         `json:"title"`
	Slug          string         `json:"slug"`
	Excerpt       string         `json:"excerpt"`
	Content       string         `json:"content"`
	FeaturedImage string         `json:"featured_image"`
	Author        string         `json:"author"`
	Category      string         `json:"category"`
	Tags          []string       `json:"tags"`
	Status        content.Status `json:"status"`
	PublishedAt   *time.Time     `json:"published_at"`
	ViewsCount    int            `json:"views_count"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

type Filters struct {
	Status   *content.Status
	Category string
	Limit    int
}

type Repository interface {
	List(ctx context.Context, filters Filters) ([]Post, error)
	GetByID(ctx context.Context, id string) (*Post, error)
	// ViewBySlug increments the view counter of the post and returns it in
	// one statement. A non-nil status restricts the match, so a hidden post
	// is neither counted nor returned.
	ViewBySlug(ctx context.Context, slug string, status *content.Status) (*Post, error)
	SlugExists(ctx context.Context, slug string) (bool, error)
	Create(ctx context.Context, post Post) (*Post, error)
	Update(ctx context.Context, id string, mutate func(*Post) error) (*Post, error)
	Delete(ctx context.Context, id string) error
}
