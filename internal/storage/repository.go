package storage

import (
	"context"

	"github.com/cvisual/server/internal/domain/blog"
	"github.com/cvisual/server/internal/domain/contact"
	"github.com/cvisual/server/internal/domain/newsletter"
	"github.com/cvisual/server/internal/domain/offerings"
	"github.com/cvisual/server/internal/domain/projects"
	"github.com/cvisual/server/internal/domain/testimonials"
	"github.com/cvisual/server/internal/domain/users"
)

// Repository groups data access by domain.
type Repository interface {
	Projects() projects.Repository
	Blog() blog.Repository
	Offerings() offerings.Repository
	Testimonials() testimonials.Repository
	Contact() contact.Repository
	Newsletter() newsletter.Repository
	Users() users.Repository

	Ping(ctx context.Context) error
	WithTx(ctx context.Context, fn func(context.Context, Repository) error) error
}
