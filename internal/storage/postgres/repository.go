package postgres

import (
	"context"
	"fmt"

	"github.com/cvisual/server/internal/domain/blog"
	"github.com/cvisual/server/internal/domain/contact"
	"github.com/cvisual/server/internal/domain/newsletter"
	"github.com/cvisual/server/internal/domain/offerings"
	"github.com/cvisual/server/internal/domain/projects"
	"github.com/cvisual/server/internal/domain/testimonials"
	"github.com/cvisual/server/internal/domain/users"
	"github.com/cvisual/server/internal/storage"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository implements storage.Repository interface with PostgreSQL backend
type Repository struct {
	pool *pgxpool.Pool
	tx   pgx.Tx
}

// NewRepository creates a new PostgreSQL-backed repository
func NewRepository(pool *pgxpool.Pool) (*Repository, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool cannot be nil")
	}
	return &Repository{pool: pool}, nil
}

func (r *Repository) db() dbtx {
	if r.tx != nil {
		return r.tx
	}
	return r.pool
}

func (r *Repository) Projects() projects.Repository {
	return &ProjectRepository{db: r.db()}
}

func (r *Repository) Blog() blog.Repository {
	return &BlogRepository{db: r.db()}
}

func (r *Repository) Offerings() offerings.Repository {
	return &OfferingRepository{db: r.db()}
}

func (r *Repository) Testimonials() testimonials.Repository {
	return &TestimonialRepository{db: r.db()}
}

func (r *Repository) Contact() contact.Repository {
	return &ContactRepository{db: r.db()}
}

func (r *Repository) Newsletter() newsletter.Repository {
	return &NewsletterRepository{db: r.db()}
}

func (r *Repository) Users() users.Repository {
	return &UserRepository{db: r.db()}
}

func (r *Repository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

// WithTx executes a function within a database transaction
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, storage.Repository) error) error {
	if r.tx != nil {
		return fn(ctx, r)
	}
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	txRepo := &Repository{pool: r.pool, tx: tx}

	if err := fn(ctx, txRepo); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil {
			return fmt.Errorf("rollback after error %v: %w", err, rbErr)
		}
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
