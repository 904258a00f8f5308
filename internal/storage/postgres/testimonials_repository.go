package postgres

import (
	"context"
	"fmt"
	"maps"
	"time"

	"github.com/cvisual/server/internal/domain/testimonials"
	"github.com/cvisual/server/internal/metrics"
	"github.com/jackc/pgx/v5"
)

var _ testimonials.Repository = (*TestimonialRepository)(nil)

type TestimonialRepository struct {
	db dbtx
}

const testimonialColumns = `
id::text, client_name, client_position, client_company, client_avatar, testimonial_text,
rating, project_type, metrics, is_featured, order_position, is_active, created_at, updated_at`

func scanTestimonial(row rowScanner) (*testimonials.Testimonial, error) {
	var testimonial testimonials.Testimonial
	if err := row.Scan(
		&testimonial.ID,
		&testimonial.ClientName,
		&testimonial.ClientPosition,
		&testimonial.ClientCompany,
		&testimonial.ClientAvatar,
		&testimonial.Text,
		&testimonial.Rating,
		&testimonial.ProjectType,
		&testimonial.Metrics,
		&testimonial.IsFeatured,
		&testimonial.OrderPosition,
		&testimonial.IsActive,
		&testimonial.CreatedAt,
		&testimonial.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if testimonial.Metrics == nil {
		testimonial.Metrics = map[string]string{}
	}
	return &testimonial, nil
}

func metricsParam(values map[string]string) map[string]string {
	if values == nil {
		return map[string]string{}
	}
	return values
}

func (r *TestimonialRepository) List(ctx context.Context, filters testimonials.Filters) (items []testimonials.Testimonial, err error) {
	defer func(start time.Time) { metrics.RecordQuery("list_testimonials", start, err) }(time.Now())

	rows, err := r.db.Query(ctx, `
SELECT `+testimonialColumns+`
  FROM testimonials
 WHERE ($1::boolean IS NULL OR is_active = $1)
   AND ($2::boolean IS NULL OR is_featured = $2)
 ORDER BY order_position ASC, created_at DESC
 LIMIT NULLIF($3::integer, 0)
`, filters.Active, filters.Featured, filters.Limit)
	if err != nil {
		return nil, fmt.Errorf("list testimonials: %w", err)
	}
	defer rows.Close()

	items = make([]testimonials.Testimonial, 0)
	for rows.Next() {
		testimonial, err := scanTestimonial(rows)
		if err != nil {
			return nil, fmt.Errorf("scan testimonials: %w", err)
		}
		items = append(items, *testimonial)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate testimonials: %w", err)
	}
	return items, nil
}

func (r *TestimonialRepository) GetByID(ctx context.Context, id string) (testimonial *testimonials.Testimonial, err error) {
	defer func(start time.Time) { metrics.RecordQuery("get_testimonial", start, err) }(time.Now())

	testimonial, err = scanTestimonial(r.db.QueryRow(ctx, `SELECT `+testimonialColumns+` FROM testimonials WHERE id = $1`, id))
	if err != nil {
		if isNotFound(err) {
			return nil, testimonials.ErrNotFound
		}
		return nil, fmt.Errorf("get testimonial: %w", err)
	}
	return testimonial, nil
}

func (r *TestimonialRepository) Create(ctx context.Context, testimonial testimonials.Testimonial) (created *testimonials.Testimonial, err error) {
	defer func(start time.Time) { metrics.RecordQuery("create_testimonial", start, err) }(time.Now())

	created, err = scanTestimonial(r.db.QueryRow(ctx, `
INSERT INTO testimonials (client_name, client_position, client_company, client_avatar,
                          testimonial_text, rating, project_type, metrics, is_featured,
                          order_position, is_active)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
RETURNING `+testimonialColumns,
		testimonial.ClientName,
		testimonial.ClientPosition,
		testimonial.ClientCompany,
		testimonial.ClientAvatar,
		testimonial.Text,
		testimonial.Rating,
		testimonial.ProjectType,
		metricsParam(testimonial.Metrics),
		testimonial.IsFeatured,
		testimonial.OrderPosition,
		testimonial.IsActive,
	))
	if err != nil {
		return nil, writeError("insert testimonial", err)
	}
	return created, nil
}

func (r *TestimonialRepository) Update(ctx context.Context, id string, mutate func(*testimonials.Testimonial) error) (updated *testimonials.Testimonial, err error) {
	defer func(start time.Time) { metrics.RecordQuery("update_testimonial", start, err) }(time.Now())

	err = pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		current, err := scanTestimonial(tx.QueryRow(ctx, `SELECT `+testimonialColumns+` FROM testimonials WHERE id = $1 FOR UPDATE`, id))
		if err != nil {
			if isNotFound(err) {
				return testimonials.ErrNotFound
			}
			return fmt.Errorf("lock testimonial: %w", err)
		}
		current.Metrics = maps.Clone(current.Metrics)
		if err := mutate(current); err != nil {
			return err
		}

		updated, err = scanTestimonial(tx.QueryRow(ctx, `
UPDATE testimonials
   SET client_name = $2, client_position = $3, client_company = $4, client_avatar = $5,
       testimonial_text = $6, rating = $7, project_type = $8, metrics = $9, is_featured = $10,
       order_position = $11, is_active = $12, updated_at = now()
 WHERE id = $1
RETURNING `+testimonialColumns,
			id,
			current.ClientName,
			current.ClientPosition,
			current.ClientCompany,
			current.ClientAvatar,
			current.Text,
			current.Rating,
			current.ProjectType,
			metricsParam(current.Metrics),
			current.IsFeatured,
			current.OrderPosition,
			current.IsActive,
		))
		if err != nil {
			return writeError("update testimonial", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (r *TestimonialRepository) Delete(ctx context.Context, id string) (err error) {
	defer func(start time.Time) { metrics.RecordQuery("delete_testimonial", start, err) }(time.Now())

	tag, err := r.db.Exec(ctx, `DELETE FROM testimonials WHERE id = $1`, id)
	if err != nil {
		if isNotFound(err) {
			return testimonials.ErrNotFound
		}
		return fmt.Errorf("delete testimonial: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return testimonials.ErrNotFound
	}
	return nil
}
