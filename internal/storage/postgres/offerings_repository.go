package postgres

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/cvisual/server/internal/domain/offerings"
	"github.com/cvisual/server/internal/metrics"
	"github.com/jackc/pgx/v5"
)

var _ offerings.Repository = (*OfferingRepository)(nil)

// OfferingRepository stores offerings in the services table.
type OfferingRepository struct {
	db dbtx
}

const offeringColumns = `
id::text, title, description, icon, image_url, features, pricing, delay, roi,
details_anchor, order_position, is_active, created_at, updated_at`

func scanOffering(row rowScanner) (*offerings.Offering, error) {
	var offering offerings.Offering
	if err := row.Scan(
		&offering.ID,
		&offering.Title,
		&offering.Description,
		&offering.Icon,
		&offering.ImageURL,
		&offering.Features,
		&offering.Pricing,
		&offering.Delay,
		&offering.ROI,
		&offering.DetailsAnchor,
		&offering.OrderPosition,
		&offering.IsActive,
		&offering.CreatedAt,
		&offering.UpdatedAt,
	); err != nil {
		return nil, err
	}
	offering.Features = nonNilStrings(offering.Features)
	return &offering, nil
}

func (r *OfferingRepository) List(ctx context.Context, filters offerings.Filters) (items []offerings.Offering, err error) {
	defer func(start time.Time) { metrics.RecordQuery("list_services", start, err) }(time.Now())

	rows, err := r.db.Query(ctx, `
SELECT `+offeringColumns+`
  FROM services
 WHERE ($1::boolean IS NULL OR is_active = $1)
 ORDER BY order_position ASC, created_at DESC
 LIMIT NULLIF($2::integer, 0)
`, filters.Active, filters.Limit)
	if err != nil {
		return nil, fmt.Errorf("list services: %w", err)
	}
	defer rows.Close()

	items = make([]offerings.Offering, 0)
	for rows.Next() {
		offering, err := scanOffering(rows)
		if err != nil {
			return nil, fmt.Errorf("scan services: %w", err)
		}
		items = append(items, *offering)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate services: %w", err)
	}
	return items, nil
}

func (r *OfferingRepository) GetByID(ctx context.Context, id string) (offering *offerings.Offering, err error) {
	defer func(start time.Time) { metrics.RecordQuery("get_service", start, err) }(time.Now())

	offering, err = scanOffering(r.db.QueryRow(ctx, `SELECT `+offeringColumns+` FROM services WHERE id = $1`, id))
	if err != nil {
		if isNotFound(err) {
			return nil, offerings.ErrNotFound
		}
		return nil, fmt.Errorf("get service: %w", err)
	}
	return offering, nil
}

func (r *OfferingRepository) Count(ctx context.Context) (count int, err error) {
	defer func(start time.Time) { metrics.RecordQuery("count_services", start, err) }(time.Now())

	if err = r.db.QueryRow(ctx, `SELECT count(*) FROM services`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count services: %w", err)
	}
	return count, nil
}

func (r *OfferingRepository) Create(ctx context.Context, offering offerings.Offering) (created *offerings.Offering, err error) {
	defer func(start time.Time) { metrics.RecordQuery("create_service", start, err) }(time.Now())

	created, err = scanOffering(r.db.QueryRow(ctx, `
INSERT INTO services (title, description, icon, image_url, features, pricing, delay, roi,
                      details_anchor, order_position, is_active)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
RETURNING `+offeringColumns,
		offering.Title,
		offering.Description,
		offering.Icon,
		offering.ImageURL,
		nonNilStrings(offering.Features),
		offering.Pricing,
		offering.Delay,
		offering.ROI,
		offering.DetailsAnchor,
		offering.OrderPosition,
		offering.IsActive,
	))
	if err != nil {
		return nil, writeError("insert service", err)
	}
	return created, nil
}

func (r *OfferingRepository) Update(ctx context.Context, id string, mutate func(*offerings.Offering) error) (updated *offerings.Offering, err error) {
	defer func(start time.Time) { metrics.RecordQuery("update_service", start, err) }(time.Now())

	err = pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		current, err := scanOffering(tx.QueryRow(ctx, `SELECT `+offeringColumns+` FROM services WHERE id = $1 FOR UPDATE`, id))
		if err != nil {
			if isNotFound(err) {
				return offerings.ErrNotFound
			}
			return fmt.Errorf("lock service: %w", err)
		}
		current.Features = slices.Clone(current.Features)
		if err := mutate(current); err != nil {
			return err
		}

		updated, err = scanOffering(tx.QueryRow(ctx, `
UPDATE services
   SET title = $2, description = $3, icon = $4, image_url = $5, features = $6, pricing = $7,
       delay = $8, roi = $9, details_anchor = $10, order_position = $11, is_active = $12,
       updated_at = now()
 WHERE id = $1
RETURNING `+offeringColumns,
			id,
			current.Title,
			current.Description,
			current.Icon,
			current.ImageURL,
			nonNilStrings(current.Features),
			current.Pricing,
			current.Delay,
			current.ROI,
			current.DetailsAnchor,
			current.OrderPosition,
			current.IsActive,
		))
		if err != nil {
			return writeError("update service", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (r *OfferingRepository) Delete(ctx context.Context, id string) (err error) {
	defer func(start time.Time) { metrics.RecordQuery("delete_service", start, err) }(time.Now())

	tag, err := r.db.Exec(ctx, `DELETE FROM services WHERE id = $1`, id)
	if err != nil {
		if isNotFound(err) {
			return offerings.ErrNotFound
		}
		return fmt.Errorf("delete service: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return offerings.ErrNotFound
	}
	return nil
}
