package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cvisual/server/internal/domain/newsletter"
	"github.com/cvisual/server/internal/metrics"
	"github.com/jackc/pgx/v5"
)

var _ newsletter.Repository = (*NewsletterRepository)(nil)

type NewsletterRepository struct {
	db dbtx
}

// Subscribe relies on the unique email constraint so concurrent sign-ups of
// the same address produce a single row.
func (r *NewsletterRepository) Subscribe(ctx context.Context, email string) (subscriber *newsletter.Subscriber, created bool, err error) {
	defer func(start time.Time) { metrics.RecordQuery("newsletter_subscribe", start, err) }(time.Now())

	var sub newsletter.Subscriber
	err = r.db.QueryRow(ctx, `
INSERT INTO newsletter_subscribers (email)
VALUES ($1)
ON CONFLICT (email) DO NOTHING
RETURNING id::text, email, created_at
`, email).Scan(&sub.ID, &sub.Email, &sub.CreatedAt)
	if err == nil {
		return &sub, true, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, false, writeError("insert subscriber", err)
	}

	err = r.db.QueryRow(ctx, `
SELECT id::text, email, created_at FROM newsletter_subscribers WHERE email = $1
`, email).Scan(&sub.ID, &sub.Email, &sub.CreatedAt)
	if err != nil {
		return nil, false, fmt.Errorf("load subscriber: %w", err)
	}
	return &sub, false, nil
}

func (r *NewsletterRepository) List(ctx context.Context, limit int) (items []newsletter.Subscriber, err error) {
	defer func(start time.Time) { metrics.RecordQuery("list_subscribers", start, err) }(time.Now())

	rows, err := r.db.Query(ctx, `
SELECT id::text, email, created_at
  FROM newsletter_subscribers
 ORDER BY created_at DESC
 LIMIT NULLIF($1::integer, 0)
`, limit)
	if err != nil {
		return nil, fmt.Errorf("list subscribers: %w", err)
	}
	items, err = pgx.CollectRows(rows, func(row pgx.CollectableRow) (newsletter.Subscriber, error) {
		var sub newsletter.Subscriber
		err := row.Scan(&sub.ID, &sub.Email, &sub.CreatedAt)
		return sub, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan subscribers: %w", err)
	}
	return items, nil
}

func (r *NewsletterRepository) Count(ctx context.Context) (count int, err error) {
	defer func(start time.Time) { metrics.RecordQuery("count_subscribers", start, err) }(time.Now())

	if err = r.db.QueryRow(ctx, `SELECT count(*) FROM newsletter_subscribers`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count subscribers: %w", err)
	}
	return count, nil
}
