package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/cvisual/server/internal/domain/contact"
	"github.com/cvisual/server/internal/metrics"
	"github.com/jackc/pgx/v5"
)

var _ contact.Repository = (*ContactRepository)(nil)

type ContactRepository struct {
	db dbtx
}

const messageColumns = `
id::text, name, email, phone, subject, company, service, budget, timeline, contact_method,
message, status, ip_address, user_agent, created_at, updated_at`

func scanMessage(row rowScanner) (*contact.Message, error) {
	var (
		message contact.Message
		status  string
	)
	if err := row.Scan(
		&message.ID,
		&message.Name,
		&message.Email,
		&message.Phone,
		&message.Subject,
		&message.Company,
		&message.Service,
		&message.Budget,
		&message.Timeline,
		&message.ContactMethod,
		&message.Message,
		&status,
		&message.IPAddress,
		&message.UserAgent,
		&message.CreatedAt,
		&message.UpdatedAt,
	); err != nil {
		return nil, err
	}
	message.Status = contact.Status(status)
	return &message, nil
}

func contactStatusParam(status *contact.Status) *string {
	if status == nil {
		return nil
	}
	value := string(*status)
	return &value
}

func (r *ContactRepository) Create(ctx context.Context, message contact.Message) (created *contact.Message, err error) {
	defer func(start time.Time) { metrics.RecordQuery("create_contact_message", start, err) }(time.Now())

	status := message.Status
	if status == "" {
		status = contact.StatusNew
	}
	created, err = scanMessage(r.db.QueryRow(ctx, `
INSERT INTO contact_messages (name, email, phone, subject, company, service, budget, timeline,
                              contact_method, message, status, ip_address, user_agent)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
RETURNING `+messageColumns,
		message.Name,
		message.Email,
		message.Phone,
		message.Subject,
		message.Company,
		message.Service,
		message.Budget,
		message.Timeline,
		message.ContactMethod,
		message.Message,
		string(status),
		message.IPAddress,
		message.UserAgent,
	))
	if err != nil {
		return nil, writeError("insert contact message", err)
	}
	return created, nil
}

func (r *ContactRepository) List(ctx context.Context, filters contact.Filters) (items []contact.Message, err error) {
	defer func(start time.Time) { metrics.RecordQuery("list_contact_messages", start, err) }(time.Now())

	rows, err := r.db.Query(ctx, `
SELECT `+messageColumns+`
  FROM contact_messages
 WHERE ($1::text IS NULL OR status = $1)
 ORDER BY created_at DESC
 LIMIT NULLIF($2::integer, 0)
`, contactStatusParam(filters.Status), filters.Limit)
	if err != nil {
		return nil, fmt.Errorf("list contact messages: %w", err)
	}
	defer rows.Close()

	items = make([]contact.Message, 0)
	for rows.Next() {
		message, err := scanMessage(rows)
		if err != nil {
			return nil, fmt.Errorf("scan contact messages: %w", err)
		}
		items = append(items, *message)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate contact messages: %w", err)
	}
	return items, nil
}

func (r *ContactRepository) GetByID(ctx context.Context, id string) (message *contact.Message, err error) {
	defer func(start time.Time) { metrics.RecordQuery("get_contact_message", start, err) }(time.Now())

	message, err = scanMessage(r.db.QueryRow(ctx, `SELECT `+messageColumns+` FROM contact_messages WHERE id = $1`, id))
	if err != nil {
		if isNotFound(err) {
			return nil, contact.ErrNotFound
		}
		return nil, fmt.Errorf("get contact message: %w", err)
	}
	return message, nil
}

// Update only persists the status; submitted fields are immutable.
func (r *ContactRepository) Update(ctx context.Context, id string, mutate func(*contact.Message) error) (updated *contact.Message, err error) {
	defer func(start time.Time) { metrics.RecordQuery("update_contact_message", start, err) }(time.Now())

	err = pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		current, err := scanMessage(tx.QueryRow(ctx, `SELECT `+messageColumns+` FROM contact_messages WHERE id = $1 FOR UPDATE`, id))
		if err != nil {
			if isNotFound(err) {
				return contact.ErrNotFound
			}
			return fmt.Errorf("lock contact message: %w", err)
		}
		if err := mutate(current); err != nil {
			return err
		}
		updated, err = scanMessage(tx.QueryRow(ctx, `
UPDATE contact_messages
   SET status = $2, updated_at = now()
 WHERE id = $1
RETURNING `+messageColumns, id, string(current.Status)))
		if err != nil {
			return writeError("update contact message", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (r *ContactRepository) Delete(ctx context.Context, id string) (err error) {
	defer func(start time.Time) { metrics.RecordQuery("delete_contact_message", start, err) }(time.Now())

	tag, err := r.db.Exec(ctx, `DELETE FROM contact_messages WHERE id = $1`, id)
	if err != nil {
		if isNotFound(err) {
			return contact.ErrNotFound
		}
		return fmt.Errorf("delete contact message: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return contact.ErrNotFound
	}
	return nil
}

func (r *ContactRepository) Stats(ctx context.Context) (stats contact.Stats, err error) {
	defer func(start time.Time) { metrics.RecordQuery("contact_stats", start, err) }(time.Now())

	err = r.db.QueryRow(ctx, `
SELECT count(*),
       count(*) FILTER (WHERE status = 'new'),
       count(*) FILTER (WHERE status = 'read'),
       count(*) FILTER (WHERE status = 'replied'),
       count(*) FILTER (WHERE status = 'archived')
  FROM contact_messages
`).Scan(&stats.Total, &stats.New, &stats.Read, &stats.Replied, &stats.Archived)
	if err != nil {
		return contact.Stats{}, fmt.Errorf("contact stats: %w", err)
	}
	return stats, nil
}
