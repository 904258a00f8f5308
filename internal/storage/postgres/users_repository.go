package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/cvisual/server/internal/auth"
	"github.com/cvisual/server/internal/domain/users"
	"github.com/cvisual/server/internal/metrics"
	"github.com/jackc/pgx/v5/pgtype"
)

var _ users.Repository = (*UserRepository)(nil)

type UserRepository struct {
	db dbtx
}

const userColumns = `
id::text, username, email, password_hash, full_name, role, is_active, last_login_at, created_at`

func scanUser(row rowScanner) (*users.User, error) {
	var (
		user      users.User
		role      string
		lastLogin pgtype.Timestamptz
	)
	if err := row.Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&user.PasswordHash,
		&user.FullName,
		&role,
		&user.IsActive,
		&lastLogin,
		&user.CreatedAt,
	); err != nil {
		return nil, err
	}
	user.Role = auth.Role(role)
	user.LastLoginAt = timestamptzPtr(lastLogin)
	return &user, nil
}

// GetByLogin compares the email case-insensitively; usernames are exact.
func (r *UserRepository) GetByLogin(ctx context.Context, login string) (user *users.User, err error) {
	defer func(start time.Time) { metrics.RecordQuery("get_user_by_login", start, err) }(time.Now())

	user, err = scanUser(r.db.QueryRow(ctx, `
SELECT `+userColumns+`
  FROM users
 WHERE username = $1 OR email = lower($1)
 ORDER BY username = $1 DESC
 LIMIT 1
`, login))
	if err != nil {
		if isNotFound(err) {
			return nil, users.ErrUserNotFound
		}
		return nil, fmt.Errorf("get user by login: %w", err)
	}
	return user, nil
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (user *users.User, err error) {
	defer func(start time.Time) { metrics.RecordQuery("get_user", start, err) }(time.Now())

	user, err = scanUser(r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	if err != nil {
		if isNotFound(err) {
			return nil, users.ErrUserNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return user, nil
}

func (r *UserRepository) Create(ctx context.Context, user users.User) (created *users.User, err error) {
	defer func(start time.Time) { metrics.RecordQuery("create_user", start, err) }(time.Now())

	created, err = scanUser(r.db.QueryRow(ctx, `
INSERT INTO users (username, email, password_hash, full_name, role, is_active)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING `+userColumns,
		user.Username,
		user.Email,
		user.PasswordHash,
		user.FullName,
		string(user.Role),
		user.IsActive,
	))
	if err != nil {
		switch {
		case isUniqueViolation(err, "users_username_key"):
			return nil, users.ErrUsernameTaken
		case isUniqueViolation(err, "users_email_key"):
			return nil, users.ErrEmailTaken
		}
		return nil, writeError("insert user", err)
	}
	return created, nil
}

func (r *UserRepository) TouchLastLogin(ctx context.Context, id string, at time.Time) (err error) {
	defer func(start time.Time) { metrics.RecordQuery("touch_last_login", start, err) }(time.Now())

	tag, err := r.db.Exec(ctx, `UPDATE users SET last_login_at = $2 WHERE id = $1`, id, at)
	if err != nil {
		return fmt.Errorf("touch last login: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return users.ErrUserNotFound
	}
	return nil
}
