package postgres

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/cvisual/server/internal/domain/blog"
	"github.com/cvisual/server/internal/domain/content"
	"github.com/cvisual/server/internal/metrics"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

var _ blog.Repository = (*BlogRepository)(nil)

type BlogRepository struct {
	db dbtx
}

const postColumns = `
id::text, title, slug, excerpt, content, featured_image, author, category, tags,
status, published_at, views_count, created_at, updated_at`

func scanPost(row rowScanner) (*blog.Post, error) {
	var (
		post        blog.Post
		status      string
		publishedAt pgtype.Timestamptz
	)
	if err := row.Scan(
		&post.ID,
		&post.Title,
		&post.Slug,
		&post.Excerpt,
		&post.Content,
		&post.FeaturedImage,
		&post.Author,
		&post.Category,
		&post.Tags,
		&status,
		&publishedAt,
		&post.ViewsCount,
		&post.CreatedAt,
		&post.UpdatedAt,
	); err != nil {
		return nil, err
	}
	post.Status = content.Status(status)
	post.PublishedAt = timestamptzPtr(publishedAt)
	post.Tags = nonNilStrings(post.Tags)
	return &post, nil
}

func (r *BlogRepository) List(ctx context.Context, filters blog.Filters) (items []blog.Post, err error) {
	defer func(start time.Time) { metrics.RecordQuery("list_blog_posts", start, err) }(time.Now())

	rows, err := r.db.Query(ctx, `
SELECT `+postColumns+`
  FROM blog_posts
 WHERE ($1::text IS NULL OR status = $1)
   AND ($2::text = '' OR category = $2)
 ORDER BY published_at DESC NULLS LAST, created_at DESC
 LIMIT NULLIF($3::integer, 0)
`,
		statusParam(filters.Status),
		filters.Category,
		filters.Limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list blog posts: %w", err)
	}
	defer rows.Close()

	items = make([]blog.Post, 0)
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			return nil, fmt.Errorf("scan blog posts: %w", err)
		}
		items = append(items, *post)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate blog posts: %w", err)
	}
	return items, nil
}

func (r *BlogRepository) GetByID(ctx context.Context, id string) (post *blog.Post, err error) {
	defer func(start time.Time) { metrics.RecordQuery("get_blog_post", start, err) }(time.Now())

	post, err = scanPost(r.db.QueryRow(ctx, `SELECT `+postColumns+` FROM blog_posts WHERE id = $1`, id))
	if err != nil {
		if isNotFound(err) {
			return nil, blog.ErrNotFound
		}
		return nil, fmt.Errorf("get blog post: %w", err)
	}
	return post, nil
}

// ViewBySlug leaves updated_at alone; a read is not an edit.
func (r *BlogRepository) ViewBySlug(ctx context.Context, slug string, status *content.Status) (post *blog.Post, err error) {
	defer func(start time.Time) { metrics.RecordQuery("view_blog_post", start, err) }(time.Now())

	post, err = scanPost(r.db.QueryRow(ctx, `
UPDATE blog_posts
   SET views_count = views_count + 1
 WHERE slug = $1
   AND ($2::text IS NULL OR status = $2)
RETURNING `+postColumns,
		slug,
		statusParam(status),
	))
	if err != nil {
		if isNotFound(err) {
			return nil, blog.ErrNotFound
		}
		return nil, fmt.Errorf("view blog post: %w", err)
	}
	return post, nil
}

func (r *BlogRepository) SlugExists(ctx context.Context, slug string) (exists bool, err error) {
	defer func(start time.Time) { metrics.RecordQuery("blog_slug_exists", start, err) }(time.Now())

	err = r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM blog_posts WHERE slug = $1)`, slug).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check blog slug: %w", err)
	}
	return exists, nil
}

func (r *BlogRepository) Create(ctx context.Context, post blog.Post) (created *blog.Post, err error) {
	defer func(start time.Time) { metrics.RecordQuery("create_blog_post", start, err) }(time.Now())

	created, err = scanPost(r.db.QueryRow(ctx, `
INSERT INTO blog_posts (title, slug, excerpt, content, featured_image, author, category, tags,
                        status, published_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
RETURNING `+postColumns,
		post.Title,
		post.Slug,
		post.Excerpt,
		post.Content,
		post.FeaturedImage,
		post.Author,
		post.Category,
		nonNilStrings(post.Tags),
		string(post.Status),
		post.PublishedAt,
	))
	if err != nil {
		if isUniqueViolation(err, "blog_posts_slug_key") {
			return nil, blog.ErrSlugTaken
		}
		return nil, writeError("insert blog post", err)
	}
	return created, nil
}

func (r *BlogRepository) Update(ctx context.Context, id string, mutate func(*blog.Post) error) (updated *blog.Post, err error) {
	defer func(start time.Time) { metrics.RecordQuery("update_blog_post", start, err) }(time.Now())

	err = pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		current, err := scanPost(tx.QueryRow(ctx, `SELECT `+postColumns+` FROM blog_posts WHERE id = $1 FOR UPDATE`, id))
		if err != nil {
			if isNotFound(err) {
				return blog.ErrNotFound
			}
			return fmt.Errorf("lock blog post: %w", err)
		}
		current.Tags = slices.Clone(current.Tags)
		if err := mutate(current); err != nil {
			return err
		}

		updated, err = scanPost(tx.QueryRow(ctx, `
UPDATE blog_posts
   SET title = $2, slug = $3, excerpt = $4, content = $5, featured_image = $6, author = $7,
       category = $8, tags = $9, status = $10, published_at = $11, updated_at = now()
 WHERE id = $1
RETURNING `+postColumns,
			id,
			current.Title,
			current.Slug,
			current.Excerpt,
			current.Content,
			current.FeaturedImage,
			current.Author,
			current.Category,
			nonNilStrings(current.Tags),
			string(current.Status),
			current.PublishedAt,
		))
		if err != nil {
			if isUniqueViolation(err, "blog_posts_slug_key") {
				return blog.ErrSlugTaken
			}
			return writeError("update blog post", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (r *BlogRepository) Delete(ctx context.Context, id string) (err error) {
	defer func(start time.Time) { metrics.RecordQuery("delete_blog_post", start, err) }(time.Now())

	tag, err := r.db.Exec(ctx, `DELETE FROM blog_posts WHERE id = $1`, id)
	if err != nil {
		if isNotFound(err) {
			return blog.ErrNotFound
		}
		return fmt.Errorf("delete blog post: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return blog.ErrNotFound
	}
	return nil
}
