package postgres

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/cvisual/server/internal/domain/content"
	"github.com/cvisual/server/internal/domain/projects"
	"github.com/cvisual/server/internal/metrics"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

var _ projects.Repository = (*ProjectRepository)(nil)

type ProjectRepository struct {
	db dbtx
}

const projectColumns = `
id::text, title, description, category, image_url, thumbnail_url, client_name,
project_date, tags, featured, status, order_position, live_link, created_at, updated_at`

func scanProject(row rowScanner) (projects.Project, error) {
	var (
		project projects.Project
		date    pgtype.Date
		status  string
	)
	if err := row.Scan(
		&project.ID,
		&project.Title,
		&project.Description,
		&project.Category,
		&project.ImageURL,
		&project.ThumbnailURL,
		&project.ClientName,
		&date,
		&project.Tags,
		&project.Featured,
		&status,
		&project.OrderPosition,
		&project.LiveLink,
		&project.CreatedAt,
		&project.UpdatedAt,
	); err != nil {
		return projects.Project{}, err
	}
	if date.Valid {
		d := projects.NewDate(date.Time)
		project.ProjectDate = &d
	}
	project.Status = content.Status(status)
	project.Tags = nonNilStrings(project.Tags)
	return project, nil
}

func projectDateParam(date *projects.Date) *time.Time {
	if date == nil {
		return nil
	}
	t := date.Time
	return &t
}

func (r *ProjectRepository) List(ctx context.Context, filters projects.Filters) (items []projects.Project, err error) {
	defer func(start time.Time) { metrics.RecordQuery("list_projects", start, err) }(time.Now())

	rows, err := r.db.Query(ctx, `
SELECT `+projectColumns+`
  FROM projects
 WHERE ($1::text IS NULL OR status = $1)
   AND ($2::text = '' OR category = $2)
   AND ($3::boolean IS NULL OR featured = $3)
 ORDER BY order_position ASC, created_at DESC
 LIMIT NULLIF($4::integer, 0)
`,
		statusParam(filters.Status),
		filters.Category,
		filters.Featured,
		filters.Limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer rows.Close()

	items = make([]projects.Project, 0)
	for rows.Next() {
		project, err := scanProject(rows)
		if err != nil {
			return nil, fmt.Errorf("scan projects: %w", err)
		}
		items = append(items, project)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate projects: %w", err)
	}

	if err := r.loadChildren(ctx, items); err != nil {
		return nil, err
	}
	return items, nil
}

func (r *ProjectRepository) GetByID(ctx context.Context, id string) (project *projects.Project, err error) {
	defer func(start time.Time) { metrics.RecordQuery("get_project", start, err) }(time.Now())
	return r.get(ctx, r.db, id, false)
}

func (r *ProjectRepository) get(ctx context.Context, q dbtx, id string, lock bool) (*projects.Project, error) {
	query := `SELECT ` + projectColumns + ` FROM projects WHERE id = $1`
	if lock {
		query += ` FOR UPDATE`
	}
	project, err := scanProject(q.QueryRow(ctx, query, id))
	if err != nil {
		if isNotFound(err) {
			return nil, projects.ErrNotFound
		}
		return nil, fmt.Errorf("get project: %w", err)
	}
	items := []projects.Project{project}
	if err := (&ProjectRepository{db: q}).loadChildren(ctx, items); err != nil {
		return nil, err
	}
	return &items[0], nil
}

// loadChildren attaches gallery images and metrics to every project with one
// query per child table.
func (r *ProjectRepository) loadChildren(ctx context.Context, items []projects.Project) error {
	if len(items) == 0 {
		return nil
	}
	ids := make([]string, len(items))
	index := make(map[string]int, len(items))
	for i := range items {
		ids[i] = items[i].ID
		index[items[i].ID] = i
		items[i].Gallery = []projects.Image{}
		items[i].Metrics = []projects.Metric{}
	}

	rows, err := r.db.Query(ctx, `
SELECT project_id::text, id::text, image_url, public_id, position
  FROM project_images
 WHERE project_id = ANY($1::uuid[])
 ORDER BY position ASC, id ASC
`, ids)
	if err != nil {
		return fmt.Errorf("list project images: %w", err)
	}
	for rows.Next() {
		var (
			projectID string
			image     projects.Image
		)
		if err := rows.Scan(&projectID, &image.ID, &image.URL, &image.PublicID, &image.Position); err != nil {
			rows.Close()
			return fmt.Errorf("scan project images: %w", err)
		}
		i := index[projectID]
		items[i].Gallery = append(items[i].Gallery, image)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate project images: %w", err)
	}

	rows, err = r.db.Query(ctx, `
SELECT project_id::text, label, value
  FROM project_metrics
 WHERE project_id = ANY($1::uuid[])
 ORDER BY position ASC, id ASC
`, ids)
	if err != nil {
		return fmt.Errorf("list project metrics: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			projectID string
			metric    projects.Metric
		)
		if err := rows.Scan(&projectID, &metric.Label, &metric.Value); err != nil {
			return fmt.Errorf("scan project metrics: %w", err)
		}
		i := index[projectID]
		items[i].Metrics = append(items[i].Metrics, metric)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate project metrics: %w", err)
	}
	return nil
}

func (r *ProjectRepository) Create(ctx context.Context, project projects.Project) (created *projects.Project, err error) {
	defer func(start time.Time) { metrics.RecordQuery("create_project", start, err) }(time.Now())

	err = pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		var id string
		err := tx.QueryRow(ctx, `
INSERT INTO projects (title, description, category, image_url, thumbnail_url, client_name,
                      project_date, tags, featured, status, order_position, live_link)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
RETURNING id::text
`,
			project.Title,
			project.Description,
			project.Category,
			project.ImageURL,
			project.ThumbnailURL,
			project.ClientName,
			projectDateParam(project.ProjectDate),
			nonNilStrings(project.Tags),
			project.Featured,
			string(project.Status),
			project.OrderPosition,
			project.LiveLink,
		).Scan(&id)
		if err != nil {
			return writeError("insert project", err)
		}
		if err := insertImages(ctx, tx, id, project.Gallery); err != nil {
			return err
		}
		if err := insertMetrics(ctx, tx, id, project.Metrics); err != nil {
			return err
		}
		created, err = r.get(ctx, tx, id, false)
		return err
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (r *ProjectRepository) Update(ctx context.Context, id string, mutate func(*projects.Project) error) (updated *projects.Project, err error) {
	defer func(start time.Time) { metrics.RecordQuery("update_project", start, err) }(time.Now())

	err = pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		current, err := r.get(ctx, tx, id, true)
		if err != nil {
			return err
		}
		next := *current
		next.Tags = slices.Clone(current.Tags)
		next.Gallery = slices.Clone(current.Gallery)
		next.Metrics = slices.Clone(current.Metrics)
		if err := mutate(&next); err != nil {
			return err
		}

		_, err = tx.Exec(ctx, `
UPDATE projects
   SET title = $2, description = $3, category = $4, image_url = $5, thumbnail_url = $6,
       client_name = $7, project_date = $8, tags = $9, featured = $10, status = $11,
       order_position = $12, live_link = $13, updated_at = now()
 WHERE id = $1
`,
			id,
			next.Title,
			next.Description,
			next.Category,
			next.ImageURL,
			next.ThumbnailURL,
			next.ClientName,
			projectDateParam(next.ProjectDate),
			nonNilStrings(next.Tags),
			next.Featured,
			string(next.Status),
			next.OrderPosition,
			next.LiveLink,
		)
		if err != nil {
			return writeError("update project", err)
		}

		if !slices.Equal(imageKeys(current.Gallery), imageKeys(next.Gallery)) {
			if _, err := tx.Exec(ctx, `DELETE FROM project_images WHERE project_id = $1`, id); err != nil {
				return fmt.Errorf("clear project images: %w", err)
			}
			if err := insertImages(ctx, tx, id, next.Gallery); err != nil {
				return err
			}
		}
		if !slices.Equal(current.Metrics, next.Metrics) {
			if _, err := tx.Exec(ctx, `DELETE FROM project_metrics WHERE project_id = $1`, id); err != nil {
				return fmt.Errorf("clear project metrics: %w", err)
			}
			if err := insertMetrics(ctx, tx, id, next.Metrics); err != nil {
				return err
			}
		}

		updated, err = r.get(ctx, tx, id, false)
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (r *ProjectRepository) Delete(ctx context.Context, id string) (err error) {
	defer func(start time.Time) { metrics.RecordQuery("delete_project", start, err) }(time.Now())

	tag, err := r.db.Exec(ctx, `DELETE FROM projects WHERE id = $1`, id)
	if err != nil {
		if isNotFound(err) {
			return projects.ErrNotFound
		}
		return fmt.Errorf("delete project: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return projects.ErrNotFound
	}
	return nil
}

// AddImages appends to the gallery. Positions are taken as given.
func (r *ProjectRepository) AddImages(ctx context.Context, id string, images []projects.Image) (project *projects.Project, err error) {
	defer func(start time.Time) { metrics.RecordQuery("add_project_images", start, err) }(time.Now())

	err = pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		var locked string
		err := tx.QueryRow(ctx, `SELECT id::text FROM projects WHERE id = $1 FOR UPDATE`, id).Scan(&locked)
		if err != nil {
			if isNotFound(err) {
				return projects.ErrNotFound
			}
			return fmt.Errorf("lock project: %w", err)
		}
		if err := insertImages(ctx, tx, id, images); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `UPDATE projects SET updated_at = now() WHERE id = $1`, id); err != nil {
			return fmt.Errorf("touch project: %w", err)
		}
		project, err = r.get(ctx, tx, id, false)
		return err
	})
	if err != nil {
		return nil, err
	}
	return project, nil
}

func insertImages(ctx context.Context, tx pgx.Tx, projectID string, images []projects.Image) error {
	if len(images) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, image := range images {
		batch.Queue(`INSERT INTO project_images (project_id, image_url, public_id, position) VALUES ($1, $2, $3, $4)`,
			projectID, image.URL, image.PublicID, image.Position)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return writeError("insert project images", err)
	}
	return nil
}

func insertMetrics(ctx context.Context, tx pgx.Tx, projectID string, items []projects.Metric) error {
	if len(items) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for i, metric := range items {
		batch.Queue(`INSERT INTO project_metrics (project_id, label, value, position) VALUES ($1, $2, $3, $4)`,
			projectID, metric.Label, metric.Value, i)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return writeError("insert project metrics", err)
	}
	return nil
}

// imageKeys ignores row ids so a gallery resubmitted without them is not
// treated as a change.
func imageKeys(images []projects.Image) []projects.Image {
	keys := make([]projects.Image, len(images))
	for i, image := range images {
		keys[i] = projects.Image{URL: image.URL, PublicID: image.PublicID, Position: image.Position}
	}
	return keys
}
