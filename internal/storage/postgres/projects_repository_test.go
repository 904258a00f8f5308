package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/cvisual/server/internal/domain/content"
	"github.com/cvisual/server/internal/domain/projects"
	"github.com/stretchr/testify/require"
)

func newProject(title string, status content.Status, order int) projects.Project {
	date := projects.NewDate(time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC))
	return projects.Project{
		Title:         title,
		Description:   "<p>Brand refresh</p>",
		Category:      "branding",
		ClientName:    "Digicel",
		ProjectDate:   &date,
		Tags:          []string{"logo", "print"},
		Status:        status,
		OrderPosition: order,
		Gallery: []projects.Image{
			{URL: "https://res.cloudinary.com/demo/a.jpg", PublicID: "cvisual/a", Position: 0},
			{URL: "https://res.cloudinary.com/demo/b.jpg", PublicID: "cvisual/b", Position: 1},
		},
		Metrics: []projects.Metric{{Label: "Reach", Value: "+40%"}},
	}
}

func TestProjectRepositoryCreateAndGet(t *testing.T) {
	repo, _ := setupPostgres(t)
	ctx := context.Background()

	created, err := repo.Projects().Create(ctx, newProject("Rebrand", content.StatusPublished, 0))
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)
	require.Equal(t, "2024-03-15", created.ProjectDate.String())
	require.Equal(t, []string{"logo", "print"}, created.Tags)
	require.Len(t, created.Gallery, 2)
	require.Equal(t, "cvisual/b", created.Gallery[1].PublicID)
	require.Equal(t, []projects.Metric{{Label: "Reach", Value: "+40%"}}, created.Metrics)

	fetched, err := repo.Projects().GetByID(ctx, created.ID)
	require.NoError(t, err)
	require.Equal(t, created.Title, fetched.Title)
	require.Len(t, fetched.Gallery, 2)
}

func TestProjectRepositoryGetMissing(t *testing.T) {
	repo, _ := setupPostgres(t)
	ctx := context.Background()

	_, err := repo.Projects().GetByID(ctx, "7c9e6679-7425-40de-944b-e07fc1f90ae7")
	require.ErrorIs(t, err, projects.ErrNotFound)

	_, err = repo.Projects().GetByID(ctx, "not-a-uuid")
	require.ErrorIs(t, err, projects.ErrNotFound)

	require.ErrorIs(t, repo.Projects().Delete(ctx, "not-a-uuid"), projects.ErrNotFound)
}

func TestProjectRepositoryListFiltersAndOrder(t *testing.T) {
	repo, pool := setupPostgres(t)
	ctx := context.Background()

	second, err := repo.Projects().Create(ctx, newProject("Second", content.StatusPublished, 1))
	require.NoError(t, err)
	firstOld, err := repo.Projects().Create(ctx, newProject("First old", content.StatusPublished, 0))
	require.NoError(t, err)
	firstNew, err := repo.Projects().Create(ctx, newProject("First new", content.StatusPublished, 0))
	require.NoError(t, err)
	_, err = repo.Projects().Create(ctx, newProject("Draft", content.StatusDraft, 0))
	require.NoError(t, err)

	setCreatedAt(t, ctx, pool, "projects", firstOld.ID, time.Now().Add(-2*time.Hour))

	published := content.StatusPublished
	items, err := repo.Projects().List(ctx, projects.Filters{Status: &published})
	require.NoError(t, err)
	require.Len(t, items, 3)
	require.Equal(t, firstNew.ID, items[0].ID)
	require.Equal(t, firstOld.ID, items[1].ID)
	require.Equal(t, second.ID, items[2].ID)
	require.Len(t, items[0].Gallery, 2)

	items, err = repo.Projects().List(ctx, projects.Filters{Limit: 2})
	require.NoError(t, err)
	require.Len(t, items, 2)

	items, err = repo.Projects().List(ctx, projects.Filters{Category: "web"})
	require.NoError(t, err)
	require.Empty(t, items)
}

func TestProjectRepositoryUpdateReplacesChangedChildren(t *testing.T) {
	repo, _ := setupPostgres(t)
	ctx := context.Background()

	created, err := repo.Projects().Create(ctx, newProject("Rebrand", content.StatusDraft, 0))
	require.NoError(t, err)

	updated, err := repo.Projects().Update(ctx, created.ID, func(p *projects.Project) error {
		p.Title = "Rebrand 2"
		p.Gallery = p.Gallery[:1]
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, "Rebrand 2", updated.Title)
	require.Len(t, updated.Gallery, 1)
	require.Len(t, updated.Metrics, 1)
	require.True(t, !updated.UpdatedAt.Before(created.UpdatedAt))

	_, err = repo.Projects().Update(ctx, created.ID, func(p *projects.Project) error {
		p.Title = "discarded"
		return content.Required("title")
	})
	require.True(t, content.IsValidation(err))

	fetched, err := repo.Projects().GetByID(ctx, created.ID)
	require.NoError(t, err)
	require.Equal(t, "Rebrand 2", fetched.Title)
}

func TestProjectRepositoryDeleteCascades(t *testing.T) {
	repo, pool := setupPostgres(t)
	ctx := context.Background()

	created, err := repo.Projects().Create(ctx, newProject("Rebrand", content.StatusPublished, 0))
	require.NoError(t, err)

	require.NoError(t, repo.Projects().Delete(ctx, created.ID))
	require.Zero(t, countRows(t, ctx, pool, `SELECT count(*) FROM project_images WHERE project_id = $1`, created.ID))
	require.Zero(t, countRows(t, ctx, pool, `SELECT count(*) FROM project_metrics WHERE project_id = $1`, created.ID))

	require.ErrorIs(t, repo.Projects().Delete(ctx, created.ID), projects.ErrNotFound)
}

func TestProjectRepositoryAddImages(t *testing.T) {
	repo, _ := setupPostgres(t)
	ctx := context.Background()

	created, err := repo.Projects().Create(ctx, newProject("Rebrand", content.StatusPublished, 0))
	require.NoError(t, err)

	updated, err := repo.Projects().AddImages(ctx, created.ID, []projects.Image{
		{URL: "https://res.cloudinary.com/demo/c.jpg", PublicID: "cvisual/c", Position: 2},
	})
	require.NoError(t, err)
	require.Len(t, updated.Gallery, 3)
	require.Equal(t, "cvisual/c", updated.Gallery[2].PublicID)

	_, err = repo.Projects().AddImages(ctx, "7c9e6679-7425-40de-944b-e07fc1f90ae7", []projects.Image{{URL: "x"}})
	require.ErrorIs(t, err, projects.ErrNotFound)
}
