package handlers

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/cvisual/server/internal/api/problem"
	"github.com/cvisual/server/internal/audit"
	"github.com/cvisual/server/internal/domain/content"
	"github.com/cvisual/server/internal/domain/projects"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func newProjectsFixture(store *stubMedia) (*ProjectsHandler, *stubProjectRepo) {
	repo := newStubProjectRepo()
	var mediaStore projects.MediaStore
	if store != nil {
		mediaStore = store
	}
	service := projects.NewService(repo, mediaStore, zerolog.Nop())
	return NewProjectsHandler(service, mediaStore, audit.Nop(), 1<<20, testEnv), repo
}

func seedProject(t *testing.T, repo *stubProjectRepo, title string, status content.Status) string {
	t.Helper()
	p, err := repo.Create(context.Background(), projects.Project{Title: title, Status: status})
	require.NoError(t, err)
	return p.ID
}

type formFile struct {
	field, name string
	data        []byte
}

func multipartRequest(t *testing.T, target string, fields map[string]string, files []formFile) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	for key, value := range fields {
		require.NoError(t, writer.WriteField(key, value))
	}
	for _, f := range files {
		part, err := writer.CreateFormFile(f.field, f.name)
		require.NoError(t, err)
		_, err = part.Write(f.data)
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, target, &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func TestProjectsListHidesDraftsFromPublic(t *testing.T) {
	h, repo := newProjectsFixture(nil)
	seedProject(t, repo, "Live", content.StatusPublished)
	seedProject(t, repo, "Hidden", content.StatusDraft)
	seedProject(t, repo, "Old", content.StatusArchived)
	handler := serve("GET /api/projects", h.List)

	// A status filter cannot widen the public view.
	rec := do(t, handler, http.MethodGet, "/api/projects?status=draft", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode[projectListResponse](t, rec)
	require.Equal(t, 1, body.Total)
	require.Equal(t, "Live", body.Projects[0].Title)

	rec = do(t, handler, http.MethodGet, "/api/projects", nil, adminToken(t))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, 3, decode[projectListResponse](t, rec).Total)

	rec = do(t, handler, http.MethodGet, "/api/projects?status=draft", nil, adminToken(t))
	require.Equal(t, 1, decode[projectListResponse](t, rec).Total)
}

func TestProjectsListEmptyIsArray(t *testing.T) {
	h, _ := newProjectsFixture(nil)
	rec := do(t, serve("GET /api/projects", h.List), http.MethodGet, "/api/projects", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"projects":[],"total":0}`, rec.Body.String())
}

func TestProjectsListRejectsBadFilter(t *testing.T) {
	h, _ := newProjectsFixture(nil)
	rec := do(t, serve("GET /api/projects", h.List), http.MethodGet, "/api/projects?limit=abc", nil, "")
	body := requireProblem(t, rec, http.StatusBadRequest)
	require.Equal(t, problem.TypeValidation, body.Type)
	require.Contains(t, body.Errors, "limit")
}

func TestProjectsGetScopes(t *testing.T) {
	h, repo := newProjectsFixture(nil)
	id := seedProject(t, repo, "Hidden", content.StatusDraft)
	handler := serve("GET /api/projects/{id}", h.Get)

	requireProblem(t, do(t, handler, http.MethodGet, "/api/projects/"+id, nil, ""), http.StatusNotFound)

	rec := do(t, handler, http.MethodGet, "/api/projects/"+id, nil, adminToken(t))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "Hidden", decode[projectResponse](t, rec).Project.Title)

	rec = do(t, handler, http.MethodGet, "/api/projects/"+id, nil, "not-a-token")
	requireProblem(t, rec, http.StatusUnauthorized)
}

func TestProjectsCreateJSON(t *testing.T) {
	h, repo := newProjectsFixture(nil)
	handler := serve("POST /api/projects", h.Create)

	rec := do(t, handler, http.MethodPost, "/api/projects", jsonBody(t, map[string]any{
		"title":        "Brand refresh",
		"project_date": "2024-03-01",
		"metrics":      []map[string]string{{"label": "Reach", "value": "+40%"}},
	}), adminToken(t))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	body := decode[projectResponse](t, rec)
	require.Equal(t, "Project created successfully", body.Message)
	require.Equal(t, content.StatusDraft, body.Project.Status)
	require.Equal(t, "2024-03-01", body.Project.ProjectDate.String())
	require.Len(t, body.Project.Metrics, 1)
	require.Equal(t, 1, repo.count())
}

func TestProjectsCreateValidation(t *testing.T) {
	h, repo := newProjectsFixture(nil)
	handler := serve("POST /api/projects", h.Create)

	rec := do(t, handler, http.MethodPost, "/api/projects", jsonBody(t, `{"title":""}`), adminToken(t))
	body := requireProblem(t, rec, http.StatusBadRequest)
	require.Contains(t, body.Errors, "title")

	rec = do(t, handler, http.MethodPost, "/api/projects", jsonBody(t, `{"title":`), adminToken(t))
	requireProblem(t, rec, http.StatusBadRequest)

	rec = do(t, handler, http.MethodPost, "/api/projects", jsonBody(t, `{"title":"x","project_date":"zzqx wvvk"}`), adminToken(t))
	body = requireProblem(t, rec, http.StatusBadRequest)
	require.Contains(t, body.Errors, "project_date")
	require.Zero(t, repo.count())
}

func TestProjectsCreateBodyTooLarge(t *testing.T) {
	h, _ := newProjectsFixture(nil)
	limited := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, 16)
		h.Create(w, r)
	})
	rec := do(t, serve("POST /api/projects", limited), http.MethodPost, "/api/projects",
		jsonBody(t, `{"title":"a title that is well over sixteen bytes"}`), adminToken(t))
	body := requireProblem(t, rec, http.StatusRequestEntityTooLarge)
	require.Equal(t, problem.TypeTooLarge, body.Type)
}

func TestProjectsCreateMultipart(t *testing.T) {
	store := &stubMedia{fail: map[string]bool{"broken.png": true}}
	h, repo := newProjectsFixture(store)
	handler := serve("POST /api/projects", h.Create)

	req := multipartRequest(t, "/api/projects", map[string]string{
		"title":    "Photo shoot",
		"status":   "published",
		"featured": "on",
		"tags":     "photo, studio",
		"metrics":  `[{"label":"Shots","value":"120"}]`,
	}, []formFile{
		{field: "main_image", name: "cover.png", data: []byte("cover")},
		{field: "gallery", name: "one.png", data: []byte("one")},
		{field: "gallery", name: "broken.png", data: []byte("broken")},
	})
	req.Header.Set("Authorization", "Bearer "+adminToken(t))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	body := decode[projectResponse](t, rec)
	require.Equal(t, "https://cdn.example/cover.png", body.Project.ImageURL)
	require.True(t, body.Project.Featured)
	require.Equal(t, []string{"photo", "studio"}, body.Project.Tags)
	require.Len(t, body.Project.Gallery, 1)
	require.Len(t, body.Project.Metrics, 1)
	require.Len(t, body.UploadErrors, 1)
	require.Equal(t, "broken.png", body.UploadErrors[0].Filename)
	require.Equal(t, 1, repo.count())
}

func TestProjectsCreateMultipartMainImageFailure(t *testing.T) {
	store := &stubMedia{fail: map[string]bool{"cover.png": true}}
	h, repo := newProjectsFixture(store)

	req := multipartRequest(t, "/api/projects", map[string]string{"title": "Photo shoot"},
		[]formFile{{field: "main_image", name: "cover.png", data: []byte("cover")}})
	req.Header.Set("Authorization", "Bearer "+adminToken(t))
	rec := httptest.NewRecorder()
	serve("POST /api/projects", h.Create).ServeHTTP(rec, req)

	body := requireProblem(t, rec, http.StatusBadGateway)
	require.Equal(t, problem.TypeUploadFailed, body.Type)
	require.Equal(t, "quota exceeded", body.Detail)
	require.Zero(t, repo.count())
}

func TestProjectsUpdateAndDelete(t *testing.T) {
	h, repo := newProjectsFixture(nil)
	id := seedProject(t, repo, "Before", content.StatusDraft)

	rec := do(t, serve("PUT /api/projects/{id}", h.Update), http.MethodPut, "/api/projects/"+id,
		jsonBody(t, `{"status":"published"}`), adminToken(t))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decode[projectResponse](t, rec)
	require.Equal(t, "Before", body.Project.Title)
	require.Equal(t, content.StatusPublished, body.Project.Status)

	deleteHandler := serve("DELETE /api/projects/{id}", h.Delete)
	rec = do(t, deleteHandler, http.MethodDelete, "/api/projects/"+id, nil, adminToken(t))
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"message":"Project deleted successfully"}`, rec.Body.String())

	requireProblem(t, do(t, deleteHandler, http.MethodDelete, "/api/projects/"+id, nil, adminToken(t)), http.StatusNotFound)
}

func TestProjectsUpdateMultipartReplacesMainImage(t *testing.T) {
	store := &stubMedia{fail: map[string]bool{"broken.png": true}}
	h, repo := newProjectsFixture(store)
	id := seedProject(t, repo, "Photo shoot", content.StatusDraft)

	req := multipartRequest(t, "/api/projects/"+id, map[string]string{
		"title":  "Photo shoot, day two",
		"status": "published",
		"tags":   "photo, night",
	}, []formFile{
		{field: "main_image", name: "cover.png", data: []byte("cover")},
		{field: "gallery", name: "one.png", data: []byte("one")},
		{field: "gallery", name: "broken.png", data: []byte("broken")},
	})
	req.Method = http.MethodPut
	req.Header.Set("Authorization", "Bearer "+adminToken(t))
	rec := httptest.NewRecorder()
	serve("PUT /api/projects/{id}", h.Update).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decode[projectResponse](t, rec)
	require.Equal(t, "Photo shoot, day two", body.Project.Title)
	require.Equal(t, content.StatusPublished, body.Project.Status)
	require.Equal(t, []string{"photo", "night"}, body.Project.Tags)
	require.Equal(t, "https://cdn.example/cover.png", body.Project.ImageURL)
	require.Len(t, body.Project.Gallery, 1)
	require.Len(t, body.UploadErrors, 1)
	require.Equal(t, "broken.png", body.UploadErrors[0].Filename)
	require.Empty(t, store.deleted)
}

func TestProjectsUpdateMultipartMainImageFailure(t *testing.T) {
	store := &stubMedia{fail: map[string]bool{"cover.png": true}}
	h, repo := newProjectsFixture(store)
	id := seedProject(t, repo, "Photo shoot", content.StatusDraft)

	req := multipartRequest(t, "/api/projects/"+id, map[string]string{"title": "Renamed"},
		[]formFile{{field: "main_image", name: "cover.png", data: []byte("cover")}})
	req.Method = http.MethodPut
	req.Header.Set("Authorization", "Bearer "+adminToken(t))
	rec := httptest.NewRecorder()
	serve("PUT /api/projects/{id}", h.Update).ServeHTTP(rec, req)

	body := requireProblem(t, rec, http.StatusBadGateway)
	require.Equal(t, problem.TypeUploadFailed, body.Type)
	stored, err := repo.GetByID(context.Background(), id)
	require.NoError(t, err)
	require.Equal(t, "Photo shoot", stored.Title)
	require.Empty(t, stored.ImageURL)
}

func TestProjectsUpdateMultipartRejectedFieldsDiscardUploads(t *testing.T) {
	store := &stubMedia{}
	h, repo := newProjectsFixture(store)
	id := seedProject(t, repo, "Photo shoot", content.StatusDraft)

	req := multipartRequest(t, "/api/projects/"+id, map[string]string{"title": ""},
		[]formFile{{field: "main_image", name: "cover.png", data: []byte("cover")}})
	req.Method = http.MethodPut
	req.Header.Set("Authorization", "Bearer "+adminToken(t))
	rec := httptest.NewRecorder()
	serve("PUT /api/projects/{id}", h.Update).ServeHTTP(rec, req)

	requireProblem(t, rec, http.StatusBadRequest)
	require.Equal(t, []string{"cvisual/cover.png"}, store.deleted)
}

func TestProjectsUpdateClearsProjectDate(t *testing.T) {
	h, repo := newProjectsFixture(nil)
	id := seedProject(t, repo, "Dated", content.StatusPublished)
	handler := serve("PUT /api/projects/{id}", h.Update)

	rec := do(t, handler, http.MethodPut, "/api/projects/"+id,
		jsonBody(t, `{"project_date":"2024-05-01"}`), adminToken(t))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.NotNil(t, decode[projectResponse](t, rec).Project.ProjectDate)

	rec = do(t, handler, http.MethodPut, "/api/projects/"+id,
		jsonBody(t, `{"title":"Still dated"}`), adminToken(t))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.NotNil(t, decode[projectResponse](t, rec).Project.ProjectDate)

	rec = do(t, handler, http.MethodPut, "/api/projects/"+id,
		jsonBody(t, `{"project_date":null}`), adminToken(t))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.Nil(t, decode[projectResponse](t, rec).Project.ProjectDate)
}

func TestProjectsUploadImage(t *testing.T) {
	h, _ := newProjectsFixture(&stubMedia{})

	req := multipartRequest(t, "/api/projects/upload-image", map[string]string{"folder": "projects"},
		[]formFile{{field: "image", name: "hero.png", data: []byte("hero")}})
	rec := httptest.NewRecorder()
	h.UploadImage(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decode[uploadImageResponse](t, rec)
	require.Equal(t, "https://cdn.example/hero.png", body.URL)
	require.Equal(t, "cvisual/hero.png", body.PublicID)

	req = multipartRequest(t, "/api/projects/upload-image", nil, nil)
	rec = httptest.NewRecorder()
	h.UploadImage(rec, req)
	requireProblem(t, rec, http.StatusBadRequest)
}

func TestProjectsUploadImageFileTooLarge(t *testing.T) {
	h, _ := newProjectsFixture(&stubMedia{})
	h.MaxFile = 4

	req := multipartRequest(t, "/api/projects/upload-image", nil,
		[]formFile{{field: "image", name: "hero.png", data: []byte("far too many bytes")}})
	rec := httptest.NewRecorder()
	h.UploadImage(rec, req)
	requireProblem(t, rec, http.StatusRequestEntityTooLarge)
}

func TestProjectsUploadImageDisabled(t *testing.T) {
	h, _ := newProjectsFixture(nil)

	req := multipartRequest(t, "/api/projects/upload-image", nil,
		[]formFile{{field: "image", name: "hero.png", data: []byte("hero")}})
	rec := httptest.NewRecorder()
	h.UploadImage(rec, req)
	body := requireProblem(t, rec, http.StatusServiceUnavailable)
	require.Equal(t, problem.TypeUploadFailed, body.Type)
}

func TestProjectsAddGallery(t *testing.T) {
	store := &stubMedia{}
	h, repo := newProjectsFixture(store)
	id := seedProject(t, repo, "Gallery", content.StatusPublished)

	req := multipartRequest(t, "/api/projects/"+id+"/gallery", nil, []formFile{
		{field: "gallery", name: "a.png", data: []byte("a")},
		{field: "gallery", name: "b.png", data: []byte("b")},
	})
	req.Header.Set("Authorization", "Bearer "+adminToken(t))
	rec := httptest.NewRecorder()
	serve("POST /api/projects/{id}/gallery", h.AddGallery).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decode[projectResponse](t, rec)
	require.Len(t, body.Project.Gallery, 2)
	require.Equal(t, 1, body.Project.Gallery[1].Position)
}
