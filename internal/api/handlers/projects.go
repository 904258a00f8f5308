package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/cvisual/server/internal/api/middleware"
	"github.com/cvisual/server/internal/audit"
	"github.com/cvisual/server/internal/domain/content"
	"github.com/cvisual/server/internal/domain/projects"
	"github.com/cvisual/server/internal/media"
)

// multipartMemory is how much of a multipart body is buffered in memory
// before spilling to temporary files.
const multipartMemory = 8 << 20

type ProjectsHandler struct {
	Service *projects.Service
	// Media stores single images for the upload-image endpoint. Nil when
	// uploads are not configured.
	Media   projects.MediaStore
	Audit   *audit.Logger
	MaxFile int64
	Env     string
}

func NewProjectsHandler(service *projects.Service, store projects.MediaStore, auditLogger *audit.Logger, maxFile int64, env string) *ProjectsHandler {
	return &ProjectsHandler{Service: service, Media: store, Audit: auditLogger, MaxFile: maxFile, Env: env}
}

type projectListResponse struct {
	Projects []projects.Project `json:"projects"`
	Total    int                `json:"total"`
}

type projectResponse struct {
	Message      string                   `json:"message,omitempty"`
	Project      *projects.Project        `json:"project"`
	UploadErrors []projects.UploadFailure `json:"upload_errors,omitempty"`
}

type uploadImageResponse struct {
	Message  string `json:"message"`
	URL      string `json:"url"`
	PublicID string `json:"public_id"`
}

func (h *ProjectsHandler) List(w http.ResponseWriter, r *http.Request) {
	if h.Service == nil {
		serverError(w, r, h.Env)
		return
	}

	filters, err := projects.ParseFilters(r.URL.Query())
	if err != nil {
		writeError(w, r, err, h.Env)
		return
	}

	items, err := h.Service.List(r.Context(), middleware.Scope(r), filters)
	if err != nil {
		writeError(w, r, err, h.Env)
		return
	}
	if items == nil {
		items = []projects.Project{}
	}
	writeJSON(w, http.StatusOK, projectListResponse{Projects: items, Total: len(items)})
}

func (h *ProjectsHandler) Get(w http.ResponseWriter, r *http.Request) {
	if h.Service == nil {
		serverError(w, r, h.Env)
		return
	}

	project, err := h.Service.Get(r.Context(), middleware.Scope(r), pathParam(r, "id"))
	if err != nil {
		writeError(w, r, err, h.Env)
		return
	}
	writeJSON(w, http.StatusOK, projectResponse{Project: project})
}

// Create accepts either a JSON document or a multipart form carrying the
// project fields together with main_image and gallery files.
func (h *ProjectsHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h.Service == nil {
		serverError(w, r, h.Env)
		return
	}

	var (
		project  *projects.Project
		failures []projects.UploadFailure
		err      error
	)
	if isMultipart(r) {
		project, failures, err = h.createFromForm(r)
	} else {
		var input projects.Input
		if err = decodeJSON(r, &input); err == nil {
			project, err = h.Service.Create(r.Context(), input)
		}
	}
	if err != nil {
		h.Audit.LogFromRequest(r, actor(r), "project.create", "project", "", audit.StatusFailure, map[string]string{"error": err.Error()})
		writeError(w, r, err, h.Env)
		return
	}

	h.Audit.LogFromRequest(r, actor(r), "project.create", "project", project.ID, audit.StatusSuccess, nil)
	writeJSON(w, http.StatusCreated, projectResponse{
		Message:      "Project created successfully",
		Project:      project,
		UploadErrors: failures,
	})
}

func (h *ProjectsHandler) createFromForm(r *http.Request) (*projects.Project, []projects.UploadFailure, error) {
	if err := parseMultipart(r); err != nil {
		return nil, nil, err
	}
	input, err := projectInputFromForm(r.MultipartForm.Value)
	if err != nil {
		return nil, nil, err
	}
	uploads, err := h.uploadsFromForm(r.MultipartForm)
	if err != nil {
		return nil, nil, err
	}
	return h.Service.CreateWithUploads(r.Context(), input, uploads)
}

// Update accepts a JSON patch, or a multipart form whose present fields form
// the patch and whose main_image and gallery files replace the main image and
// extend the gallery.
func (h *ProjectsHandler) Update(w http.ResponseWriter, r *http.Request) {
	if h.Service == nil {
		serverError(w, r, h.Env)
		return
	}

	id := pathParam(r, "id")
	var (
		project  *projects.Project
		failures []projects.UploadFailure
		err      error
	)
	if isMultipart(r) {
		project, failures, err = h.updateFromForm(r, id)
	} else {
		var patch projects.Patch
		if err = decodeJSON(r, &patch); err == nil {
			project, err = h.Service.Update(r.Context(), id, patch)
		}
	}
	if err != nil {
		writeError(w, r, err, h.Env)
		return
	}
	h.Audit.LogFromRequest(r, actor(r), "project.update", "project", id, audit.StatusSuccess, nil)
	writeJSON(w, http.StatusOK, projectResponse{
		Message:      "Project updated successfully",
		Project:      project,
		UploadErrors: failures,
	})
}

func (h *ProjectsHandler) updateFromForm(r *http.Request, id string) (*projects.Project, []projects.UploadFailure, error) {
	if err := parseMultipart(r); err != nil {
		return nil, nil, err
	}
	patch, err := projectPatchFromForm(r.MultipartForm.Value)
	if err != nil {
		return nil, nil, err
	}
	uploads, err := h.uploadsFromForm(r.MultipartForm)
	if err != nil {
		return nil, nil, err
	}
	return h.Service.UpdateWithUploads(r.Context(), id, patch, uploads)
}

func (h *ProjectsHandler) uploadsFromForm(form *multipart.Form) (projects.Uploads, error) {
	uploads := projects.Uploads{Folder: formValue(form.Value, "folder")}
	if headers := form.File["main_image"]; len(headers) > 0 {
		file, err := media.FromMultipart(headers[0], h.MaxFile)
		if err != nil {
			return uploads, err
		}
		uploads.Main = &file
	}
	gallery, err := h.readFiles(form.File["gallery"])
	if err != nil {
		return uploads, err
	}
	uploads.Gallery = gallery
	return uploads, nil
}

func (h *ProjectsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if h.Service == nil {
		serverError(w, r, h.Env)
		return
	}

	id := pathParam(r, "id")
	if err := h.Service.Delete(r.Context(), id); err != nil {
		writeError(w, r, err, h.Env)
		return
	}
	h.Audit.LogFromRequest(r, actor(r), "project.delete", "project", id, audit.StatusSuccess, nil)
	writeJSON(w, http.StatusOK, messageResponse{Message: "Project deleted successfully"})
}

// UploadImage handles POST /api/projects/upload-image. The stored URL is
// returned for the admin editor to place in a later create or update.
func (h *ProjectsHandler) UploadImage(w http.ResponseWriter, r *http.Request) {
	if h.Media == nil {
		writeError(w, r, media.ErrDisabled, h.Env)
		return
	}
	if err := parseMultipart(r); err != nil {
		writeError(w, r, err, h.Env)
		return
	}

	headers := r.MultipartForm.File["image"]
	if len(headers) == 0 {
		writeError(w, r, content.Required("image"), h.Env)
		return
	}
	file, err := media.FromMultipart(headers[0], h.MaxFile)
	if err != nil {
		writeError(w, r, err, h.Env)
		return
	}

	asset, err := h.Media.Upload(r.Context(), file, formValue(r.MultipartForm.Value, "folder"))
	if err != nil {
		writeError(w, r, err, h.Env)
		return
	}
	h.Audit.LogFromRequest(r, actor(r), "media.upload", "asset", asset.PublicID, audit.StatusSuccess, nil)
	writeJSON(w, http.StatusOK, uploadImageResponse{
		Message:  "Image uploaded successfully",
		URL:      asset.URL,
		PublicID: asset.PublicID,
	})
}

// AddGallery handles POST /api/projects/{id}/gallery.
func (h *ProjectsHandler) AddGallery(w http.ResponseWriter, r *http.Request) {
	if h.Service == nil {
		serverError(w, r, h.Env)
		return
	}
	if err := parseMultipart(r); err != nil {
		writeError(w, r, err, h.Env)
		return
	}

	files, err := h.readFiles(r.MultipartForm.File["gallery"])
	if err != nil {
		writeError(w, r, err, h.Env)
		return
	}

	id := pathParam(r, "id")
	project, failures, err := h.Service.AddImages(r.Context(), id, files, formValue(r.MultipartForm.Value, "folder"))
	if err != nil {
		writeError(w, r, err, h.Env)
		return
	}
	h.Audit.LogFromRequest(r, actor(r), "project.gallery", "project", id, audit.StatusSuccess,
		map[string]string{"added": strconv.Itoa(len(files) - len(failures))})
	writeJSON(w, http.StatusOK, projectResponse{
		Message:      "Gallery updated successfully",
		Project:      project,
		UploadErrors: failures,
	})
}

func (h *ProjectsHandler) readFiles(headers []*multipart.FileHeader) ([]media.File, error) {
	files := make([]media.File, 0, len(headers))
	for _, header := range headers {
		file, err := media.FromMultipart(header, h.MaxFile)
		if err != nil {
			return nil, err
		}
		files = append(files, file)
	}
	return files, nil
}

func isMultipart(r *http.Request) bool {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mediaType == "multipart/form-data"
}

func parseMultipart(r *http.Request) error {
	if !isMultipart(r) {
		return content.ValidationError{Field: "body", Message: "must be multipart/form-data"}
	}
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return fmt.Errorf("%w: limit is %d bytes", errBodyTooLarge, maxErr.Limit)
		}
		return content.ValidationError{Field: "body", Message: "is not a readable multipart form"}
	}
	return nil
}

func formValue(values map[string][]string, key string) string {
	if list := values[key]; len(list) > 0 {
		return strings.TrimSpace(list[0])
	}
	return ""
}

// projectInputFromForm reads the text fields of a multipart project create.
// tags may be a JSON array or a comma separated list; metrics and
// gallery_images are JSON arrays.
func projectInputFromForm(values map[string][]string) (projects.Input, error) {
	input := projects.Input{
		Title:        formValue(values, "title"),
		Description:  formValue(values, "description"),
		Category:     formValue(values, "category"),
		ImageURL:     formValue(values, "image_url"),
		ThumbnailURL: formValue(values, "thumbnail_url"),
		ClientName:   formValue(values, "client_name"),
		LiveLink:     formValue(values, "live_link"),
		Status:       content.Status(strings.ToLower(formValue(values, "status"))),
	}

	if raw := formValue(values, "project_date"); raw != "" {
		date, err := projects.ParseDate(raw)
		if err != nil {
			return input, err
		}
		input.ProjectDate = &date
	}

	featured, err := content.ParseBool(values, "featured")
	if err != nil {
		return input, err
	}
	input.Featured = featured != nil && *featured

	if raw := formValue(values, "order_position"); raw != "" {
		if input.OrderPosition, err = formInt("order_position", raw); err != nil {
			return input, err
		}
	}
	if raw := formValue(values, "tags"); raw != "" {
		if input.Tags, err = formTags(raw); err != nil {
			return input, err
		}
	}
	if raw := formValue(values, "metrics"); raw != "" {
		if input.Metrics, err = formMetrics(raw); err != nil {
			return input, err
		}
	}
	if raw := formValue(values, "gallery_images"); raw != "" {
		if input.Gallery, err = formGallery(raw); err != nil {
			return input, err
		}
	}
	return input, nil
}

// projectPatchFromForm builds a patch from the fields present in a multipart
// update. An empty project_date clears the date.
func projectPatchFromForm(values map[string][]string) (projects.Patch, error) {
	var patch projects.Patch
	present := func(key string) (string, bool) {
		if _, ok := values[key]; !ok {
			return "", false
		}
		return formValue(values, key), true
	}
	text := func(key string) *string {
		if value, ok := present(key); ok {
			return &value
		}
		return nil
	}

	patch.Title = text("title")
	patch.Description = text("description")
	patch.Category = text("category")
	patch.ImageURL = text("image_url")
	patch.ThumbnailURL = text("thumbnail_url")
	patch.ClientName = text("client_name")
	patch.LiveLink = text("live_link")

	if raw, ok := present("status"); ok && raw != "" {
		status := content.Status(strings.ToLower(raw))
		patch.Status = &status
	}
	if raw, ok := present("project_date"); ok {
		patch.ProjectDate.Set = true
		if raw != "" {
			date, err := projects.ParseDate(raw)
			if err != nil {
				return patch, err
			}
			patch.ProjectDate.Value = &date
		}
	}

	featured, err := content.ParseBool(values, "featured")
	if err != nil {
		return patch, err
	}
	patch.Featured = featured

	if raw, ok := present("order_position"); ok && raw != "" {
		position, err := formInt("order_position", raw)
		if err != nil {
			return patch, err
		}
		patch.OrderPosition = &position
	}
	if raw, ok := present("tags"); ok {
		tags, err := formTags(raw)
		if err != nil {
			return patch, err
		}
		patch.Tags = &tags
	}
	if raw, ok := present("metrics"); ok && raw != "" {
		metrics, err := formMetrics(raw)
		if err != nil {
			return patch, err
		}
		patch.Metrics = &metrics
	}
	if raw, ok := present("gallery_images"); ok && raw != "" {
		gallery, err := formGallery(raw)
		if err != nil {
			return patch, err
		}
		patch.Gallery = &gallery
	}
	return patch, nil
}

func formInt(field, raw string) (int, error) {
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, content.ValidationError{Field: field, Message: "must be a number"}
	}
	return value, nil
}

func formTags(raw string) ([]string, error) {
	if raw == "" {
		return []string{}, nil
	}
	if !strings.HasPrefix(raw, "[") {
		return strings.Split(raw, ","), nil
	}
	var tags []string
	if err := json.Unmarshal([]byte(raw), &tags); err != nil {
		return nil, content.ValidationError{Field: "tags", Message: "must be a JSON array of strings"}
	}
	return tags, nil
}

func formMetrics(raw string) ([]projects.Metric, error) {
	var metrics []projects.Metric
	if err := json.Unmarshal([]byte(raw), &metrics); err != nil {
		return nil, content.ValidationError{Field: "metrics", Message: "must be a JSON array of {label, value}"}
	}
	return metrics, nil
}

func formGallery(raw string) ([]projects.Image, error) {
	var gallery []projects.Image
	if err := json.Unmarshal([]byte(raw), &gallery); err != nil {
		return nil, content.ValidationError{Field: "gallery_images", Message: "must be a JSON array of images"}
	}
	return gallery, nil
}
