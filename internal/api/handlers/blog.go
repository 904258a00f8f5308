package handlers

import (
	"net/http"

	"github.com/cvisual/server/internal/api/middleware"
	"github.com/cvisual/server/internal/audit"
	"github.com/cvisual/server/internal/domain/blog"
)

type BlogHandler struct {
	Service *blog.Service
	Audit   *audit.Logger
	Env     string
}

func NewBlogHandler(service *blog.Service, auditLogger *audit.Logger, env string) *BlogHandler {
	return &BlogHandler{Service: service, Audit: auditLogger, Env: env}
}

type postListResponse struct {
	Posts []blog.Post `json:"posts"`
	Total int         `json:"total"`
}

type postResponse struct {
	Message string     `json:"message,omitempty"`
	Post    *blog.Post `json:"post"`
}

func (h *BlogHandler) List(w http.ResponseWriter, r *http.Request) {
	if h.Service == nil {
		serverError(w, r, h.Env)
		return
	}

	filters, err := blog.ParseFilters(r.URL.Query())
	if err != nil {
		writeError(w, r, err, h.Env)
		return
	}

	posts, err := h.Service.List(r.Context(), middleware.Scope(r), filters)
	if err != nil {
		writeError(w, r, err, h.Env)
		return
	}
	if posts == nil {
		posts = []blog.Post{}
	}
	writeJSON(w, http.StatusOK, postListResponse{Posts: posts, Total: len(posts)})
}

// View handles GET /api/blog/{slug}. Every successful read is counted.
func (h *BlogHandler) View(w http.ResponseWriter, r *http.Request) {
	if h.Service == nil {
		serverError(w, r, h.Env)
		return
	}

	post, err := h.Service.View(r.Context(), middleware.Scope(r), pathParam(r, "slug"))
	if err != nil {
		writeError(w, r, err, h.Env)
		return
	}
	writeJSON(w, http.StatusOK, postResponse{Post: post})
}

func (h *BlogHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h.Service == nil {
		serverError(w, r, h.Env)
		return
	}

	var input blog.Input
	if err := decodeJSON(r, &input); err != nil {
		writeError(w, r, err, h.Env)
		return
	}

	post, err := h.Service.Create(r.Context(), input)
	if err != nil {
		writeError(w, r, err, h.Env)
		return
	}
	h.Audit.LogFromRequest(r, actor(r), "blog.create", "blog_post", post.ID, audit.StatusSuccess, map[string]string{"slug": post.Slug})
	writeJSON(w, http.StatusCreated, postResponse{Message: "Blog post created successfully", Post: post})
}

func (h *BlogHandler) Update(w http.ResponseWriter, r *http.Request) {
	if h.Service == nil {
		serverError(w, r, h.Env)
		return
	}

	id := pathParam(r, "id")
	var patch blog.Patch
	if err := decodeJSON(r, &patch); err != nil {
		writeError(w, r, err, h.Env)
		return
	}

	post, err := h.Service.Update(r.Context(), id, patch)
	if err != nil {
		writeError(w, r, err, h.Env)
		return
	}
	h.Audit.LogFromRequest(r, actor(r), "blog.update", "blog_post", id, audit.StatusSuccess, nil)
	writeJSON(w, http.StatusOK, postResponse{Message: "Blog post updated successfully", Post: post})
}

func (h *BlogHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if h.Service == nil {
		serverError(w, r, h.Env)
		return
	}

	id := pathParam(r, "id")
	if err := h.Service.Delete(r.Context(), id); err != nil {
		writeError(w, r, err, h.Env)
		return
	}
	h.Audit.LogFromRequest(r, actor(r), "blog.delete", "blog_post", id, audit.StatusSuccess, nil)
	writeJSON(w, http.StatusOK, messageResponse{Message: "Blog post deleted successfully"})
}
