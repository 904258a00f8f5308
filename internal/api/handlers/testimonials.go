package handlers

import (
	"net/http"

	"github.com/cvisual/server/internal/api/middleware"
	"github.com/cvisual/server/internal/audit"
	"github.com/cvisual/server/internal/domain/testimonials"
)

type TestimonialsHandler struct {
	Service *testimonials.Service
	Audit   *audit.Logger
	Env     string
}

func NewTestimonialsHandler(service *testimonials.Service, auditLogger *audit.Logger, env string) *TestimonialsHandler {
	return &TestimonialsHandler{Service: service, Audit: auditLogger, Env: env}
}

type testimonialListResponse struct {
	Testimonials []testimonials.Testimonial `json:"testimonials"`
	Total        int                        `json:"total"`
}

type testimonialResponse struct {
	Message     string                    `json:"message,omitempty"`
	Testimonial *testimonials.Testimonial `json:"testimonial"`
}

func (h *TestimonialsHandler) List(w http.ResponseWriter, r *http.Request) {
	if h.Service == nil {
		serverError(w, r, h.Env)
		return
	}

	filters, err := testimonials.ParseFilters(r.URL.Query())
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
		items = []testimonials.Testimonial{}
	}
	writeJSON(w, http.StatusOK, testimonialListResponse{Testimonials: items, Total: len(items)})
}

func (h *TestimonialsHandler) Get(w http.ResponseWriter, r *http.Request) {
	if h.Service == nil {
		serverError(w, r, h.Env)
		return
	}

	item, err := h.Service.Get(r.Context(), middleware.Scope(r), pathParam(r, "id"))
	if err != nil {
		writeError(w, r, err, h.Env)
		return
	}
	writeJSON(w, http.StatusOK, testimonialResponse{Testimonial: item})
}

func (h *TestimonialsHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h.Service == nil {
		serverError(w, r, h.Env)
		return
	}

	var input testimonials.Input
	if err := decodeJSON(r, &input); err != nil {
		writeError(w, r, err, h.Env)
		return
	}

	item, err := h.Service.Create(r.Context(), input)
	if err != nil {
		writeError(w, r, err, h.Env)
		return
	}
	h.Audit.LogFromRequest(r, actor(r), "testimonial.create", "testimonial", item.ID, audit.StatusSuccess, nil)
	writeJSON(w, http.StatusCreated, testimonialResponse{Message: "Testimonial created successfully", Testimonial: item})
}

func (h *TestimonialsHandler) Update(w http.ResponseWriter, r *http.Request) {
	if h.Service == nil {
		serverError(w, r, h.Env)
		return
	}

	id := pathParam(r, "id")
	var patch testimonials.Patch
	if err := decodeJSON(r, &patch); err != nil {
		writeError(w, r, err, h.Env)
		return
	}

	item, err := h.Service.Update(r.Context(), id, patch)
	if err != nil {
		writeError(w, r, err, h.Env)
		return
	}
	h.Audit.LogFromRequest(r, actor(r), "testimonial.update", "testimonial", id, audit.StatusSuccess, nil)
	writeJSON(w, http.StatusOK, testimonialResponse{Message: "Testimonial updated successfully", Testimonial: item})
}

func (h *TestimonialsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if h.Service == nil {
		serverError(w, r, h.Env)
		return
	}

	id := pathParam(r, "id")
	if err := h.Service.Delete(r.Context(), id); err != nil {
		writeError(w, r, err, h.Env)
		return
	}
	h.Audit.LogFromRequest(r, actor(r), "testimonial.delete", "testimonial", id, audit.StatusSuccess, nil)
	writeJSON(w, http.StatusOK, messageResponse{Message: "Testimonial deleted successfully"})
}
