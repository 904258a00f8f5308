package handlers

import (
	"net/http"

	"github.com/cvisual/server/internal/api/middleware"
	"github.com/cvisual/server/internal/audit"
	"github.com/cvisual/server/internal/domain/offerings"
)

// ServicesHandler serves the agency's service catalogue under /api/services.
type ServicesHandler struct {
	Service *offerings.Service
	Audit   *audit.Logger
	Env     string
}

func NewServicesHandler(service *offerings.Service, auditLogger *audit.Logger, env string) *ServicesHandler {
	return &ServicesHandler{Service: service, Audit: auditLogger, Env: env}
}

type serviceListResponse struct {
	Services []offerings.Offering `json:"services"`
	Total    int                  `json:"total"`
}

type serviceResponse struct {
	Message string              `json:"message,omitempty"`
	Service *offerings.Offering `json:"service"`
}

func (h *ServicesHandler) List(w http.ResponseWriter, r *http.Request) {
	if h.Service == nil {
		serverError(w, r, h.Env)
		return
	}

	filters, err := offerings.ParseFilters(r.URL.Query())
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
		items = []offerings.Offering{}
	}
	writeJSON(w, http.StatusOK, serviceListResponse{Services: items, Total: len(items)})
}

func (h *ServicesHandler) Get(w http.ResponseWriter, r *http.Request) {
	if h.Service == nil {
		serverError(w, r, h.Env)
		return
	}

	item, err := h.Service.Get(r.Context(), middleware.Scope(r), pathParam(r, "id"))
	if err != nil {
		writeError(w, r, err, h.Env)
		return
	}
	writeJSON(w, http.StatusOK, serviceResponse{Service: item})
}

func (h *ServicesHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h.Service == nil {
		serverError(w, r, h.Env)
		return
	}

	var input offerings.Input
	if err := decodeJSON(r, &input); err != nil {
		writeError(w, r, err, h.Env)
		return
	}

	item, err := h.Service.Create(r.Context(), input)
	if err != nil {
		writeError(w, r, err, h.Env)
		return
	}
	h.Audit.LogFromRequest(r, actor(r), "service.create", "service", item.ID, audit.StatusSuccess, nil)
	writeJSON(w, http.StatusCreated, serviceResponse{Message: "Service created successfully", Service: item})
}

func (h *ServicesHandler) Update(w http.ResponseWriter, r *http.Request) {
	if h.Service == nil {
		serverError(w, r, h.Env)
		return
	}

	id := pathParam(r, "id")
	var patch offerings.Patch
	if err := decodeJSON(r, &patch); err != nil {
		writeError(w, r, err, h.Env)
		return
	}

	item, err := h.Service.Update(r.Context(), id, patch)
	if err != nil {
		writeError(w, r, err, h.Env)
		return
	}
	h.Audit.LogFromRequest(r, actor(r), "service.update", "service", id, audit.StatusSuccess, nil)
	writeJSON(w, http.StatusOK, serviceResponse{Message: "Service updated successfully", Service: item})
}

func (h *ServicesHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if h.Service == nil {
		serverError(w, r, h.Env)
		return
	}

	id := pathParam(r, "id")
	if err := h.Service.Delete(r.Context(), id); err != nil {
		writeError(w, r, err, h.Env)
		return
	}
	h.Audit.LogFromRequest(r, actor(r), "service.delete", "service", id, audit.StatusSuccess, nil)
	writeJSON(w, http.StatusOK, messageResponse{Message: "Service deleted successfully"})
}
