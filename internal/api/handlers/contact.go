package handlers

import (
	"net"
	"net/http"

	"github.com/cvisual/server/internal/audit"
	"github.com/cvisual/server/internal/domain/contact"
)

type ContactHandler struct {
	Service *contact.Service
	Audit   *audit.Logger
	// ClientIP resolves the submitter address, honouring trusted proxies.
	ClientIP func(*http.Request) string
	Env      string
}

func NewContactHandler(service *contact.Service, auditLogger *audit.Logger, clientIP func(*http.Request) string, env string) *ContactHandler {
	if clientIP == nil {
		clientIP = remoteAddr
	}
	return &ContactHandler{Service: service, Audit: auditLogger, ClientIP: clientIP, Env: env}
}

type contactListResponse struct {
	Messages []contact.Message `json:"messages"`
	Total    int               `json:"total"`
}

type contactResponse struct {
	Message     string           `json:"message,omitempty"`
	ContactItem *contact.Message `json:"contact_message"`
}

type submitResponse struct {
	Message string `json:"message"`
	ID      string `json:"id"`
}

// Submit handles the public form at POST /api/contact and
// POST /api/contact/submit.
func (h *ContactHandler) Submit(w http.ResponseWriter, r *http.Request) {
	if h.Service == nil {
		serverError(w, r, h.Env)
		return
	}

	var submission contact.Submission
	if err := decodeJSON(r, &submission); err != nil {
		writeError(w, r, err, h.Env)
		return
	}

	message, err := h.Service.Submit(r.Context(), submission, contact.ClientInfo{
		IP:        h.ClientIP(r),
		UserAgent: r.UserAgent(),
	})
	if err != nil {
		writeError(w, r, err, h.Env)
		return
	}
	writeJSON(w, http.StatusCreated, submitResponse{Message: "Message sent successfully", ID: message.ID})
}

func (h *ContactHandler) List(w http.ResponseWriter, r *http.Request) {
	if h.Service == nil {
		serverError(w, r, h.Env)
		return
	}

	filters, err := contact.ParseFilters(r.URL.Query())
	if err != nil {
		writeError(w, r, err, h.Env)
		return
	}

	messages, err := h.Service.List(r.Context(), filters)
	if err != nil {
		writeError(w, r, err, h.Env)
		return
	}
	if messages == nil {
		messages = []contact.Message{}
	}
	writeJSON(w, http.StatusOK, contactListResponse{Messages: messages, Total: len(messages)})
}

func (h *ContactHandler) Stats(w http.ResponseWriter, r *http.Request) {
	if h.Service == nil {
		serverError(w, r, h.Env)
		return
	}

	stats, err := h.Service.Stats(r.Context())
	if err != nil {
		writeError(w, r, err, h.Env)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// Get returns one message. Opening a new message marks it read.
func (h *ContactHandler) Get(w http.ResponseWriter, r *http.Request) {
	if h.Service == nil {
		serverError(w, r, h.Env)
		return
	}

	message, err := h.Service.Get(r.Context(), pathParam(r, "id"))
	if err != nil {
		writeError(w, r, err, h.Env)
		return
	}
	writeJSON(w, http.StatusOK, contactResponse{ContactItem: message})
}

func (h *ContactHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	if h.Service == nil {
		serverError(w, r, h.Env)
		return
	}

	id := pathParam(r, "id")
	var patch contact.StatusPatch
	if err := decodeJSON(r, &patch); err != nil {
		writeError(w, r, err, h.Env)
		return
	}

	message, err := h.Service.UpdateStatus(r.Context(), id, patch)
	if err != nil {
		writeError(w, r, err, h.Env)
		return
	}
	h.Audit.LogFromRequest(r, actor(r), "contact.update", "contact_message", id, audit.StatusSuccess,
		map[string]string{"status": string(message.Status)})
	writeJSON(w, http.StatusOK, contactResponse{Message: "Message updated successfully", ContactItem: message})
}

func (h *ContactHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if h.Service == nil {
		serverError(w, r, h.Env)
		return
	}

	id := pathParam(r, "id")
	if err := h.Service.Delete(r.Context(), id); err != nil {
		writeError(w, r, err, h.Env)
		return
	}
	h.Audit.LogFromRequest(r, actor(r), "contact.delete", "contact_message", id, audit.StatusSuccess, nil)
	writeJSON(w, http.StatusOK, messageResponse{Message: "Message deleted successfully"})
}

func remoteAddr(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
