package handlers

import (
	"net/http"

	"github.com/cvisual/server/internal/domain/content"
	"github.com/cvisual/server/internal/domain/newsletter"
)

type NewsletterHandler struct {
	Service *newsletter.Service
	Env     string
}

func NewNewsletterHandler(service *newsletter.Service, env string) *NewsletterHandler {
	return &NewsletterHandler{Service: service, Env: env}
}

type subscribeRequest struct {
	Email string `json:"email"`
}

type subscribeResponse struct {
	Message    string                 `json:"message"`
	Subscriber *newsletter.Subscriber `json:"subscriber"`
}

type subscriberListResponse struct {
	Subscribers []newsletter.Subscriber `json:"subscribers"`
	Total       int                     `json:"total"`
}

// Subscribe is idempotent: a known address answers 200 instead of 201.
func (h *NewsletterHandler) Subscribe(w http.ResponseWriter, r *http.Request) {
	if h.Service == nil {
		serverError(w, r, h.Env)
		return
	}

	var req subscribeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err, h.Env)
		return
	}

	subscriber, created, err := h.Service.Subscribe(r.Context(), req.Email)
	if err != nil {
		writeError(w, r, err, h.Env)
		return
	}
	if !created {
		writeJSON(w, http.StatusOK, subscribeResponse{Message: "Already subscribed", Subscriber: subscriber})
		return
	}
	writeJSON(w, http.StatusCreated, subscribeResponse{Message: "Subscribed successfully", Subscriber: subscriber})
}

// List reports subscribers newest first; total counts every subscriber
// regardless of limit.
func (h *NewsletterHandler) List(w http.ResponseWriter, r *http.Request) {
	if h.Service == nil {
		serverError(w, r, h.Env)
		return
	}

	limit, err := content.ParseLimit(r.URL.Query())
	if err != nil {
		writeError(w, r, err, h.Env)
		return
	}

	subscribers, total, err := h.Service.List(r.Context(), limit)
	if err != nil {
		writeError(w, r, err, h.Env)
		return
	}
	if subscribers == nil {
		subscribers = []newsletter.Subscriber{}
	}
	writeJSON(w, http.StatusOK, subscriberListResponse{Subscribers: subscribers, Total: total})
}
