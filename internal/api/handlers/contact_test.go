package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/cvisual/server/internal/audit"
	"github.com/cvisual/server/internal/domain/contact"
	"github.com/cvisual/server/internal/domain/newsletter"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

type failingNotifier struct{ calls int }

func (f *failingNotifier) NotifyContactMessage(context.Context, contact.Message) error {
	f.calls++
	return errors.New("smtp down")
}

func newContactFixture() (*ContactHandler, *stubContactRepo, *failingNotifier) {
	repo := newStubContactRepo()
	notifier := &failingNotifier{}
	service := contact.NewService(repo, notifier, zerolog.Nop())
	clientIP := func(*http.Request) string { return "203.0.113.7" }
	return NewContactHandler(service, audit.Nop(), clientIP, testEnv), repo, notifier
}

func TestContactSubmitEmptyPayloadStoresNothing(t *testing.T) {
	h, repo, notifier := newContactFixture()

	rec := do(t, serve("POST /api/contact/submit", h.Submit), http.MethodPost, "/api/contact/submit", jsonBody(t, `{}`), "")
	body := requireProblem(t, rec, http.StatusBadRequest)
	require.Contains(t, body.Errors, "name")
	require.Contains(t, body.Errors, "email")
	require.Contains(t, body.Errors, "message")
	require.Zero(t, repo.count())
	require.Zero(t, notifier.calls)
}

func TestContactSubmitCapturesClientAndSurvivesNotifierFailure(t *testing.T) {
	h, repo, notifier := newContactFixture()

	req := httptest.NewRequest(http.MethodPost, "/api/contact", strings.NewReader(
		`{"firstName":"Jean","lastName":"Pierre","email":"jean@example.com","message":"Bonjour"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", strings.Repeat("x", 400))
	rec := httptest.NewRecorder()
	serve("POST /api/contact", h.Submit).ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	body := decode[submitResponse](t, rec)
	require.Equal(t, "Message sent successfully", body.Message)
	require.Equal(t, 1, notifier.calls)

	stored, err := repo.GetByID(context.Background(), body.ID)
	require.NoError(t, err)
	require.Equal(t, "Jean Pierre", stored.Name)
	require.Equal(t, "203.0.113.7", stored.IPAddress)
	require.Len(t, []rune(stored.UserAgent), contact.MaxUserAgentLength)
	require.Equal(t, contact.StatusNew, stored.Status)
}

func TestContactAdminFlow(t *testing.T) {
	h, repo, _ := newContactFixture()
	message, err := repo.Create(context.Background(), contact.Message{Name: "A", Email: "a@example.com", Message: "hi", Status: contact.StatusNew})
	require.NoError(t, err)

	rec := do(t, serve("GET /api/contact/{id}", h.Get), http.MethodGet, "/api/contact/"+message.ID, nil, adminToken(t))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, contact.StatusRead, decode[contactResponse](t, rec).ContactItem.Status)

	update := serve("PUT /api/contact/{id}", h.UpdateStatus)
	rec = do(t, update, http.MethodPut, "/api/contact/"+message.ID, jsonBody(t, `{"status":"replied"}`), adminToken(t))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.Equal(t, contact.StatusReplied, decode[contactResponse](t, rec).ContactItem.Status)

	rec = do(t, update, http.MethodPut, "/api/contact/"+message.ID, jsonBody(t, `{"status":"spam"}`), adminToken(t))
	requireProblem(t, rec, http.StatusBadRequest)

	rec = do(t, serve("GET /api/contact/stats", h.Stats), http.MethodGet, "/api/contact/stats", nil, adminToken(t))
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"total":1,"new":0,"read":0,"replied":1,"archived":0}`, rec.Body.String())

	rec = do(t, serve("GET /api/contact", h.List), http.MethodGet, "/api/contact?status=replied", nil, adminToken(t))
	require.Equal(t, 1, decode[contactListResponse](t, rec).Total)

	deleteHandler := serve("DELETE /api/contact/{id}", h.Delete)
	require.Equal(t, http.StatusOK, do(t, deleteHandler, http.MethodDelete, "/api/contact/"+message.ID, nil, adminToken(t)).Code)
	requireProblem(t, do(t, deleteHandler, http.MethodDelete, "/api/contact/"+message.ID, nil, adminToken(t)), http.StatusNotFound)
}

func TestNewsletterSubscribeIsIdempotent(t *testing.T) {
	repo := &stubNewsletterRepo{}
	h := NewNewsletterHandler(newsletter.NewService(repo), testEnv)
	subscribe := serve("POST /api/newsletter", h.Subscribe)

	rec := do(t, subscribe, http.MethodPost, "/api/newsletter", jsonBody(t, `{"email":"Fan@Example.com"}`), "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	require.Equal(t, "Subscribed successfully", decode[subscribeResponse](t, rec).Message)

	rec = do(t, subscribe, http.MethodPost, "/api/newsletter", jsonBody(t, `{"email":"fan@example.com"}`), "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "Already subscribed", decode[subscribeResponse](t, rec).Message)

	rec = do(t, subscribe, http.MethodPost, "/api/newsletter", jsonBody(t, `{"email":"not-an-email"}`), "")
	requireProblem(t, rec, http.StatusBadRequest)

	rec = do(t, serve("GET /api/newsletter", h.List), http.MethodGet, "/api/newsletter", nil, adminToken(t))
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[subscriberListResponse](t, rec)
	require.Equal(t, 1, list.Total)
	require.Equal(t, "fan@example.com", list.Subscribers[0].Email)
}
