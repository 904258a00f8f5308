package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/cvisual/server/internal/api/middleware"
	"github.com/cvisual/server/internal/auth"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

const (
	testEnv    = "test"
	testSecret = "0123456789abcdef0123456789abcdef"
)

func testJWTManager() *auth.JWTManager {
	return auth.NewJWTManager(testSecret, time.Hour, "cvisual")
}

func adminToken(t *testing.T) string {
	t.Helper()
	token, err := testJWTManager().Generate(uuid.NewString(), "admin", auth.RoleAdmin)
	require.NoError(t, err)
	return token.Value
}

// serve mounts handler under pattern behind the optional auth middleware so
// the admin scope and path values resolve like they do in the router.
func serve(pattern string, handler http.HandlerFunc) http.Handler {
	mux := http.NewServeMux()
	mux.Handle(pattern, middleware.OptionalAuth(testJWTManager(), testEnv)(handler))
	return mux
}

func jsonBody(t *testing.T, v any) io.Reader {
	t.Helper()
	if s, ok := v.(string); ok {
		return strings.NewReader(s)
	}
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return bytes.NewReader(data)
}

func do(t *testing.T, h http.Handler, method, target string, body io.Reader, token string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, body)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

type problemBody struct {
	Type   string         `json:"type"`
	Title  string         `json:"title"`
	Status int            `json:"status"`
	Detail string         `json:"detail"`
	Errors map[string]any `json:"errors"`
}

func requireProblem(t *testing.T, rec *httptest.ResponseRecorder, status int) problemBody {
	t.Helper()
	require.Equal(t, status, rec.Code, rec.Body.String())
	require.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))
	return decode[problemBody](t, rec)
}
