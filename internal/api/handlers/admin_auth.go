package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/cvisual/server/internal/api/middleware"
	"github.com/cvisual/server/internal/api/problem"
	"github.com/cvisual/server/internal/audit"
	"github.com/cvisual/server/internal/auth"
	"github.com/cvisual/server/internal/domain/content"
	"github.com/cvisual/server/internal/domain/users"
)

type AdminAuthHandler struct {
	Users      *users.Service
	JWTManager *auth.JWTManager
	Audit      *audit.Logger
	Env        string
}

func NewAdminAuthHandler(service *users.Service, jwtManager *auth.JWTManager, auditLogger *audit.Logger, env string) *AdminAuthHandler {
	return &AdminAuthHandler{
		Users:      service,
		JWTManager: jwtManager,
		Audit:      auditLogger,
		Env:        env,
	}
}

// loginRequest accepts the username or the email address as login.
type loginRequest struct {
	Username string `json:"username" validate:"required,max=120"`
	Password string `json:"password" validate:"required,max=256"`
}

type loginResponse struct {
	AccessToken string      `json:"access_token"`
	TokenType   string      `json:"token_type"`
	ExpiresAt   string      `json:"expires_at"`
	User        *users.User `json:"user"`
}

// Login handles POST /api/auth/login.
func (h *AdminAuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	if h.Users == nil || h.JWTManager == nil {
		serverError(w, r, h.Env)
		return
	}

	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err, h.Env)
		return
	}
	if err := content.Validate(req); err != nil {
		writeError(w, r, err, h.Env)
		return
	}

	user, err := h.Users.Authenticate(r.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, users.ErrInvalidCredentials) {
			h.Audit.LogFromRequest(r, req.Username, "admin.login", "", "", audit.StatusFailure, map[string]string{"reason": "invalid_credentials"})
			problem.Write(w, r, http.StatusUnauthorized, problem.TypeUnauthorized, "Invalid credentials", nil, h.Env)
			return
		}
		writeError(w, r, err, h.Env)
		return
	}

	token, err := h.JWTManager.Generate(user.ID, user.Username, user.Role)
	if err != nil {
		writeError(w, r, err, h.Env)
		return
	}

	h.Audit.LogFromRequest(r, user.Username, "admin.login", "user", user.ID, audit.StatusSuccess, nil)
	writeJSON(w, http.StatusOK, loginResponse{
		AccessToken: token.Value,
		TokenType:   "Bearer",
		ExpiresAt:   token.ExpiresAt.UTC().Format(time.RFC3339),
		User:        user,
	})
}

// Me handles GET /api/auth/me and returns the account behind the token.
func (h *AdminAuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	if h.Users == nil {
		serverError(w, r, h.Env)
		return
	}

	claims := middleware.AdminClaims(r)
	if claims == nil {
		problem.Write(w, r, http.StatusUnauthorized, problem.TypeUnauthorized, "Unauthorized", nil, h.Env)
		return
	}

	user, err := h.Users.Get(r.Context(), claims.Subject)
	if err != nil {
		if errors.Is(err, users.ErrUserNotFound) {
			problem.Write(w, r, http.StatusUnauthorized, problem.TypeUnauthorized, "Unauthorized", err, h.Env)
			return
		}
		writeError(w, r, err, h.Env)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"user": user})
}
