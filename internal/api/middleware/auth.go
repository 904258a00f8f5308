package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/cvisual/server/internal/api/problem"
	"github.com/cvisual/server/internal/auth"
	"github.com/cvisual/server/internal/domain/content"
)

type contextKeyAuth string

const adminClaimsKey contextKeyAuth = "adminClaims"

func contextWithAdminClaims(ctx context.Context, claims *auth.Claims) context.Context {
	return context.WithValue(ctx, adminClaimsKey, claims)
}

func AdminClaims(r *http.Request) *auth.Claims {
	if r == nil {
		return nil
	}
	if claims, ok := r.Context().Value(adminClaimsKey).(*auth.Claims); ok {
		return claims
	}
	return nil
}

// Scope reports the visibility scope resolved by OptionalAuth or JWTAuth.
func Scope(r *http.Request) content.Scope {
	if AdminClaims(r) != nil {
		return content.ScopeAdmin
	}
	return content.ScopePublic
}

// JWTAuth validates JWT tokens from Authorization header (Bearer tokens)
// and requires an administrator role.
func JWTAuth(manager *auth.JWTManager, env string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := strings.TrimSpace(r.Header.Get("Authorization"))
			if authHeader == "" {
				problem.Write(w, r, http.StatusUnauthorized, problem.TypeUnauthorized, "Missing authorization header", problem.ErrUnauthorized, env)
				return
			}
			claims, ok := authenticate(w, r, manager, authHeader, env)
			if !ok {
				return
			}
			next.ServeHTTP(w, r.WithContext(contextWithAdminClaims(r.Context(), claims)))
		})
	}
}

// OptionalAuth resolves the scope of public read routes. A request without
// an Authorization header continues anonymously; a header that is present
// must carry a valid admin token, otherwise the request is rejected.
func OptionalAuth(manager *auth.JWTManager, env string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := strings.TrimSpace(r.Header.Get("Authorization"))
			if authHeader == "" {
				next.ServeHTTP(w, r)
				return
			}
			claims, ok := authenticate(w, r, manager, authHeader, env)
			if !ok {
				return
			}
			next.ServeHTTP(w, r.WithContext(contextWithAdminClaims(r.Context(), claims)))
		})
	}
}

// authenticate writes the problem response itself when it returns false.
func authenticate(w http.ResponseWriter, r *http.Request, manager *auth.JWTManager, authHeader, env string) (*auth.Claims, bool) {
	if manager == nil {
		problem.Write(w, r, http.StatusUnauthorized, problem.TypeUnauthorized, "Unauthorized", problem.ErrUnauthorized, env)
		return nil, false
	}

	token, err := auth.TokenFromHeader(authHeader)
	if err != nil {
		problem.Write(w, r, http.StatusUnauthorized, problem.TypeUnauthorized, "Invalid authorization format", err, env)
		return nil, false
	}

	claims, err := manager.Validate(token)
	if err != nil {
		title := "Invalid token"
		if errors.Is(err, auth.ErrExpiredToken) {
			title = "Token expired"
		}
		problem.Write(w, r, http.StatusUnauthorized, problem.TypeUnauthorized, title, err, env)
		return nil, false
	}

	if !auth.IsAdmin(claims.Role) {
		problem.Write(w, r, http.StatusForbidden, problem.TypeForbidden, "Insufficient permissions", problem.ErrForbidden, env)
		return nil, false
	}
	return claims, true
}
