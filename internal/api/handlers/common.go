package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/cvisual/server/internal/api/middleware"
	"github.com/cvisual/server/internal/api/problem"
	"github.com/cvisual/server/internal/domain/blog"
	"github.com/cvisual/server/internal/domain/contact"
	"github.com/cvisual/server/internal/domain/content"
	"github.com/cvisual/server/internal/domain/offerings"
	"github.com/cvisual/server/internal/domain/projects"
	"github.com/cvisual/server/internal/domain/testimonials"
	"github.com/cvisual/server/internal/domain/users"
	"github.com/cvisual/server/internal/media"
)

var errBodyTooLarge = errors.New("request body too large")

type messageResponse struct {
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// decodeJSON reads one JSON value from the body into dst. Malformed and
// empty bodies are validation errors.
func decodeJSON(r *http.Request, dst any) error {
	if r.Body == nil {
		return content.ValidationError{Field: "body", Message: "is required"}
	}
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case content.IsValidation(err):
			return err
		case errors.As(err, &maxErr):
			return fmt.Errorf("%w: limit is %d bytes", errBodyTooLarge, maxErr.Limit)
		case errors.Is(err, io.EOF):
			return content.ValidationError{Field: "body", Message: "is required"}
		default:
			return content.ValidationError{Field: "body", Message: "must be a valid JSON document"}
		}
	}
	return nil
}

// actor names the administrator behind r for audit entries.
func actor(r *http.Request) string {
	claims := middleware.AdminClaims(r)
	if claims == nil {
		return ""
	}
	if claims.Username != "" {
		return claims.Username
	}
	return claims.Subject
}

func pathParam(r *http.Request, name string) string {
	return strings.TrimSpace(r.PathValue(name))
}

// writeError maps domain, storage and media errors onto problem responses.
func writeError(w http.ResponseWriter, r *http.Request, err error, env string) {
	switch {
	case content.IsValidation(err):
		problem.Write(w, r, http.StatusBadRequest, problem.TypeValidation, "Invalid request", err, env,
			problem.WithDetail(err.Error()), problem.WithErrors(validationFields(err)))
	case errors.Is(err, errBodyTooLarge), errors.Is(err, media.ErrTooLarge):
		problem.Write(w, r, http.StatusRequestEntityTooLarge, problem.TypeTooLarge, "Payload too large", err, env,
			problem.WithDetail(err.Error()))
	case errors.Is(err, media.ErrInvalidImage):
		problem.Write(w, r, http.StatusBadRequest, problem.TypeValidation, "Invalid image", err, env,
			problem.WithDetail(err.Error()))
	case isNotFound(err):
		problem.Write(w, r, http.StatusNotFound, problem.TypeNotFound, "Not found", err, env,
			problem.WithDetail(err.Error()))
	case errors.Is(err, blog.ErrSlugTaken), errors.Is(err, users.ErrUsernameTaken), errors.Is(err, users.ErrEmailTaken):
		problem.Write(w, r, http.StatusConflict, problem.TypeConflict, "Conflict", err, env,
			problem.WithDetail(err.Error()))
	case errors.Is(err, media.ErrDisabled):
		problem.Write(w, r, http.StatusServiceUnavailable, problem.TypeUploadFailed, "Uploads unavailable", err, env,
			problem.WithDetail(err.Error()))
	case errors.Is(err, media.ErrUploadFailed):
		problem.Write(w, r, http.StatusBadGateway, problem.TypeUploadFailed, "Upload failed", err, env,
			problem.WithDetail(uploadDetail(err)))
	default:
		problem.Write(w, r, http.StatusInternalServerError, problem.TypeServerError, "Server error", err, env)
	}
}

func isNotFound(err error) bool {
	return errors.Is(err, projects.ErrNotFound) ||
		errors.Is(err, blog.ErrNotFound) ||
		errors.Is(err, offerings.ErrNotFound) ||
		errors.Is(err, testimonials.ErrNotFound) ||
		errors.Is(err, contact.ErrNotFound) ||
		errors.Is(err, users.ErrUserNotFound)
}

func validationFields(err error) map[string]interface{} {
	var multi content.ValidationErrors
	if errors.As(err, &multi) {
		return multi.Fields()
	}
	var single content.ValidationError
	if errors.As(err, &single) && single.Field != "" {
		return map[string]interface{}{single.Field: single.Message}
	}
	return nil
}

// uploadDetail prefers the message returned by the asset host.
func uploadDetail(err error) string {
	var uploadErr *media.UploadError
	if errors.As(err, &uploadErr) && uploadErr.Message != "" {
		return uploadErr.Message
	}
	return err.Error()
}

func serverError(w http.ResponseWriter, r *http.Request, env string) {
	problem.Write(w, r, http.StatusInternalServerError, problem.TypeServerError, "Server error", nil, env)
}
