package middleware

import (
	"net/http"
)

const (
	// DefaultMaxBodySize is 1MB for public endpoints
	DefaultMaxBodySize int64 = 1 << 20

	// AdminMaxBodySize is 5MB for admin JSON endpoints
	AdminMaxBodySize int64 = 5 << 20

	// multipartOverhead leaves room for form fields and boundaries next to
	// the file payloads of an upload.
	multipartOverhead int64 = 1 << 20
)

// RequestSize limits the size of incoming request bodies with
// http.MaxBytesReader. Handlers see a *http.MaxBytesError once the limit is
// crossed and answer 413.
func RequestSize(maxBytes int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			next.ServeHTTP(w, r)
		})
	}
}

// PublicRequestSize limits request bodies to 1MB for public endpoints.
func PublicRequestSize() func(http.Handler) http.Handler {
	return RequestSize(DefaultMaxBodySize)
}

// AdminRequestSize limits request bodies to 5MB for admin endpoints.
func AdminRequestSize() func(http.Handler) http.Handler {
	return RequestSize(AdminMaxBodySize)
}

// UploadRequestSize admits files up to files*perFile bytes.
func UploadRequestSize(perFile int64, files int) func(http.Handler) http.Handler {
	if files < 1 {
		files = 1
	}
	return RequestSize(perFile*int64(files) + multipartOverhead)
}
