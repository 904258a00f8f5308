// Package media forwards uploaded images to the external asset host and
// returns the hosted URLs.
package media

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrUploadFailed marks a failure reported by the asset host.
	ErrUploadFailed = errors.New("upload failed")
	// ErrInvalidImage marks a payload that does not decode as an image.
	ErrInvalidImage = errors.New("invalid image")
	// ErrTooLarge marks a payload over the configured size limit.
	ErrTooLarge = errors.New("file too large")
	// ErrDisabled is returned when no asset host is configured.
	ErrDisabled = errors.New("media uploads are not configured")
)

// File is an in-memory upload.
type File struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Asset describes a file stored by the host.
type Asset struct {
	URL      string `json:"url"`
	PublicID string `json:"public_id"`
	Format   string `json:"format,omitempty"`
	Width    int    `json:"width,omitempty"`
	Height   int    `json:"height,omitempty"`
	Bytes    int    `json:"bytes,omitempty"`
}

type UploadOptions struct {
	Folder   string
	PublicID string
}

// Uploader is the asset host. Implementations must return an *UploadError
// for failures reported by the host.
type Uploader interface {
	Upload(ctx context.Context, file File, opts UploadOptions) (Asset, error)
	Destroy(ctx context.Context, publicID string) error
}

// UploadError carries the message returned by the asset host.
type UploadError struct {
	Filename string
	Message  string
	Err      error
}

func (e *UploadError) Error() string {
	if e.Filename != "" {
		return fmt.Sprintf("upload %s: %s", e.Filename, e.Message)
	}
	return "upload: " + e.Message
}

func (e *UploadError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrUploadFailed, e.Err}
	}
	return []error{ErrUploadFailed}
}

// Result is the outcome for one file of a batch upload.
type Result struct {
	Filename string
	Asset    *Asset
	Err      error
}

func (r Result) OK() bool {
	return r.Err == nil && r.Asset != nil
}
