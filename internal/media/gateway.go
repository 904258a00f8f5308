package media

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/cvisual/server/internal/metrics"
	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultMaxSize     int64 = 16 << 20
	DefaultConcurrency       = 4
	DefaultFolder            = "projects"
)

// Gateway validates uploads, names them and hands them to the Uploader.
type Gateway struct {
	uploader    Uploader
	rootFolder  string
	maxSize     int64
	concurrency int
	newID       func() string
	logger      zerolog.Logger
}

type Option func(*Gateway)

func WithConcurrency(n int) Option {
	return func(g *Gateway) {
		if n > 0 {
			g.concurrency = n
		}
	}
}

func WithMaxSize(size int64) Option {
	return func(g *Gateway) {
		if size > 0 {
			g.maxSize = size
		}
	}
}

func WithIDGenerator(fn func() string) Option {
	return func(g *Gateway) {
		if fn != nil {
			g.newID = fn
		}
	}
}

func NewGateway(uploader Uploader, rootFolder string, logger zerolog.Logger, opts ...Option) *Gateway {
	g := &Gateway{
		uploader:    uploader,
		rootFolder:  strings.Trim(rootFolder, "/"),
		maxSize:     DefaultMaxSize,
		concurrency: DefaultConcurrency,
		newID:       func() string { return strings.ToLower(ulid.Make().String()) },
		logger:      logger.With().Str("component", "media").Logger(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

func (g *Gateway) MaxSize() int64 {
	return g.maxSize
}

// Upload checks the file and stores it under folder. Host failures are
// returned as *UploadError.
func (g *Gateway) Upload(ctx context.Context, file File, folder string) (Asset, error) {
	if g == nil || g.uploader == nil {
		return Asset{}, ErrDisabled
	}
	if int64(len(file.Data)) > g.maxSize {
		metrics.MediaUploads.WithLabelValues("rejected").Inc()
		return Asset{}, fmt.Errorf("%w: %s", ErrTooLarge, file.Filename)
	}
	if _, _, _, err := Inspect(file.Data); err != nil {
		metrics.MediaUploads.WithLabelValues("rejected").Inc()
		return Asset{}, fmt.Errorf("%s: %w", file.Filename, err)
	}

	asset, err := g.uploader.Upload(ctx, file, UploadOptions{
		Folder:   g.folder(folder),
		PublicID: g.newID(),
	})
	if err != nil {
		metrics.MediaUploads.WithLabelValues("failed").Inc()
		var uploadErr *UploadError
		if !errors.As(err, &uploadErr) {
			err = &UploadError{Filename: file.Filename, Message: err.Error(), Err: err}
		}
		g.logger.Warn().Err(err).Str("filename", file.Filename).Msg("media upload failed")
		return Asset{}, err
	}
	metrics.MediaUploads.WithLabelValues("success").Inc()
	return asset, nil
}

// UploadBatch uploads files concurrently. Every file gets a Result in input
// order; one failure never cancels the others.
func (g *Gateway) UploadBatch(ctx context.Context, files []File, folder string) []Result {
	results := make([]Result, len(files))
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(g.concurrencyLimit())
	for i, file := range files {
		group.Go(func() error {
			asset, err := g.Upload(groupCtx, file, folder)
			results[i] = Result{Filename: file.Filename, Err: err}
			if err == nil {
				results[i].Asset = &asset
			}
			return nil
		})
	}
	_ = group.Wait()
	return results
}

// Delete removes a hosted asset. Missing public ids are ignored.
func (g *Gateway) Delete(ctx context.Context, publicID string) error {
	if g == nil || g.uploader == nil {
		return ErrDisabled
	}
	if strings.TrimSpace(publicID) == "" {
		return nil
	}
	return g.uploader.Destroy(ctx, publicID)
}

func (g *Gateway) folder(sub string) string {
	sub = strings.Trim(strings.TrimSpace(sub), "/")
	if sub == "" {
		sub = DefaultFolder
	}
	// Keep clients inside the root folder.
	sub = strings.TrimLeft(path.Clean("/"+sub), "/")
	if g.rootFolder == "" {
		return sub
	}
	return g.rootFolder + "/" + sub
}

func (g *Gateway) concurrencyLimit() int {
	if g == nil || g.concurrency <= 0 {
		return DefaultConcurrency
	}
	return g.concurrency
}
