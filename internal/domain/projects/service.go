package projects

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/cvisual/server/internal/domain/content"
	"github.com/cvisual/server/internal/media"
	"github.com/cvisual/server/internal/metrics"
	"github.com/cvisual/server/internal/sanitize"
	"github.com/rs/zerolog"
)

// MediaStore is the part of the media gateway projects depend on.
type MediaStore interface {
	Upload(ctx context.Context, file media.File, folder string) (media.Asset, error)
	UploadBatch(ctx context.Context, files []media.File, folder string) []media.Result
	Delete(ctx context.Context, publicID string) error
}

// Uploads are the files sent along with a multipart project create or update.
type Uploads struct {
	Main    *media.File
	Gallery []media.File
	Folder  string
}

// UploadFailure is reported inline for a gallery file that could not be stored.
type UploadFailure struct {
	Filename string `json:"filename"`
	Error    string `json:"error"`
}

type Service struct {
	repo   Repository
	media  MediaStore
	logger zerolog.Logger
}

func NewService(repo Repository, store MediaStore, logger zerolog.Logger) *Service {
	return &Service{
		repo:   repo,
		media:  store,
		logger: logger.With().Str("component", "projects").Logger(),
	}
}

func (s *Service) List(ctx context.Context, scope content.Scope, filters Filters) ([]Project, error) {
	filters.Status = content.ResolveStatus(scope, filters.Status)
	return s.repo.List(ctx, filters)
}

// Get returns ErrNotFound for projects the scope may not see.
func (s *Service) Get(ctx context.Context, scope content.Scope, id string) (*Project, error) {
	project, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !content.Visible(scope, project.Status) {
		return nil, ErrNotFound
	}
	return project, nil
}

func (s *Service) Create(ctx context.Context, input Input) (*Project, error) {
	project := input.project()
	normalize(&project)
	if err := check(project); err != nil {
		return nil, err
	}
	created, err := s.repo.Create(ctx, project)
	if err != nil {
		return nil, err
	}
	metrics.ContentMutations.WithLabelValues("project", "create").Inc()
	return created, nil
}

// CreateWithUploads stores the uploaded images first and then inserts the
// project with its gallery. A failed main image aborts before anything is
// written; failed gallery files are skipped and reported. If the insert
// fails, the uploaded assets are removed again.
func (s *Service) CreateWithUploads(ctx context.Context, input Input, uploads Uploads) (*Project, []UploadFailure, error) {
	project := input.project()
	normalize(&project)
	if err := check(project); err != nil {
		return nil, nil, err
	}
	if uploads.Main == nil && len(uploads.Gallery) == 0 {
		created, err := s.Create(ctx, input)
		return created, nil, err
	}
	if s.media == nil {
		return nil, nil, media.ErrDisabled
	}

	var stored []string
	if uploads.Main != nil {
		asset, err := s.media.Upload(ctx, *uploads.Main, uploads.Folder)
		if err != nil {
			return nil, nil, err
		}
		stored = append(stored, asset.PublicID)
		project.ImageURL = asset.URL
		if project.ThumbnailURL == "" {
			project.ThumbnailURL = asset.URL
		}
	}

	images, failures, publicIDs := s.uploadGallery(ctx, uploads.Gallery, uploads.Folder, len(project.Gallery))
	stored = append(stored, publicIDs...)
	project.Gallery = append(project.Gallery, images...)

	created, err := s.repo.Create(ctx, project)
	if err != nil {
		s.discard(stored)
		return nil, failures, err
	}
	metrics.ContentMutations.WithLabelValues("project", "create").Inc()
	return created, failures, nil
}

func (s *Service) Update(ctx context.Context, id string, patch Patch) (*Project, error) {
	updated, err := s.repo.Update(ctx, id, func(project *Project) error {
		patch.Apply(project)
		normalize(project)
		return check(*project)
	})
	if err != nil {
		return nil, err
	}
	metrics.ContentMutations.WithLabelValues("project", "update").Inc()
	return updated, nil
}

// UpdateWithUploads applies patch together with a replacement main image and
// extra gallery files. As on create, a failed main image aborts before
// anything changes, failed gallery files are reported, and the new assets are
// removed again when the update does not commit.
func (s *Service) UpdateWithUploads(ctx context.Context, id string, patch Patch, uploads Uploads) (*Project, []UploadFailure, error) {
	if uploads.Main == nil && len(uploads.Gallery) == 0 {
		updated, err := s.Update(ctx, id, patch)
		return updated, nil, err
	}
	if s.media == nil {
		return nil, nil, media.ErrDisabled
	}
	existing, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	var stored []string
	if uploads.Main != nil {
		asset, err := s.media.Upload(ctx, *uploads.Main, uploads.Folder)
		if err != nil {
			return nil, nil, err
		}
		stored = append(stored, asset.PublicID)
		patch.ImageURL = &asset.URL
		// A thumbnail that merely mirrored the old main image follows the new one.
		if patch.ThumbnailURL == nil && (existing.ThumbnailURL == "" || existing.ThumbnailURL == existing.ImageURL) {
			patch.ThumbnailURL = &asset.URL
		}
	}

	images, failures, publicIDs := s.uploadGallery(ctx, uploads.Gallery, uploads.Folder, 0)
	stored = append(stored, publicIDs...)

	updated, err := s.repo.Update(ctx, id, func(project *Project) error {
		patch.Apply(project)
		project.Gallery = append(project.Gallery, images...)
		normalize(project)
		return check(*project)
	})
	if err != nil {
		s.discard(stored)
		return nil, failures, err
	}
	metrics.ContentMutations.WithLabelValues("project", "update").Inc()
	return updated, failures, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	metrics.ContentMutations.WithLabelValues("project", "delete").Inc()
	return nil
}

// AddImages uploads files and appends the successful ones to the project's
// gallery.
func (s *Service) AddImages(ctx context.Context, id string, files []media.File, folder string) (*Project, []UploadFailure, error) {
	if len(files) == 0 {
		return nil, nil, content.Required("gallery")
	}
	if s.media == nil {
		return nil, nil, media.ErrDisabled
	}
	existing, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	images, failures, publicIDs := s.uploadGallery(ctx, files, folder, len(existing.Gallery))
	if len(images) == 0 {
		return nil, failures, fmt.Errorf("%w: no gallery image could be stored", media.ErrUploadFailed)
	}

	updated, err := s.repo.AddImages(ctx, id, images)
	if err != nil {
		s.discard(publicIDs)
		return nil, failures, err
	}
	metrics.ContentMutations.WithLabelValues("project", "update").Inc()
	return updated, failures, nil
}

func (s *Service) uploadGallery(ctx context.Context, files []media.File, folder string, offset int) ([]Image, []UploadFailure, []string) {
	if len(files) == 0 {
		return nil, nil, nil
	}
	var (
		images    []Image
		failures  []UploadFailure
		publicIDs []string
	)
	for _, result := range s.media.UploadBatch(ctx, files, folder) {
		if !result.OK() {
			failures = append(failures, UploadFailure{Filename: result.Filename, Error: uploadMessage(result.Err)})
			continue
		}
		images = append(images, Image{
			URL:      result.Asset.URL,
			PublicID: result.Asset.PublicID,
			Position: offset + len(images),
		})
		publicIDs = append(publicIDs, result.Asset.PublicID)
	}
	return images, failures, publicIDs
}

// discard removes assets whose owning write failed. It runs detached from the
// request context so a cancelled request still cleans up.
func (s *Service) discard(publicIDs []string) {
	ctx := context.Background()
	for _, id := range publicIDs {
		if err := s.media.Delete(ctx, id); err != nil {
			s.logger.Warn().Err(err).Str("public_id", id).Msg("failed to remove orphaned asset")
		}
	}
}

func uploadMessage(err error) string {
	var uploadErr *media.UploadError
	if errors.As(err, &uploadErr) {
		return uploadErr.Message
	}
	if err == nil {
		return "upload failed"
	}
	return err.Error()
}

func normalize(project *Project) {
	project.Title = sanitize.Text(project.Title)
	project.Description = sanitize.HTML(project.Description)
	project.Category = sanitize.Text(project.Category)
	project.ClientName = sanitize.Text(project.ClientName)
	project.ImageURL = strings.TrimSpace(project.ImageURL)
	project.ThumbnailURL = strings.TrimSpace(project.ThumbnailURL)
	project.LiveLink = strings.TrimSpace(project.LiveLink)
	project.Tags = sanitize.TextSlice(project.Tags)
	if project.Tags == nil {
		project.Tags = []string{}
	}

	metricsOut := project.Metrics[:0:0]
	for _, metric := range project.Metrics {
		label := sanitize.Text(metric.Label)
		if label == "" {
			continue
		}
		metricsOut = append(metricsOut, Metric{Label: label, Value: sanitize.Text(metric.Value)})
	}
	project.Metrics = metricsOut

	gallery := project.Gallery[:0:0]
	for _, image := range project.Gallery {
		image.URL = strings.TrimSpace(image.URL)
		if image.URL == "" {
			continue
		}
		image.Position = len(gallery)
		gallery = append(gallery, image)
	}
	project.Gallery = gallery
}

func check(project Project) error {
	var errs content.ValidationErrors
	if project.Title == "" {
		errs = append(errs, content.Required("title"))
	}
	errs = content.CheckLengths(errs,
		content.Limit{Field: "title", Value: project.Title, Max: 255},
		content.Limit{Field: "category", Value: project.Category, Max: 100},
		content.Limit{Field: "client_name", Value: project.ClientName, Max: 150},
	)
	for i, metric := range project.Metrics {
		errs = content.CheckLengths(errs,
			content.Limit{Field: fmt.Sprintf("metrics[%d].label", i), Value: metric.Label, Max: 100},
			content.Limit{Field: fmt.Sprintf("metrics[%d].value", i), Value: metric.Value, Max: 100},
		)
	}
	if !project.Status.Valid() {
		errs = append(errs, content.ValidationError{Field: "status", Message: "must be one of draft, published, archived"})
	}
	if project.OrderPosition < 0 {
		errs = append(errs, content.ValidationError{Field: "order_position", Message: "must not be negative"})
	}
	if project.LiveLink != "" && !content.IsHTTPURL(project.LiveLink) {
		errs = append(errs, content.ValidationError{Field: "live_link", Message: "must be a valid URL"})
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}
