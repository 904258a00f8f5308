package projects

import (
	"context"
	"errors"
	"time"

	"github.com/cvisual/server/internal/domain/content"
)

var ErrNotFound = errors.New("project not found")

// Project is a portfolio entry. Gallery images and metrics are owned by the
// project and removed with it.
type Project struct {
	ID            string         `json:"id"`
	Title         string         `json:"title"`
	Description   string         `json:"description"`
	Category      string         `json:"category"`
	ImageURL      string         `json:"image_url"`
	ThumbnailURL  string         `json:"thumbnail_url"`
	ClientName    string         `json:"client_name"`
	ProjectDate   *Date          `json:"project_date"`
	Tags          []string       `json:"tags"`
	Featured      bool           `json:"featured"`
	Status        content.Status `json:"status"`
	OrderPosition int            `json:"order_position"`
	LiveLink      string         `json:"live_link"`
	Gallery       []Image        `json:"gallery_images"`
	Metrics       []Metric       `json:"metrics"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

type Image struct {
	ID       string `json:"id,omitempty"`
	URL      string `json:"image_url"`
	PublicID string `json:"public_id,omitempty"`
	Position int    `json:"position"`
}

type Metric struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// Filters are applied verbatim by the repository; visibility has already
// been resolved by the service.
type Filters struct {
	Status   *content.Status
	Category string
	Featured *bool
	Limit    int
}

type Repository interface {
	List(ctx context.Context, filters Filters) ([]Project, error)
	GetByID(ctx context.Context, id string) (*Project, error)
	// Create inserts the project with its gallery and metrics atomically.
	Create(ctx context.Context, project Project) (*Project, error)
	// Update locks the project, hands it to mutate and persists the result,
	// all in one transaction. An error from mutate aborts the update.
	Update(ctx context.Context, id string, mutate func(*Project) error) (*Project, error)
	Delete(ctx context.Context, id string) error
	AddImages(ctx context.Context, id string, images []Image) (*Project, error)
}
