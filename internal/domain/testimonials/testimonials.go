package testimonials

import (
	"context"
	"errors"
	"net/url"
	"time"

	"github.com/cvisual/server/internal/domain/content"
)

var ErrNotFound = errors.New("testimonial not found")

const DefaultRating = 5

type Testimonial struct {
	ID             string            `json:"id"`
	ClientName     string            `json:"client_name"`
	ClientPosition string            `json:"client_position"`
	ClientCompany  string            `json:"client_company"`
	ClientAvatar   string            `json:"client_avatar"`
	Text           string            `json:"testimonial_text"`
	Rating         int               `json:"rating"`
	ProjectType    string            `json:"project_type"`
	Metrics        map[string]string `json:"metrics"`
	IsFeatured     bool              `json:"is_featured"`
	OrderPosition  int               `json:"order_position"`
	IsActive       bool              `json:"is_active"`
	CreatedAt      time.Time         `json:"created_at"`
	UpdatedAt      time.Time         `json:"updated_at"`
}

type Filters struct {
	Active   *bool
	Featured *bool
	Limit    int
}

type Repository interface {
	List(ctx context.Context, filters Filters) ([]Testimonial, error)
	GetByID(ctx context.Context, id string) (*Testimonial, error)
	Create(ctx context.Context, testimonial Testimonial) (*Testimonial, error)
	Update(ctx context.Context, id string, mutate func(*Testimonial) error) (*Testimonial, error)
	Delete(ctx context.Context, id string) error
}

type Input struct {
	ClientName     string            `json:"client_name"`
	ClientPosition string            `json:"client_position"`
	ClientCompany  string            `json:"client_company"`
	ClientAvatar   string            `json:"client_avatar"`
	Text           string            `json:"testimonial_text"`
	Rating         *int              `json:"rating"`
	ProjectType    string            `json:"project_type"`
	Metrics        map[string]string `json:"metrics"`
	IsFeatured     bool              `json:"is_featured"`
	OrderPosition  int               `json:"order_position"`
	IsActive       *bool             `json:"is_active"`
}

func (in Input) testimonial() Testimonial {
	rating := DefaultRating
	if in.Rating != nil {
		rating = *in.Rating
	}
	active := true
	if in.IsActive != nil {
		active = *in.IsActive
	}
	return Testimonial{
		ClientName:     in.ClientName,
		ClientPosition: in.ClientPosition,
		ClientCompany:  in.ClientCompany,
		ClientAvatar:   in.ClientAvatar,
		Text:           in.Text,
		Rating:         rating,
		ProjectType:    in.ProjectType,
		Metrics:        in.Metrics,
		IsFeatured:     in.IsFeatured,
		OrderPosition:  in.OrderPosition,
		IsActive:       active,
	}
}

// Patch is a partial update. A non-nil Metrics replaces the whole map.
type Patch struct {
	ClientName     *string            `json:"client_name"`
	ClientPosition *string            `json:"client_position"`
	ClientCompany  *string            `json:"client_company"`
	ClientAvatar   *string            `json:"client_avatar"`
	Text           *string            `json:"testimonial_text"`
	Rating         *int               `json:"rating"`
	ProjectType    *string            `json:"project_type"`
	Metrics        *map[string]string `json:"metrics"`
	IsFeatured     *bool              `json:"is_featured"`
	OrderPosition  *int               `json:"order_position"`
	IsActive       *bool              `json:"is_active"`
}

func (p Patch) Apply(target *Testimonial) {
	if p.ClientName != nil {
		target.ClientName = *p.ClientName
	}
	if p.ClientPosition != nil {
		target.ClientPosition = *p.ClientPosition
	}
	if p.ClientCompany != nil {
		target.ClientCompany = *p.ClientCompany
	}
	if p.ClientAvatar != nil {
		target.ClientAvatar = *p.ClientAvatar
	}
	if p.Text != nil {
		target.Text = *p.Text
	}
	if p.Rating != nil {
		target.Rating = *p.Rating
	}
	if p.ProjectType != nil {
		target.ProjectType = *p.ProjectType
	}
	if p.Metrics != nil {
		replaced := make(map[string]string, len(*p.Metrics))
		for k, v := range *p.Metrics {
			replaced[k] = v
		}
		target.Metrics = replaced
	}
	if p.IsFeatured != nil {
		target.IsFeatured = *p.IsFeatured
	}
	if p.OrderPosition != nil {
		target.OrderPosition = *p.OrderPosition
	}
	if p.IsActive != nil {
		target.IsActive = *p.IsActive
	}
}

func ParseFilters(values url.Values) (Filters, error) {
	var filters Filters
	active, err := content.ParseBool(values, "is_active")
	if err != nil {
		return filters, err
	}
	filters.Active = active

	featured, err := content.ParseBool(values, "is_featured")
	if err != nil {
		return filters, err
	}
	filters.Featured = featured

	limit, err := content.ParseLimit(values)
	if err != nil {
		return filters, err
	}
	filters.Limit = limit
	return filters, nil
}
