// Package offerings manages the services the agency advertises. The package
// is not called "services" to keep it apart from the domain service types.
package offerings

import (
	"context"
	"errors"
	"net/url"
	"time"

	"github.com/cvisual/server/internal/domain/content"
)

var ErrNotFound = errors.New("service not found")

type Offering struct {
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	Description   string    `json:"description"`
	Icon          string    `json:"icon"`
	ImageURL      string    `json:"image_url"`
	Features      []string  `json:"features"`
	Pricing       string    `json:"pricing"`
	Delay         string    `json:"delay"`
	ROI           string    `json:"roi"`
	DetailsAnchor string    `json:"details_anchor"`
	OrderPosition int       `json:"order_position"`
	IsActive      bool      `json:"is_active"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

type Filters struct {
	Active *bool
	Limit  int
}

type Repository interface {
	List(ctx context.Context, filters Filters) ([]Offering, error)
	GetByID(ctx context.Context, id string) (*Offering, error)
	Count(ctx context.Context) (int, error)
	Create(ctx context.Context, offering Offering) (*Offering, error)
	Update(ctx context.Context, id string, mutate func(*Offering) error) (*Offering, error)
	Delete(ctx context.Context, id string) error
}

type Input struct {
	Title         string   `json:"title" yaml:"title"`
	Description   string   `json:"description" yaml:"description"`
	Icon          string   `json:"icon" yaml:"icon"`
	ImageURL      string   `json:"image_url" yaml:"image_url"`
	Features      []string `json:"features" yaml:"features"`
	Pricing       string   `json:"pricing" yaml:"pricing"`
	Delay         string   `json:"delay" yaml:"delay"`
	ROI           string   `json:"roi" yaml:"roi"`
	DetailsAnchor string   `json:"details_anchor" yaml:"details_anchor"`
	OrderPosition int      `json:"order_position" yaml:"order_position"`
	IsActive      *bool    `json:"is_active" yaml:"is_active"`
}

func (in Input) offering() Offering {
	active := true
	if in.IsActive != nil {
		active = *in.IsActive
	}
	return Offering{
		Title:         in.Title,
		Description:   in.Description,
		Icon:          in.Icon,
		ImageURL:      in.ImageURL,
		Features:      in.Features,
		Pricing:       in.Pricing,
		Delay:         in.Delay,
		ROI:           in.ROI,
		DetailsAnchor: in.DetailsAnchor,
		OrderPosition: in.OrderPosition,
		IsActive:      active,
	}
}

// Patch is a partial update. Nil fields keep their stored value.
type Patch struct {
	Title         *string   `json:"title"`
	Description   *string   `json:"description"`
	Icon          *string   `json:"icon"`
	ImageURL      *string   `json:"image_url"`
	Features      *[]string `json:"features"`
	Pricing       *string   `json:"pricing"`
	Delay         *string   `json:"delay"`
	ROI           *string   `json:"roi"`
	DetailsAnchor *string   `json:"details_anchor"`
	OrderPosition *int      `json:"order_position"`
	IsActive      *bool     `json:"is_active"`
}

func (p Patch) Apply(target *Offering) {
	if p.Title != nil {
		target.Title = *p.Title
	}
	if p.Description != nil {
		target.Description = *p.Description
	}
	if p.Icon != nil {
		target.Icon = *p.Icon
	}
	if p.ImageURL != nil {
		target.ImageURL = *p.ImageURL
	}
	if p.Features != nil {
		target.Features = append([]string(nil), (*p.Features)...)
	}
	if p.Pricing != nil {
		target.Pricing = *p.Pricing
	}
	if p.Delay != nil {
		target.Delay = *p.Delay
	}
	if p.ROI != nil {
		target.ROI = *p.ROI
	}
	if p.DetailsAnchor != nil {
		target.DetailsAnchor = *p.DetailsAnchor
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

	limit, err := content.ParseLimit(values)
	if err != nil {
		return filters, err
	}
	filters.Limit = limit
	return filters, nil
}
