package projects

import (
	"bytes"

	"github.com/cvisual/server/internal/domain/content"
)

// Input is the payload for creating a project.
type Input struct {
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
}

func (in Input) project() Project {
	status := in.Status
	if status == "" {
		status = content.StatusDraft
	}
	return Project{
		Title:         in.Title,
		Description:   in.Description,
		Category:      in.Category,
		ImageURL:      in.ImageURL,
		ThumbnailURL:  in.ThumbnailURL,
		ClientName:    in.ClientName,
		ProjectDate:   in.ProjectDate,
		Tags:          in.Tags,
		Featured:      in.Featured,
		Status:        status,
		OrderPosition: in.OrderPosition,
		LiveLink:      in.LiveLink,
		Gallery:       in.Gallery,
		Metrics:       in.Metrics,
	}
}

// NullableDate tells an absent field from an explicit null. Set is true once
// the key appears in the payload; Value is nil when it was null.
type NullableDate struct {
	Set   bool
	Value *Date
}

func (n *NullableDate) UnmarshalJSON(data []byte) error {
	n.Set = true
	n.Value = nil
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		return nil
	}
	var date Date
	if err := date.UnmarshalJSON(data); err != nil {
		return err
	}
	n.Value = &date
	return nil
}

// Patch is a partial update. Nil fields keep their stored value;
// project_date may also be sent as null to clear it.
type Patch struct {
	Title         *string         `json:"title"`
	Description   *string         `json:"description"`
	Category      *string         `json:"category"`
	ImageURL      *string         `json:"image_url"`
	ThumbnailURL  *string         `json:"thumbnail_url"`
	ClientName    *string         `json:"client_name"`
	ProjectDate   NullableDate    `json:"project_date"`
	Tags          *[]string       `json:"tags"`
	Featured      *bool           `json:"featured"`
	Status        *content.Status `json:"status"`
	OrderPosition *int            `json:"order_position"`
	LiveLink      *string         `json:"live_link"`
	Gallery       *[]Image        `json:"gallery_images"`
	Metrics       *[]Metric       `json:"metrics"`
}

func (p Patch) Apply(target *Project) {
	if p.Title != nil {
		target.Title = *p.Title
	}
	if p.Description != nil {
		target.Description = *p.Description
	}
	if p.Category != nil {
		target.Category = *p.Category
	}
	if p.ImageURL != nil {
		target.ImageURL = *p.ImageURL
	}
	if p.ThumbnailURL != nil {
		target.ThumbnailURL = *p.ThumbnailURL
	}
	if p.ClientName != nil {
		target.ClientName = *p.ClientName
	}
	if p.ProjectDate.Set {
		if p.ProjectDate.Value == nil {
			target.ProjectDate = nil
		} else {
			date := *p.ProjectDate.Value
			target.ProjectDate = &date
		}
	}
	if p.Tags != nil {
		target.Tags = append([]string(nil), (*p.Tags)...)
	}
	if p.Featured != nil {
		target.Featured = *p.Featured
	}
	if p.Status != nil {
		target.Status = *p.Status
	}
	if p.OrderPosition != nil {
		target.OrderPosition = *p.OrderPosition
	}
	if p.LiveLink != nil {
		target.LiveLink = *p.LiveLink
	}
	if p.Gallery != nil {
		target.Gallery = append([]Image(nil), (*p.Gallery)...)
	}
	if p.Metrics != nil {
		target.Metrics = append([]Metric(nil), (*p.Metrics)...)
	}
}
