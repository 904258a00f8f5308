package blog

import (
	"net/url"
	"strings"

	"github.com/cvisual/server/internal/domain/content"
)

type Input struct {
	Title         string         `json:"title"`
	Slug          string         `json:"slug"`
	Excerpt       string         `json:"excerpt"`
	Content       string         `json:"content"`
	FeaturedImage string         `json:"featured_image"`
	Author        string         `json:"author"`
	Category      string         `json:"category"`
	Tags          []string       `json:"tags"`
	Status        content.Status `json:"status"`
}

func (in Input) post() Post {
	status := in.Status
	if status == "" {
		status = content.StatusDraft
	}
	author := strings.TrimSpace(in.Author)
	if author == "" {
		author = DefaultAuthor
	}
	return Post{
		Title:         in.Title,
		Slug:          in.Slug,
		Excerpt:       in.Excerpt,
		Content:       in.Content,
		FeaturedImage: in.FeaturedImage,
		Author:        author,
		Category:      in.Category,
		Tags:          in.Tags,
		Status:        status,
	}
}

// Patch is a partial update. Nil fields keep their stored value.
type Patch struct {
	Title         *string         `json:"title"`
	Slug          *string         `json:"slug"`
	Excerpt       *string         `json:"excerpt"`
	Content       *string         `json:"content"`
	FeaturedImage *string         `json:"featured_image"`
	Author        *string         `json:"author"`
	Category      *string         `json:"category"`
	Tags          *[]string       `json:"tags"`
	Status        *content.Status `json:"status"`
}

func (p Patch) Apply(target *Post) {
	if p.Title != nil {
		target.Title = *p.Title
	}
	if p.Slug != nil {
		target.Slug = *p.Slug
	}
	if p.Excerpt != nil {
		target.Excerpt = *p.Excerpt
	}
	if p.Content != nil {
		target.Content = *p.Content
	}
	if p.FeaturedImage != nil {
		target.FeaturedImage = *p.FeaturedImage
	}
	if p.Author != nil {
		target.Author = *p.Author
	}
	if p.Category != nil {
		target.Category = *p.Category
	}
	if p.Tags != nil {
		target.Tags = append([]string(nil), (*p.Tags)...)
	}
	if p.Status != nil {
		target.Status = *p.Status
	}
}

func ParseFilters(values url.Values) (Filters, error) {
	filters := Filters{Category: strings.TrimSpace(values.Get("category"))}

	status, err := content.ParseStatusFilter(values)
	if err != nil {
		return filters, err
	}
	filters.Status = status

	limit, err := content.ParseLimit(values)
	if err != nil {
		return filters, err
	}
	filters.Limit = limit
	return filters, nil
}
