package projects

import (
	"net/url"
	"strings"

	"github.com/cvisual/server/internal/domain/content"
)

func ParseFilters(values url.Values) (Filters, error) {
	filters := Filters{Category: strings.TrimSpace(values.Get("category"))}

	status, err := content.ParseStatusFilter(values)
	if err != nil {
		return filters, err
	}
	filters.Status = status

	featured, err := content.ParseBool(values, "featured")
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
