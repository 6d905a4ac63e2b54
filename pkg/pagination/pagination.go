// Package pagination carries page requests from query strings to
// repositories and page results back to JSON clients.
package pagination

import (
	"net/url"
	"strconv"

	"github.com/JaimeStill/docriver/pkg/query"
)

// PageRequest selects one page of a sorted, optionally searched listing.
type PageRequest struct {
	Page     int               `json:"page"`
	PageSize int               `json:"page_size"`
	Search   string            `json:"search,omitempty"`
	Sort     []query.SortField `json:"sort,omitempty"`
}

// Normalize clamps the request to cfg.
func (r *PageRequest) Normalize(cfg Config) {
	r.Page = max(r.Page, 1)
	if r.PageSize < 1 {
		r.PageSize = cfg.DefaultPageSize
	}
	r.PageSize = min(r.PageSize, cfg.MaxPageSize)
}

// FromQuery reads page, page_size, search and sort from values.
func FromQuery(values url.Values, cfg Config) PageRequest {
	page, _ := strconv.Atoi(values.Get("page"))
	size, _ := strconv.Atoi(values.Get("page_size"))

	req := PageRequest{
		Page:     page,
		PageSize: size,
		Search:   values.Get("search"),
		Sort:     query.ParseSortFields(values.Get("sort")),
	}
	req.Normalize(cfg)
	return req
}

// PageResult is one page of T with totals.
type PageResult[T any] struct {
	Data       []T `json:"data"`
	Total      int `json:"total"`
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalPages int `json:"total_pages"`
}

// NewPageResult computes the page count; data is never nil.
func NewPageResult[T any](data []T, total, page, size int) PageResult[T] {
	if data == nil {
		data = []T{}
	}
	pages := 1
	if size > 0 && total > size {
		pages = (total + size - 1) / size
	}
	return PageResult[T]{
		Data:       data,
		Total:      total,
		Page:       page,
		PageSize:   size,
		TotalPages: pages,
	}
}
