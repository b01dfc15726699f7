// Package pagination implements the shared page/per_page listing contract:
// every list endpoint returns {data, meta, links} with laravel-style meta
// so clients paginate all resources the same way.
package pagination

import "fmt"

const (
	DefaultPerPage = 20
	MaxPerPage     = 100
)

// Params are the caller-supplied paging inputs before normalization.
type Params struct {
	Page    int
	PerPage int
}

// Normalize clamps the inputs to sane bounds. Out-of-range values fall back
// to defaults rather than erroring; paging inputs are never fatal.
func (p Params) Normalize() Params {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PerPage < 1 || p.PerPage > MaxPerPage {
		p.PerPage = DefaultPerPage
	}
	return p
}

// Offset returns the zero-based row offset for the normalized params.
func (p Params) Offset() int {
	return (p.Page - 1) * p.PerPage
}

// Meta describes the position of the returned page within the full result.
type Meta struct {
	Total       int `json:"total"`
	PerPage     int `json:"per_page"`
	CurrentPage int `json:"current_page"`
	LastPage    int `json:"last_page"`
	From        int `json:"from"`
	To          int `json:"to"`
}

// Links carries ready-to-follow page URLs. Prev and Next are null at the
// edges of the result set.
type Links struct {
	First string  `json:"first"`
	Last  string  `json:"last"`
	Prev  *string `json:"prev"`
	Next  *string `json:"next"`
}

// Page is the uniform list response envelope.
type Page[T any] struct {
	Data  []T   `json:"data"`
	Meta  Meta  `json:"meta"`
	Links Links `json:"links"`
}

// NewPage assembles the envelope for one page of results. data holds only
// the current page; total is the unfiltered-by-paging match count. basePath
// is the request path used to build the navigation links.
func NewPage[T any](data []T, total int, params Params, basePath string) Page[T] {
	params = params.Normalize()

	lastPage := (total + params.PerPage - 1) / params.PerPage
	if lastPage < 1 {
		lastPage = 1
	}

	from, to := 0, 0
	if len(data) > 0 {
		from = params.Offset() + 1
		to = params.Offset() + len(data)
	}

	if data == nil {
		data = []T{}
	}

	page := Page[T]{
		Data: data,
		Meta: Meta{
			Total:       total,
			PerPage:     params.PerPage,
			CurrentPage: params.Page,
			LastPage:    lastPage,
			From:        from,
			To:          to,
		},
		Links: Links{
			First: pageURL(basePath, 1, params.PerPage),
			Last:  pageURL(basePath, lastPage, params.PerPage),
		},
	}
	if params.Page > 1 {
		prev := pageURL(basePath, params.Page-1, params.PerPage)
		page.Links.Prev = &prev
	}
	if params.Page < lastPage {
		next := pageURL(basePath, params.Page+1, params.PerPage)
		page.Links.Next = &next
	}
	return page
}

func pageURL(basePath string, page, perPage int) string {
	return fmt.Sprintf("%s?page=%d&per_page=%d", basePath, page, perPage)
}
