package v1

import (
	"net/http"
	"net/url"
	"strconv"

	"github.com/pestline/pestline/infrastructure/api/jsonapi"
)

// DefaultPageSize is the default number of items per page.
const DefaultPageSize = 20

// MaxPageSize is the maximum allowed page size.
const MaxPageSize = 100

// Pagination holds the page requested through query strings.
type Pagination struct {
	page     int
	pageSize int
}

// ParsePagination reads page and page_size from the request. Missing or
// invalid values fall back to page 1 and DefaultPageSize; page_size is
// capped at MaxPageSize.
func ParsePagination(r *http.Request) Pagination {
	q := r.URL.Query()
	return Pagination{
		page:     positiveInt(q.Get("page"), 1),
		pageSize: min(positiveInt(q.Get("page_size"), DefaultPageSize), MaxPageSize),
	}
}

func positiveInt(s string, fallback int) int {
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return fallback
	}
	return n
}

// Page returns the page number (1-indexed).
func (p Pagination) Page() int { return p.page }

// PageSize returns the page size.
func (p Pagination) PageSize() int { return p.pageSize }

// TotalPages returns the number of pages needed for total items.
func (p Pagination) TotalPages(total int64) int {
	if p.pageSize <= 0 {
		return 0
	}
	return int((total + int64(p.pageSize) - 1) / int64(p.pageSize))
}

// Meta builds the JSON:API meta object for a page of total items.
func (p Pagination) Meta(total int64) *jsonapi.Meta {
	return &jsonapi.Meta{
		"page":        p.page,
		"page_size":   p.pageSize,
		"total_count": total,
		"total_pages": p.TotalPages(total),
	}
}

// Links builds first/last/prev/next links that keep the request's other
// query parameters.
func (p Pagination) Links(r *http.Request, total int64) *jsonapi.Links {
	pages := p.TotalPages(total)
	link := func(page int) string {
		q := r.URL.Query()
		q.Set("page", strconv.Itoa(page))
		q.Set("page_size", strconv.Itoa(p.pageSize))
		return (&url.URL{Path: r.URL.Path, RawQuery: q.Encode()}).String()
	}

	links := jsonapi.Links{
		Self:  link(p.page),
		First: link(1),
	}
	if pages > 0 {
		links.Last = link(pages)
	}
	if p.page > 1 {
		links.Prev = link(p.page - 1)
	}
	if p.page < pages {
		links.Next = link(p.page + 1)
	}
	return &links
}
