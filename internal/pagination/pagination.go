// Package pagination splits listings into fixed-size pages. Requests for a
// page that does not exist resolve to the nearest valid one instead of failing.
package pagination

import (
	"strconv"
	"strings"
)

// PostsPerPage is the page size of every post listing.
const PostsPerPage = 10

// Paginator describes a listing of Count items cut into pages of PerPage.
type Paginator struct {
	Count   int64
	PerPage int
}

// New returns a paginator for count items.
func New(count int64, perPage int) Paginator {
	if perPage <= 0 {
		perPage = PostsPerPage
	}
	if count < 0 {
		count = 0
	}
	return Paginator{Count: count, PerPage: perPage}
}

// NumPages is never below 1: an empty listing still has one empty page.
func (p Paginator) NumPages() int {
	if p.Count == 0 {
		return 1
	}
	per := int64(p.PerPage)
	return int((p.Count + per - 1) / per)
}

// Number resolves the raw ?page= value. Missing or non-numeric values give
// page 1. Zero, negative and too-large numbers give the last page.
func (p Paginator) Number(raw string) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 1
	}
	last := p.NumPages()
	if n < 1 || n > last {
		return last
	}
	return n
}

// Bounds returns the offset and limit of page number n, which must be valid.
func (p Paginator) Bounds(n int) (offset, limit int) {
	return (n - 1) * p.PerPage, p.PerPage
}

// Page is one slice of a listing together with navigation data.
type Page[T any] struct {
	Items          []T   `json:"results"`
	Number         int   `json:"number"`
	NumPages       int   `json:"num_pages"`
	Count          int64 `json:"count"`
	HasNext        bool  `json:"has_next"`
	HasPrevious    bool  `json:"has_previous"`
	NextNumber     int   `json:"next_page_number,omitempty"`
	PreviousNumber int   `json:"previous_page_number,omitempty"`
}

// NewPage wraps items fetched for page number n of p.
func NewPage[T any](p Paginator, n int, items []T) Page[T] {
	if items == nil {
		items = []T{}
	}
	page := Page[T]{
		Items:       items,
		Number:      n,
		NumPages:    p.NumPages(),
		Count:       p.Count,
		HasNext:     n < p.NumPages(),
		HasPrevious: n > 1,
	}
	if page.HasNext {
		page.NextNumber = n + 1
	}
	if page.HasPrevious {
		page.PreviousNumber = n - 1
	}
	return page
}

// PageRange lists every page number, for templates.
func (p Page[T]) PageRange() []int {
	r := make([]int, p.NumPages)
	for i := range r {
		r[i] = i + 1
	}
	return r
}
