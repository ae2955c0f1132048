package pagination

import (
	"errors"
	"net/url"
	"strconv"
)

const (
	// DefaultLimit is used when a request does not specify a page size.
	DefaultLimit = 20
	// MaxLimit caps the page size a single request may ask for.
	MaxLimit = 100
)

var (
	ErrInvalidOffset = errors.New("invalid offset parameter")
	ErrInvalidLimit  = errors.New("invalid limit parameter")
)

// Page holds validated offset/limit parameters.
type Page struct {
	Offset int
	Limit  int
}

// PageResult represents a paginated result set
type PageResult[T any] struct {
	Items   []T  `json:"items"`
	Total   int  `json:"total"`
	Offset  int  `json:"offset"`
	Limit   int  `json:"limit"`
	HasMore bool `json:"has_more"`
}

// NewPageResult assembles a PageResult from a fetched page and the total row
// count, computing HasMore from the offset rather than the page length so a
// short final page is handled correctly.
func NewPageResult[T any](items []T, total int, page Page) PageResult[T] {
	return PageResult[T]{
		Items:   items,
		Total:   total,
		Offset:  page.Offset,
		Limit:   page.Limit,
		HasMore: page.Offset+len(items) < total,
	}
}

// ParsePage extracts offset/limit query parameters, applying defaults and
// clamping the limit. Negative or non-numeric values are rejected.
func ParsePage(values url.Values) (Page, error) {
	page := Page{Offset: 0, Limit: DefaultLimit}

	if raw := values.Get("offset"); raw != "" {
		offset, err := strconv.Atoi(raw)
		if err != nil || offset < 0 {
			return Page{}, ErrInvalidOffset
		}
		page.Offset = offset
	}

	if raw := values.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit <= 0 {
			return Page{}, ErrInvalidLimit
		}
		if limit > MaxLimit {
			limit = MaxLimit
		}
		page.Limit = limit
	}

	return page, nil
}
