package pagination

import (
	"net/http"
	"strconv"
)

// Page size bounds.
const (
	DefaultPerPage = 20
	MaxPerPage     = 100
)

// Params holds pagination parameters extracted from query strings.
type Params struct {
	Page    int `json:"page"`
	PerPage int `json:"per_page"`
	Offset  int `json:"-"`
}

// DefaultParams returns the first page with the default size.
func DefaultParams() Params {
	return New(1, DefaultPerPage)
}

// New builds Params, clamping page to >= 1 and per-page to [1, MaxPerPage].
func New(page, perPage int) Params {
	if page < 1 {
		page = 1
	}
	switch {
	case perPage < 1:
		perPage = DefaultPerPage
	case perPage > MaxPerPage:
		perPage = MaxPerPage
	}
	return Params{Page: page, PerPage: perPage, Offset: (page - 1) * perPage}
}

// FromRequest extracts ?page= and ?per_page= from an HTTP request.
// Unparseable values fall back to defaults.
func FromRequest(r *http.Request) Params {
	q := r.URL.Query()
	page, perPage := 1, DefaultPerPage

	if v, err := strconv.Atoi(q.Get("page")); err == nil {
		page = v
	}
	if v, err := strconv.Atoi(q.Get("per_page")); err == nil {
		perPage = v
	}
	return New(page, perPage)
}

// Result wraps one page of items.
type Result[T any] struct {
	Items      []T  `json:"items"`
	TotalCount int  `json:"total_count"`
	Page       int  `json:"page"`
	PerPage    int  `json:"per_page"`
	TotalPages int  `json:"total_pages"`
	HasNext    bool `json:"has_next"`
	HasPrev    bool `json:"has_prev"`
}

// NewResult creates a paginated result. A nil slice is returned as empty.
func NewResult[T any](items []T, totalCount int, params Params) Result[T] {
	if params.PerPage < 1 {
		params = New(params.Page, params.PerPage)
	}
	totalPages := totalCount / params.PerPage
	if totalCount%params.PerPage > 0 {
		totalPages++
	}
	if items == nil {
		items = []T{}
	}

	return Result[T]{
		Items:      items,
		TotalCount: totalCount,
		Page:       params.Page,
		PerPage:    params.PerPage,
		TotalPages: totalPages,
		HasNext:    params.Page < totalPages,
		HasPrev:    params.Page > 1,
	}
}
