package helpers

import (
	"net/http"
	"strconv"

	"volunteermatch/internal/domain"
)

// Pagination query parameter defaults and limits.
const (
	DefaultPage     = 1
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// ParsePagination reads page and page_size from the query string. Missing values fall
// back to defaults; malformed or out-of-range values are rejected with ok=false.
func ParsePagination(r *http.Request) (params domain.PaginationParams, ok bool) {
	page, ok := queryInt(r, "page", DefaultPage)
	if !ok || page < 1 {
		return domain.PaginationParams{}, false
	}
	pageSize, ok := queryInt(r, "page_size", DefaultPageSize)
	if !ok || pageSize < 1 {
		return domain.PaginationParams{}, false
	}
	return domain.PaginationParams{Page: page, PageSize: min(pageSize, MaxPageSize)}, true
}

func queryInt(r *http.Request, name string, def int) (int, bool) {
	s := r.URL.Query().Get(name)
	if s == "" {
		return def, true
	}
	v, err := strconv.Atoi(s)
	return v, err == nil
}

// PaginationMeta is the pagination metadata included in paginated list responses.
// swagger:model PaginationMeta
type PaginationMeta struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
}

// NewPaginationMeta builds PaginationMeta for params and a total count.
func NewPaginationMeta(params domain.PaginationParams, total int) PaginationMeta {
	totalPages := 0
	if params.PageSize > 0 {
		totalPages = (total + params.PageSize - 1) / params.PageSize
	}
	return PaginationMeta{
		Page:       params.Page,
		PageSize:   params.PageSize,
		Total:      total,
		TotalPages: totalPages,
	}
}

// Page is the data payload of a paginated list response.
type Page[T any] struct {
	Items      []T            `json:"items"`
	Pagination PaginationMeta `json:"pagination"`
}

// NewPage wraps items with pagination metadata. A nil slice is encoded as [].
func NewPage[T any](items []T, params domain.PaginationParams, total int) Page[T] {
	if items == nil {
		items = []T{}
	}
	return Page[T]{Items: items, Pagination: NewPaginationMeta(params, total)}
}
