package common

import (
	"net/http"
	"strconv"
)

// Paging bounds. MaxPage*MaxPerPage stays well inside an int32 offset.
const (
	MaxPage    = 100000
	MaxPerPage = 100
)

// Pagination holds pagination metadata for list responses.
type Pagination struct {
	Page       int `json:"page"`
	PerPage    int `json:"per_page"`
	TotalItems int `json:"total_items"`
	TotalPages int `json:"total_pages"`
}

// NewPagination fills in the page count for total items.
func NewPagination(page, perPage int, total int64) Pagination {
	pages := 0
	if perPage > 0 {
		pages = int((total + int64(perPage) - 1) / int64(perPage))
	}
	return Pagination{Page: page, PerPage: perPage, TotalItems: int(total), TotalPages: pages}
}

// ParsePagination extracts page and per-page parameters from query values.
func ParsePagination(r *http.Request, defaultPerPage int) (page, perPage int) {
	page = 1
	perPage = defaultPerPage
	if p, err := strconv.Atoi(r.URL.Query().Get("page")); err == nil && p > 0 {
		page = p
	}
	if l, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && l > 0 {
		perPage = l
	}
	page = min(page, MaxPage)
	perPage = min(perPage, MaxPerPage)
	return
}

// Offset converts a 1-based page into a row offset.
func Offset(page, perPage int) int {
	page = max(1, min(page, MaxPage))
	return (page - 1) * perPage
}
