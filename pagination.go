package blogboot

import (
	"errors"
	"math"
	"strconv"
)

const (
	DefaultPage     = 1
	DefaultPageSize = 10
	MaxPageSize     = 100
	// MaxPage keeps (page-1)*limit well inside int64.
	MaxPage = math.MaxInt32
)

// NewPageRequest builds a page request from raw query values. Missing or
// non-numeric values fall back to the defaults; page is clamped to
// [1, MaxPage] and the limit to [1, MaxPageSize].
func NewPageRequest(pageRaw, limitRaw string, sort SortField) PageRequest {
	page := parseQueryInt(pageRaw, DefaultPage)
	limit := parseQueryInt(limitRaw, DefaultPageSize)
	if page < 1 {
		page = 1
	}
	if page > MaxPage {
		page = MaxPage
	}
	if limit < 1 {
		limit = 1
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}
	return PageRequest{Page: page, Limit: limit, Sort: sort}
}

// parseQueryInt returns def for non-numeric input. Out of range numbers
// saturate so they are clamped like any other oversized value.
func parseQueryInt(raw string, def int) int {
	n, err := strconv.Atoi(raw)
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		return def
	}
	return n
}

// Skip is the number of documents preceding the requested window. It is
// never negative, even for requests built without NewPageRequest.
func (p PageRequest) Skip() int64 {
	if p.Page <= 1 || p.Limit <= 0 {
		return 0
	}
	page, limit := int64(p.Page-1), int64(p.Limit)
	if page > math.MaxInt64/limit {
		return math.MaxInt64
	}
	return page * limit
}

// TotalPages returns ceil(total / limit).
func TotalPages(total int64, limit int) int {
	if limit <= 0 {
		return 0
	}
	return int(math.Ceil(float64(total) / float64(limit)))
}

// NewPageResponse assembles the window metadata for items fetched with req.
func NewPageResponse[T any](items []T, total int64, req PageRequest) PageResponse[T] {
	if items == nil {
		items = []T{}
	}
	return PageResponse[T]{
		Contents: items,
		Count:    len(items),
		Total:    int(total),
		Page:     req.Page,
		Pages:    TotalPages(total, req.Limit),
	}
}

// MapPage converts the contents of a page while keeping its metadata.
func MapPage[T, R any](page PageResponse[T], items []R) PageResponse[R] {
	if items == nil {
		items = []R{}
	}
	return PageResponse[R]{
		Contents: items,
		Count:    len(items),
		Total:    page.Total,
		Page:     page.Page,
		Pages:    page.Pages,
	}
}
