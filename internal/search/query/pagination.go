package query

import (
	"math"

	"fraudintel/internal/search/models"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
	// MaxPage keeps (page-1)*MaxPageSize within int.
	MaxPage = math.MaxInt / MaxPageSize
)

// Pagination is a normalized page request. Build it with NewPagination.
type Pagination struct {
	Page int
	Size int
}

// NewPagination clamps raw paging input: page < 1 becomes 1, a size below 1
// becomes DefaultPageSize and a size above MaxPageSize becomes MaxPageSize.
// Pages beyond MaxPage are treated as MaxPage; they are empty either way.
func NewPagination(page, size int) Pagination {
	page = min(max(page, 1), MaxPage)
	switch {
	case size < 1:
		size = DefaultPageSize
	case size > MaxPageSize:
		size = MaxPageSize
	}
	return Pagination{Page: page, Size: size}
}

func (p Pagination) Offset() int {
	return (p.Page - 1) * p.Size
}

// TotalPages is ceil(total/size).
func (p Pagination) TotalPages(total int) int {
	if total <= 0 || p.Size <= 0 {
		return 0
	}
	return (total + p.Size - 1) / p.Size
}

// Window returns the [start, end) bounds of this page within n items.
func (p Pagination) Window(n int) (start, end int) {
	start = min(max(p.Offset(), 0), n)
	end = min(start+p.Size, n)
	return start, end
}

// Describe renders the applied paging for a response of total matches.
func (p Pagination) Describe(total int) models.Pagination {
	return models.Pagination{
		Page:       p.Page,
		Limit:      p.Size,
		Total:      total,
		TotalPages: p.TotalPages(total),
	}
}
