// Package paging normalizes page/pageSize query parameters shared by the list endpoints.
package paging

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Window is a normalized page request.
type Window struct {
	Page     int
	PageSize int
}

// Normalize clamps page to >= 1 and pageSize to 1..MaxPageSize, defaulting to DefaultPageSize.
func Normalize(page, pageSize int) Window {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}
	return Window{Page: page, PageSize: pageSize}
}

// Offset is the number of rows to skip.
func (w Window) Offset() int {
	return (w.Page - 1) * w.PageSize
}

// TotalPages for total rows.
func (w Window) TotalPages(total int) int {
	if w.PageSize < 1 {
		return 0
	}
	return (total + w.PageSize - 1) / w.PageSize
}
