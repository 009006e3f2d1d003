package shared

const (
	// DefaultPageSize applies when a list query gives no page size
	DefaultPageSize = 20
	// MaxPageSize caps session history and credit listings
	MaxPageSize = 100
)

// Filter is the page selection of a list query. Pages are 1-based.
type Filter struct {
	Page     int
	PageSize int
}

// DefaultFilter selects the first page at the default size
func DefaultFilter() Filter {
	return Filter{Page: 1, PageSize: DefaultPageSize}
}

// Limit is the effective page size, clamped to (0, MaxPageSize]
func (f Filter) Limit() int {
	switch {
	case f.PageSize <= 0:
		return DefaultPageSize
	case f.PageSize > MaxPageSize:
		return MaxPageSize
	}
	return f.PageSize
}

// Offset is the number of rows before the selected page
func (f Filter) Offset() int {
	if f.Page <= 1 {
		return 0
	}
	return (f.Page - 1) * f.Limit()
}

// Paginated is one page of a list result
type Paginated[T any] struct {
	Items      []T   `json:"items"`
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	TotalPages int   `json:"total_pages"`
}

// NewPaginated wraps items with page counts derived from total
func NewPaginated[T any](items []T, total int64, page, pageSize int) Paginated[T] {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	size := int64(pageSize)
	return Paginated[T]{
		Items:      items,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: int((total + size - 1) / size),
	}
}
