package shared

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// Filter carries paging, ordering and equality filters for list queries.
// Repositories whitelist OrderBy and the Filters keys they understand and
// ignore the rest.
type Filter struct {
	Page     int
	PageSize int
	OrderBy  string
	OrderDir string
	Filters  map[string]any
}

// DefaultFilter returns the first page, newest first
func DefaultFilter() Filter {
	return Filter{
		Page:     1,
		PageSize: defaultPageSize,
		OrderBy:  "created_at",
		OrderDir: "desc",
		Filters:  make(map[string]any),
	}
}

// Limit returns the page size clamped to [1, 100]
func (f Filter) Limit() int {
	if f.PageSize <= 0 {
		return defaultPageSize
	}
	return min(f.PageSize, maxPageSize)
}

// Offset returns the number of rows before the page
func (f Filter) Offset() int {
	if f.Page < 1 {
		return 0
	}
	return (f.Page - 1) * f.Limit()
}
