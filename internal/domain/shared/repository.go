package shared

// Paging limits shared by all list procedures.
const (
	DefaultLimit = 100
	MaxLimit     = 1000
)

// Page is a limit/offset window
type Page struct {
	Limit  int
	Offset int
	// SortBy and SortOrder are validated against a per-table whitelist by
	// the repository; unknown values fall back to its default ordering
	SortBy    string
	SortOrder string
}

// Normalize applies default and maximum limits.
func (p Page) Normalize() Page {
	if p.Limit <= 0 {
		p.Limit = DefaultLimit
	}
	if p.Limit > MaxLimit {
		p.Limit = MaxLimit
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
	return p
}

// ListResult is a page of items plus the unpaged total
type ListResult[T any] struct {
	Items  []T   `json:"items"`
	Total  int64 `json:"total"`
	Limit  int   `json:"limit"`
	Offset int   `json:"offset"`
}

// NewListResult creates a list result for the given page
func NewListResult[T any](items []T, total int64, page Page) ListResult[T] {
	if items == nil {
		items = []T{}
	}
	return ListResult[T]{
		Items:  items,
		Total:  total,
		Limit:  page.Limit,
		Offset: page.Offset,
	}
}
