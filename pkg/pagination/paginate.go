package pagination

const (
	DefaultPageSize = 12
	// WindowSize is the number of consecutive page links around the current page.
	WindowSize = 5
)

type Page[T any] struct {
	Items     []T `json:"items"`
	Page      int `json:"page"`
	PageCount int `json:"pageCount"`
	PageSize  int `json:"pageSize"`
	Total     int `json:"total"`
}

func (p Page[T]) HasPrev() bool {
	return p.Page > 1
}

func (p Page[T]) HasNext() bool {
	return p.Page < p.PageCount
}

// PageCount is max(1, ceil(total/pageSize)).
func PageCount(total, pageSize int) int {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return max(1, (total+pageSize-1)/pageSize)
}

// ClampPage restricts page to [1, pageCount].
func ClampPage(page, pageCount int) int {
	return min(max(page, 1), max(pageCount, 1))
}

// Paginate returns the requested page of items, clamping the page number.
// A page size <= 0 uses DefaultPageSize.
func Paginate[T any](items []T, pageSize, page int) Page[T] {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	count := PageCount(len(items), pageSize)
	page = ClampPage(page, count)
	lo := min((page-1)*pageSize, len(items))
	hi := min(page*pageSize, len(items))
	return Page[T]{
		Items:     items[lo:hi:hi],
		Page:      page,
		PageCount: count,
		PageSize:  pageSize,
		Total:     len(items),
	}
}
