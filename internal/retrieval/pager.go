package retrieval

// DefaultPageSize is used when a caller passes no page size.
const DefaultPageSize = 10

// Page is one slice of a result list plus its navigation cursors. The pager
// keeps no state; callers own the page index.
type Page[T any] struct {
	Items      []T  `json:"items"`
	Index      int  `json:"index"`
	Size       int  `json:"size"`
	Total      int  `json:"total"`
	TotalPages int  `json:"totalPages"`
	HasNext    bool `json:"hasNext"`
	HasPrev    bool `json:"hasPrev"`
}

// Paginate returns page index of items, clamping index into
// [0, TotalPages-1]. Concatenating every page yields items in order.
func Paginate[T any](items []T, index, size int) Page[T] {
	if size <= 0 {
		size = DefaultPageSize
	}
	total := len(items)
	totalPages := (total + size - 1) / size

	if index >= totalPages {
		index = totalPages - 1
	}
	if index < 0 {
		index = 0
	}

	start := index * size
	end := start + size
	if end > total {
		end = total
	}

	page := Page[T]{
		Items:      []T{},
		Index:      index,
		Size:       size,
		Total:      total,
		TotalPages: totalPages,
		HasNext:    index < totalPages-1,
		HasPrev:    index > 0,
	}
	if start < end {
		page.Items = items[start:end]
	}
	return page
}
