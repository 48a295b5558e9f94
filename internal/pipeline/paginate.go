package pipeline

// Page describes the window applied by Paginate.
type Page struct {
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
	Total  int `json:"total"`
}

// Paginate returns items[offset:offset+limit] clamped to the bounds of items.
// A nil limit returns items unchanged and a nil Page. Offsets past the end
// yield an empty slice.
func Paginate[T any](items []T, limit *int, offset int) ([]T, *Page) {
	if limit == nil {
		return items, nil
	}
	page := &Page{Limit: *limit, Offset: offset, Total: len(items)}

	start := offset
	if start < 0 {
		start = 0
	}
	if start > len(items) {
		start = len(items)
	}
	end := start
	if *limit > 0 {
		if *limit > len(items)-start {
			end = len(items)
		} else {
			end = start + *limit
		}
	}
	return items[start:end], page
}
