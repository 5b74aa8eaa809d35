package model

// Page is one slice of a paginated listing.  TotalPages is ceil(Total/limit).
type Page[T any] struct {
	Data       []T   `json:"data"`
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	TotalPages int   `json:"totalPages"`
}

// NewPage builds a Page, computing TotalPages from total and limit.  Data is
// never nil so it always encodes as a JSON array.
func NewPage[T any](data []T, total int64, page, limit int) Page[T] {
	if data == nil {
		data = []T{}
	}
	pages := 0
	if limit > 0 {
		pages = int((total + int64(limit) - 1) / int64(limit))
	}
	return Page[T]{Data: data, Total: total, Page: page, TotalPages: pages}
}
