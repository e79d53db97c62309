package model

// PageRequest selects a zero-based page of a listing.
type PageRequest struct {
	Page int
	Size int
}

// Normalize clamps negative pages and falls back to def when size is not positive.
func (r PageRequest) Normalize(def, max int) PageRequest {
	if r.Page < 0 {
		r.Page = 0
	}
	if r.Size <= 0 {
		r.Size = def
	}
	if max > 0 && r.Size > max {
		r.Size = max
	}
	return r
}

// Offset returns the number of rows to skip.
func (r PageRequest) Offset() int {
	return r.Page * r.Size
}

// Page is one slice of a listing plus totals.
type Page[T any] struct {
	Items         []T
	Page          int
	Size          int
	TotalElements int64
}

// NewPage builds a page for the given request.
func NewPage[T any](items []T, req PageRequest, total int64) Page[T] {
	if items == nil {
		items = []T{}
	}
	return Page[T]{Items: items, Page: req.Page, Size: req.Size, TotalElements: total}
}

// TotalPages returns the number of pages for the current size.
func (p Page[T]) TotalPages() int {
	if p.Size <= 0 {
		return 0
	}
	return int((p.TotalElements + int64(p.Size) - 1) / int64(p.Size))
}
