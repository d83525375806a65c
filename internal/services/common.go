package services

import "errors"

// ErrValidation is the generic validation error services wrap with
// detail text. Handlers map it to a 400.
var ErrValidation = errors.New("validation error")

const (
	defaultPage     = 1
	defaultPageSize = 20
	maxPageSize     = 100
)

// normalizePagination clamps page and pageSize to sane bounds.
func normalizePagination(page, pageSize int) (int, int) {
	if page < 1 {
		page = defaultPage
	}
	if pageSize < 1 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	return page, pageSize
}
