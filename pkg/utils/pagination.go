package utils

// Pagination bounds for list endpoints.
const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// PaginationParams holds clamped pagination request parameters
type PaginationParams struct {
	Page  int
	Limit int
}

// GetPaginationParams clamps page and limit to sane bounds
func GetPaginationParams(page, limit int) PaginationParams {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > MaxPageSize {
		limit = DefaultPageSize
	}
	return PaginationParams{Page: page, Limit: limit}
}

// CalculateOffset returns the SQL offset
func (p PaginationParams) CalculateOffset() int {
	return (p.Page - 1) * p.Limit
}

// PaginationMeta holds pagination response metadata
type PaginationMeta struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	TotalCount int64 `json:"totalCount"`
	TotalPages int64 `json:"totalPages"`
}

// CalculateMeta builds response metadata for a paginated listing
func CalculateMeta(totalCount int64, page, limit int) PaginationMeta {
	if limit < 1 {
		limit = DefaultPageSize
	}
	return PaginationMeta{
		Page:       page,
		Limit:      limit,
		TotalCount: totalCount,
		TotalPages: (totalCount + int64(limit) - 1) / int64(limit),
	}
}
