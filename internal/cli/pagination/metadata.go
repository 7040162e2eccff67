package pagination

import "github.com/rshade/mapgrid/internal/grid"

// PaginationMeta contains metadata about a fetched grid page.
//
//nolint:revive // PaginationMeta is the canonical name for this exported type.
type PaginationMeta struct {
	CurrentPage int    `json:"current_page"`
	PageSize    int    `json:"page_size"`
	TotalPages  int    `json:"total_pages"`
	TotalItems  int    `json:"total_items"`
	HasPrevious bool   `json:"has_previous"`
	HasNext     bool   `json:"has_next"`
	Range       string `json:"range"`
}

// NewPaginationMeta describes the page last applied to s. The previous/next
// flags are the ones the server reported.
func NewPaginationMeta(s *grid.State) PaginationMeta {
	totalPages := 0
	if s.TotalCount() > 0 {
		totalPages = s.LastPage()
	}
	return PaginationMeta{
		CurrentPage: s.Page(),
		PageSize:    s.PerPage(),
		TotalPages:  totalPages,
		TotalItems:  s.TotalCount(),
		HasPrevious: s.HasPrevious(),
		HasNext:     s.HasNext(),
		Range:       s.RangeLabel(),
	}
}
