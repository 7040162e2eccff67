package pagination

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rshade/mapgrid/internal/grid"
)

// Flag names and sort orders.
const (
	FlagPage    = "page"
	FlagPerPage = "per-page"
	FlagSort    = "sort"

	SortOrderAsc  = "asc"
	SortOrderDesc = "desc"
)

// Common validation errors.
var (
	ErrInvalidPage       = errors.New("page must be >= 1")
	ErrInvalidPerPage    = fmt.Errorf("per-page must be between %d and %d", grid.MinPerPage, grid.MaxPerPage)
	ErrInvalidSortFormat = errors.New("invalid sort format: use 'field', '-field' or 'field:order' (e.g., 'name:desc')")
	ErrInvalidSortOrder  = errors.New("sort order must be 'asc' or 'desc'")
	ErrSortNotAllowed    = errors.New("sort key not offered by this grid")
)

// Params holds the paging flags of a grid command.
type Params struct {
	// Page is the 1-based page to fetch.
	Page int

	// PerPage overrides the grid's configured page size. Zero keeps it.
	PerPage int

	// Sort is the raw sort flag. Empty leaves the grid unsorted.
	Sort string
}

// NewParams returns Params on page 1 with the configured page size.
func NewParams() *Params {
	return &Params{Page: grid.DefaultPage}
}

// AddFlags registers --page, --per-page and --sort on cmd.
func (p *Params) AddFlags(cmd *cobra.Command) {
	cmd.Flags().IntVar(&p.Page, FlagPage, grid.DefaultPage, "1-based page number")
	cmd.Flags().IntVar(&p.PerPage, FlagPerPage, 0,
		fmt.Sprintf("rows per page, %d-%d (0 = grid default)", grid.MinPerPage, grid.MaxPerPage))
	cmd.Flags().StringVar(&p.Sort, FlagSort, "", "sort key: 'name', '-name' or 'name:desc'")
}

// Validate checks the flag values (value receiver).
func (p Params) Validate() error {
	if p.Page < grid.DefaultPage {
		return fmt.Errorf("%w, got %d", ErrInvalidPage, p.Page)
	}
	if p.PerPage != 0 && (p.PerPage < grid.MinPerPage || p.PerPage > grid.MaxPerPage) {
		return fmt.Errorf("%w, got %d", ErrInvalidPerPage, p.PerPage)
	}
	if p.Sort != "" {
		if _, _, err := ParseSort(p.Sort); err != nil {
			return err
		}
	}
	return nil
}

// sortPartsMax is the maximum number of parts in a sort string (field:order).
const sortPartsMax = 2

// ParseSort parses "field", "-field", "field:asc" or "field:desc".
//
//nolint:nonamedreturns // Named returns improve readability for this multi-value function.
func ParseSort(sortStr string) (field string, dir grid.Direction, err error) {
	if !strings.Contains(sortStr, ":") {
		return grid.ParseSortParam(sortStr)
	}

	parts := strings.Split(sortStr, ":")
	if len(parts) != sortPartsMax {
		return "", grid.Ascending, fmt.Errorf("%w: %q", ErrInvalidSortFormat, sortStr)
	}

	field = strings.TrimSpace(parts[0])
	if field == "" {
		return "", grid.Ascending, grid.ErrEmptySortField
	}
	if strings.HasPrefix(field, "-") {
		return "", grid.Ascending, fmt.Errorf("%w: %q", ErrInvalidSortFormat, sortStr)
	}

	switch strings.ToLower(strings.TrimSpace(parts[1])) {
	case SortOrderAsc:
		return field, grid.Ascending, nil
	case SortOrderDesc:
		return field, grid.Descending, nil
	default:
		return "", grid.Ascending, fmt.Errorf("%w: got %q", ErrInvalidSortOrder, parts[1])
	}
}

// Apply copies the page and page size into opts.
func (p Params) Apply(opts *grid.Options) {
	opts.Page = p.Page
	if p.PerPage > 0 {
		opts.PerPage = p.PerPage
	}
}

// ApplySort sets the requested sort on s. The key must be one of the grid's
// sort options.
func (p Params) ApplySort(s *grid.State) error {
	if p.Sort == "" {
		return nil
	}
	field, dir, err := ParseSort(p.Sort)
	if err != nil {
		return err
	}
	if !s.SetSort(field, dir) {
		return fmt.Errorf("%w: %q", ErrSortNotAllowed, field)
	}
	return nil
}
