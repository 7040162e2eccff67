package grid

import (
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
)

// Pagination limits and query parameter names.
const (
	DefaultPage    = 1
	MinPerPage     = 1
	MaxPerPage     = 30
	DefaultPerPage = 10

	ParamPage    = "page"
	ParamPerPage = "per_page"
	ParamSort    = "sort"
	ParamQuery   = "q"

	// descendingPrefix marks a descending sort parameter ("-name").
	descendingPrefix = "-"
)

// Common validation errors.
var (
	ErrInvalidSortFormat = errors.New("invalid sort format: use 'field' or '-field'")
	ErrEmptySortField    = errors.New("sort field cannot be empty")
	ErrInvalidFilter     = errors.New("invalid filter: use 'field=value'")
)

// PageRequest is the fully derived request for one page of grid data.
type PageRequest struct {
	// Page is the 1-based page number.
	Page int `json:"page"`

	// PerPage is the page size, always within [MinPerPage, MaxPerPage].
	PerPage int `json:"per_page"`

	// Sort is the API sort parameter, "-" prefixed for descending. Empty means unsorted.
	Sort string `json:"sort,omitempty"`

	// Query is the trimmed free-text search term. Empty means no search.
	Query string `json:"q,omitempty"`

	// Filters maps a field to its selected values in selection order.
	Filters map[string][]string `json:"filters,omitempty"`
}

// ClampPerPage bounds n to [MinPerPage, MaxPerPage].
func ClampPerPage(n int) int {
	switch {
	case n < MinPerPage:
		return MinPerPage
	case n > MaxPerPage:
		return MaxPerPage
	default:
		return n
	}
}

// Values encodes the request as URL query parameters. Filter fields are emitted
// in name order and values in selection order so the encoding is deterministic.
func (r PageRequest) Values() url.Values {
	v := url.Values{}
	v.Set(ParamPage, strconv.Itoa(r.Page))
	v.Set(ParamPerPage, strconv.Itoa(ClampPerPage(r.PerPage)))

	if r.Sort != "" {
		v.Set(ParamSort, r.Sort)
	}
	if r.Query != "" {
		v.Set(ParamQuery, r.Query)
	}

	for _, field := range sortedKeys(r.Filters) {
		for _, value := range r.Filters[field] {
			v.Add(field, value)
		}
	}

	return v
}

// Encode returns the query string form of Values.
func (r PageRequest) Encode() string {
	return r.Values().Encode()
}

// ParseSortParam splits an API sort parameter into its column and direction.
// "name" is ascending, "-name" descending.
//
//nolint:nonamedreturns // Named returns improve readability for this multi-value function.
func ParseSortParam(param string) (column string, dir Direction, err error) {
	param = strings.TrimSpace(param)
	if param == "" {
		return "", Ascending, ErrEmptySortField
	}

	dir = Ascending
	if strings.HasPrefix(param, descendingPrefix) {
		dir = Descending
		param = strings.TrimPrefix(param, descendingPrefix)
	}

	if param == "" {
		return "", Ascending, ErrEmptySortField
	}
	if strings.HasPrefix(param, descendingPrefix) || strings.ContainsAny(param, " ,") {
		return "", Ascending, fmt.Errorf("%w: %q", ErrInvalidSortFormat, param)
	}

	return param, dir, nil
}

// ParseFilterExpr parses a "field=value" expression.
//
//nolint:nonamedreturns // Named returns improve readability for this multi-value function.
func ParseFilterExpr(expr string) (field, value string, err error) {
	field, value, ok := strings.Cut(expr, "=")
	field = strings.TrimSpace(field)
	value = strings.TrimSpace(value)
	if !ok || field == "" || value == "" {
		return "", "", fmt.Errorf("%w: %q", ErrInvalidFilter, expr)
	}
	return field, value, nil
}

func sortedKeys(m map[string][]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
