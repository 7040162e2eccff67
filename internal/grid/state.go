package grid

import (
	"errors"
	"math"
	"slices"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// ErrStaleResult is reported when a result arrives for a superseded request.
var ErrStaleResult = errors.New("result belongs to a superseded request")

// printer formats counts with thousand separators.
//
//nolint:gochecknoglobals // Global printer is idiomatic for x/text/message usage.
var printer = message.NewPrinter(language.English)

// Status is the load state of the grid data.
type Status int

const (
	// StatusIdle means no fetch has been issued yet.
	StatusIdle Status = iota
	// StatusLoading means a fetch is in flight.
	StatusLoading
	// StatusLoaded means the last fetch returned at least one row.
	StatusLoaded
	// StatusEmpty means the last fetch succeeded with no rows. Not an error.
	StatusEmpty
	// StatusFailed means the last fetch failed; Err holds the cause.
	StatusFailed
)

// String returns a lowercase name for the status.
func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusLoading:
		return "loading"
	case StatusLoaded:
		return "loaded"
	case StatusEmpty:
		return "empty"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Capabilities switches individual grid interactions on or off.
type Capabilities struct {
	Sortable     bool `json:"sortable"      yaml:"sortable"`
	Filterable   bool `json:"filterable"    yaml:"filterable"`
	Searchable   bool `json:"searchable"    yaml:"searchable"`
	ColumnToggle bool `json:"column_toggle" yaml:"column_toggle"`
}

// AllCapabilities enables every interaction.
func AllCapabilities() Capabilities {
	return Capabilities{Sortable: true, Filterable: true, Searchable: true, ColumnToggle: true}
}

// Token identifies one issued fetch.
type Token uint64

// PageResult is one decoded page of grid data.
type PageResult struct {
	Items       []Row `json:"items"`
	TotalCount  int   `json:"total_count"`
	HasPrevious bool  `json:"has_previous"`
	HasNext     bool  `json:"has_next"`
}

// Options configures a new State.
type Options struct {
	// ID is the stable grid identity used for persisted settings.
	ID string

	// Columns lists the configured columns in display order.
	Columns []string

	// Page is the initial 1-based page. Values below 1 start on page 1.
	Page int

	// PerPage is the requested page size; clamped to [MinPerPage, MaxPerPage].
	PerPage int

	// SortKeys restricts ToggleSort to these API sort keys. Empty allows any.
	SortKeys []string

	// Query seeds the search term when the grid is searchable.
	Query string

	// DefaultFilters seeds the filter selections.
	DefaultFilters map[string][]string

	// Capabilities enables interactions. The zero value disables them all.
	Capabilities Capabilities

	// Visibility is the initial column visibility, usually from LoadVisibility.
	Visibility Visibility

	// Store persists visibility changes. Nil disables persistence.
	Store VisibilityStore
}

// State holds everything needed to derive the next grid request and the
// data reconciled from the last one.
type State struct {
	id      string
	columns []string
	caps    Capabilities
	sortKey map[string]bool
	store   VisibilityStore

	page    int
	perPage int
	sort    *SortState
	query   string
	filters map[string][]string
	visible Visibility

	rows        []Row
	totalCount  int
	hasNext     bool
	hasPrevious bool
	status      Status
	err         error

	issued Token
}

// New creates an unsorted State on opts.Page with the seeded query and filters.
func New(opts Options) *State {
	s := &State{
		id:      opts.ID,
		columns: slices.Clone(opts.Columns),
		caps:    opts.Capabilities,
		store:   opts.Store,
		page:    max(opts.Page, DefaultPage),
		perPage: ClampPerPage(opts.PerPage),
		filters: make(map[string][]string),
		status:  StatusIdle,
	}

	if s.caps.Searchable {
		s.query = strings.TrimSpace(opts.Query)
	}

	if len(opts.SortKeys) > 0 {
		s.sortKey = make(map[string]bool, len(opts.SortKeys))
		for _, k := range opts.SortKeys {
			s.sortKey[k] = true
		}
	}

	for field, values := range opts.DefaultFilters {
		for _, v := range values {
			if !slices.Contains(s.filters[field], v) {
				s.filters[field] = append(s.filters[field], v)
			}
		}
	}

	s.visible = MergeVisibility(opts.Columns, opts.Visibility)
	return s
}

// ID returns the grid identity.
func (s *State) ID() string { return s.id }

// Columns returns the configured columns in display order.
func (s *State) Columns() []string { return slices.Clone(s.columns) }

// Capabilities returns the enabled interactions.
func (s *State) Capabilities() Capabilities { return s.caps }

// Page returns the current 1-based page.
func (s *State) Page() int { return s.page }

// PerPage returns the effective page size.
func (s *State) PerPage() int { return s.perPage }

// Sort returns a copy of the active sort, or nil when unsorted.
func (s *State) Sort() *SortState {
	if s.sort == nil {
		return nil
	}
	cp := *s.sort
	return &cp
}

// Query returns the active search term.
func (s *State) Query() string { return s.query }

// Filters returns a copy of the active filter selections.
func (s *State) Filters() map[string][]string { return cloneFilters(s.filters) }

// Selected reports whether value is selected for field.
func (s *State) Selected(field, value string) bool {
	return slices.Contains(s.filters[field], value)
}

// Rows returns the rows of the last applied result.
func (s *State) Rows() []Row { return s.rows }

// TotalCount returns the total row count reported by the last result.
func (s *State) TotalCount() int { return s.totalCount }

// HasNext reports whether a next page exists.
func (s *State) HasNext() bool { return s.hasNext }

// HasPrevious reports whether a previous page exists.
func (s *State) HasPrevious() bool { return s.hasPrevious }

// Status returns the load status.
func (s *State) Status() Status { return s.status }

// Err returns the cause of the last failed load.
func (s *State) Err() error { return s.err }

// LastPage returns ceil(totalCount/perPage), never less than 1.
func (s *State) LastPage() int {
	if s.totalCount <= 0 {
		return DefaultPage
	}
	return int(math.Ceil(float64(s.totalCount) / float64(s.perPage)))
}

// SetPage moves to page n. Out-of-range pages are ignored.
func (s *State) SetPage(n int) bool {
	if n < DefaultPage || n > s.LastPage() || n == s.page {
		return false
	}
	s.page = n
	return true
}

// NextPage advances one page when the last result reported a next page and
// the current page is before LastPage.
func (s *State) NextPage() bool {
	if !s.hasNext || s.page >= s.LastPage() {
		return false
	}
	s.page++
	return true
}

// PrevPage goes back one page when the last result reported a previous page.
func (s *State) PrevPage() bool {
	if !s.hasPrevious || s.page <= DefaultPage {
		return false
	}
	s.page--
	return true
}

// FirstPage jumps to page 1.
func (s *State) FirstPage() bool {
	if s.page == DefaultPage {
		return false
	}
	s.page = DefaultPage
	return true
}

// LastPageJump jumps to the last page derived from the latest total count.
func (s *State) LastPageJump() bool {
	last := s.LastPage()
	if s.page == last {
		return false
	}
	s.page = last
	return true
}

// SetSearch sets the trimmed free-text query and returns to page 1.
// An empty or blank text clears the query.
func (s *State) SetSearch(text string) bool {
	if !s.caps.Searchable {
		return false
	}
	query := strings.TrimSpace(text)
	if query == s.query && s.page == DefaultPage {
		return false
	}
	s.query = query
	s.page = DefaultPage
	return true
}

// ToggleFilterValue selects value for field when absent and deselects it when
// present, then returns to page 1. A field whose selection becomes empty is
// removed, which is the same as not filtering on it.
func (s *State) ToggleFilterValue(field, value string) bool {
	if !s.caps.Filterable || field == "" {
		return false
	}

	values := s.filters[field]
	if i := slices.Index(values, value); i >= 0 {
		values = slices.Delete(slices.Clone(values), i, i+1)
	} else {
		values = append(slices.Clone(values), value)
	}

	if len(values) == 0 {
		delete(s.filters, field)
	} else {
		s.filters[field] = values
	}
	s.page = DefaultPage
	return true
}

// ClearFilters empties every field filter and returns to page 1.
// The free-text search query is preserved; use SetSearch("") to clear it.
func (s *State) ClearFilters() bool {
	if !s.caps.Filterable {
		return false
	}
	if len(s.filters) == 0 && s.page == DefaultPage {
		return false
	}
	s.filters = make(map[string][]string)
	s.page = DefaultPage
	return true
}

// ToggleSort advances the sort cycle for column: a new column sorts ascending,
// the current column alternates ascending and descending.
func (s *State) ToggleSort(column string) bool {
	if !s.caps.Sortable || column == "" {
		return false
	}
	if s.sortKey != nil && !s.sortKey[column] {
		return false
	}
	s.sort = s.sort.next(column)
	return true
}

// SetSort sorts by column in dir directly, bypassing the toggle cycle.
func (s *State) SetSort(column string, dir Direction) bool {
	if !s.caps.Sortable || column == "" {
		return false
	}
	if s.sortKey != nil && !s.sortKey[column] {
		return false
	}
	next := &SortState{Column: column, Direction: dir}
	if s.sort != nil && *s.sort == *next {
		return false
	}
	s.sort = next
	return true
}

// BuildRequest derives the request for the current state. It does not mutate
// the state, so repeated calls return equal requests.
func (s *State) BuildRequest() PageRequest {
	return PageRequest{
		Page:    s.page,
		PerPage: s.perPage,
		Sort:    s.sort.Param(),
		Query:   s.query,
		Filters: cloneFilters(s.filters),
	}
}

// Begin marks a fetch for the current request as in flight and returns its token.
// Any earlier token becomes stale. Next and previous navigation stay disabled
// until a result is applied.
func (s *State) Begin() Token {
	s.issued++
	s.status = StatusLoading
	s.err = nil
	s.hasNext = false
	s.hasPrevious = false
	return s.issued
}

// Current returns the token of the most recently issued fetch.
func (s *State) Current() Token { return s.issued }

// Apply merges result if tok belongs to the latest fetch. It reports whether
// the result was applied.
func (s *State) Apply(tok Token, result PageResult) bool {
	if tok != s.issued {
		return false
	}
	s.ApplyResult(result)
	return true
}

// Fail records err as the outcome of the fetch identified by tok.
func (s *State) Fail(tok Token, err error) bool {
	if tok != s.issued {
		return false
	}
	if err == nil {
		err = errors.New("load failed")
	}
	s.status = StatusFailed
	s.err = err
	return true
}

// ApplyResult merges a result into the data fields without token checks.
func (s *State) ApplyResult(result PageResult) {
	s.rows = result.Items
	s.totalCount = max(result.TotalCount, 0)
	s.hasNext = result.HasNext
	s.hasPrevious = result.HasPrevious
	s.err = nil

	if len(result.Items) == 0 {
		s.status = StatusEmpty
	} else {
		s.status = StatusLoaded
	}
}

// DisplayRange returns the 1-based range of rows shown on the current page.
// from and to are zero when there is no data.
//
//nolint:nonamedreturns // Named returns improve readability for this multi-value function.
func (s *State) DisplayRange() (from, to, total int) {
	total = s.totalCount
	if total <= 0 {
		return 0, 0, 0
	}
	from = (s.page-1)*s.perPage + 1
	to = min(total, from+s.perPage-1)
	return from, to, total
}

// RangeLabel renders DisplayRange as "Showing 21 - 25 of 25".
func (s *State) RangeLabel() string {
	from, to, total := s.DisplayRange()
	return printer.Sprintf("Showing %d - %d of %d", from, to, total)
}

// VisibleColumns returns the configured columns currently shown.
func (s *State) VisibleColumns() []string {
	cols := make([]string, 0, len(s.columns))
	for _, c := range s.columns {
		if s.visible.IsVisible(c) {
			cols = append(cols, c)
		}
	}
	return cols
}

// IsColumnVisible reports whether column is shown.
func (s *State) IsColumnVisible(column string) bool {
	return s.visible.IsVisible(column)
}

// Visibility returns a copy of the column visibility map.
func (s *State) Visibility() Visibility { return s.visible.Clone() }

// Project returns the display text of the visible columns of row. A column is
// matched by name first and otherwise by its configured position, so display
// labels such as "Object ID" line up with API keys such as "object_id".
func (s *State) Project(row Row) []string {
	out := make([]string, 0, len(s.columns))
	for i, c := range s.columns {
		if !s.visible.IsVisible(c) {
			continue
		}
		if v, ok := row.Get(c); ok {
			out = append(out, FormatValue(v))
			continue
		}
		out = append(out, row.TextAt(i))
	}
	return out
}

func cloneFilters(in map[string][]string) map[string][]string {
	out := make(map[string][]string, len(in))
	for k, v := range in {
		out[k] = slices.Clone(v)
	}
	return out
}
