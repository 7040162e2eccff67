package grid

// Direction is the order of an active sort.
type Direction int

const (
	Ascending Direction = iota
	Descending
)

// String returns "asc" or "desc".
func (d Direction) String() string {
	if d == Descending {
		return "desc"
	}
	return "asc"
}

// SortState is the active sort target. A nil *SortState means unsorted.
type SortState struct {
	Column    string    `json:"column"`
	Direction Direction `json:"direction"`
}

// Param returns the API sort parameter: "column" or "-column".
func (s *SortState) Param() string {
	if s == nil || s.Column == "" {
		return ""
	}
	if s.Direction == Descending {
		return descendingPrefix + s.Column
	}
	return s.Column
}

// next applies the two-state sort cycle for column. Selecting a new column
// starts ascending; toggling the current column flips its direction. Once a
// column is sorted the grid never returns to unsorted.
func (s *SortState) next(column string) *SortState {
	if s == nil || s.Column != column {
		return &SortState{Column: column, Direction: Ascending}
	}
	if s.Direction == Ascending {
		return &SortState{Column: column, Direction: Descending}
	}
	return &SortState{Column: column, Direction: Ascending}
}
