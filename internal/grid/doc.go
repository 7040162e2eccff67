// Package grid implements the state machine behind a paginated, sortable,
// filterable and searchable data grid bound to a REST collection endpoint.
//
// The package contains:
//   - State: pagination cursor, sort, filters, search query and column visibility
//   - PageRequest: the deterministic request derived from State
//   - PageResult: a decoded page envelope merged back into State
//   - Visibility: per-column display flags persisted by grid identity
//
// State is owned by a single event loop and is not safe for concurrent mutation.
// Fetches are issued with a Token; results carrying an outdated token are rejected
// so a slow earlier response never overwrites a later one.
package grid
