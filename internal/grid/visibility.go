package grid

import (
	"context"
	"maps"

	"github.com/rshade/mapgrid/internal/logging"
)

// Visibility maps a column name to whether it is displayed.
type Visibility map[string]bool

// IsVisible reports whether column is displayed. Unknown columns are hidden.
func (v Visibility) IsVisible(column string) bool {
	return v[column]
}

// Clone returns an independent copy.
func (v Visibility) Clone() Visibility {
	if v == nil {
		return Visibility{}
	}
	return maps.Clone(v)
}

// VisibilityStore persists column visibility keyed by grid identity.
type VisibilityStore interface {
	LoadVisibility(ctx context.Context, gridID string) (Visibility, error)
	SaveVisibility(ctx context.Context, gridID string, v Visibility) error
}

// MergeVisibility returns persisted with every configured column that it lacks
// set to visible. Entries for columns no longer configured are kept so a column
// that comes back keeps its previous setting.
func MergeVisibility(columns []string, persisted Visibility) Visibility {
	merged := persisted.Clone()
	for _, c := range columns {
		if _, ok := merged[c]; !ok {
			merged[c] = true
		}
	}
	return merged
}

// LoadVisibility reads the persisted visibility for gridID, merges the defaults
// for columns, writes the merged map back and returns it. A missing, unreadable
// or malformed persisted value falls back to all columns visible.
func LoadVisibility(ctx context.Context, store VisibilityStore, gridID string, columns []string) Visibility {
	log := logging.FromContext(ctx)

	if store == nil {
		return MergeVisibility(columns, nil)
	}

	persisted, err := store.LoadVisibility(ctx, gridID)
	if err != nil {
		log.Debug().Ctx(ctx).
			Str("component", "grid").
			Str("operation", "load_visibility").
			Str("grid_id", gridID).
			Err(err).
			Msg("using default column visibility")
		persisted = nil
	}

	merged := MergeVisibility(columns, persisted)
	if saveErr := store.SaveVisibility(ctx, gridID, merged); saveErr != nil {
		log.Warn().Ctx(ctx).
			Str("component", "grid").
			Str("operation", "load_visibility").
			Str("grid_id", gridID).
			Err(saveErr).
			Msg("failed to persist column visibility")
	}

	return merged
}

// ToggleColumnVisibility flips the display flag for column and persists the
// full map. It never changes the request, so no refetch is needed; the return
// value reports whether the projection changed.
func (s *State) ToggleColumnVisibility(ctx context.Context, column string) bool {
	if !s.caps.ColumnToggle {
		return false
	}
	if _, ok := s.visible[column]; !ok {
		return false
	}

	s.visible[column] = !s.visible[column]

	if s.store != nil {
		if err := s.store.SaveVisibility(ctx, s.id, s.visible.Clone()); err != nil {
			logging.FromContext(ctx).Warn().Ctx(ctx).
				Str("component", "grid").
				Str("operation", "toggle_column").
				Str("grid_id", s.id).
				Str("column", column).
				Err(err).
				Msg("failed to persist column visibility")
		}
	}

	return true
}
