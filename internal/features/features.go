// Package features maintains the working set of geographic point features shown
// on a map, the multi-valued property filters applied to them, and the padded
// bounding box used to fit the viewport.
package features

import (
	"fmt"
	"maps"
	"slices"
	"sort"
	"strconv"

	"github.com/paulmach/orb"
)

// Feature is a geographic point entity. Coordinates are (lon, lat).
type Feature struct {
	ID          string         `json:"id"`
	Coordinates orb.Point      `json:"coordinates"`
	Properties  map[string]any `json:"properties"`
}

// Lon returns the longitude.
func (f Feature) Lon() float64 { return f.Coordinates.Lon() }

// Lat returns the latitude.
func (f Feature) Lat() float64 { return f.Coordinates.Lat() }

// Property returns the canonical string form of a property and whether it is present.
func (f Feature) Property(name string) (string, bool) {
	v, ok := f.Properties[name]
	if !ok {
		return "", false
	}
	return ValueKey(v), true
}

// ValueKey returns the canonical string form of a scalar property value used
// for filter comparisons. Numbers use the shortest decimal form ("3", "2.5").
func ValueKey(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		return fmt.Sprint(val)
	}
}

// FilterMap maps a property to its allowed values in insertion order.
type FilterMap map[string][]string

// Clone returns an independent copy.
func (m FilterMap) Clone() FilterMap {
	out := make(FilterMap, len(m))
	for k, v := range m {
		out[k] = slices.Clone(v)
	}
	return out
}

// Properties returns the filtered property names in sorted order.
func (m FilterMap) Properties() []string {
	keys := slices.Collect(maps.Keys(m))
	sort.Strings(keys)
	return keys
}

// Has reports whether value is selected for property.
func (m FilterMap) Has(property, value string) bool {
	return slices.Contains(m[property], value)
}

// Allows reports whether f passes every filter. A feature that lacks a
// filtered property, or carries it as null, is not constrained by it.
func (m FilterMap) Allows(f Feature) bool {
	for property, allowed := range m {
		raw, ok := f.Properties[property]
		if !ok || raw == nil {
			continue
		}
		if !slices.Contains(allowed, ValueKey(raw)) {
			return false
		}
	}
	return true
}

// FilterSet owns the feature working set and its property filters.
// It is not safe for concurrent mutation.
type FilterSet struct {
	features []Feature
	filters  FilterMap
}

// NewFilterSet returns an empty filter set.
func NewFilterSet() *FilterSet {
	return &FilterSet{filters: FilterMap{}}
}

// AddFeatures appends batch to the working set. Features are not
// deduplicated by ID; appending the same batch twice yields duplicates.
func (s *FilterSet) AddFeatures(batch []Feature) {
	s.features = append(s.features, batch...)
}

// Features returns the whole working set.
func (s *FilterSet) Features() []Feature {
	return slices.Clone(s.features)
}

// Len returns the size of the working set.
func (s *FilterSet) Len() int { return len(s.features) }

// Filters returns a copy of the active filters.
func (s *FilterSet) Filters() FilterMap { return s.filters.Clone() }

// AddFilter allows value for property. It reports whether the filters changed.
func (s *FilterSet) AddFilter(property, value string) bool {
	if property == "" || slices.Contains(s.filters[property], value) {
		return false
	}
	s.filters[property] = append(s.filters[property], value)
	return true
}

// RemoveFilter disallows value for property. When the last value of a property
// is removed the property entry is deleted, so the property no longer filters.
func (s *FilterSet) RemoveFilter(property, value string) bool {
	values := s.filters[property]
	i := slices.Index(values, value)
	if i < 0 {
		return false
	}

	values = slices.Delete(slices.Clone(values), i, i+1)
	if len(values) == 0 {
		delete(s.filters, property)
	} else {
		s.filters[property] = values
	}
	return true
}

// ToggleFilter adds value when absent and removes it when present.
func (s *FilterSet) ToggleFilter(property, value string) bool {
	if slices.Contains(s.filters[property], value) {
		return s.RemoveFilter(property, value)
	}
	return s.AddFilter(property, value)
}

// ClearFilters removes every filter.
func (s *FilterSet) ClearFilters() bool {
	if len(s.filters) == 0 {
		return false
	}
	s.filters = FilterMap{}
	return true
}

// Visible returns the features that pass the active filters, in working-set order.
func (s *FilterSet) Visible() []Feature {
	if len(s.filters) == 0 {
		return slices.Clone(s.features)
	}
	out := make([]Feature, 0, len(s.features))
	for _, f := range s.features {
		if s.filters.Allows(f) {
			out = append(out, f)
		}
	}
	return out
}

// VisibleBounds returns the padded bounding box of the visible features.
func (s *FilterSet) VisibleBounds() BoundingBox {
	return BoundsOf(s.Visible())
}

// Values returns the distinct values of property across the working set, sorted.
func (s *FilterSet) Values(property string) []string {
	seen := map[string]bool{}
	for _, f := range s.features {
		if v, ok := f.Property(property); ok && v != "" {
			seen[v] = true
		}
	}
	out := slices.Collect(maps.Keys(seen))
	sort.Strings(out)
	return out
}
