package features

import (
	"fmt"

	"github.com/paulmach/orb"
)

// BufferRatio is the fraction of the box width/height added on each side.
const BufferRatio = 0.1

// BoundingBox is a rectangular geographic extent.
type BoundingBox struct {
	MinLon float64 `json:"min_lon"`
	MinLat float64 `json:"min_lat"`
	MaxLon float64 `json:"max_lon"`
	MaxLat float64 `json:"max_lat"`
}

// IsZero reports whether b is the degenerate all-zero box.
func (b BoundingBox) IsZero() bool {
	return b == BoundingBox{}
}

// Width returns the longitudinal extent.
func (b BoundingBox) Width() float64 { return b.MaxLon - b.MinLon }

// Height returns the latitudinal extent.
func (b BoundingBox) Height() float64 { return b.MaxLat - b.MinLat }

// Center returns the centre point.
func (b BoundingBox) Center() orb.Point {
	return b.Bound().Center()
}

// Bound converts b to an orb.Bound.
func (b BoundingBox) Bound() orb.Bound {
	return orb.Bound{Min: orb.Point{b.MinLon, b.MinLat}, Max: orb.Point{b.MaxLon, b.MaxLat}}
}

// Slice returns [minLon, minLat, maxLon, maxLat], the GeoJSON bbox order.
func (b BoundingBox) Slice() []float64 {
	return []float64{b.MinLon, b.MinLat, b.MaxLon, b.MaxLat}
}

// String formats the box as "minLon,minLat,maxLon,maxLat".
func (b BoundingBox) String() string {
	return fmt.Sprintf("%.6f,%.6f,%.6f,%.6f", b.MinLon, b.MinLat, b.MaxLon, b.MaxLat)
}

// ComputeBoundingBox returns the smallest box enclosing points, expanded by
// BufferRatio of its width and height on each side. An empty input yields the
// all-zero box; a single point yields a zero-size box at that point.
func ComputeBoundingBox(points []orb.Point) BoundingBox {
	if len(points) == 0 {
		return BoundingBox{}
	}

	bound := orb.MultiPoint(points).Bound()
	dx := (bound.Max.Lon() - bound.Min.Lon()) * BufferRatio
	dy := (bound.Max.Lat() - bound.Min.Lat()) * BufferRatio

	return BoundingBox{
		MinLon: bound.Min.Lon() - dx,
		MinLat: bound.Min.Lat() - dy,
		MaxLon: bound.Max.Lon() + dx,
		MaxLat: bound.Max.Lat() + dy,
	}
}

// BoundsOf returns the padded bounding box over the coordinates of fs.
func BoundsOf(fs []Feature) BoundingBox {
	points := make([]orb.Point, len(fs))
	for i, f := range fs {
		points[i] = f.Coordinates
	}
	return ComputeBoundingBox(points)
}
