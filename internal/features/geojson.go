package features

import (
	"fmt"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// FromGeoJSON converts a GeoJSON feature. Point geometries keep their
// coordinates; any other geometry is represented by the centre of its bound.
// Features without geometry are rejected.
func FromGeoJSON(gf *geojson.Feature) (Feature, error) {
	if gf == nil || gf.Geometry == nil {
		return Feature{}, fmt.Errorf("feature %v has no geometry", featureID(gf))
	}

	var pt orb.Point
	switch g := gf.Geometry.(type) {
	case orb.Point:
		pt = g
	default:
		pt = g.Bound().Center()
	}

	props := make(map[string]any, len(gf.Properties))
	for k, v := range gf.Properties {
		props[k] = v
	}

	return Feature{ID: featureID(gf), Coordinates: pt, Properties: props}, nil
}

// DecodeFeatureCollection parses a GeoJSON FeatureCollection document.
func DecodeFeatureCollection(data []byte) ([]Feature, error) {
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, fmt.Errorf("decoding feature collection: %w", err)
	}

	out := make([]Feature, 0, len(fc.Features))
	for _, gf := range fc.Features {
		f, convErr := FromGeoJSON(gf)
		if convErr != nil {
			return nil, convErr
		}
		out = append(out, f)
	}
	return out, nil
}

// ToFeatureCollection builds a GeoJSON FeatureCollection for fs with the
// padded bounding box attached as bbox.
func ToFeatureCollection(fs []Feature) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, f := range fs {
		gf := geojson.NewFeature(f.Coordinates)
		gf.ID = f.ID
		for k, v := range f.Properties {
			gf.Properties[k] = v
		}
		fc.Append(gf)
	}
	if len(fs) > 0 {
		fc.BBox = geojson.NewBBox(BoundsOf(fs).Bound())
	}
	return fc
}

func featureID(gf *geojson.Feature) string {
	if gf == nil || gf.ID == nil {
		return ""
	}
	return ValueKey(gf.ID)
}
