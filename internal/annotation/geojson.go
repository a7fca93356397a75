package annotation

import (
	"fmt"
	"io"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

var nameProperties = []string{"name", "Name", "site_no"}

// LoadGeoJSON reads a FeatureCollection of Polygon / MultiPolygon features.
// The feature name comes from the first of the "name", "Name" or "site_no"
// properties; unnamed features are skipped like unnamed KML Placemarks.
func LoadGeoJSON(r io.Reader, source string) ([]Geometry, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, &ParseError{Source: source, Reason: "read failed", Err: err}
	}
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, &ParseError{Source: source, Reason: "malformed GeoJSON", Err: err}
	}

	var out []Geometry
	for _, f := range fc.Features {
		name := featureName(f)
		if name == "" {
			continue
		}
		var rings []orb.Ring
		switch g := f.Geometry.(type) {
		case orb.Polygon:
			if len(g) > 0 {
				rings = append(rings, g[0])
			}
		case orb.MultiPolygon:
			for _, p := range g {
				if len(p) > 0 {
					rings = append(rings, p[0])
				}
			}
		default:
			return nil, &ParseError{Source: source, Name: name, Reason: fmt.Sprintf("unsupported geometry type %T", f.Geometry)}
		}
		if len(rings) == 0 {
			return nil, &ParseError{Source: source, Name: name, Reason: "empty polygon"}
		}
		for _, ring := range rings {
			g, err := NewGeometry(source, name, ring)
			if err != nil {
				return nil, err
			}
			out = append(out, g)
		}
	}
	return out, nil
}

func featureName(f *geojson.Feature) string {
	for _, key := range nameProperties {
		if v := f.Properties.MustString(key, ""); v != "" {
			return v
		}
	}
	return ""
}
