package gdalio

import (
	"fmt"

	"github.com/airbusgeo/godal"
	"github.com/forest-guardian/global-mining-labels/internal/geo"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/wkb"
)

// zero-distance buffering rebuilds self-intersecting rings into valid polygons
const (
	repairDistance = 0
	repairSegments = 8
)

// Clipper runs the intersection through OGR/GEOS and falls back to the
// buffer(0) repair of both operands when GEOS rejects the input.
type Clipper struct{}

type destroyable interface {
	Close()
}

func (Clipper) TryIntersect(p orb.Polygon, box orb.Bound) geo.Outcome {
	geom, err := toGeometry(p)
	if err != nil {
		return geo.Outcome{Kind: geo.Unrepairable, Err: err}
	}
	defer geom.Close()
	boxGeom, err := toGeometry(box.ToPolygon())
	if err != nil {
		return geo.Outcome{Kind: geo.Unrepairable, Err: err}
	}
	defer boxGeom.Close()

	polys, err := intersect(geom, boxGeom)
	if err == nil {
		return outcome(polys, false)
	}

	var gc []destroyable
	defer func() {
		for _, v := range gc {
			v.Close()
		}
	}()
	fixed, berr := geom.Buffer(repairDistance, repairSegments)
	if berr != nil {
		return geo.Outcome{Kind: geo.Unrepairable, Repaired: true, Err: fmt.Errorf("%v; buffer(0): %w", err, berr)}
	}
	gc = append(gc, fixed)
	fixedBox, berr := boxGeom.Buffer(repairDistance, repairSegments)
	if berr != nil {
		return geo.Outcome{Kind: geo.Unrepairable, Repaired: true, Err: fmt.Errorf("%v; buffer(0) of footprint: %w", err, berr)}
	}
	gc = append(gc, fixedBox)

	polys, err = intersect(fixed, fixedBox)
	if err != nil {
		return geo.Outcome{Kind: geo.Unrepairable, Repaired: true, Err: err}
	}
	return outcome(polys, true)
}

func outcome(polys []orb.Polygon, repaired bool) geo.Outcome {
	if len(polys) == 0 {
		return geo.Outcome{Kind: geo.Disjoint, Repaired: repaired}
	}
	return geo.Outcome{Kind: geo.Intersected, Polygons: polys, Repaired: repaired}
}

func intersect(a, b *godal.Geometry) ([]orb.Polygon, error) {
	hit, err := a.Intersects(b)
	if err != nil {
		return nil, fmt.Errorf("intersects: %w", err)
	}
	if !hit {
		return nil, nil
	}
	inter, err := a.Intersection(b)
	if err != nil {
		return nil, fmt.Errorf("intersection: %w", err)
	}
	defer inter.Close()
	if inter.Empty() {
		return nil, nil
	}
	return fromGeometry(inter)
}

func toGeometry(p orb.Polygon) (*godal.Geometry, error) {
	data, err := wkb.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("encode polygon: %w", err)
	}
	return godal.NewGeometryFromWKB(data, nil)
}

// fromGeometry keeps the areal parts of an OGR geometry. Touching footprints
// yield lines or points, which are not labels.
func fromGeometry(g *godal.Geometry) ([]orb.Polygon, error) {
	data, err := g.WKB()
	if err != nil {
		return nil, fmt.Errorf("export WKB: %w", err)
	}
	decoded, err := wkb.Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("decode WKB: %w", err)
	}
	return polygons(decoded), nil
}

func polygons(g orb.Geometry) []orb.Polygon {
	switch v := g.(type) {
	case orb.Polygon:
		if len(v) > 0 && len(v[0]) >= 4 {
			return []orb.Polygon{v}
		}
	case orb.MultiPolygon:
		var out []orb.Polygon
		for _, p := range v {
			out = append(out, polygons(p)...)
		}
		return out
	case orb.Collection:
		var out []orb.Polygon
		for _, sub := range v {
			out = append(out, polygons(sub)...)
		}
		return out
	}
	return nil
}
