package geo

import (
	"fmt"
	"math"

	"github.com/paulmach/orb"
)

// TransformFunc maps a geographic (lon, lat) position into a target CRS.
type TransformFunc func(lon, lat float64) (x, y float64, err error)

// Projector builds forward transforms from the annotation CRS (EPSG:4326,
// lon/lat axis order) into an image CRS.
type Projector interface {
	Build(targetCRS string) (TransformFunc, error)
}

type UnsupportedCRSError struct {
	CRS string
	Err error
}

func (e *UnsupportedCRSError) Error() string {
	crs := e.CRS
	if len(crs) > 64 {
		crs = crs[:64] + "..."
	}
	if e.Err != nil {
		return fmt.Sprintf("unsupported target CRS %q: %v", crs, e.Err)
	}
	return fmt.Sprintf("unsupported target CRS %q", crs)
}

func (e *UnsupportedCRSError) Unwrap() error { return e.Err }

// ProjectRing applies fn to every vertex. Order is preserved and a closed
// input ring stays closed.
func ProjectRing(ring orb.Ring, fn TransformFunc) (orb.Ring, error) {
	out := make(orb.Ring, len(ring))
	for i, p := range ring {
		x, y, err := fn(p.Lon(), p.Lat())
		if err != nil {
			return nil, fmt.Errorf("vertex %d (%f, %f): %w", i, p.Lon(), p.Lat(), err)
		}
		out[i] = orb.Point{x, y}
	}
	if len(ring) > 1 && ring[0] == ring[len(ring)-1] {
		out[len(out)-1] = out[0]
	}
	return out, nil
}

func ProjectPolygon(p orb.Polygon, fn TransformFunc) (orb.Polygon, error) {
	out := make(orb.Polygon, len(p))
	for i, r := range p {
		pr, err := ProjectRing(r, fn)
		if err != nil {
			return nil, err
		}
		out[i] = pr
	}
	return out, nil
}

func finite(p orb.Point) bool {
	return !math.IsNaN(p[0]) && !math.IsNaN(p[1]) && !math.IsInf(p[0], 0) && !math.IsInf(p[1], 0)
}
