package geo

import (
	"errors"
	"fmt"

	"github.com/paulmach/orb"
)

// Shape is a raster size in pixels.
type Shape struct {
	Height int
	Width  int
}

func (s Shape) Len() int {
	return s.Height * s.Width
}

func (s Shape) String() string {
	return fmt.Sprintf("%dx%d", s.Height, s.Width)
}

// Affine is a GDAL style geotransform:
//
//	x = t[0] + col*t[1] + row*t[2]
//	y = t[3] + col*t[4] + row*t[5]
type Affine [6]float64

func (a Affine) Apply(col, row float64) (x, y float64) {
	return a[0] + col*a[1] + row*a[2], a[3] + col*a[4] + row*a[5]
}

var ErrSingularTransform = errors.New("singular pixel transform")

// Invert returns the world -> pixel transform.
func (a Affine) Invert() (Affine, error) {
	det := a[1]*a[5] - a[2]*a[4]
	if det == 0 {
		return Affine{}, ErrSingularTransform
	}
	inv := Affine{}
	inv[1] = a[5] / det
	inv[2] = -a[2] / det
	inv[4] = -a[4] / det
	inv[5] = a[1] / det
	inv[0] = -(a[0]*inv[1] + a[3]*inv[2])
	inv[3] = -(a[0]*inv[4] + a[3]*inv[5])
	return inv, nil
}

// Footprint describes where an image sits in its CRS. It is derived from the
// raster once and never mutated.
type Footprint struct {
	Bounds    orb.Bound
	CRS       string
	Transform Affine
	Shape     Shape
}

// Box returns the footprint bounds as a closed polygon.
func (f Footprint) Box() orb.Polygon {
	return f.Bounds.ToPolygon()
}

// Same reports whether two footprints would rasterize identically.
func (f Footprint) Same(o Footprint) bool {
	return f.CRS == o.CRS && f.Transform == o.Transform && f.Shape == o.Shape
}

// FootprintFromTransform derives the bounds from a north-up or rotated transform.
func FootprintFromTransform(crs string, t Affine, shape Shape) Footprint {
	b := orb.Bound{Min: orb.Point{1, 1}, Max: orb.Point{-1, -1}}
	first := true
	for _, c := range [][2]float64{{0, 0}, {float64(shape.Width), 0}, {0, float64(shape.Height)}, {float64(shape.Width), float64(shape.Height)}} {
		x, y := t.Apply(c[0], c[1])
		if first {
			b = orb.Bound{Min: orb.Point{x, y}, Max: orb.Point{x, y}}
			first = false
			continue
		}
		b = b.Extend(orb.Point{x, y})
	}
	return Footprint{Bounds: b, CRS: crs, Transform: t, Shape: shape}
}
