package geo

import (
	"fmt"
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// Rasterizer burns polygons into a row-major buffer of fp.Shape. Pixels not
// covered keep the zero value.
type Rasterizer interface {
	Rasterize(polys []orb.Polygon, fp Footprint, value uint8) ([]uint8, error)
}

// PlanarRasterizer sets a pixel when its centre lies inside a polygon, the
// default GDAL rasterization rule.
type PlanarRasterizer struct{}

func (PlanarRasterizer) Rasterize(polys []orb.Polygon, fp Footprint, value uint8) ([]uint8, error) {
	if fp.Shape.Height <= 0 || fp.Shape.Width <= 0 {
		return nil, fmt.Errorf("invalid raster shape %s", fp.Shape)
	}
	inv, err := fp.Transform.Invert()
	if err != nil {
		return nil, err
	}
	out := make([]uint8, fp.Shape.Len())
	for _, p := range polys {
		if len(p) == 0 {
			continue
		}
		c0, r0, c1, r1 := pixelWindow(inv, p.Bound(), fp.Shape)
		for row := r0; row < r1; row++ {
			for col := c0; col < c1; col++ {
				x, y := fp.Transform.Apply(float64(col)+0.5, float64(row)+0.5)
				if planar.PolygonContains(p, orb.Point{x, y}) {
					out[row*fp.Shape.Width+col] = value
				}
			}
		}
	}
	return out, nil
}

// pixelWindow returns the half-open column/row range covering b, clamped to shape.
func pixelWindow(inv Affine, b orb.Bound, shape Shape) (c0, r0, c1, r1 int) {
	minC, minR := math.Inf(1), math.Inf(1)
	maxC, maxR := math.Inf(-1), math.Inf(-1)
	for _, pt := range []orb.Point{b.Min, b.Max, {b.Min[0], b.Max[1]}, {b.Max[0], b.Min[1]}} {
		c, r := inv.Apply(pt[0], pt[1])
		minC, maxC = math.Min(minC, c), math.Max(maxC, c)
		minR, maxR = math.Min(minR, r), math.Max(maxR, r)
	}
	c0 = clamp(int(math.Floor(minC)), 0, shape.Width)
	r0 = clamp(int(math.Floor(minR)), 0, shape.Height)
	c1 = clamp(int(math.Ceil(maxC))+1, 0, shape.Width)
	r1 = clamp(int(math.Ceil(maxR))+1, 0, shape.Height)
	return
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
