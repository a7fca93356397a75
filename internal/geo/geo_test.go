package geo

import (
	"errors"
	"math"
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func square(x0, y0, x1, y1 float64) orb.Polygon {
	return orb.Polygon{{{x0, y0}, {x1, y0}, {x1, y1}, {x0, y1}, {x0, y0}}}
}

// 10x10 pixels of size 1, origin at (0, 10), north up.
func testFootprint() Footprint {
	return FootprintFromTransform("EPSG:3857", Affine{0, 1, 0, 10, 0, -1}, Shape{Height: 10, Width: 10})
}

func TestFootprintFromTransform(t *testing.T) {
	t.Parallel()

	fp := testFootprint()
	assert.Equal(t, orb.Bound{Min: orb.Point{0, 0}, Max: orb.Point{10, 10}}, fp.Bounds)
	assert.Equal(t, 100, fp.Shape.Len())

	inv, err := fp.Transform.Invert()
	require.NoError(t, err)
	c, r := inv.Apply(2.5, 7.5)
	assert.InDelta(t, 2.5, c, 1e-9)
	assert.InDelta(t, 2.5, r, 1e-9)

	_, err = Affine{}.Invert()
	assert.ErrorIs(t, err, ErrSingularTransform)
}

func TestBuiltinProjector(t *testing.T) {
	t.Parallel()

	var p BuiltinProjector

	fn, err := p.Build("EPSG:4326")
	require.NoError(t, err)
	x, y, err := fn(12.5, -3)
	require.NoError(t, err)
	assert.Equal(t, 12.5, x)
	assert.Equal(t, -3.0, y)

	fn, err = p.Build("epsg:3857")
	require.NoError(t, err)
	x, y, err = fn(180, 0)
	require.NoError(t, err)
	assert.InDelta(t, 20037508.34, x, 1e-3)
	assert.InDelta(t, 0, y, 1e-6)

	// Equator at the zone 31 central meridian and one zone edge.
	fn, err = p.Build("EPSG:32631")
	require.NoError(t, err)
	x, y, err = fn(3, 0)
	require.NoError(t, err)
	assert.InDelta(t, 500000, x, 1e-6)
	assert.InDelta(t, 0, y, 1e-6)
	x, _, err = fn(0, 0)
	require.NoError(t, err)
	assert.InDelta(t, 166021.44, x, 0.5)

	fn, err = p.Build("32731")
	require.NoError(t, err)
	_, y, err = fn(3, 0)
	require.NoError(t, err)
	assert.InDelta(t, 10000000, y, 1e-6)

	for _, crs := range []string{"EPSG:2154", "PROJCS[\"unknown\"]", "ESRI:102100", ""} {
		_, err := p.Build(crs)
		var ue *UnsupportedCRSError
		assert.True(t, errors.As(err, &ue), crs)
	}
}

func TestProjectRingPreservesOrderAndClosure(t *testing.T) {
	t.Parallel()

	shift := func(lon, lat float64) (float64, float64, error) { return lon + 100, lat * 2, nil }
	ring := orb.Ring{{1, 1}, {2, 1}, {2, 2}, {1, 1}}
	out, err := ProjectRing(ring, shift)
	require.NoError(t, err)
	assert.Equal(t, orb.Ring{{101, 2}, {102, 2}, {102, 4}, {101, 2}}, out)
	assert.Equal(t, orb.Point{1, 1}, ring[0], "input is not modified")

	failing := func(lon, lat float64) (float64, float64, error) { return 0, 0, ErrOutOfDomain }
	_, err = ProjectPolygon(orb.Polygon{ring}, failing)
	assert.ErrorIs(t, err, ErrOutOfDomain)
}

func TestPlanarClipper(t *testing.T) {
	t.Parallel()

	box := orb.Bound{Min: orb.Point{0, 0}, Max: orb.Point{10, 10}}
	var c PlanarClipper

	t.Run("partial overlap", func(t *testing.T) {
		out := c.TryIntersect(square(5, 5, 15, 15), box)
		require.Equal(t, Intersected, out.Kind)
		require.Len(t, out.Polygons, 1)
		assert.Equal(t, orb.Bound{Min: orb.Point{5, 5}, Max: orb.Point{10, 10}}, out.Polygons[0].Bound())
		assert.False(t, out.Repaired)
	})

	t.Run("disjoint", func(t *testing.T) {
		out := c.TryIntersect(square(20, 20, 30, 30), box)
		assert.Equal(t, Disjoint, out.Kind)
		assert.Empty(t, out.Polygons)
	})

	t.Run("touching edge is empty", func(t *testing.T) {
		out := c.TryIntersect(square(10, 0, 20, 10), box)
		assert.Equal(t, Disjoint, out.Kind)
	})

	t.Run("repairs non-finite vertex", func(t *testing.T) {
		p := orb.Polygon{{{1, 1}, {4, 1}, {math.NaN(), 2}, {4, 4}, {1, 4}, {1, 1}}}
		out := c.TryIntersect(p, box)
		require.Equal(t, Intersected, out.Kind)
		assert.True(t, out.Repaired)
	})

	t.Run("unrepairable", func(t *testing.T) {
		p := orb.Polygon{{{1, 1}, {math.Inf(1), 1}, {2, 2}, {1, 1}}}
		out := c.TryIntersect(p, box)
		assert.Equal(t, Unrepairable, out.Kind)
		assert.ErrorIs(t, out.Err, ErrDegenerateRing)
	})
}

func TestPlanarRasterizer(t *testing.T) {
	t.Parallel()

	fp := testFootprint()
	var r PlanarRasterizer

	// World (2,6)-(5,8) covers columns 2..4 and rows 2..3.
	buf, err := r.Rasterize([]orb.Polygon{square(2, 6, 5, 8)}, fp, 2)
	require.NoError(t, err)
	require.Len(t, buf, fp.Shape.Len())

	count := 0
	for i, v := range buf {
		if v == 0 {
			continue
		}
		count++
		assert.Equal(t, uint8(2), v)
		row, col := i/fp.Shape.Width, i%fp.Shape.Width
		assert.True(t, row >= 2 && row <= 3 && col >= 2 && col <= 4, "pixel %d,%d", row, col)
	}
	assert.Equal(t, 6, count)

	empty, err := r.Rasterize(nil, fp, 2)
	require.NoError(t, err)
	assert.Equal(t, make([]uint8, 100), empty)

	_, err = r.Rasterize(nil, Footprint{Transform: Affine{0, 1, 0, 0, 0, -1}}, 2)
	assert.Error(t, err)
}
