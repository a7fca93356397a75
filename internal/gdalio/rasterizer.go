package gdalio

import (
	"fmt"

	"github.com/airbusgeo/godal"
	"github.com/forest-guardian/global-mining-labels/internal/geo"
	"github.com/paulmach/orb"
)

// Rasterizer burns polygons with GDALRasterizeGeometries into an in-memory
// dataset carrying the image transform. Pixel centre semantics, no all-touched.
type Rasterizer struct{}

func (Rasterizer) Rasterize(polys []orb.Polygon, fp geo.Footprint, value uint8) ([]uint8, error) {
	w, h := fp.Shape.Width, fp.Shape.Height
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("invalid raster shape %s", fp.Shape)
	}
	ds, err := godal.Create(godal.Memory, "", 1, godal.Byte, w, h)
	if err != nil {
		return nil, fmt.Errorf("create memory raster: %w", err)
	}
	defer ds.Close()
	if err := ds.SetGeoTransform([6]float64(fp.Transform)); err != nil {
		return nil, fmt.Errorf("set geotransform: %w", err)
	}

	for i, p := range polys {
		g, err := toGeometry(p)
		if err != nil {
			return nil, fmt.Errorf("polygon %d: %w", i, err)
		}
		err = ds.RasterizeGeometry(g, godal.Values(float64(value)))
		g.Close()
		if err != nil {
			return nil, fmt.Errorf("rasterize polygon %d: %w", i, err)
		}
	}

	buf := make([]uint8, w*h)
	if err := ds.Bands()[0].Read(0, 0, buf, w, h); err != nil {
		return nil, fmt.Errorf("read rasterized band: %w", err)
	}
	return buf, nil
}
