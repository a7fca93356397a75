package delivery

import (
	"fmt"

	"github.com/forest-guardian/global-mining-labels/internal/gdalio"
	"github.com/forest-guardian/global-mining-labels/internal/geo"
)

const (
	EngineGEOS   = "geos"
	EnginePlanar = "planar"
)

// Engine bundles the geometry collaborators of the resolver and cache.
type Engine struct {
	Name       string
	Projector  geo.Projector
	Clipper    geo.Clipper
	Rasterizer geo.Rasterizer

	close func()
}

// NewEngine selects GDAL/GEOS ("geos") or the pure-Go implementations ("planar").
func NewEngine(name string) (*Engine, error) {
	switch name {
	case EngineGEOS:
		p := gdalio.NewProjector()
		return &Engine{
			Name:       name,
			Projector:  p,
			Clipper:    gdalio.Clipper{},
			Rasterizer: gdalio.Rasterizer{},
			close:      p.Close,
		}, nil
	case EnginePlanar:
		return &Engine{
			Name:       name,
			Projector:  geo.BuiltinProjector{},
			Clipper:    geo.PlanarClipper{},
			Rasterizer: geo.PlanarRasterizer{},
		}, nil
	default:
		return nil, fmt.Errorf("unknown geometry engine %q (want %s or %s)", name, EngineGEOS, EnginePlanar)
	}
}

func (e *Engine) Close() {
	if e.close != nil {
		e.close()
	}
}

// OpenGDALImage opens a source raster with GDAL.
func OpenGDALImage(path string) (Image, error) {
	im, err := gdalio.OpenImage(path)
	if err != nil {
		return nil, err
	}
	return im, nil
}
