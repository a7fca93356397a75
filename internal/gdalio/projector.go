package gdalio

import (
	"errors"
	"sync"

	"github.com/airbusgeo/godal"
	"github.com/forest-guardian/global-mining-labels/internal/geo"
	"github.com/forest-guardian/global-mining-labels/internal/logger"
	"go.uber.org/zap"
)

const annotationEPSG = 4326

// Projector builds OGR coordinate transforms from EPSG:4326 and keeps one per
// target CRS for reuse. OGR transforms are not safe for concurrent use, so
// each one is guarded by its own lock.
type Projector struct {
	mu         sync.Mutex
	transforms map[string]*lockedTransform
	logTag     string
}

type lockedTransform struct {
	mu sync.Mutex
	tr *godal.Transform
}

func NewProjector() *Projector {
	return &Projector{
		transforms: map[string]*lockedTransform{},
		logTag:     "gdal projector: ",
	}
}

// Build accepts anything OSRSetFromUserInput understands: WKT, "EPSG:n", PROJ strings.
func (p *Projector) Build(targetCRS string) (geo.TransformFunc, error) {
	lt, err := p.transform(targetCRS)
	if err != nil {
		return nil, err
	}
	return func(lon, lat float64) (float64, float64, error) {
		xs, ys := []float64{lon}, []float64{lat}
		ok := []bool{false}
		lt.mu.Lock()
		err := lt.tr.TransformEx(xs, ys, nil, ok)
		lt.mu.Unlock()
		if err != nil {
			return 0, 0, err
		}
		if !ok[0] {
			return 0, 0, geo.ErrOutOfDomain
		}
		return xs[0], ys[0], nil
	}, nil
}

func (p *Projector) transform(targetCRS string) (*lockedTransform, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if lt, ok := p.transforms[targetCRS]; ok {
		return lt, nil
	}
	if targetCRS == "" {
		return nil, &geo.UnsupportedCRSError{CRS: targetCRS, Err: errors.New("image has no CRS")}
	}

	src, err := godal.NewSpatialRefFromEPSG(annotationEPSG)
	if err != nil {
		return nil, &geo.UnsupportedCRSError{CRS: "EPSG:4326", Err: err}
	}
	defer src.Close()
	dst, err := godal.NewSpatialRef(targetCRS)
	if err != nil {
		logger.Error(p.logTag+"target CRS not understood", zap.String("crs", targetCRS), zap.Error(err))
		return nil, &geo.UnsupportedCRSError{CRS: targetCRS, Err: err}
	}
	defer dst.Close()

	tr, err := godal.NewTransform(src, dst)
	if err != nil {
		return nil, &geo.UnsupportedCRSError{CRS: targetCRS, Err: err}
	}
	lt := &lockedTransform{tr: tr}
	p.transforms[targetCRS] = lt
	return lt, nil
}

func (p *Projector) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	for k, lt := range p.transforms {
		lt.tr.Close()
		delete(p.transforms, k)
	}
}
