package main

import (
	"github.com/forest-guardian/global-mining-labels/internal/annotation"
	"github.com/forest-guardian/global-mining-labels/internal/gdalio"
	"github.com/forest-guardian/global-mining-labels/internal/logger"
	"go.uber.org/zap"
)

// loadStore reads the annotation source. KML and GeoJSON are parsed natively;
// anything else goes through OGR.
func loadStore(path string) (*annotation.Store, error) {
	var (
		geometries []annotation.Geometry
		err        error
	)
	if annotation.IsNativeFormat(path) {
		geometries, err = annotation.Load(path)
	} else {
		geometries, err = gdalio.LoadAnnotations(path)
	}
	if err != nil {
		return nil, err
	}
	logger.Info("annotations loaded", zap.String("path", path), zap.Int("geometries", len(geometries)))
	return annotation.NewStore(geometries), nil
}
