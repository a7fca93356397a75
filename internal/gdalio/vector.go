package gdalio

import (
	"fmt"

	"github.com/airbusgeo/godal"
	"github.com/forest-guardian/global-mining-labels/internal/annotation"
	"github.com/forest-guardian/global-mining-labels/internal/logger"
	"go.uber.org/zap"
)

var nameFields = []string{"name", "Name", "NAME", "site_no"}

// LoadAnnotations reads polygon annotations from any OGR vector source
// (shapefile, GeoPackage, KML via libkml, ...), reprojected to EPSG:4326.
func LoadAnnotations(path string) ([]annotation.Geometry, error) {
	ds, err := godal.Open(path, godal.VectorOnly())
	if err != nil {
		return nil, &annotation.ParseError{Source: path, Reason: "cannot open vector source", Err: err}
	}
	defer ds.Close()

	wgs84, err := godal.NewSpatialRefFromEPSG(annotationEPSG)
	if err != nil {
		return nil, err
	}
	defer wgs84.Close()

	var out []annotation.Geometry
	for _, layer := range ds.Layers() {
		for {
			feat := layer.NextFeature()
			if feat == nil {
				break
			}
			gs, err := featureGeometries(path, feat, wgs84)
			feat.Close()
			if err != nil {
				return nil, err
			}
			out = append(out, gs...)
		}
	}
	logger.Info("gdal vector: loaded annotations", zap.String("path", path), zap.Int("geometries", len(out)))
	return out, nil
}

func featureGeometries(path string, feat *godal.Feature, wgs84 *godal.SpatialRef) ([]annotation.Geometry, error) {
	name := featureName(feat)
	if name == "" {
		return nil, nil
	}
	g := feat.Geometry()
	if g == nil || g.Empty() {
		return nil, &annotation.ParseError{Source: path, Name: name, Reason: "feature has no geometry"}
	}
	defer g.Close()
	if err := g.Reproject(wgs84); err != nil {
		return nil, &annotation.ParseError{Source: path, Name: name, Reason: "reproject to EPSG:4326", Err: err}
	}
	polys, err := fromGeometry(g)
	if err != nil {
		return nil, &annotation.ParseError{Source: path, Name: name, Reason: "decode geometry", Err: err}
	}
	if len(polys) == 0 {
		return nil, &annotation.ParseError{Source: path, Name: name, Reason: fmt.Sprintf("geometry is not a polygon (type %v)", g.Type())}
	}
	gs := make([]annotation.Geometry, 0, len(polys))
	for _, p := range polys {
		ag, err := annotation.NewGeometry(path, name, p[0])
		if err != nil {
			return nil, err
		}
		gs = append(gs, ag)
	}
	return gs, nil
}

func featureName(feat *godal.Feature) string {
	fields := feat.Fields()
	for _, key := range nameFields {
		if f, ok := fields[key]; ok {
			if s := f.String(); s != "" {
				return s
			}
		}
	}
	return ""
}
