package annotation

import (
	"os"
	"path/filepath"
	"strings"
)

// Load parses an annotation file, choosing the reader from its extension.
func Load(path string) ([]Geometry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &ParseError{Source: path, Reason: "cannot open annotation source", Err: err}
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".kml":
		return LoadKML(f, path)
	case ".geojson", ".json":
		return LoadGeoJSON(f, path)
	default:
		return nil, &ParseError{Source: path, Reason: "unsupported annotation format " + filepath.Ext(path)}
	}
}

// IsNativeFormat reports whether Load can read the file without GDAL.
func IsNativeFormat(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".kml", ".geojson", ".json":
		return true
	}
	return false
}
