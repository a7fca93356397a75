package gdalio

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/airbusgeo/godal"
	"github.com/forest-guardian/global-mining-labels/internal/geo"
	"github.com/forest-guardian/global-mining-labels/internal/labels"
	"github.com/forest-guardian/global-mining-labels/internal/logger"
	"github.com/paulmach/orb"
	"go.uber.org/zap"
)

var ErrOpenRaster = errors.New("cannot open source raster")

// Image is one opened multi-band source raster. It is not safe for
// concurrent use; every worker opens its own.
type Image struct {
	path      string
	ds        *godal.Dataset
	footprint geo.Footprint
}

func OpenImage(path string) (*Image, error) {
	ds, err := godal.Open(path, godal.RasterOnly(), godal.ErrLogger(func(ec godal.ErrorCategory, code int, msg string) error {
		if ec == godal.CE_Warning {
			logger.Debug("gdal warning", zap.String("path", path), zap.String("msg", msg))
			return nil
		}
		return errors.New(msg)
	}))
	if err != nil {
		return nil, fmt.Errorf("%w %s: %v", ErrOpenRaster, path, err)
	}
	fp, err := footprint(ds)
	if err != nil {
		ds.Close()
		return nil, fmt.Errorf("footprint of %s: %w", path, err)
	}
	return &Image{path: path, ds: ds, footprint: fp}, nil
}

func footprint(ds *godal.Dataset) (geo.Footprint, error) {
	gt, err := ds.GeoTransform()
	if err != nil {
		return geo.Footprint{}, fmt.Errorf("geotransform: %w", err)
	}
	bounds, err := ds.Bounds()
	if err != nil {
		return geo.Footprint{}, fmt.Errorf("bounds: %w", err)
	}
	st := ds.Structure()
	return geo.Footprint{
		Bounds:    orb.Bound{Min: orb.Point{bounds[0], bounds[1]}, Max: orb.Point{bounds[2], bounds[3]}},
		CRS:       crsIdentifier(ds.SpatialRef()),
		Transform: geo.Affine(gt),
		Shape:     geo.Shape{Height: st.SizeY, Width: st.SizeX},
	}, nil
}

// crsIdentifier prefers "EPSG:n", which both projectors understand, and falls
// back to the WKT of the dataset.
func crsIdentifier(sr *godal.SpatialRef) string {
	if sr == nil {
		return ""
	}
	defer sr.Close()
	if err := sr.AutoIdentifyEPSG(); err == nil && sr.AuthorityName("") == "EPSG" {
		if code := sr.AuthorityCode(""); code != "" {
			return "EPSG:" + code
		}
	}
	wkt, err := sr.WKT()
	if err != nil {
		return ""
	}
	return wkt
}

func (im *Image) Path() string {
	return im.path
}

func (im *Image) Footprint() geo.Footprint {
	return im.footprint
}

func (im *Image) BandCount() int {
	return im.ds.Structure().NBands
}

// ReadBand reads band n (1-based) as float64, row-major.
func (im *Image) ReadBand(n int) ([]float64, error) {
	bands := im.ds.Bands()
	if n < 1 || n > len(bands) {
		return nil, fmt.Errorf("%w: band %d of %d in %s", labels.ErrMissingBand, n, len(bands), im.path)
	}
	w, h := im.footprint.Shape.Width, im.footprint.Shape.Height
	buf := make([]float64, w*h)
	if err := bands[n-1].Read(0, 0, buf, w, h); err != nil {
		return nil, fmt.Errorf("read band %d of %s: %w", n, im.path, err)
	}
	return buf, nil
}

// CopyBands writes the first count bands to a GeoTIFF at dst, keeping the
// georeferencing and data type of the source.
func (im *Image) CopyBands(dst string, count int) error {
	if count > im.BandCount() {
		return fmt.Errorf("%w: need %d bands, %s has %d", labels.ErrMissingBand, count, im.path, im.BandCount())
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	switches := []string{"-of", "GTiff"}
	for b := 1; b <= count; b++ {
		switches = append(switches, "-b", strconv.Itoa(b))
	}
	out, err := im.ds.Translate(dst, switches)
	if err != nil {
		return fmt.Errorf("copy %d bands to %s: %w", count, dst, err)
	}
	return out.Close()
}

func (im *Image) Close() error {
	return im.ds.Close()
}
