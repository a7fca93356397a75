package geo

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

const (
	degToRad = math.Pi / 180

	mercatorXR = 20037508.34 / 180
	mercatorYR = mercatorXR / degToRad
	mercatorTR = degToRad / 2

	wgs84A   = 6378137.0
	wgs84F   = 1 / 298.257223563
	utmK0    = 0.9996
	utmEast  = 500000.0
	utmNorth = 10000000.0
)

var ErrOutOfDomain = errors.New("position outside projection domain")

// BuiltinProjector covers the CRSs mining tiles ship in without GDAL:
// EPSG:4326, EPSG:3857 and the WGS84 UTM zones (EPSG:326xx / 327xx).
type BuiltinProjector struct{}

func (BuiltinProjector) Build(targetCRS string) (TransformFunc, error) {
	code, err := ParseEPSG(targetCRS)
	if err != nil {
		return nil, &UnsupportedCRSError{CRS: targetCRS, Err: err}
	}
	switch {
	case code == 4326:
		return func(lon, lat float64) (float64, float64, error) { return lon, lat, nil }, nil
	case code == 3857 || code == 900913:
		return webMercator, nil
	case code > 32600 && code <= 32660:
		return utm(code-32600, false), nil
	case code > 32700 && code <= 32760:
		return utm(code-32700, true), nil
	}
	return nil, &UnsupportedCRSError{CRS: targetCRS}
}

// ParseEPSG accepts "EPSG:32631", "epsg:4326" or a bare code.
func ParseEPSG(crs string) (int, error) {
	s := strings.TrimSpace(crs)
	if i := strings.LastIndex(s, ":"); i >= 0 {
		if !strings.EqualFold(s[:i], "EPSG") {
			return 0, fmt.Errorf("not an EPSG identifier")
		}
		s = s[i+1:]
	}
	code, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("not an EPSG identifier")
	}
	return code, nil
}

func webMercator(lon, lat float64) (float64, float64, error) {
	if lat <= -90 || lat >= 90 {
		return 0, 0, ErrOutOfDomain
	}
	return lon * mercatorXR, math.Log(math.Tan((90+lat)*mercatorTR)) * mercatorYR, nil
}

// utm is the Snyder transverse mercator series on the WGS84 ellipsoid.
func utm(zone int, south bool) TransformFunc {
	e2 := wgs84F * (2 - wgs84F)
	e4 := e2 * e2
	e6 := e4 * e2
	ep2 := e2 / (1 - e2)
	lon0 := float64(zone*6-183) * degToRad

	m := func(phi float64) float64 {
		return wgs84A * ((1-e2/4-3*e4/64-5*e6/256)*phi -
			(3*e2/8+3*e4/32+45*e6/1024)*math.Sin(2*phi) +
			(15*e4/256+45*e6/1024)*math.Sin(4*phi) -
			(35*e6/3072)*math.Sin(6*phi))
	}

	return func(lon, lat float64) (float64, float64, error) {
		if lat < -80.5 || lat > 84.5 {
			return 0, 0, ErrOutOfDomain
		}
		phi := lat * degToRad
		sin, cos := math.Sincos(phi)
		tan := math.Tan(phi)

		n := wgs84A / math.Sqrt(1-e2*sin*sin)
		t := tan * tan
		c := ep2 * cos * cos
		a := (lon*degToRad - lon0) * cos

		x := utmK0*n*(a+(1-t+c)*math.Pow(a, 3)/6+
			(5-18*t+t*t+72*c-58*ep2)*math.Pow(a, 5)/120) + utmEast
		y := utmK0 * (m(phi) + n*tan*(a*a/2+
			(5-t+9*c+4*c*c)*math.Pow(a, 4)/24+
			(61-58*t+t*t+600*c-330*ep2)*math.Pow(a, 6)/720))
		if south {
			y += utmNorth
		}
		return x, y, nil
	}
}
