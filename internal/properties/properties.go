package properties

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/forest-guardian/global-mining-labels/internal/logger"
	"go.uber.org/zap"
)

func RootPath() string {
	return os.Getenv("ROOT_PATH")
}

// Path resolves a path relative to ROOT_PATH. Absolute paths are returned as is.
func Path(p string) string {
	if filepath.IsAbs(p) || RootPath() == "" {
		return p
	}
	return filepath.Join(RootPath(), p)
}

func AnnotationPath() string {
	return Path(stringEnv("ANNOTATION_PATH", "metadata/global_mining_extents_detailed.kml"))
}

func MetadataPath() string {
	return Path(stringEnv("METADATA_PATH", "metadata/image_file_metadata.csv"))
}

func SourceImageDir() string {
	return Path(stringEnv("SOURCE_IMAGE_DIR", "mining_ndvi_timeseries"))
}

func OutputImageDir() string {
	return Path(stringEnv("OUTPUT_IMAGE_DIR", "data/images"))
}

func OutputLabelDir() string {
	return Path(stringEnv("OUTPUT_LABEL_DIR", "data/labels"))
}

func OutputRGBDir() string {
	return Path(stringEnv("OUTPUT_RGB_DIR", "data/rgb"))
}

// DatasetDir is the root of the train/val/test layout built by reorganize.
func DatasetDir() string {
	return Path(stringEnv("DATASET_DIR", "dataset"))
}

// RGBMaxReflectance is the reflectance mapped to full brightness in RGB renders.
func RGBMaxReflectance() float64 {
	return floatEnv("RGB_MAX_REFLECTANCE", 2000)
}

func NDVIThreshold() float64 {
	return floatEnv("NDVI_THRESHOLD", 0.5)
}

// Band numbers are 1-based, as GDAL and the source rasters count them.
func NIRBand() int   { return intEnv("NIR_BAND", 4) }
func RedBand() int   { return intEnv("RED_BAND", 3) }
func CloudBand() int { return intEnv("CLOUD_BAND", 8) }

// RGBBands are the bands rendered as red, green and blue.
func RGBBands() [3]int {
	return [3]int{intEnv("RGB_RED_BAND", 3), intEnv("RGB_GREEN_BAND", 2), intEnv("RGB_BLUE_BAND", 1)}
}

func CopyBandCount() int {
	return intEnv("COPY_BAND_COUNT", 7)
}

func Workers() int {
	n := intEnv("WORKERS", 1)
	if n < 1 {
		return 1
	}
	return n
}

// GeometryEngine is "geos" (GDAL/GEOS backed) or "planar" (pure Go).
func GeometryEngine() string {
	return strings.ToLower(stringEnv("GEOMETRY_ENGINE", "geos"))
}

func LabelPreview() bool {
	v, err := strconv.ParseBool(strings.TrimSpace(os.Getenv("LABEL_PREVIEW")))
	return err == nil && v
}

func DiscordErrorNotificationUrl() string {
	return os.Getenv("DISCORD_ERROR_NOTIFICATION_URL")
}

func DiscordSuccessNotificationUrl() string {
	return os.Getenv("DISCORD_SUCCESS_NOTIFICATION_URL")
}

type Color struct {
	R, G, B uint8
}

// ColorMap holds preview colours per label code.
var ColorMap = map[uint8]Color{
	0: {68, 1, 84},
	1: {33, 145, 140},
	2: {253, 231, 37},
}

func stringEnv(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func intEnv(key string, def int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		logger.Warn("properties: invalid integer, using default", zap.String("key", key), zap.String("value", raw), zap.Int("default", def))
		return def
	}
	return v
}

func floatEnv(key string, def float64) float64 {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		logger.Warn("properties: invalid number, using default", zap.String("key", key), zap.String("value", raw), zap.Float64("default", def))
		return def
	}
	return v
}
