package delivery

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"github.com/forest-guardian/global-mining-labels/internal/logger"
	"github.com/forest-guardian/global-mining-labels/internal/output"
	"github.com/forest-guardian/global-mining-labels/internal/properties"
	"github.com/schollz/progressbar/v3"
	"go.uber.org/zap"
)

const rgbTag = "rgb: "

type RGBConfig struct {
	ImageDir string
	RGBDir   string
	// Bands are 1-based red, green, blue band numbers.
	Bands    [3]int
	Stretch  output.Stretch
	Progress bool
}

func RGBConfigFromProperties() RGBConfig {
	return RGBConfig{
		ImageDir: properties.OutputImageDir(),
		RGBDir:   properties.OutputRGBDir(),
		Bands:    properties.RGBBands(),
		Stretch:  output.Stretch{Min: 0, Max: properties.RGBMaxReflectance()},
		Progress: true,
	}
}

type RGBResult struct {
	Written int
	// Failed maps image paths to the error that stopped them.
	Failed map[string]string
}

// GenerateRGB renders every GeoTIFF under cfg.ImageDir, recursively, as a
// PNG of the same base name in cfg.RGBDir. Images that fail are reported and
// skipped.
func GenerateRGB(cfg RGBConfig, open Opener) (RGBResult, error) {
	paths, err := listRasters(cfg.ImageDir)
	if err != nil {
		return RGBResult{}, err
	}
	logger.Info(rgbTag+"rendering images", zap.String("dir", cfg.ImageDir), zap.Int("images", len(paths)))

	res := RGBResult{Failed: map[string]string{}}
	bar := progressbar.DefaultSilent(int64(len(paths)))
	if cfg.Progress {
		bar = progressbar.Default(int64(len(paths)), "Rendering RGB")
	}
	for _, path := range paths {
		if err := renderRGB(cfg, open, path); err != nil {
			logger.Error(rgbTag+"image failed", zap.String("image", path), zap.Error(err))
			res.Failed[path] = err.Error()
		} else {
			res.Written++
		}
		bar.Add(1)
	}
	bar.Finish()
	return res, nil
}

func renderRGB(cfg RGBConfig, open Opener, path string) error {
	im, err := open(path)
	if err != nil {
		return err
	}
	defer im.Close()

	var bands [3][]float64
	for i, n := range cfg.Bands {
		if bands[i], err = im.ReadBand(n); err != nil {
			return err
		}
	}
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)) + ".png"
	return output.WriteRGB(filepath.Join(cfg.RGBDir, name), bands[0], bands[1], bands[2], im.Footprint().Shape, cfg.Stretch)
}

// listRasters returns the sorted .tif/.tiff files under dir.
func listRasters(dir string) ([]string, error) {
	var paths []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		switch strings.ToLower(filepath.Ext(path)) {
		case ".tif", ".tiff":
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list images in %s: %w", dir, err)
	}
	sort.Strings(paths)
	return paths, nil
}
