package delivery

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/forest-guardian/global-mining-labels/internal/geo"
	"github.com/forest-guardian/global-mining-labels/internal/labels"
	"github.com/forest-guardian/global-mining-labels/internal/output"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func touch(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, nil, 0o644))
}

func TestGenerateRGB(t *testing.T) {
	dir := t.TempDir()
	imageDir := filepath.Join(dir, "images")
	touch(t, filepath.Join(imageDir, "mali_faleme_upper_1_20200524.tif"))
	touch(t, filepath.Join(imageDir, "peru", "peru_rio_quimiri_downstream_1_20210101.tif"))
	touch(t, filepath.Join(imageDir, "notes.txt"))

	shape := geo.Shape{Height: 2, Width: 2}
	fp := geo.FootprintFromTransform("EPSG:4326", geo.Affine{0, 1, 0, 2, 0, -1}, shape)
	full := map[int][]float64{1: {0, 0, 0, 0}, 2: {500, 500, 500, 500}, 3: {2000, 2000, 2000, 2000}}
	noBlue := map[int][]float64{2: full[2], 3: full[3]}
	images := map[string]*fakeImage{
		"mali_faleme_upper_1_20200524.tif":           {fp: fp, bands: full},
		"peru_rio_quimiri_downstream_1_20210101.tif": {fp: fp, bands: noBlue},
	}
	open := func(path string) (Image, error) {
		im, ok := images[filepath.Base(path)]
		if !ok {
			return nil, fmt.Errorf("unexpected raster %s", path)
		}
		return im, nil
	}

	cfg := RGBConfig{
		ImageDir: imageDir,
		RGBDir:   filepath.Join(dir, "rgb"),
		Bands:    [3]int{3, 2, 1},
		Stretch:  output.Stretch{Max: 2000},
	}
	res, err := GenerateRGB(cfg, open)
	require.NoError(t, err)

	assert.Equal(t, 1, res.Written)
	require.Len(t, res.Failed, 1)
	for path, msg := range res.Failed {
		assert.Contains(t, path, "peru_rio_quimiri_downstream_1_20210101.tif")
		assert.Contains(t, msg, labels.ErrMissingBand.Error())
	}
	assert.FileExists(t, filepath.Join(dir, "rgb", "mali_faleme_upper_1_20200524.png"))
	assert.NoFileExists(t, filepath.Join(dir, "rgb", "peru_rio_quimiri_downstream_1_20210101.png"))
}

func TestGenerateRGBMissingDir(t *testing.T) {
	_, err := GenerateRGB(RGBConfig{ImageDir: filepath.Join(t.TempDir(), "nope")}, nil)
	assert.Error(t, err)
}
