package dataset

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/gocarina/gocsv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func readMapping(t *testing.T, path string) []*MappingRow {
	t.Helper()
	file, err := os.Open(path)
	require.NoError(t, err)
	defer file.Close()
	var rows []*MappingRow
	require.NoError(t, gocsv.UnmarshalFile(file, &rows))
	return rows
}

func TestBaseSiteAndSiteNumber(t *testing.T) {
	cases := []struct {
		name, base, site string
	}{
		{"mali_faleme_upper_1_20200524", "mali_faleme_upper", "mali_faleme_upper_1"},
		{"Landsat_Image_mali_faleme_upper_12_20191103", "mali_faleme_upper", "mali_faleme_upper_12"},
		{"Nigeria_Ijesa_agm_region_TSTM_3", "nigeria_ijesa_agm_region_tstm", "Nigeria_Ijesa_agm_region_TSTM_3"},
		{"plainsite", "plainsite", "plainsite"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			assert.Equal(t, c.base, BaseSite(c.name))
			assert.Equal(t, c.site, SiteNumber(c.name))
		})
	}
}

func TestReorganize(t *testing.T) {
	dir := t.TempDir()
	cfg := Config{
		ImageDir:   filepath.Join(dir, "images"),
		LabelDir:   filepath.Join(dir, "labels"),
		RGBDir:     filepath.Join(dir, "rgb"),
		DatasetDir: filepath.Join(dir, "dataset"),
		SplitTable: map[string]string{
			"mali_faleme_upper":            "train",
			"mongolia_gatsuurt_agm_region": "test",
		},
	}
	for _, name := range []string{
		"mali_faleme_upper_1_20200524",
		"mali_faleme_upper_1_20190101",
		"mali_faleme_upper_2_20200524",
		"mongolia_gatsuurt_agm_region_1_20210707",
		"atlantis_1_20200101",
	} {
		writeFile(t, filepath.Join(cfg.ImageDir, name+".tif"), "tif:"+name)
		writeFile(t, filepath.Join(cfg.RGBDir, name+".png"), "rgb:"+name)
		if name != "mali_faleme_upper_2_20200524" {
			writeFile(t, filepath.Join(cfg.LabelDir, name+".png"), "label:"+name)
		}
	}
	writeFile(t, filepath.Join(cfg.ImageDir, "readme.txt"), "ignored")

	res, err := Reorganize(cfg)
	require.NoError(t, err)

	assert.Equal(t, map[string]int{"train": 4, "test": 1}, res.PerSplit)
	assert.Equal(t, 1, res.Unmatched)
	assert.Equal(t, []string{filepath.Join(cfg.LabelDir, "mali_faleme_upper_2_20200524.png")}, res.Missing)

	for _, split := range Splits {
		for _, kind := range []string{"images", "labels", "rgb"} {
			assert.DirExists(t, filepath.Join(cfg.DatasetDir, split, kind))
		}
	}

	site1 := filepath.Join(cfg.DatasetDir, "train", "images", "mali_faleme_upper_1")
	data, err := os.ReadFile(filepath.Join(site1, "00000.tif"))
	require.NoError(t, err)
	assert.Equal(t, "tif:mali_faleme_upper_1_20190101", string(data))
	data, err = os.ReadFile(filepath.Join(site1, "00001.tif"))
	require.NoError(t, err)
	assert.Equal(t, "tif:mali_faleme_upper_1_20200524", string(data))

	data, err = os.ReadFile(filepath.Join(cfg.DatasetDir, "train", "labels", "mali_faleme_upper_1", "00001.png"))
	require.NoError(t, err)
	assert.Equal(t, "label:mali_faleme_upper_1_20200524", string(data))
	assert.FileExists(t, filepath.Join(cfg.DatasetDir, "train", "rgb", "mali_faleme_upper_2", "00000.png"))
	assert.NoFileExists(t, filepath.Join(cfg.DatasetDir, "train", "labels", "mali_faleme_upper_2", "00000.png"))
	assert.FileExists(t, filepath.Join(cfg.DatasetDir, "train", "images", "atlantis_1", "00000.tif"))
	assert.FileExists(t, filepath.Join(cfg.DatasetDir, "test", "images", "mongolia_gatsuurt_agm_region_1", "00000.tif"))

	rows := readMapping(t, filepath.Join(cfg.DatasetDir, MappingFile))
	require.Len(t, rows, 5)
	assert.Equal(t, MappingRow{
		Split:            "train",
		SiteNumber:       "mali_faleme_upper_1",
		OriginalFilename: "mali_faleme_upper_1_20200524",
		NewFilename:      "00001",
		FileIndex:        1,
	}, *rows[2])
	assert.Equal(t, "test", rows[4].Split)
}

func TestReorganizeEmptyImageDir(t *testing.T) {
	dir := t.TempDir()
	res, err := Reorganize(Config{ImageDir: filepath.Join(dir, "none"), DatasetDir: filepath.Join(dir, "dataset")})
	require.NoError(t, err)
	assert.Empty(t, res.Rows)
	assert.FileExists(t, filepath.Join(dir, "dataset", MappingFile))
}

func TestLoadSplitTable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "base_site_counts.csv")
	writeFile(t, path, "base_site,image_count,split\nMali_Faleme_Upper,3,Val\nperu_site,2,\n")

	table, err := LoadSplitTable(path)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"mali_faleme_upper": "val"}, table)

	_, err = LoadSplitTable(filepath.Join(t.TempDir(), "absent.csv"))
	assert.Error(t, err)
}

func TestBuiltinSplitTable(t *testing.T) {
	table := BuiltinSplitTable()
	assert.Equal(t, "train", table["mali_faleme_upper"])
	assert.Equal(t, "test", table["venezuela_yapacana_south_agm_region_tstm"])
}
