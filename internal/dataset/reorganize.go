package dataset

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/forest-guardian/global-mining-labels/internal/logger"
	"github.com/forest-guardian/global-mining-labels/internal/metadata"
	"github.com/gocarina/gocsv"
	"go.uber.org/zap"
)

const (
	reorganizeTag = "reorganize: "
	MappingFile   = "filename_mapping.csv"
	DefaultSplit  = "train"
)

// Splits lists the split directories in the order they are written.
var Splits = []string{"train", "val", "test"}

var (
	siteDateSuffix = regexp.MustCompile(`_\d+_\d{8}$`)
	dateSuffix     = regexp.MustCompile(`_\d{8}$`)
	indexSuffix    = regexp.MustCompile(`_\d+$`)
)

// MappingRow records where one source image went.
type MappingRow struct {
	Split            string `csv:"split"`
	SiteNumber       string `csv:"site_number"`
	OriginalFilename string `csv:"original_filename"`
	NewFilename      string `csv:"new_filename"`
	FileIndex        int    `csv:"file_index"`
}

type splitRow struct {
	BaseSite string `csv:"base_site"`
	Split    string `csv:"split"`
}

type Config struct {
	ImageDir   string
	LabelDir   string
	RGBDir     string
	DatasetDir string
	// SplitTable maps lower-case base sites to train, val or test.
	SplitTable map[string]string
}

type Result struct {
	Rows      []MappingRow
	PerSplit  map[string]int
	Unmatched int
	Missing   []string
}

// LoadSplitTable reads the split column of a site summary CSV.
func LoadSplitTable(path string) (map[string]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open split table %s: %w", path, err)
	}
	defer file.Close()

	var rows []*splitRow
	if err := gocsv.UnmarshalFile(file, &rows); err != nil {
		return nil, fmt.Errorf("unmarshal split table %s: %w", path, err)
	}
	table := make(map[string]string, len(rows))
	for _, row := range rows {
		if split := strings.ToLower(strings.TrimSpace(row.Split)); split != "" {
			table[strings.ToLower(strings.TrimSpace(row.BaseSite))] = split
		}
	}
	return table, nil
}

// BuiltinSplitTable is the built-in site split table keyed for lookup.
func BuiltinSplitTable() map[string]string {
	table := make(map[string]string)
	for site, split := range metadata.Splits() {
		table[strings.ToLower(site)] = split
	}
	return table
}

func imageName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// BaseSite derives the base site of an image name such as
// mali_faleme_upper_1_20200524.
func BaseSite(name string) string {
	name = strings.TrimPrefix(name, "Landsat_Image_")
	base := siteDateSuffix.ReplaceAllString(name, "")
	if base == name {
		base = indexSuffix.ReplaceAllString(name, "")
	}
	return strings.ToLower(strings.TrimSpace(base))
}

// SiteNumber strips the acquisition date: mali_faleme_upper_1_20200524 -> mali_faleme_upper_1.
func SiteNumber(name string) string {
	return dateSuffix.ReplaceAllString(strings.TrimPrefix(name, "Landsat_Image_"), "")
}

// Reorganize copies images, labels and RGB renders into
// <split>/{images,labels,rgb}/<site number>/<%05d>, numbering each site's
// images in name order, and writes the filename mapping. Images of sites
// without a split go to train. A missing label or render is reported and
// the image is still copied.
func Reorganize(cfg Config) (Result, error) {
	entries, err := filepath.Glob(filepath.Join(cfg.ImageDir, "*.tif"))
	if err != nil {
		return Result{}, err
	}
	sort.Strings(entries)

	res := Result{PerSplit: map[string]int{}}
	bySplit := map[string]map[string][]string{}
	siteOrder := map[string][]string{}
	for _, split := range Splits {
		bySplit[split] = map[string][]string{}
		for _, kind := range []string{"images", "labels", "rgb"} {
			if err := os.MkdirAll(filepath.Join(cfg.DatasetDir, split, kind), 0o755); err != nil {
				return Result{}, fmt.Errorf("create dataset layout: %w", err)
			}
		}
	}

	for _, path := range entries {
		name := imageName(path)
		split, ok := cfg.SplitTable[BaseSite(name)]
		if !ok || bySplit[split] == nil {
			split = DefaultSplit
			res.Unmatched++
			logger.Warn(reorganizeTag+"site has no split, using default", zap.String("image", name), zap.String("split", split))
		}
		site := SiteNumber(name)
		if _, seen := bySplit[split][site]; !seen {
			siteOrder[split] = append(siteOrder[split], site)
		}
		bySplit[split][site] = append(bySplit[split][site], path)
		res.PerSplit[split]++
	}

	for _, split := range Splits {
		for _, site := range siteOrder[split] {
			for idx, path := range bySplit[split][site] {
				row, missing, err := placeImage(cfg, split, site, idx, path)
				if err != nil {
					return res, err
				}
				res.Missing = append(res.Missing, missing...)
				res.Rows = append(res.Rows, row)
			}
		}
	}

	mappingPath := filepath.Join(cfg.DatasetDir, MappingFile)
	file, err := os.Create(mappingPath)
	if err != nil {
		return res, fmt.Errorf("create %s: %w", mappingPath, err)
	}
	defer file.Close()
	if err := gocsv.MarshalFile(&res.Rows, file); err != nil {
		return res, fmt.Errorf("marshal %s: %w", mappingPath, err)
	}
	logger.Info(reorganizeTag+"dataset written",
		zap.String("dir", cfg.DatasetDir),
		zap.Int("images", len(res.Rows)),
		zap.Int("unmatched", res.Unmatched),
		zap.Int("missing", len(res.Missing)))
	return res, nil
}

func placeImage(cfg Config, split, site string, idx int, path string) (MappingRow, []string, error) {
	name := imageName(path)
	newName := fmt.Sprintf("%05d", idx)
	root := filepath.Join(cfg.DatasetDir, split)

	if err := copyFile(path, filepath.Join(root, "images", site, newName+".tif")); err != nil {
		return MappingRow{}, nil, err
	}
	var missing []string
	for _, c := range []struct{ src, dst string }{
		{filepath.Join(cfg.LabelDir, name+".png"), filepath.Join(root, "labels", site, newName+".png")},
		{filepath.Join(cfg.RGBDir, name+".png"), filepath.Join(root, "rgb", site, newName+".png")},
	} {
		err := copyFile(c.src, c.dst)
		if os.IsNotExist(err) {
			logger.Warn(reorganizeTag+"companion file not found", zap.String("path", c.src))
			missing = append(missing, c.src)
			continue
		}
		if err != nil {
			return MappingRow{}, nil, err
		}
	}
	return MappingRow{
		Split:            split,
		SiteNumber:       site,
		OriginalFilename: name,
		NewFilename:      newName,
		FileIndex:        idx,
	}, missing, nil
}

// copyFile keeps the source modification time, like a metadata-preserving copy.
func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	info, err := in.Stat()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("copy %s: %w", src, err)
	}
	if err := out.Close(); err != nil {
		return err
	}
	return os.Chtimes(dst, info.ModTime(), info.ModTime())
}
