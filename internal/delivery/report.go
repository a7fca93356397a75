package delivery

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gocarina/gocsv"
)

const (
	StatusOK     = "ok"
	StatusFailed = "failed"
)

// ReportRow is one line of labels_report.csv.
type ReportRow struct {
	ImageID      string `csv:"image_id"`
	SiteNo       string `csv:"site_no"`
	BaseSite     string `csv:"base_site"`
	Status       string `csv:"status"`
	LabelPath    string `csv:"label_path"`
	FromCache    bool   `csv:"from_cache"`
	Polygons     int    `csv:"polygons"`
	Skipped      int    `csv:"skipped_polygons"`
	MiningPixels int    `csv:"mining_pixels"`
	CloudPixels  int    `csv:"cloud_pixels"`
	Error        string `csv:"error"`
}

func writeCSV(path string, rows interface{}) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create directory for %s: %w", path, err)
	}
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer file.Close()

	if err := gocsv.MarshalFile(rows, file); err != nil {
		return fmt.Errorf("marshal %s: %w", path, err)
	}
	return nil
}

// ReadReport loads a report written by a previous run.
func ReadReport(path string) ([]*ReportRow, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var rows []*ReportRow
	if err := gocsv.UnmarshalFile(file, &rows); err != nil {
		return nil, fmt.Errorf("unmarshal %s: %w", path, err)
	}
	return rows, nil
}

// MergeReport replaces rows of previous by the rows of current with the same
// image id, keeping the previous order. Rows for images not in previous are
// appended.
func MergeReport(previous, current []*ReportRow) []*ReportRow {
	byImage := make(map[string]*ReportRow, len(current))
	for _, row := range current {
		byImage[row.ImageID] = row
	}
	merged := make([]*ReportRow, 0, len(previous)+len(current))
	for _, row := range previous {
		if updated, ok := byImage[row.ImageID]; ok {
			merged = append(merged, updated)
			delete(byImage, row.ImageID)
			continue
		}
		merged = append(merged, row)
	}
	for _, row := range current {
		if _, ok := byImage[row.ImageID]; ok {
			merged = append(merged, row)
		}
	}
	return merged
}
