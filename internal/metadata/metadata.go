package metadata

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/forest-guardian/global-mining-labels/internal/annotation"
	"github.com/gocarina/gocsv"
)

const imagePrefix = "Landsat_Image_"

// Record is one row of the image metadata table.
type Record struct {
	ImageID string `csv:"image_id"`
	SiteNo  string `csv:"site_no"`
}

func (r Record) BaseSiteKey() string {
	return annotation.BaseSiteKey(r.SiteNo)
}

// OutputImageName is the source file name without the acquisition prefix.
func (r Record) OutputImageName() string {
	return strings.TrimPrefix(filepath.Base(r.ImageID), imagePrefix)
}

// OutputLabelName is OutputImageName with its extension replaced by .png.
func (r Record) OutputLabelName() string {
	name := r.OutputImageName()
	return strings.TrimSuffix(name, filepath.Ext(name)) + ".png"
}

// Load reads the metadata CSV at path in file order. Rows without an image id
// or site number are rejected so that a malformed table fails before any
// image is touched.
func Load(path string) ([]Record, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open metadata %s: %w", path, err)
	}
	defer file.Close()

	var rows []*Record
	if err := gocsv.UnmarshalFile(file, &rows); err != nil {
		return nil, fmt.Errorf("unmarshal metadata %s: %w", path, err)
	}

	records := make([]Record, 0, len(rows))
	for i, row := range rows {
		row.ImageID = strings.TrimSpace(row.ImageID)
		row.SiteNo = strings.TrimSpace(row.SiteNo)
		if row.ImageID == "" || row.SiteNo == "" {
			return nil, fmt.Errorf("metadata %s row %d: image_id and site_no are required", path, i+2)
		}
		records = append(records, *row)
	}
	return records, nil
}
