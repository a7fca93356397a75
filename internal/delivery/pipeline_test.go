package delivery

import (
	"fmt"
	"path/filepath"
	"sync"
	"testing"

	"github.com/forest-guardian/global-mining-labels/internal/annotation"
	"github.com/forest-guardian/global-mining-labels/internal/geo"
	"github.com/forest-guardian/global-mining-labels/internal/labels"
	"github.com/forest-guardian/global-mining-labels/internal/metadata"
	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testShape = geo.Shape{Height: 10, Width: 10}

type fakeImage struct {
	fp     geo.Footprint
	bands  map[int][]float64
	copies *copyLog
}

type copyLog struct {
	mu   sync.Mutex
	dsts []string
}

func (im *fakeImage) Footprint() geo.Footprint { return im.fp }

func (im *fakeImage) ReadBand(n int) ([]float64, error) {
	b, ok := im.bands[n]
	if !ok {
		return nil, fmt.Errorf("%w: band %d", labels.ErrMissingBand, n)
	}
	return b, nil
}

func (im *fakeImage) CopyBands(dst string, count int) error {
	im.copies.mu.Lock()
	defer im.copies.mu.Unlock()
	im.copies.dsts = append(im.copies.dsts, filepath.Base(dst))
	return nil
}

func (im *fakeImage) Close() error { return nil }

type memorySink struct {
	mu     sync.Mutex
	labels map[string]labels.LabelMask
}

func (s *memorySink) WriteLabel(path string, mask labels.LabelMask) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.labels[filepath.Base(path)] = mask
	return nil
}

func constant(v float64) []float64 {
	b := make([]float64, testShape.Len())
	for i := range b {
		b[i] = v
	}
	return b
}

// sceneBands has one vegetated pixel at (2,2) and one cloud pixel at (3,4).
func sceneBands() map[int][]float64 {
	nir, red, cloud := constant(1), constant(1), constant(0)
	nir[22], red[22] = 3000, 500
	cloud[34] = 1
	return map[int][]float64{3: red, 4: nir, 8: cloud}
}

type fixture struct {
	images map[string]*fakeImage
	copies *copyLog
	sink   *memorySink
	cache  *labels.BaseMaskCache
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ring := orb.Ring{{2, 6}, {5, 6}, {5, 8}, {2, 8}}
	g, err := annotation.NewGeometry("test", "mali_faleme_upper_1", ring)
	require.NoError(t, err)
	store := annotation.NewStore([]annotation.Geometry{g})

	fp := geo.FootprintFromTransform("EPSG:4326", geo.Affine{0, 1, 0, 10, 0, -1}, testShape)
	copies := &copyLog{}
	missingCloud := sceneBands()
	delete(missingCloud, 8)

	return &fixture{
		images: map[string]*fakeImage{
			"Landsat_Image_mali_a.tif":    {fp: fp, bands: sceneBands(), copies: copies},
			"Landsat_Image_mali_b.tif":    {fp: fp, bands: sceneBands(), copies: copies},
			"Landsat_Image_venezuela.tif": {fp: fp, bands: sceneBands(), copies: copies},
			"Landsat_Image_nocloud.tif":   {fp: fp, bands: missingCloud, copies: copies},
		},
		copies: copies,
		sink:   &memorySink{labels: make(map[string]labels.LabelMask)},
		cache: labels.NewBaseMaskCache(
			labels.NewResolver(store, geo.BuiltinProjector{}, geo.PlanarClipper{}),
			geo.PlanarRasterizer{},
		),
	}
}

func (f *fixture) open(path string) (Image, error) {
	im, ok := f.images[filepath.Base(path)]
	if !ok {
		return nil, fmt.Errorf("cannot open %s", path)
	}
	return im, nil
}

var testRecords = []metadata.Record{
	{ImageID: "Landsat_Image_mali_a.tif", SiteNo: "mali_faleme_upper_1"},
	{ImageID: "Landsat_Image_mali_b.tif", SiteNo: "mali_faleme_upper_1"},
	{ImageID: "Landsat_Image_missing.tif", SiteNo: "mali_faleme_upper_1"},
	{ImageID: "Landsat_Image_venezuela.tif", SiteNo: "venezuela_yapacana_south_agm_region_TSTM_1"},
	{ImageID: "Landsat_Image_nocloud.tif", SiteNo: "mali_faleme_upper_2"},
}

func testConfig(t *testing.T, workers int) Config {
	dir := t.TempDir()
	return Config{
		SourceDir:     "src",
		ImageDir:      "images",
		LabelDir:      "labels",
		ReportPath:    filepath.Join(dir, "labels_report.csv"),
		NIRBand:       4,
		RedBand:       3,
		CloudBand:     8,
		CopyBandCount: 7,
		Threshold:     labels.DefaultVegetationThreshold,
		Workers:       workers,
	}
}

func TestPipelineRun(t *testing.T) {
	for _, workers := range []int{1, 4} {
		t.Run(fmt.Sprintf("workers=%d", workers), func(t *testing.T) {
			f := newFixture(t)
			cfg := testConfig(t, workers)
			res, err := NewPipeline(cfg, f.open, f.cache, f.sink).Run(testRecords)
			require.NoError(t, err)

			assert.Equal(t, 3, res.Succeeded)
			assert.Equal(t, 2, res.Failed)
			require.Len(t, res.Rows, len(testRecords))
			for i, row := range res.Rows {
				assert.Equal(t, testRecords[i].ImageID, row.ImageID)
			}

			mali := f.sink.labels["mali_a.png"]
			assert.Equal(t, 4, mali.Count(labels.Mining))
			assert.Equal(t, 1, mali.Count(labels.Cloud))
			assert.Equal(t, labels.Background, mali.At(2, 2), "vegetation suppresses mining")
			assert.Equal(t, labels.Cloud, mali.At(3, 4), "cloud wins over mining")
			assert.Equal(t, mali, f.sink.labels["mali_b.png"])

			venezuela := f.sink.labels["venezuela.png"]
			assert.Equal(t, 0, venezuela.Count(labels.Mining))
			assert.Equal(t, 1, venezuela.Count(labels.Cloud))
			assert.Equal(t, StatusOK, res.Rows[3].Status)
			assert.Equal(t, 0, res.Rows[3].Polygons)

			assert.Equal(t, StatusFailed, res.Rows[2].Status)
			assert.Contains(t, res.Rows[2].Error, "cannot open")
			assert.Equal(t, StatusFailed, res.Rows[4].Status)
			assert.Contains(t, res.Rows[4].Error, labels.ErrMissingBand.Error())
			assert.NotContains(t, f.sink.labels, "nocloud.png")

			assert.ElementsMatch(t, []string{"mali_a.tif", "mali_b.tif", "venezuela.tif"}, f.copies.dsts)

			report, err := ReadReport(cfg.ReportPath)
			require.NoError(t, err)
			require.Len(t, report, len(testRecords))
			assert.Equal(t, "mali_faleme_upper", report[0].BaseSite)
			assert.Equal(t, 4, report[0].MiningPixels)
			assert.Equal(t, filepath.Join("labels", "mali_a.png"), report[0].LabelPath)
		})
	}
}

func TestPipelineReusesBaseMaskPerSiteKey(t *testing.T) {
	f := newFixture(t)
	res, err := NewPipeline(testConfig(t, 1), f.open, f.cache, f.sink).Run(testRecords[:2])
	require.NoError(t, err)

	assert.False(t, res.Rows[0].FromCache)
	assert.True(t, res.Rows[1].FromCache)
	assert.Equal(t, 1, f.cache.Len())
	hits, misses := f.cache.Stats()
	assert.Equal(t, int64(1), hits)
	assert.Equal(t, int64(1), misses)
}

func TestPipelineWithoutBandCopy(t *testing.T) {
	f := newFixture(t)
	cfg := testConfig(t, 1)
	cfg.CopyBandCount = 0
	cfg.ReportPath = ""
	_, err := NewPipeline(cfg, f.open, f.cache, f.sink).Run(testRecords[:1])
	require.NoError(t, err)
	assert.Empty(t, f.copies.dsts)
	assert.Len(t, f.sink.labels, 1)
}

func TestPipelineRetryKeepsFullReport(t *testing.T) {
	f := newFixture(t)
	cfg := testConfig(t, 1)
	pipeline := NewPipeline(cfg, f.open, f.cache, f.sink)

	first, err := pipeline.Run(testRecords)
	require.NoError(t, err)
	require.Equal(t, 2, first.Failed)

	// the missing source shows up before the retry
	f.images["Landsat_Image_missing.tif"] = f.images["Landsat_Image_mali_a.tif"]

	previous, err := ReadReport(cfg.ReportPath)
	require.NoError(t, err)
	retry, err := pipeline.Retry(testRecords, previous)
	require.NoError(t, err)
	require.Len(t, retry.Rows, 2)
	assert.Equal(t, 1, retry.Succeeded)
	assert.Equal(t, 1, retry.Failed)

	report, err := ReadReport(cfg.ReportPath)
	require.NoError(t, err)
	require.Len(t, report, len(testRecords))
	for i, row := range report {
		assert.Equal(t, testRecords[i].ImageID, row.ImageID)
	}
	assert.Equal(t, StatusOK, report[0].Status)
	assert.Equal(t, StatusOK, report[2].Status, "retried image is updated")
	assert.Empty(t, report[2].Error)
	assert.Equal(t, StatusFailed, report[4].Status)
	assert.Contains(t, f.sink.labels, "missing.png")
}

func TestMergeReport(t *testing.T) {
	previous := []*ReportRow{
		{ImageID: "a", Status: StatusOK},
		{ImageID: "b", Status: StatusFailed},
		{ImageID: "c", Status: StatusFailed},
	}
	current := []*ReportRow{
		{ImageID: "c", Status: StatusOK},
		{ImageID: "d", Status: StatusFailed},
	}
	merged := MergeReport(previous, current)
	require.Len(t, merged, 4)
	assert.Equal(t, []string{"a", "b", "c", "d"}, []string{merged[0].ImageID, merged[1].ImageID, merged[2].ImageID, merged[3].ImageID})
	assert.Equal(t, StatusOK, merged[2].Status)
	assert.Equal(t, StatusFailed, merged[1].Status)
}

func TestFailedRecords(t *testing.T) {
	previous := []*ReportRow{
		{ImageID: "Landsat_Image_mali_a.tif", Status: StatusOK},
		{ImageID: "Landsat_Image_missing.tif", Status: StatusFailed},
		{ImageID: "Landsat_Image_nocloud.tif", Status: StatusFailed},
	}
	got := FailedRecords(testRecords, previous)
	require.Len(t, got, 2)
	assert.Equal(t, "Landsat_Image_missing.tif", got[0].ImageID)
	assert.Equal(t, "Landsat_Image_nocloud.tif", got[1].ImageID)
}

func TestNewEngine(t *testing.T) {
	e, err := NewEngine(EnginePlanar)
	require.NoError(t, err)
	defer e.Close()
	assert.IsType(t, geo.BuiltinProjector{}, e.Projector)

	_, err = NewEngine("shapely")
	assert.ErrorContains(t, err, "unknown geometry engine")
}
