package delivery

import (
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/forest-guardian/global-mining-labels/internal/geo"
	"github.com/forest-guardian/global-mining-labels/internal/labels"
	"github.com/forest-guardian/global-mining-labels/internal/logger"
	"github.com/forest-guardian/global-mining-labels/internal/metadata"
	"github.com/forest-guardian/global-mining-labels/internal/properties"
	"github.com/gammazero/workerpool"
	"github.com/schollz/progressbar/v3"
	"go.uber.org/zap"
)

const pipelineTag = "generate labels: "

// Image is an opened source raster.
type Image interface {
	Footprint() geo.Footprint
	ReadBand(n int) ([]float64, error)
	CopyBands(dst string, count int) error
	Close() error
}

type Opener func(path string) (Image, error)

type LabelSink interface {
	WriteLabel(path string, mask labels.LabelMask) error
}

type BaseMaskSource interface {
	Get(siteKey, baseSiteKey string, fp geo.Footprint) (labels.BaseMask, error)
}

type Config struct {
	SourceDir     string
	ImageDir      string
	LabelDir      string
	ReportPath    string
	NIRBand       int
	RedBand       int
	CloudBand     int
	CopyBandCount int
	Threshold     float64
	Workers       int
	Progress      bool
}

func ConfigFromProperties() Config {
	return Config{
		SourceDir:     properties.SourceImageDir(),
		ImageDir:      properties.OutputImageDir(),
		LabelDir:      properties.OutputLabelDir(),
		ReportPath:    filepath.Join(properties.OutputLabelDir(), "labels_report.csv"),
		NIRBand:       properties.NIRBand(),
		RedBand:       properties.RedBand(),
		CloudBand:     properties.CloudBand(),
		CopyBandCount: properties.CopyBandCount(),
		Threshold:     properties.NDVIThreshold(),
		Workers:       properties.Workers(),
		Progress:      true,
	}
}

type Pipeline struct {
	cfg   Config
	open  Opener
	masks BaseMaskSource
	sink  LabelSink
}

func NewPipeline(cfg Config, open Opener, masks BaseMaskSource, sink LabelSink) *Pipeline {
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	return &Pipeline{cfg: cfg, open: open, masks: masks, sink: sink}
}

type Result struct {
	Rows      []*ReportRow
	Succeeded int
	Failed    int
	Elapsed   time.Duration
}

// Run labels every record. A failing image is reported and skipped; the
// returned error is only set when the run report cannot be written.
func (p *Pipeline) Run(records []metadata.Record) (Result, error) {
	res := p.run(records)
	return res, p.writeReport(res.Rows)
}

// Retry labels the images that failed in previous and writes a report that
// keeps every previous row, with the retried ones replaced. Result.Rows only
// holds the retried images.
func (p *Pipeline) Retry(records []metadata.Record, previous []*ReportRow) (Result, error) {
	res := p.run(FailedRecords(records, previous))
	return res, p.writeReport(MergeReport(previous, res.Rows))
}

func (p *Pipeline) run(records []metadata.Record) Result {
	start := time.Now()
	logger.Info(pipelineTag+"starting", zap.Int("images", len(records)), zap.Int("workers", p.cfg.Workers))

	var (
		mu   sync.Mutex
		res  = Result{Rows: make([]*ReportRow, len(records))}
		bar  = p.progressBar(len(records))
		done = func(i int, row *ReportRow) {
			mu.Lock()
			defer mu.Unlock()
			res.Rows[i] = row
			if row.Status == StatusOK {
				res.Succeeded++
			} else {
				res.Failed++
			}
			bar.Add(1)
		}
	)

	if p.cfg.Workers == 1 {
		for i, rec := range records {
			done(i, p.process(rec))
		}
	} else {
		wp := workerpool.New(p.cfg.Workers)
		for i, rec := range records {
			i, rec := i, rec
			wp.Submit(func() {
				done(i, p.process(rec))
			})
		}
		wp.StopWait()
	}
	bar.Finish()
	res.Elapsed = time.Since(start)

	logger.Info(pipelineTag+"finished",
		zap.Int("succeeded", res.Succeeded),
		zap.Int("failed", res.Failed),
		zap.Duration("elapsed", res.Elapsed))
	return res
}

func (p *Pipeline) writeReport(rows []*ReportRow) error {
	if p.cfg.ReportPath == "" {
		return nil
	}
	if err := writeCSV(p.cfg.ReportPath, &rows); err != nil {
		return err
	}
	logger.Info(pipelineTag+"report written", zap.String("path", p.cfg.ReportPath), zap.Int("rows", len(rows)))
	return nil
}

func (p *Pipeline) progressBar(n int) *progressbar.ProgressBar {
	if p.cfg.Progress {
		return progressbar.Default(int64(n), "Generating labels")
	}
	return progressbar.DefaultSilent(int64(n))
}

func (p *Pipeline) process(rec metadata.Record) *ReportRow {
	row := &ReportRow{ImageID: rec.ImageID, SiteNo: rec.SiteNo, BaseSite: rec.BaseSiteKey()}
	if err := p.label(rec, row); err != nil {
		row.Status = StatusFailed
		row.Error = err.Error()
		logger.Error(pipelineTag+"image failed", zap.String("image", rec.ImageID), zap.String("site", rec.SiteNo), zap.Error(err))
		return row
	}
	row.Status = StatusOK
	logger.Debug(pipelineTag+"image labelled",
		zap.String("image", rec.ImageID),
		zap.Bool("from_cache", row.FromCache),
		zap.Int("mining", row.MiningPixels),
		zap.Int("cloud", row.CloudPixels))
	return row
}

// label writes nothing until the final mask is complete, so a failed image
// leaves neither a copied image nor a label behind.
func (p *Pipeline) label(rec metadata.Record, row *ReportRow) error {
	im, err := p.open(filepath.Join(p.cfg.SourceDir, rec.ImageID))
	if err != nil {
		return err
	}
	defer im.Close()

	fp := im.Footprint()
	base, err := p.masks.Get(rec.SiteNo, row.BaseSite, fp)
	if err != nil {
		return fmt.Errorf("base mask for %s: %w", rec.SiteNo, err)
	}
	row.FromCache = base.FromCache
	row.Polygons = base.Polygons
	row.Skipped = base.Skipped

	nir, err := im.ReadBand(p.cfg.NIRBand)
	if err != nil {
		return err
	}
	red, err := im.ReadBand(p.cfg.RedBand)
	if err != nil {
		return err
	}
	suppression, err := labels.SuppressionMask(nir, red, fp.Shape, p.cfg.Threshold)
	if err != nil {
		return err
	}

	cloudBand, err := im.ReadBand(p.cfg.CloudBand)
	if err != nil {
		return err
	}
	cloud, err := labels.CloudMaskFromBand(cloudBand, fp.Shape)
	if err != nil {
		return err
	}

	final, err := labels.Compose(base.Mask, suppression, cloud)
	if err != nil {
		return err
	}

	if p.cfg.CopyBandCount > 0 {
		if err := im.CopyBands(filepath.Join(p.cfg.ImageDir, rec.OutputImageName()), p.cfg.CopyBandCount); err != nil {
			return err
		}
	}
	labelPath := filepath.Join(p.cfg.LabelDir, rec.OutputLabelName())
	if err := p.sink.WriteLabel(labelPath, final); err != nil {
		return err
	}

	row.LabelPath = labelPath
	row.MiningPixels = final.Count(labels.Mining)
	row.CloudPixels = final.Count(labels.Cloud)
	return nil
}

// FailedRecords keeps the records whose image failed in a previous report.
func FailedRecords(records []metadata.Record, previous []*ReportRow) []metadata.Record {
	failed := make(map[string]bool)
	for _, row := range previous {
		if row.Status != StatusOK {
			failed[row.ImageID] = true
		}
	}
	var out []metadata.Record
	for _, rec := range records {
		if failed[rec.ImageID] {
			out = append(out, rec)
		}
	}
	return out
}
