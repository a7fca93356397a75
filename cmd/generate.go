package main

import (
	"fmt"
	"os"
	"time"

	bannercolor "github.com/fatih/color"
	"github.com/forest-guardian/global-mining-labels/internal/delivery"
	"github.com/forest-guardian/global-mining-labels/internal/labels"
	"github.com/forest-guardian/global-mining-labels/internal/metadata"
	"github.com/forest-guardian/global-mining-labels/internal/notification"
	"github.com/forest-guardian/global-mining-labels/internal/output"
	"github.com/forest-guardian/global-mining-labels/internal/properties"
	"github.com/spf13/cobra"
)

type generateOptions struct {
	annotations string
	metadata    string
	engine      string
	workers     int
	threshold   float64
	copyBands   int
	preview     bool
	retryFailed bool
	noProgress  bool
}

func generateCommand() *cobra.Command {
	opts := generateOptions{}
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Write a label PNG (0 background, 1 cloud, 2 mining) for every image in the metadata table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerate(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.annotations, "annotations", "", "Annotation source (KML, GeoJSON or any OGR vector); default ANNOTATION_PATH")
	cmd.Flags().StringVar(&opts.metadata, "metadata", "", "Image metadata CSV with image_id,site_no; default METADATA_PATH")
	cmd.Flags().StringVar(&opts.engine, "engine", "", "Geometry engine: geos or planar; default GEOMETRY_ENGINE")
	cmd.Flags().IntVarP(&opts.workers, "workers", "w", 0, "Images processed in parallel; default WORKERS")
	cmd.Flags().Float64Var(&opts.threshold, "ndvi-threshold", 0, "NDVI above which mining pixels are treated as vegetation; default NDVI_THRESHOLD")
	cmd.Flags().IntVar(&opts.copyBands, "copy-bands", 0, "Bands copied to the output image directory, 0 disables; default COPY_BAND_COUNT")
	cmd.Flags().BoolVar(&opts.preview, "preview", false, "Also write a colour preview next to each label; default LABEL_PREVIEW")
	cmd.Flags().BoolVar(&opts.retryFailed, "retry-failed", false, "Only process images that failed in the previous run report")
	cmd.Flags().BoolVar(&opts.noProgress, "no-progress", false, "Hide the progress bar")
	return cmd
}

func runGenerate(cmd *cobra.Command, opts generateOptions) error {
	flags := cmd.Flags()
	cfg := delivery.ConfigFromProperties()
	if flags.Changed("workers") {
		cfg.Workers = opts.workers
	}
	if flags.Changed("ndvi-threshold") {
		cfg.Threshold = opts.threshold
	}
	if flags.Changed("copy-bands") {
		cfg.CopyBandCount = opts.copyBands
	}
	cfg.Progress = !opts.noProgress

	annotationPath := properties.AnnotationPath()
	if opts.annotations != "" {
		annotationPath = opts.annotations
	}
	metadataPath := properties.MetadataPath()
	if opts.metadata != "" {
		metadataPath = opts.metadata
	}
	engineName := properties.GeometryEngine()
	if opts.engine != "" {
		engineName = opts.engine
	}
	preview := properties.LabelPreview()
	if flags.Changed("preview") {
		preview = opts.preview
	}

	store, err := loadStore(annotationPath)
	if err != nil {
		notifyError(fmt.Sprintf("Loading annotations from %s: %s", annotationPath, err))
		return err
	}
	records, err := metadata.Load(metadataPath)
	if err != nil {
		notifyError(fmt.Sprintf("Loading metadata from %s: %s", metadataPath, err))
		return err
	}
	var previous []*delivery.ReportRow
	if opts.retryFailed {
		previous, err = delivery.ReadReport(cfg.ReportPath)
		if err != nil {
			return fmt.Errorf("reading previous report: %w", err)
		}
		bannercolor.Yellow("Retrying %d failed images from %s", len(delivery.FailedRecords(records, previous)), cfg.ReportPath)
	}

	engine, err := delivery.NewEngine(engineName)
	if err != nil {
		return err
	}
	defer engine.Close()

	cache := labels.NewBaseMaskCache(
		labels.NewResolver(store, engine.Projector, engine.Clipper),
		engine.Rasterizer,
	)
	pipeline := delivery.NewPipeline(cfg, delivery.OpenGDALImage, cache, output.Writer{Preview: preview})

	var res delivery.Result
	if opts.retryFailed {
		res, err = pipeline.Retry(records, previous)
	} else {
		res, err = pipeline.Run(records)
	}
	if err != nil {
		notifyError(err.Error())
		return err
	}

	hits, misses := cache.Stats()
	fmt.Println()
	bannercolor.Green("Labels written: %d", res.Succeeded)
	fmt.Printf("Base masks: %d sites, %d cache hits, %d misses\n", cache.Len(), hits, misses)
	fmt.Printf("Report: %s\n", cfg.ReportPath)

	summary := fmt.Sprintf("%d labels written to %s in %s", res.Succeeded, cfg.LabelDir, res.Elapsed.Round(time.Second))
	if res.Failed > 0 {
		bannercolor.Red("Failed images: %d", res.Failed)
		for _, row := range res.Rows {
			if row.Status == delivery.StatusFailed {
				fmt.Fprintf(os.Stderr, "  %s: %s\n", row.ImageID, row.Error)
			}
		}
		if err := notification.SendDiscordWarnNotification(fmt.Sprintf("%s\n%d images failed, see %s", summary, res.Failed, cfg.ReportPath)); err != nil {
			bannercolor.Red("Failed to send notification: %s", err.Error())
		}
		return nil
	}
	if err := notification.SendDiscordSuccessNotification(summary); err != nil {
		bannercolor.Red("Failed to send notification: %s", err.Error())
	}
	return nil
}

func notifyError(msg string) {
	if err := notification.SendDiscordErrorNotification(msg); err != nil {
		bannercolor.Red("Failed to send notification: %s", err.Error())
	}
}
