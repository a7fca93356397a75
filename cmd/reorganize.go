package main

import (
	bannercolor "github.com/fatih/color"
	"github.com/forest-guardian/global-mining-labels/internal/dataset"
	"github.com/forest-guardian/global-mining-labels/internal/properties"
	"github.com/spf13/cobra"
)

func reorganizeCommand() *cobra.Command {
	cfg := dataset.Config{
		ImageDir:   properties.OutputImageDir(),
		LabelDir:   properties.OutputLabelDir(),
		RGBDir:     properties.OutputRGBDir(),
		DatasetDir: properties.DatasetDir(),
	}
	var splitTable string
	cmd := &cobra.Command{
		Use:   "reorganize",
		Short: "Arrange images, labels and RGB renders into train/val/test folders per site",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg.SplitTable = dataset.BuiltinSplitTable()
			if splitTable != "" {
				table, err := dataset.LoadSplitTable(splitTable)
				if err != nil {
					return err
				}
				cfg.SplitTable = table
			}
			res, err := dataset.Reorganize(cfg)
			if err != nil {
				return err
			}
			for _, split := range dataset.Splits {
				bannercolor.Cyan("%s: %d images", split, res.PerSplit[split])
			}
			if res.Unmatched > 0 {
				bannercolor.Yellow("%d images had no split and went to %s", res.Unmatched, dataset.DefaultSplit)
			}
			if len(res.Missing) > 0 {
				bannercolor.Yellow("%d labels or renders were missing", len(res.Missing))
			}
			bannercolor.Green("Dataset written to %s", cfg.DatasetDir)
			return nil
		},
	}
	cmd.Flags().StringVar(&cfg.ImageDir, "images", cfg.ImageDir, "Directory of GeoTIFFs")
	cmd.Flags().StringVar(&cfg.LabelDir, "labels", cfg.LabelDir, "Directory of label PNGs")
	cmd.Flags().StringVar(&cfg.RGBDir, "rgb", cfg.RGBDir, "Directory of RGB renders")
	cmd.Flags().StringVarP(&cfg.DatasetDir, "output", "o", cfg.DatasetDir, "Dataset root")
	cmd.Flags().StringVar(&splitTable, "splits", "", "Site summary CSV with base_site and split columns; default built-in table")
	return cmd
}
