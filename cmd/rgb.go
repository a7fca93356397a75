package main

import (
	"fmt"

	bannercolor "github.com/fatih/color"
	"github.com/forest-guardian/global-mining-labels/internal/delivery"
	"github.com/spf13/cobra"
)

func rgbCommand() *cobra.Command {
	cfg := delivery.RGBConfigFromProperties()
	cmd := &cobra.Command{
		Use:   "rgb",
		Short: "Render true-colour PNG previews of the copied satellite images",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := delivery.GenerateRGB(cfg, delivery.OpenGDALImage)
			if err != nil {
				return err
			}
			bannercolor.Green("Rendered %d images into %s", res.Written, cfg.RGBDir)
			if len(res.Failed) > 0 {
				bannercolor.Yellow("%d images failed:", len(res.Failed))
				for path, msg := range res.Failed {
					fmt.Printf("  %s: %s\n", path, msg)
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&cfg.ImageDir, "images", cfg.ImageDir, "Directory of GeoTIFFs to render")
	cmd.Flags().StringVarP(&cfg.RGBDir, "output", "o", cfg.RGBDir, "Directory for the PNG renders")
	cmd.Flags().Float64Var(&cfg.Stretch.Max, "max-reflectance", cfg.Stretch.Max, "Reflectance mapped to full brightness")
	return cmd
}
