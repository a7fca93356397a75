package main

import (
	"fmt"

	bannercolor "github.com/fatih/color"
	"github.com/forest-guardian/global-mining-labels/internal/delivery"
	"github.com/forest-guardian/global-mining-labels/internal/metadata"
	"github.com/forest-guardian/global-mining-labels/internal/properties"
	"github.com/spf13/cobra"
)

func summaryCommand() *cobra.Command {
	var metadataPath, out string
	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Count images per base site with country, continent and split",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if metadataPath == "" {
				metadataPath = properties.MetadataPath()
			}
			records, err := metadata.Load(metadataPath)
			if err != nil {
				return err
			}
			s := delivery.Summarize(records)

			bannercolor.Cyan("=== Number of images per base site ===")
			for _, site := range s.Sites {
				split := site.Split
				if split == "" {
					split = "unassigned"
				}
				fmt.Printf("%s: %d images (%s)\n", site.BaseSite, site.ImageCount, split)
			}
			fmt.Printf("\nUnique base sites: %d\nTotal images: %d\n", len(s.Sites), s.Images)
			printTotals("Continent", s.ByContinent)
			printTotals("Country", s.ByCountry)
			printTotals("Split", s.BySplit)

			if err := delivery.WriteSummary(out, s); err != nil {
				return err
			}
			bannercolor.Green("\nResults saved to %s", out)
			return nil
		},
	}
	cmd.Flags().StringVar(&metadataPath, "metadata", "", "Image metadata CSV; default METADATA_PATH")
	cmd.Flags().StringVarP(&out, "output", "o", properties.Path("misc/base_site_counts.csv"), "Summary CSV path")
	return cmd
}

func printTotals(title string, totals []delivery.GroupTotal) {
	bannercolor.Cyan("\n=== Summary by %s ===", title)
	fmt.Printf("%-45s %8s %8s\n", title, "sites", "images")
	for _, t := range totals {
		fmt.Printf("%-45s %8d %8d\n", t.Key, t.Sites, t.Images)
	}
}
