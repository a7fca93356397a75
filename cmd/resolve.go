package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/forest-guardian/global-mining-labels/internal/annotation"
	"github.com/forest-guardian/global-mining-labels/internal/delivery"
	"github.com/forest-guardian/global-mining-labels/internal/geo"
	"github.com/forest-guardian/global-mining-labels/internal/labels"
	"github.com/forest-guardian/global-mining-labels/internal/properties"
	"github.com/paulmach/orb/geojson"
	"github.com/spf13/cobra"
)

func resolveCommand() *cobra.Command {
	var annotations, engineName, out string
	cmd := &cobra.Command{
		Use:   "resolve <image_id> <site_no>",
		Short: "Print the annotation polygons clipped to one image as GeoJSON in the image CRS",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if annotations == "" {
				annotations = properties.AnnotationPath()
			}
			if engineName == "" {
				engineName = properties.GeometryEngine()
			}
			store, err := loadStore(annotations)
			if err != nil {
				return err
			}
			engine, err := delivery.NewEngine(engineName)
			if err != nil {
				return err
			}
			defer engine.Close()

			im, err := delivery.OpenGDALImage(filepath.Join(properties.SourceImageDir(), args[0]))
			if err != nil {
				return err
			}
			fp := im.Footprint()
			im.Close()

			baseSite := annotation.BaseSiteKey(args[1])
			res, err := labels.NewResolver(store, engine.Projector, engine.Clipper).Resolve(baseSite, fp)
			if err != nil {
				return err
			}

			data, err := json.MarshalIndent(resolutionCollection(baseSite, fp, res), "", "  ")
			if err != nil {
				return err
			}
			if out == "" {
				fmt.Println(string(data))
				return nil
			}
			return os.WriteFile(out, data, 0o644)
		},
	}
	cmd.Flags().StringVar(&annotations, "annotations", "", "Annotation source; default ANNOTATION_PATH")
	cmd.Flags().StringVar(&engineName, "engine", "", "Geometry engine: geos or planar; default GEOMETRY_ENGINE")
	cmd.Flags().StringVarP(&out, "output", "o", "", "Write the GeoJSON to this file instead of stdout")
	return cmd
}

func resolutionCollection(baseSite string, fp geo.Footprint, res labels.Resolution) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for i, p := range res.Polygons {
		f := geojson.NewFeature(p)
		f.Properties["base_site"] = baseSite
		f.Properties["index"] = i
		f.Properties["crs"] = fp.CRS
		fc.Append(f)
	}
	fc.ExtraMembers = geojson.Properties{
		"candidates": res.Candidates,
		"skipped":    len(res.Skipped),
	}
	return fc
}
