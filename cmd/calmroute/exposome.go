package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/calmroute/calmroute/internal/app"
	"github.com/calmroute/calmroute/internal/burden"
	"github.com/calmroute/calmroute/internal/exposome"
	"github.com/calmroute/calmroute/internal/overlay"
	"github.com/calmroute/calmroute/internal/spatial"
)

// The exposome commands read only the field and reference data, so they skip
// the catalogue load.

var gridCmd = &cobra.Command{
	Use:     "grid",
	Short:   "Print an exposome layer as a GeoJSON grid",
	Example: "  calmroute grid --layer noise --rows 20 --cols 20 > noise.geojson",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		name, _ := cmd.Flags().GetString("layer")
		layer, err := exposome.ParseLayer(name)
		if err != nil {
			return err
		}
		rows, _ := cmd.Flags().GetInt("rows")
		cols, _ := cmd.Flags().GetInt("cols")

		eng, err := app.NewEngine(cfg, logger)
		if err != nil {
			return err
		}
		fc, err := overlay.Grid(eng.Field(), eng.Reference().Bounds, layer, rows, cols)
		if err != nil {
			return err
		}
		return writeJSON(cmd.OutOrStdout(), fc)
	},
}

var sitesCmd = &cobra.Command{
	Use:       "sites <green|crowd>",
	Short:     "Print green spaces or crowd hotspots as GeoJSON points",
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"green", "crowd"},
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, err := app.NewEngine(cfg, logger)
		if err != nil {
			return err
		}

		var sites []spatial.Site
		switch args[0] {
		case "green":
			sites = eng.Reference().GreenSpaces
		case "crowd":
			sites = eng.Reference().CrowdHotspots
		default:
			return fmt.Errorf("unknown site kind %q", args[0])
		}
		return writeJSON(cmd.OutOrStdout(), overlay.Sites(args[0], sites))
	},
}

var exposureCmd = &cobra.Command{
	Use:     "exposure",
	Short:   "Print every exposome layer and the segment burden at a point",
	Example: "  calmroute exposure --lat 34.05 --lon -118.25 --neutral",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		at, err := location(cmd)
		if err != nil {
			return err
		}
		if at == nil {
			return fmt.Errorf("--lat and --lon are required")
		}
		w := burden.DefaultWeights()
		if neutral, _ := cmd.Flags().GetBool("neutral"); neutral {
			w = burden.NeutralWeights()
		}

		eng, err := app.NewEngine(cfg, logger)
		if err != nil {
			return err
		}
		exp, err := eng.ExposureAt(*at, w)
		if err != nil {
			return err
		}
		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			return writeJSON(cmd.OutOrStdout(), exp)
		}

		out := cmd.OutOrStdout()
		for _, l := range exposome.AllLayers {
			fmt.Fprintf(out, "%-8s %.3f\n", l, exp.Layers[l])
		}
		fmt.Fprintf(out, "%-8s %.0f\n", "aqi", exp.AQI)
		fmt.Fprintf(out, "%-8s %.3f\n", "burden", exp.Burden)
		return nil
	},
}

var polylineCmd = &cobra.Command{
	Use:     "polyline <encoded>",
	Short:   "Decode a route polyline into a GeoJSON LineString",
	Example: "  calmroute polyline '_p~iF~ps|U_ulLnnqC_mqNvxq`@'",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := overlay.Polyline(args[0])
		if err != nil {
			return err
		}
		return writeJSON(cmd.OutOrStdout(), f)
	},
}

func init() {
	gridCmd.Flags().String("layer", string(exposome.LayerAir), "layer: air, noise, heat, green, safety, crowd or traffic")
	gridCmd.Flags().Int("rows", 12, "grid rows")
	gridCmd.Flags().Int("cols", 12, "grid columns")

	addLocationFlags(exposureCmd)
	exposureCmd.Flags().Bool("neutral", false, "weigh every component equally")
	exposureCmd.Flags().Bool("json", false, "print JSON instead of a table")

	rootCmd.AddCommand(gridCmd, sitesCmd, exposureCmd, polylineCmd)
}
