package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/calmroute/calmroute/internal/burden"
	"github.com/calmroute/calmroute/internal/engine"
	"github.com/calmroute/calmroute/internal/exposome"
	"github.com/calmroute/calmroute/internal/geo"
	"github.com/calmroute/calmroute/internal/overlay"
	"github.com/calmroute/calmroute/internal/routing"
)

var routeCmd = &cobra.Command{
	Use:   "route",
	Short: "Compare fastest, low-stress and balanced routes to a program",
	Example: `  calmroute route --program 12 --lat 34.05 --lon -118.25
  calmroute route --program 12 --lat 34.05 --lon -118.25 --mode driving --profile low-stress --format geojson`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		flags := cmd.Flags()

		user, err := location(cmd)
		if err != nil {
			return err
		}
		if user == nil {
			return fmt.Errorf("--lat and --lon are required")
		}
		id, _ := flags.GetInt64("program")
		modeName, _ := flags.GetString("mode")
		mode, err := routing.ParseMode(modeName)
		if err != nil {
			return err
		}

		req := engine.RouteRequest{
			User:      *user,
			ProgramID: id,
			Mode:      mode,
			Weights:   burden.DefaultWeights(),
		}
		if neutral, _ := flags.GetBool("neutral"); neutral {
			req.Weights = burden.NeutralWeights()
		}

		a, err := assemble(cmd)
		if err != nil {
			return err
		}
		cat := a.Store.Catalogue()

		var routes []*routing.ScoredRoute
		if name, _ := flags.GetString("profile"); name != "" {
			if req.Profile, err = routing.ParseProfile(name); err != nil {
				return err
			}
			route, err := a.Engine.Route(cat, req)
			if err != nil {
				return err
			}
			routes = []*routing.ScoredRoute{route}
		} else if routes, err = a.Engine.RoutesAll(cat, req); err != nil {
			return err
		}

		format, _ := flags.GetString("format")
		switch format {
		case "json":
			return writeJSON(cmd.OutOrStdout(), routes)
		case "geojson":
			fc, err := overlay.Routes(routes)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), fc)
		case "table":
		default:
			return fmt.Errorf("unknown format %q", format)
		}

		settings := exposome.DefaultSettings()
		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "PROFILE\tMILES\tMINUTES\tBURDEN\tEXPOSOME\tPOLYLINE")
		for _, r := range routes {
			summary, err := a.Engine.BurdenAlong(r, settings)
			if err != nil {
				return err
			}
			fmt.Fprintf(tw, "%s\t%.2f\t%.0f\t%.0f\t%d\t%s\n",
				r.Profile, r.DistanceMiles, r.DurationMinutes, r.BurdenScore, summary.Score, geo.EncodePolyline(r.Waypoints))
		}
		if err := tw.Flush(); err != nil {
			return err
		}
		for _, r := range routes {
			fmt.Fprintf(cmd.OutOrStdout(), "\n%s: %s", r.Profile, r.Explanation)
		}
		fmt.Fprintln(cmd.OutOrStdout())
		return nil
	},
}

func init() {
	f := routeCmd.Flags()
	f.Int64("program", 0, "destination program id")
	f.String("mode", string(routing.ModeWalking), "travel mode: walking, driving, transit or rideshare")
	f.String("profile", "", "single profile to compute: fastest, lowStress or balanced (default all three)")
	f.Bool("neutral", false, "weigh every burden component equally")
	f.String("format", "table", "output format: table, json or geojson")
	addLocationFlags(routeCmd)
	_ = routeCmd.MarkFlagRequired("program")

	rootCmd.AddCommand(routeCmd)
}
