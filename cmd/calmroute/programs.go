package main

import (
	"fmt"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/calmroute/calmroute/internal/catalogue"
	"github.com/calmroute/calmroute/internal/engine"
	"github.com/calmroute/calmroute/internal/geo"
	"github.com/calmroute/calmroute/internal/recommend"
)

var queryCmd = &cobra.Command{
	Use:   "query",
	Short: "List the programs that pass a filter",
	Example: `  calmroute query --city Pasadena
  calmroute query --category Youth --category Adults --category-mode all --lat 34.05 --lon -118.25 --max-distance 5`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		f, user, err := filterFromFlags(cmd)
		if err != nil {
			return err
		}
		a, err := assemble(cmd)
		if err != nil {
			return err
		}

		opts := engine.QueryOptions{User: user}
		if at, _ := cmd.Flags().GetString("arrive"); at != "" {
			if opts.ArrivalAt, err = time.Parse(time.RFC3339, at); err != nil {
				return fmt.Errorf("--arrive: %w", err)
			}
		}

		res, err := a.Engine.Query(a.Store.Catalogue(), f, opts)
		if err != nil {
			return err
		}
		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			return writeJSON(cmd.OutOrStdout(), res)
		}

		distHeader, dist := "MILES", func(d *float64) *float64 { return d }
		if f.DistanceUnit == recommend.Kilometres {
			distHeader, dist = "KM", inKm
		}

		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintf(tw, "ID\tNAME\tCITY\t%s\tLOAD\n", distHeader)
		for _, p := range res.Visible {
			fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", p.ID, p.Name, p.City, optional(dist(p.DistanceMiles), 1), optional(p.LoadAtArrival, 2))
		}
		if err := tw.Flush(); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "\n%d programs, %d cities, %d categories\n", len(res.Visible), len(res.Cities), len(res.Categories))
		return nil
	},
}

var recommendCmd = &cobra.Command{
	Use:   "recommend",
	Short: "Score and rank programs against preferences",
	Example: `  calmroute recommend --lat 34.05 --lon -118.25 --language Spanish --insurance Medi-Cal --telehealth
  calmroute recommend --clinic-type outpatient --focus CBT --limit 5`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		f, user, err := filterFromFlags(cmd)
		if err != nil {
			return err
		}
		a, err := assemble(cmd)
		if err != nil {
			return err
		}

		recs, err := a.Engine.Recommend(a.Store.Catalogue(), f, user)
		if err != nil {
			return err
		}
		if limit, _ := cmd.Flags().GetInt("limit"); limit > 0 && len(recs) > limit {
			recs = recs[:limit]
		}
		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			return writeJSON(cmd.OutOrStdout(), recs)
		}

		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "SCORE\tLEVEL\tID\tNAME\tMILES\tREASONS")
		for _, r := range recs {
			fmt.Fprintf(tw, "%.0f\t%s\t%d\t%s\t%s\t%s\n",
				r.Score, r.Level, r.Program.ID, r.Program.Name, optional(r.Details.DistanceMiles, 1), strings.Join(r.Reasons, "; "))
		}
		return tw.Flush()
	},
}

var programCmd = &cobra.Command{
	Use:   "program <id>",
	Short: "Print one program as JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("program id %q is not an integer", args[0])
		}
		a, err := assemble(cmd)
		if err != nil {
			return err
		}
		p, err := a.Engine.Program(a.Store.Catalogue(), id)
		if err != nil {
			return err
		}
		return writeJSON(cmd.OutOrStdout(), p)
	},
}

func init() {
	for _, cmd := range []*cobra.Command{queryCmd, recommendCmd} {
		addFilterFlags(cmd)
		cmd.Flags().Bool("json", false, "print JSON instead of a table")
	}
	queryCmd.Flags().String("arrive", "", "annotate programs with their load at this RFC3339 time")
	recommendCmd.Flags().Int("limit", 10, "maximum recommendations to print (0 for all)")

	rootCmd.AddCommand(queryCmd, recommendCmd, programCmd)
}

func addFilterFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.String("search", "", "case-insensitive text search over name, description and categories")
	f.String("city", recommend.AllCities, "exact city, or All")
	f.StringArray("category", nil, "category to match (repeatable)")
	f.String("category-mode", string(recommend.CategoryAny), "any or all")
	f.Float64("max-distance", 0, "maximum distance from --lat/--lon")
	f.String("unit", string(recommend.Miles), "distance unit: miles or km")
	f.StringArray("clinic-type", nil, "clinic type: hospital, outpatient, specialized or urgent (repeatable)")
	f.StringArray("focus", nil, "treatment focus, e.g. CBT or trauma (repeatable)")
	f.StringArray("privacy", nil, "privacy level: anonymous, guardian-not-required or standard (repeatable)")
	f.StringArray("language", nil, "language spoken (repeatable)")
	f.StringArray("insurance", nil, "insurance accepted (repeatable)")
	f.Bool("telehealth", false, "require telehealth")
	f.Bool("anonymous", false, "require anonymous visits")
	f.Bool("no-guardian", false, "require no guardian consent")
	addLocationFlags(cmd)
}

func addLocationFlags(cmd *cobra.Command) {
	cmd.Flags().Float64("lat", 0, "user latitude")
	cmd.Flags().Float64("lon", 0, "user longitude")
}

// location returns the user's point, or nil when neither coordinate is set.
func location(cmd *cobra.Command) (*geo.Point, error) {
	flags := cmd.Flags()
	latSet, lonSet := flags.Changed("lat"), flags.Changed("lon")
	if !latSet && !lonSet {
		return nil, nil
	}
	if latSet != lonSet {
		return nil, fmt.Errorf("--lat and --lon must be given together")
	}
	lat, _ := flags.GetFloat64("lat")
	lon, _ := flags.GetFloat64("lon")
	return &geo.Point{Lat: lat, Lon: lon}, nil
}

func filterFromFlags(cmd *cobra.Command) (recommend.Filter, *geo.Point, error) {
	flags := cmd.Flags()
	user, err := location(cmd)
	if err != nil {
		return recommend.Filter{}, nil, err
	}

	var f recommend.Filter
	f.Search, _ = flags.GetString("search")
	f.City, _ = flags.GetString("city")
	f.Categories, _ = flags.GetStringArray("category")
	mode, _ := flags.GetString("category-mode")
	f.CategoryMode = recommend.CategoryMode(mode)
	unit, _ := flags.GetString("unit")
	f.DistanceUnit = recommend.DistanceUnit(unit)
	if flags.Changed("max-distance") {
		d, _ := flags.GetFloat64("max-distance")
		f.MaxDistance = &d
	}

	f.ClinicTypes = stringsAs[catalogue.ClinicType](flags.GetStringArray("clinic-type"))
	f.TreatmentFocus = stringsAs[catalogue.TreatmentFocus](flags.GetStringArray("focus"))
	f.PrivacyLevels = stringsAs[catalogue.PrivacyLevel](flags.GetStringArray("privacy"))
	f.Languages, _ = flags.GetStringArray("language")
	f.Insurance, _ = flags.GetStringArray("insurance")

	f.Telehealth = toggle(cmd, "telehealth")
	f.AllowsAnonymous = toggle(cmd, "anonymous")
	f.GuardianNotRequired = toggle(cmd, "no-guardian")
	return f, user, nil
}

// toggle maps an unset flag to nil so it imposes nothing.
func toggle(cmd *cobra.Command, name string) *bool {
	if !cmd.Flags().Changed(name) {
		return nil
	}
	v, _ := cmd.Flags().GetBool(name)
	return &v
}

func stringsAs[T ~string](values []string, _ error) []T {
	if len(values) == 0 {
		return nil
	}
	out := make([]T, len(values))
	for i, v := range values {
		out[i] = T(v)
	}
	return out
}

func inKm(miles *float64) *float64 {
	if miles == nil {
		return nil
	}
	km := geo.MilesToKm(*miles)
	return &km
}

func optional(v *float64, precision int) string {
	if v == nil {
		return "-"
	}
	return strconv.FormatFloat(*v, 'f', precision, 64)
}
