package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/calmroute/calmroute/internal/app"
)

var catalogueCmd = &cobra.Command{
	Use:   "catalogue",
	Short: "Inspect the configured catalogue source",
}

var catalogueCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Fetch and normalise the catalogue, then report what a refresh would install",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		a, err := app.New(cfg, logger)
		if err != nil {
			return err
		}

		result := a.RefreshJob().DryRun(cmd.Context())
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "source:     %s\n", result.Source)
		fmt.Fprintf(out, "records:    %d\n", result.Report.Total)
		fmt.Fprintf(out, "loaded:     %d\n", result.Report.Loaded)
		fmt.Fprintf(out, "dropped:    %d\n", result.Report.Dropped)
		fmt.Fprintf(out, "duplicates: %d\n", result.Report.Duplicates)
		fmt.Fprintf(out, "took:       %s\n", result.Duration.Round(time.Millisecond))
		if result.Err != nil {
			return fmt.Errorf("catalogue rejected: %w", result.Err)
		}
		fmt.Fprintln(out, "ok")
		return nil
	},
}

func init() {
	catalogueCmd.AddCommand(catalogueCheckCmd)
	rootCmd.AddCommand(catalogueCmd)
}
