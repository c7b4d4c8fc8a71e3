package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/calmroute/calmroute/internal/load"
)

var loadCmd = &cobra.Command{
	Use:     "load <program-id>",
	Short:   "Forecast a program's load and its next quiet hour",
	Example: "  calmroute load 12 --at 2026-03-02T08:10:00-08:00 --threshold 0.4",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var id int64
		if _, err := fmt.Sscan(args[0], &id); err != nil {
			return fmt.Errorf("program id %q is not an integer", args[0])
		}

		at := time.Now()
		if s, _ := cmd.Flags().GetString("at"); s != "" {
			var err error
			if at, err = time.Parse(time.RFC3339, s); err != nil {
				return fmt.Errorf("--at: %w", err)
			}
		}
		threshold, _ := cmd.Flags().GetFloat64("threshold")
		if threshold < 0 || threshold > 1 {
			return fmt.Errorf("--threshold must be in [0, 1], got %v", threshold)
		}

		a, err := assemble(cmd)
		if err != nil {
			return err
		}
		cat := a.Store.Catalogue()

		current, err := a.Engine.LoadAt(cat, id, at)
		if err != nil {
			return err
		}
		wait, ok, err := a.Engine.NextLowLoad(cat, id, at, threshold)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "load at %s: %.2f\n", at.Format("Mon 15:04"), current)
		if !ok {
			fmt.Fprintf(out, "no hour below %.2f in the next day\n", threshold)
			return nil
		}
		fmt.Fprintf(out, "next below %.2f: %s (in %dh%02dm)\n", threshold, wait.At.Format("Mon 15:04"), wait.Hours, wait.Minutes)
		return nil
	},
}

var loadsCmd = &cobra.Command{
	Use:   "loads",
	Short: "Print a synthesized hourly load table for every catalogue program",
	Long: `Print a synthesized hourly load table for every catalogue program.

The output is the JSON form load.path reads, so it can seed a table that is
then edited by hand.`,
	Example: "  calmroute loads > loads.json",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		a, err := assemble(cmd)
		if err != nil {
			return err
		}
		return writeJSON(cmd.OutOrStdout(), a.Engine.SynthesizeLoads(a.Store.Catalogue()))
	},
}

func init() {
	loadCmd.Flags().String("at", "", "RFC3339 time to forecast (default now)")
	loadCmd.Flags().Float64("threshold", load.DefaultThreshold, "load below which an hour counts as quiet")

	rootCmd.AddCommand(loadCmd, loadsCmd)
}
