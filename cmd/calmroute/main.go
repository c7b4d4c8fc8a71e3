// Package main provides calmroute, an operator CLI that runs catalogue,
// recommendation and routing queries against a local or remote catalogue.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/calmroute/calmroute/internal/app"
	"github.com/calmroute/calmroute/internal/config"
)

// Version is set at compile time via ldflags.
var Version = "dev"

var (
	cfg    *config.Config
	logger zerolog.Logger
)

var rootCmd = &cobra.Command{
	Use:           "calmroute",
	Short:         "Query the mental-health program catalogue and route burden engine",
	Long:          "Loads the program catalogue and answers the same queries as the API: filtered listings, ranked recommendations, low-stress routes, load forecasts and exposome grids.",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		path, _ := cmd.Flags().GetString("config")
		c, err := config.Load(path)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		if catalogue, _ := cmd.Flags().GetString("catalogue"); catalogue != "" {
			c.Catalogue.Path = catalogue
			c.Catalogue.URL = ""
		}
		cfg = c
		logger = config.NewLoggerTo(cmd.ErrOrStderr(), cfg.Log, "calmroute", Version)
		return nil
	},
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.String("config", os.Getenv("CALMROUTE_CONFIG"), "path to a YAML config file")
	pf.String("catalogue", "", "catalogue JSON file (overrides the configured source)")
}

// assemble builds the engine and loads the catalogue.
func assemble(cmd *cobra.Command) (*app.App, error) {
	a, err := app.New(cfg, logger)
	if err != nil {
		return nil, err
	}
	if err := a.LoadCatalogue(cmd.Context()); err != nil {
		return nil, fmt.Errorf("load catalogue: %w", err)
	}
	return a, nil
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
