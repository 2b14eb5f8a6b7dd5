package cmd

import (
	"github.com/flowmosaic/mosaic/core"
	"github.com/flowmosaic/mosaic/internal/contract"
	"github.com/flowmosaic/mosaic/internal/outwriter"
	"github.com/spf13/cobra"
)

// queriesCmd lists the query registry.
var queriesCmd = &cobra.Command{
	Use:   "queries",
	Short: "List the queries a report can run.",
	Long: `Show every registered query with its metric, grouping, rolling support
and the search placeholders it needs.

Examples:
  mosaic queries
  mosaic queries --output json`,
	PreRunE: func(_ *cobra.Command, _ []string) error {
		return configSetup(nil)
	},
	Run: func(_ *cobra.Command, _ []string) {
		if err := outwriter.PrintQueries(core.ListQueries(), cfg); err != nil {
			contract.LogFatal("Cannot list queries", err)
		}
	},
}
