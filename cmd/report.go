package cmd

import (
	"os"

	"github.com/flowmosaic/mosaic/core"
	"github.com/flowmosaic/mosaic/internal/contract"
	"github.com/flowmosaic/mosaic/internal/logging"
	"github.com/flowmosaic/mosaic/internal/tracker"
	"github.com/flowmosaic/mosaic/schema"
	"github.com/spf13/cobra"
)

// reportCmd computes flow metrics for the selected queries.
var reportCmd = &cobra.Command{
	Use:   "report [query...]",
	Short: "Compute flow metrics for one or more queries.",
	Long: `Search the tracker for tickets of a project and reduce their changelogs to flow metrics.

Queries name a metric and a grouping; run 'mosaic queries' to list them.
Completed searches are cached; in-flight searches for --rolling never are.

Examples:
  # Average lead time over the last two weeks
  mosaic report leadtime -p OPS -s https://jira.example.com

  # Throughput per epic for March
  mosaic report -q throughputbyepic -p OPS -b 2024-03-01 -e 2024-03-31

  # Time spent in Review, including tickets still sitting there
  mosaic report statusduration -a Review --rolling

  # Export every cycle time variant to Parquet
  mosaic report cycletime,cycletimebyepic --output parquet --output-file cycle.parquet`,
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := contract.ValidateTrackerConfig(cfg); err != nil {
			contract.LogFatal("Cannot reach tracker", err)
		}

		logger := logging.NewLogger(cfg.LogLevel, cfg.LogFormat, os.Stderr)
		obs := logging.NewObserver(logger)
		client, err := tracker.FromConfig(cfg, obs.Entry())
		if err != nil {
			contract.LogFatal("Cannot create tracker client", err)
		}

		// Machine-readable output stays free of the human header
		ctx := rootCtx
		if cfg.Output != schema.TextOut && cfg.Output != schema.TableOut {
			ctx = core.WithSuppressHeader(ctx)
		}
		if err := core.ExecuteReport(ctx, cfg, client, cacheManager, obs); err != nil {
			contract.LogFatal("Cannot run report", err)
		}
	},
}
