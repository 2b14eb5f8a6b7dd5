package cmd

import (
	"os"

	"github.com/flowmosaic/mosaic/internal/contract"
	"github.com/flowmosaic/mosaic/internal/logging"
	"github.com/flowmosaic/mosaic/internal/mcp"
	"github.com/flowmosaic/mosaic/internal/tracker"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// mcpCmd represents the mcp command.
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the mosaic MCP server",
	Long: `Launch an MCP server on stdio so AI agents can list queries and run flow metric reports.

Flags and config set the defaults; each tool call may override the queries,
project, dates, argument and rolling mode.`,
	PreRunE: sharedSetupWrapper,
	RunE: func(_ *cobra.Command, _ []string) error {
		// stdout carries the protocol, so logs go to stderr only
		logger := logging.NewLogger(cfg.LogLevel, cfg.LogFormat, os.Stderr)
		return mcp.StartMCPServer(rootCtx, cfg, cacheManager, newTrackerClient, logger)
	},
}

// newTrackerClient adapts tracker.FromConfig to mcp.ClientFactory.
func newTrackerClient(cfg *contract.Config, log *logrus.Entry) (contract.TrackerClient, error) {
	return tracker.FromConfig(cfg, log)
}
