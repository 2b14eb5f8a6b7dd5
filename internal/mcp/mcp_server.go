// Package mcp provides the Model Context Protocol (MCP) server implementation.
package mcp

import (
	"context"

	"github.com/flowmosaic/mosaic/internal/contract"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/sirupsen/logrus"
)

// ClientFactory builds a tracker client for one tool call.
type ClientFactory func(cfg *contract.Config, log *logrus.Entry) (contract.TrackerClient, error)

// NewMCPServer initializes and configures the mosaic MCP server without starting it.
// This is exposed for unit testing.
func NewMCPServer(baseCfg *contract.Config, mgr contract.CacheManager, newClient ClientFactory, logger *logrus.Logger) *server.MCPServer {
	s := server.NewMCPServer(
		"Mosaic Flow Metrics Server",
		"1.0.0",
		server.WithLogging(),
	)

	h := &toolHandler{
		baseCfg:   baseCfg,
		mgr:       mgr,
		newClient: newClient,
		logger:    logger,
	}

	s.AddTool(mcp.NewTool("list_queries",
		mcp.WithDescription("List the flow metric queries mosaic can run, with their grouping, rolling support and required placeholders."),
	), h.handleListQueries)

	s.AddTool(mcp.NewTool("run_report",
		mcp.WithDescription("Compute flow metrics (lead time, cycle time, status duration, throughput) for tracker tickets."),
		mcp.WithString("queries", mcp.Description("Comma-separated query names, e.g. 'leadtime,throughputbyepic'."), mcp.Required()),
		mcp.WithString("project", mcp.Description("Tracker project key (defaults to the configured project).")),
		mcp.WithString("begin_date", mcp.Description("Window start as YYYY-MM-DD.")),
		mcp.WithString("end_date", mcp.Description("Window end as YYYY-MM-DD.")),
		mcp.WithString("argument", mcp.Description("Status name or priority for queries that require one.")),
		mcp.WithBoolean("rolling", mcp.Description("Include in-flight tickets measured up to now.")),
	), h.handleRunReport)

	return s
}

// StartMCPServer starts the mosaic MCP server over stdio.
func StartMCPServer(_ context.Context, baseCfg *contract.Config, mgr contract.CacheManager, newClient ClientFactory, logger *logrus.Logger) error {
	s := NewMCPServer(baseCfg, mgr, newClient, logger)
	return server.ServeStdio(s)
}
