package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/flowmosaic/mosaic/core"
	"github.com/flowmosaic/mosaic/internal/contract"
	"github.com/flowmosaic/mosaic/internal/logging"
	"github.com/flowmosaic/mosaic/schema"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/sirupsen/logrus"
)

// toolHandler holds common dependencies for MCP tool handlers.
type toolHandler struct {
	baseCfg   *contract.Config
	mgr       contract.CacheManager
	newClient ClientFactory
	logger    *logrus.Logger
	now       func() time.Time // nil means time.Now
}

func (h *toolHandler) clock() time.Time {
	if h.now != nil {
		return h.now()
	}
	return time.Now()
}

func (h *toolHandler) handleListQueries(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	jsonData, _ := json.MarshalIndent(core.ListQueries(), "", "  ")
	return mcp.NewToolResultText(string(jsonData)), nil
}

func (h *toolHandler) handleRunReport(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cfg := h.baseCfg.Clone()
	overrides := contract.RequestOverrides{
		Queries:  contract.SplitList(request.GetString("queries", "")),
		Project:  request.GetString("project", ""),
		Begin:    request.GetString("begin_date", ""),
		End:      request.GetString("end_date", ""),
		Argument: request.GetString("argument", ""),
	}
	if args := request.GetArguments(); args != nil {
		if _, ok := args["rolling"]; ok {
			rolling := request.GetBool("rolling", false)
			overrides.Rolling = &rolling
		}
	}

	if err := contract.RevalidateRequest(cfg, overrides, h.clock()); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid report parameters: %v", err)), nil
	}
	if _, err := core.PlanReport(cfg.Queries, cfg.Request); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid report parameters: %v", err)), nil
	}
	if err := contract.ValidateTrackerConfig(cfg); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("tracker is not configured: %v", err)), nil
	}

	obs := logging.NewObserver(h.logger)
	client, err := h.newClient(cfg, obs.Entry())
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("tracker client failed: %v", err)), nil
	}

	records, err := core.GetReportResults(core.WithSuppressHeader(ctx), cfg, client, h.mgr, obs)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("report failed: %v", err)), nil
	}

	if records == nil {
		records = []schema.ReportRecord{}
	}
	jsonData, _ := json.MarshalIndent(records, "", "  ")
	return mcp.NewToolResultText(string(jsonData)), nil
}
