// Package core has core logic for planning and running flow metric reports.
package core

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/flowmosaic/mosaic/core/metric"
	"github.com/flowmosaic/mosaic/internal/contract"
	"github.com/flowmosaic/mosaic/internal/outwriter"
	"github.com/flowmosaic/mosaic/schema"
)

// ExecuteReport runs every configured query and prints the records.
// It serves as the main entry point for the 'report' command.
func ExecuteReport(ctx context.Context, cfg *contract.Config, client contract.TrackerClient, mgr contract.CacheManager, obs contract.Observer) error {
	start := time.Now()
	if _, err := PlanReport(cfg.Queries, cfg.Request); err != nil {
		return err
	}
	if !shouldSuppressHeader(ctx) {
		logReportHeader(cfg)
	}
	records, err := GetReportResults(ctx, cfg, client, mgr, obs)
	if err != nil {
		return err
	}
	return outwriter.PrintReport(records, RecordSentence, cfg, time.Since(start))
}

// GetReportResults runs the configured queries in declaration order.
// A failed search aborts the run; no partial report is returned.
func GetReportResults(ctx context.Context, cfg *contract.Config, client contract.TrackerClient, mgr contract.CacheManager, obs contract.Observer) ([]schema.ReportRecord, error) {
	if obs == nil {
		obs = contract.NopObserver
	}
	queries, err := PlanReport(cfg.Queries, cfg.Request)
	if err != nil {
		return nil, err
	}

	var records []schema.ReportRecord
	for _, q := range queries {
		recs, err := runQuery(ctx, cfg, client, mgr, obs, q)
		if err != nil {
			return nil, fmt.Errorf("query %s: %w", q.Name, err)
		}
		records = append(records, recs...)
	}
	return records, nil
}

// runQuery fetches the tickets for one query and reduces them to records.
func runQuery(ctx context.Context, cfg *contract.Config, client contract.TrackerClient, mgr contract.CacheManager, obs contract.Observer, q Query) ([]schema.ReportRecord, error) {
	req := cfg.Request
	vars := req.Vars()

	expr, err := FormatQuery(q.Completed, vars, req.QueryAppend)
	if err != nil {
		return nil, err
	}
	completed, err := cachedSearch(ctx, cfg, client, mgr, obs, q.Name, expr)
	if err != nil {
		return nil, err
	}

	var inFlight []schema.Ticket
	if req.Rolling && q.InFlight != "" {
		expr, err := FormatQuery(q.InFlight, vars, req.QueryAppend)
		if err != nil {
			return nil, err
		}
		// In-flight tickets change by the minute, so they always go to the tracker.
		if inFlight, err = search(ctx, client, obs, q.Name, expr); err != nil {
			return nil, err
		}
	}

	calc := metric.Calculator{
		Kind:     q.Metric,
		Grouping: q.Grouping,
		Query:    q.Name,
		Request:  req,
		Backlog:  cfg.BacklogStatuses,
		Observer: obs,
	}
	records := BuildRecords(q, req, calc.Run(completed, inFlight))
	obs.Observe(schema.Event{Kind: schema.QueryFinishedEvent, Query: q.Name, Count: len(records)})
	return records, nil
}

// logReportHeader prints a concise, 2-line header for the report.
func logReportHeader(cfg *contract.Config) {
	req := cfg.Request
	fmt.Printf("🔎 Project: %s (Queries: %s)\n", req.Project, strings.Join(cfg.Queries, ", "))
	rolling := ""
	if req.Rolling {
		rolling = " (rolling)"
	}
	fmt.Printf("📅 Range: %s → %s%s\n", req.BeginDate.Format(schema.DateFormat), req.EndDate.Format(schema.DateFormat), rolling)
}
