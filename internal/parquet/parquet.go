// Package parquet exports flow metric reports to Parquet files
// using github.com/parquet-go/parquet-go.
package parquet

import (
	"fmt"
	"os"
	"time"

	"github.com/flowmosaic/mosaic/schema"
	"github.com/parquet-go/parquet-go"
)

// ReportRow is one report record in columnar form.
type ReportRow struct {
	// Query is the registry name of the query that produced the row
	Query string `parquet:"query,snappy,dict"`

	// Project is the tracker project key
	Project string `parquet:"project,snappy,dict"`

	// BeginDate and EndDate bound the reporting window (YYYY-MM-DD)
	BeginDate string `parquet:"begin_date,snappy"`
	EndDate   string `parquet:"end_date,snappy"`

	// Qualifier is the epic key, status, or priority the row is grouped by (empty when ungrouped)
	Qualifier string `parquet:"qualifier,snappy"`

	// Value is the metric in days or tickets (null when no ticket contributed)
	Value *float64 `parquet:"value,optional,snappy"`

	// Count is the number of contributing tickets
	Count int32 `parquet:"count,snappy"`

	// Rolling marks rows that include in-flight tickets measured up to now
	Rolling bool `parquet:"rolling"`

	// GeneratedAt is when the report was produced (stored as TIMESTAMP with nanosecond precision)
	GeneratedAt time.Time `parquet:"generated_at,snappy"`
}

// ConvertReportRecords converts report records to Parquet rows stamped with generatedAt.
func ConvertReportRecords(records []schema.ReportRecord, generatedAt time.Time) []ReportRow {
	rows := make([]ReportRow, len(records))
	for i, r := range records {
		rows[i] = ReportRow{
			Query:       r.Query,
			Project:     r.Project,
			BeginDate:   r.BeginDate,
			EndDate:     r.EndDate,
			Qualifier:   r.Qualifier,
			Count:       int32(r.Count),
			Rolling:     r.Rolling,
			GeneratedAt: generatedAt,
		}
		if r.Value.IsValue() {
			v := r.Value.Value
			rows[i].Value = &v
		}
	}
	return rows
}

// WriteReportParquet writes report rows to a Parquet file.
func WriteReportParquet(rows []ReportRow, outputPath string) error {
	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer func() { _ = file.Close() }()

	// The schema is derived from the ReportRow struct tags
	writer := parquet.NewGenericWriter[ReportRow](file)
	if _, err := writer.Write(rows); err != nil {
		_ = writer.Close()
		return fmt.Errorf("failed to write data to parquet file: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to finalize parquet file: %w", err)
	}
	return nil
}
