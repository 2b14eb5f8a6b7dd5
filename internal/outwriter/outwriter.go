// Package outwriter has output and writer logic.
package outwriter

import (
	"fmt"
	"io"
	"time"

	"github.com/flowmosaic/mosaic/internal/contract"
	"github.com/flowmosaic/mosaic/internal/parquet"
	"github.com/flowmosaic/mosaic/schema"
)

// SentenceFunc renders the text-mode sentence for a record given its formatted value.
type SentenceFunc func(rec schema.ReportRecord, value string) string

// PrintReport outputs report records, dispatching on the configured output mode.
func PrintReport(records []schema.ReportRecord, sentence SentenceFunc, cfg *contract.Config, duration time.Duration) error {
	fmtFloat, intFmt := createFormatters(cfg.Precision)

	switch cfg.Output {
	case schema.JSONOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, records)
		}, "Wrote JSON")
	case schema.CSVOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeReportCSV(w, records, fmtFloat, intFmt)
		}, "Wrote CSV")
	case schema.YAMLOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeReportYAML(w, records)
		}, "Wrote YAML")
	case schema.ParquetOut:
		return writeReportParquet(records, cfg.OutputFile)
	case schema.TableOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeReportTable(w, records, cfg, fmtFloat, intFmt, duration)
		}, "Wrote table")
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeReportText(w, records, sentence, fmtFloat)
		}, "Wrote text")
	}
}

// PrintQueries outputs the query registry, dispatching on the configured output mode.
func PrintQueries(infos []schema.QueryInfo, cfg *contract.Config) error {
	switch cfg.Output {
	case schema.JSONOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, infos)
		}, "Wrote JSON")
	case schema.CSVOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeQueriesCSV(w, infos)
		}, "Wrote CSV")
	case schema.YAMLOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeYAMLDocuments(w, []any{infos})
		}, "Wrote YAML")
	case schema.ParquetOut:
		return fmt.Errorf("parquet output is only available for reports")
	case schema.TableOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeQueriesTable(w, infos)
		}, "Wrote table")
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeQueriesText(w, infos)
		}, "Wrote text")
	}
}

// writeReportParquet writes the records as Parquet rows stamped with the current time.
func writeReportParquet(records []schema.ReportRecord, outputFile string) error {
	if outputFile == "" {
		return fmt.Errorf("parquet output requires an output file")
	}
	if err := parquet.WriteReportParquet(parquet.ConvertReportRecords(records, time.Now()), outputFile); err != nil {
		return fmt.Errorf("error writing Parquet output: %w", err)
	}
	writeNote("Wrote Parquet", outputFile)
	return nil
}
