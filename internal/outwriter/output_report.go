package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/flowmosaic/mosaic/internal/contract"
	"github.com/flowmosaic/mosaic/schema"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

// reportCSVHeader is the column order of CSV reports.
var reportCSVHeader = []string{"begin_date", "end_date", "value", "project", "qualifier", "rolling", "query", "count"}

// formatValue renders a result with the configured precision, or "NaN" when there is none.
func formatValue(r schema.Result, fmtFloat func(float64) string) string {
	if !r.IsValue() {
		return "NaN"
	}
	return fmtFloat(r.Value)
}

// writeNote prints the stderr note that follows a file write.
func writeNote(msg, outputFile string) {
	_, _ = fmt.Fprintf(os.Stderr, "💾 %s to %s\n", msg, outputFile)
}

// writeReportText prints one sentence per record.
func writeReportText(w io.Writer, records []schema.ReportRecord, sentence SentenceFunc, fmtFloat func(float64) string) error {
	for _, rec := range records {
		var line string
		if rec.Value.IsValue() {
			line = sentence(rec, contract.ValueColor.Sprint(fmtFloat(rec.Value.Value)))
		} else {
			line = noIssuesSentence(rec)
		}
		if rec.Rolling {
			line += " (rolling)"
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

// noIssuesSentence is the text line for a record nothing contributed to.
func noIssuesSentence(rec schema.ReportRecord) string {
	target := rec.Query
	if rec.Qualifier != "" {
		target += " " + contract.QualifierColor.Sprint(rec.Qualifier)
	}
	return fmt.Sprintf("Between %s and %s, %s contributed to %s.",
		rec.BeginDate, rec.EndDate, contract.UndefinedColor.Sprint("no issues"), target)
}

// writeReportTable generates and writes the human-readable table.
func writeReportTable(w io.Writer, records []schema.ReportRecord, cfg *contract.Config, fmtFloat func(float64) string, intFmt string, duration time.Duration) error {
	table := tablewriter.NewWriter(w)
	table.Header([]string{"Query", "Qualifier", "Value", "Count", "Begin", "End", "Rolling"})
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
	})

	maxQualifier := getMaxQualifierWidth(cfg)
	var data [][]string
	for _, rec := range records {
		value := contract.UndefinedColor.Sprint("NaN")
		if rec.Value.IsValue() {
			value = contract.ValueColor.Sprint(fmtFloat(rec.Value.Value))
		}
		data = append(data, []string{
			rec.Query,
			contract.QualifierColor.Sprint(contract.TruncateText(rec.Qualifier, maxQualifier)),
			value,
			fmt.Sprintf(intFmt, rec.Count),
			rec.BeginDate,
			rec.EndDate,
			strconv.FormatBool(rec.Rolling),
		})
	}

	if err := table.Bulk(data); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "Report completed in %v with %d records. Cache backend: %s\n", duration, len(records), cfg.CacheBackend)
	return err
}

// writeReportCSV writes the records in CSV format.
func writeReportCSV(w io.Writer, records []schema.ReportRecord, fmtFloat func(float64) string, intFmt string) error {
	return writeCSVWithHeader(w, reportCSVHeader, func(cw *csv.Writer) error {
		for _, rec := range records {
			row := []string{
				rec.BeginDate,
				rec.EndDate,
				formatValue(rec.Value, fmtFloat),
				rec.Project,
				rec.Qualifier,
				strconv.FormatBool(rec.Rolling),
				rec.Query,
				fmt.Sprintf(intFmt, rec.Count),
			}
			if err := cw.Write(row); err != nil {
				return err
			}
		}
		return nil
	})
}

// yamlReport is one YAML document: every record of a single query.
type yamlReport struct {
	Query   string                `yaml:"query"`
	Records []schema.ReportRecord `yaml:"records"`
}

// writeReportYAML writes one document per query, in first-seen order.
func writeReportYAML(w io.Writer, records []schema.ReportRecord) error {
	var docs []any
	index := map[string]int{}
	var reports []*yamlReport
	for _, rec := range records {
		i, ok := index[rec.Query]
		if !ok {
			i = len(reports)
			index[rec.Query] = i
			reports = append(reports, &yamlReport{Query: rec.Query})
		}
		reports[i].Records = append(reports[i].Records, rec)
	}
	for _, r := range reports {
		docs = append(docs, r)
	}
	return writeYAMLDocuments(w, docs)
}
