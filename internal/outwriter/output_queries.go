package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/flowmosaic/mosaic/schema"
	"github.com/olekukonko/tablewriter"
)

// writeQueriesText lists each query with its description.
func writeQueriesText(w io.Writer, infos []schema.QueryInfo) error {
	for _, info := range infos {
		if _, err := fmt.Fprintf(w, "%s: %s\n", info.Name, info.Description); err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, "   Metric: %s, grouping: %s, rolling: %s\n", info.Metric, info.Grouping, rollingLabel(info)); err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, "   Placeholders: %s\n", strings.Join(info.Placeholders, ", ")); err != nil {
			return err
		}
	}
	return nil
}

// rollingLabel summarizes how a query handles --rolling.
func rollingLabel(info schema.QueryInfo) string {
	switch {
	case !info.SupportsRolling:
		return "no"
	case info.IsolatedRolling:
		return "yes (any window)"
	default:
		return "yes (window must include today)"
	}
}

// writeQueriesTable renders the registry as a table.
func writeQueriesTable(w io.Writer, infos []schema.QueryInfo) error {
	table := tablewriter.NewWriter(w)
	table.Header([]string{"Name", "Metric", "Grouping", "Rolling", "Isolated", "Argument", "Placeholders"})

	var data [][]string
	for _, info := range infos {
		data = append(data, []string{
			info.Name,
			string(info.Metric),
			string(info.Grouping),
			strconv.FormatBool(info.SupportsRolling),
			strconv.FormatBool(info.IsolatedRolling),
			strconv.FormatBool(info.RequiresArgument),
			strings.Join(info.Placeholders, " "),
		})
	}
	if err := table.Bulk(data); err != nil {
		return err
	}
	return table.Render()
}

// writeQueriesCSV writes the registry in CSV format.
func writeQueriesCSV(w io.Writer, infos []schema.QueryInfo) error {
	header := []string{"name", "metric", "grouping", "supports_rolling", "isolated_rolling", "requires_argument", "placeholders"}
	return writeCSVWithHeader(w, header, func(cw *csv.Writer) error {
		for _, info := range infos {
			row := []string{
				info.Name,
				string(info.Metric),
				string(info.Grouping),
				strconv.FormatBool(info.SupportsRolling),
				strconv.FormatBool(info.IsolatedRolling),
				strconv.FormatBool(info.RequiresArgument),
				strings.Join(info.Placeholders, "|"),
			}
			if err := cw.Write(row); err != nil {
				return err
			}
		}
		return nil
	})
}
