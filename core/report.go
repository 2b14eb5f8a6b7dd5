package core

import "github.com/flowmosaic/mosaic/schema"

// BuildRecords stamps each group summary with the request metadata.
func BuildRecords(q Query, req schema.Request, groups []schema.GroupSummary) []schema.ReportRecord {
	records := make([]schema.ReportRecord, 0, len(groups))
	for _, g := range groups {
		records = append(records, schema.ReportRecord{
			Query:     q.Name,
			Project:   req.Project,
			BeginDate: req.BeginDate.Format(schema.DateFormat),
			EndDate:   req.EndDate.Format(schema.DateFormat),
			Qualifier: g.Qualifier,
			Value:     g.Result,
			Count:     g.Count,
			Rolling:   req.Rolling && q.SupportsRolling,
		})
	}
	return records
}

// RecordSentence renders the text-mode sentence of one record with a preformatted value.
// Unknown queries fall back to the record's compact form.
func RecordSentence(rec schema.ReportRecord, value string) string {
	q, ok := Lookup(rec.Query)
	if !ok {
		return rec.String()
	}
	return RenderSentence(q.Sentence, map[string]string{
		"project":    rec.Project,
		"begin_date": rec.BeginDate,
		"end_date":   rec.EndDate,
		"qualifier":  rec.Qualifier,
		"value":      value,
	})
}
