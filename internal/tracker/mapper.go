package tracker

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/flowmosaic/mosaic/schema"
)

// timestampLayout is how Jira renders timestamps in REST v2.
const timestampLayout = "2006-01-02T15:04:05.000-0700"

type searchPage struct {
	StartAt    int         `json:"startAt"`
	MaxResults int         `json:"maxResults"`
	Total      int         `json:"total"`
	Issues     []wireIssue `json:"issues"`
}

type wireIssue struct {
	Key       string          `json:"key"`
	Fields    json.RawMessage `json:"fields"`
	Changelog wireChangelog   `json:"changelog"`
}

type wireChangelog struct {
	StartAt    int           `json:"startAt"`
	MaxResults int           `json:"maxResults"`
	Total      int           `json:"total"`
	Histories  []wireHistory `json:"histories"`
}

type changelogPage struct {
	StartAt    int           `json:"startAt"`
	MaxResults int           `json:"maxResults"`
	Total      int           `json:"total"`
	IsLast     bool          `json:"isLast"`
	Values     []wireHistory `json:"values"`
}

type wireHistory struct {
	Created string     `json:"created"`
	Items   []wireItem `json:"items"`
}

type wireItem struct {
	Field      string `json:"field"`
	FromString string `json:"fromString"`
	ToString   string `json:"toString"`
}

type wireFields struct {
	Created        string  `json:"created"`
	ResolutionDate *string `json:"resolutiondate"`
	Status         *struct {
		Name           string `json:"name"`
		StatusCategory struct {
			Key string `json:"key"`
		} `json:"statusCategory"`
	} `json:"status"`
	Priority *struct {
		Name string `json:"name"`
	} `json:"priority"`
}

// mapTicket converts one wire issue and its complete histories into a Ticket.
func mapTicket(issue wireIssue, histories []wireHistory, epicField string) (schema.Ticket, error) {
	var f wireFields
	if len(issue.Fields) > 0 {
		if err := json.Unmarshal(issue.Fields, &f); err != nil {
			return schema.Ticket{}, fmt.Errorf("decode fields: %w", err)
		}
	}
	t := schema.Ticket{Key: issue.Key, StatusCategory: schema.UnknownCategory}

	created, err := parseTimestamp(f.Created)
	if err != nil {
		return schema.Ticket{}, fmt.Errorf("created: %w", err)
	}
	t.Created = created
	if f.ResolutionDate != nil && *f.ResolutionDate != "" {
		resolved, err := parseTimestamp(*f.ResolutionDate)
		if err != nil {
			return schema.Ticket{}, fmt.Errorf("resolutiondate: %w", err)
		}
		t.Resolved = &resolved
	}
	if f.Status != nil {
		t.Status = f.Status.Name
		t.StatusCategory = mapCategory(f.Status.StatusCategory.Key)
	}
	if f.Priority != nil {
		t.Priority = f.Priority.Name
	}
	if epicField != "" {
		t.EpicLink = epicLink(issue.Fields, epicField)
	}

	for _, h := range histories {
		at, err := parseTimestamp(h.Created)
		if err != nil {
			return schema.Ticket{}, fmt.Errorf("history: %w", err)
		}
		entry := schema.HistoryEntry{Created: at}
		for _, it := range h.Items {
			entry.Items = append(entry.Items, schema.FieldChange{Field: it.Field, From: it.FromString, To: it.ToString})
		}
		t.Changelog = append(t.Changelog, entry)
	}
	return t, nil
}

// epicLink reads the epic field as a plain key or an object carrying one.
// Absent, null or unreadable values mean no epic.
func epicLink(fields json.RawMessage, epicField string) string {
	var all map[string]json.RawMessage
	if err := json.Unmarshal(fields, &all); err != nil {
		return ""
	}
	raw, ok := all[epicField]
	if !ok {
		return ""
	}
	var key string
	if err := json.Unmarshal(raw, &key); err == nil {
		return strings.TrimSpace(key)
	}
	var obj struct {
		Key string `json:"key"`
	}
	if err := json.Unmarshal(raw, &obj); err == nil {
		return strings.TrimSpace(obj.Key)
	}
	return ""
}

func mapCategory(key string) schema.StatusCategory {
	switch strings.ToLower(key) {
	case "new":
		return schema.ToDoCategory
	case "indeterminate":
		return schema.InProgressCategory
	case "done":
		return schema.DoneCategory
	default:
		return schema.UnknownCategory
	}
}

func parseTimestamp(s string) (time.Time, error) {
	if t, err := time.Parse(timestampLayout, s); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, s)
}
