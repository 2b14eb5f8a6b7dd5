package tracker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"github.com/flowmosaic/mosaic/internal/contract"
	"github.com/flowmosaic/mosaic/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func issueJSON(key, epic string, histories string, total int) string {
	epicValue := "null"
	if epic != "" {
		epicValue = strconv.Quote(epic)
	}
	return fmt.Sprintf(`{
  "key": %q,
  "fields": {
    "created": "2024-01-01T09:00:00.000+0000",
    "resolutiondate": "2024-01-10T17:30:00.000+0000",
    "status": {"name": "Done", "statusCategory": {"key": "done"}},
    "priority": {"name": "Major"},
    "customfield_10006": %s
  },
  "changelog": {"startAt": 0, "maxResults": 100, "total": %d, "histories": [%s]}
}`, key, epicValue, total, histories)
}

const statusHistory = `{"created": "2024-01-03T11:00:00.000+0000", "items": [{"field": "status", "fromString": "To Do", "toString": "In Progress"}]}`

func newTestClient(srv *httptest.Server) *Client {
	return &Client{
		BaseURL:    srv.URL,
		HTTPClient: srv.Client(),
		EpicField:  "customfield_10006",
		PageSize:   2,
		Sleep:      func(time.Duration) {},
	}
}

func TestSearchPaginates(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		assert.Equal(t, searchPath, r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "project = OPS", q.Get("jql"))
		assert.Equal(t, "changelog", q.Get("expand"))
		assert.Contains(t, q.Get("fields"), "customfield_10006")

		switch q.Get("startAt") {
		case "0":
			_, _ = fmt.Fprintf(w, `{"startAt":0,"maxResults":2,"total":3,"issues":[%s,%s]}`,
				issueJSON("OPS-1", "EPIC-1", statusHistory, 1), issueJSON("OPS-2", "", "", 0))
		case "2":
			_, _ = fmt.Fprintf(w, `{"startAt":2,"maxResults":2,"total":3,"issues":[%s]}`,
				issueJSON("OPS-3", "", "", 0))
		default:
			t.Errorf("unexpected startAt %s", q.Get("startAt"))
		}
	}))
	defer srv.Close()

	tickets, err := newTestClient(srv).Search(context.Background(), "project = OPS")
	require.NoError(t, err)
	require.Len(t, tickets, 3)
	assert.Equal(t, int32(2), calls.Load())

	first := tickets[0]
	assert.Equal(t, "OPS-1", first.Key)
	assert.Equal(t, "EPIC-1", first.EpicLink)
	assert.Equal(t, "Major", first.Priority)
	assert.Equal(t, schema.DoneCategory, first.StatusCategory)
	require.NotNil(t, first.Resolved)
	assert.Equal(t, time.Date(2024, 1, 10, 17, 30, 0, 0, time.UTC), first.Resolved.UTC())
	require.Len(t, first.Changelog, 1)
	assert.Equal(t, schema.FieldChange{Field: "status", From: "To Do", To: "In Progress"}, first.Changelog[0].Items[0])

	assert.Empty(t, tickets[1].EpicLink, "null epic link maps to no epic")
}

func TestSearchFetchesTruncatedChangelog(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case searchPath:
			_, _ = fmt.Fprintf(w, `{"startAt":0,"maxResults":2,"total":1,"issues":[%s]}`,
				issueJSON("OPS-9", "", statusHistory, 3))
		case "/rest/api/2/issue/OPS-9/changelog":
			start := r.URL.Query().Get("startAt")
			switch start {
			case "0":
				_, _ = fmt.Fprintf(w, `{"startAt":0,"maxResults":2,"total":3,"isLast":false,"values":[%s,%s]}`, statusHistory, statusHistory)
			case "2":
				_, _ = fmt.Fprintf(w, `{"startAt":2,"maxResults":2,"total":3,"isLast":true,"values":[%s]}`, statusHistory)
			default:
				t.Errorf("unexpected changelog startAt %s", start)
			}
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))
	defer srv.Close()

	tickets, err := newTestClient(srv).Search(context.Background(), "project = OPS")
	require.NoError(t, err)
	require.Len(t, tickets, 1)
	assert.Len(t, tickets[0].Changelog, 3)
}

func TestSearchRetries429(t *testing.T) {
	var calls atomic.Int32
	var slept []time.Duration
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) == 1 {
			w.Header().Set("Retry-After", "3")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_, _ = w.Write([]byte(`{"startAt":0,"maxResults":2,"total":0,"issues":[]}`))
	}))
	defer srv.Close()

	c := newTestClient(srv)
	c.Sleep = func(d time.Duration) { slept = append(slept, d) }
	tickets, err := c.Search(context.Background(), "project = OPS")
	require.NoError(t, err)
	assert.Empty(t, tickets)
	assert.Equal(t, []time.Duration{3 * time.Second}, slept)
}

func TestSearchRateLimitExhausted(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Retry-After", "1")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	_, err := newTestClient(srv).Search(context.Background(), "project = OPS")
	var rle *RateLimitError
	require.True(t, errors.As(err, &rle))
	assert.Equal(t, 3, rle.Attempts)
}

func TestSearchHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"errorMessages":["bad jql"]}`))
	}))
	defer srv.Close()

	_, err := newTestClient(srv).Search(context.Background(), "project = ")
	var httpErr *HTTPError
	require.True(t, errors.As(err, &httpErr))
	assert.Equal(t, http.StatusBadRequest, httpErr.StatusCode)
	assert.Contains(t, httpErr.Body, "bad jql")
}

func TestAuthHeaders(t *testing.T) {
	var got []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = append(got, r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{"total":0,"issues":[]}`))
	}))
	defer srv.Close()

	basic := newTestClient(srv)
	basic.User, basic.Token = "me", "secret"
	_, err := basic.Search(context.Background(), "x")
	require.NoError(t, err)

	bearer := newTestClient(srv)
	bearer.Token = "pat"
	_, err = bearer.Search(context.Background(), "x")
	require.NoError(t, err)

	require.Len(t, got, 2)
	assert.Equal(t, "Basic bWU6c2VjcmV0", got[0])
	assert.Equal(t, "Bearer pat", got[1])
}

func TestMapTicketVariants(t *testing.T) {
	fields := json.RawMessage(`{
  "created": "2024-02-01T10:00:00+00:00",
  "resolutiondate": null,
  "status": {"name": "In Review", "statusCategory": {"key": "indeterminate"}},
  "priority": null,
  "customfield_10006": {"key": "EPIC-7"}
}`)
	ticket, err := mapTicket(wireIssue{Key: "OPS-5", Fields: fields}, nil, "customfield_10006")
	require.NoError(t, err)
	assert.Nil(t, ticket.Resolved)
	assert.Equal(t, schema.InProgressCategory, ticket.StatusCategory)
	assert.Empty(t, ticket.Priority)
	assert.Equal(t, "EPIC-7", ticket.EpicLink)
	assert.Equal(t, time.Date(2024, 2, 1, 10, 0, 0, 0, time.UTC), ticket.Created.UTC())

	_, err = mapTicket(wireIssue{Key: "OPS-6", Fields: json.RawMessage(`{"created": "yesterday"}`)}, nil, "")
	assert.Error(t, err)
}

func TestMapCategory(t *testing.T) {
	assert.Equal(t, schema.ToDoCategory, mapCategory("new"))
	assert.Equal(t, schema.InProgressCategory, mapCategory("indeterminate"))
	assert.Equal(t, schema.DoneCategory, mapCategory("DONE"))
	assert.Equal(t, schema.UnknownCategory, mapCategory("undefined"))
}

func TestRetryAfter(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, 5*time.Second, retryAfter("5", now))
	assert.Equal(t, 30*time.Second, retryAfter(now.Add(30*time.Second).Format(http.TimeFormat), now))
	assert.Equal(t, time.Duration(0), retryAfter(now.Add(-time.Minute).Format(http.TimeFormat), now))
	assert.Equal(t, time.Second, retryAfter("", now))
}

func TestNewRejectsMissingCert(t *testing.T) {
	_, err := New(Options{BaseURL: "https://jira.example.com", CertFile: "/nonexistent/ca.pem"})
	assert.Error(t, err)

	c, err := New(Options{BaseURL: "https://jira.example.com", PageSize: 50})
	require.NoError(t, err)
	assert.Equal(t, 50, c.pageSize())
	assert.Equal(t, defaultTimeout, c.HTTPClient.Timeout)
}

func TestFromConfig(t *testing.T) {
	cfg := &contract.Config{
		Server:    "https://jira.example.com",
		User:      "me",
		Token:     "secret",
		EpicField: "customfield_10014",
		PageSize:  25,
		Timeout:   5 * time.Second,
	}
	c, err := FromConfig(cfg, nil)
	require.NoError(t, err)
	assert.Equal(t, "https://jira.example.com", c.BaseURL)
	assert.Equal(t, "me", c.User)
	assert.Equal(t, "customfield_10014", c.EpicField)
	assert.Equal(t, 25, c.pageSize())
	assert.Equal(t, 5*time.Second, c.HTTPClient.Timeout)
}
