package core

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/flowmosaic/mosaic/internal/contract"
	"github.com/flowmosaic/mosaic/internal/iocache"
	"github.com/flowmosaic/mosaic/internal/logging"
	"github.com/flowmosaic/mosaic/internal/tracker"
	"github.com/flowmosaic/mosaic/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func day(d int, hour int) time.Time {
	return time.Date(2024, 1, d, hour, 0, 0, 0, time.UTC)
}

func resolved(d int) *time.Time {
	t := day(d, 17)
	return &t
}

func statusChange(d int, from, to string) schema.HistoryEntry {
	return schema.HistoryEntry{Created: day(d, 11), Items: []schema.FieldChange{{Field: "status", From: from, To: to}}}
}

func completedTickets() []schema.Ticket {
	return []schema.Ticket{
		{Key: "A", Created: day(1, 9), Resolved: resolved(10), EpicLink: "EPIC-1",
			Changelog: []schema.HistoryEntry{statusChange(3, "To Do", "In Progress"), statusChange(10, "In Progress", "Done")}},
		{Key: "B", Created: day(2, 9), Resolved: resolved(12),
			Changelog: []schema.HistoryEntry{statusChange(12, "In Progress", "Done"), statusChange(2, "To Do", "In Progress")}},
	}
}

func testConfig(queries ...string) *contract.Config {
	return &contract.Config{
		Queries: queries,
		Server:  "https://jira.example.com",
		Request: schema.Request{
			Project:   "OPS",
			BeginDate: day(1, 0),
			EndDate:   day(15, 0),
			Types:     "bug, story, task",
			EndState:  "Done",
			Now:       day(15, 10),
		},
		CacheTTL: time.Hour,
	}
}

func noCache() *iocache.MockCacheManager {
	mgr := &iocache.MockCacheManager{}
	mgr.On("GetSearchStore").Return(nil)
	return mgr
}

func TestGetReportResultsScenario(t *testing.T) {
	client := &tracker.MockClient{}
	client.On("Search", mock.Anything, mock.AnythingOfType("string")).Return(completedTickets(), nil)
	rec := &logging.Recorder{}

	records, err := GetReportResults(context.Background(), testConfig("cycletime", "leadtime", "throughputbyepic"), client, noCache(), rec)
	require.NoError(t, err)
	require.Len(t, records, 4)

	assert.Equal(t, "cycletime", records[0].Query)
	assert.Equal(t, schema.ValueOf(8.5), records[0].Value)
	assert.Equal(t, 2, records[0].Count)
	assert.Equal(t, "2024-01-01", records[0].BeginDate)
	assert.Equal(t, "2024-01-15", records[0].EndDate)
	assert.Equal(t, "OPS", records[0].Project)

	assert.Equal(t, "leadtime", records[1].Query)
	assert.Equal(t, schema.ValueOf(9.5), records[1].Value)

	assert.Equal(t, "EPIC-1", records[2].Qualifier)
	assert.Equal(t, schema.ValueOf(1), records[2].Value)
	assert.Equal(t, schema.UnassignedEpic, records[3].Qualifier)
	assert.Equal(t, schema.ValueOf(1), records[3].Value)

	client.AssertNumberOfCalls(t, "Search", 3)
	finished := rec.OfKind(schema.QueryFinishedEvent)
	require.Len(t, finished, 3)
	assert.Equal(t, []string{"cycletime", "leadtime", "throughputbyepic"},
		[]string{finished[0].Query, finished[1].Query, finished[2].Query})
}

func TestGetReportResultsRolling(t *testing.T) {
	inFlight := []schema.Ticket{{
		Key:       "W",
		Created:   day(4, 9),
		Changelog: []schema.HistoryEntry{statusChange(5, "Next", "In Progress")},
	}}
	client := &tracker.MockClient{}
	client.On("Search", mock.Anything, mock.MatchedBy(func(expr string) bool {
		return strings.Contains(expr, "statusCategory = Done")
	})).Return(completedTickets(), nil).Once()
	client.On("Search", mock.Anything, mock.MatchedBy(func(expr string) bool {
		return strings.Contains(expr, `statusCategory = "In Progress"`)
	})).Return(inFlight, nil).Once()

	cfg := testConfig("cycletime")
	cfg.Request.Rolling = true
	records, err := GetReportResults(context.Background(), cfg, client, noCache(), nil)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.True(t, records[0].Rolling)
	assert.Equal(t, 3, records[0].Count)
	assert.Equal(t, schema.ValueOf(9), records[0].Value)
	client.AssertExpectations(t)
}

func reviewTickets() (completed, inFlight []schema.Ticket) {
	completed = []schema.Ticket{{
		Key: "R", Created: day(1, 9), Resolved: resolved(9),
		Changelog: []schema.HistoryEntry{statusChange(3, "In Progress", "Review"), statusChange(8, "Review", "Done")},
	}}
	// W left Review and came back; it is still there.
	inFlight = []schema.Ticket{{
		Key: "W", Created: day(1, 9),
		Changelog: []schema.HistoryEntry{
			statusChange(2, "In Progress", "Review"),
			statusChange(4, "Review", "In Progress"),
			statusChange(6, "In Progress", "Review"),
		},
	}}
	return completed, inFlight
}

func reviewClient(completed, inFlight []schema.Ticket) *tracker.MockClient {
	client := &tracker.MockClient{}
	client.On("Search", mock.Anything, mock.MatchedBy(func(expr string) bool {
		return strings.Contains(expr, "statusCategory = Done")
	})).Return(completed, nil).Once()
	client.On("Search", mock.Anything, mock.MatchedBy(func(expr string) bool {
		return strings.Contains(expr, `status = "Review"`)
	})).Return(inFlight, nil).Once()
	return client
}

func TestGetReportResultsRollingStatusDuration(t *testing.T) {
	client := reviewClient(reviewTickets())
	cfg := testConfig("statusduration")
	cfg.Request.Argument = "Review"
	cfg.Request.Rolling = true

	records, err := GetReportResults(context.Background(), cfg, client, noCache(), nil)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "Review", records[0].Qualifier)
	assert.True(t, records[0].Rolling)
	// R spent 5 days in Review; W has been there since day 2, so 13 days by the 15th.
	assert.Equal(t, 2, records[0].Count)
	assert.Equal(t, schema.ValueOf(9), records[0].Value)
	client.AssertExpectations(t)
}

func TestGetReportResultsIsolatedRolling(t *testing.T) {
	client := reviewClient(reviewTickets())
	cfg := testConfig("statusduration")
	cfg.Request.Argument = "Review"
	cfg.Request.Rolling = true
	cfg.Request.Now = day(31, 10) // window ended two weeks ago

	records, err := GetReportResults(context.Background(), cfg, client, noCache(), nil)
	require.NoError(t, err)
	require.Len(t, records, 1)
	// (5 + 29) / 2: the open span still runs to now, not the window end.
	assert.Equal(t, 2, records[0].Count)
	assert.Equal(t, schema.ValueOf(17), records[0].Value)
	client.AssertExpectations(t)
}

func TestGetReportResultsNoTickets(t *testing.T) {
	client := &tracker.MockClient{}
	client.On("Search", mock.Anything, mock.Anything).Return([]schema.Ticket{}, nil)

	records, err := GetReportResults(context.Background(), testConfig("cycletime", "throughput"), client, noCache(), nil)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.True(t, records[0].Value.IsUndefined(), "no contributing tickets is undefined")
	assert.Equal(t, schema.ValueOf(0), records[1].Value, "a zero count is still a count")
}

func TestConfigErrorsRunNoSearch(t *testing.T) {
	tests := []struct {
		name  string
		cfg   func() *contract.Config
		param string
	}{
		{"rolling leadtime", func() *contract.Config {
			cfg := testConfig("cycletime", "leadtime")
			cfg.Request.Rolling = true
			return cfg
		}, "rolling"},
		{"unknown query", func() *contract.Config { return testConfig("throughput", "velocity") }, "query"},
		{"window excludes today", func() *contract.Config {
			cfg := testConfig("cycletime")
			cfg.Request.Rolling = true
			cfg.Request.Now = day(31, 10)
			return cfg
		}, "rolling"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := &tracker.MockClient{}
			mgr := &iocache.MockCacheManager{}
			_, err := GetReportResults(context.Background(), tt.cfg(), client, mgr, nil)
			var cfgErr *contract.ConfigError
			require.True(t, errors.As(err, &cfgErr))
			assert.Equal(t, tt.param, cfgErr.Param)
			client.AssertNotCalled(t, "Search", mock.Anything, mock.Anything)
			mgr.AssertNotCalled(t, "GetSearchStore")
		})
	}
}

func TestSearchFailureAbortsRun(t *testing.T) {
	boom := errors.New("connection reset")
	client := &tracker.MockClient{}
	client.On("Search", mock.Anything, mock.Anything).Return(completedTickets(), nil).Once()
	client.On("Search", mock.Anything, mock.Anything).Return(nil, boom).Once()

	records, err := GetReportResults(context.Background(), testConfig("leadtime", "cycletime"), client, noCache(), nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "query cycletime")
	assert.Nil(t, records)
}

func TestExecuteReportJSON(t *testing.T) {
	client := &tracker.MockClient{}
	client.On("Search", mock.Anything, mock.Anything).Return(completedTickets(), nil)

	cfg := testConfig("leadtime")
	cfg.Output = schema.JSONOut
	cfg.OutputFile = t.TempDir() + "/report.json"
	err := ExecuteReport(WithSuppressHeader(context.Background()), cfg, client, noCache(), nil)
	require.NoError(t, err)
}
