package tracker

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"

	"github.com/flowmosaic/mosaic/internal/contract"
	"github.com/flowmosaic/mosaic/schema"
)

const (
	searchPath    = "/rest/api/2/search"
	changelogPath = "/rest/api/2/issue/%s/changelog"
)

var _ contract.TrackerClient = &Client{} // Compile-time check

// Search returns every ticket matching expr, paging until the result set is exhausted.
// Histories the search response truncates are completed from the changelog endpoint.
func (c *Client) Search(ctx context.Context, expr string) ([]schema.Ticket, error) {
	pageSize := c.pageSize()
	fields := "created,resolutiondate,status,priority"
	if c.EpicField != "" {
		fields += "," + c.EpicField
	}

	startAt := 0
	seenStart := map[int]struct{}{}
	var tickets []schema.Ticket
	for {
		if _, ok := seenStart[startAt]; ok {
			return nil, errors.New("search pagination repeated startAt; aborting")
		}
		seenStart[startAt] = struct{}{}

		var page searchPage
		err := c.getJSON(ctx, searchPath, url.Values{
			"jql":        {expr},
			"startAt":    {strconv.Itoa(startAt)},
			"maxResults": {strconv.Itoa(pageSize)},
			"expand":     {"changelog"},
			"fields":     {fields},
		}, &page)
		if err != nil {
			return nil, err
		}

		for _, issue := range page.Issues {
			histories := issue.Changelog.Histories
			if issue.Changelog.Total > len(histories) {
				if histories, err = c.fetchChangelog(ctx, issue.Key); err != nil {
					return nil, err
				}
			}
			ticket, err := mapTicket(issue, histories, c.EpicField)
			if err != nil {
				return nil, fmt.Errorf("ticket %s: %w", issue.Key, err)
			}
			tickets = append(tickets, ticket)
		}

		if len(page.Issues) == 0 || startAt+len(page.Issues) >= page.Total {
			break
		}
		startAt += len(page.Issues)
	}
	return tickets, nil
}

// fetchChangelog pages through the full history of one issue.
func (c *Client) fetchChangelog(ctx context.Context, key string) ([]wireHistory, error) {
	pageSize := c.pageSize()
	startAt := 0
	seenStart := map[int]struct{}{}
	var out []wireHistory
	for {
		if _, ok := seenStart[startAt]; ok {
			return nil, errors.New("changelog pagination repeated startAt; aborting")
		}
		seenStart[startAt] = struct{}{}

		var page changelogPage
		err := c.getJSON(ctx, fmt.Sprintf(changelogPath, url.PathEscape(key)), url.Values{
			"startAt":    {strconv.Itoa(startAt)},
			"maxResults": {strconv.Itoa(pageSize)},
		}, &page)
		if err != nil {
			return nil, fmt.Errorf("changelog for %s: %w", key, err)
		}
		out = append(out, page.Values...)

		if page.IsLast || len(page.Values) == 0 {
			break
		}
		if page.Total > 0 && startAt+len(page.Values) >= page.Total {
			break
		}
		startAt += len(page.Values)
	}
	return out, nil
}

func (c *Client) pageSize() int {
	if c.PageSize <= 0 {
		return defaultPageSize
	}
	return c.PageSize
}
