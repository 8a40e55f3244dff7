package http

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/fwojciec/testplan"
)

// Search implements testplan.StorySearcher. A blank query returns no
// stories without a request.
func (c *Client) Search(ctx context.Context, query string) ([]testplan.Story, error) {
	if strings.TrimSpace(query) == "" {
		return nil, nil
	}
	q := url.Values{}
	q.Set("q", query)
	var res struct {
		Stories []testplan.Story `json:"stories"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/jira/search", q, nil, &res, true); err != nil {
		return nil, err
	}
	return res.Stories, nil
}

// Story implements testplan.StoryFetcher.
func (c *Client) Story(ctx context.Context, issueKey string) (*testplan.Story, error) {
	var s testplan.Story
	if err := c.do(ctx, http.MethodGet, "/api/jira/stories/"+url.PathEscape(issueKey), nil, nil, &s, true); err != nil {
		return nil, err
	}
	if s.Key == "" {
		s.Key = issueKey
	}
	return &s, nil
}
