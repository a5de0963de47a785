package confluence

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	scriberr "github.com/richinex/scribe/errors"
)

// DefaultSearchLimit is the page size requested when a search does not
// specify one.
const DefaultSearchLimit = 25

// SearchOptions scopes and pages a search.
type SearchOptions struct {
	// SpaceKey narrows results to one space when set.
	SpaceKey string
	// Limit is the page size; zero means DefaultSearchLimit.
	Limit int
	// Cursor continues a previous search from its NextCursor.
	Cursor string
}

// PageSummary is one search hit.
type PageSummary struct {
	ID       string
	Title    string
	SpaceKey string
}

// SearchResult is one page of hits. NextCursor is empty on the last page.
type SearchResult struct {
	Pages      []PageSummary
	NextCursor string
}

type searchEnvelope struct {
	Results []struct {
		ID    string `json:"id"`
		Title string `json:"title"`
		Space struct {
			Key string `json:"key"`
		} `json:"space"`
	} `json:"results"`
	Links struct {
		Next string `json:"next"`
	} `json:"_links"`
}

// Search runs a CQL query against the content search endpoint and returns
// one page of results with a continuation cursor. The query is sent as
// given; CQL escaping is the caller's concern. Result pages are cached by
// query, scope, and cursor until the client's TTL expires or a write
// flushes the cache.
func (c *Client) Search(ctx context.Context, cql string, opts SearchOptions) (*SearchResult, error) {
	cql = strings.TrimSpace(cql)
	if cql == "" {
		return nil, &scriberr.ValidationError{Message: "search query is empty"}
	}
	if opts.SpaceKey != "" {
		cql = fmt.Sprintf(`%s and space = "%s"`, cql, opts.SpaceKey)
	}
	limit := opts.Limit
	if limit <= 0 {
		limit = DefaultSearchLimit
	}

	key := fmt.Sprintf("search|%s|%d|%s", cql, limit, opts.Cursor)
	if cached, ok := c.cache.Get(key); ok {
		c.log.WithField("cql", cql).Debug("search cache hit")
		return cached.(*SearchResult), nil
	}

	values := url.Values{}
	values.Set("cql", cql)
	values.Set("limit", fmt.Sprintf("%d", limit))
	values.Set("expand", "space")
	if opts.Cursor != "" {
		values.Set("cursor", opts.Cursor)
	}
	resp, err := c.do(ctx, http.MethodGet, "/rest/api/content/search?"+values.Encode(), nil)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, c.classify(resp, "", 0)
	}

	var envelope searchEnvelope
	if err := json.Unmarshal(resp.Body, &envelope); err != nil {
		return nil, &scriberr.UpstreamError{Status: resp.StatusCode, Cause: fmt.Errorf("decoding search response: %w", err)}
	}
	result := &SearchResult{NextCursor: nextCursor(envelope.Links.Next)}
	for _, hit := range envelope.Results {
		result.Pages = append(result.Pages, PageSummary{ID: hit.ID, Title: hit.Title, SpaceKey: hit.Space.Key})
	}
	c.cache.SetDefault(key, result)
	return result, nil
}

// nextCursor pulls the cursor parameter out of the platform's relative
// next link; an absent or unparseable link means the last page.
func nextCursor(next string) string {
	if next == "" {
		return ""
	}
	parsed, err := url.Parse(next)
	if err != nil {
		return ""
	}
	return parsed.Query().Get("cursor")
}

// FindPageByTitle looks up a page by exact title within a space. It
// returns nil without an error when no page matches.
func (c *Client) FindPageByTitle(ctx context.Context, spaceKey, title string) (*PageSummary, error) {
	cql := fmt.Sprintf(`title = "%s" and type = "page"`, escapeCQLString(title))
	result, err := c.Search(ctx, cql, SearchOptions{SpaceKey: spaceKey, Limit: 1})
	if err != nil {
		return nil, err
	}
	if len(result.Pages) == 0 {
		return nil, nil
	}
	page := result.Pages[0]
	return &page, nil
}

// escapeCQLString makes a literal safe to embed in double quotes. Full
// CQL quoting rules live with the caller; titles only need their quotes
// and backslashes neutralized.
func escapeCQLString(value string) string {
	value = strings.ReplaceAll(value, `\`, `\\`)
	return strings.ReplaceAll(value, `"`, `\"`)
}
