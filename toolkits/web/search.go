package web

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/skosovsky/botsy"
)

type searchArgs struct {
	Query string `json:"query"`
	Count int    `json:"count"`
}

type searchResponse struct {
	Web struct {
		Results []struct {
			Title       string `json:"title"`
			URL         string `json:"url"`
			Description string `json:"description"`
		} `json:"results"`
	} `json:"web"`
}

// NewSearchTool returns the web_search tool: Brave web search with results
// formatted as numbered title/url/description lines. A missing API key is
// reported in the result text so the model can tell the operator about it.
func NewSearchTool(opts ...Option) (botsy.Tool, error) {
	o := newOptions(opts)
	params := botsy.Object(
		botsy.Prop("query", botsy.String()),
		botsy.Prop("count", botsy.Integer(botsy.Minimum(1), botsy.Maximum(10))),
		botsy.Required("query"),
	)
	return botsy.NewTool("web_search", "Search the web. Returns titles, URLs, and snippets.", params,
		func(ctx context.Context, a searchArgs) (string, error) {
			return runSearch(ctx, o, a)
		},
		botsy.WithTimeout(searchTimeout),
		botsy.WithTags("web"),
	)
}

func runSearch(ctx context.Context, o options, a searchArgs) (string, error) {
	if o.apiKey == "" {
		return "Error: BRAVE_API_KEY not configured", nil
	}
	n := clampCount(a.Count)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, o.searchURL, nil)
	if err != nil {
		return "Error: " + err.Error(), nil
	}
	q := url.Values{}
	q.Set("q", a.Query)
	q.Set("count", strconv.Itoa(n))
	req.URL.RawQuery = q.Encode()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Subscription-Token", o.apiKey)

	resp, err := o.httpClient(searchTimeout).Do(req)
	if err != nil {
		return "Error: " + err.Error(), nil
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Sprintf("Error: HTTP %d: %s", resp.StatusCode, resp.Status), nil
	}

	var parsed searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "Error: " + err.Error(), nil
	}
	results := parsed.Web.Results
	if len(results) == 0 {
		return "No results for: " + a.Query, nil
	}
	if len(results) > n {
		results = results[:n]
	}

	lines := []string{fmt.Sprintf("Results for: %s\n", a.Query)}
	for i, r := range results {
		lines = append(lines, fmt.Sprintf("%d. %s\n   %s", i+1, r.Title, r.URL))
		if r.Description != "" {
			lines = append(lines, "   "+r.Description)
		}
	}
	return strings.Join(lines, "\n"), nil
}
