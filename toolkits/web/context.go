package web

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/skosovsky/botsy"
)

const contextExtractor = "brave_llm_context"

type contextArgs struct {
	Query      string `json:"query"`
	Count      int    `json:"count"`
	OutputMode string `json:"output_mode"`
}

// NewLLMContextTool returns the web_llm_context tool, backed by Brave's
// LLM-ready context endpoint. Raw mode wraps the provider payload in a small
// envelope; web_fetch mode extracts snippet text into the same envelope shape
// the fetch tool produces, so the two can be swapped behind one call site.
func NewLLMContextTool(opts ...Option) (botsy.Tool, error) {
	o := newOptions(opts)
	params := botsy.Object(
		botsy.Prop("query", botsy.String()),
		botsy.Prop("count", botsy.Integer(botsy.Minimum(1), botsy.Maximum(10))),
		botsy.Prop("output_mode", botsy.String(botsy.Enum("raw", "web_fetch"))),
		botsy.Required("query"),
	)
	return botsy.NewTool("web_llm_context", "Fetch LLM-ready web context for a query.", params,
		func(ctx context.Context, a contextArgs) (string, error) {
			return runContext(ctx, o, a)
		},
		botsy.WithTimeout(contextTimeout),
		botsy.WithTags("web"),
	)
}

func runContext(ctx context.Context, o options, a contextArgs) (string, error) {
	if o.apiKey == "" {
		return "Error: BRAVE_API_KEY not configured", nil
	}
	n := clampCount(a.Count)

	resp, err := requestContext(ctx, o, a.Query, n)
	if err != nil {
		return failureJSON(o.contextURL, err.Error()), nil
	}
	defer func() { _ = resp.Body.Close() }()

	var data any
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return failureJSON(o.contextURL, err.Error()), nil
	}

	var payload map[string]any
	if a.OutputMode == "web_fetch" {
		text := extractContextText(data)
		payload = map[string]any{
			"url":       o.contextURL,
			"finalUrl":  resp.Request.URL.String(),
			"status":    resp.StatusCode,
			"extractor": contextExtractor,
			"truncated": false,
			"length":    len(text),
			"text":      text,
			"data":      data,
		}
	} else {
		payload = map[string]any{
			"query":    a.Query,
			"count":    n,
			"endpoint": o.contextURL,
			"status":   resp.StatusCode,
			"data":     data,
		}
	}
	out, err := json.Marshal(payload)
	if err != nil {
		return failureJSON(o.contextURL, err.Error()), nil
	}
	return string(out), nil
}

// requestContext GETs the context endpoint and retries once as POST when the
// endpoint answers 405. Method mismatch is the only retried condition; a 404
// must surface as-is.
func requestContext(ctx context.Context, o options, query string, count int) (*http.Response, error) {
	client := o.httpClient(contextTimeout)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, o.contextURL, nil)
	if err != nil {
		return nil, err
	}
	q := url.Values{}
	q.Set("q", query)
	q.Set("count", strconv.Itoa(count))
	req.URL.RawQuery = q.Encode()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Subscription-Token", o.apiKey)

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode == http.StatusMethodNotAllowed {
		_ = resp.Body.Close()
		body, err := json.Marshal(map[string]any{"q": query, "count": count})
		if err != nil {
			return nil, err
		}
		post, err := http.NewRequestWithContext(ctx, http.MethodPost, o.contextURL, bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		post.Header.Set("Accept", "application/json")
		post.Header.Set("X-Subscription-Token", o.apiKey)
		post.Header.Set("Content-Type", "application/json")
		resp, err = client.Do(post)
		if err != nil {
			return nil, err
		}
	}
	if resp.StatusCode >= http.StatusBadRequest {
		code, status := resp.StatusCode, resp.Status
		_ = resp.Body.Close()
		return nil, fmt.Errorf("HTTP %d: %s", code, status)
	}
	return resp, nil
}

// extractContextText pulls human-readable context out of a provider payload.
// Preference order: a context or summary string, then snippet-like fields of
// entries under the known result lists. Anything unrecognized passes through
// as JSON.
func extractContextText(data any) string {
	obj, ok := data.(map[string]any)
	if !ok {
		return dumpJSON(data)
	}
	if s, ok := obj["context"].(string); ok && strings.TrimSpace(s) != "" {
		return strings.TrimSpace(s)
	}
	if s, ok := obj["summary"].(string); ok && strings.TrimSpace(s) != "" {
		return strings.TrimSpace(s)
	}
	var snippets []string
	for _, key := range []string{"results", "contexts", "documents", "items"} {
		list, ok := obj[key].([]any)
		if !ok {
			continue
		}
		for _, entry := range list {
			item, ok := entry.(map[string]any)
			if !ok {
				continue
			}
			for _, field := range []string{"snippet", "text", "content", "description"} {
				if s, ok := item[field].(string); ok && strings.TrimSpace(s) != "" {
					snippets = append(snippets, strings.TrimSpace(s))
				}
			}
			extras, ok := item["extra_snippets"].([]any)
			if !ok {
				continue
			}
			for _, e := range extras {
				if s, ok := e.(string); ok && strings.TrimSpace(s) != "" {
					snippets = append(snippets, strings.TrimSpace(s))
				}
			}
		}
	}
	if len(snippets) > 0 {
		return normalizeText(strings.Join(snippets, "\n\n"))
	}
	return dumpJSON(data)
}
