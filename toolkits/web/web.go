// Package web provides web access tools: search, LLM-ready context retrieval
// and page fetching with readable-content extraction.
//
// The search and context tools speak the Brave Search API. All three encode
// operational failures (missing key, HTTP errors, unreachable hosts) as result
// text or a JSON error envelope rather than Go errors, so an agent loop can
// hand them to the model for self-correction.
package web

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"regexp"
	"strings"
	"time"
)

// Shared defaults. The user agent mimics a desktop browser because some sites
// serve stripped or blocked pages to obvious bots.
const (
	userAgent    = "Mozilla/5.0 (Macintosh; Intel Mac OS X 14_7_2) AppleWebKit/537.36"
	maxRedirects = 5

	defaultSearchURL  = "https://api.search.brave.com/res/v1/web/search"
	defaultContextURL = "https://api.search.brave.com/res/v1/llm/context"

	defaultResultCount = 5
	defaultMaxChars    = 50000

	searchTimeout  = 10 * time.Second
	contextTimeout = 20 * time.Second
	fetchTimeout   = 30 * time.Second
)

type options struct {
	apiKey     string
	client     *http.Client
	searchURL  string
	contextURL string
	maxChars   int
}

// Option configures the web tools.
type Option func(*options)

// WithAPIKey sets the Brave subscription token. Defaults to the BRAVE_API_KEY
// environment variable.
func WithAPIKey(key string) Option {
	return func(o *options) {
		if key != "" {
			o.apiKey = key
		}
	}
}

// WithHTTPClient replaces the default HTTP client. The caller then owns the
// timeout and redirect policy.
func WithHTTPClient(client *http.Client) Option {
	return func(o *options) {
		if client != nil {
			o.client = client
		}
	}
}

// WithBaseURL points the Brave API endpoints at base (test servers, proxies).
// base must not end with a slash.
func WithBaseURL(base string) Option {
	return func(o *options) {
		if base != "" {
			o.searchURL = base + "/res/v1/web/search"
			o.contextURL = base + "/res/v1/llm/context"
		}
	}
}

// WithMaxChars caps extracted page text before truncation applies.
func WithMaxChars(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.maxChars = n
		}
	}
}

func newOptions(opts []Option) options {
	o := options{
		apiKey:     os.Getenv("BRAVE_API_KEY"),
		searchURL:  defaultSearchURL,
		contextURL: defaultContextURL,
		maxChars:   defaultMaxChars,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// httpClient returns the configured client, or a default with the given
// timeout and a redirect cap.
func (o options) httpClient(timeout time.Duration) *http.Client {
	if o.client != nil {
		return o.client
	}
	return &http.Client{
		Timeout: timeout,
		CheckRedirect: func(_ *http.Request, via []*http.Request) error {
			if len(via) >= maxRedirects {
				return fmt.Errorf("stopped after %d redirects", maxRedirects)
			}
			return nil
		},
	}
}

// clampCount folds an absent count to the default and bounds it to the
// provider's 1..10 window.
func clampCount(n int) int {
	if n == 0 {
		n = defaultResultCount
	}
	if n < 1 {
		n = 1
	}
	if n > 10 {
		n = 10
	}
	return n
}

var (
	spaceRuns  = regexp.MustCompile(`[ \t]+`)
	blankLines = regexp.MustCompile(`\n{3,}`)
)

// normalizeText collapses space runs and excess blank lines.
func normalizeText(s string) string {
	s = spaceRuns.ReplaceAllString(s, " ")
	return strings.TrimSpace(blankLines.ReplaceAllString(s, "\n\n"))
}

// failureJSON is the error envelope shared by the JSON-returning tools.
func failureJSON(url, reason string) string {
	out, _ := json.Marshal(map[string]any{"error": reason, "url": url})
	return string(out)
}

func dumpJSON(v any) string {
	out, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(out)
}
