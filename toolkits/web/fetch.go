package web

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"github.com/PuerkitoBio/goquery"
	"github.com/ledongthuc/pdf"

	"github.com/skosovsky/botsy"
)

type fetchArgs struct {
	URL         string `json:"url"`
	ExtractMode string `json:"extractMode"`
	MaxChars    int    `json:"maxChars"`
}

// NewFetchTool returns the web_fetch tool: fetch a page and reduce it to
// readable content. HTML renders as markdown by default (text mode strips to
// plain text), JSON pretty-prints, PDFs yield their embedded text, anything
// else passes through raw. The result is a JSON envelope carrying the final
// URL, the extractor that ran and a truncation flag.
func NewFetchTool(opts ...Option) (botsy.Tool, error) {
	o := newOptions(opts)
	params := botsy.Object(
		botsy.Prop("url", botsy.String()),
		botsy.Prop("extractMode", botsy.String(botsy.Enum("markdown", "text"))),
		botsy.Prop("maxChars", botsy.Integer(botsy.Minimum(100))),
		botsy.Required("url"),
	)
	return botsy.NewTool("web_fetch", "Fetch URL and extract readable content (HTML to markdown/text).", params,
		func(ctx context.Context, a fetchArgs) (string, error) {
			return runFetch(ctx, o, a)
		},
		botsy.WithTimeout(fetchTimeout),
		botsy.WithTags("web"),
	)
}

func runFetch(ctx context.Context, o options, a fetchArgs) (string, error) {
	if reason := validateFetchURL(a.URL); reason != "" {
		return failureJSON(a.URL, "URL validation failed: "+reason), nil
	}
	maxChars := a.MaxChars
	if maxChars == 0 {
		maxChars = o.maxChars
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.URL, nil)
	if err != nil {
		return failureJSON(a.URL, err.Error()), nil
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := o.httpClient(fetchTimeout).Do(req)
	if err != nil {
		return failureJSON(a.URL, err.Error()), nil
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode >= http.StatusBadRequest {
		return failureJSON(a.URL, fmt.Sprintf("HTTP %d: %s", resp.StatusCode, resp.Status)), nil
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return failureJSON(a.URL, err.Error()), nil
	}

	text, extractor, err := extractContent(string(body), resp.Header.Get("Content-Type"), a.ExtractMode)
	if err != nil {
		return failureJSON(a.URL, err.Error()), nil
	}

	truncated := len(text) > maxChars
	if truncated {
		text = text[:maxChars]
	}
	payload := map[string]any{
		"url":       a.URL,
		"finalUrl":  resp.Request.URL.String(),
		"status":    resp.StatusCode,
		"extractor": extractor,
		"truncated": truncated,
		"length":    len(text),
		"text":      text,
	}
	out, err := json.Marshal(payload)
	if err != nil {
		return failureJSON(a.URL, err.Error()), nil
	}
	return string(out), nil
}

// validateFetchURL returns a human-readable reason when raw must be rejected,
// or an empty string when it is fetchable.
func validateFetchURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return err.Error()
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		scheme := u.Scheme
		if scheme == "" {
			scheme = "none"
		}
		return fmt.Sprintf("Only http/https allowed, got '%s'", scheme)
	}
	if u.Host == "" {
		return "Missing domain"
	}
	return ""
}

// extractContent picks the extractor from the content type (with sniffs for
// servers that lie) and returns the reduced text plus the extractor name for
// the envelope.
func extractContent(body, ctype, mode string) (string, string, error) {
	switch {
	case strings.Contains(ctype, "application/json"):
		var v any
		if err := json.Unmarshal([]byte(body), &v); err != nil {
			return "", "", err
		}
		pretty, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return "", "", err
		}
		return string(pretty), "json", nil
	case strings.Contains(ctype, "application/pdf") || strings.HasPrefix(body, "%PDF-"):
		text, err := pdfText([]byte(body))
		if err != nil {
			return "", "", fmt.Errorf("PDF extraction failed: %w", err)
		}
		return text, "pdf", nil
	case isHTML(ctype, body):
		return extractHTML(body, mode)
	default:
		return body, "raw", nil
	}
}

// pdfText pulls the plain text out of a PDF document. The underlying reader
// panics on some malformed files; the recover keeps such failures inside the
// result envelope.
func pdfText(data []byte) (text string, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("malformed document: %v", p)
		}
	}()
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}
	plain, err := r.GetPlainText()
	if err != nil {
		return "", err
	}
	var b strings.Builder
	if _, err := io.Copy(&b, plain); err != nil {
		return "", err
	}
	return normalizeText(b.String()), nil
}

func isHTML(ctype, body string) bool {
	if strings.Contains(ctype, "text/html") {
		return true
	}
	head := body
	if len(head) > 256 {
		head = head[:256]
	}
	head = strings.ToLower(strings.TrimSpace(head))
	return strings.HasPrefix(head, "<!doctype") || strings.HasPrefix(head, "<html")
}

// extractHTML converts an HTML document to markdown or plain text, prefixed
// with the document title as a heading when one exists.
func extractHTML(body, mode string) (string, string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return "", "", err
	}
	title := strings.TrimSpace(doc.Find("title").First().Text())

	var content, extractor string
	if mode == "text" {
		content, extractor = textFromDocument(doc), "html"
	} else {
		md, err := htmltomarkdown.ConvertString(body)
		if err != nil {
			return "", "", err
		}
		content, extractor = strings.TrimSpace(md), "markdown"
	}
	if title != "" {
		content = "# " + title + "\n\n" + content
	}
	return content, extractor, nil
}

// textFromDocument reduces a parsed page to readable text: headings,
// paragraphs and list items, with chrome elements removed.
func textFromDocument(doc *goquery.Document) string {
	doc.Find("script, style, nav, header, footer, aside, iframe").Remove()

	var b strings.Builder
	doc.Find("h1, h2, h3, h4, h5, h6").Each(func(_ int, s *goquery.Selection) {
		if text := strings.TrimSpace(s.Text()); text != "" {
			level := int(s.Get(0).Data[1] - '0')
			b.WriteString(strings.Repeat("#", level) + " " + text + "\n\n")
		}
	})
	doc.Find("p").Each(func(_ int, s *goquery.Selection) {
		if text := strings.TrimSpace(s.Text()); text != "" {
			b.WriteString(text + "\n\n")
		}
	})
	doc.Find("li").Each(func(_ int, s *goquery.Selection) {
		if text := strings.TrimSpace(s.Text()); text != "" {
			b.WriteString("- " + text + "\n")
		}
	})
	return normalizeText(b.String())
}
