package source

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

const (
	fetchTimeout = 10 * time.Second
	userAgent    = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"
)

var whitespaceRE = regexp.MustCompile(`\s+`)

func newHTTPClient() *http.Client {
	return &http.Client{Timeout: fetchTimeout}
}

// fetchDocument GETs a page with a browser-like user agent and parses it.
// Non-2xx responses are errors; no partial document is ever returned.
func fetchDocument(ctx context.Context, client *http.Client, pageURL string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request for %s: %w", pageURL, err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", pageURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("fetch %s: unexpected status %d", pageURL, resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", pageURL, err)
	}
	return doc, nil
}

// cleanText collapses consecutive whitespace to a single space and trims.
func cleanText(s string) string {
	return strings.TrimSpace(whitespaceRE.ReplaceAllString(s, " "))
}

// absoluteURL resolves href against base. Already-absolute links pass through.
func absoluteURL(base, href string) string {
	if href == "" {
		return ""
	}
	if strings.HasPrefix(href, "http") {
		return href
	}
	baseURL, err := url.Parse(base)
	if err != nil {
		return ""
	}
	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	return baseURL.ResolveReference(ref).String()
}

// parsePublishTime tries the source-specific layout, then an ISO-like
// fallback. On total failure it substitutes the current time; a missing or
// garbled timestamp must not fail the article.
func parsePublishTime(text, layout string) time.Time {
	text = strings.TrimSpace(text)
	// Some sources append the outlet after the timestamp ("来源：…").
	if i := strings.Index(text, "来源"); i >= 0 {
		text = strings.TrimSpace(text[:i])
	}
	if t, err := time.ParseInLocation(layout, text, time.Local); err == nil {
		return t
	}
	if t, err := time.ParseInLocation("2006-01-02 15:04:05", text, time.Local); err == nil {
		return t
	}
	return time.Now()
}

// sameHost reports whether href points at (a subdomain of) the base host.
func sameHost(base, href string) bool {
	baseURL, err := url.Parse(base)
	if err != nil {
		return false
	}
	h, err := url.Parse(href)
	if err != nil {
		return false
	}
	if h.Host == "" {
		return true // relative link
	}
	return h.Host == baseURL.Host || strings.HasSuffix(h.Host, "."+baseURL.Host)
}
