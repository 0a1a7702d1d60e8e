package websearch

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

const defaultSearchURL = "https://html.duckduckgo.com/html/"

// SearchClient resolves a query to candidate URLs through the DuckDuckGo
// HTML endpoint. Provider failures degrade to an empty result, never an
// error: fewer candidates must not sink the query.
type SearchClient struct {
	client  *http.Client
	baseURL string
}

func NewSearchClient() *SearchClient {
	return &SearchClient{
		client:  &http.Client{Timeout: 10 * time.Second},
		baseURL: defaultSearchURL,
	}
}

func (c *SearchClient) SetBaseURL(u string) {
	c.baseURL = u
}

// SearchURLs returns up to numResults result URLs, most relevant first as
// reported by the provider. region is the provider's locale code (e.g.
// "us-en"); empty means no region preference.
func (c *SearchClient) SearchURLs(ctx context.Context, query string, numResults int, region string) []string {
	if numResults <= 0 {
		return nil
	}

	form := url.Values{"q": {query}}
	if region != "" {
		form.Set("kl", region)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, strings.NewReader(form.Encode()))
	if err != nil {
		slog.WarnContext(ctx, "building search request failed", "error", err)
		return nil
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", userAgents[0])

	resp, err := c.client.Do(req)
	if err != nil {
		slog.WarnContext(ctx, "search provider unreachable", "error", err)
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		slog.WarnContext(ctx, "search provider refused query", "status", resp.StatusCode)
		return nil
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		slog.WarnContext(ctx, "parsing search results failed", "error", err)
		return nil
	}

	var urls []string
	seen := make(map[string]bool)
	doc.Find("a.result__a").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		href, ok := sel.Attr("href")
		if !ok {
			return true
		}
		resolved := resolveResultURL(href)
		if resolved == "" || seen[resolved] {
			return true
		}
		seen[resolved] = true
		urls = append(urls, resolved)
		return len(urls) < numResults
	})

	slog.InfoContext(ctx, "search completed", "query", query, "results", len(urls))
	return urls
}

// resolveResultURL unwraps DuckDuckGo's redirect links (the target sits in
// the uddg query parameter) and drops anything that is not http(s).
func resolveResultURL(href string) string {
	if strings.HasPrefix(href, "//") {
		href = "https:" + href
	}
	u, err := url.Parse(href)
	if err != nil {
		return ""
	}
	if target := u.Query().Get("uddg"); target != "" {
		href = target
		if u, err = url.Parse(target); err != nil {
			return ""
		}
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return ""
	}
	return href
}
