package websearch

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// URLSearcher resolves a query to candidate URLs.
type URLSearcher interface {
	SearchURLs(ctx context.Context, query string, numResults int, region string) []string
}

// PageScraper extracts readable text from one URL.
type PageScraper interface {
	Scrape(ctx context.Context, url string, opts ScrapeOptions) string
}

// Options bundle the source-selection parameters for one online fetch. The
// full tuple is the cache key.
type Options struct {
	NumResults         int
	Paragraphs         int
	MinDelay           time.Duration
	MaxDelay           time.Duration
	InsecureSkipVerify bool
	Region             string
}

func (o Options) cacheKey(query string) string {
	return fmt.Sprintf("%s|%d|%d|%s|%s|%t|%s",
		query, o.NumResults, o.Paragraphs, o.MinDelay, o.MaxDelay, o.InsecureSkipVerify, o.Region)
}

// Fetcher orchestrates search then per-URL scraping.
type Fetcher struct {
	searcher URLSearcher
	scraper  PageScraper
	cache    *ResultsCache // may be nil
}

func NewFetcher(searcher URLSearcher, scraper PageScraper, cache *ResultsCache) *Fetcher {
	return &Fetcher{searcher: searcher, scraper: scraper, cache: cache}
}

// GetOnlineResults fans scraping out across the search results and returns
// url -> extracted text. Scrapes run in parallel; each draws its own
// politeness delay and absorbs its own failures, and URLs whose scrape came
// back empty are dropped rather than returned as noise.
func (f *Fetcher) GetOnlineResults(ctx context.Context, query string, opts Options) map[string]string {
	key := opts.cacheKey(query)
	if f.cache != nil {
		if cached := f.cache.Get(key); cached != nil {
			slog.DebugContext(ctx, "web results served from cache", "query", query)
			return cached
		}
	}

	urls := f.searcher.SearchURLs(ctx, query, opts.NumResults, opts.Region)
	if len(urls) == 0 {
		return map[string]string{}
	}

	texts := make([]string, len(urls))
	var wg sync.WaitGroup
	for i, u := range urls {
		wg.Add(1)
		go func(i int, u string) {
			defer wg.Done()
			texts[i] = f.scraper.Scrape(ctx, u, ScrapeOptions{
				Paragraphs:         opts.Paragraphs,
				MinDelay:           opts.MinDelay,
				MaxDelay:           opts.MaxDelay,
				InsecureSkipVerify: opts.InsecureSkipVerify,
			})
		}(i, u)
	}
	wg.Wait()

	results := make(map[string]string, len(urls))
	for i, u := range urls {
		if texts[i] != "" {
			results[u] = texts[i]
		}
	}
	slog.InfoContext(ctx, "online fetch completed", "query", query, "urls", len(urls), "usable", len(results))

	// An all-failed fetch is not cached, so the next call retries instead of
	// serving emptiness for a full TTL.
	if f.cache != nil && len(results) > 0 {
		f.cache.Set(key, results)
	}
	return results
}
