package websearch

import (
	"context"
	"crypto/tls"
	"log/slog"
	"math/rand"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/Rajdeep108/smartifyLLM/internal/text"
)

// Rotating between a few realistic browser identities reduces bot-detection
// blocking on scraped pages.
var userAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.4 Safari/605.1.15",
	"Mozilla/5.0 (X11; Linux x86_64; rv:125.0) Gecko/20100101 Firefox/125.0",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:125.0) Gecko/20100101 Firefox/125.0",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36",
}

var acceptLanguages = []string{
	"en-US,en;q=0.9",
	"en-GB,en;q=0.8",
	"en-US,en;q=0.5",
}

// ScrapeOptions control one page fetch. The delay bounds implement the
// politeness mechanism: every request waits a uniform random duration from
// [MinDelay, MaxDelay] before hitting the page.
type ScrapeOptions struct {
	Paragraphs int
	MinDelay   time.Duration
	MaxDelay   time.Duration
	// InsecureSkipVerify disables TLS certificate verification for this
	// fetch. The zero value keeps verification on.
	InsecureSkipVerify bool
}

// Scraper fetches pages with randomized headers and politeness delays and
// extracts paragraph-level text. Any failure yields an empty string for that
// URL rather than an error, so one bad page never aborts a result set.
type Scraper struct {
	client   *http.Client
	insecure *http.Client

	mu  sync.Mutex
	rng *rand.Rand
}

// NewScraper builds a scraper whose randomness (delays, header choice) is
// derived from seed, so tests can fix it for determinism.
func NewScraper(seed int64) *Scraper {
	return &Scraper{
		client: &http.Client{Timeout: 15 * time.Second},
		insecure: &http.Client{
			Timeout: 15 * time.Second,
			Transport: &http.Transport{
				TLSClientConfig: &tls.Config{InsecureSkipVerify: true}, // #nosec G402 -- explicit opt-in via ScrapeOptions.InsecureSkipVerify
			},
		},
		rng: rand.New(rand.NewSource(seed)),
	}
}

// Scrape fetches url and returns up to opts.Paragraphs paragraph blocks
// joined together, with low-value boilerplate filtered out.
func (s *Scraper) Scrape(ctx context.Context, pageURL string, opts ScrapeOptions) string {
	if err := s.wait(ctx, opts.MinDelay, opts.MaxDelay); err != nil {
		return ""
	}

	client := s.client
	if opts.InsecureSkipVerify {
		slog.WarnContext(ctx, "certificate verification disabled for scrape", "url", pageURL)
		client = s.insecure
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		slog.WarnContext(ctx, "building scrape request failed", "url", pageURL, "error", err)
		return ""
	}
	s.decorate(req)

	resp, err := client.Do(req)
	if err != nil {
		slog.WarnContext(ctx, "scrape failed", "url", pageURL, "error", err)
		return ""
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		slog.WarnContext(ctx, "scrape refused", "url", pageURL, "status", resp.StatusCode)
		return ""
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		slog.WarnContext(ctx, "parsing page failed", "url", pageURL, "error", err)
		return ""
	}

	var paragraphs []string
	doc.Find("p").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		if p := strings.TrimSpace(sel.Text()); p != "" {
			paragraphs = append(paragraphs, p)
		}
		return opts.Paragraphs <= 0 || len(paragraphs) < opts.Paragraphs
	})
	paragraphs = text.CleanWebNoise(paragraphs)

	return strings.Join(paragraphs, "\n\n")
}

// wait sleeps a uniform random duration from [min, max], honoring context
// cancellation. Each call samples independently so parallel fetches spread
// out.
func (s *Scraper) wait(ctx context.Context, min, max time.Duration) error {
	if min < 0 {
		min = 0
	}
	if max < min {
		max = min
	}
	delay := min
	if span := max - min; span > 0 {
		s.mu.Lock()
		delay += time.Duration(s.rng.Int63n(int64(span) + 1))
		s.mu.Unlock()
	}
	if delay == 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Scraper) decorate(req *http.Request) {
	s.mu.Lock()
	ua := userAgents[s.rng.Intn(len(userAgents))]
	lang := acceptLanguages[s.rng.Intn(len(acceptLanguages))]
	s.mu.Unlock()

	req.Header.Set("User-Agent", ua)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", lang)
	req.Header.Set("Cache-Control", "no-cache")
}
