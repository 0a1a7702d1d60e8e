package text

import (
	"regexp"
	"strings"
)

var (
	cookieRe    = regexp.MustCompile(`(?i)\b(accept|allow|manage|reject)\s+(all\s+)?cookies?\b|we\s+use\s+cookies`)
	subscribeRe = regexp.MustCompile(`(?i)\b(sign\s+up|subscribe|log\s*in|create\s+an?\s+account)\b.{0,40}(newsletter|updates|continue reading)?`)
)

// IsNoise identifies scraped paragraphs that are too low-value to rank or
// embed. The heuristics are conservative: better to let a borderline
// paragraph through than accidentally filter useful content.
func IsNoise(paragraph string) bool {
	trimmed := strings.TrimSpace(paragraph)
	if len(trimmed) == 0 {
		return true
	}

	// Ultra-short labels (e.g., "Overview", "Read more")
	words := strings.Fields(trimmed)
	if len(trimmed) < 30 && len(words) <= 3 {
		return true
	}

	// Cookie-consent and signup banners
	if len(trimmed) < 300 && (cookieRe.MatchString(trimmed) || subscribeRe.MatchString(trimmed)) {
		return true
	}

	// Copyright/legal boilerplate
	lower := strings.ToLower(trimmed)
	if strings.Contains(lower, "©") || strings.Contains(lower, "all rights reserved") ||
		strings.Contains(lower, "terms of service") || strings.Contains(lower, "privacy policy") {
		// Only noise if short (not a legal document the user intentionally fetched)
		if len(trimmed) < 200 {
			return true
		}
	}

	return false
}

// CleanWebNoise drops noise paragraphs from scraped text, keeping the rest
// in order.
func CleanWebNoise(paragraphs []string) []string {
	kept := make([]string, 0, len(paragraphs))
	for _, p := range paragraphs {
		if !IsNoise(p) {
			kept = append(kept, p)
		}
	}
	return kept
}
