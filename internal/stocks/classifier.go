package stocks

import (
	"regexp"
	"sort"
	"strings"
)

// keywordRe gates classification: without one of these the query is not a
// price lookup, no matter what tokens it contains.
var keywordRe = regexp.MustCompile(`(?i)\b(price|stock|share|shares|ticker|quote|trading)\b`)

// tickerRe matches ticker-like tokens in the raw (case-preserved) query.
var tickerRe = regexp.MustCompile(`\b[A-Z]{1,5}\b`)

// tickerStopwords are all-caps tokens that look like tickers but are just
// English.
var tickerStopwords = map[string]bool{
	"A": true, "I": true, "IS": true, "THE": true, "WHAT": true, "HOW": true,
	"OF": true, "AT": true, "ON": true, "IN": true, "TO": true, "FOR": true,
	"AND": true, "OR": true, "USD": true, "EUR": true,
}

// KeywordClassifier is a narrow lexical heuristic: a price/stock keyword
// plus either a known entity name or a ticker-like token. Not general NLU.
type KeywordClassifier struct {
	entities map[string]string
}

// NewKeywordClassifier builds a classifier with the default entity table,
// extended by extra (lowercased name -> symbol) entries.
func NewKeywordClassifier(extra map[string]string) *KeywordClassifier {
	entities := map[string]string{
		"apple":     "AAPL",
		"microsoft": "MSFT",
		"google":    "GOOGL",
		"alphabet":  "GOOGL",
		"amazon":    "AMZN",
		"tesla":     "TSLA",
		"nvidia":    "NVDA",
		"meta":      "META",
		"netflix":   "NFLX",
		"intel":     "INTC",
	}
	for name, symbol := range extra {
		entities[strings.ToLower(name)] = symbol
	}
	return &KeywordClassifier{entities: entities}
}

func (c *KeywordClassifier) Classify(query string) (string, bool) {
	if !keywordRe.MatchString(query) {
		return "", false
	}

	lower := strings.ToLower(query)
	names := make([]string, 0, len(c.entities))
	for name := range c.entities {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if containsWord(lower, name) {
			return c.entities[name], true
		}
	}

	for _, tok := range tickerRe.FindAllString(query, -1) {
		if !tickerStopwords[tok] {
			return tok, true
		}
	}
	return "", false
}

func containsWord(haystack, word string) bool {
	idx := strings.Index(haystack, word)
	for idx >= 0 {
		before := idx == 0 || !isWordChar(haystack[idx-1])
		afterIdx := idx + len(word)
		after := afterIdx == len(haystack) || !isWordChar(haystack[afterIdx])
		if before && after {
			return true
		}
		next := strings.Index(haystack[idx+1:], word)
		if next < 0 {
			return false
		}
		idx += 1 + next
	}
	return false
}

func isWordChar(b byte) bool {
	return b >= 'a' && b <= 'z' || b >= 'A' && b <= 'Z' || b >= '0' && b <= '9'
}
