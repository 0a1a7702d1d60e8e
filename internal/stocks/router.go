package stocks

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Quote is a live structured value from a market-data provider.
type Quote struct {
	Symbol   string
	Price    float64
	Currency string
	AsOf     time.Time
	Source   string
}

// Fact is a directly formatted structured answer with explicit attribution,
// bypassing semantic retrieval.
type Fact struct {
	Entity string
	Value  string
	Source string
}

// QuoteProvider looks up a live quote for a ticker symbol.
type QuoteProvider interface {
	Lookup(ctx context.Context, symbol string) (*Quote, error)
}

// Classifier decides whether a query asks for a live structured value and,
// if so, which symbol it refers to. Injectable so the lexical heuristic can
// be swapped for something smarter without touching the router.
type Classifier interface {
	Classify(query string) (symbol string, ok bool)
}

// Router short-circuits the retrieval pipeline for queries answerable by a
// structured lookup. It is an opt-in step: the orchestrator only consults it
// in advanced mode, and any provider failure falls back to normal retrieval.
type Router struct {
	classifier Classifier
	provider   QuoteProvider
}

func NewRouter(c Classifier, p QuoteProvider) *Router {
	return &Router{classifier: c, provider: p}
}

// Route returns a formatted fact for query, or nil when the query is not a
// structured lookup or the provider failed.
func (r *Router) Route(ctx context.Context, query string) *Fact {
	symbol, ok := r.classifier.Classify(query)
	if !ok {
		return nil
	}

	quote, err := r.provider.Lookup(ctx, symbol)
	if err != nil {
		slog.WarnContext(ctx, "quote lookup failed, falling back to retrieval", "symbol", symbol, "error", err)
		return nil
	}

	return &Fact{
		Entity: quote.Symbol,
		Value: fmt.Sprintf("%s is trading at %.2f %s as of %s.",
			quote.Symbol, quote.Price, quote.Currency, quote.AsOf.Format(time.RFC1123)),
		Source: quote.Source,
	}
}
