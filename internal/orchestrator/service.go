package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Rajdeep108/smartifyLLM/internal/assemble"
	"github.com/Rajdeep108/smartifyLLM/internal/logger"
	"github.com/Rajdeep108/smartifyLLM/internal/prompt"
	"github.com/Rajdeep108/smartifyLLM/internal/stocks"
	"github.com/Rajdeep108/smartifyLLM/internal/vector"
	"github.com/Rajdeep108/smartifyLLM/internal/websearch"
)

// Retriever is the local (or remote) semantic index.
type Retriever interface {
	Query(ctx context.Context, text string, topK int) ([]vector.Candidate, error)
	Populated(ctx context.Context) bool
}

// WebFetcher resolves a query to scraped (url, text) candidates.
type WebFetcher interface {
	GetOnlineResults(ctx context.Context, query string, opts websearch.Options) map[string]string
}

// Ranker scores (source, text) candidates against a query.
type Ranker interface {
	Rank(ctx context.Context, query string, candidates map[string]string) ([]vector.Candidate, error)
}

// FactRouter short-circuits structured-value queries.
type FactRouter interface {
	Route(ctx context.Context, query string) *stocks.Fact
}

// Inferrer is the external model callable.
type Inferrer interface {
	Infer(ctx context.Context, prompt string) (string, error)
}

// Options control one Respond call. The pointer fields distinguish "unset"
// (nil, which falls back to the defaults below) from an explicit value, so a
// caller can ask for Buffer of zero and get it.
type Options struct {
	CustomPrompt     string
	CustomContext    map[string]string
	MaxContextTokens *int
	Buffer           *int
	TopK             *int
	ReturnSource     bool
	AdvancedMode     bool
	Web              websearch.Options
}

const (
	defaultMaxContextTokens = 2048
	defaultBuffer           = 64
	defaultTopK             = 5
	defaultWebResults       = 5
	defaultWebParagraphs    = 8
)

// Service coordinates the pipeline: decide the retrieval strategy for a
// query, collect and rank candidates, assemble a bounded context, and format
// the final prompt.
type Service struct {
	index     Retriever  // may be nil
	fetcher   WebFetcher // may be nil
	ranker    Ranker
	assembler *assemble.Assembler
	router    FactRouter // may be nil
	inferrer  Inferrer   // may be nil
	queryLog  *QueryLogger
}

func NewService(index Retriever, fetcher WebFetcher, ranker Ranker, assembler *assemble.Assembler, router FactRouter, inferrer Inferrer, ql *QueryLogger) *Service {
	return &Service{
		index:     index,
		fetcher:   fetcher,
		ranker:    ranker,
		assembler: assembler,
		router:    router,
		inferrer:  inferrer,
		queryLog:  ql,
	}
}

// Respond builds the formatted prompt for query. Sources are returned only
// when opts.ReturnSource is set. Precedence: structured fact (advanced mode)
// over custom context over a populated index over the web pipeline.
func (s *Service) Respond(ctx context.Context, query string, opts Options) (string, []string, error) {
	ctx = logger.EnsureCorrelationID(ctx)
	start := time.Now()

	// Template problems must surface before any retrieval work is spent.
	tpl := prompt.Default()
	if opts.CustomPrompt != "" {
		var err error
		if tpl, err = prompt.Parse(opts.CustomPrompt); err != nil {
			return "", nil, err
		}
	}

	if opts.AdvancedMode && s.router != nil {
		if fact := s.router.Route(ctx, query); fact != nil {
			slog.InfoContext(ctx, "answered via structured fact", "entity", fact.Entity)
			s.logQuery(ctx, query, 1, start)
			return fmt.Sprintf("%s (source: %s)", fact.Value, fact.Source), sourcesIf(opts.ReturnSource, []string{fact.Source}), nil
		}
	}

	ranked, err := s.collect(ctx, query, opts)
	if err != nil {
		return "", nil, err
	}

	assembled, err := s.assembler.Assemble(ranked,
		orDefault(opts.MaxContextTokens, defaultMaxContextTokens),
		orDefault(opts.Buffer, defaultBuffer))
	if err != nil {
		return "", nil, err
	}

	s.logQuery(ctx, query, len(assembled.Sources), start)
	return tpl.Render(assembled.Text, query), sourcesIf(opts.ReturnSource, assembled.Sources), nil
}

// Answer formats the prompt and runs it through the model callable.
func (s *Service) Answer(ctx context.Context, query string, opts Options) (string, []string, error) {
	formatted, sources, err := s.Respond(ctx, query, opts)
	if err != nil {
		return "", nil, err
	}
	if s.inferrer == nil {
		return formatted, sources, nil
	}
	answer, err := s.inferrer.Infer(ctx, formatted)
	if err != nil {
		return "", nil, fmt.Errorf("model inference: %w", err)
	}
	return answer, sources, nil
}

// collect picks the retrieval strategy and returns ranked candidates.
func (s *Service) collect(ctx context.Context, query string, opts Options) ([]vector.Candidate, error) {
	if len(opts.CustomContext) > 0 {
		slog.DebugContext(ctx, "ranking caller-supplied context", "candidates", len(opts.CustomContext))
		return s.ranker.Rank(ctx, query, opts.CustomContext)
	}

	if s.index != nil && s.index.Populated(ctx) {
		slog.DebugContext(ctx, "querying local index")
		return s.index.Query(ctx, query, orDefault(opts.TopK, defaultTopK))
	}

	if s.fetcher == nil {
		return nil, nil
	}

	web := opts.Web
	if web.NumResults <= 0 {
		web.NumResults = defaultWebResults
	}
	if web.Paragraphs <= 0 {
		web.Paragraphs = defaultWebParagraphs
	}
	slog.DebugContext(ctx, "falling back to web retrieval", "results", web.NumResults)
	return s.ranker.Rank(ctx, query, s.fetcher.GetOnlineResults(ctx, query, web))
}

func (s *Service) logQuery(ctx context.Context, query string, numSources int, start time.Time) {
	if s.queryLog == nil {
		return
	}
	s.queryLog.Log(QueryLogEntry{
		Query:         query,
		NumSources:    numSources,
		Duration:      time.Since(start),
		CorrelationID: logger.CorrelationID(ctx),
	})
}

func sourcesIf(want bool, sources []string) []string {
	if !want {
		return nil
	}
	return sources
}

func orDefault(v *int, def int) int {
	if v == nil {
		return def
	}
	return *v
}
