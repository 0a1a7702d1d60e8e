package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/weaviate/weaviate-go-client/v5/weaviate"

	"github.com/Rajdeep108/smartifyLLM/internal/adapter/gemini"
	"github.com/Rajdeep108/smartifyLLM/internal/adapter/openai"
	"github.com/Rajdeep108/smartifyLLM/internal/adapter/reranker"
	wstore "github.com/Rajdeep108/smartifyLLM/internal/adapter/weaviate"
	"github.com/Rajdeep108/smartifyLLM/internal/adapter/yahoo"
	"github.com/Rajdeep108/smartifyLLM/internal/assemble"
	"github.com/Rajdeep108/smartifyLLM/internal/config"
	"github.com/Rajdeep108/smartifyLLM/internal/embedding"
	"github.com/Rajdeep108/smartifyLLM/internal/extract"
	"github.com/Rajdeep108/smartifyLLM/internal/logger"
	"github.com/Rajdeep108/smartifyLLM/internal/orchestrator"
	"github.com/Rajdeep108/smartifyLLM/internal/rank"
	"github.com/Rajdeep108/smartifyLLM/internal/stocks"
	"github.com/Rajdeep108/smartifyLLM/internal/text"
	"github.com/Rajdeep108/smartifyLLM/internal/vector"
	"github.com/Rajdeep108/smartifyLLM/internal/websearch"
)

func main() {
	// Initialize structured logger
	log := slog.New(logger.NewContextHandler(slog.NewJSONHandler(os.Stderr, nil)))
	slog.SetDefault(log)

	docsDir := flag.String("docs", "", "directory of .txt/.md documents to index")
	showSources := flag.Bool("sources", false, "print the sources behind the answer")
	flag.Parse()

	if flag.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "usage: smartifyllm [-docs dir] [-sources] \"question\"")
		os.Exit(2)
	}
	query := flag.Arg(0)

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	ctx := logger.EnsureCorrelationID(context.Background())

	embedder, err := buildEmbedder(ctx, cfg)
	if err != nil {
		slog.Error("failed to build embedder", "error", err)
		os.Exit(1)
	}

	retriever, err := buildRetriever(ctx, cfg, embedder, *docsDir)
	if err != nil {
		slog.Error("failed to build retriever", "error", err)
		os.Exit(1)
	}

	fetcher := websearch.NewFetcher(
		websearch.NewSearchClient(),
		websearch.NewScraper(time.Now().UnixNano()),
		websearch.NewResultsCache(cfg.CacheSize, time.Duration(cfg.CacheTTLSeconds)*time.Second),
	)

	var rr rank.Reranker
	if cfg.RerankProvider != "" {
		rr = reranker.NewClient(cfg.RerankProvider, cfg.RerankAPIKey)
	}
	ranker := rank.NewRanker(embedder, rr)

	router := stocks.NewRouter(stocks.NewKeywordClassifier(nil), yahoo.NewClient())

	inferrer, err := buildInferrer(ctx, cfg)
	if err != nil {
		slog.Warn("no model available for inference, returning augmented prompt instead", "error", err)
		inferrer = nil
	}

	queryLogger, err := orchestrator.NewFileQueryLogger(cfg.QueryLogPath)
	if err != nil {
		slog.Warn("failed to create query logger, falling back to stdout", "error", err)
		queryLogger = orchestrator.NewQueryLogger(os.Stdout)
	}

	svc := orchestrator.NewService(retriever, fetcher, ranker,
		assemble.NewAssembler(nil), router, inferrer, queryLogger)

	answer, sources, err := svc.Answer(ctx, query, orchestrator.Options{
		MaxContextTokens: &cfg.MaxContextTokens,
		Buffer:           &cfg.ContextBuffer,
		TopK:             &cfg.TopK,
		ReturnSource:     *showSources,
		AdvancedMode:     cfg.AdvancedMode,
		Web: websearch.Options{
			NumResults:         cfg.SearchResults,
			Paragraphs:         cfg.ScrapeParagraphs,
			MinDelay:           time.Duration(cfg.MinDelayMs) * time.Millisecond,
			MaxDelay:           time.Duration(cfg.MaxDelayMs) * time.Millisecond,
			InsecureSkipVerify: cfg.InsecureSkipVerify,
			Region:             cfg.SearchRegion,
		},
	})
	if err != nil {
		slog.Error("failed to answer query", "error", err)
		os.Exit(1)
	}

	fmt.Println(answer)
	if *showSources {
		for _, s := range sources {
			fmt.Println("  source:", s)
		}
	}
}

func buildEmbedder(ctx context.Context, cfg *config.Config) (embedding.Embedder, error) {
	return embedding.NewCache().GetOrCreate(cfg.EmbeddingProvider, func() (embedding.Embedder, error) {
		switch cfg.EmbeddingProvider {
		case "gemini":
			return gemini.NewEmbedder(ctx, cfg.GeminiAPIKey)
		case "openai":
			return openai.NewEmbedder(cfg.OpenAIAPIKey, "")
		default:
			return embedding.NewHashEmbedder(0), nil
		}
	})
}

// buildRetriever prefers a previously saved index; -docs rebuilds it from disk.
func buildRetriever(ctx context.Context, cfg *config.Config, embedder embedding.Embedder, docsDir string) (orchestrator.Retriever, error) {
	if cfg.VectorBackend == "weaviate" {
		client, err := weaviate.NewClient(weaviate.Config{
			Host:   cfg.WeaviateHost,
			Scheme: cfg.WeaviateScheme,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create weaviate client: %w", err)
		}
		store := wstore.NewStore(client, embedder)
		if err := store.EnsureSchema(ctx); err != nil {
			return nil, fmt.Errorf("failed to ensure weaviate schema: %w", err)
		}
		if docsDir != "" {
			chunks, err := chunkDirectory(cfg, docsDir)
			if err != nil {
				return nil, err
			}
			if err := store.Put(ctx, chunks); err != nil {
				return nil, err
			}
		}
		return store, nil
	}

	index := vector.NewIndex(embedder)
	if docsDir == "" {
		if err := index.Load(cfg.IndexPath); err != nil {
			if !errors.Is(err, vector.ErrIndexFormat) {
				return nil, err
			}
			slog.Warn("no usable index on disk, continuing without local context", "path", cfg.IndexPath, "error", err)
		}
		return index, nil
	}

	chunks, err := chunkDirectory(cfg, docsDir)
	if err != nil {
		return nil, err
	}
	if err := index.BuildFromDocument(ctx, chunks); err != nil {
		return nil, err
	}
	if err := index.Save(cfg.IndexPath); err != nil {
		slog.Warn("failed to persist index", "path", cfg.IndexPath, "error", err)
	}
	return index, nil
}

func chunkDirectory(cfg *config.Config, docsDir string) ([]vector.Chunk, error) {
	docs, err := extract.LoadDirectory(docsDir, extract.PlainText{})
	if err != nil {
		return nil, err
	}

	var chunks []vector.Chunk
	for source, content := range docs {
		parts, err := text.Split(content, cfg.ChunkSize, cfg.ChunkOverlap)
		if err != nil {
			return nil, fmt.Errorf("failed to chunk %s: %w", source, err)
		}
		for _, p := range parts {
			chunks = append(chunks, vector.Chunk{Source: source, Text: p})
		}
	}
	return chunks, nil
}

func buildInferrer(ctx context.Context, cfg *config.Config) (orchestrator.Inferrer, error) {
	switch {
	case cfg.GeminiAPIKey != "":
		gen, err := gemini.NewGenerator(ctx, cfg.GeminiAPIKey)
		if err != nil {
			return nil, err
		}
		return gen, nil
	case cfg.OpenAIAPIKey != "":
		gen, err := openai.NewGenerator(cfg.OpenAIAPIKey, "")
		if err != nil {
			return nil, err
		}
		return gen, nil
	default:
		return nil, errors.New("no model API key configured")
	}
}
