package config

import (
	"errors"
	"fmt"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

var ErrMissingRequired = errors.New("missing required configuration")

type Config struct {
	// Model providers
	EmbeddingProvider string `envconfig:"EMBEDDING_PROVIDER" default:"gemini"`
	GeminiAPIKey      string `envconfig:"GEMINI_API_KEY"`
	OpenAIAPIKey      string `envconfig:"OPENAI_API_KEY"`
	RerankProvider    string `envconfig:"RERANK_PROVIDER"`
	RerankAPIKey      string `envconfig:"RERANK_API_KEY"`

	// Vector storage
	VectorBackend  string `envconfig:"VECTOR_BACKEND" default:"memory"`
	WeaviateHost   string `envconfig:"WEAVIATE_HOST" default:"localhost:8080"`
	WeaviateScheme string `envconfig:"WEAVIATE_SCHEME" default:"http"`
	IndexPath      string `envconfig:"INDEX_PATH" default:"data/index.bin"`

	// Chunking and assembly
	ChunkSize        int `envconfig:"CHUNK_SIZE" default:"300"`
	ChunkOverlap     int `envconfig:"CHUNK_OVERLAP" default:"50"`
	MaxContextTokens int `envconfig:"MAX_CONTEXT_TOKENS" default:"2048"`
	ContextBuffer    int `envconfig:"CONTEXT_BUFFER" default:"64"`
	TopK             int `envconfig:"TOP_K" default:"5"`

	// Web retrieval
	SearchResults      int    `envconfig:"SEARCH_RESULTS" default:"5"`
	SearchRegion       string `envconfig:"SEARCH_REGION" default:"wt-wt"`
	ScrapeParagraphs   int    `envconfig:"SCRAPE_PARAGRAPHS" default:"8"`
	MinDelayMs         int    `envconfig:"MIN_DELAY_MS" default:"250"`
	MaxDelayMs         int    `envconfig:"MAX_DELAY_MS" default:"1500"`
	InsecureSkipVerify bool   `envconfig:"INSECURE_SKIP_VERIFY" default:"false"`
	CacheSize          int    `envconfig:"CACHE_SIZE" default:"128"`
	CacheTTLSeconds    int    `envconfig:"CACHE_TTL_SECONDS" default:"600"`

	// Behavior
	AdvancedMode bool   `envconfig:"ADVANCED_MODE" default:"false"`
	QueryLogPath string `envconfig:"QUERY_LOG_PATH" default:"data/logs/query.log"`
}

func Load() (*Config, error) {
	// Env vars may come from the shell instead, so a missing .env is fine.
	_ = godotenv.Load(".env")

	var cfg Config
	err := envconfig.Process("", &cfg)
	if err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) Validate() error {
	switch c.EmbeddingProvider {
	case "gemini":
		if c.GeminiAPIKey == "" {
			return fmt.Errorf("%w: GEMINI_API_KEY", ErrMissingRequired)
		}
	case "openai":
		if c.OpenAIAPIKey == "" {
			return fmt.Errorf("%w: OPENAI_API_KEY", ErrMissingRequired)
		}
	case "hash":
	default:
		return fmt.Errorf("%w: EMBEDDING_PROVIDER must be gemini, openai or hash", ErrMissingRequired)
	}

	switch c.VectorBackend {
	case "memory":
	case "weaviate":
		if c.WeaviateHost == "" {
			return fmt.Errorf("%w: WEAVIATE_HOST", ErrMissingRequired)
		}
	default:
		return fmt.Errorf("%w: VECTOR_BACKEND must be memory or weaviate", ErrMissingRequired)
	}

	if c.RerankProvider != "" && c.RerankAPIKey == "" {
		return fmt.Errorf("%w: RERANK_API_KEY", ErrMissingRequired)
	}

	return nil
}
