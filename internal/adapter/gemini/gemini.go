package gemini

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

const (
	embeddingModel     = "gemini-embedding-001"
	embeddingDimension = 3072
	generationModel    = "gemini-2.0-flash"
)

// Embedder produces embeddings through the Gemini API.
type Embedder struct {
	client *genai.Client
	model  string
}

// NewEmbedder dials the Gemini API. Extra options come after the API key so
// tests can point the client at a local server with option.WithEndpoint.
func NewEmbedder(ctx context.Context, apiKey string, opts ...option.ClientOption) (*Embedder, error) {
	client, err := genai.NewClient(ctx, clientOptions(apiKey, opts)...)
	if err != nil {
		return nil, err
	}
	return &Embedder{client: client, model: embeddingModel}, nil
}

func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	slog.DebugContext(ctx, "embedding content", "model", e.model, "length", len(text))
	em := e.client.EmbeddingModel(e.model)
	res, err := em.EmbedContent(ctx, genai.Text(text))
	if err != nil {
		slog.ErrorContext(ctx, "embedding failed", "error", err)
		return nil, err
	}
	if res.Embedding == nil {
		return nil, errors.New("empty embedding received")
	}
	return res.Embedding.Values, nil
}

func (e *Embedder) Dimension() int { return embeddingDimension }

// Generator answers prompts through the Gemini API. It is the production
// model-inference collaborator; the retrieval pipeline itself never depends
// on it.
type Generator struct {
	client *genai.Client
	model  string
}

func NewGenerator(ctx context.Context, apiKey string, opts ...option.ClientOption) (*Generator, error) {
	client, err := genai.NewClient(ctx, clientOptions(apiKey, opts)...)
	if err != nil {
		return nil, err
	}
	return &Generator{client: client, model: generationModel}, nil
}

func clientOptions(apiKey string, opts []option.ClientOption) []option.ClientOption {
	return append([]option.ClientOption{option.WithAPIKey(apiKey)}, opts...)
}

func (g *Generator) Infer(ctx context.Context, prompt string) (string, error) {
	model := g.client.GenerativeModel(g.model)
	res, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", err
	}
	if len(res.Candidates) == 0 || res.Candidates[0].Content == nil {
		return "", errors.New("empty generation received")
	}
	var out string
	for _, part := range res.Candidates[0].Content.Parts {
		if t, ok := part.(genai.Text); ok {
			out += string(t)
		}
	}
	return out, nil
}
