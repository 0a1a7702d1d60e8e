package openai

import (
	"context"
	"errors"

	openai "github.com/sashabaranov/go-openai"
)

// Embedder produces embeddings through the OpenAI API.
type Embedder struct {
	client *openai.Client
	apiKey string
	model  string
	dim    int
}

func NewEmbedder(apiKey, model string) (*Embedder, error) {
	if apiKey == "" {
		return nil, errors.New("openai api key not configured")
	}
	if model == "" {
		model = string(openai.SmallEmbedding3)
	}
	dim := 1536
	if model == string(openai.LargeEmbedding3) {
		dim = 3072
	}
	return &Embedder{client: openai.NewClient(apiKey), apiKey: apiKey, model: model, dim: dim}, nil
}

// SetBaseURL points the underlying client at a different API host, for
// tests.
func (e *Embedder) SetBaseURL(url string) {
	e.client = clientFor(e.apiKey, url)
}

func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	resp, err := e.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Model: openai.EmbeddingModel(e.model),
		Input: []string{text},
	})
	if err != nil {
		return nil, err
	}
	if len(resp.Data) == 0 {
		return nil, errors.New("no embedding data returned")
	}
	return resp.Data[0].Embedding, nil
}

func (e *Embedder) Dimension() int { return e.dim }

// Generator answers prompts through the OpenAI chat completion API.
type Generator struct {
	client *openai.Client
	apiKey string
	model  string
}

func NewGenerator(apiKey, model string) (*Generator, error) {
	if apiKey == "" {
		return nil, errors.New("openai api key not configured")
	}
	if model == "" {
		model = openai.GPT4oMini
	}
	return &Generator{client: openai.NewClient(apiKey), apiKey: apiKey, model: model}, nil
}

// SetBaseURL points the underlying client at a different API host, for
// tests.
func (g *Generator) SetBaseURL(url string) {
	g.client = clientFor(g.apiKey, url)
}

func clientFor(apiKey, baseURL string) *openai.Client {
	cfg := openai.DefaultConfig(apiKey)
	cfg.BaseURL = baseURL
	return openai.NewClientWithConfig(cfg)
}

func (g *Generator) Infer(ctx context.Context, prompt string) (string, error) {
	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: g.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("no completion choices returned")
	}
	return resp.Choices[0].Message.Content, nil
}
