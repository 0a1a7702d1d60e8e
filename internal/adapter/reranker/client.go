package reranker

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

type providerSpec struct {
	url   string
	model string
}

var providers = map[string]providerSpec{
	"jina":   {url: "https://api.jina.ai/v1/rerank", model: "jina-reranker-v1-base-en"},
	"cohere": {url: "https://api.cohere.com/v1/rerank", model: "rerank-english-v3.0"},
}

// Client calls a hosted reranking API to refine an embedder-based ranking.
// An unknown provider yields identity ordering, never an error.
type Client struct {
	provider string
	apiKey   string
	client   *http.Client
	baseURL  string
}

func NewClient(provider, apiKey string) *Client {
	return &Client{
		provider: provider,
		apiKey:   apiKey,
		client:   &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *Client) SetBaseURL(url string) {
	c.baseURL = url
}

// Rerank returns the docs' new order as indices into docs, best first.
func (c *Client) Rerank(ctx context.Context, query string, docs []string) ([]int, error) {
	spec, ok := providers[c.provider]
	if !ok {
		indices := make([]int, len(docs))
		for i := range indices {
			indices[i] = i
		}
		return indices, nil
	}

	url := spec.url
	if c.baseURL != "" {
		url = c.baseURL
	}

	body, err := json.Marshal(map[string]interface{}{
		"model":     spec.model,
		"query":     query,
		"documents": docs,
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s rerank api error: %d", c.provider, resp.StatusCode)
	}

	var result struct {
		Results []struct {
			Index int     `json:"index"`
			Score float64 `json:"relevance_score"`
		} `json:"results"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, err
	}

	indices := make([]int, 0, len(docs))
	for _, r := range result.Results {
		if r.Index >= 0 && r.Index < len(docs) {
			indices = append(indices, r.Index)
		}
	}
	return indices, nil
}
