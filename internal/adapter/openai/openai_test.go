package openai_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Rajdeep108/smartifyLLM/internal/adapter/openai"
)

func TestEmbedder_Embed(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.True(t, strings.HasSuffix(r.URL.Path, "/embeddings"))
			json.NewEncoder(w).Encode(map[string]any{
				"data": []map[string]any{
					{"embedding": []float32{0.5, 0.25}},
				},
			})
		}))
		defer ts.Close()

		e, err := openai.NewEmbedder("test-key", "")
		require.NoError(t, err)
		e.SetBaseURL(ts.URL)

		vec, err := e.Embed(ctx, "hello world")
		require.NoError(t, err)
		require.Len(t, vec, 2)
		assert.InDelta(t, 0.5, vec[0], 1e-6)
	})

	t.Run("Empty Response Data", func(t *testing.T) {
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(map[string]any{"data": []map[string]any{}})
		}))
		defer ts.Close()

		e, err := openai.NewEmbedder("test-key", "")
		require.NoError(t, err)
		e.SetBaseURL(ts.URL)

		_, err = e.Embed(ctx, "hello world")
		assert.Error(t, err)
	})

	t.Run("Missing API Key", func(t *testing.T) {
		_, err := openai.NewEmbedder("", "")
		assert.ErrorContains(t, err, "api key")
	})
}

func TestEmbedder_Dimension(t *testing.T) {
	small, err := openai.NewEmbedder("test-key", "")
	require.NoError(t, err)
	assert.Equal(t, 1536, small.Dimension())

	large, err := openai.NewEmbedder("test-key", "text-embedding-3-large")
	require.NoError(t, err)
	assert.Equal(t, 3072, large.Dimension())
}

func TestGenerator_Infer(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.True(t, strings.HasSuffix(r.URL.Path, "/chat/completions"))
			json.NewEncoder(w).Encode(map[string]any{
				"choices": []map[string]any{
					{"message": map[string]any{"role": "assistant", "content": "the answer"}},
				},
			})
		}))
		defer ts.Close()

		g, err := openai.NewGenerator("test-key", "")
		require.NoError(t, err)
		g.SetBaseURL(ts.URL)

		out, err := g.Infer(ctx, "a prompt")
		require.NoError(t, err)
		assert.Equal(t, "the answer", out)
	})

	t.Run("Missing API Key", func(t *testing.T) {
		_, err := openai.NewGenerator("", "")
		assert.ErrorContains(t, err, "api key")
	})
}
