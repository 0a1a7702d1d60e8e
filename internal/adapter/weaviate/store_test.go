package weaviate_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	wv "github.com/weaviate/weaviate-go-client/v5/weaviate"

	"github.com/Rajdeep108/smartifyLLM/internal/adapter/weaviate"
	"github.com/Rajdeep108/smartifyLLM/internal/embedding"
	"github.com/Rajdeep108/smartifyLLM/internal/vector"
)

// storeFor wires a Store to a stub Weaviate REST server.
func storeFor(t *testing.T, handler http.Handler) *weaviate.Store {
	t.Helper()
	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)

	client, err := wv.NewClient(wv.Config{
		Host:   strings.TrimPrefix(ts.URL, "http://"),
		Scheme: "http",
	})
	require.NoError(t, err)
	return weaviate.NewStore(client, embedding.NewHashEmbedder(8))
}

func graphqlHandler(t *testing.T, data map[string]any) http.Handler {
	t.Helper()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/v1/meta" {
			w.Write([]byte(`{"version": "1.19.0"}`))
			return
		}
		require.Equal(t, "/v1/graphql", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]any{"data": data})
	})
}

func TestStore_EnsureSchema(t *testing.T) {
	ctx := context.Background()

	t.Run("Creates Missing Class", func(t *testing.T) {
		var created bool
		mux := http.NewServeMux()
		mux.HandleFunc("GET /v1/schema/ContextChunk", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		})
		mux.HandleFunc("POST /v1/schema", func(w http.ResponseWriter, r *http.Request) {
			created = true
			var class map[string]any
			require.NoError(t, json.NewDecoder(r.Body).Decode(&class))
			assert.Equal(t, "ContextChunk", class["class"])
			json.NewEncoder(w).Encode(class)
		})

		store := storeFor(t, mux)
		require.NoError(t, store.EnsureSchema(ctx))
		assert.True(t, created)
	})

	t.Run("Skips Existing Class", func(t *testing.T) {
		var created bool
		mux := http.NewServeMux()
		mux.HandleFunc("GET /v1/schema/ContextChunk", func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(map[string]any{"class": "ContextChunk"})
		})
		mux.HandleFunc("POST /v1/schema", func(w http.ResponseWriter, r *http.Request) {
			created = true
		})

		store := storeFor(t, mux)
		require.NoError(t, store.EnsureSchema(ctx))
		assert.False(t, created)
	})
}

func TestStore_Query(t *testing.T) {
	ctx := context.Background()

	t.Run("Maps Hits To Candidates", func(t *testing.T) {
		store := storeFor(t, graphqlHandler(t, map[string]any{
			"Get": map[string]any{
				"ContextChunk": []map[string]any{
					{
						"content":     "chunk text",
						"source":      "doc.txt",
						"_additional": map[string]any{"certainty": 0.9},
					},
				},
			},
		}))

		got, err := store.Query(ctx, "a question", 3)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "chunk text", got[0].Text)
		assert.Equal(t, "doc.txt", got[0].Source)
		// certainty 0.9 maps back to cosine 0.8
		assert.InDelta(t, 0.8, got[0].Score, 1e-9)
		assert.Equal(t, 1, got[0].Rank)
	})

	t.Run("Invalid TopK", func(t *testing.T) {
		store := storeFor(t, graphqlHandler(t, map[string]any{}))
		_, err := store.Query(ctx, "a question", 0)
		assert.ErrorIs(t, err, vector.ErrIndexConfig)
	})
}

func TestStore_Populated(t *testing.T) {
	ctx := context.Background()

	aggregate := func(count float64) map[string]any {
		return map[string]any{
			"Aggregate": map[string]any{
				"ContextChunk": []map[string]any{
					{"meta": map[string]any{"count": count}},
				},
			},
		}
	}

	t.Run("Counts Objects", func(t *testing.T) {
		assert.True(t, storeFor(t, graphqlHandler(t, aggregate(2))).Populated(ctx))
	})

	t.Run("Empty Class", func(t *testing.T) {
		assert.False(t, storeFor(t, graphqlHandler(t, aggregate(0))).Populated(ctx))
	})

	t.Run("Errors Count As Unpopulated", func(t *testing.T) {
		store := storeFor(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		assert.False(t, store.Populated(ctx))
	})
}
