package weaviate

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/weaviate/weaviate-go-client/v5/weaviate"
	"github.com/weaviate/weaviate-go-client/v5/weaviate/graphql"
	"github.com/weaviate/weaviate/entities/models"

	"github.com/Rajdeep108/smartifyLLM/internal/embedding"
	"github.com/Rajdeep108/smartifyLLM/internal/vector"
)

const className = "ContextChunk"

// Store is a remote vector-search backend. The in-process index remains the
// default; this adapter exists so retrieval can be pointed at a Weaviate
// instance without the orchestrator noticing. Save/load do not apply here,
// the remote instance owns persistence.
type Store struct {
	client   *weaviate.Client
	embedder embedding.Embedder
}

func NewStore(client *weaviate.Client, e embedding.Embedder) *Store {
	return &Store{client: client, embedder: e}
}

// EnsureSchema creates the chunk class if the instance does not have it yet.
func (s *Store) EnsureSchema(ctx context.Context) error {
	exists, err := s.client.Schema().ClassExistenceChecker().WithClassName(className).Do(ctx)
	if err != nil {
		return fmt.Errorf("check class: %w", err)
	}
	if exists {
		return nil
	}

	class := &models.Class{
		Class:      className,
		Vectorizer: "none",
		Properties: []*models.Property{
			{Name: "content", DataType: []string{"text"}},
			{Name: "source", DataType: []string{"text"}},
		},
	}
	if err := s.client.Schema().ClassCreator().WithClass(class).Do(ctx); err != nil {
		return fmt.Errorf("create class: %w", err)
	}
	slog.InfoContext(ctx, "created weaviate class", "class", className)
	return nil
}

// Put embeds and stores chunks remotely.
func (s *Store) Put(ctx context.Context, chunks []vector.Chunk) error {
	for _, c := range chunks {
		vec, err := s.embedder.Embed(ctx, c.Text)
		if err != nil {
			return fmt.Errorf("embed chunk from %q: %w", c.Source, err)
		}
		_, err = s.client.Data().Creator().
			WithClassName(className).
			WithProperties(map[string]interface{}{
				"content": c.Text,
				"source":  c.Source,
			}).
			WithVector(vec).
			Do(ctx)
		if err != nil {
			return fmt.Errorf("store chunk from %q: %w", c.Source, err)
		}
	}
	return nil
}

// Query embeds text and runs a nearVector search, returning candidates in
// the same shape and score semantics as the in-process index.
func (s *Store) Query(ctx context.Context, text string, topK int) ([]vector.Candidate, error) {
	if topK <= 0 {
		return nil, fmt.Errorf("%w: top_k must be positive, got %d", vector.ErrIndexConfig, topK)
	}

	queryVec, err := s.embedder.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	nearVector := s.client.GraphQL().NearVectorArgBuilder().WithVector(queryVec)
	fields := []graphql.Field{
		{Name: "content"},
		{Name: "source"},
		{Name: "_additional", Fields: []graphql.Field{{Name: "certainty"}}},
	}

	res, err := s.client.GraphQL().Get().
		WithClassName(className).
		WithNearVector(nearVector).
		WithLimit(topK).
		WithFields(fields...).
		Do(ctx)
	if err != nil {
		return nil, err
	}
	if len(res.Errors) > 0 {
		return nil, fmt.Errorf("graphql error: %v", res.Errors)
	}

	var candidates []vector.Candidate
	data, ok := res.Data["Get"].(map[string]interface{})
	if !ok {
		return nil, nil
	}
	hits, ok := data[className].([]interface{})
	if !ok {
		return nil, nil
	}
	for _, h := range hits {
		props, ok := h.(map[string]interface{})
		if !ok {
			continue
		}
		c := vector.Candidate{Rank: len(candidates) + 1}
		if content, ok := props["content"].(string); ok {
			c.Text = content
		}
		if source, ok := props["source"].(string); ok {
			c.Source = source
		}
		if additional, ok := props["_additional"].(map[string]interface{}); ok {
			if certainty, ok := additional["certainty"].(float64); ok {
				// certainty is (1+cosine)/2; map back to cosine so scores
				// stay comparable with the local index and web ranking.
				c.Score = 2*certainty - 1
			}
		}
		candidates = append(candidates, c)
	}
	return candidates, nil
}

// Populated reports whether the remote class holds any objects. Errors count
// as unpopulated so the orchestrator falls back to web retrieval.
func (s *Store) Populated(ctx context.Context) bool {
	res, err := s.client.GraphQL().Aggregate().
		WithClassName(className).
		WithFields(graphql.Field{Name: "meta", Fields: []graphql.Field{{Name: "count"}}}).
		Do(ctx)
	if err != nil || len(res.Errors) > 0 {
		slog.WarnContext(ctx, "weaviate aggregate failed", "error", err)
		return false
	}

	data, ok := res.Data["Aggregate"].(map[string]interface{})
	if !ok {
		return false
	}
	rows, ok := data[className].([]interface{})
	if !ok || len(rows) == 0 {
		return false
	}
	row, ok := rows[0].(map[string]interface{})
	if !ok {
		return false
	}
	meta, ok := row["meta"].(map[string]interface{})
	if !ok {
		return false
	}
	count, ok := meta["count"].(float64)
	return ok && count > 0
}
