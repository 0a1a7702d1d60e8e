package rank

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/Rajdeep108/smartifyLLM/internal/embedding"
	"github.com/Rajdeep108/smartifyLLM/internal/vector"
)

// Reranker optionally refines an embedder-based ranking, returning the new
// order as indices into the input documents.
type Reranker interface {
	Rerank(ctx context.Context, query string, docs []string) ([]int, error)
}

// Ranker scores (source, text) candidates against a query using the same
// embedding and similarity semantics as the vector index, so local and web
// scores stay comparable when merged.
type Ranker struct {
	embedder embedding.Embedder
	reranker Reranker // may be nil
}

func NewRanker(e embedding.Embedder, r Reranker) *Ranker {
	return &Ranker{embedder: e, reranker: r}
}

// Rank scores every candidate and returns them sorted descending by score.
// Blank candidates score 0 rather than being embedded; a candidate whose
// embedding fails also scores 0 instead of failing the whole ranking. Ties
// are broken by source for a deterministic order over map input.
func (r *Ranker) Rank(ctx context.Context, query string, candidates map[string]string) ([]vector.Candidate, error) {
	if len(candidates) == 0 {
		return nil, nil
	}

	queryVec, err := r.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	sources := make([]string, 0, len(candidates))
	for s := range candidates {
		sources = append(sources, s)
	}
	sort.Strings(sources)

	ranked := make([]vector.Candidate, 0, len(sources))
	for _, source := range sources {
		content := candidates[source]
		score := 0.0
		if strings.TrimSpace(content) != "" {
			vec, err := r.embedder.Embed(ctx, content)
			if err != nil {
				slog.WarnContext(ctx, "candidate embedding failed, scoring zero", "source", source, "error", err)
			} else {
				score = vector.CosineSimilarity(queryVec, vec)
			}
		}
		ranked = append(ranked, vector.Candidate{Source: source, Text: content, Score: score})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})

	if r.reranker != nil {
		ranked = r.refine(ctx, query, ranked)
	}

	for i := range ranked {
		ranked[i].Rank = i + 1
	}
	return ranked, nil
}

// refine applies the remote reranker; on any failure the embedder order is
// kept.
func (r *Ranker) refine(ctx context.Context, query string, ranked []vector.Candidate) []vector.Candidate {
	docs := make([]string, len(ranked))
	for i, c := range ranked {
		docs[i] = c.Text
	}
	indices, err := r.reranker.Rerank(ctx, query, docs)
	if err != nil {
		slog.WarnContext(ctx, "rerank failed, keeping embedder order", "error", err)
		return ranked
	}

	refined := make([]vector.Candidate, 0, len(ranked))
	for _, idx := range indices {
		if idx >= 0 && idx < len(ranked) {
			refined = append(refined, ranked[idx])
		}
	}
	if len(refined) == 0 {
		return ranked
	}
	return refined
}

// RankBestAnswer returns the top-scored candidate's source and text, or zero
// values when the candidate set is empty.
func (r *Ranker) RankBestAnswer(ctx context.Context, query string, candidates map[string]string) (string, string, error) {
	ranked, err := r.Rank(ctx, query, candidates)
	if err != nil {
		return "", "", err
	}
	if len(ranked) == 0 {
		return "", "", nil
	}
	return ranked[0].Source, ranked[0].Text, nil
}
