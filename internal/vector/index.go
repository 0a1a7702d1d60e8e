package vector

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/Rajdeep108/smartifyLLM/internal/embedding"
)

var (
	ErrIndexFormat = errors.New("invalid index format")
	ErrIndexConfig = errors.New("invalid index configuration")
	ErrDimension   = errors.New("embedding dimensionality mismatch")
)

// Index is an in-memory semantic index over chunks with single-file binary
// persistence. A naive linear scan per query is fine at the document-corpus
// scale this targets; retrieval sits behind a small interface upstream so a
// smarter backend can be swapped in.
//
// Reads may run concurrently; BuildFromDocument, Update and Load take the
// write lock so a reload never races an in-flight query.
type Index struct {
	mu       sync.RWMutex
	embedder embedding.Embedder
	records  []Record
	dim      int
}

func NewIndex(e embedding.Embedder) *Index {
	return &Index{embedder: e}
}

// BuildFromDocument replaces the entire index contents with embeddings of
// the given chunks. Rebuild and Update are deliberately distinct: silently
// merging index generations is a correctness hazard if the embedding model
// changes between them.
func (ix *Index) BuildFromDocument(ctx context.Context, chunks []Chunk) error {
	records, dim, err := ix.embedAll(ctx, chunks)
	if err != nil {
		return err
	}

	ix.mu.Lock()
	defer ix.mu.Unlock()
	ix.records = records
	ix.dim = dim
	slog.InfoContext(ctx, "index rebuilt", "chunks", len(records), "dimension", dim)
	return nil
}

// Update appends embeddings of the given chunks to the existing contents.
func (ix *Index) Update(ctx context.Context, chunks []Chunk) error {
	records, dim, err := ix.embedAll(ctx, chunks)
	if err != nil {
		return err
	}

	ix.mu.Lock()
	defer ix.mu.Unlock()
	if ix.dim != 0 && dim != 0 && dim != ix.dim {
		return fmt.Errorf("%w: index has %d, new chunks have %d", ErrDimension, ix.dim, dim)
	}
	if ix.dim == 0 {
		ix.dim = dim
	}
	ix.records = append(ix.records, records...)
	slog.InfoContext(ctx, "index updated", "added", len(records), "total", len(ix.records))
	return nil
}

func (ix *Index) embedAll(ctx context.Context, chunks []Chunk) ([]Record, int, error) {
	records := make([]Record, 0, len(chunks))
	dim := 0
	for _, c := range chunks {
		vec, err := ix.embedder.Embed(ctx, c.Text)
		if err != nil {
			return nil, 0, fmt.Errorf("embed chunk from %q: %w", c.Source, err)
		}
		if dim == 0 {
			dim = len(vec)
		} else if len(vec) != dim {
			return nil, 0, fmt.Errorf("%w: got %d then %d within one batch", ErrDimension, dim, len(vec))
		}
		records = append(records, Record{Chunk: c, Vector: vec})
	}
	return records, dim, nil
}

// Len reports the number of indexed chunks.
func (ix *Index) Len() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.records)
}

// Populated reports whether the index holds any chunks.
func (ix *Index) Populated(context.Context) bool {
	return ix.Len() > 0
}

// Query embeds text and returns the topK most similar chunks, sorted
// descending by cosine similarity with ties broken by insertion order. An
// empty index yields an empty result, not an error.
func (ix *Index) Query(ctx context.Context, text string, topK int) ([]Candidate, error) {
	if topK <= 0 {
		return nil, fmt.Errorf("%w: top_k must be positive, got %d", ErrIndexConfig, topK)
	}

	ix.mu.RLock()
	defer ix.mu.RUnlock()
	if len(ix.records) == 0 {
		return nil, nil
	}

	query, err := ix.embedder.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	candidates := make([]Candidate, len(ix.records))
	for i, r := range ix.records {
		candidates[i] = Candidate{
			Source: r.Chunk.Source,
			Text:   r.Chunk.Text,
			Score:  CosineSimilarity(query, r.Vector),
		}
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Score > candidates[j].Score
	})

	if topK < len(candidates) {
		candidates = candidates[:topK]
	}
	for i := range candidates {
		candidates[i].Rank = i + 1
	}
	return candidates, nil
}
