package vector_test

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Rajdeep108/smartifyLLM/internal/embedding"
	"github.com/Rajdeep108/smartifyLLM/internal/vector"
)

// fixedEmbedder returns a canned vector per text, to control similarity
// scores and dimensionality exactly.
type fixedEmbedder struct {
	vectors map[string][]float32
	dim     int
}

func (f *fixedEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	if v, ok := f.vectors[text]; ok {
		return v, nil
	}
	return nil, errors.New("no vector for text")
}

func (f *fixedEmbedder) Dimension() int { return f.dim }

func chunksOf(texts ...string) []vector.Chunk {
	out := make([]vector.Chunk, len(texts))
	for i, t := range texts {
		out[i] = vector.Chunk{Source: "doc", Text: t}
	}
	return out
}

// craftedHeader builds a syntactically valid index header with the given
// dimension and record count and no body.
func craftedHeader(dim, count uint32) []byte {
	var buf bytes.Buffer
	buf.WriteString("SMIX")
	binary.Write(&buf, binary.LittleEndian, uint16(1))
	binary.Write(&buf, binary.LittleEndian, dim)
	binary.Write(&buf, binary.LittleEndian, count)
	return buf.Bytes()
}

func TestIndex_Query(t *testing.T) {
	ctx := context.Background()

	t.Run("Empty Index Returns Empty", func(t *testing.T) {
		ix := vector.NewIndex(embedding.NewHashEmbedder(32))
		got, err := ix.Query(ctx, "anything", 5)
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("Invalid TopK", func(t *testing.T) {
		ix := vector.NewIndex(embedding.NewHashEmbedder(32))
		_, err := ix.Query(ctx, "anything", 0)
		assert.ErrorIs(t, err, vector.ErrIndexConfig)
	})

	t.Run("Ranking Order", func(t *testing.T) {
		e := &fixedEmbedder{dim: 2, vectors: map[string][]float32{
			"q":    {1, 0},
			"near": {1, 0.1},
			"far":  {0, 1},
			"mid":  {1, 1},
		}}
		ix := vector.NewIndex(e)
		require.NoError(t, ix.BuildFromDocument(ctx, chunksOf("far", "mid", "near")))

		got, err := ix.Query(ctx, "q", 2)
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, "near", got[0].Text)
		assert.Equal(t, "mid", got[1].Text)
		assert.Equal(t, 1, got[0].Rank)
		assert.Equal(t, 2, got[1].Rank)
		assert.Greater(t, got[0].Score, got[1].Score)
	})

	t.Run("Ties Keep Insertion Order", func(t *testing.T) {
		e := &fixedEmbedder{dim: 2, vectors: map[string][]float32{
			"q": {1, 0},
			"a": {2, 0},
			"b": {3, 0}, // same direction as "a": identical cosine score
		}}
		ix := vector.NewIndex(e)
		require.NoError(t, ix.BuildFromDocument(ctx, chunksOf("a", "b")))

		got, err := ix.Query(ctx, "q", 2)
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, "a", got[0].Text)
		assert.Equal(t, "b", got[1].Text)
	})

	t.Run("Semantic Scenario", func(t *testing.T) {
		e := embedding.NewHashEmbedder(128)
		ix := vector.NewIndex(e)
		chunks := []vector.Chunk{
			{Source: "doc", Text: "AI is transforming the world"},
			{Source: "doc", Text: ". Machine learning enables AI"},
			{Source: "doc", Text: "."},
		}
		require.NoError(t, ix.BuildFromDocument(ctx, chunks))

		got, err := ix.Query(ctx, "How is AI transforming society?", 2)
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, "AI is transforming the world", got[0].Text)
	})
}

func TestIndex_BuildAndUpdate(t *testing.T) {
	ctx := context.Background()

	t.Run("Rebuild Replaces", func(t *testing.T) {
		ix := vector.NewIndex(embedding.NewHashEmbedder(32))
		require.NoError(t, ix.BuildFromDocument(ctx, chunksOf("one", "two")))
		require.NoError(t, ix.BuildFromDocument(ctx, chunksOf("three")))
		assert.Equal(t, 1, ix.Len())
	})

	t.Run("Update Appends", func(t *testing.T) {
		ix := vector.NewIndex(embedding.NewHashEmbedder(32))
		require.NoError(t, ix.BuildFromDocument(ctx, chunksOf("one", "two")))
		require.NoError(t, ix.Update(ctx, chunksOf("three")))
		assert.Equal(t, 3, ix.Len())
		assert.True(t, ix.Populated(ctx))
	})

	t.Run("Update Rejects Dimension Mismatch", func(t *testing.T) {
		e := &fixedEmbedder{dim: 3, vectors: map[string][]float32{
			"a": {1, 0, 0},
			"b": {1, 0}, // wrong dimensionality
		}}
		ix := vector.NewIndex(e)
		require.NoError(t, ix.BuildFromDocument(ctx, chunksOf("a")))
		err := ix.Update(ctx, chunksOf("b"))
		assert.ErrorIs(t, err, vector.ErrDimension)
	})
}

func TestIndex_SaveLoad(t *testing.T) {
	ctx := context.Background()

	t.Run("Round Trip Preserves Query Results", func(t *testing.T) {
		e := embedding.NewHashEmbedder(64)
		ix := vector.NewIndex(e)
		require.NoError(t, ix.BuildFromDocument(ctx, []vector.Chunk{
			{Source: "s1", Text: "the quick brown fox"},
			{Source: "s2", Text: "jumps over the lazy dog"},
			{Source: "s3", Text: "machine learning systems"},
		}))

		path := filepath.Join(t.TempDir(), "index.bin")
		require.NoError(t, ix.Save(path))

		fresh := vector.NewIndex(e)
		require.NoError(t, fresh.Load(path))
		assert.Equal(t, ix.Len(), fresh.Len())

		want, err := ix.Query(ctx, "quick fox", 3)
		require.NoError(t, err)
		got, err := fresh.Query(ctx, "quick fox", 3)
		require.NoError(t, err)
		require.Len(t, got, len(want))
		for i := range want {
			assert.Equal(t, want[i].Source, got[i].Source)
			assert.Equal(t, want[i].Text, got[i].Text)
			assert.InDelta(t, want[i].Score, got[i].Score, 1e-9)
		}
	})

	t.Run("Load Missing File", func(t *testing.T) {
		ix := vector.NewIndex(embedding.NewHashEmbedder(16))
		err := ix.Load(filepath.Join(t.TempDir(), "absent.bin"))
		assert.ErrorIs(t, err, vector.ErrIndexFormat)
	})

	t.Run("Load Corrupt File", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "corrupt.bin")
		require.NoError(t, os.WriteFile(path, []byte("not an index"), 0o600))
		ix := vector.NewIndex(embedding.NewHashEmbedder(16))
		err := ix.Load(path)
		assert.ErrorIs(t, err, vector.ErrIndexFormat)
	})

	t.Run("Load Truncated File", func(t *testing.T) {
		e := embedding.NewHashEmbedder(16)
		ix := vector.NewIndex(e)
		require.NoError(t, ix.BuildFromDocument(ctx, chunksOf("some indexed text")))
		path := filepath.Join(t.TempDir(), "index.bin")
		require.NoError(t, ix.Save(path))

		raw, err := os.ReadFile(path)
		require.NoError(t, err)
		require.NoError(t, os.WriteFile(path, raw[:len(raw)/2], 0o600))

		err = vector.NewIndex(e).Load(path)
		assert.ErrorIs(t, err, vector.ErrIndexFormat)
	})

	t.Run("Load Rejects Implausible Dimension", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "index.bin")
		require.NoError(t, os.WriteFile(path, craftedHeader(1<<20, 1), 0o600))

		err := vector.NewIndex(embedding.NewHashEmbedder(16)).Load(path)
		assert.ErrorIs(t, err, vector.ErrIndexFormat)
	})

	t.Run("Load Rejects Oversized Count Without Allocating", func(t *testing.T) {
		// A header claiming four billion records backed by an empty body
		// must fail on the missing bytes, not try to reserve the memory.
		path := filepath.Join(t.TempDir(), "index.bin")
		require.NoError(t, os.WriteFile(path, craftedHeader(16, 0xFFFFFFFF), 0o600))

		err := vector.NewIndex(embedding.NewHashEmbedder(16)).Load(path)
		assert.ErrorIs(t, err, vector.ErrIndexFormat)
	})

	t.Run("Load Rejects Records With Zero Dimension", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "index.bin")
		require.NoError(t, os.WriteFile(path, craftedHeader(0, 0xFFFFFFFF), 0o600))

		err := vector.NewIndex(embedding.NewHashEmbedder(16)).Load(path)
		assert.ErrorIs(t, err, vector.ErrIndexFormat)
	})

	t.Run("Load Dimension Mismatch", func(t *testing.T) {
		ix := vector.NewIndex(embedding.NewHashEmbedder(16))
		require.NoError(t, ix.BuildFromDocument(ctx, chunksOf("text")))
		path := filepath.Join(t.TempDir(), "index.bin")
		require.NoError(t, ix.Save(path))

		other := vector.NewIndex(embedding.NewHashEmbedder(32))
		err := other.Load(path)
		assert.ErrorIs(t, err, vector.ErrIndexFormat)
	})
}

func TestCosineSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a, b []float32
		want float64
	}{
		{"Identical Direction", []float32{1, 0}, []float32{2, 0}, 1},
		{"Orthogonal", []float32{1, 0}, []float32{0, 1}, 0},
		{"Opposite", []float32{1, 0}, []float32{-1, 0}, -1},
		{"Zero Vector", []float32{0, 0}, []float32{1, 0}, 0},
		{"Length Mismatch", []float32{1}, []float32{1, 0}, 0},
		{"Empty", nil, nil, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, vector.CosineSimilarity(tt.a, tt.b), 1e-9)
		})
	}
}
