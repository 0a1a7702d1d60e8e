package vector

// Chunk is a bounded slice of a larger document, tagged with the identifier
// of the document it came from. Immutable once created.
type Chunk struct {
	Source string
	Text   string
}

// Record pairs a chunk with its embedding vector.
type Record struct {
	Chunk  Chunk
	Vector []float32
}

// Candidate is a (source, text) pair scored against a query. Transient,
// produced per query, never persisted. Rank is 1-based.
type Candidate struct {
	Source string  `json:"source"`
	Text   string  `json:"text"`
	Score  float64 `json:"score"`
	Rank   int     `json:"rank"`
}
