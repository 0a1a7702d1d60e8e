package embedding

import (
	"context"
	"sync"
)

// Embedder converts text into a fixed-length vector. Implementations must be
// deterministic for a given model and input text.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	Dimension() int
}

// Cache holds constructed embedders keyed by model name, so repeated lookups
// of the same model reuse one client. It is owned by whoever wires the
// pipeline and passed down; Clear releases every cached instance.
type Cache struct {
	mu        sync.RWMutex
	embedders map[string]Embedder
}

func NewCache() *Cache {
	return &Cache{embedders: make(map[string]Embedder)}
}

// GetOrCreate returns the cached embedder for name, building and caching it
// on first use.
func (c *Cache) GetOrCreate(name string, build func() (Embedder, error)) (Embedder, error) {
	c.mu.RLock()
	if e, ok := c.embedders[name]; ok {
		c.mu.RUnlock()
		return e, nil
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()

	// Double check
	if e, ok := c.embedders[name]; ok {
		return e, nil
	}

	e, err := build()
	if err != nil {
		return nil, err
	}
	c.embedders[name] = e
	return e, nil
}

func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.embedders = make(map[string]Embedder)
}
