package websearch

import (
	"container/list"
	"sync"
	"time"
)

type cacheEntry struct {
	key      string
	results  map[string]string
	inserted time.Time
	element  *list.Element
}

func (e *cacheEntry) expired(ttl time.Duration) bool {
	return time.Since(e.inserted) > ttl
}

// ResultsCache is an in-memory LRU cache with TTL for fetched web results,
// keyed by the exact query/parameter tuple. Entries are immutable once
// written; a miss always falls back to a live fetch, so eviction is never a
// correctness concern.
type ResultsCache struct {
	mu      sync.Mutex
	entries map[string]*cacheEntry
	lruList *list.List
	maxSize int
	ttl     time.Duration
}

func NewResultsCache(maxSize int, ttl time.Duration) *ResultsCache {
	return &ResultsCache{
		entries: make(map[string]*cacheEntry),
		lruList: list.New(),
		maxSize: maxSize,
		ttl:     ttl,
	}
}

// Get returns the cached results for key, or nil on a miss or expiry.
func (c *ResultsCache) Get(key string) map[string]string {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, exists := c.entries[key]
	if !exists || entry.expired(c.ttl) {
		if exists {
			c.remove(key)
		}
		return nil
	}

	c.lruList.MoveToFront(entry.element)
	return entry.results
}

// Set stores results under key, evicting the least recently used entry when
// full.
func (c *ResultsCache) Set(key string, results map[string]string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if entry, exists := c.entries[key]; exists {
		entry.results = results
		entry.inserted = time.Now()
		c.lruList.MoveToFront(entry.element)
		return
	}

	if c.lruList.Len() >= c.maxSize {
		c.evictLRU()
	}

	entry := &cacheEntry{key: key, results: results, inserted: time.Now()}
	entry.element = c.lruList.PushFront(key)
	c.entries[key] = entry
}

func (c *ResultsCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *ResultsCache) remove(key string) {
	if entry, exists := c.entries[key]; exists {
		c.lruList.Remove(entry.element)
		delete(c.entries, key)
	}
}

func (c *ResultsCache) evictLRU() {
	back := c.lruList.Back()
	if back == nil {
		return
	}
	c.remove(back.Value.(string))
}
