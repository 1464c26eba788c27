package embedding

import (
	"container/list"
	"strings"
	"sync"
)

// tokenSep joins query tokens into a memo key. Ingredient text does not contain control characters.
const tokenSep = "\x1f"

// QueryCache memoizes query vectors for one snapshot, keyed by the normalized token
// sequence. Token order is part of the key. The least recently used query is evicted once
// the cache holds capacity entries.
type QueryCache struct {
	capacity int
	entries  map[string]*list.Element
	recency  *list.List // front is most recent
	mu       sync.Mutex
}

type queryEntry struct {
	key string
	vec []float32
}

// NewQueryCache returns a memo of at most capacity query vectors. A non-positive
// capacity disables memoization.
func NewQueryCache(capacity int) *QueryCache {
	return &QueryCache{
		capacity: capacity,
		entries:  make(map[string]*list.Element),
		recency:  list.New(),
	}
}

// Get returns the vector memoized for tokens. Callers must not modify it.
func (c *QueryCache) Get(tokens []string) ([]float32, bool) {
	key := strings.Join(tokens, tokenSep)
	c.mu.Lock()
	defer c.mu.Unlock()
	elem, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	c.recency.MoveToFront(elem)
	return elem.Value.(*queryEntry).vec, true
}

// Put memoizes vec for tokens.
func (c *QueryCache) Put(tokens []string, vec []float32) {
	if c.capacity <= 0 {
		return
	}
	key := strings.Join(tokens, tokenSep)
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.entries[key]; ok {
		elem.Value.(*queryEntry).vec = vec
		c.recency.MoveToFront(elem)
		return
	}
	c.entries[key] = c.recency.PushFront(&queryEntry{key: key, vec: vec})
	for c.recency.Len() > c.capacity {
		last := c.recency.Back()
		c.recency.Remove(last)
		delete(c.entries, last.Value.(*queryEntry).key)
	}
}

// Len returns the number of memoized queries.
func (c *QueryCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.recency.Len()
}
