package texture

import (
	"sync"

	"github.com/Faultbox/modelxchange/pkg/gpu"
)

// Cache shares decoded images between the materials of one import. Each key
// is decoded once even when requested concurrently; entries are reference
// counted and dropped when the last holder releases them.
type Cache struct {
	mu      sync.Mutex
	entries map[string]*cacheEntry
}

type cacheEntry struct {
	ready chan struct{}
	image *gpu.Image
	err   error
	refs  int
}

// NewCache creates an empty cache.
func NewCache() *Cache {
	return &Cache{entries: make(map[string]*cacheEntry)}
}

// Acquire returns the image for key, calling load the first time key is
// requested. Every successful Acquire must be paired with a Release.
// Failed loads are not cached.
func (c *Cache) Acquire(key string, load func() (*gpu.Image, error)) (*gpu.Image, error) {
	c.mu.Lock()
	if e, ok := c.entries[key]; ok {
		e.refs++
		c.mu.Unlock()
		<-e.ready
		if e.err != nil {
			c.Release(key)
			return nil, e.err
		}
		return e.image, nil
	}

	e := &cacheEntry{ready: make(chan struct{}), refs: 1}
	c.entries[key] = e
	c.mu.Unlock()

	e.image, e.err = load()
	close(e.ready)

	if e.err != nil {
		c.Release(key)
		return nil, e.err
	}
	return e.image, nil
}

// Release drops one reference to key.
func (c *Cache) Release(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return
	}
	e.refs--
	if e.refs <= 0 {
		delete(c.entries, key)
	}
}

// Refs returns the reference count of key.
func (c *Cache) Refs(key string) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[key]; ok {
		return e.refs
	}
	return 0
}

// Len returns the number of cached images.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
