// Package assets locates model and texture files on disk and caches their contents.
package assets

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// ErrNotFound is returned when a file is not present in any search path.
var ErrNotFound = errors.New("file not found")

// Locator resolves file names against an ordered list of search paths.
// Paths added later are searched first.
type Locator struct {
	paths []string
	cache *Cache
	mu    sync.RWMutex
}

// NewLocator creates a locator searching the given directories in order.
func NewLocator(paths ...string) *Locator {
	l := &Locator{cache: NewCache()}
	for i := len(paths) - 1; i >= 0; i-- {
		l.AddPath(paths[i])
	}
	return l
}

// AddPath adds a search directory with the highest priority.
func (l *Locator) AddPath(dir string) {
	if dir == "" {
		return
	}
	l.mu.Lock()
	l.paths = append(l.paths, dir)
	l.mu.Unlock()
}

// Paths returns the search directories in search order.
func (l *Locator) Paths() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]string, 0, len(l.paths))
	for i := len(l.paths) - 1; i >= 0; i-- {
		out = append(out, l.paths[i])
	}
	return out
}

// Find returns the path of an existing file named name.
//
// Absolute names and names relative to the working directory are tried
// first. Then name is joined to each search path, and finally only its base
// name is tried, which finds textures referenced with paths from the
// authoring machine.
func (l *Locator) Find(name string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("%w: empty name", ErrNotFound)
	}
	name = filepath.FromSlash(strings.ReplaceAll(name, "\\", "/"))

	if isFile(name) {
		return name, nil
	}

	paths := l.Paths()
	if !filepath.IsAbs(name) {
		for _, dir := range paths {
			if p := filepath.Join(dir, name); isFile(p) {
				return p, nil
			}
		}
	}

	base := filepath.Base(name)
	for _, dir := range paths {
		if p := filepath.Join(dir, base); isFile(p) {
			return p, nil
		}
	}

	return "", fmt.Errorf("%w: %s", ErrNotFound, name)
}

// Load finds name and returns its contents, caching by resolved path.
func (l *Locator) Load(name string) ([]byte, error) {
	path, err := l.Find(name)
	if err != nil {
		return nil, err
	}

	if data, ok := l.cache.Get(path); ok {
		return data, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	l.cache.Set(path, data)
	return data, nil
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// Cache is a simple in-memory cache for loaded files.
type Cache struct {
	data map[string][]byte
	mu   sync.Mutex
}

// NewCache creates a new cache.
func NewCache() *Cache {
	return &Cache{
		data: make(map[string][]byte),
	}
}

// Get retrieves an item from cache.
func (c *Cache) Get(key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	data, ok := c.data[key]
	return data, ok
}

// Set stores an item in cache.
func (c *Cache) Set(key string, data []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = data
}
