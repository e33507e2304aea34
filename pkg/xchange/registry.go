package xchange

import (
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/Faultbox/modelxchange/internal/logger"
	"github.com/Faultbox/modelxchange/internal/meshio"
	"github.com/Faultbox/modelxchange/pkg/scenegraph"
)

// Registry dispatches reads to readers by file extension. It implements
// Reader itself and is safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	readers map[string]Reader
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{readers: make(map[string]Reader)}
}

var defaultRegistry = sync.OnceValue(func() *Registry {
	r := NewRegistry()
	r.Register(NewModelReader())
	r.Register(NewNastranReader())
	return r
})

// Default returns the shared registry holding the model and Nastran readers.
func Default() *Registry {
	return defaultRegistry()
}

// Register adds reader for every extension in its Features. A later
// registration of the same extension replaces the earlier one.
func (g *Registry) Register(reader Reader) {
	g.mu.Lock()
	defer g.mu.Unlock()
	for ext := range reader.Features().Extensions {
		g.readers[meshio.NormalizeExtension(ext)] = reader
	}
}

// Lookup returns the reader registered for ext.
func (g *Registry) Lookup(ext string) (Reader, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	r, ok := g.readers[meshio.NormalizeExtension(ext)]
	return r, ok
}

// Extensions returns the registered extensions in lexical order.
func (g *Registry) Extensions() []string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	exts := make([]string, 0, len(g.readers))
	for ext := range g.readers {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}

func (g *Registry) lookup(ext string) (Reader, error) {
	r, ok := g.Lookup(ext)
	if !ok {
		logger.Warn("no reader for extension", zap.String("extension", ext))
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
	return r, nil
}

// Read reads path with the reader registered for its extension.
func (g *Registry) Read(path string, opts *Options) (scenegraph.Node, error) {
	r, err := g.lookup(filepath.Ext(path))
	if err != nil {
		return nil, err
	}
	return r.Read(path, opts)
}

// ReadStream reads rd with the reader registered for opts.ExtensionHint.
func (g *Registry) ReadStream(rd io.Reader, opts *Options) (scenegraph.Node, error) {
	opts = orDefault(opts)
	r, err := g.lookup(opts.ExtensionHint)
	if err != nil {
		return nil, err
	}
	return r.ReadStream(rd, opts)
}

// ReadMemory reads data with the reader registered for opts.ExtensionHint.
func (g *Registry) ReadMemory(data []byte, opts *Options) (scenegraph.Node, error) {
	opts = orDefault(opts)
	r, err := g.lookup(opts.ExtensionHint)
	if err != nil {
		return nil, err
	}
	return r.ReadMemory(data, opts)
}

// Features merges the features of every registered reader.
func (g *Registry) Features() Features {
	g.mu.RLock()
	defer g.mu.RUnlock()

	f := Features{Extensions: make(map[string]FeatureMask, len(g.readers))}
	seen := make(map[string]bool)
	for ext, r := range g.readers {
		rf := r.Features()
		f.Extensions[ext] = rf.Extensions[ext]
		for _, o := range rf.Options {
			if !seen[o.Name] {
				seen[o.Name] = true
				f.Options = append(f.Options, o)
			}
		}
	}
	sort.Slice(f.Options, func(i, j int) bool { return f.Options[i].Name < f.Options[j].Name })
	return f
}
