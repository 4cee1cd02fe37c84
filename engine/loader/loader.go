package loader

import (
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"github.com/Carmen-Shannon/oxy-draw/common"
)

// loader is the implementation of the Loader interface.
type loader struct {
	mu sync.RWMutex

	assetCache map[string]*Asset
	noCache    bool

	backends map[string]loaderBackend
}

// Loader defines the public-facing interface for parsing and caching model assets.
// It abstracts the file format behind a backend chosen by file extension and
// keeps a cache of previously parsed assets. Loader is safe for concurrent use.
type Loader interface {
	// Parse reads a model file and caches the result.
	// If the asset is already cached for the same path and options, the cached version is returned.
	// The backend is selected based on the file extension (.obj → OBJ backend).
	//
	// Parameters:
	//   - path: the file path to the model file
	//   - opts: triangulation and indexing options
	//
	// Returns:
	//   - *Asset: the parsed asset
	//   - error: ErrUnsupportedFormat or an error wrapping ErrParse
	Parse(path string, opts ParseOptions) (*Asset, error)

	// Get retrieves a cached asset by path. Returns nil if not found.
	//
	// Parameters:
	//   - path: the path the asset was parsed from
	//
	// Returns:
	//   - *Asset: the cached asset or nil
	Get(path string) *Asset

	// Assets returns a copy of the asset cache.
	//
	// Returns:
	//   - map[string]*Asset: all cached assets keyed by path
	Assets() map[string]*Asset
}

var _ Loader = &loader{}

// NewLoader creates a new Loader with the built-in format backends and the given options applied.
//
// Parameters:
//   - options: a variadic list of LoaderBuilderOption functions to configure the Loader
//
// Returns:
//   - Loader: a new instance of Loader
func NewLoader(options ...LoaderBuilderOption) Loader {
	l := &loader{
		mu:         sync.RWMutex{},
		assetCache: make(map[string]*Asset),
		backends: map[string]loaderBackend{
			".obj": newOBJLoaderBackend(),
		},
	}

	for _, option := range options {
		option(l)
	}
	return l
}

func (l *loader) Parse(path string, opts ParseOptions) (*Asset, error) {
	key := cacheKey(path, opts)
	if !l.noCache {
		l.mu.RLock()
		if cached, ok := l.assetCache[key]; ok {
			l.mu.RUnlock()
			return cached, nil
		}
		l.mu.RUnlock()
	}

	backend, err := l.resolveBackend(path)
	if err != nil {
		return nil, err
	}

	asset, err := backend.Parse(path, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	common.Logger().Debug("loader: parsed asset", "path", path, "meshes", len(asset.Meshes), "materials", len(asset.Materials))

	if !l.noCache {
		l.mu.Lock()
		l.assetCache[key] = asset
		l.mu.Unlock()
	}
	return asset, nil
}

func (l *loader) Get(path string) *Asset {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.assetCache[cacheKey(path, DefaultParseOptions())]
}

func (l *loader) Assets() map[string]*Asset {
	l.mu.RLock()
	defer l.mu.RUnlock()

	result := make(map[string]*Asset, len(l.assetCache))
	for _, v := range l.assetCache {
		result[v.Path] = v
	}
	return result
}

// resolveBackend selects a loader backend based on the file extension.
func (l *loader) resolveBackend(path string) (loaderBackend, error) {
	ext := strings.ToLower(filepath.Ext(path))
	backend, ok := l.backends[ext]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
	return backend, nil
}

func cacheKey(path string, opts ParseOptions) string {
	return fmt.Sprintf("%s|%t|%t", path, opts.Triangulate, opts.SingleIndex)
}
