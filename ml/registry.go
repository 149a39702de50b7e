package ml

import (
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
)

const DefaultRegistrySize = 8

type loadResult struct {
	artifact *Artifact
	err      error
}

// Registry memoizes load results, failures included, by file path.
type Registry struct {
	mu    sync.Mutex
	cache *lru.Cache[string, loadResult]
	load  func(path string) (*Artifact, error)
	loads int
}

func NewRegistry(size int) (*Registry, error) {
	if size <= 0 {
		size = DefaultRegistrySize
	}
	cache, err := lru.New[string, loadResult](size)
	if err != nil {
		return nil, err
	}
	return &Registry{cache: cache, load: LoadArtifact}, nil
}

// Get returns the memoized result for path, loading it on first access.
func (r *Registry) Get(path string) (*Artifact, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if res, ok := r.cache.Get(path); ok {
		return res.artifact, res.err
	}
	artifact, err := r.load(path)
	r.loads++
	r.cache.Add(path, loadResult{artifact: artifact, err: err})
	return artifact, err
}

func (r *Registry) Invalidate(path string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cache.Remove(path)
}

// Loads reports how many times the registry went to disk.
func (r *Registry) Loads() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.loads
}

// Holder is the application's handle on its one model file.
type Holder struct {
	path     string
	registry *Registry
}

func NewHolder(path string, registry *Registry) *Holder {
	return &Holder{path: path, registry: registry}
}

func (h *Holder) Path() string {
	return h.path
}

// Get loads the artifact on first call and returns the same result afterwards
// until Invalidate is called.
func (h *Holder) Get() (*Artifact, error) {
	return h.registry.Get(h.path)
}

func (h *Holder) Invalidate() {
	h.registry.Invalidate(h.path)
}

func (h *Holder) Reload() (*Artifact, error) {
	h.Invalidate()
	return h.Get()
}
