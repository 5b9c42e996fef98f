package cache

import (
	"context"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2/expirable"
)

func init() {
	Register("memory", Provider{Build: newMemoryCache, Locality: Local})
}

// memoryCache keeps pages in an expirable LRU local to the process.
type memoryCache struct {
	pages *lru.LRU[string, []byte]
}

func newMemoryCache(cfg ProviderConfig) (Cache, error) {
	if cfg.Size <= 0 {
		return nil, fmt.Errorf("memory cache size must be positive, got %d", cfg.Size)
	}
	var onEvict func(string, []byte)
	if cfg.OnEvict != nil {
		onEvict = func(key string, body []byte) { cfg.OnEvict(key, body) }
	}
	return &memoryCache{pages: lru.NewLRU[string, []byte](cfg.Size, onEvict, cfg.TTL)}, nil
}

func (m *memoryCache) Get(_ context.Context, key string) ([]byte, bool) {
	return m.pages.Get(key)
}

func (m *memoryCache) Set(_ context.Context, key string, body []byte) {
	m.pages.Add(key, body)
}

func (m *memoryCache) Len() int {
	return m.pages.Len()
}

func (m *memoryCache) Close() error {
	return nil
}
