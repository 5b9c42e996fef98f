package cache

import "context"

// EvictCallback is called when a page is dropped from the cache to make room.
// The redis provider reports only the key; value is nil there.
type EvictCallback func(key string, value []byte)

// Cache stores rendered page bodies keyed by URL.
type Cache interface {
	// Get returns the cached body for key and whether it was present.
	Get(ctx context.Context, key string) ([]byte, bool)

	// Set stores body under key, replacing any previous entry.
	Set(ctx context.Context, key string, body []byte)

	// Len returns the number of cached pages.
	Len() int

	// Close releases backend connections.
	Close() error
}
