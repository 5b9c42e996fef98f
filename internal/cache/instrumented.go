package cache

import "context"

// instrumentedCache counts hits and misses for one group and exposes the
// entry count through a collector that calls Len at scrape time.
type instrumentedCache struct {
	inner Cache
	group string
}

func newInstrumentedCache(inner Cache, group string) *instrumentedCache {
	registerEntriesCollector(group, inner.Len)
	return &instrumentedCache{inner: inner, group: group}
}

func (c *instrumentedCache) Get(ctx context.Context, key string) ([]byte, bool) {
	body, ok := c.inner.Get(ctx, key)
	if ok {
		HitsTotal.WithLabelValues(c.group).Inc()
	} else {
		MissesTotal.WithLabelValues(c.group).Inc()
	}
	return body, ok
}

func (c *instrumentedCache) Set(ctx context.Context, key string, body []byte) {
	c.inner.Set(ctx, key, body)
	StoredBytesTotal.WithLabelValues(c.group).Add(float64(len(body)))
}

func (c *instrumentedCache) Len() int {
	return c.inner.Len()
}

func (c *instrumentedCache) Close() error {
	unregisterEntriesCollector(c.group)
	return c.inner.Close()
}
