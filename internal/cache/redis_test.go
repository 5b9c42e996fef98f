package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis tests need a Redis/Valkey server; set REDIS_ADDRESS (e.g. "localhost:6379") to run them.

func newTestRedisCache(t *testing.T, size int, ttl time.Duration, onEvict EvictCallback) Cache {
	t.Helper()
	addr := os.Getenv("REDIS_ADDRESS")
	if addr == "" {
		t.Skip("Skipping Redis tests: set REDIS_ADDRESS to enable")
	}

	client := redis.NewClient(&redis.Options{Addr: addr, DB: 15})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.FlushDB(ctx).Err(); err != nil {
		t.Fatalf("Failed to flush Redis test DB: %v", err)
	}
	_ = client.Close()

	c, err := New("redis", ProviderConfig{
		Size:         size,
		TTL:          ttl,
		RedisAddress: addr,
		RedisDB:      15,
		OnEvict:      onEvict,
	})
	if err != nil {
		t.Fatalf("New redis cache: %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestRedisCache_GetSet(t *testing.T) {
	c := newTestRedisCache(t, 10, 10*time.Second, nil)
	ctx := context.Background()

	if _, ok := c.Get(ctx, "https://example.com/v/1.html"); ok {
		t.Fatal("Expected miss on clean DB")
	}

	c.Set(ctx, "https://example.com/v/1.html", []byte("<html>1</html>"))
	body, ok := c.Get(ctx, "https://example.com/v/1.html")
	if !ok || string(body) != "<html>1</html>" {
		t.Fatalf("Expected stored page, got %q, %v", body, ok)
	}
	if c.Len() != 1 {
		t.Errorf("Len = %d, want 1", c.Len())
	}
}

func TestRedisCache_SizeCap(t *testing.T) {
	var dropped []string
	c := newTestRedisCache(t, 2, 10*time.Second, func(key string, _ []byte) { dropped = append(dropped, key) })
	ctx := context.Background()

	c.Set(ctx, "a", []byte("1"))
	c.Set(ctx, "b", []byte("2"))
	c.Set(ctx, "c", []byte("3"))

	if len(dropped) != 1 || dropped[0] != "a" {
		t.Fatalf("Expected 'a' to be dropped, got %v", dropped)
	}
	if _, ok := c.Get(ctx, "a"); ok {
		t.Error("Dropped page 'a' should be gone")
	}
	if c.Len() != 2 {
		t.Errorf("Len = %d, want 2", c.Len())
	}
}

func TestRedisCache_Expiry(t *testing.T) {
	c := newTestRedisCache(t, 10, 100*time.Millisecond, nil)
	ctx := context.Background()

	c.Set(ctx, "page", []byte("body"))
	time.Sleep(250 * time.Millisecond)

	if _, ok := c.Get(ctx, "page"); ok {
		t.Error("Expected page to expire")
	}
	if c.Len() != 0 {
		t.Errorf("Len = %d, want 0 after expiry", c.Len())
	}
}
