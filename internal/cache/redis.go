package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const (
	defaultKeyPrefix = "harvester:page:"
	opTimeout        = 2 * time.Second
)

func init() {
	Register("redis", Provider{Build: newRedisCache, Locality: External})
}

// redisCache shares fetched pages between runs and machines.
//
// Each page lives in its own string key ({prefix}<url>) with a PX expiry. A sorted set
// ({prefix}index) scores every key by its write time in µs so the cache can be capped at
// Size entries: once the index grows past Size the oldest-written pages are deleted.
// Members whose key already expired are trimmed on the next write.
type redisCache struct {
	client   *redis.Client
	ttl      time.Duration
	maxSize  int
	onEvict  EvictCallback
	logger   zerolog.Logger
	prefix   string
	indexKey string
}

// storePage writes a page, records it in the index and trims the index.
//
// KEYS[1] = index sorted set, KEYS[2] = page key
// ARGV[1] = body, ARGV[2] = now µs, ARGV[3] = ttl ms, ARGV[4] = max size, ARGV[5] = key prefix
//
// Returns the page keys dropped to honor the size cap.
var storePage = redis.NewScript(`
local ttlMs = tonumber(ARGV[3])
redis.call('SET', KEYS[2], ARGV[1], 'PX', ttlMs)
redis.call('ZADD', KEYS[1], ARGV[2], KEYS[2])

local cutoff = tonumber(ARGV[2]) - ttlMs * 1000
redis.call('ZREMRANGEBYSCORE', KEYS[1], '-inf', cutoff)

local dropped = {}
local size = redis.call('ZCARD', KEYS[1])
local maxSize = tonumber(ARGV[4])
while size > maxSize do
    local oldest = redis.call('ZPOPMIN', KEYS[1], 1)
    if #oldest == 0 then break end
    redis.call('DEL', oldest[1])
    table.insert(dropped, string.sub(oldest[1], string.len(ARGV[5]) + 1))
    size = size - 1
end
return dropped
`)

func newRedisCache(cfg ProviderConfig) (Cache, error) {
	if cfg.Size <= 0 {
		return nil, fmt.Errorf("redis cache size must be positive, got %d", cfg.Size)
	}
	if cfg.TTL <= 0 {
		return nil, fmt.Errorf("redis cache ttl must be positive, got %s", cfg.TTL)
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddress,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return &redisCache{
		client:   client,
		ttl:      cfg.TTL,
		maxSize:  cfg.Size,
		onEvict:  cfg.OnEvict,
		logger:   cfg.Logger,
		prefix:   defaultKeyPrefix,
		indexKey: defaultKeyPrefix + "index",
	}, nil
}

func (r *redisCache) Get(ctx context.Context, key string) ([]byte, bool) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	body, err := r.client.Get(ctx, r.prefix+key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			r.logger.Error().Err(err).Str("key", key).Msg("Redis page cache get failed")
		}
		return nil, false
	}
	return body, true
}

func (r *redisCache) Set(ctx context.Context, key string, body []byte) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	now := strconv.FormatInt(time.Now().UnixMicro(), 10)
	dropped, err := storePage.Run(ctx, r.client, []string{r.indexKey, r.prefix + key},
		body, now, r.ttl.Milliseconds(), r.maxSize, r.prefix,
	).StringSlice()
	if err != nil {
		r.logger.Error().Err(err).Str("key", key).Msg("Redis page cache set failed")
		return
	}

	if r.onEvict == nil {
		return
	}
	for _, k := range dropped {
		r.onEvict(k, nil)
	}
}

// Len counts index members written within the TTL window.
func (r *redisCache) Len() int {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	minScore := strconv.FormatInt(time.Now().Add(-r.ttl).UnixMicro(), 10)
	n, err := r.client.ZCount(ctx, r.indexKey, minScore, "+inf").Result()
	if err != nil {
		r.logger.Error().Err(err).Msg("Redis page cache len failed")
		return 0
	}
	return int(n)
}

func (r *redisCache) Close() error {
	return r.client.Close()
}
