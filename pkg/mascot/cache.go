package mascot

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// MarkupCache stores fetched base markup between renders. A miss is reported
// as (nil, false, nil).
type MarkupCache interface {
	Get(ctx context.Context, name string) ([]byte, bool, error)
	Set(ctx context.Context, name string, data []byte) error
}

// CachedSource serves repeated fetches of the same asset from Cache. Cache
// errors are treated as misses so they never turn into fetch failures.
type CachedSource struct {
	Source AssetSource
	Cache  MarkupCache
}

// Fetch implements AssetSource.
func (s CachedSource) Fetch(ctx context.Context, name string) ([]byte, error) {
	if data, ok, err := s.Cache.Get(ctx, name); err == nil && ok {
		return data, nil
	}
	data, err := s.Source.Fetch(ctx, name)
	if err != nil {
		return nil, err
	}
	_ = s.Cache.Set(ctx, name, data)
	return data, nil
}

type memoryEntry struct {
	data    []byte
	expires time.Time
}

// MemoryCache is a process-local MarkupCache. A zero TTL keeps entries forever.
type MemoryCache struct {
	ttl     time.Duration
	now     func() time.Time
	mu      sync.RWMutex
	entries map[string]memoryEntry
}

// NewMemoryCache creates an empty cache whose entries live for ttl.
func NewMemoryCache(ttl time.Duration) *MemoryCache {
	return &MemoryCache{
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]memoryEntry),
	}
}

// Get implements MarkupCache.
func (c *MemoryCache) Get(_ context.Context, name string) ([]byte, bool, error) {
	c.mu.RLock()
	e, ok := c.entries[name]
	c.mu.RUnlock()
	if !ok {
		return nil, false, nil
	}
	if !e.expires.IsZero() && c.now().After(e.expires) {
		c.mu.Lock()
		delete(c.entries, name)
		c.mu.Unlock()
		return nil, false, nil
	}
	return append([]byte(nil), e.data...), true, nil
}

// Set implements MarkupCache.
func (c *MemoryCache) Set(_ context.Context, name string, data []byte) error {
	e := memoryEntry{data: append([]byte(nil), data...)}
	if c.ttl > 0 {
		e.expires = c.now().Add(c.ttl)
	}
	c.mu.Lock()
	c.entries[name] = e
	c.mu.Unlock()
	return nil
}

// RedisCache keeps markup in Redis so several server processes share it.
type RedisCache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

type RedisOption func(*RedisCache)

// WithRedisPrefix sets the key prefix.
func WithRedisPrefix(prefix string) RedisOption {
	return func(c *RedisCache) {
		c.prefix = prefix
	}
}

// WithRedisTTL sets the key expiration. Zero means no expiration.
func WithRedisTTL(ttl time.Duration) RedisOption {
	return func(c *RedisCache) {
		c.ttl = ttl
	}
}

// NewRedisCache wraps an existing client.
func NewRedisCache(client *redis.Client, opts ...RedisOption) *RedisCache {
	c := &RedisCache{
		client: client,
		prefix: "capyboard:markup:",
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *RedisCache) key(name string) string {
	return c.prefix + name
}

// Get implements MarkupCache.
func (c *RedisCache) Get(ctx context.Context, name string) ([]byte, bool, error) {
	data, err := c.client.Get(ctx, c.key(name)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get %s: %w", name, err)
	}
	return data, true, nil
}

// Set implements MarkupCache.
func (c *RedisCache) Set(ctx context.Context, name string, data []byte) error {
	if err := c.client.Set(ctx, c.key(name), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", name, err)
	}
	return nil
}
