package settings

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	redis "github.com/redis/go-redis/v9"
)

// Cache holds the most recently read settings per site.
type Cache interface {
	Get(ctx context.Context, site string) (Settings, bool, error)
	Set(ctx context.Context, s Settings) error
	Invalidate(ctx context.Context, site string) error
}

// MemoryCache is a process local Cache.
type MemoryCache struct {
	mu    sync.RWMutex
	items map[string]Settings
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{items: make(map[string]Settings)}
}

func (c *MemoryCache) Get(_ context.Context, site string) (Settings, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	s, ok := c.items[site]
	return s, ok, nil
}

func (c *MemoryCache) Set(_ context.Context, s Settings) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[s.Site] = s
	return nil
}

func (c *MemoryCache) Invalidate(_ context.Context, site string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.items, site)
	return nil
}

// RedisCache shares cached settings between processes on the same host,
// such as the scheduler and the MCP server.
type RedisCache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisCache connects to addr and verifies the connection with a ping.
func NewRedisCache(ctx context.Context, addr, password string, db int) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db})
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return &RedisCache{client: client, prefix: "devopsmon:settings:", ttl: time.Hour}, nil
}

func (c *RedisCache) key(site string) string {
	return c.prefix + site
}

func (c *RedisCache) Get(ctx context.Context, site string) (Settings, bool, error) {
	raw, err := c.client.Get(ctx, c.key(site)).Bytes()
	if errors.Is(err, redis.Nil) {
		return Settings{}, false, nil
	}
	if err != nil {
		return Settings{}, false, fmt.Errorf("redis get: %w", err)
	}
	var s Settings
	if err := json.Unmarshal(raw, &s); err != nil {
		return Settings{}, false, fmt.Errorf("decode cached settings: %w", err)
	}
	return s, true, nil
}

func (c *RedisCache) Set(ctx context.Context, s Settings) error {
	raw, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}
	return c.client.Set(ctx, c.key(s.Site), raw, c.ttl).Err()
}

func (c *RedisCache) Invalidate(ctx context.Context, site string) error {
	return c.client.Del(ctx, c.key(site)).Err()
}

// Close releases the Redis connection pool.
func (c *RedisCache) Close() error {
	return c.client.Close()
}
