package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"vibefeed/internal/observability"

	"github.com/redis/go-redis/v9"
)

// ViewCache is a cache-aside store for projected views. Keys are namespaced
// per session so two processes sharing one Redis never read each other's views.
type ViewCache struct {
	client    *redis.Client
	namespace string
	ttl       time.Duration
}

// NewViewCache creates a ViewCache. A nil client makes every lookup a miss.
func NewViewCache(client *redis.Client, namespace string, ttl time.Duration) *ViewCache {
	return &ViewCache{client: client, namespace: namespace, ttl: ttl}
}

func (c *ViewCache) fullKey(key string) string {
	return "vibefeed:" + c.namespace + ":" + key
}

// GetJSON attempts to get the key from Redis and unmarshal into dest.
// Returns (true, nil) if found and unmarshaled, (false, nil) if not found.
func (c *ViewCache) GetJSON(ctx context.Context, key string, dest any) (bool, error) {
	if c.client == nil {
		return false, nil
	}
	s, err := c.client.Get(ctx, c.fullKey(key)).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal([]byte(s), dest); err != nil {
		return false, err
	}
	return true, nil
}

// SetJSON marshals v and sets the key with the cache TTL.
func (c *ViewCache) SetJSON(ctx context.Context, key string, v any) error {
	if c.client == nil {
		return nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, c.fullKey(key), b, c.ttl).Err()
}

// Aside tries Redis first, on miss it calls fetch (which must populate dest),
// then stores the result with the cache TTL. Redis failures fall through to
// fetch so the view is always served.
func (c *ViewCache) Aside(ctx context.Context, key string, dest any, fetch func() error) error {
	found, err := c.GetJSON(ctx, key, dest)
	if err == nil && found {
		observability.ViewCacheResults.WithLabelValues("hit").Inc()
		return nil
	}
	observability.ViewCacheResults.WithLabelValues("miss").Inc()

	if err := fetch(); err != nil {
		return err
	}

	// best-effort
	_ = c.SetJSON(ctx, key, dest)
	return nil
}
