package directory

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	keyPublished = "directory:events:published"
	keyArchive   = "directory:events:archive"
	keyCities    = "directory:cities"
)

// Cache stores the published event list in Redis so the public surfaces do
// not hit the CMS on every page view.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewCache creates a Redis-backed directory cache.
func NewCache(client *redis.Client, ttl time.Duration) *Cache {
	return &Cache{client: client, ttl: ttl}
}

func (c *Cache) get(ctx context.Context, key string, out interface{}) (bool, error) {
	raw, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return false, nil
	}
	return true, nil
}

func (c *Cache) set(ctx context.Context, key string, v interface{}) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, key, raw, c.ttl).Err()
}

// Invalidate drops every cached directory list. Called after admin mutations.
func (c *Cache) Invalidate(ctx context.Context) error {
	return c.client.Del(ctx, keyPublished, keyArchive, keyCities).Err()
}
