package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"dlms/internal/platform/metrics"
)

// Cmdable is the subset of go-redis the caches use; *Client and
// *redis.Client both satisfy it.
type Cmdable = redis.Cmdable

// CacheConfig is shared by the registry caches.
type CacheConfig struct {
	TTL     time.Duration
	Metrics *metrics.Metrics
}

// JSONCache stores values of T as JSON under prefix:key with a fixed TTL.
// It never owns the data; callers fall back to their store on a miss or error.
type JSONCache[T any] struct {
	client  redis.Cmdable
	name    string
	ttl     time.Duration
	metrics *metrics.Metrics
}

// NewJSONCache builds a cache; name is the key prefix and the metrics label.
func NewJSONCache[T any](client redis.Cmdable, name string, ttl time.Duration, m *metrics.Metrics) *JSONCache[T] {
	return &JSONCache[T]{client: client, name: name, ttl: ttl, metrics: m}
}

func (c *JSONCache[T]) key(k string) string {
	return "dlms:" + c.name + ":" + k
}

// Get returns (nil, false, nil) on a miss.
func (c *JSONCache[T]) Get(ctx context.Context, k string) (*T, bool, error) {
	raw, err := c.client.Get(ctx, c.key(k)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			c.record("miss")
			return nil, false, nil
		}
		c.record("error")
		return nil, false, fmt.Errorf("cache get %s: %w", c.name, err)
	}
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		c.record("error")
		return nil, false, fmt.Errorf("cache decode %s: %w", c.name, err)
	}
	c.record("hit")
	return &v, true, nil
}

func (c *JSONCache[T]) Set(ctx context.Context, k string, v *T) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("cache encode %s: %w", c.name, err)
	}
	if err := c.client.Set(ctx, c.key(k), raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("cache set %s: %w", c.name, err)
	}
	return nil
}

// GetString and SetString hold secondary-index entries (natural key to ID).
func (c *JSONCache[T]) GetString(ctx context.Context, k string) (string, bool, error) {
	v, err := c.client.Get(ctx, c.key(k)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("cache get %s: %w", c.name, err)
	}
	return v, true, nil
}

func (c *JSONCache[T]) SetString(ctx context.Context, k, v string) error {
	if err := c.client.Set(ctx, c.key(k), v, c.ttl).Err(); err != nil {
		return fmt.Errorf("cache set %s: %w", c.name, err)
	}
	return nil
}

func (c *JSONCache[T]) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = c.key(k)
	}
	if err := c.client.Del(ctx, full...).Err(); err != nil {
		return fmt.Errorf("cache delete %s: %w", c.name, err)
	}
	return nil
}

func (c *JSONCache[T]) record(result string) {
	if c.metrics != nil {
		c.metrics.RecordCacheLookup(c.name, result)
	}
}
