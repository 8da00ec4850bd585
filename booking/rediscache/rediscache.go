// Package rediscache provides a Redis-backed implementation of the
// booking.BucketCache port.
//
// Cached bucket sequences are serialized as JSON. A missing key is a cache
// miss, never an error, and concurrent writers to the same key are allowed
// to race (last write wins) — every stored value is a valid snapshot.
package rediscache

import (
	"context"
	"errors"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/redis/go-redis/v9"

	"github.com/bookable-dev/slot-booking-go/booking"
)

const defaultKeyPrefix = "booking"

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Cache is a booking.BucketCache backed by a Redis client.
type Cache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// Option defines a functional option for configuring the Cache.
type Option func(*Cache)

// WithKeyPrefix sets the prefix prepended to every cache key,
// separating this cache's keys from other users of the same Redis database.
func WithKeyPrefix(prefix string) Option {
	return func(c *Cache) {
		c.prefix = prefix
	}
}

// WithTTL sets the expiry for cached bucket sequences.
// The default of zero stores values without expiry, leaving invalidation to
// the explicit Invalidate hook.
func WithTTL(ttl time.Duration) Option {
	return func(c *Cache) {
		c.ttl = ttl
	}
}

// New creates a Cache on top of the given Redis client with optional configuration.
func New(client *redis.Client, options ...Option) *Cache {
	cache := &Cache{
		client: client,
		prefix: defaultKeyPrefix,
	}

	for _, option := range options {
		option(cache)
	}

	return cache
}

// Get returns the cached bucket sequence for the key, reporting a miss for
// absent keys.
func (c *Cache) Get(ctx context.Context, key string) (booking.Buckets, bool, error) {
	payload, err := c.client.Get(ctx, c.prefixed(key)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var buckets booking.Buckets
	if unmarshalErr := json.UnmarshalFromString(payload, &buckets); unmarshalErr != nil {
		return nil, false, unmarshalErr
	}

	return buckets, true, nil
}

// Set stores the bucket sequence under the key, applying the configured TTL.
func (c *Cache) Set(ctx context.Context, key string, buckets booking.Buckets) error {
	payload, marshalErr := json.Marshal(buckets)
	if marshalErr != nil {
		return marshalErr
	}

	return c.client.Set(ctx, c.prefixed(key), payload, c.ttl).Err()
}

// Invalidate removes the cached bucket sequence for the key.
// Invalidating an absent key is a no-op.
func (c *Cache) Invalidate(ctx context.Context, key string) error {
	return c.client.Del(ctx, c.prefixed(key)).Err()
}

func (c *Cache) prefixed(key string) string {
	return c.prefix + ":" + key
}
