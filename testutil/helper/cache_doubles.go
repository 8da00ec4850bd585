package helper

import (
	"context"
	"errors"
	"sync"

	"github.com/bookable-dev/slot-booking-go/booking"
)

// ErrCacheUnavailable is returned by the failing cache doubles.
var ErrCacheUnavailable = errors.New("cache unavailable")

// InMemoryBucketCache is a booking.BucketCache implementation backed by a map,
// capturing call counts for testing cache interaction.
type InMemoryBucketCache struct {
	entries   map[string]booking.Buckets
	mu        sync.Mutex
	getCalls  int
	setCalls  int
	hitCount  int
	missCount int
}

// NewInMemoryBucketCache creates an empty InMemoryBucketCache.
func NewInMemoryBucketCache() *InMemoryBucketCache {
	return &InMemoryBucketCache{
		entries: make(map[string]booking.Buckets),
	}
}

// Get implements the BucketCache interface.
func (c *InMemoryBucketCache) Get(_ context.Context, key string) (booking.Buckets, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.getCalls++

	buckets, hit := c.entries[key]
	if hit {
		c.hitCount++
	} else {
		c.missCount++
	}

	return buckets, hit, nil
}

// Set implements the BucketCache interface.
func (c *InMemoryBucketCache) Set(_ context.Context, key string, buckets booking.Buckets) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.setCalls++
	c.entries[key] = buckets

	return nil
}

// Invalidate implements the BucketCache interface.
func (c *InMemoryBucketCache) Invalidate(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.entries, key)

	return nil
}

// GetCalls returns the number of Get calls.
func (c *InMemoryBucketCache) GetCalls() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.getCalls
}

// SetCalls returns the number of Set calls.
func (c *InMemoryBucketCache) SetCalls() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.setCalls
}

// HitCount returns the number of Get calls that found an entry.
func (c *InMemoryBucketCache) HitCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.hitCount
}

// MissCount returns the number of Get calls that found no entry.
func (c *InMemoryBucketCache) MissCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.missCount
}

// FailingReadCache is a BucketCache whose reads always fail while writes and
// invalidations succeed, for testing read degradation.
type FailingReadCache struct {
	inner *InMemoryBucketCache
}

// NewFailingReadCache creates a FailingReadCache.
func NewFailingReadCache() *FailingReadCache {
	return &FailingReadCache{inner: NewInMemoryBucketCache()}
}

// Get implements the BucketCache interface, always failing.
func (c *FailingReadCache) Get(_ context.Context, _ string) (booking.Buckets, bool, error) {
	return nil, false, ErrCacheUnavailable
}

// Set implements the BucketCache interface.
func (c *FailingReadCache) Set(ctx context.Context, key string, buckets booking.Buckets) error {
	return c.inner.Set(ctx, key, buckets)
}

// Invalidate implements the BucketCache interface.
func (c *FailingReadCache) Invalidate(ctx context.Context, key string) error {
	return c.inner.Invalidate(ctx, key)
}

// SetCalls returns the number of Set calls on the underlying store.
func (c *FailingReadCache) SetCalls() int {
	return c.inner.SetCalls()
}

// FailingWriteCache is a BucketCache whose writes always fail while reads
// succeed, for testing write degradation.
type FailingWriteCache struct {
	inner *InMemoryBucketCache
}

// NewFailingWriteCache creates a FailingWriteCache.
func NewFailingWriteCache() *FailingWriteCache {
	return &FailingWriteCache{inner: NewInMemoryBucketCache()}
}

// Get implements the BucketCache interface.
func (c *FailingWriteCache) Get(ctx context.Context, key string) (booking.Buckets, bool, error) {
	return c.inner.Get(ctx, key)
}

// Set implements the BucketCache interface, always failing.
func (c *FailingWriteCache) Set(_ context.Context, _ string, _ booking.Buckets) error {
	return ErrCacheUnavailable
}

// Invalidate implements the BucketCache interface.
func (c *FailingWriteCache) Invalidate(ctx context.Context, key string) error {
	return c.inner.Invalidate(ctx, key)
}
