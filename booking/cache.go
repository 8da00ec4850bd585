package booking

import (
	"context"
)

// BucketCache is the port for the read-through cache fronting availability
// queries, keyed by AvailabilityFilter.CacheKey().
//
// Implementations do not need to lock: concurrent writers to the same key
// may race harmlessly, since every cached value is a valid snapshot taken at
// some prior instant (last write wins).
//
// Get returns (nil, false, nil) on a miss. The engine treats a Get error as
// a miss and a Set error as non-fatal, so implementations should not retry.
type BucketCache interface {
	Get(ctx context.Context, key string) (Buckets, bool, error)
	Set(ctx context.Context, key string, buckets Buckets) error
	Invalidate(ctx context.Context, key string) error
}
