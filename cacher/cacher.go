// Package cacher memoizes expensive lookups, such as word-on-board searches,
// either in process memory or in a shared Redis instance.
package cacher

import (
	"context"
	"time"
)

// FetchFunc fetches a value from the source when a cache miss occurs.
type FetchFunc[T any] func(ctx context.Context) (T, error)

// Cacher caches values with automatic fetching on cache misses.
// Implementations are thread-safe and collapse concurrent misses for the same
// key into a single fetch.
type Cacher[T any] interface {
	// GetOrFetch retrieves a value from the cache, or fetches it using fetchFn
	// and stores it with the given TTL.
	//
	// Parameters:
	//   - ctx: Context for cancellation and timeout control
	//   - key: The cache key to retrieve or set
	//   - ttl: Time-to-live duration for the cached value
	//   - fetchFn: Function to fetch the value if not in cache
	//
	// Returns:
	//   - The cached or fetched value of type T
	//   - An error if retrieval or fetching fails
	GetOrFetch(ctx context.Context, key string, ttl time.Duration, fetchFn FetchFunc[T]) (T, error)

	// Delete removes a key from the cache.
	Delete(ctx context.Context, key string) error

	// Clear removes all items owned by this cacher.
	Clear(ctx context.Context) error

	// ItemCount returns the number of items owned by this cacher.
	ItemCount(ctx context.Context) (int, error)

	// DeleteByPrefix deletes all keys with the given prefix and returns how
	// many were removed.
	DeleteByPrefix(ctx context.Context, prefix string) (int, error)
}
