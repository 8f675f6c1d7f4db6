package cacher

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	redisLockTTL     = 30 * time.Second
	redisWaitTimeout = 30 * time.Second
)

const releaseLockScript = `
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
else
	return 0
end`

const extendLockScript = `
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("pexpire", KEYS[1], ARGV[2])
else
	return 0
end`

// redisCacher is a Redis-backed Cacher. Every key is stored under namespace,
// so several servers can share one Redis database without Clear wiping
// unrelated data. A distributed lock keeps concurrent misses from fetching the
// same key twice across processes.
type redisCacher[T any] struct {
	client    redis.UniversalClient
	namespace string
}

// NewRedisCacher creates a Redis-based cacher.
//
// Example:
//
//	client := redis.NewClient(&redis.Options{Addr: "localhost:6379"})
//	checks := NewRedisCacher[bool](client, "boggle:")
func NewRedisCacher[T any](client redis.UniversalClient, namespace string) Cacher[T] {
	return &redisCacher[T]{
		client:    client,
		namespace: namespace,
	}
}

func (c *redisCacher[T]) key(k string) string {
	return c.namespace + k
}

// GetOrFetch implements Cacher. On a miss it takes a lock key with SETNX; the
// holder fetches and stores the value while others poll for it.
func (c *redisCacher[T]) GetOrFetch(ctx context.Context, key string, ttl time.Duration, fetchFn FetchFunc[T]) (T, error) {
	var zero T
	fullKey := c.key(key)

	result, found, err := c.get(ctx, fullKey)
	if err != nil || found {
		return result, err
	}

	lockKey := fullKey + ":lock"
	lockValue := uuid.NewString()

	acquired, err := c.client.SetNX(ctx, lockKey, lockValue, redisLockTTL).Result()
	if err != nil {
		return zero, fmt.Errorf("failed to acquire lock: %w", err)
	}

	if !acquired {
		return c.waitForCache(ctx, fullKey, lockKey, redisWaitTimeout)
	}

	// Cleanup must run even if ctx is already cancelled.
	bgCtx := context.Background()
	defer c.client.Eval(bgCtx, releaseLockScript, []string{lockKey}, lockValue)

	extendCtx, cancel := context.WithCancel(bgCtx)
	defer cancel()
	go c.extendLock(extendCtx, lockKey, lockValue, redisLockTTL)

	result, err = fetchFn(ctx)
	if err != nil {
		return zero, fmt.Errorf("fetch function failed: %w", err)
	}

	data, err := json.Marshal(result)
	if err != nil {
		return zero, fmt.Errorf("failed to marshal result: %w", err)
	}

	if err := c.client.Set(bgCtx, fullKey, data, ttl).Err(); err != nil {
		return zero, fmt.Errorf("failed to cache result: %w", err)
	}

	return result, nil
}

// get reads and decodes fullKey. found is false on a plain cache miss.
func (c *redisCacher[T]) get(ctx context.Context, fullKey string) (result T, found bool, err error) {
	val, err := c.client.Get(ctx, fullKey).Result()
	if errors.Is(err, redis.Nil) {
		return result, false, nil
	}

	if err != nil {
		return result, false, fmt.Errorf("redis get error: %w", err)
	}

	if err := json.Unmarshal([]byte(val), &result); err != nil {
		return result, false, fmt.Errorf("failed to unmarshal cached value: %w", err)
	}

	return result, true, nil
}

// extendLock keeps the lock alive at ttl/3 intervals until ctx is cancelled.
func (c *redisCacher[T]) extendLock(ctx context.Context, lockKey, lockValue string, ttl time.Duration) {
	ticker := time.NewTicker(ttl / 3)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.client.Eval(ctx, extendLockScript, []string{lockKey}, lockValue, ttl.Milliseconds())
		}
	}
}

// waitForCache polls with exponential backoff (10ms doubling to 500ms) until
// the lock holder publishes the value, the lock disappears, or timeout passes.
func (c *redisCacher[T]) waitForCache(ctx context.Context, fullKey, lockKey string, timeout time.Duration) (T, error) {
	var zero T

	backoff := 10 * time.Millisecond
	maxBackoff := 500 * time.Millisecond
	deadline := time.Now().Add(timeout)

	for {
		if err := ctx.Err(); err != nil {
			return zero, err
		}

		if time.Now().After(deadline) {
			return zero, errors.New("timeout waiting for cache")
		}

		result, found, err := c.get(ctx, fullKey)
		if err != nil || found {
			return result, err
		}

		exists, err := c.client.Exists(ctx, lockKey).Result()
		if err != nil {
			return zero, fmt.Errorf("failed to check lock existence: %w", err)
		}

		if exists == 0 {
			// Lock released between our two reads; give the value one last look.
			result, found, err := c.get(ctx, fullKey)
			if err != nil || found {
				return result, err
			}

			return zero, errors.New("fetch operation failed or cache not populated")
		}

		time.Sleep(backoff)
		backoff = min(backoff*2, maxBackoff)
	}
}

// Delete implements Cacher.
func (c *redisCacher[T]) Delete(ctx context.Context, key string) error {
	if err := c.client.Del(ctx, c.key(key)).Err(); err != nil {
		return fmt.Errorf("failed to delete key: %w", err)
	}

	return nil
}

// Clear implements Cacher by deleting the whole namespace.
func (c *redisCacher[T]) Clear(ctx context.Context) error {
	if _, err := c.DeleteByPrefix(ctx, ""); err != nil {
		return fmt.Errorf("failed to clear cache: %w", err)
	}

	return nil
}

// ItemCount implements Cacher by scanning the namespace.
func (c *redisCacher[T]) ItemCount(ctx context.Context) (int, error) {
	keys, err := c.scan(ctx, c.namespace)
	if err != nil {
		return 0, fmt.Errorf("failed to count cache items: %w", err)
	}

	return len(keys), nil
}

// DeleteByPrefix implements Cacher.
func (c *redisCacher[T]) DeleteByPrefix(ctx context.Context, prefix string) (int, error) {
	keys, err := c.scan(ctx, c.key(prefix))
	if err != nil {
		return 0, err
	}

	if len(keys) == 0 {
		return 0, nil
	}

	deleted, err := c.client.Del(ctx, keys...).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to delete keys: %w", err)
	}

	return int(deleted), nil
}

// scan collects keys starting with prefix using SCAN rather than KEYS.
func (c *redisCacher[T]) scan(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	iter := c.client.Scan(ctx, 0, prefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}

	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan keys: %w", err)
	}

	return keys, nil
}
