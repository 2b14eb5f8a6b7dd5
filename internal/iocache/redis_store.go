package iocache

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/flowmosaic/mosaic/internal/contract"
	"github.com/flowmosaic/mosaic/schema"
	"github.com/go-redis/redis/v8"
)

// searchKeyPrefix namespaces cached searches inside a shared Redis.
const searchKeyPrefix = "mosaic:search:"

// redisOpTimeout bounds every Redis round trip.
const redisOpTimeout = 5 * time.Second

// Hash fields of one cache entry.
const (
	redisValueField     = "value"
	redisVersionField   = "version"
	redisTimestampField = "timestamp"
)

// RedisStore keeps cache entries as Redis hashes under a key prefix.
type RedisStore struct {
	client *redis.Client
	prefix string
}

var _ contract.CacheStore = &RedisStore{} // Compile-time check

// newRedisClient parses a redis:// URL and verifies the server answers.
func newRedisClient(connStr string) (*redis.Client, error) {
	opt, err := redis.ParseURL(connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}
	client := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return client, nil
}

// NewRedisStore connects to Redis and returns a store for cached searches.
func NewRedisStore(connStr string) (*RedisStore, error) {
	client, err := newRedisClient(connStr)
	if err != nil {
		return nil, err
	}
	return &RedisStore{client: client, prefix: searchKeyPrefix}, nil
}

// Get retrieves an entry. A missing key returns redis.Nil.
func (rs *RedisStore) Get(key string) ([]byte, int, int64, error) {
	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()

	fields, err := rs.client.HGetAll(ctx, rs.prefix+key).Result()
	if err != nil {
		return nil, 0, 0, err
	}
	if len(fields) == 0 {
		return nil, 0, 0, redis.Nil
	}
	version, err := strconv.Atoi(fields[redisVersionField])
	if err != nil {
		return nil, 0, 0, fmt.Errorf("corrupt cache version for %s: %w", key, err)
	}
	ts, err := strconv.ParseInt(fields[redisTimestampField], 10, 64)
	if err != nil {
		return nil, 0, 0, fmt.Errorf("corrupt cache timestamp for %s: %w", key, err)
	}
	return []byte(fields[redisValueField]), version, ts, nil
}

// Set writes an entry, replacing any previous one.
func (rs *RedisStore) Set(key string, value []byte, version int, timestamp int64) error {
	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()
	return rs.client.HSet(ctx, rs.prefix+key,
		redisValueField, value,
		redisVersionField, version,
		redisTimestampField, timestamp,
	).Err()
}

// keys lists every key under the store prefix.
func (rs *RedisStore) keys(ctx context.Context) ([]string, error) {
	var keys []string
	iter := rs.client.Scan(ctx, 0, rs.prefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	return keys, iter.Err()
}

// GetStatus scans the prefix for entry counts, times, and memory usage.
func (rs *RedisStore) GetStatus() (schema.CacheStatus, error) {
	status := schema.CacheStatus{Backend: string(schema.RedisBackend), Connected: true}

	ctx, cancel := context.WithTimeout(context.Background(), 4*redisOpTimeout)
	defer cancel()

	keys, err := rs.keys(ctx)
	if err != nil {
		return status, fmt.Errorf("failed to scan cache keys: %w", err)
	}
	status.TotalEntries = len(keys)

	var oldest, last int64
	for _, key := range keys {
		raw, err := rs.client.HGet(ctx, key, redisTimestampField).Result()
		if err != nil {
			continue
		}
		ts, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			continue
		}
		if oldest == 0 || ts < oldest {
			oldest = ts
		}
		if ts > last {
			last = ts
		}
		if size, err := rs.client.MemoryUsage(ctx, key).Result(); err == nil {
			status.TableSizeBytes += size
		}
	}
	if status.TotalEntries > 0 {
		status.LastEntryTime = time.Unix(last, 0)
		status.OldestEntryTime = time.Unix(oldest, 0)
	}
	return status, nil
}

// Clear deletes every entry under the store prefix and returns how many were removed.
func (rs *RedisStore) Clear() (int, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 4*redisOpTimeout)
	defer cancel()

	keys, err := rs.keys(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to scan cache keys: %w", err)
	}
	if len(keys) == 0 {
		return 0, nil
	}
	removed, err := rs.client.Del(ctx, keys...).Result()
	return int(removed), err
}

// Close closes the Redis connection pool.
func (rs *RedisStore) Close() error {
	return rs.client.Close()
}
