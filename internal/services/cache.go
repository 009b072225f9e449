package services

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// CacheKeyPrefix is the Redis key prefix for cached data
	CacheKeyPrefix = "cache:"
	// GenerationKeyPrefix prefixes the counters bumped on every invalidation.
	GenerationKeyPrefix = "cache:gen:"
	// DefaultCacheTTL bounds staleness if an invalidation is ever missed.
	DefaultCacheTTL = 6 * time.Hour

	DirectoryPsychologistsKey = "directory:psychologists"
	DirectoryClinicsKey       = "directory:clinics"
)

// CacheService stores JSON values in Redis. Reads treat any failure as a miss so a Redis outage
// only costs a database query.
type CacheService struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewCacheService(rdb *redis.Client, ttl time.Duration) *CacheService {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &CacheService{rdb: rdb, ttl: ttl}
}

// Get retrieves a value from cache
func (c *CacheService) Get(ctx context.Context, key string, dest interface{}) bool {
	if c == nil || c.rdb == nil {
		return false
	}
	val, err := c.rdb.Get(ctx, CacheKeyPrefix+key).Bytes()
	if err != nil {
		return false
	}
	return json.Unmarshal(val, dest) == nil
}

// Set stores a value in cache with the default TTL
func (c *CacheService) Set(ctx context.Context, key string, value interface{}) error {
	if c == nil || c.rdb == nil {
		return nil
	}
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, CacheKeyPrefix+key, data, c.ttl).Err()
}

// Delete removes values from cache
func (c *CacheService) Delete(ctx context.Context, keys ...string) error {
	if c == nil || c.rdb == nil || len(keys) == 0 {
		return nil
	}
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = CacheKeyPrefix + k
	}
	err := c.rdb.Del(ctx, full...).Err()
	if errors.Is(err, redis.Nil) {
		return nil
	}
	return err
}

// Generation returns the invalidation counter of key. ok is false when Redis cannot answer, in
// which case the caller must not fill the cache.
func (c *CacheService) Generation(ctx context.Context, key string) (gen int64, ok bool) {
	if c == nil || c.rdb == nil {
		return 0, false
	}
	gen, err := c.rdb.Get(ctx, GenerationKeyPrefix+key).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, true
	}
	if err != nil {
		return 0, false
	}
	return gen, true
}

// Invalidate bumps the generation of each key and drops its cached value in one transaction.
// Fills that read the old generation are refused afterwards.
func (c *CacheService) Invalidate(ctx context.Context, keys ...string) error {
	if c == nil || c.rdb == nil || len(keys) == 0 {
		return nil
	}
	_, err := c.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, k := range keys {
			pipe.Incr(ctx, GenerationKeyPrefix+k)
			pipe.Del(ctx, CacheKeyPrefix+k)
		}
		return nil
	})
	return err
}

// SetIfGeneration stores value only while the generation of key is still gen. stored is false
// when an invalidation happened since gen was read.
func (c *CacheService) SetIfGeneration(ctx context.Context, key string, gen int64, value interface{}) (stored bool, err error) {
	if c == nil || c.rdb == nil {
		return false, nil
	}
	data, err := json.Marshal(value)
	if err != nil {
		return false, err
	}
	genKey := GenerationKeyPrefix + key
	err = c.rdb.Watch(ctx, func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, genKey).Int64()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if current != gen {
			return nil
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, CacheKeyPrefix+key, data, c.ttl)
			return nil
		})
		if err == nil {
			stored = true
		}
		return err
	}, genKey)
	if errors.Is(err, redis.TxFailedErr) {
		return false, nil
	}
	return stored, err
}
