package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const textPipelineKeyPrefix = "textpipeline:"

// TextPipelineKey namespaces a content digest.
func TextPipelineKey(digest string) string {
	return textPipelineKeyPrefix + digest
}

// GetJSON attempts to get the key from Redis and unmarshal into dest.
// Returns (true, nil) if found and unmarshaled, (false, nil) if not found.
func GetJSON(ctx context.Context, rdb *redis.Client, key string, dest any) (bool, error) {
	if rdb == nil {
		return false, nil
	}
	s, err := rdb.Get(ctx, key).Result()
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

// SetJSON marshals v and sets the key with TTL.
func SetJSON(ctx context.Context, rdb *redis.Client, key string, v any, ttl time.Duration) error {
	if rdb == nil {
		return nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return rdb.Set(ctx, key, b, ttl).Err()
}

// Aside tries Redis first; on a miss (or a Redis failure) it calls fetch, which must
// populate dest, then stores dest best-effort. It reports whether dest came from cache.
func Aside(ctx context.Context, rdb *redis.Client, key string, dest any, ttl time.Duration, fetch func() error) (bool, error) {
	if found, err := GetJSON(ctx, rdb, key, dest); err == nil && found {
		return true, nil
	}
	if err := fetch(); err != nil {
		return false, err
	}
	_ = SetJSON(ctx, rdb, key, dest, ttl)
	return false, nil
}
