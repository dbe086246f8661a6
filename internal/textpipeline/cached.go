package textpipeline

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"chirp/internal/cache"
	"chirp/internal/observability"

	"github.com/redis/go-redis/v9"
)

// Cached memoizes successful runs in Redis, keyed by a digest of the input text.
// Failed runs are never cached. A nil client disables caching.
type Cached struct {
	next Pipeline
	rdb  *redis.Client
	ttl  time.Duration
}

// NewCached wraps next with a Redis result cache.
func NewCached(next Pipeline, rdb *redis.Client, ttl time.Duration) *Cached {
	return &Cached{next: next, rdb: rdb, ttl: ttl}
}

// Process implements Pipeline.
func (c *Cached) Process(ctx context.Context, text string) (Result, error) {
	sum := sha256.Sum256([]byte(text))
	key := cache.TextPipelineKey(hex.EncodeToString(sum[:]))

	var res Result
	hit, err := cache.Aside(ctx, c.rdb, key, &res, c.ttl, func() error {
		out, err := c.next.Process(ctx, text)
		if err != nil {
			return err
		}
		res = out
		return nil
	})
	if err != nil {
		return Result{}, err
	}
	if hit {
		observability.TextPipelineCache.WithLabelValues("hit").Inc()
	} else {
		observability.TextPipelineCache.WithLabelValues("miss").Inc()
	}
	return res, nil
}
