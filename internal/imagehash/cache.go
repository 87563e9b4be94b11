package imagehash

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const cacheKeyPrefix = "imghash:"

// Cached memoizes hashes per URL in Redis. Redis failures are logged and the
// wrapped hasher is used directly.
type Cached struct {
	next Hasher
	rdb  *redis.Client
	ttl  time.Duration
	log  *slog.Logger
}

func NewCached(next Hasher, rdb *redis.Client, ttl time.Duration, log *slog.Logger) *Cached {
	if log == nil {
		log = slog.Default()
	}
	return &Cached{next: next, rdb: rdb, ttl: ttl, log: log}
}

func (c *Cached) Hash(ctx context.Context, imageURL string) (string, error) {
	key := cacheKey(imageURL)

	val, err := c.rdb.Get(ctx, key).Result()
	switch {
	case err == nil && val != "":
		return val, nil
	case err != nil && !errors.Is(err, redis.Nil):
		c.log.Warn("image hash cache read failed", "error", err)
	}

	hash, err := c.next.Hash(ctx, imageURL)
	if err != nil {
		return "", err
	}

	if err := c.rdb.Set(ctx, key, hash, c.ttl).Err(); err != nil {
		c.log.Warn("image hash cache write failed", "error", err)
	}
	return hash, nil
}

func cacheKey(imageURL string) string {
	sum := sha256.Sum256([]byte(imageURL))
	return cacheKeyPrefix + hex.EncodeToString(sum[:])
}
