package person

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"minesykmeldte/internal/platform/redis"
)

// CachedResolver decorates a Resolver with a Redis cache. Cache keys are a
// hash of the fnr so the national ID itself never appears in Redis. Cache
// failures degrade to a registry lookup; only ErrNotFound and transport
// errors from the inner resolver propagate.
type CachedResolver struct {
	inner  Resolver
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

func NewCachedResolver(inner Resolver, client *redis.Client, ttl time.Duration, logger *slog.Logger) *CachedResolver {
	return &CachedResolver{inner: inner, client: client, ttl: ttl, logger: logger}
}

func (c *CachedResolver) Resolve(ctx context.Context, fnr string) (*Person, error) {
	key := cacheKey(fnr)

	cached, err := c.client.Get(ctx, key).Bytes()
	if err == nil {
		var p Person
		if err := json.Unmarshal(cached, &p); err == nil {
			return &p, nil
		}
		// Unreadable entry; fall through and overwrite.
	} else if !errors.Is(err, goredis.Nil) {
		c.logger.WarnContext(ctx, "person cache read failed", "error", err)
	}

	p, err := c.inner.Resolve(ctx, fnr)
	if err != nil {
		return nil, err
	}

	payload, err := json.Marshal(p)
	if err == nil {
		if err := c.client.Set(ctx, key, payload, c.ttl).Err(); err != nil {
			c.logger.WarnContext(ctx, "person cache write failed", "error", err)
		}
	}
	return p, nil
}

func cacheKey(fnr string) string {
	sum := sha256.Sum256([]byte(fnr))
	return "person:" + hex.EncodeToString(sum[:])
}
