package prediction

import (
	"context"
	"time"

	"log/slog"

	redis "github.com/redis/go-redis/v9"
)

// Cache stores serialized prediction responses for a short TTL.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, value []byte)
	Close() error
}

type redisCache struct {
	client *redis.Client
	logger *slog.Logger
	ttl    time.Duration
}

// NewRedisCache connects to Redis and returns a prediction cache. The
// connection is verified with a short ping before use.
func NewRedisCache(addr, password string, db int, ttl time.Duration, logger *slog.Logger) (Cache, error) {
	opts := &redis.Options{Addr: addr, Password: password, DB: db}
	client := redis.NewClient(opts)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, err
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &redisCache{client: client, logger: logger, ttl: ttl}, nil
}

// Get returns the cached payload for key. Cache outages degrade to a miss.
func (c *redisCache) Get(ctx context.Context, key string) ([]byte, bool) {
	val, err := c.client.Get(ctx, "prediction:"+key).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.logger.Warn("prediction cache read failed", "key", key, "error", err)
		}
		return nil, false
	}
	return val, true
}

// Set stores payload under key for the configured TTL. Failures are logged
// and otherwise ignored.
func (c *redisCache) Set(ctx context.Context, key string, value []byte) {
	if err := c.client.Set(ctx, "prediction:"+key, value, c.ttl).Err(); err != nil {
		c.logger.Warn("prediction cache write failed", "key", key, "error", err)
	}
}

func (c *redisCache) Close() error {
	return c.client.Close()
}
