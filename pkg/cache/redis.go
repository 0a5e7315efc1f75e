package cache

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisOptions configures a RedisCache.
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
	// DialTimeout bounds connection setup. Zero uses 2s.
	DialTimeout time.Duration
}

// RedisCache stores artifacts in Redis with native key expiry, so replicas of
// the server share rendered output.
type RedisCache struct {
	client  *redis.Client
	backoff Backoff
}

// NewRedisCache connects and pings the server.
func NewRedisCache(ctx context.Context, opts RedisOptions) (*RedisCache, error) {
	if opts.DialTimeout <= 0 {
		opts.DialTimeout = 2 * time.Second
	}
	client := redis.NewClient(&redis.Options{
		Addr:        opts.Addr,
		Password:    opts.Password,
		DB:          opts.DB,
		DialTimeout: opts.DialTimeout,
	})
	c := NewRedisCacheFromClient(client)
	if err := c.Ping(ctx); err != nil {
		client.Close()
		return nil, err
	}
	return c, nil
}

// NewRedisCacheFromClient wraps an existing client. The cache owns the
// client and closes it on Close.
func NewRedisCacheFromClient(client *redis.Client) *RedisCache {
	return &RedisCache{client: client, backoff: DefaultBackoff}
}

// WithBackoff returns c with a different retry policy.
func (c *RedisCache) WithBackoff(b Backoff) *RedisCache {
	c.backoff = b
	return c
}

// Ping checks connectivity.
func (c *RedisCache) Ping(ctx context.Context) error {
	return c.backoff.Retry(ctx, func() error {
		return classify(c.client.Ping(ctx).Err())
	})
}

// Get reads a key; redis.Nil is a miss.
func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var data []byte
	hit := false
	err := c.backoff.Retry(ctx, func() error {
		v, err := c.client.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			return nil
		}
		if err != nil {
			return classify(err)
		}
		data, hit = v, true
		return nil
	})
	if err != nil {
		return nil, false, unwrapRetryable(err)
	}
	return data, hit, nil
}

// Set writes a key with expiry. A non-positive ttl never expires.
func (c *RedisCache) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	if ttl < 0 {
		ttl = 0
	}
	return unwrapRetryable(c.backoff.Retry(ctx, func() error {
		return classify(c.client.Set(ctx, key, data, ttl).Err())
	}))
}

// Delete removes a key.
func (c *RedisCache) Delete(ctx context.Context, key string) error {
	return unwrapRetryable(c.backoff.Retry(ctx, func() error {
		return classify(c.client.Del(ctx, key).Err())
	}))
}

// Close closes the client.
func (c *RedisCache) Close() error {
	return c.client.Close()
}

// classify marks network failures as retryable and unavailable.
func classify(err error) error {
	if err == nil {
		return nil
	}
	var ne net.Error
	if errors.As(err, &ne) || errors.Is(err, redis.ErrClosed) {
		return Retryable(fmt.Errorf("%w: %w", ErrUnavailable, err))
	}
	return err
}

func unwrapRetryable(err error) error {
	var re *RetryableError
	if errors.As(err, &re) {
		return re.Err
	}
	return err
}

var _ Cache = (*RedisCache)(nil)
