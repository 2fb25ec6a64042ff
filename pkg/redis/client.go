package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// ErrNoKey is returned by Get when the key does not exist or has expired.
var ErrNoKey = errors.New("redis: key not found")

type Client struct {
	client *redis.Client
}

// Connect creates a client and waits for the server to answer a ping,
// retrying with exponential backoff so the service survives a Redis
// instance that comes up later than we do.
func Connect(ctx context.Context, addr, password string, db int, logger *zap.Logger) (*Client, error) {
	c := &Client{
		client: redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: password,
			DB:       db,
		}),
	}

	retryPolicy := backoff.NewExponentialBackOff()
	retryPolicy.MaxElapsedTime = 2 * time.Minute
	retryPolicy.MaxInterval = 15 * time.Second

	logger.Info("Connecting to Redis...", zap.String("addr", addr))

	err := backoff.RetryNotify(
		func() error {
			if err := c.client.Ping(ctx).Err(); err != nil {
				return fmt.Errorf("ping: %w", err)
			}
			return nil
		},
		backoff.WithContext(retryPolicy, ctx),
		func(err error, duration time.Duration) {
			logger.Warn("Redis connection failed, retrying...",
				zap.Error(err),
				zap.Duration("next_attempt_in", duration))
		},
	)
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("connect to redis after retries: %w", err)
	}

	logger.Info("Successfully connected to Redis")
	return c, nil
}

// Get retrieves a key's value.
func (c *Client) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNoKey
	}
	return data, err
}

// Set sets a key's value with TTL.
func (c *Client) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	return c.client.Set(ctx, key, data, ttl).Err()
}

// Del deletes a key.
func (c *Client) Del(ctx context.Context, key string) error {
	return c.client.Del(ctx, key).Err()
}

// Close closes the Redis connection.
func (c *Client) Close() {
	if c.client != nil {
		_ = c.client.Close()
	}
}
